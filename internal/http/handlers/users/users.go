package users

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/princekumarofficial/atlasnap-service/internal/http/middleware"
	"github.com/princekumarofficial/atlasnap-service/internal/storage"
	"github.com/princekumarofficial/atlasnap-service/internal/types/users"
	"github.com/princekumarofficial/atlasnap-service/internal/utils/jwt"
	"github.com/princekumarofficial/atlasnap-service/internal/utils/password"
	"github.com/princekumarofficial/atlasnap-service/internal/utils/request"
	"github.com/princekumarofficial/atlasnap-service/internal/utils/response"
)

const verifyTokenLifetime = time.Hour

var errBadCredentials = errors.New("invalid email or password")

type UserHandlers struct {
	store    storage.UserStore
	secret   string
	lifetime time.Duration
}

func NewUserHandlers(store storage.UserStore, jwtSecret string, tokenLifetime time.Duration) *UserHandlers {
	return &UserHandlers{store: store, secret: jwtSecret, lifetime: tokenLifetime}
}

// Register handles user registration
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param user body users.SignUpRequest true "User registration details"
// @Success 201 {object} users.User
// @Failure 400 {object} response.Response "Bad request or email taken"
// @Failure 500 {object} response.Response "Internal server error"
// @Router /api/v1/auth/register [post]
func (h *UserHandlers) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req users.SignUpRequest
		if !request.DecodeAndValidate(w, r, &req) {
			return
		}

		hashedPassword, err := password.HashPassword(req.Password)
		if err != nil {
			response.WriteError(w, http.StatusInternalServerError, errors.New("failed to hash password"))
			return
		}

		user, err := h.store.CreateUser(r.Context(), req.Email, hashedPassword)
		if errors.Is(err, users.ErrUserExists) {
			response.WriteError(w, http.StatusBadRequest, err)
			return
		}
		if err != nil {
			slog.Error("Failed to create user", slog.String("error", err.Error()))
			response.WriteError(w, http.StatusInternalServerError, errors.New("failed to create user"))
			return
		}
		slog.Info("User registered", slog.String("user_id", user.ID))

		response.WriteJSON(w, http.StatusCreated, user)
	}
}

// Login handles user authentication
// @Summary Log in
// @Description Exchange email and password for a bearer access token
// @Tags auth
// @Accept json
// @Produce json
// @Param user body users.SignInRequest true "Credentials"
// @Success 200 {object} users.TokenResponse
// @Failure 400 {object} response.Response "Bad credentials"
// @Router /api/v1/auth/jwt/login [post]
func (h *UserHandlers) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req users.SignInRequest
		if !request.DecodeAndValidate(w, r, &req) {
			return
		}

		user, err := h.store.GetUserByEmail(r.Context(), req.Email)
		if err != nil && !errors.Is(err, users.ErrUserNotFound) {
			slog.Error("Failed to load user", slog.String("error", err.Error()))
			response.WriteError(w, http.StatusInternalServerError, errors.New("failed to log in"))
			return
		}
		if user == nil || !password.CheckPasswordHash(req.Password, user.Password) {
			response.WriteError(w, http.StatusBadRequest, errBadCredentials)
			return
		}
		if !user.IsActive {
			response.WriteError(w, http.StatusBadRequest, errBadCredentials)
			return
		}

		token, err := jwt.CreateToken(user.ID, jwt.AudienceAuth, h.secret, h.lifetime)
		if err != nil {
			response.WriteError(w, http.StatusInternalServerError, errors.New("failed to generate token"))
			return
		}

		response.WriteJSON(w, http.StatusOK, users.TokenResponse{AccessToken: token, TokenType: "bearer"})
	}
}

// RequestVerifyToken issues an email verification token
// @Summary Request a verification token
// @Description Always answers 202 so the endpoint cannot be used to probe for accounts
// @Tags auth
// @Accept json
// @Param user body users.VerifyTokenRequest true "Email"
// @Success 202
// @Router /api/v1/auth/request-verify-token [post]
func (h *UserHandlers) RequestVerifyToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req users.VerifyTokenRequest
		if !request.DecodeAndValidate(w, r, &req) {
			return
		}

		user, err := h.store.GetUserByEmail(r.Context(), req.Email)
		if err == nil && user.IsActive && !user.IsVerified {
			token, err := jwt.CreateToken(user.ID, jwt.AudienceVerify, h.secret, verifyTokenLifetime)
			if err != nil {
				slog.Error("Failed to create verify token", slog.String("error", err.Error()))
			} else {
				// No mail delivery yet; the token goes to the log.
				slog.Info("Verification requested", slog.String("user_id", user.ID), slog.String("token", token))
			}
		}

		w.WriteHeader(http.StatusAccepted)
	}
}

// Verify marks the token's user as verified
// @Summary Verify email
// @Tags auth
// @Accept json
// @Produce json
// @Param token body users.VerifyRequest true "Verification token"
// @Success 200 {object} users.User
// @Failure 400 {object} response.Response "Bad or expired token"
// @Router /api/v1/auth/verify [post]
func (h *UserHandlers) Verify() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req users.VerifyRequest
		if !request.DecodeAndValidate(w, r, &req) {
			return
		}

		userID, err := jwt.ExtractUserIDFromToken(req.Token, jwt.AudienceVerify, h.secret)
		if err != nil {
			response.WriteError(w, http.StatusBadRequest, errors.New("invalid verification token"))
			return
		}

		if err := h.store.MarkUserVerified(r.Context(), userID); err != nil {
			if errors.Is(err, users.ErrUserNotFound) {
				response.WriteError(w, http.StatusBadRequest, errors.New("invalid verification token"))
				return
			}
			slog.Error("Failed to verify user", slog.String("error", err.Error()), slog.String("user_id", userID))
			response.WriteError(w, http.StatusInternalServerError, errors.New("failed to verify user"))
			return
		}

		user, err := h.store.GetUserByID(r.Context(), userID)
		if err != nil {
			response.WriteError(w, http.StatusInternalServerError, errors.New("failed to load user"))
			return
		}

		response.WriteJSON(w, http.StatusOK, user)
	}
}

// Me returns the authenticated user
// @Summary Current user
// @Tags users
// @Produce json
// @Success 200 {object} users.User
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /api/v1/users/me [get]
func (h *UserHandlers) Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.GetUserFromContext(r.Context())
		if !ok {
			response.WriteError(w, http.StatusUnauthorized, middleware.ErrUnauthenticated)
			return
		}

		response.WriteJSON(w, http.StatusOK, user)
	}
}

// RegisterRoutes mounts the auth and user routes on mux. auth guards /users/me.
func RegisterRoutes(mux *http.ServeMux, h *UserHandlers, auth func(http.Handler) http.Handler) {
	mux.HandleFunc("POST /api/v1/auth/register", h.Register())
	mux.HandleFunc("POST /api/v1/auth/jwt/login", h.Login())
	mux.HandleFunc("POST /api/v1/auth/request-verify-token", h.RequestVerifyToken())
	mux.HandleFunc("POST /api/v1/auth/verify", h.Verify())
	mux.Handle("GET /api/v1/users/me", auth(h.Me()))
}
