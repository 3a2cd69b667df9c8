package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/princekumarofficial/atlasnap-service/internal/types/users"
	"github.com/princekumarofficial/atlasnap-service/internal/utils/jwt"
	"github.com/princekumarofficial/atlasnap-service/internal/utils/response"
)

type contextKey string

const (
	UserIDKey contextKey = "userID"
	userKey   contextKey = "user"
)

var (
	ErrUnauthenticated = errors.New("not authenticated")
	ErrInactiveUser    = errors.New("user is inactive")
	ErrUnverifiedUser  = errors.New("user is not verified")
)

// IdentityProvider resolves the user behind a request.
type IdentityProvider interface {
	CurrentUser(r *http.Request) (*users.User, error)
}

// UserLookup loads a user by id.
type UserLookup interface {
	GetUserByID(ctx context.Context, userID string) (*users.User, error)
}

// JWTIdentityProvider authenticates bearer access tokens.
type JWTIdentityProvider struct {
	users  UserLookup
	secret string
}

func NewJWTIdentityProvider(lookup UserLookup, jwtSecret string) *JWTIdentityProvider {
	return &JWTIdentityProvider{users: lookup, secret: jwtSecret}
}

func (p *JWTIdentityProvider) CurrentUser(r *http.Request) (*users.User, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, ErrUnauthenticated
	}

	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return nil, ErrUnauthenticated
	}

	return p.UserFromToken(r.Context(), token)
}

// UserFromToken validates an access token and loads its user.
func (p *JWTIdentityProvider) UserFromToken(ctx context.Context, token string) (*users.User, error) {
	userID, err := jwt.ExtractUserIDFromToken(token, jwt.AudienceAuth, p.secret)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	user, err := p.users.GetUserByID(ctx, userID)
	if errors.Is(err, users.ErrUserNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// AuthMiddleware requires an active user.
func AuthMiddleware(idp IdentityProvider) func(http.Handler) http.Handler {
	return authenticate(idp, false)
}

// VerifiedAuthMiddleware requires an active user with a verified email.
func VerifiedAuthMiddleware(idp IdentityProvider) func(http.Handler) http.Handler {
	return authenticate(idp, true)
}

func authenticate(idp IdentityProvider, requireVerified bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := idp.CurrentUser(r)
			if err != nil {
				if errors.Is(err, ErrUnauthenticated) {
					response.WriteError(w, http.StatusUnauthorized, ErrUnauthenticated)
					return
				}
				response.WriteError(w, http.StatusInternalServerError, errors.New("failed to authenticate"))
				return
			}

			if !user.IsActive {
				response.WriteError(w, http.StatusForbidden, ErrInactiveUser)
				return
			}
			if requireVerified && !user.IsVerified {
				response.WriteError(w, http.StatusForbidden, ErrUnverifiedUser)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, user.ID)
			ctx = context.WithValue(ctx, userKey, user)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// GetUserFromContext returns the authenticated user set by AuthMiddleware.
func GetUserFromContext(ctx context.Context) (*users.User, bool) {
	user, ok := ctx.Value(userKey).(*users.User)
	return user, ok
}
