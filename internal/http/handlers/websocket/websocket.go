package websocket

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/princekumarofficial/atlasnap-service/internal/types/users"
	"github.com/princekumarofficial/atlasnap-service/internal/utils/response"
	wsClient "github.com/princekumarofficial/atlasnap-service/internal/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers cannot set an Authorization header on upgrade requests, so
	// the access token travels in the query string and origin is not checked.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// TokenAuthenticator resolves an access token to its user.
type TokenAuthenticator interface {
	UserFromToken(ctx context.Context, token string) (*users.User, error)
}

// WebSocketHandler godoc
// @Summary Subscribe to media events
// @Description Upgrade to a WebSocket that receives media.confirmed and media.deleted events for the caller
// @Tags events
// @Param token query string true "Access token"
// @Success 101
// @Failure 401 {object} response.Response
// @Router /ws [get]
func WebSocketHandler(hub *wsClient.Hub, auth TokenAuthenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			slog.Warn("WebSocket connection attempted without token")
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("token required")))
			return
		}

		user, err := auth.UserFromToken(r.Context(), token)
		if err != nil || !user.IsActive {
			slog.Warn("WebSocket connection attempted with invalid token")
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("invalid token")))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("Failed to upgrade WebSocket connection", slog.String("error", err.Error()))
			return
		}

		client := wsClient.NewClient(conn, user.ID, hub)
		if !hub.RegisterClient(client) {
			conn.Close()
			return
		}
		client.Start()
	}
}
