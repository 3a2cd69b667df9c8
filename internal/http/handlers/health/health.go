package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/princekumarofficial/atlasnap-service/internal/cache"
	"github.com/princekumarofficial/atlasnap-service/internal/utils/response"
)

const checkTimeout = 2 * time.Second

// Pinger is anything that can report its own reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Counter reports live WebSocket connections.
type Counter interface {
	ClientCount() int
}

type HealthResponse struct {
	Status      string      `json:"status"`
	Database    string      `json:"database"`
	Cache       cache.Stats `json:"cache"`
	Connections int         `json:"websocket_connections"`
}

type HealthHandlers struct {
	db    Pinger
	redis *redis.Client
	hub   Counter
}

func NewHealthHandlers(db Pinger, redisClient *redis.Client, hub Counter) *HealthHandlers {
	return &HealthHandlers{db: db, redis: redisClient, hub: hub}
}

// Health godoc
// @Summary Health check
// @Description Reports database and cache reachability; 503 when the database is down
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		defer cancel()

		resp := HealthResponse{Status: "healthy", Database: "ok"}
		status := http.StatusOK

		if err := h.db.Ping(ctx); err != nil {
			slog.Error("Database health check failed", slog.String("error", err.Error()))
			resp.Status = "unhealthy"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		}

		if h.redis != nil {
			resp.Cache = cache.GetStats(ctx, h.redis)
			if !resp.Cache.RedisConnected && status == http.StatusOK {
				resp.Status = "degraded"
			}
		}

		if h.hub != nil {
			resp.Connections = h.hub.ClientCount()
		}

		response.WriteJSON(w, status, resp)
	}
}

// Root godoc
// @Summary Welcome
// @Tags health
// @Produce json
// @Success 200 {object} response.Response
// @Router / [get]
func (h *HealthHandlers) Root() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Welcome to the Atlasnap media API", nil))
	}
}

func RegisterRoutes(mux *http.ServeMux, h *HealthHandlers) {
	mux.HandleFunc("GET /{$}", h.Root())
	mux.HandleFunc("GET /health", h.Health())
}
