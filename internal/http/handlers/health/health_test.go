package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type counter int

func (c counter) ClientCount() int { return int(c) }

func serve(t *testing.T, h *HealthHandlers, path string) (*httptest.ResponseRecorder, HealthResponse) {
	t.Helper()

	mux := http.NewServeMux()
	RegisterRoutes(mux, h)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body HealthResponse
	if path == "/health" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealth(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	t.Run("healthy", func(t *testing.T) {
		rec, body := serve(t, NewHealthHandlers(pinger{}, client, counter(2)), "/health")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "healthy", body.Status)
		assert.True(t, body.Cache.RedisConnected)
		assert.Equal(t, 2, body.Connections)
	})

	t.Run("database down", func(t *testing.T) {
		rec, body := serve(t, NewHealthHandlers(pinger{err: errors.New("refused")}, client, nil), "/health")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "unhealthy", body.Status)
		assert.Equal(t, "unreachable", body.Database)
	})

	t.Run("redis down", func(t *testing.T) {
		dead := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
		t.Cleanup(func() { dead.Close() })

		rec, body := serve(t, NewHealthHandlers(pinger{}, dead, nil), "/health")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "degraded", body.Status)
	})
}

func TestRoot(t *testing.T) {
	rec, _ := serve(t, NewHealthHandlers(pinger{}, nil, nil), "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome")

	rec, _ = serve(t, NewHealthHandlers(pinger{}, nil, nil), "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
