package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/atlasnap-service/internal/types"
)

var testUpgrader = websocket.Upgrader{}

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(conn, r.URL.Query().Get("user"), hub)
		if hub.RegisterClient(client) {
			client.Start()
		}
	}))

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, userID string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_DeliversToEveryConnectionOfUser(t *testing.T) {
	hub, srv := startHub(t)

	first := dial(t, srv, "u1")
	second := dial(t, srv, "u1")
	other := dial(t, srv, "u2")

	require.Eventually(t, func() bool { return hub.ClientCount() == 3 }, time.Second, 10*time.Millisecond)
	assert.True(t, hub.IsUserConnected("u1"))

	hub.BroadcastToUser("u1", types.NewEvent(types.EventMediaDeleted, &types.MediaDeletedEvent{MediaID: "m1"}))

	for _, conn := range []*websocket.Conn{first, second} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
		var got struct {
			Type types.EventType         `json:"type"`
			Data types.MediaDeletedEvent `json:"data"`
		}
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, types.EventMediaDeleted, got.Type)
		assert.Equal(t, "m1", got.Data.MediaID)
	}

	require.NoError(t, other.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err)
}

func TestHub_UnregistersClosedConnection(t *testing.T) {
	hub, srv := startHub(t)

	conn := dial(t, srv, "u1")
	require.Eventually(t, func() bool { return hub.IsUserConnected("u1") }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return !hub.IsUserConnected("u1") }, time.Second, 10*time.Millisecond)
}

func TestHub_RegisterAfterStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()

	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	assert.False(t, hub.RegisterClient(&Client{userID: "u1", send: make(chan []byte, 1), hub: hub}))
	hub.UnregisterClient(&Client{userID: "u1", hub: hub})
}
