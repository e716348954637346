package events

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"lendhub/internal/modules/lending"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, hub *Hub, userID int64) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		hub.Register(userID, conn)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHub_RegisterAndPublish(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub, 7)

	require.Eventually(t, func() bool { return hub.OnlineCount() == 1 },
		time.Second, 10*time.Millisecond)

	hub.Publish(context.Background(), lending.RequestEvent{
		Type: "request.approved", RequestID: 1, EquipmentID: 10, Status: "approved",
	})

	var got lending.RequestEvent
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "request.approved", got.Type)
	assert.Equal(t, int64(1), got.RequestID)
}

// Lifecycle events for unrelated equipment land on the same staff socket
// from separate request goroutines; every frame must arrive intact.
func TestHub_ConcurrentPublishersShareOneSocket(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub, 7)

	require.Eventually(t, func() bool { return hub.OnlineCount() == 1 },
		time.Second, 10*time.Millisecond)

	const publishers = 8
	const perPublisher = 200

	var wg sync.WaitGroup
	for p := 0; p < publishers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perPublisher; i++ {
				hub.Publish(context.Background(), lending.RequestEvent{
					Type:        "request.approved",
					RequestID:   int64(p*perPublisher + i),
					EquipmentID: int64(p),
					Status:      "approved",
				})
			}
		}(p)
	}

	received := 0
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for received < publishers*perPublisher {
		var got lending.RequestEvent
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, "request.approved", got.Type)
		received++
	}

	wg.Wait()
	assert.Equal(t, publishers*perPublisher, received)
	assert.Equal(t, 1, hub.OnlineCount(), "socket must survive the burst")
}

func TestHub_ReconnectReplacesSocket(t *testing.T) {
	hub := NewHub()
	dialHub(t, hub, 7)

	require.Eventually(t, func() bool { return hub.OnlineCount() == 1 },
		time.Second, 10*time.Millisecond)

	second := dialHub(t, hub, 7)

	require.Eventually(t, func() bool { return hub.OnlineCount() == 1 },
		time.Second, 10*time.Millisecond)

	hub.Publish(context.Background(), lending.RequestEvent{Type: "request.created", RequestID: 2})

	var got lending.RequestEvent
	require.NoError(t, second.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, second.ReadJSON(&got))
	assert.Equal(t, "request.created", got.Type)
}
