package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"garage_config/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testClient(h *Hub, buffer int) *Client {
	c := &Client{hub: h, send: make(chan []byte, buffer), rooms: make(map[string]struct{})}
	h.Register(c)
	return c
}

func mustEvent(t *testing.T, typ domain.GarageEventType, id string, data any) domain.GarageEvent {
	t.Helper()
	e, err := domain.NewGarageEvent(typ, id, data)
	require.NoError(t, err)
	return e
}

func receive(t *testing.T, c *Client) ServerMessage {
	t.Helper()
	select {
	case data := <-c.send:
		var msg ServerMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return ServerMessage{}
}

func TestHub_RoomScoping(t *testing.T) {
	h := NewHub(zap.NewNop())
	subscribed := testClient(h, 4)
	other := testClient(h, 4)
	subscribed.handleMessage([]byte(`{"type":"subscribe-garage","garageId":"g1"}`))

	h.Broadcast(mustEvent(t, domain.EventGarageUpdated, "g1", map[string]string{"_id": "g1"}))
	msg := receive(t, subscribed)
	assert.Equal(t, domain.EventGarageUpdated, msg.Event)
	assert.Empty(t, other.send)

	h.Broadcast(mustEvent(t, domain.EventGarageDeleted, "g1", "g1"))
	assert.Equal(t, domain.EventGarageDeleted, receive(t, subscribed).Event)
	assert.Equal(t, domain.EventGarageDeleted, receive(t, other).Event)

	subscribed.handleMessage([]byte(`{"type":"unsubscribe-garage","garageId":"g1"}`))
	assert.Equal(t, 0, h.RoomSize(domain.GarageRoom("g1")))
	h.Broadcast(mustEvent(t, domain.EventGarageUpdated, "g1", nil))
	assert.Empty(t, subscribed.send)
}

func TestHub_SlowClientDropsMessages(t *testing.T) {
	h := NewHub(zap.NewNop())
	slow := testClient(h, 1)

	for i := 0; i < 3; i++ {
		h.Broadcast(mustEvent(t, domain.EventGarageCreated, "g", nil))
	}
	assert.Len(t, slow.send, 1)
}

func TestHub_UnregisterIsIdempotent(t *testing.T) {
	h := NewHub(zap.NewNop())
	c := testClient(h, 1)

	h.Unregister(c)
	h.Unregister(c)
	assert.Equal(t, 0, h.ClientCount())
	assert.False(t, c.trySend([]byte("x")))
}

func TestHub_IgnoresBadClientMessages(t *testing.T) {
	h := NewHub(zap.NewNop())
	c := testClient(h, 1)

	c.handleMessage([]byte(`nonsense`))
	c.handleMessage([]byte(`{"type":"subscribe-garage"}`))
	c.handleMessage([]byte(`{"type":"join","garageId":"g1"}`))
	assert.Empty(t, c.rooms)
}

func TestHub_ServeWS(t *testing.T) {
	h := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MsgSubscribeGarage, GarageID: "g7"}))
	require.Eventually(t, func() bool { return h.RoomSize(domain.GarageRoom("g7")) == 1 }, 2*time.Second, 10*time.Millisecond)

	h.Publish(ctx, mustEvent(t, domain.EventGarageUpdated, "g7", map[string]string{"name": "Riverside"}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg ServerMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, domain.EventGarageUpdated, msg.Event)
	assert.JSONEq(t, `{"name":"Riverside"}`, string(msg.Data))
	assert.False(t, msg.Timestamp.IsZero())
}

func TestRedisRelay_ForwardsToHub(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewRedisClient(mr.Addr(), "", 0)
	defer client.Close()

	h := NewHub(zap.NewNop())
	c := testClient(h, 4)
	relay := NewRedisRelay(client, h, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, relay.Start(ctx))

	relay.Publish(ctx, mustEvent(t, domain.EventGarageCreated, "g2", map[string]string{"_id": "g2"}))

	msg := receive(t, c)
	assert.Equal(t, domain.EventGarageCreated, msg.Event)
	assert.JSONEq(t, `{"_id":"g2"}`, string(msg.Data))
}

func TestRedisRelay_FallsBackToLocalDelivery(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewRedisClient(mr.Addr(), "", 0)
	defer client.Close()
	mr.Close()

	h := NewHub(zap.NewNop())
	c := testClient(h, 4)
	relay := NewRedisRelay(client, h, zap.NewNop())

	relay.Publish(context.Background(), mustEvent(t, domain.EventGarageDeleted, "g3", "g3"))
	assert.Equal(t, domain.EventGarageDeleted, receive(t, c).Event)
}
