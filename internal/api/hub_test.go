package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/everforgeworks/factory-sim/internal/game"
)

func dialWs(t *testing.T, env *testEnv) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return env.hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func TestHub_BroadcastsFactoryEvents(t *testing.T) {
	env := newTestEnv(t, false)
	conn := dialWs(t, env)

	resp := env.do(t, http.MethodPost, "/api/buildings", PlaceRequest{Type: "Pump"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	msg := readMessage(t, conn)
	assert.Equal(t, EventBuildingPlaced, msg.Type)
	assert.Equal(t, "system", msg.Sender)
	payload := msg.Payload.(map[string]interface{})
	assert.Equal(t, "Pump", payload["type"])

	env.do(t, http.MethodPost, "/api/step", nil)

	msg = readMessage(t, conn)
	assert.Equal(t, EventTick, msg.Type)
	assert.Equal(t, 1.0, msg.Payload.(map[string]interface{})["tick"])
}

func TestHub_UnregistersClosedClient(t *testing.T) {
	env := newTestEnv(t, false)
	conn := dialWs(t, env)

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool { return env.hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zap.NewNop(), "*", 1)

	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	// Publishing after shutdown must not block.
	hub.Publish(context.Background(), EventTick, game.TickReport{})
}
