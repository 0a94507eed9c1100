package socket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendToOfflineUserIsNoop(t *testing.T) {
	hub := NewHub()
	assert.NoError(t, hub.Send("nobody", []byte("hello")))
}

func TestRegisterSendUnregister(t *testing.T) {
	hub := NewHub()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	registered := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		hub.Register("user-1", conn)
		close(registered)
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer client.Close()

	<-registered
	require.NoError(t, hub.Send("user-1", []byte("ping")))

	messageType, payload, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, messageType)
	assert.Equal(t, "ping", string(payload))

	hub.Unregister("user-1")
	assert.NoError(t, hub.Send("user-1", []byte("gone")))
}
