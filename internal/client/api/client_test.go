package api

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
)

// newEchoServer поднимает websocket сервер, который возвращает каждое сообщение обратно
func newEchoServer(t *testing.T) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultPath, r.URL.Path)

		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		for {
			msgType, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			if err := ws.WriteMessage(msgType, data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)

	return server
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{name: "http to ws", input: "http://localhost:8080", expected: "ws://localhost:8080/ws"},
		{name: "https to wss", input: "https://relay.example.com", expected: "wss://relay.example.com/ws"},
		{name: "ws kept", input: "ws://localhost:8080/ws", expected: "ws://localhost:8080/ws"},
		{name: "custom path kept", input: "wss://relay.example.com/sync", expected: "wss://relay.example.com/sync"},
		{name: "root path", input: "ws://localhost:8080/", expected: "ws://localhost:8080/ws"},
		{name: "unsupported scheme", input: "ftp://localhost", wantErr: true},
		{name: "no host", input: "ws:///ws", wantErr: true},
		{name: "garbage", input: "://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeURL(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNewClient(t *testing.T) {
	client, err := NewClient("http://localhost:8080", DefaultSettings())
	require.NoError(t, err)

	assert.Equal(t, "ws://localhost:8080/ws", client.URL())
	assert.Equal(t, 10*time.Second, client.dialer.HandshakeTimeout)

	_, err = NewClient("localhost:8080", DefaultSettings())
	assert.Error(t, err)
}

func TestClient_SendReceive(t *testing.T) {
	server := newEchoServer(t)

	client, err := NewClient(server.URL, DefaultSettings())
	require.NoError(t, err)

	ctx := context.Background()
	conn, err := client.Dial(ctx)
	require.NoError(t, err)
	defer conn.Close()

	messages := []string{
		`{"type":"sync","since":0}`,
		`{"key":"a","record":{"value":1,"timestamp":10,"origin_id":"n1"}}`,
	}
	for _, msg := range messages {
		require.NoError(t, conn.Send(ctx, []byte(msg)))
	}

	for _, expected := range messages {
		data, err := conn.Receive(ctx)
		require.NoError(t, err)
		assert.Equal(t, expected, string(data))
	}
}

func TestClient_DialFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	client, err := NewClient(server.URL, DefaultSettings())
	require.NoError(t, err)

	_, err = client.Dial(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestConn_ReceiveCancel(t *testing.T) {
	server := newEchoServer(t)

	client, err := NewClient(server.URL, DefaultSettings())
	require.NoError(t, err)

	conn, err := client.Dial(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = conn.Receive(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Отмена закрывает соединение
	err = conn.Send(context.Background(), []byte(`{}`))
	assert.ErrorIs(t, err, ErrConnClosed)
	assert.NoError(t, conn.Close())
}

func TestConn_ServerClose(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "bye"))
		_ = ws.Close()
	}))
	defer server.Close()

	client, err := NewClient(strings.Replace(server.URL, "http", "ws", 1), DefaultSettings())
	require.NoError(t, err)

	conn, err := client.Dial(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Receive(context.Background())
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.CloseGoingAway, closeErr.Code)
}

func TestConn_Keepalive(t *testing.T) {
	pings := make(chan struct{}, 8)
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		ws.SetPingHandler(func(data string) error {
			pings <- struct{}{}
			return ws.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
		})
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	settings := DefaultSettings()
	settings.PingInterval = 10 * time.Millisecond

	client, err := NewClient(server.URL, settings)
	require.NoError(t, err)

	conn, err := client.Dial(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	select {
	case <-pings:
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive ping")
	}
}
