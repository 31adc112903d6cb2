package ws

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, handle func(conn *websocket.Conn)) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func echo(conn *websocket.Conn) {
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if err := conn.WriteMessage(mt, append([]byte("echo:"), data...)); err != nil {
			return
		}
	}
}

func dial(t *testing.T, config Config) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := Dial(ctx, config)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestClient_SendRecv(t *testing.T) {
	url := newServer(t, echo)
	client := dial(t, Config{URL: url})

	assert.True(t, client.IsConnected())
	assert.Equal(t, StateConnected, client.State())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, msg := range []string{`{"command":"ping"}`, `{"command":"getVersion"}`} {
		require.NoError(t, client.Send(ctx, []byte(msg)))
		got, err := client.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, "echo:"+msg, string(got))
	}
}

func TestClient_PreservesOrder(t *testing.T) {
	url := newServer(t, func(conn *websocket.Conn) {
		for _, msg := range []string{"1", "2", "3"} {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
		_, _, _ = conn.ReadMessage()
	})
	client := dial(t, Config{URL: url})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, want := range []string{"1", "2", "3"} {
		got, err := client.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, string(got))
	}
}

func TestClient_RecvTimeout(t *testing.T) {
	url := newServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	client := dial(t, Config{URL: url})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, client.Send(ctx, []byte("hello")))
	_, err := client.Recv(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_ServerClose(t *testing.T) {
	url := newServer(t, func(conn *websocket.Conn) {
		_, _, _ = conn.ReadMessage()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
	})
	client := dial(t, Config{URL: url})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, client.Send(ctx, []byte("hello")))
	_, err := client.Recv(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrClosed))

	assert.Error(t, client.Send(ctx, []byte("again")))
}

func TestClient_Close(t *testing.T) {
	url := newServer(t, echo)
	client := dial(t, Config{URL: url})

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())
	assert.Equal(t, StateClosed, client.State())

	ctx := context.Background()
	assert.Error(t, client.Send(ctx, []byte("x")))
	_, err := client.Recv(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestClient_Keepalive(t *testing.T) {
	var pings atomic.Int32
	url := newServer(t, func(conn *websocket.Conn) {
		conn.SetPingHandler(func(data string) error {
			pings.Add(1)
			return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
		})
		echo(conn)
	})
	client := dial(t, Config{URL: url, PingInterval: 20 * time.Millisecond})

	require.Eventually(t, func() bool { return pings.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, client.IsConnected())
}

func TestDial_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Dial(ctx, Config{URL: "ws://127.0.0.1:1/demo", HandshakeTimeout: time.Second})
	assert.Error(t, err)
}

func TestDial_ExpiredContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Dial(ctx, Config{URL: "ws://127.0.0.1:1/demo"})
	assert.Error(t, err)
}

func TestConnState_String(t *testing.T) {
	assert.Equal(t, "connected", StateConnected.String())
	assert.Equal(t, "closed", StateClosed.String())
}
