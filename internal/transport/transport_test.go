package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adminhub/chat-notify-go/internal/model"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// echoServer upgrades the request and hands the server side of the socket to fn.
func echoServer(t *testing.T, fn func(ws *websocket.Conn, r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer ws.Close()
		fn(ws, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return strings.Replace(srv.URL, "http://", "ws://", 1) + "/socket"
}

func TestDefaultFactory(t *testing.T) {
	f, err := DefaultFactory()
	require.NoError(t, err)
	require.NotNil(t, f)

	again, err := DefaultFactory()
	require.NoError(t, err)
	require.NotNil(t, again)
}

func TestDial(t *testing.T) {
	t.Run("attaches token as query parameter", func(t *testing.T) {
		gotToken := make(chan string, 1)
		srv := echoServer(t, func(ws *websocket.Conn, r *http.Request) {
			gotToken <- r.URL.Query().Get("token")
			_, _, _ = ws.ReadMessage()
		})

		conn, err := Dial(context.Background(), wsURL(srv), Config{Token: "abc123", DialTimeout: time.Second})
		require.NoError(t, err)
		defer conn.Close()

		select {
		case tok := <-gotToken:
			assert.Equal(t, "abc123", tok)
		case <-time.After(time.Second):
			t.Fatal("server never saw the handshake")
		}
		assert.True(t, conn.Connected())
		assert.NotEmpty(t, conn.SessionID())
	})

	t.Run("delivers envelopes in order", func(t *testing.T) {
		srv := echoServer(t, func(ws *websocket.Conn, r *http.Request) {
			for _, ev := range []string{"new_session", "new_message"} {
				require.NoError(t, ws.WriteJSON(model.Envelope{Event: ev, Data: json.RawMessage(`{}`)}))
			}
			_, _, _ = ws.ReadMessage()
		})

		conn, err := Dial(context.Background(), wsURL(srv), Config{DialTimeout: time.Second})
		require.NoError(t, err)
		defer conn.Close()

		first := <-conn.Events()
		second := <-conn.Events()
		assert.Equal(t, "new_session", first.Event)
		assert.Equal(t, "new_message", second.Event)
	})

	t.Run("emit writes an envelope", func(t *testing.T) {
		received := make(chan model.Envelope, 1)
		srv := echoServer(t, func(ws *websocket.Conn, r *http.Request) {
			var env model.Envelope
			require.NoError(t, ws.ReadJSON(&env))
			received <- env
		})

		conn, err := Dial(context.Background(), wsURL(srv), Config{DialTimeout: time.Second})
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, conn.Emit(model.EventGetAllSessions, nil))

		select {
		case env := <-received:
			assert.Equal(t, model.EventGetAllSessions, env.Event)
		case <-time.After(time.Second):
			t.Fatal("server never received the emit")
		}
	})

	t.Run("remote close is classified", func(t *testing.T) {
		srv := echoServer(t, func(ws *websocket.Conn, r *http.Request) {
			deadline := time.Now().Add(time.Second)
			_ = ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), deadline)
		})

		conn, err := Dial(context.Background(), wsURL(srv), Config{DialTimeout: time.Second})
		require.NoError(t, err)

		for range conn.Events() {
		}
		assert.ErrorIs(t, conn.Err(), ErrRemoteClosed)
		assert.False(t, conn.Connected())
	})

	t.Run("local close leaves no error", func(t *testing.T) {
		srv := echoServer(t, func(ws *websocket.Conn, r *http.Request) {
			_, _, _ = ws.ReadMessage()
		})

		conn, err := Dial(context.Background(), wsURL(srv), Config{DialTimeout: time.Second})
		require.NoError(t, err)
		require.NoError(t, conn.Close())

		for range conn.Events() {
		}
		assert.NoError(t, conn.Err())
		assert.False(t, conn.Connected())
	})

	t.Run("rejects unsupported scheme", func(t *testing.T) {
		_, err := Dial(context.Background(), "ftp://chat.example.com", Config{})
		assert.Error(t, err)
	})

	t.Run("dial failure returns error", func(t *testing.T) {
		_, err := Dial(context.Background(), "ws://127.0.0.1:1/socket", Config{DialTimeout: 200 * time.Millisecond})
		assert.Error(t, err)
	})
}
