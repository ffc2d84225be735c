package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/adminhub/chat-notify-go/internal/model"
)

const eventBufferSize = 64

// Dial opens a websocket connection to the chat backend. The auth token rides
// in the query string; the handshake is bounded by cfg.DialTimeout.
func Dial(ctx context.Context, serverURL string, cfg Config) (Conn, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/socket"
	}

	q := u.Query()
	if cfg.Token != "" {
		q.Set("token", cfg.Token)
	}
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: cfg.DialTimeout,
	}

	dialCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}

	ws, resp, err := dialer.DialContext(dialCtx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial chat socket: %w", err)
	}

	sessionID := ""
	if resp != nil {
		sessionID = resp.Header.Get("X-Session-Id")
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	c := &wsConn{
		ws:        ws,
		sessionID: sessionID,
		events:    make(chan model.Envelope, eventBufferSize),
		done:      make(chan struct{}),
		connected: true,
	}
	go c.readLoop()

	return c, nil
}

type wsConn struct {
	ws        *websocket.Conn
	sessionID string
	events    chan model.Envelope
	done      chan struct{}

	writeMu sync.Mutex

	mu        sync.Mutex
	connected bool
	closing   bool
	err       error
}

func (c *wsConn) Events() <-chan model.Envelope {
	return c.events
}

func (c *wsConn) Emit(event string, data any) error {
	env := model.Envelope{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s payload: %w", event, err)
		}
		env.Data = raw
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteJSON(env); err != nil {
		return fmt.Errorf("emit %s: %w", event, err)
	}
	return nil
}

func (c *wsConn) Close() error {
	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		return nil
	}
	c.closing = true
	c.connected = false
	close(c.done)
	c.mu.Unlock()

	c.writeMu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), closeDeadline())
	c.writeMu.Unlock()

	return c.ws.Close()
}

func (c *wsConn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *wsConn) SessionID() string {
	return c.sessionID
}

func (c *wsConn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func closeDeadline() time.Time {
	return time.Now().Add(time.Second)
}

func (c *wsConn) readLoop() {
	defer close(c.events)

	for {
		var env model.Envelope
		if err := c.ws.ReadJSON(&env); err != nil {
			c.mu.Lock()
			c.connected = false
			switch {
			case c.closing:
				// local Close: not an error
			case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
				c.err = fmt.Errorf("%w: %v", ErrRemoteClosed, err)
			default:
				c.err = err
			}
			c.mu.Unlock()
			return
		}

		// A consumer that stopped draining must not pin this goroutine.
		select {
		case c.events <- env:
		case <-c.done:
			return
		}
	}
}
