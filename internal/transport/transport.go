package transport

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/adminhub/chat-notify-go/internal/model"
)

var (
	// ErrUnavailable means no socket client implementation could be resolved.
	// This is a composition-time failure, not a runtime one: retrying does not
	// help.
	ErrUnavailable = errors.New("transport: socket client unavailable")

	// ErrRemoteClosed marks a disconnect initiated by the server rather than
	// a local close or a network drop.
	ErrRemoteClosed = errors.New("transport: closed by remote")
)

// Conn is one live bidirectional event socket to the chat backend.
type Conn interface {
	// Events delivers inbound envelopes in transport order. The channel is
	// closed when the connection dies for any reason.
	Events() <-chan model.Envelope

	// Emit sends an event to the server. A nil payload emits the event name
	// alone.
	Emit(event string, data any) error

	// Close tears the connection down. After Close returns no further
	// envelope is delivered once Events has drained.
	Close() error

	// Err reports why Events closed: nil after a local Close, ErrRemoteClosed
	// (wrapped) when the server ended the link, the read error otherwise.
	Err() error

	SessionID() string
	Connected() bool
}

// Config carries the per-connection parameters.
type Config struct {
	Token       string
	DialTimeout time.Duration
}

// Factory opens a Conn against a server URL. Implementations must attach the
// token at connection-establishment time, not via a post-connect handshake.
type Factory func(ctx context.Context, serverURL string, cfg Config) (Conn, error)

var (
	defaultOnce    sync.Once
	defaultFactory Factory
)

// DefaultFactory resolves the websocket-backed factory. Resolution happens
// once per process; concurrent callers share the cached result. A nil result
// (possible under test substitution) surfaces as ErrUnavailable.
func DefaultFactory() (Factory, error) {
	defaultOnce.Do(func() {
		defaultFactory = Dial
	})
	if defaultFactory == nil {
		return nil, ErrUnavailable
	}
	return defaultFactory, nil
}
