// Package bridge owns the upstream socket to the chat backend: one connection
// per started Manager, a bounded reconnect loop, and a single reducer that
// applies inbound events to the session store and the notification
// dispatcher. The only state exposed outward is the {connected, error} pair.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/adminhub/chat-notify-go/internal/config"
	"github.com/adminhub/chat-notify-go/internal/model"
	"github.com/adminhub/chat-notify-go/internal/notify"
	"github.com/adminhub/chat-notify-go/internal/store"
	"github.com/adminhub/chat-notify-go/internal/token"
	"github.com/adminhub/chat-notify-go/internal/transport"
)

type Config struct {
	ServerURL         string
	DialTimeout       time.Duration
	ReconnectAttempts int
	ReconnectDelay    time.Duration
}

func (c Config) withDefaults() Config {
	if c.DialTimeout <= 0 {
		c.DialTimeout = config.DialTimeout
	}
	if c.ReconnectAttempts <= 0 {
		c.ReconnectAttempts = config.ReconnectAttempts
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = config.ReconnectDelay
	}
	return c
}

type Manager struct {
	cfg        Config
	factory    transport.Factory
	tokens     token.Provider
	sessions   *store.SessionStore
	dispatcher notify.Dispatcher

	mu      sync.Mutex
	state   model.ConnectionState
	started bool
	conn    transport.Conn
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewManager wires a Manager. A nil factory defers to the process-wide
// default transport, resolved on first Start.
func NewManager(cfg Config, factory transport.Factory, tokens token.Provider, sessions *store.SessionStore, dispatcher notify.Dispatcher) *Manager {
	return &Manager{
		cfg:        cfg.withDefaults(),
		factory:    factory,
		tokens:     tokens,
		sessions:   sessions,
		dispatcher: dispatcher,
	}
}

// State returns the current {connected, error} snapshot.
func (m *Manager) State() model.ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Sessions exposes the store for in-process consumers.
func (m *Manager) Sessions() *store.SessionStore {
	return m.sessions
}

// Start acquires the connection asynchronously. It never returns a failure:
// every initialization problem is converted into the error field of the
// connection state. Without an auth token Start is a silent no-op and a later
// call may try again. Calling Start on a running Manager does nothing; a
// second socket is never opened.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started || m.conn != nil {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	tok, err := m.tokens.Token(ctx)
	if err != nil {
		log.Error().Err(err).Msg("bridge: token fetch failed")
		m.setState(false, connectErrorText(err))
		return
	}
	if tok == "" {
		log.Debug().Msg("bridge: no auth token, connection not attempted")
		return
	}

	factory := m.factory
	if factory == nil {
		factory, err = transport.DefaultFactory()
		if err != nil {
			log.Error().Err(err).Msg("bridge: transport unavailable")
			m.setState(false, "Chat transport unavailable")
			return
		}
	}

	m.mu.Lock()
	if m.started {
		// lost a race with a concurrent Start
		m.mu.Unlock()
		return
	}
	m.started = true
	m.factory = factory
	runCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	done := m.done
	m.mu.Unlock()

	go func() {
		defer close(done)
		m.run(runCtx, tok)
	}()
}

// Stop releases the connection: it cancels the run loop, closes the socket,
// and waits until no handler can fire anymore. The init guard is reset so a
// later Start reconnects cleanly.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	conn := m.conn
	done := m.done
	m.mu.Unlock()

	cancel()
	if conn != nil {
		_ = conn.Close()
	}
	<-done

	m.mu.Lock()
	m.started = false
	m.conn = nil
	m.cancel = nil
	m.done = nil
	m.state = model.ConnectionState{}
	m.mu.Unlock()

	log.Info().Msg("bridge: stopped")
}

// run is the connection loop: dial, consume until the link dies, decide how
// to retry. Attempts within one outage are bounded; a successful connect
// resets the budget.
func (m *Manager) run(ctx context.Context, tok string) {
	attempt := 0

	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := m.factory(ctx, m.cfg.ServerURL, transport.Config{
			Token:       tok,
			DialTimeout: m.cfg.DialTimeout,
		})
		if err != nil {
			attempt++

			if errors.Is(err, transport.ErrUnavailable) {
				m.setState(false, "Chat transport unavailable")
				return
			}

			if attempt == 1 {
				m.setState(false, connectErrorText(err))
				log.Warn().Err(err).Msg("bridge: connection failed")
			} else {
				m.setError(reconnectErrorText(err))
				log.Warn().Err(err).Int("attempt", attempt).Msg("bridge: reconnection attempt failed")
			}

			if attempt >= m.cfg.ReconnectAttempts {
				log.Error().Int("attempts", attempt).Msg("bridge: reconnection attempts exhausted")
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(m.cfg.ReconnectDelay):
			}
			continue
		}

		if attempt > 0 {
			log.Info().Int("attempt", attempt+1).Msg("bridge: reconnected")
		} else {
			log.Info().Str("socketSessionId", conn.SessionID()).Msg("bridge: connected")
		}
		attempt = 0

		m.mu.Lock()
		m.conn = conn
		m.state = model.ConnectionState{Connected: true}
		m.mu.Unlock()

		if err := conn.Emit(model.EventGetAllSessions, nil); err != nil {
			log.Warn().Err(err).Msg("bridge: failed to request session snapshot")
		}

		m.consume(ctx, conn)

		// The link is dead either way; release the socket before redialing
		// or the daemon accumulates one open fd per cycle.
		_ = conn.Close()

		m.mu.Lock()
		m.conn = nil
		m.state.Connected = false
		m.mu.Unlock()

		if ctx.Err() != nil {
			return
		}

		if errors.Is(conn.Err(), transport.ErrRemoteClosed) {
			// The server ended the link on purpose: redial right away
			// instead of waiting out the backoff delay.
			log.Info().Msg("bridge: server closed the link, redialing")
			continue
		}

		reason := "connection lost"
		if cerr := conn.Err(); cerr != nil {
			reason = cerr.Error()
		}
		log.Warn().Str("reason", reason).Msg("bridge: disconnected")

		select {
		case <-ctx.Done():
			return
		case <-time.After(m.cfg.ReconnectDelay):
		}
	}
}

// consume drains the connection's event channel until it closes. All state
// mutation funnels through reduce on this one goroutine.
func (m *Manager) consume(ctx context.Context, conn transport.Conn) {
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-conn.Events():
			if !ok {
				return
			}
			m.reduce(ctx, env)
		}
	}
}

func (m *Manager) reduce(ctx context.Context, env model.Envelope) {
	switch env.Event {
	case model.EventAllSessions:
		var sessions []model.ChatSession
		if err := json.Unmarshal(env.Data, &sessions); err != nil {
			log.Warn().Err(err).Msg("bridge: bad all_sessions payload")
			return
		}
		for i := range sessions {
			sessions[i].Normalize()
		}
		m.sessions.ReplaceAll(sessions)
		log.Debug().Int("count", len(sessions)).Msg("bridge: session snapshot applied")

	case model.EventNewSession:
		var ev model.NewSessionEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			log.Warn().Err(err).Msg("bridge: bad new_session payload")
			return
		}
		m.sessions.Upsert(ev.ToSession())

	case model.EventNewMessage:
		var msg model.ChatMessage
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			log.Warn().Err(err).Msg("bridge: bad new_message payload")
			return
		}
		m.dispatcher.Dispatch(ctx, notify.FromMessage(msg))

	default:
		log.Debug().Str("event", env.Event).Msg("bridge: ignoring unknown event")
	}
}

func (m *Manager) setState(connected bool, errText string) {
	m.mu.Lock()
	m.state = model.ConnectionState{Connected: connected, Error: errText}
	m.mu.Unlock()
}

func (m *Manager) setError(errText string) {
	m.mu.Lock()
	m.state.Error = errText
	m.mu.Unlock()
}

func connectErrorText(err error) string {
	msg := "connection failed"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return "Connection error: " + msg
}

func reconnectErrorText(err error) string {
	msg := "reconnection failed"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return "Reconnection error: " + msg
}
