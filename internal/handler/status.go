package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adminhub/chat-notify-go/internal/model"
	"github.com/adminhub/chat-notify-go/internal/store"
)

// StateReader is the read-only view the HTTP surface gets of the bridge.
type StateReader interface {
	State() model.ConnectionState
}

// StatusHandler serves the bridge connection state and the mirrored session
// list.
type StatusHandler struct {
	bridge   StateReader
	sessions *store.SessionStore
}

func NewStatusHandler(bridge StateReader, sessions *store.SessionStore) *StatusHandler {
	return &StatusHandler{
		bridge:   bridge,
		sessions: sessions,
	}
}

func (h *StatusHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/status", h.Status)
	r.Get("/sessions", h.Sessions)
	return r
}

func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.bridge.State())
}

func (h *StatusHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	sessions := h.sessions.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": sessions,
		"count":    len(sessions),
	})
}
