package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/adminhub/chat-notify-go/internal/errors"
	"github.com/adminhub/chat-notify-go/internal/httputil"
	"github.com/adminhub/chat-notify-go/internal/middleware"
	"github.com/adminhub/chat-notify-go/internal/model"
	"github.com/adminhub/chat-notify-go/internal/repository"
)

// NotificationsHandler serves the audit trail for the reports surface. Only
// mounted when a database is configured.
type NotificationsHandler struct {
	notificationRepo repository.NotificationRepository
}

func NewNotificationsHandler(notificationRepo repository.NotificationRepository) *NotificationsHandler {
	return &NotificationsHandler{notificationRepo: notificationRepo}
}

func (h *NotificationsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/count", h.Count)
	r.Get("/{id}", h.Get)
	return r
}

func (h *NotificationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.notificationRepo.FindByID(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("notificationId", id).Msg("failed to load notification")
		httputil.WriteError(w, apperrors.Database(err))
		return
	}
	if rec == nil {
		httputil.WriteError(w, apperrors.NotFound("Notification"))
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	window := listWindowFrom(r)

	records, err := h.notificationRepo.FindRecentByIdentity(r.Context(), identity, window.Limit, window.Offset)
	if err != nil {
		log.Error().Err(err).Msg("failed to list notifications")
		httputil.WriteError(w, apperrors.Database(err))
		return
	}
	if records == nil {
		records = []model.NotificationRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": records,
		"limit":         window.Limit,
		"offset":        window.Offset,
	})
}

func (h *NotificationsHandler) Count(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	var (
		count int
		err   error
	)
	if sinceParam := r.URL.Query().Get("since"); sinceParam != "" {
		since, parseErr := time.Parse(time.RFC3339, sinceParam)
		if parseErr != nil {
			httputil.WriteError(w, apperrors.InvalidInput("since", "must be an RFC 3339 timestamp"))
			return
		}
		count, err = h.notificationRepo.CountByIdentitySince(r.Context(), identity, since)
	} else {
		count, err = h.notificationRepo.CountByIdentity(r.Context(), identity)
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to count notifications")
		httputil.WriteError(w, apperrors.Database(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}
