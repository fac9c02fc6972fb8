package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/proofr/notifier/internal/notification"
	"github.com/proofr/notifier/pkg/logger"
)

// NotificationsHandler exposes enqueue and status-query endpoints backed by
// the notification service.
type NotificationsHandler struct {
	svc *notification.Service
	log *slog.Logger
}

// NewNotificationsHandler creates the notifications handler.
func NewNotificationsHandler(svc *notification.Service, log *slog.Logger) *NotificationsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &NotificationsHandler{svc: svc, log: log}
}

// Enqueue handles POST /api/notifications. It accepts the notification
// parameters as JSON and responds with the queue outcome. Validation
// failures come back as 400 with the service's error message; the response
// shape mirrors the service's QueueResult either way.
func (h *NotificationsHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var params notification.QueueParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	res := h.svc.Queue(r.Context(), params)
	if !res.Success {
		writeJSON(w, http.StatusBadRequest, res)
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

// List handles GET /api/notifications. Supported query parameters: id,
// user_id, status, limit. Results come back newest first and capped.
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := notification.Filter{
		UserID: q.Get("user_id"),
		Status: notification.Status(q.Get("status")),
	}

	if raw := q.Get("id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid notification id")
			return
		}
		filter.ID = &id
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = limit
	}

	rows, err := h.svc.List(r.Context(), filter)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to list notifications", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}

	if rows == nil {
		rows = []*notification.Notification{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": rows,
		"count":         len(rows),
	})
}
