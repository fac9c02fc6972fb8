package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/proofr/notifier/internal/notification"
	"github.com/proofr/notifier/pkg/logger"
)

// maxWebhookBody bounds how much of a provider callback is read.
const maxWebhookBody = 1 << 20

// WebhookHandler receives delivery lifecycle callbacks from the email
// provider and feeds them to the reconciler.
type WebhookHandler struct {
	reconciler *notification.Reconciler
	log        *slog.Logger
}

// NewWebhookHandler creates the provider webhook handler.
func NewWebhookHandler(reconciler *notification.Reconciler, log *slog.Logger) *WebhookHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WebhookHandler{reconciler: reconciler, log: log}
}

// Receive handles POST from the provider. The provider retries on anything
// but a 2xx, and its events are at-least-once anyway, so every outcome is
// acknowledged with 200: malformed payloads, unknown message ids, even a
// storage error. Failures are logged, never relayed.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.log.WarnContext(r.Context(), "failed to read webhook body", logger.Error(err))
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	ev := notification.ParseEvent(body, time.Now().UTC())
	if ev == nil {
		h.log.WarnContext(r.Context(), "unusable webhook payload",
			slog.Int("body_size", len(body)))
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	if err := h.reconciler.ApplyEvent(r.Context(), ev); err != nil {
		// Already logged by the reconciler; ack regardless.
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// Describe handles GET on the webhook path. It exists for provider
// configuration checks and documents the accepted event kinds.
func (h *WebhookHandler) Describe(w http.ResponseWriter, _ *http.Request) {
	kinds := notification.KnownEventKinds()
	events := make([]string, len(kinds))
	for i, k := range kinds {
		events[i] = string(k)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "active",
		"events": events,
	})
}
