package handlers

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/proofr/notifier/internal/notification"
	"github.com/proofr/notifier/pkg/logger"
)

// TickLocker guards against concurrent trigger ticks. Implementations are
// best effort: a lock that cannot be acquired skips the tick, a lock
// backend that errors lets the tick proceed since the storage claim is the
// real arbiter.
type TickLocker interface {
	TryAcquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// TriggerHandler exposes the periodic processing endpoint called by an
// external scheduler.
type TriggerHandler struct {
	processor *notification.Processor
	secret    string
	lock      TickLocker
	log       *slog.Logger
}

// TriggerOption configures a TriggerHandler.
type TriggerOption func(*TriggerHandler)

// WithTickLock adds best-effort tick deduplication.
func WithTickLock(lock TickLocker) TriggerOption {
	return func(h *TriggerHandler) { h.lock = lock }
}

// NewTriggerHandler creates the trigger endpoint. The secret authenticates
// the external scheduler; requests without it are rejected.
func NewTriggerHandler(processor *notification.Processor, secret string, log *slog.Logger, opts ...TriggerOption) *TriggerHandler {
	if log == nil {
		log = slog.Default()
	}
	h := &TriggerHandler{processor: processor, secret: secret, log: log}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Trigger handles GET and POST on the cron path. Both methods behave
// identically because scheduler products disagree on which one they send.
func (h *TriggerHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ctx := r.Context()

	if h.lock != nil {
		acquired, err := h.lock.TryAcquire(ctx)
		if err != nil {
			h.log.WarnContext(ctx, "tick lock unavailable, proceeding without it", logger.Error(err))
		} else if !acquired {
			writeJSON(w, http.StatusOK, map[string]any{
				"skipped": true,
				"reason":  "another tick is in progress",
			})
			return
		} else {
			defer func() {
				if err := h.lock.Release(ctx); err != nil {
					h.log.WarnContext(ctx, "failed to release tick lock", logger.Error(err))
				}
			}()
		}
	}

	stats, err := h.processor.ProcessDue(ctx)
	if err != nil {
		h.log.ErrorContext(ctx, "processing tick failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to process notifications")
		return
	}

	h.log.InfoContext(ctx, "processing tick completed",
		slog.Int("claimed", stats.Claimed),
		slog.Int("sent", stats.Sent),
		slog.Int("retried", stats.Retried),
		slog.Int("failed", stats.Failed))

	writeJSON(w, http.StatusOK, stats)
}

func (h *TriggerHandler) authorized(r *http.Request) bool {
	if h.secret == "" {
		return false
	}
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) == 1
}
