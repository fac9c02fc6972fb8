package notification

import (
	"context"
	"log/slog"

	"github.com/proofr/notifier/pkg/logger"
)

// Reconciler folds provider webhook events back into stored notification
// rows, keyed by provider message id.
type Reconciler struct {
	storage Storage
	log     *slog.Logger
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithReconcilerLogger sets the reconciler's logger.
func WithReconcilerLogger(l *slog.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if l != nil {
			r.log = l
		}
	}
}

// NewReconciler creates a webhook event reconciler.
func NewReconciler(storage Storage, opts ...ReconcilerOption) (*Reconciler, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}
	r := &Reconciler{storage: storage, log: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// ApplyEvent updates the notification the event refers to. Events for
// unknown message ids are dropped silently: the provider may report on mail
// this system never sent. Storage errors are returned so handlers can log
// them, but they never change the acknowledgement to the provider.
func (r *Reconciler) ApplyEvent(ctx context.Context, ev *WebhookEvent) error {
	if ev == nil {
		return nil
	}

	webhookEvents.WithLabelValues(string(ev.Kind)).Inc()

	var (
		matched bool
		err     error
	)
	switch ev.Kind {
	case EventOpened:
		matched, err = r.storage.MarkOpened(ctx, ev.MessageID, ev.ReceivedAt)
	case EventClicked:
		matched, err = r.storage.MarkClicked(ctx, ev.MessageID, ev.ReceivedAt)
	case EventBounce, EventSpam:
		// A hard signal from the provider overrides whatever state the row
		// is in, sent included. The reason string lands in error_message so
		// operators can see what the provider reported.
		reason := ev.Reason
		if reason == "" {
			reason = "recipient reported " + string(ev.Kind)
		}
		matched, err = r.storage.MarkBounced(ctx, ev.MessageID, reason)
	case EventSent, EventDelivered, EventUnsubscribe:
		// Informational only. Sent is already recorded when the provider
		// accepts the message, and unsubscribe preference handling lives
		// outside this system.
		r.log.InfoContext(ctx, "webhook event acknowledged",
			slog.String("event", string(ev.Kind)),
			slog.String("provider_message_id", ev.MessageID))
		return nil
	default:
		return nil
	}

	if err != nil {
		r.log.ErrorContext(ctx, "failed to apply webhook event",
			slog.String("event", string(ev.Kind)),
			slog.String("provider_message_id", ev.MessageID),
			logger.Error(err))
		return err
	}

	if !matched {
		r.log.DebugContext(ctx, "webhook event matched no notification",
			slog.String("event", string(ev.Kind)),
			slog.String("provider_message_id", ev.MessageID))
		return nil
	}

	r.log.InfoContext(ctx, "webhook event applied",
		slog.String("event", string(ev.Kind)),
		slog.String("provider_message_id", ev.MessageID))
	return nil
}
