package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/proofr/notifier/pkg/backoff"
	"github.com/proofr/notifier/pkg/logger"
	"github.com/proofr/notifier/pkg/mailer"
	"github.com/proofr/notifier/pkg/templates"
)

// DefaultBatchSize bounds how many rows one processor tick claims.
const DefaultBatchSize = 10

// Processor drains the notification queue. Each invocation claims one
// bounded batch of due rows, carries every claimed row to sent, a scheduled
// retry, or failed, and returns. It holds no background goroutines: the
// cadence comes from an external periodic trigger.
type Processor struct {
	storage  Storage
	registry *templates.Registry
	sender   mailer.Sender

	batchSize     int
	retrySchedule backoff.Strategy
	sendRetries   []mailer.RetryOption
	log           *slog.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithBatchSize bounds the rows claimed per tick.
func WithBatchSize(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithRetrySchedule replaces the persisted retry backoff. The default is
// 2^retryCount minutes, a deliberately coarser schedule than the delivery
// client's in-process millisecond backoff.
func WithRetrySchedule(s backoff.Strategy) ProcessorOption {
	return func(p *Processor) {
		if s != nil {
			p.retrySchedule = s
		}
	}
}

// WithSendRetryOptions forwards options to the delivery client's
// in-process retry loop.
func WithSendRetryOptions(opts ...mailer.RetryOption) ProcessorOption {
	return func(p *Processor) { p.sendRetries = opts }
}

// WithProcessorLogger sets the processor's logger.
func WithProcessorLogger(l *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		if l != nil {
			p.log = l
		}
	}
}

// NewProcessor creates a notification processor.
func NewProcessor(storage Storage, registry *templates.Registry, sender mailer.Sender, opts ...ProcessorOption) (*Processor, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}
	if registry == nil {
		return nil, ErrRegistryNil
	}
	if sender == nil {
		return nil, ErrSenderNil
	}

	p := &Processor{
		storage:   storage,
		registry:  registry,
		sender:    sender,
		batchSize: DefaultBatchSize,
		retrySchedule: backoff.Exponential{
			InitialInterval: 2 * time.Minute,
			MaxInterval:     24 * time.Hour,
			Multiplier:      2,
		},
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Stats summarizes one processor tick.
type Stats struct {
	Claimed int `json:"claimed"`
	Sent    int `json:"sent"`
	Retried int `json:"retried"`
	Failed  int `json:"failed"`
}

// ProcessDue runs one tick: claim a batch of eligible notifications and
// process each row independently. A failure in one row never aborts the
// rest of the batch; per-row errors end up in persisted state or the log,
// not in the returned error, which only reports an inability to claim.
func (p *Processor) ProcessDue(ctx context.Context) (Stats, error) {
	var stats Stats

	claimed, err := p.storage.ClaimDue(ctx, p.batchSize)
	if err != nil {
		return stats, fmt.Errorf("failed to claim due notifications: %w", err)
	}
	stats.Claimed = len(claimed)

	for _, n := range claimed {
		switch p.processOne(ctx, n) {
		case outcomeSent:
			stats.Sent++
		case outcomeRetried:
			stats.Retried++
		case outcomeFailed:
			stats.Failed++
		}
	}

	return stats, nil
}

type outcome int

const (
	outcomeSent outcome = iota
	outcomeRetried
	outcomeFailed
)

// processOne carries a single claimed row to one of {sent, pending with a
// scheduled retry, failed}. The row entered sending when it was claimed;
// there is no mid-row cancellation, so every exit path below persists a
// definite state.
func (p *Processor) processOne(ctx context.Context, n *Notification) (result outcome) {
	start := time.Now()
	defer func() {
		processingDuration.Observe(time.Since(start).Seconds())

		// A panic in rendering or delivery is a fatal outcome distinct from
		// a declined send: the row goes straight to failed without touching
		// the retry accounting.
		if r := recover(); r != nil {
			p.log.ErrorContext(ctx, "panic while processing notification",
				logger.NotificationID(n.ID),
				slog.Any("panic", r))
			p.persistFatal(ctx, n, fmt.Sprintf("panic: %v", r))
			result = outcomeFailed
		}
	}()

	tpl := p.registry.Load(ctx, n.TemplateID)

	if valid, missing := templates.Validate(tpl, n.TemplateData); !valid {
		return p.persistAttemptFailure(ctx, n,
			"missing template variables: "+strings.Join(missing, ", "))
	}

	msg := mailer.Message{
		To:      []string{n.RecipientEmail},
		Subject: p.registry.Render(tpl.Subject, n.TemplateData),
		Tags:    []string{n.EmailType, "user_" + n.UserID},
	}
	if tpl.HTMLTemplate != "" {
		msg.HTMLBody = p.registry.Render(tpl.HTMLTemplate, n.TemplateData)
	}
	if tpl.TextTemplate != "" {
		msg.TextBody = p.registry.Render(tpl.TextTemplate, n.TemplateData)
	}

	res := mailer.SendWithRetry(ctx, p.sender, msg, p.sendRetries...)
	if !res.Success {
		return p.persistAttemptFailure(ctx, n, res.Error)
	}

	if err := p.storage.MarkSent(ctx, n.ID, res.MessageID); err != nil {
		// The email left the building; only the bookkeeping failed. Log it
		// rather than scheduling a retry that would duplicate the send.
		p.log.ErrorContext(ctx, "failed to mark notification sent",
			logger.NotificationID(n.ID),
			logger.Error(err))
		return outcomeFailed
	}

	p.log.InfoContext(ctx, "notification sent",
		logger.NotificationID(n.ID),
		slog.String("email_type", n.EmailType),
		slog.String("provider_message_id", res.MessageID),
		slog.Duration("duration", time.Since(start)))

	emailsSent.WithLabelValues(n.EmailType).Inc()
	return outcomeSent
}

// persistAttemptFailure applies the retry accounting for an expected
// failure (validation or delivery): consume one retry slot, then either
// schedule the next attempt or park the row as failed once slots run out.
func (p *Processor) persistAttemptFailure(ctx context.Context, n *Notification, errMsg string) outcome {
	retryCount := n.RetryCount + 1

	if retryCount >= MaxAttempts {
		if err := p.storage.MarkFailed(ctx, n.ID, retryCount, errMsg); err != nil {
			p.log.ErrorContext(ctx, "failed to mark notification failed",
				logger.NotificationID(n.ID), logger.Error(err))
		}
		p.log.WarnContext(ctx, "notification failed permanently",
			logger.NotificationID(n.ID),
			slog.String("email_type", n.EmailType),
			slog.Int("retry_count", retryCount),
			slog.String("error", errMsg))
		emailsFailed.WithLabelValues(n.EmailType, "exhausted").Inc()
		return outcomeFailed
	}

	nextRetryAt := time.Now().Add(p.retrySchedule.NextInterval(retryCount))
	if err := p.storage.MarkRetry(ctx, n.ID, retryCount, nextRetryAt, errMsg); err != nil {
		p.log.ErrorContext(ctx, "failed to schedule notification retry",
			logger.NotificationID(n.ID), logger.Error(err))
		return outcomeFailed
	}

	p.log.WarnContext(ctx, "notification attempt failed, retry scheduled",
		logger.NotificationID(n.ID),
		slog.String("email_type", n.EmailType),
		slog.Int("retry_count", retryCount),
		slog.Time("next_retry_at", nextRetryAt),
		slog.String("error", errMsg))

	emailsRetried.WithLabelValues(n.EmailType).Inc()
	return outcomeRetried
}

// persistFatal records a fatal outcome without consuming retry accounting.
func (p *Processor) persistFatal(ctx context.Context, n *Notification, errMsg string) {
	if err := p.storage.MarkFailed(ctx, n.ID, n.RetryCount, errMsg); err != nil {
		p.log.ErrorContext(ctx, "failed to persist fatal processing outcome",
			logger.NotificationID(n.ID), logger.Error(err))
	}
	emailsFailed.WithLabelValues(n.EmailType, "fatal").Inc()
}
