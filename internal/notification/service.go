package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/proofr/notifier/pkg/logger"
)

// QueueParams carries everything a domain collaborator supplies when
// enqueueing a notification. TemplateData stays a string-keyed map at this
// boundary; call sites building notifications should construct it from
// their own typed event data.
type QueueParams struct {
	UserID         string         `json:"user_id"`
	EmailType      string         `json:"email_type"`
	TemplateID     string         `json:"template_id"`
	TemplateData   map[string]any `json:"template_data"`
	RecipientEmail string         `json:"recipient_email"`
	BookingID      *string        `json:"booking_id,omitempty"`
	MessageRef     *string        `json:"message_ref,omitempty"`
}

// QueueResult reports the outcome of an enqueue call.
type QueueResult struct {
	Success        bool      `json:"success"`
	NotificationID uuid.UUID `json:"notification_id,omitempty"`
	Error          string    `json:"error,omitempty"`
}

// Service is the enqueue and status-query surface consumed by domain
// collaborators. Booking screens, messaging, payments and verification all
// interact with delivery exclusively through these two operations.
type Service struct {
	storage Storage
	log     *slog.Logger
}

// NewService creates the notification service.
func NewService(storage Storage, log *slog.Logger) (*Service, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{storage: storage, log: log}, nil
}

// Queue creates one pending notification record. Repeated calls for the
// same logical event create separate records: there is deliberately no
// deduplication at this boundary.
func (s *Service) Queue(ctx context.Context, params QueueParams) QueueResult {
	if err := validateQueueParams(params); err != nil {
		return QueueResult{Success: false, Error: err.Error()}
	}

	now := time.Now()
	n := &Notification{
		ID:             uuid.New(),
		UserID:         params.UserID,
		EmailType:      params.EmailType,
		TemplateID:     params.TemplateID,
		TemplateData:   params.TemplateData,
		RecipientEmail: params.RecipientEmail,
		BookingID:      params.BookingID,
		MessageRef:     params.MessageRef,
		Status:         StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.storage.Create(ctx, n); err != nil {
		s.log.ErrorContext(ctx, "failed to queue notification",
			slog.String("email_type", params.EmailType),
			logger.UserID(params.UserID),
			logger.Error(err))
		return QueueResult{Success: false, Error: err.Error()}
	}

	s.log.InfoContext(ctx, "notification queued",
		logger.NotificationID(n.ID),
		slog.String("email_type", n.EmailType),
		logger.UserID(n.UserID))

	emailsQueued.WithLabelValues(n.EmailType).Inc()

	return QueueResult{Success: true, NotificationID: n.ID}
}

// List returns notifications matching the filter, newest first, capped at
// MaxListResults.
func (s *Service) List(ctx context.Context, f Filter) ([]*Notification, error) {
	return s.storage.List(ctx, f)
}

func validateQueueParams(params QueueParams) error {
	if params.UserID == "" {
		return ErrMissingUserID
	}
	if params.TemplateID == "" {
		return ErrMissingTemplateID
	}
	if params.RecipientEmail == "" {
		return ErrMissingRecipient
	}
	return nil
}
