package notification

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the delivery state of a notification.
type Status string

const (
	// StatusPending marks a notification waiting for its first attempt or
	// for a scheduled retry.
	StatusPending Status = "pending"
	// StatusSending marks a notification claimed by a processor tick.
	StatusSending Status = "sending"
	// StatusSent marks a successfully delivered notification.
	StatusSent Status = "sent"
	// StatusFailed marks a failed attempt. A failed notification remains
	// eligible for reprocessing while RetryCount < MaxAttempts; it is only
	// terminal once retries are exhausted or the failure was fatal.
	StatusFailed Status = "failed"
	// StatusBounced is a terminal state set only by webhook reconciliation.
	// It overrides any prior status, including sent.
	StatusBounced Status = "bounced"
)

// MaxAttempts is the number of processor attempts before a notification is
// considered permanently failed.
const MaxAttempts = 3

// Notification is one queued-to-be-sent (or already sent) email. Records
// are never deleted; terminal rows remain as an audit trail of what the
// platform sent to whom.
type Notification struct {
	ID                uuid.UUID      `json:"id"`
	UserID            string         `json:"user_id"`
	EmailType         string         `json:"email_type"`
	TemplateID        string         `json:"template_id"`
	TemplateData      map[string]any `json:"template_data"`
	RecipientEmail    string         `json:"recipient_email"`
	BookingID         *string        `json:"booking_id,omitempty"`
	MessageRef        *string        `json:"message_ref,omitempty"`
	Status            Status         `json:"status"`
	RetryCount        int            `json:"retry_count"`
	NextRetryAt       *time.Time     `json:"next_retry_at,omitempty"`
	ProviderMessageID *string        `json:"provider_message_id,omitempty"`
	SentAt            *time.Time     `json:"sent_at,omitempty"`
	OpenedAt          *time.Time     `json:"opened_at,omitempty"`
	ClickedAt         *time.Time     `json:"clicked_at,omitempty"`
	ErrorMessage      *string        `json:"error_message,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// Terminal reports whether no further processor-driven transition can occur
// absent external reconciliation.
func (n *Notification) Terminal() bool {
	switch n.Status {
	case StatusSent, StatusBounced:
		return true
	case StatusFailed:
		return n.RetryCount >= MaxAttempts
	default:
		return false
	}
}
