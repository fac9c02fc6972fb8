package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Filter narrows List results. Zero values mean "no constraint".
type Filter struct {
	ID     *uuid.UUID
	UserID string
	Status Status
	Limit  int
}

// MaxListResults caps status-query responses regardless of the requested limit.
const MaxListResults = 50

// Storage persists notification records. It is the only shared mutable
// resource between concurrent processor ticks and webhook reconciliation,
// so every state-changing method must be conditional on the expected prior
// state: a claim that already happened elsewhere is reported, not repeated.
type Storage interface {
	// Create inserts a new pending notification.
	Create(ctx context.Context, n *Notification) error

	// Get returns a notification by ID or ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*Notification, error)

	// ClaimDue atomically selects up to limit eligible rows (status pending
	// or failed, retries remaining, no future next_retry_at) and flips them
	// to sending. Two overlapping ticks never receive the same row.
	ClaimDue(ctx context.Context, limit int) ([]*Notification, error)

	// MarkSent completes a claimed row: status sent, provider message ID and
	// sent_at recorded, error message and retry schedule cleared.
	MarkSent(ctx context.Context, id uuid.UUID, providerMessageID string) error

	// MarkRetry returns a claimed row to pending with the given retry count,
	// scheduled next attempt and error message.
	MarkRetry(ctx context.Context, id uuid.UUID, retryCount int, nextRetryAt time.Time, errMsg string) error

	// MarkFailed moves a claimed row to failed with the given retry count,
	// clearing any scheduled retry. With retryCount >= MaxAttempts the row
	// is exhausted; a lower count records a fatal failure that bypassed
	// retry accounting.
	MarkFailed(ctx context.Context, id uuid.UUID, retryCount int, errMsg string) error

	// MarkBounced forces the row matching the provider message ID to
	// bounced, overriding any existing status including sent. It reports
	// whether a row matched.
	MarkBounced(ctx context.Context, providerMessageID, reason string) (bool, error)

	// MarkOpened records the open timestamp for the matching row. Reapplying
	// is harmless. It reports whether a row matched.
	MarkOpened(ctx context.Context, providerMessageID string, at time.Time) (bool, error)

	// MarkClicked records the click timestamp for the matching row.
	// Reapplying is harmless. It reports whether a row matched.
	MarkClicked(ctx context.Context, providerMessageID string, at time.Time) (bool, error)

	// List returns notifications matching the filter, newest first, capped
	// at MaxListResults.
	List(ctx context.Context, f Filter) ([]*Notification, error)
}
