package notification

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage implements Storage for tests and local development.
type MemoryStorage struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]*Notification
	order   []uuid.UUID // insertion order, used to keep List deterministic
	nowFunc func() time.Time
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		rows:    make(map[uuid.UUID]*Notification),
		nowFunc: time.Now,
	}
}

// SetNowFunc replaces the clock, letting tests travel past retry schedules.
func (ms *MemoryStorage) SetNowFunc(f func() time.Time) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if f != nil {
		ms.nowFunc = f
	}
}

func (ms *MemoryStorage) Create(_ context.Context, n *Notification) error {
	if n == nil {
		return fmt.Errorf("%w: nil notification", ErrCreateFailed)
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.rows[n.ID]; exists {
		return fmt.Errorf("%w: notification %s already exists", ErrCreateFailed, n.ID)
	}

	// Clone to prevent external modifications through the caller's pointer.
	row := cloneNotification(n)
	ms.rows[n.ID] = row
	ms.order = append(ms.order, n.ID)
	return nil
}

func (ms *MemoryStorage) Get(_ context.Context, id uuid.UUID) (*Notification, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	row, ok := ms.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneNotification(row), nil
}

func (ms *MemoryStorage) ClaimDue(_ context.Context, limit int) ([]*Notification, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.nowFunc()
	var claimed []*Notification

	for _, id := range ms.order {
		if len(claimed) >= limit {
			break
		}
		row := ms.rows[id]

		if row.Status != StatusPending && row.Status != StatusFailed {
			continue
		}
		if row.RetryCount >= MaxAttempts {
			continue
		}
		if row.NextRetryAt != nil && row.NextRetryAt.After(now) {
			continue
		}

		row.Status = StatusSending
		row.UpdatedAt = now
		claimed = append(claimed, cloneNotification(row))
	}

	return claimed, nil
}

func (ms *MemoryStorage) MarkSent(_ context.Context, id uuid.UUID, providerMessageID string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	row, err := ms.claimedRow(id)
	if err != nil {
		return err
	}

	now := ms.nowFunc()
	row.Status = StatusSent
	row.ProviderMessageID = &providerMessageID
	row.SentAt = &now
	row.ErrorMessage = nil
	row.NextRetryAt = nil
	row.UpdatedAt = now
	return nil
}

func (ms *MemoryStorage) MarkRetry(_ context.Context, id uuid.UUID, retryCount int, nextRetryAt time.Time, errMsg string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	row, err := ms.claimedRow(id)
	if err != nil {
		return err
	}

	row.Status = StatusPending
	row.RetryCount = retryCount
	row.NextRetryAt = &nextRetryAt
	row.ErrorMessage = &errMsg
	row.UpdatedAt = ms.nowFunc()
	return nil
}

func (ms *MemoryStorage) MarkFailed(_ context.Context, id uuid.UUID, retryCount int, errMsg string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	row, err := ms.claimedRow(id)
	if err != nil {
		return err
	}

	row.Status = StatusFailed
	row.RetryCount = retryCount
	row.NextRetryAt = nil
	row.ErrorMessage = &errMsg
	row.UpdatedAt = ms.nowFunc()
	return nil
}

func (ms *MemoryStorage) MarkBounced(_ context.Context, providerMessageID, reason string) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	row := ms.byProviderMessageID(providerMessageID)
	if row == nil {
		return false, nil
	}

	row.Status = StatusBounced
	row.ErrorMessage = &reason
	row.NextRetryAt = nil
	row.UpdatedAt = ms.nowFunc()
	return true, nil
}

func (ms *MemoryStorage) MarkOpened(_ context.Context, providerMessageID string, at time.Time) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	row := ms.byProviderMessageID(providerMessageID)
	if row == nil {
		return false, nil
	}

	row.OpenedAt = &at
	row.UpdatedAt = ms.nowFunc()
	return true, nil
}

func (ms *MemoryStorage) MarkClicked(_ context.Context, providerMessageID string, at time.Time) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	row := ms.byProviderMessageID(providerMessageID)
	if row == nil {
		return false, nil
	}

	row.ClickedAt = &at
	row.UpdatedAt = ms.nowFunc()
	return true, nil
}

func (ms *MemoryStorage) List(_ context.Context, f Filter) ([]*Notification, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	var matched []*Notification
	for _, id := range ms.order {
		row := ms.rows[id]
		if f.ID != nil && row.ID != *f.ID {
			continue
		}
		if f.UserID != "" && row.UserID != f.UserID {
			continue
		}
		if f.Status != "" && row.Status != f.Status {
			continue
		}
		matched = append(matched, cloneNotification(row))
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	limit := f.Limit
	if limit <= 0 || limit > MaxListResults {
		limit = MaxListResults
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}

	return matched, nil
}

// claimedRow returns the row only when it is in sending state, matching the
// conditional updates of the SQL implementation.
func (ms *MemoryStorage) claimedRow(id uuid.UUID) (*Notification, error) {
	row, ok := ms.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	if row.Status != StatusSending {
		return nil, fmt.Errorf("%w: notification %s is %s", ErrNotClaimed, id, row.Status)
	}
	return row, nil
}

func (ms *MemoryStorage) byProviderMessageID(providerMessageID string) *Notification {
	if providerMessageID == "" {
		return nil
	}
	for _, row := range ms.rows {
		if row.ProviderMessageID != nil && *row.ProviderMessageID == providerMessageID {
			return row
		}
	}
	return nil
}

func cloneNotification(n *Notification) *Notification {
	clone := *n
	if n.TemplateData != nil {
		clone.TemplateData = make(map[string]any, len(n.TemplateData))
		for k, v := range n.TemplateData {
			clone.TemplateData[k] = v
		}
	}
	clone.BookingID = clonePtr(n.BookingID)
	clone.MessageRef = clonePtr(n.MessageRef)
	clone.NextRetryAt = clonePtr(n.NextRetryAt)
	clone.ProviderMessageID = clonePtr(n.ProviderMessageID)
	clone.SentAt = clonePtr(n.SentAt)
	clone.OpenedAt = clonePtr(n.OpenedAt)
	clone.ClickedAt = clonePtr(n.ClickedAt)
	clone.ErrorMessage = clonePtr(n.ErrorMessage)
	return &clone
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
