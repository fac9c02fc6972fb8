package notification_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proofr/notifier/internal/notification"
)

func newPending(userID, emailType string) *notification.Notification {
	now := time.Now()
	return &notification.Notification{
		ID:             uuid.New(),
		UserID:         userID,
		EmailType:      emailType,
		TemplateID:     emailType,
		TemplateData:   map[string]any{"name": "Ada"},
		RecipientEmail: "client@example.com",
		Status:         notification.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestMemoryStorageCreateAndGet(t *testing.T) {
	t.Parallel()

	storage := notification.NewMemoryStorage()
	ctx := context.Background()
	n := newPending("user-1", "welcome")

	require.NoError(t, storage.Create(ctx, n))

	got, err := storage.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, n.ID, got.ID)
	assert.Equal(t, notification.StatusPending, got.Status)

	// Mutating the returned copy must not affect stored state.
	got.Status = notification.StatusBounced
	got.TemplateData["name"] = "Eve"

	again, err := storage.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, notification.StatusPending, again.Status)
	assert.Equal(t, "Ada", again.TemplateData["name"])
}

func TestMemoryStorageCreateDuplicate(t *testing.T) {
	t.Parallel()

	storage := notification.NewMemoryStorage()
	ctx := context.Background()
	n := newPending("user-1", "welcome")

	require.NoError(t, storage.Create(ctx, n))
	assert.ErrorIs(t, storage.Create(ctx, n), notification.ErrCreateFailed)
}

func TestMemoryStorageGetNotFound(t *testing.T) {
	t.Parallel()

	storage := notification.NewMemoryStorage()
	_, err := storage.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, notification.ErrNotFound)
}

func TestMemoryStorageClaimDueEligibility(t *testing.T) {
	t.Parallel()

	storage := notification.NewMemoryStorage()
	ctx := context.Background()
	now := time.Now()
	storage.SetNowFunc(func() time.Time { return now })

	eligible := newPending("user-1", "welcome")
	require.NoError(t, storage.Create(ctx, eligible))

	future := newPending("user-2", "welcome")
	futureAt := now.Add(time.Hour)
	future.NextRetryAt = &futureAt
	require.NoError(t, storage.Create(ctx, future))

	past := newPending("user-3", "welcome")
	pastAt := now.Add(-time.Minute)
	past.Status = notification.StatusFailed
	past.RetryCount = 1
	past.NextRetryAt = &pastAt
	require.NoError(t, storage.Create(ctx, past))

	exhausted := newPending("user-4", "welcome")
	exhausted.Status = notification.StatusFailed
	exhausted.RetryCount = notification.MaxAttempts
	require.NoError(t, storage.Create(ctx, exhausted))

	done := newPending("user-5", "welcome")
	done.Status = notification.StatusSent
	require.NoError(t, storage.Create(ctx, done))

	claimed, err := storage.ClaimDue(ctx, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 2)

	ids := []uuid.UUID{claimed[0].ID, claimed[1].ID}
	assert.Contains(t, ids, eligible.ID)
	assert.Contains(t, ids, past.ID)

	for _, c := range claimed {
		assert.Equal(t, notification.StatusSending, c.Status)
	}

	// Claimed rows are invisible to an overlapping tick.
	again, err := storage.ClaimDue(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestMemoryStorageClaimDueLimit(t *testing.T) {
	t.Parallel()

	storage := notification.NewMemoryStorage()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, storage.Create(ctx, newPending(fmt.Sprintf("user-%d", i), "welcome")))
	}

	claimed, err := storage.ClaimDue(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, claimed, 3)
}

func TestMemoryStorageMarkRequiresClaim(t *testing.T) {
	t.Parallel()

	storage := notification.NewMemoryStorage()
	ctx := context.Background()
	n := newPending("user-1", "welcome")
	require.NoError(t, storage.Create(ctx, n))

	// The row is still pending: state transitions demand a prior claim.
	assert.ErrorIs(t, storage.MarkSent(ctx, n.ID, "pm-1"), notification.ErrNotClaimed)
	assert.ErrorIs(t, storage.MarkRetry(ctx, n.ID, 1, time.Now(), "x"), notification.ErrNotClaimed)
	assert.ErrorIs(t, storage.MarkFailed(ctx, n.ID, 3, "x"), notification.ErrNotClaimed)

	assert.ErrorIs(t, storage.MarkSent(ctx, uuid.New(), "pm-1"), notification.ErrNotFound)
}

func TestMemoryStorageMarkBouncedIgnoresState(t *testing.T) {
	t.Parallel()

	storage := notification.NewMemoryStorage()
	ctx := context.Background()

	n := newPending("user-1", "welcome")
	pmid := "pm-99"
	n.Status = notification.StatusSent
	n.ProviderMessageID = &pmid
	require.NoError(t, storage.Create(ctx, n))

	matched, err := storage.MarkBounced(ctx, "pm-99", "hard bounce")
	require.NoError(t, err)
	assert.True(t, matched)

	got, err := storage.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, notification.StatusBounced, got.Status)

	matched, err = storage.MarkBounced(ctx, "pm-none", "x")
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestMemoryStorageList(t *testing.T) {
	t.Parallel()

	storage := notification.NewMemoryStorage()
	ctx := context.Background()

	base := time.Now()
	var newest uuid.UUID
	for i := 0; i < 3; i++ {
		n := newPending("user-1", "welcome")
		n.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, storage.Create(ctx, n))
		newest = n.ID
	}
	other := newPending("user-2", "booking_confirmation")
	other.Status = notification.StatusSent
	require.NoError(t, storage.Create(ctx, other))

	all, err := storage.List(ctx, notification.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	byUser, err := storage.List(ctx, notification.Filter{UserID: "user-1"})
	require.NoError(t, err)
	require.Len(t, byUser, 3)
	assert.Equal(t, newest, byUser[0].ID, "newest first")

	byStatus, err := storage.List(ctx, notification.Filter{Status: notification.StatusSent})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, other.ID, byStatus[0].ID)

	byID, err := storage.List(ctx, notification.Filter{ID: &other.ID})
	require.NoError(t, err)
	require.Len(t, byID, 1)

	limited, err := storage.List(ctx, notification.Filter{UserID: "user-1", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestMemoryStorageListCap(t *testing.T) {
	t.Parallel()

	storage := notification.NewMemoryStorage()
	ctx := context.Background()

	for i := 0; i < notification.MaxListResults+10; i++ {
		require.NoError(t, storage.Create(ctx, newPending("user-1", "welcome")))
	}

	results, err := storage.List(ctx, notification.Filter{})
	require.NoError(t, err)
	assert.Len(t, results, notification.MaxListResults)

	tooMany, err := storage.List(ctx, notification.Filter{Limit: notification.MaxListResults + 5})
	require.NoError(t, err)
	assert.Len(t, tooMany, notification.MaxListResults)
}

func TestMemoryStorageConcurrentClaims(t *testing.T) {
	t.Parallel()

	storage := notification.NewMemoryStorage()
	ctx := context.Background()

	const rows = 20
	for i := 0; i < rows; i++ {
		require.NoError(t, storage.Create(ctx, newPending(fmt.Sprintf("user-%d", i), "welcome")))
	}

	var (
		mu    sync.Mutex
		seen  = make(map[uuid.UUID]int)
		wg    sync.WaitGroup
		total int
	)
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := storage.ClaimDue(ctx, rows)
			assert.NoError(t, err)
			mu.Lock()
			defer mu.Unlock()
			total += len(claimed)
			for _, c := range claimed {
				seen[c.ID]++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, rows, total)
	for id, count := range seen {
		assert.Equal(t, 1, count, "row %s claimed more than once", id)
	}
}
