package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proofr/notifier/internal/handlers"
	"github.com/proofr/notifier/internal/notification"
	"github.com/proofr/notifier/pkg/mailer"
	"github.com/proofr/notifier/pkg/templates"
)

type fakeTickLock struct {
	acquired   bool
	acquireErr error
	released   bool
}

func (f *fakeTickLock) TryAcquire(context.Context) (bool, error) { return f.acquired, f.acquireErr }
func (f *fakeTickLock) Release(context.Context) error {
	f.released = true
	return nil
}

func newTriggerForLockTests(t *testing.T, lock handlers.TickLocker) *handlers.TriggerHandler {
	t.Helper()

	proc, err := notification.NewProcessor(
		notification.NewMemoryStorage(),
		templates.NewRegistry(),
		&stubSender{},
		notification.WithSendRetryOptions(mailer.WithMaxRetries(1)))
	require.NoError(t, err)

	return handlers.NewTriggerHandler(proc, testCronSecret, nil, handlers.WithTickLock(lock))
}

func doTrigger(t *testing.T, h *handlers.TriggerHandler) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/cron/emails", nil)
	req.Header.Set("Authorization", "Bearer "+testCronSecret)
	rec := httptest.NewRecorder()
	h.Trigger(rec, req)
	return rec
}

func TestTriggerTickLock(t *testing.T) {
	t.Parallel()

	t.Run("held lock skips the tick", func(t *testing.T) {
		t.Parallel()

		lock := &fakeTickLock{acquired: false}
		rec := doTrigger(t, newTriggerForLockTests(t, lock))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "skipped")
		assert.False(t, lock.released)
	})

	t.Run("acquired lock is released", func(t *testing.T) {
		t.Parallel()

		lock := &fakeTickLock{acquired: true}
		rec := doTrigger(t, newTriggerForLockTests(t, lock))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, lock.released)
	})

	t.Run("lock backend errors do not block processing", func(t *testing.T) {
		t.Parallel()

		lock := &fakeTickLock{acquireErr: errors.New("redis down")}
		rec := doTrigger(t, newTriggerForLockTests(t, lock))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "claimed")
	})
}
