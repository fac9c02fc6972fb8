package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proofr/notifier/internal/handlers"
	"github.com/proofr/notifier/internal/notification"
	"github.com/proofr/notifier/pkg/mailer"
	"github.com/proofr/notifier/pkg/templates"
)

const testCronSecret = "test-cron-secret"

type stubSender struct {
	mu      sync.Mutex
	fail    bool
	calls   int
	lastMsg mailer.Message
}

func (s *stubSender) Send(_ context.Context, msg mailer.Message) mailer.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastMsg = msg
	if s.fail {
		return mailer.Result{Success: false, Error: "provider unavailable"}
	}
	return mailer.Result{Success: true, MessageID: fmt.Sprintf("pm-%d", s.calls)}
}

type testEnv struct {
	storage *notification.MemoryStorage
	sender  *stubSender
	server  *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	storage := notification.NewMemoryStorage()
	sender := &stubSender{}

	registry := templates.NewRegistry()
	registry.Register(&templates.Template{
		ID:                "welcome",
		Subject:           "Welcome, {{ name }}!",
		HTMLTemplate:      "<p>Hello {{ name }}.</p>",
		RequiredVariables: []string{"name"},
	})

	svc, err := notification.NewService(storage, nil)
	require.NoError(t, err)

	proc, err := notification.NewProcessor(storage, registry, sender,
		notification.WithSendRetryOptions(mailer.WithMaxRetries(1)))
	require.NoError(t, err)

	rec, err := notification.NewReconciler(storage)
	require.NoError(t, err)

	router := handlers.NewRouter(handlers.RouterDeps{
		Notifications: handlers.NewNotificationsHandler(svc, nil),
		Webhook:       handlers.NewWebhookHandler(rec, nil),
		Trigger:       handlers.NewTriggerHandler(proc, testCronSecret, nil),
		DevEmail:      handlers.NewDevEmailHandler(registry, sender, nil),
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testEnv{storage: storage, sender: sender, server: server}
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(method, e.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func (e *testEnv) enqueue(t *testing.T) string {
	t.Helper()

	resp, body := e.do(t, http.MethodPost, "/api/notifications",
		`{"user_id":"user-1","email_type":"welcome","template_id":"welcome","template_data":{"name":"Ada"},"recipient_email":"client@example.com"}`,
		nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, true, body["success"])
	id, _ := body["notification_id"].(string)
	require.NotEmpty(t, id)
	return id
}

func triggerHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer " + testCronSecret}
}

func TestEnqueueEndpoint(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	t.Run("success", func(t *testing.T) {
		env.enqueue(t)
	})

	t.Run("validation failure", func(t *testing.T) {
		resp, body := env.do(t, http.MethodPost, "/api/notifications",
			`{"email_type":"welcome","template_id":"welcome","recipient_email":"a@b.com"}`, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, false, body["success"])
		assert.Contains(t, body["error"], "user")
	})

	t.Run("malformed body", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodPost, "/api/notifications", `{broken`, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestListEndpoint(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	id := env.enqueue(t)
	env.enqueue(t)

	resp, body := env.do(t, http.MethodGet, "/api/notifications?user_id=user-1", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, body["count"])

	resp, body = env.do(t, http.MethodGet, "/api/notifications?id="+id, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["count"])

	// An id that matches nothing is an empty result, not an error.
	resp, body = env.do(t, http.MethodGet, "/api/notifications?id="+uuid.NewString(), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 0, body["count"])

	resp, _ = env.do(t, http.MethodGet, "/api/notifications?id=not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/notifications?limit=zero", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTriggerEndpoint(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.enqueue(t)

	t.Run("requires bearer secret", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodPost, "/api/cron/emails", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		resp, _ = env.do(t, http.MethodPost, "/api/cron/emails", "",
			map[string]string{"Authorization": "Bearer wrong"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("processes the queue", func(t *testing.T) {
		resp, body := env.do(t, http.MethodPost, "/api/cron/emails", "", triggerHeaders())
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.EqualValues(t, 1, body["claimed"])
		assert.EqualValues(t, 1, body["sent"])
	})

	t.Run("GET works identically", func(t *testing.T) {
		resp, body := env.do(t, http.MethodGet, "/api/cron/emails", "", triggerHeaders())
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.EqualValues(t, 0, body["claimed"])
	})
}

func TestWebhookEndpoint(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	id := env.enqueue(t)

	// Deliver the notification so it carries a provider message id.
	resp, _ := env.do(t, http.MethodPost, "/api/cron/emails", "", triggerHeaders())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	nID := mustParseUUID(t, id)
	sent, err := env.storage.Get(ctx, nID)
	require.NoError(t, err)
	require.NotNil(t, sent.ProviderMessageID)
	pmid := *sent.ProviderMessageID

	t.Run("bounce overrides sent", func(t *testing.T) {
		resp, body := env.do(t, http.MethodPost, "/api/emails/webhook",
			fmt.Sprintf(`{"event":"bounce","message-id":%q,"reason":"mailbox full"}`, pmid), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["received"])

		got, err := env.storage.Get(ctx, nID)
		require.NoError(t, err)
		assert.Equal(t, notification.StatusBounced, got.Status)
	})

	t.Run("malformed payload still acked", func(t *testing.T) {
		resp, body := env.do(t, http.MethodPost, "/api/emails/webhook", `not json at all`, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["received"])
	})

	t.Run("unknown message id still acked", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodPost, "/api/emails/webhook",
			`{"event":"opened","message-id":"pm-unknown"}`, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("describe lists event kinds", func(t *testing.T) {
		resp, body := env.do(t, http.MethodGet, "/api/emails/webhook", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		events, ok := body["events"].([]any)
		require.True(t, ok)
		assert.Contains(t, events, "bounce")
		assert.Contains(t, events, "opened")
	})
}

func TestDevEmailEndpoint(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	t.Run("sends rendered template", func(t *testing.T) {
		resp, body := env.do(t, http.MethodPost, "/api/emails/send",
			`{"to":"dev@example.com","template_id":"welcome","template_data":{"name":"Ada"}}`, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["success"])
		assert.NotEmpty(t, body["message_id"])

		env.sender.mu.Lock()
		defer env.sender.mu.Unlock()
		assert.Equal(t, "Welcome, Ada!", env.sender.lastMsg.Subject)
	})

	t.Run("missing variables rejected", func(t *testing.T) {
		resp, body := env.do(t, http.MethodPost, "/api/emails/send",
			`{"to":"dev@example.com","template_id":"welcome"}`, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		missing, ok := body["missing"].([]any)
		require.True(t, ok)
		assert.Contains(t, missing, "name")
	})

	t.Run("missing recipient rejected", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodPost, "/api/emails/send", `{"template_id":"welcome"}`, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ALIVE", string(raw))
}

func mustParseUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}
