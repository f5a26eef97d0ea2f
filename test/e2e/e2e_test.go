// Package e2e exercises the whole notifier through its HTTP surface: settings
// bootstrap, sweep trigger, reminder state transitions, digest and manual
// sends, all against the in-process store and a recording sender.
package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opportune-notifier/internal/api"
	"opportune-notifier/internal/common/logger"
	"opportune-notifier/internal/common/observability"
	"opportune-notifier/internal/email"
	"opportune-notifier/internal/models"
	"opportune-notifier/internal/notify"
	"opportune-notifier/internal/store"
)

// ==========================
// Test Harness
// ==========================

type recordedEmail struct {
	To       string
	Template string
}

type recordingSender struct {
	mu   sync.Mutex
	sent []recordedEmail
}

func (r *recordingSender) Send(ctx context.Context, to, template string, data interface{}) (*email.SendResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, recordedEmail{To: to, Template: template})
	return &email.SendResult{Success: true, MessageID: "e2e-id"}, nil
}

func (r *recordingSender) Verify(ctx context.Context) error { return nil }
func (r *recordingSender) Configured() bool                 { return true }

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

type harness struct {
	handler http.Handler
	store   *store.MemoryStore
	sender  *recordingSender
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logger.NewTestLogger(t)
	memStore := store.NewMemoryStore()
	sender := &recordingSender{}
	coordinator := notify.NewCoordinator(memStore, sender, notify.NewPolicy(), observability.New("e2e"), log, 7)
	settings := notify.NewSettingsService(memStore, log)
	server := api.NewServer(coordinator, settings, log)
	return &harness{handler: server.Handler(), store: memStore, sender: sender}
}

func (h *harness) do(t *testing.T, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	var out map[string]interface{}
	if len(rec.Body.Bytes()) > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

// ==========================
// End-to-End Flows
// ==========================

func TestReminderLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// First settings read bootstraps the user with defaults.
	code, body := h.do(t, http.MethodGet, "/api/notifications/settings/alice@example.com", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alice", body["name"])

	due := time.Now().Add(-time.Hour)
	app := models.Application{
		UserID: "alice@example.com", Company: "Initech", Position: "Engineer",
		Status: models.StatusApplied, CustomReminderDate: &due,
	}
	require.NoError(t, h.store.CreateApplication(ctx, &app))

	// The sweep sends exactly one reminder and marks the record.
	code, body = h.do(t, http.MethodPost, "/api/notifications/check", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, 1, h.sender.count())

	got, err := h.store.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.True(t, got.ReminderSent)

	// Sweeping again is a no-op.
	code, body = h.do(t, http.MethodPost, "/api/notifications/check", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), body["count"])
	assert.Equal(t, 1, h.sender.count())

	// Moving the reminder date re-arms the record.
	newDue := time.Now().Add(-time.Minute)
	_, err = h.store.UpdateApplication(ctx, app.ID, store.ApplicationUpdate{CustomReminderDate: &newDue})
	require.NoError(t, err)

	code, body = h.do(t, http.MethodPost, "/api/notifications/check", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, 2, h.sender.count())
}

func TestOptOutStopsDelivery(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	code, _ := h.do(t, http.MethodPut, "/api/notifications/settings/bob@example.com",
		`{"notificationSettings": {"emailEnabled": false}}`)
	require.Equal(t, http.StatusOK, code)

	due := time.Now().Add(-time.Hour)
	app := models.Application{
		UserID: "bob@example.com", Company: "Hooli", Position: "Developer",
		Status: models.StatusWaiting, CustomReminderDate: &due,
	}
	require.NoError(t, h.store.CreateApplication(ctx, &app))

	code, body := h.do(t, http.MethodPost, "/api/notifications/check", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), body["count"])
	assert.Equal(t, 0, h.sender.count())

	// The record stays eligible for after the user opts back in.
	got, err := h.store.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.False(t, got.ReminderSent)

	code, _ = h.do(t, http.MethodPut, "/api/notifications/settings/bob@example.com",
		`{"notificationSettings": {"emailEnabled": true}}`)
	require.Equal(t, http.StatusOK, code)

	code, body = h.do(t, http.MethodPost, "/api/notifications/check", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["count"])
}

func TestDigestFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	code, _ := h.do(t, http.MethodPut, "/api/notifications/settings/carol@example.com",
		`{"name": "Carol", "notificationSettings": {"dailyDigest": true}}`)
	require.Equal(t, http.StatusOK, code)

	upcoming := time.Now().AddDate(0, 0, 3)
	require.NoError(t, h.store.CreateApplication(ctx, &models.Application{
		UserID: "carol@example.com", Company: "Initech", Position: "Engineer",
		Status: models.StatusInterview, FollowupDate: &upcoming,
	}))

	code, body := h.do(t, http.MethodPost, "/api/notifications/digest", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["count"])

	require.Equal(t, 1, h.sender.count())
	assert.Equal(t, email.TemplateDailyDigest, h.sender.sent[0].Template)
}

func TestManualReminderFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	app := models.Application{
		UserID: "dave@example.com", Company: "Initech", Position: "Engineer",
		Status: models.StatusApplied,
	}
	require.NoError(t, h.store.CreateApplication(ctx, &app))

	code, body := h.do(t, http.MethodPost, "/api/notifications/send/"+app.ID,
		`{"userEmail": "dave@example.com"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])

	got, err := h.store.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.False(t, got.ReminderSent)
	assert.NotNil(t, got.LastReminderSent)
}
