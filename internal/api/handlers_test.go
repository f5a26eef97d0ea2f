package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opportune-notifier/internal/common/logger"
	"opportune-notifier/internal/common/observability"
	"opportune-notifier/internal/email"
	"opportune-notifier/internal/models"
	"opportune-notifier/internal/notify"
	"opportune-notifier/internal/store"
)

// ==========================
// Test Helper Functions
// ==========================

type stubSender struct {
	sent      int
	failWith  error
	verifyErr error
}

func (s *stubSender) Send(ctx context.Context, to, template string, data interface{}) (*email.SendResult, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	s.sent++
	return &email.SendResult{Success: true, MessageID: "stub-id"}, nil
}

func (s *stubSender) Verify(ctx context.Context) error {
	return s.verifyErr
}

func (s *stubSender) Configured() bool {
	return true
}

type failingPingStore struct {
	store.Store
}

func (f *failingPingStore) Ping(ctx context.Context) error {
	return errors.New("connection refused")
}

type testServer struct {
	server *Server
	store  store.Store
	sender *stubSender
}

func newTestServer(t *testing.T, s store.Store) *testServer {
	t.Helper()
	log := logger.NewTestLogger(t)
	sender := &stubSender{}
	coordinator := notify.NewCoordinator(s, sender, notify.NewPolicy(), observability.New("api-test"), log, 7)
	settings := notify.NewSettingsService(s, log)
	return &testServer{
		server: NewServer(coordinator, settings, log),
		store:  s,
		sender: sender,
	}
}

func (ts *testServer) request(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// ==========================
// Trigger Endpoint Tests
// ==========================

func TestHandleCheck_SendsDueReminders(t *testing.T) {
	s := store.NewMemoryStore()
	ts := newTestServer(t, s)
	ctx := context.Background()

	require.NoError(t, s.UpsertUser(ctx, &models.User{
		Email:    "alice@example.com",
		Name:     "alice",
		Settings: models.DefaultNotificationSettings(),
	}))
	due := time.Now().Add(-time.Hour)
	require.NoError(t, s.CreateApplication(ctx, &models.Application{
		UserID: "alice@example.com", Company: "Initech", Position: "Engineer",
		Status: models.StatusApplied, CustomReminderDate: &due,
	}))

	rec := ts.request(t, http.MethodPost, "/api/notifications/check", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeJSON(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, 1, ts.sender.sent)
}

func TestHandleCheck_StoreUnavailable(t *testing.T) {
	ts := newTestServer(t, &failingPingStore{Store: store.NewMemoryStore()})

	rec := ts.request(t, http.MethodPost, "/api/notifications/check", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	body := decodeJSON(t, rec)
	assert.Equal(t, false, body["success"])
}

func TestHandleDigest(t *testing.T) {
	s := store.NewMemoryStore()
	ts := newTestServer(t, s)
	ctx := context.Background()

	settings := models.DefaultNotificationSettings()
	settings.DailyDigest = true
	require.NoError(t, s.UpsertUser(ctx, &models.User{
		Email: "alice@example.com", Name: "Alice", Settings: settings,
	}))
	upcoming := time.Now().AddDate(0, 0, 2)
	require.NoError(t, s.CreateApplication(ctx, &models.Application{
		UserID: "alice@example.com", Company: "Initech", Position: "Engineer",
		Status: models.StatusApplied, FollowupDate: &upcoming,
	}))

	rec := ts.request(t, http.MethodPost, "/api/notifications/digest", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeJSON(t, rec)
	assert.Equal(t, float64(1), body["count"])
}

// ==========================
// Manual Send Tests
// ==========================

func TestHandleManualSend(t *testing.T) {
	s := store.NewMemoryStore()
	ts := newTestServer(t, s)

	app := models.Application{
		UserID: "alice@example.com", Company: "Initech", Position: "Engineer",
		Status: models.StatusApplied,
	}
	require.NoError(t, s.CreateApplication(context.Background(), &app))

	rec := ts.request(t, http.MethodPost, "/api/notifications/send/"+app.ID,
		`{"userEmail": "alice@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeJSON(t, rec)
	assert.Equal(t, true, body["success"])

	got, err := s.GetApplication(context.Background(), app.ID)
	require.NoError(t, err)
	assert.False(t, got.ReminderSent)
	assert.NotNil(t, got.LastReminderSent)
}

func TestHandleManualSend_MissingEmail(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore())

	rec := ts.request(t, http.MethodPost, "/api/notifications/send/some-id", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleManualSend_UnknownApplication(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore())

	rec := ts.request(t, http.MethodPost, "/api/notifications/send/missing",
		`{"userEmail": "alice@example.com"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ==========================
// Settings Endpoint Tests
// ==========================

func TestHandleGetSettings_CreatesDefaults(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore())

	rec := ts.request(t, http.MethodGet, "/api/notifications/settings/alice@example.com", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeJSON(t, rec)
	assert.Equal(t, "alice", body["name"])

	settings := body["settings"].(map[string]interface{})
	assert.Equal(t, true, settings["emailEnabled"])
	assert.Equal(t, float64(1), settings["reminderDaysBefore"])
	assert.Equal(t, false, settings["dailyDigest"])
	assert.Equal(t, "09:00", settings["digestTime"])
}

func TestHandleUpdateSettings(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore())

	rec := ts.request(t, http.MethodPut, "/api/notifications/settings/alice@example.com",
		`{"name": "Alice", "notificationSettings": {"dailyDigest": true, "digestTime": "07:30"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeJSON(t, rec)
	settings := body["settings"].(map[string]interface{})
	assert.Equal(t, true, settings["dailyDigest"])
	assert.Equal(t, "07:30", settings["digestTime"])
	assert.Equal(t, true, settings["emailEnabled"])

	user, err := ts.store.GetUser(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
	assert.True(t, user.Settings.DailyDigest)
}

func TestHandleUpdateSettings_Rejected(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore())

	tests := []struct {
		name string
		body string
	}{
		{"malformed digest time", `{"notificationSettings": {"digestTime": "late"}}`},
		{"lead time out of range", `{"notificationSettings": {"reminderDaysBefore": 99}}`},
		{"unknown field", `{"notificationSettings": {"pushEnabled": true}}`},
		{"wrong type", `{"notificationSettings": {"emailEnabled": "yes"}}`},
		{"not json", `{{{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.request(t, http.MethodPut, "/api/notifications/settings/alice@example.com", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	// Rejected updates never create the user.
	_, err := ts.store.GetUser(context.Background(), "alice@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// ==========================
// Operational Endpoint Tests
// ==========================

func TestHandleVerify(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore())

	rec := ts.request(t, http.MethodGet, "/api/notifications/verify", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, true, body["verified"])

	ts.sender.verifyErr = errors.New("bad credentials")
	rec = ts.request(t, http.MethodGet, "/api/notifications/verify", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeJSON(t, rec)
	assert.Equal(t, false, body["verified"])
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore())

	rec := ts.request(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
