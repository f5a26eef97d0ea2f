package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "opportune-notifier/internal/common/errors"
	"opportune-notifier/internal/common/logger"
	"opportune-notifier/internal/store"
)

func boolPtr(b bool) *bool       { return &b }
func intPtr(i int) *int          { return &i }
func stringPtr(s string) *string { return &s }

func TestSettingsService_Get_CreatesDefaults(t *testing.T) {
	s := store.NewMemoryStore()
	svc := NewSettingsService(s, logger.NewTestLogger(t))

	user, err := svc.Get(context.Background(), "alice@example.com")
	require.NoError(t, err)

	assert.Equal(t, "alice", user.Name)
	assert.True(t, user.Settings.EmailEnabled)
	assert.Equal(t, 1, user.Settings.ReminderDaysBefore)
	assert.False(t, user.Settings.DailyDigest)
	assert.Equal(t, "09:00", user.Settings.DigestTime)

	// The user is persisted, not just defaulted in the response.
	stored, err := s.GetUser(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.Settings, stored.Settings)
}

func TestSettingsService_Update_MergesPatch(t *testing.T) {
	s := store.NewMemoryStore()
	svc := NewSettingsService(s, logger.NewTestLogger(t))

	updated, err := svc.Update(context.Background(), "alice@example.com", SettingsPatch{
		DailyDigest: boolPtr(true),
		DigestTime:  stringPtr("07:30"),
	})
	require.NoError(t, err)

	assert.True(t, updated.Settings.DailyDigest)
	assert.Equal(t, "07:30", updated.Settings.DigestTime)
	// Untouched fields keep their defaults.
	assert.True(t, updated.Settings.EmailEnabled)
	assert.Equal(t, 1, updated.Settings.ReminderDaysBefore)

	// A later patch only changes what it names.
	updated, err = svc.Update(context.Background(), "alice@example.com", SettingsPatch{
		EmailEnabled: boolPtr(false),
		Name:         stringPtr("Alice A."),
	})
	require.NoError(t, err)
	assert.False(t, updated.Settings.EmailEnabled)
	assert.True(t, updated.Settings.DailyDigest)
	assert.Equal(t, "Alice A.", updated.Name)
}

func TestSettingsService_Update_Validation(t *testing.T) {
	s := store.NewMemoryStore()
	svc := NewSettingsService(s, logger.NewTestLogger(t))

	tests := []struct {
		name  string
		patch SettingsPatch
	}{
		{"negative lead time", SettingsPatch{ReminderDaysBefore: intPtr(-1)}},
		{"excessive lead time", SettingsPatch{ReminderDaysBefore: intPtr(45)}},
		{"malformed digest time", SettingsPatch{DigestTime: stringPtr("9am")}},
		{"out of range digest time", SettingsPatch{DigestTime: stringPtr("25:00")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(context.Background(), "alice@example.com", tt.patch)
			assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeSettingsValidationFailed))
		})
	}

	// No user record is created on a rejected update.
	_, err := s.GetUser(context.Background(), "alice@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
