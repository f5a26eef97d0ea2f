// internal/notify/settings.go
package notify

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	apperrors "opportune-notifier/internal/common/errors"
	"opportune-notifier/internal/common/logger"
	"opportune-notifier/internal/models"
	"opportune-notifier/internal/store"
)

var digestTimePattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// SettingsPatch is a partial settings update. Nil fields keep their current
// value.
type SettingsPatch struct {
	Name               *string `json:"name,omitempty"`
	EmailEnabled       *bool   `json:"emailEnabled,omitempty"`
	ReminderDaysBefore *int    `json:"reminderDaysBefore,omitempty"`
	DailyDigest        *bool   `json:"dailyDigest,omitempty"`
	DigestTime         *string `json:"digestTime,omitempty"`
}

// Validate rejects out-of-range values before any store access.
func (p SettingsPatch) Validate() error {
	if p.ReminderDaysBefore != nil && (*p.ReminderDaysBefore < 0 || *p.ReminderDaysBefore > 30) {
		return apperrors.NewSettingsValidationFailedError(
			fmt.Sprintf("reminderDaysBefore must be between 0 and 30, got %d", *p.ReminderDaysBefore))
	}
	if p.DigestTime != nil && !digestTimePattern.MatchString(*p.DigestTime) {
		return apperrors.NewSettingsValidationFailedError(
			fmt.Sprintf("digestTime must be HH:MM, got %q", *p.DigestTime))
	}
	return nil
}

// SettingsService manages per-user notification settings. Users are created
// lazily with defaults on first access, so a settings read never fails for an
// unknown email.
type SettingsService struct {
	store store.Store
	log   logger.Logger
}

func NewSettingsService(s store.Store, log logger.Logger) *SettingsService {
	return &SettingsService{store: s, log: log}
}

// Get returns the user's settings, creating the user with defaults when
// missing.
func (s *SettingsService) Get(ctx context.Context, email string) (*models.User, error) {
	user, err := s.store.GetUser(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return s.createDefault(ctx, email)
	}
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("get user", err)
	}
	return user, nil
}

// Update merges the patch into the user's settings, creating the user first
// when missing.
func (s *SettingsService) Update(ctx context.Context, email string, patch SettingsPatch) (*models.User, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	user, err := s.Get(ctx, email)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil && *patch.Name != "" {
		user.Name = *patch.Name
	}
	if patch.EmailEnabled != nil {
		user.Settings.EmailEnabled = *patch.EmailEnabled
	}
	if patch.ReminderDaysBefore != nil {
		user.Settings.ReminderDaysBefore = *patch.ReminderDaysBefore
	}
	if patch.DailyDigest != nil {
		user.Settings.DailyDigest = *patch.DailyDigest
	}
	if patch.DigestTime != nil {
		user.Settings.DigestTime = *patch.DigestTime
	}

	if err := s.store.UpsertUser(ctx, user); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("upsert user", err)
	}

	s.log.Info("Notification settings updated", map[string]interface{}{"userId": email})
	return user, nil
}

func (s *SettingsService) createDefault(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{
		Email:    email,
		Name:     models.DisplayNameForEmail(email),
		Settings: models.DefaultNotificationSettings(),
	}
	if err := s.store.UpsertUser(ctx, user); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("create user", err)
	}
	return user, nil
}
