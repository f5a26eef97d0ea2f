// internal/models/user.go
package models

import (
	"strings"
	"time"
)

// NotificationSettings controls how and when a user is notified.
type NotificationSettings struct {
	EmailEnabled       bool   `json:"emailEnabled"`
	ReminderDaysBefore int    `json:"reminderDaysBefore"` // lead time before a follow-up date, >= 0
	DailyDigest        bool   `json:"dailyDigest"`
	DigestTime         string `json:"digestTime"` // HH:MM
}

// DefaultNotificationSettings are applied when a user record is created
// lazily on first settings access.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		EmailEnabled:       true,
		ReminderDaysBefore: 1,
		DailyDigest:        false,
		DigestTime:         "09:00",
	}
}

// User is keyed by email. The reminder engine only reads notification
// settings; the settings surface creates and updates the record.
type User struct {
	Email     string               `json:"email"`
	Name      string               `json:"name"`
	Settings  NotificationSettings `json:"notificationSettings"`
	CreatedAt time.Time            `json:"createdAt"`
}

// DisplayNameForEmail derives a default display name from the local part of
// an email address.
func DisplayNameForEmail(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
