// internal/store/store.go

// Package store abstracts the record store behind a single interface with
// interchangeable implementations selected at startup.
package store

import (
	"context"
	"errors"
	"time"

	"opportune-notifier/internal/models"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("record not found")

// ApplicationQuery filters application records. Zero values mean "no
// constraint". Date ranges are half-open: [From, Before).
type ApplicationQuery struct {
	UserID   string
	Statuses []models.Status

	FollowupFrom   *time.Time
	FollowupBefore *time.Time

	// CustomReminderDueBy selects records whose customReminderDate exists
	// and is <= the given instant.
	CustomReminderDueBy *time.Time

	// WithoutCustomReminder selects records whose customReminderDate is
	// absent. Mutually exclusive with CustomReminderDueBy.
	WithoutCustomReminder bool

	// PendingReminderOnly selects records not yet marked as reminded.
	PendingReminderOnly bool

	// OrderByFollowup sorts results ascending by followupDate.
	OrderByFollowup bool
}

// ApplicationUpdate is a partial update. Nil pointers leave fields untouched;
// the Clear flags null out the corresponding date.
type ApplicationUpdate struct {
	Company         *string
	Position        *string
	Status          *models.Status
	ApplicationDate *time.Time
	Location        *string
	Salary          *string
	JobURL          *string
	ContactPerson   *string
	ContactEmail    *string
	Notes           *string

	FollowupDate            *time.Time
	ClearFollowupDate       bool
	CustomReminderDate      *time.Time
	ClearCustomReminderDate bool
}

// TouchesReminderTrigger reports whether the update changes a reminder
// trigger date. Such updates must reset the record's reminder state, since
// the previous reminder no longer corresponds to the new trigger date.
func (u ApplicationUpdate) TouchesReminderTrigger() bool {
	return u.FollowupDate != nil || u.ClearFollowupDate ||
		u.CustomReminderDate != nil || u.ClearCustomReminderDate
}

// Store is the record store used by the reminder engine and the external
// CRUD/settings surfaces.
type Store interface {
	// Ping reports whether the store can serve global queries. A failing
	// store aborts whole sweeps rather than partially failing.
	Ping(ctx context.Context) error

	CreateApplication(ctx context.Context, app *models.Application) error
	GetApplication(ctx context.Context, id string) (*models.Application, error)
	FindApplications(ctx context.Context, q ApplicationQuery) ([]models.Application, error)
	UpdateApplication(ctx context.Context, id string, upd ApplicationUpdate) (*models.Application, error)
	DeleteApplication(ctx context.Context, id string) error

	// MarkReminderSent flips the reminder state after a confirmed send.
	// It never resets trigger dates.
	MarkReminderSent(ctx context.Context, id string, at time.Time) error

	// RecordManualReminder updates only lastReminderSent, so a manual nudge
	// never suppresses the automatic sweep.
	RecordManualReminder(ctx context.Context, id string, at time.Time) error

	GetUser(ctx context.Context, email string) (*models.User, error)
	UpsertUser(ctx context.Context, user *models.User) error

	// FindDigestUsers returns users with dailyDigest and emailEnabled set.
	FindDigestUsers(ctx context.Context) ([]models.User, error)

	Close() error
}

// matchesQuery is the single definition of query semantics, shared by the
// memory store and the tests.
func matchesQuery(app *models.Application, q ApplicationQuery) bool {
	if q.UserID != "" && app.UserID != q.UserID {
		return false
	}

	if len(q.Statuses) > 0 {
		found := false
		for _, s := range q.Statuses {
			if app.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if q.FollowupFrom != nil || q.FollowupBefore != nil {
		if app.FollowupDate == nil {
			return false
		}
		if q.FollowupFrom != nil && app.FollowupDate.Before(*q.FollowupFrom) {
			return false
		}
		if q.FollowupBefore != nil && !app.FollowupDate.Before(*q.FollowupBefore) {
			return false
		}
	}

	if q.CustomReminderDueBy != nil {
		if app.CustomReminderDate == nil || app.CustomReminderDate.After(*q.CustomReminderDueBy) {
			return false
		}
	}

	if q.WithoutCustomReminder && app.CustomReminderDate != nil {
		return false
	}

	if q.PendingReminderOnly && app.ReminderSent {
		return false
	}

	return true
}
