// internal/notify/policy.go

// Package notify implements the reminder engine: candidate selection, sweep
// coordination, digests and the settings surface.
package notify

import (
	"context"
	"time"

	"opportune-notifier/internal/models"
	"opportune-notifier/internal/store"
)

// Candidates are the records due for a reminder, split by the rule that
// selected them. A record with a custom reminder date is never selected by
// the follow-up rule, so the two sets are disjoint.
type Candidates struct {
	Custom   []models.Application
	Followup []models.Application
}

// All returns both sets in evaluation order, custom reminders first.
func (c Candidates) All() []models.Application {
	out := make([]models.Application, 0, len(c.Custom)+len(c.Followup))
	out = append(out, c.Custom...)
	out = append(out, c.Followup...)
	return out
}

// Policy decides which records are due. The clock is injectable so tests can
// pin the evaluation instant.
type Policy struct {
	clock func() time.Time
}

func NewPolicy() *Policy {
	return &Policy{clock: time.Now}
}

func NewPolicyWithClock(clock func() time.Time) *Policy {
	return &Policy{clock: clock}
}

// dayBounds returns local midnight of the given instant and the midnight
// after it.
func dayBounds(now time.Time) (today, tomorrow time.Time) {
	today = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return today, today.AddDate(0, 0, 1)
}

// SelectCandidates finds records due for a reminder. Two rules apply, both
// restricted to active statuses and records not yet reminded:
//
//   - custom: the record's custom reminder date has passed
//   - follow-up: the follow-up date falls on the current day, and the record
//     has no custom reminder date set
func (p *Policy) SelectCandidates(ctx context.Context, s store.Store) (Candidates, error) {
	now := p.clock()
	today, tomorrow := dayBounds(now)

	custom, err := s.FindApplications(ctx, store.ApplicationQuery{
		Statuses:            models.ActiveStatuses(),
		CustomReminderDueBy: &now,
		PendingReminderOnly: true,
	})
	if err != nil {
		return Candidates{}, err
	}

	followup, err := s.FindApplications(ctx, store.ApplicationQuery{
		Statuses:              models.ActiveStatuses(),
		FollowupFrom:          &today,
		FollowupBefore:        &tomorrow,
		WithoutCustomReminder: true,
		PendingReminderOnly:   true,
	})
	if err != nil {
		return Candidates{}, err
	}

	return Candidates{Custom: custom, Followup: followup}, nil
}

// UpcomingFollowups finds a user's active records with a follow-up date in
// the next lookaheadDays days, soonest first. Used by the daily digest.
func (p *Policy) UpcomingFollowups(ctx context.Context, s store.Store, userID string, lookaheadDays int) ([]models.Application, error) {
	today, _ := dayBounds(p.clock())
	horizon := today.AddDate(0, 0, lookaheadDays)

	return s.FindApplications(ctx, store.ApplicationQuery{
		UserID:          userID,
		Statuses:        models.ActiveStatuses(),
		FollowupFrom:    &today,
		FollowupBefore:  &horizon,
		OrderByFollowup: true,
	})
}
