// internal/models/application.go
package models

import "time"

// Status is the lifecycle stage of a tracked job application.
type Status string

const (
	StatusApplied   Status = "Applied"
	StatusWaiting   Status = "Waiting"
	StatusInterview Status = "Interview"
	StatusAccepted  Status = "Accepted"
	StatusRejected  Status = "Rejected"
)

// ActiveStatuses returns the statuses that still warrant follow-up.
// Accepted and Rejected are terminal and never receive reminders.
func ActiveStatuses() []Status {
	return []Status{StatusApplied, StatusWaiting, StatusInterview}
}

// IsActive reports whether the status is non-terminal.
func (s Status) IsActive() bool {
	switch s {
	case StatusApplied, StatusWaiting, StatusInterview:
		return true
	}
	return false
}

// IsValid reports whether the status is one of the known values.
func (s Status) IsValid() bool {
	switch s {
	case StatusApplied, StatusWaiting, StatusInterview, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// Application is a tracked job application. The reminder engine reads most
// fields and writes only ReminderSent and LastReminderSent.
type Application struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"userId"` // owning user's email
	Company            string     `json:"company"`
	Position           string     `json:"position"`
	Status             Status     `json:"status"`
	ApplicationDate    time.Time  `json:"applicationDate"`
	FollowupDate       *time.Time `json:"followupDate,omitempty"`
	CustomReminderDate *time.Time `json:"customReminderDate,omitempty"`
	Location           string     `json:"location,omitempty"`
	Salary             string     `json:"salary,omitempty"`
	JobURL             string     `json:"jobUrl,omitempty"`
	ContactPerson      string     `json:"contactPerson,omitempty"`
	ContactEmail       string     `json:"contactEmail,omitempty"`
	Notes              string     `json:"notes,omitempty"`
	ReminderSent       bool       `json:"reminderSent"`
	LastReminderSent   *time.Time `json:"lastReminderSent,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}
