// internal/models/sweep.go
package models

// SweepSkip records a user group that was deliberately not notified.
type SweepSkip struct {
	UserID       string `json:"userId,omitempty"`
	Reason       string `json:"reason"`
	Applications int    `json:"applications,omitempty"`
}

// SweepError records a per-record or per-group delivery failure. Failed
// records keep their reminder state so the next sweep retries them.
type SweepError struct {
	UserID        string `json:"userId"`
	ApplicationID string `json:"applicationId,omitempty"`
	Error         string `json:"error"`
}

// SweepResult summarizes one reminder sweep.
type SweepResult struct {
	Sent    int          `json:"sent"`
	Skipped []SweepSkip  `json:"skipped,omitempty"`
	Errors  []SweepError `json:"errors,omitempty"`
}

// DigestResult summarizes one digest run.
type DigestResult struct {
	Sent int `json:"sent"`
}
