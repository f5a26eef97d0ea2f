// internal/email/sender.go

// Package email provides the delivery capability behind the reminder engine.
// Providers are selected at startup; the engine only sees the Sender
// interface.
package email

import "context"

// Template names addressable through Sender.Send.
const (
	TemplateFollowupReminder = "followupReminder"
	TemplateDailyDigest      = "dailyDigest"
)

// SendResult reports the outcome of one delivery attempt. Success false with
// a nil error is the deliberate skip of an unconfigured provider; the caller
// must not treat it as a delivery.
type SendResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Sender renders a named template and delivers it to a single recipient.
type Sender interface {
	Send(ctx context.Context, to, template string, data interface{}) (*SendResult, error)

	// Verify checks provider connectivity and credentials without sending.
	Verify(ctx context.Context) error

	// Configured reports whether the provider can actually deliver mail.
	Configured() bool
}
