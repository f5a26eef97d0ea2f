// internal/email/disabled.go
package email

import (
	"context"

	apperrors "opportune-notifier/internal/common/errors"
	"opportune-notifier/internal/common/logger"
)

// DisabledSender backs deployments that never configured email. Every send is
// a reported no-op so reminder state is left untouched and records surface
// again once a real provider is configured.
type DisabledSender struct {
	log logger.Logger
}

var _ Sender = (*DisabledSender)(nil)

func NewDisabledSender(log logger.Logger) *DisabledSender {
	return &DisabledSender{log: log}
}

func (s *DisabledSender) Send(ctx context.Context, to, template string, data interface{}) (*SendResult, error) {
	s.log.Warn("Email not configured, skipping send", map[string]interface{}{
		"to":       to,
		"template": template,
	})
	return &SendResult{Success: false, Message: "Email service not configured"}, nil
}

func (s *DisabledSender) Verify(ctx context.Context) error {
	return apperrors.NewEmailNotConfiguredError()
}

func (s *DisabledSender) Configured() bool {
	return false
}
