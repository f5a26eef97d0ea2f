// internal/email/smtp.go
package email

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"

	"opportune-notifier/internal/common/config"
	apperrors "opportune-notifier/internal/common/errors"
	"opportune-notifier/internal/common/logger"
)

// SMTPSender delivers mail through a plain SMTP relay.
type SMTPSender struct {
	dialer    *gomail.Dialer
	templates *TemplateSet
	fromEmail string
	fromName  string
	log       logger.Logger
}

var _ Sender = (*SMTPSender)(nil)

func NewSMTPSender(cfg config.EmailConfig, templates *TemplateSet, log logger.Logger) *SMTPSender {
	dialer := gomail.NewDialer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password)
	dialer.SSL = cfg.SMTP.UseTLS

	return &SMTPSender{
		dialer:    dialer,
		templates: templates,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		log:       log,
	}
}

func (s *SMTPSender) Send(ctx context.Context, to, template string, data interface{}) (*SendResult, error) {
	subject, html, err := s.templates.Render(template, data)
	if err != nil {
		return nil, apperrors.NewEmailSendFailedError(to, err)
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.fromEmail, s.fromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)

	// gomail does not surface the server's message id.
	messageID := uuid.New().String()
	m.SetHeader("Message-ID", fmt.Sprintf("<%s@opportune>", messageID))

	if err := s.dialer.DialAndSend(m); err != nil {
		s.log.Error("Failed to send email via SMTP", map[string]interface{}{
			"to":       to,
			"template": template,
			"error":    err.Error(),
		})
		return nil, apperrors.NewEmailSendFailedError(to, err)
	}

	s.log.Info("Email sent", map[string]interface{}{
		"to":        to,
		"template":  template,
		"messageId": messageID,
	})
	return &SendResult{Success: true, MessageID: messageID}, nil
}

func (s *SMTPSender) Verify(ctx context.Context) error {
	closer, err := s.dialer.Dial()
	if err != nil {
		return fmt.Errorf("verify smtp: %w", err)
	}
	return closer.Close()
}

func (s *SMTPSender) Configured() bool {
	return true
}
