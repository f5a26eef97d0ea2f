// internal/email/ses.go
package email

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	apperrors "opportune-notifier/internal/common/errors"
	"opportune-notifier/internal/common/logger"
)

// SESService is the subset of the SES client the sender needs.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
	GetSendQuota(ctx context.Context, params *ses.GetSendQuotaInput, optFns ...func(*ses.Options)) (*ses.GetSendQuotaOutput, error)
}

// SESSender delivers mail through AWS SES.
type SESSender struct {
	client    SESService
	templates *TemplateSet
	fromEmail string
	fromName  string
	log       logger.Logger
}

var _ Sender = (*SESSender)(nil)

func NewSESSender(ctx context.Context, region, fromEmail, fromName string, templates *TemplateSet, log logger.Logger) (*SESSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SESSender{
		client:    ses.NewFromConfig(cfg),
		templates: templates,
		fromEmail: fromEmail,
		fromName:  fromName,
		log:       log,
	}, nil
}

// NewSESSenderWithClient wires an existing client, used by tests.
func NewSESSenderWithClient(client SESService, fromEmail, fromName string, templates *TemplateSet, log logger.Logger) *SESSender {
	return &SESSender{
		client:    client,
		templates: templates,
		fromEmail: fromEmail,
		fromName:  fromName,
		log:       log,
	}
}

func (s *SESSender) Send(ctx context.Context, to, template string, data interface{}) (*SendResult, error) {
	subject, html, err := s.templates.Render(template, data)
	if err != nil {
		return nil, apperrors.NewEmailSendFailedError(to, err)
	}

	out, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(html)},
			},
		},
	})
	if err != nil {
		s.log.Error("Failed to send email via SES", map[string]interface{}{
			"to":       to,
			"template": template,
			"error":    err.Error(),
		})
		return nil, apperrors.NewEmailSendFailedError(to, err)
	}

	messageID := aws.ToString(out.MessageId)
	s.log.Info("Email sent", map[string]interface{}{
		"to":        to,
		"template":  template,
		"messageId": messageID,
	})
	return &SendResult{Success: true, MessageID: messageID}, nil
}

func (s *SESSender) Verify(ctx context.Context) error {
	if _, err := s.client.GetSendQuota(ctx, &ses.GetSendQuotaInput{}); err != nil {
		return fmt.Errorf("verify ses: %w", err)
	}
	return nil
}

func (s *SESSender) Configured() bool {
	return true
}
