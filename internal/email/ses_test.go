package email

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "opportune-notifier/internal/common/errors"
	"opportune-notifier/internal/common/logger"
	"opportune-notifier/internal/models"
)

// ==========================
// Mock SES Service
// ==========================

type MockSESService struct {
	SendEmailFunc    func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
	GetSendQuotaFunc func(ctx context.Context, params *ses.GetSendQuotaInput, optFns ...func(*ses.Options)) (*ses.GetSendQuotaOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, params, optFns...)
	}
	return &ses.SendEmailOutput{MessageId: aws.String("mock-message-id")}, nil
}

func (m *MockSESService) GetSendQuota(ctx context.Context, params *ses.GetSendQuotaInput, optFns ...func(*ses.Options)) (*ses.GetSendQuotaOutput, error) {
	if m.GetSendQuotaFunc != nil {
		return m.GetSendQuotaFunc(ctx, params, optFns...)
	}
	return &ses.GetSendQuotaOutput{}, nil
}

func newTestSESSender(t *testing.T, client SESService) *SESSender {
	t.Helper()
	templates, err := NewTemplateSet()
	require.NoError(t, err)
	return NewSESSenderWithClient(client, "noreply@opportune.example", "Opportune", templates, logger.NewTestLogger(t))
}

// ==========================
// Tests
// ==========================

func TestSESSender_Send_Success(t *testing.T) {
	var captured *ses.SendEmailInput
	mock := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			captured = params
			return &ses.SendEmailOutput{MessageId: aws.String("ses-123")}, nil
		},
	}
	sender := newTestSESSender(t, mock)

	data := NewReminderData(models.Application{
		Company:  "Initech",
		Position: "Engineer",
		Status:   models.StatusApplied,
	})

	result, err := sender.Send(context.Background(), "alice@example.com", TemplateFollowupReminder, data)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "ses-123", result.MessageID)

	require.NotNil(t, captured)
	assert.Equal(t, "Opportune <noreply@opportune.example>", aws.ToString(captured.Source))
	assert.Equal(t, []string{"alice@example.com"}, captured.Destination.ToAddresses)
	assert.Equal(t, "Follow-up Reminder: Initech - Engineer", aws.ToString(captured.Message.Subject.Data))
}

func TestSESSender_Send_DeliveryFailure(t *testing.T) {
	mock := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, errors.New("throttled")
		},
	}
	sender := newTestSESSender(t, mock)

	data := NewReminderData(models.Application{Company: "Initech", Position: "Engineer"})
	result, err := sender.Send(context.Background(), "alice@example.com", TemplateFollowupReminder, data)

	assert.Nil(t, result)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeEmailSendFailed))
}

func TestSESSender_Send_UnknownTemplate(t *testing.T) {
	sender := newTestSESSender(t, &MockSESService{})

	_, err := sender.Send(context.Background(), "alice@example.com", "nope", nil)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeEmailSendFailed))
}

func TestSESSender_Verify(t *testing.T) {
	sender := newTestSESSender(t, &MockSESService{})
	assert.NoError(t, sender.Verify(context.Background()))

	failing := &MockSESService{
		GetSendQuotaFunc: func(ctx context.Context, params *ses.GetSendQuotaInput, optFns ...func(*ses.Options)) (*ses.GetSendQuotaOutput, error) {
			return nil, errors.New("access denied")
		},
	}
	sender = newTestSESSender(t, failing)
	assert.Error(t, sender.Verify(context.Background()))
}

func TestDisabledSender(t *testing.T) {
	sender := NewDisabledSender(logger.NewTestLogger(t))

	assert.False(t, sender.Configured())

	result, err := sender.Send(context.Background(), "alice@example.com", TemplateFollowupReminder, nil)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Empty(t, result.MessageID)

	err = sender.Verify(context.Background())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeEmailNotConfigured))
}
