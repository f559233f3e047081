// internal/workers/rfq/notify-document/handler_test.go
package notifydocument

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfq-workers/internal/common/config"
	apperrors "rfq-workers/internal/common/errors"
	"rfq-workers/internal/common/logger"
	"rfq-workers/internal/models"
)

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
	calls         []*ses.SendEmailInput
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.calls = append(m.calls, params)
	if m.SendEmailFunc == nil {
		return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
	}
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
	calls       []*sns.PublishInput
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.calls = append(m.calls, params)
	if m.PublishFunc == nil {
		return &sns.PublishOutput{MessageId: aws.String("sms-1")}, nil
	}
	return m.PublishFunc(ctx, params, optFns...)
}

func createTestConfig() *Config {
	return &Config{
		EmailEnabled: true,
		SMSEnabled:   true,
		FromEmail:    "procurement@3quotes.ae",
		SMSSenderID:  "3Quotes",
		Timeout:      5 * time.Second,
	}
}

func createTestInput(priority string) *Input {
	return &Input{
		Document: models.Wrap(&models.RFQ{
			ProjectTitle: "Villa Repaint",
			BudgetRange:  "AED 10,000",
			RFQNumber:    "RFQ-2025-0042",
		}),
		DocumentID:     "doc-001",
		RecipientEmail: "client@example.com",
		RecipientPhone: "+971501234567",
		Priority:       priority,
	}
}

func TestHandler_Execute_Success(t *testing.T) {
	tests := []struct {
		name      string
		priority  string
		wantEmail int
		wantSMS   int
	}{
		{name: "email and SMS for high priority", priority: PriorityHigh, wantEmail: 1, wantSMS: 1},
		{name: "email only for normal priority", priority: "normal", wantEmail: 1, wantSMS: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sesMock, snsMock := &MockSESService{}, &MockSNSService{}
			h := NewHandler(createTestConfig(), sesMock, snsMock, logger.NewTestLogger(t))

			out, err := h.Execute(context.Background(), createTestInput(tt.priority))
			require.NoError(t, err)
			assert.Equal(t, StatusSent, out.Status)
			assert.NotEmpty(t, out.NotificationID)
			assert.Len(t, sesMock.calls, tt.wantEmail)
			assert.Len(t, snsMock.calls, tt.wantSMS)
		})
	}
}

func TestHandler_Execute_MessageContent(t *testing.T) {
	sesMock, snsMock := &MockSESService{}, &MockSNSService{}
	h := NewHandler(createTestConfig(), sesMock, snsMock, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), createTestInput(PriorityHigh))
	require.NoError(t, err)

	require.Len(t, sesMock.calls, 1)
	email := sesMock.calls[0]
	assert.Equal(t, "procurement@3quotes.ae", aws.ToString(email.Source))
	assert.Equal(t, []string{"client@example.com"}, email.Destination.ToAddresses)
	assert.Equal(t, "RFQ ready: Villa Repaint (AED 10,000)", aws.ToString(email.Message.Subject.Data))
	assert.Contains(t, aws.ToString(email.Message.Body.Text.Data), "RFQ-2025-0042")
	assert.Contains(t, aws.ToString(email.Message.Body.Text.Data), "Reference: doc-001")

	require.Len(t, snsMock.calls, 1)
	sms := snsMock.calls[0]
	assert.Equal(t, "+971501234567", aws.ToString(sms.PhoneNumber))
	assert.Equal(t, "RFQ ready: Villa Repaint (AED 10,000)", aws.ToString(sms.Message))
	assert.Equal(t, "3Quotes", aws.ToString(sms.MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue))
}

func TestHandler_Execute_Disabled(t *testing.T) {
	cfg := createTestConfig()
	cfg.EmailEnabled = false
	cfg.SMSEnabled = false
	sesMock, snsMock := &MockSESService{}, &MockSNSService{}
	h := NewHandler(cfg, sesMock, snsMock, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), createTestInput(PriorityHigh))
	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, out.Status)
	assert.Empty(t, sesMock.calls)
	assert.Empty(t, snsMock.calls)

	// No clients configured at all.
	out, err = NewHandler(createTestConfig(), nil, nil, logger.NewTestLogger(t)).
		Execute(context.Background(), createTestInput(PriorityHigh))
	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, out.Status)
}

func TestHandler_Execute_SendFailures(t *testing.T) {
	t.Run("email failure", func(t *testing.T) {
		sesMock := &MockSESService{SendEmailFunc: func(context.Context, *ses.SendEmailInput, ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, errors.New("MessageRejected")
		}}
		snsMock := &MockSNSService{}
		h := NewHandler(createTestConfig(), sesMock, snsMock, logger.NewTestLogger(t))

		out, err := h.Execute(context.Background(), createTestInput(PriorityHigh))
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, out.Status)
		assert.Empty(t, snsMock.calls)
	})

	t.Run("sms failure", func(t *testing.T) {
		snsMock := &MockSNSService{PublishFunc: func(context.Context, *sns.PublishInput, ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, errors.New("throttled")
		}}
		h := NewHandler(createTestConfig(), &MockSESService{}, snsMock, logger.NewTestLogger(t))

		out, err := h.Execute(context.Background(), createTestInput(PriorityHigh))
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, out.Status)
	})
}

func TestHandler_Execute_InvalidInput(t *testing.T) {
	h := NewHandler(createTestConfig(), &MockSESService{}, &MockSNSService{}, logger.NewTestLogger(t))

	in := createTestInput(PriorityHigh)
	in.RecipientEmail = "not-an-email"
	_, err := h.Execute(context.Background(), in)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.CodeOf(err))

	in = createTestInput("urgent")
	_, err = h.Execute(context.Background(), in)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.CodeOf(err))

	_, err = h.Execute(context.Background(), &Input{})
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.CodeOf(err))
}

func TestConfigFrom(t *testing.T) {
	var cfg config.Config
	cfg.Notifications.Email.Enabled = true
	cfg.Notifications.Email.FromEmail = "rfq@3quotes.ae"
	cfg.Notifications.SMS.SenderID = "3Quotes"

	c := ConfigFrom(&cfg)
	assert.True(t, c.EmailEnabled)
	assert.False(t, c.SMSEnabled)
	assert.Equal(t, "rfq@3quotes.ae", c.FromEmail)
	assert.Equal(t, "3Quotes", c.SMSSenderID)
	assert.Equal(t, 30*time.Second, c.Timeout)
}
