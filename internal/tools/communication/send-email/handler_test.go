package sendemail

import (
	"context"
	"errors"
	"testing"
	"time"

	awsclient "voice-agent-workers/internal/common/aws"
	"voice-agent-workers/internal/common/logger"
	"voice-agent-workers/internal/tools"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mocks
// ==========================

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Name() string { return "mock" }

func (m *MockSender) Send(ctx context.Context, msg Message) (string, string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.String(1), args.Error(2)
}

type fakeSendGrid struct {
	sent     *mail.SGMailV3
	response *rest.Response
	err      error
}

func (f *fakeSendGrid) SendWithContext(_ context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	f.sent = email
	return f.response, f.err
}

type fakeSES struct {
	input *ses.SendEmailInput
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = in
	return &ses.SendEmailOutput{MessageId: aws.String("ses-123")}, nil
}

func createTestHandler(t *testing.T, sender Sender) *Handler {
	h := NewHandler(DefaultConfig(), sender, logger.NewTestLogger(t))
	h.now = func() time.Time { return time.Date(2025, 5, 4, 12, 0, 0, 0, time.UTC) }
	return h
}

// ==========================
// Validation Tests
// ==========================

func TestHandler_Validate(t *testing.T) {
	h := createTestHandler(t, nil)

	base := func(extra map[string]interface{}) map[string]interface{} {
		p := map[string]interface{}{"to": "Jane@Example.com", "subject": "Hello", "body": "Your order shipped."}
		for k, v := range extra {
			p[k] = v
		}
		return p
	}

	tests := []struct {
		name     string
		params   map[string]interface{}
		expected map[string]interface{}
		errMsg   string
	}{
		{
			name:     "required only",
			params:   base(nil),
			expected: map[string]interface{}{"to": "jane@example.com", "subject": "Hello", "body": "Your order shipped."},
		},
		{
			name:   "cc bcc priority",
			params: base(map[string]interface{}{"cc": "A@x.io, b@y.io", "bcc": "c@z.io", "priority": "HIGH"}),
			expected: map[string]interface{}{
				"to": "jane@example.com", "subject": "Hello", "body": "Your order shipped.",
				"cc": []interface{}{"a@x.io", "b@y.io"}, "bcc": []interface{}{"c@z.io"}, "priority": "high",
			},
		},
		{
			name:     "empty cc ignored",
			params:   base(map[string]interface{}{"cc": ""}),
			expected: map[string]interface{}{"to": "jane@example.com", "subject": "Hello", "body": "Your order shipped."},
		},
		{name: "missing to", params: map[string]interface{}{"subject": "s", "body": "b"}, errMsg: "to (recipient email) is required"},
		{name: "missing subject", params: map[string]interface{}{"to": "a@b.io", "body": "b"}, errMsg: "subject is required"},
		{name: "missing body", params: map[string]interface{}{"to": "a@b.io", "subject": "s"}, errMsg: "body is required"},
		{name: "bad recipient", params: base(map[string]interface{}{"to": "jane"}), errMsg: "Invalid recipient email format"},
		{name: "blank subject", params: base(map[string]interface{}{"subject": "  "}), errMsg: "Subject must be between 1 and 200 characters"},
		{name: "blank body", params: base(map[string]interface{}{"body": ""}), errMsg: "Body must be between 1 and 10,000 characters"},
		{name: "bad cc", params: base(map[string]interface{}{"cc": "ok@x.io, nope"}), errMsg: "Invalid CC email format: nope"},
		{name: "bad bcc", params: base(map[string]interface{}{"bcc": "nope"}), errMsg: "Invalid BCC email format: nope"},
		{name: "bad priority", params: base(map[string]interface{}{"priority": "asap"}), errMsg: "Priority must be: low, normal, high, or urgent"},
		{name: "empty priority", params: base(map[string]interface{}{"priority": ""}), errMsg: "Priority must be: low, normal, high, or urgent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := h.Validate(tt.params)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Equal(t, tt.errMsg, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

// ==========================
// Execution Tests
// ==========================

func TestHandler_Execute_LogSender(t *testing.T) {
	h := createTestHandler(t, nil)

	out, err := h.Execute(context.Background(), map[string]interface{}{
		"to": "jane@example.com", "subject": "Hello", "body": "Hi there",
	})
	require.NoError(t, err)

	email := out["email"].(map[string]interface{})
	assert.Equal(t, true, out["success"])
	assert.Regexp(t, `^MSG-[0-9A-F]{8}$`, email["message_id"])
	assert.Equal(t, "normal", email["priority"])
	assert.Equal(t, []interface{}{}, email["cc"])
	assert.Equal(t, []interface{}{}, email["bcc"])
	assert.Equal(t, "sent", email["status"])
	assert.Equal(t, "delivered", email["delivery_status"])
	assert.Equal(t, "2025-05-04T12:00:00Z", email["sent_at"])
	assert.Equal(t, "Email "+email["message_id"].(string)+" sent successfully", out["message"])
}

func TestHandler_Execute_PassesMessageToSender(t *testing.T) {
	sender := new(MockSender)
	sender.On("Send", mock.Anything, Message{
		From:     "noreply@example.com",
		FromName: "Voice Agent",
		To:       "jane@example.com",
		CC:       []string{"a@x.io"},
		Subject:  "Hello",
		Body:     "Hi",
		Priority: "urgent",
	}).Return("prov-1", "accepted", nil)

	h := createTestHandler(t, sender)
	out, err := h.Execute(context.Background(), map[string]interface{}{
		"to": "jane@example.com", "subject": "Hello", "body": "Hi", "cc": []interface{}{"a@x.io"}, "priority": "urgent",
	})
	require.NoError(t, err)

	email := out["email"].(map[string]interface{})
	assert.Equal(t, "prov-1", email["provider_message_id"])
	assert.Equal(t, "accepted", email["delivery_status"])
	assert.Equal(t, "mock", email["provider"])
	sender.AssertExpectations(t)
}

func TestHandler_Execute_SenderFailure(t *testing.T) {
	sender := new(MockSender)
	sender.On("Send", mock.Anything, mock.Anything).Return("", "", errors.New("smtp down"))

	reg := tools.NewRegistry(logger.NewTestLogger(t))
	reg.Register(createTestHandler(t, sender))

	res := reg.Run(context.Background(), ToolName, map[string]interface{}{
		"to": "jane@example.com", "subject": "Hello", "body": "Hi",
	})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "Execution error: EMAIL_SEND_FAILED")
	assert.Contains(t, res.Error, "smtp down")
}

// ==========================
// Sender Tests
// ==========================

func TestSendGridSender(t *testing.T) {
	api := &fakeSendGrid{response: &rest.Response{
		StatusCode: 202,
		Headers:    map[string][]string{"X-Message-Id": {"sg-42"}},
	}}
	sender := NewSendGridSenderWithAPI(api)

	id, status, err := sender.Send(context.Background(), Message{
		From: "noreply@example.com", FromName: "Agent", To: "jane@example.com",
		CC: []string{"a@x.io"}, BCC: []string{"b@y.io"}, Subject: "S", Body: "B", Priority: "high",
	})
	require.NoError(t, err)
	assert.Equal(t, "sg-42", id)
	assert.Equal(t, "accepted", status)

	require.NotNil(t, api.sent)
	assert.Equal(t, "S", api.sent.Subject)
	require.Len(t, api.sent.Personalizations, 1)
	assert.Equal(t, "jane@example.com", api.sent.Personalizations[0].To[0].Address)
	assert.Equal(t, "a@x.io", api.sent.Personalizations[0].CC[0].Address)
	assert.Equal(t, "b@y.io", api.sent.Personalizations[0].BCC[0].Address)
	assert.Equal(t, "1", api.sent.Headers["X-Priority"])
}

func TestSendGridSender_ErrorStatus(t *testing.T) {
	sender := NewSendGridSenderWithAPI(&fakeSendGrid{response: &rest.Response{StatusCode: 401, Body: "unauthorized"}})

	_, _, err := sender.Send(context.Background(), Message{To: "jane@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sendgrid returned status 401")
}

func TestSESSender(t *testing.T) {
	api := &fakeSES{}
	sender := NewSESSender(awsclient.NewSESClientWithAPI(api))

	id, status, err := sender.Send(context.Background(), Message{
		From: "noreply@example.com", To: "jane@example.com", Subject: "S", Body: "B",
	})
	require.NoError(t, err)
	assert.Equal(t, "ses-123", id)
	assert.Equal(t, "accepted", status)
	assert.Equal(t, []string{"jane@example.com"}, api.input.Destination.ToAddresses)
}

func TestConfig_Validate(t *testing.T) {
	c := DefaultConfig()
	assert.NoError(t, c.Validate())

	c.Provider = "pigeon"
	assert.Error(t, c.Validate())
}
