package sendemail

import (
	"context"
	"errors"
	"fmt"

	awsclient "voice-agent-workers/internal/common/aws"
	"voice-agent-workers/internal/common/logger"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

var ErrEmailSendFailed = errors.New("EMAIL_SEND_FAILED")

// Sender delivers a message and returns the provider's message id along
// with the delivery status to report.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg Message) (providerID string, deliveryStatus string, err error)
}

// LogSender records the message in the log and reports it delivered.
type LogSender struct {
	logger logger.Logger
}

func NewLogSender(log logger.Logger) *LogSender {
	return &LogSender{logger: log.WithFields(map[string]interface{}{"component": "email-log-sender"})}
}

func (s *LogSender) Name() string { return ProviderLog }

func (s *LogSender) Send(ctx context.Context, msg Message) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", fmt.Errorf("context cancelled before sending email: %w", err)
	}
	s.logger.Info("email delivered to log", map[string]interface{}{
		"to":       msg.To,
		"cc":       msg.CC,
		"subject":  msg.Subject,
		"priority": msg.Priority,
	})
	return "", "delivered", nil
}

// SESSender delivers through Amazon SES.
type SESSender struct {
	client *awsclient.SESClient
}

func NewSESSender(client *awsclient.SESClient) *SESSender {
	return &SESSender{client: client}
}

func (s *SESSender) Name() string { return ProviderSES }

func (s *SESSender) Send(ctx context.Context, msg Message) (string, string, error) {
	id, err := s.client.Send(ctx, awsclient.Email{
		From:    msg.From,
		To:      msg.To,
		CC:      msg.CC,
		BCC:     msg.BCC,
		Subject: msg.Subject,
		Body:    msg.Body,
	})
	if err != nil {
		return "", "", err
	}
	return id, "accepted", nil
}

// SendGridAPI is the part of *sendgrid.Client used here.
type SendGridAPI interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridSender delivers through the SendGrid v3 mail API.
type SendGridSender struct {
	client SendGridAPI
}

func NewSendGridSender(apiKey string) *SendGridSender {
	return &SendGridSender{client: sendgrid.NewSendClient(apiKey)}
}

func NewSendGridSenderWithAPI(api SendGridAPI) *SendGridSender {
	return &SendGridSender{client: api}
}

func (s *SendGridSender) Name() string { return ProviderSendGrid }

func (s *SendGridSender) Send(ctx context.Context, msg Message) (string, string, error) {
	message := BuildSendGridMail(msg)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return "", "", fmt.Errorf("sendgrid error: %w", err)
	}
	if response.StatusCode >= 300 {
		return "", "", fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}

	var id string
	if ids := response.Headers["X-Message-Id"]; len(ids) > 0 {
		id = ids[0]
	}
	return id, "accepted", nil
}

// BuildSendGridMail renders msg as a single-personalization plain-text mail.
func BuildSendGridMail(msg Message) *mail.SGMailV3 {
	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(msg.FromName, msg.From))
	message.Subject = msg.Subject

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail("", msg.To))
	for _, cc := range msg.CC {
		p.AddCCs(mail.NewEmail("", cc))
	}
	for _, bcc := range msg.BCC {
		p.AddBCCs(mail.NewEmail("", bcc))
	}
	message.AddPersonalizations(p)
	message.AddContent(mail.NewContent("text/plain", msg.Body))

	switch msg.Priority {
	case "high", "urgent":
		message.SetHeader("X-Priority", "1")
		message.SetHeader("Importance", "high")
	case "low":
		message.SetHeader("X-Priority", "5")
		message.SetHeader("Importance", "low")
	}
	return message
}
