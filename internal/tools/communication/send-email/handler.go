// internal/tools/communication/send-email/handler.go
package sendemail

import (
	"context"
	"fmt"
	"time"

	"voice-agent-workers/internal/common/logger"
	"voice-agent-workers/internal/tools"
)

const (
	ToolName    = "send_email"
	description = "Send an email to a customer"
)

type Handler struct {
	config *Config
	sender Sender
	now    func() time.Time
	logger logger.Logger
}

func NewHandler(config *Config, sender Sender, log logger.Logger) *Handler {
	if config == nil {
		config = DefaultConfig()
	}
	if sender == nil {
		sender = NewLogSender(log)
	}
	return &Handler{
		config: config,
		sender: sender,
		now:    time.Now,
		logger: log.WithFields(map[string]interface{}{"tool": ToolName, "provider": sender.Name()}),
	}
}

func (h *Handler) Definition() tools.Definition {
	return tools.Definition{
		Name:           ToolName,
		Description:    description,
		RequiredParams: []string{"to", "subject", "body"},
		OptionalParams: []string{"cc", "bcc", "priority"},
		InputSchema:    GetInputSchema(),
	}
}

func (h *Handler) Validate(params map[string]interface{}) (map[string]interface{}, error) {
	input, err := validateInput(params)
	if err != nil {
		return nil, err
	}
	return tools.ToParams(input)
}

func (h *Handler) Execute(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	var input Input
	if err := tools.FromParams(params, &input); err != nil {
		return nil, err
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		return nil, err
	}
	return tools.ToParams(output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	priority := input.Priority
	if priority == "" {
		priority = h.config.DefaultPriority
	}

	providerID, deliveryStatus, err := h.sender.Send(ctx, Message{
		From:     h.config.FromEmail,
		FromName: h.config.FromName,
		To:       input.To,
		CC:       input.CC,
		BCC:      input.BCC,
		Subject:  input.Subject,
		Body:     input.Body,
		Priority: priority,
	})
	if err != nil {
		h.logger.Error("email send failed", map[string]interface{}{"to": input.To, "error": err.Error()})
		return nil, fmt.Errorf("%w: %v", ErrEmailSendFailed, err)
	}

	email := &Email{
		MessageID:      tools.NewID("MSG", 8),
		To:             input.To,
		Subject:        input.Subject,
		Body:           input.Body,
		CC:             nonNil(input.CC),
		BCC:            nonNil(input.BCC),
		Priority:       priority,
		Status:         "sent",
		SentAt:         tools.Timestamp(h.now()),
		DeliveryStatus: deliveryStatus,
		Provider:       h.sender.Name(),
		ProviderID:     providerID,
	}

	h.logger.Info("email sent", map[string]interface{}{
		"messageId": email.MessageID,
		"to":        email.To,
	})

	return &Output{
		Success: true,
		Email:   email,
		Message: fmt.Sprintf("Email %s sent successfully", email.MessageID),
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
