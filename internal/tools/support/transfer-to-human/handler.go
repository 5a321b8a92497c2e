package transfertohuman

import (
	"context"
	"fmt"
	"time"

	"voice-agent-workers/internal/common/logger"
	"voice-agent-workers/internal/tools"
)

const (
	ToolName    = "transfer_to_human"
	description = "Transfer the conversation to a human agent"
)

type Handler struct {
	config   *Config
	notifier Notifier
	now      func() time.Time
	logger   logger.Logger
}

func NewHandler(config *Config, notifier Notifier, log logger.Logger) *Handler {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &Handler{
		config:   config,
		notifier: notifier,
		now:      time.Now,
		logger:   log.WithFields(map[string]interface{}{"tool": ToolName, "notifier": notifier.Name()}),
	}
}

func (h *Handler) Definition() tools.Definition {
	return tools.Definition{
		Name:           ToolName,
		Description:    description,
		RequiredParams: []string{"reason"},
		OptionalParams: []string{"urgency", "customer_info"},
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
	return tools.ToParams(h.execute(ctx, &input))
}

// execute records the transfer. A failed notification is logged and
// reported in the payload; the customer is still queued.
func (h *Handler) execute(ctx context.Context, input *Input) *Output {
	urgency := input.Urgency
	if urgency == "" {
		urgency = h.config.DefaultUrgency
	}

	transfer := Transfer{
		TransferID:        tools.NewID("TRF", 8),
		Reason:            input.Reason,
		Urgency:           urgency,
		CustomerInfo:      input.CustomerInfo,
		Status:            "initiated",
		CreatedAt:         tools.Timestamp(h.now()),
		EstimatedWaitTime: h.config.EstimatedWaitTime,
		AssignedAgent:     h.config.AssignedAgent,
		QueuePosition:     1,
	}

	transfer.NotificationStatus = notificationSkipped
	if h.notifier.Name() != NotifierNone {
		if err := h.notifier.Notify(ctx, transfer); err != nil {
			transfer.NotificationStatus = notificationFailed
			h.logger.Warn("handoff notification failed", map[string]interface{}{
				"transferId": transfer.TransferID,
				"error":      err.Error(),
			})
		} else {
			transfer.NotificationStatus = notificationSent
		}
	}

	h.logger.Info("transfer initiated", map[string]interface{}{
		"transferId": transfer.TransferID,
		"urgency":    transfer.Urgency,
	})

	return &Output{
		Success:  true,
		Transfer: &transfer,
		Message:  fmt.Sprintf("Transfer %s initiated successfully", transfer.TransferID),
	}
}
