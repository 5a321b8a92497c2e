// internal/tools/support/create-ticket/handler.go
package createticket

import (
	"context"
	"fmt"
	"time"

	"voice-agent-workers/internal/common/logger"
	"voice-agent-workers/internal/tools"
)

const (
	ToolName    = "create_ticket"
	description = "Create a support ticket for customer issues"
)

type Handler struct {
	config *Config
	sink   Sink
	now    func() time.Time
	logger logger.Logger
}

func NewHandler(config *Config, sink Sink, log logger.Logger) *Handler {
	if sink == nil {
		sink = NewMemorySink()
	}
	return &Handler{
		config: config,
		sink:   sink,
		now:    time.Now,
		logger: log.WithFields(map[string]interface{}{"tool": ToolName, "sink": sink.Name()}),
	}
}

func (h *Handler) Definition() tools.Definition {
	return tools.Definition{
		Name:           ToolName,
		Description:    description,
		RequiredParams: []string{"title", "description"},
		OptionalParams: []string{"priority", "category", "customer_email", "assigned_to"},
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
	now := h.now()
	ticket := Ticket{
		TicketID:            tools.NewID("TKT", 8),
		Title:               input.Title,
		Description:         input.Description,
		Priority:            orDefault(input.Priority, h.config.DefaultPriority),
		Category:            orDefault(input.Category, h.config.DefaultCategory),
		CustomerEmail:       input.CustomerEmail,
		AssignedTo:          orDefault(input.AssignedTo, h.config.DefaultAssignee),
		Status:              "open",
		CreatedAt:           tools.Timestamp(now),
		EstimatedResolution: tools.Timestamp(now.Add(h.config.ResolutionEstimate)),
	}

	if err := h.sink.Store(ctx, ticket); err != nil {
		h.logger.Error("ticket store failed", map[string]interface{}{
			"ticketId": ticket.TicketID,
			"error":    err.Error(),
		})
		return nil, fmt.Errorf("%w: %w", ErrTicketStoreFailed, err)
	}

	h.logger.Info("ticket created", map[string]interface{}{
		"ticketId": ticket.TicketID,
		"priority": ticket.Priority,
	})

	return &Output{
		Success: true,
		Ticket:  &ticket,
		Message: fmt.Sprintf("Ticket %s created successfully", ticket.TicketID),
	}, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
