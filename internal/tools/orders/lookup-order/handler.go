// internal/tools/orders/lookup-order/handler.go
package lookuporder

import (
	"context"
	"errors"
	"fmt"

	"voice-agent-workers/internal/common/logger"
	"voice-agent-workers/internal/tools"
)

const (
	ToolName    = "lookup_order"
	description = "Look up order information by order ID"
)

type Handler struct {
	config *Config
	repo   Repository
	logger logger.Logger
}

func NewHandler(config *Config, repo Repository, log logger.Logger) *Handler {
	if repo == nil {
		repo = NewMockRepository()
	}
	return &Handler{
		config: config,
		repo:   repo,
		logger: log.WithFields(map[string]interface{}{"tool": ToolName}),
	}
}

func (h *Handler) Definition() tools.Definition {
	return tools.Definition{
		Name:           ToolName,
		Description:    description,
		RequiredParams: []string{"order_id"},
		OptionalParams: []string{},
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
	if h.config != nil && h.config.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.QueryTimeout)
		defer cancel()
	}

	order, err := h.repo.FindOrder(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			h.logger.Info("order not found", map[string]interface{}{"orderId": input.OrderID})
			return &Output{
				Success: false,
				Message: fmt.Sprintf("Order %s not found", input.OrderID),
			}, nil
		}
		if errors.Is(err, ErrOrderLookupFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrOrderLookupFailed, err)
	}

	h.logger.Debug("order found", map[string]interface{}{
		"orderId": order.OrderID,
		"status":  order.Status,
	})
	return &Output{
		Success: true,
		Order:   order,
		Message: fmt.Sprintf("Order %s found", input.OrderID),
	}, nil
}
