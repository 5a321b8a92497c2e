// Package checkinventory reports stock levels from a fixed product catalog.
package checkinventory

import (
	"context"
	"fmt"

	"voice-agent-workers/internal/common/logger"
	"voice-agent-workers/internal/common/validation"
	"voice-agent-workers/internal/tools"
)

const ToolName = "check_inventory"

type Handler struct {
	inventory map[string]Product
	logger    logger.Logger
}

func NewHandler(log logger.Logger) *Handler {
	return &Handler{
		inventory: map[string]Product{
			"PROD001": {Name: "Widget A", Stock: 150, Location: "Warehouse 1"},
			"PROD002": {Name: "Widget B", Stock: 0, Location: "Warehouse 2"},
			"PROD003": {Name: "Widget C", Stock: 75, Location: "Warehouse 1"},
		},
		logger: log.WithFields(map[string]interface{}{"tool": ToolName}),
	}
}

func (h *Handler) Definition() tools.Definition {
	return tools.Definition{
		Name:           ToolName,
		Description:    "Check product inventory levels",
		RequiredParams: []string{"product_id"},
		OptionalParams: []string{"location"},
		InputSchema: validation.JSONSchema{
			Type:     "object",
			Required: []string{"product_id"},
			Properties: map[string]validation.Property{
				"product_id": {Type: "string", Description: "Catalog product identifier"},
				"location":   {Type: "string", Description: "Preferred warehouse"},
			},
			AdditionalProperties: true,
		},
	}
}

func (h *Handler) Validate(params map[string]interface{}) (map[string]interface{}, error) {
	productID, err := validation.Require(params, "product_id", "product_id is required")
	if err != nil {
		return nil, err
	}
	if productID == "" {
		return nil, validation.Invalid("product_id cannot be empty")
	}

	input := Input{ProductID: productID}
	if v, ok := validation.Optional(params, "location"); ok {
		input.Location = v
	}
	return tools.ToParams(input)
}

func (h *Handler) Execute(_ context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	var input Input
	if err := tools.FromParams(params, &input); err != nil {
		return nil, err
	}

	item, ok := h.inventory[input.ProductID]
	if !ok {
		h.logger.Info("product not found", map[string]interface{}{"productId": input.ProductID})
		return tools.ToParams(Output{
			Success: false,
			Message: fmt.Sprintf("Product %s not found", input.ProductID),
		})
	}

	return tools.ToParams(Output{
		Success: true,
		Product: &item,
		InStock: item.Stock > 0,
		Message: fmt.Sprintf("Product %s has %d units in stock", input.ProductID, item.Stock),
	})
}
