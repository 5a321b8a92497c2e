package lookuporder

import (
	"regexp"
	"strings"

	"voice-agent-workers/internal/common/validation"
)

var orderIDPattern = regexp.MustCompile(`^[A-Z0-9]{6,12}$`)

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"order_id"},
		Properties: map[string]validation.Property{
			"order_id": {
				Type:        "string",
				Description: "Order identifier, 6-12 alphanumeric characters",
				MinLength:   intPtr(6),
				MaxLength:   intPtr(12),
			},
		},
		AdditionalProperties: true,
	}
}

func validateInput(params map[string]interface{}) (*Input, error) {
	params = validation.Alias(params, "order_number", "order_id")

	orderID, err := validation.Require(params, "order_id", "order_id is required")
	if err != nil {
		return nil, err
	}
	if orderID == "" {
		return nil, validation.Invalid("order_id cannot be empty")
	}
	orderID = strings.ToUpper(orderID)
	if !orderIDPattern.MatchString(orderID) {
		return nil, validation.Invalid("order_id must be 6-12 alphanumeric characters")
	}
	return &Input{OrderID: orderID}, nil
}

func intPtr(i int) *int {
	return &i
}
