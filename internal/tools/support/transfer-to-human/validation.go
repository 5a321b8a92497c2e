package transfertohuman

import "voice-agent-workers/internal/common/validation"

var urgencies = []string{"low", "medium", "high", "critical"}

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"reason"},
		Properties: map[string]validation.Property{
			"reason": {
				Type:        "string",
				Description: "Why the customer needs a human agent",
				MinLength:   intPtr(5),
				MaxLength:   intPtr(500),
			},
			"urgency": {
				Type:        "string",
				Description: "How quickly a human should pick up",
				Enum:        urgencies,
			},
			"customer_info": {
				Type:        "string",
				Description: "Context to hand over to the agent",
				MaxLength:   intPtr(2000),
			},
		},
		AdditionalProperties: true,
	}
}

func validateInput(params map[string]interface{}) (*Input, error) {
	reason, err := validation.Require(params, "reason", "reason is required")
	if err != nil {
		return nil, err
	}
	if !validation.LengthBetween(reason, 5, 500) {
		return nil, validation.Invalid("Reason must be between 5 and 500 characters")
	}

	input := &Input{Reason: reason}
	if v, ok := validation.Optional(params, "urgency"); ok {
		u, valid := validation.OneOf(v, urgencies)
		if !valid {
			return nil, validation.Invalid("Urgency must be: low, medium, high, or critical")
		}
		input.Urgency = u
	}
	if v, ok := validation.Optional(params, "customer_info"); ok {
		input.CustomerInfo = v
	}
	return input, nil
}

func intPtr(i int) *int {
	return &i
}
