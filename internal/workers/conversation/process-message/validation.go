// internal/workers/conversation/process-message/validation.go
package processmessage

import "voice-agent-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"message"},
		Properties: map[string]validation.Property{
			"conversationId": {
				Type:        "string",
				Description: "Existing conversation to continue",
				MaxLength:   intPtr(64),
			},
			"persona": {
				Type:        "string",
				Description: "Persona key, defaults to the configured persona",
				MaxLength:   intPtr(100),
			},
			"message": {
				Type:        "string",
				Description: "Customer utterance",
				MinLength:   intPtr(1),
				MaxLength:   intPtr(4000),
			},
			"customerName": {
				Type:      "string",
				MaxLength: intPtr(255),
			},
			"customerPhone": {
				Type:      "string",
				MaxLength: intPtr(20),
			},
			"metadata": {
				Type: "object",
			},
		},
		AdditionalProperties: true,
	}
}

func intPtr(i int) *int {
	return &i
}
