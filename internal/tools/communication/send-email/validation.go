package sendemail

import (
	"strings"

	"voice-agent-workers/internal/common/validation"
)

var priorities = []string{"low", "normal", "high", "urgent"}

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"to", "subject", "body"},
		Properties: map[string]validation.Property{
			"to": {
				Type:        "string",
				Description: "Recipient email address",
				MinLength:   intPtr(5),
				MaxLength:   intPtr(255),
			},
			"subject": {
				Type:        "string",
				Description: "Email subject line",
				MinLength:   intPtr(1),
				MaxLength:   intPtr(200),
			},
			"body": {
				Type:        "string",
				Description: "Plain-text email body",
				MinLength:   intPtr(1),
				MaxLength:   intPtr(10000),
			},
			"cc": {
				Type:        "string",
				Description: "CC recipients (comma-separated)",
				MaxLength:   intPtr(1000),
			},
			"bcc": {
				Type:        "string",
				Description: "BCC recipients (comma-separated)",
				MaxLength:   intPtr(1000),
			},
			"priority": {
				Type:        "string",
				Description: "Delivery priority",
				Enum:        priorities,
			},
		},
		AdditionalProperties: true,
	}
}

func validateInput(params map[string]interface{}) (*Input, error) {
	to, err := validation.Require(params, "to", "to (recipient email) is required")
	if err != nil {
		return nil, err
	}
	subject, err := validation.Require(params, "subject", "subject is required")
	if err != nil {
		return nil, err
	}
	body, err := validation.Require(params, "body", "body is required")
	if err != nil {
		return nil, err
	}

	to = strings.ToLower(to)
	if !validation.ValidateEmail(to) {
		return nil, validation.Invalid("Invalid recipient email format")
	}
	if !validation.LengthBetween(subject, 1, 200) {
		return nil, validation.Invalid("Subject must be between 1 and 200 characters")
	}
	if !validation.LengthBetween(body, 1, 10000) {
		return nil, validation.Invalid("Body must be between 1 and 10,000 characters")
	}

	input := &Input{To: to, Subject: subject, Body: body}

	if v, ok := validation.Optional(params, "cc"); ok && v != "" {
		if input.CC, err = validation.EmailList(params["cc"], "CC"); err != nil {
			return nil, err
		}
	}
	if v, ok := validation.Optional(params, "bcc"); ok && v != "" {
		if input.BCC, err = validation.EmailList(params["bcc"], "BCC"); err != nil {
			return nil, err
		}
	}
	if v, ok := validation.Optional(params, "priority"); ok {
		p, valid := validation.OneOf(v, priorities)
		if !valid {
			return nil, validation.Invalid("Priority must be: low, normal, high, or urgent")
		}
		input.Priority = p
	}
	return input, nil
}

func intPtr(i int) *int {
	return &i
}
