package createticket

import (
	"html"
	"strings"

	"voice-agent-workers/internal/common/validation"

	"github.com/microcosm-cc/bluemonday"
)

var (
	priorities = []string{"low", "medium", "high", "urgent"}

	// strips every tag; callers unescape so "Q&A" stays readable
	sanitizer = bluemonday.StrictPolicy()
)

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"title", "description"},
		Properties: map[string]validation.Property{
			"title": {
				Type:        "string",
				Description: "Short summary of the issue",
				MinLength:   intPtr(5),
				MaxLength:   intPtr(200),
			},
			"description": {
				Type:        "string",
				Description: "Full description of the issue",
				MinLength:   intPtr(10),
				MaxLength:   intPtr(5000),
			},
			"priority": {
				Type:        "string",
				Description: "Ticket priority",
				Enum:        priorities,
			},
			"category": {
				Type:        "string",
				Description: "Ticket category",
				MaxLength:   intPtr(100),
			},
			"customer_email": {
				Type:        "string",
				Description: "Email of the reporting customer",
				MaxLength:   intPtr(255),
			},
			"assigned_to": {
				Type:        "string",
				Description: "Team or agent the ticket is assigned to",
				MaxLength:   intPtr(100),
			},
		},
		AdditionalProperties: true,
	}
}

func sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(sanitizer.Sanitize(s)))
}

func validateInput(params map[string]interface{}) (*Input, error) {
	params = validation.Alias(params, "email", "customer_email")

	title, err := validation.Require(params, "title", "title is required")
	if err != nil {
		return nil, err
	}
	description, err := validation.Require(params, "description", "description is required")
	if err != nil {
		return nil, err
	}

	title = sanitize(title)
	if !validation.LengthBetween(title, 5, 200) {
		return nil, validation.Invalid("Title must be between 5 and 200 characters")
	}
	description = sanitize(description)
	if !validation.LengthBetween(description, 10, 5000) {
		return nil, validation.Invalid("Description must be between 10 and 5,000 characters")
	}

	input := &Input{Title: title, Description: description}

	if v, ok := validation.Optional(params, "priority"); ok {
		p, valid := validation.OneOf(v, priorities)
		if !valid {
			return nil, validation.Invalid("Priority must be: low, medium, high, or urgent")
		}
		input.Priority = p
	}
	if v, ok := validation.Optional(params, "category"); ok {
		input.Category = sanitize(v)
	}
	if v, ok := validation.Optional(params, "customer_email"); ok {
		email := strings.ToLower(v)
		if !validation.ValidateEmail(email) {
			return nil, validation.Invalid("Invalid customer email format")
		}
		input.CustomerEmail = email
	}
	if v, ok := validation.Optional(params, "assigned_to"); ok {
		input.AssignedTo = sanitize(v)
	}
	return input, nil
}

func intPtr(i int) *int {
	return &i
}
