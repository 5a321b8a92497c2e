package scheduleappointment

import (
	"strings"
	"time"

	"voice-agent-workers/internal/common/validation"
)

// datetimeLayouts are the ISO 8601 shapes accepted for appointment times.
var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"datetime", "customer_email"},
		Properties: map[string]validation.Property{
			"datetime": {
				Type:        "string",
				Description: "Appointment start in ISO 8601 format",
				MinLength:   intPtr(10),
			},
			"customer_email": {
				Type:        "string",
				Description: "Customer email address",
				MinLength:   intPtr(5),
				MaxLength:   intPtr(255),
			},
			"service_type": {
				Type:        "string",
				Description: "Requested service",
				MaxLength:   intPtr(200),
			},
			"notes": {
				Type:        "string",
				Description: "Free-form notes for the appointment",
				MaxLength:   intPtr(2000),
			},
			"duration_minutes": {
				Type:        "integer",
				Description: "Length of the appointment in minutes",
				Minimum:     floatPtr(15),
				Maximum:     floatPtr(480),
			},
		},
		AdditionalProperties: true,
	}
}

// ParseDatetime reports whether value is an ISO 8601 date or date-time.
func ParseDatetime(value string) (time.Time, bool) {
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func validateInput(params map[string]interface{}, cfg *Config) (*Input, error) {
	params = validation.Alias(params, "email", "customer_email")

	dt, err := validation.Require(params, "datetime", "datetime is required")
	if err != nil {
		return nil, err
	}
	email, err := validation.Require(params, "customer_email", "customer_email is required")
	if err != nil {
		return nil, err
	}

	email = strings.ToLower(email)
	if !validation.ValidateEmail(email) {
		return nil, validation.Invalid("Invalid email format")
	}
	if _, ok := ParseDatetime(dt); !ok {
		return nil, validation.Invalid("Invalid datetime format. Use ISO format (YYYY-MM-DDTHH:MM:SS)")
	}

	input := &Input{Datetime: dt, CustomerEmail: email}
	if v, ok := validation.Optional(params, "service_type"); ok {
		input.ServiceType = v
	}
	if v, ok := validation.Optional(params, "notes"); ok {
		input.Notes = v
	}
	if validation.Has(params, "duration_minutes") {
		d, err := validation.Int(params["duration_minutes"])
		if err != nil {
			return nil, validation.Invalid("duration_minutes must be a whole number")
		}
		if d < cfg.MinDuration || d > cfg.MaxDuration {
			return nil, validation.Invalid("duration_minutes must be between %d and %d", cfg.MinDuration, cfg.MaxDuration)
		}
		input.DurationMinutes = d
	}
	return input, nil
}

func intPtr(i int) *int {
	return &i
}

func floatPtr(f float64) *float64 {
	return &f
}
