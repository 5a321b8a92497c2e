// Package updatecustomerprofile changes a single field of a customer profile.
package updatecustomerprofile

import (
	"context"
	"strings"
	"sync"
	"time"

	"voice-agent-workers/internal/common/logger"
	"voice-agent-workers/internal/common/validation"
	"voice-agent-workers/internal/tools"
)

const (
	ToolName = "update_customer_profile"

	unknownPrevious = "Previous Value"
)

var allowedFields = []string{"name", "email", "phone", "address", "preferences"}

type Input struct {
	CustomerID string `json:"customer_id"`
	Field      string `json:"field"`
	Value      string `json:"value"`
	Notes      string `json:"notes,omitempty"`
}

type Output struct {
	Success    bool   `json:"success"`
	UpdateID   string `json:"update_id"`
	CustomerID string `json:"customer_id"`
	Field      string `json:"field"`
	OldValue   string `json:"old_value"`
	NewValue   string `json:"new_value"`
	UpdatedAt  string `json:"updated_at"`
	Message    string `json:"message"`
}

// Handler keeps profiles in memory so successive updates report the
// value they replaced.
type Handler struct {
	mu       sync.Mutex
	profiles map[string]map[string]string
	now      func() time.Time
	logger   logger.Logger
}

func NewHandler(log logger.Logger) *Handler {
	return &Handler{
		profiles: make(map[string]map[string]string),
		now:      time.Now,
		logger:   log.WithFields(map[string]interface{}{"tool": ToolName}),
	}
}

func (h *Handler) Definition() tools.Definition {
	return tools.Definition{
		Name:           ToolName,
		Description:    "Update customer profile information",
		RequiredParams: []string{"customer_id", "field", "value"},
		OptionalParams: []string{"notes"},
		InputSchema: validation.JSONSchema{
			Type:     "object",
			Required: []string{"customer_id", "field", "value"},
			Properties: map[string]validation.Property{
				"customer_id": {Type: "string", Description: "Customer identifier"},
				"field":       {Type: "string", Description: "Profile field to change", Enum: allowedFields},
				"value":       {Type: "string", Description: "New value"},
				"notes":       {Type: "string", Description: "Why the change was made"},
			},
			AdditionalProperties: true,
		},
	}
}

func (h *Handler) Validate(params map[string]interface{}) (map[string]interface{}, error) {
	for _, key := range []string{"customer_id", "field", "value"} {
		if !validation.Has(params, key) {
			return nil, validation.Invalid("%s is required", key)
		}
	}

	input := Input{
		CustomerID: validation.Stringify(params["customer_id"]),
		Field:      validation.Stringify(params["field"]),
		Value:      validation.Stringify(params["value"]),
	}
	if input.CustomerID == "" {
		return nil, validation.Invalid("customer_id cannot be empty")
	}
	if !contains(allowedFields, input.Field) {
		return nil, validation.Invalid("field must be one of: %s", strings.Join(allowedFields, ", "))
	}
	if input.Value == "" {
		return nil, validation.Invalid("value cannot be empty")
	}
	if v, ok := validation.Optional(params, "notes"); ok {
		input.Notes = v
	}
	return tools.ToParams(input)
}

func (h *Handler) Execute(_ context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	var input Input
	if err := tools.FromParams(params, &input); err != nil {
		return nil, err
	}

	h.mu.Lock()
	profile, ok := h.profiles[input.CustomerID]
	if !ok {
		profile = make(map[string]string)
		h.profiles[input.CustomerID] = profile
	}
	old, had := profile[input.Field]
	profile[input.Field] = input.Value
	h.mu.Unlock()

	if !had {
		old = unknownPrevious
	}

	prefix := input.CustomerID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}

	h.logger.Info("customer profile updated", map[string]interface{}{
		"customerId": input.CustomerID,
		"field":      input.Field,
	})

	return tools.ToParams(Output{
		Success:    true,
		UpdateID:   "UPD-" + strings.ToUpper(prefix),
		CustomerID: input.CustomerID,
		Field:      input.Field,
		OldValue:   old,
		NewValue:   input.Value,
		UpdatedAt:  tools.Timestamp(h.now()),
		Message:    "Customer profile updated successfully",
	})
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
