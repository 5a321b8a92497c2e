// Package tools holds the action registry the pipeline executes planned
// actions through. Each tool validates its parameters before running and
// every run yields an ActionResult, never an error.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"voice-agent-workers/internal/common/validation"

	"github.com/google/uuid"
)

// Definition describes a tool to the planner, the API and the catalog export.
type Definition struct {
	Name           string                `json:"name"`
	Description    string                `json:"description"`
	RequiredParams []string              `json:"required_params"`
	OptionalParams []string              `json:"optional_params"`
	InputSchema    validation.JSONSchema `json:"-"`
}

// Info is the public view of a Definition.
type Info struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	RequiredParams []string `json:"required_params"`
	OptionalParams []string `json:"optional_params"`
}

// Tool is a named action. Validate normalizes raw parameters or rejects them
// with a validation.ParamError; Execute performs the side effect on the
// validated parameters and may report a business failure inside its payload.
type Tool interface {
	Definition() Definition
	Validate(params map[string]interface{}) (map[string]interface{}, error)
	Execute(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error)
}

// ActionResult is the uniform envelope of a tool run. Success reports that
// the tool ran; Result may still carry success=false for soft failures.
type ActionResult struct {
	Success         bool                   `json:"success"`
	Result          map[string]interface{} `json:"result"`
	Error           string                 `json:"error,omitempty"`
	ExecutionTimeMs float64                `json:"execution_time_ms"`
}

// ToParams converts a typed value into a parameter or payload map.
func ToParams(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode params: %w", err)
	}
	return out, nil
}

// FromParams decodes a validated parameter map into dst.
func FromParams(params map[string]interface{}, dst interface{}) error {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode params: %w", err)
	}
	return nil
}

// NewID returns "<prefix>-" followed by n upper-case hex characters.
func NewID(prefix string, n int) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n > len(hex) {
		n = len(hex)
	}
	return prefix + "-" + strings.ToUpper(hex[:n])
}

// Timestamp renders t the way every tool payload reports times.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
