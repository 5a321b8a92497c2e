package updatecustomerprofile

import (
	"context"
	"testing"
	"time"

	"voice-agent-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_Validate(t *testing.T) {
	h := NewHandler(logger.NewTestLogger(t))

	tests := []struct {
		name   string
		params map[string]interface{}
		errMsg string
	}{
		{"missing customer", map[string]interface{}{"field": "email", "value": "x"}, "customer_id is required"},
		{"missing field", map[string]interface{}{"customer_id": "CUST1", "value": "x"}, "field is required"},
		{"missing value", map[string]interface{}{"customer_id": "CUST1", "field": "email"}, "value is required"},
		{"empty customer", map[string]interface{}{"customer_id": " ", "field": "email", "value": "x"}, "customer_id cannot be empty"},
		{"bad field", map[string]interface{}{"customer_id": "CUST1", "field": "age", "value": "x"},
			"field must be one of: name, email, phone, address, preferences"},
		{"empty value", map[string]interface{}{"customer_id": "CUST1", "field": "email", "value": ""}, "value cannot be empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Validate(tt.params)
			assert.EqualError(t, err, tt.errMsg)
		})
	}

	out, err := h.Validate(map[string]interface{}{
		"customer_id": "cust123", "field": "email", "value": "new@example.com", "notes": " requested ",
	})
	require.NoError(t, err)
	assert.Equal(t, "requested", out["notes"])
}

func TestHandler_Execute_TracksPreviousValue(t *testing.T) {
	h := NewHandler(logger.NewTestLogger(t))
	h.now = func() time.Time { return time.Date(2025, 10, 4, 22, 55, 0, 0, time.UTC) }

	params := map[string]interface{}{"customer_id": "cust123456789", "field": "email", "value": "a@example.com"}
	out, err := h.Execute(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, true, out["success"])
	assert.Equal(t, "UPD-CUST1234", out["update_id"])
	assert.Equal(t, "Previous Value", out["old_value"])
	assert.Equal(t, "a@example.com", out["new_value"])
	assert.Equal(t, "2025-10-04T22:55:00Z", out["updated_at"])
	assert.Equal(t, "Customer profile updated successfully", out["message"])

	params["value"] = "b@example.com"
	out, err = h.Execute(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", out["old_value"])
}
