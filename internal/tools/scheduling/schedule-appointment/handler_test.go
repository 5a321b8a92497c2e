package scheduleappointment

import (
	"context"
	"testing"
	"time"

	"voice-agent-workers/internal/common/logger"
	"voice-agent-workers/internal/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestHandler(t *testing.T) *Handler {
	h := NewHandler(nil, logger.NewTestLogger(t))
	h.now = func() time.Time { return time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC) }
	return h
}

// ==========================
// Validation Tests
// ==========================

func TestHandler_Validate(t *testing.T) {
	h := createTestHandler(t)

	tests := []struct {
		name     string
		params   map[string]interface{}
		expected map[string]interface{}
		errMsg   string
	}{
		{
			name:   "required only",
			params: map[string]interface{}{"datetime": " 2025-03-10T14:00:00 ", "customer_email": "User@Example.com"},
			expected: map[string]interface{}{
				"datetime": "2025-03-10T14:00:00", "customer_email": "user@example.com",
			},
		},
		{
			name: "optional fields and string duration",
			params: map[string]interface{}{
				"datetime": "2025-03-10T14:00:00Z", "customer_email": "a@b.io",
				"service_type": " Repair ", "notes": "bring receipt", "duration_minutes": "90",
			},
			expected: map[string]interface{}{
				"datetime": "2025-03-10T14:00:00Z", "customer_email": "a@b.io",
				"service_type": "Repair", "notes": "bring receipt", "duration_minutes": float64(90),
			},
		},
		{
			name:   "email alias",
			params: map[string]interface{}{"datetime": "2025-03-10", "email": "alias@example.com"},
			expected: map[string]interface{}{
				"datetime": "2025-03-10", "customer_email": "alias@example.com",
			},
		},
		{name: "missing datetime", params: map[string]interface{}{"customer_email": "a@b.io"}, errMsg: "datetime is required"},
		{name: "missing email", params: map[string]interface{}{"datetime": "2025-03-10T14:00:00"}, errMsg: "customer_email is required"},
		{name: "bad email", params: map[string]interface{}{"datetime": "2025-03-10T14:00:00", "customer_email": "nope"}, errMsg: "Invalid email format"},
		{name: "bad datetime", params: map[string]interface{}{"datetime": "next tuesday", "customer_email": "a@b.io"},
			errMsg: "Invalid datetime format. Use ISO format (YYYY-MM-DDTHH:MM:SS)"},
		{name: "duration too short", params: map[string]interface{}{"datetime": "2025-03-10T14:00", "customer_email": "a@b.io", "duration_minutes": 10},
			errMsg: "duration_minutes must be between 15 and 480"},
		{name: "duration too long", params: map[string]interface{}{"datetime": "2025-03-10T14:00", "customer_email": "a@b.io", "duration_minutes": float64(481)},
			errMsg: "duration_minutes must be between 15 and 480"},
		{name: "duration not a number", params: map[string]interface{}{"datetime": "2025-03-10T14:00", "customer_email": "a@b.io", "duration_minutes": "an hour"},
			errMsg: "duration_minutes must be a whole number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := h.Validate(tt.params)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Equal(t, tt.errMsg, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestParseDatetime(t *testing.T) {
	for _, v := range []string{
		"2025-03-10T14:00:00", "2025-03-10T14:00:00+02:00", "2025-03-10T14:00:00.123456",
		"2025-03-10 14:00", "2025-03-10",
	} {
		_, ok := ParseDatetime(v)
		assert.True(t, ok, v)
	}
	_, ok := ParseDatetime("10/03/2025")
	assert.False(t, ok)
}

// ==========================
// Execution Tests
// ==========================

func TestHandler_Execute_Defaults(t *testing.T) {
	h := createTestHandler(t)

	params, err := h.Validate(map[string]interface{}{"datetime": "2025-03-10T14:00:00", "customer_email": "a@b.io"})
	require.NoError(t, err)

	out, err := h.Execute(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, true, out["success"])
	appt := out["appointment"].(map[string]interface{})
	assert.Regexp(t, `^APT-[0-9A-F]{8}$`, appt["appointment_id"])
	assert.Regexp(t, `^CONF-[0-9A-F]{6}$`, appt["confirmation_code"])
	assert.Equal(t, "General Consultation", appt["service_type"])
	assert.Equal(t, float64(60), appt["duration_minutes"])
	assert.Equal(t, "", appt["notes"])
	assert.Equal(t, "confirmed", appt["status"])
	assert.Equal(t, "2025-03-01T09:30:00Z", appt["created_at"])
	assert.Equal(t, "Appointment "+appt["appointment_id"].(string)+" scheduled successfully", out["message"])
}

func TestHandler_ThroughRegistry(t *testing.T) {
	reg := tools.NewRegistry(logger.NewTestLogger(t))
	reg.Register(createTestHandler(t))

	res := reg.Run(context.Background(), ToolName, map[string]interface{}{"datetime": "2025-03-10T14:00:00"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "required")
	assert.Contains(t, res.Error, "customer_email")

	res = reg.Run(context.Background(), ToolName, map[string]interface{}{
		"datetime": "2025-03-10T14:00:00", "customer_email": "bad", "service_type": "Repair",
	})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "email")

	res = reg.Run(context.Background(), ToolName, map[string]interface{}{
		"datetime": "2025-03-10T14:00:00", "customer_email": "ok@example.com", "duration_minutes": 30,
	})
	require.True(t, res.Success)
	assert.Equal(t, float64(30), res.Result["appointment"].(map[string]interface{})["duration_minutes"])
}
