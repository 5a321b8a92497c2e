package scheduleappointment

import (
	"context"
	"fmt"
	"time"

	"voice-agent-workers/internal/common/logger"
	"voice-agent-workers/internal/tools"
)

const (
	ToolName    = "schedule_appointment"
	description = "Schedule an appointment for a customer"
)

type Handler struct {
	config *Config
	now    func() time.Time
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	return &Handler{
		config: config,
		now:    time.Now,
		logger: log.WithFields(map[string]interface{}{"tool": ToolName}),
	}
}

func (h *Handler) Definition() tools.Definition {
	return tools.Definition{
		Name:           ToolName,
		Description:    description,
		RequiredParams: []string{"datetime", "customer_email"},
		OptionalParams: []string{"service_type", "notes", "duration_minutes"},
		InputSchema:    GetInputSchema(),
	}
}

func (h *Handler) Validate(params map[string]interface{}) (map[string]interface{}, error) {
	input, err := validateInput(params, h.config)
	if err != nil {
		return nil, err
	}
	return tools.ToParams(input)
}

func (h *Handler) Execute(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	var input Input
	if err := tools.FromParams(params, &input); err != nil {
		return nil, err
	}
	return tools.ToParams(h.execute(ctx, &input))
}

func (h *Handler) execute(_ context.Context, input *Input) *Output {
	appt := &Appointment{
		AppointmentID:    tools.NewID("APT", 8),
		Datetime:         input.Datetime,
		CustomerEmail:    input.CustomerEmail,
		ServiceType:      input.ServiceType,
		Notes:            input.Notes,
		DurationMinutes:  input.DurationMinutes,
		Status:           "confirmed",
		CreatedAt:        tools.Timestamp(h.now()),
		ConfirmationCode: tools.NewID("CONF", 6),
	}
	if appt.ServiceType == "" {
		appt.ServiceType = h.config.DefaultServiceType
	}
	if appt.DurationMinutes == 0 {
		appt.DurationMinutes = h.config.DefaultDuration
	}

	h.logger.Info("appointment scheduled", map[string]interface{}{
		"appointmentId": appt.AppointmentID,
		"datetime":      appt.Datetime,
	})

	return &Output{
		Success:     true,
		Appointment: appt,
		Message:     fmt.Sprintf("Appointment %s scheduled successfully", appt.AppointmentID),
	}
}
