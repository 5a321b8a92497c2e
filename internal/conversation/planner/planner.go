// Package planner turns a classified intent and its entities into the
// ordered list of tool runs for the turn.
package planner

import (
	"strings"

	"voice-agent-workers/internal/conversation/entity"
	"voice-agent-workers/internal/conversation/intent"
)

const (
	ActionLookupOrder         = "lookup_order"
	ActionScheduleAppointment = "schedule_appointment"
	ActionCreateTicket        = "create_ticket"
	ActionTransferToHuman     = "transfer_to_human"
)

// appointmentSignals unlock scheduling. "service" is never produced by the
// extractor today, so in practice only a date or time qualifies.
var appointmentSignals = []string{string(entity.Date), string(entity.Time), "service"}

type ActionRequest struct {
	Action     string                 `json:"action"`
	Parameters map[string]interface{} `json:"parameters"`
}

// Plan is pure: the same inputs always give the same list, and the entity
// bag is copied into each request rather than shared.
func Plan(i intent.Intent, entities entity.Bag, rawText string) []ActionRequest {
	var actions []ActionRequest

	switch i {
	case intent.OrderInquiry:
		if _, ok := entities.Get(entity.OrderNumber); ok || strings.Contains(strings.ToLower(rawText), "order") {
			actions = append(actions, request(ActionLookupOrder, entities))
		}
	case intent.Appointment:
		if entities.HasAny(appointmentSignals...) {
			actions = append(actions, request(ActionScheduleAppointment, entities))
		}
	case intent.Support:
		actions = append(actions, request(ActionCreateTicket, entities))
	case intent.Transfer:
		actions = append(actions, request(ActionTransferToHuman, entities))
	}

	return actions
}

func request(action string, entities entity.Bag) ActionRequest {
	return ActionRequest{Action: action, Parameters: entities.Params()}
}

// Names returns the action names in plan order.
func Names(actions []ActionRequest) []string {
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = a.Action
	}
	return names
}
