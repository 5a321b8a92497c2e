package pipeline

import (
	"voice-agent-workers/internal/conversation/entity"
	"voice-agent-workers/internal/conversation/history"
	"voice-agent-workers/internal/conversation/intent"
	"voice-agent-workers/internal/conversation/planner"
	"voice-agent-workers/internal/conversation/synthesis"
)

type Stage string

const (
	StageReceived         Stage = "received"
	StageIntentClassified Stage = "intent_classified"
	StagePlanned          Stage = "planned"
	StageExecuted         Stage = "executed"
	StageResponded        Stage = "responded"
	StageFailed           Stage = "failed"
)

var transitions = map[Stage][]Stage{
	StageReceived:         {StageIntentClassified},
	StageIntentClassified: {StagePlanned},
	StagePlanned:          {StageExecuted},
	StageExecuted:         {StageResponded},
	StageFailed:           {StageResponded},
}

// CanTransition reports whether from may move to to. Any stage except
// responded may fail.
func CanTransition(from, to Stage) bool {
	if to == StageFailed {
		return from != StageResponded && from != StageFailed
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

const (
	NextWaitingForHumanAgent  = "waiting_for_human_agent"
	NextConfirmAppointment    = "confirm_appointment_details"
	NextProvideOrderUpdates   = "provide_order_updates"
	NextMonitorTicketStatus   = "monitor_ticket_status"
	NextProvideAdditionalInfo = "provide_additional_info"
	NextAwaitUserInput        = "await_user_input"
)

// Utterance is one inbound message and the turns that preceded it.
type Utterance struct {
	Text    string
	History []history.Turn
}

// State is the per-invocation record threaded through the stages. It is
// never shared between invocations.
type State struct {
	Stage        Stage
	Utterance    Utterance
	Intent       intent.Intent
	Entities     entity.Bag
	Planned      []planner.ActionRequest
	Results      []synthesis.ToolOutcome
	Response     string
	NextStep     string
	ActionsTaken []string
}

func (s *State) advance(to Stage) {
	if !CanTransition(s.Stage, to) {
		panic("pipeline: illegal transition " + string(s.Stage) + " -> " + string(to))
	}
	s.Stage = to
}

// Response is what the transport receives for a processed utterance.
type Response struct {
	Text         string                  `json:"response_text"`
	ActionsTaken []string                `json:"actions_taken"`
	NextStep     string                  `json:"next_step"`
	Entities     entity.Bag              `json:"entities"`
	Confidence   float64                 `json:"confidence"`
	Intent       intent.Intent           `json:"intent"`
	ToolResults  []synthesis.ToolOutcome `json:"tool_results"`
}
