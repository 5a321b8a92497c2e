// Package pipeline sequences extraction, classification, planning, tool
// execution and synthesis into one request/response cycle.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"voice-agent-workers/internal/common/logger"
	"voice-agent-workers/internal/common/metrics"
	"voice-agent-workers/internal/conversation/entity"
	"voice-agent-workers/internal/conversation/history"
	"voice-agent-workers/internal/conversation/intent"
	"voice-agent-workers/internal/conversation/persona"
	"voice-agent-workers/internal/conversation/planner"
	"voice-agent-workers/internal/conversation/synthesis"
	"voice-agent-workers/internal/tools"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultConfidence = 0.8

	SynthesisFallbackText = "I apologize, but I'm having trouble processing your request. Let me transfer you to a human agent."
	FaultFallbackText     = "I apologize, but I'm experiencing technical difficulties. Let me transfer you to a human agent."

	fallbackStageSynthesis = "synthesis"
	fallbackStageInternal  = "internal"
)

type Classifier interface {
	Classify(ctx context.Context, text string, entities entity.Bag, p persona.Persona) intent.Intent
}

type Runner interface {
	Run(ctx context.Context, name string, params map[string]interface{}) tools.ActionResult
}

type Synthesizer interface {
	Synthesize(ctx context.Context, req synthesis.Request) (string, error)
}

type Options struct {
	// HistoryWindow bounds the prior turns kept for a turn.
	HistoryWindow int
	Confidence    float64
}

func DefaultOptions() Options {
	return Options{HistoryWindow: history.DefaultWindow, Confidence: DefaultConfidence}
}

type Controller struct {
	classifier  Classifier
	runner      Runner
	synthesizer Synthesizer
	opts        Options
	logger      logger.Logger
}

func NewController(classifier Classifier, runner Runner, synthesizer Synthesizer, opts Options, log logger.Logger) *Controller {
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = history.DefaultWindow
	}
	if opts.Confidence <= 0 {
		opts.Confidence = DefaultConfidence
	}
	return &Controller{
		classifier:  classifier,
		runner:      runner,
		synthesizer: synthesizer,
		opts:        opts,
		logger:      log.WithFields(map[string]interface{}{"component": "pipeline"}),
	}
}

// Process never returns an error. A synthesis failure or an internal fault
// yields the transfer fallback instead.
func (c *Controller) Process(ctx context.Context, u Utterance, p persona.Persona) (resp Response) {
	ctx, span := otel.Tracer("voice-agent-workers/conversation").Start(ctx, "pipeline.process")
	defer span.End()

	start := time.Now()
	log := c.logger.WithSpan(ctx)

	state := &State{
		Stage: StageReceived,
		Utterance: Utterance{
			Text:    u.Text,
			History: history.Last(u.History, c.opts.HistoryWindow),
		},
	}

	defer func() {
		if rec := recover(); rec != nil {
			failed := state.Stage
			state.Stage = StageFailed
			log.Error("pipeline fault, falling back", map[string]interface{}{
				"panic": fmt.Sprint(rec),
				"stage": string(failed),
			})
			span.SetStatus(codes.Error, "pipeline fault")
			metrics.PipelineFallbacksTotal.WithLabelValues(fallbackStageInternal).Inc()

			state.advance(StageResponded)
			resp = Response{
				Text:         FaultFallbackText,
				ActionsTaken: []string{planner.ActionTransferToHuman},
				NextStep:     NextWaitingForHumanAgent,
				Entities:     entity.Bag{},
				Confidence:   0,
				Intent:       intent.Default,
				ToolResults:  []synthesis.ToolOutcome{},
			}
		}

		span.SetAttributes(
			attribute.String("intent", resp.Intent.String()),
			attribute.String("next_step", resp.NextStep),
		)
		metrics.PipelineRunsTotal.WithLabelValues(resp.Intent.String(), resp.NextStep).Inc()
		metrics.PipelineDuration.WithLabelValues(resp.Intent.String()).Observe(time.Since(start).Seconds())
	}()

	state.Entities = entity.Extract(state.Utterance.Text)

	state.Intent = c.classifier.Classify(ctx, state.Utterance.Text, state.Entities, p)
	state.advance(StageIntentClassified)

	state.Planned = planner.Plan(state.Intent, state.Entities, state.Utterance.Text)
	state.advance(StagePlanned)

	state.Results = make([]synthesis.ToolOutcome, 0, len(state.Planned))
	for _, action := range state.Planned {
		result := c.runner.Run(ctx, action.Action, action.Parameters)
		state.Results = append(state.Results, synthesis.ToolOutcome{Action: action.Action, Result: result})
		if result.Success {
			state.ActionsTaken = append(state.ActionsTaken, action.Action)
		}
	}
	state.advance(StageExecuted)

	text, err := c.synthesizer.Synthesize(ctx, synthesis.Request{
		Text:     state.Utterance.Text,
		Intent:   state.Intent,
		Actions:  state.Planned,
		Results:  state.Results,
		Entities: state.Entities,
		Persona:  p,
		History:  state.Utterance.History,
	})
	if err != nil {
		log.WithError(err).Warn("synthesis failed, using fallback reply", nil)
		metrics.PipelineFallbacksTotal.WithLabelValues(fallbackStageSynthesis).Inc()
		state.Response = SynthesisFallbackText
		state.NextStep = NextWaitingForHumanAgent
		state.ActionsTaken = []string{planner.ActionTransferToHuman}
	} else {
		state.Response = text
		state.NextStep = NextStep(state.Intent, state.ActionsTaken)
	}
	state.advance(StageResponded)

	log.Info("utterance processed", map[string]interface{}{
		"intent":       state.Intent.String(),
		"actionsTaken": state.ActionsTaken,
		"nextStep":     state.NextStep,
		"durationMs":   time.Since(start).Milliseconds(),
	})

	return state.response(c.opts.Confidence)
}

func (s *State) response(confidence float64) Response {
	taken := s.ActionsTaken
	if taken == nil {
		taken = []string{}
	}
	return Response{
		Text:         s.Response,
		ActionsTaken: taken,
		NextStep:     s.NextStep,
		Entities:     s.Entities,
		Confidence:   confidence,
		Intent:       s.Intent,
		ToolResults:  s.Results,
	}
}

// NextStep picks the follow-up label from the actions actually taken,
// falling back to the intent.
func NextStep(i intent.Intent, actionsTaken []string) string {
	taken := make(map[string]bool, len(actionsTaken))
	for _, a := range actionsTaken {
		taken[a] = true
	}

	switch {
	case taken[planner.ActionTransferToHuman]:
		return NextWaitingForHumanAgent
	case taken[planner.ActionScheduleAppointment]:
		return NextConfirmAppointment
	case taken[planner.ActionLookupOrder]:
		return NextProvideOrderUpdates
	case taken[planner.ActionCreateTicket]:
		return NextMonitorTicketStatus
	case i == intent.Information:
		return NextProvideAdditionalInfo
	default:
		return NextAwaitUserInput
	}
}
