// Package synthesis composes the short spoken reply for a turn.
package synthesis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	apperrors "voice-agent-workers/internal/common/errors"
	"voice-agent-workers/internal/common/llm"
	"voice-agent-workers/internal/common/logger"
	"voice-agent-workers/internal/common/metrics"
	"voice-agent-workers/internal/conversation/entity"
	"voice-agent-workers/internal/conversation/history"
	"voice-agent-workers/internal/conversation/intent"
	"voice-agent-workers/internal/conversation/persona"
	"voice-agent-workers/internal/conversation/planner"
	"voice-agent-workers/internal/tools"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const callSite = "synthesis"

var ErrEmptyResponse = errors.New("EMPTY_RESPONSE")

// ToolOutcome pairs a planned action with what running it produced.
type ToolOutcome struct {
	Action string             `json:"action"`
	Result tools.ActionResult `json:"result"`
}

type Request struct {
	Text     string
	Intent   intent.Intent
	Actions  []planner.ActionRequest
	Results  []ToolOutcome
	Entities entity.Bag
	Persona  persona.Persona
	History  []history.Turn
}

type Synthesizer struct {
	client       llm.Client
	promptWindow int
	logger       logger.Logger
}

// NewSynthesizer sends at most promptWindow prior turns with each request;
// a non-positive window uses history.DefaultPromptWindow.
func NewSynthesizer(client llm.Client, promptWindow int, log logger.Logger) *Synthesizer {
	if promptWindow <= 0 {
		promptWindow = history.DefaultPromptWindow
	}
	return &Synthesizer{
		client:       client,
		promptWindow: promptWindow,
		logger:       log.WithFields(map[string]interface{}{"component": "response_synthesizer"}),
	}
}

func (s *Synthesizer) Synthesize(ctx context.Context, req Request) (string, error) {
	ctx, span := otel.Tracer("voice-agent-workers/conversation").Start(ctx, "response.synthesize")
	defer span.End()
	span.SetAttributes(
		attribute.String("intent", req.Intent.String()),
		attribute.Int("tool_results", len(req.Results)),
	)

	messages := history.Messages(history.Last(req.History, s.promptWindow))
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: req.Text})

	text, err := s.client.Complete(ctx, SystemPrompt(req), messages)
	if err == nil {
		text = strings.TrimSpace(text)
		if text == "" {
			err = ErrEmptyResponse
		}
	}
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(callSite, "error").Inc()
		s.logger.WithSpan(ctx).WithError(err).Error("response synthesis failed", nil)
		span.RecordError(err)
		span.SetStatus(codes.Error, "synthesis failed")
		return "", apperrors.NewLLMSynthesisFailedError(err)
	}

	metrics.LLMRequestsTotal.WithLabelValues(callSite, "success").Inc()
	return text, nil
}

// SystemPrompt renders the reply instructions and the turn context.
func SystemPrompt(req Request) string {
	p := req.Persona.WithDefaults()

	var b strings.Builder
	b.WriteString("You are a voice AI assistant. Generate a SHORT response (1-3 sentences) for voice output.\n\n")
	b.WriteString("Guidelines:\n")
	b.WriteString("- Keep responses conversational and natural for voice\n")
	b.WriteString("- Maximum 3 sentences\n")
	b.WriteString("- Be helpful and friendly\n")
	b.WriteString("- If tools were used, mention the key results\n")
	b.WriteString("- Suggest clear next steps\n")
	b.WriteString("- Use the agent's personality and knowledge\n\n")

	b.WriteString("Context:\n")
	fmt.Fprintf(&b, "- User message: %s\n", req.Text)
	fmt.Fprintf(&b, "- Intent: %s\n", req.Intent)
	fmt.Fprintf(&b, "- Actions planned: %s\n", toJSON(planner.Names(req.Actions)))
	fmt.Fprintf(&b, "- Tool results: %s\n", toJSON(outcomes(req.Results)))
	fmt.Fprintf(&b, "- Entities: %s\n\n", toJSON(req.Entities))

	b.WriteString("Agent context:\n")
	fmt.Fprintf(&b, "- Company: %s\n", p.Company)
	fmt.Fprintf(&b, "- Role: %s\n", p.Role)
	fmt.Fprintf(&b, "- Knowledge: %s\n", p.KnowledgeBase)
	fmt.Fprintf(&b, "- Greeting style: %s\n\n", p.Greeting)

	b.WriteString("Generate only the response text, nothing else.")
	return b.String()
}

// outcomes keeps every result in execution order, repeated actions included.
func outcomes(results []ToolOutcome) []ToolOutcome {
	if results == nil {
		return []ToolOutcome{}
	}
	return results
}

func toJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
