// Package intent maps an utterance onto one of the closed set of intent
// labels with a single completion call.
package intent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "voice-agent-workers/internal/common/errors"
	"voice-agent-workers/internal/common/llm"
	"voice-agent-workers/internal/common/logger"
	"voice-agent-workers/internal/common/metrics"
	"voice-agent-workers/internal/conversation/entity"
	"voice-agent-workers/internal/conversation/persona"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Intent string

const (
	OrderInquiry Intent = "order_inquiry"
	Appointment  Intent = "appointment"
	Support      Intent = "support"
	Information  Intent = "information"
	Transfer     Intent = "transfer"

	// Default is used whenever classification cannot produce a label.
	Default = Support

	callSite = "intent"
)

var ErrUnknownIntent = errors.New("UNKNOWN_INTENT")

// All lists the labels in prompt order.
var All = []Intent{OrderInquiry, Appointment, Support, Information, Transfer}

var descriptions = map[Intent]string{
	OrderInquiry: "Questions about orders, shipping, delivery",
	Appointment:  "Scheduling, booking, rescheduling",
	Support:      "Technical issues, problems, complaints",
	Information:  "General questions, product info",
	Transfer:     "Request to speak with human",
}

func (i Intent) String() string { return string(i) }

func (i Intent) Valid() bool {
	_, ok := descriptions[i]
	return ok
}

// Parse normalizes raw model output. Surrounding whitespace, quotes and
// punctuation are ignored; anything left that is not a known label is an
// error.
func Parse(raw string) (Intent, error) {
	label := strings.ToLower(strings.TrimSpace(raw))
	label = strings.Trim(label, " \t\r\n\"'`.,;:!?")
	i := Intent(label)
	if !i.Valid() {
		return Default, apperrors.NewIntentClassificationFailedError(fmt.Errorf("%w: %q", ErrUnknownIntent, raw))
	}
	return i, nil
}

// SystemPrompt renders the classification instructions for p.
func SystemPrompt(p persona.Persona) string {
	p = p.WithDefaults()

	var b strings.Builder
	fmt.Fprintf(&b, "You are a voice AI assistant for %s. Your role is %s. Your personality: %s.\n\n",
		p.Company, p.Role, p.Personality)
	b.WriteString("Analyze the user's message and determine their intent. Respond with ONLY a single word intent from these options:\n")
	for _, i := range All {
		fmt.Fprintf(&b, "- %s: %s\n", i, descriptions[i])
	}
	b.WriteString("\nKeep it concise for voice interaction.")
	return b.String()
}

// UserMessage carries the utterance plus whatever entities were already
// found so the model can lean on them.
func UserMessage(text string, entities entity.Bag) string {
	if len(entities) == 0 {
		return text
	}
	parts := make([]string, 0, len(entities))
	for _, k := range entities.Keys() {
		parts = append(parts, k+"="+entities[k])
	}
	return fmt.Sprintf("%s\n\nDetected entities: %s", text, strings.Join(parts, ", "))
}

type Classifier struct {
	client llm.Client
	logger logger.Logger
}

func NewClassifier(client llm.Client, log logger.Logger) *Classifier {
	return &Classifier{
		client: client,
		logger: log.WithFields(map[string]interface{}{"component": "intent_classifier"}),
	}
}

// Classify never fails. Backend errors, empty output and unknown labels
// all resolve to Default.
func (c *Classifier) Classify(ctx context.Context, text string, entities entity.Bag, p persona.Persona) Intent {
	ctx, span := otel.Tracer("voice-agent-workers/conversation").Start(ctx, "intent.classify")
	defer span.End()

	log := c.logger.WithSpan(ctx)

	raw, err := c.client.Complete(ctx, SystemPrompt(p), []llm.Message{
		{Role: llm.RoleUser, Content: UserMessage(text, entities)},
	})
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(callSite, outcome(err)).Inc()
		log.WithError(apperrors.NewIntentClassificationFailedError(err)).Warn("intent classification failed, using default", map[string]interface{}{
			"default": Default.String(),
		})
		span.RecordError(err)
		span.SetStatus(codes.Error, "classification failed")
		span.SetAttributes(attribute.String("intent", Default.String()))
		return Default
	}

	i, err := Parse(raw)
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(callSite, "unparseable").Inc()
		log.Warn("unrecognized intent label, using default", map[string]interface{}{
			"raw":     raw,
			"default": Default.String(),
		})
		span.SetAttributes(attribute.String("intent", Default.String()))
		return Default
	}

	metrics.LLMRequestsTotal.WithLabelValues(callSite, "success").Inc()
	log.Debug("intent classified", map[string]interface{}{"intent": i.String()})
	span.SetAttributes(attribute.String("intent", i.String()))
	return i
}

func outcome(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, llm.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, llm.ErrEmptyCompletion):
		return "empty"
	default:
		return "error"
	}
}
