package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"voice-agent-workers/internal/common/config"
	"voice-agent-workers/internal/common/llm"
	"voice-agent-workers/internal/common/logger"
	"voice-agent-workers/internal/conversation/entity"
	"voice-agent-workers/internal/conversation/history"
	"voice-agent-workers/internal/conversation/intent"
	"voice-agent-workers/internal/conversation/persona"
	"voice-agent-workers/internal/conversation/planner"
	"voice-agent-workers/internal/conversation/synthesis"
	"voice-agent-workers/internal/tools"
	"voice-agent-workers/internal/tools/builtin"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func fixedLLM(reply string, err error) llm.ClientFunc {
	return func(ctx context.Context, system string, messages []llm.Message) (string, error) {
		return reply, err
	}
}

func newController(t *testing.T, classify, synth llm.Client) *Controller {
	t.Helper()
	log := logger.NewTestLogger(t)

	reg, err := builtin.NewRegistry(&config.Config{}, builtin.Dependencies{}, log)
	require.NoError(t, err)

	return NewController(
		intent.NewClassifier(classify, log),
		reg,
		synthesis.NewSynthesizer(synth, history.DefaultPromptWindow, log),
		DefaultOptions(),
		log,
	)
}

type runnerFunc func(ctx context.Context, name string, params map[string]interface{}) tools.ActionResult

func (f runnerFunc) Run(ctx context.Context, name string, params map[string]interface{}) tools.ActionResult {
	return f(ctx, name, params)
}

type classifierFunc func(ctx context.Context, text string, entities entity.Bag, p persona.Persona) intent.Intent

func (f classifierFunc) Classify(ctx context.Context, text string, entities entity.Bag, p persona.Persona) intent.Intent {
	return f(ctx, text, entities, p)
}

type synthesizerFunc func(ctx context.Context, req synthesis.Request) (string, error)

func (f synthesizerFunc) Synthesize(ctx context.Context, req synthesis.Request) (string, error) {
	return f(ctx, req)
}

// ==========================
// End-to-end scenarios
// ==========================

func TestProcess_OrderLookup(t *testing.T) {
	c := newController(t, fixedLLM("order_inquiry", nil), fixedLLM("Your order has shipped.", nil))

	resp := c.Process(context.Background(), Utterance{Text: "I need to check order ORD123456"}, persona.Persona{})

	assert.Equal(t, intent.OrderInquiry, resp.Intent)
	assert.Equal(t, "ORD123456", resp.Entities["order_number"])
	assert.Equal(t, []string{"lookup_order"}, resp.ActionsTaken)
	assert.Equal(t, NextProvideOrderUpdates, resp.NextStep)
	assert.Equal(t, "Your order has shipped.", resp.Text)
	assert.Equal(t, DefaultConfidence, resp.Confidence)

	require.Len(t, resp.ToolResults, 1)
	res := resp.ToolResults[0].Result
	assert.True(t, res.Success)
	assert.Equal(t, true, res.Result["success"])
	order, ok := res.Result["order"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "shipped", order["status"])
}

func TestProcess_ClassifierUnreachable(t *testing.T) {
	c := newController(t, fixedLLM("", errors.New("dial tcp: connection refused")), fixedLLM("A ticket is on its way.", nil))

	resp := c.Process(context.Background(), Utterance{Text: "my screen keeps flickering"}, persona.Persona{})

	assert.Equal(t, intent.Support, resp.Intent)
	require.Len(t, resp.ToolResults, 1)
	assert.Equal(t, planner.ActionCreateTicket, resp.ToolResults[0].Action)
	assert.Equal(t, NextStep(resp.Intent, resp.ActionsTaken), resp.NextStep)
}

func TestProcess_SynthesisFailureFallsBack(t *testing.T) {
	c := newController(t, fixedLLM("order_inquiry", nil), fixedLLM("", llm.ErrBackendStatus))

	resp := c.Process(context.Background(), Utterance{Text: "where is ORD123456"}, persona.Persona{})

	assert.Equal(t, SynthesisFallbackText, resp.Text)
	assert.Equal(t, NextWaitingForHumanAgent, resp.NextStep)
	assert.Equal(t, []string{"transfer_to_human"}, resp.ActionsTaken)
	assert.Equal(t, "ORD123456", resp.Entities["order_number"])
	assert.Equal(t, DefaultConfidence, resp.Confidence)
}

// ==========================
// Controller behaviour
// ==========================

func TestProcess_PanicFallsBack(t *testing.T) {
	c := NewController(
		classifierFunc(func(context.Context, string, entity.Bag, persona.Persona) intent.Intent { return intent.Transfer }),
		runnerFunc(func(context.Context, string, map[string]interface{}) tools.ActionResult { panic("boom") }),
		synthesizerFunc(func(context.Context, synthesis.Request) (string, error) { return "unused", nil }),
		DefaultOptions(),
		logger.NewTestLogger(t),
	)

	resp := c.Process(context.Background(), Utterance{Text: "get me a human, I'm Maria"}, persona.Persona{})

	assert.Equal(t, FaultFallbackText, resp.Text)
	assert.Equal(t, NextWaitingForHumanAgent, resp.NextStep)
	assert.Equal(t, []string{"transfer_to_human"}, resp.ActionsTaken)
	assert.Empty(t, resp.Entities)
	assert.Zero(t, resp.Confidence)
}

func TestProcess_ActionsTakenFollowPlanAndSuccess(t *testing.T) {
	var ran []string
	runner := runnerFunc(func(ctx context.Context, name string, params map[string]interface{}) tools.ActionResult {
		ran = append(ran, name)
		return tools.ActionResult{Success: false, Error: "Validation error: title is required"}
	})
	c := NewController(
		classifierFunc(func(context.Context, string, entity.Bag, persona.Persona) intent.Intent { return intent.Support }),
		runner,
		synthesizerFunc(func(context.Context, synthesis.Request) (string, error) { return "Sorry about that.", nil }),
		DefaultOptions(),
		logger.NewNoOpLogger(),
	)

	resp := c.Process(context.Background(), Utterance{Text: "it is broken"}, persona.Persona{})

	assert.Equal(t, []string{"create_ticket"}, ran)
	assert.Equal(t, []string{}, resp.ActionsTaken)
	assert.Equal(t, NextAwaitUserInput, resp.NextStep)
}

func TestProcess_HistoryWindow(t *testing.T) {
	var got synthesis.Request
	c := NewController(
		classifierFunc(func(context.Context, string, entity.Bag, persona.Persona) intent.Intent { return intent.Information }),
		runnerFunc(func(context.Context, string, map[string]interface{}) tools.ActionResult { return tools.ActionResult{} }),
		synthesizerFunc(func(ctx context.Context, req synthesis.Request) (string, error) {
			got = req
			return "We sell widgets.", nil
		}),
		Options{HistoryWindow: 4},
		logger.NewNoOpLogger(),
	)

	var turns []history.Turn
	for i := 0; i < 12; i++ {
		turns = append(turns, history.Turn{Role: history.RoleUser, Text: fmt.Sprintf("t%d", i)})
	}

	resp := c.Process(context.Background(), Utterance{Text: "what do you sell", History: turns}, persona.Persona{Company: "Acme"})

	assert.Equal(t, NextProvideAdditionalInfo, resp.NextStep)
	require.Len(t, got.History, 4)
	assert.Equal(t, "t8", got.History[0].Text)
	assert.Equal(t, "Acme", got.Persona.Company)
	assert.Len(t, turns, 12)
}

func TestNextStep(t *testing.T) {
	tests := []struct {
		intent intent.Intent
		taken  []string
		want   string
	}{
		{intent.Support, []string{"create_ticket", "transfer_to_human"}, NextWaitingForHumanAgent},
		{intent.OrderInquiry, []string{"lookup_order", "schedule_appointment"}, NextConfirmAppointment},
		{intent.OrderInquiry, []string{"lookup_order"}, NextProvideOrderUpdates},
		{intent.Support, []string{"create_ticket"}, NextMonitorTicketStatus},
		{intent.Information, nil, NextProvideAdditionalInfo},
		{intent.Appointment, nil, NextAwaitUserInput},
		{intent.Information, []string{"create_ticket"}, NextMonitorTicketStatus},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%v", tt.intent, tt.taken), func(t *testing.T) {
			assert.Equal(t, tt.want, NextStep(tt.intent, tt.taken))
		})
	}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StageReceived, StageIntentClassified))
	assert.True(t, CanTransition(StageExecuted, StageResponded))
	assert.True(t, CanTransition(StagePlanned, StageFailed))
	assert.True(t, CanTransition(StageFailed, StageResponded))

	assert.False(t, CanTransition(StageReceived, StagePlanned))
	assert.False(t, CanTransition(StageResponded, StageFailed))
	assert.False(t, CanTransition(StageResponded, StageReceived))
}
