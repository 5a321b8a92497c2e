package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "voice-agent-workers/internal/common/errors"
	"voice-agent-workers/internal/common/logger"
	"voice-agent-workers/internal/conversation/entity"
	"voice-agent-workers/internal/conversation/history"
	"voice-agent-workers/internal/conversation/intent"
	"voice-agent-workers/internal/conversation/persona"
	"voice-agent-workers/internal/conversation/pipeline"
	"voice-agent-workers/internal/conversation/synthesis"
	"voice-agent-workers/internal/models"
	"voice-agent-workers/internal/store"
	"voice-agent-workers/internal/tools"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeProcessor struct {
	resp     pipeline.Response
	gotUtter pipeline.Utterance
	gotP     persona.Persona
}

func (f *fakeProcessor) Process(ctx context.Context, u pipeline.Utterance, p persona.Persona) pipeline.Response {
	f.gotUtter = u
	f.gotP = p
	return f.resp
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Recent(ctx context.Context, conversationID string) ([]history.Turn, bool, error) {
	args := m.Called(ctx, conversationID)
	turns, _ := args.Get(0).([]history.Turn)
	return turns, args.Bool(1), args.Error(2)
}

func (m *MockCache) Append(ctx context.Context, conversationID string, turns ...history.Turn) error {
	args := m.Called(ctx, conversationID, turns)
	return args.Error(0)
}

type recorder struct {
	nextSteps []string
}

func (r *recorder) RecordTurn(ctx context.Context, channel, nextStep string, actionsTaken []string) {
	r.nextSteps = append(r.nextSteps, channel+":"+nextStep)
}

func orderResponse() pipeline.Response {
	return pipeline.Response{
		Text:         "Your order ORD123456 has shipped.",
		ActionsTaken: []string{"lookup_order"},
		NextStep:     pipeline.NextProvideOrderUpdates,
		Entities:     entity.Bag{"order_number": "ORD123456"},
		Confidence:   0.8,
		Intent:       intent.OrderInquiry,
		ToolResults: []synthesis.ToolOutcome{{
			Action: "lookup_order",
			Result: tools.ActionResult{Success: true, Result: map[string]interface{}{"success": true}},
		}},
	}
}

func newService(t *testing.T, proc Processor, opts ...Option) (*Service, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	personas := persona.NewCatalog("customer_support", persona.Builtins()...)
	return NewService(st, proc, personas, logger.NewTestLogger(t), opts...), st
}

// ==========================
// Handle
// ==========================

func TestHandle_NewConversation(t *testing.T) {
	proc := &fakeProcessor{resp: orderResponse()}
	rec := &recorder{}
	svc, st := newService(t, proc, WithTurnRecorder(rec))
	ctx := context.Background()

	reply, err := svc.Handle(ctx, Request{Message: "  where is ORD123456 ", PersonaKey: "sales_assistant"})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, reply.Status)
	assert.Equal(t, "Your order ORD123456 has shipped.", reply.Response)
	assert.Equal(t, pipeline.NextProvideOrderUpdates, reply.Metadata["next_step"])
	assert.Equal(t, "where is ORD123456", proc.gotUtter.Text)
	assert.Empty(t, proc.gotUtter.History)
	assert.Equal(t, "Alex", proc.gotP.Name)
	assert.Equal(t, []string{"http:provide_order_updates"}, rec.nextSteps)

	conv, err := st.GetConversation(ctx, reply.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, "sales_assistant", conv.PersonaKey)
	assert.Equal(t, models.ConversationActive, conv.Status)

	msgs, _ := st.ListMessages(ctx, reply.ConversationID)
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.Equal(t, models.RoleAgent, msgs[1].Role)
	assert.Equal(t, reply.MessageID, msgs[1].ID)

	actions, _ := st.ListActions(ctx, reply.ConversationID)
	require.Len(t, actions, 1)
	assert.Equal(t, "lookup_order", actions[0].ActionType)
	assert.Equal(t, "ORD123456", actions[0].Parameters["order_number"])
	assert.Equal(t, true, actions[0].Result["success"])
}

func TestHandle_ContinuesConversationWithHistory(t *testing.T) {
	proc := &fakeProcessor{resp: pipeline.Response{Text: "Sure.", NextStep: pipeline.NextAwaitUserInput, Entities: entity.Bag{}}}
	svc, _ := newService(t, proc)
	ctx := context.Background()

	first, err := svc.Handle(ctx, Request{Message: "hello"})
	require.NoError(t, err)

	_, err = svc.Handle(ctx, Request{ConversationID: first.ConversationID, Message: "and again"})
	require.NoError(t, err)

	assert.Equal(t, []history.Turn{
		{Role: history.RoleUser, Text: "hello"},
		{Role: history.RoleAgent, Text: "Sure."},
	}, proc.gotUtter.History)
}

func TestHandle_TransferMarksConversation(t *testing.T) {
	proc := &fakeProcessor{resp: pipeline.Response{
		Text:         pipeline.SynthesisFallbackText,
		ActionsTaken: []string{"transfer_to_human"},
		NextStep:     pipeline.NextWaitingForHumanAgent,
		Entities:     entity.Bag{},
	}}
	svc, st := newService(t, proc)
	ctx := context.Background()

	reply, err := svc.Handle(ctx, Request{Message: "get me a person"})
	require.NoError(t, err)

	conv, _ := st.GetConversation(ctx, reply.ConversationID)
	assert.Equal(t, models.ConversationTransferred, conv.Status)

	actions, _ := st.ListActions(ctx, reply.ConversationID)
	require.Len(t, actions, 1)
	assert.Equal(t, pipeline.SynthesisFallbackText, actions[0].Result["response"])
}

func TestHandle_Errors(t *testing.T) {
	svc, _ := newService(t, &fakeProcessor{})

	_, err := svc.Handle(context.Background(), Request{Message: "   "})
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.Normalize(err).Code)

	_, err = svc.Handle(context.Background(), Request{ConversationID: "missing", Message: "hi"})
	assert.Equal(t, apperrors.ErrCodeConversationNotFound, apperrors.Normalize(err).Code)
}

func TestHandle_UsesHistoryCache(t *testing.T) {
	cached := []history.Turn{{Role: history.RoleUser, Text: "cached"}}
	cache := new(MockCache)
	cache.On("Recent", mock.Anything, mock.Anything).Return(cached, true, nil)
	cache.On("Append", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))

	proc := &fakeProcessor{resp: orderResponse()}
	svc, _ := newService(t, proc, WithHistoryCache(cache))

	_, err := svc.Handle(context.Background(), Request{Message: "status?"})
	require.NoError(t, err)

	assert.Equal(t, cached, proc.gotUtter.History)
	cache.AssertCalled(t, "Append", mock.Anything, mock.Anything, []history.Turn{
		{Role: history.RoleUser, Text: "status?"},
		{Role: history.RoleAgent, Text: "Your order ORD123456 has shipped."},
	})
}

func TestHandle_CacheFaultFallsBackToStore(t *testing.T) {
	cache := new(MockCache)
	cache.On("Recent", mock.Anything, mock.Anything).Return(nil, false, errors.New("redis down"))
	cache.On("Append", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	proc := &fakeProcessor{resp: orderResponse()}
	svc, _ := newService(t, proc, WithHistoryCache(cache), WithHistoryWindow(4))

	_, err := svc.Handle(context.Background(), Request{Message: "status?"})
	require.NoError(t, err)
	assert.Empty(t, proc.gotUtter.History)
}

func TestHandle_CacheMissSeedsFromStore(t *testing.T) {
	proc := &fakeProcessor{resp: pipeline.Response{Text: "Sure.", NextStep: pipeline.NextAwaitUserInput, Entities: entity.Bag{}}}
	svc, _ := newService(t, proc)
	ctx := context.Background()

	first, err := svc.Handle(ctx, Request{Message: "hello"})
	require.NoError(t, err)

	cache := new(MockCache)
	cache.On("Recent", mock.Anything, first.ConversationID).Return(nil, false, nil)
	cache.On("Append", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	svc.cache = cache

	_, err = svc.Handle(ctx, Request{ConversationID: first.ConversationID, Message: "again"})
	require.NoError(t, err)

	cache.AssertCalled(t, "Append", mock.Anything, first.ConversationID, []history.Turn{
		{Role: history.RoleUser, Text: "hello"},
		{Role: history.RoleAgent, Text: "Sure."},
		{Role: history.RoleUser, Text: "again"},
		{Role: history.RoleAgent, Text: "Sure."},
	})
}

func TestHandle_HistorySurvivesCacheEviction(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	proc := &fakeProcessor{resp: pipeline.Response{Text: "Sure.", NextStep: pipeline.NextAwaitUserInput, Entities: entity.Bag{}}}
	svc, _ := newService(t, proc, WithHistoryCache(store.NewHistoryCache(client, 10, time.Hour)))
	ctx := context.Background()

	first, err := svc.Handle(ctx, Request{Message: "one"})
	require.NoError(t, err)
	id := first.ConversationID

	_, err = svc.Handle(ctx, Request{ConversationID: id, Message: "two"})
	require.NoError(t, err)
	assert.Len(t, proc.gotUtter.History, 2)

	mr.FlushAll()

	_, err = svc.Handle(ctx, Request{ConversationID: id, Message: "three"})
	require.NoError(t, err)
	assert.Len(t, proc.gotUtter.History, 4)

	_, err = svc.Handle(ctx, Request{ConversationID: id, Message: "four"})
	require.NoError(t, err)
	require.Len(t, proc.gotUtter.History, 6)
	assert.Equal(t, history.Turn{Role: history.RoleUser, Text: "one"}, proc.gotUtter.History[0])
	assert.Equal(t, history.Turn{Role: history.RoleUser, Text: "three"}, proc.gotUtter.History[4])
}
