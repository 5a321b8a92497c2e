package processmessage

import (
	"context"
	"testing"
	"time"

	"voice-agent-workers/internal/chat"
	"voice-agent-workers/internal/common/config"
	apperrors "voice-agent-workers/internal/common/errors"
	"voice-agent-workers/internal/common/logger"
	"voice-agent-workers/internal/conversation/entity"
	"voice-agent-workers/internal/conversation/intent"
	"voice-agent-workers/internal/conversation/pipeline"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type MockChat struct {
	mock.Mock
}

func (m *MockChat) Handle(ctx context.Context, req chat.Request) (*chat.Reply, error) {
	args := m.Called(ctx, req)
	reply, _ := args.Get(0).(*chat.Reply)
	return reply, args.Error(1)
}

type recordingErrHandler struct {
	ctxErr   error
	deadline time.Time
	err      error
}

func (r *recordingErrHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	r.ctxErr = ctx.Err()
	r.deadline, _ = ctx.Deadline()
	r.err = err
}

func createTestHandler(t *testing.T, svc ChatService) *Handler {
	return NewHandler(LoadConfig(config.WorkerConfig{}), svc, logger.NewTestLogger(t))
}

func transferReply() *chat.Reply {
	return &chat.Reply{
		ConversationID: "c-1",
		MessageID:      "m-2",
		Response:       "Connecting you now.",
		Status:         chat.StatusSuccess,
		Result: pipeline.Response{
			Text:         "Connecting you now.",
			ActionsTaken: []string{"transfer_to_human"},
			NextStep:     pipeline.NextWaitingForHumanAgent,
			Entities:     entity.Bag{"phone": "555-123-4567"},
			Confidence:   0.8,
			Intent:       intent.Transfer,
		},
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	svc := new(MockChat)
	svc.On("Handle", mock.Anything, chat.Request{
		ConversationID: "c-1",
		PersonaKey:     "customer_support",
		Message:        "let me talk to a person, 555-123-4567",
		Channel:        "zeebe",
	}).Return(transferReply(), nil)

	h := createTestHandler(t, svc)
	out, err := h.Execute(context.Background(),
		`{"conversationId":"c-1","persona":"customer_support","message":"let me talk to a person, 555-123-4567"}`)
	require.NoError(t, err)

	assert.Equal(t, "c-1", out.ConversationID)
	assert.Equal(t, "m-2", out.MessageID)
	assert.Equal(t, []string{"transfer_to_human"}, out.ActionsTaken)
	assert.Equal(t, "transfer", out.Intent)
	assert.Equal(t, map[string]string{"phone": "555-123-4567"}, out.Entities)
	assert.True(t, out.NeedsHuman)
	svc.AssertExpectations(t)
}

func TestHandler_Execute_ValidationErrors(t *testing.T) {
	tests := []struct {
		name      string
		variables string
	}{
		{"malformed json", `{"message":`},
		{"missing message", `{"persona":"customer_support"}`},
		{"empty message", `{"message":""}`},
		{"message wrong type", `{"message":42}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockChat)
			h := createTestHandler(t, svc)

			out, err := h.Execute(context.Background(), tt.variables)
			assert.Nil(t, out)
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.Normalize(err).Code)
			svc.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_Execute_ChatError(t *testing.T) {
	svc := new(MockChat)
	svc.On("Handle", mock.Anything, mock.Anything).Return(nil, apperrors.NewConversationNotFoundError("c-9"))

	_, err := createTestHandler(t, svc).Execute(context.Background(), `{"conversationId":"c-9","message":"hi"}`)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeConversationNotFound, apperrors.Normalize(err).Code)
}

func TestLoadConfig(t *testing.T) {
	assert.Equal(t, 30*time.Second, LoadConfig(config.WorkerConfig{}).Timeout)
	assert.Equal(t, 5*time.Second, LoadConfig(config.WorkerConfig{Timeout: 5000}).Timeout)
}

func TestGetInputSchema(t *testing.T) {
	schema := GetInputSchema()
	assert.Equal(t, []string{"message"}, schema.Required)
	assert.Contains(t, schema.Properties, "conversationId")
}

func TestHandler_Handle_ReportsFailureOnLiveContext(t *testing.T) {
	svc := new(MockChat)
	svc.On("Handle", mock.Anything, mock.Anything).Return(nil, context.DeadlineExceeded).Run(func(args mock.Arguments) {
		<-args.Get(0).(context.Context).Done()
	})

	h := NewHandler(&Config{Timeout: 5 * time.Millisecond}, svc, logger.NewTestLogger(t))
	errs := &recordingErrHandler{}
	h.errHandler = errs

	job := entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:       7,
		Variables: `{"message": "where is my order"}`,
	}}
	h.Handle(nil, job)

	require.ErrorIs(t, errs.err, context.DeadlineExceeded)
	assert.NoError(t, errs.ctxErr)
	assert.WithinDuration(t, time.Now().Add(reportTimeout), errs.deadline, 2*time.Second)
}
