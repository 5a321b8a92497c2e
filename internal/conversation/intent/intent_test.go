package intent

import (
	"context"
	"errors"
	"testing"

	apperrors "voice-agent-workers/internal/common/errors"
	"voice-agent-workers/internal/common/llm"
	"voice-agent-workers/internal/common/logger"
	"voice-agent-workers/internal/conversation/entity"
	"voice-agent-workers/internal/conversation/persona"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		raw     string
		want    Intent
		wantErr bool
	}{
		{"order_inquiry", OrderInquiry, false},
		{"  APPOINTMENT \n", Appointment, false},
		{"\"transfer\".", Transfer, false},
		{"Information", Information, false},
		{"support", Support, false},
		{"", Default, true},
		{"billing", Default, true},
		{"order inquiry", Default, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := Parse(tt.raw)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownIntent)
				assert.Equal(t, apperrors.ErrCodeIntentClassificationFailed, apperrors.Normalize(err).Code)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSystemPrompt(t *testing.T) {
	prompt := SystemPrompt(persona.Persona{Company: "TechCorp", Role: "Support Specialist"})

	assert.Contains(t, prompt, "assistant for TechCorp")
	assert.Contains(t, prompt, "Your role is Support Specialist")
	assert.Contains(t, prompt, persona.DefaultPersonality)
	for _, i := range All {
		assert.Contains(t, prompt, "- "+i.String()+":")
	}
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "hello", UserMessage("hello", nil))
	assert.Equal(t,
		"where is ORD123456\n\nDetected entities: email=a@b.io, order_number=ORD123456",
		UserMessage("where is ORD123456", entity.Bag{"order_number": "ORD123456", "email": "a@b.io"}),
	)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		client llm.ClientFunc
		want   Intent
	}{
		{
			name: "label",
			client: func(ctx context.Context, system string, messages []llm.Message) (string, error) {
				return "order_inquiry", nil
			},
			want: OrderInquiry,
		},
		{
			name: "noisy label",
			client: func(ctx context.Context, system string, messages []llm.Message) (string, error) {
				return " Transfer.\n", nil
			},
			want: Transfer,
		},
		{
			name: "backend error",
			client: func(ctx context.Context, system string, messages []llm.Message) (string, error) {
				return "", errors.New("connection refused")
			},
			want: Support,
		},
		{
			name: "timeout",
			client: func(ctx context.Context, system string, messages []llm.Message) (string, error) {
				return "", context.DeadlineExceeded
			},
			want: Support,
		},
		{
			name: "off enumeration",
			client: func(ctx context.Context, system string, messages []llm.Message) (string, error) {
				return "I think the user wants a refund", nil
			},
			want: Support,
		},
		{
			name: "empty",
			client: func(ctx context.Context, system string, messages []llm.Message) (string, error) {
				return "", nil
			},
			want: Support,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClassifier(tt.client, logger.NewTestLogger(t))
			got := c.Classify(context.Background(), "hi", entity.Bag{}, persona.Persona{})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_SendsPromptAndUtterance(t *testing.T) {
	var (
		gotSystem string
		gotMsgs   []llm.Message
		calls     int
	)
	client := llm.ClientFunc(func(ctx context.Context, system string, messages []llm.Message) (string, error) {
		calls++
		gotSystem = system
		gotMsgs = messages
		return "appointment", nil
	})

	c := NewClassifier(client, logger.NewNoOpLogger())
	got := c.Classify(context.Background(), "book me for march 3rd", entity.Bag{"date": "march 3rd"},
		persona.Persona{Company: "Conversa AI"})

	assert.Equal(t, Appointment, got)
	assert.Equal(t, 1, calls)
	assert.Contains(t, gotSystem, "Conversa AI")
	require.Len(t, gotMsgs, 1)
	assert.Equal(t, llm.RoleUser, gotMsgs[0].Role)
	assert.Contains(t, gotMsgs[0].Content, "book me for march 3rd")
	assert.Contains(t, gotMsgs[0].Content, "date=march 3rd")
}

func TestClassify_NoRetry(t *testing.T) {
	calls := 0
	client := llm.ClientFunc(func(ctx context.Context, system string, messages []llm.Message) (string, error) {
		calls++
		return "", llm.ErrCircuitOpen
	})

	got := NewClassifier(client, logger.NewNoOpLogger()).Classify(context.Background(), "x", nil, persona.Persona{})
	assert.Equal(t, Support, got)
	assert.Equal(t, 1, calls)
}
