// Package chat runs one conversation turn end to end: persona lookup,
// history, the pipeline, and persistence of everything the turn produced.
package chat

import (
	"context"
	"strings"
	"time"

	apperrors "voice-agent-workers/internal/common/errors"
	"voice-agent-workers/internal/common/logger"
	"voice-agent-workers/internal/conversation/history"
	"voice-agent-workers/internal/conversation/persona"
	"voice-agent-workers/internal/conversation/pipeline"
	"voice-agent-workers/internal/models"
	"voice-agent-workers/internal/store"

	"github.com/google/uuid"
)

const StatusSuccess = "success"

type Request struct {
	ConversationID string                 `json:"conversation_id,omitempty"`
	PersonaKey     string                 `json:"persona,omitempty"`
	Message        string                 `json:"message"`
	CustomerName   string                 `json:"customer_name,omitempty"`
	CustomerPhone  string                 `json:"customer_phone,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	// Channel labels where the turn came from, e.g. "http" or "zeebe".
	Channel string `json:"-"`
}

type Reply struct {
	ConversationID string                 `json:"conversation_id"`
	MessageID      string                 `json:"message_id"`
	Response       string                 `json:"agent_response"`
	Timestamp      time.Time              `json:"timestamp"`
	Status         string                 `json:"status"`
	Metadata       map[string]interface{} `json:"message_metadata"`
	Result         pipeline.Response      `json:"-"`
}

// Processor is the pipeline seen from the chat flow.
type Processor interface {
	Process(ctx context.Context, u pipeline.Utterance, p persona.Persona) pipeline.Response
}

// HistoryCache is optional; without it history is read from the store.
type HistoryCache interface {
	Recent(ctx context.Context, conversationID string) ([]history.Turn, bool, error)
	Append(ctx context.Context, conversationID string, turns ...history.Turn) error
}

// TurnRecorder receives one event per handled turn.
type TurnRecorder interface {
	RecordTurn(ctx context.Context, channel, nextStep string, actionsTaken []string)
}

type Service struct {
	store     store.Store
	cache     HistoryCache
	processor Processor
	personas  *persona.Catalog
	recorder  TurnRecorder
	window    int
	now       func() time.Time
	logger    logger.Logger
}

type Option func(*Service)

func WithHistoryCache(c HistoryCache) Option { return func(s *Service) { s.cache = c } }

func WithTurnRecorder(r TurnRecorder) Option { return func(s *Service) { s.recorder = r } }

func WithHistoryWindow(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.window = n
		}
	}
}

func NewService(st store.Store, processor Processor, personas *persona.Catalog, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		store:     st,
		processor: processor,
		personas:  personas,
		window:    history.DefaultWindow,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    log.WithFields(map[string]interface{}{"component": "chat"}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Handle(ctx context.Context, req Request) (*Reply, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return nil, apperrors.NewInvalidInputError("message is required")
	}

	p := s.personas.Resolve(req.PersonaKey)

	conv, err := s.conversation(ctx, req, p)
	if err != nil {
		return nil, err
	}
	log := s.logger.WithSpan(ctx).WithFields(map[string]interface{}{"conversationId": conv.ID})

	turns, seed, err := s.history(ctx, conv.ID)
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveMessage(ctx, &models.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           models.RoleUser,
		Content:        text,
		Metadata:       req.Metadata,
		CreatedAt:      s.now(),
	}); err != nil {
		return nil, err
	}

	resp := s.processor.Process(ctx, pipeline.Utterance{Text: text, History: turns}, p)

	meta := map[string]interface{}{
		"actions_taken": resp.ActionsTaken,
		"next_step":     resp.NextStep,
		"entities":      resp.Entities,
		"confidence":    resp.Confidence,
		"intent":        resp.Intent.String(),
	}
	agentMsg := &models.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           models.RoleAgent,
		Content:        resp.Text,
		Metadata:       meta,
		CreatedAt:      s.now(),
	}
	if err := s.store.SaveMessage(ctx, agentMsg); err != nil {
		return nil, err
	}

	for _, action := range s.actions(conv.ID, resp) {
		if err := s.store.SaveAction(ctx, action); err != nil {
			return nil, err
		}
	}

	if resp.NextStep == pipeline.NextWaitingForHumanAgent && conv.Status != models.ConversationTransferred {
		if err := s.store.UpdateConversationStatus(ctx, conv.ID, models.ConversationTransferred); err != nil {
			return nil, err
		}
	}

	if s.cache != nil {
		var pending []history.Turn
		if seed {
			pending = append(pending, turns...)
		}
		pending = append(pending,
			history.Turn{Role: history.RoleUser, Text: text},
			history.Turn{Role: history.RoleAgent, Text: resp.Text},
		)
		if err := s.cache.Append(ctx, conv.ID, pending...); err != nil {
			log.WithError(err).Warn("history cache append failed", nil)
		}
	}

	if s.recorder != nil {
		s.recorder.RecordTurn(ctx, channelOf(req), resp.NextStep, resp.ActionsTaken)
	}

	log.Info("chat turn handled", map[string]interface{}{
		"intent":   resp.Intent.String(),
		"nextStep": resp.NextStep,
		"persona":  p.Key,
	})

	return &Reply{
		ConversationID: conv.ID,
		MessageID:      agentMsg.ID,
		Response:       resp.Text,
		Timestamp:      agentMsg.CreatedAt,
		Status:         StatusSuccess,
		Metadata:       meta,
		Result:         resp,
	}, nil
}

func (s *Service) conversation(ctx context.Context, req Request, p persona.Persona) (*models.Conversation, error) {
	if req.ConversationID != "" {
		return s.store.GetConversation(ctx, req.ConversationID)
	}

	conv := &models.Conversation{
		ID:            uuid.NewString(),
		PersonaKey:    p.Key,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Status:        models.ConversationActive,
		StartedAt:     s.now(),
	}
	if err := s.store.CreateConversation(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// history prefers the cache and falls back to the store on a miss or a
// cache fault.
// history returns the recent turns. seed is true when the cache missed and
// the turns came from the store, so the cache must be refilled with them.
func (s *Service) history(ctx context.Context, conversationID string) (turns []history.Turn, seed bool, err error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Recent(ctx, conversationID)
		switch {
		case err != nil:
			s.logger.WithError(err).Warn("history cache read failed", map[string]interface{}{
				"conversationId": conversationID,
			})
		case ok:
			return history.Last(cached, s.window), false, nil
		default:
			seed = true
		}
	}

	msgs, err := s.store.RecentMessages(ctx, conversationID, s.window)
	if err != nil {
		return nil, false, err
	}
	turns = make([]history.Turn, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, history.Turn{Role: m.Role, Text: m.Content})
	}
	return turns, seed, nil
}

// actions builds one row per taken action. A fallback transfer has no tool
// result of its own, so the reply text stands in for it.
func (s *Service) actions(conversationID string, resp pipeline.Response) []*models.Action {
	results := make(map[string]map[string]interface{}, len(resp.ToolResults))
	for _, r := range resp.ToolResults {
		if r.Result.Success {
			results[r.Action] = r.Result.Result
		}
	}

	out := make([]*models.Action, 0, len(resp.ActionsTaken))
	for _, name := range resp.ActionsTaken {
		result, ok := results[name]
		if !ok {
			result = map[string]interface{}{"response": resp.Text, "status": models.ActionCompleted}
		}
		out = append(out, &models.Action{
			ID:             uuid.NewString(),
			ConversationID: conversationID,
			ActionType:     name,
			Parameters:     resp.Entities.Params(),
			Result:         result,
			Status:         models.ActionCompleted,
			ExecutedAt:     s.now(),
		})
	}
	return out
}

func channelOf(req Request) string {
	if req.Channel == "" {
		return "http"
	}
	return req.Channel
}
