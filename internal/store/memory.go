package store

import (
	"context"
	"sort"
	"sync"

	apperrors "voice-agent-workers/internal/common/errors"
	"voice-agent-workers/internal/models"
)

// MemoryStore keeps everything in process. It backs the CLI and tests.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]models.Conversation
	messages      map[string][]models.Message
	actions       map[string][]models.Action
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]models.Conversation),
		messages:      make(map[string][]models.Message),
		actions:       make(map[string][]models.Action),
	}
}

func (s *MemoryStore) CreateConversation(_ context.Context, c *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[c.ID] = *c
	return nil
}

func (s *MemoryStore) GetConversation(_ context.Context, id string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[id]
	if !ok {
		return nil, apperrors.NewConversationNotFoundError(id)
	}
	return &c, nil
}

func (s *MemoryStore) UpdateConversationStatus(_ context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	if !ok {
		return apperrors.NewConversationNotFoundError(id)
	}
	c.Status = status
	s.conversations[id] = c
	return nil
}

func (s *MemoryStore) SaveMessage(_ context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[m.ConversationID] = append(s.messages[m.ConversationID], *m)
	return nil
}

func (s *MemoryStore) RecentMessages(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	all, _ := s.ListMessages(ctx, conversationID)
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (s *MemoryStore) ListMessages(_ context.Context, conversationID string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]models.Message{}, s.messages[conversationID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) SaveAction(_ context.Context, a *models.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions[a.ConversationID] = append(s.actions[a.ConversationID], *a)
	return nil
}

func (s *MemoryStore) ListActions(_ context.Context, conversationID string) ([]models.Action, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Action{}, s.actions[conversationID]...), nil
}
