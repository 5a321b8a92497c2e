package createticket

import (
	"context"
	"errors"
	"sync"

	apperrors "voice-agent-workers/internal/common/errors"
)

var ErrTicketStoreFailed = errors.New("TICKET_STORE_FAILED")

// Sink persists created tickets.
type Sink interface {
	Name() string
	Store(ctx context.Context, ticket Ticket) error
}

// MemorySink keeps tickets in process memory.
type MemorySink struct {
	mu      sync.RWMutex
	tickets map[string]Ticket
	order   []string
}

func NewMemorySink() *MemorySink {
	return &MemorySink{tickets: make(map[string]Ticket)}
}

func (s *MemorySink) Name() string { return SinkMemory }

func (s *MemorySink) Store(_ context.Context, ticket Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tickets[ticket.TicketID]; !exists {
		s.order = append(s.order, ticket.TicketID)
	}
	s.tickets[ticket.TicketID] = ticket
	return nil
}

func (s *MemorySink) Get(id string) (Ticket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tickets[id]
	return t, ok
}

// List returns tickets in creation order.
func (s *MemorySink) List() []Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Ticket, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.tickets[id])
	}
	return out
}

// DocumentIndexer is satisfied by *database.ElasticsearchClient.
type DocumentIndexer interface {
	IndexDocument(ctx context.Context, index, id string, doc interface{}) error
}

// ElasticsearchSink indexes each ticket under its id.
type ElasticsearchSink struct {
	indexer DocumentIndexer
	index   string
}

func NewElasticsearchSink(indexer DocumentIndexer, index string) *ElasticsearchSink {
	return &ElasticsearchSink{indexer: indexer, index: index}
}

func (s *ElasticsearchSink) Name() string { return SinkElasticsearch }

func (s *ElasticsearchSink) Store(ctx context.Context, ticket Ticket) error {
	if err := s.indexer.IndexDocument(ctx, s.index, ticket.TicketID, ticket); err != nil {
		return apperrors.NewIndexingFailedError(s.index, err).WithMetadata("ticketId", ticket.TicketID)
	}
	return nil
}
