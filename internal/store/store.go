// Package store persists conversations, their messages and the actions
// taken in them.
package store

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"voice-agent-workers/internal/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store is the persistence collaborator of the chat flow.
type Store interface {
	CreateConversation(ctx context.Context, c *models.Conversation) error
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	UpdateConversationStatus(ctx context.Context, id, status string) error

	SaveMessage(ctx context.Context, m *models.Message) error
	// RecentMessages returns the last limit messages, oldest first.
	RecentMessages(ctx context.Context, conversationID string, limit int) ([]models.Message, error)
	ListMessages(ctx context.Context, conversationID string) ([]models.Message, error)

	SaveAction(ctx context.Context, a *models.Action) error
	ListActions(ctx context.Context, conversationID string) ([]models.Action, error)
}

// Migrations returns the schema scripts in the order they must run.
func Migrations() ([]string, error) {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	scripts := make([]string, 0, len(names))
	for _, name := range names {
		data, err := migrations.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		scripts = append(scripts, string(data))
	}
	return scripts, nil
}
