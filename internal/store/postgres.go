package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "voice-agent-workers/internal/common/errors"
	"voice-agent-workers/internal/models"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate applies every embedded schema script. Scripts are idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	scripts, err := Migrations()
	if err != nil {
		return err
	}
	for _, script := range scripts {
		if _, err := s.db.ExecContext(ctx, script); err != nil {
			return apperrors.NewQueryExecutionFailedError("migrate", err)
		}
	}
	return nil
}

func (s *PostgresStore) CreateConversation(ctx context.Context, c *models.Conversation) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, persona_key, customer_name, customer_phone, status, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.PersonaKey, nullString(c.CustomerName), nullString(c.CustomerPhone), c.Status, c.StartedAt,
	)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError("conversations", err)
	}
	return nil
}

func (s *PostgresStore) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	var (
		c           models.Conversation
		name, phone sql.NullString
		endedAt     sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, persona_key, customer_name, customer_phone, status, started_at, ended_at
		 FROM conversations WHERE id = $1`, id,
	).Scan(&c.ID, &c.PersonaKey, &name, &phone, &c.Status, &c.StartedAt, &endedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewConversationNotFoundError(id)
	}
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("get conversation", err)
	}

	c.CustomerName = name.String
	c.CustomerPhone = phone.String
	if endedAt.Valid {
		t := endedAt.Time
		c.EndedAt = &t
	}
	return &c, nil
}

// UpdateConversationStatus stamps ended_at when the conversation leaves the
// open states.
func (s *PostgresStore) UpdateConversationStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE conversations
		 SET status = $2,
		     ended_at = CASE WHEN $2 IN ('completed', 'failed') THEN NOW() ELSE ended_at END
		 WHERE id = $1`, id, status,
	)
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("update conversation", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NewConversationNotFoundError(id)
	}
	return nil
}

func (s *PostgresStore) SaveMessage(ctx context.Context, m *models.Message) error {
	meta, err := jsonColumn(m.Metadata)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError("messages", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, role, content, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.ConversationID, m.Role, m.Content, meta, m.CreatedAt,
	)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError("messages", err)
	}
	return nil
}

func (s *PostgresStore) RecentMessages(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	return s.queryMessages(ctx, "recent messages",
		`SELECT id, conversation_id, role, content, metadata, created_at FROM (
		     SELECT id, conversation_id, role, content, metadata, created_at
		     FROM messages WHERE conversation_id = $1
		     ORDER BY created_at DESC LIMIT $2
		 ) recent ORDER BY created_at ASC`,
		conversationID, limit,
	)
}

func (s *PostgresStore) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	return s.queryMessages(ctx, "list messages",
		`SELECT id, conversation_id, role, content, metadata, created_at
		 FROM messages WHERE conversation_id = $1 ORDER BY created_at ASC`,
		conversationID,
	)
}

func (s *PostgresStore) queryMessages(ctx context.Context, op, query string, args ...interface{}) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError(op, err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var (
			m    models.Message
			meta []byte
		)
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &meta, &m.CreatedAt); err != nil {
			return nil, apperrors.NewQueryExecutionFailedError(op, err)
		}
		if m.Metadata, err = unmarshalJSON(meta); err != nil {
			return nil, apperrors.NewQueryExecutionFailedError(op, err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError(op, err)
	}
	return messages, nil
}

func (s *PostgresStore) SaveAction(ctx context.Context, a *models.Action) error {
	parameters := a.Parameters
	if parameters == nil {
		parameters = map[string]interface{}{}
	}
	params, err := jsonColumn(parameters)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError("actions", err)
	}
	result, err := jsonColumn(a.Result)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError("actions", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO actions (id, conversation_id, action_type, parameters, result, status, executed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.ConversationID, a.ActionType, params, result, a.Status, a.ExecutedAt,
	)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError("actions", err)
	}
	return nil
}

func (s *PostgresStore) ListActions(ctx context.Context, conversationID string) ([]models.Action, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, action_type, parameters, result, status, executed_at
		 FROM actions WHERE conversation_id = $1 ORDER BY executed_at ASC`, conversationID,
	)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("list actions", err)
	}
	defer rows.Close()

	actions := []models.Action{}
	for rows.Next() {
		var (
			a              models.Action
			params, result []byte
		)
		if err := rows.Scan(&a.ID, &a.ConversationID, &a.ActionType, &params, &result, &a.Status, &a.ExecutedAt); err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("list actions", err)
		}
		if a.Parameters, err = unmarshalJSON(params); err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("list actions", err)
		}
		if a.Result, err = unmarshalJSON(result); err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("list actions", err)
		}
		actions = append(actions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("list actions", err)
	}
	return actions, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// jsonColumn encodes v for a JSONB column; a nil map is stored as NULL.
func jsonColumn(v map[string]interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json column: %w", err)
	}
	return data, nil
}

func unmarshalJSON(data []byte) (map[string]interface{}, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode json column: %w", err)
	}
	return out, nil
}
