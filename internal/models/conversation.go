package models

import "time"

const (
	ConversationActive      = "active"
	ConversationTransferred = "transferred"
	ConversationCompleted   = "completed"
	ConversationFailed      = "failed"

	RoleUser  = "user"
	RoleAgent = "agent"

	ActionCompleted = "completed"
	ActionFailed    = "failed"
)

// Conversation is one customer session with a persona.
type Conversation struct {
	ID            string     `json:"id" db:"id"`
	PersonaKey    string     `json:"personaKey" db:"persona_key"`
	CustomerName  string     `json:"customerName,omitempty" db:"customer_name"`
	CustomerPhone string     `json:"customerPhone,omitempty" db:"customer_phone"`
	Status        string     `json:"status" db:"status"`
	StartedAt     time.Time  `json:"startedAt" db:"started_at"`
	EndedAt       *time.Time `json:"endedAt,omitempty" db:"ended_at"`
}

// Message is one turn of a conversation.
type Message struct {
	ID             string                 `json:"id" db:"id"`
	ConversationID string                 `json:"conversationId" db:"conversation_id"`
	Role           string                 `json:"role" db:"role"`
	Content        string                 `json:"content" db:"content"`
	Metadata       map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	CreatedAt      time.Time              `json:"createdAt" db:"created_at"`
}

// Action records a tool the agent ran on the customer's behalf.
type Action struct {
	ID             string                 `json:"id" db:"id"`
	ConversationID string                 `json:"conversationId" db:"conversation_id"`
	ActionType     string                 `json:"actionType" db:"action_type"`
	Parameters     map[string]interface{} `json:"parameters" db:"parameters"`
	Result         map[string]interface{} `json:"result,omitempty" db:"result"`
	Status         string                 `json:"status" db:"status"`
	ExecutedAt     time.Time              `json:"executedAt" db:"executed_at"`
}

// IsOpen reports whether the conversation still accepts messages.
func (c *Conversation) IsOpen() bool {
	return c.Status == ConversationActive || c.Status == ConversationTransferred
}
