// internal/workers/conversation/process-message/models.go
package processmessage

type Input struct {
	ConversationID string                 `json:"conversationId,omitempty"`
	Persona        string                 `json:"persona,omitempty"`
	Message        string                 `json:"message"`
	CustomerName   string                 `json:"customerName,omitempty"`
	CustomerPhone  string                 `json:"customerPhone,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

type Output struct {
	ConversationID string            `json:"conversationId"`
	MessageID      string            `json:"messageId"`
	Response       string            `json:"response"`
	ActionsTaken   []string          `json:"actionsTaken"`
	NextStep       string            `json:"nextStep"`
	Entities       map[string]string `json:"entities"`
	Intent         string            `json:"intent"`
	Confidence     float64           `json:"confidence"`
	// NeedsHuman lets the process route to a human task without parsing
	// nextStep.
	NeedsHuman bool `json:"needsHuman"`
}
