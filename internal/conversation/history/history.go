// Package history models the prior turns handed to the pipeline.
package history

import "voice-agent-workers/internal/common/llm"

const (
	RoleUser  = "user"
	RoleAgent = "agent"

	DefaultWindow       = 10
	DefaultPromptWindow = 6
)

type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Last returns the n most recent turns, oldest first. The result never
// aliases turns.
func Last(turns []Turn, n int) []Turn {
	if n <= 0 || len(turns) == 0 {
		return []Turn{}
	}
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// Messages maps turns onto completion messages. Agent turns become
// assistant messages; anything else is sent as the user.
func Messages(turns []Turn) []llm.Message {
	out := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		role := llm.RoleUser
		if t.Role == RoleAgent || t.Role == llm.RoleAssistant {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Content: t.Text})
	}
	return out
}
