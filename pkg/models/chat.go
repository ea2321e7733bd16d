package models

// Chat roles on the wire. "model" is accepted as an alias for "assistant"
// for clients that follow the original Gemini-style role naming.
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
	ChatRoleModel     = "model"
)

// ChatTurn is one turn of a follow-up conversation about an analysis.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// IsUser reports whether the turn was authored by the diner.
func (t ChatTurn) IsUser() bool {
	return t.Role == ChatRoleUser
}
