package domain

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single message in a negotiation conversation.
// Turns are immutable once appended; transcript order is append order.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserTurn builds a turn authored by the builder.
func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

// AssistantTurn builds a turn authored by the negotiation engine.
func AssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content}
}
