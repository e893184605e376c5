package domain

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is a single transcript entry. Messages are never mutated
// after they are appended.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
