package chat

import (
	"fmt"

	"github.com/google/uuid"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleSystem is reserved for the injected persona preamble and is never displayed.
	RoleSystem Role = "system"
)

// GreetingID is the fixed identifier of the synthetic opening message.
const GreetingID = "welcome"

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	default:
		return false
	}
}

// Message is one utterance in a conversation. Messages are immutable once created.
type Message struct {
	ID      string `json:"id,omitempty"`
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewMessage creates a message with a fresh identifier.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:      uuid.NewString(),
		Role:    role,
		Content: content,
	}
}

// Greeting builds the synthetic assistant message a conversation starts with.
func Greeting(content string) Message {
	return Message{ID: GreetingID, Role: RoleAssistant, Content: content}
}

// ValidateMessages checks that every entry is a well-formed {role, content} pair.
func ValidateMessages(messages []Message) error {
	if messages == nil {
		return fmt.Errorf("messages must be an array")
	}
	for i, msg := range messages {
		if !msg.Role.Valid() {
			return fmt.Errorf("message %d has invalid role %q", i, msg.Role)
		}
	}
	return nil
}

// Window returns the most recent limit messages for display.
// The returned slice aliases history; callers must not modify it.
func Window(history []Message, limit int) []Message {
	if limit <= 0 || len(history) <= limit {
		return history
	}
	return history[len(history)-limit:]
}
