// Package conversation holds chat messages and the bounded history window.
package conversation

import "fmt"

// Role is the author of a chat message.
type Role string

const (
	// RoleSystem carries instructions and injected context.
	RoleSystem Role = "system"
	// RoleUser is the end user.
	RoleUser Role = "user"
	// RoleAssistant is the model.
	RoleAssistant Role = "assistant"
)

// DefaultHistoryWindow is the number of trailing history entries sent to the model.
const DefaultHistoryWindow = 10

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleSystem, RoleUser, RoleAssistant:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Message is a single chat message.
type Message struct {
	Role    Role
	Content string
}

// Window returns a copy of the last n entries of history in their original order.
// n <= 0 yields an empty window.
func Window(history []Message, n int) []Message {
	if n <= 0 || len(history) == 0 {
		return nil
	}
	start := 0
	if len(history) > n {
		start = len(history) - n
	}
	out := make([]Message, len(history)-start)
	copy(out, history[start:])
	return out
}
