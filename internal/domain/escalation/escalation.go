// Package escalation describes a hand-off to human support.
package escalation

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/supportdesk/internal/domain/conversation"
)

// Escalation is the session context mailed to the support team.
type Escalation struct {
	SessionID string
	PageURL   string
	ClientIP  string
	Question  string
	Answer    string
	History   []conversation.Message
	At        time.Time
}

// Subject returns the notification subject line.
func (e *Escalation) Subject() string {
	return fmt.Sprintf("Support escalation for session %s", e.SessionID)
}

// Body renders a plain-text notification including the full supplied history.
func (e *Escalation) Body() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\n", e.SessionID)
	fmt.Fprintf(&b, "Time: %s\n", e.At.UTC().Format(time.RFC3339))
	if e.PageURL != "" {
		fmt.Fprintf(&b, "Page: %s\n", e.PageURL)
	}
	if e.ClientIP != "" {
		fmt.Fprintf(&b, "Client IP: %s\n", e.ClientIP)
	}
	fmt.Fprintf(&b, "\nQuestion:\n%s\n\nAnswer:\n%s\n", e.Question, e.Answer)

	b.WriteString("\nConversation history:\n")
	if len(e.History) == 0 {
		b.WriteString("(none)\n")
	}
	for _, m := range e.History {
		fmt.Fprintf(&b, "[%s] %s\n", m.Role, m.Content)
	}
	return b.String()
}
