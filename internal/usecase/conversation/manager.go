// Package conversation assembles the ordered message list for one completion call.
package conversation

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	conv "github.com/kailas-cloud/supportdesk/internal/domain/conversation"
)

// NoContextNotice replaces the context message when retrieval found nothing.
const NoContextNotice = "No relevant knowledge base context was found for this question. " +
	"Still try to help with general guidance, do not invent company-specific facts, " +
	"and follow the escalation policy if you cannot answer."

const contextHeader = "Knowledge base context (answer only from this):\n\n"

const defaultPolicy = `You are a friendly customer support assistant for %[1]s.
Answer clearly and concisely using only the provided knowledge base context.
If the context does not contain the answer, or the user asks for a human, tell them to email %[2]s and that the team will follow up.
Never make up prices, policies or order details.`

// Config configures the manager.
type Config struct {
	HistoryWindow int    // <= 0 uses conv.DefaultHistoryWindow
	CompanyName   string
	SupportEmail  string
	SystemPrompt  string // overrides the built-in policy when non-empty
}

// Manager owns the session id policy and message ordering.
type Manager struct {
	window       int
	instructions string
	newID        func() string
}

// New creates a Manager.
func New(cfg Config) *Manager {
	window := cfg.HistoryWindow
	if window <= 0 {
		window = conv.DefaultHistoryWindow
	}
	instructions := strings.TrimSpace(cfg.SystemPrompt)
	if instructions == "" {
		instructions = fmt.Sprintf(defaultPolicy, cfg.CompanyName, cfg.SupportEmail)
	}
	return &Manager{
		window:       window,
		instructions: instructions,
		newID:        func() string { return uuid.NewString() },
	}
}

// Instructions returns the behavioural and escalation policy message.
func (m *Manager) Instructions() string { return m.instructions }

// Window returns the history window size.
func (m *Manager) Window() int { return m.window }

// SessionID returns the caller's id unchanged when non-blank, otherwise a new UUIDv4.
func (m *Manager) SessionID(supplied string) string {
	if strings.TrimSpace(supplied) != "" {
		return supplied
	}
	return m.newID()
}

// BuildMessages returns exactly
// [system instructions, system context or no-context notice, ...last N history, user query].
func (m *Manager) BuildMessages(
	instructions, context string, history []conv.Message, query string,
) []conv.Message {
	capped := conv.Window(history, m.window)

	out := make([]conv.Message, 0, len(capped)+3)
	out = append(out, conv.Message{Role: conv.RoleSystem, Content: instructions})
	out = append(out, contextMessage(context))
	out = append(out, capped...)
	out = append(out, conv.Message{Role: conv.RoleUser, Content: query})
	return out
}

func contextMessage(context string) conv.Message {
	if strings.TrimSpace(context) == "" {
		return conv.Message{Role: conv.RoleSystem, Content: NoContextNotice}
	}
	return conv.Message{Role: conv.RoleSystem, Content: contextHeader + context}
}
