package escalation

import (
	"context"
	"strings"

	"go.uber.org/zap"

	domesc "github.com/kailas-cloud/supportdesk/internal/domain/escalation"
	"github.com/kailas-cloud/supportdesk/internal/metrics"
)

// Mailer delivers a plain-text e-mail.
type Mailer interface {
	SendMail(ctx context.Context, to, subject, body string) error
}

// Notifier sends escalation e-mails. Without a mailer or recipient it is a silent no-op.
type Notifier struct {
	mailer Mailer
	to     string
	logger *zap.Logger
}

// NewNotifier creates a notifier. mailer may be nil.
func NewNotifier(mailer Mailer, to string, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{mailer: mailer, to: strings.TrimSpace(to), logger: logger}
}

// Configured reports whether notifications will actually be sent.
func (n *Notifier) Configured() bool {
	return n != nil && n.mailer != nil && n.to != ""
}

// Notify sends one escalation e-mail. Failures are logged and swallowed.
// Returns true when the message was handed to the mailer successfully.
func (n *Notifier) Notify(ctx context.Context, e *domesc.Escalation) bool {
	if !n.Configured() {
		return false
	}

	if err := n.mailer.SendMail(ctx, n.to, e.Subject(), e.Body()); err != nil {
		metrics.SinkFailuresTotal.WithLabelValues("notify").Inc()
		n.logger.Warn("escalation notification failed",
			zap.String("session_id", e.SessionID),
			zap.Error(err),
		)
		return false
	}

	n.logger.Info("escalation notification sent", zap.String("session_id", e.SessionID))
	return true
}
