package email

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// LogSender implements Sender by logging the message instead of delivering
// it. It is selected with EMAIL_PROVIDER=log for local development.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a sender that writes messages to logger.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

// Name implements Sender.
func (l *LogSender) Name() string {
	return "log"
}

// Send logs the message and reports success.
func (l *LogSender) Send(ctx context.Context, email *Email) (string, error) {
	if len(email.To) == 0 {
		return "", ErrNoRecipients
	}
	id := "log-" + uuid.NewString()
	l.logger.InfoContext(ctx, "email: not delivered (log transport)",
		"message_id", id,
		"from", email.From,
		"to", email.To,
		"cc", email.Cc,
		"bcc", email.Bcc,
		"subject", email.Subject,
		"body", email.TextBody,
	)
	return id, nil
}
