package mailer

import (
	"context"
	"log/slog"
)

// ConsoleMailer logs messages instead of sending them. Used in development
// when no SMTP relay is configured.
type ConsoleMailer struct {
	logger *slog.Logger
}

func NewConsoleMailer(logger *slog.Logger) *ConsoleMailer {
	return &ConsoleMailer{logger: logger}
}

func (m *ConsoleMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("email (console)",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.TextBody)
	return nil
}
