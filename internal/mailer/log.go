package mailer

import (
	"context"
	"log/slog"
)

// LogMailer writes the would-be email to the log instead of sending it.
// Used when no mailer API key is configured, typically in development.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendConfirmationCode(ctx context.Context, toEmail, name, code string) error {
	m.logger.InfoContext(ctx, "confirmation code issued", "to", toEmail, "code", code)
	return nil
}

func (m *LogMailer) SendPasswordResetCode(ctx context.Context, toEmail, name, code string) error {
	m.logger.InfoContext(ctx, "password reset code issued", "to", toEmail, "code", code)
	return nil
}
