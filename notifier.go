package auth

import (
	"context"
)

// LogNotifier writes codes to the logger instead of delivering them.
// Useful for development and tests; production wires a real mail sender.
type LogNotifier struct {
	logger Logger
}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(logger Logger) *LogNotifier {
	if logger == nil {
		logger = defLogger{}
	}
	return &LogNotifier{logger: logger}
}

// SendVerificationCode satisfies the Notifier interface
func (n *LogNotifier) SendVerificationCode(_ context.Context, email, code string) error {
	n.logger.Info("verification code issued", "email", email, "code", code)
	return nil
}

var _ Notifier = (*LogNotifier)(nil)
