package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// ResendVerificationMessage asks for a fresh verification code. Any
// outstanding code is invalidated when the new one is stored.
type ResendVerificationMessage struct {
	Email string `json:"email"`
}

func (e ResendVerificationMessage) Type() string { return "user.resend_verification" }

// ResendVerificationHandler executes code resends dispatched over a command bus
type ResendVerificationHandler struct {
	auther *Auther
}

// NewResendVerificationHandler creates a handler backed by the given orchestrator
func NewResendVerificationHandler(auther *Auther) *ResendVerificationHandler {
	return &ResendVerificationHandler{auther: auther}
}

func (h *ResendVerificationHandler) Execute(ctx context.Context, event ResendVerificationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during verification code resend",
		)
	default:
		return h.auther.ResendVerificationCode(ctx, event.Email)
	}
}
