package auth

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// RegisterUserMessage is the registration command payload
type RegisterUserMessage struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Role       string `json:"role"`
	Password   string `json:"password"`
	OnResponse func(summary *UserSummary)
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// RegisterUserHandler executes registrations dispatched over a command bus
type RegisterUserHandler struct {
	auther *Auther
}

// NewRegisterUserHandler creates a handler backed by the given orchestrator
func NewRegisterUserHandler(auther *Auther) *RegisterUserHandler {
	return &RegisterUserHandler{auther: auther}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	summary, err := h.auther.Register(ctx, event)
	if err != nil {
		return err
	}

	if event.OnResponse != nil {
		event.OnResponse(summary)
	}

	return nil
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}
