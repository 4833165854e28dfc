package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// ErrInvalidTransition is returned when a requested status change is not allowed.
var ErrInvalidTransition = goerrors.New("invalid user status transition", goerrors.CategoryValidation).
	WithTextCode("INVALID_USER_STATUS_TRANSITION").
	WithCode(goerrors.CodeBadRequest)

// ActorRef identifies who/what triggered a transition.
type ActorRef struct {
	ID   string
	Type string
}

// UserStateMachine guards administrative account status changes. The core
// auth flows never call Transition; it exists for admin tooling.
type UserStateMachine interface {
	Transition(ctx context.Context, actor ActorRef, user *User, target UserStatus) (*User, error)
	CurrentStatus(user *User) UserStatus
}

var allowedStatusTransitions = map[UserStatus][]UserStatus{
	UserStatusActive:   {UserStatusDisabled},
	UserStatusDisabled: {UserStatusActive},
}

// StateMachineOption customizes state machine construction.
type StateMachineOption func(*userStateMachine)

// WithStateMachineClock injects a custom clock (useful for tests).
func WithStateMachineClock(clock func() time.Time) StateMachineOption {
	return func(sm *userStateMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

// WithStateMachineActivitySink sets the ActivitySink used to publish lifecycle events.
func WithStateMachineActivitySink(sink ActivitySink) StateMachineOption {
	return func(sm *userStateMachine) {
		sm.activitySink = normalizeActivitySink(sink)
	}
}

// WithStateMachineLogger overrides the logger used for sink failures.
func WithStateMachineLogger(logger Logger) StateMachineOption {
	return func(sm *userStateMachine) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

type userStateMachine struct {
	repo         Users
	now          func() time.Time
	logger       Logger
	activitySink ActivitySink
}

// NewUserStateMachine creates a state machine persisting through the given repository
func NewUserStateMachine(repo Users, opts ...StateMachineOption) UserStateMachine {
	sm := &userStateMachine{
		repo:         repo,
		now:          time.Now,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}
	return sm
}

func (sm *userStateMachine) CurrentStatus(user *User) UserStatus {
	if user == nil {
		return UserStatusActive
	}
	user.EnsureStatus()
	return user.Status
}

func (sm *userStateMachine) Transition(ctx context.Context, actor ActorRef, user *User, target UserStatus) (*User, error) {
	if user == nil {
		return nil, goerrors.New("user is required for a status transition", goerrors.CategoryBadInput)
	}

	from := sm.CurrentStatus(user)
	if from == target {
		return user, nil
	}

	if !isAllowedStatusTransition(from, target) {
		sm.logger.Warn("rejected status transition", "from", from, "to", target)
		return nil, ErrInvalidTransition
	}

	updated, err := sm.repo.UpdateStatus(ctx, user.ID, target)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist status transition")
	}

	evt := ActivityEvent{
		EventType:  ActivityEventUserStatusChanged,
		UserID:     user.ID.String(),
		FromStatus: from,
		ToStatus:   target,
		OccurredAt: sm.now(),
		Metadata: map[string]any{
			"actor_id":   actor.ID,
			"actor_type": actor.Type,
		},
	}
	if err := sm.activitySink.Record(ctx, evt); err != nil {
		sm.logger.Error("failed to record status transition event", "error", err)
	}

	return updated, nil
}

func isAllowedStatusTransition(from, to UserStatus) bool {
	for _, allowed := range allowedStatusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
