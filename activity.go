package auth

import (
	"context"
	"time"
)

// ActivityEventType identifies an auth lifecycle event
type ActivityEventType = string

const (
	ActivityEventUserRegistered    ActivityEventType = "auth.user_registered"
	ActivityEventEmailVerified     ActivityEventType = "auth.email_verified"
	ActivityEventLoginSuccess      ActivityEventType = "auth.login_success"
	ActivityEventLoginFailure      ActivityEventType = "auth.login_failure"
	ActivityEventCodeResent        ActivityEventType = "auth.code_resent"
	ActivityEventUserStatusChanged ActivityEventType = "auth.user_status_changed"
)

// ActivityEvent is a record of something that happened during an auth flow.
// Events never carry passwords, hashes, or outstanding codes.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     string
	FromStatus UserStatus
	ToStatus   UserStatus
	OccurredAt time.Time
	Metadata   map[string]any
}

// ActivitySink receives auth events. Sink failures are logged and never
// interrupt the flow that emitted the event.
type ActivitySink interface {
	Record(ctx context.Context, evt ActivityEvent) error
}

// ActivitySinkFunc adapts a function into an ActivitySink
type ActivitySinkFunc func(ctx context.Context, evt ActivityEvent) error

// Record satisfies the ActivitySink interface
func (f ActivitySinkFunc) Record(ctx context.Context, evt ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, evt)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error { return nil }

func normalizeActivitySink(sink ActivitySink) ActivitySink {
	if sink == nil {
		return noopActivitySink{}
	}
	return sink
}
