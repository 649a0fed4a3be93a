package portal

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ActivityEventType enumerates portal activity categories.
type ActivityEventType string

const (
	ActivityEventSignIn             ActivityEventType = "portal.sign_in"
	ActivityEventSignUp             ActivityEventType = "portal.sign_up"
	ActivityEventSignOut            ActivityEventType = "portal.sign_out"
	ActivityEventSocialSignIn       ActivityEventType = "portal.social_sign_in"
	ActivityEventPasswordForgot     ActivityEventType = "portal.password.forgot"
	ActivityEventPasswordReset      ActivityEventType = "portal.password.reset"
	ActivityEventTwoFactorEnabled   ActivityEventType = "portal.two_factor.enabled"
	ActivityEventTwoFactorDisabled  ActivityEventType = "portal.two_factor.disabled"
	ActivityEventTwoFactorChallenge ActivityEventType = "portal.two_factor.challenge"
)

// ActivityOutcome is how a submit settled.
type ActivityOutcome string

const (
	OutcomeSuccess    ActivityOutcome = "success"
	OutcomeFailure    ActivityOutcome = "failure"
	OutcomeSuperseded ActivityOutcome = "superseded"
)

// ActivityEvent describes one settled submit. It never carries secrets.
type ActivityEvent struct {
	ID         string
	Type       ActivityEventType
	UserID     string
	Email      string
	Screen     string
	Outcome    ActivityOutcome
	Message    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

// recordActivity is best effort: sink failures are logged and swallowed.
func recordActivity(ctx context.Context, sink ActivitySink, logger Logger, now func() time.Time, event ActivityEvent) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = now()
	}
	if err := normalizeActivitySink(sink).Record(ctx, event); err != nil {
		logger.Warn("activity sink error", "type", event.Type, "error", err)
	}
}
