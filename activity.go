package auth

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventAccountStateChanged     ActivityEventType = "account.state.changed"
	ActivityEventSignup                  ActivityEventType = "account.signup"
	ActivityEventLoginSuccess            ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure            ActivityEventType = "auth.login.failure"
	ActivityEventPasswordResetRequested  ActivityEventType = "auth.password.reset_requested"
	ActivityEventPasswordResetSuccess    ActivityEventType = "auth.password.reset"
	ActivityEventPasswordUpdated         ActivityEventType = "auth.password.updated"
	ActivityEventProfileUpdated          ActivityEventType = "account.profile.updated"
	ActivityEventEmailDeliveryRolledBack ActivityEventType = "auth.email.rolled_back"
)

// ActorRef identifies who or what triggered an action.
type ActorRef struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type,omitempty"`
}

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType `json:"event_type"`
	Actor      ActorRef          `json:"actor"`
	AccountID  string            `json:"account_id,omitempty"`
	FromState  AccountState      `json:"from_state,omitempty"`
	ToState    AccountState      `json:"to_state,omitempty"`
	Metadata   map[string]any    `json:"metadata,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
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

// activityRecorder publishes events best effort, sink failures are only logged.
type activityRecorder struct {
	sink   ActivitySink
	logger Logger
	now    Clock
}

func (r activityRecorder) record(ctx context.Context, event ActivityEvent) {
	if event.Actor == (ActorRef{}) {
		event.Actor = ActorRef{ID: event.AccountID, Type: "account"}
		if event.AccountID == "" {
			event.Actor = ActorRef{Type: "system"}
		}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = r.now()
	}

	sink := normalizeActivitySink(r.sink)
	if err := sink.Record(ctx, event); err != nil {
		r.logger.Warn("activity sink error: %v", err)
	}
}
