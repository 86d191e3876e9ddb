package sessiongate

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventSessionAuthenticated ActivityEventType = "session.authenticated"
	ActivityEventSessionAnonymous     ActivityEventType = "session.anonymous"
	ActivityEventTokenRefreshed       ActivityEventType = "session.token.refreshed"
	ActivityEventTokenMintFailure     ActivityEventType = "session.token.mint_failure"
	ActivityEventLogout               ActivityEventType = "session.logout"
	ActivityEventInvalidateFailure    ActivityEventType = "session.invalidate_failure"
)

// ActivityEvent captures audit-friendly information about a transition.
type ActivityEvent struct {
	EventType  ActivityEventType
	IdentityID string
	FromStatus Status
	ToStatus   Status
	Metadata   map[string]any
	OccurredAt time.Time
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
