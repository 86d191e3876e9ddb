package sessiongate

import (
	"context"
)

var sessionCtxKey = &contextKey{"session"}
var verdictCtxKey = &contextKey{"verdict"}

type contextKey struct {
	name string
}

// WithContext sets the session State in the given context
func WithContext(r context.Context, state State) context.Context {
	return context.WithValue(r, sessionCtxKey, state)
}

// FromContext finds the session State from the context.
func FromContext(ctx context.Context) (State, bool) {
	raw, ok := ctx.Value(sessionCtxKey).(State)
	return raw, ok
}

// WithVerdictContext sets the access Verdict in the given context
func WithVerdictContext(r context.Context, verdict Verdict) context.Context {
	return context.WithValue(r, verdictCtxKey, verdict)
}

// VerdictFromContext extracts the access Verdict from the context
func VerdictFromContext(ctx context.Context) (Verdict, bool) {
	raw, ok := ctx.Value(verdictCtxKey).(Verdict)
	return raw, ok
}

// TierFromContext is a convenience to read the session tier directly from
// the context, defaulting to free when no session was attached.
func TierFromContext(ctx context.Context) Tier {
	state, ok := FromContext(ctx)
	if !ok || !state.Authenticated() {
		return TierFree
	}
	return state.Tier
}
