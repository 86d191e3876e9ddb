package sessiongate

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of a provider-owned principal. The core only
// keeps a reference for the duration of the session.
type Identity interface {
	ID() string
	Email() string
	Tier() Tier
}

// IdentityProvider is the boundary the core requires from the external
// identity provider. Any richer provider API is unused.
type IdentityProvider interface {
	// Subscribe registers onChange to be invoked once per identity change,
	// starting with the provider's restored state. A nil identity means
	// signed out. The returned stop function detaches the callback.
	Subscribe(onChange func(Identity)) (stop func(), err error)

	// Mint issues a short-lived access token for the identity. force
	// bypasses any provider-side token cache.
	Mint(ctx context.Context, identity Identity, force bool) (string, error)

	// Invalidate asks the provider to end the current session server-side.
	Invalidate(ctx context.Context) error
}

// Unsubscribe detaches a previously registered handler. Implementations are
// idempotent.
type Unsubscribe func()

// TokenCache mirrors the current access token under a fixed key so it
// survives a client restart. It never validates expiry; that is the Store's
// job. The Store is the only writer.
type TokenCache interface {
	Set(ctx context.Context, token string) error
	Get(ctx context.Context) (token string, ok bool, err error)
	Clear(ctx context.Context) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SESSION "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] SESSION "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SESSION "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SESSION "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
