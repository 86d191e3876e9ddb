package sessiongate

import "sync"

// IdentityEventKind enumerates normalized provider notifications.
type IdentityEventKind string

const (
	EventSignedIn  IdentityEventKind = "signed_in"
	EventSignedOut IdentityEventKind = "signed_out"
)

// IdentityEvent is one normalized identity change. Identity is nil for
// EventSignedOut.
type IdentityEvent struct {
	Kind     IdentityEventKind
	Identity Identity
}

// IdentityEventHandler consumes normalized identity events.
type IdentityEventHandler func(IdentityEvent)

// Bridge translates the identity provider's callback-registration mechanism
// into a normalized IdentityEvent stream. It does not coalesce or reorder;
// the provider is expected to deliver one callback per logical change.
type Bridge struct {
	provider IdentityProvider
	logger   Logger
}

// NewBridge wraps a provider's subscription model.
func NewBridge(provider IdentityProvider, logger Logger) *Bridge {
	if logger == nil {
		logger = defLogger{}
	}
	return &Bridge{provider: provider, logger: logger}
}

// Subscribe registers handler for identity events, including the initial
// event that reflects the provider's restored state. If the provider's
// mechanism fails to initialize, handler receives a synthetic signed-out
// event so subscribers never wait indefinitely, and ErrProviderUnavailable
// is returned alongside a no-op unsubscribe handle.
func (b *Bridge) Subscribe(handler IdentityEventHandler) (Unsubscribe, error) {
	var mu sync.Mutex
	stopped := false

	deliver := func(ev IdentityEvent) {
		mu.Lock()
		if stopped {
			mu.Unlock()
			return
		}
		mu.Unlock()
		handler(ev)
	}

	stop, err := b.provider.Subscribe(func(identity Identity) {
		if identity == nil {
			deliver(IdentityEvent{Kind: EventSignedOut})
			return
		}
		deliver(IdentityEvent{Kind: EventSignedIn, Identity: identity})
	})

	if err != nil {
		b.logger.Error("provider subscription failed, emitting synthetic sign-out: %v", err)
		handler(IdentityEvent{Kind: EventSignedOut})
		return func() {}, ErrProviderUnavailable.WithMetadata(map[string]any{
			"cause": err.Error(),
		})
	}

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			mu.Lock()
			stopped = true
			mu.Unlock()
			if stop != nil {
				stop()
			}
		})
	}

	return unsubscribe, nil
}
