package sessiongate

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-errors"
)

// DefaultMintTimeout bounds token-mint and sign-out round-trips so a hung
// call can never wedge the state machine. Timeout is treated as failure.
const DefaultMintTimeout = 10 * time.Second

const defaultQueueSize = 16

// Subscriber receives every state transition, plus the current state
// immediately upon subscribing.
type Subscriber func(State)

type requestKind int

const (
	requestEvent requestKind = iota
	requestRefresh
	requestLogout
)

type storeRequest struct {
	kind  requestKind
	event IdentityEvent
	reply chan State
}

// Store is the single owner of session state. It consumes bridge events
// strictly sequentially: a second event does not begin processing until the
// prior transition, including its TokenCache side effect, has committed.
type Store struct {
	provider  IdentityProvider
	bridge    *Bridge
	cache     TokenCache
	validator TokenValidator
	logger    Logger
	sink      ActivitySink
	now       func() time.Time

	opTimeout time.Duration
	queueSize int

	mu    sync.RWMutex
	state State

	subMu       sync.Mutex
	subscribers map[int]Subscriber
	nextSubID   int

	requests    chan storeRequest
	done        chan struct{}
	loopDone    chan struct{}
	unsubscribe Unsubscribe
	startOnce   sync.Once
	closeOnce   sync.Once
	started     bool
}

// NewStore creates a Store for the given provider and cache. The store is
// inert until Start is called.
func NewStore(provider IdentityProvider, cache TokenCache, opts ...StoreOption) *Store {
	s := &Store{
		provider:    provider,
		cache:       cache,
		logger:      defLogger{},
		sink:        noopActivitySink{},
		now:         time.Now,
		opTimeout:   DefaultMintTimeout,
		queueSize:   defaultQueueSize,
		state:       State{Status: StatusInitializing, Tier: TierFree},
		subscribers: map[int]Subscriber{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if s.bridge == nil {
		s.bridge = NewBridge(provider, s.logger)
	}

	s.requests = make(chan storeRequest, s.queueSize)
	s.done = make(chan struct{})
	s.loopDone = make(chan struct{})

	return s
}

// Start restores the cached token, subscribes to the provider, and begins
// processing events. The returned error reflects provider subscription
// failure; the store still runs (anonymously) in that case.
func (s *Store) Start(ctx context.Context) error {
	var err error
	s.startOnce.Do(func() {
		s.started = true
		s.restoreCachedToken(ctx)

		go s.loop()

		s.unsubscribe, err = s.bridge.Subscribe(func(ev IdentityEvent) {
			select {
			case s.requests <- storeRequest{kind: requestEvent, event: ev}:
			case <-s.done:
			}
		})
	})
	return err
}

// Close stops event processing and releases the provider subscription. It is
// idempotent and safe to call from any goroutine.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		if !s.started {
			return
		}
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		close(s.done)
		<-s.loopDone
	})
}

// Current returns a snapshot of the session state. It never blocks on I/O.
func (s *Store) Current() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers handler for every state transition. The current state
// is delivered synchronously before Subscribe returns, so late subscribers
// never miss the state they joined in.
//
// Transitions are delivered on the store's processing goroutine: a handler
// may call Subscribe or an unsubscribe from inside its callback, but it must
// not wait on Refresh or Logout without a context deadline, since the loop
// cannot service those requests until the handler returns. The initial
// replay call is the one place nested Subscribe calls are not allowed; it
// runs while the subscriber table is locked.
func (s *Store) Subscribe(handler Subscriber) Unsubscribe {
	if handler == nil {
		return func() {}
	}

	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = handler
	handler(s.Current())
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers, id)
			s.subMu.Unlock()
		})
	}
}

// Refresh re-mints the token for the held identity. On failure the session
// fails closed to Anonymous with a cleared cache. Refreshing an Anonymous or
// Initializing session is a no-op returning the current state.
func (s *Store) Refresh(ctx context.Context) State {
	return s.enqueue(ctx, storeRequest{kind: requestRefresh, reply: make(chan State, 1)})
}

// Logout asks the provider to invalidate the session, then unconditionally
// transitions to Anonymous and clears the cache, even when the provider-side
// call fails.
func (s *Store) Logout(ctx context.Context) State {
	return s.enqueue(ctx, storeRequest{kind: requestLogout, reply: make(chan State, 1)})
}

func (s *Store) enqueue(ctx context.Context, req storeRequest) State {
	select {
	case s.requests <- req:
	case <-s.done:
		return s.Current()
	case <-ctx.Done():
		return s.Current()
	}

	select {
	case state := <-req.reply:
		return state
	case <-s.done:
		return s.Current()
	case <-ctx.Done():
		return s.Current()
	}
}

func (s *Store) loop() {
	defer close(s.loopDone)
	for {
		select {
		case <-s.done:
			return
		case req := <-s.requests:
			s.process(req)
		}
	}
}

func (s *Store) process(req storeRequest) {
	ctx := context.Background()

	var next State
	switch req.kind {
	case requestEvent:
		next = s.applyEvent(ctx, req.event)
	case requestRefresh:
		next = s.applyRefresh(ctx)
	case requestLogout:
		next = s.applyLogout(ctx)
	}

	if req.reply != nil {
		req.reply <- next
	}
}

func (s *Store) applyEvent(ctx context.Context, ev IdentityEvent) State {
	switch ev.Kind {
	case EventSignedIn:
		return s.authenticate(ctx, ev.Identity)
	case EventSignedOut:
		return s.transitionAnonymous(ctx, ActivityEventSessionAnonymous, nil)
	default:
		s.logger.Warn("ignoring unknown identity event kind: %s", ev.Kind)
		return s.Current()
	}
}

// authenticate force-mints a token for identity and commits the transition.
// Minting always bypasses the provider-side token cache so entitlement
// changes (e.g. a tier upgrade) are reflected within one sign-in cycle.
func (s *Store) authenticate(ctx context.Context, identity Identity) State {
	if identity == nil {
		return s.transitionAnonymous(ctx, ActivityEventSessionAnonymous, nil)
	}

	token, err := s.mint(ctx, identity)
	if err != nil {
		s.logger.Error("token mint failed for %s: %v", identity.ID(), err)
		return s.transitionAnonymous(ctx, ActivityEventTokenMintFailure, map[string]any{
			"identity_id": identity.ID(),
			"cause":       err.Error(),
		})
	}

	return s.transitionAuthenticated(ctx, identity, token, ActivityEventSessionAuthenticated)
}

func (s *Store) applyRefresh(ctx context.Context) State {
	current := s.Current()
	if !current.Authenticated() {
		return current
	}

	token, err := s.mint(ctx, current.Identity)
	if err != nil {
		s.logger.Error("refresh mint failed for %s: %v", current.Identity.ID(), err)
		return s.transitionAnonymous(ctx, ActivityEventTokenMintFailure, map[string]any{
			"identity_id": current.Identity.ID(),
			"cause":       err.Error(),
		})
	}

	return s.transitionAuthenticated(ctx, current.Identity, token, ActivityEventTokenRefreshed)
}

func (s *Store) applyLogout(ctx context.Context) State {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.provider.Invalidate(opCtx); err != nil {
		// local logout proceeds regardless
		failure := errors.Wrap(err, ErrInvalidateFailed.Category, ErrInvalidateFailed.Message).
			WithTextCode(ErrInvalidateFailed.TextCode)
		s.logger.Warn("provider invalidate failed, logging out locally: %v", failure)
		s.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventInvalidateFailure,
			Metadata:  map[string]any{"cause": failure.Error()},
		})
	}

	return s.transitionAnonymous(ctx, ActivityEventLogout, nil)
}

func (s *Store) mint(ctx context.Context, identity Identity) (string, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	token, err := s.provider.Mint(opCtx, identity, true)
	if err != nil {
		return "", ErrTokenMintFailed.WithMetadata(map[string]any{
			"identity_id": identity.ID(),
			"cause":       err.Error(),
		})
	}
	return token, nil
}

// transitionAuthenticated writes the cache mirror before publishing so no
// subscriber can observe an authenticated status with an empty cache. A
// failed cache write fails the transition closed: a session whose token
// cannot be mirrored is treated like a failed mint.
func (s *Store) transitionAuthenticated(ctx context.Context, identity Identity, token string, event ActivityEventType) State {
	if err := s.cache.Set(ctx, token); err != nil {
		s.logger.Error("token cache write failed: %v", err)
		return s.transitionAnonymous(ctx, ActivityEventTokenMintFailure, map[string]any{
			"identity_id": identity.ID(),
			"cause":       err.Error(),
		})
	}

	tier := identity.Tier()
	if claimTier, ok := TierFromToken(token); ok {
		tier = claimTier
	}

	refreshedAt := s.now()
	next := State{
		Status:          StatusAuthenticated,
		Identity:        identity,
		Token:           token,
		Tier:            tier,
		LastRefreshedAt: &refreshedAt,
	}

	from := s.publish(next)
	s.recordActivity(ctx, ActivityEvent{
		EventType:  event,
		IdentityID: identity.ID(),
		FromStatus: from.Status,
		ToStatus:   next.Status,
	})
	return next
}

func (s *Store) transitionAnonymous(ctx context.Context, event ActivityEventType, metadata map[string]any) State {
	if err := s.cache.Clear(ctx); err != nil {
		s.logger.Error("token cache clear failed: %v", err)
	}

	next := anonymousState()

	// an anonymous session stays anonymous; nothing to publish
	if current := s.Current(); current.Anonymous() {
		return current
	}
	from := s.publish(next)

	activity := ActivityEvent{
		EventType:  event,
		FromStatus: from.Status,
		ToStatus:   next.Status,
		Metadata:   metadata,
	}
	if from.Identity != nil {
		activity.IdentityID = from.Identity.ID()
	}
	s.recordActivity(ctx, activity)
	return next
}

// publish commits next as the current state and delivers it to every
// subscriber. The handler set is snapshotted under the subscriber lock and
// delivery happens outside it, so a handler may register or remove
// subscriptions from inside its own callback. Only the processing loop
// publishes, which keeps deliveries ordered per handler.
func (s *Store) publish(next State) State {
	s.mu.Lock()
	from := s.state
	s.state = next
	s.mu.Unlock()

	s.subMu.Lock()
	handlers := make([]Subscriber, 0, len(s.subscribers))
	for _, handler := range s.subscribers {
		handlers = append(handlers, handler)
	}
	s.subMu.Unlock()

	for _, handler := range handlers {
		handler(next)
	}

	return from
}

// restoreCachedToken drops a cached token that no longer validates, so a
// reload never trusts a stale mirror. The cache itself never checks expiry.
func (s *Store) restoreCachedToken(ctx context.Context) {
	token, ok, err := s.cache.Get(ctx)
	if err != nil {
		s.logger.Warn("unable to read cached token: %v", err)
		return
	}
	if !ok || s.validator == nil {
		return
	}

	if _, err := s.validator.Validate(token); err != nil {
		s.logger.Info("dropping restored token: %v", err)
		if err := s.cache.Clear(ctx); err != nil {
			s.logger.Warn("unable to clear stale token: %v", err)
		}
	}
}

func (s *Store) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now()
	}

	sink := normalizeActivitySink(s.sink)
	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("session activity sink error: %v", err)
	}
}
