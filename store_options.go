package sessiongate

import "time"

// StoreOption customizes store construction.
type StoreOption func(*Store)

// WithLogger overrides the default logger.
func WithLogger(logger Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) StoreOption {
	return func(s *Store) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithMintTimeout bounds token-mint and sign-out round-trips. A timed-out
// call counts as failure.
func WithMintTimeout(timeout time.Duration) StoreOption {
	return func(s *Store) {
		if timeout > 0 {
			s.opTimeout = timeout
		}
	}
}

// WithActivitySink sets the ActivitySink used to publish lifecycle events.
func WithActivitySink(sink ActivitySink) StoreOption {
	return func(s *Store) {
		s.sink = normalizeActivitySink(sink)
	}
}

// WithTokenValidator enables startup validation of the restored cached
// token. Without one, restored tokens are passed through untouched.
func WithTokenValidator(validator TokenValidator) StoreOption {
	return func(s *Store) {
		s.validator = validator
	}
}

// WithBridge substitutes a preconstructed bridge, mostly for tests.
func WithBridge(bridge *Bridge) StoreOption {
	return func(s *Store) {
		if bridge != nil {
			s.bridge = bridge
		}
	}
}

// WithQueueSize sets the pending-event buffer between the bridge and the
// store loop.
func WithQueueSize(size int) StoreOption {
	return func(s *Store) {
		if size > 0 {
			s.queueSize = size
		}
	}
}
