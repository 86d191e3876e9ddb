// Package static implements an in-memory identity provider, useful for
// examples, local development, and integration-style tests. Sessions are
// driven programmatically through SignIn and SignOut.
package static

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	sessiongate "github.com/goliatone/go-sessiongate"
	"github.com/google/uuid"
)

// Identity is a static principal implementing sessiongate.Identity.
type Identity struct {
	UserID    string
	UserEmail string
	UserTier  sessiongate.Tier
}

func (i Identity) ID() string             { return i.UserID }
func (i Identity) Email() string          { return i.UserEmail }
func (i Identity) Tier() sessiongate.Tier { return i.UserTier }

// NewIdentity returns an identity with a generated ID.
func NewIdentity(email string, tier sessiongate.Tier) Identity {
	return Identity{
		UserID:    uuid.New().String(),
		UserEmail: email,
		UserTier:  tier,
	}
}

// Provider is a scripted sessiongate.IdentityProvider. Tokens are HS256
// JWTs signed with the configured key, carrying the identity's tier claim.
type Provider struct {
	signingKey []byte
	issuer     string
	tokenTTL   time.Duration

	mu       sync.Mutex
	current  sessiongate.Identity
	restored bool
	handlers map[int]func(sessiongate.Identity)
	nextID   int
}

// Option customizes provider construction.
type Option func(*Provider)

// WithIssuer sets the iss claim on minted tokens.
func WithIssuer(issuer string) Option {
	return func(p *Provider) {
		if issuer != "" {
			p.issuer = issuer
		}
	}
}

// WithTokenTTL sets minted token lifetime.
func WithTokenTTL(ttl time.Duration) Option {
	return func(p *Provider) {
		if ttl > 0 {
			p.tokenTTL = ttl
		}
	}
}

// WithRestoredIdentity seeds the identity reported by the initial
// subscription callback, simulating a provider that restored a session.
func WithRestoredIdentity(identity sessiongate.Identity) Option {
	return func(p *Provider) {
		p.current = identity
		p.restored = true
	}
}

// New creates a static provider.
func New(signingKey []byte, opts ...Option) *Provider {
	p := &Provider{
		signingKey: signingKey,
		issuer:     "static",
		tokenTTL:   time.Hour,
		handlers:   map[int]func(sessiongate.Identity){},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Subscribe implements sessiongate.IdentityProvider. The initial callback
// reflects the restored identity, or signed-out when none was seeded.
func (p *Provider) Subscribe(onChange func(sessiongate.Identity)) (func(), error) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.handlers[id] = onChange
	current := p.current
	p.mu.Unlock()

	onChange(current)

	return func() {
		p.mu.Lock()
		delete(p.handlers, id)
		p.mu.Unlock()
	}, nil
}

// Mint implements sessiongate.IdentityProvider.
func (p *Provider) Mint(ctx context.Context, identity sessiongate.Identity, force bool) (string, error) {
	if identity == nil {
		return "", fmt.Errorf("static: cannot mint for nil identity")
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	now := time.Now()
	claims := &sessiongate.TierClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.issuer,
			Subject:   identity.ID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.tokenTTL)),
			ID:        uuid.New().String(),
		},
		UID:              identity.ID(),
		SubscriptionTier: string(identity.Tier()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.signingKey)
	if err != nil {
		return "", fmt.Errorf("static: failed to sign token: %w", err)
	}
	return signed, nil
}

// Invalidate implements sessiongate.IdentityProvider.
func (p *Provider) Invalidate(ctx context.Context) error {
	p.SignOut()
	return nil
}

// SignIn scripts a provider-side sign-in, notifying subscribers.
func (p *Provider) SignIn(identity sessiongate.Identity) {
	p.mu.Lock()
	p.current = identity
	handlers := p.snapshotHandlers()
	p.mu.Unlock()

	for _, h := range handlers {
		h(identity)
	}
}

// SignOut scripts a provider-side sign-out, notifying subscribers.
func (p *Provider) SignOut() {
	p.mu.Lock()
	p.current = nil
	handlers := p.snapshotHandlers()
	p.mu.Unlock()

	for _, h := range handlers {
		h(nil)
	}
}

// snapshotHandlers must be called with p.mu held.
func (p *Provider) snapshotHandlers() []func(sessiongate.Identity) {
	handlers := make([]func(sessiongate.Identity), 0, len(p.handlers))
	for _, h := range p.handlers {
		handlers = append(handlers, h)
	}
	return handlers
}

var _ sessiongate.IdentityProvider = (*Provider)(nil)
