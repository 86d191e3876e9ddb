package sessiongate

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Config holds store options in a declarative form, for callers that load
// settings from files or the environment instead of wiring options by hand.
type Config struct {
	// MintTimeoutSeconds bounds mint/invalidate round-trips. Zero uses
	// DefaultMintTimeout.
	MintTimeoutSeconds int `json:"mint_timeout_seconds,omitempty"`

	// QueueSize is the pending-event buffer size. Zero uses the default.
	QueueSize int `json:"queue_size,omitempty"`

	// CacheKey overrides the fixed token storage key.
	CacheKey string `json:"cache_key,omitempty"`

	// JWKSURL, when set, enables JWKS validation of restored tokens.
	JWKSURL string `json:"jwks_url,omitempty"`

	// Issuer is enforced during restored-token validation when set.
	Issuer string `json:"issuer,omitempty"`

	// Audience is enforced during restored-token validation when set.
	Audience []string `json:"audience,omitempty"`
}

// Validate checks configuration values.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.MintTimeoutSeconds, validation.Min(0)),
		validation.Field(&c.QueueSize, validation.Min(0)),
	)
}

// Options expands the config into store options. When JWKSURL is set the
// key set is fetched eagerly and a validator for restored tokens is wired
// in; ctx bounds its background key refresh.
func (c Config) Options(ctx context.Context) ([]StoreOption, error) {
	opts := []StoreOption{}
	if c.MintTimeoutSeconds > 0 {
		opts = append(opts, WithMintTimeout(time.Duration(c.MintTimeoutSeconds)*time.Second))
	}
	if c.QueueSize > 0 {
		opts = append(opts, WithQueueSize(c.QueueSize))
	}
	if c.JWKSURL != "" {
		validator, err := NewJWKSTokenValidator(ctx, JWKSValidatorConfig{
			URL:      c.JWKSURL,
			Issuer:   c.Issuer,
			Audience: c.Audience,
		})
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithTokenValidator(validator))
	}
	return opts, nil
}

// CacheOptions expands the config into token cache options.
func (c Config) CacheOptions() []BunTokenCacheOption {
	opts := []BunTokenCacheOption{}
	if c.CacheKey != "" {
		opts = append(opts, WithCacheKey(c.CacheKey))
	}
	return opts
}
