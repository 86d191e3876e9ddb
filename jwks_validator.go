package sessiongate

import (
	"context"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// JWKSValidatorConfig configures a JWKS-backed token validator for providers
// that sign access tokens with rotating keys.
type JWKSValidatorConfig struct {
	// URL is the provider's JWKS endpoint.
	URL string

	// Issuer, when set, is enforced during validation.
	Issuer string

	// Audience, when set, is enforced during validation.
	Audience []string

	// RefreshInterval is how often the key set is refreshed in the
	// background. Default: 1 hour.
	RefreshInterval time.Duration

	// Logger receives background refresh errors.
	Logger Logger
}

// JWKSTokenValidator validates provider tokens against a remote key set.
type JWKSTokenValidator struct {
	jwks     *keyfunc.JWKS
	issuer   string
	audience []string
}

// NewJWKSTokenValidator fetches the key set and returns a validator. The key
// set refreshes in the background until ctx is cancelled.
func NewJWKSTokenValidator(ctx context.Context, cfg JWKSValidatorConfig) (*JWKSTokenValidator, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = defLogger{}
	}

	refreshInterval := cfg.RefreshInterval
	if refreshInterval == 0 {
		refreshInterval = time.Hour
	}

	jwks, err := keyfunc.Get(cfg.URL, keyfunc.Options{
		Ctx:             ctx,
		RefreshInterval: refreshInterval,
		RefreshErrorHandler: func(err error) {
			logger.Warn("background JWKS refresh failed: %v", err)
		},
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to fetch JWKS").
			WithTextCode(textCodeProviderUnavailable)
	}

	return &JWKSTokenValidator{
		jwks:     jwks,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
	}, nil
}

// Validate satisfies the TokenValidator interface.
func (v *JWKSTokenValidator) Validate(tokenString string) (*TierClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if v.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(v.issuer))
	}
	if len(v.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(v.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &TierClaims{}, v.jwks.Keyfunc, parserOptions...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*TierClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}
