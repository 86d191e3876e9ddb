package sessiongate

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenValidator validates tokens and extracts claims without tying callers
// to a specific signing implementation. The Store uses one, when configured,
// to expire restored cached tokens on startup.
type TokenValidator interface {
	Validate(tokenString string) (*TierClaims, error)
}

// TokenValidatorFunc adapts a function into a TokenValidator.
type TokenValidatorFunc func(tokenString string) (*TierClaims, error)

// Validate satisfies the TokenValidator interface.
func (f TokenValidatorFunc) Validate(tokenString string) (*TierClaims, error) {
	if f == nil {
		return nil, ErrTokenMalformed
	}
	return f(tokenString)
}

// HMACTokenValidator validates HS256-signed tokens against a shared key.
type HMACTokenValidator struct {
	signingKey []byte
	issuer     string
	audience   []string
	logger     Logger
}

// NewHMACTokenValidator creates a validator for HMAC-signed provider tokens.
func NewHMACTokenValidator(signingKey []byte, issuer string, audience []string, logger Logger) *HMACTokenValidator {
	if logger == nil {
		logger = defLogger{}
	}
	return &HMACTokenValidator{
		signingKey: signingKey,
		issuer:     issuer,
		audience:   audience,
		logger:     logger,
	}
}

// Validate parses and validates a token string, returning structured claims
func (v *HMACTokenValidator) Validate(tokenString string) (*TierClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if v.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(v.issuer))
	}
	if len(v.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(v.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &TierClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			v.logger.Error("token validator encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	if claims, ok := token.Claims.(*TierClaims); ok && token.Valid {
		return claims, nil
	}

	v.logger.Error("token validator could not decode or validate claims")
	return nil, ErrTokenMalformed
}
