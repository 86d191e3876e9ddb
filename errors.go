package sessiongate

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	textCodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
	textCodeTokenMintFailed     = "TOKEN_MINT_FAILED"
	textCodeInvalidateFailed    = "SIGN_OUT_FAILED"
	textCodeTokenExpired        = "TOKEN_EXPIRED"
	textCodeTokenMalformed      = "TOKEN_MALFORMED"
)

// ErrProviderUnavailable is returned when the provider's notification
// mechanism fails to initialize. Subscribers still receive a synthetic
// signed-out event; this error only reaches the caller that subscribed.
var ErrProviderUnavailable = errors.New("identity provider unavailable", errors.CategoryOperation).
	WithTextCode(textCodeProviderUnavailable).
	WithCode(errors.CodeInternal)

// ErrTokenMintFailed wraps a failed or timed-out token mint. The session
// fails closed to Anonymous when this occurs.
var ErrTokenMintFailed = errors.New("unable to mint access token", errors.CategoryAuth).
	WithTextCode(textCodeTokenMintFailed).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidateFailed signals a server-side sign-out failure. Local logout
// proceeds regardless; this is logged, never returned from Logout.
var ErrInvalidateFailed = errors.New("provider sign-out failed", errors.CategoryOperation).
	WithTextCode(textCodeInvalidateFailed).
	WithCode(errors.CodeInternal)

// ErrTokenExpired is returned by validators for expired tokens
var ErrTokenExpired = errors.New("access token expired", errors.CategoryAuth).
	WithTextCode(textCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned by validators for undecodable tokens
var ErrTokenMalformed = errors.New("access token malformed", errors.CategoryAuth).
	WithTextCode(textCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// IsProviderUnavailable checks for provider initialization failures
func IsProviderUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	return errors.As(err, &richErr) && richErr.TextCode == textCodeProviderUnavailable
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == textCodeTokenExpired {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for undecodable tokens
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == textCodeTokenMalformed {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
