package sessiongate

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TierClaims are the JWT claims carried by provider-minted access tokens.
// The subscription tier rides in a custom claim so a server-side upgrade is
// visible on the very next mint.
type TierClaims struct {
	jwt.RegisteredClaims
	UID              string `json:"uid,omitempty"`
	SubscriptionTier string `json:"tier,omitempty"`
}

// UserID returns the subject of the token, preferring the uid claim.
func (c *TierClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// Tier returns the parsed subscription tier, defaulting to free when the
// claim is missing or unknown.
func (c *TierClaims) Tier() Tier {
	if tier, ok := ParseTier(c.SubscriptionTier); ok {
		return tier
	}
	return TierFree
}

// Expires returns the expiration time, or the zero time when absent.
func (c *TierClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.ExpiresAt.Time
}

// TierFromToken extracts the tier claim without verifying the signature.
// The tier only drives client-side visibility; servers enforce entitlement on
// their own, so an unverified read is acceptable here.
func TierFromToken(tokenString string) (Tier, bool) {
	claims := &TierClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return TierFree, false
	}
	return claims.Tier(), true
}
