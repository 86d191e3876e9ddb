package sessiongate

import (
	"net/http"

	"github.com/goliatone/go-router"
)

// DefaultVerdictKey is the router Locals key the middleware stores the
// computed Verdict under.
const DefaultVerdictKey = "gate_verdict"

// DefaultSessionKey is the router Locals key the middleware stores the
// session State under.
const DefaultSessionKey = "gate_session"

// GateConfig configures the gating middleware.
type GateConfig struct {
	// VerdictKey overrides DefaultVerdictKey.
	VerdictKey string

	// SessionKey overrides DefaultSessionKey.
	SessionKey string

	// DeniedHandler renders the Deny verdict. The default responds 403
	// with an upgrade payload rather than a generic error page.
	DeniedHandler func(c router.Context, state State, policy Policy) error

	// Logger overrides the default logger.
	Logger Logger
}

// RequireTier returns middleware that resolves the current session from
// store, computes the access verdict for policy, and either passes the
// request through (Allow and RestrictedPreview, with the verdict attached
// for the handler) or renders the denied response.
func RequireTier(store *Store, policy Policy, cfgs ...GateConfig) router.MiddlewareFunc {
	cfg := GateConfig{}
	if len(cfgs) > 0 {
		cfg = cfgs[0]
	}
	if cfg.VerdictKey == "" {
		cfg.VerdictKey = DefaultVerdictKey
	}
	if cfg.SessionKey == "" {
		cfg.SessionKey = DefaultSessionKey
	}
	if cfg.Logger == nil {
		cfg.Logger = defLogger{}
	}
	if cfg.DeniedHandler == nil {
		cfg.DeniedHandler = defaultDeniedHandler
	}

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			state := store.Current()
			verdict := Decide(state.Tier, &policy)

			c.Locals(cfg.SessionKey, state)
			c.Locals(cfg.VerdictKey, verdict)
			c.SetContext(WithVerdictContext(WithContext(c.Context(), state), verdict))

			if verdict == VerdictDeny {
				cfg.Logger.Debug("denying %s tier access to %s content", state.Tier, policy.RequiredTier)
				return cfg.DeniedHandler(c, state, policy)
			}

			return next(c)
		}
	}
}

// GetVerdict reads the verdict the middleware attached to the router context.
func GetVerdict(c router.Context, key ...string) (Verdict, bool) {
	k := DefaultVerdictKey
	if len(key) > 0 && key[0] != "" {
		k = key[0]
	}
	raw := c.Locals(k)
	if raw == nil {
		return "", false
	}
	verdict, ok := raw.(Verdict)
	return verdict, ok
}

// VerdictFromStatus maps an HTTP status from the content API onto a gating
// verdict, so forbidden responses on gated resources present as the
// restricted/denied UI instead of a generic error. The second return is
// false for statuses that are not gating signals.
func VerdictFromStatus(statusCode int, policy *Policy) (Verdict, bool) {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		if policy != nil && policy.VisibleExcerptLength > 0 {
			return VerdictRestrictedPreview, true
		}
		return VerdictDeny, true
	default:
		return "", false
	}
}

func defaultDeniedHandler(c router.Context, state State, policy Policy) error {
	return c.JSON(http.StatusForbidden, map[string]any{
		"code":          "UPGRADE_REQUIRED",
		"required_tier": policy.RequiredTier,
		"session_tier":  state.Tier,
	})
}
