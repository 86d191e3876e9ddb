package sessiongate

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

// Verdict is the gating decision for one resource given one session.
type Verdict string

const (
	// VerdictAllow grants full visibility
	VerdictAllow Verdict = "allow"
	// VerdictRestrictedPreview limits display to the policy's excerpt plus
	// an upgrade call-to-action
	VerdictRestrictedPreview Verdict = "restricted_preview"
	// VerdictDeny hides the resource entirely
	VerdictDeny Verdict = "deny"
)

// Policy is the access descriptor the content API attaches to a resource.
// Immutable once received.
type Policy struct {
	RequiredTier Tier `json:"required_tier"`
	// VisibleExcerptLength is the number of leading characters a
	// non-entitled session may see. Zero means no preview is offered.
	VisibleExcerptLength int `json:"visible_excerpt_length,omitempty"`
}

// Validate checks a policy received from the content API.
func (p Policy) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.RequiredTier, validation.In(TierFree, TierPro)),
		validation.Field(&p.VisibleExcerptLength, validation.Min(0)),
	)
}

// Decide returns the access verdict for a resource. It is deterministic and
// performs no I/O or state access; safe to call on every render.
//
// A nil policy means the resource predates tier metadata and is treated as
// free content. This fails open for visibility only, never for token trust.
func Decide(sessionTier Tier, policy *Policy) Verdict {
	if policy == nil || policy.RequiredTier == "" || policy.RequiredTier == TierFree {
		return VerdictAllow
	}

	if sessionTier.AtLeast(policy.RequiredTier) {
		return VerdictAllow
	}

	if policy.VisibleExcerptLength > 0 {
		return VerdictRestrictedPreview
	}

	return VerdictDeny
}

// Excerpt returns the visible slice of content for a RestrictedPreview
// verdict. For any other policy it returns content unchanged.
func Excerpt(content string, policy *Policy) string {
	if policy == nil || policy.VisibleExcerptLength <= 0 {
		return content
	}

	runes := []rune(content)
	if len(runes) <= policy.VisibleExcerptLength {
		return content
	}
	return string(runes[:policy.VisibleExcerptLength])
}
