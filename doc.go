// Package sessiongate keeps a client's authentication session synchronized
// with an external identity provider and decides, per resource, whether the
// current session may see gated content.
//
// Session lifecycle:
//   - Bridge normalizes the provider's change notifications into an
//     IdentityEvent stream (SignedIn/SignedOut), including a synthetic
//     SignedOut when the provider fails to initialize.
//   - Store is the single owner of session state. It consumes bridge events
//     strictly in order, force-mints a fresh token on every sign-in so
//     server-side entitlement changes land within one cycle, and mirrors the
//     token into a TokenCache as part of the same transition. Failures are
//     absorbed into transitions (fail-closed to Anonymous), never surfaced
//     raw to subscribers.
//
// Access gating:
//   - Decide is a pure function from (session tier, resource policy) to a
//     Verdict: Allow, RestrictedPreview, or Deny. Resources without a policy
//     are treated as free-tier content; gating is a visibility concern and
//     never feeds back into token trust.
//
// Activity sinks:
//   - ActivitySink receives best-effort audit events for every transition,
//     refresh, and logout. Sink errors are logged, never propagated, so you
//     can forward to a database or queue without blocking the session loop.
package sessiongate
