package sessiongate

import (
	"fmt"
	"time"
)

// Status is the session lifecycle status
type Status string

const (
	// StatusInitializing means the provider's restored state is not known
	// yet; consumers must not trust the identity fields.
	StatusInitializing Status = "initializing"
	// StatusAuthenticated means identity and token are both present
	StatusAuthenticated Status = "authenticated"
	// StatusAnonymous means identity and token are both absent
	StatusAnonymous Status = "anonymous"
)

// State is a point-in-time snapshot of the session. Values are copied out of
// the Store; mutating a State has no effect on the session.
type State struct {
	Status          Status     `json:"status"`
	Identity        Identity   `json:"-"`
	Token           string     `json:"-"`
	Tier            Tier       `json:"tier,omitempty"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at,omitempty"`
}

// Authenticated reports whether the session holds a live identity and token.
func (s State) Authenticated() bool {
	return s.Status == StatusAuthenticated
}

// Anonymous reports whether the session is known to be signed out.
func (s State) Anonymous() bool {
	return s.Status == StatusAnonymous
}

func (s State) String() string {
	id := "<nil>"
	if s.Identity != nil {
		id = s.Identity.ID()
	}
	refreshed := "<nil>"
	if s.LastRefreshedAt != nil {
		refreshed = s.LastRefreshedAt.Format(time.RFC1123)
	}
	return fmt.Sprintf(
		"status=%s identity=%s tier=%s refreshed=%s",
		s.Status,
		id,
		s.Tier,
		refreshed,
	)
}

func anonymousState() State {
	return State{Status: StatusAnonymous, Tier: TierFree}
}
