package sessiongate

// Tier is the subscription level gating content visibility
type Tier string

const (
	// TierFree is the default level (ie. public content)
	TierFree Tier = "free"
	// TierPro unlocks gated content
	TierPro Tier = "pro"
)

// IsValid checks if the tier is one of the predefined valid tiers
func (t Tier) IsValid() bool {
	switch t {
	case TierFree, TierPro:
		return true
	default:
		return false
	}
}

// AtLeast checks if this tier meets the minimum required level
func (t Tier) AtLeast(min Tier) bool {
	tierHierarchy := map[Tier]int{
		TierFree: 0,
		TierPro:  1,
	}

	currentLevel, exists := tierHierarchy[t]
	if !exists {
		return false
	}

	minLevel, exists := tierHierarchy[min]
	if !exists {
		return false
	}

	return currentLevel >= minLevel
}

// GetAllTiers returns all predefined tiers in hierarchical order
func GetAllTiers() []Tier {
	return []Tier{
		TierFree,
		TierPro,
	}
}

// ParseTier safely parses a string into a Tier type
func ParseTier(tierStr string) (Tier, bool) {
	tier := Tier(tierStr)
	return tier, tier.IsValid()
}
