package enums

import "fmt"

// Tier identifies one of the two marketplace listing plans priced per product.
type Tier string

const (
	TierClassico Tier = "classico"
	TierPremium  Tier = "premium"
)

var validTiers = []Tier{
	TierClassico,
	TierPremium,
}

// Tiers returns every tier in a stable order.
func Tiers() []Tier {
	return validTiers
}

// String implements fmt.Stringer.
func (t Tier) String() string {
	return string(t)
}

// IsValid reports whether the value is a known Tier.
func (t Tier) IsValid() bool {
	for _, candidate := range validTiers {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTier converts raw input into a Tier.
func ParseTier(value string) (Tier, error) {
	for _, candidate := range validTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tier %q", value)
}
