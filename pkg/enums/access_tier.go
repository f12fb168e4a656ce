package enums

import "fmt"

// AccessTier represents an application-wide permissions level.
type AccessTier string

const (
	AccessTierAdmin    AccessTier = "admin"
	AccessTierOperator AccessTier = "operator"
	AccessTierViewer   AccessTier = "viewer"
)

var validAccessTiers = []AccessTier{
	AccessTierAdmin,
	AccessTierOperator,
	AccessTierViewer,
}

// tiers are ordered; a higher rank satisfies any lower requirement
var accessTierRank = map[AccessTier]int{
	AccessTierViewer:   1,
	AccessTierOperator: 2,
	AccessTierAdmin:    3,
}

// String implements fmt.Stringer.
func (a AccessTier) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AccessTier.
func (a AccessTier) IsValid() bool {
	for _, candidate := range validAccessTiers {
		if candidate == a {
			return true
		}
	}
	return false
}

// AtLeast reports whether the tier grants everything min grants.
func (a AccessTier) AtLeast(min AccessTier) bool {
	return accessTierRank[a] >= accessTierRank[min] && accessTierRank[a] > 0
}

// ParseAccessTier converts raw input into an AccessTier.
func ParseAccessTier(value string) (AccessTier, error) {
	for _, candidate := range validAccessTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid access tier %q", value)
}
