package enums

import "fmt"

// PromotionType describes how a promotion discounts a sale item.
type PromotionType string

const (
	PromotionTypePercentage PromotionType = "percentage"
	PromotionTypeFixed      PromotionType = "fixed"
	PromotionTypeBundle     PromotionType = "bundle"
)

var validPromotionTypes = []PromotionType{
	PromotionTypePercentage,
	PromotionTypeFixed,
	PromotionTypeBundle,
}

// String implements fmt.Stringer.
func (p PromotionType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PromotionType.
func (p PromotionType) IsValid() bool {
	for _, candidate := range validPromotionTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePromotionType converts raw input into a PromotionType.
func ParsePromotionType(value string) (PromotionType, error) {
	for _, candidate := range validPromotionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid promotion type %q", value)
}

// PromotionStatus tracks a promotion through its date-driven lifecycle.
type PromotionStatus string

const (
	PromotionStatusPlanned   PromotionStatus = "planned"
	PromotionStatusActive    PromotionStatus = "active"
	PromotionStatusConcluded PromotionStatus = "concluded"
	PromotionStatusCancelled PromotionStatus = "cancelled"
)

var validPromotionStatuses = []PromotionStatus{
	PromotionStatusPlanned,
	PromotionStatusActive,
	PromotionStatusConcluded,
	PromotionStatusCancelled,
}

// String implements fmt.Stringer.
func (p PromotionStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PromotionStatus.
func (p PromotionStatus) IsValid() bool {
	for _, candidate := range validPromotionStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePromotionStatus converts raw input into a PromotionStatus.
func ParsePromotionStatus(value string) (PromotionStatus, error) {
	for _, candidate := range validPromotionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid promotion status %q", value)
}
