package enums

import "fmt"

// StockMovementType describes the direction of an inventory movement.
type StockMovementType string

const (
	StockMovementTypeIn     StockMovementType = "in"
	StockMovementTypeOut    StockMovementType = "out"
	StockMovementTypeAdjust StockMovementType = "adjust"
)

var validStockMovementTypes = []StockMovementType{
	StockMovementTypeIn,
	StockMovementTypeOut,
	StockMovementTypeAdjust,
}

// String implements fmt.Stringer.
func (s StockMovementType) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StockMovementType.
func (s StockMovementType) IsValid() bool {
	for _, candidate := range validStockMovementTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStockMovementType converts raw input into a StockMovementType.
func ParseStockMovementType(value string) (StockMovementType, error) {
	for _, candidate := range validStockMovementTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock movement type %q", value)
}

// StockMovementSource records what triggered an inventory movement.
type StockMovementSource string

const (
	StockMovementSourcePurchase     StockMovementSource = "purchase"
	StockMovementSourceSale         StockMovementSource = "sale"
	StockMovementSourceSaleReversal StockMovementSource = "sale_reversal"
	StockMovementSourceManual       StockMovementSource = "manual"
	StockMovementSourceAdjustment   StockMovementSource = "adjustment"
)

var validStockMovementSources = []StockMovementSource{
	StockMovementSourcePurchase,
	StockMovementSourceSale,
	StockMovementSourceSaleReversal,
	StockMovementSourceManual,
	StockMovementSourceAdjustment,
}

// String implements fmt.Stringer.
func (s StockMovementSource) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StockMovementSource.
func (s StockMovementSource) IsValid() bool {
	for _, candidate := range validStockMovementSources {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStockMovementSource converts raw input into a StockMovementSource.
func ParseStockMovementSource(value string) (StockMovementSource, error) {
	for _, candidate := range validStockMovementSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock movement source %q", value)
}
