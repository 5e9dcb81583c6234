package enums

import "fmt"

// StockMovementType maps to the stock_movement_type_enum enum in Postgres.
type StockMovementType string

const (
	StockMovementTypeIssue      StockMovementType = "issue"
	StockMovementTypeReceipt    StockMovementType = "receipt"
	StockMovementTypeCorrection StockMovementType = "correction"
)

var validStockMovementTypes = []StockMovementType{
	StockMovementTypeIssue,
	StockMovementTypeReceipt,
	StockMovementTypeCorrection,
}

// IsValid reports whether the value matches the canonical movement enum.
func (t StockMovementType) IsValid() bool {
	for _, candidate := range validStockMovementTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseStockMovementType converts raw input into StockMovementType.
func ParseStockMovementType(value string) (StockMovementType, error) {
	for _, candidate := range validStockMovementTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock movement type %q", value)
}
