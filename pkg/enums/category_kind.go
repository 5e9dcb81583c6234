package enums

import "fmt"

// CategoryKind fixes the per-item validation policy of a PPE category.
type CategoryKind string

const (
	CategoryKindGarment  CategoryKind = "garment"
	CategoryKindHeadwear CategoryKind = "headwear"
	CategoryKindFootwear CategoryKind = "footwear"
	CategoryKindOther    CategoryKind = "other"
)

var validCategoryKinds = []CategoryKind{
	CategoryKindGarment,
	CategoryKindHeadwear,
	CategoryKindFootwear,
	CategoryKindOther,
}

// String implements fmt.Stringer.
func (k CategoryKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known CategoryKind.
func (k CategoryKind) IsValid() bool {
	for _, candidate := range validCategoryKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// RequiresSerial reports whether each physical unit carries its own item code.
// Footwear is tracked by pair and has none.
func (k CategoryKind) RequiresSerial() bool {
	return k == CategoryKindGarment || k == CategoryKindHeadwear
}

// RequiresSize reports whether the category is sized.
func (k CategoryKind) RequiresSize() bool {
	return k == CategoryKindGarment || k == CategoryKindFootwear
}

// RequiresCondition reports whether a new/used condition must be recorded.
func (k CategoryKind) RequiresCondition() bool {
	return k == CategoryKindFootwear
}

// ParseCategoryKind converts raw input into a CategoryKind.
func ParseCategoryKind(value string) (CategoryKind, error) {
	for _, candidate := range validCategoryKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid category kind %q", value)
}
