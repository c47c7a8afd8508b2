package enums

import (
	"fmt"
	"strings"
)

// PriceType describes how a quantity tier rule value is interpreted.
type PriceType string

const (
	PriceTypePercentage PriceType = "PERCENTAGE"
	PriceTypeFixed      PriceType = "FIXED"
)

var validPriceTypes = []PriceType{
	PriceTypePercentage,
	PriceTypeFixed,
}

// String implements fmt.Stringer.
func (p PriceType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PriceType.
func (p PriceType) IsValid() bool {
	for _, candidate := range validPriceTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePriceType converts raw input into a PriceType. Matching is case-insensitive
// because the pricing catalog is not consistent about casing.
func ParsePriceType(value string) (PriceType, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validPriceTypes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid price type %q", value)
}
