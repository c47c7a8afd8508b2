package enums

import "fmt"

// PricingSource records where a reconciled price came from.
type PricingSource string

const (
	PricingSourceBackend PricingSource = "backend"
	PricingSourceLocal   PricingSource = "local"
	PricingSourceRaw     PricingSource = "raw"
)

var validPricingSources = []PricingSource{
	PricingSourceBackend,
	PricingSourceLocal,
	PricingSourceRaw,
}

// String implements fmt.Stringer.
func (p PricingSource) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PricingSource.
func (p PricingSource) IsValid() bool {
	for _, candidate := range validPricingSources {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePricingSource converts raw input into a PricingSource.
func ParsePricingSource(value string) (PricingSource, error) {
	for _, candidate := range validPricingSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pricing source %q", value)
}
