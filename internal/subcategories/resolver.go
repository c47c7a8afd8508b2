package subcategories

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront/internal/commerce"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// Record is a catalog subcategory with its quantity-tier rules.
type Record = commerce.SubcategoryRecord

// Resolver turns heterogeneous subcategory references into names.
type Resolver struct {
	extractors []NameExtractor
	logg       *logger.Logger
}

// NewResolver uses DefaultExtractors when none are given.
func NewResolver(logg *logger.Logger, extractors ...NameExtractor) *Resolver {
	if len(extractors) == 0 {
		extractors = DefaultExtractors()
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Resolver{extractors: extractors, logg: logg}
}

// ResolveName returns the first name any extractor finds. A miss is logged, never returned as an error.
func (r *Resolver) ResolveName(ctx context.Context, ref any) (string, bool) {
	normalized := normalizeRef(ref)
	if normalized != nil {
		for _, extractor := range r.extractors {
			if name, ok := extractor.ExtractName(normalized); ok {
				return name, true
			}
		}
	}
	r.logg.Warn(r.logg.WithField(ctx, "subcategory_ref", describe(ref)), "could not extract subcategory name")
	return "", false
}

// FindRecord is a case-insensitive exact match on name; the first match wins.
func FindRecord(name string, records []Record) (*Record, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false
	}
	for i := range records {
		if strings.EqualFold(strings.TrimSpace(records[i].Name), name) {
			record := records[i]
			return &record, true
		}
	}
	return nil, false
}

func describe(ref any) string {
	switch v := ref.(type) {
	case nil:
		return "<nil>"
	case []byte:
		return string(v)
	default:
		s := fmt.Sprintf("%v", v)
		if len(s) > 120 {
			s = s[:120]
		}
		return s
	}
}
