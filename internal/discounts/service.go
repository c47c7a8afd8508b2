package discounts

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront/internal/products"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/pricing"
)

// RuleSource resolves a subcategory reference to its quantity-tier rules.
type RuleSource interface {
	RulesFor(ctx context.Context, subcategory any) ([]pricing.QuantityTierRule, error)
}

// Quote is everything a product page needs to advertise bulk discounts.
type Quote struct {
	ProductID   string
	VariantID   string
	Quantity    int
	BasePrice   pricing.Price
	Tiers       []pricing.ComputedTier
	Available   []pricing.ComputedTier
	Exact       *pricing.ComputedTier
	Active      *pricing.ComputedTier
	Next        *pricing.ComputedTier
	UnitsToNext int
	Current     pricing.ComputedTier
}

// HasDiscounts reports whether any candidate quantity saves money.
func (q Quote) HasDiscounts() bool {
	return len(q.Available) > 0
}

type Service struct {
	rules      RuleSource
	candidates []int
	logg       *logger.Logger
}

// NewService uses pricing.DefaultCandidateQuantities when candidates is empty.
func NewService(rules RuleSource, candidates []int, logg *logger.Logger) (*Service, error) {
	if rules == nil {
		return nil, fmt.Errorf("rule source required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if len(candidates) == 0 {
		candidates = pricing.DefaultCandidateQuantities
	}
	return &Service{
		rules:      rules,
		candidates: append([]int(nil), candidates...),
		logg:       logg,
	}, nil
}

// Quote prices the candidate quantities and the requested one for a product.
// Rule lookup failures degrade to an undiscounted quote.
func (s *Service) Quote(ctx context.Context, product products.Product, variant *products.Variant, quantity int) (Quote, error) {
	if quantity < 1 {
		return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	base := products.UnitPrice(product, variant)
	rules := s.lookupRules(ctx, product, base)
	amount := base.Amount()

	var tiers []pricing.ComputedTier
	if base.Discountable() {
		tiers = pricing.ComputeTiers(amount, rules, s.candidates)
	}

	return Quote{
		ProductID:   product.ID,
		VariantID:   products.VariantID(variant),
		Quantity:    quantity,
		BasePrice:   base,
		Tiers:       tiers,
		Available:   pricing.AvailableDiscounts(tiers),
		Exact:       pricing.DiscountForQuantity(tiers, quantity),
		Active:      pricing.ActiveTier(tiers, quantity),
		Next:        pricing.NextTier(tiers, quantity),
		UnitsToNext: pricing.UnitsToNext(tiers, quantity),
		Current:     pricing.ComputeTier(amount, rules, quantity),
	}, nil
}

// Estimate is the local, optimistic price for a cart line.
func (s *Service) Estimate(ctx context.Context, product products.Product, variant *products.Variant, quantity int) pricing.ComputedTier {
	base := products.UnitPrice(product, variant)
	return pricing.ComputeTier(base.Amount(), s.lookupRules(ctx, product, base), quantity)
}

func (s *Service) lookupRules(ctx context.Context, product products.Product, base pricing.Price) []pricing.QuantityTierRule {
	if !base.Discountable() || len(product.Subcategory) == 0 {
		return nil
	}
	rules, err := s.rules.RulesFor(ctx, product.Subcategory)
	if err != nil {
		s.logg.WarnErr(s.logg.WithField(ctx, "product_id", product.ID), "quantity rules unavailable; pricing without discounts", err)
		return nil
	}
	return rules
}
