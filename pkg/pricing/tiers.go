package pricing

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/pkg/enums"
)

var hundred = decimal.NewFromInt(100)

// DefaultCandidateQuantities are the quantities surfaced as bulk-discount offers.
// Quantity 1 carries no savings by definition.
var DefaultCandidateQuantities = []int{2, 3, 4}

// QuantityTierRule activates a discount once the requested quantity reaches Quantity.
type QuantityTierRule struct {
	Quantity  int             `json:"quantity"`
	PriceType enums.PriceType `json:"priceType"`
	Value     decimal.Decimal `json:"value"`
	IsActive  bool            `json:"isActive"`
}

// ComputedTier is the derived price of a given quantity under a rule set.
type ComputedTier struct {
	Quantity      int
	Price         decimal.Decimal
	UnitPrice     decimal.Decimal
	Discount      decimal.Decimal
	OriginalPrice decimal.Decimal
	Rule          *QuantityTierRule
}

// Savings is the amount saved against the undiscounted price.
func (t ComputedTier) Savings() decimal.Decimal {
	saved := t.OriginalPrice.Sub(t.Price)
	if saved.IsNegative() {
		return decimal.Zero
	}
	return saved
}

// ComputeTiers prices every candidate quantity against the rule set.
func ComputeTiers(basePrice decimal.Decimal, rules []QuantityTierRule, quantities []int) []ComputedTier {
	active := activeRules(rules)
	tiers := make([]ComputedTier, 0, len(quantities))
	for _, qty := range quantities {
		if qty < 1 {
			continue
		}
		tiers = append(tiers, computeTier(basePrice, active, qty))
	}
	return tiers
}

// ComputeTier prices a single quantity on demand.
func ComputeTier(basePrice decimal.Decimal, rules []QuantityTierRule, qty int) ComputedTier {
	if qty < 1 {
		qty = 1
	}
	return computeTier(basePrice, activeRules(rules), qty)
}

// SelectRule returns the active rule with the largest Quantity not exceeding qty.
func SelectRule(rules []QuantityTierRule, qty int) *QuantityTierRule {
	return selectRule(activeRules(rules), qty)
}

// AvailableDiscounts keeps only tiers that actually save money.
func AvailableDiscounts(tiers []ComputedTier) []ComputedTier {
	out := make([]ComputedTier, 0, len(tiers))
	for _, tier := range tiers {
		if tier.Discount.IsPositive() {
			out = append(out, tier)
		}
	}
	return out
}

func activeRules(rules []QuantityTierRule) []QuantityTierRule {
	active := make([]QuantityTierRule, 0, len(rules))
	for _, rule := range rules {
		if rule.IsActive {
			active = append(active, rule)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Quantity < active[j].Quantity
	})
	return active
}

func selectRule(sorted []QuantityTierRule, qty int) *QuantityTierRule {
	var selected *QuantityTierRule
	for _, rule := range sorted {
		if rule.Quantity <= qty {
			if selected == nil || rule.Quantity > selected.Quantity {
				copy := rule
				selected = &copy
			}
		}
	}
	return selected
}

func computeTier(basePrice decimal.Decimal, sorted []QuantityTierRule, qty int) ComputedTier {
	quantity := decimal.NewFromInt(int64(qty))
	original := basePrice.Mul(quantity)

	var rule *QuantityTierRule
	if basePrice.IsPositive() {
		rule = selectRule(sorted, qty)
	}
	final, discount, applied := applyRule(original, rule)
	if !applied {
		rule = nil
	}

	return ComputedTier{
		Quantity:      qty,
		Price:         final.Round(0),
		UnitPrice:     final.Div(quantity).Round(0),
		Discount:      discount,
		OriginalPrice: original,
		Rule:          rule,
	}
}

// applyRule returns the discounted total and the percentage-equivalent discount.
// Percentages are clamped to [0,100]; fixed amounts never push the total below zero.
func applyRule(original decimal.Decimal, rule *QuantityTierRule) (decimal.Decimal, decimal.Decimal, bool) {
	if rule == nil || !original.IsPositive() {
		return original, decimal.Zero, false
	}
	priceType, err := enums.ParsePriceType(rule.PriceType.String())
	if err != nil {
		return original, decimal.Zero, false
	}

	switch priceType {
	case enums.PriceTypePercentage:
		pct := clamp(rule.Value, decimal.Zero, hundred)
		final := original.Mul(hundred.Sub(pct)).Div(hundred)
		return final, pct, true
	case enums.PriceTypeFixed:
		off := clamp(rule.Value, decimal.Zero, original)
		final := original.Sub(off)
		return final, off.Div(original).Mul(hundred), true
	}
	return original, decimal.Zero, false
}

func clamp(value, lo, hi decimal.Decimal) decimal.Decimal {
	if value.LessThan(lo) {
		return lo
	}
	if value.GreaterThan(hi) {
		return hi
	}
	return value
}
