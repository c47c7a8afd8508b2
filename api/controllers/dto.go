package controllers

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/internal/discounts"
	"github.com/angelmondragon/storefront/internal/reconcile"
	"github.com/angelmondragon/storefront/pkg/pricing"
)

// Money leaves the API as JSON numbers; the domain keeps decimals.
func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

type ruleDTO struct {
	Quantity  int     `json:"quantity"`
	PriceType string  `json:"priceType"`
	Value     float64 `json:"value"`
	IsActive  bool    `json:"isActive"`
}

type tierDTO struct {
	Quantity      int      `json:"quantity"`
	Price         float64  `json:"price"`
	UnitPrice     float64  `json:"unitPrice"`
	Discount      float64  `json:"discount"`
	OriginalPrice float64  `json:"originalPrice"`
	Savings       float64  `json:"savings"`
	Rule          *ruleDTO `json:"rule"`
}

func toTier(tier pricing.ComputedTier) tierDTO {
	dto := tierDTO{
		Quantity:      tier.Quantity,
		Price:         money(tier.Price),
		UnitPrice:     money(tier.UnitPrice),
		Discount:      money(tier.Discount),
		OriginalPrice: money(tier.OriginalPrice),
		Savings:       money(tier.Savings()),
	}
	dto.Rule = toRule(tier.Rule)
	return dto
}

func toRule(rule *pricing.QuantityTierRule) *ruleDTO {
	if rule == nil {
		return nil
	}
	return &ruleDTO{
		Quantity:  rule.Quantity,
		PriceType: rule.PriceType.String(),
		Value:     rule.Value.InexactFloat64(),
		IsActive:  rule.IsActive,
	}
}

func toTierPtr(tier *pricing.ComputedTier) *tierDTO {
	if tier == nil {
		return nil
	}
	dto := toTier(*tier)
	return &dto
}

func toTiers(tiers []pricing.ComputedTier) []tierDTO {
	out := make([]tierDTO, 0, len(tiers))
	for _, tier := range tiers {
		out = append(out, toTier(tier))
	}
	return out
}

type quoteDTO struct {
	ProductID    string    `json:"productId"`
	VariantID    string    `json:"variantId,omitempty"`
	Quantity     int       `json:"quantity"`
	BasePrice    *float64  `json:"basePrice"`
	HasDiscounts bool      `json:"hasDiscounts"`
	Tiers        []tierDTO `json:"tiers"`
	Available    []tierDTO `json:"availableDiscounts"`
	Exact        *tierDTO  `json:"exactMatch"`
	Active       *tierDTO  `json:"activeTier"`
	Next         *tierDTO  `json:"nextTier"`
	UnitsToNext  int       `json:"unitsToNext"`
	Current      tierDTO   `json:"current"`
}

func toQuote(q discounts.Quote) quoteDTO {
	dto := quoteDTO{
		ProductID:    q.ProductID,
		VariantID:    q.VariantID,
		Quantity:     q.Quantity,
		HasDiscounts: q.HasDiscounts(),
		Tiers:        toTiers(q.Tiers),
		Available:    toTiers(q.Available),
		Exact:        toTierPtr(q.Exact),
		Active:       toTierPtr(q.Active),
		Next:         toTierPtr(q.Next),
		UnitsToNext:  q.UnitsToNext,
		Current:      toTier(q.Current),
	}
	if q.BasePrice.Known() {
		base := money(q.BasePrice.Amount())
		dto.BasePrice = &base
	}
	return dto
}

type itemPricingDTO struct {
	ItemID        string   `json:"itemId"`
	ProductID     string   `json:"productId"`
	VariantID     string   `json:"variantId,omitempty"`
	Quantity      int      `json:"quantity"`
	UnitPrice     float64  `json:"unitPrice"`
	FinalPrice    float64  `json:"finalPrice"`
	OriginalPrice float64  `json:"originalPrice"`
	Discount      float64  `json:"discount"`
	Savings       float64  `json:"savings"`
	Rule          *ruleDTO `json:"rule,omitempty"`
	Source        string   `json:"source"`
	State         string   `json:"state"`
}

func toItemPricing(item reconcile.ItemPricing) itemPricingDTO {
	return itemPricingDTO{
		ItemID:        item.ItemID,
		ProductID:     item.ProductID,
		VariantID:     item.VariantID,
		Quantity:      item.Quantity,
		UnitPrice:     money(item.UnitPrice),
		FinalPrice:    money(item.FinalPrice),
		OriginalPrice: money(item.OriginalPrice),
		Discount:      money(item.Discount),
		Savings:       money(item.Savings),
		Rule:          toRule(item.Rule),
		Source:        item.Source.String(),
		State:         item.State.String(),
	}
}

type cartPricingDTO struct {
	Items            []itemPricingDTO `json:"items"`
	OriginalSubtotal float64          `json:"originalSubtotal"`
	ActualSubtotal   float64          `json:"actualSubtotal"`
	TotalSavings     float64          `json:"totalSavings"`
	Source           string           `json:"source"`
}

func toCartPricing(p reconcile.CartPricing) cartPricingDTO {
	items := make([]itemPricingDTO, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, toItemPricing(item))
	}
	return cartPricingDTO{
		Items:            items,
		OriginalSubtotal: money(p.OriginalSubtotal),
		ActualSubtotal:   money(p.ActualSubtotal),
		TotalSavings:     money(p.TotalSavings),
		Source:           p.Source.String(),
	}
}

type checkoutTotalsDTO struct {
	Pricing        cartPricingDTO `json:"pricing"`
	CouponCode     string         `json:"couponCode,omitempty"`
	CouponDiscount float64        `json:"couponDiscount"`
	TotalSavings   float64        `json:"totalSavings"`
	Total          float64        `json:"total"`
}

func toCheckoutTotals(t reconcile.CheckoutTotals) checkoutTotalsDTO {
	return checkoutTotalsDTO{
		Pricing:        toCartPricing(t.Pricing),
		CouponCode:     t.CouponCode,
		CouponDiscount: money(t.CouponDiscount),
		TotalSavings:   money(t.TotalSavings),
		Total:          money(t.Total),
	}
}
