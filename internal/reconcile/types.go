package reconcile

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/internal/commerce"
	"github.com/angelmondragon/storefront/internal/products"
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/pricing"
)

// Backend is the subset of the commerce client the reconciler depends on.
type Backend interface {
	CalculateQuantityPrice(ctx context.Context, req commerce.QuantityPriceRequest) (commerce.QuantityPrice, error)
	CalculateCartPrices(ctx context.Context, lines []commerce.CartPriceLine) (commerce.CartPrices, error)
	ValidateCoupon(ctx context.Context, req commerce.CouponRequest) (commerce.Coupon, error)
}

// Estimator produces the local optimistic price of a line.
type Estimator interface {
	Estimate(ctx context.Context, product products.Product, variant *products.Variant, quantity int) pricing.ComputedTier
}

// Line is one cart entry to be priced.
type Line struct {
	ItemID   string
	Product  products.Product
	Variant  *products.Variant
	Quantity int
}

func (l Line) variantID() string {
	return products.VariantID(l.Variant)
}

func (l Line) unitPrice() decimal.Decimal {
	return products.UnitPrice(l.Product, l.Variant).Amount()
}

func (l Line) rawTotal() decimal.Decimal {
	return l.unitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// ItemPricing is the price of one cart line after reconciliation.
type ItemPricing struct {
	ItemID        string
	ProductID     string
	VariantID     string
	Quantity      int
	UnitPrice     decimal.Decimal
	FinalPrice    decimal.Decimal
	OriginalPrice decimal.Decimal
	Discount      decimal.Decimal
	Savings       decimal.Decimal
	Rule          *pricing.QuantityTierRule
	Source        enums.PricingSource
	State         enums.ItemPriceState
}

// CartPricing aggregates the reconciled lines.
type CartPricing struct {
	Items            []ItemPricing
	OriginalSubtotal decimal.Decimal
	ActualSubtotal   decimal.Decimal
	TotalSavings     decimal.Decimal
	Source           enums.PricingSource
}

// CheckoutTotals is the cart pricing with an optional coupon folded in.
type CheckoutTotals struct {
	Pricing        CartPricing
	CouponCode     string
	CouponDiscount decimal.Decimal
	TotalSavings   decimal.Decimal
	Total          decimal.Decimal
}

func baseItem(line Line) ItemPricing {
	return ItemPricing{
		ItemID:    line.ItemID,
		ProductID: line.Product.ID,
		VariantID: line.variantID(),
		Quantity:  line.Quantity,
		UnitPrice: line.unitPrice(),
	}
}

// rawItem prices a line as unitPrice × quantity with no discount.
func rawItem(line Line, state enums.ItemPriceState) ItemPricing {
	item := baseItem(line)
	total := line.rawTotal()
	item.FinalPrice = total
	item.OriginalPrice = total
	item.Discount = decimal.Zero
	item.Savings = decimal.Zero
	item.Source = enums.PricingSourceLocal
	item.State = state
	return item
}

// estimatedItem prices a line from locally computed tiers.
func estimatedItem(line Line, tier pricing.ComputedTier) ItemPricing {
	item := baseItem(line)
	item.FinalPrice = tier.Price
	item.OriginalPrice = tier.OriginalPrice
	item.Discount = tier.Discount
	item.Savings = tier.Savings()
	item.Rule = tier.Rule
	item.Source = enums.PricingSourceLocal
	item.State = enums.ItemPriceStateOptimistic
	return item
}

// backendItem applies the authoritative backend price, keeping final within [0, original].
func backendItem(line Line, resp commerce.QuantityPrice) ItemPricing {
	item := baseItem(line)
	original := resp.OriginalPrice
	if !original.IsPositive() {
		original = line.rawTotal()
	}
	final := clamp(resp.FinalPrice, decimal.Zero, original)

	item.FinalPrice = final
	item.OriginalPrice = original
	item.Savings = original.Sub(final)
	item.Discount = decimal.Zero
	if original.IsPositive() {
		item.Discount = item.Savings.Div(original).Mul(decimal.NewFromInt(100)).Round(2)
	}
	item.Rule = resp.AppliedRule()
	item.Source = enums.PricingSourceBackend
	item.State = enums.ItemPriceStateReconciled
	return item
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
