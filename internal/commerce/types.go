package commerce

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/pricing"
)

// envelope is the response wrapper used by every commerce endpoint.
type envelope struct {
	Success *bool           `json:"success,omitempty"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message,omitempty"`
}

// SubcategoryRecord is a catalog subcategory with its quantity-tier rules.
type SubcategoryRecord struct {
	ID             string                     `json:"id"`
	Name           string                     `json:"name"`
	QuantityPrices []pricing.QuantityTierRule `json:"quantityPrices"`
}

// QuantityPriceRequest asks the backend to price one product at a quantity.
type QuantityPriceRequest struct {
	ProductID string `json:"-"`
	VariantID string `json:"variantId,omitempty"`
	Quantity  int    `json:"quantity"`
}

// QuantityPrice is the backend's authoritative price for one line.
type QuantityPrice struct {
	FinalPrice         decimal.Decimal `json:"finalPrice"`
	OriginalPrice      decimal.Decimal `json:"originalPrice"`
	ApplicableDiscount json.RawMessage `json:"applicableDiscount,omitempty"`
	TotalSavings       decimal.Decimal `json:"totalSavings"`
}

// quantityPricePayload is the wire shape of QuantityPrice. A reply without finalPrice is
// not a price.
type quantityPricePayload struct {
	FinalPrice         decimal.NullDecimal `json:"finalPrice"`
	OriginalPrice      decimal.Decimal     `json:"originalPrice"`
	ApplicableDiscount json.RawMessage     `json:"applicableDiscount,omitempty"`
	TotalSavings       decimal.Decimal     `json:"totalSavings"`
}

// AppliedRule decodes applicableDiscount when the backend sends the tier rule object.
func (q QuantityPrice) AppliedRule() *pricing.QuantityTierRule {
	if len(q.ApplicableDiscount) == 0 || string(q.ApplicableDiscount) == "null" {
		return nil
	}
	var rule pricing.QuantityTierRule
	if err := json.Unmarshal(q.ApplicableDiscount, &rule); err != nil || rule.Quantity == 0 {
		return nil
	}
	return &rule
}

// CartPriceLine is one entry of the batched cart pricing request.
type CartPriceLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	VariantID string `json:"variantId,omitempty"`
}

type cartPricesRequest struct {
	Items []CartPriceLine `json:"items"`
}

// CartPrices is the batched pricing response.
type CartPrices struct {
	Summary   CartSummary     `json:"summary"`
	CartItems []CartItemPrice `json:"cartItems"`
	BestDeal  json.RawMessage `json:"bestDeal,omitempty"`
}

// CartSummary carries the authoritative subtotal when the backend computed one.
type CartSummary struct {
	Subtotal     decimal.NullDecimal `json:"subtotal"`
	TotalSavings decimal.NullDecimal `json:"totalSavings"`
}

// CartItemPrice is the backend's per-line breakdown inside CartPrices.
type CartItemPrice struct {
	ProductID     string              `json:"productId"`
	VariantID     string              `json:"variantId,omitempty"`
	Quantity      int                 `json:"quantity"`
	FinalPrice    decimal.NullDecimal `json:"finalPrice"`
	OriginalPrice decimal.NullDecimal `json:"originalPrice"`
}

// CouponRequest validates a coupon code against a cart subtotal.
type CouponRequest struct {
	Code     string          `json:"code"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// Coupon is a validated coupon. DiscountAmount is set when the backend priced it already.
type Coupon struct {
	Code           string              `json:"code"`
	DiscountType   enums.PriceType     `json:"discountType"`
	DiscountValue  decimal.Decimal     `json:"discountValue"`
	DiscountAmount decimal.NullDecimal `json:"discountAmount"`
	MaxDiscount    decimal.NullDecimal `json:"maxDiscount"`
	MinOrderAmount decimal.NullDecimal `json:"minOrderAmount"`
}
