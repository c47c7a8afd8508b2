package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/pkg/enums"
)

// CouponDiscount prices a coupon against a subtotal. The result never exceeds the subtotal,
// and maxDiscount caps it when positive.
func CouponDiscount(subtotal decimal.Decimal, priceType enums.PriceType, value, maxDiscount decimal.Decimal) (decimal.Decimal, error) {
	if subtotal.IsNegative() {
		subtotal = decimal.Zero
	}
	parsed, err := enums.ParsePriceType(priceType.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid coupon type %q", priceType)
	}

	var discount decimal.Decimal
	switch parsed {
	case enums.PriceTypePercentage:
		if value.IsNegative() || value.GreaterThan(hundred) {
			return decimal.Zero, fmt.Errorf("percentage must be 0-100")
		}
		discount = subtotal.Mul(value).Div(hundred)
	case enums.PriceTypeFixed:
		if value.IsNegative() {
			return decimal.Zero, fmt.Errorf("fixed discount cannot be negative")
		}
		discount = value
	}

	if maxDiscount.IsPositive() && discount.GreaterThan(maxDiscount) {
		discount = maxDiscount
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	return discount.Round(2), nil
}
