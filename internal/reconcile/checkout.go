package reconcile

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/internal/commerce"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/pricing"
)

const couponFallbackMessage = "Invalid or expired coupon code"

// CheckoutTotals reconciles the cart and folds in an optional coupon. Coupon savings add
// to quantity-tier savings. Coupon failures abort with CodeCouponRejected, or
// CodeDependency when the coupon service could not be reached.
func (r *Reconciler) CheckoutTotals(ctx context.Context, lines []Line, couponCode string) (CheckoutTotals, error) {
	cart := r.Reconcile(ctx, lines)
	totals := CheckoutTotals{
		Pricing:        cart,
		CouponDiscount: decimal.Zero,
		TotalSavings:   cart.TotalSavings,
		Total:          cart.ActualSubtotal,
	}

	code := strings.TrimSpace(couponCode)
	if code == "" {
		return totals, nil
	}
	if len(lines) == 0 {
		return CheckoutTotals{}, rejected(code, "Add items to your cart before applying a coupon")
	}

	coupon, err := r.backend.ValidateCoupon(ctx, commerce.CouponRequest{Code: code, Subtotal: cart.ActualSubtotal})
	if err != nil {
		return CheckoutTotals{}, r.couponError(ctx, code, err)
	}

	subtotal := cart.ActualSubtotal
	if coupon.MinOrderAmount.Valid && subtotal.LessThan(coupon.MinOrderAmount.Decimal) {
		return CheckoutTotals{}, rejected(code, "Minimum order amount of "+coupon.MinOrderAmount.Decimal.StringFixed(2)+" required")
	}

	var discount decimal.Decimal
	if coupon.DiscountAmount.Valid {
		discount = clamp(coupon.DiscountAmount.Decimal, decimal.Zero, subtotal)
	} else {
		maxDiscount := decimal.Zero
		if coupon.MaxDiscount.Valid {
			maxDiscount = coupon.MaxDiscount.Decimal
		}
		discount, err = pricing.CouponDiscount(subtotal, coupon.DiscountType, coupon.DiscountValue, maxDiscount)
		if err != nil {
			return CheckoutTotals{}, rejected(code, err.Error())
		}
	}

	totals.CouponCode = code
	totals.CouponDiscount = discount
	totals.TotalSavings = cart.TotalSavings.Add(discount)
	totals.Total = subtotal.Sub(discount)
	if totals.Total.IsNegative() {
		totals.Total = decimal.Zero
	}
	return totals, nil
}

func (r *Reconciler) couponError(ctx context.Context, code string, err error) error {
	switch pkgerrors.CodeOf(err) {
	case pkgerrors.CodeValidation, pkgerrors.CodeNotFound:
		message := commerce.BackendMessage(err)
		if message == "" {
			message = couponFallbackMessage
		}
		return rejected(code, message)
	}
	r.logg.Error(r.logg.WithField(ctx, "coupon_code", code), "coupon validation failed", err)
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "could not validate coupon, please try again")
}

func rejected(code, message string) error {
	return pkgerrors.New(pkgerrors.CodeCouponRejected, message).WithDetails(map[string]string{"couponCode": code})
}
