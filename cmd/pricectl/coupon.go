package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/pricing"
)

type couponView struct {
	Subtotal string `json:"subtotal"`
	Discount string `json:"discount"`
	Total    string `json:"total"`
}

func newCouponCmd(a *app) *cobra.Command {
	var subtotal, couponType, value, maxDiscount string

	cmd := &cobra.Command{
		Use:   "coupon",
		Short: "Price a coupon against a subtotal",
		Example: `  pricectl coupon --subtotal 300 --type percentage --value 10 --max 20
  pricectl coupon --subtotal 40 --type fixed --value 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sub := parseArg(subtotal)
			if !sub.Known() {
				return fmt.Errorf("could not parse subtotal %q", subtotal)
			}
			priceType, err := enums.ParsePriceType(couponType)
			if err != nil {
				return err
			}
			amount, err := decimal.NewFromString(value)
			if err != nil {
				return fmt.Errorf("invalid --value: %w", err)
			}
			capAmount := decimal.Zero
			if maxDiscount != "" {
				if capAmount, err = decimal.NewFromString(maxDiscount); err != nil {
					return fmt.Errorf("invalid --max: %w", err)
				}
			}

			discount, err := pricing.CouponDiscount(sub.Amount(), priceType, amount, capAmount)
			if err != nil {
				return err
			}
			total := decimal.Max(decimal.Zero, sub.Amount().Sub(discount))
			view := couponView{
				Subtotal: sub.Amount().StringFixed(2),
				Discount: discount.StringFixed(2),
				Total:    total.StringFixed(2),
			}

			if a.output == "json" {
				return writeJSON(cmd, view)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "subtotal %s, coupon -%s, total %s\n", view.Subtotal, view.Discount, view.Total)
			return nil
		},
	}
	cmd.Flags().StringVar(&subtotal, "subtotal", "", "cart subtotal (required)")
	cmd.Flags().StringVar(&couponType, "type", "", "percentage or fixed (required)")
	cmd.Flags().StringVar(&value, "value", "", "coupon value (required)")
	cmd.Flags().StringVar(&maxDiscount, "max", "", "maximum discount, empty for no cap")
	_ = cmd.MarkFlagRequired("subtotal")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}
