package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/pricing"
)

type tierFlags struct {
	price      string
	rules      []string
	rulesFile  string
	quantities []int
}

func (f *tierFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.price, "price", "", "unit price, raw catalog text allowed (required)")
	cmd.Flags().StringArrayVar(&f.rules, "rule", nil, "tier rule as quantity:type:value, e.g. 3:percentage:15 (repeatable)")
	cmd.Flags().StringVar(&f.rulesFile, "rules-file", "", "JSON file with a quantityPrices array")
	cmd.Flags().IntSliceVar(&f.quantities, "quantities", pricing.DefaultCandidateQuantities, "candidate quantities to price")
	_ = cmd.MarkFlagRequired("price")
}

func (f *tierFlags) load() (decimal.Decimal, []pricing.QuantityTierRule, error) {
	price := parseArg(f.price)
	if !price.Known() {
		return decimal.Zero, nil, fmt.Errorf("could not parse price %q", f.price)
	}

	rules := make([]pricing.QuantityTierRule, 0, len(f.rules))
	if f.rulesFile != "" {
		fromFile, err := readRulesFile(f.rulesFile)
		if err != nil {
			return decimal.Zero, nil, err
		}
		rules = append(rules, fromFile...)
	}
	for _, raw := range f.rules {
		rule, err := parseRule(raw)
		if err != nil {
			return decimal.Zero, nil, err
		}
		rules = append(rules, rule)
	}
	return price.Amount(), rules, nil
}

// parseRule reads quantity:type:value. Flag rules are always active.
func parseRule(raw string) (pricing.QuantityTierRule, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return pricing.QuantityTierRule{}, fmt.Errorf("rule %q: expected quantity:type:value", raw)
	}
	qty, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || qty < 1 {
		return pricing.QuantityTierRule{}, fmt.Errorf("rule %q: quantity must be a positive integer", raw)
	}
	priceType, err := enums.ParsePriceType(parts[1])
	if err != nil {
		return pricing.QuantityTierRule{}, fmt.Errorf("rule %q: %w", raw, err)
	}
	value, err := decimal.NewFromString(strings.TrimSpace(parts[2]))
	if err != nil {
		return pricing.QuantityTierRule{}, fmt.Errorf("rule %q: invalid value: %w", raw, err)
	}
	return pricing.QuantityTierRule{Quantity: qty, PriceType: priceType, Value: value, IsActive: true}, nil
}

// readRulesFile accepts either a bare rule array or a subcategory record with quantityPrices.
func readRulesFile(path string) ([]pricing.QuantityTierRule, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	var rules []pricing.QuantityTierRule
	if err := json.Unmarshal(payload, &rules); err == nil {
		return rules, nil
	}
	var record struct {
		QuantityPrices []pricing.QuantityTierRule `json:"quantityPrices"`
	}
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("decoding rules file: %w", err)
	}
	return record.QuantityPrices, nil
}

type tierRow struct {
	Quantity      int    `json:"quantity"`
	Price         string `json:"price"`
	UnitPrice     string `json:"unitPrice"`
	OriginalPrice string `json:"originalPrice"`
	Discount      string `json:"discount"`
	Savings       string `json:"savings"`
}

func toRow(tier pricing.ComputedTier) tierRow {
	return tierRow{
		Quantity:      tier.Quantity,
		Price:         tier.Price.StringFixed(2),
		UnitPrice:     tier.UnitPrice.StringFixed(2),
		OriginalPrice: tier.OriginalPrice.StringFixed(2),
		Discount:      tier.Discount.StringFixed(2),
		Savings:       tier.Savings().StringFixed(2),
	}
}

func writeTierTable(cmd *cobra.Command, tiers []pricing.ComputedTier) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "QTY\tPRICE\tUNIT\tORIGINAL\tDISCOUNT%\tSAVINGS")
	for _, tier := range tiers {
		row := toRow(tier)
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", row.Quantity, row.Price, row.UnitPrice, row.OriginalPrice, row.Discount, row.Savings)
	}
	return tw.Flush()
}

func newTiersCmd(a *app) *cobra.Command {
	var flags tierFlags
	var onlyDiscounted bool

	cmd := &cobra.Command{
		Use:   "tiers",
		Short: "Expand quantity-tier rules into priced tiers",
		Example: `  pricectl tiers --price 100 --rule 2:percentage:10 --rule 3:fixed:50
  pricectl tiers --price "₹1,299" --rules-file kurtas.json --quantities 2,3,4,6 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, rules, err := flags.load()
			if err != nil {
				return err
			}
			a.logg.Debug(a.logg.WithField(cmd.Context(), "rules", len(rules)), "computing tiers")

			tiers := pricing.ComputeTiers(base, rules, flags.quantities)
			if onlyDiscounted {
				tiers = pricing.AvailableDiscounts(tiers)
			}

			if a.output == "json" {
				rows := make([]tierRow, 0, len(tiers))
				for _, tier := range tiers {
					rows = append(rows, toRow(tier))
				}
				return writeJSON(cmd, rows)
			}
			return writeTierTable(cmd, tiers)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&onlyDiscounted, "discounted", false, "only list tiers that save money")
	return cmd
}

type quoteView struct {
	Current     tierRow  `json:"current"`
	Active      *tierRow `json:"activeTier"`
	Next        *tierRow `json:"nextTier"`
	UnitsToNext int      `json:"unitsToNext"`
}

func newQuoteCmd(a *app) *cobra.Command {
	var flags tierFlags
	var quantity int

	cmd := &cobra.Command{
		Use:     "quote",
		Short:   "Price one quantity and show the next tier to unlock",
		Example: `  pricectl quote --price 100 --rule 3:percentage:15 --qty 2`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if quantity < 1 {
				return fmt.Errorf("--qty must be at least 1")
			}
			base, rules, err := flags.load()
			if err != nil {
				return err
			}

			tiers := pricing.ComputeTiers(base, rules, flags.quantities)
			view := quoteView{
				Current:     toRow(pricing.ComputeTier(base, rules, quantity)),
				UnitsToNext: pricing.UnitsToNext(tiers, quantity),
			}
			if active := pricing.ActiveTier(tiers, quantity); active != nil {
				row := toRow(*active)
				view.Active = &row
			}
			if next := pricing.NextTier(tiers, quantity); next != nil {
				row := toRow(*next)
				view.Next = &row
			}

			if a.output == "json" {
				return writeJSON(cmd, view)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%d units: %s (was %s, saves %s)\n", quantity, view.Current.Price, view.Current.OriginalPrice, view.Current.Savings)
			if view.Next != nil {
				fmt.Fprintf(w, "add %d more for %s%% off\n", view.UnitsToNext, view.Next.Discount)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&quantity, "qty", 1, "quantity to price")
	return cmd
}
