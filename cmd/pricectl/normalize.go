package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/storefront/pkg/pricing"
)

type normalizedPrice struct {
	Raw    string   `json:"raw"`
	Amount *float64 `json:"amount"`
}

func newNormalizeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <price>...",
		Short: "Parse raw catalog prices the way the storefront does",
		Example: `  pricectl normalize "₹1,299.00" "Rs. 499" 250
  pricectl normalize "price on request" -o json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := make([]normalizedPrice, 0, len(args))
			for _, raw := range args {
				price := parseArg(raw)
				entry := normalizedPrice{Raw: raw}
				if price.Known() {
					amount := price.Float64()
					entry.Amount = &amount
				} else {
					a.logg.Warn(a.logg.WithField(cmd.Context(), "raw", raw), "price could not be parsed")
				}
				out = append(out, entry)
			}

			if a.output == "json" {
				return writeJSON(cmd, out)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RAW\tAMOUNT")
			for _, entry := range out {
				amount := "unknown"
				if entry.Amount != nil {
					amount = fmt.Sprintf("%.2f", *entry.Amount)
				}
				fmt.Fprintf(tw, "%s\t%s\n", entry.Raw, amount)
			}
			return tw.Flush()
		},
	}
}

// parseArg treats a bare JSON number as numeric input and everything else as display text.
func parseArg(raw string) pricing.Price {
	var number json.Number
	if err := json.Unmarshal([]byte(raw), &number); err == nil {
		return pricing.ParsePrice(number)
	}
	return pricing.ParsePrice(raw)
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
