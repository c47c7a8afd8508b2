package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/storefront/pkg/logger"
)

type app struct {
	logLevel string
	output   string
	logg     *logger.Logger
}

// newRootCmd wires every subcommand. Tests build their own tree so flags never leak.
func newRootCmd(stderr io.Writer) *cobra.Command {
	a := &app{logg: logger.Nop()}

	root := &cobra.Command{
		Use:   "pricectl",
		Short: "Offline pricing calculator for support staff",
		Long: `pricectl reproduces the storefront's pricing math without a running backend:
normalize raw catalog prices, expand quantity-tier rules, quote a quantity and
price a coupon against a subtotal.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.output != "table" && a.output != "json" {
				return fmt.Errorf("invalid --output %q, expected table or json", a.output)
			}
			a.logg = logger.New(logger.Options{
				ServiceName: "pricectl",
				Level:       logger.ParseLevel(a.logLevel),
				Output:      stderr,
				Format:      "console",
			})
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", "table", "output format: table or json")

	root.AddCommand(
		newNormalizeCmd(a),
		newTiersCmd(a),
		newQuoteCmd(a),
		newCouponCmd(a),
	)
	return root
}

func main() {
	if err := newRootCmd(os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
