package enums

// ItemPriceState tracks the displayed price lifecycle of a single cart line.
type ItemPriceState string

const (
	ItemPriceStateStale      ItemPriceState = "stale"
	ItemPriceStateOptimistic ItemPriceState = "optimistic"
	ItemPriceStateReconciled ItemPriceState = "reconciled"
)

// String implements fmt.Stringer.
func (s ItemPriceState) String() string {
	return string(s)
}
