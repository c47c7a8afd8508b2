package pricing

// DiscountForQuantity returns the tier computed for exactly qty, if any.
func DiscountForQuantity(tiers []ComputedTier, qty int) *ComputedTier {
	for _, tier := range tiers {
		if tier.Quantity == qty {
			copy := tier
			return &copy
		}
	}
	return nil
}

// ActiveTier returns the tier with the largest quantity not exceeding qty.
func ActiveTier(tiers []ComputedTier, qty int) *ComputedTier {
	var selected *ComputedTier
	for _, tier := range tiers {
		if tier.Quantity <= qty {
			if selected == nil || tier.Quantity > selected.Quantity {
				copy := tier
				selected = &copy
			}
		}
	}
	return selected
}

// NextTier returns the tier with the smallest quantity strictly above qty.
func NextTier(tiers []ComputedTier, qty int) *ComputedTier {
	var selected *ComputedTier
	for _, tier := range tiers {
		if tier.Quantity > qty {
			if selected == nil || tier.Quantity < selected.Quantity {
				copy := tier
				selected = &copy
			}
		}
	}
	return selected
}

// UnitsToNext is how many more units unlock the next tier; 0 when there is none.
func UnitsToNext(tiers []ComputedTier, qty int) int {
	next := NextTier(tiers, qty)
	if next == nil {
		return 0
	}
	return next.Quantity - qty
}
