package discounts

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront/internal/products"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/pricing"
)

type stubRules struct {
	rules []pricing.QuantityTierRule
	err   error
	calls int
}

func (s *stubRules) RulesFor(context.Context, any) ([]pricing.QuantityTierRule, error) {
	s.calls++
	return s.rules, s.err
}

func rule(qty int, pct int64) pricing.QuantityTierRule {
	return pricing.QuantityTierRule{Quantity: qty, PriceType: enums.PriceTypePercentage, Value: decimal.NewFromInt(pct), IsActive: true}
}

func kurti(price string) products.Product {
	return products.Product{
		ID:          "p1",
		Name:        "Anarkali",
		Subcategory: json.RawMessage(`{"name":"Kurtis"}`),
		Price:       pricing.RawText(price),
	}
}

func newService(t *testing.T, rules RuleSource) *Service {
	t.Helper()
	svc, err := NewService(rules, nil, logger.Nop())
	require.NoError(t, err)
	return svc
}

func TestQuoteComputesTierView(t *testing.T) {
	svc := newService(t, &stubRules{rules: []pricing.QuantityTierRule{rule(2, 10), rule(4, 20)}})

	quote, err := svc.Quote(context.Background(), kurti("₹100"), nil, 3)
	require.NoError(t, err)

	require.Len(t, quote.Tiers, 3)
	assert.Len(t, quote.Available, 3)
	assert.True(t, quote.HasDiscounts())
	require.NotNil(t, quote.Exact)
	assert.True(t, quote.Exact.Price.Equal(decimal.NewFromInt(270)))
	require.NotNil(t, quote.Active)
	assert.Equal(t, 3, quote.Active.Quantity)
	require.NotNil(t, quote.Next)
	assert.Equal(t, 4, quote.Next.Quantity)
	assert.Equal(t, 1, quote.UnitsToNext)
	assert.True(t, quote.Current.Price.Equal(decimal.NewFromInt(270)))
}

func TestQuoteOnDemandBeyondCandidates(t *testing.T) {
	svc := newService(t, &stubRules{rules: []pricing.QuantityTierRule{rule(2, 10), rule(10, 30)}})

	quote, err := svc.Quote(context.Background(), kurti("100"), nil, 12)
	require.NoError(t, err)
	assert.Nil(t, quote.Exact)
	assert.Nil(t, quote.Next)
	assert.Equal(t, 4, quote.Active.Quantity)
	assert.True(t, quote.Current.Price.Equal(decimal.NewFromInt(840)))
}

func TestQuoteUsesVariantPrice(t *testing.T) {
	svc := newService(t, &stubRules{rules: []pricing.QuantityTierRule{rule(2, 50)}})

	quote, err := svc.Quote(context.Background(), kurti("₹100"), &products.Variant{ID: "v1", Price: pricing.RawNumber(40)}, 2)
	require.NoError(t, err)
	assert.Equal(t, "v1", quote.VariantID)
	assert.True(t, quote.Current.Price.Equal(decimal.NewFromInt(40)))
}

func TestQuoteWithoutUsablePrice(t *testing.T) {
	rules := &stubRules{rules: []pricing.QuantityTierRule{rule(2, 10)}}
	svc := newService(t, rules)

	for _, price := range []string{"", "call for price", "0"} {
		quote, err := svc.Quote(context.Background(), kurti(price), nil, 2)
		require.NoError(t, err)
		assert.Empty(t, quote.Tiers, "price %q", price)
		assert.False(t, quote.HasDiscounts())
		assert.True(t, quote.Current.Discount.IsZero())
	}
	assert.Equal(t, 0, rules.calls, "rules are not fetched for undiscountable prices")
}

func TestQuoteRecoversFromRuleErrors(t *testing.T) {
	svc := newService(t, &stubRules{err: errors.New("catalog down")})

	quote, err := svc.Quote(context.Background(), kurti("100"), nil, 3)
	require.NoError(t, err)
	require.Len(t, quote.Tiers, 3)
	assert.Empty(t, quote.Available)
	assert.True(t, quote.Current.Price.Equal(decimal.NewFromInt(300)))
}

func TestQuoteValidatesQuantity(t *testing.T) {
	svc := newService(t, &stubRules{})
	_, err := svc.Quote(context.Background(), kurti("100"), nil, 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestEstimate(t *testing.T) {
	svc := newService(t, &stubRules{rules: []pricing.QuantityTierRule{rule(3, 15)}})
	tier := svc.Estimate(context.Background(), kurti("100"), nil, 3)
	assert.True(t, tier.Price.Equal(decimal.NewFromInt(255)))
	assert.True(t, tier.Savings().Equal(decimal.NewFromInt(45)))
}

func TestCustomCandidates(t *testing.T) {
	svc, err := NewService(&stubRules{rules: []pricing.QuantityTierRule{rule(5, 10)}}, []int{5, 10}, logger.Nop())
	require.NoError(t, err)

	quote, err := svc.Quote(context.Background(), kurti("100"), nil, 1)
	require.NoError(t, err)
	require.Len(t, quote.Tiers, 2)
	assert.Equal(t, 5, quote.Next.Quantity)
	assert.Equal(t, 4, quote.UnitsToNext)
}
