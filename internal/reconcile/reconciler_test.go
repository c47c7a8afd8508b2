package reconcile

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront/internal/commerce"
	"github.com/angelmondragon/storefront/internal/products"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/pricing"
)

type fakeBackend struct {
	quantity func(ctx context.Context, req commerce.QuantityPriceRequest) (commerce.QuantityPrice, error)
	cart     func(ctx context.Context, lines []commerce.CartPriceLine) (commerce.CartPrices, error)
	coupon   func(ctx context.Context, req commerce.CouponRequest) (commerce.Coupon, error)
}

var errBackendDown = errors.New("backend down")

func (f *fakeBackend) CalculateQuantityPrice(ctx context.Context, req commerce.QuantityPriceRequest) (commerce.QuantityPrice, error) {
	if f.quantity == nil {
		return commerce.QuantityPrice{}, errBackendDown
	}
	return f.quantity(ctx, req)
}

func (f *fakeBackend) CalculateCartPrices(ctx context.Context, lines []commerce.CartPriceLine) (commerce.CartPrices, error) {
	if f.cart == nil {
		return commerce.CartPrices{}, errBackendDown
	}
	return f.cart(ctx, lines)
}

func (f *fakeBackend) ValidateCoupon(ctx context.Context, req commerce.CouponRequest) (commerce.Coupon, error) {
	if f.coupon == nil {
		return commerce.Coupon{}, errBackendDown
	}
	return f.coupon(ctx, req)
}

type ruleEstimator struct {
	rules []pricing.QuantityTierRule
}

func (e ruleEstimator) Estimate(_ context.Context, product products.Product, variant *products.Variant, quantity int) pricing.ComputedTier {
	return pricing.ComputeTier(products.UnitPrice(product, variant).Amount(), e.rules, quantity)
}

func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func line(itemID, productID string, price float64, qty int) Line {
	return Line{
		ItemID:   itemID,
		Product:  products.Product{ID: productID, Price: pricing.RawNumber(price)},
		Variant:  &products.Variant{ID: productID + "-v", Price: pricing.RawText("₹" + decimal.NewFromFloat(price).String())},
		Quantity: qty,
	}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			matched := 0
			for _, pair := range metric.GetLabel() {
				if labels[pair.GetName()] == pair.GetValue() {
					matched++
				}
			}
			if matched == len(labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func newReconciler(t *testing.T, backend Backend, rules []pricing.QuantityTierRule, m *metrics.PricingMetrics) *Reconciler {
	t.Helper()
	r, err := New(backend, ruleEstimator{rules: rules}, nil, Options{Concurrency: 3, Metrics: m}, logger.Nop())
	require.NoError(t, err)
	return r
}

func fifteenPercentAtThree() []pricing.QuantityTierRule {
	return []pricing.QuantityTierRule{{Quantity: 3, PriceType: enums.PriceTypePercentage, Value: dec(15), IsActive: true}}
}

func TestNewValidatesDependencies(t *testing.T) {
	_, err := New(nil, ruleEstimator{}, nil, Options{}, logger.Nop())
	require.Error(t, err)
	_, err = New(&fakeBackend{}, nil, nil, Options{}, logger.Nop())
	require.Error(t, err)
	_, err = New(&fakeBackend{}, ruleEstimator{}, nil, Options{}, nil)
	require.Error(t, err)
}

func TestReconcileEmptyCart(t *testing.T) {
	r := newReconciler(t, &fakeBackend{}, nil, nil)

	got := r.Reconcile(context.Background(), nil)
	assert.Empty(t, got.Items)
	assert.True(t, got.ActualSubtotal.IsZero())
	assert.True(t, got.TotalSavings.IsZero())
	assert.Equal(t, enums.PricingSourceRaw, got.Source)
}

func TestReconcilePrefersBackendSummary(t *testing.T) {
	backend := &fakeBackend{
		quantity: func(_ context.Context, req commerce.QuantityPriceRequest) (commerce.QuantityPrice, error) {
			assert.Equal(t, req.ProductID+"-v", req.VariantID)
			original := dec(100).Mul(decimal.NewFromInt(int64(req.Quantity)))
			return commerce.QuantityPrice{FinalPrice: original.Mul(dec(0.9)), OriginalPrice: original}, nil
		},
		cart: func(_ context.Context, lines []commerce.CartPriceLine) (commerce.CartPrices, error) {
			assert.Len(t, lines, 2)
			return commerce.CartPrices{Summary: commerce.CartSummary{Subtotal: decimal.NewNullDecimal(dec(420))}}, nil
		},
	}
	r := newReconciler(t, backend, nil, nil)

	got := r.Reconcile(context.Background(), []Line{line("a", "p1", 100, 2), line("b", "p2", 100, 3)})
	require.Len(t, got.Items, 2)
	assert.Equal(t, "a", got.Items[0].ItemID)
	assert.True(t, got.Items[0].FinalPrice.Equal(dec(180)))
	assert.True(t, got.Items[0].Savings.Equal(dec(20)))
	assert.True(t, got.Items[0].Discount.Equal(dec(10)))
	assert.Equal(t, enums.PricingSourceBackend, got.Items[0].Source)
	assert.Equal(t, enums.ItemPriceStateReconciled, got.Items[1].State)

	assert.True(t, got.OriginalSubtotal.Equal(dec(500)))
	assert.True(t, got.ActualSubtotal.Equal(dec(420)))
	assert.True(t, got.TotalSavings.Equal(dec(80)))
	assert.Equal(t, enums.PricingSourceBackend, got.Source)
}

func TestReconcileFallsBackToItemTotals(t *testing.T) {
	backend := &fakeBackend{
		quantity: func(_ context.Context, req commerce.QuantityPriceRequest) (commerce.QuantityPrice, error) {
			if req.ProductID == "broken" {
				return commerce.QuantityPrice{}, errBackendDown
			}
			return commerce.QuantityPrice{FinalPrice: dec(255), OriginalPrice: dec(300)}, nil
		},
	}
	r := newReconciler(t, backend, nil, nil)

	got := r.Reconcile(context.Background(), []Line{line("a", "p1", 100, 3), line("b", "broken", 50, 2)})
	require.Len(t, got.Items, 2)

	fallback := got.Items[1]
	assert.True(t, fallback.FinalPrice.Equal(dec(100)))
	assert.True(t, fallback.OriginalPrice.Equal(dec(100)))
	assert.True(t, fallback.Discount.IsZero())
	assert.True(t, fallback.Savings.IsZero())
	assert.Equal(t, enums.PricingSourceLocal, fallback.Source)

	assert.True(t, got.ActualSubtotal.Equal(dec(355)))
	assert.True(t, got.OriginalSubtotal.Equal(dec(400)))
	assert.Equal(t, enums.PricingSourceLocal, got.Source)
}

func TestReconcileIgnoresEmptyBackendReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/calculate-quantity-price") {
			_, _ = io.WriteString(w, `{"success":true,"data":null}`)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"success":false,"message":"boom"}`)
	}))
	t.Cleanup(srv.Close)

	client, err := commerce.New(config.CommerceConfig{
		BaseURL:        srv.URL,
		Timeout:        time.Second,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
	}, srv.Client(), nil, logger.Nop())
	require.NoError(t, err)
	r := newReconciler(t, client, nil, nil)

	got := r.Reconcile(context.Background(), []Line{line("a", "p1", 100, 3)})
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].FinalPrice.Equal(dec(300)))
	assert.True(t, got.Items[0].Discount.IsZero())
	assert.Equal(t, enums.PricingSourceLocal, got.Items[0].Source)
	assert.True(t, got.ActualSubtotal.Equal(dec(300)))
	assert.True(t, got.TotalSavings.IsZero())
	assert.Equal(t, enums.PricingSourceRaw, got.Source)

	repriced, err := r.RepriceItem(context.Background(), ItemKey("u1", "a"), line("a", "p1", 100, 3))
	require.NoError(t, err)
	assert.Equal(t, enums.ItemPriceStateOptimistic, repriced.State)
	assert.True(t, repriced.FinalPrice.Equal(dec(300)))
}

func TestReconcileCarriesBackendRule(t *testing.T) {
	backend := &fakeBackend{
		quantity: func(context.Context, commerce.QuantityPriceRequest) (commerce.QuantityPrice, error) {
			return commerce.QuantityPrice{
				FinalPrice:         dec(255),
				OriginalPrice:      dec(300),
				ApplicableDiscount: []byte(`{"quantity":3,"priceType":"PERCENTAGE","value":15,"isActive":true}`),
			}, nil
		},
	}
	r := newReconciler(t, backend, nil, nil)

	got := r.Reconcile(context.Background(), []Line{line("a", "p1", 100, 3)})
	require.Len(t, got.Items, 1)
	require.NotNil(t, got.Items[0].Rule)
	assert.Equal(t, 3, got.Items[0].Rule.Quantity)
	assert.Equal(t, enums.PriceTypePercentage, got.Items[0].Rule.PriceType)
}

func TestReconcileRawWhenBackendUnavailable(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewPricingMetrics(reg)
	r := newReconciler(t, &fakeBackend{}, fifteenPercentAtThree(), m)

	lines := []Line{line("a", "p1", 100, 3), line("b", "p2", 20, 1)}
	got := r.Reconcile(context.Background(), lines)

	for i, item := range got.Items {
		raw := lines[i].rawTotal()
		assert.True(t, item.FinalPrice.Equal(raw), "item %d", i)
		assert.True(t, item.Discount.IsZero())
	}
	assert.True(t, got.ActualSubtotal.Equal(dec(320)))
	assert.True(t, got.TotalSavings.IsZero())
	assert.Equal(t, enums.PricingSourceRaw, got.Source)

	assert.Equal(t, 2.0, counterValue(t, reg, "storefront_reconcile_total", map[string]string{"scope": "item", "source": "local"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "storefront_reconcile_total", map[string]string{"scope": "cart", "source": "raw"}))
}

func TestReconcileClampsBackendSubtotal(t *testing.T) {
	backend := &fakeBackend{
		cart: func(context.Context, []commerce.CartPriceLine) (commerce.CartPrices, error) {
			return commerce.CartPrices{Summary: commerce.CartSummary{Subtotal: decimal.NewNullDecimal(dec(9999))}}, nil
		},
	}
	r := newReconciler(t, backend, nil, nil)

	got := r.Reconcile(context.Background(), []Line{line("a", "p1", 10, 2)})
	assert.True(t, got.ActualSubtotal.Equal(dec(20)))
	assert.True(t, got.TotalSavings.IsZero())

	backend.cart = func(context.Context, []commerce.CartPriceLine) (commerce.CartPrices, error) {
		return commerce.CartPrices{Summary: commerce.CartSummary{Subtotal: decimal.NewNullDecimal(dec(-5))}}, nil
	}
	got = r.Reconcile(context.Background(), []Line{line("a", "p1", 10, 2)})
	assert.True(t, got.ActualSubtotal.IsZero())
	assert.True(t, got.TotalSavings.Equal(dec(20)))
}

func TestReconcileInvariantsOnRandomCarts(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	backend := &fakeBackend{
		quantity: func(_ context.Context, req commerce.QuantityPriceRequest) (commerce.QuantityPrice, error) {
			if req.Quantity%4 == 0 {
				return commerce.QuantityPrice{}, errBackendDown
			}
			return commerce.QuantityPrice{FinalPrice: dec(float64(req.Quantity) * 7.5), OriginalPrice: dec(float64(req.Quantity) * 9)}, nil
		},
	}
	var subtotal atomic.Value
	backend.cart = func(context.Context, []commerce.CartPriceLine) (commerce.CartPrices, error) {
		value, _ := subtotal.Load().(decimal.Decimal)
		if value.IsZero() {
			return commerce.CartPrices{}, errBackendDown
		}
		return commerce.CartPrices{Summary: commerce.CartSummary{Subtotal: decimal.NewNullDecimal(value)}}, nil
	}
	r := newReconciler(t, backend, fifteenPercentAtThree(), nil)

	for round := 0; round < 200; round++ {
		lines := make([]Line, rng.IntN(6))
		for i := range lines {
			lines[i] = line("i", "p", float64(rng.IntN(500)), 1+rng.IntN(9))
		}
		subtotal.Store(dec(float64(rng.IntN(4000) - 500)))

		got := r.Reconcile(context.Background(), lines)
		assert.False(t, got.ActualSubtotal.IsNegative(), "round %d", round)
		assert.True(t, got.ActualSubtotal.LessThanOrEqual(got.OriginalSubtotal), "round %d", round)
		assert.True(t, got.TotalSavings.Equal(got.OriginalSubtotal.Sub(got.ActualSubtotal)), "round %d", round)
		for _, item := range got.Items {
			assert.True(t, item.FinalPrice.LessThanOrEqual(item.OriginalPrice), "round %d", round)
			assert.False(t, item.Savings.IsNegative(), "round %d", round)
		}
	}
}

func TestEstimateAppliesLocalTier(t *testing.T) {
	r := newReconciler(t, &fakeBackend{}, fifteenPercentAtThree(), nil)

	got := r.Estimate(context.Background(), line("a", "p1", 100, 3))
	assert.True(t, got.FinalPrice.Equal(dec(255)))
	assert.True(t, got.OriginalPrice.Equal(dec(300)))
	assert.True(t, got.Savings.Equal(dec(45)))
	assert.True(t, got.Discount.Equal(dec(15)))
	assert.Equal(t, enums.ItemPriceStateOptimistic, got.State)

	unpriced := line("b", "p2", 0, 3)
	unpriced.Variant.Price = pricing.RawText("call us")
	unpriced.Product.Price = nil
	got = r.Estimate(context.Background(), unpriced)
	assert.True(t, got.FinalPrice.IsZero())
	assert.True(t, got.Discount.IsZero())
}

func TestRepriceItemRecordsReconciledPrice(t *testing.T) {
	backend := &fakeBackend{
		quantity: func(context.Context, commerce.QuantityPriceRequest) (commerce.QuantityPrice, error) {
			return commerce.QuantityPrice{FinalPrice: dec(250), OriginalPrice: dec(300)}, nil
		},
	}
	r := newReconciler(t, backend, fifteenPercentAtThree(), nil)
	key := ItemKey("u1", "a")

	got, err := r.RepriceItem(context.Background(), key, line("a", "p1", 100, 3))
	require.NoError(t, err)
	assert.True(t, got.FinalPrice.Equal(dec(250)))

	stored, state, ok := r.Tracker().Lookup(key)
	require.True(t, ok)
	assert.Equal(t, enums.ItemPriceStateReconciled, state)
	assert.True(t, stored.FinalPrice.Equal(dec(250)))
}

func TestRepriceItemFailureKeepsOptimistic(t *testing.T) {
	r := newReconciler(t, &fakeBackend{}, fifteenPercentAtThree(), nil)
	key := ItemKey("u1", "a")

	got, err := r.RepriceItem(context.Background(), key, line("a", "p1", 100, 3))
	require.NoError(t, err)
	assert.True(t, got.FinalPrice.Equal(dec(255)))

	_, state, ok := r.Tracker().Lookup(key)
	require.True(t, ok)
	assert.Equal(t, enums.ItemPriceStateOptimistic, state)
}

func TestRepriceItemCancelsInFlightCall(t *testing.T) {
	started := make(chan struct{})
	var calls atomic.Int32
	backend := &fakeBackend{
		quantity: func(ctx context.Context, req commerce.QuantityPriceRequest) (commerce.QuantityPrice, error) {
			if calls.Add(1) == 1 {
				close(started)
				<-ctx.Done()
				return commerce.QuantityPrice{}, ctx.Err()
			}
			return commerce.QuantityPrice{FinalPrice: dec(340), OriginalPrice: dec(400)}, nil
		},
	}
	reg := prometheus.NewRegistry()
	m := metrics.NewPricingMetrics(reg)
	r := newReconciler(t, backend, nil, m)
	key := ItemKey("u1", "a")

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = r.RepriceItem(context.Background(), key, line("a", "p1", 100, 3))
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("first call never reached the backend")
	}

	latest, err := r.RepriceItem(context.Background(), key, line("a", "p1", 100, 4))
	require.NoError(t, err)
	wg.Wait()

	require.ErrorIs(t, firstErr, ErrSuperseded)
	assert.True(t, latest.FinalPrice.Equal(dec(340)))

	stored, state, _ := r.Tracker().Lookup(key)
	assert.Equal(t, 4, stored.Quantity)
	assert.Equal(t, enums.ItemPriceStateReconciled, state)
	assert.Equal(t, 1.0, counterValue(t, reg, "storefront_reconcile_stale_total", map[string]string{"scope": "item"}))
}

func TestRepriceItemDiscardsLateResponse(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	backend := &fakeBackend{
		quantity: func(_ context.Context, req commerce.QuantityPriceRequest) (commerce.QuantityPrice, error) {
			if calls.Add(1) == 1 {
				close(started)
				<-release
				return commerce.QuantityPrice{FinalPrice: dec(1), OriginalPrice: dec(300)}, nil
			}
			return commerce.QuantityPrice{FinalPrice: dec(170), OriginalPrice: dec(200)}, nil
		},
	}
	r := newReconciler(t, backend, nil, nil)
	key := ItemKey("u1", "a")

	done := make(chan error, 1)
	go func() {
		_, err := r.RepriceItem(context.Background(), key, line("a", "p1", 100, 3))
		done <- err
	}()
	<-started

	_, err := r.RepriceItem(context.Background(), key, line("a", "p1", 100, 2))
	require.NoError(t, err)
	close(release)
	require.ErrorIs(t, <-done, ErrSuperseded)

	stored, _, _ := r.Tracker().Lookup(key)
	assert.True(t, stored.FinalPrice.Equal(dec(170)))
}

func TestCheckoutTotalsWithoutCoupon(t *testing.T) {
	r := newReconciler(t, &fakeBackend{}, nil, nil)

	got, err := r.CheckoutTotals(context.Background(), []Line{line("a", "p1", 100, 3)}, "  ")
	require.NoError(t, err)
	assert.True(t, got.Total.Equal(dec(300)))
	assert.True(t, got.CouponDiscount.IsZero())
	assert.Empty(t, got.CouponCode)
}

func TestCheckoutTotalsFoldsCoupon(t *testing.T) {
	backend := &fakeBackend{
		quantity: func(context.Context, commerce.QuantityPriceRequest) (commerce.QuantityPrice, error) {
			return commerce.QuantityPrice{FinalPrice: dec(255), OriginalPrice: dec(300)}, nil
		},
		cart: func(context.Context, []commerce.CartPriceLine) (commerce.CartPrices, error) {
			return commerce.CartPrices{Summary: commerce.CartSummary{Subtotal: decimal.NewNullDecimal(dec(255))}}, nil
		},
		coupon: func(_ context.Context, req commerce.CouponRequest) (commerce.Coupon, error) {
			assert.Equal(t, "SAVE10", req.Code)
			assert.True(t, req.Subtotal.Equal(dec(255)))
			return commerce.Coupon{Code: req.Code, DiscountType: enums.PriceTypePercentage, DiscountValue: dec(10), MaxDiscount: decimal.NewNullDecimal(dec(20))}, nil
		},
	}
	r := newReconciler(t, backend, nil, nil)

	got, err := r.CheckoutTotals(context.Background(), []Line{line("a", "p1", 100, 3)}, " SAVE10 ")
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", got.CouponCode)
	assert.True(t, got.CouponDiscount.Equal(dec(20)))
	assert.True(t, got.TotalSavings.Equal(dec(65)))
	assert.True(t, got.Total.Equal(dec(235)))
}

func TestCheckoutTotalsUsesBackendAmountAndFloorsTotal(t *testing.T) {
	backend := &fakeBackend{
		coupon: func(_ context.Context, req commerce.CouponRequest) (commerce.Coupon, error) {
			return commerce.Coupon{Code: req.Code, DiscountType: enums.PriceTypeFixed, DiscountValue: dec(500), DiscountAmount: decimal.NewNullDecimal(dec(500))}, nil
		},
	}
	r := newReconciler(t, backend, nil, nil)

	got, err := r.CheckoutTotals(context.Background(), []Line{line("a", "p1", 40, 2)}, "BIG")
	require.NoError(t, err)
	assert.True(t, got.CouponDiscount.Equal(dec(80)))
	assert.True(t, got.Total.IsZero())
}

func TestCheckoutTotalsRejectedCoupon(t *testing.T) {
	backend := &fakeBackend{
		coupon: func(context.Context, commerce.CouponRequest) (commerce.Coupon, error) {
			return commerce.Coupon{}, pkgerrors.New(pkgerrors.CodeValidation, "Coupon has expired")
		},
	}
	r := newReconciler(t, backend, nil, nil)

	_, err := r.CheckoutTotals(context.Background(), []Line{line("a", "p1", 40, 2)}, "OLD")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeCouponRejected, typed.Code())
	assert.Equal(t, "Coupon has expired", typed.Message())
}

func TestCheckoutTotalsGenericRejection(t *testing.T) {
	backend := &fakeBackend{
		coupon: func(context.Context, commerce.CouponRequest) (commerce.Coupon, error) {
			return commerce.Coupon{}, pkgerrors.New(pkgerrors.CodeNotFound, "")
		},
	}
	r := newReconciler(t, backend, nil, nil)

	_, err := r.CheckoutTotals(context.Background(), []Line{line("a", "p1", 40, 2)}, "NOPE")
	assert.Equal(t, couponFallbackMessage, pkgerrors.As(err).Message())
}

func TestCheckoutTotalsCouponServiceDown(t *testing.T) {
	r := newReconciler(t, &fakeBackend{}, nil, nil)

	_, err := r.CheckoutTotals(context.Background(), []Line{line("a", "p1", 40, 2)}, "SAVE")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestCheckoutTotalsMinimumOrder(t *testing.T) {
	backend := &fakeBackend{
		coupon: func(_ context.Context, req commerce.CouponRequest) (commerce.Coupon, error) {
			return commerce.Coupon{Code: req.Code, DiscountType: enums.PriceTypeFixed, DiscountValue: dec(10), MinOrderAmount: decimal.NewNullDecimal(dec(500))}, nil
		},
	}
	r := newReconciler(t, backend, nil, nil)

	_, err := r.CheckoutTotals(context.Background(), []Line{line("a", "p1", 40, 2)}, "BIGSPENDER")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeCouponRejected))
	assert.Contains(t, pkgerrors.As(err).Message(), "500.00")
}

func TestCheckoutTotalsInvalidCouponValue(t *testing.T) {
	backend := &fakeBackend{
		coupon: func(_ context.Context, req commerce.CouponRequest) (commerce.Coupon, error) {
			return commerce.Coupon{Code: req.Code, DiscountType: enums.PriceTypePercentage, DiscountValue: dec(150)}, nil
		},
	}
	r := newReconciler(t, backend, nil, nil)

	_, err := r.CheckoutTotals(context.Background(), []Line{line("a", "p1", 40, 2)}, "WEIRD")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeCouponRejected))
}

func TestCheckoutTotalsEmptyCartRejectsCoupon(t *testing.T) {
	r := newReconciler(t, &fakeBackend{}, nil, nil)

	_, err := r.CheckoutTotals(context.Background(), nil, "SAVE")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeCouponRejected))
}
