package cart

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront/internal/commerce"
	"github.com/angelmondragon/storefront/internal/products"
	"github.com/angelmondragon/storefront/internal/reconcile"
	"github.com/angelmondragon/storefront/internal/snapshots"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/pricing"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func tickingClock() func() time.Time {
	now := fixedNow
	return func() time.Time {
		now = now.Add(time.Millisecond)
		return now
	}
}

func kurta() products.Product {
	return products.Product{
		ID:          "p1",
		Name:        "Cotton Kurta",
		Category:    json.RawMessage(`"Clothing"`),
		Subcategory: json.RawMessage(`{"name":"Kurtas"}`),
		Images:      []json.RawMessage{json.RawMessage(`"https://cdn.example/k.jpg"`)},
		Price:       pricing.RawText("₹1,299"),
	}
}

func blueM() *products.Variant {
	return &products.Variant{ID: "v1", Color: "blue", Size: "M", Price: pricing.RawText("₹100"), Stock: 4, SKU: "K-B-M"}
}

func TestReduceAddMergesSameVariant(t *testing.T) {
	items, err := Reduce(nil, AddItem(kurta(), blueM(), 1), fixedNow)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "p1:v1:1772366400000", items[0].ID)

	items, err = Reduce(items, AddItem(kurta(), blueM(), 2), fixedNow.Add(time.Second))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)

	items, err = Reduce(items, AddItem(kurta(), nil, 1), fixedNow.Add(2*time.Second))
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	items, err := Reduce(nil, AddItem(kurta(), blueM(), 1), fixedNow)
	require.NoError(t, err)

	next, err := Reduce(items, UpdateQuantity(items[0].ID, 5), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, 5, next[0].Quantity)
}

func TestReduceUpdateAndRemove(t *testing.T) {
	items, _ := Reduce(nil, AddItem(kurta(), blueM(), 2), fixedNow)
	id := items[0].ID

	removed, err := Reduce(items, UpdateQuantity(id, 0), fixedNow)
	require.NoError(t, err)
	assert.Empty(t, removed)

	_, err = Reduce(items, UpdateQuantity(id, -1), fixedNow)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = Reduce(items, UpdateQuantity("missing", 2), fixedNow)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = Reduce(items, RemoveItem("missing"), fixedNow)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	cleared, err := Reduce(items, ClearCart(), fixedNow)
	require.NoError(t, err)
	assert.NotNil(t, cleared)
	assert.Empty(t, cleared)
}

func TestReduceRejectsBadAdds(t *testing.T) {
	_, err := Reduce(nil, AddItem(products.Product{}, nil, 1), fixedNow)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = Reduce(nil, AddItem(kurta(), nil, 0), fixedNow)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = Reduce(nil, Action{Type: "BOGUS"}, fixedNow)
	assert.Error(t, err)
}

func TestStorePersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	snaps := snapshots.NewMemory[Item]()

	store, err := NewStore(snaps, tickingClock(), logger.Nop())
	require.NoError(t, err)
	require.NoError(t, store.SwitchUser(ctx, "user-a"))

	_, err = store.Dispatch(ctx, AddItem(kurta(), blueM(), 2))
	require.NoError(t, err)
	want, err := store.Dispatch(ctx, AddItem(products.Product{ID: "p2", Price: pricing.RawNumber(49.5)}, nil, 1))
	require.NoError(t, err)

	reloaded, err := NewStore(snaps, nil, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, reloaded.SwitchUser(ctx, "user-a"))
	assert.Equal(t, want, reloaded.Items())
}

func TestStoreUserSwitchIsolation(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(snapshots.NewMemory[Item](), tickingClock(), logger.Nop())
	require.NoError(t, err)

	require.NoError(t, store.SwitchUser(ctx, "A"))
	itemsA, err := store.Dispatch(ctx, AddItem(kurta(), blueM(), 1))
	require.NoError(t, err)

	require.NoError(t, store.SwitchUser(ctx, "B"))
	assert.Equal(t, "B", store.ActiveUser())
	assert.Empty(t, store.Items())

	require.NoError(t, store.SwitchUser(ctx, "A"))
	assert.Equal(t, itemsA, store.Items())
}

func TestStoreDispatchRequiresUser(t *testing.T) {
	store, err := NewStore(snapshots.NewMemory[Item](), nil, logger.Nop())
	require.NoError(t, err)

	_, err = store.Dispatch(context.Background(), ClearCart())
	assert.Error(t, err)
}

type failingSnapshots struct {
	loadErr error
	saveErr error
}

func (f failingSnapshots) Load(context.Context, string) ([]Item, error) {
	return nil, f.loadErr
}

func (f failingSnapshots) Save(context.Context, string, []Item) error {
	return f.saveErr
}

func TestStoreCorruptSnapshotLoadsEmpty(t *testing.T) {
	store, err := NewStore(failingSnapshots{loadErr: snapshots.ErrCorrupt}, nil, logger.Nop())
	require.NoError(t, err)

	require.NoError(t, store.SwitchUser(context.Background(), "A"))
	assert.Empty(t, store.Items())
}

func TestStoreKeepsStateWhenSaveFails(t *testing.T) {
	store, err := NewStore(failingSnapshots{saveErr: errors.New("disk full")}, nil, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, store.SwitchUser(context.Background(), "A"))

	_, err = store.Dispatch(context.Background(), AddItem(kurta(), nil, 1))
	require.Error(t, err)
	assert.Empty(t, store.Items())
}

type stubBackend struct{}

func (stubBackend) CalculateQuantityPrice(_ context.Context, req commerce.QuantityPriceRequest) (commerce.QuantityPrice, error) {
	original := decimal.NewFromInt(int64(100 * req.Quantity))
	return commerce.QuantityPrice{FinalPrice: original.Mul(decimal.NewFromFloat(0.85)), OriginalPrice: original}, nil
}

func (stubBackend) CalculateCartPrices(context.Context, []commerce.CartPriceLine) (commerce.CartPrices, error) {
	return commerce.CartPrices{}, errors.New("unavailable")
}

func (stubBackend) ValidateCoupon(_ context.Context, req commerce.CouponRequest) (commerce.Coupon, error) {
	return commerce.Coupon{Code: req.Code, DiscountType: enums.PriceTypeFixed, DiscountValue: decimal.NewFromInt(5)}, nil
}

type noRules struct{}

func (noRules) Estimate(_ context.Context, product products.Product, variant *products.Variant, quantity int) pricing.ComputedTier {
	return pricing.ComputeTier(products.UnitPrice(product, variant).Amount(), nil, quantity)
}

func newService(t *testing.T) Service {
	t.Helper()
	pricer, err := reconcile.New(stubBackend{}, noRules{}, nil, reconcile.Options{}, logger.Nop())
	require.NoError(t, err)
	svc, err := NewService(snapshots.NewMemory[Item](), pricer, tickingClock(), logger.Nop())
	require.NoError(t, err)
	return svc
}

func TestServiceFlow(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	items, err := svc.Add(ctx, "u1", AddInput{Product: kurta(), Variant: blueM(), Quantity: 1})
	require.NoError(t, err)
	require.Len(t, items, 1)
	id := items[0].ID

	updated, err := svc.UpdateQuantity(ctx, "u1", id, 3)
	require.NoError(t, err)
	require.NotNil(t, updated.Pricing)
	assert.True(t, updated.Pricing.FinalPrice.Equal(decimal.NewFromInt(255)))
	assert.Equal(t, enums.ItemPriceStateReconciled, updated.Pricing.State)

	cartPricing, err := svc.Pricing(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, cartPricing.ActualSubtotal.Equal(decimal.NewFromInt(255)))
	assert.Equal(t, enums.PricingSourceLocal, cartPricing.Source)

	totals, err := svc.CheckoutTotals(ctx, "u1", "FIVE")
	require.NoError(t, err)
	assert.True(t, totals.Total.Equal(decimal.NewFromInt(250)))

	others, err := svc.Items(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, others)

	removed, err := svc.UpdateQuantity(ctx, "u1", id, 0)
	require.NoError(t, err)
	assert.Nil(t, removed.Pricing)
	assert.Empty(t, removed.Items)

	require.NoError(t, svc.Clear(ctx, "u1"))
	_, err = svc.Remove(ctx, "u1", id)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestServiceRequiresUser(t *testing.T) {
	_, err := newService(t).Items(context.Background(), "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

type removingPricer struct {
	tracker *reconcile.Tracker
	during  func()
}

func (p *removingPricer) Reconcile(context.Context, []reconcile.Line) reconcile.CartPricing {
	return reconcile.CartPricing{}
}

func (p *removingPricer) RepriceItem(ctx context.Context, key string, line reconcile.Line) (reconcile.ItemPricing, error) {
	if p.during != nil {
		p.during()
	}
	_, ticket := p.tracker.Begin(ctx, key)
	defer p.tracker.Finish(ticket)
	priced := reconcile.ItemPricing{ItemID: line.ItemID, Quantity: line.Quantity, State: enums.ItemPriceStateReconciled}
	p.tracker.Record(ticket, priced)
	return priced, nil
}

func (p *removingPricer) CheckoutTotals(context.Context, []reconcile.Line, string) (reconcile.CheckoutTotals, error) {
	return reconcile.CheckoutTotals{}, nil
}

func (p *removingPricer) Tracker() *reconcile.Tracker {
	return p.tracker
}

func TestServiceUpdateForgetsItemRemovedDuringReprice(t *testing.T) {
	ctx := context.Background()
	pricer := &removingPricer{tracker: reconcile.NewTracker()}
	svc, err := NewService(snapshots.NewMemory[Item](), pricer, tickingClock(), logger.Nop())
	require.NoError(t, err)

	items, err := svc.Add(ctx, "u1", AddInput{Product: kurta(), Variant: blueM(), Quantity: 1})
	require.NoError(t, err)
	id := items[0].ID
	key := reconcile.ItemKey("u1", id)

	pricer.during = func() {
		_, err := svc.Remove(ctx, "u1", id)
		require.NoError(t, err)
	}
	updated, err := svc.UpdateQuantity(ctx, "u1", id, 3)
	require.NoError(t, err)
	require.NotNil(t, updated.Pricing)

	_, _, ok := pricer.tracker.Lookup(key)
	assert.False(t, ok)

	remaining, err := svc.Items(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestServiceUpdateKeepsTrackedPriceForLiveItem(t *testing.T) {
	ctx := context.Background()
	pricer := &removingPricer{tracker: reconcile.NewTracker()}
	svc, err := NewService(snapshots.NewMemory[Item](), pricer, tickingClock(), logger.Nop())
	require.NoError(t, err)

	items, err := svc.Add(ctx, "u1", AddInput{Product: kurta(), Variant: blueM(), Quantity: 1})
	require.NoError(t, err)

	_, err = svc.UpdateQuantity(ctx, "u1", items[0].ID, 2)
	require.NoError(t, err)

	_, state, ok := pricer.tracker.Lookup(reconcile.ItemKey("u1", items[0].ID))
	assert.True(t, ok)
	assert.Equal(t, enums.ItemPriceStateReconciled, state)
}
