package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/storefront/internal/commerce"
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

const (
	scopeItem = "item"
	scopeCart = "cart"

	defaultConcurrency = 4
)

// ErrSuperseded is returned when a newer recalculation replaced the one in flight.
var ErrSuperseded = errors.New("pricing superseded by a newer request")

type Options struct {
	Concurrency int
	Metrics     *metrics.PricingMetrics
}

// Reconciler prices carts against the commerce backend, falling back to local arithmetic.
type Reconciler struct {
	backend     Backend
	estimator   Estimator
	tracker     *Tracker
	concurrency int
	metrics     *metrics.PricingMetrics
	logg        *logger.Logger
}

func New(backend Backend, estimator Estimator, tracker *Tracker, opts Options, logg *logger.Logger) (*Reconciler, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend required")
	}
	if estimator == nil {
		return nil, fmt.Errorf("estimator required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if tracker == nil {
		tracker = NewTracker()
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}
	return &Reconciler{
		backend:     backend,
		estimator:   estimator,
		tracker:     tracker,
		concurrency: concurrency,
		metrics:     opts.Metrics,
		logg:        logg,
	}, nil
}

// Tracker exposes the per-item sequencing state.
func (r *Reconciler) Tracker() *Tracker {
	return r.tracker
}

// Reconcile prices every line and the cart subtotal. It never fails: each backend
// failure degrades to local arithmetic and is only logged.
func (r *Reconciler) Reconcile(ctx context.Context, lines []Line) CartPricing {
	if len(lines) == 0 {
		return CartPricing{
			Items:            []ItemPricing{},
			OriginalSubtotal: decimal.Zero,
			ActualSubtotal:   decimal.Zero,
			TotalSavings:     decimal.Zero,
			Source:           enums.PricingSourceRaw,
		}
	}

	items := make([]ItemPricing, len(lines))
	var (
		mu       sync.Mutex
		failures error
		batch    commerce.CartPrices
		batchErr error
	)

	g := new(errgroup.Group)
	g.SetLimit(r.concurrency)
	for i, line := range lines {
		g.Go(func() error {
			item, err := r.priceLine(ctx, line)
			items[i] = item
			if err != nil {
				mu.Lock()
				failures = multierr.Append(failures, fmt.Errorf("item %s: %w", line.ItemID, err))
				mu.Unlock()
			}
			return nil
		})
	}
	g.Go(func() error {
		batch, batchErr = r.backend.CalculateCartPrices(ctx, cartLines(lines))
		return nil
	})
	_ = g.Wait()

	if failures != nil {
		r.logg.WarnErr(r.logg.WithField(ctx, "failed_items", len(multierr.Errors(failures))), "item pricing fell back to local totals", failures)
	}
	if batchErr != nil {
		r.logg.WarnErr(ctx, "cart pricing fell back to item totals", batchErr)
	}

	pricing := summarize(items, batch, batchErr)
	r.metrics.IncReconcile(scopeCart, pricing.Source.String())
	return pricing
}

// RepriceItem recalculates one line after a quantity change. The optimistic estimate is
// recorded before the backend call; a failed call leaves the item optimistic. A result
// overtaken by a newer call for the same key returns ErrSuperseded.
func (r *Reconciler) RepriceItem(ctx context.Context, key string, line Line) (ItemPricing, error) {
	callCtx, ticket := r.tracker.Begin(ctx, key)
	defer r.tracker.Finish(ticket)

	optimistic := r.Estimate(callCtx, line)
	if !r.tracker.Record(ticket, optimistic) {
		r.metrics.IncStale(scopeItem)
		return optimistic, ErrSuperseded
	}

	resp, err := r.backend.CalculateQuantityPrice(callCtx, quantityRequest(line))
	if err != nil {
		if !r.tracker.Current(ticket) {
			r.metrics.IncStale(scopeItem)
			return optimistic, ErrSuperseded
		}
		r.logg.WarnErr(r.logg.WithField(ctx, "item_id", line.ItemID), "item pricing kept optimistic estimate", err)
		r.metrics.IncReconcile(scopeItem, enums.PricingSourceLocal.String())
		return optimistic, nil
	}

	reconciled := backendItem(line, resp)
	if !r.tracker.Record(ticket, reconciled) {
		r.metrics.IncStale(scopeItem)
		return reconciled, ErrSuperseded
	}
	r.metrics.IncReconcile(scopeItem, enums.PricingSourceBackend.String())
	return reconciled, nil
}

// Estimate is the local optimistic price of a line.
func (r *Reconciler) Estimate(ctx context.Context, line Line) ItemPricing {
	if !line.unitPrice().IsPositive() {
		return rawItem(line, enums.ItemPriceStateOptimistic)
	}
	return estimatedItem(line, r.estimator.Estimate(ctx, line.Product, line.Variant, line.Quantity))
}

func (r *Reconciler) priceLine(ctx context.Context, line Line) (ItemPricing, error) {
	resp, err := r.backend.CalculateQuantityPrice(ctx, quantityRequest(line))
	if err != nil {
		r.metrics.IncReconcile(scopeItem, enums.PricingSourceLocal.String())
		return rawItem(line, enums.ItemPriceStateOptimistic), err
	}
	r.metrics.IncReconcile(scopeItem, enums.PricingSourceBackend.String())
	return backendItem(line, resp), nil
}

// summarize prefers the backend subtotal, then the per-item totals when any item was
// reconciled, then the raw Σ price × quantity.
func summarize(items []ItemPricing, batch commerce.CartPrices, batchErr error) CartPricing {
	original, itemTotal, raw := decimal.Zero, decimal.Zero, decimal.Zero
	reconciled := false
	for _, item := range items {
		original = original.Add(item.OriginalPrice)
		itemTotal = itemTotal.Add(item.FinalPrice)
		raw = raw.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		if item.Source == enums.PricingSourceBackend {
			reconciled = true
		}
	}

	var actual decimal.Decimal
	var source enums.PricingSource
	switch {
	case batchErr == nil && batch.Summary.Subtotal.Valid:
		actual, source = batch.Summary.Subtotal.Decimal, enums.PricingSourceBackend
	case reconciled:
		actual, source = itemTotal, enums.PricingSourceLocal
	default:
		actual, source = raw, enums.PricingSourceRaw
	}

	actual = clamp(actual, decimal.Zero, original)
	return CartPricing{
		Items:            items,
		OriginalSubtotal: original,
		ActualSubtotal:   actual,
		TotalSavings:     original.Sub(actual),
		Source:           source,
	}
}

func quantityRequest(line Line) commerce.QuantityPriceRequest {
	return commerce.QuantityPriceRequest{
		ProductID: line.Product.ID,
		VariantID: line.variantID(),
		Quantity:  line.Quantity,
	}
}

func cartLines(lines []Line) []commerce.CartPriceLine {
	out := make([]commerce.CartPriceLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, commerce.CartPriceLine{
			ProductID: line.Product.ID,
			Quantity:  line.Quantity,
			VariantID: line.variantID(),
		})
	}
	return out
}
