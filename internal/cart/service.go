package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront/internal/products"
	"github.com/angelmondragon/storefront/internal/reconcile"
	"github.com/angelmondragon/storefront/internal/snapshots"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// Pricer prices cart lines.
type Pricer interface {
	Reconcile(ctx context.Context, lines []reconcile.Line) reconcile.CartPricing
	RepriceItem(ctx context.Context, key string, line reconcile.Line) (reconcile.ItemPricing, error)
	CheckoutTotals(ctx context.Context, lines []reconcile.Line, couponCode string) (reconcile.CheckoutTotals, error)
	Tracker() *reconcile.Tracker
}

// Service exposes per-user cart operations.
type Service interface {
	Items(ctx context.Context, userID string) ([]Item, error)
	Add(ctx context.Context, userID string, input AddInput) ([]Item, error)
	UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) (UpdateResult, error)
	Remove(ctx context.Context, userID, itemID string) ([]Item, error)
	Clear(ctx context.Context, userID string) error
	Pricing(ctx context.Context, userID string) (reconcile.CartPricing, error)
	CheckoutTotals(ctx context.Context, userID, couponCode string) (reconcile.CheckoutTotals, error)
}

// AddInput is a request to put quantity units of a product variant in the cart.
type AddInput struct {
	Product  products.Product
	Variant  *products.Variant
	Quantity int
}

// UpdateResult carries the cart after a quantity change and the repriced line, if it remains.
type UpdateResult struct {
	Items   []Item
	Pricing *reconcile.ItemPricing
}

type service struct {
	snapshots snapshots.Store[Item]
	pricer    Pricer
	clock     func() time.Time
	logg      *logger.Logger
	locks     snapshots.UserLocks
}

// NewService builds the cart service. clock may be nil.
func NewService(snaps snapshots.Store[Item], pricer Pricer, clock func() time.Time, logg *logger.Logger) (Service, error) {
	if snaps == nil {
		return nil, fmt.Errorf("snapshot store required")
	}
	if pricer == nil {
		return nil, fmt.Errorf("pricer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{snapshots: snaps, pricer: pricer, clock: clock, logg: logg}, nil
}

func (s *service) Items(ctx context.Context, userID string) ([]Item, error) {
	store, err := s.open(ctx, userID)
	if err != nil {
		return nil, err
	}
	return store.Items(), nil
}

func (s *service) Add(ctx context.Context, userID string, input AddInput) ([]Item, error) {
	return s.dispatch(ctx, userID, AddItem(input.Product, input.Variant, input.Quantity))
}

// UpdateQuantity changes a line's quantity, then reprices it. The user's cart is unlocked
// while the backend is consulted so a newer change can supersede the call.
func (s *service) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) (UpdateResult, error) {
	items, err := s.dispatch(ctx, userID, UpdateQuantity(itemID, quantity))
	if err != nil {
		return UpdateResult{}, err
	}

	key := reconcile.ItemKey(userID, itemID)
	item, ok := Find(items, itemID)
	if !ok {
		s.pricer.Tracker().Forget(key)
		return UpdateResult{Items: items}, nil
	}

	priced, err := s.pricer.RepriceItem(ctx, key, lineOf(item))
	if errors.Is(err, reconcile.ErrSuperseded) {
		if latest, _, ok := s.pricer.Tracker().Lookup(key); ok {
			priced = latest
		}
	}
	// A remove or clear may have landed while the backend was consulted.
	if !s.holds(ctx, userID, itemID) {
		s.pricer.Tracker().Forget(key)
	}
	return UpdateResult{Items: items, Pricing: &priced}, nil
}

func (s *service) holds(ctx context.Context, userID, itemID string) bool {
	unlock := s.locks.Lock(userID)
	defer unlock()

	store, err := s.open(ctx, userID)
	if err != nil {
		return true
	}
	_, ok := Find(store.Items(), itemID)
	return ok
}

func (s *service) Remove(ctx context.Context, userID, itemID string) ([]Item, error) {
	items, err := s.dispatch(ctx, userID, RemoveItem(itemID))
	if err != nil {
		return nil, err
	}
	s.pricer.Tracker().Forget(reconcile.ItemKey(userID, itemID))
	return items, nil
}

func (s *service) Clear(ctx context.Context, userID string) error {
	if _, err := s.dispatch(ctx, userID, ClearCart()); err != nil {
		return err
	}
	s.pricer.Tracker().ForgetPrefix(reconcile.ItemKey(userID, ""))
	return nil
}

func (s *service) Pricing(ctx context.Context, userID string) (reconcile.CartPricing, error) {
	items, err := s.Items(ctx, userID)
	if err != nil {
		return reconcile.CartPricing{}, err
	}
	return s.pricer.Reconcile(ctx, Lines(items)), nil
}

func (s *service) CheckoutTotals(ctx context.Context, userID, couponCode string) (reconcile.CheckoutTotals, error) {
	items, err := s.Items(ctx, userID)
	if err != nil {
		return reconcile.CheckoutTotals{}, err
	}
	return s.pricer.CheckoutTotals(ctx, Lines(items), couponCode)
}

func (s *service) dispatch(ctx context.Context, userID string, action Action) ([]Item, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	store, err := s.open(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := store.Dispatch(ctx, action)
	if err != nil && pkgerrors.As(err) == nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return items, err
}

func (s *service) open(ctx context.Context, userID string) (*Store, error) {
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	store, err := NewStore(s.snapshots, s.clock, s.logg)
	if err != nil {
		return nil, err
	}
	if err := store.SwitchUser(ctx, userID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return store, nil
}

// Lines converts cart items into reconciler input.
func Lines(items []Item) []reconcile.Line {
	lines := make([]reconcile.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, lineOf(item))
	}
	return lines
}

func lineOf(item Item) reconcile.Line {
	return reconcile.Line{
		ItemID:   item.ID,
		Product:  item.Product,
		Variant:  item.Variant,
		Quantity: item.Quantity,
	}
}
