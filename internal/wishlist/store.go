package wishlist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/internal/products"
	"github.com/angelmondragon/storefront/internal/snapshots"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// Item is a saved product, optionally pinned to one variant.
type Item struct {
	ID      string            `json:"id"`
	Product products.Product  `json:"product"`
	Variant *products.Variant `json:"variant"`
	AddedAt time.Time         `json:"addedAt"`
}

// Store holds the wishlist of the active user and persists every mutation.
type Store struct {
	mu        sync.RWMutex
	snapshots snapshots.Store[Item]
	clock     func() time.Time
	logg      *logger.Logger
	userID    string
	items     []Item
}

func NewStore(snaps snapshots.Store[Item], clock func() time.Time, logg *logger.Logger) (*Store, error) {
	if snaps == nil {
		return nil, fmt.Errorf("snapshot store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Store{snapshots: snaps, clock: clock, logg: logg, items: []Item{}}, nil
}

// SwitchUser loads userID's wishlist wholesale. A corrupt snapshot loads as empty.
func (s *Store) SwitchUser(ctx context.Context, userID string) error {
	items, err := s.snapshots.Load(ctx, userID)
	if err != nil {
		if !errors.Is(err, snapshots.ErrCorrupt) {
			return err
		}
		s.logg.WarnErr(s.logg.WithUserID(ctx, userID), "discarding corrupt wishlist snapshot", err)
		items = []Item{}
	}
	s.mu.Lock()
	s.userID = userID
	s.items = items
	s.mu.Unlock()
	return nil
}

func (s *Store) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Contains reports whether product+variant is saved. An empty variantID matches the
// product saved without a variant.
func (s *Store) Contains(productID, variantID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return indexOfProduct(s.items, productID, variantID) >= 0
}

// Add saves product+variant. Adding an entry that already exists is a no-op.
func (s *Store) Add(ctx context.Context, product products.Product, variant *products.Variant) ([]Item, error) {
	if strings.TrimSpace(product.ID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return s.mutate(ctx, func(items []Item) ([]Item, error) {
		variantID := products.VariantID(variant)
		if indexOfProduct(items, product.ID, variantID) >= 0 {
			return items, nil
		}
		now := s.clock()
		return append(items, Item{
			ID:      products.EntryID(product.ID, variantID, now),
			Product: product,
			Variant: variant,
			AddedAt: now,
		}), nil
	})
}

func (s *Store) Remove(ctx context.Context, itemID string) ([]Item, error) {
	return s.mutate(ctx, func(items []Item) ([]Item, error) {
		for i := range items {
			if items[i].ID == itemID {
				return append(items[:i], items[i+1:]...), nil
			}
		}
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wishlist item not found")
	})
}

func (s *Store) Clear(ctx context.Context) error {
	_, err := s.mutate(ctx, func([]Item) ([]Item, error) {
		return []Item{}, nil
	})
	return err
}

func (s *Store) mutate(ctx context.Context, fn func([]Item) ([]Item, error)) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userID == "" {
		return nil, fmt.Errorf("no active wishlist user")
	}
	current := make([]Item, len(s.items))
	copy(current, s.items)

	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	if err := s.snapshots.Save(ctx, s.userID, next); err != nil {
		return nil, fmt.Errorf("persisting wishlist: %w", err)
	}
	s.items = next

	out := make([]Item, len(next))
	copy(out, next)
	return out, nil
}

func indexOfProduct(items []Item, productID, variantID string) int {
	for i := range items {
		if items[i].Product.ID == productID && products.VariantID(items[i].Variant) == variantID {
			return i
		}
	}
	return -1
}
