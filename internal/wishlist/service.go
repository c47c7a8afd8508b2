package wishlist

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront/internal/products"
	"github.com/angelmondragon/storefront/internal/snapshots"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// Service exposes per-user wishlist operations.
type Service interface {
	Items(ctx context.Context, userID string) ([]Item, error)
	Add(ctx context.Context, userID string, product products.Product, variant *products.Variant) ([]Item, error)
	Remove(ctx context.Context, userID, itemID string) ([]Item, error)
	Clear(ctx context.Context, userID string) error
}

type service struct {
	snapshots snapshots.Store[Item]
	clock     func() time.Time
	logg      *logger.Logger
	locks     snapshots.UserLocks
}

func NewService(snaps snapshots.Store[Item], clock func() time.Time, logg *logger.Logger) (Service, error) {
	if snaps == nil {
		return nil, fmt.Errorf("snapshot store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{snapshots: snaps, clock: clock, logg: logg}, nil
}

func (s *service) Items(ctx context.Context, userID string) ([]Item, error) {
	store, err := s.open(ctx, userID)
	if err != nil {
		return nil, err
	}
	return store.Items(), nil
}

func (s *service) Add(ctx context.Context, userID string, product products.Product, variant *products.Variant) ([]Item, error) {
	var items []Item
	err := s.withStore(ctx, userID, func(store *Store) error {
		var err error
		items, err = store.Add(ctx, product, variant)
		return err
	})
	return items, err
}

func (s *service) Remove(ctx context.Context, userID, itemID string) ([]Item, error) {
	var items []Item
	err := s.withStore(ctx, userID, func(store *Store) error {
		var err error
		items, err = store.Remove(ctx, itemID)
		return err
	})
	return items, err
}

func (s *service) Clear(ctx context.Context, userID string) error {
	return s.withStore(ctx, userID, func(store *Store) error {
		return store.Clear(ctx)
	})
}

func (s *service) withStore(ctx context.Context, userID string, fn func(*Store) error) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	store, err := s.open(ctx, userID)
	if err != nil {
		return err
	}
	if err := fn(store); err != nil {
		if pkgerrors.As(err) != nil {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save wishlist")
	}
	return nil
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist")
	}
	return store, nil
}
