package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/internal/snapshots"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// Store holds the cart of the active user. Every successful Dispatch persists the whole
// item list before returning.
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

// SwitchUser replaces the in-memory items with userID's persisted cart. A corrupt
// snapshot loads as an empty cart.
func (s *Store) SwitchUser(ctx context.Context, userID string) error {
	items, err := s.snapshots.Load(ctx, userID)
	if err != nil {
		if !errors.Is(err, snapshots.ErrCorrupt) {
			return err
		}
		s.logg.WarnErr(s.logg.WithUserID(ctx, userID), "discarding corrupt cart snapshot", err)
		items = []Item{}
	}

	s.mu.Lock()
	s.userID = userID
	s.items = items
	s.mu.Unlock()
	return nil
}

// ActiveUser returns the user whose cart is loaded.
func (s *Store) ActiveUser() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Items returns a copy of the current cart.
func (s *Store) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Dispatch reduces action into the cart and persists the result. On error the cart is unchanged.
func (s *Store) Dispatch(ctx context.Context, action Action) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userID == "" {
		return nil, fmt.Errorf("no active cart user")
	}
	next, err := Reduce(s.items, action, s.clock())
	if err != nil {
		return nil, err
	}
	if err := s.snapshots.Save(ctx, s.userID, next); err != nil {
		return nil, fmt.Errorf("persisting cart: %w", err)
	}
	s.items = next

	out := make([]Item, len(next))
	copy(out, next)
	return out, nil
}
