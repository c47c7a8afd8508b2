package reconcile

import (
	"context"
	"strings"
	"sync"

	"github.com/angelmondragon/storefront/pkg/enums"
)

// Ticket identifies one recalculation of a tracked key.
type Ticket struct {
	Key string
	Seq uint64
}

type tracked struct {
	seq     uint64
	cancel  context.CancelFunc
	pricing ItemPricing
	priced  bool
	state   enums.ItemPriceState
}

// Tracker sequences recalculations per key. Sequence numbers are monotonic across the
// tracker so a forgotten key never reuses one. Starting a newer recalculation cancels the
// in-flight one, and results carrying an older sequence number are discarded.
type Tracker struct {
	mu    sync.Mutex
	seq   uint64
	items map[string]*tracked
}

func NewTracker() *Tracker {
	return &Tracker{items: map[string]*tracked{}}
}

// ItemKey scopes a cart line to its owner.
func ItemKey(userID, itemID string) string {
	return userID + ":" + itemID
}

// Begin marks key stale and returns a context cancelled by the next Begin on the same key.
func (t *Tracker) Begin(ctx context.Context, key string) (context.Context, Ticket) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.items[key]
	if !ok {
		entry = &tracked{}
		t.items[key] = entry
	}
	if entry.cancel != nil {
		entry.cancel()
	}
	t.seq++
	entry.seq = t.seq
	entry.state = enums.ItemPriceStateStale

	callCtx, cancel := context.WithCancel(ctx)
	entry.cancel = cancel
	return callCtx, Ticket{Key: key, Seq: entry.seq}
}

// Record stores pricing for ticket. It returns false when a newer ticket exists.
func (t *Tracker) Record(ticket Ticket, pricing ItemPricing) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.items[ticket.Key]
	if !ok || entry.seq != ticket.Seq {
		return false
	}
	entry.pricing = pricing
	entry.priced = true
	entry.state = pricing.State
	return true
}

// Finish releases the ticket's context if it is still the latest one.
func (t *Tracker) Finish(ticket Ticket) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.items[ticket.Key]
	if !ok || entry.seq != ticket.Seq || entry.cancel == nil {
		return
	}
	entry.cancel()
	entry.cancel = nil
}

// Current reports whether ticket is still the latest for its key.
func (t *Tracker) Current(ticket Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.items[ticket.Key]
	return ok && entry.seq == ticket.Seq
}

// Lookup returns the last recorded pricing and the current state of key.
func (t *Tracker) Lookup(key string) (ItemPricing, enums.ItemPriceState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.items[key]
	if !ok {
		return ItemPricing{}, "", false
	}
	return entry.pricing, entry.state, entry.priced
}

// Forget drops key, cancelling any in-flight recalculation.
func (t *Tracker) Forget(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.forget(key)
}

// ForgetPrefix drops every key starting with prefix.
func (t *Tracker) ForgetPrefix(prefix string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key := range t.items {
		if strings.HasPrefix(key, prefix) {
			t.forget(key)
		}
	}
}

func (t *Tracker) forget(key string) {
	entry, ok := t.items[key]
	if !ok {
		return
	}
	if entry.cancel != nil {
		entry.cancel()
	}
	delete(t.items, key)
}
