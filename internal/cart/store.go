package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Store owns the line items of one session and mirrors them to a Slot after
// every mutation. Totals are always recomputed from the items.
type Store struct {
	mu     sync.Mutex
	slot   Slot
	key    string
	logger *zap.Logger

	order []string
	items map[string]*LineItem
}

type Option func(*Store)

func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore returns an empty store. A nil slot disables persistence.
func NewStore(slot Slot, opts ...Option) *Store {
	s := &Store{
		slot:   slot,
		key:    DefaultKey,
		logger: zap.NewNop(),
		items:  make(map[string]*LineItem),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Key() string {
	return s.key
}

// AddItem increments the quantity of an existing entry or inserts a new one
// with quantity 1. The name and price recorded by the first add are kept.
func (s *Store) AddItem(ctx context.Context, id, name string, unitPrice decimal.Decimal) LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if ok {
		it.Quantity++
	} else {
		it = &LineItem{ID: id, Name: name, UnitPrice: unitPrice, Quantity: 1}
		s.items[id] = it
		s.order = append(s.order, id)
	}

	s.persistLocked(ctx)
	return *it
}

func (s *Store) RemoveItem(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return
	}
	s.removeLocked(id)
	s.persistLocked(ctx)
}

// SetQuantity clamps quantity at zero; zero removes the entry. Unknown ids
// are ignored.
func (s *Store) SetQuantity(ctx context.Context, id string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok {
		return
	}

	if quantity <= 0 {
		s.removeLocked(id)
	} else {
		it.Quantity = quantity
	}
	s.persistLocked(ctx)
}

func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = nil
	s.items = make(map[string]*LineItem)
	s.persistLocked(ctx)
}

// Items returns a copy of the entries in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

func (s *Store) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalsLocked()
}

// Checkout takes the entries and their totals and empties the cart in one
// step, so an add racing with it lands either in the snapshot or in the
// emptied cart. An empty cart is left untouched.
func (s *Store) Checkout(ctx context.Context) ([]LineItem, Totals) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.order) == 0 {
		return nil, Totals{Amount: decimal.Zero}
	}

	items := s.snapshotLocked()
	totals := s.totalsLocked()

	s.order = nil
	s.items = make(map[string]*LineItem)
	s.persistLocked(ctx)
	return items, totals
}

func (s *Store) totalsLocked() Totals {
	var t Totals
	t.Amount = decimal.Zero
	for _, id := range s.order {
		it := s.items[id]
		t.ItemCount += it.Quantity
		t.Amount = t.Amount.Add(it.Subtotal())
	}
	t.Amount = t.Amount.Round(2)
	return t
}

// Persist overwrites the slot with the current entries.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx)
}

// Restore replaces the entries with what the slot holds. A missing or
// malformed value leaves the store empty; Restore never fails.
func (s *Store) Restore(ctx context.Context) {
	if err := s.Load(ctx); err != nil {
		s.logger.Warn("cart slot unreadable, starting empty", zap.String("key", s.key), zap.Error(err))
	}
}

// Load is Restore for callers that must tell a slot that could not be read
// apart from one that is empty or malformed. Both of the latter leave the
// store empty and return nil; a read error also leaves it empty and is
// returned.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = nil
	s.items = make(map[string]*LineItem)

	if s.slot == nil {
		return nil
	}

	raw, err := s.slot.Load(ctx, s.key)
	if err != nil {
		if errors.Is(err, ErrSlotEmpty) {
			s.logger.Debug("cart slot empty", zap.String("key", s.key))
			return nil
		}
		return fmt.Errorf("load cart %s: %w", s.key, err)
	}

	items, err := decodeItems(raw)
	if err != nil {
		s.logger.Warn("cart slot malformed, starting empty", zap.String("key", s.key), zap.Error(err))
		return nil
	}

	for _, it := range items {
		if it.ID == "" || it.Quantity < 1 || it.UnitPrice.IsNegative() {
			continue
		}
		if existing, ok := s.items[it.ID]; ok {
			existing.Quantity += it.Quantity
			continue
		}
		item := it
		s.items[it.ID] = &item
		s.order = append(s.order, it.ID)
	}

	s.logger.Debug("cart restored", zap.String("key", s.key), zap.Int("items", len(s.order)))
	return nil
}

func (s *Store) removeLocked(id string) {
	delete(s.items, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Store) snapshotLocked() []LineItem {
	out := make([]LineItem, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.items[id])
	}
	return out
}

func (s *Store) saveLocked(ctx context.Context) error {
	if s.slot == nil {
		return nil
	}
	raw, err := encodeItems(s.snapshotLocked())
	if err != nil {
		return err
	}
	return s.slot.Save(ctx, s.key, raw)
}

// persistLocked mirrors a mutation to the slot. Write failures are logged,
// the in-memory state stays authoritative.
func (s *Store) persistLocked(ctx context.Context) {
	if err := s.saveLocked(ctx); err != nil {
		s.logger.Warn("persist cart", zap.String("key", s.key), zap.Error(err))
	}
}
