package cart

import (
	"context"
	"errors"
	"strings"

	pkgerrors "github.com/snaapconnections/storefront/pkg/errors"
	"github.com/snaapconnections/storefront/pkg/slot"
)

// ErrCorruptCart marks a persisted cart that could not be parsed. The store
// falls back to an empty cart when it is returned.
var ErrCorruptCart = errors.New("persisted cart is corrupt")

// Store is one shopper's cart bound to its persisted slot. It is not safe
// for concurrent use; the service serialises access per session.
type Store struct {
	slot   slot.Store
	key    string
	items  []Item
	loaded bool
	// readFailed blocks mutations until a Load succeeds.
	readFailed bool
}

func NewStore(s slot.Store, key string) *Store {
	return &Store{slot: s, key: key}
}

// Load reads the persisted cart once. A missing slot yields an empty cart.
// Corrupt or unreadable data also yields an empty cart and a non-fatal error.
func (s *Store) Load(ctx context.Context) error {
	s.loaded = true
	s.items = []Item{}
	s.readFailed = false

	raw, found, err := s.slot.Get(ctx, s.key)
	if err != nil {
		s.readFailed = true
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saved cart is temporarily unavailable")
	}
	if !found || strings.TrimSpace(raw) == "" {
		return nil
	}

	items, _, err := decode(raw)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, errors.Join(ErrCorruptCart, err), "saved cart could not be read and was reset")
	}
	s.items = items
	return nil
}

func (s *Store) ensureLoaded(ctx context.Context) error {
	if !s.loaded {
		if err := s.Load(ctx); err != nil && !errors.Is(err, ErrCorruptCart) {
			return err
		}
	}
	if s.readFailed {
		return pkgerrors.New(pkgerrors.CodeDependency, "saved cart is temporarily unavailable")
	}
	return nil
}

// Items returns a copy of the current lines in insertion order.
func (s *Store) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Count is the total quantity across lines.
func (s *Store) Count() int {
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// Add appends item, or increments the quantity of an existing line with the same id.
func (s *Store) Add(ctx context.Context, item Item) error {
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	item.ID = strings.TrimSpace(item.ID)
	if item.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if item.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if item.Quantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if item.Quantity > MaxQuantity {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity is too large").WithDetails(map[string]any{"max": MaxQuantity})
	}
	if item.Quantity == 0 {
		item.Quantity = 1
	}

	for i := range s.items {
		if s.items[i].ID == item.ID {
			s.items[i].Quantity = mergeQuantity(s.items[i].Quantity, item.Quantity)
			return s.persist(ctx)
		}
	}
	s.items = append(s.items, item)
	return s.persist(ctx)
}

// UpdateQuantity sets the quantity of a line. Values below 1 and unknown ids
// are ignored; values above MaxQuantity are clamped.
func (s *Store) UpdateQuantity(ctx context.Context, id string, qty int) error {
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	if qty < 1 {
		return nil
	}
	qty = min(qty, MaxQuantity)
	for i := range s.items {
		if s.items[i].ID == id {
			if s.items[i].Quantity == qty {
				return nil
			}
			s.items[i].Quantity = qty
			return s.persist(ctx)
		}
	}
	return nil
}

// Remove drops the line with id. Removing an absent id is a no-op.
func (s *Store) Remove(ctx context.Context, id string) error {
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	kept := s.items[:0]
	for _, it := range s.items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(s.items) {
		return nil
	}
	s.items = kept
	return s.persist(ctx)
}

// Clear empties the cart and deletes the persisted slot.
func (s *Store) Clear(ctx context.Context) error {
	s.loaded = true
	s.readFailed = false
	s.items = []Item{}
	if err := s.slot.Delete(ctx, s.key); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to clear saved cart")
	}
	return nil
}

func (s *Store) persist(ctx context.Context) error {
	raw, err := encode(s.items)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}
	if err := s.slot.Set(ctx, s.key, raw); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to save cart")
	}
	return nil
}
