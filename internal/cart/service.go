package cart

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/snaapconnections/storefront/internal/pricing"
	"github.com/snaapconnections/storefront/pkg/enums"
	pkgerrors "github.com/snaapconnections/storefront/pkg/errors"
	"github.com/snaapconnections/storefront/pkg/logger"
	"github.com/snaapconnections/storefront/pkg/slot"
)

const lockStripes = 64

type mutationRecorder interface {
	IncCartMutation(op string)
}

// Service exposes per-session cart operations.
type Service interface {
	Get(ctx context.Context, sessionID string) (*View, error)
	Add(ctx context.Context, sessionID string, input AddInput) (*View, error)
	UpdateQuantity(ctx context.Context, sessionID, itemID string, qty int) (*View, error)
	Remove(ctx context.Context, sessionID, itemID string) (*View, error)
	Clear(ctx context.Context, sessionID string) (*View, error)
	// Items loads the current lines, treating corrupt data as empty.
	Items(ctx context.Context, sessionID string) ([]Item, error)
}

// AddInput is the payload for adding a product to the cart.
type AddInput struct {
	ID       string          `json:"id" validate:"required"`
	Name     string          `json:"name" validate:"required"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity" validate:"gte=0,lte=999"`
	Image    string          `json:"image"`
}

type LineView struct {
	Item
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// View is the cart as rendered to the shopper. Banner carries a non-fatal
// notice such as a reset of unreadable saved data.
type View struct {
	Items     []LineView        `json:"items"`
	Totals    pricing.Totals    `json:"totals"`
	Formatted pricing.Formatted `json:"formatted"`
	Banner    string            `json:"-"`
}

type service struct {
	slots   slot.Store
	name    string
	policy  pricing.Policy
	metrics mutationRecorder
	logg    *logger.Logger
	locks   [lockStripes]sync.Mutex
}

// NewService builds a cart service persisting to slots under the given slot name.
func NewService(slots slot.Store, name string, policy pricing.Policy, metrics mutationRecorder, logg *logger.Logger) (Service, error) {
	if slots == nil {
		return nil, fmt.Errorf("slot store required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("slot name required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		slots:   slots,
		name:    name,
		policy:  policy,
		metrics: metrics,
		logg:    logg,
	}, nil
}

func (s *service) lock(sessionID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	mu := &s.locks[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

func (s *service) open(sessionID string) (*Store, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	return NewStore(s.slots, slot.SessionKey(sessionID, s.name)), nil
}

func (s *service) Get(ctx context.Context, sessionID string) (*View, error) {
	store, err := s.open(sessionID)
	if err != nil {
		return nil, err
	}
	unlock := s.lock(sessionID)
	defer unlock()

	view := s.view(store)
	if loadErr := store.Load(ctx); loadErr != nil {
		view.Banner = s.banner(ctx, loadErr)
		return view, nil
	}
	return s.view(store), nil
}

func (s *service) Items(ctx context.Context, sessionID string) ([]Item, error) {
	store, err := s.open(sessionID)
	if err != nil {
		return nil, err
	}
	unlock := s.lock(sessionID)
	defer unlock()

	if loadErr := store.Load(ctx); loadErr != nil && !errors.Is(loadErr, ErrCorruptCart) {
		return nil, loadErr
	}
	return store.Items(), nil
}

func (s *service) Add(ctx context.Context, sessionID string, input AddInput) (*View, error) {
	return s.mutate(ctx, sessionID, "add", func(store *Store) error {
		return store.Add(ctx, Item{
			ID:       input.ID,
			Name:     strings.TrimSpace(input.Name),
			Price:    input.Price,
			Quantity: input.Quantity,
			Image:    input.Image,
		})
	})
}

func (s *service) UpdateQuantity(ctx context.Context, sessionID, itemID string, qty int) (*View, error) {
	return s.mutate(ctx, sessionID, "update", func(store *Store) error {
		return store.UpdateQuantity(ctx, itemID, qty)
	})
}

func (s *service) Remove(ctx context.Context, sessionID, itemID string) (*View, error) {
	return s.mutate(ctx, sessionID, "remove", func(store *Store) error {
		return store.Remove(ctx, itemID)
	})
}

func (s *service) Clear(ctx context.Context, sessionID string) (*View, error) {
	return s.mutate(ctx, sessionID, "clear", func(store *Store) error {
		return store.Clear(ctx)
	})
}

func (s *service) mutate(ctx context.Context, sessionID, op string, fn func(*Store) error) (*View, error) {
	store, err := s.open(sessionID)
	if err != nil {
		return nil, err
	}
	unlock := s.lock(sessionID)
	defer unlock()

	var banner string
	if op != "clear" {
		if loadErr := store.Load(ctx); loadErr != nil {
			if !errors.Is(loadErr, ErrCorruptCart) {
				return nil, loadErr
			}
			banner = s.banner(ctx, loadErr)
		}
	}
	if err := fn(store); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncCartMutation(op)
	}
	view := s.view(store)
	view.Banner = banner
	return view, nil
}

func (s *service) banner(ctx context.Context, loadErr error) string {
	s.logg.Warn(s.logg.WithField(ctx, "error", loadErr.Error()), "cart load degraded to empty")
	if typed := pkgerrors.As(loadErr); typed != nil {
		return typed.Message()
	}
	return "saved cart could not be read"
}

func (s *service) view(store *Store) *View {
	items := store.Items()
	lines := make([]LineView, 0, len(items))
	for _, it := range items {
		lines = append(lines, LineView{Item: it, LineTotal: it.LineTotal()})
	}
	totals := s.policy.Compute(Lines(items), enums.DeliveryMethodDelivery)
	return &View{
		Items:     lines,
		Totals:    totals,
		Formatted: totals.Format(),
	}
}
