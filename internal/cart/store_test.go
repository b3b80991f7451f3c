package cart

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/snaapconnections/storefront/pkg/errors"
	"github.com/snaapconnections/storefront/pkg/slot"
)

func price(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func phone() Item {
	return Item{ID: "p1", Name: "Galaxy A15", Price: price(6500), Quantity: 1, Image: "a15.jpg"}
}

func TestLoadMissingSlotIsEmpty(t *testing.T) {
	s := NewStore(slot.NewMemory(), "cart")
	require.NoError(t, s.Load(context.Background()))
	require.Empty(t, s.Items())
}

func TestLoadMalformedSlotIsEmptyWithPersistenceError(t *testing.T) {
	ctx := context.Background()
	for _, raw := range []string{"{not json", `{"id":"p1"}`, `"cart"`} {
		mem := slot.NewMemory()
		require.NoError(t, mem.Set(ctx, "cart", raw))

		s := NewStore(mem, "cart")
		err := s.Load(ctx)
		require.Error(t, err, raw)
		assert.True(t, errors.Is(err, ErrCorruptCart), raw)
		assert.Equal(t, pkgerrors.CodePersistence, pkgerrors.CodeOf(err))
		assert.Empty(t, s.Items())
	}
}

func TestLoadParsesLooseLines(t *testing.T) {
	ctx := context.Background()
	mem := slot.NewMemory()
	raw := `[
		{"id":1,"name":"Tab","price":"1200.50","quantity":2,"image":"t.jpg"},
		{"id":"","name":"no id","price":10,"quantity":1},
		{"id":"neg","name":"negative","price":-1,"quantity":1},
		{"id":"bad","name":"bad price","price":"abc","quantity":1},
		{"id":"zero","name":"zero qty","price":100,"quantity":0},
		{"id":1,"name":"Tab again","price":1200.5,"quantity":1},
		42
	]`
	require.NoError(t, mem.Set(ctx, "cart", raw))

	s := NewStore(mem, "cart")
	require.NoError(t, s.Load(ctx))
	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "1", items[0].ID)
	assert.Equal(t, 3, items[0].Quantity)
	assert.True(t, items[0].Price.Equal(decimal.RequireFromString("1200.5")))
	assert.Equal(t, "zero", items[1].ID)
	assert.Equal(t, 1, items[1].Quantity)
}

func TestAddPersistsAndMergesDuplicates(t *testing.T) {
	ctx := context.Background()
	mem := slot.NewMemory()
	s := NewStore(mem, "cart")

	require.NoError(t, s.Add(ctx, phone()))
	again := phone()
	again.Name = "renamed"
	again.Quantity = 2
	require.NoError(t, s.Add(ctx, again))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, "Galaxy A15", items[0].Name)

	raw, found, err := mem.Get(ctx, "cart")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `[{"id":"p1","name":"Galaxy A15","price":6500,"quantity":3,"image":"a15.jpg"}]`, raw)

	reloaded := NewStore(mem, "cart")
	require.NoError(t, reloaded.Load(ctx))
	got := reloaded.Items()
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Quantity)
	assert.True(t, got[0].Price.Equal(price(6500)))
}

func TestAddDefaultsQuantityAndValidates(t *testing.T) {
	ctx := context.Background()
	s := NewStore(slot.NewMemory(), "cart")

	item := phone()
	item.Quantity = 0
	require.NoError(t, s.Add(ctx, item))
	assert.Equal(t, 1, s.Items()[0].Quantity)

	bad := phone()
	bad.ID = "  "
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(s.Add(ctx, bad)))

	bad = phone()
	bad.Price = price(-1)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(s.Add(ctx, bad)))
}

func TestUpdateQuantityIgnoresBelowOne(t *testing.T) {
	ctx := context.Background()
	s := NewStore(slot.NewMemory(), "cart")
	require.NoError(t, s.Add(ctx, phone()))

	require.NoError(t, s.UpdateQuantity(ctx, "p1", 0))
	require.NoError(t, s.UpdateQuantity(ctx, "p1", -1))
	assert.Equal(t, 1, s.Items()[0].Quantity)

	require.NoError(t, s.UpdateQuantity(ctx, "p1", 4))
	assert.Equal(t, 4, s.Items()[0].Quantity)

	require.NoError(t, s.UpdateQuantity(ctx, "missing", 4))
	assert.Len(t, s.Items(), 1)
}

func TestAddSaturatesAtMaxQuantity(t *testing.T) {
	ctx := context.Background()
	s := NewStore(slot.NewMemory(), "cart")

	huge := phone()
	huge.Quantity = math.MaxInt
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(s.Add(ctx, huge)))
	assert.Empty(t, s.Items())

	item := phone()
	item.Quantity = MaxQuantity
	require.NoError(t, s.Add(ctx, item))
	item.Quantity = 1
	require.NoError(t, s.Add(ctx, item))
	assert.Equal(t, MaxQuantity, s.Items()[0].Quantity)

	require.NoError(t, s.UpdateQuantity(ctx, "p1", math.MaxInt))
	assert.Equal(t, MaxQuantity, s.Items()[0].Quantity)
}

func TestLoadClampsOversizedQuantities(t *testing.T) {
	ctx := context.Background()
	mem := slot.NewMemory()
	raw := `[
		{"id":"a","price":10,"quantity":18446744073709551616},
		{"id":"b","price":10,"quantity":600},
		{"id":"b","price":10,"quantity":600}
	]`
	require.NoError(t, mem.Set(ctx, "cart", raw))

	s := NewStore(mem, "cart")
	require.NoError(t, s.Load(ctx))
	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, MaxQuantity, items[0].Quantity)
	assert.Equal(t, MaxQuantity, items[1].Quantity)
}

func TestRemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewStore(slot.NewMemory(), "cart")
	require.NoError(t, s.Add(ctx, phone()))
	require.NoError(t, s.Add(ctx, Item{ID: "p2", Name: "Case", Price: price(500)}))

	require.NoError(t, s.Remove(ctx, "p1"))
	first := s.Items()
	require.NoError(t, s.Remove(ctx, "p1"))
	assert.Equal(t, first, s.Items())
	assert.Len(t, first, 1)
}

func TestClearDeletesSlot(t *testing.T) {
	ctx := context.Background()
	mem := slot.NewMemory()
	s := NewStore(mem, "cart")
	require.NoError(t, s.Add(ctx, phone()))
	require.NoError(t, s.Clear(ctx))

	_, found, err := mem.Get(ctx, "cart")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, s.Items())
	assert.Zero(t, s.Count())
}

type failingSlot struct {
	slot.Store
	getErr error
	setErr error
}

func (f failingSlot) Get(ctx context.Context, key string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	return f.Store.Get(ctx, key)
}

func (f failingSlot) Set(ctx context.Context, key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.Store.Set(ctx, key, value)
}

func TestUnreadableSlotBlocksMutations(t *testing.T) {
	ctx := context.Background()
	s := NewStore(failingSlot{Store: slot.NewMemory(), getErr: errors.New("redis down")}, "cart")

	err := s.Load(ctx)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))
	assert.Empty(t, s.Items())

	err = s.Add(ctx, phone())
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))
}

func TestWriteFailureSurfaces(t *testing.T) {
	s := NewStore(failingSlot{Store: slot.NewMemory(), setErr: errors.New("disk full")}, "cart")
	err := s.Add(context.Background(), phone())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsRetryable(err))
}
