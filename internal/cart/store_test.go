package cart

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mammadovafidan/fruits-e-commerce-website/internal/logging"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	apple = Product{ID: "1", Name: "Apple", PricePerKg: decimal.RequireFromString("2.50")}
	pear  = Product{ID: "2", Name: "Pear", PricePerKg: decimal.RequireFromString("4.00")}
)

func newTestStore(t *testing.T) (*Store, *MemorySlot) {
	t.Helper()
	slot := &MemorySlot{}
	return New(slot, logging.Discard()), slot
}

func persisted(t *testing.T, slot *MemorySlot) Snapshot {
	t.Helper()
	var snap Snapshot
	require.NoError(t, json.Unmarshal(slot.Bytes(), &snap))
	return snap
}

func TestAddToCart_MergesSameProduct(t *testing.T) {
	s, slot := newTestStore(t)
	ctx := context.Background()

	s.AddToCart(ctx, apple)
	s.AddToCart(ctx, apple)

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, ProductID("1"), items[0].Product.ID)
	assert.True(t, items[0].Quantity.Equal(decimal.NewFromInt(2)))

	snap := persisted(t, slot)
	require.Len(t, snap.Items, 1)
	assert.True(t, snap.Items[0].Quantity.Equal(decimal.NewFromInt(2)))
}

func TestAddToCart_PreservesInsertionOrder(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	s.AddToCart(ctx, pear)
	s.AddToCart(ctx, apple)
	s.AddToCart(ctx, pear)

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, ProductID("2"), items[0].Product.ID)
	assert.Equal(t, ProductID("1"), items[1].Product.ID)
}

func TestRemoveFromCart_Idempotent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	s.AddToCart(ctx, apple)
	s.AddToCart(ctx, pear)

	s.RemoveFromCart(ctx, "1")
	once := s.Items()
	s.RemoveFromCart(ctx, "1")
	twice := s.Items()

	assert.Equal(t, once, twice)
	require.Len(t, twice, 1)
	assert.Equal(t, ProductID("2"), twice[0].Product.ID)

	s.RemoveFromCart(ctx, "404")
	assert.Len(t, s.Items(), 1)
}

func TestUpdateQuantity_NonPositiveRemoves(t *testing.T) {
	for _, q := range []string{"0", "-5"} {
		t.Run(q, func(t *testing.T) {
			s, slot := newTestStore(t)
			ctx := context.Background()
			s.AddToCart(ctx, apple)
			s.AddToCart(ctx, pear)

			s.UpdateQuantity(ctx, "1", decimal.RequireFromString(q))

			items := s.Items()
			require.Len(t, items, 1)
			assert.Equal(t, ProductID("2"), items[0].Product.ID)
			for _, l := range persisted(t, slot).Items {
				assert.True(t, l.Quantity.IsPositive())
			}
		})
	}
}

func TestUpdateQuantity_ReplacesAndIgnoresMissing(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	s.AddToCart(ctx, apple)

	s.UpdateQuantity(ctx, "1", decimal.RequireFromString("2.75"))
	s.UpdateQuantity(ctx, "99", decimal.NewFromInt(4))

	items := s.Items()
	require.Len(t, items, 1)
	assert.True(t, items[0].Quantity.Equal(decimal.RequireFromString("2.75")))
}

func TestClearCart(t *testing.T) {
	s, slot := newTestStore(t)
	ctx := context.Background()
	s.AddToCart(ctx, apple)
	s.ClearCart(ctx)

	assert.Empty(t, s.Items())
	assert.JSONEq(t, `{"items":[]}`, string(slot.Bytes()))
}

func TestItems_ReturnsCopy(t *testing.T) {
	s, _ := newTestStore(t)
	s.AddToCart(context.Background(), apple)

	items := s.Items()
	items[0].Quantity = decimal.NewFromInt(100)

	assert.True(t, s.Items()[0].Quantity.Equal(decimal.NewFromInt(1)))
}

func TestWriteThroughFailure_KeepsState(t *testing.T) {
	s, slot := newTestStore(t)
	slot.SaveErr = errors.New("disk full")

	s.AddToCart(context.Background(), apple)

	assert.Len(t, s.Items(), 1)
}

func TestSubscribe(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	var seen [][]Line
	unsubscribe := s.Subscribe(func(lines []Line) { seen = append(seen, lines) })

	s.AddToCart(ctx, apple)
	s.AddToCart(ctx, pear)
	unsubscribe()
	s.ClearCart(ctx)

	require.Len(t, seen, 2)
	assert.Len(t, seen[0], 1)
	assert.Len(t, seen[1], 2)
}

func TestRehydrate_RoundTrip(t *testing.T) {
	slot := &MemorySlot{}
	ctx := context.Background()

	first := New(slot, logging.Discard())
	first.AddToCart(ctx, apple)
	first.UpdateQuantity(ctx, "1", decimal.RequireFromString("3"))
	first.AddToCart(ctx, pear)

	second := New(slot, logging.Discard())
	require.NoError(t, second.Rehydrate(ctx))

	want, got := first.Items(), second.Items()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Product.ID, got[i].Product.ID)
		assert.Equal(t, want[i].Product.Name, got[i].Product.Name)
		assert.True(t, want[i].Product.PricePerKg.Equal(got[i].Product.PricePerKg))
		assert.True(t, want[i].Quantity.Equal(got[i].Quantity))
	}
}

func TestRehydrate_SanitizesLines(t *testing.T) {
	slot := &MemorySlot{}
	ctx := context.Background()
	require.NoError(t, slot.Save(ctx, []byte(`{"items":[
		{"product":{"id":1,"name":"Apple","price_per_kg":2.5},"quantity":3},
		{"product":{"id":"","name":"Blank"},"quantity":1},
		{"product":{"id":"3","name":"Zero"},"quantity":0},
		{"product":{"id":"4","name":"Negative price","price_per_kg":-1},"quantity":1},
		{"product":{"id":"5","name":"No quantity"}},
		{"product":"not-an-object","quantity":1},
		{"quantity":2},
		{"product":{"id":"1","name":"Apple again"},"quantity":9},
		{"product":{"id":"6","name":"Plum"},"quantity":"1.5"}
	]}`)))

	s := New(slot, logging.Discard())
	require.NoError(t, s.Rehydrate(ctx))

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, ProductID("1"), items[0].Product.ID)
	assert.True(t, items[0].Quantity.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, ProductID("6"), items[1].Product.ID)
	assert.True(t, items[1].Product.PricePerKg.IsZero())
	assert.True(t, items[1].Quantity.Equal(decimal.RequireFromString("1.5")))
}

func TestRehydrate_AcceptsStateEnvelope(t *testing.T) {
	slot := &MemorySlot{}
	ctx := context.Background()
	require.NoError(t, slot.Save(ctx, []byte(`{"state":{"items":[{"product":{"id":"7","name":"Fig"},"quantity":2}]},"version":0}`)))

	s := New(slot, logging.Discard())
	require.NoError(t, s.Rehydrate(ctx))

	require.Len(t, s.Items(), 1)
	assert.Equal(t, "Fig", s.Items()[0].Product.Name)
}

func TestRehydrate_CorruptSlotStartsEmpty(t *testing.T) {
	slot := &MemorySlot{}
	ctx := context.Background()
	require.NoError(t, slot.Save(ctx, []byte(`{"items":`)))

	s := New(slot, logging.Discard())
	require.NoError(t, s.Rehydrate(ctx))
	assert.Empty(t, s.Items())
}

func TestRehydrate_ReadFailure(t *testing.T) {
	slot := &MemorySlot{LoadErr: errors.New("connection refused")}
	s := New(slot, logging.Discard())

	err := s.Rehydrate(context.Background())
	require.Error(t, err)
	assert.Empty(t, s.Items())
}

func TestSnapshotTotals(t *testing.T) {
	snap := Snapshot{Items: []Line{
		{Product: apple, Quantity: decimal.NewFromInt(3)},
		{Product: pear, Quantity: decimal.NewFromInt(1)},
	}}
	assert.True(t, snap.TotalQuantity().Equal(decimal.NewFromInt(4)))
	assert.True(t, snap.DisplaySubtotal().Equal(decimal.RequireFromString("11.50")))
}

func TestProductID_UnmarshalJSON(t *testing.T) {
	var p Product
	require.NoError(t, json.Unmarshal([]byte(`{"id":42}`), &p))
	assert.Equal(t, ProductID("42"), p.ID)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"42"}`), &p))
	assert.Equal(t, ProductID("42"), p.ID)

	assert.Error(t, json.Unmarshal([]byte(`{"id":4.2}`), &p))
	assert.Error(t, json.Unmarshal([]byte(`{"id":true}`), &p))
}
