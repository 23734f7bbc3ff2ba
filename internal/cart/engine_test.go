package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedro664/TimTimBebidas-sub000/internal/domain"
	"github.com/pedro664/TimTimBebidas-sub000/internal/kv"
	"github.com/pedro664/TimTimBebidas-sub000/internal/session"
)

func newTestEngine(t *testing.T) (*Engine, *session.Store) {
	t.Helper()
	store, err := session.New(context.Background(), kv.NewMemoryBackend(0), nil, nil)
	require.NoError(t, err)
	return NewEngine(context.Background(), store, nil), store
}

func product(id int64, price float64, stock int) domain.Product {
	return domain.Product{ID: id, Name: "Produto", Price: price, Stock: stock}
}

func TestAddItem_UpToStockCeiling(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	p := product(1, 89.90, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, e.AddItem(ctx, p), "add %d within stock must succeed", i+1)
	}
	assert.False(t, e.AddItem(ctx, p), "add beyond stock must fail")

	cart := e.Cart()
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
}

func TestAddItem_ZeroStockRejected(t *testing.T) {
	e, _ := newTestEngine(t)

	assert.False(t, e.AddItem(context.Background(), product(1, 10, 0)))
	assert.Empty(t, e.Cart().Items)
}

func TestAddItem_DistinctProductsKeepOrder(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	require.True(t, e.AddItem(ctx, product(2, 64.50, 8)))
	require.True(t, e.AddItem(ctx, product(1, 89.90, 5)))

	cart := e.Cart()
	require.Len(t, cart.Items, 2)
	assert.Equal(t, int64(2), cart.Items[0].ProductID)
	assert.Equal(t, int64(1), cart.Items[1].ProductID)
}

func TestUpdateQuantity_ZeroRemovesItem(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	require.True(t, e.AddItem(ctx, product(1, 10, 5)))
	require.True(t, e.AddItem(ctx, product(2, 20, 5)))

	assert.True(t, e.UpdateQuantity(ctx, 1, 0))
	cart := e.Cart()
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(2), cart.Items[0].ProductID)
}

func TestUpdateQuantity_NegativeAlsoRemoves(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	require.True(t, e.AddItem(ctx, product(1, 10, 5)))

	assert.True(t, e.UpdateQuantity(ctx, 1, -2))
	assert.Empty(t, e.Cart().Items)
}

func TestUpdateQuantity_MissingItemReturnsFalse(t *testing.T) {
	e, _ := newTestEngine(t)

	assert.False(t, e.UpdateQuantity(context.Background(), 42, 1))
}

func TestUpdateQuantity_BeyondStockLeavesCartUnchanged(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	require.True(t, e.AddItem(ctx, product(1, 10, 3)))

	assert.False(t, e.UpdateQuantity(ctx, 1, 4))
	assert.Equal(t, 1, e.Cart().Items[0].Quantity)
}

func TestUpdateQuantity_WithinStockSucceeds(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	require.True(t, e.AddItem(ctx, product(1, 10, 3)))

	assert.True(t, e.UpdateQuantity(ctx, 1, 3))
	assert.Equal(t, 3, e.Cart().Items[0].Quantity)
}

func TestRemoveItem_AbsentIsNoop(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	require.True(t, e.AddItem(ctx, product(1, 10, 3)))

	e.RemoveItem(ctx, 99)
	assert.Len(t, e.Cart().Items, 1)

	e.RemoveItem(ctx, 1)
	assert.Empty(t, e.Cart().Items)
}

func TestTotals_RecomputedAfterEveryMutation(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	require.True(t, e.AddItem(ctx, product(1, 89.90, 5)))
	require.True(t, e.AddItem(ctx, product(1, 89.90, 5)))
	require.True(t, e.AddItem(ctx, product(2, 10.00, 5)))

	assert.InDelta(t, 189.80, e.Total(), 1e-9)
	assert.Equal(t, 3, e.ItemCount())

	require.True(t, e.UpdateQuantity(ctx, 2, 4))
	assert.InDelta(t, 219.80, e.Total(), 1e-9)
	assert.Equal(t, 6, e.ItemCount())

	e.Clear(ctx)
	assert.Zero(t, e.Total())
	assert.Zero(t, e.ItemCount())
}

func TestGrandTotal_IncludesOnlyValidQuotes(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	require.True(t, e.AddItem(ctx, product(1, 100, 5)))

	assert.InDelta(t, 100.0, e.GrandTotal(), 1e-9)

	e.SetQuote(ctx, domain.ShippingQuote{CEP: "52011000", City: "Recife", Cost: 25, Valid: true})
	assert.InDelta(t, 125.0, e.GrandTotal(), 1e-9)

	e.SetQuote(ctx, domain.ShippingQuote{CEP: "01001000", Cost: 0, Valid: false})
	assert.InDelta(t, 100.0, e.GrandTotal(), 1e-9)

	e.ClearQuote(ctx)
	assert.InDelta(t, 100.0, e.GrandTotal(), 1e-9)
}

func TestEngine_HydratesFromStore(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	require.True(t, e.AddItem(ctx, product(1, 89.90, 5)))
	e.SetQuote(ctx, domain.ShippingQuote{CEP: "52011000", City: "Recife", Cost: 15, Valid: true})

	// A fresh engine over the same store sees the same state, the way a
	// page reload would.
	reloaded := NewEngine(ctx, store, nil)
	assert.Equal(t, e.Cart(), reloaded.Cart())
	quote, ok := reloaded.Quote()
	require.True(t, ok)
	assert.Equal(t, "Recife", quote.City)
	assert.InDelta(t, 104.90, reloaded.GrandTotal(), 1e-9)
}

func TestMutations_SurviveDegradedPersistence(t *testing.T) {
	// A backend too small for any cart write: every save degrades.
	store, err := session.New(context.Background(), kv.NewMemoryBackend(60), nil, nil)
	require.NoError(t, err)
	e := NewEngine(context.Background(), store, nil)
	ctx := context.Background()

	assert.True(t, e.AddItem(ctx, product(1, 89.90, 5)))
	assert.True(t, e.AddItem(ctx, product(1, 89.90, 5)))

	// The in-memory cart remains the source of truth.
	require.Len(t, e.Cart().Items, 1)
	assert.Equal(t, 2, e.Cart().Items[0].Quantity)
	assert.InDelta(t, 179.80, e.Total(), 1e-9)
}
