// Package cart maintains the in-memory cart state machine: stock
// ceilings, derived totals, and the last accepted shipping quote. Every
// successful mutation is persisted through the session store; the
// in-memory cart stays authoritative when persistence degrades.
package cart

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pedro664/TimTimBebidas-sub000/internal/domain"
	"github.com/pedro664/TimTimBebidas-sub000/internal/session"
)

type Engine struct {
	mu     sync.Mutex
	store  *session.Store
	logger *slog.Logger

	cart  domain.Cart
	quote *domain.ShippingQuote
}

// NewEngine hydrates the engine from whatever the store holds for this
// session, so carts survive page reloads.
func NewEngine(ctx context.Context, store *session.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{store: store, logger: logger}
	store.Load(ctx, session.EntityCart, &e.cart)
	var quote domain.ShippingQuote
	if store.Load(ctx, session.EntityShippingQuote, &quote) {
		e.quote = &quote
	}
	return e
}

// AddItem puts one unit of the product in the cart. It returns false
// without mutating when the product is out of stock or the quantity
// already sits at the stock ceiling captured at add-time.
func (e *Engine) AddItem(ctx context.Context, product domain.Product) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if product.Stock <= 0 {
		return false
	}

	if i := e.cart.IndexOf(product.ID); i >= 0 {
		item := &e.cart.Items[i]
		if item.Quantity >= product.Stock {
			return false
		}
		item.Quantity++
		item.Stock = product.Stock
	} else {
		e.cart.Items = append(e.cart.Items, domain.CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Stock:     product.Stock,
			Quantity:  1,
		})
	}

	e.persistCart(ctx)
	return true
}

// UpdateQuantity sets the quantity of an item as one atomic
// read-check-write step. A quantity of zero or less removes the item.
// It returns false when the item is absent or the requested quantity
// exceeds the stock ceiling, leaving the cart unchanged.
func (e *Engine) UpdateQuantity(ctx context.Context, productID int64, quantity int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.cart.IndexOf(productID)
	if quantity <= 0 {
		if i >= 0 {
			e.cart.Items = append(e.cart.Items[:i], e.cart.Items[i+1:]...)
			e.persistCart(ctx)
		}
		return true
	}
	if i < 0 {
		return false
	}
	if quantity > e.cart.Items[i].Stock {
		return false
	}

	e.cart.Items[i].Quantity = quantity
	e.persistCart(ctx)
	return true
}

// RemoveItem drops the item unconditionally; absent items are a no-op.
func (e *Engine) RemoveItem(ctx context.Context, productID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.cart.IndexOf(productID)
	if i < 0 {
		return
	}
	e.cart.Items = append(e.cart.Items[:i], e.cart.Items[i+1:]...)
	e.persistCart(ctx)
}

// Clear empties the cart.
func (e *Engine) Clear(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cart = domain.Cart{}
	e.persistCart(ctx)
}

// Cart returns a copy of the current cart.
func (e *Engine) Cart() domain.Cart {
	e.mu.Lock()
	defer e.mu.Unlock()

	items := make([]domain.CartItem, len(e.cart.Items))
	copy(items, e.cart.Items)
	return domain.Cart{Items: items}
}

func (e *Engine) Total() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cart.Total()
}

func (e *Engine) ItemCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cart.ItemCount()
}

// GrandTotal is the cart total plus the shipping cost when a valid
// quote is held.
func (e *Engine) GrandTotal() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	total := e.cart.Total()
	if e.quote != nil && e.quote.Valid {
		total += e.quote.Cost
	}
	return total
}

// SetQuote stores the shipping quote alongside the cart.
func (e *Engine) SetQuote(ctx context.Context, quote domain.ShippingQuote) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.quote = &quote
	outcome := e.store.Save(ctx, session.EntityShippingQuote, quote)
	if !outcome.Persisted() {
		e.logger.Warn("shipping quote not persisted, keeping in-memory value", "error", outcome.Err)
	}
}

// Quote returns the stored quote, if any.
func (e *Engine) Quote() (domain.ShippingQuote, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.quote == nil {
		return domain.ShippingQuote{}, false
	}
	return *e.quote, true
}

// ClearQuote drops the stored quote.
func (e *Engine) ClearQuote(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.quote = nil
	e.store.Clear(ctx, session.EntityShippingQuote)
}

// persistCart writes the full cart through the store. Callers hold e.mu.
func (e *Engine) persistCart(ctx context.Context) {
	outcome := e.store.Save(ctx, session.EntityCart, e.cart)
	if !outcome.Persisted() {
		e.logger.Warn("cart not persisted, in-memory cart remains authoritative", "error", outcome.Err)
	}
}
