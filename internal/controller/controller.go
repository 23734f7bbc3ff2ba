// Package controller wires the cart engine, shipping calculator,
// catalog, and handoff channel behind the contract presentation code
// consumes. One Controller serves one visitor session.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pedro664/TimTimBebidas-sub000/internal/cart"
	"github.com/pedro664/TimTimBebidas-sub000/internal/catalog"
	"github.com/pedro664/TimTimBebidas-sub000/internal/domain"
	"github.com/pedro664/TimTimBebidas-sub000/internal/handoff"
	"github.com/pedro664/TimTimBebidas-sub000/internal/session"
	"github.com/pedro664/TimTimBebidas-sub000/internal/shipping"
)

// ErrEmptyCart is returned by Checkout when there is nothing to hand off.
var ErrEmptyCart = errors.New("cart is empty, nothing to checkout")

type Controller struct {
	store     *session.Store
	engine    *cart.Engine
	calc      *shipping.Calculator
	catalog   catalog.Catalog
	publisher handoff.Publisher
	logger    *slog.Logger

	// lookupMu guards the in-flight shipping lookup bookkeeping: a
	// result is only applied when its generation is still current, so
	// a code change while a lookup is in flight discards the stale
	// quote instead of storing it.
	lookupMu     sync.Mutex
	lookupGen    uint64
	cancelLookup context.CancelFunc
}

func New(
	ctx context.Context,
	store *session.Store,
	calc *shipping.Calculator,
	cat catalog.Catalog,
	publisher handoff.Publisher,
	logger *slog.Logger,
) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		store:     store,
		engine:    cart.NewEngine(ctx, store, logger),
		calc:      calc,
		catalog:   cat,
		publisher: publisher,
		logger:    logger,
	}
}

// SessionID returns the stable id identifying this visitor's data.
func (c *Controller) SessionID() string {
	return c.store.SessionID()
}

// AddItem resolves the product in the catalog and adds one unit to the
// cart. The boolean is false when the stock ceiling rejects the add.
func (c *Controller) AddItem(ctx context.Context, productID int64) (bool, error) {
	product, err := c.catalog.Product(ctx, productID)
	if err != nil {
		return false, err
	}
	return c.engine.AddItem(ctx, product), nil
}

func (c *Controller) UpdateQuantity(ctx context.Context, productID int64, quantity int) bool {
	return c.engine.UpdateQuantity(ctx, productID, quantity)
}

func (c *Controller) RemoveItem(ctx context.Context, productID int64) {
	c.engine.RemoveItem(ctx, productID)
}

func (c *Controller) ClearCart(ctx context.Context) {
	c.engine.Clear(ctx)
}

func (c *Controller) Cart() domain.Cart {
	return c.engine.Cart()
}

func (c *Controller) Total() float64 {
	return c.engine.Total()
}

func (c *Controller) ItemCount() int {
	return c.engine.ItemCount()
}

func (c *Controller) GrandTotal() float64 {
	return c.engine.GrandTotal()
}

func (c *Controller) SetShipping(ctx context.Context, quote domain.ShippingQuote) {
	c.engine.SetQuote(ctx, quote)
}

func (c *Controller) GetShipping() (domain.ShippingQuote, bool) {
	return c.engine.Quote()
}

func (c *Controller) ClearShipping(ctx context.Context) {
	c.engine.ClearQuote(ctx)
}

// CalculateShipping runs one quote request for the current cart. The
// previously stored quote is cleared up front, any lookup still in
// flight is cancelled, and the result is stored only if no newer
// request started meanwhile.
func (c *Controller) CalculateShipping(ctx context.Context, rawCEP string) domain.ShippingResult {
	c.lookupMu.Lock()
	c.lookupGen++
	gen := c.lookupGen
	if c.cancelLookup != nil {
		c.cancelLookup()
	}
	lookupCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancelLookup = cancel
	c.lookupMu.Unlock()

	c.engine.ClearQuote(ctx)

	result := c.calc.Calculate(lookupCtx, rawCEP, c.engine.Cart())

	c.lookupMu.Lock()
	stale := gen != c.lookupGen
	if !stale {
		c.cancelLookup = nil
	}
	c.lookupMu.Unlock()
	cancel()

	if stale {
		c.logger.Info("discarding stale shipping result", "cep", rawCEP)
		return result
	}
	if result.IsAvailable {
		c.engine.SetQuote(ctx, result.Quote())
	}
	return result
}

// Checkout publishes the cart snapshot to the handoff channel and, on
// success, clears the session's cart and quote.
func (c *Controller) Checkout(ctx context.Context) (handoff.Order, error) {
	snapshot := c.engine.Cart()
	if snapshot.IsEmpty() {
		return handoff.Order{}, ErrEmptyCart
	}

	order := handoff.Order{
		OrderID:   uuid.NewString(),
		SessionID: c.SessionID(),
		Items:     snapshot.Items,
		Subtotal:  snapshot.Total(),
		Total:     c.engine.GrandTotal(),
		CreatedAt: time.Now(),
	}
	if quote, ok := c.engine.Quote(); ok && quote.Valid {
		order.Shipping = &quote
	}

	if err := c.publisher.Publish(ctx, order); err != nil {
		return handoff.Order{}, err
	}

	c.engine.Clear(ctx)
	c.engine.ClearQuote(ctx)
	return order, nil
}

// ClearSession wipes all of this session's stored data. The session id
// survives so the visitor keeps their identity.
func (c *Controller) ClearSession(ctx context.Context) {
	c.engine.Clear(ctx)
	c.engine.ClearQuote(ctx)
	c.store.ClearSession(ctx)
}
