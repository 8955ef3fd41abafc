// Package cartsync bridges authentication state and cart state. The
// Controller owns the in-memory cart of one session, writes every mutation
// through to the persistent slot, pulls the authoritative server cart on
// login, and hands checkout over to order assembly and booking submission.
package cartsync

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"servicecart/internal/cartstore"
	"servicecart/internal/domain/cart"
	"servicecart/internal/domain/coupon"
	"servicecart/internal/domain/order"
	"servicecart/internal/session"
)

var (
	// ErrAlreadyInCart signals a duplicate add from the catalog view. The
	// reducer's AddItem increments on duplicates; the catalog call site
	// instead rejects them so the catalog button can flip to "in cart".
	// The asymmetry is deliberate and load-bearing for the UI.
	ErrAlreadyInCart = errors.New("service already in cart")

	// ErrStaleSync is returned when a server cart fetch resolves after the
	// session it was started for has ended; its result is discarded.
	ErrStaleSync = errors.New("session changed during cart sync")
)

// ServerCart fetches the authoritative server-side cart for a session token.
type ServerCart interface {
	FetchCart(ctx context.Context, token string) ([]cart.Item, error)
}

// BookingSubmitter submits an assembled order and returns a booking ID.
type BookingSubmitter interface {
	SubmitBooking(ctx context.Context, o order.Order, phone string) (string, error)
}

// Controller is the cart synchronization controller for a single session.
//
// All cart transitions are synchronous reducer calls made under one mutex,
// the Go rendition of the original's single event-processing context.
// Network results (server fetch, booking) are applied last-writer-wins, with
// the session epoch guarding against applying a fetch into a session that
// ended while it was in flight.
type Controller struct {
	store    cartstore.Store
	server   ServerCart
	coupons  coupon.Validator
	bookings BookingSubmitter
	sess     *session.Session
	lg       *zap.Logger

	mu       sync.Mutex
	cart     cart.Cart
	discount *coupon.Discount
}

// New creates a Controller with an empty cart and no discount. Call Hydrate
// to restore persisted state.
func New(
	store cartstore.Store,
	server ServerCart,
	coupons coupon.Validator,
	bookings BookingSubmitter,
	sess *session.Session,
	lg *zap.Logger,
) *Controller {
	return &Controller{
		store:    store,
		server:   server,
		coupons:  coupons,
		bookings: bookings,
		sess:     sess,
		lg:       lg,
	}
}

// Hydrate loads the persisted slot into memory. The store already maps a
// missing or corrupt slot to an empty cart, so Hydrate only fails on real
// storage errors. The discount is reset: discounts are session state and are
// never persisted.
func (c *Controller) Hydrate(ctx context.Context) error {
	loaded, err := c.store.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "hydrate cart")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cart = loaded
	c.discount = nil
	return nil
}

// Cart returns a snapshot of the current cart.
func (c *Controller) Cart() cart.Cart {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cart
}

// Discount returns the currently applied discount amount, or zero.
func (c *Controller) Discount() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.discount == nil {
		return decimal.Zero
	}
	return c.discount.Amount
}

// AddFromCatalog adds a catalog item with quantity 1, rejecting duplicates
// with ErrAlreadyInCart. This guard lives here at the call site, not in the
// reducer, which keeps its general increment behaviour.
func (c *Controller) AddFromCatalog(ctx context.Context, item cart.Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cart.Contains(item.ID) {
		return ErrAlreadyInCart
	}
	c.apply(ctx, cart.AddItem{Item: item, Quantity: 1})
	return nil
}

// Add increments the quantity of an item, inserting it when absent. This is
// the reducer's unguarded AddItem path.
func (c *Controller) Add(ctx context.Context, item cart.Item, qty int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apply(ctx, cart.AddItem{Item: item, Quantity: qty})
}

// SetQuantity sets an item's quantity; values below 1 remove the item.
func (c *Controller) SetQuantity(ctx context.Context, id string, qty int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apply(ctx, cart.SetQuantity{ID: id, Quantity: qty})
}

// Remove deletes an item; absent IDs are a no-op.
func (c *Controller) Remove(ctx context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apply(ctx, cart.RemoveItem{ID: id})
}

// Clear empties the cart and removes the persisted slot entirely.
func (c *Controller) Clear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cart = cart.Reduce(c.cart, cart.Clear{})
	c.discount = nil
	if err := c.store.Clear(ctx); err != nil {
		c.lg.Warn("Failed to clear cart slot", zap.Error(err))
	}
}

// ApplyCoupon validates the code against the current cart and stores the
// resulting discount on the session. Unknown codes return
// coupon.ErrInvalidCoupon; the cart is never touched.
func (c *Controller) ApplyCoupon(ctx context.Context, code string) (coupon.Discount, error) {
	c.mu.Lock()
	items := coupon.ItemsFromCart(c.cart)
	c.mu.Unlock()

	d, err := c.coupons.Validate(ctx, code, items)
	if err != nil {
		return coupon.Discount{}, err
	}

	c.mu.Lock()
	c.discount = d
	c.mu.Unlock()
	return *d, nil
}

// SyncFromServer replaces the local cart with the authoritative server cart.
// Called on the transition to logged-in. On fetch failure the local cart is
// left untouched and the error surfaced to the caller. A fetch that resolves
// after the session ended (epoch changed) is discarded with ErrStaleSync.
func (c *Controller) SyncFromServer(ctx context.Context) error {
	st, epoch := c.sess.Snapshot()
	if !st.LoggedIn {
		return ErrStaleSync
	}

	items, err := c.server.FetchCart(ctx, st.Token)
	if err != nil {
		return errors.Wrap(err, "fetch server cart")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess.Epoch() != epoch {
		c.lg.Info("Discarding stale cart sync", zap.Uint64("epoch", epoch))
		return ErrStaleSync
	}

	c.apply(ctx, cart.Replace{Items: normalize(items)})
	return nil
}

// Checkout assembles an immutable order from the current cart and submits it
// for booking. The cart is cleared only after the booking succeeds; any
// failure leaves it untouched so the user can retry.
func (c *Controller) Checkout(ctx context.Context, addr order.Address) (order.Order, string, error) {
	st := c.sess.Current()

	c.mu.Lock()
	snapshot := c.cart
	discount := decimal.Zero
	if c.discount != nil {
		discount = c.discount.Amount
	}
	c.mu.Unlock()

	o, err := order.Build(snapshot, discount, addr, st.Phone, st.Username)
	if err != nil {
		return order.Order{}, "", err
	}

	bookingID, err := c.bookings.SubmitBooking(ctx, o, st.Phone)
	if err != nil {
		return order.Order{}, "", errors.Wrap(err, "submit booking")
	}

	c.Clear(ctx)
	return o, bookingID, nil
}

// apply runs one reducer transition and writes the result through to the
// store. A persistence failure is logged and does not roll back the
// in-memory transition. Callers must hold c.mu.
func (c *Controller) apply(ctx context.Context, ev cart.Event) {
	c.cart = cart.Reduce(c.cart, ev)
	if err := c.store.Save(ctx, c.cart); err != nil {
		c.lg.Warn("Failed to persist cart", zap.Error(err))
	}
}

// normalize restores the cart invariants on server responses: duplicate IDs
// are collapsed by summing quantities in first-seen order and entries with a
// quantity below 1 are dropped. Replace itself trusts its input, so the
// controller normalizes before dispatching.
func normalize(items []cart.Item) []cart.Item {
	return cart.New(items...).Items()
}
