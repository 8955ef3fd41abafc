package handler

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"servicecart/internal/cartstore"
	"servicecart/internal/cartsync"
	"servicecart/internal/domain/coupon"
	"servicecart/internal/session"
)

// StoreFactory creates the persistent cart slot for a slot name. The file
// and Postgres stores both satisfy it.
type StoreFactory func(slot string) cartstore.Store

// cartSession pairs one authenticated session with its cart controller.
type cartSession struct {
	sess *session.Session
	ctrl *cartsync.Controller
}

// SessionRegistry maps bearer tokens to cart sessions. Each login gets a
// controller hydrated from the phone number's slot; logout tears the
// controller down and bumps the session epoch so in-flight syncs are
// discarded.
type SessionRegistry struct {
	stores   StoreFactory
	server   cartsync.ServerCart
	coupons  coupon.Validator
	bookings cartsync.BookingSubmitter
	lg       *zap.Logger

	mu      sync.Mutex
	byToken map[string]*cartSession
}

// NewSessionRegistry creates an empty registry using the given collaborator
// set for every session it spawns.
func NewSessionRegistry(
	stores StoreFactory,
	server cartsync.ServerCart,
	coupons coupon.Validator,
	bookings cartsync.BookingSubmitter,
	lg *zap.Logger,
) *SessionRegistry {
	return &SessionRegistry{
		stores:   stores,
		server:   server,
		coupons:  coupons,
		bookings: bookings,
		lg:       lg,
		byToken:  make(map[string]*cartSession),
	}
}

// Create registers a verified login: it builds the session, hydrates the
// cart controller from the phone's persisted slot, and indexes it by token.
// A token collision replaces the previous entry.
func (r *SessionRegistry) Create(ctx context.Context, token, username, phone string) (*cartSession, error) {
	sess := session.New()
	sess.Login(username, phone, token)

	ctrl := cartsync.New(
		r.stores(slotName(phone)),
		r.server,
		r.coupons,
		r.bookings,
		sess,
		r.lg.With(zap.String("phone", phone)),
	)
	if err := ctrl.Hydrate(ctx); err != nil {
		return nil, err
	}

	cs := &cartSession{sess: sess, ctrl: ctrl}

	r.mu.Lock()
	r.byToken[token] = cs
	r.mu.Unlock()
	return cs, nil
}

// Get returns the cart session for a token.
func (r *SessionRegistry) Get(token string) (*cartSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cs, ok := r.byToken[token]
	return cs, ok
}

// Delete logs the session out and drops it. The epoch bump guarantees any
// cart sync still in flight for this session is discarded on arrival.
func (r *SessionRegistry) Delete(token string) (*cartSession, bool) {
	r.mu.Lock()
	cs, ok := r.byToken[token]
	delete(r.byToken, token)
	r.mu.Unlock()

	if ok {
		cs.sess.Logout()
	}
	return cs, ok
}

// slotName derives the persistent slot key from a phone number.
func slotName(phone string) string {
	return "cart-" + strings.TrimPrefix(phone, "+")
}
