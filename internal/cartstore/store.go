// Package cartstore persists the serialized cart to a durable slot keyed by
// a fixed name. It is a pure get/set/clear adapter with no business logic;
// only the synchronization controller talks to it.
package cartstore

import (
	"context"

	"servicecart/internal/domain/cart"
)

// Store reads and writes one cart slot.
//
// Load returns an empty cart when nothing is stored or the stored data is
// unparseable; persistence is best-effort and corrupt state never blocks
// startup. Save is an idempotent overwrite. Clear removes the slot entirely
// rather than writing an empty list.
type Store interface {
	Load(ctx context.Context) (cart.Cart, error)
	Save(ctx context.Context, c cart.Cart) error
	Clear(ctx context.Context) error
}
