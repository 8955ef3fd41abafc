// Package cart implements the storefront cart as a pure state machine:
// an immutable item collection advanced by tagged events via Reduce.
package cart

import (
	"github.com/shopspring/decimal"
)

// Item is a single cart entry for a catalog service. Within a Cart there is
// at most one Item per ID and Quantity is always >= 1.
type Item struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	Image    string
	Quantity int
}

// Subtotal returns Price * Quantity for this line.
func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is an ordered collection of items keyed by item ID. The zero value is
// an empty, usable cart. Carts are treated as immutable: Reduce returns a new
// Cart and never mutates its input.
type Cart struct {
	items []Item
}

// New creates a cart from the given items, restoring the cart invariants on
// arbitrary input: duplicates are collapsed by summing quantities and entries
// with a quantity below 1 are dropped. Server responses and persisted slots
// both enter the cart through here.
func New(items ...Item) Cart {
	c := Cart{}
	for _, it := range items {
		if it.Quantity < 1 {
			continue
		}
		c = c.upsert(it, it.Quantity)
	}
	return c
}

// Items returns a copy of the cart's items in insertion order.
func (c Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of distinct items in the cart.
func (c Cart) Len() int {
	return len(c.items)
}

// IsEmpty reports whether the cart has no items.
func (c Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// Get returns the item with the given ID, if present.
func (c Cart) Get(id string) (Item, bool) {
	for _, it := range c.items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// Contains reports whether an item with the given ID is in the cart.
func (c Cart) Contains(id string) bool {
	_, ok := c.Get(id)
	return ok
}

// TotalItems returns the sum of quantities across all items. Derived, never
// stored.
func (c Cart) TotalItems() int {
	total := 0
	for _, it := range c.items {
		total += it.Quantity
	}
	return total
}

// Subtotal returns the sum of price * quantity across all items.
func (c Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range c.items {
		sum = sum.Add(it.Subtotal())
	}
	return sum
}

// Total returns Subtotal minus the given discount, floored at zero and
// rounded to 2 decimal places.
func (c Cart) Total(discount decimal.Decimal) decimal.Decimal {
	total := c.Subtotal().Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return total.Round(2)
}

// upsert returns a cart with qty added to the item's quantity, inserting the
// item when absent. Callers guarantee qty > 0.
func (c Cart) upsert(it Item, qty int) Cart {
	next := c.Items()
	for i := range next {
		if next[i].ID == it.ID {
			next[i].Quantity += qty
			return Cart{items: next}
		}
	}
	it.Quantity = qty
	return Cart{items: append(next, it)}
}

// remove returns a cart without the item with the given ID. Removing an
// absent ID is a no-op.
func (c Cart) remove(id string) Cart {
	next := make([]Item, 0, len(c.items))
	for _, it := range c.items {
		if it.ID != id {
			next = append(next, it)
		}
	}
	return Cart{items: next}
}

// setQuantity returns a cart with the item's quantity set to qty. The item is
// left untouched when absent. Callers guarantee qty >= 1.
func (c Cart) setQuantity(id string, qty int) Cart {
	next := c.Items()
	for i := range next {
		if next[i].ID == id {
			next[i].Quantity = qty
		}
	}
	return Cart{items: next}
}
