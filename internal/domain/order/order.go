// Package order derives immutable booking snapshots from cart state at
// checkout time.
package order

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"servicecart/internal/domain/cart"
)

// StatusPending is the initial ticket status of every new order.
const StatusPending = "Pending"

// ErrEmptyCart is returned when checkout is attempted with an empty cart.
var ErrEmptyCart = fmt.Errorf("cart is empty")

// IncompleteAddressError indicates one or more blank address fields.
type IncompleteAddressError struct {
	Missing []string
}

func (e *IncompleteAddressError) Error() string {
	return fmt.Sprintf("incomplete address: missing %s", strings.Join(e.Missing, ", "))
}

// Address holds the delivery address entered at checkout. All fields are
// required.
type Address struct {
	Building   string
	Street     string
	City       string
	PostalCode string
}

// validate returns the names of blank address fields.
func (a Address) validate() []string {
	var missing []string
	for _, f := range []struct {
		name, value string
	}{
		{"building number", a.Building},
		{"street name", a.Street},
		{"city", a.City},
		{"postal code", a.PostalCode},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Format renders the address as the single comma-separated line carried on
// the order.
func (a Address) Format() string {
	return fmt.Sprintf("%s, %s, %s, %s", a.Building, a.Street, a.City, a.PostalCode)
}

// Order is an immutable snapshot of cart contents plus delivery and contact
// details, created once per checkout attempt and never mutated afterwards.
type Order struct {
	TicketNumber string
	TicketStatus string
	Services     []string
	TotalPrice   decimal.Decimal
	Username     string
	PhoneNumber  string
	Address      string
}

// DisplayTotal returns the total fixed to two decimal places for display.
func (o Order) DisplayTotal() string {
	return o.TotalPrice.StringFixed(2)
}

// Build assembles an order snapshot from the cart, the session discount, and
// the user-entered checkout details. It returns ErrEmptyCart for an empty
// cart and an IncompleteAddressError when any address field is blank; both
// are recoverable conditions for the caller, never a panic.
//
// The snapshot copies everything it needs out of the cart, so mutating the
// cart afterwards does not affect a previously built Order.
func Build(c cart.Cart, discount decimal.Decimal, addr Address, phone, username string) (Order, error) {
	if c.IsEmpty() {
		return Order{}, ErrEmptyCart
	}
	if missing := addr.validate(); len(missing) > 0 {
		return Order{}, &IncompleteAddressError{Missing: missing}
	}
	if username == "" {
		username = "User"
	}

	items := c.Items()
	services := make([]string, len(items))
	for i, it := range items {
		services[i] = it.Name
	}

	return Order{
		TicketNumber: newTicketNumber(),
		TicketStatus: StatusPending,
		Services:     services,
		TotalPrice:   c.Total(discount),
		Username:     username,
		PhoneNumber:  phone,
		Address:      addr.Format(),
	}, nil
}

// newTicketNumber produces a short tracking token: the first 8 characters of
// a UUID v4. Uniqueness is best-effort per session, not globally guaranteed;
// collisions are acceptable at that probability.
func newTicketNumber() string {
	return uuid.New().String()[:8]
}
