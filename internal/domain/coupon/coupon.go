package coupon

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"servicecart/internal/domain/cart"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercentage applies a percentage-based discount to the subtotal.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed applies a fixed monetary discount capped at the subtotal.
	DiscountFixed DiscountType = "fixed"
	// DiscountFreeLowest removes the cost of the cheapest service in the cart.
	DiscountFreeLowest DiscountType = "free_lowest"
)

// ErrInvalidCoupon is returned when a coupon code is not found or
// the cart does not satisfy the coupon's minimum item requirement.
var ErrInvalidCoupon = errors.New("invalid coupon code")

// Rule defines a coupon's discount behaviour and eligibility constraints.
type Rule struct {
	Code         string
	DiscountType DiscountType
	Value        decimal.Decimal
	MinItems     int
	Description  string
}

// Discount holds the computed discount amount and a human-readable
// description. Discounts are session state: they are never persisted with
// the cart and reset whenever a cart session is created.
type Discount struct {
	Amount      decimal.Decimal
	Description string
}

// Item is a cart line item viewed for discount calculation.
type Item struct {
	ServiceID string
	Price     decimal.Decimal
	Quantity  int
}

// ItemsFromCart projects cart items into coupon items.
func ItemsFromCart(c cart.Cart) []Item {
	cartItems := c.Items()
	items := make([]Item, len(cartItems))
	for i, it := range cartItems {
		items[i] = Item{
			ServiceID: it.ID,
			Price:     it.Price,
			Quantity:  it.Quantity,
		}
	}
	return items
}

// Repository provides lookup of coupon rules by their code.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Rule, error)
}
