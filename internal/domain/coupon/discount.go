package coupon

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var percentBase = decimal.NewFromInt(100)

// Apply computes the discount a rule grants over the booked services. Rules
// with a minimum service count reject smaller carts with ErrInvalidCoupon.
// Amounts are rounded to cents and never negative.
func Apply(rule *Rule, items []Item) (Discount, error) {
	if rule.MinItems > 0 && serviceCount(items) < rule.MinItems {
		return Discount{}, ErrInvalidCoupon
	}

	var amount decimal.Decimal
	switch rule.DiscountType {
	case DiscountPercentage:
		amount = servicesSubtotal(items).Mul(rule.Value).Div(percentBase)
	case DiscountFixed:
		// A fixed discount never exceeds what the services cost.
		amount = decimal.Min(rule.Value, servicesSubtotal(items))
	case DiscountFreeLowest:
		amount = cheapestService(items)
	default:
		return Discount{}, errors.Errorf("unsupported discount type: %q", rule.DiscountType)
	}

	return Discount{
		Amount:      clampToZero(amount).Round(2),
		Description: rule.Description,
	}, nil
}

// servicesSubtotal sums price * quantity over the booked services.
func servicesSubtotal(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}

// serviceCount sums quantities, counting every booked unit.
func serviceCount(items []Item) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// cheapestService returns the lowest unit price among the services, zero when
// there are none.
func cheapestService(items []Item) decimal.Decimal {
	lowest := decimal.Zero
	for i, it := range items {
		if i == 0 || it.Price.LessThan(lowest) {
			lowest = it.Price
		}
	}
	return lowest
}

func clampToZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
