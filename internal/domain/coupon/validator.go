package coupon

import (
	"context"

	"github.com/go-faster/errors"
)

// Validator resolves a coupon code against the current cart items and returns
// the discount it grants.
type Validator interface {
	Validate(ctx context.Context, code string, items []Item) (*Discount, error)
}

// RepoValidator resolves codes through a Repository and prices the resulting
// rule with Apply.
type RepoValidator struct {
	rules Repository
}

// NewRepoValidator creates a RepoValidator over the given rule source.
func NewRepoValidator(rules Repository) *RepoValidator {
	return &RepoValidator{rules: rules}
}

// Validate resolves the code and prices its rule against the cart. Unknown
// codes and carts that fail the rule's eligibility both surface as
// ErrInvalidCoupon.
func (v *RepoValidator) Validate(ctx context.Context, code string, items []Item) (*Discount, error) {
	rule, err := v.rules.FindByCode(ctx, code)
	switch {
	case errors.Is(err, ErrInvalidCoupon):
		return nil, ErrInvalidCoupon
	case err != nil:
		return nil, errors.Wrap(err, "resolve coupon code")
	}

	d, err := Apply(rule, items)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
