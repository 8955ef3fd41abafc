package coupon

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servicecart/internal/domain/cart"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestApply(t *testing.T) {
	tests := []struct {
		name       string
		rule       *Rule
		items      []Item
		wantAmount decimal.Decimal
		wantErr    error
	}{
		{
			name: "percentage 10% off $20 subtotal",
			rule: &Rule{
				Code:         "SAVE10",
				DiscountType: DiscountPercentage,
				Value:        d("10"),
				Description:  "10% off",
			},
			items: []Item{
				{ServiceID: "svc1", Price: d("20.00"), Quantity: 1},
			},
			wantAmount: d("2.00"),
		},
		{
			name: "percentage across multiple lines",
			rule: &Rule{
				Code:         "SAVE10",
				DiscountType: DiscountPercentage,
				Value:        d("10"),
			},
			items: []Item{
				{ServiceID: "svc1", Price: d("20.00"), Quantity: 2},
				{ServiceID: "svc2", Price: d("10.00"), Quantity: 1},
			},
			wantAmount: d("5.00"),
		},
		{
			name: "fixed capped at subtotal",
			rule: &Rule{
				Code:         "FLAT50",
				DiscountType: DiscountFixed,
				Value:        d("50"),
			},
			items: []Item{
				{ServiceID: "svc1", Price: d("30.00"), Quantity: 1},
			},
			wantAmount: d("30.00"),
		},
		{
			name: "free lowest picks cheapest unit price",
			rule: &Rule{
				Code:         "FREEBIE",
				DiscountType: DiscountFreeLowest,
			},
			items: []Item{
				{ServiceID: "svc1", Price: d("30.00"), Quantity: 1},
				{ServiceID: "svc2", Price: d("12.50"), Quantity: 2},
			},
			wantAmount: d("12.50"),
		},
		{
			name: "min items not met",
			rule: &Rule{
				Code:         "MIN3",
				DiscountType: DiscountFixed,
				Value:        d("5"),
				MinItems:     3,
			},
			items: []Item{
				{ServiceID: "svc1", Price: d("30.00"), Quantity: 2},
			},
			wantErr: ErrInvalidCoupon,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(tt.rule, tt.items)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.wantAmount.Equal(got.Amount),
				"want %s, got %s", tt.wantAmount, got.Amount)
		})
	}
}

func TestItemsFromCart(t *testing.T) {
	c := cart.New(
		cart.Item{ID: "svc1", Name: "Cleaning", Price: d("20.00"), Quantity: 2},
		cart.Item{ID: "svc2", Name: "Plumbing", Price: d("45.00"), Quantity: 1},
	)

	items := ItemsFromCart(c)
	require.Len(t, items, 2)
	assert.Equal(t, "svc1", items[0].ServiceID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, d("45.00").Equal(items[1].Price))
}

func TestCodebook_FindByCode(t *testing.T) {
	cb := NewCodebook(DefaultRules())
	ctx := context.Background()

	rule, err := cb.FindByCode(ctx, "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, DiscountPercentage, rule.DiscountType)
	assert.True(t, d("10").Equal(rule.Value))

	// Case-insensitive lookup.
	_, err = cb.FindByCode(ctx, "save10")
	require.NoError(t, err)

	_, err = cb.FindByCode(ctx, "BOGUS99")
	require.ErrorIs(t, err, ErrInvalidCoupon)

	_, err = cb.FindByCode(ctx, "")
	require.ErrorIs(t, err, ErrInvalidCoupon)
}

func TestCodebook_SaveTenExample(t *testing.T) {
	cb := NewCodebook(DefaultRules())
	v := NewRepoValidator(cb)

	c := cart.New(cart.Item{ID: "svc1", Name: "Cleaning", Price: d("20.00"), Quantity: 1})
	discount, err := v.Validate(context.Background(), "SAVE10", ItemsFromCart(c))
	require.NoError(t, err)

	assert.True(t, d("2.00").Equal(discount.Amount))
	assert.Equal(t, "18.00", c.Total(discount.Amount).StringFixed(2))
}

func TestCodebook_BuiltInRules(t *testing.T) {
	cb := NewCodebook(DefaultRules())
	v := NewRepoValidator(cb)
	ctx := context.Background()

	items := ItemsFromCart(cart.New(
		cart.Item{ID: "svc1", Name: "Cleaning", Price: d("89.99"), Quantity: 1},
		cart.Item{ID: "svc2", Name: "Plumbing", Price: d("45.00"), Quantity: 1},
	))

	flat, err := v.Validate(ctx, "FLAT15", items)
	require.NoError(t, err)
	assert.True(t, d("15.00").Equal(flat.Amount))

	bundle, err := v.Validate(ctx, "BUNDLE", items)
	require.NoError(t, err)
	assert.True(t, d("45.00").Equal(bundle.Amount))

	// BUNDLE needs at least two booked services.
	single := ItemsFromCart(cart.New(cart.Item{ID: "svc1", Price: d("89.99"), Quantity: 1}))
	_, err = v.Validate(ctx, "BUNDLE", single)
	require.ErrorIs(t, err, ErrInvalidCoupon)
}

func TestCodebook_PromoCodeList(t *testing.T) {
	path := writePromoFile(t, "promo1.gz", []string{
		"WELCOME8",
		"short", // below minimum length, skipped
		"HAPPYHOUR",
	})

	cb := NewCodebook(DefaultRules())
	require.NoError(t, cb.LoadPromoCodes(context.Background(), path))

	rule, err := cb.FindByCode(context.Background(), "WELCOME8")
	require.NoError(t, err)
	assert.Equal(t, "WELCOME8", rule.Code)
	assert.Equal(t, DiscountPercentage, rule.DiscountType)

	_, err = cb.FindByCode(context.Background(), "short")
	require.ErrorIs(t, err, ErrInvalidCoupon)
}

func writePromoFile(t *testing.T, name string, codes []string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)

	gz := pgzip.NewWriter(f)
	for _, code := range codes {
		_, err := gz.Write([]byte(code + "\n"))
		require.NoError(t, err)
	}
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	return path
}
