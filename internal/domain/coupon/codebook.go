package coupon

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	// Promo codes shorter or longer than this range are never valid and are
	// skipped during loading.
	minCodeLen = 6
	maxCodeLen = 10

	bloomCapacity = 1_000_000
	bloomFPR      = 0.001
)

// Codebook is an in-process coupon Repository. It combines a small set of
// built-in rules with an optional promo-code list: gzip-compressed files of
// one code per line, loaded into a bloom filter. Codes present in the filter
// but without a dedicated rule resolve to the default rule.
//
// The bloom filter trades a small false-positive rate for memory: a bogus
// code may occasionally be accepted at the stated low probability.
type Codebook struct {
	rules       map[string]*Rule
	promoCodes  *bloom.BloomFilter
	defaultRule Rule
}

// DefaultRules returns the built-in coupon rules of the storefront. SAVE10
// takes 10% off the subtotal, FLAT15 takes a flat 15 off, and BUNDLE makes
// the cheapest service free when at least two services are booked.
func DefaultRules() []Rule {
	return []Rule{
		{
			Code:         "SAVE10",
			DiscountType: DiscountPercentage,
			Value:        decimal.NewFromInt(10),
			Description:  "Coupon applied: 10% discount!",
		},
		{
			Code:         "FLAT15",
			DiscountType: DiscountFixed,
			Value:        decimal.NewFromInt(15),
			Description:  "Coupon applied: $15 off your booking!",
		},
		{
			Code:         "BUNDLE",
			DiscountType: DiscountFreeLowest,
			MinItems:     2,
			Description:  "Coupon applied: cheapest service free!",
		},
	}
}

// NewCodebook creates a Codebook with the given rules and no promo-code list.
func NewCodebook(rules []Rule) *Codebook {
	cb := &Codebook{
		rules: make(map[string]*Rule, len(rules)),
		defaultRule: Rule{
			DiscountType: DiscountPercentage,
			Value:        decimal.NewFromInt(10),
			Description:  "Valid promo code: 10% off",
		},
	}
	for i := range rules {
		rule := rules[i]
		cb.rules[strings.ToUpper(rule.Code)] = &rule
	}
	return cb
}

// LoadPromoCodes streams the given gzip-compressed code files concurrently
// into a shared bloom filter. Codes outside the valid length range are
// skipped.
func (cb *Codebook) LoadPromoCodes(ctx context.Context, paths ...string) error {
	filters := make([]*bloom.BloomFilter, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
			if err := streamGzFile(ctx, path, func(code string) {
				if len(code) >= minCodeLen && len(code) <= maxCodeLen {
					filter.AddString(strings.ToUpper(code))
				}
			}); err != nil {
				return errors.Wrapf(err, "load promo codes from %s", path)
			}
			filters[i] = filter
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	merged := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
	for _, f := range filters {
		if err := merged.Merge(f); err != nil {
			return errors.Wrap(err, "merge promo code filters")
		}
	}
	cb.promoCodes = merged
	return nil
}

// FindByCode resolves a coupon code case-insensitively. Built-in rules take
// precedence over the promo-code list. Returns ErrInvalidCoupon when the code
// is unknown.
func (cb *Codebook) FindByCode(_ context.Context, code string) (*Rule, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrInvalidCoupon
	}

	if rule, ok := cb.rules[code]; ok {
		return rule, nil
	}

	if cb.promoCodes != nil && cb.promoCodes.TestString(code) {
		rule := cb.defaultRule
		rule.Code = code
		return &rule, nil
	}

	return nil, ErrInvalidCoupon
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(code string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}
