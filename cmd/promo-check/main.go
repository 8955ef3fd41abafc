// Command promo-check loads gzipped promo code lists into a coupon codebook
// and validates sample codes against it. Useful for vetting list files
// before pointing the server at them.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/shopspring/decimal"

	"servicecart/internal/domain/coupon"
)

func main() {
	var (
		files string
		codes string
	)
	flag.StringVar(&files, "files", "", "comma-separated gzipped promo code list files")
	flag.StringVar(&codes, "codes", "", "comma-separated sample codes to validate")
	flag.Parse()

	if files == "" {
		slog.Error("at least one promo list file is required: set --files")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, strings.Split(files, ","), strings.Split(codes, ",")); err != nil {
		slog.Error("promo check failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, files, codes []string) error {
	cb := coupon.NewCodebook(coupon.DefaultRules())
	if err := cb.LoadPromoCodes(ctx, files...); err != nil {
		return err
	}
	slog.Info("promo lists loaded", slog.Int("files", len(files)))

	// Probe the codebook with a sample cart of one $100 item.
	items := []coupon.Item{{ServiceID: "probe", Price: decimal.NewFromInt(100), Quantity: 1}}
	validator := coupon.NewRepoValidator(cb)

	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		disc, err := validator.Validate(ctx, code, items)
		if err != nil {
			slog.Info("code rejected", slog.String("code", code), slog.String("error", err.Error()))
			continue
		}
		slog.Info("code accepted",
			slog.String("code", code),
			slog.String("discount", disc.Amount.StringFixed(2)),
			slog.String("description", disc.Description),
		)
	}
	return nil
}
