package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"servicecart/internal/cartstore"
	"servicecart/internal/domain/catalog"
	"servicecart/internal/domain/coupon"
	"servicecart/internal/handler"
	"servicecart/internal/upstream"
	"servicecart/pkg/health"
	"servicecart/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr), zap.String("storage", cfg.Storage.Driver))

	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Cart store backend.
	var (
		stores handler.StoreFactory
		pool   *pgxpool.Pool
	)
	switch cfg.Storage.Driver {
	case "postgres":
		var err error
		pool, err = cartstore.NewPool(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "create db pool")
		}
		defer pool.Close()

		if err := cartstore.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}
		healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
			return pool.Ping(ctx)
		})
		stores = func(slot string) cartstore.Store {
			return cartstore.NewPostgresStore(pool, slot)
		}
	default:
		stores = func(slot string) cartstore.Store {
			return cartstore.NewFileStore(cfg.Storage.StateDir, slot, lg.Named("cartstore"))
		}
	}

	healthSvc.Start(ctx, 10*time.Second)

	// Coupons: built-in rules plus optional promo lists.
	codebook := coupon.NewCodebook(coupon.DefaultRules())
	if len(cfg.Coupons.PromoFiles) > 0 {
		if err := codebook.LoadPromoCodes(ctx, cfg.Coupons.PromoFiles...); err != nil {
			return errors.Wrap(err, "load promo codes")
		}
		lg.Info("Promo code lists loaded", zap.Int("files", len(cfg.Coupons.PromoFiles)))
	}

	// Service catalog.
	catalogRepo, err := catalog.NewMemoryRepository()
	if err != nil {
		return errors.Wrap(err, "load service catalog")
	}

	// Upstream booking/OTP backend.
	backend := upstream.New(cfg.UpstreamURL, nil)

	sessions := handler.NewSessionRegistry(
		stores,
		backend,
		coupon.NewRepoValidator(codebook),
		backend,
		lg.Named("cartsync"),
	)
	h := handler.NewHandler(catalogRepo, backend, sessions)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/", h.Routes())

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("storefront-api", m),
			httpmiddleware.LogRequests(),
		),
	}

	healthSvc.SetReady(true)

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
