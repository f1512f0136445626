package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/xenking/taproom-menu/internal/domain/cart"
	"github.com/xenking/taproom-menu/internal/domain/catalog"
	"github.com/xenking/taproom-menu/internal/handler"
	"github.com/xenking/taproom-menu/internal/storage/postgres"
	"github.com/xenking/taproom-menu/internal/storage/redis"
	"github.com/xenking/taproom-menu/internal/upstream"
	"github.com/xenking/taproom-menu/pkg/health"
	"github.com/xenking/taproom-menu/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("cart_store", cfg.Cart.Store),
	)

	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Durable cart store.
	var store cart.Store
	switch cfg.Cart.Store {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Cart.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "create db pool")
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}
		healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
			return pool.Ping(ctx)
		})
		store = postgres.NewCartStore(pool)
	case "redis":
		client, err := redis.NewClient(ctx, cfg.Cart.RedisURL)
		if err != nil {
			return errors.Wrap(err, "create redis client")
		}
		defer client.Close()

		healthSvc.AddReadinessCheck("redis", 5*time.Second, func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		store = redis.NewCartStore(client)
	case "memory":
		store = cart.NewMemoryStore()
	default:
		return errors.Errorf("unknown cart store %q", cfg.Cart.Store)
	}

	// Cart ledger, hydrated from the durable store before serving.
	ledger := cart.NewLedger(store, cfg.Cart.Namespace)
	if err := ledger.Hydrate(ctx); err != nil {
		return errors.Wrap(err, "hydrate cart")
	}

	// Catalog: initial snapshot, then periodic refresh in the background.
	source := upstream.NewClient(upstream.Config{
		BaseURL:      cfg.Upstream.BaseURL,
		APIKey:       cfg.Upstream.APIKey,
		Organization: cfg.Upstream.Organization,
		Timeout:      cfg.Upstream.Timeout,
	})
	catalogSvc := catalog.NewService(source)
	if err := catalogSvc.Refresh(ctx); err != nil {
		// The server still starts; catalog endpoints report 503 until the
		// first successful refresh.
		lg.Warn("Initial catalog refresh failed", zap.Error(err))
	}
	go catalogSvc.Run(ctx, cfg.Catalog.RefreshInterval)

	healthSvc.AddReadinessCheck("catalog", time.Second, func(context.Context) error {
		if !catalogSvc.Ready() {
			return errors.New("catalog not loaded")
		}
		return nil
	})
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// HTTP handlers.
	h := handler.New(
		handler.Config{WhatsAppPhone: cfg.Order.WhatsAppPhone},
		catalogSvc,
		ledger,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	h.Routes(mux)

	instrumented := otelhttp.NewHandler(mux, "menu-api",
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(instrumented,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Accept-Language"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

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
