package app

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/db"
	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/handler"
	"github.com/xenking/storefront/internal/session"
	"github.com/xenking/storefront/internal/storage/memory"
	"github.com/xenking/storefront/internal/storage/postgres"
	"github.com/xenking/storefront/internal/storage/redis"
	"github.com/xenking/storefront/pkg/health"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage.Backend),
	)
	ctx = zctx.Base(ctx, lg)

	healthSvc := health.New()
	healthSvc.Add(health.Liveness, health.Check{
		Name: "goroutines",
		Func: health.GoroutineCountCheck(10000),
	})

	// PostgreSQL is opened only when the cart or the catalog lives there.
	var pool *pgxpool.Pool
	if cfg.Storage.Backend == BackendPostgres || cfg.Catalog.FromDatabase {
		var err error
		pool, err = postgres.NewPool(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "create db pool")
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}
		healthSvc.Add(health.Readiness, health.Check{
			Name:    "postgres",
			Timeout: 5 * time.Second,
			Func:    pool.Ping,
		})
	}

	var store cart.Store
	switch cfg.Storage.Backend {
	case BackendRedis:
		client := goredis.NewClient(&goredis.Options{Addr: cfg.Storage.RedisAddr})
		defer func() { _ = client.Close() }()

		rs := redis.NewStore(client, cfg.Storage.RedisPrefix, cfg.Storage.RedisTTL)
		healthSvc.Add(health.Readiness, health.Check{
			Name:    "redis",
			Timeout: 2 * time.Second,
			Func:    rs.Ping,
		})
		store = rs
	case BackendPostgres:
		store = postgres.NewKVStore(pool)
	default:
		store = memory.NewStore()
	}

	catalog, err := newCatalog(cfg.Catalog, pool)
	if err != nil {
		return errors.Wrap(err, "create catalog")
	}

	meter := m.MeterProvider().Meter("storefront")
	cartOpts := cart.Options{
		Logger:      lg,
		Meter:       meter,
		LoadTimeout: cfg.Cart.LoadTimeout,
		SaveTimeout: cfg.Cart.SaveTimeout,
	}
	demo := auth.DemoProfile(time.Now())
	sess := session.New(&demo, func() *cart.Engine {
		return cart.NewEngine(ctx, store, cartOpts)
	})
	healthSvc.Add(health.Readiness, health.Check{
		Name:    "cart",
		Timeout: cfg.Cart.LoadTimeout,
		Func: health.SignalCheck(func() <-chan struct{} {
			c, err := sess.Cart()
			if err != nil {
				return nil
			}
			return c.Ready()
		}, "cart is loading"),
	})

	users := auth.NewService(auth.Config{
		Pepper:  []byte(cfg.Auth.Pepper),
		Latency: cfg.Auth.Latency,
	})
	h := handler.NewHandler(
		handler.HandlerConfig{ImageBaseURL: cfg.ImageBaseURL},
		catalog,
		users,
		sess,
	)

	// Auth routes get a per-client limiter in front of the shared API mux.
	api := http.NewServeMux()
	h.Register(api)
	limiter := httpmiddleware.NewLimiter(httpmiddleware.RateLimitConfig{
		Max:    cfg.RateLimit.Max,
		Window: cfg.RateLimit.Window,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/auth/", limiter.Middleware()(api))
	mux.Handle("/api/", api)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: otelhttp.NewHandler(
			withMiddleware(mux, lg, cfg.CORS),
			"storefront",
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
		),
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		limiter.Run(gCtx)
		return nil
	})
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	// Graceful shutdown: wait for cancellation, drain, stop, then flush the cart.
	g.Go(func() error {
		<-gCtx.Done()
		healthSvc.SetReady(false)
		if ctx.Err() != nil {
			lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
			time.Sleep(cfg.Graceful.ReadinessDelay)
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		if err := sess.Close(shutdownCtx); err != nil {
			lg.Error("Persist cart on shutdown", zap.Error(err))
		}
		return nil
	})
	return g.Wait()
}

// withMiddleware wraps h with the shared HTTP chain. LogRequests sits outside
// Recovery so recovered panics still get an access log with status 500.
func withMiddleware(h http.Handler, lg *zap.Logger, cors CORSConfig) http.Handler {
	return httpmiddleware.Wrap(h,
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.LogRequests(),
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			Origins: cors.Origins,
			MaxAge:  cors.MaxAge,
		}),
	)
}

// newCatalog serves products from PostgreSQL when configured, otherwise from
// the seed file or the built-in product list.
func newCatalog(cfg CatalogConfig, pool *pgxpool.Pool) (product.Catalog, error) {
	if cfg.FromDatabase {
		return postgres.NewProductRepository(pool), nil
	}

	var (
		products []product.Product
		err      error
	)
	if cfg.SeedFile != "" {
		products, err = product.LoadSeedFile(cfg.SeedFile)
	} else {
		products, err = product.ReadSeed(bytes.NewReader(db.Products))
	}
	if err != nil {
		return nil, errors.Wrap(err, "read products")
	}
	c, err := product.NewStaticCatalog(products)
	if err != nil {
		return nil, err
	}
	return c, nil
}
