package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/snaapconnections/storefront/api/controllers"
	"github.com/snaapconnections/storefront/api/routes"
	"github.com/snaapconnections/storefront/internal/admin"
	"github.com/snaapconnections/storefront/internal/advisor"
	"github.com/snaapconnections/storefront/internal/cart"
	"github.com/snaapconnections/storefront/internal/catalog"
	"github.com/snaapconnections/storefront/internal/checkout"
	"github.com/snaapconnections/storefront/internal/pricing"
	"github.com/snaapconnections/storefront/internal/reviews"
	"github.com/snaapconnections/storefront/internal/search"
	"github.com/snaapconnections/storefront/pkg/config"
	"github.com/snaapconnections/storefront/pkg/db"
	"github.com/snaapconnections/storefront/pkg/instance"
	"github.com/snaapconnections/storefront/pkg/logger"
	"github.com/snaapconnections/storefront/pkg/metrics"
	"github.com/snaapconnections/storefront/pkg/migrate"
	"github.com/snaapconnections/storefront/pkg/redis"
	"github.com/snaapconnections/storefront/pkg/slot"
	"github.com/snaapconnections/storefront/pkg/storefrontapi"
)

const (
	serviceName     = "storefront"
	shutdownTimeout = 15 * time.Second
	sweepInterval   = time.Minute
)

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "storefront stopped with error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	storefrontMetrics := metrics.NewStorefrontMetrics(registry)

	api, err := storefrontapi.New(storefrontapi.Options{
		BaseURL:  cfg.API.BaseURL,
		Timeout:  cfg.API.Timeout,
		Observer: storefrontMetrics,
	})
	if err != nil {
		return err
	}

	ready := map[string]controllers.Pinger{}
	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i]())
		}
	}()

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		closers = append(closers, redisClient.Close)
		ready["redis"] = redisClient
	}

	slots, err := newSlotStore(ctx, cfg, logg, redisClient, ready, &closers)
	if err != nil {
		return err
	}

	policy := pricing.Policy{}
	if policy.FreeShippingAbove, err = cfg.Checkout.FreeShippingThreshold(); err != nil {
		return err
	}
	if policy.FlatShipping, err = cfg.Checkout.FlatShippingFee(); err != nil {
		return err
	}

	cartService, err := cart.NewService(slots, cfg.Slot.CartKey, policy, storefrontMetrics, logg)
	if err != nil {
		return err
	}

	sessions := checkout.NewRegistry(cfg.Checkout.SessionIdleTTL)
	checkoutOpts := checkout.Options{
		Cart:      cartService,
		Submitter: api,
		Registry:  sessions,
		Pricing:   policy,
		Submit: checkout.SubmitPolicy{
			Timeout: cfg.Checkout.SubmitTimeout,
			Retries: cfg.Checkout.SubmitRetries,
			Backoff: cfg.Checkout.SubmitBackoff,
			LockTTL: cfg.Checkout.SubmitLockTTL,
		},
		WhatsAppNumber: cfg.Checkout.WhatsAppNumber,
		DefaultCity:    cfg.Checkout.DefaultCity,
		Metrics:        storefrontMetrics,
		Logger:         logg,
	}
	if redisClient != nil {
		checkoutOpts.Locker = redisClient
	}
	checkoutService, err := checkout.NewService(checkoutOpts)
	if err != nil {
		return err
	}

	catalogService, err := catalog.NewService(api)
	if err != nil {
		return err
	}
	searchService, err := search.NewService(api, search.Options{})
	if err != nil {
		return err
	}

	var limiter reviews.Limiter = reviews.NewMemoryLimiter(int(cfg.Reviews.SubmitLimit), cfg.Reviews.SubmitWindow)
	if redisClient != nil {
		limiter = reviews.NewRedisLimiter(redisClient, cfg.Reviews.SubmitLimit, cfg.Reviews.SubmitWindow)
	}
	reviewService, err := reviews.NewService(api, limiter, logg)
	if err != nil {
		return err
	}

	adminService, err := admin.NewService(api, logg)
	if err != nil {
		return err
	}
	advisorService, err := advisor.NewService(api)
	if err != nil {
		return err
	}

	deps := routes.Dependencies{
		Ready:   ready,
		Metrics: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
	}
	if redisClient != nil {
		deps.Idempotency = redisClient
		deps.RateLimit = redisClient
	}

	handler := routes.NewRouter(cfg, logg, routes.Services{
		Cart:     cartService,
		Checkout: checkoutService,
		Catalog:  catalogService,
		Search:   searchService,
		Reviews:  reviewService,
		Admin:    adminService,
		Advisor:  advisorService,
	}, deps)

	go sessions.Run(ctx, sweepInterval, logg)

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"addr":         addr,
		"instance":     instance.GetID(),
		"slot_backend": cfg.Slot.Backend,
		"redis":        redisClient != nil,
	})
	logg.Info(logCtx, "starting storefront server")

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down storefront server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newSlotStore(ctx context.Context, cfg *config.Config, logg *logger.Logger, redisClient *redis.Client, ready map[string]controllers.Pinger, closers *[]func() error) (slot.Store, error) {
	switch cfg.Slot.Backend {
	case config.SlotBackendRedis:
		if redisClient == nil {
			return nil, errors.New("redis slot backend needs a redis connection")
		}
		return slot.NewRedis(redisClient, cfg.Slot.TTL)
	case config.SlotBackendDB:
		dbClient, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, dbClient.Close)
		ready["db"] = dbClient
		if cfg.DB.AutoMigrate {
			if err := migrate.Up(ctx, logg, dbClient); err != nil {
				return nil, err
			}
		}
		store, err := slot.NewDB(dbClient.DB(), cfg.Slot.TTL)
		if err != nil {
			return nil, err
		}
		if cfg.Slot.TTL > 0 {
			go store.Run(ctx, sweepInterval, logg)
		}
		return store, nil
	default:
		return slot.NewMemory(), nil
	}
}
