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

	"github.com/angelmondragon/storefront/api/routes"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/commerce"
	"github.com/angelmondragon/storefront/internal/discounts"
	"github.com/angelmondragon/storefront/internal/reconcile"
	"github.com/angelmondragon/storefront/internal/searches"
	"github.com/angelmondragon/storefront/internal/snapshots"
	"github.com/angelmondragon/storefront/internal/subcategories"
	"github.com/angelmondragon/storefront/internal/wishlist"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/migrate"
	"github.com/angelmondragon/storefront/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	pricingMetrics := metrics.NewPricingMetrics(registry)

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	}

	var dbClient *db.Client
	if cfg.Storage.Backend.IsSQL() {
		dbClient, err = db.New(ctx, cfg.Storage, cfg.DB, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap database", err)
			os.Exit(1)
		}
		defer func() {
			if err := dbClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing database", err)
			}
		}()

		if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
			logg.Error(ctx, "failed to run dev migrations", err)
			os.Exit(1)
		}
	}

	commerceClient, err := commerce.New(cfg.Commerce, nil, pricingMetrics, logg)
	requireResource(ctx, logg, "commerce client", err)

	catalogOpts := subcategories.CatalogOptions{TTL: cfg.Pricing.CatalogCacheTTL, Metrics: pricingMetrics}
	backends := snapshots.Backends{Backend: cfg.Storage.Backend}
	var dbPinger db.Pinger
	if redisClient != nil {
		catalogOpts.Cache = redisClient
		backends.Redis = redisClient
	}
	if dbClient != nil {
		backends.DB = dbClient.DB()
		dbPinger = dbClient
	}

	catalog, err := subcategories.NewCatalog(commerceClient, subcategories.NewResolver(logg), catalogOpts, logg)
	requireResource(ctx, logg, "subcategory catalog", err)

	discountService, err := discounts.NewService(catalog, cfg.Pricing.CandidateQuantities, logg)
	requireResource(ctx, logg, "discount service", err)

	reconciler, err := reconcile.New(commerceClient, discountService, nil, reconcile.Options{
		Concurrency: cfg.Pricing.ReconcileConcurrency,
		Metrics:     pricingMetrics,
	}, logg)
	requireResource(ctx, logg, "reconciler", err)

	cartSnapshots, err := snapshots.New[cart.Item](backends, snapshots.KindCart)
	requireResource(ctx, logg, "cart snapshots", err)
	wishlistSnapshots, err := snapshots.New[wishlist.Item](backends, snapshots.KindWishlist)
	requireResource(ctx, logg, "wishlist snapshots", err)
	searchSnapshots, err := snapshots.New[string](backends, snapshots.KindRecentSearches)
	requireResource(ctx, logg, "recent search snapshots", err)

	cartService, err := cart.NewService(cartSnapshots, reconciler, nil, logg)
	requireResource(ctx, logg, "cart service", err)
	wishlistService, err := wishlist.NewService(wishlistSnapshots, nil, logg)
	requireResource(ctx, logg, "wishlist service", err)
	searchService, err := searches.NewService(searchSnapshots, logg)
	requireResource(ctx, logg, "recent search service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"storage": cfg.Storage.Backend.String(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
		Handler: routes.NewRouter(
			cfg,
			logg,
			registry,
			dbPinger,
			redisClient,
			discountService,
			cartService,
			wishlistService,
			searchService,
		),
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "graceful shutdown failed", err)
		}
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}
