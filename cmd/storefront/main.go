package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/avelichko/vitrina-storefront/api/controllers"
	"github.com/avelichko/vitrina-storefront/api/routes"
	"github.com/avelichko/vitrina-storefront/internal/cart"
	"github.com/avelichko/vitrina-storefront/internal/catalog"
	"github.com/avelichko/vitrina-storefront/internal/session"
	"github.com/avelichko/vitrina-storefront/pkg/config"
	"github.com/avelichko/vitrina-storefront/pkg/db"
	"github.com/avelichko/vitrina-storefront/pkg/logger"
	"github.com/avelichko/vitrina-storefront/pkg/metrics"
	"github.com/avelichko/vitrina-storefront/pkg/migrate"
	"github.com/avelichko/vitrina-storefront/pkg/redis"
	"github.com/avelichko/vitrina-storefront/pkg/shopapi"
	"github.com/avelichko/vitrina-storefront/pkg/store"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	var closers []func() error
	closeAll := func() {
		var errs error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = multierr.Append(errs, closers[i]())
		}
		if errs != nil {
			logg.Error(context.Background(), "error closing clients", errs)
		}
	}

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	closers = append(closers, dbClient.Close)

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		closeAll()
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(dbClient.DB())
	if cfg.App.IsDev() && cfg.Catalog.SeedDemo {
		if err := catalog.SeedDemo(context.Background(), catalogRepo); err != nil {
			logg.Error(context.Background(), "failed to seed demo catalog", err)
			closeAll()
			os.Exit(1)
		}
	}

	pingers := map[string]controllers.Pinger{"database": dbClient}

	var snapshots store.Store
	switch cfg.Snapshot.NormalizedBackend() {
	case config.SnapshotBackendRedis:
		redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			closeAll()
			os.Exit(1)
		}
		closers = append(closers, redisClient.Close)
		pingers["redis"] = redisClient

		snapshots, err = store.NewRedisStore(redisClient)
		if err != nil {
			logg.Error(context.Background(), "failed to build redis snapshot store", err)
			closeAll()
			os.Exit(1)
		}
	case config.SnapshotBackendFile:
		snapshots, err = store.NewFileStore(cfg.Snapshot.FilePath)
		if err != nil {
			logg.Error(context.Background(), "failed to build file snapshot store", err)
			closeAll()
			os.Exit(1)
		}
	}

	shopClient, err := shopapi.NewClient(cfg.Shop)
	if err != nil {
		logg.Error(context.Background(), "failed to build shop client", err)
		closeAll()
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	cartMetrics := metrics.NewCartMetrics(registry)

	guard, err := session.NewGuard(snapshots, shopClient, cfg.JWT, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create session guard", err)
		closeAll()
		os.Exit(1)
	}

	carts, err := cart.NewRegistry(cart.RegistryConfig{
		Store:   snapshots,
		Remote:  shopClient,
		Logger:  logg,
		Metrics: cartMetrics,
		OnUnauthorized: func(ctx context.Context, sessionID string) {
			guard.Invalidate(ctx, sessionID)
		},
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart registry", err)
		closeAll()
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(shopClient, catalogRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		closeAll()
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting storefront server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:   cfg,
			Logger:   logg,
			Pingers:  pingers,
			Registry: carts,
			Catalog:  catalogService,
			Guard:    guard,
			Shop:     shopClient,
			Gatherer: registry,
		}),
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "storefront server stopped unexpectedly", err)
			closeAll()
			os.Exit(1)
		}
	case <-stopCtx.Done():
		logg.Info(ctx, "shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "error during server shutdown", err)
		}
		cancel()

		// let in-flight cart syncs settle before closing the stores
		carts.Wait()
	}

	closeAll()
	logg.Info(ctx, "storefront server stopped")
}
