package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"order-board-service/internal/adapters/cache"
	"order-board-service/internal/adapters/geocoder"
	"order-board-service/internal/adapters/repositories"
	"order-board-service/internal/api"
	"order-board-service/internal/config"
	"order-board-service/internal/platform/db"
	"order-board-service/internal/platform/logger"
	"order-board-service/internal/platform/metrics"
	"order-board-service/internal/ports"
	"order-board-service/internal/services"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// main is the application composition root.
// It wires concrete adapters (Postgres, Redis, Yandex) behind ports and starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Environment); err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqlDB, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := repositories.InitSchema(ctx, sqlDB); err != nil {
		return err
	}

	m := metrics.Default()

	store, closeStore, err := openGeocodeStore(ctx, cfg, sqlDB)
	if err != nil {
		return err
	}
	defer closeStore()

	resolver, err := geocoder.NewYandexGeocoder(cfg.Geocoder.Token, geocoder.Options{
		BaseURL:          cfg.Geocoder.BaseURL,
		HTTPTimeout:      cfg.Geocoder.Timeout,
		RatePerSec:       cfg.Geocoder.RatePerSec,
		Burst:            cfg.Geocoder.Burst,
		FailureThreshold: cfg.Geocoder.FailureThreshold,
		BreakerTimeout:   cfg.Geocoder.BreakerTimeout,
	})
	if err != nil {
		return err
	}

	geocodes := services.NewGeocodeCache(
		services.WithStore(store),
		services.WithResolveTimeout(cfg.Geocoder.Timeout),
		services.WithNegativeTTL(cfg.NegativeTTL),
		services.WithConcurrency(cfg.Geocoder.Concurrency),
		services.WithMetrics(m),
	)

	orders := repositories.NewPostgresOrderRepository(sqlDB)
	restaurants := repositories.NewPostgresRestaurantRepository(sqlDB)
	products := repositories.NewPostgresProductRepository(sqlDB)

	console := services.NewManagerConsole(orders, restaurants, products, services.NewBoardAssembler(geocodes, m), resolver)
	intake := services.NewOrderIntake(orders, products, geocodes, resolver)

	router := api.NewRouter(api.Deps{
		Console: console,
		Intake:  intake,
		Catalog: services.NewCatalog(restaurants, products),
		DB:      sqlDB,
		Metrics: m,
	})

	// WriteTimeout leaves room for a cold board, where every address is geocoded.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("geocode_store", cfg.GeocodeStore),
			zap.String("environment", cfg.Environment))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openGeocodeStore(ctx context.Context, cfg *config.Config, sqlDB *sql.DB) (ports.GeocodeStore, func(), error) {
	switch cfg.GeocodeStore {
	case config.StoreRedis:
		client, err := db.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return cache.NewRedisGeocodeStore(client, cfg.NegativeTTL), func() { closeRedis(client) }, nil
	case config.StoreMemory:
		return cache.NewMemoryGeocodeStore(), func() {}, nil
	default:
		return cache.NewSQLGeocodeStore(sqlDB), func() {}, nil
	}
}

func closeRedis(c *redis.Client) {
	if err := c.Close(); err != nil {
		logger.Warn("close redis", zap.Error(err))
	}
}
