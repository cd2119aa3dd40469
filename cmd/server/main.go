package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/neexbeast/dry-chargers/internal/api"
	"github.com/neexbeast/dry-chargers/internal/cache"
	"github.com/neexbeast/dry-chargers/internal/charger"
	"github.com/neexbeast/dry-chargers/internal/config"
	"github.com/neexbeast/dry-chargers/internal/finder"
	"github.com/neexbeast/dry-chargers/internal/metrics"
	"github.com/neexbeast/dry-chargers/internal/pipeline"
	"github.com/neexbeast/dry-chargers/internal/providers"
	"github.com/neexbeast/dry-chargers/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "err", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

// cacheStore is a charger cache backend that can report its health.
type cacheStore interface {
	charger.BlobStore
	api.Pinger
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx := context.Background()

	store, closeStore, err := openStore(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	defer closeStore()

	chargers := charger.NewCache()
	if err := chargers.Load(ctx, store); err != nil {
		log.Warn("charger cache not restored, starting empty", "err", err)
	}
	metrics.SetCachedChargers(chargers.Len())
	log.Info("charger cache loaded", "backend", cfg.Store.Backend, "chargers", chargers.Len())

	// Wire dependencies.
	directory := providers.NewDirectoryClient(cfg.API.OpenChargeMapKey, cfg.API.DirectoryMaxResults)
	weather := providers.NewWeatherClient(cfg.API.OpenWeatherKey)
	geocoder := providers.NewGeocodingClient(cfg.API.OpenWeatherKey)

	enrich := pipeline.New(directory, weather, chargers, log, pipeline.WithStore(store))
	search := finder.New(geocoder, enrich, chargers, log)

	handlers := api.NewHandlers(search, api.SearchDefaults{
		MinDistance:   cfg.Search.DefaultMinDistance,
		MaxDistance:   cfg.Search.DefaultMaxDistance,
		MaxWeatherAge: cfg.Search.WeatherMaxAge,
	}, log)
	router := api.NewRouter(handlers, api.RouterConfig{
		Store:              store,
		StoreBackend:       cfg.Store.Backend,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, log)

	// A cold search fetches weather one charger at a time.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("server goroutine panicked", "recover", r)
				errCh <- fmt.Errorf("server panicked: %v", r)
			}
		}()
		log.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	if err := chargers.Save(shutdownCtx, store); err != nil {
		log.Warn("saving charger cache on shutdown", "err", err)
	}

	log.Info("server shut down cleanly")
	return nil
}

// openStore connects the configured charger cache backend.
func openStore(ctx context.Context, cfg config.StoreConfig, log *slog.Logger) (cacheStore, func(), error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		pool, err := storage.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}

		applied, err := storage.RunMigrations(ctx, pool, cfg.MigrationsDir)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		log.Info("migrations applied", "applied", applied)

		return &pgStore{Repository: storage.NewRepository(pool), pool: pool}, pool.Close, nil

	case config.BackendMemory:
		log.Warn("using in-memory charger cache; nothing survives a restart")
		return cache.NewMemoryStore(), func() {}, nil

	default:
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return cache.NewRedisStore(client), func() { _ = client.Close() }, nil
	}
}

// pgStore adds a pool ping to storage.Repository for the health check.
type pgStore struct {
	*storage.Repository
	pool interface {
		Ping(ctx context.Context) error
	}
}

func (p *pgStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}
