package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gidersen/internal/catalog"
	"gidersen/internal/config"
	"gidersen/internal/database"
	"gidersen/internal/handler"
	"gidersen/internal/identity"
	"gidersen/internal/metrics"
	"gidersen/internal/middleware"
	"gidersen/internal/repository"
	"gidersen/internal/router"
	"gidersen/internal/slogan"
	"gidersen/internal/storage"
	"gidersen/internal/storefront"
)

// tokenTTL matches the browser session cookie lifetime.
const tokenTTL = 30 * 24 * time.Hour

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting gidersen storefront")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	productRepo := repository.NewProductRepository(pool, logger)
	sellerRepo := repository.NewSellerRepository(pool, logger)

	images, err := storage.NewS3Store(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize image storage: %w", err)
	}
	resolver := storage.NewPublicURLResolver(cfg.Storage.PublicBaseURL, cfg.Storage.Bucket)
	adapter := catalog.NewAdapter(productRepo, sellerRepo, images, resolver, logger)

	provider := identity.NewClient(cfg.Backend, logger)

	tokens := identity.NewMemoryTokenStore()
	if cfg.Redis.Enabled {
		client, err := identity.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("failed to initialize redis: %w", err)
		}
		defer client.Close()
		tokens = identity.NewRedisTokenStore(client, tokenTTL)
		logger.Info().Msg("auth sessions stored in redis")
	} else {
		logger.Info().Msg("auth sessions kept in memory (redis disabled)")
	}

	m := metrics.New()

	hub := storefront.NewHub(func(sid string) *storefront.Controller {
		auth := identity.NewManager(provider, tokens, sid, logger)
		return storefront.NewController(adapter, auth, m, logger)
	}, m, logger)
	defer hub.Close()
	go hub.RunSweeper(ctx, cfg.Session.SweepInterval, cfg.Session.IdleTimeout)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, logger)
	go cleanupLimiter(ctx, limiter, cfg.Session.SweepInterval)

	rotator := slogan.NewRotator(slogan.Load(ctx, sloganSource(cfg.Content), logger))
	rotator.Start(ctx, cfg.Content.RotationInterval)

	renderer, err := handler.NewRenderer(logger)
	if err != nil {
		return fmt.Errorf("failed to initialize templates: %w", err)
	}

	mux := router.New(router.Handlers{
		Pages:   handler.NewPageHandler(hub, rotator, cfg.Content.RotationInterval, renderer, logger),
		Portal:  handler.NewPortalHandler(hub, 0, logger),
		API:     handler.NewAPIHandler(hub, pool, logger),
		Content: http.FileServer(http.Dir(cfg.Content.Dir)),
		Metrics: m,
	}, limiter, cfg.Session, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// sloganSource prefers the remote document and falls back to the bundled
// file under the content directory.
func sloganSource(cfg config.ContentConfig) slogan.Source {
	if cfg.SlogansURL != "" {
		return slogan.HTTPSource{URL: cfg.SlogansURL, Client: &http.Client{Timeout: 5 * time.Second}}
	}
	return slogan.FileSource{Path: filepath.Join(cfg.Dir, "slogans.json")}
}

func cleanupLimiter(ctx context.Context, limiter *middleware.RateLimiter, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Cleanup(10 * time.Minute)
		}
	}
}
