// README: Entry point; loads config, wires competitor data, pricing services and the HTTP server, and runs the cache warmer.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rentprice/internal/config"
	httptransport "rentprice/internal/http"
	"rentprice/internal/infra"
	"rentprice/internal/logging"
	"rentprice/internal/modules/authority"
	"rentprice/internal/modules/competitor"
	"rentprice/internal/modules/pricing"
)

func main() {
	logger := logging.SetDefault()
	if err := run(logger); err != nil {
		logger.Error("pricing-api exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	policy, err := pricing.LoadPolicyFile(cfg.PolicyFile)
	if err != nil {
		return err
	}
	logger.Info("pricing policy loaded", "version", policy.Version, "file", cfg.PolicyFile)

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		return err
	}
	if dbPool != nil {
		defer dbPool.Close()
	}

	redisClient, err := infra.NewRedis(ctx, cfg.Redis.Addr)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	source := competitor.NewSource(competitor.SourceOptions{
		BaseURL:        cfg.Competitors.BaseURL,
		Limit:          cfg.Competitors.Limit,
		Timeout:        cfg.Competitors.Timeout,
		RequestsPerSec: cfg.Competitors.RequestsPerSec,
		Burst:          cfg.Competitors.Burst,
		Logger:         logger,
	})
	cacheOpts := competitor.CacheOptions{TTL: cfg.Cache.TTL, Logger: logger}
	if redisClient != nil {
		cacheOpts.Shared = competitor.NewRedisStore(redisClient, cfg.Cache.StaleRetention)
	}
	cache := competitor.NewCache(source, cacheOpts)

	svcOpts := pricing.ServiceOptions{Logger: logger}
	if client := authority.NewClient(cfg.Authority.BaseURL, cfg.Authority.Timeout, logger); client != nil {
		svcOpts.Authority = client
	} else {
		logger.Info("authoritative pricing disabled, RENTPRICE_AUTHORITY_URL not set")
	}
	if dbPool != nil {
		svcOpts.Vehicles = pricing.NewStore(dbPool)
	}
	engine := pricing.NewEngine(policy, cache, time.Now)
	pricingSvc := pricing.NewService(engine, cache, svcOpts)

	warmer := competitor.NewWarmer(cache, cfg.Warmup.Spec, cfg.Warmup.Cities, cfg.Warmup.Categories, logger)
	if err := warmer.Start(ctx); err != nil {
		return err
	}
	defer warmer.Stop()

	server := httptransport.NewServer(httptransport.ServerDeps{
		Pricing:     pricingSvc,
		Competitors: cache,
		Logger:      logger,
	}).HTTPServer(cfg.HTTP.Addr)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("pricing-api listening", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
