// Package main is the entry point for the attribution engine API server.
// It wires the configuration, the calculators and the covariance cache, then
// serves the attribution endpoints until interrupted.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/attribution/internal/config"
	"github.com/aristath/attribution/internal/modules/attribution"
	"github.com/aristath/attribution/internal/modules/factor"
	"github.com/aristath/attribution/internal/modules/multiperiod"
	"github.com/aristath/attribution/internal/modules/pnl"
	"github.com/aristath/attribution/internal/modules/risk"
	"github.com/aristath/attribution/internal/server"
	"github.com/aristath/attribution/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting attribution engine")

	// Covariance cache: Redis when configured, in-process LRU otherwise.
	var cache risk.MatrixCache
	if cfg.RedisAddr != "" {
		redisCache, err := risk.NewRedisCache(
			cfg.RedisAddr,
			cfg.RedisPassword,
			cfg.RedisDB,
			time.Duration(cfg.CovCacheTTLSeconds)*time.Second,
		)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("Failed to connect to redis")
		}
		defer func() {
			if err := redisCache.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close redis cache")
			}
		}()
		cache = redisCache
		log.Info().Str("addr", cfg.RedisAddr).Msg("Using redis covariance cache")
	} else {
		lruCache, err := risk.NewLRUCache(cfg.CovCacheSize)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create covariance cache")
		}
		cache = lruCache
	}

	returns := attribution.NewCalculator(cfg, log)
	builder := risk.NewModelBuilder(cache, log)
	riskCalc := risk.NewCalculator(cfg, builder, log)
	factors := factor.NewCalculator(cfg, log)
	multi := multiperiod.NewCalculator(cfg, returns, log)
	pnlAnalyzer := pnl.NewAnalyzer(cfg, log)

	handlers := server.NewHandlers(returns, riskCalc, factors, multi, pnlAnalyzer, log)
	srv := server.New(cfg, handlers, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatal().Err(err).Msg("HTTP server failed")
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("Attribution engine stopped")
}
