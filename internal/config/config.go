// Package config provides configuration management for the attribution engine.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// VarMethod selects the Value-at-Risk estimation method.
type VarMethod string

const (
	VarMethodHistorical VarMethod = "historical"
	VarMethodParametric VarMethod = "parametric"
	VarMethodMonteCarlo VarMethod = "monte-carlo"
)

// LinkingMethod selects the multi-period effect linking method.
type LinkingMethod string

const (
	LinkingCarino   LinkingMethod = "carino"
	LinkingMenchero LinkingMethod = "menchero"
	LinkingGRAP     LinkingMethod = "grap"
)

// Config holds engine configuration. All calculators are pure functions of
// their inputs plus this record; it carries no mutable state.
type Config struct {
	ConfidenceLevel       float64       // VaR/CVaR confidence level
	VarMethod             VarMethod     // VaR estimation method
	LinkingMethod         LinkingMethod // multi-period linking method
	RiskFreeRate          float64       // annual risk-free rate, as decimal
	RoundingPrecision     int           // decimal places for reported figures
	DriftThreshold        float64       // effect drift alert threshold
	RegimeChangeThreshold float64       // period-over-period effect jump threshold
	MinimumPeriods        int           // minimum periods for multi-period runs
	MonteCarloSimulations int           // draws for the monte-carlo VaR arm
	MonteCarloSeed        uint64        // fixed RNG seed for reproducible draws, 0 for unseeded
	CovCacheSize          int           // in-process covariance cache entries
	CovCacheTTLSeconds    int           // redis covariance cache entry lifetime
	RedisAddr             string        // redis covariance cache, empty for in-process LRU
	RedisPassword         string
	RedisDB               int
	LogLevel              string
	Port                  int
}

// Default returns the engine defaults.
func Default() *Config {
	return &Config{
		ConfidenceLevel:       0.95,
		VarMethod:             VarMethodHistorical,
		LinkingMethod:         LinkingCarino,
		RiskFreeRate:          0.02,
		RoundingPrecision:     6,
		DriftThreshold:        0.30,
		RegimeChangeThreshold: 0.02,
		MinimumPeriods:        2,
		MonteCarloSimulations: 10000,
		CovCacheSize:          128,
		CovCacheTTLSeconds:    3600,
		LogLevel:              "info",
		Port:                  8090,
	}
}

// Load reads configuration from environment variables, falling back to
// defaults for anything unset. A .env file is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	cfg.ConfidenceLevel = getEnvFloat("ATTRIBUTION_CONFIDENCE_LEVEL", cfg.ConfidenceLevel)
	cfg.VarMethod = VarMethod(getEnv("ATTRIBUTION_VAR_METHOD", string(cfg.VarMethod)))
	cfg.LinkingMethod = LinkingMethod(getEnv("ATTRIBUTION_LINKING_METHOD", string(cfg.LinkingMethod)))
	cfg.RiskFreeRate = getEnvFloat("ATTRIBUTION_RISK_FREE_RATE", cfg.RiskFreeRate)
	cfg.RoundingPrecision = getEnvInt("ATTRIBUTION_ROUNDING_PRECISION", cfg.RoundingPrecision)
	cfg.DriftThreshold = getEnvFloat("ATTRIBUTION_DRIFT_THRESHOLD", cfg.DriftThreshold)
	cfg.RegimeChangeThreshold = getEnvFloat("ATTRIBUTION_REGIME_CHANGE_THRESHOLD", cfg.RegimeChangeThreshold)
	cfg.MinimumPeriods = getEnvInt("ATTRIBUTION_MINIMUM_PERIODS", cfg.MinimumPeriods)
	cfg.MonteCarloSimulations = getEnvInt("ATTRIBUTION_MC_SIMULATIONS", cfg.MonteCarloSimulations)
	cfg.MonteCarloSeed = getEnvUint("ATTRIBUTION_MC_SEED", cfg.MonteCarloSeed)
	cfg.CovCacheSize = getEnvInt("ATTRIBUTION_COV_CACHE_SIZE", cfg.CovCacheSize)
	cfg.CovCacheTTLSeconds = getEnvInt("ATTRIBUTION_COV_CACHE_TTL", cfg.CovCacheTTLSeconds)
	cfg.RedisAddr = getEnv("ATTRIBUTION_REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("ATTRIBUTION_REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getEnvInt("ATTRIBUTION_REDIS_DB", cfg.RedisDB)
	cfg.LogLevel = getEnv("ATTRIBUTION_LOG_LEVEL", cfg.LogLevel)
	cfg.Port = getEnvInt("ATTRIBUTION_PORT", cfg.Port)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks option values and ranges.
func (c *Config) Validate() error {
	if c.ConfidenceLevel <= 0 || c.ConfidenceLevel >= 1 {
		return fmt.Errorf("confidence level must be in (0, 1), got %v", c.ConfidenceLevel)
	}
	switch c.VarMethod {
	case VarMethodHistorical, VarMethodParametric, VarMethodMonteCarlo:
	default:
		return fmt.Errorf("unknown var method %q", c.VarMethod)
	}
	switch c.LinkingMethod {
	case LinkingCarino, LinkingMenchero, LinkingGRAP:
	default:
		return fmt.Errorf("unknown linking method %q", c.LinkingMethod)
	}
	if c.MinimumPeriods < 1 {
		return fmt.Errorf("minimum periods must be at least 1, got %d", c.MinimumPeriods)
	}
	if c.MonteCarloSimulations < 1 {
		return fmt.Errorf("monte-carlo simulations must be positive, got %d", c.MonteCarloSimulations)
	}
	if c.CovCacheSize < 1 {
		return fmt.Errorf("covariance cache size must be positive, got %d", c.CovCacheSize)
	}
	if c.RegimeChangeThreshold < 0 {
		return fmt.Errorf("regime change threshold must be non-negative, got %v", c.RegimeChangeThreshold)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvUint(key string, fallback uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseUint(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
