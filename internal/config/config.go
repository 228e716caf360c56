// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the price cache database (always absolute)
	LogLevel string
	Port     int
	DevMode  bool

	// Price data
	PriceCacheTTL        time.Duration
	LookbackDays         int      // Default date range when the caller gives none
	Watchlist            []string // Symbols kept warm in the price cache
	PriceRefreshSchedule string   // Cron expression for the watchlist refresh job
	CacheCleanupSchedule string   // Cron expression for expired cache cleanup

	// Optimizer
	FrontierPoints           int
	FrontierWorkers          int
	FrontierClipLower        bool
	MonteCarloSamples        int
	SolverMaxIterations      int
	SolverMaxOuterIterations int
	SolverTolerance          float64
	SolverTimeout            time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("FRONTIER_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnvAsInt("GO_PORT", 8001),
		DevMode:  getEnvAsBool("DEV_MODE", false),

		PriceCacheTTL:        getEnvAsDuration("PRICE_CACHE_TTL", 12*time.Hour),
		LookbackDays:         getEnvAsInt("LOOKBACK_DAYS", 365),
		Watchlist:            getEnvAsList("WATCHLIST"),
		PriceRefreshSchedule: getEnv("PRICE_REFRESH_SCHEDULE", "0 30 22 * * MON-FRI"),
		CacheCleanupSchedule: getEnv("CACHE_CLEANUP_SCHEDULE", "@daily"),

		FrontierPoints:           getEnvAsInt("FRONTIER_POINTS", 50),
		FrontierWorkers:          getEnvAsInt("FRONTIER_WORKERS", runtime.NumCPU()),
		FrontierClipLower:        getEnvAsBool("FRONTIER_CLIP_LOWER", true),
		MonteCarloSamples:        getEnvAsInt("MONTE_CARLO_SAMPLES", 2000),
		SolverMaxIterations:      getEnvAsInt("SOLVER_MAX_ITERATIONS", 5000),
		SolverMaxOuterIterations: getEnvAsInt("SOLVER_MAX_OUTER_ITERATIONS", 40),
		SolverTolerance:          getEnvAsFloat("SOLVER_TOLERANCE", 1e-9),
		SolverTimeout:            getEnvAsDuration("SOLVER_TIMEOUT", 10*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that numeric settings are usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("GO_PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.LookbackDays < 2 {
		return fmt.Errorf("LOOKBACK_DAYS must be at least 2, got %d", c.LookbackDays)
	}
	if c.FrontierPoints < 1 {
		return fmt.Errorf("FRONTIER_POINTS must be positive, got %d", c.FrontierPoints)
	}
	if c.FrontierWorkers < 1 {
		return fmt.Errorf("FRONTIER_WORKERS must be positive, got %d", c.FrontierWorkers)
	}
	if c.MonteCarloSamples < 0 {
		return fmt.Errorf("MONTE_CARLO_SAMPLES must not be negative, got %d", c.MonteCarloSamples)
	}
	if c.SolverMaxIterations < 1 || c.SolverMaxOuterIterations < 1 {
		return fmt.Errorf("solver iteration limits must be positive")
	}
	if c.SolverTolerance <= 0 {
		return fmt.Errorf("SOLVER_TOLERANCE must be positive, got %g", c.SolverTolerance)
	}
	if c.SolverTimeout <= 0 {
		return fmt.Errorf("SOLVER_TIMEOUT must be positive, got %s", c.SolverTimeout)
	}
	if c.PriceCacheTTL <= 0 {
		return fmt.Errorf("PRICE_CACHE_TTL must be positive, got %s", c.PriceCacheTTL)
	}
	return nil
}

// CacheDBPath returns the location of the price cache database
func (c *Config) CacheDBPath() string {
	return filepath.Join(c.DataDir, "cache.db")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping blanks
func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToUpper(part))
		}
	}
	return out
}
