package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/charleschow/topnum/internal/core/probability"
)

type Config struct {
	// Reference thresholds; empty uses the embedded table only.
	RecordsPath string

	// Projection journal
	JournalEnabled bool
	JournalPath    string

	// Estimator overrides; zero keeps the default.
	PriorRatePerMinute float64
	PriorMinutes       float64
	MaxPoissonTerms    int

	// Telemetry
	LogLevel string
}

// Load reads .env if present, then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		RecordsPath: envStr("RECORDS_PATH", ""),

		JournalEnabled: envBool("JOURNAL_ENABLED", true),
		JournalPath:    envStr("JOURNAL_PATH", "data/projections.db"),

		PriorRatePerMinute: envFloat("PRIOR_RATE_PER_MINUTE", 0),
		PriorMinutes:       envFloat("PRIOR_MINUTES", 0),
		MaxPoissonTerms:    envInt("MAX_POISSON_TERMS", 0),

		LogLevel: envStr("LOG_LEVEL", "info"),
	}
}

// ModelConfig starts from the estimator defaults and applies any overrides.
func (c *Config) ModelConfig() probability.Config {
	mc := probability.DefaultConfig()
	if c.PriorRatePerMinute != 0 {
		mc.PriorRatePerMinute = c.PriorRatePerMinute
	}
	if c.PriorMinutes != 0 {
		mc.PriorMinutes = c.PriorMinutes
	}
	if c.MaxPoissonTerms != 0 {
		mc.MaxPoissonTerms = c.MaxPoissonTerms
	}
	return mc
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}
