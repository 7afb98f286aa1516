package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"tally/internal/core"
)

// Config carries everything decided outside the ledger: where the database
// lives, the materialized month range and the initial method set. The span
// and methods only matter on first creation; an existing database keeps its
// own.
type Config struct {
	// Database
	DBPath string

	// Snapshot span, fixed at database creation
	StartYear int
	Years     int

	// Initial transaction methods, in registry order
	Methods []string

	// Logging
	LogLevel string
}

func Load() *Config {
	return &Config{
		DBPath:    getEnv("TALLY_DB_PATH", "./data/tally.db"),
		StartYear: getEnvInt("TALLY_START_YEAR", 2022),
		Years:     getEnvInt("TALLY_YEARS", 4),
		Methods:   getEnvList("TALLY_TX_METHODS", []string{"Cash", "Bank"}),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
	}
}

// Span returns the configured snapshot span.
func (c *Config) Span() core.Span {
	return core.Span{StartYear: c.StartYear, Years: c.Years}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if c.DBPath == "" {
		errs = append(errs, "database path cannot be empty")
	}

	if c.StartYear < 1 || c.StartYear > 9999 {
		errs = append(errs, fmt.Sprintf("invalid start year %d", c.StartYear))
	}
	if c.Years < 1 {
		errs = append(errs, fmt.Sprintf("invalid span %d: must cover at least 1 year", c.Years))
	} else if c.Years > 100 {
		errs = append(errs, fmt.Sprintf("invalid span %d: must be at most 100 years", c.Years))
	}

	if len(c.Methods) == 0 {
		errs = append(errs, "at least one transaction method is required")
	}
	seen := map[string]bool{}
	for _, m := range c.Methods {
		if strings.TrimSpace(m) == "" {
			errs = append(errs, "transaction method names cannot be empty")
			continue
		}
		if seen[m] {
			errs = append(errs, fmt.Sprintf("duplicate transaction method %q", m))
		}
		seen[m] = true
		if strings.Contains(m, " to ") {
			errs = append(errs, fmt.Sprintf("transaction method %q may not contain \" to \"", m))
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log level %q: must be one of debug, info, warn, error", c.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
