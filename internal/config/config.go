package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/forgo/finance-fixtures/internal/fixtures"
)

// Store backends selectable with SEED_STORE
const (
	StoreSurrealDB = "surrealdb"
	StoreMemory    = "memory"
)

// Config holds all seeder configuration
type Config struct {
	Database DatabaseConfig
	Seed     SeedConfig
	LogLevel string
}

// DatabaseConfig holds SurrealDB connection settings
type DatabaseConfig struct {
	Host      string
	Port      string
	Namespace string
	Database  string
	User      string
	Password  string

	ConnectTimeout time.Duration
}

// SeedConfig controls what the fixture builder generates
type SeedConfig struct {
	Store    string
	Value    uint64
	Password string
	PlanPath string
	Plan     fixtures.Plan
	// Reset deletes previously seeded records before building
	Reset bool
}

// Load reads configuration from environment variables with sensible defaults.
// When SEED_PLAN is set the plan file is read too.
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			Host:      getEnv("DB_HOST", "localhost"),
			Port:      getEnv("DB_PORT", "8000"),
			Namespace: getEnv("DB_NAMESPACE", "finance"),
			Database:  getEnv("DB_DATABASE", "e2e"),
			User:      getEnv("DB_USER", "root"),
			Password:  getEnv("DB_PASSWORD", "root"),

			ConnectTimeout: getDurationEnv("DB_CONNECT_TIMEOUT", 10*time.Second),
		},
		Seed: SeedConfig{
			Store:    getEnv("SEED_STORE", StoreSurrealDB),
			Value:    getUint64Env("SEED_VALUE", fixtures.DefaultSeed),
			Password: getEnv("SEED_PASSWORD", fixtures.DefaultPassword),
			PlanPath: getEnv("SEED_PLAN", ""),
			Plan:     fixtures.DefaultPlan(),
			Reset:    getBoolEnv("SEED_RESET", true),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if cfg.Seed.PlanPath != "" {
		if err := cfg.ApplyPlanFile(cfg.Seed.PlanPath); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// ApplyPlanFile overlays the plan file at path onto the seed settings
func (c *Config) ApplyPlanFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open plan: %w", err)
	}
	defer func() { _ = f.Close() }()

	pf, err := DecodePlan(f, c.Seed.Plan)
	if err != nil {
		return fmt.Errorf("failed to read plan %s: %w", path, err)
	}
	c.Seed.PlanPath = path
	c.Seed.Plan = pf.Plan
	if pf.Seed != nil {
		c.Seed.Value = *pf.Seed
	}
	return nil
}

// Level parses LogLevel
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	switch c.Seed.Store {
	case StoreSurrealDB:
		if c.Database.Host == "" {
			errs = append(errs, errors.New("DB_HOST is required"))
		}
		if c.Database.Port == "" {
			errs = append(errs, errors.New("DB_PORT is required"))
		}
		if c.Database.Namespace == "" {
			errs = append(errs, errors.New("DB_NAMESPACE is required"))
		}
		if c.Database.Database == "" {
			errs = append(errs, errors.New("DB_DATABASE is required"))
		}
		if c.Database.ConnectTimeout <= 0 {
			errs = append(errs, errors.New("DB_CONNECT_TIMEOUT must be positive"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("SEED_STORE must be '%s' or '%s', got '%s'", StoreSurrealDB, StoreMemory, c.Seed.Store))
	}

	if c.Seed.Password == "" {
		errs = append(errs, errors.New("SEED_PASSWORD must not be empty"))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if err := c.Seed.Plan.Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getUint64Env(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if u, err := strconv.ParseUint(value, 10, 64); err == nil {
			return u
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
