package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/finance-fixtures/internal/fixtures"
)

func validBaseConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           "8000",
			Namespace:      "finance",
			Database:       "e2e",
			ConnectTimeout: 10 * time.Second,
		},
		Seed: SeedConfig{
			Store:    StoreSurrealDB,
			Value:    17,
			Password: "patr1ot",
			Plan:     fixtures.DefaultPlan(),
		},
		LogLevel: "info",
	}
}

func TestConfig_Validate_ValidConfig(t *testing.T) {
	assert.NoError(t, validBaseConfig().Validate())
}

func TestConfig_Validate_MissingDatabaseFields(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Database.Host = ""
	cfg.Database.Namespace = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_HOST")
	assert.Contains(t, err.Error(), "DB_NAMESPACE")
}

func TestConfig_Validate_MemoryStoreSkipsDatabase(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Seed.Store = StoreMemory
	cfg.Database = DatabaseConfig{}

	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate_UnknownStore(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Seed.Store = "postgres"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SEED_STORE")
}

func TestConfig_Validate_CollectsAllErrors(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Seed.Password = ""
	cfg.LogLevel = "loud"
	cfg.Seed.Plan.EscrowStep = 0

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "SEED_PASSWORD")
	assert.Contains(t, msg, "LOG_LEVEL")
	assert.Contains(t, msg, "escrow_step")
	assert.Len(t, strings.Split(msg, "\n"), 3)
}

func TestConfig_Level(t *testing.T) {
	cfg := validBaseConfig()
	cfg.LogLevel = "debug"

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", level.String())
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"DB_HOST", "SEED_STORE", "SEED_VALUE", "SEED_PASSWORD", "SEED_PLAN", "SEED_RESET", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, StoreSurrealDB, cfg.Seed.Store)
	assert.Equal(t, uint64(17), cfg.Seed.Value)
	assert.Equal(t, "patr1ot", cfg.Seed.Password)
	assert.Equal(t, fixtures.DefaultPlan(), cfg.Seed.Plan)
	assert.Equal(t, 10*time.Second, cfg.Database.ConnectTimeout)
	assert.True(t, cfg.Seed.Reset)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("DB_HOST", "surreal.internal")
	t.Setenv("SEED_STORE", StoreMemory)
	t.Setenv("SEED_VALUE", "42")
	t.Setenv("SEED_PLAN", "")
	t.Setenv("SEED_RESET", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Seed.Reset)
	assert.Equal(t, "surreal.internal", cfg.Database.Host)
	assert.Equal(t, StoreMemory, cfg.Seed.Store)
	assert.Equal(t, uint64(42), cfg.Seed.Value)
}

func TestLoad_BadSeedFallsBackToDefault(t *testing.T) {
	t.Setenv("SEED_VALUE", "seventeen")
	t.Setenv("SEED_PLAN", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, fixtures.DefaultSeed, cfg.Seed.Value)
}

func TestLoad_PlanFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: 99\ndeposit_pairs: 1\nescrow_step: 30s\n"), 0o600))
	t.Setenv("SEED_VALUE", "42")
	t.Setenv("SEED_PLAN", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, uint64(99), cfg.Seed.Value, "plan seed wins")
	assert.Equal(t, 1, cfg.Seed.Plan.DepositPairs)
	assert.Equal(t, 30*time.Second, cfg.Seed.Plan.EscrowStep)
	assert.Equal(t, 3, cfg.Seed.Plan.DeclinedAttempts, "omitted keys keep defaults")
}

func TestLoad_MissingPlanFile(t *testing.T) {
	t.Setenv("SEED_PLAN", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestDecodePlan(t *testing.T) {
	t.Run("empty document keeps base", func(t *testing.T) {
		pf, err := DecodePlan(strings.NewReader(""), fixtures.DefaultPlan())
		require.NoError(t, err)
		assert.Nil(t, pf.Seed)
		assert.Equal(t, fixtures.DefaultPlan(), pf.Plan)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := DecodePlan(strings.NewReader("deposit_pair: 2\n"), fixtures.DefaultPlan())
		assert.Error(t, err)
	})

	t.Run("bad duration", func(t *testing.T) {
		_, err := DecodePlan(strings.NewReader("escrow_step: soon\n"), fixtures.DefaultPlan())
		assert.Error(t, err)
	})

	t.Run("all keys", func(t *testing.T) {
		doc := "seed: 7\ndeposit_pairs: 2\ndeclined_attempts: 1\nappointment_rounds: 0\nescrow_rounds: 6\nescrow_step: 2m\n"
		pf, err := DecodePlan(strings.NewReader(doc), fixtures.DefaultPlan())
		require.NoError(t, err)
		require.NotNil(t, pf.Seed)
		assert.Equal(t, uint64(7), *pf.Seed)
		assert.Equal(t, fixtures.Plan{
			DepositPairs:      2,
			DeclinedAttempts:  1,
			AppointmentRounds: 0,
			EscrowRounds:      6,
			EscrowStep:        2 * time.Minute,
		}, pf.Plan)
	})
}
