package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"COSTING_APP_NAME",
	"COSTING_APP_ENV",
	"COSTING_APP_PORT",
	"COSTING_DATABASE_HOST",
	"COSTING_DATABASE_PORT",
	"COSTING_DATABASE_PASSWORD",
	"COSTING_DATABASE_SSLMODE",
	"COSTING_DATABASE_MAX_OPEN_CONNS",
	"COSTING_DATABASE_MAX_IDLE_CONNS",
	"COSTING_REDIS_ENABLED",
	"COSTING_COSTING_QUANTITY_PRECISION",
	"COSTING_COSTING_COST_PRECISION",
	"COSTING_COSTING_UNIT_COST_PRECISION",
	"COSTING_COSTING_COMMIT_RETRY_ATTEMPTS",
	"COSTING_COSTING_GOODS_CACHE_TTL",
	"COSTING_TELEMETRY_SAMPLING_RATIO",
	"COSTING_TELEMETRY_DB_LOG_FULL_SQL",
	"COSTING_TELEMETRY_LOGS_ENABLED",
	"COSTING_SWAGGER_ENABLED",
	"COSTING_SWAGGER_ALLOWED_IPS",
}

// withCleanEnv clears the config environment for one test and restores it afterwards
func withCleanEnv(t *testing.T) {
	t.Helper()
	original := make(map[string]string, len(configEnvKeys))
	for _, k := range configEnvKeys {
		original[k] = os.Getenv(k)
		os.Unsetenv(k)
	}
	t.Cleanup(func() {
		for k, v := range original {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		withCleanEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "costing-engine", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "costing", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.False(t, cfg.Redis.Enabled)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
		assert.Equal(t, int32(4), cfg.Costing.QuantityPrecision)
		assert.Equal(t, int32(2), cfg.Costing.CostPrecision)
		assert.Equal(t, int32(6), cfg.Costing.UnitCostPrecision)
		assert.Equal(t, 3, cfg.Costing.CommitRetryAttempts)
		assert.Equal(t, 5*time.Minute, cfg.Costing.GoodsCacheTTL)
		assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
	})

	t.Run("loads values from environment variables with COSTING prefix", func(t *testing.T) {
		withCleanEnv(t)
		os.Setenv("COSTING_APP_NAME", "costing-test")
		os.Setenv("COSTING_APP_PORT", "9000")
		os.Setenv("COSTING_DATABASE_HOST", "testdb.local")
		os.Setenv("COSTING_DATABASE_PORT", "5433")
		os.Setenv("COSTING_REDIS_ENABLED", "true")
		os.Setenv("COSTING_COSTING_COST_PRECISION", "0")
		os.Setenv("COSTING_COSTING_UNIT_COST_PRECISION", "8")
		os.Setenv("COSTING_COSTING_COMMIT_RETRY_ATTEMPTS", "5")
		os.Setenv("COSTING_COSTING_GOODS_CACHE_TTL", "30s")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "costing-test", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, int32(0), cfg.Costing.CostPrecision)
		assert.Equal(t, int32(8), cfg.Costing.UnitCostPrecision)
		assert.Equal(t, int32(4), cfg.Costing.QuantityPrecision)
		assert.Equal(t, 5, cfg.Costing.CommitRetryAttempts)
		assert.Equal(t, 30*time.Second, cfg.Costing.GoodsCacheTTL)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		withCleanEnv(t)
		os.Setenv("COSTING_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("COSTING_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("validates precision range", func(t *testing.T) {
		withCleanEnv(t)
		os.Setenv("COSTING_COSTING_QUANTITY_PRECISION", "13")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "costing.quantity_precision")
	})

	t.Run("validates retry attempts", func(t *testing.T) {
		withCleanEnv(t)
		os.Setenv("COSTING_COSTING_COMMIT_RETRY_ATTEMPTS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "commit_retry_attempts")
	})

	t.Run("validates sampling ratio", func(t *testing.T) {
		withCleanEnv(t)
		os.Setenv("COSTING_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func() {
		os.Setenv("COSTING_APP_ENV", "production")
		os.Setenv("COSTING_DATABASE_PASSWORD", "secure-password")
		os.Setenv("COSTING_DATABASE_SSLMODE", "require")
	}

	t.Run("requires database.password in production", func(t *testing.T) {
		withCleanEnv(t)
		setValidProductionBase()
		os.Unsetenv("COSTING_DATABASE_PASSWORD")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		withCleanEnv(t)
		setValidProductionBase()
		os.Setenv("COSTING_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("rejects full SQL logging in production", func(t *testing.T) {
		withCleanEnv(t)
		setValidProductionBase()
		os.Setenv("COSTING_TELEMETRY_DB_LOG_FULL_SQL", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db_log_full_sql")
	})

	t.Run("rejects an open swagger endpoint in production", func(t *testing.T) {
		withCleanEnv(t)
		setValidProductionBase()
		os.Setenv("COSTING_SWAGGER_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "swagger")

		os.Setenv("COSTING_SWAGGER_ALLOWED_IPS", "10.0.0.5 10.0.0.6")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, []string{"10.0.0.5", "10.0.0.6"}, cfg.Swagger.AllowedIPs)
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		withCleanEnv(t)
		setValidProductionBase()

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
		assert.False(t, cfg.Swagger.Enabled)
		assert.False(t, cfg.Telemetry.LogsEnabled)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}
