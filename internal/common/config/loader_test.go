// internal/common/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: quotes
    user: quotes
    password: ${QUOTE_TEST_DB_PASSWORD}
  redis:
    address: localhost:6379
workers:
  calculate-quote-price:
    enabled: true
    timeout: 5000
  check-form-completion:
    enabled: false
http:
  allowed_origins:
    - https://merchant.example
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_DefaultsAndExpansion(t *testing.T) {
	t.Setenv("QUOTE_TEST_DB_PASSWORD", "s3cret")

	cfg, err := LoadFromFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Database.Postgres.Password)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, []string{"https://merchant.example"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, "USD", cfg.Pricing.Currency)
	assert.Equal(t, 5*time.Minute, cfg.Pricing.FormCacheTTLDuration())
	assert.Equal(t, "info", cfg.Logging.Level)

	calc := GetWorkerConfig(cfg, "calculate-quote-price")
	assert.Equal(t, 5000, calc.Timeout)
	assert.Equal(t, 5, calc.MaxJobsActive)
	assert.Equal(t, 3, calc.MaxRetries)

	assert.False(t, IsWorkerEnabled(cfg, "check-form-completion"))
	assert.True(t, IsWorkerEnabled(cfg, "resolve-field-visibility"))
	assert.Equal(t, 30000, GetWorkerConfig(cfg, "resolve-field-visibility").Timeout)
}

func TestLoadFromFile_EnvOverride(t *testing.T) {
	t.Setenv("DATABASE_REDIS_ADDRESS", "redis.internal:6380")

	cfg, err := LoadFromFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)
	assert.Equal(t, "redis.internal:6380", cfg.Database.Redis.Address)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing broker",
			yaml:    "database:\n  postgres:\n    host: h\n    database: d\n    user: u\n  redis:\n    address: r\n",
			wantErr: "camunda.broker_address is required",
		},
		{
			name:    "missing redis",
			yaml:    "camunda:\n  broker_address: b\ndatabase:\n  postgres:\n    host: h\n    database: d\n    user: u\n",
			wantErr: "database.redis.address is required",
		},
		{
			name:    "bad currency",
			yaml:    minimalYAML + "pricing:\n  currency: DOLLARS\n",
			wantErr: "pricing.currency",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ZEEBE_ADDRESS", "")
			_, err := LoadFromFile(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}
