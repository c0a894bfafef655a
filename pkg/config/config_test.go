package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ValoresPorDefecto(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "postgres", cfg.Ledger.Storage)
	assert.Equal(t, "moving_average", cfg.Ledger.CostingMode)
	assert.Equal(t, 3, cfg.Ledger.ConsumeRetries)
	assert.Equal(t, 10*time.Second, cfg.Ledger.LockTTL)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestConfig_LeeSeccionLedgerYRedis(t *testing.T) {
	v := viper.New()
	v.Set("LEDGER_STORAGE", "MEMORY")
	v.Set("LEDGER_COSTING_MODE", "legacy")
	v.Set("LEDGER_CONSUME_RETRIES", "5")
	v.Set("REDIS_ADDR", "localhost:6379")

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Ledger.Storage)
	assert.Equal(t, "legacy", cfg.Ledger.CostingMode)
	assert.Equal(t, 5, cfg.Ledger.ConsumeRetries)
	assert.True(t, cfg.Redis.Enabled())
}

func TestConfig_StorageInvalido(t *testing.T) {
	v := viper.New()
	v.Set("LEDGER_STORAGE", "mongo")
	_, err := fromViper(v)
	assert.Error(t, err)
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:word", DBName: "ledger", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/ledger?sslmode=disable", c.DSN())
	assert.Equal(t, c.DSN(), c.ConnectionString())

	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}
