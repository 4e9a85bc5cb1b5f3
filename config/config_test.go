package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "alpha_ledger", cfg.Database.DBName)
	assert.Equal(t, int64(100), cfg.Lending.MinPrincipal)
	assert.Equal(t, int64(50000), cfg.Lending.MaxPrincipal)
	assert.Equal(t, int64(10), cfg.Lending.ProcessingFee)
	assert.Equal(t, int64(100), cfg.Vault.MinDeposit)
	assert.Equal(t, int64(5000), cfg.Vault.YieldThreshold)
	assert.InDelta(t, 0.01, cfg.Vault.DailyYieldRate, 1e-9)
	assert.True(t, cfg.Worker.Enabled)
}

func TestLoad_TermRates(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	rate, ok := cfg.Lending.RateForTerm(7)
	assert.True(t, ok)
	assert.InDelta(t, 0.03, rate, 1e-9)

	rate, ok = cfg.Lending.RateForTerm(14)
	assert.True(t, ok)
	assert.InDelta(t, 0.05, rate, 1e-9)

	rate, ok = cfg.Lending.RateForTerm(28)
	assert.True(t, ok)
	assert.InDelta(t, 0.08, rate, 1e-9)

	_, ok = cfg.Lending.RateForTerm(30)
	assert.False(t, ok)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("server:\n  port: 9999\nlending:\n  processing_fee: 25\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, int64(25), cfg.Lending.ProcessingFee)
	// untouched keys keep defaults
	assert.Equal(t, int64(100), cfg.Vault.MinDeposit)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("ALPHA_SERVER_PORT", "7070")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "localhost", Port: 5432,
		User: "u", Password: "p", DBName: "ledger", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://u:p@localhost:5432/ledger?sslmode=disable", d.DSN())
}

func TestRedisConfig_Addr(t *testing.T) {
	r := RedisConfig{Host: "localhost", Port: 6379}
	assert.Equal(t, "localhost:6379", r.Addr())
}
