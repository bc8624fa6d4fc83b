package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, 10*time.Minute, cfg.Schedule.RefreshInterval)
	assert.Equal(t, 24*time.Hour, cfg.Schedule.SnapshotInterval)
	assert.Zero(t, cfg.Schedule.DistributeInterval)
	assert.Equal(t, 10, cfg.Rewards.TopN)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9000"
storage:
  backend: postgres
  postgres_dsn: postgres://u:p@localhost/t2e
  clickhouse_dsn: clickhouse://localhost:9000/t2e
solana:
  ws_endpoint: wss://example.invalid
  programs: [Prog1111111111111111111111111111111111111111]
  cache_ttl: 90s
rewards:
  pool: 1000
  top_n: 3
  destinations:
    traderA: destA
  balances:
    reward-vault: 5000
schedule:
  refresh_interval: 15m
  snapshot_interval: -1s
  distribute_interval: 1h
log:
  level: debug
  format: console
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, BackendPostgres, cfg.Storage.Backend)
	assert.Equal(t, "clickhouse://localhost:9000/t2e", cfg.Storage.ClickHouseDSN)
	assert.Equal(t, 90*time.Second, cfg.Solana.CacheTTL)
	assert.Equal(t, uint64(1000), cfg.Rewards.Pool)
	assert.Equal(t, 3, cfg.Rewards.TopN)
	assert.Equal(t, "destA", cfg.Rewards.Destinations["traderA"])
	assert.Equal(t, uint64(5000), cfg.Rewards.Balances["reward-vault"])
	assert.Equal(t, 15*time.Minute, cfg.Schedule.RefreshInterval)
	assert.Equal(t, -time.Second, cfg.Schedule.SnapshotInterval)
	assert.Equal(t, time.Hour, cfg.Schedule.DistributeInterval)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "storage:\n  postgres_dsn: from-file\nlog:\n  level: warn\n")

	t.Setenv("POSTGRES_DSN", "from-env")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("KAFKA_BROKERS", "b1:9092, b2:9092,")
	t.Setenv("T2E_ADMINS", "admin1,admin2")
	t.Setenv("T2E_REWARD_POOL", "777")
	t.Setenv("T2E_TOP_N", "4")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Storage.PostgresDSN)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"b1:9092", "b2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, []string{"admin1", "admin2"}, cfg.Auth.Admins)
	assert.Equal(t, uint64(777), cfg.Rewards.Pool)
	assert.Equal(t, 4, cfg.Rewards.TopN)
}

func TestLoad_InvalidEnvNumber(t *testing.T) {
	t.Setenv("T2E_REWARD_POOL", "-1")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Storage.Backend = "sqlite" }},
		{"postgres without dsn", func(c *Config) { c.Storage.Backend = BackendPostgres }},
		{"same vaults", func(c *Config) { c.Rewards.StakeVault = c.Rewards.RewardVault }},
		{"negative top n", func(c *Config) { c.Rewards.TopN = -1 }},
		{"distribution without pool", func(c *Config) { c.Schedule.DistributeInterval = time.Hour }},
		{"kafka without topic", func(c *Config) { c.Kafka.Brokers = []string{"b:9092"} }},
		{"ws without programs", func(c *Config) { c.Solana.WSEndpoint = "wss://x" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
