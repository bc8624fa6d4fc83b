// Package config loads the service configuration from a YAML file, an
// optional .env file and environment overrides, in that order, then applies
// defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Config is the complete service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Solana   SolanaConfig   `yaml:"solana"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Auth     AuthConfig     `yaml:"auth"`
	Rewards  RewardsConfig  `yaml:"rewards"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	DisableMetrics  bool          `yaml:"disable_metrics"`
}

// StorageConfig selects where records live.
//
// With the postgres backend, ClickHouseDSN moves history and the payout log
// to ClickHouse and RedisAddr moves the leaderboard record to Redis.
type StorageConfig struct {
	Backend       string `yaml:"backend"` // memory | postgres
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickHouseDSN string `yaml:"clickhouse_dsn"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisKey      string `yaml:"redis_key"`
	MaxConns      int32  `yaml:"max_conns"`
	Migrate       bool   `yaml:"migrate"`
}

// SolanaConfig configures the trade log feed and destination lookup.
type SolanaConfig struct {
	RPCEndpoint string        `yaml:"rpc_endpoint"`
	WSEndpoint  string        `yaml:"ws_endpoint"`
	Programs    []string      `yaml:"programs"`
	Mint        string        `yaml:"mint"`
	Commitment  string        `yaml:"commitment"`
	RateLimit   float64       `yaml:"rate_limit"` // requests per second, 0 = unlimited
	RateBurst   int           `yaml:"rate_burst"`
	CacheSize   int           `yaml:"cache_size"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
}

// KafkaConfig configures the trade topic consumer. Empty Brokers disables it.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
	Oldest  bool     `yaml:"oldest"`
}

// AuthConfig configures bearer tokens and administrators.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	Issuer    string        `yaml:"issuer"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	Admins    []string      `yaml:"admins"`
}

// RewardsConfig configures vault accounts and scheduled distributions.
type RewardsConfig struct {
	RewardVault string `yaml:"reward_vault"`
	StakeVault  string `yaml:"stake_vault"`
	Pool        uint64 `yaml:"pool"`
	TopN        int    `yaml:"top_n"`
	// Destinations maps traders to payout accounts when no RPC lookup is configured.
	Destinations map[string]string `yaml:"destinations"`
	// Balances seeds the in-process ledger at startup.
	Balances map[string]uint64 `yaml:"balances"`
}

// ScheduleConfig sets the background job intervals. A negative interval
// disables refresh or snapshots; distribution runs only when its interval is
// positive.
type ScheduleConfig struct {
	RefreshInterval    time.Duration `yaml:"refresh_interval"`
	SnapshotInterval   time.Duration `yaml:"snapshot_interval"`
	DistributeInterval time.Duration `yaml:"distribute_interval"`
	SlotLagWindow      int64         `yaml:"slot_lag_window"`
	FlushInterval      time.Duration `yaml:"flush_interval"`
}

// LogConfig controls logger format, level and optional file rotation.
type LogConfig struct {
	Level      string `yaml:"level"`  // debug | info | warn | error
	Format     string `yaml:"format"` // console | json
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Load reads path (skipped when empty), applies .env and environment
// overrides, then defaults. Variables already set in the environment win
// over the .env file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %q: %w", path, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	setDefaults(&cfg)
	return &cfg, nil
}

// Validate checks settings that would otherwise fail at first use.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("storage.postgres_dsn is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend %q: want %s or %s", c.Storage.Backend, BackendMemory, BackendPostgres))
	}
	if c.Rewards.RewardVault == c.Rewards.StakeVault {
		errs = append(errs, errors.New("rewards.reward_vault and rewards.stake_vault must differ"))
	}
	if c.Rewards.TopN < 0 {
		errs = append(errs, fmt.Errorf("rewards.top_n %d: must not be negative", c.Rewards.TopN))
	}
	if c.Schedule.DistributeInterval > 0 && c.Rewards.Pool == 0 {
		errs = append(errs, errors.New("rewards.pool is required when distribute_interval is set"))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("kafka.topic is required when brokers are set"))
	}
	if c.Solana.WSEndpoint != "" && len(c.Solana.Programs) == 0 {
		errs = append(errs, errors.New("solana.programs is required when ws_endpoint is set"))
	}
	return errors.Join(errs...)
}

// applyEnvOverrides replaces values with environment variables when present.
func applyEnvOverrides(cfg *Config) error {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v := os.Getenv(key); v != "" {
			*dst = splitList(v)
		}
	}

	str("T2E_SERVER_ADDR", &cfg.Server.Addr)
	str("T2E_STORAGE_BACKEND", &cfg.Storage.Backend)
	str("POSTGRES_DSN", &cfg.Storage.PostgresDSN)
	str("CLICKHOUSE_DSN", &cfg.Storage.ClickHouseDSN)
	str("REDIS_ADDR", &cfg.Storage.RedisAddr)
	str("REDIS_PASSWORD", &cfg.Storage.RedisPassword)
	str("SOLANA_RPC_ENDPOINT", &cfg.Solana.RPCEndpoint)
	str("SOLANA_WS_ENDPOINT", &cfg.Solana.WSEndpoint)
	list("T2E_PROGRAMS", &cfg.Solana.Programs)
	str("T2E_MINT", &cfg.Solana.Mint)
	list("KAFKA_BROKERS", &cfg.Kafka.Brokers)
	str("KAFKA_TOPIC", &cfg.Kafka.Topic)
	str("KAFKA_GROUP_ID", &cfg.Kafka.GroupID)
	str("JWT_SECRET", &cfg.Auth.JWTSecret)
	list("T2E_ADMINS", &cfg.Auth.Admins)
	str("T2E_REWARD_VAULT", &cfg.Rewards.RewardVault)
	str("T2E_STAKE_VAULT", &cfg.Rewards.StakeVault)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	str("LOG_FILE", &cfg.Log.File)

	if v := os.Getenv("T2E_REWARD_POOL"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("T2E_REWARD_POOL %q: %w", v, err)
		}
		cfg.Rewards.Pool = n
	}
	if v := os.Getenv("T2E_TOP_N"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("T2E_TOP_N %q: %w", v, err)
		}
		cfg.Rewards.TopN = n
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// setDefaults fills every unset value.
func setDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendMemory
	}
	if cfg.Storage.RedisKey == "" {
		cfg.Storage.RedisKey = "t2e:leaderboard"
	}
	if cfg.Solana.Commitment == "" {
		cfg.Solana.Commitment = "confirmed"
	}
	if cfg.Solana.CacheSize <= 0 {
		cfg.Solana.CacheSize = 4096
	}
	if cfg.Solana.CacheTTL <= 0 {
		cfg.Solana.CacheTTL = 10 * time.Minute
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "t2e-leaderboard"
	}
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = "t2e-leaderboard"
	}
	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}
	if cfg.Rewards.RewardVault == "" {
		cfg.Rewards.RewardVault = "reward-vault"
	}
	if cfg.Rewards.StakeVault == "" {
		cfg.Rewards.StakeVault = "stake-vault"
	}
	if cfg.Rewards.TopN == 0 {
		cfg.Rewards.TopN = 10
	}
	if cfg.Schedule.RefreshInterval == 0 {
		cfg.Schedule.RefreshInterval = 10 * time.Minute
	}
	if cfg.Schedule.SnapshotInterval == 0 {
		cfg.Schedule.SnapshotInterval = 24 * time.Hour
	}
	if cfg.Schedule.SlotLagWindow <= 0 {
		cfg.Schedule.SlotLagWindow = 2
	}
	if cfg.Schedule.FlushInterval <= 0 {
		cfg.Schedule.FlushInterval = 5 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Log.MaxSizeMB <= 0 {
		cfg.Log.MaxSizeMB = 100
	}
	if cfg.Log.MaxBackups <= 0 {
		cfg.Log.MaxBackups = 5
	}
	if cfg.Log.MaxAgeDays <= 0 {
		cfg.Log.MaxAgeDays = 28
	}
}
