// Package app wires configuration into stores, the engine and its
// collaborators for the commands.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"t2e-leaderboard/internal/config"
	"t2e-leaderboard/internal/storage"
	chstore "t2e-leaderboard/internal/storage/clickhouse"
	"t2e-leaderboard/internal/storage/memory"
	"t2e-leaderboard/internal/storage/migrations"
	pgstore "t2e-leaderboard/internal/storage/postgres"
	redisstore "t2e-leaderboard/internal/storage/redis"
)

// Check reports whether a backing service is reachable.
type Check func(ctx context.Context) error

// Stores bundles the record stores selected by configuration.
type Stores struct {
	TraderStats storage.TraderStatsStore
	Leaderboard storage.LeaderboardStore
	History     storage.HistoryStore
	Payouts     storage.PayoutStore

	// Checks has one entry per connected backing service.
	Checks map[string]Check

	closers []func()
}

// Close releases every connection, in reverse order of opening.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Persistent reports whether records outlive the process.
func (s *Stores) Persistent() bool {
	return len(s.Checks) > 0
}

// OpenStores connects the configured backend.
//
// The postgres backend keeps every record in Postgres. A ClickHouse DSN moves
// history and the payout log there; a Redis address moves the leaderboard
// record there.
func OpenStores(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (_ *Stores, err error) {
	s := &Stores{Checks: make(map[string]Check)}

	if cfg.Backend == config.BackendMemory {
		s.TraderStats = memory.NewTraderStatsStore()
		s.Leaderboard = memory.NewLeaderboardStore()
		s.History = memory.NewHistoryStore()
		s.Payouts = memory.NewPayoutStore()
		logger.Info("using in-memory storage")
		return s, nil
	}
	if cfg.Backend != config.BackendPostgres {
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN, pgstore.WithMaxConns(cfg.MaxConns))
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, pool.Close)
	s.Checks["postgres"] = pool.Check

	if cfg.Migrate {
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
	}

	s.TraderStats = pgstore.NewTraderStatsStore(pool)
	s.Leaderboard = pgstore.NewLeaderboardStore(pool)
	s.History = pgstore.NewHistoryStore(pool)
	s.Payouts = pgstore.NewPayoutStore(pool)

	if cfg.ClickHouseDSN != "" {
		var conn *chstore.Conn
		if cfg.Migrate {
			conn, err = migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN)
		} else {
			conn, err = chstore.NewConn(ctx, cfg.ClickHouseDSN)
		}
		if err != nil {
			return nil, fmt.Errorf("clickhouse: %w", err)
		}
		s.closers = append(s.closers, func() { _ = conn.Close() })
		s.Checks["clickhouse"] = conn.Ping
		s.History = chstore.NewHistoryStore(conn)
		s.Payouts = chstore.NewPayoutStore(conn)
	}

	if cfg.RedisAddr != "" {
		client, err := redisstore.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = client.Close() })
		s.Checks["redis"] = client.Check
		s.Leaderboard = redisstore.NewLeaderboardStore(client, cfg.RedisKey)
	}

	logger.Info("storage connected",
		zap.Bool("clickhouse", cfg.ClickHouseDSN != ""),
		zap.Bool("redis", cfg.RedisAddr != ""))
	return s, nil
}
