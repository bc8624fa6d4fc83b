package storage

import (
	"context"

	"t2e-leaderboard/internal/domain"
)

// TraderStatsStore provides access to per-trader statistics.
type TraderStatsStore interface {
	// Insert adds a new record. Returns ErrDuplicateKey if the trader exists.
	Insert(ctx context.Context, s *domain.TraderStats) error

	// Get retrieves the record of a trader. Returns ErrNotFound if not exists.
	Get(ctx context.Context, trader domain.Pubkey) (*domain.TraderStats, error)

	// Update overwrites an existing record. Returns ErrNotFound if not exists.
	Update(ctx context.Context, s *domain.TraderStats) error

	// List retrieves all records ordered by trader ASC.
	List(ctx context.Context) ([]*domain.TraderStats, error)
}

// LeaderboardStore provides access to the single global leaderboard.
type LeaderboardStore interface {
	// Create stores the initial leaderboard and sets lb.Version to 1.
	// Returns ErrDuplicateKey if a leaderboard already exists.
	Create(ctx context.Context, lb *domain.Leaderboard) error

	// Get retrieves the leaderboard. Returns ErrNotFound if not initialized.
	Get(ctx context.Context) (*domain.Leaderboard, error)

	// Save replaces the stored leaderboard if its version still equals
	// lb.Version, then increments lb.Version. Returns ErrVersionConflict when
	// the stored version differs and ErrNotFound if not initialized.
	Save(ctx context.Context, lb *domain.Leaderboard) error
}

// HistoryStore provides access to the append-only leaderboard history.
type HistoryStore interface {
	// Append adds a snapshot and assigns snap.Seq.
	Append(ctx context.Context, snap *domain.Snapshot) error

	// List retrieves all snapshots ordered by seq ASC.
	List(ctx context.Context) ([]domain.Snapshot, error)

	// GetByTimeRange retrieves snapshots taken within [start, end] (inclusive), ordered by seq ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]domain.Snapshot, error)

	// Latest retrieves the most recent snapshot. Returns ErrNotFound if the history is empty.
	Latest(ctx context.Context) (*domain.Snapshot, error)
}

// PayoutStore provides access to the payout audit log.
type PayoutStore interface {
	// InsertBulk adds multiple payouts atomically. Fails entire batch on any duplicate payout_id.
	InsertBulk(ctx context.Context, payouts []*domain.Payout) error

	// GetByRun retrieves the payouts of a distribution run, ordered by position ASC.
	GetByRun(ctx context.Context, runID string) ([]*domain.Payout, error)

	// GetByTrader retrieves all payouts of a trader, ordered by distributed_at ASC.
	GetByTrader(ctx context.Context, trader domain.Pubkey) ([]*domain.Payout, error)
}
