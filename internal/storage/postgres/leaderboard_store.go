package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"t2e-leaderboard/internal/domain"
	"t2e-leaderboard/internal/storage"
)

// LeaderboardStore implements storage.LeaderboardStore using PostgreSQL.
// The header row carries the version; entries are rewritten on every save.
type LeaderboardStore struct {
	pool *Pool
}

// NewLeaderboardStore creates a new LeaderboardStore.
func NewLeaderboardStore(pool *Pool) *LeaderboardStore {
	return &LeaderboardStore{pool: pool}
}

// Compile-time interface check.
var _ storage.LeaderboardStore = (*LeaderboardStore)(nil)

// Create stores the initial leaderboard. Returns ErrDuplicateKey if one exists.
func (s *LeaderboardStore) Create(ctx context.Context, lb *domain.Leaderboard) error {
	if len(lb.Traders) != len(lb.RankingScores) {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO leaderboard (id, last_update, emergency_pause, version) VALUES (1, $1, $2, 1)`,
		lb.LastUpdate, lb.EmergencyPause,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert leaderboard: %w", err)
	}

	if err := writeEntries(ctx, tx, lb); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	lb.Version = 1
	return nil
}

// Get retrieves the leaderboard. Returns ErrNotFound if not initialized.
func (s *LeaderboardStore) Get(ctx context.Context) (*domain.Leaderboard, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly, IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	lb := &domain.Leaderboard{}
	err = tx.QueryRow(ctx,
		`SELECT last_update, emergency_pause, version FROM leaderboard WHERE id = 1`,
	).Scan(&lb.LastUpdate, &lb.EmergencyPause, &lb.Version)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get leaderboard: %w", err)
	}

	rows, err := tx.Query(ctx, `SELECT trader, score FROM leaderboard_entries ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("get leaderboard entries: %w", err)
	}
	defer rows.Close()

	lb.Traders = []domain.Pubkey{}
	lb.RankingScores = []uint64{}
	for rows.Next() {
		var (
			trader string
			score  pgtype.Numeric
		)
		if err := rows.Scan(&trader, &score); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		v, err := uint64FromNumeric(score)
		if err != nil {
			return nil, fmt.Errorf("leaderboard score of %s: %w", trader, err)
		}
		lb.Traders = append(lb.Traders, domain.Pubkey(trader))
		lb.RankingScores = append(lb.RankingScores, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard entries: %w", err)
	}

	return lb, nil
}

// Save replaces the leaderboard if lb.Version is current.
func (s *LeaderboardStore) Save(ctx context.Context, lb *domain.Leaderboard) error {
	if len(lb.Traders) != len(lb.RankingScores) {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE leaderboard
		SET last_update = $1, emergency_pause = $2, version = version + 1
		WHERE id = 1 AND version = $3
	`, lb.LastUpdate, lb.EmergencyPause, lb.Version)
	if err != nil {
		return fmt.Errorf("update leaderboard: %w", err)
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM leaderboard WHERE id = 1)`).Scan(&exists); err != nil {
			return fmt.Errorf("check leaderboard: %w", err)
		}
		if !exists {
			return storage.ErrNotFound
		}
		return storage.ErrVersionConflict
	}

	if _, err := tx.Exec(ctx, `DELETE FROM leaderboard_entries`); err != nil {
		return fmt.Errorf("clear leaderboard entries: %w", err)
	}
	if err := writeEntries(ctx, tx, lb); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	lb.Version++
	return nil
}

func writeEntries(ctx context.Context, tx pgx.Tx, lb *domain.Leaderboard) error {
	if len(lb.Traders) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, trader := range lb.Traders {
		batch.Queue(
			`INSERT INTO leaderboard_entries (position, trader, score) VALUES ($1, $2, $3)`,
			i, string(trader), numericFromUint64(lb.RankingScores[i]),
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert leaderboard entries: %w", err)
	}
	return nil
}
