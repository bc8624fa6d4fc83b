package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"t2e-leaderboard/internal/domain"
	"t2e-leaderboard/internal/storage"
)

// HistoryStore implements storage.HistoryStore using PostgreSQL.
type HistoryStore struct {
	pool *Pool
}

// NewHistoryStore creates a new HistoryStore.
func NewHistoryStore(pool *Pool) *HistoryStore {
	return &HistoryStore{pool: pool}
}

// Compile-time interface check.
var _ storage.HistoryStore = (*HistoryStore)(nil)

// Append adds a snapshot and assigns snap.Seq.
func (s *HistoryStore) Append(ctx context.Context, snap *domain.Snapshot) error {
	if snap == nil {
		return storage.ErrInvalidInput
	}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO leaderboard_snapshots (taken_at, traders) VALUES ($1, $2) RETURNING seq`,
		snap.Timestamp, pubkeysToStrings(snap.Traders),
	).Scan(&snap.Seq)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// List retrieves all snapshots ordered by seq ASC.
func (s *HistoryStore) List(ctx context.Context) ([]domain.Snapshot, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT seq, taken_at, traders
		FROM leaderboard_snapshots
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// GetByTimeRange retrieves snapshots taken within [start, end] (inclusive).
func (s *HistoryStore) GetByTimeRange(ctx context.Context, start, end int64) ([]domain.Snapshot, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT seq, taken_at, traders
		FROM leaderboard_snapshots
		WHERE taken_at >= $1 AND taken_at <= $2
		ORDER BY seq ASC
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("get snapshots by time range: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// Latest retrieves the most recent snapshot. Returns ErrNotFound if empty.
func (s *HistoryStore) Latest(ctx context.Context) (*domain.Snapshot, error) {
	var (
		snap    domain.Snapshot
		traders []string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT seq, taken_at, traders
		FROM leaderboard_snapshots
		ORDER BY seq DESC
		LIMIT 1
	`).Scan(&snap.Seq, &snap.Timestamp, &traders)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}

	snap.Traders = stringsToPubkeys(traders)
	return &snap, nil
}

func scanSnapshots(rows pgx.Rows) ([]domain.Snapshot, error) {
	var snaps []domain.Snapshot
	for rows.Next() {
		var (
			snap    domain.Snapshot
			traders []string
		)
		if err := rows.Scan(&snap.Seq, &snap.Timestamp, &traders); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		snap.Traders = stringsToPubkeys(traders)
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return snaps, nil
}

func pubkeysToStrings(in []domain.Pubkey) []string {
	out := make([]string, len(in))
	for i, p := range in {
		out[i] = string(p)
	}
	return out
}

func stringsToPubkeys(in []string) []domain.Pubkey {
	out := make([]domain.Pubkey, len(in))
	for i, s := range in {
		out[i] = domain.Pubkey(s)
	}
	return out
}
