package clickhouse

import (
	"context"
	"fmt"

	"t2e-leaderboard/internal/domain"
	"t2e-leaderboard/internal/storage"
)

// HistoryStore implements storage.HistoryStore using ClickHouse.
//
// Seq is assigned as max(seq)+1, so appends must be serialized by the caller.
type HistoryStore struct {
	conn *Conn
}

// NewHistoryStore creates a new HistoryStore.
func NewHistoryStore(conn *Conn) *HistoryStore {
	return &HistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.HistoryStore = (*HistoryStore)(nil)

// Append adds a snapshot and assigns snap.Seq.
func (s *HistoryStore) Append(ctx context.Context, snap *domain.Snapshot) error {
	if snap == nil {
		return storage.ErrInvalidInput
	}

	var last uint64
	if err := s.conn.QueryRow(ctx, `SELECT max(seq) FROM leaderboard_snapshots`).Scan(&last); err != nil {
		return fmt.Errorf("read last seq: %w", err)
	}

	seq := last + 1
	err := s.conn.Exec(ctx,
		`INSERT INTO leaderboard_snapshots (seq, taken_at, traders) VALUES (?, ?, ?)`,
		seq, snap.Timestamp, pubkeysToStrings(snap.Traders),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	snap.Seq = int64(seq)
	return nil
}

// List retrieves all snapshots ordered by seq ASC.
func (s *HistoryStore) List(ctx context.Context) ([]domain.Snapshot, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT seq, taken_at, traders
		FROM leaderboard_snapshots
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// GetByTimeRange retrieves snapshots taken within [start, end] (inclusive).
func (s *HistoryStore) GetByTimeRange(ctx context.Context, start, end int64) ([]domain.Snapshot, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT seq, taken_at, traders
		FROM leaderboard_snapshots
		WHERE taken_at >= ? AND taken_at <= ?
		ORDER BY seq ASC
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("query snapshots by time range: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// Latest retrieves the most recent snapshot. Returns ErrNotFound if empty.
func (s *HistoryStore) Latest(ctx context.Context) (*domain.Snapshot, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT seq, taken_at, traders
		FROM leaderboard_snapshots
		ORDER BY seq DESC
		LIMIT 1
	`)
	if err != nil {
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}
	defer rows.Close()

	snaps, err := scanSnapshots(rows)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, storage.ErrNotFound
	}
	return &snaps[0], nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanSnapshots(rows rowScanner) ([]domain.Snapshot, error) {
	var snaps []domain.Snapshot
	for rows.Next() {
		var (
			seq     uint64
			takenAt int64
			traders []string
		)
		if err := rows.Scan(&seq, &takenAt, &traders); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snaps = append(snaps, domain.Snapshot{
			Seq:       int64(seq),
			Timestamp: takenAt,
			Traders:   stringsToPubkeys(traders),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
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
