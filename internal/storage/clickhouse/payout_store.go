package clickhouse

import (
	"context"
	"fmt"

	"t2e-leaderboard/internal/domain"
	"t2e-leaderboard/internal/storage"
)

// PayoutStore implements storage.PayoutStore using ClickHouse.
type PayoutStore struct {
	conn *Conn
}

// NewPayoutStore creates a new PayoutStore.
func NewPayoutStore(conn *Conn) *PayoutStore {
	return &PayoutStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PayoutStore = (*PayoutStore)(nil)

// InsertBulk adds multiple payouts in one batch. Fails entire batch on any duplicate.
// MergeTree does not enforce keys, so duplicates are checked before sending.
func (s *PayoutStore) InsertBulk(ctx context.Context, payouts []*domain.Payout) error {
	if len(payouts) == 0 {
		return nil
	}

	ids := make([]string, 0, len(payouts))
	seen := make(map[string]struct{}, len(payouts))
	for _, p := range payouts {
		if p == nil || p.PayoutID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[p.PayoutID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[p.PayoutID] = struct{}{}
		ids = append(ids, p.PayoutID)
	}

	var existing uint64
	if err := s.conn.QueryRow(ctx,
		`SELECT count() FROM payouts WHERE has(?, payout_id)`, ids,
	).Scan(&existing); err != nil {
		return fmt.Errorf("check existing payouts: %w", err)
	}
	if existing > 0 {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO payouts (
			payout_id, run_id, position, trader, destination,
			score, amount, distributed_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range payouts {
		err = batch.Append(
			p.PayoutID, p.RunID, uint32(p.Position), string(p.Trader), p.Destination,
			p.Score, p.Amount, p.DistributedAt,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByRun retrieves the payouts of a run, ordered by position ASC.
func (s *PayoutStore) GetByRun(ctx context.Context, runID string) ([]*domain.Payout, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT payout_id, run_id, position, trader, destination, score, amount, distributed_at
		FROM payouts
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query payouts by run: %w", err)
	}
	defer rows.Close()

	return scanPayouts(rows)
}

// GetByTrader retrieves all payouts of a trader, ordered by distributed_at ASC.
func (s *PayoutStore) GetByTrader(ctx context.Context, trader domain.Pubkey) ([]*domain.Payout, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT payout_id, run_id, position, trader, destination, score, amount, distributed_at
		FROM payouts
		WHERE trader = ?
		ORDER BY distributed_at ASC, run_id ASC
	`, string(trader))
	if err != nil {
		return nil, fmt.Errorf("query payouts by trader: %w", err)
	}
	defer rows.Close()

	return scanPayouts(rows)
}

func scanPayouts(rows rowScanner) ([]*domain.Payout, error) {
	var result []*domain.Payout
	for rows.Next() {
		var (
			p        domain.Payout
			position uint32
			trader   string
		)
		err := rows.Scan(
			&p.PayoutID, &p.RunID, &position, &trader, &p.Destination,
			&p.Score, &p.Amount, &p.DistributedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan payout: %w", err)
		}
		p.Position = int(position)
		p.Trader = domain.Pubkey(trader)
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payouts: %w", err)
	}
	return result, nil
}
