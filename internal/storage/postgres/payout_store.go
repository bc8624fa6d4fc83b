package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"t2e-leaderboard/internal/domain"
	"t2e-leaderboard/internal/storage"
)

// PayoutStore implements storage.PayoutStore using PostgreSQL.
type PayoutStore struct {
	pool *Pool
}

// NewPayoutStore creates a new PayoutStore.
func NewPayoutStore(pool *Pool) *PayoutStore {
	return &PayoutStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PayoutStore = (*PayoutStore)(nil)

// InsertBulk adds multiple payouts atomically. Fails entire batch on any duplicate.
func (s *PayoutStore) InsertBulk(ctx context.Context, payouts []*domain.Payout) error {
	if len(payouts) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO payouts (
			payout_id, run_id, position, trader, destination,
			score, amount, distributed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, p := range payouts {
		_, err := tx.Exec(ctx, query,
			p.PayoutID, p.RunID, p.Position, string(p.Trader), p.Destination,
			numericFromUint64(p.Score), numericFromUint64(p.Amount), p.DistributedAt,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert payout in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByRun retrieves the payouts of a run, ordered by position ASC.
func (s *PayoutStore) GetByRun(ctx context.Context, runID string) ([]*domain.Payout, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT payout_id, run_id, position, trader, destination, score, amount, distributed_at
		FROM payouts
		WHERE run_id = $1
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("get payouts by run: %w", err)
	}
	defer rows.Close()

	return scanPayouts(rows)
}

// GetByTrader retrieves all payouts of a trader, ordered by distributed_at ASC.
func (s *PayoutStore) GetByTrader(ctx context.Context, trader domain.Pubkey) ([]*domain.Payout, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT payout_id, run_id, position, trader, destination, score, amount, distributed_at
		FROM payouts
		WHERE trader = $1
		ORDER BY distributed_at ASC, run_id ASC
	`, string(trader))
	if err != nil {
		return nil, fmt.Errorf("get payouts by trader: %w", err)
	}
	defer rows.Close()

	return scanPayouts(rows)
}

func scanPayouts(rows pgx.Rows) ([]*domain.Payout, error) {
	var result []*domain.Payout
	for rows.Next() {
		var (
			p             domain.Payout
			trader        string
			score, amount pgtype.Numeric
		)
		err := rows.Scan(
			&p.PayoutID, &p.RunID, &p.Position, &trader, &p.Destination,
			&score, &amount, &p.DistributedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan payout row: %w", err)
		}
		p.Trader = domain.Pubkey(trader)
		if p.Score, err = uint64FromNumeric(score); err != nil {
			return nil, fmt.Errorf("payout score: %w", err)
		}
		if p.Amount, err = uint64FromNumeric(amount); err != nil {
			return nil, fmt.Errorf("payout amount: %w", err)
		}
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payout rows: %w", err)
	}
	return result, nil
}
