package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"t2e-leaderboard/internal/domain"
	"t2e-leaderboard/internal/storage"
)

// TraderStatsStore implements storage.TraderStatsStore using PostgreSQL.
type TraderStatsStore struct {
	pool *Pool
}

// NewTraderStatsStore creates a new TraderStatsStore.
func NewTraderStatsStore(pool *Pool) *TraderStatsStore {
	return &TraderStatsStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TraderStatsStore = (*TraderStatsStore)(nil)

const traderStatsColumns = `
	trader, total_volume, average_execution_time, trade_count,
	pnl, staked_amount, fee_discount, last_trade
`

// Insert adds a new record. Returns ErrDuplicateKey if the trader exists.
func (s *TraderStatsStore) Insert(ctx context.Context, st *domain.TraderStats) error {
	query := `INSERT INTO trader_stats (` + traderStatsColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.pool.Exec(ctx, query,
		string(st.Trader),
		numericFromUint64(st.TotalVolume),
		numericFromUint64(st.AverageExecutionTime),
		numericFromUint64(st.TradeCount),
		st.PnL,
		numericFromUint64(st.StakedAmount),
		int16(st.FeeDiscount),
		st.LastTrade,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trader stats: %w", err)
	}
	return nil
}

// Get retrieves the record of a trader. Returns ErrNotFound if not exists.
func (s *TraderStatsStore) Get(ctx context.Context, trader domain.Pubkey) (*domain.TraderStats, error) {
	query := `SELECT ` + traderStatsColumns + ` FROM trader_stats WHERE trader = $1`

	st, err := scanTraderStats(s.pool.QueryRow(ctx, query, string(trader)))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trader stats: %w", err)
	}
	return st, nil
}

// Update overwrites an existing record. Returns ErrNotFound if not exists.
func (s *TraderStatsStore) Update(ctx context.Context, st *domain.TraderStats) error {
	query := `
		UPDATE trader_stats SET
			total_volume = $2,
			average_execution_time = $3,
			trade_count = $4,
			pnl = $5,
			staked_amount = $6,
			fee_discount = $7,
			last_trade = $8,
			updated_at = now()
		WHERE trader = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		string(st.Trader),
		numericFromUint64(st.TotalVolume),
		numericFromUint64(st.AverageExecutionTime),
		numericFromUint64(st.TradeCount),
		st.PnL,
		numericFromUint64(st.StakedAmount),
		int16(st.FeeDiscount),
		st.LastTrade,
	)
	if err != nil {
		return fmt.Errorf("update trader stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// List retrieves all records ordered by trader ASC.
func (s *TraderStatsStore) List(ctx context.Context) ([]*domain.TraderStats, error) {
	query := `SELECT ` + traderStatsColumns + ` FROM trader_stats ORDER BY trader ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list trader stats: %w", err)
	}
	defer rows.Close()

	var result []*domain.TraderStats
	for rows.Next() {
		st, err := scanTraderStats(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trader stats row: %w", err)
		}
		result = append(result, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trader stats rows: %w", err)
	}
	return result, nil
}

// scanTraderStats scans one row in traderStatsColumns order.
func scanTraderStats(row pgx.Row) (*domain.TraderStats, error) {
	var (
		trader                     string
		volume, avg, count, staked pgtype.Numeric
		st                         domain.TraderStats
		feeDiscount                int16
	)

	err := row.Scan(&trader, &volume, &avg, &count, &st.PnL, &staked, &feeDiscount, &st.LastTrade)
	if err != nil {
		return nil, err
	}

	st.Trader = domain.Pubkey(trader)
	st.FeeDiscount = uint8(feeDiscount)
	for _, f := range []struct {
		src pgtype.Numeric
		dst *uint64
	}{
		{volume, &st.TotalVolume},
		{avg, &st.AverageExecutionTime},
		{count, &st.TradeCount},
		{staked, &st.StakedAmount},
	} {
		v, err := uint64FromNumeric(f.src)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	return &st, nil
}
