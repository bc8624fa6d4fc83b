package reporting

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"t2e-leaderboard/internal/domain"
)

// Report is a point-in-time view of the leaderboard, its traders and
// optionally one distribution run.
type Report struct {
	GeneratedAt time.Time
	Summary     Summary

	// Standings follow the leaderboard order.
	Standings []StandingRow

	// RunID selects Payouts; empty when no run was requested.
	RunID   string
	Payouts []PayoutRow
}

// Summary contains board-level figures.
type Summary struct {
	RegisteredTraders int
	RankedTraders     int
	TotalVolume       decimal.Decimal // sum over registered traders
	TotalStaked       decimal.Decimal
	LastUpdate        int64 // unix seconds
	EmergencyPause    bool
	Version           int64
	Snapshots         int
	LatestSnapshot    int64 // unix seconds, 0 when no snapshot exists
}

// StandingRow is one ranked trader.
type StandingRow struct {
	Rank         int // 1-based
	Trader       domain.Pubkey
	Score        uint64
	TotalVolume  uint64
	TradeCount   uint64
	PnL          int64
	StakedAmount uint64
	FeeDiscount  uint8
	// Delta is the number of places gained since the latest snapshot.
	Delta int
	New   bool // absent from the latest snapshot
}

// PayoutRow is one transfer of a distribution run.
type PayoutRow struct {
	Position    int
	Trader      domain.Pubkey
	Destination string
	Score       uint64
	Amount      uint64
	Share       decimal.Decimal // percent of the run's paid total
}

// FormatAmount renders base units as a token amount with the given number of
// decimals, e.g. 1500000 with 6 decimals is "1.500000".
func FormatAmount(v uint64, decimals int32) string {
	return toDecimal(v).Shift(-decimals).StringFixed(decimals)
}

func toDecimal(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}
