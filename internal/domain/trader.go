package domain

// MaxFeeDiscount is the upper bound of TraderStats.FeeDiscount (percent).
const MaxFeeDiscount = 50

// TraderStats holds the running statistics of one trader.
// Only that trader's own trade, staking and discount operations mutate it.
type TraderStats struct {
	Trader               Pubkey // unique key
	TotalVolume          uint64 // cumulative, non-decreasing
	AverageExecutionTime uint64 // floor-divided running mean of accepted trades
	TradeCount           uint64 // number of accepted trades
	PnL                  int64  // cumulative profit/loss
	StakedAmount         uint64 // changed by staking only
	FeeDiscount          uint8  // percent, [0, MaxFeeDiscount], derived from StakedAmount
	LastTrade            int64  // unix seconds of the last accepted trade
}

// NewTraderStats returns a zeroed record for a freshly registered trader.
func NewTraderStats(trader Pubkey) *TraderStats {
	return &TraderStats{Trader: trader}
}

// Clone returns a copy that can be mutated without touching the original.
func (s *TraderStats) Clone() *TraderStats {
	c := *s
	return &c
}

// Input projects the record into the ranking input shape.
func (s *TraderStats) Input() StatsInput {
	return StatsInput{
		Trader:               s.Trader,
		TotalVolume:          s.TotalVolume,
		AverageExecutionTime: s.AverageExecutionTime,
		PnL:                  s.PnL,
		StakedAmount:         s.StakedAmount,
	}
}

// StatsInput is one entry of the batch consumed by a ranking update.
type StatsInput struct {
	Trader               Pubkey `json:"trader"`
	TotalVolume          uint64 `json:"total_volume"`
	AverageExecutionTime uint64 `json:"average_execution_time"`
	PnL                  int64  `json:"pnl"`
	StakedAmount         uint64 `json:"staked_amount"`
}
