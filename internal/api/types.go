package api

import (
	"t2e-leaderboard/internal/domain"
	"t2e-leaderboard/internal/engine"
	"t2e-leaderboard/internal/history"
)

type traderStatsResponse struct {
	Trader               domain.Pubkey `json:"trader"`
	TotalVolume          uint64        `json:"total_volume"`
	AverageExecutionTime uint64        `json:"average_execution_time"`
	TradeCount           uint64        `json:"trade_count"`
	PnL                  int64         `json:"pnl"`
	StakedAmount         uint64        `json:"staked_amount"`
	FeeDiscount          uint8         `json:"fee_discount"`
	LastTrade            int64         `json:"last_trade"`
}

func toTraderStats(s domain.TraderStats) traderStatsResponse {
	return traderStatsResponse{
		Trader:               s.Trader,
		TotalVolume:          s.TotalVolume,
		AverageExecutionTime: s.AverageExecutionTime,
		TradeCount:           s.TradeCount,
		PnL:                  s.PnL,
		StakedAmount:         s.StakedAmount,
		FeeDiscount:          s.FeeDiscount,
		LastTrade:            s.LastTrade,
	}
}

type rankedEntry struct {
	Rank   int           `json:"rank"` // 1-based
	Trader domain.Pubkey `json:"trader"`
	Score  uint64        `json:"score"`
}

func toRanked(entries []domain.RankedTrader) []rankedEntry {
	out := make([]rankedEntry, len(entries))
	for i, e := range entries {
		out[i] = rankedEntry{Rank: i + 1, Trader: e.Trader, Score: e.Score}
	}
	return out
}

type leaderboardResponse struct {
	Entries        []rankedEntry `json:"entries"`
	LastUpdate     int64         `json:"last_update"`
	EmergencyPause bool          `json:"emergency_pause"`
	Version        int64         `json:"version"`
}

func toLeaderboard(lb *domain.Leaderboard) leaderboardResponse {
	return leaderboardResponse{
		Entries:        toRanked(lb.Entries()),
		LastUpdate:     lb.LastUpdate,
		EmergencyPause: lb.EmergencyPause,
		Version:        lb.Version,
	}
}

type snapshotResponse struct {
	Seq       int64           `json:"seq"`
	Timestamp int64           `json:"timestamp"`
	Traders   []domain.Pubkey `json:"traders"`
}

func toSnapshot(s domain.Snapshot) snapshotResponse {
	return snapshotResponse{Seq: s.Seq, Timestamp: s.Timestamp, Traders: s.Traders}
}

type movementResponse struct {
	Trader   domain.Pubkey `json:"trader"`
	Previous int           `json:"previous"` // -1 for new entries
	Current  int           `json:"current"`
	Delta    int           `json:"delta"`
}

func toMovements(ms []history.Movement) []movementResponse {
	out := make([]movementResponse, len(ms))
	for i, m := range ms {
		out[i] = movementResponse{Trader: m.Trader, Previous: m.Previous, Current: m.Current, Delta: m.Delta()}
	}
	return out
}

// PayoutResponse is one executed transfer of a distribution run.
type PayoutResponse struct {
	PayoutID      string        `json:"payout_id"`
	RunID         string        `json:"run_id"`
	Position      int           `json:"position"`
	Trader        domain.Pubkey `json:"trader"`
	Destination   string        `json:"destination"`
	Score         uint64        `json:"score"`
	Amount        uint64        `json:"amount"`
	DistributedAt int64         `json:"distributed_at"`
}

func toPayouts(ps []*domain.Payout) []PayoutResponse {
	out := make([]PayoutResponse, len(ps))
	for i, p := range ps {
		out[i] = PayoutResponse{
			PayoutID:      p.PayoutID,
			RunID:         p.RunID,
			Position:      p.Position,
			Trader:        p.Trader,
			Destination:   p.Destination,
			Score:         p.Score,
			Amount:        p.Amount,
			DistributedAt: p.DistributedAt,
		}
	}
	return out
}

// DistributionResponse is the outcome of a distribution run. Error is set
// when the run stopped after some transfers went through.
type DistributionResponse struct {
	RunID        string           `json:"run_id"`
	RewardPool   uint64           `json:"reward_pool"`
	AdjustedPool uint64           `json:"adjusted_pool"`
	TotalScore   uint64           `json:"total_score"`
	Planned      int              `json:"planned"`
	Payouts      []PayoutResponse `json:"payouts"`
	Error        string           `json:"error,omitempty"`
}

func toDistribution(d *engine.Distribution) DistributionResponse {
	return DistributionResponse{
		RunID:        d.RunID,
		RewardPool:   d.Plan.RewardPool,
		AdjustedPool: d.Plan.AdjustedPool,
		TotalScore:   d.Plan.TotalScore,
		Planned:      len(d.Plan.Allocations),
		Payouts:      toPayouts(d.Payouts),
	}
}

type tradeRequest struct {
	Volume        uint64 `json:"volume"`
	ExecutionTime uint64 `json:"execution_time"`
	PnL           int64  `json:"pnl"`
	Signature     string `json:"signature"`
}

type stakeRequest struct {
	Amount uint64 `json:"amount"`
}

type updateRequest struct {
	Batch []domain.StatsInput `json:"batch"`
}

type pauseRequest struct {
	Paused *bool `json:"paused" binding:"required"`
}

type distributeRequest struct {
	TopN int    `json:"top_n"`
	Pool uint64 `json:"pool"`
}
