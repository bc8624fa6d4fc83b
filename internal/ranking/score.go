// Package ranking scores traders and rebuilds the leaderboard from a batch.
package ranking

import (
	"sort"

	"t2e-leaderboard/internal/domain"
	"t2e-leaderboard/internal/safemath"
)

// StakeBonusDivisor converts staked tokens into score points.
const StakeBonusDivisor uint64 = 1000

// Score computes the ranking score of one trader:
//
//	volume/(avg+1) + max(pnl, 0) + staked/1000
//
// Each addition collapses to 0 on overflow, and a later term is still added
// to that 0. A score is therefore only ever 0 or a sum of whole terms, never
// a wrapped value. Callers depend on this exact step-wise behaviour; do not
// replace it with a saturating add.
func Score(in domain.StatsInput) uint64 {
	var base uint64
	if denom, err := safemath.AddUint64(in.AverageExecutionTime, 1); err == nil {
		base = safemath.ZeroOnOverflowDiv(in.TotalVolume, denom)
	}
	pnl := safemath.NonNegative(in.PnL)
	bonus := in.StakedAmount / StakeBonusDivisor

	return safemath.ZeroOnOverflowAdd(safemath.ZeroOnOverflowAdd(base, pnl), bonus)
}

// Rank scores every input and orders the result by descending score.
// Equal scores keep their input order.
func Rank(batch []domain.StatsInput) []domain.RankedTrader {
	ranked := make([]domain.RankedTrader, len(batch))
	for i, in := range batch {
		ranked[i] = domain.RankedTrader{Trader: in.Trader, Score: Score(in)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
