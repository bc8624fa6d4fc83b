package rewards

import (
	"fmt"

	"t2e-leaderboard/internal/domain"
	"t2e-leaderboard/internal/safemath"
)

// Allocation is the reward computed for one ranked trader.
type Allocation struct {
	Position int // zero-based rank
	Trader   domain.Pubkey
	Score    uint64
	Amount   uint64
}

// Plan is the full split of one distribution, before any transfer.
type Plan struct {
	RewardPool   uint64
	AdjustedPool uint64
	TotalScore   uint64
	Allocations  []Allocation
}

// Distributed returns the sum of all allocated amounts. It never exceeds
// AdjustedPool; the floor-division remainder stays in the pool.
func (p *Plan) Distributed() uint64 {
	var sum uint64
	for _, a := range p.Allocations {
		sum += a.Amount
	}
	return sum
}

// NewPlan splits the halving-adjusted pool among the first topN traders of lb
// in proportion to their scores.
func NewPlan(lb *domain.Leaderboard, topN int, pool uint64, now int64) (*Plan, error) {
	if lb.EmergencyPause {
		return nil, domain.ErrEmergencyPaused
	}

	adjusted := AdjustedPool(pool, now)

	n := lb.Len()
	if topN < n {
		n = max(topN, 0)
	}

	var total uint64
	for i := 0; i < n; i++ {
		var err error
		total, err = safemath.AddUint64(total, lb.RankingScores[i])
		if err != nil {
			return nil, fmt.Errorf("total score: %w", err)
		}
	}
	if total == 0 {
		return nil, domain.ErrNoValidScores
	}

	allocs := make([]Allocation, n)
	for i := 0; i < n; i++ {
		score := lb.RankingScores[i]
		amount, err := safemath.MulDiv(score, adjusted, total)
		if err != nil {
			return nil, fmt.Errorf("reward for %s: %w", lb.Traders[i], err)
		}
		allocs[i] = Allocation{
			Position: i,
			Trader:   lb.Traders[i],
			Score:    score,
			Amount:   amount,
		}
	}

	return &Plan{
		RewardPool:   pool,
		AdjustedPool: adjusted,
		TotalScore:   total,
		Allocations:  allocs,
	}, nil
}
