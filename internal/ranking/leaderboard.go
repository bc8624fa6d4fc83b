package ranking

import (
	"fmt"

	"t2e-leaderboard/internal/domain"
)

// MinUpdateInterval is the minimum number of seconds between two
// leaderboard recomputations.
const MinUpdateInterval int64 = 600

// CanUpdate reports whether enough time has passed since lb.LastUpdate.
func CanUpdate(lb *domain.Leaderboard, now int64) bool {
	return now-lb.LastUpdate >= MinUpdateInterval
}

// UpdateLeaderboard replaces the ranking of lb with the ranking of batch and
// stamps it at now. The batch is authoritative: traders absent from it drop
// off the board. On ErrUpdateTooSoon lb is left untouched.
func UpdateLeaderboard(lb *domain.Leaderboard, batch []domain.StatsInput, now int64) ([]domain.RankedTrader, error) {
	if !CanUpdate(lb, now) {
		return nil, fmt.Errorf("last update %d, now %d: %w", lb.LastUpdate, now, domain.ErrUpdateTooSoon)
	}

	ranked := Rank(batch)
	traders := make([]domain.Pubkey, len(ranked))
	scores := make([]uint64, len(ranked))
	for i, r := range ranked {
		traders[i] = r.Trader
		scores[i] = r.Score
	}

	lb.Traders = traders
	lb.RankingScores = scores
	lb.LastUpdate = now
	return ranked, nil
}
