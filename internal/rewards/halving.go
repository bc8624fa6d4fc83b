// Package rewards splits the halving-adjusted reward pool among the top of the
// leaderboard and gates payouts behind the emergency pause.
package rewards

import "t2e-leaderboard/internal/safemath"

const (
	// SecondsPerMonth is the length of a reward month (30 days).
	SecondsPerMonth int64 = 30 * 24 * 60 * 60
	// MonthsPerHalving is the number of months between two halvings.
	MonthsPerHalving int64 = 6
)

// HalvingPeriods returns how many halvings have happened by now.
func HalvingPeriods(now int64) int64 {
	epoch := now / SecondsPerMonth
	return epoch / MonthsPerHalving
}

// AdjustedPool returns pool / 2^HalvingPeriods(now). When the halving factor
// is not representable in 64 bits the adjusted pool is 1, never 0.
func AdjustedPool(pool uint64, now int64) uint64 {
	factor, ok := safemath.Pow2(HalvingPeriods(now))
	if !ok {
		return 1
	}
	return pool / factor
}
