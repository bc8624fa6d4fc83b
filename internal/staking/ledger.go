// Package staking tracks staked balances and the fee discount derived from them.
package staking

import (
	"context"
	"fmt"

	"t2e-leaderboard/internal/domain"
	"t2e-leaderboard/internal/safemath"
)

// StakePerDiscountPoint is the stake needed for one percent of fee discount.
const StakePerDiscountPoint uint64 = 200

// TransferFunc moves amount from the trader's balance into the staking pool.
type TransferFunc func(ctx context.Context, amount uint64) error

// Stake moves amount into the staking pool and credits it to s.
//
// The new balance is computed before the transfer is requested, so an
// overflow never moves tokens. A failed transfer leaves s untouched.
func Stake(ctx context.Context, s *domain.TraderStats, amount uint64, transfer TransferFunc) error {
	staked, err := safemath.AddUint64(s.StakedAmount, amount)
	if err != nil {
		return fmt.Errorf("staked amount: %w", err)
	}

	if err := transfer(ctx, amount); err != nil {
		return fmt.Errorf("stake transfer: %w", err)
	}

	s.StakedAmount = staked
	return nil
}

// FeeDiscount returns min(staked/200, 50). The division happens in 64 bits,
// so very large stakes clamp to the maximum instead of wrapping.
func FeeDiscount(staked uint64) uint8 {
	return uint8(safemath.MinUint64(staked/StakePerDiscountPoint, domain.MaxFeeDiscount))
}

// CalculateFeeDiscount overwrites s.FeeDiscount from s.StakedAmount.
// It is idempotent.
func CalculateFeeDiscount(s *domain.TraderStats) {
	s.FeeDiscount = FeeDiscount(s.StakedAmount)
}
