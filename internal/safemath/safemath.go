// Package safemath provides the two numeric policies of the engine.
//
// Checked helpers return domain.ErrOverflow and are used wherever a wrap must
// abort the operation (trade aggregation, staking, reward totals).
// Saturating helpers clamp to zero and are used only by score computation,
// where one bad entry must not abort a whole ranking batch. Keep them apart:
// switching the scoring path to checked arithmetic changes rankings.
package safemath

import (
	"math/bits"

	"github.com/holiman/uint256"

	"t2e-leaderboard/internal/domain"
)

// AddUint64 returns a+b or ErrOverflow.
func AddUint64(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, domain.ErrOverflow
	}
	return sum, nil
}

// MulUint64 returns a*b or ErrOverflow.
func MulUint64(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, domain.ErrOverflow
	}
	return lo, nil
}

// DivUint64 returns floor(a/b) or ErrOverflow when b is zero.
func DivUint64(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, domain.ErrOverflow
	}
	return a / b, nil
}

// AddInt64 returns a+b or ErrOverflow.
func AddInt64(a, b int64) (int64, error) {
	sum := a + b
	// Overflow iff both operands share a sign that the result does not.
	if (a >= 0) == (b >= 0) && (sum >= 0) != (a >= 0) {
		return 0, domain.ErrOverflow
	}
	return sum, nil
}

// ZeroOnOverflowAdd returns a+b, or 0 if the sum wraps.
func ZeroOnOverflowAdd(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0
	}
	return sum
}

// ZeroOnOverflowDiv returns floor(a/b), or 0 if b is zero.
func ZeroOnOverflowDiv(a, b uint64) uint64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// MulDiv returns floor(x*y/d) computed with a 256-bit intermediate, so the
// product never overflows. It fails with ErrOverflow if d is zero or the
// quotient does not fit in 64 bits.
func MulDiv(x, y, d uint64) (uint64, error) {
	if d == 0 {
		return 0, domain.ErrOverflow
	}
	z, overflow := new(uint256.Int).MulDivOverflow(
		uint256.NewInt(x), uint256.NewInt(y), uint256.NewInt(d),
	)
	if overflow || !z.IsUint64() {
		return 0, domain.ErrOverflow
	}
	return z.Uint64(), nil
}

// Pow2 returns 2^n and whether it is representable in 64 bits.
func Pow2(n int64) (uint64, bool) {
	if n < 0 || n >= 64 {
		return 0, false
	}
	return uint64(1) << uint(n), true
}

// NonNegative reinterprets a signed value as unsigned, mapping negatives to 0.
func NonNegative(v int64) uint64 {
	if v <= 0 {
		return 0
	}
	return uint64(v)
}

// MinUint64 returns the smaller operand.
func MinUint64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
