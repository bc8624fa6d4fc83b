// Package stats applies trade events to per-trader running statistics.
package stats

import (
	"fmt"

	"t2e-leaderboard/internal/domain"
	"t2e-leaderboard/internal/safemath"
)

// MinTradeInterval is the minimum gap in seconds between two accepted trades
// of the same trader. The first trade of a trader is never gated.
const MinTradeInterval int64 = 10

// RecordTrade applies one trade to s.
//
// Every new field value is computed with checked arithmetic before any of
// them is written, so a failure (ErrTradeSpamDetected or ErrOverflow) leaves
// s exactly as it was.
func RecordTrade(s *domain.TraderStats, volume, executionTime uint64, pnl int64, now int64) error {
	if s.TradeCount > 0 && now-s.LastTrade < MinTradeInterval {
		return domain.ErrTradeSpamDetected
	}

	totalVolume, err := safemath.AddUint64(s.TotalVolume, volume)
	if err != nil {
		return fmt.Errorf("total volume: %w", err)
	}

	count, err := safemath.AddUint64(s.TradeCount, 1)
	if err != nil {
		return fmt.Errorf("trade count: %w", err)
	}

	avg, err := nextAverage(s.AverageExecutionTime, s.TradeCount, executionTime, count)
	if err != nil {
		return fmt.Errorf("average execution time: %w", err)
	}

	newPnL, err := safemath.AddInt64(s.PnL, pnl)
	if err != nil {
		return fmt.Errorf("pnl: %w", err)
	}

	s.TotalVolume = totalVolume
	s.AverageExecutionTime = avg
	s.TradeCount = count
	s.PnL = newPnL
	s.LastTrade = now
	return nil
}

// Apply records ev on s using the event's fields.
func Apply(s *domain.TraderStats, ev *domain.TradeEvent, now int64) error {
	return RecordTrade(s, ev.Volume, ev.ExecutionTime, ev.PnL, now)
}

// nextAverage returns floor((avg*prevCount + sample) / count).
// Truncation is part of the contract: the stored mean is the exact
// floor-divided running mean, not an approximation of the real one.
func nextAverage(avg, prevCount, sample, count uint64) (uint64, error) {
	weighted, err := safemath.MulUint64(avg, prevCount)
	if err != nil {
		return 0, err
	}
	weighted, err = safemath.AddUint64(weighted, sample)
	if err != nil {
		return 0, err
	}
	return safemath.DivUint64(weighted, count)
}
