package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"t2e-leaderboard/internal/domain"
	"t2e-leaderboard/internal/idhash"
	"t2e-leaderboard/internal/rewards"
)

// Distribution is the outcome of one reward run.
type Distribution struct {
	RunID   string
	Plan    *rewards.Plan
	Payouts []*domain.Payout // executed transfers, in rank order
}

// DistributeRewards pays the halving-adjusted pool to the first topN ranked
// traders in proportion to their scores.
//
// Every destination is resolved before the first transfer. If a transfer
// fails, the returned Distribution lists the payouts that already went
// through and the error is returned alongside it. Executed payouts are
// appended to the payout log in both cases.
func (e *Engine) DistributeRewards(ctx context.Context, topN int, pool uint64) (_ *Distribution, err error) {
	start := time.Now()
	runID := e.newRunID()
	defer func() {
		e.observe("distribute_rewards", start, err,
			zap.String("run_id", runID), zap.Int("top_n", topN), zap.Uint64("pool", pool))
	}()

	if err := e.auth.AuthorizeAdmin(ctx); err != nil {
		return nil, err
	}
	if topN < 0 {
		return nil, fmt.Errorf("top_n %d: must not be negative", topN)
	}

	e.boardMu.Lock()
	defer e.boardMu.Unlock()

	lb, err := e.board.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}

	now := e.clock.Now()
	res, runErr := e.distributor.Distribute(ctx, lb, topN, pool, now)
	if res == nil {
		e.metrics.RecordDistribution(0, nil, runErr)
		return nil, runErr
	}

	dist := &Distribution{
		RunID:   runID,
		Plan:    res.Plan,
		Payouts: make([]*domain.Payout, len(res.Transfers)),
	}
	amounts := make([]uint64, len(res.Transfers))
	for i, t := range res.Transfers {
		dist.Payouts[i] = &domain.Payout{
			PayoutID:      idhash.ComputePayoutID(runID, t.Position, t.Trader),
			RunID:         runID,
			Position:      t.Position,
			Trader:        t.Trader,
			Destination:   t.Destination,
			Score:         t.Score,
			Amount:        t.Amount,
			DistributedAt: now,
		}
		amounts[i] = t.Amount
	}
	e.metrics.RecordDistribution(res.Plan.AdjustedPool, amounts, runErr)

	if runErr != nil {
		e.logger.Error("distribution aborted after partial payout",
			zap.String("run_id", runID),
			zap.Int("completed", len(res.Transfers)),
			zap.Int("planned", len(res.Plan.Allocations)),
			zap.Error(runErr))
	}

	var logErr error
	if e.payouts != nil && len(dist.Payouts) > 0 {
		if logErr = e.payouts.InsertBulk(ctx, dist.Payouts); logErr != nil {
			logErr = fmt.Errorf("record payouts of run %s: %w", runID, logErr)
			e.logger.Error("payout log write failed", zap.String("run_id", runID), zap.Error(logErr))
		}
	}

	if runErr == nil && logErr == nil {
		e.logger.Info("rewards distributed",
			zap.String("run_id", runID),
			zap.Uint64("adjusted_pool", res.Plan.AdjustedPool),
			zap.Uint64("distributed", res.Plan.Distributed()),
			zap.Int("payouts", len(dist.Payouts)))
	}
	return dist, errors.Join(runErr, logErr)
}
