package engine

import (
	"context"
	"errors"
	"fmt"

	"t2e-leaderboard/internal/domain"
	"t2e-leaderboard/internal/history"
	"t2e-leaderboard/internal/storage"
)

// Leaderboard returns the current leaderboard.
func (e *Engine) Leaderboard(ctx context.Context) (*domain.Leaderboard, error) {
	return e.board.Get(ctx)
}

// TraderStats returns the statistics of trader.
func (e *Engine) TraderStats(ctx context.Context, trader domain.Pubkey) (*domain.TraderStats, error) {
	return e.traders.Get(ctx, trader)
}

// ListTraderStats returns every trader record ordered by trader.
func (e *Engine) ListTraderStats(ctx context.Context) ([]*domain.TraderStats, error) {
	return e.traders.List(ctx)
}

// History returns snapshots taken within [from, to]. A zero to means now.
func (e *Engine) History(ctx context.Context, from, to int64) ([]domain.Snapshot, error) {
	if to == 0 {
		to = e.clock.Now()
	}
	return e.history.GetByTimeRange(ctx, from, to)
}

// Movements compares the current leaderboard with the latest snapshot.
// With no snapshot yet, every trader is reported as new.
func (e *Engine) Movements(ctx context.Context) ([]history.Movement, error) {
	lb, err := e.board.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}

	var prev domain.Snapshot
	latest, err := e.history.Latest(ctx)
	switch {
	case err == nil:
		prev = *latest
	case !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("load latest snapshot: %w", err)
	}

	return history.Compare(prev, history.Take(lb, e.clock.Now())), nil
}

// RunPayouts returns the payout log of one distribution run.
func (e *Engine) RunPayouts(ctx context.Context, runID string) ([]*domain.Payout, error) {
	if e.payouts == nil {
		return nil, storage.ErrNotFound
	}
	return e.payouts.GetByRun(ctx, runID)
}

// TraderPayouts returns every payout received by trader.
func (e *Engine) TraderPayouts(ctx context.Context, trader domain.Pubkey) ([]*domain.Payout, error) {
	if e.payouts == nil {
		return nil, storage.ErrNotFound
	}
	return e.payouts.GetByTrader(ctx, trader)
}
