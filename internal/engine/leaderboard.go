package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"t2e-leaderboard/internal/domain"
	"t2e-leaderboard/internal/history"
	"t2e-leaderboard/internal/ranking"
	"t2e-leaderboard/internal/rewards"
)

// InitializeLeaderboard creates the empty, unpaused leaderboard stamped with
// the current time. The first ranking update is therefore accepted only
// ranking.MinUpdateInterval seconds later.
func (e *Engine) InitializeLeaderboard(ctx context.Context) (_ *domain.Leaderboard, err error) {
	start := time.Now()
	defer func() { e.observe("initialize_leaderboard", start, err) }()

	if err := e.auth.AuthorizeAdmin(ctx); err != nil {
		return nil, err
	}

	e.boardMu.Lock()
	defer e.boardMu.Unlock()

	lb := domain.NewLeaderboard(e.clock.Now())
	if err := e.board.Create(ctx, lb); err != nil {
		return nil, fmt.Errorf("initialize leaderboard: %w", err)
	}
	e.metrics.SetLeaderboard(lb)
	e.logger.Info("leaderboard initialized", zap.Int64("last_update", lb.LastUpdate))
	return lb, nil
}

// UpdateLeaderboard ranks batch and replaces the leaderboard order with the
// result. Anyone may call it; the update interval gate bounds the rate.
func (e *Engine) UpdateLeaderboard(ctx context.Context, batch []domain.StatsInput) (_ []domain.RankedTrader, err error) {
	start := time.Now()
	defer func() { e.observe("update_leaderboard", start, err, zap.Int("batch", len(batch))) }()

	e.boardMu.Lock()
	defer e.boardMu.Unlock()

	return e.updateLocked(ctx, batch)
}

// RefreshLeaderboard ranks every registered trader, in trader order.
func (e *Engine) RefreshLeaderboard(ctx context.Context) (_ []domain.RankedTrader, err error) {
	start := time.Now()
	defer func() { e.observe("refresh_leaderboard", start, err) }()

	e.boardMu.Lock()
	defer e.boardMu.Unlock()

	all, err := e.traders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list trader stats: %w", err)
	}
	batch := make([]domain.StatsInput, len(all))
	for i, s := range all {
		batch[i] = s.Input()
	}
	return e.updateLocked(ctx, batch)
}

func (e *Engine) updateLocked(ctx context.Context, batch []domain.StatsInput) ([]domain.RankedTrader, error) {
	cur, err := e.board.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}

	next := cur.Clone()
	ranked, err := ranking.UpdateLeaderboard(next, batch, e.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := e.board.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("save leaderboard: %w", err)
	}

	e.metrics.SetLeaderboard(next)
	e.logger.Info("leaderboard updated",
		zap.Int("traders", next.Len()),
		zap.Int64("version", next.Version))
	return ranked, nil
}

// SetEmergencyPause sets the reward circuit breaker.
func (e *Engine) SetEmergencyPause(ctx context.Context, paused bool) (_ *domain.Leaderboard, err error) {
	start := time.Now()
	defer func() { e.observe("set_emergency_pause", start, err, zap.Bool("paused", paused)) }()

	if err := e.auth.AuthorizeAdmin(ctx); err != nil {
		return nil, err
	}

	e.boardMu.Lock()
	defer e.boardMu.Unlock()

	cur, err := e.board.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}

	next := cur.Clone()
	rewards.SetEmergencyPause(next, paused)
	if err := e.board.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("save leaderboard: %w", err)
	}

	e.metrics.SetLeaderboard(next)
	e.logger.Warn("emergency pause changed", zap.Bool("paused", paused))
	return next, nil
}

// SnapshotLeaderboard appends the current ranking order to the history.
func (e *Engine) SnapshotLeaderboard(ctx context.Context) (_ domain.Snapshot, err error) {
	start := time.Now()
	defer func() { e.observe("snapshot_leaderboard", start, err) }()

	if err := e.auth.AuthorizeAdmin(ctx); err != nil {
		return domain.Snapshot{}, err
	}

	e.boardMu.Lock()
	defer e.boardMu.Unlock()

	lb, err := e.board.Get(ctx)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load leaderboard: %w", err)
	}

	snap := history.Take(lb, e.clock.Now())
	if err := e.history.Append(ctx, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("append snapshot: %w", err)
	}

	e.metrics.SnapshotTaken()
	e.logger.Info("leaderboard snapshot taken",
		zap.Int64("seq", snap.Seq),
		zap.Int("traders", len(snap.Traders)))
	return snap, nil
}
