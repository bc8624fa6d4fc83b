package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"t2e-leaderboard/internal/domain"
	"t2e-leaderboard/internal/staking"
	"t2e-leaderboard/internal/stats"
)

// RegisterTrader creates the zeroed statistics record of trader.
// Fails with storage.ErrDuplicateKey if it already exists.
func (e *Engine) RegisterTrader(ctx context.Context, trader domain.Pubkey) (_ domain.TraderStats, err error) {
	start := time.Now()
	defer func() { e.observe("register_trader", start, err, zap.String("trader", string(trader))) }()

	if _, err := domain.ParsePubkey(string(trader)); err != nil {
		return domain.TraderStats{}, err
	}
	if err := e.auth.AuthorizeTrader(ctx, trader); err != nil {
		return domain.TraderStats{}, err
	}

	unlock := e.lockTrader(trader)
	defer unlock()

	s := domain.NewTraderStats(trader)
	if err := e.traders.Insert(ctx, s); err != nil {
		return domain.TraderStats{}, fmt.Errorf("register %s: %w", trader, err)
	}
	return *s, nil
}

// RecordTrade applies one trade to the statistics of ev.Trader.
func (e *Engine) RecordTrade(ctx context.Context, ev domain.TradeEvent) (_ domain.TraderStats, err error) {
	start := time.Now()
	defer func() {
		e.observe("record_trade", start, err,
			zap.String("trader", string(ev.Trader)), zap.String("source", ev.Source))
	}()

	if err := e.auth.AuthorizeTrader(ctx, ev.Trader); err != nil {
		return domain.TraderStats{}, err
	}

	unlock := e.lockTrader(ev.Trader)
	defer unlock()

	cur, err := e.traders.Get(ctx, ev.Trader)
	if err != nil {
		return domain.TraderStats{}, fmt.Errorf("load %s: %w", ev.Trader, err)
	}

	next := cur.Clone()
	if err := stats.Apply(next, &ev, e.clock.Now()); err != nil {
		return domain.TraderStats{}, fmt.Errorf("record trade for %s: %w", ev.Trader, err)
	}
	if err := e.traders.Update(ctx, next); err != nil {
		return domain.TraderStats{}, fmt.Errorf("save %s: %w", ev.Trader, err)
	}
	return *next, nil
}

// StakeTokens moves amount from the trader's wallet into the stake vault and
// adds it to the trader's stake.
func (e *Engine) StakeTokens(ctx context.Context, trader domain.Pubkey, amount uint64) (_ domain.TraderStats, err error) {
	start := time.Now()
	defer func() {
		e.observe("stake_tokens", start, err,
			zap.String("trader", string(trader)), zap.Uint64("amount", amount))
	}()

	if err := e.auth.AuthorizeTrader(ctx, trader); err != nil {
		return domain.TraderStats{}, err
	}

	unlock := e.lockTrader(trader)
	defer unlock()

	cur, err := e.traders.Get(ctx, trader)
	if err != nil {
		return domain.TraderStats{}, fmt.Errorf("load %s: %w", trader, err)
	}

	next := cur.Clone()
	transfer := func(ctx context.Context, amount uint64) error {
		return e.transferrer.Transfer(ctx, string(trader), e.stakeVault, amount)
	}
	if err := staking.Stake(ctx, next, amount, transfer); err != nil {
		return domain.TraderStats{}, fmt.Errorf("stake for %s: %w", trader, err)
	}

	if err := e.traders.Update(ctx, next); err != nil {
		// The transfer already happened; the stored stake is now behind.
		e.logger.Error("stake transferred but not recorded",
			zap.String("trader", string(trader)),
			zap.Uint64("amount", amount),
			zap.Error(err))
		return domain.TraderStats{}, fmt.Errorf("save %s: %w", trader, err)
	}
	return *next, nil
}

// CalculateFeeDiscount recomputes and stores the fee discount of trader.
func (e *Engine) CalculateFeeDiscount(ctx context.Context, trader domain.Pubkey) (_ uint8, err error) {
	start := time.Now()
	defer func() { e.observe("calculate_fee_discount", start, err, zap.String("trader", string(trader))) }()

	if err := e.auth.AuthorizeTrader(ctx, trader); err != nil {
		return 0, err
	}

	unlock := e.lockTrader(trader)
	defer unlock()

	cur, err := e.traders.Get(ctx, trader)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", trader, err)
	}

	next := cur.Clone()
	staking.CalculateFeeDiscount(next)
	if next.FeeDiscount == cur.FeeDiscount {
		return next.FeeDiscount, nil
	}
	if err := e.traders.Update(ctx, next); err != nil {
		return 0, fmt.Errorf("save %s: %w", trader, err)
	}
	return next.FeeDiscount, nil
}
