package reporting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"t2e-leaderboard/internal/domain"
	"t2e-leaderboard/internal/history"
	"t2e-leaderboard/internal/storage"
)

// Generator produces reports from stored data.
type Generator struct {
	traderStore  storage.TraderStatsStore
	boardStore   storage.LeaderboardStore
	historyStore storage.HistoryStore
	payoutStore  storage.PayoutStore // optional
	now          func() time.Time    // injectable clock for deterministic output
}

// NewGenerator creates a new report generator. payouts may be nil.
func NewGenerator(
	traders storage.TraderStatsStore,
	board storage.LeaderboardStore,
	hist storage.HistoryStore,
	payouts storage.PayoutStore,
) *Generator {
	return &Generator{
		traderStore:  traders,
		boardStore:   board,
		historyStore: hist,
		payoutStore:  payouts,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds a report. A non-empty runID adds that run's payouts.
func (g *Generator) Generate(ctx context.Context, runID string) (*Report, error) {
	lb, err := g.boardStore.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}

	all, err := g.traderStore.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list trader stats: %w", err)
	}
	byTrader := make(map[domain.Pubkey]*domain.TraderStats, len(all))
	for _, s := range all {
		byTrader[s.Trader] = s
	}

	snaps, err := g.historyStore.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	now := g.now()
	r := &Report{
		GeneratedAt: now,
		Summary:     summarize(lb, all, snaps),
		Standings:   standings(lb, byTrader, snaps, now.Unix()),
		RunID:       runID,
	}

	if runID != "" {
		if r.Payouts, err = g.payoutRows(ctx, runID); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func summarize(lb *domain.Leaderboard, all []*domain.TraderStats, snaps []domain.Snapshot) Summary {
	s := Summary{
		RegisteredTraders: len(all),
		RankedTraders:     lb.Len(),
		TotalVolume:       decimal.Zero,
		TotalStaked:       decimal.Zero,
		LastUpdate:        lb.LastUpdate,
		EmergencyPause:    lb.EmergencyPause,
		Version:           lb.Version,
		Snapshots:         len(snaps),
	}
	for _, t := range all {
		s.TotalVolume = s.TotalVolume.Add(toDecimal(t.TotalVolume))
		s.TotalStaked = s.TotalStaked.Add(toDecimal(t.StakedAmount))
	}
	if n := len(snaps); n > 0 {
		s.LatestSnapshot = snaps[n-1].Timestamp
	}
	return s
}

// standings joins the leaderboard order with trader stats and the movement
// since the latest snapshot. Ranked traders without a stats record keep zero
// stats.
func standings(lb *domain.Leaderboard, byTrader map[domain.Pubkey]*domain.TraderStats, snaps []domain.Snapshot, now int64) []StandingRow {
	var prev domain.Snapshot
	if n := len(snaps); n > 0 {
		prev = snaps[n-1]
	}
	cur := domain.Snapshot{Timestamp: now, Traders: lb.Traders}
	moves := history.Compare(prev, cur)

	rows := make([]StandingRow, lb.Len())
	for i, e := range lb.Entries() {
		row := StandingRow{
			Rank:   i + 1,
			Trader: e.Trader,
			Score:  e.Score,
			Delta:  moves[i].Delta(),
			New:    len(snaps) > 0 && moves[i].Previous < 0,
		}
		if st, ok := byTrader[e.Trader]; ok {
			row.TotalVolume = st.TotalVolume
			row.TradeCount = st.TradeCount
			row.PnL = st.PnL
			row.StakedAmount = st.StakedAmount
			row.FeeDiscount = st.FeeDiscount
		}
		rows[i] = row
	}
	return rows
}

func (g *Generator) payoutRows(ctx context.Context, runID string) ([]PayoutRow, error) {
	if g.payoutStore == nil {
		return nil, errors.New("payout log is not configured")
	}
	payouts, err := g.payoutStore.GetByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load payouts of run %s: %w", runID, err)
	}
	if len(payouts) == 0 {
		return nil, fmt.Errorf("run %s: %w", runID, storage.ErrNotFound)
	}

	total := decimal.Zero
	for _, p := range payouts {
		total = total.Add(toDecimal(p.Amount))
	}

	rows := make([]PayoutRow, len(payouts))
	for i, p := range payouts {
		share := decimal.Zero
		if !total.IsZero() {
			share = toDecimal(p.Amount).Mul(decimal.NewFromInt(100)).Div(total)
		}
		rows[i] = PayoutRow{
			Position:    p.Position,
			Trader:      p.Trader,
			Destination: p.Destination,
			Score:       p.Score,
			Amount:      p.Amount,
			Share:       share,
		}
	}
	return rows, nil
}
