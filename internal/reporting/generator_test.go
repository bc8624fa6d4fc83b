package reporting

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"t2e-leaderboard/internal/domain"
	"t2e-leaderboard/internal/storage"
	"t2e-leaderboard/internal/storage/memory"
)

const (
	traderA domain.Pubkey = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"
	traderB domain.Pubkey = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
	traderC domain.Pubkey = "So11111111111111111111111111111111111111112"
)

var fixedNow = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func setupGenerator(t *testing.T) *Generator {
	t.Helper()
	ctx := context.Background()

	traders := memory.NewTraderStatsStore()
	board := memory.NewLeaderboardStore()
	hist := memory.NewHistoryStore()
	payouts := memory.NewPayoutStore()

	for _, s := range []*domain.TraderStats{
		{Trader: traderA, TotalVolume: 3_000_000, TradeCount: 3, PnL: -5, StakedAmount: 2_000, FeeDiscount: 10},
		{Trader: traderB, TotalVolume: 5_000_000, TradeCount: 7, PnL: 40},
		{Trader: traderC, TotalVolume: 1_500_000, TradeCount: 1},
	} {
		if err := traders.Insert(ctx, s); err != nil {
			t.Fatalf("Insert trader failed: %v", err)
		}
	}

	lb := &domain.Leaderboard{
		Traders:       []domain.Pubkey{traderB, traderA, traderC},
		RankingScores: []uint64{500, 300, 0},
		LastUpdate:    fixedNow.Unix() - 60,
	}
	if err := board.Create(ctx, lb); err != nil {
		t.Fatalf("Create leaderboard failed: %v", err)
	}

	snap := domain.Snapshot{Timestamp: fixedNow.Unix() - 3600, Traders: []domain.Pubkey{traderA, traderB}}
	if err := hist.Append(ctx, &snap); err != nil {
		t.Fatalf("Append snapshot failed: %v", err)
	}

	if err := payouts.InsertBulk(ctx, []*domain.Payout{
		{PayoutID: "p0", RunID: "r1", Position: 0, Trader: traderB, Destination: "dest-b", Score: 500, Amount: 625},
		{PayoutID: "p1", RunID: "r1", Position: 1, Trader: traderA, Destination: "dest-a", Score: 300, Amount: 375},
	}); err != nil {
		t.Fatalf("InsertBulk payouts failed: %v", err)
	}

	return NewGenerator(traders, board, hist, payouts).WithClock(func() time.Time { return fixedNow })
}

func TestGenerate(t *testing.T) {
	g := setupGenerator(t)

	r, err := g.Generate(context.Background(), "r1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !r.GeneratedAt.Equal(fixedNow) {
		t.Errorf("GeneratedAt = %v, want %v", r.GeneratedAt, fixedNow)
	}
	if r.Summary.RegisteredTraders != 3 || r.Summary.RankedTraders != 3 {
		t.Errorf("Summary counts = %d/%d, want 3/3", r.Summary.RankedTraders, r.Summary.RegisteredTraders)
	}
	if got := r.Summary.TotalVolume.String(); got != "9500000" {
		t.Errorf("TotalVolume = %s, want 9500000", got)
	}
	if r.Summary.Snapshots != 1 || r.Summary.LatestSnapshot != fixedNow.Unix()-3600 {
		t.Errorf("Snapshot summary = %d @ %d", r.Summary.Snapshots, r.Summary.LatestSnapshot)
	}

	if len(r.Standings) != 3 {
		t.Fatalf("Standings = %d rows, want 3", len(r.Standings))
	}
	want := []struct {
		trader domain.Pubkey
		delta  int
		isNew  bool
	}{
		{traderB, 1, false},
		{traderA, -1, false},
		{traderC, 0, true},
	}
	for i, w := range want {
		row := r.Standings[i]
		if row.Rank != i+1 || row.Trader != w.trader || row.Delta != w.delta || row.New != w.isNew {
			t.Errorf("Standings[%d] = %+v, want trader %s delta %d new %t", i, row, w.trader, w.delta, w.isNew)
		}
	}
	if r.Standings[1].StakedAmount != 2_000 || r.Standings[1].FeeDiscount != 10 {
		t.Errorf("Standings[1] stats not joined: %+v", r.Standings[1])
	}

	if len(r.Payouts) != 2 {
		t.Fatalf("Payouts = %d rows, want 2", len(r.Payouts))
	}
	if got := r.Payouts[0].Share.StringFixed(2); got != "62.50" {
		t.Errorf("Payouts[0].Share = %s, want 62.50", got)
	}
}

func TestGenerate_UnknownRun(t *testing.T) {
	g := setupGenerator(t)

	_, err := g.Generate(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Generate(missing run) error = %v, want ErrNotFound", err)
	}
}

func TestGenerate_NoLeaderboard(t *testing.T) {
	g := NewGenerator(memory.NewTraderStatsStore(), memory.NewLeaderboardStore(), memory.NewHistoryStore(), nil)

	_, err := g.Generate(context.Background(), "")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Generate() error = %v, want ErrNotFound", err)
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		v        uint64
		decimals int32
		want     string
	}{
		{0, 0, "0"},
		{1_500_000, 6, "1.500000"},
		{18446744073709551615, 9, "18446744073.709551615"},
		{42, 2, "0.42"},
	}
	for _, tt := range tests {
		if got := FormatAmount(tt.v, tt.decimals); got != tt.want {
			t.Errorf("FormatAmount(%d, %d) = %q, want %q", tt.v, tt.decimals, got, tt.want)
		}
	}
}

func TestRenderers(t *testing.T) {
	g := setupGenerator(t)
	r, err := g.Generate(context.Background(), "r1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	md := RenderMarkdown(r, 6)
	for _, want := range []string{"# Leaderboard Report", "## Standings", "| 1 | `" + string(traderB) + "`", "## Payouts of run r1", "62.50"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}

	csv := RenderCSV(r.Standings)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 4 {
		t.Fatalf("csv has %d lines, want 4", len(lines))
	}
	if want := "1," + string(traderB) + ",500,1,false,5000000,7,40,0,0"; lines[1] != want {
		t.Errorf("csv row = %q, want %q", lines[1], want)
	}

	var buf bytes.Buffer
	RenderTable(&buf, r, 6)
	out := buf.String()
	for _, want := range []string{string(traderA), "+1", "new", "Payouts of run r1", "0.000625", "PNL", "FEE", "SHARE"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q", want)
		}
	}
	if strings.Contains(out, "PN L") {
		t.Errorf("table header mangled: %s", out)
	}
}
