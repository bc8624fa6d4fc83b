package ranking

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"t2e-leaderboard/internal/domain"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		in   domain.StatsInput
		want uint64
	}{
		{
			name: "all terms",
			in:   domain.StatsInput{TotalVolume: 1_000, AverageExecutionTime: 9, PnL: 25, StakedAmount: 5_000},
			want: 100 + 25 + 5,
		},
		{
			name: "negative pnl contributes nothing",
			in:   domain.StatsInput{TotalVolume: 100, AverageExecutionTime: 0, PnL: -1_000_000},
			want: 100,
		},
		{
			name: "zero stats",
			in:   domain.StatsInput{},
			want: 0,
		},
		{
			name: "bonus floors",
			in:   domain.StatsInput{StakedAmount: 1_999},
			want: 1,
		},
		{
			name: "average at max zeroes the base term",
			in:   domain.StatsInput{TotalVolume: 500, AverageExecutionTime: math.MaxUint64, PnL: 7},
			want: 7,
		},
		{
			name: "first add overflows then bonus is added to zero",
			in: domain.StatsInput{
				TotalVolume:          math.MaxUint64,
				AverageExecutionTime: 0,
				PnL:                  1,
				StakedAmount:         3_000,
			},
			want: 3,
		},
		{
			name: "second add overflows",
			in: domain.StatsInput{
				TotalVolume:          math.MaxUint64 - 1,
				AverageExecutionTime: 0,
				PnL:                  0,
				StakedAmount:         2_000,
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.in))
		})
	}
}

func TestRank_StableDescending(t *testing.T) {
	batch := []domain.StatsInput{
		{Trader: "A", PnL: 100},
		{Trader: "B", PnL: 50},
		{Trader: "C", PnL: 50},
		{Trader: "D", PnL: 0},
	}

	ranked := Rank(batch)

	assert.Equal(t, []domain.RankedTrader{
		{Trader: "A", Score: 100},
		{Trader: "B", Score: 50},
		{Trader: "C", Score: 50},
		{Trader: "D", Score: 0},
	}, ranked)
}

func TestRank_TiesKeepInputOrder(t *testing.T) {
	batch := []domain.StatsInput{
		{Trader: "D", PnL: 0},
		{Trader: "C", PnL: 50},
		{Trader: "A", PnL: 100},
		{Trader: "B", PnL: 50},
	}

	ranked := Rank(batch)

	got := make([]domain.Pubkey, len(ranked))
	for i, r := range ranked {
		got[i] = r.Trader
	}
	assert.Equal(t, []domain.Pubkey{"A", "C", "B", "D"}, got)
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, Rank(nil))
}
