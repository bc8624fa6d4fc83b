// Package storagetest holds behaviour tests shared by every storage backend.
package storagetest

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"t2e-leaderboard/internal/domain"
	"t2e-leaderboard/internal/storage"
)

const (
	TraderA = domain.Pubkey("4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T")
	TraderB = domain.Pubkey("9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin")
	TraderC = domain.Pubkey("So11111111111111111111111111111111111111112")
)

// TraderStatsStore exercises a fresh, empty store.
func TraderStatsStore(t *testing.T, store storage.TraderStatsStore) {
	ctx := context.Background()

	_, err := store.Get(ctx, TraderA)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	a := &domain.TraderStats{
		Trader:               TraderA,
		TotalVolume:          math.MaxUint64,
		AverageExecutionTime: math.MaxUint64 - 1,
		TradeCount:           3,
		PnL:                  -42,
		StakedAmount:         1 << 63,
		FeeDiscount:          50,
		LastTrade:            1_700_000_000,
	}
	require.NoError(t, store.Insert(ctx, a))
	require.NoError(t, store.Insert(ctx, domain.NewTraderStats(TraderC)))
	require.NoError(t, store.Insert(ctx, domain.NewTraderStats(TraderB)))

	err = store.Insert(ctx, domain.NewTraderStats(TraderA))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.Get(ctx, TraderA)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	got.PnL = 7
	got.TradeCount = 4
	require.NoError(t, store.Update(ctx, got))

	again, err := store.Get(ctx, TraderA)
	require.NoError(t, err)
	assert.Equal(t, int64(7), again.PnL)
	assert.Equal(t, uint64(4), again.TradeCount)

	err = store.Update(ctx, domain.NewTraderStats("unknown"))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, TraderA, all[0].Trader)
	assert.Equal(t, TraderB, all[1].Trader)
	assert.Equal(t, TraderC, all[2].Trader)
}

// LeaderboardStore exercises a fresh, uninitialized store.
func LeaderboardStore(t *testing.T, store storage.LeaderboardStore) {
	ctx := context.Background()

	_, err := store.Get(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = store.Save(ctx, domain.NewLeaderboard(0))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	lb := domain.NewLeaderboard(1_000)
	require.NoError(t, store.Create(ctx, lb))
	assert.Equal(t, int64(1), lb.Version)

	err = store.Create(ctx, domain.NewLeaderboard(2_000))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000), got.LastUpdate)
	assert.Empty(t, got.Traders)
	assert.False(t, got.EmergencyPause)

	stale := got.Clone()

	got.Traders = []domain.Pubkey{TraderB, TraderA}
	got.RankingScores = []uint64{math.MaxUint64, 0}
	got.LastUpdate = 1_600
	got.EmergencyPause = true
	require.NoError(t, store.Save(ctx, got))
	assert.Equal(t, int64(2), got.Version)

	err = store.Save(ctx, stale)
	assert.ErrorIs(t, err, storage.ErrVersionConflict)

	stored, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Pubkey{TraderB, TraderA}, stored.Traders)
	assert.Equal(t, []uint64{math.MaxUint64, 0}, stored.RankingScores)
	assert.Equal(t, int64(1_600), stored.LastUpdate)
	assert.True(t, stored.EmergencyPause)
	assert.Equal(t, int64(2), stored.Version)

	stored.Traders = []domain.Pubkey{TraderC}
	stored.RankingScores = []uint64{5}
	require.NoError(t, store.Save(ctx, stored))

	shrunk, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Pubkey{TraderC}, shrunk.Traders)
	assert.Equal(t, []uint64{5}, shrunk.RankingScores)
}

// HistoryStore exercises a fresh, empty store.
func HistoryStore(t *testing.T, store storage.HistoryStore) {
	ctx := context.Background()

	_, err := store.Latest(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	first := &domain.Snapshot{Timestamp: 100, Traders: []domain.Pubkey{TraderA, TraderB}}
	second := &domain.Snapshot{Timestamp: 200, Traders: []domain.Pubkey{}}
	third := &domain.Snapshot{Timestamp: 300, Traders: []domain.Pubkey{TraderB, TraderA, TraderC}}

	require.NoError(t, store.Append(ctx, first))
	require.NoError(t, store.Append(ctx, second))
	require.NoError(t, store.Append(ctx, third))
	assert.Less(t, first.Seq, second.Seq)
	assert.Less(t, second.Seq, third.Seq)

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []domain.Pubkey{TraderA, TraderB}, all[0].Traders)
	assert.Empty(t, all[1].Traders)
	assert.Equal(t, int64(300), all[2].Timestamp)

	ranged, err := store.GetByTimeRange(ctx, 150, 300)
	require.NoError(t, err)
	require.Len(t, ranged, 2)
	assert.Equal(t, second.Seq, ranged[0].Seq)
	assert.Equal(t, third.Seq, ranged[1].Seq)

	latest, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, third.Seq, latest.Seq)
	assert.Equal(t, []domain.Pubkey{TraderB, TraderA, TraderC}, latest.Traders)
}

// PayoutStore exercises a fresh, empty store.
func PayoutStore(t *testing.T, store storage.PayoutStore) {
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, nil))

	run1 := []*domain.Payout{
		{PayoutID: "p-1b", RunID: "run-1", Position: 1, Trader: TraderB, Destination: "ata-b", Score: 100, Amount: 250, DistributedAt: 10},
		{PayoutID: "p-1a", RunID: "run-1", Position: 0, Trader: TraderA, Destination: "ata-a", Score: 300, Amount: 750, DistributedAt: 10},
	}
	run2 := []*domain.Payout{
		{PayoutID: "p-2a", RunID: "run-2", Position: 0, Trader: TraderA, Destination: "ata-a", Score: math.MaxUint64, Amount: math.MaxUint64, DistributedAt: 20},
	}
	require.NoError(t, store.InsertBulk(ctx, run1))
	require.NoError(t, store.InsertBulk(ctx, run2))

	err := store.InsertBulk(ctx, []*domain.Payout{
		{PayoutID: "p-3a", RunID: "run-3", Trader: TraderC},
		{PayoutID: "p-1a", RunID: "run-1", Trader: TraderA},
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.GetByRun(ctx, "run-3")
	require.NoError(t, err)
	assert.Empty(t, got, "failed batch must not be partially stored")

	got, err = store.GetByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, TraderA, got[0].Trader)
	assert.Equal(t, uint64(750), got[0].Amount)
	assert.Equal(t, "ata-b", got[1].Destination)

	byTrader, err := store.GetByTrader(ctx, TraderA)
	require.NoError(t, err)
	require.Len(t, byTrader, 2)
	assert.Equal(t, "run-1", byTrader[0].RunID)
	assert.Equal(t, uint64(math.MaxUint64), byTrader[1].Amount)
}
