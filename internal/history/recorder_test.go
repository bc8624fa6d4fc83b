package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"t2e-leaderboard/internal/domain"
)

func TestTake_AppendsCopy(t *testing.T) {
	h := &domain.LeaderboardHistory{}
	lb := domain.NewLeaderboard(0)
	lb.Traders = []domain.Pubkey{"A", "B"}
	lb.RankingScores = []uint64{2, 1}

	snap := Take(lb, 100)
	first := h.Append(snap.Timestamp, snap.Traders)
	lb.Traders[0] = "Z"
	snap = Take(lb, 200)
	second := h.Append(snap.Timestamp, snap.Traders)

	require.Len(t, h.PastRankings, 2)
	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, int64(2), second.Seq)
	assert.Equal(t, []domain.Pubkey{"A", "B"}, h.PastRankings[0].Traders)
	assert.Equal(t, []domain.Pubkey{"Z", "B"}, h.PastRankings[1].Traders)
	assert.Equal(t, int64(200), h.PastRankings[1].Timestamp)
}

func TestTake_EmptyBoard(t *testing.T) {
	snap := Take(domain.NewLeaderboard(0), 5)

	assert.NotNil(t, snap.Traders)
	assert.Empty(t, snap.Traders)
	assert.Equal(t, int64(0), snap.Seq)
	assert.Equal(t, int64(5), snap.Timestamp)
}

func TestCompare(t *testing.T) {
	prev := domain.Snapshot{Traders: []domain.Pubkey{"A", "B", "C"}}
	cur := domain.Snapshot{Traders: []domain.Pubkey{"C", "A", "D"}}

	moves := Compare(prev, cur)

	assert.Equal(t, []Movement{
		{Trader: "C", Previous: 2, Current: 0},
		{Trader: "A", Previous: 0, Current: 1},
		{Trader: "D", Previous: -1, Current: 2},
	}, moves)
	assert.Equal(t, 2, moves[0].Delta())
	assert.Equal(t, -1, moves[1].Delta())
	assert.Equal(t, 0, moves[2].Delta())
}
