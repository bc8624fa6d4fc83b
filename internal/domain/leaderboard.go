package domain

// Leaderboard is the single global ranking record.
//
// Traders and RankingScores are parallel: index i of both refers to the same
// trader. They are always replaced together, never patched.
type Leaderboard struct {
	Traders        []Pubkey // descending by score
	RankingScores  []uint64 // same length and order as Traders
	LastUpdate     int64    // unix seconds of the last successful recomputation
	EmergencyPause bool     // reward circuit breaker
	Version        int64    // incremented by every successful store write
}

// NewLeaderboard returns an empty, unpaused leaderboard stamped at now.
func NewLeaderboard(now int64) *Leaderboard {
	return &Leaderboard{
		Traders:       []Pubkey{},
		RankingScores: []uint64{},
		LastUpdate:    now,
	}
}

// Clone returns a deep copy.
func (l *Leaderboard) Clone() *Leaderboard {
	c := *l
	c.Traders = append([]Pubkey(nil), l.Traders...)
	c.RankingScores = append([]uint64(nil), l.RankingScores...)
	return &c
}

// Len returns the number of ranked traders.
func (l *Leaderboard) Len() int {
	return len(l.Traders)
}

// Entries pairs traders with their scores in rank order.
func (l *Leaderboard) Entries() []RankedTrader {
	out := make([]RankedTrader, len(l.Traders))
	for i, t := range l.Traders {
		out[i] = RankedTrader{Trader: t, Score: l.RankingScores[i]}
	}
	return out
}

// RankedTrader pairs a trader with a freshly computed score.
// It only exists during ranking; the leaderboard stores its projection.
type RankedTrader struct {
	Trader Pubkey `json:"trader"`
	Score  uint64 `json:"score"`
}
