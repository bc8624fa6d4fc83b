package domain

// Snapshot is an immutable, timestamped copy of the ranking order.
type Snapshot struct {
	Seq       int64    // position in the history, starting at 1
	Timestamp int64    // unix seconds when the snapshot was taken
	Traders   []Pubkey // ranking order at that time
}

// LeaderboardHistory is the append-only log of snapshots.
type LeaderboardHistory struct {
	PastRankings []Snapshot
}

// Append adds a snapshot of traders taken at now and returns it.
// The traders slice is copied.
func (h *LeaderboardHistory) Append(now int64, traders []Pubkey) Snapshot {
	snap := Snapshot{
		Seq:       int64(len(h.PastRankings)) + 1,
		Timestamp: now,
		Traders:   append([]Pubkey{}, traders...),
	}
	h.PastRankings = append(h.PastRankings, snap)
	return snap
}
