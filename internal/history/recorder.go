// Package history appends snapshots of the leaderboard order to the
// append-only ranking history.
package history

import "t2e-leaderboard/internal/domain"

// Take copies lb's current order into a snapshot stamped at now.
// Seq is left zero; the history store assigns it on append.
func Take(lb *domain.Leaderboard, now int64) domain.Snapshot {
	return domain.Snapshot{
		Timestamp: now,
		Traders:   append([]domain.Pubkey{}, lb.Traders...),
	}
}

// Movement is the change of one trader's rank between two snapshots.
type Movement struct {
	Trader   domain.Pubkey
	Previous int // zero-based rank in the older snapshot, -1 if absent
	Current  int // zero-based rank in the newer snapshot
}

// Delta returns the number of places gained, positive when the trader moved up.
// New entries report 0.
func (m Movement) Delta() int {
	if m.Previous < 0 {
		return 0
	}
	return m.Previous - m.Current
}

// Compare reports the rank of every trader of cur relative to prev.
func Compare(prev, cur domain.Snapshot) []Movement {
	before := make(map[domain.Pubkey]int, len(prev.Traders))
	for i, t := range prev.Traders {
		before[t] = i
	}

	out := make([]Movement, len(cur.Traders))
	for i, t := range cur.Traders {
		p, ok := before[t]
		if !ok {
			p = -1
		}
		out[i] = Movement{Trader: t, Previous: p, Current: i}
	}
	return out
}
