package ingestion

import (
	"sort"

	"t2e-leaderboard/internal/domain"
)

// SortTradeEvents orders events by (slot ASC, signature ASC, event_index ASC).
func SortTradeEvents(events []domain.TradeEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return compareTradeEvents(&events[i], &events[j]) < 0
	})
}

// compareTradeEvents returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
func compareTradeEvents(a, b *domain.TradeEvent) int {
	if a.Slot != b.Slot {
		if a.Slot < b.Slot {
			return -1
		}
		return 1
	}
	if a.Signature != b.Signature {
		if a.Signature < b.Signature {
			return -1
		}
		return 1
	}
	if a.EventIndex != b.EventIndex {
		if a.EventIndex < b.EventIndex {
			return -1
		}
		return 1
	}
	return 0
}
