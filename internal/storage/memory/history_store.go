package memory

import (
	"context"
	"sync"

	"t2e-leaderboard/internal/domain"
	"t2e-leaderboard/internal/storage"
)

// HistoryStore is an in-memory implementation of storage.HistoryStore.
type HistoryStore struct {
	mu      sync.RWMutex
	history domain.LeaderboardHistory
}

// NewHistoryStore creates a new in-memory history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{}
}

// Append adds a snapshot and assigns snap.Seq.
func (s *HistoryStore) Append(_ context.Context, snap *domain.Snapshot) error {
	if snap == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.history.Append(snap.Timestamp, snap.Traders)
	snap.Seq = stored.Seq
	return nil
}

// List retrieves all snapshots ordered by seq ASC.
func (s *HistoryStore) List(_ context.Context) ([]domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Snapshot, len(s.history.PastRankings))
	for i, snap := range s.history.PastRankings {
		result[i] = copySnapshot(snap)
	}
	return result, nil
}

// GetByTimeRange retrieves snapshots taken within [start, end] (inclusive).
func (s *HistoryStore) GetByTimeRange(_ context.Context, start, end int64) ([]domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Snapshot
	for _, snap := range s.history.PastRankings {
		if snap.Timestamp >= start && snap.Timestamp <= end {
			result = append(result, copySnapshot(snap))
		}
	}
	return result, nil
}

// Latest retrieves the most recent snapshot. Returns ErrNotFound if empty.
func (s *HistoryStore) Latest(_ context.Context) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.history.PastRankings)
	if n == 0 {
		return nil, storage.ErrNotFound
	}

	snap := copySnapshot(s.history.PastRankings[n-1])
	return &snap, nil
}

func copySnapshot(snap domain.Snapshot) domain.Snapshot {
	snap.Traders = append([]domain.Pubkey{}, snap.Traders...)
	return snap
}

var _ storage.HistoryStore = (*HistoryStore)(nil)
