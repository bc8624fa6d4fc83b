package memory

import (
	"context"
	"sync"

	"t2e-leaderboard/internal/domain"
	"t2e-leaderboard/internal/storage"
)

// LeaderboardStore is an in-memory implementation of storage.LeaderboardStore.
type LeaderboardStore struct {
	mu sync.RWMutex
	lb *domain.Leaderboard
}

// NewLeaderboardStore creates an empty, uninitialized leaderboard store.
func NewLeaderboardStore() *LeaderboardStore {
	return &LeaderboardStore{}
}

// Create stores the initial leaderboard. Returns ErrDuplicateKey if one exists.
func (s *LeaderboardStore) Create(_ context.Context, lb *domain.Leaderboard) error {
	if lb == nil || len(lb.Traders) != len(lb.RankingScores) {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lb != nil {
		return storage.ErrDuplicateKey
	}

	lb.Version = 1
	s.lb = lb.Clone()
	return nil
}

// Get retrieves the leaderboard. Returns ErrNotFound if not initialized.
func (s *LeaderboardStore) Get(_ context.Context) (*domain.Leaderboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lb == nil {
		return nil, storage.ErrNotFound
	}
	return s.lb.Clone(), nil
}

// Save replaces the leaderboard if lb.Version is current.
func (s *LeaderboardStore) Save(_ context.Context, lb *domain.Leaderboard) error {
	if lb == nil || len(lb.Traders) != len(lb.RankingScores) {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lb == nil {
		return storage.ErrNotFound
	}
	if s.lb.Version != lb.Version {
		return storage.ErrVersionConflict
	}

	lb.Version++
	s.lb = lb.Clone()
	return nil
}

var _ storage.LeaderboardStore = (*LeaderboardStore)(nil)
