package memory

import (
	"context"
	"sort"
	"sync"

	"t2e-leaderboard/internal/domain"
	"t2e-leaderboard/internal/storage"
)

// TraderStatsStore is an in-memory implementation of storage.TraderStatsStore.
type TraderStatsStore struct {
	mu   sync.RWMutex
	data map[domain.Pubkey]*domain.TraderStats
}

// NewTraderStatsStore creates a new in-memory trader stats store.
func NewTraderStatsStore() *TraderStatsStore {
	return &TraderStatsStore{
		data: make(map[domain.Pubkey]*domain.TraderStats),
	}
}

// Insert adds a new record. Returns ErrDuplicateKey if the trader exists.
func (s *TraderStatsStore) Insert(_ context.Context, st *domain.TraderStats) error {
	if st == nil || st.Trader == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[st.Trader]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[st.Trader] = st.Clone()
	return nil
}

// Get retrieves the record of a trader. Returns ErrNotFound if not exists.
func (s *TraderStatsStore) Get(_ context.Context, trader domain.Pubkey) (*domain.TraderStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, exists := s.data[trader]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return st.Clone(), nil
}

// Update overwrites an existing record. Returns ErrNotFound if not exists.
func (s *TraderStatsStore) Update(_ context.Context, st *domain.TraderStats) error {
	if st == nil || st.Trader == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[st.Trader]; !exists {
		return storage.ErrNotFound
	}

	s.data[st.Trader] = st.Clone()
	return nil
}

// List retrieves all records ordered by trader ASC.
func (s *TraderStatsStore) List(_ context.Context) ([]*domain.TraderStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.TraderStats, 0, len(s.data))
	for _, st := range s.data {
		result = append(result, st.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Trader < result[j].Trader
	})

	return result, nil
}

var _ storage.TraderStatsStore = (*TraderStatsStore)(nil)
