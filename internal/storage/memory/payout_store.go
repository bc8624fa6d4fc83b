package memory

import (
	"context"
	"sort"
	"sync"

	"t2e-leaderboard/internal/domain"
	"t2e-leaderboard/internal/storage"
)

// PayoutStore is an in-memory implementation of storage.PayoutStore.
type PayoutStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Payout // keyed by payout_id
}

// NewPayoutStore creates a new in-memory payout store.
func NewPayoutStore() *PayoutStore {
	return &PayoutStore{
		data: make(map[string]*domain.Payout),
	}
}

// InsertBulk adds multiple payouts atomically. Fails entire batch on any duplicate.
func (s *PayoutStore) InsertBulk(_ context.Context, payouts []*domain.Payout) error {
	if len(payouts) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(payouts))

	for _, p := range payouts {
		if p == nil || p.PayoutID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[p.PayoutID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[p.PayoutID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[p.PayoutID] = struct{}{}
	}

	for _, p := range payouts {
		c := *p
		s.data[p.PayoutID] = &c
	}

	return nil
}

// GetByRun retrieves the payouts of a run, ordered by position ASC.
func (s *PayoutStore) GetByRun(_ context.Context, runID string) ([]*domain.Payout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Payout
	for _, p := range s.data {
		if p.RunID == runID {
			c := *p
			result = append(result, &c)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Position < result[j].Position
	})

	return result, nil
}

// GetByTrader retrieves all payouts of a trader, ordered by distributed_at ASC.
func (s *PayoutStore) GetByTrader(_ context.Context, trader domain.Pubkey) ([]*domain.Payout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Payout
	for _, p := range s.data {
		if p.Trader == trader {
			c := *p
			result = append(result, &c)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].DistributedAt != result[j].DistributedAt {
			return result[i].DistributedAt < result[j].DistributedAt
		}
		return result[i].RunID < result[j].RunID
	})

	return result, nil
}

var _ storage.PayoutStore = (*PayoutStore)(nil)
