package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"t2e-leaderboard/internal/domain"
	"t2e-leaderboard/internal/storage"
)

// DefaultLeaderboardKey is the key holding the leaderboard record.
const DefaultLeaderboardKey = "t2e:leaderboard"

// LeaderboardStore implements storage.LeaderboardStore on a single Redis key.
// Save uses WATCH/MULTI, so a concurrent writer surfaces as ErrVersionConflict.
type LeaderboardStore struct {
	client *Client
	key    string
}

// NewLeaderboardStore creates a store on key, or DefaultLeaderboardKey if empty.
func NewLeaderboardStore(client *Client, key string) *LeaderboardStore {
	if key == "" {
		key = DefaultLeaderboardKey
	}
	return &LeaderboardStore{client: client, key: key}
}

// Compile-time interface check.
var _ storage.LeaderboardStore = (*LeaderboardStore)(nil)

// leaderboardRecord is the JSON layout of the stored value.
type leaderboardRecord struct {
	Traders        []domain.Pubkey `json:"traders"`
	RankingScores  []uint64        `json:"ranking_scores"`
	LastUpdate     int64           `json:"last_update"`
	EmergencyPause bool            `json:"emergency_pause"`
	Version        int64           `json:"version"`
}

func encode(lb *domain.Leaderboard, version int64) ([]byte, error) {
	rec := leaderboardRecord{
		Traders:        lb.Traders,
		RankingScores:  lb.RankingScores,
		LastUpdate:     lb.LastUpdate,
		EmergencyPause: lb.EmergencyPause,
		Version:        version,
	}
	if rec.Traders == nil {
		rec.Traders = []domain.Pubkey{}
	}
	if rec.RankingScores == nil {
		rec.RankingScores = []uint64{}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal leaderboard: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*domain.Leaderboard, error) {
	var rec leaderboardRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal leaderboard: %w", err)
	}
	return &domain.Leaderboard{
		Traders:        rec.Traders,
		RankingScores:  rec.RankingScores,
		LastUpdate:     rec.LastUpdate,
		EmergencyPause: rec.EmergencyPause,
		Version:        rec.Version,
	}, nil
}

// Create stores the initial leaderboard. Returns ErrDuplicateKey if one exists.
func (s *LeaderboardStore) Create(ctx context.Context, lb *domain.Leaderboard) error {
	if len(lb.Traders) != len(lb.RankingScores) {
		return storage.ErrInvalidInput
	}

	data, err := encode(lb, 1)
	if err != nil {
		return err
	}

	created, err := s.client.SetNX(ctx, s.key, data, 0).Result()
	if err != nil {
		return fmt.Errorf("create leaderboard: %w", err)
	}
	if !created {
		return storage.ErrDuplicateKey
	}

	lb.Version = 1
	return nil
}

// Get retrieves the leaderboard. Returns ErrNotFound if not initialized.
func (s *LeaderboardStore) Get(ctx context.Context) (*domain.Leaderboard, error) {
	return s.load(ctx, s.client)
}

type getter interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
}

func (s *LeaderboardStore) load(ctx context.Context, g getter) (*domain.Leaderboard, error) {
	data, err := g.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get leaderboard: %w", err)
	}
	return decode(data)
}

// Save replaces the leaderboard if lb.Version is current.
func (s *LeaderboardStore) Save(ctx context.Context, lb *domain.Leaderboard) error {
	if len(lb.Traders) != len(lb.RankingScores) {
		return storage.ErrInvalidInput
	}

	data, err := encode(lb, lb.Version+1)
	if err != nil {
		return err
	}

	err = s.client.Watch(ctx, func(tx *goredis.Tx) error {
		current, err := s.load(ctx, tx)
		if err != nil {
			return err
		}
		if current.Version != lb.Version {
			return storage.ErrVersionConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, s.key, data, 0)
			return nil
		})
		return err
	}, s.key)

	switch {
	case err == nil:
		lb.Version++
		return nil
	case errors.Is(err, goredis.TxFailedErr):
		return storage.ErrVersionConflict
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrVersionConflict):
		return err
	default:
		return fmt.Errorf("save leaderboard: %w", err)
	}
}
