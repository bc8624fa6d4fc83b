// Package engine hosts the leaderboard operations.
// It authorizes callers, serializes access to records, loads and saves them
// through the stores, and reports logs and metrics. The arithmetic lives in
// the stats, staking, ranking, rewards and history packages.
package engine

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"t2e-leaderboard/internal/authz"
	"t2e-leaderboard/internal/domain"
	"t2e-leaderboard/internal/observability"
	"t2e-leaderboard/internal/rewards"
	"t2e-leaderboard/internal/storage"
)

// Clock returns the current time in Unix seconds.
type Clock interface {
	Now() int64
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() int64 { return time.Now().Unix() }

// ClockFunc adapts a function to Clock.
type ClockFunc func() int64

// Now implements Clock.
func (f ClockFunc) Now() int64 { return f() }

// Options for creating an Engine.
type Options struct {
	// Required stores
	TraderStats storage.TraderStatsStore
	Leaderboard storage.LeaderboardStore
	History     storage.HistoryStore

	// Payouts receives the audit log of every distribution run. Optional.
	Payouts storage.PayoutStore

	// Required collaborators
	Authorizer  authz.Authorizer
	Resolver    rewards.Resolver
	Transferrer rewards.Transferrer

	// RewardVault pays distributions; StakeVault receives stakes.
	RewardVault string
	StakeVault  string

	Clock    Clock                 // default: SystemClock
	Metrics  *observability.Metrics // optional
	Logger   *zap.Logger           // default: zap.NewNop()
	NewRunID func() string         // default: uuid.NewString
}

// Engine executes leaderboard operations.
//
// Operations on one trader are serialized by a per-trader mutex. Operations on
// the leaderboard, its history and distributions share the board mutex. Core
// functions work on copies; a record is saved only after the whole operation
// succeeded.
type Engine struct {
	traders     storage.TraderStatsStore
	board       storage.LeaderboardStore
	history     storage.HistoryStore
	payouts     storage.PayoutStore
	auth        authz.Authorizer
	transferrer rewards.Transferrer
	distributor *rewards.Distributor
	stakeVault  string
	clock       Clock
	metrics     *observability.Metrics
	logger      *zap.Logger
	newRunID    func() string

	traderLocks sync.Map // domain.Pubkey -> *sync.Mutex
	boardMu     sync.Mutex
}

// New creates an Engine.
func New(opts Options) (*Engine, error) {
	switch {
	case opts.TraderStats == nil, opts.Leaderboard == nil, opts.History == nil:
		return nil, errors.New("engine: trader stats, leaderboard and history stores are required")
	case opts.Authorizer == nil:
		return nil, errors.New("engine: authorizer is required")
	case opts.Resolver == nil, opts.Transferrer == nil:
		return nil, errors.New("engine: resolver and transferrer are required")
	case opts.RewardVault == "", opts.StakeVault == "":
		return nil, errors.New("engine: reward and stake vaults are required")
	}

	clock := opts.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	newRunID := opts.NewRunID
	if newRunID == nil {
		newRunID = uuid.NewString
	}

	return &Engine{
		traders:     opts.TraderStats,
		board:       opts.Leaderboard,
		history:     opts.History,
		payouts:     opts.Payouts,
		auth:        opts.Authorizer,
		transferrer: opts.Transferrer,
		distributor: rewards.NewDistributor(opts.Resolver, opts.Transferrer, opts.RewardVault),
		stakeVault:  opts.StakeVault,
		clock:       clock,
		metrics:     opts.Metrics,
		logger:      logger.With(zap.String("component", "engine")),
		newRunID:    newRunID,
	}, nil
}

// lockTrader serializes operations on one trader and returns the unlock func.
func (e *Engine) lockTrader(trader domain.Pubkey) func() {
	mu, _ := e.traderLocks.LoadOrStore(trader, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// observe records metrics and a debug log line for one operation.
func (e *Engine) observe(op string, start time.Time, err error, fields ...zap.Field) {
	e.metrics.ObserveOperation(op, start, err)
	if err != nil {
		e.logger.Debug(op+" failed", append(fields, zap.Error(err))...)
		return
	}
	e.logger.Debug(op, fields...)
}
