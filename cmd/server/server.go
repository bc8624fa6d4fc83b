package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"t2e-leaderboard/internal/app"
	"t2e-leaderboard/internal/authz"
	"t2e-leaderboard/internal/config"
	"t2e-leaderboard/internal/domain"
	"t2e-leaderboard/internal/engine"
	"t2e-leaderboard/internal/ingestion"
	"t2e-leaderboard/internal/solana"
	"t2e-leaderboard/internal/storage"
	"t2e-leaderboard/internal/vault"
)

// leaderboardJobs is the part of the engine the scheduler drives.
type leaderboardJobs interface {
	InitializeLeaderboard(ctx context.Context) (*domain.Leaderboard, error)
	RefreshLeaderboard(ctx context.Context) ([]domain.RankedTrader, error)
	SnapshotLeaderboard(ctx context.Context) (domain.Snapshot, error)
	DistributeRewards(ctx context.Context, topN int, pool uint64) (*engine.Distribution, error)
}

// Server runs ingestion and the scheduled leaderboard jobs.
type Server struct {
	cfg     *config.Config
	jobs    leaderboardJobs
	runtime *app.Runtime
	logger  *zap.Logger
	wg      sync.WaitGroup

	// State
	mu               sync.Mutex
	started          time.Time
	runner           *ingestion.Runner
	lastRefresh      time.Time
	lastSnapshot     time.Time
	lastDistribution time.Time
	lastRunID        string

	// Stats
	refreshRuns      int
	snapshotRuns     int
	distributionRuns int
	jobFailures      int
}

func newServer(cfg *config.Config, rt *app.Runtime, logger *zap.Logger) *Server {
	return &Server{
		cfg:     cfg,
		jobs:    rt.Engine,
		runtime: rt,
		logger:  logger.With(zap.String("component", "server")),
		started: time.Now(),
	}
}

// Run starts ingestion and the schedulers and blocks until ctx is cancelled
// or one of them fails.
func (s *Server) Run(ctx context.Context) error {
	if err := s.ensureLeaderboard(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 4)
	start := func(name string, fn func(context.Context) error) {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("%s: %w", name, err)
			}
		}()
	}

	start("ingestion", s.runIngestion)
	start("refresh scheduler", func(ctx context.Context) error {
		return s.schedule(ctx, "refresh", s.cfg.Schedule.RefreshInterval, s.refresh)
	})
	start("snapshot scheduler", func(ctx context.Context) error {
		return s.schedule(ctx, "snapshot", s.cfg.Schedule.SnapshotInterval, s.snapshot)
	})
	start("distribution scheduler", func(ctx context.Context) error {
		return s.schedule(ctx, "distribution", s.cfg.Schedule.DistributeInterval, s.distribute)
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (s *Server) wait() {
	s.wg.Wait()
}

// ensureLeaderboard creates the leaderboard on first start.
func (s *Server) ensureLeaderboard(ctx context.Context) error {
	_, err := s.jobs.InitializeLeaderboard(authz.WithSystem(ctx))
	switch {
	case err == nil:
		s.logger.Info("created leaderboard")
		return nil
	case errors.Is(err, storage.ErrDuplicateKey):
		return nil
	default:
		return fmt.Errorf("initialize leaderboard: %w", err)
	}
}

// runIngestion feeds trades from every configured source into the engine.
func (s *Server) runIngestion(ctx context.Context) error {
	var sources []ingestion.TradeSource

	if s.cfg.Solana.WSEndpoint != "" {
		wsCfg := solana.DefaultWSConfig()
		wsCfg.Commitment = s.cfg.Solana.Commitment
		wsCfg.Logger = s.logger
		ws, err := solana.NewWSClient(ctx, s.cfg.Solana.WSEndpoint, &wsCfg)
		if err != nil {
			return fmt.Errorf("create websocket client: %w", err)
		}
		defer ws.Close()
		sources = append(sources, ingestion.NewWSTradeSource(ws, s.cfg.Solana.Programs, s.logger))
	}

	if len(s.cfg.Kafka.Brokers) > 0 {
		kafka, err := ingestion.NewKafkaTradeSource(ingestion.KafkaConfig{
			Brokers: s.cfg.Kafka.Brokers,
			Topic:   s.cfg.Kafka.Topic,
			GroupID: s.cfg.Kafka.GroupID,
			Oldest:  s.cfg.Kafka.Oldest,
		}, s.logger)
		if err != nil {
			return err
		}
		defer kafka.Close()
		sources = append(sources, kafka)
	}

	if len(sources) == 0 {
		s.logger.Info("no trade sources configured, trades arrive through the API only")
		return nil
	}

	runner := ingestion.NewRunner(ingestion.RunnerOptions{
		Recorder:      s.runtime.Engine,
		Sources:       sources,
		Observer:      s.runtime.Metrics,
		SlotLagWindow: s.cfg.Schedule.SlotLagWindow,
		FlushInterval: s.cfg.Schedule.FlushInterval,
		Logger:        s.logger,
	})

	s.mu.Lock()
	s.runner = runner
	s.mu.Unlock()

	return runner.Run(ctx)
}

// schedule runs job every interval until ctx is cancelled. A non-positive
// interval disables the job.
func (s *Server) schedule(ctx context.Context, name string, interval time.Duration, job func(context.Context) error) error {
	if interval <= 0 {
		s.logger.Info("job disabled", zap.String("job", name))
		return nil
	}
	s.logger.Info("starting scheduler", zap.String("job", name), zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := job(ctx); err != nil {
				s.mu.Lock()
				s.jobFailures++
				s.mu.Unlock()
				s.logger.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
			}
		}
	}
}

// refresh re-ranks every registered trader. Running ahead of the update
// interval is not a failure.
func (s *Server) refresh(ctx context.Context) error {
	ranked, err := s.jobs.RefreshLeaderboard(authz.WithSystem(ctx))
	if errors.Is(err, domain.ErrUpdateTooSoon) {
		s.logger.Debug("refresh skipped", zap.Error(err))
		return nil
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.lastRefresh = time.Now()
	s.refreshRuns++
	s.mu.Unlock()

	s.logger.Info("leaderboard refreshed", zap.Int("ranked", len(ranked)))
	return nil
}

func (s *Server) snapshot(ctx context.Context) error {
	snap, err := s.jobs.SnapshotLeaderboard(authz.WithSystem(ctx))
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.lastSnapshot = time.Now()
	s.snapshotRuns++
	s.mu.Unlock()

	s.logger.Info("leaderboard snapshot taken",
		zap.Int64("timestamp", snap.Timestamp),
		zap.Int64("seq", snap.Seq),
		zap.Int("traders", len(snap.Traders)))
	return nil
}

// distribute pays the configured pool. A paused leaderboard or an empty
// ranking skips the run.
func (s *Server) distribute(ctx context.Context) error {
	dist, err := s.jobs.DistributeRewards(authz.WithSystem(ctx), s.cfg.Rewards.TopN, s.cfg.Rewards.Pool)
	if errors.Is(err, domain.ErrEmergencyPaused) || errors.Is(err, domain.ErrNoValidScores) {
		s.logger.Warn("distribution skipped", zap.Error(err))
		return nil
	}

	if dist != nil {
		s.mu.Lock()
		s.lastDistribution = time.Now()
		s.lastRunID = dist.RunID
		s.distributionRuns++
		s.mu.Unlock()
	}
	if err != nil {
		return err
	}

	s.logger.Info("rewards distributed",
		zap.String("run_id", dist.RunID),
		zap.Uint64("adjusted_pool", dist.Plan.AdjustedPool),
		zap.Uint64("distributed", dist.Plan.Distributed()),
		zap.Int("payouts", len(dist.Payouts)))
	return nil
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status           string                `json:"status"`
	Uptime           string                `json:"uptime"`
	Started          time.Time             `json:"started"`
	LastRefresh      time.Time             `json:"last_refresh,omitempty"`
	LastSnapshot     time.Time             `json:"last_snapshot,omitempty"`
	LastDistribution time.Time             `json:"last_distribution,omitempty"`
	LastRunID        string                `json:"last_run_id,omitempty"`
	RefreshRuns      int                   `json:"refresh_runs"`
	SnapshotRuns     int                   `json:"snapshot_runs"`
	DistributionRuns int                   `json:"distribution_runs"`
	JobFailures      int                   `json:"job_failures"`
	Ingestion        *ingestion.RunnerStats `json:"ingestion,omitempty"`
	Balances         []vault.Entry          `json:"balances,omitempty"`
}

func (s *Server) status() StatusResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := StatusResponse{
		Status:           "running",
		Uptime:           time.Since(s.started).Round(time.Second).String(),
		Started:          s.started,
		LastRefresh:      s.lastRefresh,
		LastSnapshot:     s.lastSnapshot,
		LastDistribution: s.lastDistribution,
		LastRunID:        s.lastRunID,
		RefreshRuns:      s.refreshRuns,
		SnapshotRuns:     s.snapshotRuns,
		DistributionRuns: s.distributionRuns,
		JobFailures:      s.jobFailures,
	}
	if s.runner != nil {
		stats := s.runner.Stats()
		resp.Ingestion = &stats
	}
	if s.runtime != nil && s.runtime.Ledger != nil {
		resp.Balances = s.runtime.Ledger.Snapshot()
	}
	return resp
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.status())
}
