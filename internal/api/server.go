// Package api exposes the leaderboard engine over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"t2e-leaderboard/internal/authz"
	"t2e-leaderboard/internal/domain"
	"t2e-leaderboard/internal/engine"
	"t2e-leaderboard/internal/history"
	"t2e-leaderboard/internal/observability"
)

// Backend is the engine surface served by the API.
type Backend interface {
	RegisterTrader(ctx context.Context, trader domain.Pubkey) (domain.TraderStats, error)
	RecordTrade(ctx context.Context, ev domain.TradeEvent) (domain.TraderStats, error)
	StakeTokens(ctx context.Context, trader domain.Pubkey, amount uint64) (domain.TraderStats, error)
	CalculateFeeDiscount(ctx context.Context, trader domain.Pubkey) (uint8, error)

	InitializeLeaderboard(ctx context.Context) (*domain.Leaderboard, error)
	UpdateLeaderboard(ctx context.Context, batch []domain.StatsInput) ([]domain.RankedTrader, error)
	RefreshLeaderboard(ctx context.Context) ([]domain.RankedTrader, error)
	SetEmergencyPause(ctx context.Context, paused bool) (*domain.Leaderboard, error)
	SnapshotLeaderboard(ctx context.Context) (domain.Snapshot, error)
	DistributeRewards(ctx context.Context, topN int, pool uint64) (*engine.Distribution, error)

	Leaderboard(ctx context.Context) (*domain.Leaderboard, error)
	TraderStats(ctx context.Context, trader domain.Pubkey) (*domain.TraderStats, error)
	ListTraderStats(ctx context.Context) ([]*domain.TraderStats, error)
	History(ctx context.Context, from, to int64) ([]domain.Snapshot, error)
	Movements(ctx context.Context) ([]history.Movement, error)
	RunPayouts(ctx context.Context, runID string) ([]*domain.Payout, error)
	TraderPayouts(ctx context.Context, trader domain.Pubkey) ([]*domain.Payout, error)
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Options for creating the router.
type Options struct {
	Backend Backend                // required
	Tokens  *authz.TokenIssuer     // required
	Metrics prometheus.Gatherer    // serves /metrics when set
	Checks  map[string]HealthCheck // probed by /healthz
	Logger  *zap.Logger            // default: zap.NewNop()
}

// Server holds the HTTP handlers.
type Server struct {
	backend Backend
	tokens  *authz.TokenIssuer
	checks  map[string]HealthCheck
	logger  *zap.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		backend: opts.Backend,
		tokens:  opts.Tokens,
		checks:  opts.Checks,
		logger:  logger.With(zap.String("component", "api")),
	}

	g := gin.New()
	g.Use(gin.Recovery(), requestID(), requestLogger(s.logger), s.authenticate())

	g.GET("/healthz", s.healthz)
	if opts.Metrics != nil {
		g.GET("/metrics", gin.WrapH(observability.Handler(opts.Metrics)))
	}

	s.load(g)
	return g
}

func (s *Server) load(g *gin.Engine) {
	base := g.Group("/api/v1")

	lb := base.Group("/leaderboard")
	{
		lb.GET("", s.getLeaderboard)
		lb.GET("/movements", s.getMovements)
		lb.POST("/update", s.updateLeaderboard)
		lb.POST("/refresh", s.refreshLeaderboard)
	}

	base.GET("/history", s.getHistory)
	base.GET("/runs/:id/payouts", s.getRunPayouts)

	tr := base.Group("/traders")
	{
		tr.GET("", s.listTraders)
		tr.GET("/:trader", s.getTrader)
		tr.GET("/:trader/payouts", s.getTraderPayouts)
	}

	own := base.Group("/traders/:trader", requireCaller())
	{
		own.POST("/register", s.registerTrader)
		own.POST("/trades", s.recordTrade)
		own.POST("/stake", s.stakeTokens)
		own.POST("/fee-discount", s.calculateFeeDiscount)
	}

	admin := base.Group("/admin", requireCaller())
	{
		admin.POST("/leaderboard/initialize", s.initializeLeaderboard)
		admin.POST("/leaderboard/snapshot", s.snapshotLeaderboard)
		admin.POST("/pause", s.setEmergencyPause)
		admin.POST("/distribute", s.distributeRewards)
	}
}

func (s *Server) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	c.JSON(status, gin.H{"status": http.StatusText(status), "checks": results})
}
