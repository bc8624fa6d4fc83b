package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"t2e-leaderboard/internal/authz"
	"t2e-leaderboard/internal/config"
	"t2e-leaderboard/internal/domain"
	"t2e-leaderboard/internal/engine"
	"t2e-leaderboard/internal/observability"
	"t2e-leaderboard/internal/payout"
	"t2e-leaderboard/internal/rewards"
	"t2e-leaderboard/internal/solana"
	"t2e-leaderboard/internal/vault"
)

// Runtime is the engine with the collaborators the commands need to reach.
type Runtime struct {
	Engine   *engine.Engine
	Ledger   *vault.Ledger
	Metrics  *observability.Metrics
	Registry *prometheus.Registry
	Tokens   *authz.TokenIssuer
	// Checks holds the reachability checks of external services the engine
	// calls, keyed by service name.
	Checks map[string]Check
}

// NewRuntime builds the engine over stores.
//
// Transfers go through an in-process ledger seeded from rewards.balances.
// Payout destinations are looked up on chain when an RPC endpoint and mint
// are configured, and read from rewards.destinations otherwise.
func NewRuntime(cfg *config.Config, stores *Stores, logger *zap.Logger) (*Runtime, error) {
	admins, err := parsePubkeys(cfg.Auth.Admins)
	if err != nil {
		return nil, fmt.Errorf("auth.admins: %w", err)
	}

	ledger := vault.NewLedger()
	for account, amount := range cfg.Rewards.Balances {
		if err := ledger.Mint(account, amount); err != nil {
			return nil, fmt.Errorf("seed balance of %s: %w", account, err)
		}
	}

	resolver, err := newResolver(cfg, logger)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(observability.DefaultNamespace, reg)

	e, err := engine.New(engine.Options{
		TraderStats: stores.TraderStats,
		Leaderboard: stores.Leaderboard,
		History:     stores.History,
		Payouts:     stores.Payouts,
		Authorizer:  authz.NewStatic(admins...),
		Resolver:    resolver,
		Transferrer: ledger,
		RewardVault: cfg.Rewards.RewardVault,
		StakeVault:  cfg.Rewards.StakeVault,
		Metrics:     metrics,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	checks := make(map[string]Check)
	if rpc, ok := resolver.(*payout.RPCResolver); ok {
		checks["solana_rpc"] = rpc.Check
	}

	return &Runtime{
		Engine:   e,
		Ledger:   ledger,
		Metrics:  metrics,
		Registry: reg,
		Tokens:   NewTokenIssuer(cfg.Auth),
		Checks:   checks,
	}, nil
}

// NewTokenIssuer builds the bearer token issuer from cfg.
func NewTokenIssuer(cfg config.AuthConfig) *authz.TokenIssuer {
	return authz.NewTokenIssuer(cfg.JWTSecret, cfg.Issuer, cfg.TokenTTL)
}

func newResolver(cfg *config.Config, logger *zap.Logger) (rewards.Resolver, error) {
	if cfg.Solana.RPCEndpoint != "" && cfg.Solana.Mint != "" {
		mint, err := domain.ParsePubkey(cfg.Solana.Mint)
		if err != nil {
			return nil, fmt.Errorf("solana.mint: %w", err)
		}
		rpc := solana.NewHTTPClient(cfg.Solana.RPCEndpoint,
			solana.WithRateLimit(cfg.Solana.RateLimit, cfg.Solana.RateBurst))
		return payout.NewRPCResolver(rpc, payout.RPCResolverConfig{
			Mint:      mint,
			CacheSize: cfg.Solana.CacheSize,
			CacheTTL:  cfg.Solana.CacheTTL,
			Logger:    logger,
		})
	}

	destinations := make(map[domain.Pubkey]string, len(cfg.Rewards.Destinations))
	for trader, dest := range cfg.Rewards.Destinations {
		pk, err := domain.ParsePubkey(trader)
		if err != nil {
			return nil, fmt.Errorf("rewards.destinations: %w", err)
		}
		destinations[pk] = dest
	}
	return payout.NewStaticResolver(destinations), nil
}

func parsePubkeys(in []string) ([]domain.Pubkey, error) {
	out := make([]domain.Pubkey, 0, len(in))
	for _, s := range in {
		pk, err := domain.ParsePubkey(s)
		if err != nil {
			return nil, err
		}
		out = append(out, pk)
	}
	return out, nil
}
