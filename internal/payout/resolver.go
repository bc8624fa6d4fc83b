// Package payout resolves the token account that receives a trader's rewards.
package payout

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"t2e-leaderboard/internal/domain"
	"t2e-leaderboard/internal/rewards"
	"t2e-leaderboard/internal/solana"
)

// StaticResolver serves destinations from a fixed map.
type StaticResolver struct {
	destinations map[domain.Pubkey]string
}

var _ rewards.Resolver = (*StaticResolver)(nil)

// NewStaticResolver creates a resolver over a copy of destinations.
func NewStaticResolver(destinations map[domain.Pubkey]string) *StaticResolver {
	r := &StaticResolver{destinations: make(map[domain.Pubkey]string, len(destinations))}
	for trader, dest := range destinations {
		r.destinations[trader] = dest
	}
	return r
}

// Resolve returns the destination registered for trader.
func (r *StaticResolver) Resolve(_ context.Context, trader domain.Pubkey) (string, error) {
	dest, ok := r.destinations[trader]
	if !ok || dest == "" {
		return "", fmt.Errorf("trader %s: %w", trader, domain.ErrTraderTokenAccountNotFound)
	}
	return dest, nil
}

// RPCResolverConfig configures RPCResolver.
type RPCResolverConfig struct {
	// Mint is the reward token mint.
	Mint domain.Pubkey
	// CacheSize bounds the number of cached destinations.
	CacheSize int
	// CacheTTL is how long a resolved destination is reused.
	CacheTTL time.Duration
	Logger   *zap.Logger
}

// RPCResolver looks destinations up on chain. The associated token account
// of the trader is preferred; otherwise the first unfrozen account holding
// the mint is used. The picked account must still exist and be owned by the
// token program. Only successful lookups are cached.
type RPCResolver struct {
	rpc    solana.RPCClient
	mint   domain.Pubkey
	cache  *expirable.LRU[domain.Pubkey, string]
	logger *zap.Logger
}

var _ rewards.Resolver = (*RPCResolver)(nil)

// NewRPCResolver creates a resolver backed by rpc.
func NewRPCResolver(rpc solana.RPCClient, cfg RPCResolverConfig) (*RPCResolver, error) {
	if _, err := domain.ParsePubkey(string(cfg.Mint)); err != nil {
		return nil, fmt.Errorf("reward mint: %w", err)
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = 1024
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RPCResolver{
		rpc:    rpc,
		mint:   cfg.Mint,
		cache:  expirable.NewLRU[domain.Pubkey, string](size, nil, ttl),
		logger: logger.With(zap.String("component", "payout_resolver")),
	}, nil
}

// Resolve returns the reward token account of trader.
func (r *RPCResolver) Resolve(ctx context.Context, trader domain.Pubkey) (string, error) {
	if dest, ok := r.cache.Get(trader); ok {
		return dest, nil
	}

	ata, err := solana.AssociatedTokenAddress(trader, r.mint)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", trader, err)
	}

	accounts, err := r.rpc.GetTokenAccountsByOwner(ctx, string(trader), string(r.mint))
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", trader, err)
	}

	dest := pickAccount(accounts, string(ata))
	if dest == "" {
		r.logger.Info("no reward token account",
			zap.String("trader", string(trader)),
			zap.Int("accounts", len(accounts)))
		return "", fmt.Errorf("trader %s: %w", trader, domain.ErrTraderTokenAccountNotFound)
	}

	info, err := r.rpc.GetAccountInfo(ctx, dest)
	if err != nil {
		return "", fmt.Errorf("resolve %s: account %s: %w", trader, dest, err)
	}
	if info == nil || info.Owner != string(solana.TokenProgramID) {
		r.logger.Warn("reward token account not usable",
			zap.String("trader", string(trader)),
			zap.String("account", dest),
			zap.Bool("exists", info != nil))
		return "", fmt.Errorf("trader %s: account %s: %w", trader, dest, domain.ErrTraderTokenAccountNotFound)
	}

	r.cache.Add(trader, dest)
	return dest, nil
}

// Check reports whether the RPC node answers.
func (r *RPCResolver) Check(ctx context.Context) error {
	if _, err := r.rpc.GetSlot(ctx); err != nil {
		return fmt.Errorf("get slot: %w", err)
	}
	return nil
}

func pickAccount(accounts []solana.TokenAccount, ata string) string {
	first := ""
	for _, acc := range accounts {
		if acc.Frozen {
			continue
		}
		if acc.Pubkey == ata {
			return ata
		}
		if first == "" {
			first = acc.Pubkey
		}
	}
	return first
}
