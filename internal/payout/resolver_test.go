package payout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"t2e-leaderboard/internal/domain"
	"t2e-leaderboard/internal/solana"
)

const (
	traderA domain.Pubkey = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"
	traderB domain.Pubkey = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
	mint    domain.Pubkey = "So11111111111111111111111111111111111111112"
)

type fakeRPC struct {
	mu       sync.Mutex
	accounts map[string][]solana.TokenAccount
	// infos overrides the account info of a pubkey; a nil entry means the
	// account is closed. Unlisted accounts exist and belong to the token program.
	infos   map[string]*solana.AccountInfo
	infoErr error
	err     error
	slot    int64
	slotErr error
	calls   int
}

func (f *fakeRPC) GetTokenAccountsByOwner(_ context.Context, owner, _ string) ([]solana.TokenAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.accounts[owner], nil
}

func (f *fakeRPC) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	if info, ok := f.infos[pubkey]; ok {
		return info, nil
	}
	return &solana.AccountInfo{Lamports: 2039280, Owner: string(solana.TokenProgramID)}, nil
}

func (f *fakeRPC) GetSlot(context.Context) (int64, error) {
	return f.slot, f.slotErr
}

func TestStaticResolver(t *testing.T) {
	r := NewStaticResolver(map[domain.Pubkey]string{traderA: "destA"})

	dest, err := r.Resolve(context.Background(), traderA)
	require.NoError(t, err)
	assert.Equal(t, "destA", dest)

	_, err = r.Resolve(context.Background(), traderB)
	assert.ErrorIs(t, err, domain.ErrTraderTokenAccountNotFound)
}

func TestRPCResolver_PrefersAssociatedAccount(t *testing.T) {
	ata, err := solana.AssociatedTokenAddress(traderA, mint)
	require.NoError(t, err)

	rpc := &fakeRPC{accounts: map[string][]solana.TokenAccount{
		string(traderA): {
			{Pubkey: "other", Mint: string(mint), Owner: string(traderA)},
			{Pubkey: string(ata), Mint: string(mint), Owner: string(traderA)},
		},
	}}
	r, err := NewRPCResolver(rpc, RPCResolverConfig{Mint: mint})
	require.NoError(t, err)

	dest, err := r.Resolve(context.Background(), traderA)
	require.NoError(t, err)
	assert.Equal(t, string(ata), dest)
}

func TestRPCResolver_FallsBackToFirstUnfrozen(t *testing.T) {
	rpc := &fakeRPC{accounts: map[string][]solana.TokenAccount{
		string(traderA): {
			{Pubkey: "frozen", Frozen: true},
			{Pubkey: "acc2"},
			{Pubkey: "acc3"},
		},
	}}
	r, err := NewRPCResolver(rpc, RPCResolverConfig{Mint: mint})
	require.NoError(t, err)

	dest, err := r.Resolve(context.Background(), traderA)
	require.NoError(t, err)
	assert.Equal(t, "acc2", dest)
}

func TestRPCResolver_NotFoundIsNotCached(t *testing.T) {
	rpc := &fakeRPC{accounts: map[string][]solana.TokenAccount{
		string(traderA): {{Pubkey: "frozen", Frozen: true}},
	}}
	r, err := NewRPCResolver(rpc, RPCResolverConfig{Mint: mint})
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), traderA)
	assert.ErrorIs(t, err, domain.ErrTraderTokenAccountNotFound)
	_, err = r.Resolve(context.Background(), traderA)
	assert.ErrorIs(t, err, domain.ErrTraderTokenAccountNotFound)
	assert.Equal(t, 2, rpc.calls)
}

func TestRPCResolver_CachesHits(t *testing.T) {
	rpc := &fakeRPC{accounts: map[string][]solana.TokenAccount{
		string(traderA): {{Pubkey: "acc1"}},
	}}
	r, err := NewRPCResolver(rpc, RPCResolverConfig{Mint: mint})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		dest, err := r.Resolve(context.Background(), traderA)
		require.NoError(t, err)
		assert.Equal(t, "acc1", dest)
	}
	assert.Equal(t, 1, rpc.calls)
}

func TestRPCResolver_ClosedAccountIsNotCached(t *testing.T) {
	rpc := &fakeRPC{
		accounts: map[string][]solana.TokenAccount{
			string(traderA): {{Pubkey: "closed"}},
			string(traderB): {{Pubkey: "foreign"}},
		},
		infos: map[string]*solana.AccountInfo{
			"closed":  nil,
			"foreign": {Lamports: 1, Owner: "11111111111111111111111111111111"},
		},
	}
	r, err := NewRPCResolver(rpc, RPCResolverConfig{Mint: mint})
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), traderA)
	assert.ErrorIs(t, err, domain.ErrTraderTokenAccountNotFound)
	_, err = r.Resolve(context.Background(), traderB)
	assert.ErrorIs(t, err, domain.ErrTraderTokenAccountNotFound)

	delete(rpc.infos, "closed")
	dest, err := r.Resolve(context.Background(), traderA)
	require.NoError(t, err)
	assert.Equal(t, "closed", dest)
	assert.Equal(t, 3, rpc.calls)
}

func TestRPCResolver_AccountInfoErrorPropagates(t *testing.T) {
	infoErr := errors.New("rate limited")
	rpc := &fakeRPC{
		accounts: map[string][]solana.TokenAccount{string(traderA): {{Pubkey: "acc1"}}},
		infoErr:  infoErr,
	}
	r, err := NewRPCResolver(rpc, RPCResolverConfig{Mint: mint})
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), traderA)
	assert.ErrorIs(t, err, infoErr)
	assert.NotErrorIs(t, err, domain.ErrTraderTokenAccountNotFound)
}

func TestRPCResolver_Check(t *testing.T) {
	rpc := &fakeRPC{slot: 250000000}
	r, err := NewRPCResolver(rpc, RPCResolverConfig{Mint: mint})
	require.NoError(t, err)
	require.NoError(t, r.Check(context.Background()))

	rpc.slotErr = errors.New("connection refused")
	assert.ErrorIs(t, r.Check(context.Background()), rpc.slotErr)
}

func TestRPCResolver_RPCErrorPropagates(t *testing.T) {
	rpcErr := errors.New("node unavailable")
	r, err := NewRPCResolver(&fakeRPC{err: rpcErr}, RPCResolverConfig{Mint: mint})
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), traderA)
	assert.ErrorIs(t, err, rpcErr)
	assert.NotErrorIs(t, err, domain.ErrTraderTokenAccountNotFound)
}

func TestNewRPCResolver_InvalidMint(t *testing.T) {
	_, err := NewRPCResolver(&fakeRPC{}, RPCResolverConfig{Mint: "bad"})
	assert.ErrorIs(t, err, domain.ErrInvalidPubkey)
}
