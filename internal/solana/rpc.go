package solana

import "context"

// RPCClient defines the Solana JSON-RPC calls used for payout resolution.
type RPCClient interface {
	// GetTokenAccountsByOwner lists the token accounts of owner holding mint.
	GetTokenAccountsByOwner(ctx context.Context, owner, mint string) ([]TokenAccount, error)

	// GetAccountInfo retrieves an account. Returns nil if it does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetSlot retrieves the current slot.
	GetSlot(ctx context.Context) (int64, error)
}
