// Package vault is an in-process token ledger. It stands in for the external
// token transfer service: reward vaults, stake vaults and trader wallets are
// plain named balances.
package vault

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"t2e-leaderboard/internal/rewards"
	"t2e-leaderboard/internal/safemath"
)

// ErrInsufficientFunds is returned when the source balance is below the amount.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Entry is one account balance.
type Entry struct {
	Account string `json:"account"`
	Balance uint64 `json:"balance"`
}

// Ledger holds balances keyed by account name.
type Ledger struct {
	mu       sync.Mutex
	balances map[string]uint64
}

var _ rewards.Transferrer = (*Ledger)(nil)

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{balances: make(map[string]uint64)}
}

// Mint credits amount to account.
func (l *Ledger) Mint(account string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	next, err := safemath.AddUint64(l.balances[account], amount)
	if err != nil {
		return fmt.Errorf("mint to %s: %w", account, err)
	}
	l.balances[account] = next
	return nil
}

// Balance returns the balance of account; unknown accounts hold zero.
func (l *Ledger) Balance(account string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account]
}

// Transfer moves amount from one account to another. Both balances change or
// neither does. Zero-amount transfers succeed.
func (l *Ledger) Transfer(ctx context.Context, from, to string, amount uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if from == "" || to == "" {
		return fmt.Errorf("transfer %d: empty account", amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	src := l.balances[from]
	if src < amount {
		return fmt.Errorf("transfer %d from %s (balance %d): %w", amount, from, src, ErrInsufficientFunds)
	}
	if from == to {
		return nil
	}
	dst, err := safemath.AddUint64(l.balances[to], amount)
	if err != nil {
		return fmt.Errorf("transfer %d to %s: %w", amount, to, err)
	}

	l.balances[from] = src - amount
	l.balances[to] = dst
	return nil
}

// Snapshot returns every non-empty balance sorted by account.
func (l *Ledger) Snapshot() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, 0, len(l.balances))
	for acc, bal := range l.balances {
		if bal > 0 {
			out = append(out, Entry{Account: acc, Balance: bal})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Account < out[j].Account })
	return out
}
