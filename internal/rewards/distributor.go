package rewards

import (
	"context"
	"fmt"

	"t2e-leaderboard/internal/domain"
)

// Resolver maps a trader to the token account that receives its rewards.
// Implementations return an error wrapping domain.ErrTraderTokenAccountNotFound
// when the trader has none.
type Resolver interface {
	Resolve(ctx context.Context, trader domain.Pubkey) (string, error)
}

// Transferrer moves amount from one account to another.
type Transferrer interface {
	Transfer(ctx context.Context, from, to string, amount uint64) error
}

// Transfer is one executed payout.
type Transfer struct {
	Allocation
	Destination string
}

// Result describes a distribution run. Transfers lists only the payouts that
// were actually executed, in rank order.
type Result struct {
	Plan      *Plan
	Transfers []Transfer
}

// Distributor pays a Plan out of a reward vault.
type Distributor struct {
	resolver    Resolver
	transferrer Transferrer
	vault       string
}

// NewDistributor creates a Distributor paying from vault.
func NewDistributor(resolver Resolver, transferrer Transferrer, vault string) *Distributor {
	return &Distributor{
		resolver:    resolver,
		transferrer: transferrer,
		vault:       vault,
	}
}

// Distribute computes the plan for lb and transfers every allocation.
//
// All destinations are resolved before the first transfer, so a trader with no
// token account aborts the run with nothing paid. A transfer failure aborts the
// run as well; the returned Result then holds the transfers that already went
// through, since those cannot be undone.
func (d *Distributor) Distribute(ctx context.Context, lb *domain.Leaderboard, topN int, pool uint64, now int64) (*Result, error) {
	plan, err := NewPlan(lb, topN, pool, now)
	if err != nil {
		return nil, err
	}

	dests := make([]string, len(plan.Allocations))
	for i, a := range plan.Allocations {
		dest, err := d.resolver.Resolve(ctx, a.Trader)
		if err != nil {
			return nil, fmt.Errorf("resolve destination for %s: %w", a.Trader, err)
		}
		if dest == "" {
			return nil, fmt.Errorf("resolve destination for %s: %w", a.Trader, domain.ErrTraderTokenAccountNotFound)
		}
		dests[i] = dest
	}

	res := &Result{Plan: plan, Transfers: make([]Transfer, 0, len(plan.Allocations))}
	for i, a := range plan.Allocations {
		if err := d.transferrer.Transfer(ctx, d.vault, dests[i], a.Amount); err != nil {
			return res, fmt.Errorf("transfer %d to %s: %w", a.Amount, dests[i], err)
		}
		res.Transfers = append(res.Transfers, Transfer{Allocation: a, Destination: dests[i]})
	}

	return res, nil
}
