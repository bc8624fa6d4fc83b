// Package authz decides who may act on a trader record or on the shared
// leaderboard, and carries the caller identity through a context.
package authz

import (
	"context"
	"errors"
	"fmt"

	"t2e-leaderboard/internal/domain"
)

// ErrUnauthorized is returned when the caller may not perform an operation.
var ErrUnauthorized = errors.New("unauthorized")

// Principal is the identity an operation runs as.
type Principal struct {
	Subject domain.Pubkey // empty for the system principal
	System  bool          // trusted in-process caller (ingestion, scheduler)
}

func (p Principal) String() string {
	if p.System {
		return "system"
	}
	return string(p.Subject)
}

type principalKey struct{}

// WithCaller returns a context carrying subject as the caller.
func WithCaller(ctx context.Context, subject domain.Pubkey) context.Context {
	return context.WithValue(ctx, principalKey{}, Principal{Subject: subject})
}

// WithSystem returns a context running as the system principal.
func WithSystem(ctx context.Context) context.Context {
	return context.WithValue(ctx, principalKey{}, Principal{System: true})
}

// CallerFrom extracts the principal set by WithCaller or WithSystem.
func CallerFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Authorizer checks the caller in ctx before an operation runs.
type Authorizer interface {
	// AuthorizeTrader allows the trader itself.
	AuthorizeTrader(ctx context.Context, trader domain.Pubkey) error
	// AuthorizeAdmin allows administrators.
	AuthorizeAdmin(ctx context.Context) error
}

// Static authorizes against a fixed administrator set. The system principal
// passes every check.
type Static struct {
	admins map[domain.Pubkey]struct{}
}

// NewStatic creates a Static authorizer.
func NewStatic(admins ...domain.Pubkey) *Static {
	set := make(map[domain.Pubkey]struct{}, len(admins))
	for _, a := range admins {
		set[a] = struct{}{}
	}
	return &Static{admins: set}
}

// IsAdmin reports whether subject is an administrator.
func (s *Static) IsAdmin(subject domain.Pubkey) bool {
	_, ok := s.admins[subject]
	return ok
}

// AuthorizeTrader allows the trader itself and the system principal.
func (s *Static) AuthorizeTrader(ctx context.Context, trader domain.Pubkey) error {
	p, ok := CallerFrom(ctx)
	if !ok {
		return fmt.Errorf("no caller: %w", ErrUnauthorized)
	}
	if p.System || (p.Subject != "" && p.Subject == trader) {
		return nil
	}
	return fmt.Errorf("%s may not act for %s: %w", p, trader, ErrUnauthorized)
}

// AuthorizeAdmin allows configured administrators and the system principal.
func (s *Static) AuthorizeAdmin(ctx context.Context) error {
	p, ok := CallerFrom(ctx)
	if !ok {
		return fmt.Errorf("no caller: %w", ErrUnauthorized)
	}
	if p.System || s.IsAdmin(p.Subject) {
		return nil
	}
	return fmt.Errorf("%s is not an administrator: %w", p, ErrUnauthorized)
}

var _ Authorizer = (*Static)(nil)
