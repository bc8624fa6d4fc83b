package authz

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"t2e-leaderboard/internal/domain"
)

const (
	alice = domain.Pubkey("4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T")
	bob   = domain.Pubkey("9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin")
	admin = domain.Pubkey("So11111111111111111111111111111111111111112")
)

func TestStatic_AuthorizeTrader(t *testing.T) {
	a := NewStatic(admin)

	tests := []struct {
		name    string
		ctx     context.Context
		trader  domain.Pubkey
		wantErr bool
	}{
		{"self", WithCaller(context.Background(), alice), alice, false},
		{"other trader", WithCaller(context.Background(), bob), alice, true},
		{"admin is not the trader", WithCaller(context.Background(), admin), alice, true},
		{"system", WithSystem(context.Background()), alice, false},
		{"anonymous", context.Background(), alice, true},
		{"empty subject", WithCaller(context.Background(), ""), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.AuthorizeTrader(tt.ctx, tt.trader)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnauthorized)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStatic_AuthorizeAdmin(t *testing.T) {
	a := NewStatic(admin)

	assert.NoError(t, a.AuthorizeAdmin(WithCaller(context.Background(), admin)))
	assert.NoError(t, a.AuthorizeAdmin(WithSystem(context.Background())))
	assert.ErrorIs(t, a.AuthorizeAdmin(WithCaller(context.Background(), alice)), ErrUnauthorized)
	assert.ErrorIs(t, a.AuthorizeAdmin(context.Background()), ErrUnauthorized)
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", "t2e", time.Hour)

	token, err := issuer.Issue(alice)
	require.NoError(t, err)

	subject, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, alice, subject)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	issuer := NewTokenIssuer("secret", "t2e", time.Hour)
	good, err := issuer.Issue(alice)
	require.NoError(t, err)

	expired := NewTokenIssuer("secret", "t2e", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Issue(alice)
	require.NoError(t, err)

	otherIssuer, err := NewTokenIssuer("secret", "someone-else", time.Hour).Issue(alice)
	require.NoError(t, err)

	badSubject, err := issuer.Issue("not-a-pubkey")
	require.NoError(t, err)

	tests := map[string]string{
		"wrong secret": mustIssue(t, NewTokenIssuer("other", "t2e", time.Hour), alice),
		"expired":      old,
		"wrong issuer": otherIssuer,
		"bad subject":  badSubject,
		"garbage":      "not.a.token",
		"tampered":     good[:len(good)-2] + "xx",
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := issuer.Parse(token)
			assert.ErrorIs(t, err, ErrUnauthorized)
		})
	}
}

func mustIssue(t *testing.T, i *TokenIssuer, subject domain.Pubkey) string {
	t.Helper()
	token, err := i.Issue(subject)
	require.NoError(t, err)
	return token
}
