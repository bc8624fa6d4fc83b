package authz

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"t2e-leaderboard/internal/domain"
)

// TokenIssuer signs and verifies HS256 bearer tokens whose subject is a
// trader or administrator pubkey.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer. ttl bounds the lifetime of issued tokens.
func NewTokenIssuer(secret, issuer string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue returns a signed token for subject.
func (i *TokenIssuer) Issue(subject domain.Pubkey) (string, error) {
	now := i.now()
	claims := jwt.RegisteredClaims{
		Subject:   string(subject),
		Issuer:    i.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies token and returns its subject.
func (i *TokenIssuer) Parse(token string) (domain.Pubkey, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("parse token: %v: %w", err, ErrUnauthorized)
	}
	if !parsed.Valid {
		return "", fmt.Errorf("invalid token: %w", ErrUnauthorized)
	}
	if i.issuer != "" && !claims.VerifyIssuer(i.issuer, true) {
		return "", fmt.Errorf("unexpected issuer %q: %w", claims.Issuer, ErrUnauthorized)
	}

	subject, err := domain.ParsePubkey(claims.Subject)
	if err != nil {
		return "", errors.Join(err, ErrUnauthorized)
	}
	return subject, nil
}
