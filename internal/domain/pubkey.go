package domain

import (
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// PubkeyLength is the size of a decoded Solana public key.
const PubkeyLength = 32

// Pubkey is a base58-encoded 32-byte account address. It is the opaque,
// unique key of every trader record.
type Pubkey string

// ParsePubkey validates a base58 address and returns it as a Pubkey.
func ParsePubkey(s string) (Pubkey, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidPubkey, s, err)
	}
	if len(raw) != PubkeyLength {
		return "", fmt.Errorf("%w: %q decodes to %d bytes", ErrInvalidPubkey, s, len(raw))
	}
	return Pubkey(s), nil
}

// PubkeyFromBytes encodes a raw 32-byte key.
func PubkeyFromBytes(b []byte) (Pubkey, error) {
	if len(b) != PubkeyLength {
		return "", fmt.Errorf("%w: %d bytes", ErrInvalidPubkey, len(b))
	}
	return Pubkey(base58.Encode(b)), nil
}

// Bytes returns the decoded key. Invalid keys decode to nil.
func (p Pubkey) Bytes() []byte {
	raw, err := base58.Decode(string(p))
	if err != nil || len(raw) != PubkeyLength {
		return nil
	}
	return raw
}

// IsOnCurve reports whether the key is a valid ed25519 point, i.e. an
// address that can sign. Program-derived addresses are off curve.
func (p Pubkey) IsOnCurve() bool {
	raw := p.Bytes()
	if raw == nil {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(raw)
	return err == nil
}

func (p Pubkey) String() string {
	return string(p)
}
