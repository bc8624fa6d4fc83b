package solana

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"t2e-leaderboard/internal/domain"
)

// Well-known program ids.
const (
	TokenProgramID                  domain.Pubkey = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	AssociatedTokenAccountProgramID domain.Pubkey = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"
)

const (
	maxSeedLength = 32
	maxSeeds      = 16
	pdaMarker     = "ProgramDerivedAddress"
)

// ErrNoViableBump is returned when no bump seed yields an off-curve address.
var ErrNoViableBump = errors.New("unable to find a viable program address bump seed")

// CreateProgramAddress hashes seeds with the program id. The result must lie
// off the ed25519 curve so that no private key exists for it.
func CreateProgramAddress(seeds [][]byte, program domain.Pubkey) (domain.Pubkey, error) {
	if len(seeds) > maxSeeds {
		return "", fmt.Errorf("too many seeds: %d", len(seeds))
	}
	programBytes := program.Bytes()
	if programBytes == nil {
		return "", fmt.Errorf("program id %q: %w", program, domain.ErrInvalidPubkey)
	}

	h := sha256.New()
	for _, s := range seeds {
		if len(s) > maxSeedLength {
			return "", fmt.Errorf("seed length %d exceeds %d", len(s), maxSeedLength)
		}
		h.Write(s)
	}
	h.Write(programBytes)
	h.Write([]byte(pdaMarker))

	addr, err := domain.PubkeyFromBytes(h.Sum(nil))
	if err != nil {
		return "", err
	}
	if addr.IsOnCurve() {
		return "", errors.New("derived address is on curve")
	}
	return addr, nil
}

// FindProgramAddress searches bump seeds from 255 down for the first
// off-curve address.
func FindProgramAddress(seeds [][]byte, program domain.Pubkey) (domain.Pubkey, uint8, error) {
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)

	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{byte(bump)}
		addr, err := CreateProgramAddress(withBump, program)
		if err == nil {
			return addr, uint8(bump), nil
		}
		if errors.Is(err, domain.ErrInvalidPubkey) {
			return "", 0, err
		}
	}
	return "", 0, ErrNoViableBump
}

// AssociatedTokenAddress derives the canonical token account of owner for mint.
func AssociatedTokenAddress(owner, mint domain.Pubkey) (domain.Pubkey, error) {
	ownerBytes, mintBytes := owner.Bytes(), mint.Bytes()
	if ownerBytes == nil {
		return "", fmt.Errorf("owner %q: %w", owner, domain.ErrInvalidPubkey)
	}
	if mintBytes == nil {
		return "", fmt.Errorf("mint %q: %w", mint, domain.ErrInvalidPubkey)
	}

	addr, _, err := FindProgramAddress(
		[][]byte{ownerBytes, TokenProgramID.Bytes(), mintBytes},
		AssociatedTokenAccountProgramID,
	)
	if err != nil {
		return "", fmt.Errorf("derive associated token address: %w", err)
	}
	return addr, nil
}
