package solana

import (
	"errors"
	"testing"

	"t2e-leaderboard/internal/domain"
)

const (
	testOwner domain.Pubkey = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"
	testMint  domain.Pubkey = "So11111111111111111111111111111111111111112"
)

func TestFindProgramAddress_OffCurveAndReproducible(t *testing.T) {
	seeds := [][]byte{testOwner.Bytes(), TokenProgramID.Bytes(), testMint.Bytes()}

	addr, bump, err := FindProgramAddress(seeds, AssociatedTokenAccountProgramID)
	if err != nil {
		t.Fatalf("FindProgramAddress: %v", err)
	}
	if addr.IsOnCurve() {
		t.Errorf("derived address %s is on curve", addr)
	}

	again, err := CreateProgramAddress(append(seeds, []byte{bump}), AssociatedTokenAccountProgramID)
	if err != nil {
		t.Fatalf("CreateProgramAddress with found bump: %v", err)
	}
	if again != addr {
		t.Errorf("expected %s, got %s", addr, again)
	}
}

func TestAssociatedTokenAddress(t *testing.T) {
	a, err := AssociatedTokenAddress(testOwner, testMint)
	if err != nil {
		t.Fatalf("AssociatedTokenAddress: %v", err)
	}
	b, err := AssociatedTokenAddress(testOwner, testMint)
	if err != nil {
		t.Fatalf("AssociatedTokenAddress: %v", err)
	}
	if a != b {
		t.Errorf("derivation is not deterministic: %s vs %s", a, b)
	}
	if _, err := domain.ParsePubkey(string(a)); err != nil {
		t.Errorf("derived address is not a valid pubkey: %v", err)
	}

	other, err := AssociatedTokenAddress("9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin", testMint)
	if err != nil {
		t.Fatalf("AssociatedTokenAddress: %v", err)
	}
	if other == a {
		t.Error("different owners must derive different addresses")
	}
}

func TestAssociatedTokenAddress_InvalidInput(t *testing.T) {
	if _, err := AssociatedTokenAddress("not-base58!", testMint); !errors.Is(err, domain.ErrInvalidPubkey) {
		t.Errorf("expected ErrInvalidPubkey for owner, got %v", err)
	}
	if _, err := AssociatedTokenAddress(testOwner, "short"); !errors.Is(err, domain.ErrInvalidPubkey) {
		t.Errorf("expected ErrInvalidPubkey for mint, got %v", err)
	}
}

func TestCreateProgramAddress_SeedTooLong(t *testing.T) {
	long := make([]byte, maxSeedLength+1)
	if _, err := CreateProgramAddress([][]byte{long}, AssociatedTokenAccountProgramID); err == nil {
		t.Error("expected error for oversized seed")
	}
}
