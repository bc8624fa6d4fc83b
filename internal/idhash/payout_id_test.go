package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"t2e-leaderboard/internal/domain"
)

const trader domain.Pubkey = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"

func TestComputePayoutID(t *testing.T) {
	got := ComputePayoutID("run-1", 0, trader)

	if len(got) != 64 {
		t.Errorf("ComputePayoutID() length = %d, want 64", len(got))
	}

	sum := sha256.Sum256([]byte("run-1|0|" + string(trader)))
	if want := hex.EncodeToString(sum[:]); got != want {
		t.Errorf("ComputePayoutID() = %s, want %s", got, want)
	}
}

func TestComputePayoutID_Deterministic(t *testing.T) {
	a := ComputePayoutID("run-1", 3, trader)
	b := ComputePayoutID("run-1", 3, trader)
	if a != b {
		t.Errorf("same inputs produced %s and %s", a, b)
	}
}

func TestComputePayoutID_DistinctInputs(t *testing.T) {
	base := ComputePayoutID("run-1", 0, trader)

	variants := map[string]string{
		"run":      ComputePayoutID("run-2", 0, trader),
		"position": ComputePayoutID("run-1", 1, trader),
		"trader":   ComputePayoutID("run-1", 0, "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"),
	}
	for name, id := range variants {
		if id == base {
			t.Errorf("changing %s did not change the id", name)
		}
	}
}
