// Package idhash derives deterministic record identifiers.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"t2e-leaderboard/internal/domain"
)

// ComputePayoutID computes a deterministic payout_id using SHA256.
// Formula: SHA256(run_id|position|trader)
// Returns hex-encoded hash (64 characters).
func ComputePayoutID(runID string, position int, trader domain.Pubkey) string {
	data := fmt.Sprintf("%s|%d|%s", runID, position, trader)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
