package domain

// Payout is one completed reward transfer of a distribution run.
type Payout struct {
	PayoutID      string // deterministic hash of (run_id, position, trader)
	RunID         string // distribution run identifier
	Position      int    // zero-based rank of the trader in the run
	Trader        Pubkey
	Destination   string // token account that received the reward
	Score         uint64 // ranking score used for the split
	Amount        uint64 // transferred amount, floor of score*pool/total
	DistributedAt int64  // unix seconds
}
