package domain

import "errors"

// Error kinds surfaced by the scoring, ranking and reward engine.
// All of them abort the enclosing operation with no mutation committed.
var (
	// ErrOverflow is returned when a checked arithmetic operation would wrap.
	ErrOverflow = errors.New("arithmetic overflow")

	// ErrTradeSpamDetected is returned when a trade arrives less than
	// MinTradeInterval seconds after the trader's previous trade.
	ErrTradeSpamDetected = errors.New("trade spam detected: wait before recording another trade")

	// ErrUpdateTooSoon is returned when the leaderboard is recomputed before
	// the minimum update interval has elapsed.
	ErrUpdateTooSoon = errors.New("leaderboard update attempted too soon")

	// ErrEmergencyPaused is returned by reward distribution while the
	// circuit breaker is engaged.
	ErrEmergencyPaused = errors.New("emergency pause is active")

	// ErrNoValidScores is returned when the eligible traders have a zero total score.
	ErrNoValidScores = errors.New("no valid ranking scores for reward distribution")

	// ErrTraderTokenAccountNotFound is returned when a ranked trader has no
	// resolvable payout destination.
	ErrTraderTokenAccountNotFound = errors.New("trader token account not found")

	// ErrInvalidPubkey is returned for malformed trader identities.
	ErrInvalidPubkey = errors.New("invalid pubkey")
)
