package rewards

import "t2e-leaderboard/internal/domain"

// SetEmergencyPause overwrites the circuit breaker of lb. It is idempotent.
func SetEmergencyPause(lb *domain.Leaderboard, paused bool) {
	lb.EmergencyPause = paused
}
