package ingestion

import (
	"context"

	"t2e-leaderboard/internal/domain"
)

// TradeSource provides a live stream of trade events.
type TradeSource interface {
	// Name identifies the source in logs and metrics.
	Name() string

	// Subscribe starts the stream. The channel is closed when ctx is
	// cancelled or the underlying feed ends.
	Subscribe(ctx context.Context) (<-chan domain.TradeEvent, error)
}
