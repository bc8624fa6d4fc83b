package ingestion

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"t2e-leaderboard/internal/domain"
	"t2e-leaderboard/internal/solana"
)

// WSTradeSource turns program log notifications into trade events.
type WSTradeSource struct {
	ws       solana.WSClient
	programs []string
	logger   *zap.Logger
}

var _ TradeSource = (*WSTradeSource)(nil)

// NewWSTradeSource creates a source subscribed to the logs of programs.
func NewWSTradeSource(ws solana.WSClient, programs []string, logger *zap.Logger) *WSTradeSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSTradeSource{
		ws:       ws,
		programs: programs,
		logger:   logger.With(zap.String("source", "ws")),
	}
}

// Name implements TradeSource.
func (s *WSTradeSource) Name() string { return "ws" }

// Subscribe opens one logs subscription per program (some providers accept a
// single address per subscription) and merges them.
func (s *WSTradeSource) Subscribe(ctx context.Context) (<-chan domain.TradeEvent, error) {
	logsChannels := make([]<-chan solana.LogNotification, 0, len(s.programs))
	for _, program := range s.programs {
		ch, err := s.ws.SubscribeLogs(ctx, solana.LogsFilter{Mentions: []string{program}})
		if err != nil {
			return nil, err
		}
		logsChannels = append(logsChannels, ch)
		s.logger.Info("subscribed to program logs", zap.String("program", program))
	}

	merged := make(chan solana.LogNotification, 256)
	var wg sync.WaitGroup
	for _, ch := range logsChannels {
		wg.Add(1)
		go func(logsCh <-chan solana.LogNotification) {
			defer wg.Done()
			for notif := range logsCh {
				select {
				case merged <- notif:
				case <-ctx.Done():
					return
				}
			}
		}(ch)
	}
	go func() {
		wg.Wait()
		close(merged)
	}()

	events := make(chan domain.TradeEvent, 256)
	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case notif, ok := <-merged:
				if !ok {
					s.logger.Info("logs channels closed")
					return
				}
				if !s.emit(ctx, events, notif) {
					return
				}
			}
		}
	}()

	return events, nil
}

// emit forwards the trades in notif and reports false if ctx ended.
func (s *WSTradeSource) emit(ctx context.Context, out chan<- domain.TradeEvent, notif solana.LogNotification) bool {
	// Failed transactions did not execute their trades.
	if notif.Err != nil {
		return true
	}

	events, errs := ParseTradeLogs(notif.Signature, notif.Slot, notif.Logs)
	for _, err := range errs {
		s.logger.Warn("skipping malformed trade report", zap.Error(err))
	}

	for _, ev := range events {
		ev.Source = s.Name()
		select {
		case out <- ev:
		case <-ctx.Done():
			return false
		}
	}
	return true
}
