package ingestion

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"t2e-leaderboard/internal/authz"
	"t2e-leaderboard/internal/domain"
	"t2e-leaderboard/internal/storage"
)

// ErrSourcesClosed is returned by Run when every source has ended.
var ErrSourcesClosed = errors.New("all trade sources closed")

// Outcomes reported for every handled trade.
const (
	OutcomeAccepted      = "accepted"
	OutcomeSpam          = "spam"
	OutcomeUnknownTrader = "unknown_trader"
	OutcomeOverflow      = "overflow"
	OutcomeError         = "error"
)

// TradeRecorder applies a trade to the stored statistics of its trader.
type TradeRecorder interface {
	RecordTrade(ctx context.Context, ev domain.TradeEvent) (domain.TraderStats, error)
}

// Observer is notified of every handled trade.
type Observer interface {
	TradeIngested(source, outcome string)
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Recorder TradeRecorder
	Sources  []TradeSource
	Observer Observer
	// SlotLagWindow is how many slots to buffer for ordering. Default: 2.
	SlotLagWindow int64
	// FlushInterval forces buffered slots out. Default: 5s.
	FlushInterval time.Duration
	Logger        *zap.Logger
}

// RunnerStats counts handled trades.
type RunnerStats struct {
	Accepted int64
	Rejected int64
	Failed   int64
}

// Runner feeds trade events from every source into the recorder.
//
// Events carrying a slot are held until the slot is SlotLagWindow behind
// the highest slot seen and then applied in (slot, signature, index) order.
// Events without a slot are applied on arrival. Rejections never stop the
// runner; they are counted and logged.
type Runner struct {
	recorder      TradeRecorder
	sources       []TradeSource
	observer      Observer
	slotLagWindow int64
	flushInterval time.Duration
	logger        *zap.Logger

	buffer      map[int64][]domain.TradeEvent
	highestSlot int64

	accepted atomic.Int64
	rejected atomic.Int64
	failed   atomic.Int64
}

// NewRunner creates a new ingestion runner.
func NewRunner(opts RunnerOptions) *Runner {
	slotLagWindow := opts.SlotLagWindow
	if slotLagWindow == 0 {
		slotLagWindow = 2
	}
	flushInterval := opts.FlushInterval
	if flushInterval == 0 {
		flushInterval = 5 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Runner{
		recorder:      opts.Recorder,
		sources:       opts.Sources,
		observer:      opts.Observer,
		slotLagWindow: slotLagWindow,
		flushInterval: flushInterval,
		logger:        logger.With(zap.String("component", "ingestion")),
		buffer:        make(map[int64][]domain.TradeEvent),
	}
}

// Run subscribes to every source and blocks until ctx is cancelled or all
// sources end.
func (r *Runner) Run(ctx context.Context) error {
	merged := make(chan domain.TradeEvent, 256)
	var wg sync.WaitGroup

	for _, src := range r.sources {
		ch, err := src.Subscribe(ctx)
		if err != nil {
			return err
		}
		r.logger.Info("subscribed to trade source", zap.String("source", src.Name()))

		wg.Add(1)
		go func(ch <-chan domain.TradeEvent) {
			defer wg.Done()
			for ev := range ch {
				select {
				case merged <- ev:
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

	flushTicker := time.NewTicker(r.flushInterval)
	defer flushTicker.Stop()

	r.logger.Info("runner started",
		zap.Int("sources", len(r.sources)),
		zap.Int64("slot_lag_window", r.slotLagWindow),
		zap.Duration("flush_interval", r.flushInterval))

	for {
		select {
		case <-ctx.Done():
			r.drain()
			r.logger.Info("runner stopping", zap.Any("stats", r.Stats()))
			return ctx.Err()

		case ev, ok := <-merged:
			if !ok {
				r.drain()
				return ErrSourcesClosed
			}
			r.bufferEvent(ctx, ev)

		case <-flushTicker.C:
			r.processFinalizedSlots(ctx)
		}
	}
}

// Stats returns current runner statistics.
func (r *Runner) Stats() RunnerStats {
	return RunnerStats{
		Accepted: r.accepted.Load(),
		Rejected: r.rejected.Load(),
		Failed:   r.failed.Load(),
	}
}

func (r *Runner) bufferEvent(ctx context.Context, ev domain.TradeEvent) {
	if ev.Slot <= 0 {
		r.handle(ctx, ev)
		return
	}

	r.buffer[ev.Slot] = append(r.buffer[ev.Slot], ev)

	if ev.Slot > r.highestSlot {
		r.highestSlot = ev.Slot
		r.processFinalizedSlots(ctx)
	} else if ev.Slot <= r.highestSlot-r.slotLagWindow {
		// Late event for an already finalized slot.
		r.processSlot(ctx, ev.Slot)
	}
}

func (r *Runner) processFinalizedSlots(ctx context.Context) {
	r.processSlotsUpTo(ctx, r.highestSlot-r.slotLagWindow)
}

func (r *Runner) processSlotsUpTo(ctx context.Context, finalized int64) {
	slots := make([]int64, 0, len(r.buffer))
	for slot := range r.buffer {
		if slot <= finalized {
			slots = append(slots, slot)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })

	for _, slot := range slots {
		r.processSlot(ctx, slot)
	}
}

func (r *Runner) processSlot(ctx context.Context, slot int64) {
	events := r.buffer[slot]
	delete(r.buffer, slot)

	SortTradeEvents(events)
	for _, ev := range events {
		r.handle(ctx, ev)
	}
}

// drain applies everything still buffered on a context detached from
// the cancelled run.
func (r *Runner) drain() {
	if len(r.buffer) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	r.processSlotsUpTo(ctx, r.highestSlot)
}

func (r *Runner) handle(ctx context.Context, ev domain.TradeEvent) {
	_, err := r.recorder.RecordTrade(authz.WithSystem(ctx), ev)
	outcome := classify(err)

	switch outcome {
	case OutcomeAccepted:
		r.accepted.Add(1)
	case OutcomeError:
		r.failed.Add(1)
		r.logger.Error("recording trade failed",
			zap.String("trader", string(ev.Trader)),
			zap.String("signature", ev.Signature),
			zap.Error(err))
	default:
		r.rejected.Add(1)
		r.logger.Info("trade rejected",
			zap.String("trader", string(ev.Trader)),
			zap.String("signature", ev.Signature),
			zap.String("reason", outcome))
	}

	if r.observer != nil {
		r.observer.TradeIngested(ev.Source, outcome)
	}
}

func classify(err error) string {
	switch {
	case err == nil:
		return OutcomeAccepted
	case errors.Is(err, domain.ErrTradeSpamDetected):
		return OutcomeSpam
	case errors.Is(err, storage.ErrNotFound):
		return OutcomeUnknownTrader
	case errors.Is(err, domain.ErrOverflow):
		return OutcomeOverflow
	default:
		return OutcomeError
	}
}
