package ingestion

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"t2e-leaderboard/internal/domain"
)

// TradeLogPrefix marks a trade report in program logs. The rest of the line
// is space-separated key=value pairs:
//
//	Program log: t2e:trade trader=<pubkey> volume=<u64> execution_time=<u64> pnl=<i64>
const TradeLogPrefix = "Program log: t2e:trade "

// ErrMalformedTrade is returned for a trade report that cannot be decoded.
var ErrMalformedTrade = errors.New("malformed trade report")

// ParseTradeLog decodes one log line. ok is false when the line is not a
// trade report at all.
func ParseTradeLog(line string) (ev domain.TradeEvent, ok bool, err error) {
	rest, found := strings.CutPrefix(line, TradeLogPrefix)
	if !found {
		return domain.TradeEvent{}, false, nil
	}

	seen := make(map[string]bool, 4)
	for _, field := range strings.Fields(rest) {
		key, value, found := strings.Cut(field, "=")
		if !found {
			return domain.TradeEvent{}, true, fmt.Errorf("%w: field %q", ErrMalformedTrade, field)
		}
		if seen[key] {
			return domain.TradeEvent{}, true, fmt.Errorf("%w: duplicate %s", ErrMalformedTrade, key)
		}
		seen[key] = true

		switch key {
		case "trader":
			ev.Trader, err = domain.ParsePubkey(value)
		case "volume":
			ev.Volume, err = strconv.ParseUint(value, 10, 64)
		case "execution_time":
			ev.ExecutionTime, err = strconv.ParseUint(value, 10, 64)
		case "pnl":
			ev.PnL, err = strconv.ParseInt(value, 10, 64)
		default:
			// Unknown keys are tolerated so the program can add fields.
			continue
		}
		if err != nil {
			return domain.TradeEvent{}, true, fmt.Errorf("%w: %s: %v", ErrMalformedTrade, key, err)
		}
	}

	for _, key := range []string{"trader", "volume", "execution_time", "pnl"} {
		if !seen[key] {
			return domain.TradeEvent{}, true, fmt.Errorf("%w: missing %s", ErrMalformedTrade, key)
		}
	}
	return ev, true, nil
}

// ParseTradeLogs decodes every trade report in a transaction's log messages.
// Malformed reports are returned as errors alongside the decoded events.
func ParseTradeLogs(signature string, slot int64, logs []string) ([]domain.TradeEvent, []error) {
	var (
		events []domain.TradeEvent
		errs   []error
	)
	for _, line := range logs {
		ev, ok, err := ParseTradeLog(line)
		if !ok {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("tx %s: %w", signature, err))
			continue
		}
		ev.Signature = signature
		ev.Slot = slot
		ev.EventIndex = len(events)
		events = append(events, ev)
	}
	return events, errs
}
