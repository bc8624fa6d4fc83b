package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"t2e-leaderboard/internal/domain"
)

const testTrader domain.Pubkey = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"

func TestParseTradeLog(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    domain.TradeEvent
		ok      bool
		wantErr bool
	}{
		{
			name: "valid",
			line: "Program log: t2e:trade trader=" + string(testTrader) + " volume=1000 execution_time=50 pnl=-200",
			want: domain.TradeEvent{Trader: testTrader, Volume: 1000, ExecutionTime: 50, PnL: -200},
			ok:   true,
		},
		{
			name: "field order and unknown keys",
			line: "Program log: t2e:trade pnl=7 venue=x execution_time=1 volume=2 trader=" + string(testTrader),
			want: domain.TradeEvent{Trader: testTrader, Volume: 2, ExecutionTime: 1, PnL: 7},
			ok:   true,
		},
		{name: "other log", line: "Program log: Instruction: Swap", ok: false},
		{name: "missing pnl", line: "Program log: t2e:trade trader=" + string(testTrader) + " volume=1 execution_time=1", ok: true, wantErr: true},
		{name: "bad trader", line: "Program log: t2e:trade trader=abc volume=1 execution_time=1 pnl=0", ok: true, wantErr: true},
		{name: "negative volume", line: "Program log: t2e:trade trader=" + string(testTrader) + " volume=-1 execution_time=1 pnl=0", ok: true, wantErr: true},
		{name: "volume overflow", line: "Program log: t2e:trade trader=" + string(testTrader) + " volume=18446744073709551616 execution_time=1 pnl=0", ok: true, wantErr: true},
		{name: "no equals", line: "Program log: t2e:trade trader", ok: true, wantErr: true},
		{name: "duplicate key", line: "Program log: t2e:trade trader=" + string(testTrader) + " volume=1 volume=2 execution_time=1 pnl=0", ok: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := ParseTradeLog(tt.line)
			assert.Equal(t, tt.ok, ok)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedTrade)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTradeLogs(t *testing.T) {
	logs := []string{
		"Program T2E invoke [1]",
		"Program log: t2e:trade trader=" + string(testTrader) + " volume=10 execution_time=5 pnl=1",
		"Program log: t2e:trade trader=bad volume=10 execution_time=5 pnl=1",
		"Program log: t2e:trade trader=" + string(testTrader) + " volume=20 execution_time=5 pnl=2",
		"Program T2E success",
	}

	events, errs := ParseTradeLogs("sig1", 42, logs)

	require.Len(t, events, 2)
	assert.Len(t, errs, 1)
	assert.Equal(t, uint64(10), events[0].Volume)
	assert.Equal(t, 0, events[0].EventIndex)
	assert.Equal(t, uint64(20), events[1].Volume)
	assert.Equal(t, 1, events[1].EventIndex)
	for _, ev := range events {
		assert.Equal(t, "sig1", ev.Signature)
		assert.Equal(t, int64(42), ev.Slot)
	}
}
