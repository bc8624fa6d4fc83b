package reporting

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
)

// RenderTable writes the report as console tables. Token amounts are shown
// with decimals places.
func RenderTable(w io.Writer, r *Report, decimals int32) {
	s := r.Summary
	fmt.Fprintf(w, "Leaderboard report, generated %s\n", r.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "  ranked %d of %d traders | version %d | last update %s | paused %t\n",
		s.RankedTraders, s.RegisteredTraders, s.Version, formatUnix(s.LastUpdate), s.EmergencyPause)
	fmt.Fprintf(w, "  volume %s | staked %s | snapshots %d\n\n",
		s.TotalVolume.Shift(-decimals).StringFixed(decimals),
		s.TotalStaked.Shift(-decimals).StringFixed(decimals),
		s.Snapshots)

	table := tablewriter.NewWriter(w)
	table.Header("#", "TRADER", "SCORE", "MOVE", "VOLUME", "TRADES", "PNL", "STAKED", "FEE")
	for _, row := range r.Standings {
		table.Append(
			strconv.Itoa(row.Rank),
			string(row.Trader),
			strconv.FormatUint(row.Score, 10),
			movement(row),
			FormatAmount(row.TotalVolume, decimals),
			strconv.FormatUint(row.TradeCount, 10),
			strconv.FormatInt(row.PnL, 10),
			FormatAmount(row.StakedAmount, decimals),
			strconv.Itoa(int(row.FeeDiscount)),
		)
	}
	table.Render()

	if r.RunID == "" {
		return
	}

	fmt.Fprintf(w, "\nPayouts of run %s\n", r.RunID)
	payouts := tablewriter.NewWriter(w)
	payouts.Header("#", "TRADER", "DESTINATION", "SCORE", "AMOUNT", "SHARE")
	for _, p := range r.Payouts {
		payouts.Append(
			strconv.Itoa(p.Position+1),
			string(p.Trader),
			p.Destination,
			strconv.FormatUint(p.Score, 10),
			FormatAmount(p.Amount, decimals),
			p.Share.StringFixed(2),
		)
	}
	payouts.Render()
}

func movement(row StandingRow) string {
	switch {
	case row.New:
		return "new"
	case row.Delta > 0:
		return "+" + strconv.Itoa(row.Delta)
	case row.Delta < 0:
		return strconv.Itoa(row.Delta)
	default:
		return "="
	}
}

func formatUnix(ts int64) string {
	if ts == 0 {
		return "-"
	}
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}
