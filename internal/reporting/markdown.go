package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report, decimals int32) string {
	var sb strings.Builder

	sb.WriteString("# Leaderboard Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	s := r.Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Registered Traders | %d |\n", s.RegisteredTraders))
	sb.WriteString(fmt.Sprintf("| Ranked Traders | %d |\n", s.RankedTraders))
	sb.WriteString(fmt.Sprintf("| Total Volume | %s |\n", s.TotalVolume.Shift(-decimals).StringFixed(decimals)))
	sb.WriteString(fmt.Sprintf("| Total Staked | %s |\n", s.TotalStaked.Shift(-decimals).StringFixed(decimals)))
	sb.WriteString(fmt.Sprintf("| Last Update | %s |\n", formatUnix(s.LastUpdate)))
	sb.WriteString(fmt.Sprintf("| Emergency Pause | %t |\n", s.EmergencyPause))
	sb.WriteString(fmt.Sprintf("| Snapshots | %d |\n", s.Snapshots))
	sb.WriteString(fmt.Sprintf("| Latest Snapshot | %s |\n", formatUnix(s.LatestSnapshot)))
	sb.WriteString("\n")

	sb.WriteString("## Standings\n\n")
	if len(r.Standings) == 0 {
		sb.WriteString("No ranked traders.\n\n")
	} else {
		sb.WriteString("| # | Trader | Score | Move | Volume | Trades | PnL | Staked | Fee % |\n")
		sb.WriteString("|---|--------|-------|------|--------|--------|-----|--------|-------|\n")
		for _, row := range r.Standings {
			sb.WriteString(fmt.Sprintf("| %d | `%s` | %d | %s | %s | %d | %d | %s | %d |\n",
				row.Rank, row.Trader, row.Score, movement(row),
				FormatAmount(row.TotalVolume, decimals), row.TradeCount, row.PnL,
				FormatAmount(row.StakedAmount, decimals), row.FeeDiscount))
		}
		sb.WriteString("\n")
	}

	if r.RunID != "" {
		sb.WriteString(fmt.Sprintf("## Payouts of run %s\n\n", r.RunID))
		sb.WriteString("| # | Trader | Destination | Score | Amount | Share % |\n")
		sb.WriteString("|---|--------|-------------|-------|--------|---------|\n")
		for _, p := range r.Payouts {
			sb.WriteString(fmt.Sprintf("| %d | `%s` | `%s` | %d | %s | %s |\n",
				p.Position+1, p.Trader, p.Destination, p.Score,
				FormatAmount(p.Amount, decimals), p.Share.StringFixed(2)))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
