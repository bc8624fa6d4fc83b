package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders standings as CSV string. Amounts stay in base units.
func RenderCSV(rows []StandingRow) string {
	var sb strings.Builder

	sb.WriteString("rank,trader,score,delta,new,total_volume,trade_count,pnl,staked_amount,fee_discount\n")

	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%d,%s,%d,%d,%t,%d,%d,%d,%d,%d\n",
			r.Rank,
			r.Trader,
			r.Score,
			r.Delta,
			r.New,
			r.TotalVolume,
			r.TradeCount,
			r.PnL,
			r.StakedAmount,
			r.FeeDiscount,
		))
	}

	return sb.String()
}
