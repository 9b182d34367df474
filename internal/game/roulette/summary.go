package roulette

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Highlighted returns the cells the renderer should mark as carrying a
// bet: every cell with a stake and, for outside bets, every number the
// bet covers. The result is sorted.
func Highlighted(stakes map[string]decimal.Decimal, layout *Layout) []string {
	set := make(map[string]bool)
	for id := range stakes {
		set[id] = true
		cell, err := layout.Cell(id)
		if err != nil || !cell.IsSingleBet() {
			continue
		}
		for _, n := range cell.Numbers {
			set[NumberCellID(n)] = true
		}
	}

	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// BetSummary describes each stake, e.g. "Betting 100 on RED.", sorted by
// cell id.
func BetSummary(stakes map[string]decimal.Decimal) []string {
	lines := make([]string, 0, len(stakes))
	for _, id := range sortedIDs(stakes) {
		lines = append(lines, fmt.Sprintf("Betting %s on %s.", FormatAmount(stakes[id]), CellLabel(id)))
	}
	return lines
}

// TotalText returns the "Total bet amount" line, empty when nothing is staked.
func TotalText(stakes map[string]decimal.Decimal) string {
	if len(stakes) == 0 {
		return ""
	}
	total := decimal.Zero
	for _, amount := range stakes {
		total = total.Add(amount)
	}
	return "Total bet amount: " + FormatAmount(total)
}

// ResultText describes a resolution: one sentence per winning bet, then
// the net for the round.
func ResultText(res *Resolution) string {
	if res == nil {
		return ""
	}
	var b strings.Builder
	for _, w := range res.Winners() {
		fmt.Fprintf(&b, "Winning bet %s (won %s). ", CellLabel(w.CellID), FormatAmount(w.NetGain))
	}
	fmt.Fprintf(&b, "+/-: %s.", FormatAmount(res.TotalNet))
	return b.String()
}

// FormatAmount renders money for display, rounded to cents.
func FormatAmount(d decimal.Decimal) string {
	return d.Round(2).String()
}
