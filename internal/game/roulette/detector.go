package roulette

import (
	"github.com/shopspring/decimal"
)

// MarkerValue is the stake carried by one marker.
const MarkerValue int64 = 100

var markerStake = decimal.NewFromInt(MarkerValue)

// sharePrecision is the number of decimal places kept when a stake is split.
const sharePrecision = 16

// Marker is a chip. A marker that has never been dropped on the board
// sits in the wallet tray and carries no bet.
type Marker struct {
	ID     int  `json:"id"`
	Rect   Rect `json:"rect"`
	Placed bool `json:"placed"`
}

// Detect computes the stake on every cell from the current marker
// positions. It always builds a fresh mapping; cells with no stake are
// omitted.
//
// A marker alone on an outside cell bets its full value on that cell. A
// marker touching only number cells splits its value evenly across them.
// Any other placement (off the board, or straddling a number and an
// outside cell) is not a bet.
func Detect(markers []Marker, cells []Cell) map[string]decimal.Decimal {
	stakes := make(map[string]decimal.Decimal)
	for _, m := range markers {
		if !m.Placed {
			continue
		}
		for id, amount := range apportion(m, cells) {
			stakes[id] = stakes[id].Add(amount)
		}
	}

	for id, amount := range stakes {
		if !amount.IsPositive() {
			delete(stakes, id)
		}
	}
	return stakes
}

// apportion returns the credits of a single marker.
func apportion(m Marker, cells []Cell) map[string]decimal.Decimal {
	hit := intersecting(m.Rect, cells)

	switch {
	case len(hit) == 1 && hit[0].IsSingleBet():
		return map[string]decimal.Decimal{hit[0].ID: markerStake}
	case len(hit) > 0 && allNumbers(hit):
		share, rem := markerStake.QuoRem(decimal.NewFromInt(int64(len(hit))), sharePrecision)
		credits := make(map[string]decimal.Decimal, len(hit))
		for _, c := range hit {
			credits[c.ID] = share
		}
		// The truncation remainder goes to the first cell in layout order so
		// the credits always add up to exactly one marker.
		credits[hit[0].ID] = share.Add(rem)
		return credits
	default:
		return nil
	}
}

func intersecting(r Rect, cells []Cell) []Cell {
	var hit []Cell
	for _, c := range cells {
		if r.Intersects(c.Rect) {
			hit = append(hit, c)
		}
	}
	return hit
}

func allNumbers(cells []Cell) bool {
	for _, c := range cells {
		if !c.IsSingleNumber() || c.IsSingleBet() {
			return false
		}
	}
	return true
}
