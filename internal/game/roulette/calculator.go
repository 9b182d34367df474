package roulette

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidNumber is returned for a winning number outside 0-36.
var ErrInvalidNumber = errors.New("winning number must be between 0 and 36")

// BetResult is the outcome of the stake on one cell.
type BetResult struct {
	CellID  string          `json:"cell_id"`
	Stake   decimal.Decimal `json:"stake"`
	Payout  decimal.Decimal `json:"payout"`
	NetGain decimal.Decimal `json:"net_gain"`
	Won     bool            `json:"won"`
}

// Resolution is the outcome of a spin against a set of stakes.
type Resolution struct {
	WinningNumber int                  `json:"winning_number"`
	Color         Color                `json:"color"`
	Bets          map[string]BetResult `json:"bets"`
	TotalStaked   decimal.Decimal      `json:"total_staked"`
	TotalPayout   decimal.Decimal      `json:"total_payout"`
	TotalNet      decimal.Decimal      `json:"total_net"`
}

// Winners returns the winning bets sorted by cell id.
func (r *Resolution) Winners() []BetResult {
	var out []BetResult
	for _, id := range sortedIDs(r.Bets) {
		if b := r.Bets[id]; b.Won {
			out = append(out, b)
		}
	}
	return out
}

// CalculatePayout returns the gross payout and the net gain of a stake.
// Rules:
//   - won: payout = stake * multiplier, net = payout - stake
//   - lost: payout = 0, net = -stake
func CalculatePayout(stake decimal.Decimal, multiplier int64, won bool) (payout, net decimal.Decimal) {
	if !won {
		return decimal.Zero, stake.Neg()
	}
	payout = stake.Mul(decimal.NewFromInt(multiplier))
	return payout, payout.Sub(stake)
}

// Resolve settles every stake against the winning number. An empty set of
// stakes is a valid resolution with a zero net.
func Resolve(stakes map[string]decimal.Decimal, winningNumber int, layout *Layout) (*Resolution, error) {
	if !ValidNumber(winningNumber) {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidNumber, winningNumber)
	}

	winners := layout.WinningCellIDs(winningNumber)
	res := &Resolution{
		WinningNumber: winningNumber,
		Color:         ColorOf(winningNumber),
		Bets:          make(map[string]BetResult, len(stakes)),
		TotalStaked:   decimal.Zero,
		TotalPayout:   decimal.Zero,
		TotalNet:      decimal.Zero,
	}

	for id, stake := range stakes {
		cell, err := layout.Cell(id)
		if err != nil {
			return nil, err
		}

		won := winners[id]
		payout, net := CalculatePayout(stake, cell.Multiplier, won)
		res.Bets[id] = BetResult{
			CellID:  id,
			Stake:   stake,
			Payout:  payout,
			NetGain: net,
			Won:     won,
		}
		res.TotalStaked = res.TotalStaked.Add(stake)
		res.TotalPayout = res.TotalPayout.Add(payout)
		res.TotalNet = res.TotalNet.Add(net)
	}

	return res, nil
}
