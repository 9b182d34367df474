package roulette

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCalculatePayout(t *testing.T) {
	tests := []struct {
		name       string
		stake      string
		multiplier int64
		won        bool
		payout     string
		net        string
	}{
		{"straight up win", "100", 36, true, "3600", "3500"},
		{"split share win", "50", 36, true, "1800", "1750"},
		{"even money win", "100", 2, true, "200", "100"},
		{"dozen win", "100", 3, true, "300", "200"},
		{"loss", "100", 36, false, "0", "-100"},
		{"fractional loss", "33.33", 36, false, "0", "-33.33"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payout, net := CalculatePayout(dec(tt.stake), tt.multiplier, tt.won)
			assertDecimal(t, dec(tt.payout), payout)
			assertDecimal(t, dec(tt.net), net)
		})
	}
}

func TestResolve_RedWins(t *testing.T) {
	res, err := Resolve(map[string]decimal.Decimal{"bet-red": dec("100")}, 3, StandardLayout())
	require.NoError(t, err)

	assert.Equal(t, 3, res.WinningNumber)
	assert.Equal(t, ColorRed, res.Color)
	bet := res.Bets["bet-red"]
	assert.True(t, bet.Won)
	assertDecimal(t, dec("100"), bet.Stake)
	assertDecimal(t, dec("200"), bet.Payout)
	assertDecimal(t, dec("100"), bet.NetGain)
	assertDecimal(t, dec("100"), res.TotalNet)
}

func TestResolve_Split(t *testing.T) {
	stakes := map[string]decimal.Decimal{"bet-1": dec("50"), "bet-2": dec("50")}
	res, err := Resolve(stakes, 1, StandardLayout())
	require.NoError(t, err)

	assertDecimal(t, dec("1800"), res.Bets["bet-1"].Payout)
	assertDecimal(t, dec("1750"), res.Bets["bet-1"].NetGain)
	assertDecimal(t, decimal.Zero, res.Bets["bet-2"].Payout)
	assertDecimal(t, dec("-50"), res.Bets["bet-2"].NetGain)
	assertDecimal(t, dec("1700"), res.TotalNet)
	assertDecimal(t, dec("100"), res.TotalStaked)
	assertDecimal(t, dec("1800"), res.TotalPayout)
}

func TestResolve_ZeroLosesOutsideBets(t *testing.T) {
	stakes := map[string]decimal.Decimal{
		"bet-even": dec("100"),
		"bet-low":  dec("100"),
		"bet-0":    dec("100"),
	}
	res, err := Resolve(stakes, 0, StandardLayout())
	require.NoError(t, err)

	assert.False(t, res.Bets["bet-even"].Won)
	assert.False(t, res.Bets["bet-low"].Won)
	assert.True(t, res.Bets["bet-0"].Won)
	assertDecimal(t, dec("3300"), res.TotalNet)
	assert.Equal(t, ColorGreen, res.Color)
}

func TestResolve_EmptyLedger(t *testing.T) {
	res, err := Resolve(nil, 17, StandardLayout())
	require.NoError(t, err)
	assert.Empty(t, res.Bets)
	assertDecimal(t, decimal.Zero, res.TotalNet)
}

func TestResolve_Errors(t *testing.T) {
	_, err := Resolve(nil, 37, StandardLayout())
	assert.ErrorIs(t, err, ErrInvalidNumber)

	_, err = Resolve(nil, -1, StandardLayout())
	assert.ErrorIs(t, err, ErrInvalidNumber)

	_, err = Resolve(map[string]decimal.Decimal{"bet-nowhere": dec("100")}, 5, StandardLayout())
	var unknown *UnknownCellError
	assert.True(t, errors.As(err, &unknown))
}

func TestResolution_Winners(t *testing.T) {
	stakes := map[string]decimal.Decimal{
		"bet-red":   dec("100"),
		"bet-odd":   dec("100"),
		"bet-black": dec("100"),
	}
	res, err := Resolve(stakes, 1, StandardLayout())
	require.NoError(t, err)

	winners := res.Winners()
	require.Len(t, winners, 2)
	assert.Equal(t, "bet-odd", winners[0].CellID)
	assert.Equal(t, "bet-red", winners[1].CellID)
}

func drawStakes(t *rapid.T, layout *Layout) map[string]decimal.Decimal {
	cells := layout.Cells()
	n := rapid.IntRange(0, 12).Draw(t, "bets")
	stakes := make(map[string]decimal.Decimal, n)
	for i := 0; i < n; i++ {
		cell := cells[rapid.IntRange(0, len(cells)-1).Draw(t, "cell")]
		cents := rapid.Int64Range(1, 100000).Draw(t, "cents")
		stakes[cell.ID] = decimal.New(cents, -2)
	}
	return stakes
}

// TestResolveNetProperty checks that the total net equals what winners
// gain minus what losers stake.
func TestResolveNetProperty(t *testing.T) {
	layout := StandardLayout()

	rapid.Check(t, func(t *rapid.T) {
		stakes := drawStakes(t, layout)
		n := rapid.IntRange(0, NumberCount-1).Draw(t, "number")

		res, err := Resolve(stakes, n, layout)
		if err != nil {
			t.Fatal(err)
		}

		winners := layout.WinningCellIDs(n)
		expected := decimal.Zero
		for id, stake := range stakes {
			cell, _ := layout.Cell(id)
			if winners[id] {
				expected = expected.Add(stake.Mul(decimal.NewFromInt(cell.Multiplier)).Sub(stake))
			} else {
				expected = expected.Sub(stake)
			}
		}
		if !res.TotalNet.Equal(expected) {
			t.Fatalf("total net %s, expected %s", res.TotalNet, expected)
		}
		if !res.TotalNet.Equal(res.TotalPayout.Sub(res.TotalStaked)) {
			t.Fatalf("total net %s != payout %s - staked %s", res.TotalNet, res.TotalPayout, res.TotalStaked)
		}
	})
}
