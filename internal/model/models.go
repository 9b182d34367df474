// Package model defines the data models of the round journal.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Round is one resolved spin of a table.
type Round struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	TableID       string          `json:"table_id" db:"table_id"`
	WinningNumber int             `json:"winning_number" db:"winning_number"`
	Color         string          `json:"color" db:"color"`
	TotalStaked   decimal.Decimal `json:"total_staked" db:"total_staked"`
	TotalPayout   decimal.Decimal `json:"total_payout" db:"total_payout"`
	TotalNet      decimal.Decimal `json:"total_net" db:"total_net"`
	BalanceAfter  decimal.Decimal `json:"balance_after" db:"balance_after"`
	ResolvedAt    time.Time       `json:"resolved_at" db:"resolved_at"`
}

// RoundBet is the outcome of the stake on one cell in a round.
type RoundBet struct {
	RoundID uuid.UUID       `json:"-" db:"round_id"`
	CellID  string          `json:"cell_id" db:"cell_id"`
	Stake   decimal.Decimal `json:"stake" db:"stake"`
	Payout  decimal.Decimal `json:"payout" db:"payout"`
	NetGain decimal.Decimal `json:"net_gain" db:"net_gain"`
	Won     bool            `json:"won" db:"won"`
}

// Won reports whether the round paid out more than was staked.
func (r *Round) Won() bool {
	return r.TotalNet.IsPositive()
}
