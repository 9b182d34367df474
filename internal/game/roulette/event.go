package roulette

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Event is an inbound event from the renderer or the wheel. Each event is
// one transition attempt.
type Event interface {
	Name() string
}

// MarkerReleased is sent when the player drops a marker.
type MarkerReleased struct {
	MarkerID int
	Rect     Rect
}

// SpinRequested is sent when the player presses spin.
type SpinRequested struct{}

// WheelResult is sent by the wheel once it has stopped.
type WheelResult struct {
	Number int
}

// ResetRequested is sent when the player clears the board.
type ResetRequested struct{}

// BalanceInjected replaces the wallet balance with new money.
type BalanceInjected struct {
	Amount decimal.Decimal
}

func (MarkerReleased) Name() string  { return "marker_released" }
func (SpinRequested) Name() string   { return "spin_requested" }
func (WheelResult) Name() string     { return "wheel_result" }
func (ResetRequested) Name() string  { return "reset_requested" }
func (BalanceInjected) Name() string { return "balance_injected" }

// Handle applies one event to the table.
func (t *Table) Handle(ctx context.Context, ev Event) error {
	switch e := ev.(type) {
	case MarkerReleased:
		return t.ReleaseMarker(e.MarkerID, e.Rect)
	case SpinRequested:
		return t.RequestSpin()
	case WheelResult:
		_, err := t.ReportWinningNumber(ctx, e.Number)
		return err
	case ResetRequested:
		return t.Reset()
	case BalanceInjected:
		return t.SetBalance(e.Amount)
	default:
		return fmt.Errorf("unsupported event %T", ev)
	}
}

// Snapshot is everything the renderer needs to draw the table.
type Snapshot struct {
	TableID     string                     `json:"table_id"`
	State       State                      `json:"state"`
	Balance     decimal.Decimal            `json:"balance"`
	MarkerCount int                        `json:"marker_count"`
	Markers     []Marker                   `json:"markers"`
	Bets        map[string]decimal.Decimal `json:"bets"`
	TotalBet    decimal.Decimal            `json:"total_bet"`
	Highlighted []string                   `json:"highlighted"`
	Summary     []string                   `json:"summary"`
	TotalText   string                     `json:"total_text,omitempty"`
	Status      string                     `json:"status,omitempty"`
	GameOver    bool                       `json:"game_over"`
	Won         bool                       `json:"won"`
	LastResult  *Resolution                `json:"last_result,omitempty"`
	History     []Spin                     `json:"history"`
}

// Snapshot captures the current table state. Highlights are cleared while
// the wheel is spinning.
func (t *Table) Snapshot() *Snapshot {
	bets := t.ledger.Entries()
	highlighted := []string{}
	if t.state == StateBettingOpen {
		highlighted = Highlighted(bets, t.layout)
	}

	s := &Snapshot{
		TableID:     t.id,
		State:       t.state,
		Balance:     t.balance,
		MarkerCount: len(t.markers),
		Markers:     t.Markers(),
		Bets:        bets,
		TotalBet:    t.ledger.Total(),
		Highlighted: highlighted,
		Summary:     BetSummary(bets),
		TotalText:   TotalText(bets),
		Status:      t.status,
		GameOver:    t.GameOver(),
		LastResult:  t.last,
		History:     t.History(),
	}
	if t.last != nil {
		s.Won = t.last.TotalNet.IsPositive()
	}
	return s
}
