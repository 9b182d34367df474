package roulette

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	// DefaultInitialBalance is the money a new table starts with.
	DefaultInitialBalance = 1000

	// DefaultHistorySize is the number of hot numbers kept.
	DefaultHistorySize = 20
)

// balancePlaces is the precision the wallet is settled to. Split payouts
// carry sub-cent dust that must not decide the marker count.
const balancePlaces = 2

// Status texts shown to the player.
const (
	StatusPlaceYourBets = "Place your bets."
	StatusWaitForRound  = "Wait for current round to finish."
	StatusGameOver      = "No more money! Game over!"
)

// Errors for rejected transitions. The table is left unchanged and its
// status text tells the player what happened.
var (
	ErrNoBets         = errors.New("no bets placed")
	ErrSpinInProgress = errors.New("spin in progress")
	ErrNotSpinning    = errors.New("wheel is not spinning")
	ErrUnknownMarker  = errors.New("unknown marker")
	ErrInvalidAmount  = errors.New("balance must not be negative")
)

// State is the round state.
type State int

const (
	StateBettingOpen State = iota
	StateSpinning
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateBettingOpen:
		return "BETTING_OPEN"
	case StateSpinning:
		return "SPINNING"
	case StateResolved:
		return "RESOLVED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{StateBettingOpen, StateSpinning, StateResolved} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// Round is a resolved round handed to the journal.
type Round struct {
	ID           uuid.UUID
	TableID      string
	Resolution   *Resolution
	BalanceAfter decimal.Decimal
	ResolvedAt   time.Time
}

// Journal records resolved rounds. It is write-only: a table never reads
// its state back from a journal.
type Journal interface {
	RecordRound(ctx context.Context, round *Round) error
}

// Config holds configuration for a table.
type Config struct {
	ID             string
	InitialBalance decimal.Decimal
	HistorySize    int
	Layout         *Layout
	Journal        Journal
}

// Table is the round state machine. It owns the wallet, the marker supply
// and the ledger. A Table is not safe for concurrent use; callers
// serialise events.
type Table struct {
	id      string
	layout  *Layout
	cells   []Cell
	ledger  *Ledger
	markers []Marker
	balance decimal.Decimal
	state   State
	journal Journal
	logger  zerolog.Logger

	roundID       uuid.UUID
	winningNumber int
	hasWinning    bool
	status        string
	last          *Resolution
	history       hotNumbers
}

// New creates a table with a filled wallet, open for bets.
func New(cfg *Config) *Table {
	id := uuid.NewString()
	balance := decimal.NewFromInt(DefaultInitialBalance)
	historySize := DefaultHistorySize
	layout := StandardLayout()
	var journal Journal

	if cfg != nil {
		if cfg.ID != "" {
			id = cfg.ID
		}
		if !cfg.InitialBalance.IsZero() {
			balance = cfg.InitialBalance
		}
		if cfg.HistorySize > 0 {
			historySize = cfg.HistorySize
		}
		if cfg.Layout != nil {
			layout = cfg.Layout
		}
		journal = cfg.Journal
	}

	t := &Table{
		id:      id,
		layout:  layout,
		cells:   layout.Cells(),
		ledger:  NewLedger(),
		balance: balance,
		state:   StateBettingOpen,
		journal: journal,
		logger:  log.With().Str("table_id", id).Logger(),
		history: hotNumbers{size: historySize},
	}
	t.fillWallet()
	return t
}

// ID returns the table id.
func (t *Table) ID() string { return t.id }

// Layout returns the board layout.
func (t *Table) Layout() *Layout { return t.layout }

// State returns the current round state.
func (t *Table) State() State { return t.state }

// Balance returns the wallet balance.
func (t *Table) Balance() decimal.Decimal { return t.balance }

// Status returns the last status text for the player.
func (t *Table) Status() string { return t.status }

// MarkerCount returns the number of markers in play.
func (t *Table) MarkerCount() int { return len(t.markers) }

// Markers returns a copy of the markers.
func (t *Table) Markers() []Marker {
	return append([]Marker(nil), t.markers...)
}

// Bets returns a copy of the ledger entries.
func (t *Table) Bets() map[string]decimal.Decimal { return t.ledger.Entries() }

// TotalBet returns the sum of all stakes.
func (t *Table) TotalBet() decimal.Decimal { return t.ledger.Total() }

// LastResolution returns the outcome of the latest spin, nil before the
// first spin or after a reset.
func (t *Table) LastResolution() *Resolution { return t.last }

// History returns the hot numbers, most recent first.
func (t *Table) History() []Spin { return t.history.list() }

// WinningNumber returns the number of the round being resolved. It is only
// set while the table is in StateResolved.
func (t *Table) WinningNumber() (int, bool) {
	return t.winningNumber, t.hasWinning
}

// GameOver reports whether the wallet is empty and no markers remain.
func (t *Table) GameOver() bool {
	return t.state == StateBettingOpen && !t.balance.IsPositive()
}

// ReleaseMarker moves a marker to rect and re-detects all bets.
func (t *Table) ReleaseMarker(markerID int, rect Rect) error {
	if t.state != StateBettingOpen {
		return t.reject(ErrSpinInProgress, StatusWaitForRound)
	}

	idx := -1
	for i := range t.markers {
		if t.markers[i].ID == markerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %d", ErrUnknownMarker, markerID)
	}

	t.markers[idx].Rect = rect
	t.markers[idx].Placed = true
	t.detectBets()
	return nil
}

// RequestSpin closes betting. It is rejected while a spin is running or
// when nothing is staked.
func (t *Table) RequestSpin() error {
	if t.state == StateSpinning {
		return t.reject(ErrSpinInProgress, StatusWaitForRound)
	}
	if !t.ledger.Total().IsPositive() {
		return t.reject(ErrNoBets, StatusPlaceYourBets)
	}

	t.state = StateSpinning
	t.roundID = uuid.New()
	t.status = ""
	t.last = nil

	t.logger.Info().
		Str("round_id", t.roundID.String()).
		Str("total_bet", t.ledger.Total().String()).
		Int("bet_count", t.ledger.Len()).
		Msg("Spin started")
	return nil
}

// ReportWinningNumber resolves the running spin, settles the wallet,
// refills the markers and reopens betting.
func (t *Table) ReportWinningNumber(ctx context.Context, n int) (*Resolution, error) {
	if t.state != StateSpinning {
		return nil, ErrNotSpinning
	}

	res, err := Resolve(t.ledger.Entries(), n, t.layout)
	if err != nil {
		return nil, err
	}

	t.state = StateResolved
	t.winningNumber, t.hasWinning = n, true
	t.balance = t.balance.Add(res.TotalNet).Round(balancePlaces)
	t.last = res
	t.history.push(n)
	t.ledger.Clear()
	t.fillWallet()

	t.logger.Info().
		Str("round_id", t.roundID.String()).
		Int("winning_number", n).
		Str("total_net", res.TotalNet.String()).
		Str("balance", t.balance.String()).
		Msg("Round resolved")

	t.record(ctx, res)
	t.openBetting()
	return res, nil
}

// Reset clears all bets and refills the markers from the current balance.
func (t *Table) Reset() error {
	if t.state != StateBettingOpen {
		return t.reject(ErrSpinInProgress, StatusWaitForRound)
	}
	t.ledger.Clear()
	t.fillWallet()
	t.status = ""
	t.last = nil
	return nil
}

// SetBalance injects new money and starts afresh, like a reset.
func (t *Table) SetBalance(amount decimal.Decimal) error {
	if t.state != StateBettingOpen {
		return t.reject(ErrSpinInProgress, StatusWaitForRound)
	}
	if amount.IsNegative() {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	t.balance = amount
	t.logger.Info().Str("balance", amount.String()).Msg("Balance set")
	return t.Reset()
}

func (t *Table) openBetting() {
	t.state = StateBettingOpen
	t.hasWinning = false
	t.winningNumber = 0
	if t.GameOver() {
		t.status = StatusGameOver
		t.logger.Info().Msg("Game over")
		return
	}
	t.status = ResultText(t.last)
}

func (t *Table) record(ctx context.Context, res *Resolution) {
	if t.journal == nil {
		return
	}
	round := &Round{
		ID:           t.roundID,
		TableID:      t.id,
		Resolution:   res,
		BalanceAfter: t.balance,
		ResolvedAt:   time.Now(),
	}
	if err := t.journal.RecordRound(ctx, round); err != nil {
		t.logger.Error().Err(err).Str("round_id", t.roundID.String()).Msg("Failed to record round")
	}
}

// detectBets rebuilds the ledger from the marker positions.
func (t *Table) detectBets() {
	t.ledger.Clear()
	t.ledger.Apply(Detect(t.markers, t.cells))
	t.logger.Debug().
		Int("bet_count", t.ledger.Len()).
		Str("total_bet", t.ledger.Total().String()).
		Msg("Bets detected")
}

// fillWallet replaces the markers with one per MarkerValue of balance.
func (t *Table) fillWallet() {
	count := 0
	if t.balance.IsPositive() {
		count = int(t.balance.Div(markerStake).Floor().IntPart())
	}
	t.markers = make([]Marker, count)
	for i := range t.markers {
		t.markers[i] = Marker{ID: i + 1}
	}
}

func (t *Table) reject(err error, status string) error {
	t.status = status
	t.logger.Debug().Err(err).Str("state", t.state.String()).Msg("Transition rejected")
	return err
}
