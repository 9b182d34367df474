// Package roulette implements the single-table roulette betting engine:
// the board layout, marker-to-bet detection, the bet ledger, spin
// resolution and the round state machine.
package roulette

import (
	"fmt"
	"strconv"
	"strings"
)

// NumberCount is the number of pockets on a single-zero wheel (0-36).
const NumberCount = 37

// Board geometry of the standard layout, in board-local units.
const (
	CellWidth  = 100.0
	CellHeight = 60.0
)

// Payout multipliers. They are gross returns and already include the stake.
const (
	MultiplierNumber     int64 = 36
	MultiplierEvenMoney  int64 = 2
	MultiplierDozenOrCol int64 = 3
)

// Rect is an axis-aligned rectangle in board-local coordinates.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Intersects reports whether r and o overlap. Touching edges count as overlap.
func (r Rect) Intersects(o Rect) bool {
	return !(r.Right < o.Left || r.Left > o.Right || r.Bottom < o.Top || r.Top > o.Bottom)
}

// CellKind distinguishes straight-up number cells from grouped bets.
type CellKind int

const (
	// KindNumber is a straight-up number cell (0-36).
	KindNumber CellKind = iota + 1
	// KindOutside is an even-money cell: low/high, even/odd, red/black.
	KindOutside
	// KindArea is a dozen or a column.
	KindArea
)

// String returns the kind name used on the wire.
func (k CellKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindOutside:
		return "outside"
	case KindArea:
		return "area"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k CellKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *CellKind) UnmarshalText(text []byte) error {
	for _, kind := range []CellKind{KindNumber, KindOutside, KindArea} {
		if kind.String() == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown cell kind %q", text)
}

// Color is the colour of a pocket or of a colour bet.
type Color string

const (
	ColorRed   Color = "red"
	ColorBlack Color = "black"
	ColorGreen Color = "green"
)

var redNumbers = map[int]bool{
	1: true, 3: true, 5: true, 7: true, 9: true, 12: true,
	14: true, 16: true, 18: true, 19: true, 21: true, 23: true,
	25: true, 27: true, 30: true, 32: true, 34: true, 36: true,
}

// ColorOf returns the pocket colour of n. Zero is green.
func ColorOf(n int) Color {
	switch {
	case n == 0:
		return ColorGreen
	case redNumbers[n]:
		return ColorRed
	default:
		return ColorBlack
	}
}

// ValidNumber reports whether n is a pocket on the wheel.
func ValidNumber(n int) bool {
	return n >= 0 && n < NumberCount
}

// Cell is a betting target on the board. Cells are read-only after the
// layout is built; Numbers must not be modified by callers.
type Cell struct {
	ID         string   `json:"id"`
	Label      string   `json:"label"`
	Kind       CellKind `json:"kind"`
	Numbers    []int    `json:"numbers"`
	Multiplier int64    `json:"multiplier"`
	Color      Color    `json:"color,omitempty"`
	Rect       Rect     `json:"rect"`
}

// IsSingleNumber reports whether c is a straight-up number cell.
func (c Cell) IsSingleNumber() bool {
	return c.Kind == KindNumber
}

// IsSingleBet reports whether a marker must sit on c alone to bet on it.
func (c Cell) IsSingleBet() bool {
	return c.Kind == KindOutside || c.Kind == KindArea
}

// Covers reports whether n wins a bet on c.
func (c Cell) Covers(n int) bool {
	for _, v := range c.Numbers {
		if v == n {
			return true
		}
	}
	return false
}

// UnknownCellError is returned when a cell id is not part of the layout.
// It always indicates a bug in static data or in the caller.
type UnknownCellError struct {
	ID string
}

func (e *UnknownCellError) Error() string {
	return fmt.Sprintf("unknown cell %q", e.ID)
}

// Layout is an immutable registry of board cells.
type Layout struct {
	cells []Cell
	byID  map[string]int
}

// NewLayout builds a layout from cells. Ids must be unique and every
// multiplier positive.
func NewLayout(cells []Cell) (*Layout, error) {
	l := &Layout{
		cells: make([]Cell, len(cells)),
		byID:  make(map[string]int, len(cells)),
	}
	for i, c := range cells {
		if c.ID == "" {
			return nil, fmt.Errorf("cell %d has no id", i)
		}
		if _, dup := l.byID[c.ID]; dup {
			return nil, fmt.Errorf("duplicate cell id %q", c.ID)
		}
		if c.Multiplier <= 0 {
			return nil, fmt.Errorf("cell %q: multiplier must be positive", c.ID)
		}
		c.Numbers = append([]int(nil), c.Numbers...)
		l.cells[i] = c
		l.byID[c.ID] = i
	}
	return l, nil
}

// Cell returns the cell with the given id.
func (l *Layout) Cell(id string) (Cell, error) {
	i, ok := l.byID[id]
	if !ok {
		return Cell{}, &UnknownCellError{ID: id}
	}
	return l.cells[i], nil
}

// Cells returns all cells in layout order. The slice is a copy.
func (l *Layout) Cells() []Cell {
	out := make([]Cell, len(l.cells))
	copy(out, l.cells)
	return out
}

// Len returns the number of cells.
func (l *Layout) Len() int {
	return len(l.cells)
}

// NumberCell returns the straight-up cell for n.
func (l *Layout) NumberCell(n int) (Cell, error) {
	return l.Cell(NumberCellID(n))
}

// WinningCellIDs returns the ids of every cell that wins when n comes up.
func (l *Layout) WinningCellIDs(n int) map[string]bool {
	winners := make(map[string]bool)
	for _, c := range l.cells {
		if c.Covers(n) {
			winners[c.ID] = true
		}
	}
	winners[NumberCellID(n)] = true
	return winners
}

// NumberCellID returns the id of the straight-up cell for n.
func NumberCellID(n int) string {
	return "bet-" + strconv.Itoa(n)
}

// CellLabel returns the short upper-case name used in bet and result text.
func CellLabel(id string) string {
	return strings.ToUpper(strings.TrimPrefix(id, "bet-"))
}

var standardLayout = mustStandardLayout()

// StandardLayout returns the single-zero board: 37 number cells and 13
// outside cells. The same instance is returned on every call.
//
// Geometry (columns of CellWidth, rows of CellHeight):
//
//	row 0        zero across all five columns
//	rows 1-12    col 0: low/even/red/black/odd/high (two rows each)
//	             col 1: dozens (four rows each)
//	             cols 2-4: numbers, three per row
//	row 13       cols 2-4: column bets
func StandardLayout() *Layout {
	return standardLayout
}

func mustStandardLayout() *Layout {
	l, err := NewLayout(standardCells())
	if err != nil {
		panic(err)
	}
	return l
}

func standardCells() []Cell {
	cells := make([]Cell, 0, 50)

	cells = append(cells, Cell{
		ID:         NumberCellID(0),
		Label:      "0",
		Kind:       KindNumber,
		Numbers:    []int{0},
		Multiplier: MultiplierNumber,
		Color:      ColorGreen,
		Rect:       gridRect(0, 0, 5, 1),
	})
	for n := 1; n < NumberCount; n++ {
		row := (n-1)/3 + 1
		col := (n-1)%3 + 2
		cells = append(cells, Cell{
			ID:         NumberCellID(n),
			Label:      strconv.Itoa(n),
			Kind:       KindNumber,
			Numbers:    []int{n},
			Multiplier: MultiplierNumber,
			Color:      ColorOf(n),
			Rect:       gridRect(col, row, 1, 1),
		})
	}

	evenMoney := []struct {
		id    string
		label string
		color Color
		match func(int) bool
	}{
		{"bet-low", "Low (1-18)", "", func(n int) bool { return n <= 18 }},
		{"bet-even", "Even", "", func(n int) bool { return n%2 == 0 }},
		{"bet-red", "Red", ColorRed, func(n int) bool { return redNumbers[n] }},
		{"bet-black", "Black", ColorBlack, func(n int) bool { return !redNumbers[n] }},
		{"bet-odd", "Odd", "", func(n int) bool { return n%2 == 1 }},
		{"bet-high", "High (19-36)", "", func(n int) bool { return n >= 19 }},
	}
	for i, b := range evenMoney {
		cells = append(cells, Cell{
			ID:         b.id,
			Label:      b.label,
			Kind:       KindOutside,
			Numbers:    numbersWhere(b.match),
			Multiplier: MultiplierEvenMoney,
			Color:      b.color,
			Rect:       gridRect(0, 1+2*i, 1, 2),
		})
	}

	for d := 0; d < 3; d++ {
		lo, hi := d*12+1, d*12+12
		cells = append(cells, Cell{
			ID:         fmt.Sprintf("bet-area%d", d+1),
			Label:      fmt.Sprintf("%d-%d", lo, hi),
			Kind:       KindArea,
			Numbers:    numbersWhere(func(n int) bool { return n >= lo && n <= hi }),
			Multiplier: MultiplierDozenOrCol,
			Rect:       gridRect(1, 1+4*d, 1, 4),
		})
	}

	for c := 0; c < 3; c++ {
		rem := (c + 1) % 3
		cells = append(cells, Cell{
			ID:         fmt.Sprintf("bet-col%d", c+1),
			Label:      fmt.Sprintf("Col %d", c+1),
			Kind:       KindArea,
			Numbers:    numbersWhere(func(n int) bool { return n%3 == rem }),
			Multiplier: MultiplierDozenOrCol,
			Rect:       gridRect(2+c, 13, 1, 1),
		})
	}

	return cells
}

// numbersWhere returns the numbers 1-36 matching fn. Zero never wins an
// outside bet.
func numbersWhere(fn func(int) bool) []int {
	var out []int
	for n := 1; n < NumberCount; n++ {
		if fn(n) {
			out = append(out, n)
		}
	}
	return out
}

func gridRect(col, row, colSpan, rowSpan int) Rect {
	return Rect{
		Left:   float64(col) * CellWidth,
		Top:    float64(row) * CellHeight,
		Right:  float64(col+colSpan) * CellWidth,
		Bottom: float64(row+rowSpan) * CellHeight,
	}
}
