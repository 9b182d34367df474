package roulette

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Ledger holds the current stake per cell. It is replaced wholesale on
// every detection pass and never patched incrementally. It does not check
// stakes against the wallet.
type Ledger struct {
	entries map[string]decimal.Decimal
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[string]decimal.Decimal)}
}

// Clear removes all entries.
func (l *Ledger) Clear() {
	l.entries = make(map[string]decimal.Decimal)
}

// Apply replaces the ledger contents with stakes. Non-positive stakes are
// dropped.
func (l *Ledger) Apply(stakes map[string]decimal.Decimal) {
	entries := make(map[string]decimal.Decimal, len(stakes))
	for id, amount := range stakes {
		if amount.IsPositive() {
			entries[id] = amount
		}
	}
	l.entries = entries
}

// Entries returns a copy of the cell id to stake mapping.
func (l *Ledger) Entries() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(l.entries))
	for id, amount := range l.entries {
		out[id] = amount
	}
	return out
}

// Stake returns the stake on a cell, zero if there is none.
func (l *Ledger) Stake(id string) decimal.Decimal {
	return l.entries[id]
}

// Total returns the sum of all stakes.
func (l *Ledger) Total() decimal.Decimal {
	total := decimal.Zero
	for _, amount := range l.entries {
		total = total.Add(amount)
	}
	return total
}

// Len returns the number of cells carrying a stake.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// IsEmpty reports whether no stake is placed.
func (l *Ledger) IsEmpty() bool {
	return len(l.entries) == 0
}

// CellIDs returns the ids with a stake, sorted.
func (l *Ledger) CellIDs() []string {
	return sortedIDs(l.entries)
}

func sortedIDs[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
