package roulette

import "math/rand"

// Wheel produces winning numbers. Implementations own any spin delay; the
// table only receives the final number.
type Wheel interface {
	Spin() int
}

// RandomWheel picks uniformly over the 37 pockets.
type RandomWheel struct{}

// Spin returns a number in 0-36.
func (RandomWheel) Spin() int {
	return rand.Intn(NumberCount)
}

// Spin is one entry of the hot numbers list.
type Spin struct {
	Number int   `json:"number"`
	Color  Color `json:"color"`
}

// hotNumbers is a bounded, most-recent-first history of winning numbers.
type hotNumbers struct {
	size    int
	entries []Spin
}

func (h *hotNumbers) push(n int) {
	h.entries = append([]Spin{{Number: n, Color: ColorOf(n)}}, h.entries...)
	if h.size > 0 && len(h.entries) > h.size {
		h.entries = h.entries[:h.size]
	}
}

func (h *hotNumbers) list() []Spin {
	return append([]Spin(nil), h.entries...)
}
