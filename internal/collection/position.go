package collection

import "strconv"

// Position is an operation's target position: unspecified (Append) or a
// concrete index.
type Position struct {
	index int
	set   bool
}

// Append is the unspecified position. Adds append; resume is always legal.
var Append = Position{}

// At returns a concrete index position.
func At(i int) Position {
	return Position{index: i, set: true}
}

// Index returns the concrete index and whether one is set.
func (p Position) Index() (int, bool) {
	return p.index, p.set
}

// IsAppend reports whether the position is unspecified.
func (p Position) IsAppend() bool {
	return !p.set
}

// String renders "append" or the decimal index.
func (p Position) String() string {
	if !p.set {
		return "append"
	}
	return strconv.Itoa(p.index)
}

// next returns the position for the following element of a batch.
func (p Position) next() Position {
	if !p.set {
		return p
	}
	return At(p.index + 1)
}
