package timing

import "fmt"

// Tatum indexes one slot of the bar grid.
type Tatum uint8

// NewTatum checks that i addresses a slot.
func NewTatum(i int) (Tatum, error) {
	if i < 0 || i >= SubdivisionsPerBar {
		return 0, fmt.Errorf("tatum %d outside [0, %d)", i, SubdivisionsPerBar)
	}
	return Tatum(i), nil
}

// MustTatum is NewTatum for indices known to be in range.
func MustTatum(i int) Tatum {
	t, err := NewTatum(i)
	if err != nil {
		panic(err)
	}
	return t
}

// Add moves delta slots, wrapping around the bar in either direction.
func (t Tatum) Add(delta int) Tatum {
	n := (int(t) + delta) % SubdivisionsPerBar
	if n < 0 {
		n += SubdivisionsPerBar
	}
	return Tatum(n)
}
