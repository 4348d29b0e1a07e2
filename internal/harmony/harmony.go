// Package harmony maps scale degrees to fixed three-note chords.
package harmony

import (
	"fmt"
	"strings"
)

// DefaultRoot is middle C.
const DefaultRoot Note = 60

// Note is a MIDI pitch in the 0-127 range.
type Note uint8

// Degree is a diatonic chord degree. The zero value means no chord.
type Degree uint8

const (
	None Degree = iota
	I
	II
	III
	IV
	V
	VI
	VII
)

var degreeNames = [...]string{"", "I", "II", "III", "IV", "V", "VI", "VII"}

func (d Degree) String() string {
	if int(d) < len(degreeNames) {
		return degreeNames[d]
	}
	return fmt.Sprintf("Degree(%d)", uint8(d))
}

// Valid reports whether d is one of I..VII.
func (d Degree) Valid() bool {
	return d >= I && d <= VII
}

// ParseDegree accepts a roman numeral ("iv", "IV") or a digit ("4").
func ParseDegree(s string) (Degree, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) == 1 && s[0] >= '1' && s[0] <= '7' {
		return Degree(s[0]-'0'), nil
	}
	for d := I; d <= VII; d++ {
		if degreeNames[d] == s {
			return d, nil
		}
	}
	return None, fmt.Errorf("unknown chord degree %q", s)
}

// Triad is three simultaneous pitches.
type Triad [3]Note

// Major builds root, major third, perfect fifth.
func Major(root Note) Triad {
	return Triad{root, root + 4, root + 7}
}

// Minor builds root, minor third, perfect fifth.
func Minor(root Note) Triad {
	return Triad{root, root + 3, root + 7}
}

// Diminished builds root, minor third, diminished fifth.
func Diminished(root Note) Triad {
	return Triad{root, root + 3, root + 6}
}

// Table harmonizes the major scale starting at Root.
type Table struct {
	Root Note
}

// DefaultTable is the C major table.
var DefaultTable = Table{Root: DefaultRoot}

// Triad returns the chord for d. Degrees outside I..VII are a caller bug.
func (t Table) Triad(d Degree) Triad {
	r := t.Root
	switch d {
	case I:
		return Major(r)
	case II:
		return Minor(r + 2)
	case III:
		return Minor(r + 4)
	case IV:
		return Major(r + 5)
	case V:
		return Major(r + 7)
	case VI:
		return Minor(r + 9)
	case VII:
		return Diminished(r + 11)
	}
	panic(fmt.Sprintf("harmony: no triad for %v", d))
}

var noteNames = [...]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Name returns the pitch name with octave, e.g. C4 for 60.
func (n Note) Name() string {
	octave := int(n)/12 - 1
	return fmt.Sprintf("%s%d", noteNames[int(n)%12], octave)
}
