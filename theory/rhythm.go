package theory

import (
	"math"
	"math/big"
	"strings"
)

// Rhythm is a note value given as its denominator: 4 is a quarter note.
type Rhythm int

const (
	Whole     Rhythm = 1
	Half      Rhythm = 2
	Quarter   Rhythm = 4
	Eighth    Rhythm = 8
	Sixteenth Rhythm = 16
)

var rhythmNames = map[Rhythm]string{
	Whole:     "whole",
	Half:      "half",
	Quarter:   "quarter",
	Eighth:    "eighth",
	Sixteenth: "sixteenth",
}

func (r Rhythm) String() string {
	if s, ok := rhythmNames[r]; ok {
		return s
	}
	return "unknown"
}

func (r Rhythm) Valid() bool {
	_, ok := rhythmNames[r]
	return ok
}

func ParseRhythm(s string) (Rhythm, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for r, n := range rhythmNames {
		if n == s {
			return r, true
		}
	}
	switch s {
	case "1":
		return Whole, true
	case "2":
		return Half, true
	case "4":
		return Quarter, true
	case "8":
		return Eighth, true
	case "16":
		return Sixteenth, true
	}
	return 0, false
}

// Duration is the written length as a fraction of a whole note.
func (r Rhythm) Duration(dotted bool) float64 {
	d := 1 / float64(r)
	if dotted {
		d *= 1.5
	}
	return d
}

// Suffix writes the ABC length multiplier of a rhythm relative to the unit
// note length 1/unit.
func Suffix(r Rhythm, dotted bool, unit int) string {
	m := big.NewRat(int64(unit), int64(r))
	if dotted {
		m.Mul(m, big.NewRat(3, 2))
	}
	num, den := m.Num(), m.Denom()
	switch {
	case m.IsInt() && num.Int64() == 1:
		return ""
	case m.IsInt():
		return num.String()
	case num.Int64() == 1 && den.Int64() == 2:
		return "/"
	case num.Int64() == 1:
		return "/" + den.String()
	}
	return num.String() + "/" + den.String()
}

// RhythmOf looks a written duration up in the table of supported values.
func RhythmOf(duration float64) (Rhythm, bool, bool) {
	for _, r := range []Rhythm{Whole, Half, Quarter, Eighth, Sixteenth} {
		if math.Abs(duration-r.Duration(false)) < 1e-5 {
			return r, false, true
		}
		if math.Abs(duration-r.Duration(true)) < 1e-5 {
			return r, true, true
		}
	}
	return 0, false, false
}
