package editor

import (
	"math"

	"github.com/py60800/abcedit/theory"
)

// Positions, in beats, where a beam group must not continue.
var beamBoundaries = map[theory.Rhythm][]float64{
	theory.Eighth:    {0, 2},
	theory.Sixteenth: {0, 1, 2, 3},
}

// ShouldBeam decides whether a note of rhythm candidate entered now should
// be glued to the previous one. Only common time has grouping rules.
func ShouldBeam(measures []Measure, ts theory.TimeSignature, candidate theory.Rhythm) bool {
	if ts != (theory.TimeSignature{Upper: 4, Lower: 4}) {
		return false
	}
	if _, ok := beamBoundaries[candidate]; !ok {
		return false
	}
	if len(measures) == 0 {
		return false
	}
	m := measures[len(measures)-1]
	if m.IsEmpty() {
		return false
	}
	last := m.Notes[len(m.Notes)-1]
	if last.Rest || last.EndTriplet {
		return false
	}
	r, _, ok := theory.RhythmOf(last.Duration)
	if !ok {
		return false
	}
	bounds, ok := beamBoundaries[r]
	if !ok {
		return false
	}
	beat := m.Duration * float64(ts.Lower)
	for _, b := range bounds {
		if math.Abs(beat-b) < 1e-3 {
			return false
		}
	}
	return true
}
