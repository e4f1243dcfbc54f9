// Package editor keeps an ABC text and the measures parsed from it in step
// while notes are entered, removed and edited.
package editor

import (
	"github.com/py60800/abcedit/abc"
	"github.com/py60800/abcedit/theory"
)

const measureEpsilon = 1e-5

// Note is a note or rest of a measure. Spacers never make it here.
type Note struct {
	*abc.Event
	Pitches   []abc.Pitch
	Rest      bool
	IsTriplet bool
}

// Weight is what the note adds to its measure.
func (n Note) Weight() float64 {
	if n.IsTriplet {
		return n.Duration * 2 / 3
	}
	return n.Duration
}

// Measure ********************************************************************

type Measure struct {
	Notes        []Note
	Line         int
	LineStartIdx int
	LineEndIdx   int
	Duration     float64
}

func (m *Measure) IsEmpty() bool {
	return len(m.Notes) == 0
}

// Pitches lists the pitches of the notes before note idx, in order.
func (m *Measure) Pitches(idx int) []abc.Pitch {
	var r []abc.Pitch
	for _, n := range m.Notes[:min(idx, len(m.Notes))] {
		r = append(r, n.Pitches...)
	}
	return r
}

// ExtractMeasures cuts the parsed lines into measures by accumulated
// duration. The result always ends with the measure being filled, which is
// empty when the last one is complete.
func ExtractMeasures(lines []abc.Line, ts theory.TimeSignature) []Measure {
	full := ts.Measure()
	var measures []Measure
	cur := Measure{}
	inTriplet := false
	for _, line := range lines {
		if cur.IsEmpty() {
			// Leftover of the previous line, not a real measure
			cur = Measure{Line: line.Index}
		}
		for i, it := range line.Items {
			var n Note
			switch v := it.(type) {
			case *abc.Note:
				n = Note{Event: &v.Event, Pitches: v.Pitches}
			case *abc.Rest:
				n = Note{Event: &v.Event, Rest: true}
			case *abc.Spacer, *abc.Bar:
				continue
			}
			if n.StartTriplet > 0 {
				inTriplet = true
			}
			n.IsTriplet = inTriplet
			if n.EndTriplet {
				inTriplet = false
			}
			if cur.IsEmpty() {
				cur.Line = line.Index
				cur.LineStartIdx = i
			}
			cur.Notes = append(cur.Notes, n)
			cur.LineEndIdx = i
			cur.Duration += n.Weight()
			if cur.Duration >= full-measureEpsilon {
				measures = append(measures, cur)
				cur = Measure{Line: line.Index, LineStartIdx: i + 1, LineEndIdx: i + 1}
			}
		}
	}
	return append(measures, cur)
}

// lastNote walks back from the end to the latest note of any measure.
func lastNote(measures []Measure) (int, int) {
	for mi := len(measures) - 1; mi >= 0; mi-- {
		if n := len(measures[mi].Notes); n > 0 {
			return mi, n - 1
		}
	}
	return -1, -1
}
