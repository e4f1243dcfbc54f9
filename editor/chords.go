package editor

import (
	"math"

	"github.com/py60800/abcedit/abc"
	"github.com/py60800/abcedit/theory"
)

// TemplateChord is a chord symbol of a template measure. Beat counts in
// units of the time signature lower number from the start of the measure.
type TemplateChord struct {
	Name string
	Beat float64
}

type TemplateMeasure struct {
	Chords []TemplateChord
}

// ChordTemplate is a chord progression laid out measure by measure.
type ChordTemplate []TemplateMeasure

// ParseChordTemplate reads the chord symbols of an ABC text and places
// them by measure and beat under the given meter.
func ParseChordTemplate(text string, ts theory.TimeSignature) ChordTemplate {
	tune := abc.Parse(text)
	var tpl ChordTemplate
	for _, m := range ExtractMeasures(tune.Lines, ts) {
		if m.IsEmpty() {
			continue
		}
		var tm TemplateMeasure
		pos := 0.0
		for _, n := range m.Notes {
			for _, c := range n.Chords {
				tm.Chords = append(tm.Chords, TemplateChord{Name: c.Name, Beat: pos * float64(ts.Lower)})
			}
			pos += n.Weight()
		}
		tpl = append(tpl, tm)
	}
	return tpl
}

// ChordAt finds the chord starting at beat of measure idx.
func (t ChordTemplate) ChordAt(idx int, beat float64) (string, bool) {
	if idx < 0 || idx >= len(t) {
		return "", false
	}
	for _, c := range t[idx].Chords {
		if math.Abs(c.Beat-beat) < 1e-3 {
			return c.Name, true
		}
	}
	return "", false
}
