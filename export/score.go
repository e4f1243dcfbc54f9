// Package export writes an edited score as MusicXML or as a Standard MIDI
// File.
package export

import (
	"github.com/py60800/abcedit/abc"
	"github.com/py60800/abcedit/editor"
	"github.com/py60800/abcedit/theory"
)

// Score is the part of an editing session the writers need.
type Score struct {
	Title    string
	Header   theory.Header
	Measures []editor.Measure
	// Final is the closing bar line of a completed score.
	Final *editor.Barline
}

// ScoreOf takes a snapshot of the editor. Its measures must be up to date.
func ScoreOf(e *editor.Editor, title string) Score {
	s := Score{Title: title, Header: e.Header(), Measures: e.Measures()}
	if end, ok := e.Ending(); ok && e.Complete() {
		s.Final = &end.LastBarline
	}
	return s
}

type pitch struct {
	step   byte
	alter  int
	octave int
	midi   int
	marked bool
}

// pitchOf resolves a pitch of note ni of m with the accidentals met earlier
// in the measure and the key signature.
func pitchOf(m editor.Measure, ni int, p abc.Pitch, key *theory.KeySignature) (pitch, bool) {
	pt, ok := theory.PitchTextOf(p)
	if !ok {
		return pitch{}, false
	}
	midi, ok := theory.InferMIDI(pt.String(), m.Pitches(ni), theory.AccidentalOf(p.Accidental), key)
	if !ok {
		return pitch{}, false
	}
	return pitch{
		step:   pt.Letter,
		alter:  midi - pt.NaturalMIDI(),
		octave: pt.Octave,
		midi:   midi,
		marked: pt.Marked,
	}, true
}
