package editor

import (
	"regexp"
	"strings"

	"github.com/py60800/abcedit/abc"
	"github.com/py60800/abcedit/theory"
)

// DefaultScore is the text a new editor starts from.
const DefaultScore = "X:1\nM:4/4\nL:1/8\nK:C clef=treble\n"

const completeEpsilon = 1e-3

type Barline int

const (
	ThinThin Barline = iota
	ThinThick
)

func (b Barline) String() string {
	if b == ThinThick {
		return "|]"
	}
	return "||"
}

func ParseBarline(s string) (Barline, bool) {
	switch s {
	case "", "||", "thin-thin":
		return ThinThin, true
	case "|]", "thin-thick":
		return ThinThick, true
	}
	return ThinThin, false
}

// Ending closes the score: once measure LastMeasure (1-based) is complete
// it gets the final barline and further notes are refused.
type Ending struct {
	LastMeasure int
	LastBarline Barline
}

// NoteOptions qualify a note being added.
type NoteOptions struct {
	Accidental theory.Accidental
	Beamed     bool
	Rest       bool
	Dotted     bool
	Triplet    bool
	Tied       bool
}

// Editor owns the score text. Measures reflect the text as of the last
// UpdateMeasures call: every mutation must be followed by a parse and an
// UpdateMeasures before measures are read again.
type Editor struct {
	text     string
	header   theory.Header
	measures []Measure
	chords   ChordTemplate
	ending   *Ending
}

type Option func(*Editor)

// WithChordTemplate makes the editor write the chords of an ABC chord
// progression as notes reach their beats.
func WithChordTemplate(text string) Option {
	return func(e *Editor) {
		e.chords = ParseChordTemplate(text, e.header.Time)
	}
}

func WithEnding(end Ending) Option {
	return func(e *Editor) {
		e.ending = &end
	}
}

// New starts an empty score in C major, 4/4.
func New(opts ...Option) (*Editor, error) {
	return Open(DefaultScore, opts...)
}

// Open starts editing an existing text. A text made of header lines only
// gets its final line break, so that notes start the first music line, and
// the first chord of the template.
func Open(text string, opts ...Option) (*Editor, error) {
	h, err := theory.ParseHeader(text)
	if err != nil {
		return nil, err
	}
	if text != "" && bodyStart(text) == len(text) && !strings.HasSuffix(text, "\n") {
		text = strings.TrimRight(text, " \t\r") + "\n"
	}
	e := &Editor{text: text, header: h}
	for _, opt := range opts {
		opt(e)
	}
	e.UpdateMeasures(abc.Parse(text).Lines)
	if bodyStart(text) == len(text) && strings.HasSuffix(text, "\n") {
		if c, ok := e.chords.ChordAt(0, 0); ok {
			e.text += quoteChord(c)
		}
	}
	return e, nil
}

func (e *Editor) Text() string {
	return e.text
}

func (e *Editor) Header() theory.Header {
	return e.header
}

func (e *Editor) Measures() []Measure {
	return e.measures
}

func (e *Editor) Ending() (Ending, bool) {
	if e.ending == nil {
		return Ending{}, false
	}
	return *e.ending, true
}

// SetText replaces the text, e.g. on undo. Measures stay stale until the
// next UpdateMeasures.
func (e *Editor) SetText(text string) {
	e.text = text
}

// UpdateMeasures rebuilds the measures from a parse of the current text.
func (e *Editor) UpdateMeasures(lines []abc.Line) {
	e.measures = ExtractMeasures(lines, e.header.Time)
}

func (e *Editor) Complete() bool {
	return e.ending != nil && len(e.measures) > e.ending.LastMeasure
}

func quoteChord(name string) string {
	return `"` + name + `"`
}

// openTriplet reports a started triplet whose last note is still missing.
func (e *Editor) openTriplet() bool {
	mi, ni := lastNote(e.measures)
	if mi < 0 {
		return false
	}
	n := e.measures[mi].Notes[ni]
	return n.IsTriplet && !n.EndTriplet
}

// AddNote appends a note written as ABC pitch text. The bar line and the
// chord due at the new position follow the note.
func (e *Editor) AddNote(pitch string, r theory.Rhythm, opt NoteOptions) (string, bool) {
	if e.Complete() || !r.Valid() {
		return e.text, false
	}
	var b strings.Builder
	b.WriteString(e.text)
	if !opt.Beamed && !strings.HasSuffix(e.text, "\n") {
		b.WriteString(" ")
	}
	if opt.Triplet && !e.openTriplet() {
		b.WriteString("(3")
	}
	if opt.Rest {
		b.WriteString("z")
	} else {
		b.WriteString(pitch)
	}
	b.WriteString(theory.Suffix(r, opt.Dotted, theory.UnitAt(e.text, len(e.text), e.header.Unit)))
	if opt.Tied && !opt.Rest {
		b.WriteString("-")
	}

	weight := r.Duration(opt.Dotted)
	if opt.Triplet {
		weight *= 2.0 / 3
	}
	cur := len(e.measures) - 1
	total := e.measures[cur].Duration + weight
	switch {
	case total >= e.header.Time.Measure()-completeEpsilon:
		if e.ending != nil && cur+1 == e.ending.LastMeasure {
			b.WriteString(" " + e.ending.LastBarline.String())
			break
		}
		b.WriteString(" |")
		if c, ok := e.chords.ChordAt(cur+1, 0); ok {
			b.WriteString(quoteChord(c))
		}
	default:
		if c, ok := e.chords.ChordAt(cur, total*float64(e.header.Time.Lower)); ok {
			b.WriteString(quoteChord(c))
		}
	}
	e.text = b.String()
	return e.text, true
}

// AddMIDI appends a note given by its MIDI number.
func (e *Editor) AddMIDI(midi int, r theory.Rhythm, opt NoteOptions) (string, bool) {
	return e.AddNote(theory.PitchToText(midi, opt.Accidental), r, opt)
}

// AddName appends a note given by its scientific name ("C4", "F#5").
func (e *Editor) AddName(name string, r theory.Rhythm, opt NoteOptions) (string, bool) {
	pitch, ok := theory.NameToText(name, opt.Accidental)
	if !ok && !opt.Rest {
		return e.text, false
	}
	return e.AddNote(pitch, r, opt)
}

// InferMIDI gives the sounding pitch of a note about to be added to the
// current measure.
func (e *Editor) InferMIDI(pitch string, acc theory.Accidental) (int, bool) {
	m := e.measures[len(e.measures)-1]
	return theory.InferMIDI(pitch, m.Pitches(len(m.Notes)), acc, e.header.Key)
}

// Backspace removes the last note with whatever follows it.
func (e *Editor) Backspace() (string, bool) {
	mi, ni := lastNote(e.measures)
	if mi < 0 {
		return e.text, false
	}
	m := e.measures[mi]
	n := m.Notes[ni]
	if n.StartChar > len(e.text) {
		return e.text, false
	}
	text := strings.TrimRight(e.text[:n.StartChar], " \t")
	beat := 0.0
	for _, p := range m.Notes[:ni] {
		beat += p.Weight()
	}
	if c, ok := e.chords.ChordAt(mi, beat*float64(e.header.Time.Lower)); ok {
		text += quoteChord(c)
	}
	e.text = text
	return e.text, true
}

var headerField = regexp.MustCompile(`^[A-Za-z]:`)

// bodyStart is the offset of the first music line.
func bodyStart(text string) int {
	pos := 0
	for pos < len(text) {
		end := strings.IndexByte(text[pos:], '\n')
		if end < 0 {
			end = len(text) - pos
		}
		line := strings.TrimSpace(text[pos : pos+end])
		if line != "" && !strings.HasPrefix(line, "%") && !headerField.MatchString(line) {
			return pos
		}
		pos += end + 1
	}
	return len(text)
}

// NewLine breaks the music line after the last bar line. Whatever was
// entered after it is dropped.
func (e *Editor) NewLine() (string, bool) {
	if strings.HasSuffix(e.text, "\n") {
		return e.text, false
	}
	body := bodyStart(e.text)
	idx := strings.LastIndexByte(e.text[body:], '|')
	if idx < 0 {
		return e.text, false
	}
	cut := body + idx + 1
	if cut < len(e.text) && e.text[cut] == ']' {
		cut++
	}
	next := 0
	for _, m := range e.measures {
		if m.IsEmpty() || m.Notes[len(m.Notes)-1].StartChar >= cut {
			break
		}
		next++
	}
	text := e.text[:cut] + "\n"
	if c, ok := e.chords.ChordAt(next, 0); ok {
		text += quoteChord(c)
	}
	e.text = text
	return e.text, true
}

// ShouldBeamNextNote tells whether a note of rhythm r would continue the
// current beam group.
func (e *Editor) ShouldBeamNextNote(r theory.Rhythm) bool {
	return ShouldBeam(e.measures, e.header.Time, r)
}

// CurrentDuration is how much of the current measure is filled, as a
// fraction of a whole note.
func (e *Editor) CurrentDuration() float64 {
	return e.measures[len(e.measures)-1].Duration
}

// IsEndOfTriplet reports that the latest note closed a triplet.
func (e *Editor) IsEndOfTriplet() bool {
	mi, ni := lastNote(e.measures)
	if mi < 0 {
		return false
	}
	return e.measures[mi].Notes[ni].EndTriplet
}

// LastNoteMIDI is the sounding pitch of the latest note.
func (e *Editor) LastNoteMIDI() (int, bool) {
	mi, ni := lastNote(e.measures)
	if mi < 0 {
		return 0, false
	}
	return noteMIDI(e.measures[mi], ni, e.header.Key)
}

func noteMIDI(m Measure, ni int, key *theory.KeySignature) (int, bool) {
	n := m.Notes[ni]
	if n.Rest || len(n.Pitches) == 0 {
		return 0, false
	}
	p := n.Pitches[0]
	pt, ok := theory.PitchTextOf(p)
	if !ok {
		return 0, false
	}
	return theory.InferMIDI(pt.String(), m.Pitches(ni), theory.AccidentalOf(p.Accidental), key)
}

// MeasureCount is the number of measures holding notes.
func (e *Editor) MeasureCount() int {
	c := len(e.measures)
	if e.measures[c-1].IsEmpty() {
		c--
	}
	return c
}

