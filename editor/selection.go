package editor

import (
	"slices"

	"github.com/py60800/abcedit/theory"
)

// NoteData is what the user sees of a selected note.
type NoteData struct {
	Note       string // pitch text with its own accidental, empty for rests
	Rhythm     theory.Rhythm
	Dotted     bool
	Accidental theory.Accidental
	// Beamed tells whether the note is joined to the next one; nil when
	// unknown.
	Beamed        *bool
	Rest          bool
	Triplet       bool
	StartsTriplet bool
	Tied          bool
	Decorations   []string
	StartChar     int
	EndChar       int
}

func (d *NoteData) beamed() bool {
	return d.Beamed != nil && *d.Beamed
}

// Edit gives the current content of the note, ready to be modified.
func (d *NoteData) Edit() NoteEdit {
	return NoteEdit{
		Pitch:       d.Note,
		Rhythm:      d.Rhythm,
		Beamed:      d.beamed(),
		Rest:        d.Rest,
		Dotted:      d.Dotted,
		Tied:        d.Tied,
		Decorations: slices.Clone(d.Decorations),
	}
}

type Selection struct {
	MeasureIdx int
	NoteIdx    int
	Data       *NoteData
}

// Click identifies a rendered note: the music line it is on, the measure
// rank within that line and the offset of its first character.
type Click struct {
	Line      int
	Measure   int
	StartChar int
}

func noteData(m Measure, ni int) *NoteData {
	n := m.Notes[ni]
	d := &NoteData{
		Rest:          n.Rest,
		Triplet:       n.IsTriplet,
		StartsTriplet: n.StartTriplet > 0,
		Decorations:   slices.Clone(n.Decorations),
		StartChar:     n.StartChar,
		EndChar:       n.EndChar,
	}
	d.Rhythm, d.Dotted, _ = theory.RhythmOf(n.Duration)
	if len(n.Pitches) > 0 {
		p := n.Pitches[0]
		if pt, ok := theory.PitchTextOf(p); ok {
			d.Note = pt.String()
		}
		d.Accidental = theory.AccidentalOf(p.Accidental)
		d.Tied = p.StartTie
	}
	if !n.Rest {
		b := n.StartBeam || n.InBeam()
		d.Beamed = &b
	}
	return d
}

// Selector tracks the selected note and edits it in place.
type Selector struct {
	header theory.Header
	sel    *Selection

	OnSelect    func(Selection)
	OnPitch     func(midi int)
	OnHighlight func(start, end int)
	OnClear     func()
}

func NewSelector(h theory.Header) *Selector {
	return &Selector{header: h}
}

func (s *Selector) notify(measures []Measure) {
	if s.OnSelect != nil {
		s.OnSelect(*s.sel)
	}
	if midi, ok := s.Pitch(measures); ok && s.OnPitch != nil {
		s.OnPitch(midi)
	}
}

func valid(measures []Measure, mi, ni int) bool {
	return mi >= 0 && mi < len(measures) && ni >= 0 && ni < len(measures[mi].Notes)
}

func (s *Selector) locate(measures []Measure, c Click) (int, int, bool) {
	for mi, m := range measures {
		if m.Line != c.Line {
			continue
		}
		mi += c.Measure
		if mi < len(measures) {
			for ni, n := range measures[mi].Notes {
				if n.StartChar == c.StartChar {
					return mi, ni, true
				}
			}
		}
		break
	}
	// Rendered measure ranks may disagree with ours around line breaks
	for mi, m := range measures {
		for ni, n := range m.Notes {
			if n.StartChar == c.StartChar {
				return mi, ni, true
			}
		}
	}
	return 0, 0, false
}

// SelectNote selects the clicked note. A non-zero drag, in staff steps,
// selects silently and is returned so the caller can move the note.
func (s *Selector) SelectNote(c Click, measures []Measure, drag int) (Selection, int, bool) {
	mi, ni, ok := s.locate(measures, c)
	if !ok {
		return Selection{}, 0, false
	}
	s.sel = &Selection{MeasureIdx: mi, NoteIdx: ni, Data: noteData(measures[mi], ni)}
	if drag != 0 {
		return *s.sel, drag, true
	}
	s.notify(measures)
	return *s.sel, 0, true
}

func (s *Selector) SelectNext(measures []Measure) (Selection, bool) {
	if s.sel == nil {
		return Selection{}, false
	}
	mi, ni := s.sel.MeasureIdx, s.sel.NoteIdx+1
	for mi < len(measures) && ni >= len(measures[mi].Notes) {
		mi, ni = mi+1, 0
	}
	return s.moveTo(measures, mi, ni)
}

func (s *Selector) SelectPrev(measures []Measure) (Selection, bool) {
	if s.sel == nil {
		return Selection{}, false
	}
	mi, ni := s.sel.MeasureIdx, s.sel.NoteIdx-1
	for mi >= 0 && ni < 0 {
		mi--
		if mi >= 0 {
			ni = len(measures[mi].Notes) - 1
		}
	}
	return s.moveTo(measures, mi, ni)
}

func (s *Selector) moveTo(measures []Measure, mi, ni int) (Selection, bool) {
	if !valid(measures, mi, ni) {
		return *s.sel, false
	}
	s.sel = &Selection{MeasureIdx: mi, NoteIdx: ni, Data: noteData(measures[mi], ni)}
	s.notify(measures)
	return *s.sel, true
}

// Pitch is the sounding pitch of the selected note, accidentals of the
// measure and key included.
func (s *Selector) Pitch(measures []Measure) (int, bool) {
	if s.sel == nil || !valid(measures, s.sel.MeasureIdx, s.sel.NoteIdx) {
		return 0, false
	}
	return noteMIDI(measures[s.sel.MeasureIdx], s.sel.NoteIdx, s.header.Key)
}

// EditNote applies ne to the selected note of text.
func (s *Selector) EditNote(text string, ne NoteEdit) (string, bool) {
	if s.sel == nil {
		return text, false
	}
	d := s.sel.Data
	return EditNote(text, d.StartChar, d.EndChar, d.StartsTriplet, d.beamed(), ne, theory.UnitAt(text, d.StartChar, s.header.Unit))
}

// MoveNote moves the selected note by diatonic steps.
func (s *Selector) MoveNote(text string, steps int) (string, bool) {
	if s.sel == nil || s.sel.Data.Rest || steps == 0 {
		return text, false
	}
	ne := s.sel.Data.Edit()
	p, ok := theory.Transpose(ne.Pitch, steps)
	if !ok {
		return text, false
	}
	ne.Pitch = p
	return s.EditNote(text, ne)
}

func (s *Selector) ChangeAccidental(text string, acc theory.Accidental) (string, bool) {
	if s.sel == nil || s.sel.Data.Rest {
		return text, false
	}
	pt, ok := theory.ParsePitchText(s.sel.Data.Note)
	if !ok {
		return text, false
	}
	switch acc {
	case theory.Sharp:
		pt.Alter = 1
	case theory.Flat:
		pt.Alter = -1
	default:
		pt.Alter = 0
	}
	pt.Marked = acc != theory.None
	ne := s.sel.Data.Edit()
	ne.Pitch = pt.String()
	return s.EditNote(text, ne)
}

func (s *Selector) ToggleBeaming(text string) (string, bool) {
	if s.sel == nil || s.sel.Data.Rest {
		return text, false
	}
	ne := s.sel.Data.Edit()
	ne.Beamed = !ne.Beamed
	return s.EditNote(text, ne)
}

func (s *Selector) ToggleTie(text string) (string, bool) {
	if s.sel == nil || s.sel.Data.Rest {
		return text, false
	}
	ne := s.sel.Data.Edit()
	ne.Tied = !ne.Tied
	return s.EditNote(text, ne)
}

func (s *Selector) ToggleDecoration(text string, name string) (string, bool) {
	if s.sel == nil || name == "" {
		return text, false
	}
	ne := s.sel.Data.Edit()
	if i := slices.Index(ne.Decorations, name); i >= 0 {
		ne.Decorations = slices.Delete(ne.Decorations, i, i+1)
	} else {
		ne.Decorations = append(ne.Decorations, name)
	}
	return s.EditNote(text, ne)
}

// ShouldBeamNextNote is ShouldBeam over measures held by the caller.
func (s *Selector) ShouldBeamNextNote(measures []Measure, r theory.Rhythm) bool {
	return ShouldBeam(measures, s.header.Time, r)
}

// Render refreshes the selection after a reparse of text and highlights
// the note. The selection is dropped when its coordinate no longer holds a
// note.
func (s *Selector) Render(text string, measures []Measure) (Selection, bool) {
	if s.sel == nil {
		return Selection{}, false
	}
	if !valid(measures, s.sel.MeasureIdx, s.sel.NoteIdx) {
		s.Clear()
		return Selection{}, false
	}
	d := noteData(measures[s.sel.MeasureIdx], s.sel.NoteIdx)
	s.sel.Data = d
	if s.OnHighlight != nil {
		if start, end, ok := ResolveNoteSpan(text, d.StartChar, d.EndChar); ok {
			s.OnHighlight(start, end)
		}
	}
	return *s.sel, true
}

func (s *Selector) Clear() {
	if s.sel == nil {
		return
	}
	s.sel = nil
	if s.OnClear != nil {
		s.OnClear()
	}
}

func (s *Selector) Set(sel Selection, measures []Measure) bool {
	if !valid(measures, sel.MeasureIdx, sel.NoteIdx) {
		return false
	}
	sel.Data = noteData(measures[sel.MeasureIdx], sel.NoteIdx)
	s.sel = &sel
	return true
}

func (s *Selector) Selected() (Selection, bool) {
	if s.sel == nil {
		return Selection{}, false
	}
	return *s.sel, true
}
