// Package session drives an editing session: every change of the score
// text is recorded in the history, reparsed and reflected in the measures
// and the selection before the next operation runs.
package session

import (
	"log/slog"

	"github.com/py60800/abcedit/abc"
	"github.com/py60800/abcedit/editor"
	"github.com/py60800/abcedit/history"
	"github.com/py60800/abcedit/theory"
)

// Parser turns the score text into music lines.
type Parser func(text string) *abc.Tune

type Session struct {
	editor   *editor.Editor
	selector *editor.Selector
	history  *history.History
	parse    Parser
	entry    Entry
	logger   *slog.Logger

	// OnPitch receives the pitch of notes added, selected or moved. Rests
	// are not reported.
	OnPitch func(midi int)
	// OnChange receives the text after every change.
	OnChange func(text string)
}

type Option func(*Session)

func WithParser(p Parser) Option {
	return func(s *Session) {
		s.parse = p
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

func WithEntry(e Entry) Option {
	return func(s *Session) {
		s.entry = e
	}
}

func New(e *editor.Editor, opts ...Option) *Session {
	s := &Session{
		editor:  e,
		history: history.New(),
		parse:   abc.Parse,
		entry:   DefaultEntry(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.selector = editor.NewSelector(e.Header())
	s.selector.OnPitch = s.pitch
	s.reparse()
	return s
}

func (s *Session) Text() string {
	return s.editor.Text()
}

func (s *Session) Editor() *editor.Editor {
	return s.editor
}

func (s *Session) Selector() *editor.Selector {
	return s.selector
}

func (s *Session) History() *history.History {
	return s.history
}

func (s *Session) Entry() Entry {
	return s.entry
}

// Apply runs an entry command.
func (s *Session) Apply(c Command) Entry {
	s.entry = Reduce(s.entry, c)
	return s.entry
}

func (s *Session) pitch(midi int) {
	if s.OnPitch != nil {
		s.OnPitch(midi)
	}
}

func (s *Session) reparse() {
	tune := s.parse(s.editor.Text())
	for _, w := range tune.Warnings {
		s.logger.Debug("abc", "warning", w)
	}
	s.editor.UpdateMeasures(tune.Lines)
	s.selector.Render(s.editor.Text(), s.editor.Measures())
}

func (s *Session) commit(old, text string) string {
	s.history.AddEdit(old, text)
	s.editor.SetText(text)
	s.reparse()
	s.logger.Debug("commit", "length", len(text), "measures", s.editor.MeasureCount())
	if s.OnChange != nil {
		s.OnChange(text)
	}
	return text
}

// mutate applies an editor operation that writes the editor text itself.
func (s *Session) mutate(op func() (string, bool)) (string, bool) {
	old := s.editor.Text()
	text, ok := op()
	if !ok {
		return old, false
	}
	return s.commit(old, text), true
}

// edit applies an operation on the selected note.
func (s *Session) edit(op func(text string) (string, bool)) (string, bool) {
	old := s.editor.Text()
	text, ok := op(old)
	if !ok || text == old {
		return old, false
	}
	s.commit(old, text)
	if midi, ok := s.selector.Pitch(s.editor.Measures()); ok {
		s.pitch(midi)
	}
	return text, true
}

func (s *Session) noteOptions() editor.NoteOptions {
	opt := editor.NoteOptions{
		Accidental: s.entry.Accidental,
		Rest:       s.entry.Rest,
		Dotted:     s.entry.Dotted,
		Triplet:    s.entry.Triplet,
		Tied:       s.entry.Tied,
	}
	if s.entry.AutoBeam && !s.entry.Rest {
		opt.Beamed = s.editor.ShouldBeamNextNote(s.entry.Rhythm)
	}
	return opt
}

func (s *Session) add(op func(r theory.Rhythm, opt editor.NoteOptions) (string, bool)) (string, bool) {
	opt := s.noteOptions()
	text, ok := s.mutate(func() (string, bool) {
		return op(s.entry.Rhythm, opt)
	})
	if !ok {
		return text, false
	}
	if s.entry.Triplet && s.editor.IsEndOfTriplet() {
		s.entry = Reduce(s.entry, Command{Kind: ClearTriplet})
	}
	if !opt.Rest {
		if midi, ok := s.editor.LastNoteMIDI(); ok {
			s.pitch(midi)
		}
	}
	return text, true
}

// AddMIDI appends a note given by its MIDI number with the current entry
// toggles.
func (s *Session) AddMIDI(midi int) (string, bool) {
	return s.add(func(r theory.Rhythm, opt editor.NoteOptions) (string, bool) {
		return s.editor.AddMIDI(midi, r, opt)
	})
}

// AddName appends a note given by its scientific name.
func (s *Session) AddName(name string) (string, bool) {
	return s.add(func(r theory.Rhythm, opt editor.NoteOptions) (string, bool) {
		return s.editor.AddName(name, r, opt)
	})
}

func (s *Session) Backspace() (string, bool) {
	return s.mutate(s.editor.Backspace)
}

func (s *Session) NewLine() (string, bool) {
	return s.mutate(s.editor.NewLine)
}

func (s *Session) Undo() (string, bool) {
	return s.replay(s.history.Undo)
}

func (s *Session) Redo() (string, bool) {
	return s.replay(s.history.Redo)
}

func (s *Session) replay(op func(string) (string, bool)) (string, bool) {
	text, ok := op(s.editor.Text())
	if !ok {
		return text, false
	}
	s.editor.SetText(text)
	s.reparse()
	if s.OnChange != nil {
		s.OnChange(text)
	}
	return text, true
}

// Select selects a rendered note. A nonzero drag moves the note by that
// many diatonic steps.
func (s *Session) Select(c editor.Click, drag int) (editor.Selection, bool) {
	sel, shift, ok := s.selector.SelectNote(c, s.editor.Measures(), drag)
	if !ok {
		return sel, false
	}
	if shift != 0 {
		s.MoveSelected(shift)
		sel, _ = s.selector.Selected()
	}
	return sel, true
}

func (s *Session) SelectNext() (editor.Selection, bool) {
	return s.selector.SelectNext(s.editor.Measures())
}

func (s *Session) SelectPrev() (editor.Selection, bool) {
	return s.selector.SelectPrev(s.editor.Measures())
}

func (s *Session) ClearSelection() {
	s.selector.Clear()
}

func (s *Session) MoveSelected(steps int) (string, bool) {
	return s.edit(func(text string) (string, bool) {
		return s.selector.MoveNote(text, steps)
	})
}

func (s *Session) SetAccidental(acc theory.Accidental) (string, bool) {
	return s.edit(func(text string) (string, bool) {
		return s.selector.ChangeAccidental(text, acc)
	})
}

func (s *Session) ToggleTie() (string, bool) {
	return s.edit(s.selector.ToggleTie)
}

func (s *Session) ToggleBeam() (string, bool) {
	return s.edit(s.selector.ToggleBeaming)
}

func (s *Session) ToggleDecoration(name string) (string, bool) {
	return s.edit(func(text string) (string, bool) {
		return s.selector.ToggleDecoration(text, name)
	})
}
