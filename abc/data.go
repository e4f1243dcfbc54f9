package abc

import (
	"fmt"
	"strings"
)

// Element is one item of a parsed music line. The set of implementations is
// closed: *Note, *Rest, *Spacer and *Bar.
type Element interface {
	Span() (start, end int)
	element()
}

// Bar *************************************************************************

const (
	BAR_SIMPLE = iota
	BAR_THIN_THICK_DOUBLE
	BAR_DOUBLE
	BAR_THICK_THIN_DOUBLE
	BAR_REPEAT_END
	BAR_REPEAT_START
	BAR_REPEAT_BOTH
	BAR_DOT
)

type Bar struct {
	Type      int
	StartChar int
	EndChar   int
}

func (b *Bar) Span() (int, int) { return b.StartChar, b.EndChar }
func (*Bar) element()            {}
func (b *Bar) String() string {
	return fmt.Sprintf("Bar %d [%d:%d]", b.Type, b.StartChar, b.EndChar)
}

// Misc ************************************************************************

type Chord struct {
	Name string
}

// Pitch is one note head. Name is the letter with its octave marks ("C",
// "c'", "B,"); the accidental is kept apart.
type Pitch struct {
	Name       string
	Accidental string
	StartTie   bool
}

const (
	ACC_SHARP     = "sharp"
	ACC_FLAT      = "flat"
	ACC_NATURAL   = "natural"
	ACC_DBL_SHARP = "dblsharp"
	ACC_DBL_FLAT  = "dblflat"
)

// Event *************************************************************************

// Event holds what notes, rests and spacers have in common.
// Duration is a fraction of a whole note, not scaled by tuplets.
type Event struct {
	Duration     float64
	StartTriplet int
	EndTriplet   bool
	StartBeam    bool
	EndBeam      bool
	Chords       []Chord
	Decorations  []string
	StartChar    int
	EndChar      int

	beam      int
	beamBreak bool
}

func (e *Event) Span() (int, int) { return e.StartChar, e.EndChar }

// InBeam reports a note inside a beam group, neither first nor last.
func (e *Event) InBeam() bool { return e.beam == BEAM_MID }

// Note ************************************************************************

const (
	BEAM_NONE = iota
	BEAM_START
	BEAM_MID
	BEAM_END
)

type Note struct {
	Event
	Pitches []Pitch
}

func (*Note) element() {}

func (n *Note) String() string {
	names := make([]string, len(n.Pitches))
	for i, p := range n.Pitches {
		names[i] = p.Name
	}
	return fmt.Sprintf("Note: %v d:%v [%d:%d]", strings.Join(names, ","), n.Duration, n.StartChar, n.EndChar)
}

// BeamAble reports whether the note is short enough to carry a beam.
func (n *Note) BeamAble() bool {
	return n.Duration < 0.25-1e-9
}

type Rest struct {
	Event
	MultiMeasure bool
}

func (*Rest) element() {}

type Spacer struct {
	Event
}

func (*Spacer) element() {}

// AsEvent returns the shared event data of notes, rests and spacers.
func AsEvent(e Element) (*Event, bool) {
	switch v := e.(type) {
	case *Note:
		return &v.Event, true
	case *Rest:
		return &v.Event, true
	case *Spacer:
		return &v.Event, true
	}
	return nil, false
}

// Tune ************************************************************************

// Line is one line of music, first voice only.
type Line struct {
	Index int
	Start int
	Items []Element
}

type Tune struct {
	Lines    []Line
	Unit     float64
	Warnings []string
}

func (t *Tune) String() string {
	r := fmt.Sprintf("Tune %d\n", len(t.Lines))
	for _, l := range t.Lines {
		r += fmt.Sprintf("\tL(%d):", l.Index)
		for _, it := range l.Items {
			r += fmt.Sprintf(" %v", it)
		}
		r += "\n"
	}
	return r
}

// Tuplet **********************************************************************
type tuplet struct {
	n0, n1, n2 int
	countDown  int
}

func (t *tuplet) String() string {
	return fmt.Sprintf("T%d:%d:%d", t.n0, t.n1, t.n2)
}

func (pctx *Parser) tupletAdjust(e *Event) {
	t := pctx.cTuplet
	if t.countDown == t.n2 {
		e.StartTriplet = t.n0
	}
	t.countDown--
	if t.countDown == 0 {
		e.EndTriplet = true
		pctx.cTuplet = nil
	}
}

// Beams ***********************************************************************

func beamResolve(items []Element) {
	beam := false
	var lastNote *Note
	closeBeam := func() {
		if lastNote != nil {
			switch lastNote.beam {
			case BEAM_START:
				lastNote.beam = BEAM_NONE
			case BEAM_MID:
				lastNote.beam = BEAM_END
			}
		}
		beam = false
		lastNote = nil
	}
	for _, e := range items {
		switch n := e.(type) {
		case *Note:
			if !n.BeamAble() {
				closeBeam()
				continue
			}
			switch {
			case !beam && n.beamBreak:
				n.beam = BEAM_NONE
			case !beam && !n.beamBreak:
				beam = true
				n.beam = BEAM_START
			case beam && !n.beamBreak:
				n.beam = BEAM_MID
			case beam && n.beamBreak:
				beam = false
				n.beam = BEAM_END
			}
			lastNote = n
			if !beam {
				lastNote = nil
			}
		case *Rest, *Bar:
			closeBeam()
		}
	}
	closeBeam()
	for _, e := range items {
		if n, ok := e.(*Note); ok {
			n.StartBeam = n.beam == BEAM_START
			n.EndBeam = n.beam == BEAM_END
		}
	}
}
