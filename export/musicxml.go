package export

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/py60800/abcedit/abc"
	"github.com/py60800/abcedit/editor"
	"github.com/py60800/abcedit/theory"
	xml "github.com/subchen/go-xmldom"
)

const pi = `<!DOCTYPE score-partwise PUBLIC "-//Recordare//DTD MusicXML 3.0 Partwise//EN" "http://www.musicxml.org/dtds/partwise.dtd">`

const partId = "P1"

// MusicXML renders a score as a single part partwise document.
type MusicXML struct {
	Divisions int
	Encoder   string
	// Warnings collects the notes that could not be rendered exactly.
	Warnings []string

	now func() time.Time
}

func MusicXMLNew() *MusicXML {
	return &MusicXML{Divisions: 120, Encoder: "abcedit", now: time.Now}
}

// SetDivisions sets the number of divisions per quarter note.
func (x *MusicXML) SetDivisions(d int) {
	if d > 0 {
		x.Divisions = d
	}
}

func (x *MusicXML) warn(format string, args ...any) {
	x.Warnings = append(x.Warnings, fmt.Sprintf(format, args...))
}

var noteTypes = []string{
	"1024th", "512th", "256th", "128th", "64th", "32nd", "16th",
	"eighth", "quarter", "half", "whole", "breve", "long", "maxima"}

func (x *MusicXML) noteType(duration int) (string, int) {
	cDur := x.Divisions * 32
	itype := 0
	for j := len(noteTypes) - 1; j > 0; j-- {
		if duration >= cDur {
			itype = j
			break
		}
		cDur /= 2
	}
	switch {
	case duration == cDur:
		return noteTypes[itype], 0
	case duration == cDur+cDur/2:
		return noteTypes[itype], 1
	case duration == cDur+cDur/2+cDur/4:
		return noteTypes[itype], 2
	default:
		x.warn("Unexpected note duration (%d/%1.3f)", duration, float64(duration)/float64(x.Divisions))
		return noteTypes[itype], 0
	}
}

// divisions converts a duration in whole notes.
func (x *MusicXML) divisions(d float64) int {
	return int(math.Round(d * 4 * float64(x.Divisions)))
}

var accidentalValues = map[int]string{
	-2: "flat-flat",
	-1: "flat",
	0:  "natural",
	1:  "sharp",
	2:  "double-sharp",
}

var finalStyle = map[editor.Barline]string{
	editor.ThinThin:  "light-light",
	editor.ThinThick: "light-heavy",
}

func addPartList(n *xml.Node) {
	pl := n.CreateNode("part-list")
	sp := pl.CreateNode("score-part").SetAttributeValue("id", partId)
	sp.CreateNode("part-name")
}

func setTitle(n *xml.Node, title string) {
	w := n.CreateNode("work")
	t := w.CreateNode("work-title")
	t.Text = title
}

func addText(x *xml.Node, name, txt string) *xml.Node {
	n := x.CreateNode(name)
	n.Text = txt
	return n
}

func (x *MusicXML) attributes(m *xml.Node, h theory.Header) {
	attr := m.CreateNode("attributes")
	addText(attr, "divisions", fmt.Sprint(x.Divisions))
	if h.Key != nil {
		kn := attr.CreateNode("key")
		addText(kn, "fifths", fmt.Sprint(h.Key.Fifths))
		addText(kn, "mode", h.Key.Type.String())
	}
	tn := attr.CreateNode("time")
	addText(tn, "beats", fmt.Sprint(h.Time.Upper))
	addText(tn, "beat-type", fmt.Sprint(h.Time.Lower))
	cn := attr.CreateNode("clef")
	if h.Clef == theory.Bass {
		addText(cn, "sign", "F")
		addText(cn, "line", "4")
	} else {
		addText(cn, "sign", "G")
		addText(cn, "line", "2")
	}
}

// pendingTies tracks the MIDI keys whose last note started a tie.
type pendingTies map[int]bool

func (x *MusicXML) note(part *xml.Node, m editor.Measure, ni int, key *theory.KeySignature, ties pendingTies) {
	n := m.Notes[ni]
	for _, c := range n.Chords {
		if h, ok := harmonyOf(c.Name); ok {
			h.Gen(part)
		} else {
			x.warn("Unknown chord %q", c.Name)
		}
	}
	duration := x.divisions(n.Weight())
	typ, dots := x.noteType(x.divisions(n.Duration))

	pitches := n.Pitches
	if n.Rest {
		pitches = []abc.Pitch{{}}
	}
	for k, p := range pitches {
		var notas []notation
		var pt pitch
		if !n.Rest {
			var ok bool
			if pt, ok = pitchOf(m, ni, p, key); !ok {
				x.warn("Bad pitch %q", p.Name)
				continue
			}
		}
		noteNode := part.CreateNode("note")
		if k > 0 {
			noteNode.CreateNode("chord")
		}
		if n.Rest {
			noteNode.CreateNode("rest")
		} else {
			pn := noteNode.CreateNode("pitch")
			addText(pn, "step", string(pt.step))
			if pt.alter != 0 {
				addText(pn, "alter", fmt.Sprint(pt.alter))
			}
			addText(pn, "octave", fmt.Sprint(pt.octave))
		}
		addText(noteNode, "duration", fmt.Sprint(duration))
		if !n.Rest && ties[pt.midi] {
			noteNode.CreateNode("tie").SetAttributeValue("type", "stop")
			notas = append(notas, &tie{start: false})
			delete(ties, pt.midi)
		}
		if !n.Rest && p.StartTie {
			noteNode.CreateNode("tie").SetAttributeValue("type", "start")
			notas = append(notas, &tie{start: true})
			ties[pt.midi] = true
		}
		addText(noteNode, "voice", "1")
		addText(noteNode, "type", typ)
		for range dots {
			noteNode.CreateNode("dot")
		}
		if pt.marked {
			if acc, ok := accidentalValues[pt.alter]; ok {
				addText(noteNode, "accidental", acc)
			}
		}
		if n.IsTriplet {
			tm := noteNode.CreateNode("time-modification")
			addText(tm, "actual-notes", "3")
			addText(tm, "normal-notes", "2")
		}
		if k == 0 && !n.Rest {
			var beam string
			switch {
			case n.StartBeam:
				beam = "begin"
			case n.InBeam():
				beam = "continue"
			case n.EndBeam:
				beam = "end"
			}
			if beam != "" {
				addText(noteNode, "beam", beam).SetAttributeValue("number", "1")
			}
		}
		if k == 0 {
			if n.StartTriplet > 0 {
				notas = append(notas, &nTuplet{start: true})
			}
			if n.EndTriplet {
				notas = append(notas, &nTuplet{start: false})
			}
			for _, d := range n.Decorations {
				if nota, ok := decorations[strings.ToLower(d)]; ok {
					notas = append(notas, nota)
				}
			}
		}
		genNotations(noteNode, notas)
	}
}

// Generate renders s. Measures without notes are skipped.
func (x *MusicXML) Generate(s Score) string {
	x.Warnings = nil
	doc := xml.NewDocument("score-partwise")
	doc.Directives = append(doc.Directives, pi)
	doc.Root.SetAttributeValue("version", "3.0")
	setTitle(doc.Root, s.Title)

	id := doc.Root.CreateNode("identification")
	encoding := id.CreateNode("encoding")
	addText(encoding, "encoder", x.Encoder)
	supports := encoding.CreateNode("supports")
	supports.SetAttributeValue("attribute", "new-system")
	supports.SetAttributeValue("element", "print")
	supports.SetAttributeValue("type", "yes")
	supports.SetAttributeValue("value", "yes")
	addText(encoding, "encoding-date", x.now().Format("2006-01-02"))
	addPartList(doc.Root)
	part := doc.Root.CreateNode("part").SetAttributeValue("id", partId)

	last := -1
	for i, m := range s.Measures {
		if !m.IsEmpty() {
			last = i
		}
	}
	ties := pendingTies{}
	number := 0
	line := -1
	for i, m := range s.Measures {
		if m.IsEmpty() {
			continue
		}
		number++
		mNode := part.CreateNode("measure").SetAttributeValue("number", fmt.Sprint(number))
		if number == 1 {
			x.attributes(mNode, s.Header)
		} else if m.Line != line {
			mNode.CreateNode("print").SetAttributeValue("new-system", "yes")
		}
		line = m.Line
		for ni := range m.Notes {
			x.note(mNode, m, ni, s.Header.Key, ties)
		}
		if i == last && s.Final != nil {
			bl := mNode.CreateNode("barline").SetAttributeValue("location", "right")
			addText(bl, "bar-style", finalStyle[*s.Final])
		}
	}
	return doc.XMLPretty()
}
