package export

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	xml "github.com/subchen/go-xmldom"
)

const (
	NOTA_BASE = iota
	NOTA_TECHNICAL
	NOTA_ORNAMENTS
	NOTA_ARTICULATIONS
)

type notation interface {
	Kind() int
	Gen(x *xml.Node)
}

// simple is a notation rendered as a single empty element.
type simple struct {
	kind int
	name string
}

func (s *simple) Kind() int {
	return s.kind
}
func (s *simple) Gen(x *xml.Node) {
	x.CreateNode(s.name)
}

var decorations = map[string]notation{
	"staccato":     &simple{NOTA_ARTICULATIONS, "staccato"},
	"accent":       &simple{NOTA_ARTICULATIONS, "accent"},
	"emphasis":     &simple{NOTA_ARTICULATIONS, "accent"},
	"tenuto":       &simple{NOTA_ARTICULATIONS, "tenuto"},
	"breath":       &simple{NOTA_ARTICULATIONS, "breath-mark"},
	"roll":         &simple{NOTA_ORNAMENTS, "turn"},
	"turn":         &simple{NOTA_ORNAMENTS, "turn"},
	"trill":        &simple{NOTA_ORNAMENTS, "trill-mark"},
	"lowermordent": &simple{NOTA_ORNAMENTS, "mordent"},
	"mordent":      &simple{NOTA_ORNAMENTS, "mordent"},
	"uppermordent": &simple{NOTA_ORNAMENTS, "inverted-mordent"},
	"pralltriller": &simple{NOTA_ORNAMENTS, "inverted-mordent"},
	"upbow":        &simple{NOTA_TECHNICAL, "up-bow"},
	"downbow":      &simple{NOTA_TECHNICAL, "down-bow"},
	"fermata":      &simple{NOTA_BASE, "fermata"},
}

// Tie *************************************************************************

type tie struct {
	start bool
}

func (t *tie) Kind() int {
	return NOTA_BASE
}
func (t *tie) Gen(x *xml.Node) {
	tn := x.CreateNode("tied")
	setAttributeAlt(tn, "type", t.start, "start", "stop")
}

// Tuplet **********************************************************************

type nTuplet struct {
	start bool
}

func (nt *nTuplet) Kind() int {
	return NOTA_BASE
}
func (nt *nTuplet) Gen(x *xml.Node) {
	tuplet := x.CreateNode("tuplet")
	if nt.start {
		tuplet.SetAttributeValue("type", "start")
		tuplet.SetAttributeValue("bracket", "yes")
	} else {
		tuplet.SetAttributeValue("type", "stop")
	}
}

func setAttributeAlt(x *xml.Node, name string, sel bool, v1, v2 string) {
	v := v2
	if sel {
		v = v1
	}
	x.SetAttributeValue(name, v)
}

func genNotations(x *xml.Node, notas []notation) {
	if len(notas) == 0 {
		return
	}
	groups := []struct {
		kind int
		val  string
	}{
		{NOTA_BASE, ""},
		{NOTA_ARTICULATIONS, "articulations"},
		{NOTA_ORNAMENTS, "ornaments"},
		{NOTA_TECHNICAL, "technical"},
	}
	notations := x.CreateNode("notations")
	for _, g := range groups {
		var auxNode *xml.Node
		for _, elem := range notas {
			if elem.Kind() != g.kind {
				continue
			}
			if g.kind == NOTA_BASE {
				elem.Gen(notations)
				continue
			}
			if auxNode == nil {
				auxNode = notations.CreateNode(g.val)
			}
			elem.Gen(auxNode)
		}
	}
}

// Harmony *********************************************************************

type harmony struct {
	Root  string
	Alter int
	Kind  string
}

var chordSuffix = map[int]string{
	2: "-second", 4: "-fourth", 6: "-sixth", 7: "-seventh",
	9: "-ninth", 11: "-11th", 13: "-13th"}

var chordPrefix = []struct{ prefix, kind string }{
	{"maj", "major"},
	{"min", "minor"},
	{"dim", "diminished"},
	{"aug", "augmented"},
	{"+", "augmented"},
	{"sus", "suspended"},
}

// harmonyOf reads a chord symbol such as "Am", "F#m7", "Bb" or "Gsus4".
func harmonyOf(name string) (*harmony, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false
	}
	step := unicode.ToUpper(rune(name[0]))
	if step < 'A' || step > 'G' {
		return nil, false
	}
	h := &harmony{Root: string(step)}
	rest := name[1:]
	switch {
	case strings.HasPrefix(rest, "#"):
		h.Alter, rest = 1, rest[1:]
	case strings.HasPrefix(rest, "b"):
		h.Alter, rest = -1, rest[1:]
	}
	if bass := strings.IndexByte(rest, '/'); bass >= 0 {
		rest = rest[:bass]
	}
	letters, digits := "", ""
	for _, c := range rest {
		switch {
		case unicode.IsLetter(c) || c == '+':
			letters += string(c)
		case unicode.IsDigit(c):
			digits += string(c)
		}
	}
	n, _ := strconv.Atoi(digits)
	h.Kind = "major"
	if letters == "m" || letters == "mi" {
		h.Kind = "minor"
	} else {
		letters = strings.ToLower(letters)
		for _, p := range chordPrefix {
			if strings.HasPrefix(letters, p.prefix) {
				h.Kind = p.kind
				break
			}
		}
	}
	switch {
	case n == 7 && letters == "":
		h.Kind = "dominant"
	case h.Kind == "suspended" && n == 2:
		h.Kind = "suspended-second"
	case h.Kind == "suspended":
		h.Kind = "suspended-fourth"
	default:
		if s, ok := chordSuffix[n]; ok {
			h.Kind += s
		}
	}
	return h, true
}

func (h *harmony) Gen(x *xml.Node) {
	hn := x.CreateNode("harmony")
	r := hn.CreateNode("root")
	rs := r.CreateNode("root-step")
	rs.Text = h.Root
	if h.Alter != 0 {
		a := r.CreateNode("root-alter")
		a.Text = fmt.Sprint(h.Alter)
	}
	k := hn.CreateNode("kind")
	k.Text = h.Kind
}
