package theory

import (
	"strconv"
	"strings"

	"github.com/py60800/abcedit/abc"
)

// Accidental is the accidental the user asked for. None means "no explicit
// override": the measure and the key decide. Natural forces a natural sign.
type Accidental int

const (
	None Accidental = iota
	Sharp
	Flat
	Natural
)

func (a Accidental) String() string {
	switch a {
	case Sharp:
		return "sharp"
	case Flat:
		return "flat"
	case Natural:
		return "natural"
	}
	return "none"
}

// Prefix is the ABC accidental marker.
func (a Accidental) Prefix() string {
	switch a {
	case Sharp:
		return "^"
	case Flat:
		return "_"
	case Natural:
		return "="
	}
	return ""
}

// AccidentalOf maps a parsed accidental to the user facing one.
func AccidentalOf(abcAcc string) Accidental {
	switch abcAcc {
	case abc.ACC_SHARP, abc.ACC_DBL_SHARP:
		return Sharp
	case abc.ACC_FLAT, abc.ACC_DBL_FLAT:
		return Flat
	case abc.ACC_NATURAL:
		return Natural
	}
	return None
}

func ParseAccidental(s string) (Accidental, bool) {
	switch strings.ToLower(s) {
	case "", "none":
		return None, true
	case "sharp", "#", "^":
		return Sharp, true
	case "flat", "b", "_":
		return Flat, true
	case "natural", "=":
		return Natural, true
	}
	return None, false
}

func abcAlter(abcAcc string) int {
	switch abcAcc {
	case abc.ACC_SHARP:
		return 1
	case abc.ACC_DBL_SHARP:
		return 2
	case abc.ACC_FLAT:
		return -1
	case abc.ACC_DBL_FLAT:
		return -2
	}
	return 0
}

var letterSemis = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

var sharpNames = []string{"C", "^C", "D", "^D", "E", "F", "^F", "G", "^G", "A", "^A", "B"}
var flatNames = []string{"C", "_D", "D", "_E", "E", "F", "_G", "G", "_A", "A", "_B", "B"}

// letterOctave writes a letter in scientific octave o the ABC way: octave 4
// is upper case, 5 lower case, then ' and , marks.
func letterOctave(letter byte, o int) string {
	switch {
	case o >= 5:
		return strings.ToLower(string(letter)) + strings.Repeat("'", o-5)
	default:
		return string(letter) + strings.Repeat(",", 4-o)
	}
}

// PitchToText converts a MIDI note number to ABC pitch text.
func PitchToText(midi int, acc Accidental) string {
	pc := ((midi % 12) + 12) % 12
	octave := midi/12 - 1
	name := sharpNames[pc]
	switch acc {
	case Flat:
		name = flatNames[pc]
	case Natural:
		if len(name) == 1 {
			name = "=" + name
		}
	}
	prefix := ""
	if len(name) == 2 {
		prefix, name = name[:1], name[1:]
	}
	return prefix + letterOctave(name[0], octave)
}

// SciName is a scientific pitch name such as "C4", "F#5" or "Bb3".
type SciName struct {
	Letter byte
	Alter  int
	Octave int
}

func ParseSciName(name string) (SciName, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return SciName{}, false
	}
	n := SciName{Letter: strings.ToUpper(name[:1])[0]}
	if _, ok := letterSemis[n.Letter]; !ok {
		return SciName{}, false
	}
	rest := name[1:]
	switch {
	case strings.HasPrefix(rest, "#"):
		n.Alter, rest = 1, rest[1:]
	case strings.HasPrefix(rest, "♯"):
		n.Alter, rest = 1, rest[len("♯"):]
	case strings.HasPrefix(rest, "b"):
		n.Alter, rest = -1, rest[1:]
	case strings.HasPrefix(rest, "♭"):
		n.Alter, rest = -1, rest[len("♭"):]
	}
	o, err := strconv.Atoi(rest)
	if err != nil {
		return SciName{}, false
	}
	n.Octave = o
	return n, true
}

func (n SciName) MIDI() int {
	return (n.Octave+1)*12 + letterSemis[n.Letter] + n.Alter
}

func (n SciName) String() string {
	s := string(n.Letter)
	switch n.Alter {
	case 1:
		s += "#"
	case -1:
		s += "b"
	}
	return s + strconv.Itoa(n.Octave)
}

// NameToText converts a scientific name to ABC pitch text. A plain name gets
// the requested accidental in front of it; a name that already carries an
// accidental is respelled with the enharmonic matching the request.
func NameToText(name string, acc Accidental) (string, bool) {
	n, ok := ParseSciName(name)
	if !ok {
		return "", false
	}
	if n.Alter != 0 {
		if acc == None || acc == Natural {
			acc = Sharp
			if n.Alter < 0 {
				acc = Flat
			}
		}
		return PitchToText(n.MIDI(), acc), true
	}
	return acc.Prefix() + letterOctave(n.Letter, n.Octave), true
}

// MIDIToName gives the sharp spelled scientific name of a MIDI number.
func MIDIToName(midi int) string {
	pc := ((midi % 12) + 12) % 12
	s := strings.TrimPrefix(sharpNames[pc], "^")
	if len(sharpNames[pc]) == 2 {
		s += "#"
	}
	return s + strconv.Itoa(midi/12-1)
}

// PitchText is a decoded ABC pitch such as "^c'".
type PitchText struct {
	Letter byte
	Octave int
	Alter  int
	Marked bool
}

// ParsePitchText decodes an ABC pitch. Rests and anything else fail.
func ParsePitchText(s string) (PitchText, bool) {
	var p PitchText
	i := 0
loop:
	for i < len(s) {
		switch s[i] {
		case '^':
			p.Alter++
		case '_':
			p.Alter--
		case '=':
		default:
			break loop
		}
		p.Marked = true
		i++
	}
	if i >= len(s) {
		return PitchText{}, false
	}
	c := s[i]
	switch {
	case c >= 'A' && c <= 'G':
		p.Letter, p.Octave = c, 4
	case c >= 'a' && c <= 'g':
		p.Letter, p.Octave = c-'a'+'A', 5
	default:
		return PitchText{}, false
	}
	for _, m := range s[i+1:] {
		switch m {
		case '\'':
			p.Octave++
		case ',':
			p.Octave--
		default:
			return PitchText{}, false
		}
	}
	return p, true
}

// PitchTextOf decodes a parsed pitch.
func PitchTextOf(p abc.Pitch) (PitchText, bool) {
	pt, ok := ParsePitchText(p.Name)
	if !ok {
		return pt, false
	}
	pt.Alter = abcAlter(p.Accidental)
	pt.Marked = p.Accidental != ""
	return pt, true
}

// Same reports the same letter in the same octave.
func (p PitchText) Same(o PitchText) bool {
	return p.Letter == o.Letter && p.Octave == o.Octave
}

func (p PitchText) NaturalMIDI() int {
	return (p.Octave+1)*12 + letterSemis[p.Letter]
}

// MIDI is the literal pitch, ignoring measure and key context.
func (p PitchText) MIDI() int {
	return p.NaturalMIDI() + p.Alter
}

// Name is the ABC name without accidental.
func (p PitchText) Name() string {
	return letterOctave(p.Letter, p.Octave)
}

func (p PitchText) String() string {
	prefix := ""
	switch {
	case p.Alter > 0:
		prefix = strings.Repeat("^", p.Alter)
	case p.Alter < 0:
		prefix = strings.Repeat("_", -p.Alter)
	case p.Marked:
		prefix = "="
	}
	return prefix + p.Name()
}

// InferMIDI resolves the sounding pitch of ABC pitch text. An explicit
// accidental wins; otherwise the latest accidental on the same letter and
// octave among prior (the earlier notes of the measure, in order) carries
// through; otherwise the key signature applies.
func InferMIDI(text string, prior []abc.Pitch, explicit Accidental, key *KeySignature) (int, bool) {
	p, ok := ParsePitchText(text)
	if !ok {
		return 0, false
	}
	if explicit != None || p.Marked {
		return p.MIDI(), true
	}
	for i := len(prior) - 1; i >= 0; i-- {
		q, ok := PitchTextOf(prior[i])
		if !ok || !q.Marked || !q.Same(p) {
			continue
		}
		return p.NaturalMIDI() + q.Alter, true
	}
	if key != nil {
		return p.NaturalMIDI() + key.ScaleAlter(p.Letter), true
	}
	return p.MIDI(), true
}

// Transpose moves ABC pitch text by diatonic steps. The accidental is
// dropped so the key signature applies to the new note.
func Transpose(text string, steps int) (string, bool) {
	p, ok := ParsePitchText(text)
	if !ok {
		return "", false
	}
	idx := p.Octave*7 + letterIndex(p.Letter) + steps
	o, l := idx/7, idx%7
	if l < 0 {
		l += 7
		o--
	}
	return letterOctave(letters[l], o), true
}
