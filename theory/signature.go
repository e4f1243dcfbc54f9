// Package theory holds the music knowledge the editor needs: time and key
// signatures, clefs, the ABC pitch text codec and rhythm lengths.
package theory

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Time ************************************************************************

type TimeSignature struct {
	Upper int
	Lower int
}

// Measure is the length of a full bar as a fraction of a whole note.
func (t TimeSignature) Measure() float64 {
	return float64(t.Upper) / float64(t.Lower)
}

func (t TimeSignature) String() string {
	return fmt.Sprintf("%d/%d", t.Upper, t.Lower)
}

// Clef ************************************************************************

type Clef int

const (
	Treble Clef = iota
	Bass
)

func (c Clef) String() string {
	if c == Bass {
		return "bass"
	}
	return "treble"
}

// ParseClef never fails: unknown names are read as treble.
func ParseClef(name string) Clef {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bass", "bass3", "f":
		return Bass
	}
	return Treble
}

// Key/Mode ********************************************************************

const keyConfig = `
7  C# A#m G#Mix D#Dor E#Phr F#Lyd B#Loc
6  F# D#m C#Mix G#Dor A#Phr BLyd E#Loc
5  B G#m F#Mix C#Dor D#Phr ELyd A#Loc
4  E C#m BMix F#Dor G#Phr ALyd D#Loc
3  A F#m EMix BDor C#Phr DLyd G#Loc
2  D Bm AMix EDor F#Phr GLyd C#Loc
1  G Em DMix ADor BPhr CLyd F#Loc
0 C Am GMix DDor EPhr FLyd BLoc
-1  F Dm CMix GDor APhr BbLyd ELoc
-2  Bb Gm FMix CDor DPhr EbLyd ALoc
-3  Eb Cm BbMix FDor GPhr AbLyd DLoc
-4  Ab Fm EbMix BbDor CPhr DbLyd GLoc
-5  Db Bbm AbMix EbDor FPhr GbLyd CLoc
-6  Gb Ebm DbMix AbDor BbPhr CbLyd FLoc
-7  Cb Abm GbMix DbDor EbPhr FbLyd BbLoc
`

var mod2Fifth map[string]int

func init() {
	mod2Fifth = make(map[string]int)
	kc := strings.Split(keyConfig, "\n")
	for _, lk := range kc {
		l := strings.Split(lk, " ")
		if len(l) > 1 {
			n, _ := strconv.Atoi(l[0])
			for _, s := range l[1:] {
				if s != "" {
					mod2Fifth[s] = n
				}
			}
		}
	}
}

type KeyType int

const (
	Major KeyType = iota
	Minor
)

func (t KeyType) String() string {
	if t == Minor {
		return "minor"
	}
	return "major"
}

// KeySignature describes the active key. Scale lists the seven pitch
// classes from the tonic ("B", "C#", "D", ...). Natural is only set for
// minor keys and holds the relative major.
type KeySignature struct {
	Tonic   string
	Type    KeyType
	Mode    string
	Fifths  int
	Scale   []string
	Natural *KeySignature
}

func (k *KeySignature) String() string {
	if k.Type == Minor {
		return k.Tonic + "m"
	}
	return k.Tonic + k.Mode
}

var sharpOrder = []byte("FCGDAEB")
var flatOrder = []byte("BEADGCF")
var letters = []byte("CDEFGAB")

func letterIndex(l byte) int {
	for i, c := range letters {
		if c == l {
			return i
		}
	}
	return -1
}

func fifthAlter(fifths int, letter byte) int {
	if fifths > 0 {
		for i := 0; i < fifths && i < 7; i++ {
			if letter == sharpOrder[i] {
				return 1
			}
		}
	} else {
		for i := 0; i < -fifths && i < 7; i++ {
			if letter == flatOrder[i] {
				return -1
			}
		}
	}
	return 0
}

func buildScale(tonic byte, fifths int) []string {
	start := letterIndex(tonic)
	scale := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		l := letters[(start+i)%7]
		s := string(l)
		switch fifthAlter(fifths, l) {
		case 1:
			s += "#"
		case -1:
			s += "b"
		}
		scale = append(scale, s)
	}
	return scale
}

// ScaleAlter returns the alteration the key applies to a letter. Minor keys
// answer from their relative major.
func (k *KeySignature) ScaleAlter(letter byte) int {
	scale := k.Scale
	if k.Type == Minor && k.Natural != nil {
		scale = k.Natural.Scale
	}
	for _, s := range scale {
		if s[0] != letter {
			continue
		}
		switch {
		case strings.HasSuffix(s, "#"):
			return 1
		case strings.HasSuffix(s, "b"):
			return -1
		}
		return 0
	}
	return 0
}

// ParseKey reads an ABC key token such as "C", "Bb", "F#m", "Amin" or
// "DDor".
func ParseKey(token string) (*KeySignature, bool) {
	token = strings.TrimSpace(token)
	if token == "" || token == "none" {
		return keyNew("C", "", 0), true
	}
	r := []rune(token)
	note := string(unicode.ToUpper(r[0]))
	i := 1
	if i < len(r) && (r[i] == '#' || r[i] == 'b') {
		note += string(r[i])
		i++
	}
	for i < len(r) && r[i] == ' ' {
		i++
	}
	mod := ""
	for j := 0; i < len(r) && unicode.IsLetter(r[i]); i, j = i+1, j+1 {
		c := r[i]
		switch j {
		case 0:
			mod += string(unicode.ToUpper(c))
		case 1, 2:
			mod += string(unicode.ToLower(c))
		default:
			// skip
		}
	}
	switch mod {
	case "Maj", "Ion":
		mod = ""
	case "Min", "Aeo", "M":
		mod = "m"
	}
	fifths, ok := mod2Fifth[note+mod]
	if !ok {
		return nil, false
	}
	return keyNew(note, mod, fifths), true
}

func keyNew(tonic, mod string, fifths int) *KeySignature {
	k := &KeySignature{
		Tonic:  tonic,
		Mode:   mod,
		Fifths: fifths,
		Scale:  buildScale(tonic[0], fifths),
	}
	if mod == "m" {
		k.Type = Minor
		k.Mode = ""
		rel := k.Scale[2]
		k.Natural = &KeySignature{
			Tonic:  rel,
			Fifths: fifths,
			Scale:  buildScale(rel[0], fifths),
		}
	}
	return k
}
