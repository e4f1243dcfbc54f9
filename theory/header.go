package theory

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// Header is what the editor needs from the tune header.
type Header struct {
	Time TimeSignature
	Key  *KeySignature
	Clef Clef
	// Unit is the denominator of the unit note length (L:1/8 => 8).
	Unit int
}

var (
	headerLine = regexp.MustCompile(`^[A-Za-z]:`)
	timeSig    = regexp.MustCompile(`^\s*\(?\s*(\d+)\s*\)?\s*/\s*(\d+)\s*$`)
	unitLength = regexp.MustCompile(`^\s*1\s*/\s*(\d+)\s*$`)
	unitField  = regexp.MustCompile(`(?m)\[L:\s*1\s*/\s*(\d+)\s*\]|^L:\s*1\s*/\s*(\d+)\s*$`)
)

// ErrUnsupportedTime is the kind of error returned for a meter the editor
// cannot handle.
var ErrUnsupportedTime = fault.New("unsupported time signature")

// ParseTimeSignature reads an M: value. "C" is common time and "C|" cut
// time.
func ParseTimeSignature(value string) (TimeSignature, error) {
	v := strings.TrimSpace(value)
	switch v {
	case "C":
		return TimeSignature{4, 4}, nil
	case "C|":
		return TimeSignature{2, 2}, nil
	}
	m := timeSig.FindStringSubmatch(v)
	if m == nil {
		return TimeSignature{}, timeError(v)
	}
	upper, _ := strconv.Atoi(m[1])
	lower, _ := strconv.Atoi(m[2])
	if upper <= 0 || lower <= 0 || lower > 64 || lower&(lower-1) != 0 {
		return TimeSignature{}, timeError(v)
	}
	return TimeSignature{Upper: upper, Lower: lower}, nil
}

func timeError(v string) error {
	return fault.Wrap(ErrUnsupportedTime,
		fmsg.WithDesc(fmt.Sprintf("cannot parse time signature %q", v),
			fmt.Sprintf("The time signature %q is not supported.", v)),
		ftag.With(ftag.InvalidArgument))
}

// ParseHeader extracts meter, key, clef and unit length from the header
// lines of an ABC text. Absent fields take their defaults (4/4, C major,
// treble); only an unusable meter is an error.
func ParseHeader(text string) (Header, error) {
	h := Header{
		Time: TimeSignature{4, 4},
		Clef: Treble,
	}
	var meter, key, unit *string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if !headerLine.MatchString(line) {
			continue
		}
		value := strings.TrimSpace(line[2:])
		switch line[0] {
		case 'M':
			if meter == nil {
				meter = &value
			}
		case 'K':
			if key == nil {
				key = &value
			}
		case 'L':
			if unit == nil {
				unit = &value
			}
		}
	}
	if meter != nil && *meter != "none" {
		ts, err := ParseTimeSignature(*meter)
		if err != nil {
			return Header{}, err
		}
		h.Time = ts
	}
	h.Key = keyNew("C", "", 0)
	if key != nil {
		token, clef := splitKeyField(*key)
		if k, ok := ParseKey(token); ok {
			h.Key = k
		} else {
			slog.Warn("unknown key, using C major", "key", token)
		}
		h.Clef = clef
	}
	h.Unit = 8
	if h.Time.Measure() < 0.75 {
		h.Unit = 16
	}
	if unit != nil {
		if m := unitLength.FindStringSubmatch(*unit); m != nil {
			if d, _ := strconv.Atoi(m[1]); d > 0 {
				h.Unit = d
			}
		} else {
			slog.Warn("unsupported unit note length", "unit", *unit)
		}
	}
	return h, nil
}

// UnitAt is the unit note length in effect at offset pos of text: the last
// L: field or inline [L:] before pos, or def when there is none.
func UnitAt(text string, pos int, def int) int {
	if pos > len(text) {
		pos = len(text)
	}
	unit := def
	for _, m := range unitField.FindAllStringSubmatch(text[:pos], -1) {
		v := m[1]
		if v == "" {
			v = m[2]
		}
		if d, _ := strconv.Atoi(v); d > 0 {
			unit = d
		}
	}
	return unit
}

// splitKeyField separates the key token from modifiers such as
// "clef=bass".
func splitKeyField(value string) (string, Clef) {
	clef := Treble
	var token []string
	for _, f := range strings.Fields(value) {
		name, arg, isAssign := strings.Cut(f, "=")
		switch {
		case isAssign && name == "clef":
			clef = ParseClef(arg)
		case isAssign:
			// middle=, transpose=, octave=... do not matter here
		case f == "treble" || f == "bass":
			clef = ParseClef(f)
		default:
			token = append(token, f)
		}
	}
	return strings.Join(token, " "), clef
}
