package editor

import (
	"regexp"
	"strings"

	"github.com/py60800/abcedit/theory"
)

var (
	leadingChords  = regexp.MustCompile(`^(?:\s*"[^"]*")*\s*`)
	trailingSpace  = regexp.MustCompile(`\s+$`)
	followingChord = regexp.MustCompile(`^(?:"[^"]*")*`)
)

// ResolveNoteSpan narrows the parsed span of a note to its own characters:
// chord symbols in front of it and whitespace after it are left out.
func ResolveNoteSpan(text string, start, end int) (int, int, bool) {
	if start < 0 || end > len(text) || start >= end {
		return 0, 0, false
	}
	if loc := leadingChords.FindStringIndex(text[start:end]); loc != nil {
		start += loc[1]
	}
	if loc := trailingSpace.FindStringIndex(text[start:end]); loc != nil {
		end = start + loc[0]
	}
	if start >= end {
		return 0, 0, false
	}
	return start, end, true
}

// NoteEdit is the new content of an edited note.
type NoteEdit struct {
	Pitch       string
	Rhythm      theory.Rhythm
	Beamed      bool
	Rest        bool
	Dotted      bool
	Tied        bool
	Decorations []string
}

func (ne NoteEdit) text(startsTriplet bool, unit int) string {
	var b strings.Builder
	if startsTriplet {
		b.WriteString("(3")
	}
	for _, d := range ne.Decorations {
		b.WriteString("!" + d + "!")
	}
	if ne.Rest {
		b.WriteString("z")
	} else {
		b.WriteString(ne.Pitch)
	}
	b.WriteString(theory.Suffix(ne.Rhythm, ne.Dotted, unit))
	if ne.Tied && !ne.Rest {
		b.WriteString("-")
	}
	return b.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// EditNote rewrites the note found at [start, end) of text. wasBeamed is the
// beam state of the note before the edit; a change adds or removes the
// space separating it from the next note.
func EditNote(text string, start, end int, startsTriplet, wasBeamed bool, ne NoteEdit, unit int) (string, bool) {
	if !ne.Rhythm.Valid() || (!ne.Rest && ne.Pitch == "") {
		return text, false
	}
	start, end, ok := ResolveNoteSpan(text, start, end)
	if !ok {
		return text, false
	}
	repl := ne.text(startsTriplet, unit)
	if ne.Beamed != wasBeamed {
		chordsEnd := end + followingChord.FindStringIndex(text[end:])[1]
		if ne.Beamed {
			k := chordsEnd
			for k < len(text) && (text[k] == ' ' || text[k] == '\t') {
				k++
			}
			if k > chordsEnd {
				repl += text[end:chordsEnd]
				end = k
			}
		} else if chordsEnd < len(text) && !isSpace(text[chordsEnd]) {
			repl += text[end:chordsEnd] + " "
			end = chordsEnd
		}
	}
	return text[:start] + repl + text[end:], true
}
