// Package abc parses the body of an ABC tune into lines of tagged items
// carrying the source offsets the editor splices against.
package abc

import (
	"fmt"
	"strings"
	"unicode"
)

func (pctx *Parser) warn(r *sReader, msg string) {
	c := "-"
	if r != nil {
		c = fmt.Sprint(r.idx + 1)
	}
	w := fmt.Sprintf("Warning(ln:%v,p:%v): %v", pctx.lineNumber+1, c, msg)
	pctx.warnings = append(pctx.warnings, w)
}

// Bar *************************************************************************
func (pctx *Parser) parseBar(r *sReader) {
	start := r.Pos()
	before := r.Eat(':')
	var barType int
	b0 := r.Next()
	switch {
	case b0 == '|' && r.Peek() == ']':
		r.Next()
		barType = BAR_THIN_THICK_DOUBLE
	case b0 == '|' && r.Peek() == '|':
		r.Next()
		barType = BAR_DOUBLE
	case b0 == '|':
		barType = BAR_SIMPLE
	case b0 == '[' && r.Peek() == '|':
		r.Next()
		if r.Peek() == ']' {
			// Invisible bar => Ignore
			r.Next()
			return
		}
		barType = BAR_THICK_THIN_DOUBLE
	case b0 == '.' && r.Peek() == '|':
		r.Next()
		barType = BAR_DOT
	case b0 == '[' && unicode.IsDigit(r.Peek()):
		// Variant ending without bar line
		pctx.skipEnding(r)
		return
	default:
		r.UnRead()
		if before < 2 {
			pctx.warn(r, "Invalid bar")
			return
		}
		// :: alias for :|:
		before = 1
		barType = BAR_REPEAT_BOTH
		pctx.appendBar(start, r.Pos(), barType)
		return
	}
	after := r.Eat(':')
	switch {
	case before > 0 && after > 0:
		barType = BAR_REPEAT_BOTH
	case before > 0:
		barType = BAR_REPEAT_END
	case after > 0:
		barType = BAR_REPEAT_START
	}
	pctx.appendBar(start, r.Pos(), barType)
	if unicode.IsDigit(r.Peek()) || (r.Peek() == '[' && unicode.IsDigit(r.PeekN(1))) {
		pctx.skipEnding(r)
	}
}

func (pctx *Parser) appendBar(start, end, barType int) {
	if pctx.pendStart >= 0 {
		pctx.warn(nil, "Dangling annotation before bar")
		pctx.resetPending()
	}
	pctx.cLine.Items = append(pctx.cLine.Items, &Bar{
		Type:      barType,
		StartChar: start,
		EndChar:   end,
	})
}

func (pctx *Parser) skipEnding(r *sReader) {
	if r.Peek() == '[' {
		r.Next()
	}
	for {
		c := r.Peek()
		if unicode.IsDigit(c) || c == ',' || c == '-' {
			r.Next()
			continue
		}
		return
	}
}

// Decoration ******************************************************************
var decoSet = ".~HLMOPSTuv"
var noteSet = "ABCDEFGabcdefgzZxX"
var noteAlter = "^_="

var shortDecorations = map[rune]string{
	'.': "staccato",
	'~': "roll",
	'H': "fermata",
	'L': "accent",
	'M': "lowermordent",
	'O': "coda",
	'P': "uppermordent",
	'S': "segno",
	'T': "trill",
	'u': "upbow",
	'v': "downbow",
}

var validDeco map[rune]bool
var validNote map[rune]bool
var validAlter map[rune]bool

func string2BoolMap(str string) map[rune]bool {
	r := make(map[rune]bool)
	for _, c := range str {
		r[c] = true
	}
	return r
}
func init() {
	validNote = string2BoolMap(noteSet)
	validDeco = string2BoolMap(decoSet + "!+")
	validAlter = string2BoolMap(noteAlter)
}

func (pctx *Parser) markPending(pos int) {
	if pctx.pendStart < 0 {
		pctx.pendStart = pos
	}
}

func (pctx *Parser) resetPending() {
	pctx.pendStart = -1
	pctx.pendChords = nil
	pctx.pendDecos = nil
}

func (pctx *Parser) parseDecoration(r *sReader) {
	pctx.markPending(r.Pos())
	d := r.Next()
	switch d {
	case '!', '+':
		name := ""
		for {
			n := r.Next()
			if n == d {
				break
			}
			if n == 0 {
				pctx.warn(r, "Unterminated decoration")
				return
			}
			name += string(n)
		}
		pctx.pendDecos = append(pctx.pendDecos, name)
	default:
		pctx.pendDecos = append(pctx.pendDecos, shortDecorations[d])
	}
}

// Chord symbols ***************************************************************
func (pctx *Parser) parseChordSymbol(r *sReader) {
	pctx.markPending(r.Pos())
	r.Next() // '"'
	text := ""
	for {
		c := r.Next()
		if c == '"' {
			break
		}
		if c == 0 {
			pctx.warn(r, "Unterminated chord symbol")
			return
		}
		text += string(c)
	}
	if text == "" || strings.ContainsRune("^_<>@", rune(text[0])) {
		// Annotation, not a chord
		return
	}
	pctx.pendChords = append(pctx.pendChords, Chord{Name: strings.TrimSpace(text)})
}

// Notes ***********************************************************************
func (pctx *Parser) parseAccidental(r *sReader) string {
	switch r.Peek() {
	case '=':
		r.Next()
		return ACC_NATURAL
	case '^':
		if r.Eat('^') > 1 {
			return ACC_DBL_SHARP
		}
		return ACC_SHARP
	case '_':
		if r.Eat('_') > 1 {
			return ACC_DBL_FLAT
		}
		return ACC_FLAT
	}
	return ""
}

func (pctx *Parser) parseStep(r *sReader) (string, bool) {
	n := r.Peek()
	if !unicode.IsLetter(n) || !strings.ContainsRune("ABCDEFGabcdefg", n) {
		return "", false
	}
	r.Next()
	name := string(n)
	for {
		switch c := r.Peek(); c {
		case '\'', ',':
			name += string(c)
			r.Next()
			continue
		}
		return name, true
	}
}

func (pctx *Parser) parseDuration(r *sReader) float64 {
	duration := pctx.unit * float64(r.ReadInt(1))
	if r.Peek() == '/' {
		cpt := r.Eat('/')
		switch cpt {
		case 1:
			if i1 := r.ReadInt(2); i1 != 0 {
				duration /= float64(i1)
			}
		default:
			for i := 0; i < cpt; i++ {
				duration /= 2
			}
		}
	}
	return duration
}

func (pctx *Parser) takeEvent(pos int) Event {
	pctx.markPending(pos)
	ev := Event{
		StartChar:   pctx.pendStart,
		Chords:      pctx.pendChords,
		Decorations: pctx.pendDecos,
	}
	pctx.resetPending()
	return ev
}

// finishEvent consumes the tie and the whitespace following an event and
// applies pending rhythm modifiers.
func (pctx *Parser) finishEvent(r *sReader, ev *Event, counted bool) bool {
	tie := false
	if r.Peek() == '-' {
		r.Next()
		tie = true
	}
	if r.SkipSpace() {
		ev.beamBreak = true
	}
	ev.EndChar = r.Pos()
	if pctx.brokenRythm != 0 {
		processBrokenRythm(ev, pctx.brokenRythm, false, pctx.brokenRythmCount)
		pctx.brokenRythm = 0
	}
	if counted && pctx.cTuplet != nil {
		pctx.tupletAdjust(ev)
	}
	return tie
}

func (pctx *Parser) parseNote(r *sReader) {
	ev := pctx.takeEvent(r.Pos())
	acc := pctx.parseAccidental(r)
	switch c := r.Peek(); c {
	case 'z', 'Z', 'x', 'X':
		r.Next()
		multi := c == 'Z' || c == 'X'
		if multi {
			ev.Duration = pctx.measure * float64(r.ReadInt(1))
		} else {
			ev.Duration = pctx.parseDuration(r)
		}
		if acc != "" {
			pctx.warn(r, "Accidental on rest")
		}
		if c == 'x' || c == 'X' {
			s := &Spacer{Event: ev}
			pctx.finishEvent(r, &s.Event, false)
			pctx.cLine.Items = append(pctx.cLine.Items, s)
			return
		}
		rest := &Rest{Event: ev, MultiMeasure: multi}
		pctx.finishEvent(r, &rest.Event, true)
		pctx.cLine.Items = append(pctx.cLine.Items, rest)
		pctx.lastEvent = &rest.Event
		pctx.cNote = nil
		return
	}
	name, ok := pctx.parseStep(r)
	if !ok {
		pctx.warn(r, fmt.Sprintf("Unexpected:%v", string(r.Peek())))
		r.Next()
		return
	}
	note := &Note{Event: ev}
	note.Duration = pctx.parseDuration(r)
	note.Pitches = []Pitch{{Name: name, Accidental: acc}}
	if pctx.finishEvent(r, &note.Event, true) {
		note.Pitches[0].StartTie = true
	}
	pctx.cLine.Items = append(pctx.cLine.Items, note)
	pctx.cNote = note
	pctx.lastEvent = &note.Event
}

/*
(2	2 notes in the time of 3
(3	3 notes in the time of 2
(4	4 notes in the time of 3
(6	6 notes in the time of 2
(8	8 notes in the time of 3
*/
var n0Ton1 = map[int]int{
	2: 3,
	3: 2,
	4: 3,
	6: 2,
	8: 3,
}

func (pctx *Parser) parseTuplet(r *sReader) {
	pctx.markPending(r.Pos())
	r.Next() // '('
	t := &tuplet{}
	t.n0 = r.ReadInt(0)
	if r.Peek() == ':' {
		r.Next()
		t.n1 = r.ReadInt(0)
		if r.Peek() == ':' {
			r.Next()
			t.n2 = r.ReadInt(0)
		}
	}
	if t.n1 == 0 {
		t.n1 = n0Ton1[t.n0]
	}
	if t.n2 == 0 {
		t.n2 = t.n0
	}
	if t.n0 != 3 {
		pctx.warn(r, fmt.Sprintf("Tuplet (%d not supported for measure accounting", t.n0))
	}
	r.SkipSpace()
	t.countDown = t.n2
	pctx.cTuplet = t
}

func processBrokenRythm(e *Event, code rune, first bool, count int) {
	f := 1.0
	for i := 0; i < count; i++ {
		f /= 2
	}
	switch {
	case code == '>' && first, code == '<' && !first:
		e.Duration *= 2 - f
	case code == '>' && !first, code == '<' && first:
		e.Duration *= f
	}
}

func (pctx *Parser) parseBroken(r *sReader) {
	pctx.brokenRythm = r.Peek()
	pctx.brokenRythmCount = r.Eat(pctx.brokenRythm)

	if pctx.lastEvent == nil {
		pctx.brokenRythm = 0
		return
	}
	processBrokenRythm(pctx.lastEvent, pctx.brokenRythm, true, pctx.brokenRythmCount)
	r.SkipSpace()
}

func (pctx *Parser) parseGracesNotes(r *sReader) {
	r.Next() // '{'
	for {
		switch r.Next() {
		case 0:
			pctx.warn(r, "Sequence Error Grace note")
			return
		case '}':
			return
		}
	}
}

func (pctx *Parser) parseInlineInfo(r *sReader) {
	r.Next()
	t := r.Next()
	r.Next() // ':'
	value := ""
	for {
		c := r.Next()
		if c == ']' || c == 0 {
			break
		}
		value += string(c)
	}
	pctx.processField(t, strings.TrimSpace(value))
}

func (pctx *Parser) parseUnisson(r *sReader) {
	ev := pctx.takeEvent(r.Pos())
	r.Next() // '['
	var pitches []Pitch
	var first float64
	for {
		c := r.Peek()
		switch {
		case c == 0:
			pctx.warn(r, "Unterminated chord")
			return
		case c == ']':
			r.Next()
			note := &Note{Event: ev, Pitches: pitches}
			mul := pctx.parseDuration(r) / pctx.unit
			note.Duration = first * mul
			if pctx.finishEvent(r, &note.Event, true) {
				for i := range note.Pitches {
					note.Pitches[i].StartTie = true
				}
			}
			if len(pitches) == 0 {
				pctx.warn(r, "Empty chord")
				return
			}
			pctx.cLine.Items = append(pctx.cLine.Items, note)
			pctx.cNote = note
			pctx.lastEvent = &note.Event
			return
		case validAlter[c] || validNote[c]:
			acc := pctx.parseAccidental(r)
			name, ok := pctx.parseStep(r)
			if !ok {
				r.Next()
				continue
			}
			d := pctx.parseDuration(r)
			if len(pitches) == 0 {
				first = d
			}
			p := Pitch{Name: name, Accidental: acc}
			if r.Peek() == '-' {
				r.Next()
				p.StartTie = true
			}
			pitches = append(pitches, p)
		default:
			r.Next()
		}
	}
}

var lInLine = map[rune]bool{
	'L': true,
	'M': true,
	'K': true,
	'V': true,
}

func (pctx *Parser) parseContent(parser *sReader) {
	pctx.cLine = &Line{Index: len(pctx.lines), Start: parser.Pos()}
	pctx.cNote = nil
	pctx.lastEvent = nil
	pctx.resetPending()
	for {
		r := parser.Peek()
		r1 := parser.PeekN(1)
		r2 := parser.PeekN(2)
		switch {
		case r == rune(0):
			if pctx.pendStart >= 0 {
				pctx.warn(parser, "Dangling annotation at end of line")
				pctx.resetPending()
			}
			beamResolve(pctx.cLine.Items)
			if len(pctx.cLine.Items) > 0 {
				pctx.lines = append(pctx.lines, *pctx.cLine)
			}
			return
		case r == '>', r == '<':
			pctx.parseBroken(parser)
		case r == '"':
			pctx.parseChordSymbol(parser)
		case r == '[' && lInLine[r1] && r2 == ':':
			pctx.parseInlineInfo(parser)
		case r == '.' && r1 == '|',
			r == '|',
			r == '[' && r1 == '|',
			r == ':',
			r == '[' && unicode.IsDigit(r1):
			pctx.parseBar(parser)
		case r == '[':
			pctx.parseUnisson(parser)
		case unicode.IsSpace(r):
			// Beam end
			if pctx.cNote != nil {
				pctx.cNote.beamBreak = true
			}
			parser.Next()
		case r == '(' && unicode.IsDigit(r1):
			pctx.parseTuplet(parser)
		case r == '(', r == ')':
			parser.Next()
		case validDeco[r]:
			pctx.parseDecoration(parser)
		case validAlter[r] || validNote[r]:
			pctx.parseNote(parser)
		case r == '{':
			pctx.parseGracesNotes(parser)
		case r == '-':
			if pctx.cNote != nil {
				for i := range pctx.cNote.Pitches {
					pctx.cNote.Pitches[i].StartTie = true
				}
			}
			parser.Next()
		case r == '\\', r == 'y', r == '`', r == '$':
			parser.Next()
		default:
			pctx.warn(parser, fmt.Sprintf("Unexpected:%v", string(r)))
			parser.Next()
		}
	}
}

// Parser turns ABC text into a Tune. A Parser is single use.
type Parser struct {
	lines []Line
	cLine *Line
	cNote *Note

	lastEvent *Event
	cTuplet   *tuplet

	unit    float64
	unitSet bool
	measure float64

	pendStart  int
	pendChords []Chord
	pendDecos  []string

	brokenRythm      rune
	brokenRythmCount int

	voice     string
	skipVoice bool
	inBody    bool

	warnings   []string
	lineNumber int
}

func ParserNew() *Parser {
	return &Parser{
		unit:      1.0 / 8,
		measure:   1,
		pendStart: -1,
	}
}

// Parse parses a whole ABC text. It never fails: anything it cannot make
// sense of is reported in Tune.Warnings.
func Parse(abc string) *Tune {
	return ParserNew().Run(abc)
}

func (pctx *Parser) Run(abc string) *Tune {
	started := false
	start := 0
	for i := 0; start <= len(abc); i++ {
		end := strings.IndexByte(abc[start:], '\n')
		var str string
		if end < 0 {
			str = abc[start:]
			end = len(abc)
		} else {
			end += start
			str = abc[start:end]
		}
		pctx.lineNumber = i
		str = strings.TrimSuffix(str, "\r")
		trimmed := strings.TrimSpace(str)
		lineStart := start
		start = end + 1

		if started && len(trimmed) == 0 {
			break
		}
		if len(trimmed) == 0 || strings.HasPrefix(trimmed, "%") {
			continue
		}
		started = true

		parser := sReaderNew(str, lineStart) // Include comment strip
		if unicode.IsLetter(parser.Peek()) && parser.PeekN(1) == ':' {
			pctx.processInfo(parser)
			continue
		}
		if pctx.skipVoice {
			continue
		}
		if !pctx.inBody {
			pctx.inBody = true
			if !pctx.unitSet && pctx.measure < 0.75 {
				pctx.unit = 1.0 / 16
			}
		}
		pctx.parseContent(parser)
	}
	return &Tune{
		Lines:    pctx.lines,
		Unit:     pctx.unit,
		Warnings: pctx.warnings,
	}
}

func (pctx *Parser) Warnings() []string {
	return pctx.warnings
}
