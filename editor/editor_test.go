package editor

import (
	"strings"
	"testing"

	"github.com/py60800/abcedit/abc"
	"github.com/py60800/abcedit/theory"
)

const header = "X:1\nM:4/4\nL:1/8\nK:C\n"

const chordTemplate = header + `"C"C4 "G"G4 | "Am"A2 "F"F2 "G"G4 |`

func openScore(t *testing.T, body string, opts ...Option) *Editor {
	t.Helper()
	e, err := Open(header+body, opts...)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return e
}

func reparse(e *Editor) {
	e.UpdateMeasures(abc.Parse(e.Text()).Lines)
}

func add(t *testing.T, e *Editor, pitch string, r theory.Rhythm, opt NoteOptions) string {
	t.Helper()
	text, ok := e.AddNote(pitch, r, opt)
	if !ok {
		t.Fatalf("AddNote(%q, %v) refused", pitch, r)
	}
	reparse(e)
	return text
}

func TestOpenBadMeter(t *testing.T) {
	if _, err := Open("X:1\nM:5/7\nK:C\n"); err == nil {
		t.Errorf("expected an error for M:5/7")
	}
}

func TestNewScore(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatal(err)
	}
	if e.Text() != DefaultScore {
		t.Errorf("got %q want %q", e.Text(), DefaultScore)
	}
	if len(e.Measures()) != 1 || !e.Measures()[0].IsEmpty() {
		t.Errorf("got %d measures want a single empty one", len(e.Measures()))
	}
	if e.Header().Clef != theory.Treble || e.Header().Key.String() != "C" {
		t.Errorf("got %v %v want treble C", e.Header().Clef, e.Header().Key)
	}
}

func TestOpenWithoutFinalNewline(t *testing.T) {
	tests := []struct {
		name string
		text string
		key  string
		want string
	}{
		{"header only", "X:1\nM:4/4\nL:1/8\nK:C", "C", "X:1\nM:4/4\nL:1/8\nK:C\nC2"},
		{"trailing blanks", "X:1\nK:G \t", "G", "X:1\nK:G\nC2"},
		{"open body", header + "E2 F2", "C", header + "E2 F2 C2"},
		{"body after bar", header + "E2 F2 G2 A2 |", "C", header + "E2 F2 G2 A2 | C2"},
		{"empty line", header, "C", header + "C2"},
	}
	for _, tt := range tests {
		e, err := Open(tt.text)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		text := add(t, e, "C", theory.Quarter, NoteOptions{})
		if text != tt.want {
			t.Errorf("%s: got %q want %q", tt.name, text, tt.want)
		}
		if k := e.Header().Key.String(); k != tt.key {
			t.Errorf("%s: got key %q want %q", tt.name, k, tt.key)
		}
		mi, ni := lastNote(e.Measures())
		if mi < 0 || e.Measures()[mi].Notes[ni].Pitches[0].Name != "C" {
			t.Errorf("%s: added note missing from the measures", tt.name)
		}
	}
}

func TestUnitChangeInBody(t *testing.T) {
	e := openScore(t, "C2 D2 [L:1/16]")
	text := add(t, e, "E", theory.Quarter, NoteOptions{})
	if want := header + "C2 D2 [L:1/16] E4"; text != want {
		t.Errorf("got %q want %q", text, want)
	}
	if d := e.CurrentDuration(); d < 0.75-1e-9 || d > 0.75+1e-9 {
		t.Errorf("got duration %v want 0.75", d)
	}
}

func TestBarlinePlacement(t *testing.T) {
	tests := []struct {
		name    string
		rhythms []theory.Rhythm
		want    string
	}{
		{"quarters", []theory.Rhythm{theory.Quarter, theory.Quarter, theory.Quarter, theory.Quarter}, "C2 C2 C2 C2 |"},
		{"halves", []theory.Rhythm{theory.Half, theory.Half}, "C4 C4 |"},
		{"whole", []theory.Rhythm{theory.Whole}, "C8 |"},
		{"eighths", []theory.Rhythm{
			theory.Eighth, theory.Eighth, theory.Eighth, theory.Eighth,
			theory.Eighth, theory.Eighth, theory.Eighth, theory.Eighth}, "C C C C C C C C |"},
		{"overflow", []theory.Rhythm{theory.Quarter, theory.Quarter, theory.Quarter, theory.Half}, "C2 C2 C2 C4 |"},
	}
	for _, tt := range tests {
		e, _ := New()
		var text string
		for i, r := range tt.rhythms {
			text = add(t, e, "C", r, NoteOptions{})
			if i < len(tt.rhythms)-1 && strings.HasSuffix(text, "|") {
				t.Errorf("%s: bar line after note %d", tt.name, i)
			}
		}
		if got := strings.TrimPrefix(text, DefaultScore); got != tt.want {
			t.Errorf("%s: got %q want %q", tt.name, got, tt.want)
		}
		if n := len(e.Measures()); n != 2 {
			t.Errorf("%s: got %d measures want 2", tt.name, n)
		}
	}
}

func TestTripletGrouping(t *testing.T) {
	e, _ := New()
	triplet := NoteOptions{Triplet: true}
	add(t, e, "C", theory.Eighth, triplet)
	add(t, e, "D", theory.Eighth, triplet)
	if e.IsEndOfTriplet() {
		t.Errorf("triplet closed after two notes")
	}
	add(t, e, "E", theory.Eighth, triplet)
	if !e.IsEndOfTriplet() {
		t.Errorf("triplet not closed after three notes")
	}
	add(t, e, "G", theory.Quarter, NoteOptions{})
	add(t, e, "A", theory.Quarter, NoteOptions{})
	text := add(t, e, "B", theory.Quarter, NoteOptions{})
	want := "(3C D E G2 A2 B2 |"
	if got := strings.TrimPrefix(text, DefaultScore); got != want {
		t.Errorf("got %q want %q", got, want)
	}
	m := e.Measures()[0]
	for i, n := range m.Notes {
		if n.IsTriplet != (i < 3) {
			t.Errorf("note %d: IsTriplet %v", i, n.IsTriplet)
		}
	}
}

func TestTripletClosesMeasure(t *testing.T) {
	e, _ := New()
	for _, p := range []string{"C", "D", "E"} {
		add(t, e, p, theory.Quarter, NoteOptions{})
	}
	for _, p := range []string{"F", "G", "A"} {
		add(t, e, p, theory.Eighth, NoteOptions{Triplet: true})
	}
	want := "C2 D2 E2 (3F G A |"
	if got := strings.TrimPrefix(e.Text(), DefaultScore); got != want {
		t.Errorf("got %q want %q", got, want)
	}
	if n := len(e.Measures()); n != 2 {
		t.Errorf("got %d measures want 2", n)
	}
}

func TestNoteOptions(t *testing.T) {
	e, _ := New()
	add(t, e, "^F", theory.Quarter, NoteOptions{Dotted: true, Tied: true})
	add(t, e, "F", theory.Eighth, NoteOptions{Beamed: true})
	add(t, e, "", theory.Half, NoteOptions{Rest: true})
	want := "^F3-F z4 |"
	if got := strings.TrimPrefix(e.Text(), DefaultScore); got != want {
		t.Errorf("got %q want %q", got, want)
	}
	if _, ok := e.AddNote("C", theory.Rhythm(3), NoteOptions{}); ok {
		t.Errorf("AddNote accepted an unknown rhythm")
	}
}

func TestAddMIDIAndName(t *testing.T) {
	e, _ := New()
	e.AddMIDI(61, theory.Quarter, NoteOptions{Accidental: theory.Flat})
	reparse(e)
	e.AddName("F6", theory.Quarter, NoteOptions{Accidental: theory.Sharp})
	want := "_D2 ^f'2"
	if got := strings.TrimPrefix(e.Text(), DefaultScore); got != want {
		t.Errorf("got %q want %q", got, want)
	}
	if _, ok := e.AddName("H4", theory.Quarter, NoteOptions{}); ok {
		t.Errorf("AddName accepted H4")
	}
}

func TestBackspace(t *testing.T) {
	e := openScore(t, "C2 D2 F2 E2 | _G2")
	text, ok := e.Backspace()
	if !ok || text != header+"C2 D2 F2 E2 |" {
		t.Fatalf("got %q want %q", text, header+"C2 D2 F2 E2 |")
	}
	reparse(e)
	text, _ = e.Backspace()
	if text != header+"C2 D2 F2" {
		t.Fatalf("got %q want %q", text, header+"C2 D2 F2")
	}
	for range 3 {
		reparse(e)
		e.Backspace()
	}
	if e.Text() != header {
		t.Errorf("got %q want %q", e.Text(), header)
	}
	reparse(e)
	if _, ok := e.Backspace(); ok {
		t.Errorf("backspace on an empty score")
	}
}

func TestEnding(t *testing.T) {
	e, _ := New(WithEnding(Ending{LastMeasure: 1, LastBarline: ThinThick}))
	for range 4 {
		add(t, e, "C", theory.Quarter, NoteOptions{})
	}
	if !strings.HasSuffix(e.Text(), "C2 |]") {
		t.Errorf("got %q want a final |]", e.Text())
	}
	before := e.Text()
	if text, ok := e.AddNote("D", theory.Quarter, NoteOptions{}); ok || text != before {
		t.Errorf("note added past the ending: %q", text)
	}

	e, _ = New(WithEnding(Ending{LastMeasure: 2}))
	for range 8 {
		add(t, e, "C", theory.Quarter, NoteOptions{})
	}
	want := "C2 C2 C2 C2 | C2 C2 C2 C2 ||"
	if got := strings.TrimPrefix(e.Text(), DefaultScore); got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestChordTemplate(t *testing.T) {
	tpl := ParseChordTemplate(chordTemplate, theory.TimeSignature{Upper: 4, Lower: 4})
	if len(tpl) != 2 {
		t.Fatalf("got %d measures want 2", len(tpl))
	}
	tests := []struct {
		measure int
		beat    float64
		want    string
	}{
		{0, 0, "C"},
		{0, 2, "G"},
		{1, 0, "Am"},
		{1, 1, "F"},
		{1, 2, "G"},
	}
	for _, tt := range tests {
		got, ok := tpl.ChordAt(tt.measure, tt.beat)
		if !ok || got != tt.want {
			t.Errorf("ChordAt(%d, %v): got %q want %q", tt.measure, tt.beat, got, tt.want)
		}
	}
	if c, ok := tpl.ChordAt(0, 1); ok {
		t.Errorf("ChordAt(0, 1): got %q want nothing", c)
	}
	if _, ok := tpl.ChordAt(2, 0); ok {
		t.Errorf("ChordAt past the template")
	}
}

func TestChordSplicing(t *testing.T) {
	e, _ := New(WithChordTemplate(chordTemplate))
	if want := DefaultScore + `"C"`; e.Text() != want {
		t.Fatalf("got %q want %q", e.Text(), want)
	}
	for _, p := range []string{"C", "D", "E", "F"} {
		add(t, e, p, theory.Quarter, NoteOptions{})
	}
	want := DefaultScore + `"C" C2 D2"G" E2 F2 |"Am"`
	if e.Text() != want {
		t.Fatalf("got %q want %q", e.Text(), want)
	}
	e.Backspace()
	reparse(e)
	e.Backspace()
	want = DefaultScore + `"C" C2 D2"G"`
	if e.Text() != want {
		t.Errorf("got %q want %q", e.Text(), want)
	}
}

func TestNewLine(t *testing.T) {
	e := openScore(t, "C2 D2 E2 F2 | G2")
	text, ok := e.NewLine()
	if want := header + "C2 D2 E2 F2 |\n"; !ok || text != want {
		t.Errorf("got %q want %q", text, want)
	}
	if _, ok := e.NewLine(); ok {
		t.Errorf("second NewLine was not a no-op")
	}
	reparse(e)
	text = add(t, e, "A", theory.Quarter, NoteOptions{})
	if want := header + "C2 D2 E2 F2 |\nA2"; text != want {
		t.Errorf("got %q want %q", text, want)
	}
	if ms := e.Measures(); ms[len(ms)-1].Line != 1 {
		t.Errorf("note not on the second line")
	}

	e = openScore(t, "C2 D2")
	if _, ok := e.NewLine(); ok {
		t.Errorf("NewLine without bar line was not a no-op")
	}

	e, _ = Open("X:1\nM:C|\nL:1/8\nK:C\nC4 D4 | E2")
	text, _ = e.NewLine()
	if want := "X:1\nM:C|\nL:1/8\nK:C\nC4 D4 |\n"; text != want {
		t.Errorf("got %q want %q", text, want)
	}

	e = openScore(t, "C2 D2 E2 F2 | G2", WithChordTemplate(chordTemplate))
	text, _ = e.NewLine()
	if want := header + "C2 D2 E2 F2 |\n\"Am\""; text != want {
		t.Errorf("got %q want %q", text, want)
	}
}

func TestShouldBeamNextNote(t *testing.T) {
	tests := []struct {
		body      string
		candidate theory.Rhythm
		want      bool
	}{
		{"C", theory.Eighth, true},
		{"C D", theory.Eighth, true},
		{"C D E F", theory.Eighth, false},
		{"C D", theory.Quarter, false},
		{"C2", theory.Eighth, false},
		{"C/ D/", theory.Sixteenth, true},
		{"C/ D/ E/ F/", theory.Sixteenth, false},
		{"C3/", theory.Sixteenth, true},
		{"(3CDE", theory.Eighth, false},
		{"z", theory.Eighth, false},
		{"", theory.Eighth, false},
	}
	for _, tt := range tests {
		e := openScore(t, tt.body)
		if got := e.ShouldBeamNextNote(tt.candidate); got != tt.want {
			t.Errorf("%q: got %v want %v", tt.body, got, tt.want)
		}
	}
	e, _ := Open("X:1\nM:3/4\nL:1/8\nK:C\nC")
	if e.ShouldBeamNextNote(theory.Eighth) {
		t.Errorf("beaming outside common time")
	}
}

func TestStaleMeasures(t *testing.T) {
	e := openScore(t, "C")
	e.AddNote("D", theory.Eighth, NoteOptions{Beamed: true})
	// Not reparsed yet: still one eighth in the measure
	if got := e.CurrentDuration(); got != 0.125 {
		t.Errorf("got %v want 0.125", got)
	}
	reparse(e)
	if got := e.CurrentDuration(); got != 0.25 {
		t.Errorf("got %v want 0.25", got)
	}
}

func TestInferMIDI(t *testing.T) {
	e, err := Open("X:1\nM:4/4\nL:1/8\nK:Bm\nB=CD^EF")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		pitch string
		acc   theory.Accidental
		want  int
	}{
		{"C", theory.None, 60},
		{"E", theory.None, 65},
		{"F", theory.None, 66},
		{"c", theory.None, 73},
		{"=E", theory.Natural, 64},
		{"_B", theory.Flat, 70},
	}
	for _, tt := range tests {
		if got, ok := e.InferMIDI(tt.pitch, tt.acc); !ok || got != tt.want {
			t.Errorf("%s: got %d want %d", tt.pitch, got, tt.want)
		}
	}
	if got, ok := e.LastNoteMIDI(); !ok || got != 66 {
		t.Errorf("last note: got %d want 66", got)
	}
}

func TestExtractMeasures(t *testing.T) {
	ts := theory.TimeSignature{Upper: 4, Lower: 4}
	tune := abc.Parse(header + "C2 D2 E2 F2 | G2 A2\nB2 c2 | d8 |")
	ms := ExtractMeasures(tune.Lines, ts)
	if len(ms) != 4 {
		t.Fatalf("got %d measures want 4", len(ms))
	}
	if len(ms[1].Notes) != 4 || ms[1].Line != 0 || ms[1].LineStartIdx != 5 {
		t.Errorf("measure 1: got %d notes line %d start %d", len(ms[1].Notes), ms[1].Line, ms[1].LineStartIdx)
	}
	if ms[2].Line != 1 || !ms[3].IsEmpty() {
		t.Errorf("got line %d for measure 2", ms[2].Line)
	}

	tune = abc.Parse(header + "C8 |\nD8 |")
	ms = ExtractMeasures(tune.Lines, ts)
	if len(ms) != 3 || ms[1].Line != 1 || ms[2].Line != 1 {
		t.Errorf("line break: got %d measures", len(ms))
	}

	tune = abc.Parse(header + "x2 C2 D2 E2 F2 |")
	ms = ExtractMeasures(tune.Lines, ts)
	if len(ms[0].Notes) != 4 {
		t.Errorf("spacer counted: got %d notes", len(ms[0].Notes))
	}

	tune = abc.Parse(header + "(3CDE F2 G2 A2 |")
	ms = ExtractMeasures(tune.Lines, ts)
	if len(ms) != 2 || len(ms[0].Notes) != 6 {
		t.Fatalf("triplet: got %d measures", len(ms))
	}
	if d := ms[0].Duration; d < 1-1e-5 || d > 1+1e-5 {
		t.Errorf("triplet: got duration %v want 1", d)
	}
}
