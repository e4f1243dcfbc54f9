package export

import (
	"bytes"
	"math"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/py60800/abcedit/editor"
	xml "github.com/subchen/go-xmldom"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func scoreOf(t *testing.T, text string, opts ...editor.Option) Score {
	t.Helper()
	e, err := editor.Open(text, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return ScoreOf(e, "Test tune")
}

func generate(t *testing.T, s Score) *xml.Document {
	t.Helper()
	x := MusicXMLNew()
	x.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }
	out := x.Generate(s)
	if len(x.Warnings) != 0 {
		t.Errorf("warnings: %v", x.Warnings)
	}
	doc, err := xml.ParseXML(out)
	if err != nil {
		t.Fatalf("%v\n%s", err, out)
	}
	return doc
}

func text(t *testing.T, n *xml.Node, path string) string {
	t.Helper()
	q := n.QueryOne(path)
	if q == nil {
		t.Fatalf("%s not found", path)
	}
	return q.Text
}

func TestMusicXMLHeader(t *testing.T) {
	s := scoreOf(t, "X:1\nM:3/4\nL:1/8\nK:Bb bass\nB2 c2 d2 |")
	doc := generate(t, s)
	root := doc.Root
	if got := text(t, root, "//work/work-title"); got != "Test tune" {
		t.Errorf("title: got %q", got)
	}
	if got := text(t, root, "//encoding-date"); got != "2024-03-01" {
		t.Errorf("date: got %q", got)
	}
	for path, want := range map[string]string{
		"//attributes/divisions":      "120",
		"//attributes/key/fifths":     "-2",
		"//attributes/key/mode":       "major",
		"//attributes/time/beats":     "3",
		"//attributes/time/beat-type": "4",
		"//attributes/clef/sign":      "F",
		"//attributes/clef/line":      "4",
	} {
		if got := text(t, root, path); got != want {
			t.Errorf("%s: got %q want %q", path, got, want)
		}
	}
	if len(root.FindByName("barline")) != 0 {
		t.Errorf("unexpected final barline")
	}
}

func TestMusicXMLNotes(t *testing.T) {
	s := scoreOf(t, "X:1\nM:4/4\nL:1/8\nK:C\n"+`"G"B2 ^F2 F2 (3DEF | G4- G2 !staccato!z2 |`,
		editor.WithEnding(editor.Ending{LastMeasure: 2, LastBarline: editor.ThinThick}))
	doc := generate(t, s)
	root := doc.Root

	if got := len(root.FindByName("measure")); got != 2 {
		t.Fatalf("got %d measures want 2", got)
	}
	notes := root.FindByName("note")
	if len(notes) != 9 {
		t.Fatalf("got %d notes want 9", len(notes))
	}
	type want struct {
		step, alter, duration, typ, accidental string
	}
	wants := []want{
		{"B", "", "120", "quarter", ""},
		{"F", "1", "120", "quarter", "sharp"},
		{"F", "1", "120", "quarter", ""},
		{"D", "", "40", "eighth", ""},
		{"E", "", "40", "eighth", ""},
		{"F", "1", "40", "eighth", ""},
		{"G", "", "240", "half", ""},
		{"G", "", "120", "quarter", ""},
		{"", "", "120", "quarter", ""},
	}
	child := func(n *xml.Node, path string) string {
		if q := n.QueryOne(path); q != nil {
			return q.Text
		}
		return ""
	}
	for i, w := range wants {
		n := notes[i]
		got := want{child(n, "pitch/step"), child(n, "pitch/alter"), child(n, "duration"), child(n, "type"), child(n, "accidental")}
		if got != w {
			t.Errorf("note %d: got %+v want %+v", i, got, w)
		}
	}
	if notes[8].QueryOne("rest") == nil {
		t.Errorf("last note is not a rest")
	}

	if got := text(t, root, "//harmony/root/root-step"); got != "G" {
		t.Errorf("harmony root: got %q", got)
	}
	if got := text(t, root, "//harmony/kind"); got != "major" {
		t.Errorf("harmony kind: got %q", got)
	}

	var beams []string
	for _, b := range root.FindByName("beam") {
		beams = append(beams, b.Text)
	}
	if !slices.Equal(beams, []string{"begin", "continue", "end"}) {
		t.Errorf("beams: got %v", beams)
	}
	if got := len(root.FindByName("time-modification")); got != 3 {
		t.Errorf("got %d time modifications want 3", got)
	}
	var tuplets []string
	for _, tn := range root.FindByName("tuplet") {
		tuplets = append(tuplets, tn.GetAttributeValue("type"))
	}
	if !slices.Equal(tuplets, []string{"start", "stop"}) {
		t.Errorf("tuplets: got %v", tuplets)
	}
	var ties []string
	for _, tn := range root.FindByName("tie") {
		ties = append(ties, tn.GetAttributeValue("type"))
	}
	if !slices.Equal(ties, []string{"start", "stop"}) {
		t.Errorf("ties: got %v", ties)
	}
	if notes[8].QueryOne("notations/articulations/staccato") == nil {
		t.Errorf("staccato missing")
	}
	if got := text(t, root, "//measure[@number='2']/barline/bar-style"); got != "light-heavy" {
		t.Errorf("final bar: got %q", got)
	}
}

func TestMusicXMLNewSystem(t *testing.T) {
	s := scoreOf(t, "X:1\nM:2/4\nL:1/8\nK:C\nC4 | D4 |\nE4 |")
	doc := generate(t, s)
	prints := doc.Root.FindByName("print")
	if len(prints) != 1 {
		t.Fatalf("got %d print elements want 1", len(prints))
	}
	if got := prints[0].Parent.GetAttributeValue("number"); got != "3" {
		t.Errorf("new system at measure %s want 3", got)
	}
}

func TestMusicXMLDivisions(t *testing.T) {
	x := MusicXMLNew()
	x.SetDivisions(0)
	if x.Divisions != 120 {
		t.Errorf("got %d", x.Divisions)
	}
	x.SetDivisions(4)
	typ, dots := x.noteType(6)
	if typ != "quarter" || dots != 1 {
		t.Errorf("got %s %d", typ, dots)
	}
	typ, dots = x.noteType(7)
	if typ != "quarter" || dots != 2 {
		t.Errorf("got %s %d", typ, dots)
	}
	x.noteType(5)
	if len(x.Warnings) != 1 || !strings.Contains(x.Warnings[0], "Unexpected note duration") {
		t.Errorf("got %v", x.Warnings)
	}
}

func TestHarmonyOf(t *testing.T) {
	tests := []struct {
		name  string
		root  string
		alter int
		kind  string
	}{
		{"C", "C", 0, "major"},
		{"Am", "A", 0, "minor"},
		{"F#m7", "F", 1, "minor-seventh"},
		{"Bb", "B", -1, "major"},
		{"G7", "G", 0, "dominant"},
		{"Cmaj7", "C", 0, "major-seventh"},
		{"Dsus4", "D", 0, "suspended-fourth"},
		{"Edim", "E", 0, "diminished"},
		{"C6", "C", 0, "major-sixth"},
		{"C/E", "C", 0, "major"},
	}
	for _, tt := range tests {
		h, ok := harmonyOf(tt.name)
		if !ok || h.Root != tt.root || h.Alter != tt.alter || h.Kind != tt.kind {
			t.Errorf("%q: got %+v", tt.name, h)
		}
	}
	for _, bad := range []string{"", "x", "Hm"} {
		if _, ok := harmonyOf(bad); ok {
			t.Errorf("%q accepted", bad)
		}
	}
}

type noteStart struct {
	tick int64
	key  uint8
}

func readSMF(t *testing.T, data []byte) (*smf.SMF, []noteStart, int) {
	t.Helper()
	rd, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	var starts []noteStart
	ends := 0
	for _, tr := range rd.Tracks {
		var abs int64
		for _, ev := range tr {
			abs += int64(ev.Delta)
			var ch, key, vel uint8
			switch {
			case midi.Message(ev.Message).GetNoteStart(&ch, &key, &vel):
				starts = append(starts, noteStart{abs, key})
			case midi.Message(ev.Message).GetNoteEnd(&ch, &key):
				ends++
			}
		}
	}
	return rd, starts, ends
}

func TestSMF(t *testing.T) {
	s := scoreOf(t, "X:1\nM:3/4\nL:1/8\nK:G\nG2 F2- F2 | z2 [CE]2 E2 |")
	var buf bytes.Buffer
	n, err := SMFNew(100).Write(&buf, s)
	if err != nil {
		t.Fatal(err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("reported %d bytes, wrote %d", n, buf.Len())
	}
	rd, starts, ends := readSMF(t, buf.Bytes())
	if tc := rd.TempoChanges(); len(tc) == 0 || math.Abs(tc[0].BPM-100) > 0.01 {
		t.Errorf("tempo: got %v", tc)
	}
	want := []noteStart{{0, 67}, {960, 66}, {3840, 60}, {3840, 64}, {4800, 64}}
	if !slices.Equal(starts, want) {
		t.Errorf("got %v want %v", starts, want)
	}
	if ends != len(want) {
		t.Errorf("got %d note ends want %d", ends, len(want))
	}
}

func TestSMFTriplet(t *testing.T) {
	s := scoreOf(t, "X:1\nM:2/4\nL:1/8\nK:C\n(3CDE C2 |")
	var buf bytes.Buffer
	if _, err := SMFNew(0).Write(&buf, s); err != nil {
		t.Fatal(err)
	}
	_, starts, _ := readSMF(t, buf.Bytes())
	want := []noteStart{{0, 60}, {320, 62}, {640, 64}, {960, 60}}
	if !slices.Equal(starts, want) {
		t.Errorf("got %v want %v", starts, want)
	}
}
