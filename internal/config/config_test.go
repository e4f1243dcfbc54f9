package config

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Southclaws/fault/ftag"
	"github.com/py60800/abcedit/editor"
	"github.com/py60800/abcedit/theory"
)

func TestDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Tempo != 120 || cfg.Server.Addr != ":8088" || cfg.Ending != nil {
		t.Errorf("got %+v", cfg)
	}
	if l, _ := cfg.LogLevel(); l != slog.LevelInfo {
		t.Errorf("got level %v", l)
	}
	if !cfg.Entry().AutoBeam {
		t.Errorf("auto beam off by default")
	}
	e, err := cfg.NewEditor()
	if err != nil || e.Text() != editor.DefaultScore {
		t.Errorf("got %q (%v)", e.Text(), err)
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
score: "X:1\nM:3/4\nL:1/8\nK:D\n"
chords: "X:1\nM:3/4\nL:1/8\nK:D\n\"D\"D6 | \"A\"A6 |"
ending:
  last_measure: 2
  last_barline: thin-thick
auto_beam: false
tempo: 96
log:
  level: debug
server:
  addr: 127.0.0.1:9000
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Tempo != 96 || cfg.Server.Addr != "127.0.0.1:9000" || cfg.Entry().AutoBeam {
		t.Errorf("got %+v", cfg)
	}
	if l, _ := cfg.LogLevel(); l != slog.LevelDebug {
		t.Errorf("got level %v", l)
	}
	e, err := cfg.NewEditor()
	if err != nil {
		t.Fatal(err)
	}
	if e.Header().Time != (theory.TimeSignature{Upper: 3, Lower: 4}) {
		t.Errorf("got meter %v", e.Header().Time)
	}
	end, ok := e.Ending()
	if !ok || end.LastMeasure != 2 || end.LastBarline != editor.ThinThick {
		t.Errorf("got ending %+v", end)
	}
	text, _ := e.AddName("D4", theory.Half, editor.NoteOptions{Dotted: true})
	if !strings.HasSuffix(text, ` D6 |"A"`) {
		t.Errorf("chord template not applied: %q", text)
	}
}

func TestParseErrors(t *testing.T) {
	for _, doc := range []string{
		"tempo: -1",
		"ending: {last_measure: 0}",
		"ending: {last_measure: 4, last_barline: dotted}",
		"log: {level: loud}",
	} {
		_, err := Parse([]byte(doc))
		if !errors.Is(err, ErrInvalid) || ftag.Get(err) != ftag.InvalidArgument {
			t.Errorf("%q: got %v", doc, err)
		}
	}
	if _, err := Parse([]byte("tempo: [")); err == nil {
		t.Errorf("bad yaml accepted")
	}
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("tune.abc", "X:1\nM:4/4\nL:1/8\nK:G\nG2 A2 B2 c2 |")
	write("chords.abc", "X:1\nM:4/4\nL:1/8\nK:G\n\"G\"G8 | \"D\"D8 |")
	write("abcedit.yaml", "score_file: tune.abc\nchords_file: chords.abc\n")

	cfg, err := Load(filepath.Join(dir, "abcedit.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	s, err := cfg.NewSession(slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Editor().MeasureCount(); got != 1 {
		t.Errorf("got %d measures want 1", got)
	}
	text, _ := s.AddName("B4")
	if !strings.HasSuffix(text, "c2 | B") {
		t.Errorf("got %q", text)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); ftag.Get(err) != ftag.NotFound {
		t.Errorf("got %v", err)
	}
	write("broken.yaml", "score_file: nowhere.abc\n")
	cfg, err = Load(filepath.Join(dir, "broken.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cfg.NewEditor(); ftag.Get(err) != ftag.NotFound {
		t.Errorf("got %v", err)
	}
}

func TestLogger(t *testing.T) {
	defer slog.SetDefault(slog.Default())
	var buf bytes.Buffer
	cfg := Default()
	cfg.Log.Level = "warn"
	logger := cfg.Logger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)
	if out := buf.String(); strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("got %q", out)
	}
}
