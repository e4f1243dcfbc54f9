// Package config loads the editor settings from a YAML file.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/py60800/abcedit/editor"
	"github.com/py60800/abcedit/session"
	"gopkg.in/yaml.v3"
)

type Ending struct {
	LastMeasure int    `yaml:"last_measure"`
	LastBarline string `yaml:"last_barline"`
}

type Log struct {
	Level string `yaml:"level"`
}

type Server struct {
	Addr string `yaml:"addr"`
}

type Config struct {
	// Score is the initial ABC text; ScoreFile is read when Score is empty.
	Score     string `yaml:"score"`
	ScoreFile string `yaml:"score_file"`
	// Chords is an ABC chord progression written along the entered notes.
	Chords     string  `yaml:"chords"`
	ChordsFile string  `yaml:"chords_file"`
	Ending     *Ending `yaml:"ending"`
	AutoBeam   *bool   `yaml:"auto_beam"`
	Tempo      float64 `yaml:"tempo"`
	Log        Log     `yaml:"log"`
	Server     Server  `yaml:"server"`

	dir string
}

var ErrInvalid = fault.New("invalid configuration")

func invalid(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return fault.Wrap(ErrInvalid,
		fmsg.WithDesc(msg, "Configuration error: "+msg),
		ftag.With(ftag.InvalidArgument))
}

func Default() *Config {
	return &Config{
		Tempo:  120,
		Log:    Log{Level: "info"},
		Server: Server{Addr: ":8088"},
	}
}

// Parse reads a YAML document over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fault.Wrap(err,
			fmsg.WithDesc("yaml", "The configuration is not valid YAML."),
			ftag.With(ftag.InvalidArgument))
	}
	if cfg.Tempo <= 0 {
		return nil, invalid("tempo %v must be positive", cfg.Tempo)
	}
	if cfg.Ending != nil {
		if cfg.Ending.LastMeasure <= 0 {
			return nil, invalid("ending measure %d must be positive", cfg.Ending.LastMeasure)
		}
		if _, ok := editor.ParseBarline(cfg.Ending.LastBarline); !ok {
			return nil, invalid("unknown barline %q", cfg.Ending.LastBarline)
		}
	}
	if _, err := cfg.LogLevel(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the file at path. Files named in it are relative to its
// directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("read config "+path), ftag.With(ftag.NotFound))
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With(path))
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

func (c *Config) read(name string) (string, error) {
	if !filepath.IsAbs(name) && c.dir != "" {
		name = filepath.Join(c.dir, name)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return "", fault.Wrap(err, fmsg.With("read "+name), ftag.With(ftag.NotFound))
	}
	return string(data), nil
}

func (c *Config) LogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return l, invalid("unknown log level %q", c.Log.Level)
	}
	return l, nil
}

// Logger builds a text logger at the configured level and makes it the
// default one.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, _ := c.LogLevel()
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
	}))
	slog.SetDefault(logger)
	return logger
}

func (c *Config) editorOptions() ([]editor.Option, error) {
	var opts []editor.Option
	chords := c.Chords
	if chords == "" && c.ChordsFile != "" {
		var err error
		if chords, err = c.read(c.ChordsFile); err != nil {
			return nil, err
		}
	}
	if chords != "" {
		opts = append(opts, editor.WithChordTemplate(chords))
	}
	if c.Ending != nil {
		b, _ := editor.ParseBarline(c.Ending.LastBarline)
		opts = append(opts, editor.WithEnding(editor.Ending{LastMeasure: c.Ending.LastMeasure, LastBarline: b}))
	}
	return opts, nil
}

// NewEditor opens the configured score, or a new one.
func (c *Config) NewEditor() (*editor.Editor, error) {
	opts, err := c.editorOptions()
	if err != nil {
		return nil, err
	}
	score := c.Score
	if score == "" && c.ScoreFile != "" {
		if score, err = c.read(c.ScoreFile); err != nil {
			return nil, err
		}
	}
	if score == "" {
		return editor.New(opts...)
	}
	return editor.Open(score, opts...)
}

// Entry is the initial entry state.
func (c *Config) Entry() session.Entry {
	e := session.DefaultEntry()
	if c.AutoBeam != nil {
		e.AutoBeam = *c.AutoBeam
	}
	return e
}

// NewSession opens the editor and wraps it in a session logging to logger.
func (c *Config) NewSession(logger *slog.Logger) (*session.Session, error) {
	e, err := c.NewEditor()
	if err != nil {
		return nil, err
	}
	return session.New(e, session.WithEntry(c.Entry()), session.WithLogger(logger)), nil
}
