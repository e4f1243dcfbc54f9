package session

import (
	"fmt"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/py60800/abcedit/theory"
)

// Entry holds the toggles applied to the next note entered.
type Entry struct {
	Rhythm     theory.Rhythm
	Dotted     bool
	Triplet    bool
	Tied       bool
	Rest       bool
	Accidental theory.Accidental
	AutoBeam   bool
}

func DefaultEntry() Entry {
	return Entry{Rhythm: theory.Eighth, AutoBeam: true}
}

type CommandKind int

const (
	SetRhythm CommandKind = iota
	ToggleDotted
	ToggleTriplet
	ToggleTied
	ToggleRest
	SetAccidental
	ToggleAutoBeam
	ClearTriplet
	Reset
)

var commandNames = map[string]CommandKind{
	"rhythm":       SetRhythm,
	"dotted":       ToggleDotted,
	"triplet":      ToggleTriplet,
	"tied":         ToggleTied,
	"rest":         ToggleRest,
	"accidental":   SetAccidental,
	"autobeam":     ToggleAutoBeam,
	"cleartriplet": ClearTriplet,
	"reset":        Reset,
}

type Command struct {
	Kind       CommandKind
	Rhythm     theory.Rhythm
	Accidental theory.Accidental
}

var (
	ErrUnknownCommand = fault.New("unknown entry command")
	ErrBadArgument    = fault.New("bad command argument")
)

func commandError(err error, what, v string) error {
	return fault.Wrap(err,
		fmsg.WithDesc(fmt.Sprintf("%s %q", what, v),
			fmt.Sprintf("Unknown %s %q.", what, v)),
		ftag.With(ftag.InvalidArgument))
}

// ParseCommand reads a command name and its argument, e.g. "rhythm quarter"
// or "accidental sharp".
func ParseCommand(name, arg string) (Command, error) {
	k, ok := commandNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Command{}, commandError(ErrUnknownCommand, "command", name)
	}
	c := Command{Kind: k}
	switch k {
	case SetRhythm:
		if c.Rhythm, ok = theory.ParseRhythm(arg); !ok {
			return Command{}, commandError(ErrBadArgument, "rhythm", arg)
		}
	case SetAccidental:
		if c.Accidental, ok = theory.ParseAccidental(arg); !ok {
			return Command{}, commandError(ErrBadArgument, "accidental", arg)
		}
	}
	return c, nil
}

// Reduce gives the entry state after c. Setting the accidental already
// selected clears it.
func Reduce(e Entry, c Command) Entry {
	switch c.Kind {
	case SetRhythm:
		if c.Rhythm.Valid() {
			e.Rhythm = c.Rhythm
		}
	case ToggleDotted:
		e.Dotted = !e.Dotted
	case ToggleTriplet:
		e.Triplet = !e.Triplet
	case ToggleTied:
		e.Tied = !e.Tied
	case ToggleRest:
		e.Rest = !e.Rest
	case SetAccidental:
		if e.Accidental == c.Accidental {
			e.Accidental = theory.None
		} else {
			e.Accidental = c.Accidental
		}
	case ToggleAutoBeam:
		e.AutoBeam = !e.AutoBeam
	case ClearTriplet:
		e.Triplet = false
	case Reset:
		e = DefaultEntry()
	}
	return e
}
