package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/py60800/abcedit/editor"
	"github.com/py60800/abcedit/session"
	"github.com/py60800/abcedit/theory"
	"github.com/spf13/cobra"
)

var ReplayCmd = &cobra.Command{
	Use:   "replay [script]",
	Short: "apply an entry script to the configured score and print the ABC text",
	Long: `A script holds one action per line:

  note C4 | midi 60        add a note with the current entry state
  rhythm quarter | dotted | triplet | tied | rest | accidental sharp | autobeam | reset
  backspace | newline | undo | redo
  select M N               select note N of measure M (0-based)
  next | prev
  move 2 | sharp | flat | natural | tie | beam | decoration trill

Lines starting with # are ignored.`,
	Args: cobra.ExactArgs(1),
	RunE: replayCmd,
}

func init() {
	RootCmd.AddCommand(ReplayCmd)
}

func replayCmd(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fault.Wrap(err, fmsg.With("open script"))
	}
	defer f.Close()
	s, err := cfg.NewSession(logger)
	if err != nil {
		return err
	}
	if err := replay(s, f); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), s.Text())
	return nil
}

func scriptError(line int, format string, args ...any) error {
	msg := fmt.Sprintf("line %d: ", line) + fmt.Sprintf(format, args...)
	return fault.Wrap(fault.New("bad script"),
		fmsg.WithDesc(msg, msg),
		ftag.With(ftag.InvalidArgument))
}

func atoi(line int, s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, scriptError(line, "%q is not a number", s)
	}
	return v, nil
}

// click finds the rendered position of note ni of measure mi.
func click(measures []editor.Measure, mi, ni int) (editor.Click, bool) {
	if mi < 0 || mi >= len(measures) || ni < 0 || ni >= len(measures[mi].Notes) {
		return editor.Click{}, false
	}
	first := mi
	for first > 0 && measures[first-1].Line == measures[mi].Line {
		first--
	}
	return editor.Click{
		Line:      measures[mi].Line,
		Measure:   mi - first,
		StartChar: measures[mi].Notes[ni].StartChar,
	}, true
}

func replay(s *session.Session, r io.Reader) error {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		name, arg := fields[0], ""
		if len(fields) > 1 {
			arg = fields[1]
		}
		ok := true
		switch name {
		case "note":
			_, ok = s.AddName(arg)
		case "midi":
			v, err := atoi(line, arg)
			if err != nil {
				return err
			}
			_, ok = s.AddMIDI(v)
		case "backspace":
			_, ok = s.Backspace()
		case "newline":
			_, ok = s.NewLine()
		case "undo":
			_, ok = s.Undo()
		case "redo":
			_, ok = s.Redo()
		case "select":
			if len(fields) != 3 {
				return scriptError(line, "select needs a measure and a note")
			}
			mi, err := atoi(line, fields[1])
			if err != nil {
				return err
			}
			ni, err := atoi(line, fields[2])
			if err != nil {
				return err
			}
			var c editor.Click
			if c, ok = click(s.Editor().Measures(), mi, ni); ok {
				_, ok = s.Select(c, 0)
			}
		case "next":
			_, ok = s.SelectNext()
		case "prev":
			_, ok = s.SelectPrev()
		case "move":
			v, err := atoi(line, arg)
			if err != nil {
				return err
			}
			_, ok = s.MoveSelected(v)
		case "sharp", "flat", "natural":
			acc, _ := theory.ParseAccidental(name)
			_, ok = s.SetAccidental(acc)
		case "tie":
			_, ok = s.ToggleTie()
		case "beam":
			_, ok = s.ToggleBeam()
		case "decoration":
			_, ok = s.ToggleDecoration(arg)
		default:
			c, err := session.ParseCommand(name, arg)
			if errors.Is(err, session.ErrUnknownCommand) {
				return scriptError(line, "unknown action %q", name)
			}
			if err != nil {
				return fault.Wrap(err, fmsg.With(fmt.Sprintf("line %d", line)))
			}
			s.Apply(c)
		}
		if !ok {
			logger.Info("no change", "line", line, "action", sc.Text())
		}
	}
	if err := sc.Err(); err != nil {
		return fault.Wrap(err, fmsg.With("read script"))
	}
	return nil
}
