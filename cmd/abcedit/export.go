package main

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/dustin/go-humanize"
	"github.com/py60800/abcedit/editor"
	"github.com/py60800/abcedit/export"
	"github.com/spf13/cobra"
)

var (
	ExportCmd = &cobra.Command{
		Use:   "export [file.abc]",
		Short: "convert an ABC score to MusicXML or MIDI",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCmd,
	}

	formatFlag    string
	outputFlag    string
	titleFlag     string
	divisionsFlag int
)

func init() {
	ExportCmd.Flags().StringVar(
		&formatFlag, "format", "xml",
		"output format: xml or mid")
	ExportCmd.Flags().StringVarP(
		&outputFlag, "output", "o", "",
		"output file, defaults to the input with the format extension")
	ExportCmd.Flags().StringVar(
		&titleFlag, "title", "",
		"title, defaults to the T: field")
	ExportCmd.Flags().IntVar(
		&divisionsFlag, "divisions", 120,
		"MusicXML divisions per quarter note")
	RootCmd.AddCommand(ExportCmd)
}

// title is the first T: field of text.
func title(text string) string {
	for _, l := range strings.Split(text, "\n") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(l), "T:"); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func render(e *editor.Editor, format, name string) ([]byte, error) {
	score := export.ScoreOf(e, name)
	switch format {
	case "xml":
		x := export.MusicXMLNew()
		x.SetDivisions(divisionsFlag)
		out := x.Generate(score)
		for _, w := range x.Warnings {
			logger.Warn("musicxml", "warning", w)
		}
		return []byte(out), nil
	case "mid", "midi":
		var buf bytes.Buffer
		if _, err := export.SMFNew(cfg.Tempo).Write(&buf, score); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fault.Wrap(fault.New("unknown format"),
		fmsg.WithDesc(format, fmt.Sprintf("Unknown format %q, use xml or mid.", format)),
		ftag.With(ftag.InvalidArgument))
}

func exportCmd(cmd *cobra.Command, args []string) error {
	src := args[0]
	data, err := os.ReadFile(src)
	if err != nil {
		return fault.Wrap(err, fmsg.With("read "+src))
	}
	e, err := editor.Open(string(data))
	if err != nil {
		return err
	}
	name := titleFlag
	if name == "" {
		name = title(string(data))
	}
	out, err := render(e, formatFlag, name)
	if err != nil {
		return err
	}

	dest := outputFlag
	if dest == "" {
		ext := path.Ext(path.Base(src))
		dest = strings.TrimSuffix(src, ext) + "." + strings.TrimSuffix(formatFlag, "i")
	}
	if err := os.WriteFile(dest, out, 0o644); err != nil {
		return fault.Wrap(err, fmsg.With("write "+dest))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s, %d measures\n", dest, humanize.Bytes(uint64(len(out))), e.MeasureCount())
	return nil
}
