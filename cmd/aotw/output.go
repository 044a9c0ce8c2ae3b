package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type statusKind int

const (
	statusOK statusKind = iota
	statusWarn
	statusError
)

// statusWriter prints outcome lines, colored when stdout is a terminal.
type statusWriter struct {
	out      io.Writer
	colorize bool
}

func newStatusWriter(cmd *cobra.Command) statusWriter {
	out := cmd.OutOrStdout()
	return statusWriter{out: out, colorize: shouldColorize(out)}
}

func (w statusWriter) line(kind statusKind, format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	if w.colorize {
		text = statusColor(kind).Sprint(text)
	}
	fmt.Fprintln(w.out, text)
}

func (w statusWriter) label(kind statusKind, text string) string {
	if !w.colorize {
		return text
	}
	return statusColor(kind).Sprint(text)
}

func statusColor(kind statusKind) *color.Color {
	var c *color.Color
	switch kind {
	case statusOK:
		c = color.New(color.FgGreen)
	case statusWarn:
		c = color.New(color.FgYellow)
	default:
		c = color.New(color.FgRed, color.Bold)
	}
	c.EnableColor()
	return c
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
