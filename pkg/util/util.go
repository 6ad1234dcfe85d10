// Package util carries the ambient diagnostic-rendering conventions shared
// by the parser, the lowering engine, and the CLI: turning a byte offset
// into a source file plus a message into the familiar
// "file:line:col: error: msg" shape, with an optional caret line.
package util

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// Severity distinguishes a fatal diagnostic from an advisory one. Nothing
// in this module currently renders a Warning; the driver renders parse
// failures as Error.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// Source holds one input file's name and raw content, kept around purely
// so later diagnostics can resolve a byte offset back to a source line.
type Source struct {
	Name    string
	Content []byte
}

// LineCol converts a byte offset into 1-based line and column numbers.
func (s *Source) LineCol(pos int) (line, col int) {
	line, col = 1, 1
	if pos > len(s.Content) {
		pos = len(s.Content)
	}
	for i := 0; i < pos; i++ {
		if s.Content[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

func (s *Source) lineText(lineNum int) string {
	line := 1
	start := 0
	for i, b := range s.Content {
		if line == lineNum {
			break
		}
		if b == '\n' {
			line++
			start = i + 1
		}
	}
	end := len(s.Content)
	for i := start; i < len(s.Content); i++ {
		if s.Content[i] == '\n' {
			end = i
			break
		}
	}
	return string(s.Content[start:end])
}

// IsTTY reports whether f is an interactive terminal. Checked with both
// x/term and go-isatty, matching the redundant belt-and-suspenders check
// the rest of this stack's ecosystem favors.
func IsTTY(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) && isatty.IsTerminal(f.Fd())
}

// Render writes a single diagnostic in "name:line:col: severity: msg"
// form, followed by the offending source line and a caret, to w. Color
// is applied only when useColor is true.
func Render(w io.Writer, src *Source, pos int, sev Severity, useColor bool, format string, args ...interface{}) {
	line, col := src.LineCol(pos)
	color, reset := "", ""
	if useColor {
		if sev == Error {
			color = "\x1b[31m"
		} else {
			color = "\x1b[33m"
		}
		reset = "\x1b[0m"
	}
	fmt.Fprintf(w, "%s:%d:%d: %s%s:%s ", src.Name, line, col, color, sev, reset)
	fmt.Fprintf(w, format, args...)
	fmt.Fprintln(w)

	text := src.lineText(line)
	if text == "" {
		return
	}
	fmt.Fprintf(w, "  %s\n", text)
	caret := "^"
	if useColor {
		caret = "\x1b[32m^\x1b[0m"
	}
	if col-1 > 0 {
		fmt.Fprintf(w, "  %s%s\n", strings.Repeat(" ", col-1), caret)
	} else {
		fmt.Fprintf(w, "  %s\n", caret)
	}
}
