// Package console prints status lines for the CLI.
package console

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	title   = color.New(color.FgCyan, color.Bold)
	section = color.New(color.FgWhite, color.Bold)
	good    = color.New(color.FgGreen)
	bad     = color.New(color.FgRed)
	warn    = color.New(color.FgYellow)
	dim     = color.New(color.FgHiBlack)
)

// Title prints a heading.
func Title(w io.Writer, format string, a ...any) {
	title.Fprintf(w, format+"\n", a...)
}

// Section prints a sub-heading.
func Section(w io.Writer, format string, a ...any) {
	section.Fprintf(w, format+"\n", a...)
}

// Success prints a passed check.
func Success(w io.Writer, format string, a ...any) {
	good.Fprint(w, "✓ ")
	fmt.Fprintf(w, format+"\n", a...)
}

// Failure prints a failed check.
func Failure(w io.Writer, format string, a ...any) {
	bad.Fprint(w, "✗ ")
	fmt.Fprintf(w, format+"\n", a...)
}

// Warning prints a non-fatal problem.
func Warning(w io.Writer, format string, a ...any) {
	warn.Fprintf(w, format+"\n", a...)
}

// Hint prints dimmed follow-up text.
func Hint(w io.Writer, format string, a ...any) {
	dim.Fprintf(w, "  "+format+"\n", a...)
}

// Error prints an error line.
func Error(w io.Writer, err error) {
	bad.Fprintf(w, "Error: %v\n", err)
}
