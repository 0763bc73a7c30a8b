// Package output prints short CLI status lines: successes, warnings, and
// errors with an icon prefix.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Writer writes status lines to a terminal or pipe.
type Writer struct {
	out      io.Writer
	useColor bool

	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	dim     lipgloss.Style
}

// New creates a Writer without color.
func New(out io.Writer) *Writer {
	return NewWithColor(out, false)
}

// NewWithColor creates a Writer that colors icons when useColor is true.
func NewWithColor(out io.Writer, useColor bool) *Writer {
	w := &Writer{out: out, useColor: useColor}
	if useColor {
		w.success = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
		w.warning = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
		w.failure = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		w.dim = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	}
	return w
}

// Status prints msg after icon. An empty icon indents instead.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status line.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints msg with a check mark.
func (w *Writer) Success(msg string) {
	w.Status(w.paint(w.success, "✓"), msg)
}

// Successf prints a formatted success line.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints msg with a warning sign.
func (w *Writer) Warning(msg string) {
	w.Status(w.paint(w.warning, "⚠"), msg)
}

// Warningf prints a formatted warning line.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints msg with a cross.
func (w *Writer) Error(msg string) {
	w.Status(w.paint(w.failure, "✗"), msg)
}

// Errorf prints a formatted error line.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Hint prints a dimmed indented line.
func (w *Writer) Hint(msg string) {
	w.Status("", w.paint(w.dim, msg))
}

// Code prints content indented by two spaces between blank lines.
func (w *Writer) Code(content string) {
	_, _ = fmt.Fprintln(w.out)
	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		_, _ = fmt.Fprintf(w.out, "  %s\n", line)
	}
	_, _ = fmt.Fprintln(w.out)
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

func (w *Writer) paint(style lipgloss.Style, s string) string {
	if !w.useColor {
		return s
	}
	return style.Render(s)
}
