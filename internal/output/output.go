// Package output renders user-facing terminal messages for git-brain.
// It supports styled output on TTYs and degrades to plain text when the
// destination is not a terminal or styling is forced off.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Printer writes semantic messages to a single destination.
type Printer struct {
	writer io.Writer
	styled bool
}

// Option configures a Printer.
type Option func(*Printer)

// WithWriter directs output to w instead of os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(p *Printer) { p.writer = w }
}

// WithPlain disables styling regardless of the destination.
func WithPlain() Option {
	return func(p *Printer) { p.styled = false }
}

// NewPrinter creates a Printer writing to os.Stdout by default, styled only
// when stdout is a terminal.
func NewPrinter(options ...Option) *Printer {
	p := &Printer{
		writer: os.Stdout,
		styled: isatty.IsTerminal(os.Stdout.Fd()),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Writer exposes the printer's destination for collaborators that write
// directly (e.g. the interactive conflict prompt).
func (p *Printer) Writer() io.Writer { return p.writer }

// Println writes an unstyled line.
func (p *Printer) Println(text string) {
	fmt.Fprintln(p.writer, text)
}

// Printf writes unstyled formatted text.
func (p *Printer) Printf(format string, args ...interface{}) {
	fmt.Fprintf(p.writer, format, args...)
}

// Success writes a success line, green on TTYs.
func (p *Printer) Success(text string) { p.styledLine(successStyle, text) }

// Warning writes a warning line, orange on TTYs.
func (p *Printer) Warning(text string) { p.styledLine(warningStyle, text) }

// Error writes an error line, red on TTYs.
func (p *Printer) Error(text string) { p.styledLine(errorStyle, text) }

// Info writes an informational line, blue on TTYs.
func (p *Printer) Info(text string) { p.styledLine(infoStyle, text) }

// Dim writes a de-emphasized line.
func (p *Printer) Dim(text string) { p.styledLine(dimStyle, text) }

func (p *Printer) styledLine(style lipgloss.Style, text string) {
	if p.styled {
		fmt.Fprintln(p.writer, style.Render(text))
		return
	}
	fmt.Fprintln(p.writer, text)
}
