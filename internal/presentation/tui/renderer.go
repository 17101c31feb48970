// Package tui renders run output for humans at a terminal. Markdown is
// pretty-printed with glamour on interactive terminals and passed through
// untouched everywhere else, so shell pipelines get clean markdown.
package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Renderer writes documents to one output.
type Renderer struct {
	out     io.Writer
	glam    *glamour.TermRenderer
	profile termenv.Profile
}

// NewRenderer builds a renderer for out. plain forces passthrough even when
// out is a terminal.
func NewRenderer(out io.Writer, plain bool) *Renderer {
	r := &Renderer{out: out, profile: termenv.ColorProfile()}
	if plain || !IsTerminal(out) {
		return r
	}
	glam, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Detect light/dark background
		glamour.WithWordWrap(100),
	)
	if err == nil {
		r.glam = glam
	}
	return r
}

// Render writes the document markdown to the output. Rendering trouble falls
// back to plain markdown instead of losing the document.
func (r *Renderer) Render(markdown string) error {
	if r.glam == nil {
		_, err := fmt.Fprintln(r.out, markdown)
		return err
	}
	pretty, err := r.glam.Render(markdown)
	if err != nil {
		_, werr := fmt.Fprintln(r.out, markdown)
		return werr
	}
	_, err = fmt.Fprint(r.out, pretty)
	return err
}

// Banner prints a short colored heading for interactive runs. It stays
// silent when the output is not a terminal.
func (r *Renderer) Banner(version string, technologies []string) {
	if r.glam == nil {
		return
	}
	title := termenv.String(" scribe " + version + " ").Foreground(r.profile.Color("#818cf8")).Bold()
	subject := termenv.String(strings.Join(technologies, ", ")).Foreground(r.profile.Color("#a78bfa"))
	fmt.Fprintf(r.out, "\n%s %s\n\n", title, subject)
}

// IsTerminal reports whether the writer or reader is an interactive
// terminal.
func IsTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
