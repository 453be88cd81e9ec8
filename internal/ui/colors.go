package ui

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

const (
	colorTitle = "#1DB954"
	colorOK    = "#04B575"
	colorErr   = "#FF0000"
	colorWarn  = "#FFA500"
	colorHelp  = "#626262"
)

// Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

// NewPalette builds the sheetify palette for output written to w.
//
// Color support is detected from w, so files and pipes get plain text.
func NewPalette(w io.Writer) *Palette {
	r := lipgloss.NewRenderer(w)
	return &Palette{
		title: newBold(r, colorTitle).MarginBottom(1),
		ok:    newBold(r, colorOK),
		err:   newBold(r, colorErr),
		warn:  newStyle(r, colorWarn),
		help:  newStyle(r, colorHelp).Italic(true),
	}
}

func (p *Palette) Title(s string) string { return p.title.Render(s) }
func (p *Palette) OK(s string) string    { return p.ok.Render(s) }
func (p *Palette) Err(s string) string   { return p.err.Render(s) }
func (p *Palette) Warn(s string) string  { return p.warn.Render(s) }
func (p *Palette) Help(s string) string  { return p.help.Render(s) }

func newStyle(r *lipgloss.Renderer, fg string) lipgloss.Style {
	return r.NewStyle().Foreground(lipgloss.Color(fg))
}

func newBold(r *lipgloss.Renderer, fg string) lipgloss.Style {
	return newStyle(r, fg).Bold(true)
}
