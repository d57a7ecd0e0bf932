// Package pretty renders annotext reports, tables, and diffs for the
// terminal with lipgloss.
package pretty

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Color modes accepted by IsColorEnabled.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// ANSI colors of the palette.
//
//nolint:gochecknoglobals // Read-only palette.
var (
	colorMuted  = lipgloss.Color("8")
	colorText   = lipgloss.Color("7")
	colorBad    = lipgloss.Color("9")
	colorGood   = lipgloss.Color("10")
	colorWarn   = lipgloss.Color("11")
	colorAccent = lipgloss.Color("12")
	colorQuote  = lipgloss.Color("14")
)

// Styles holds the renderers of every element annotext prints. Without
// color every style renders text unchanged.
type Styles struct {
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Success lipgloss.Style
	Failure lipgloss.Style

	// Documents and positions.
	FilePath   lipgloss.Style
	Location   lipgloss.Style
	Label      lipgloss.Style
	Quote      lipgloss.Style
	Correction lipgloss.Style
	Link       lipgloss.Style
	Excluded   lipgloss.Style

	DiffHeader  lipgloss.Style
	DiffHunk    lipgloss.Style
	DiffAdd     lipgloss.Style
	DiffRemove  lipgloss.Style
	DiffContext lipgloss.Style

	SummaryTitle lipgloss.Style
	SummaryValue lipgloss.Style

	// Mark table rows by state.
	TableHeader    lipgloss.Style
	TableActiveRow lipgloss.Style
	TableReviewRow lipgloss.Style
	TableStaleRow  lipgloss.Style
	TableLegend    lipgloss.Style
	TableSeparator lipgloss.Style

	Dim  lipgloss.Style
	Bold lipgloss.Style
}

type attr int

const (
	bold attr = iota + 1
	italic
	underline
)

// styler builds styles, dropping colors and attributes when disabled.
type styler bool

func (on styler) style(color lipgloss.TerminalColor, attrs ...attr) lipgloss.Style {
	st := lipgloss.NewStyle()
	if !on {
		return st
	}
	if color != nil {
		st = st.Foreground(color)
	}
	for _, a := range attrs {
		switch a {
		case bold:
			st = st.Bold(true)
		case italic:
			st = st.Italic(true)
		case underline:
			st = st.Underline(true)
		}
	}
	return st
}

// NewStyles returns the styles for colored or plain output.
func NewStyles(colorEnabled bool) *Styles {
	s := styler(colorEnabled)
	dim := s.style(colorMuted)

	return &Styles{
		Error:   s.style(colorBad, bold),
		Warning: s.style(colorWarn, bold),
		Info:    s.style(colorAccent, bold),
		Success: s.style(colorGood, bold),
		Failure: s.style(colorBad, bold),

		FilePath:   s.style(nil, bold),
		Location:   dim,
		Label:      s.style(colorText),
		Quote:      s.style(colorQuote),
		Correction: s.style(colorGood, italic),
		Link:       s.style(colorAccent, underline),
		Excluded:   s.style(colorMuted, italic),

		DiffHeader:  s.style(nil, bold),
		DiffHunk:    s.style(colorQuote),
		DiffAdd:     s.style(colorGood),
		DiffRemove:  s.style(colorBad),
		DiffContext: dim,

		SummaryTitle: s.style(nil, bold),
		SummaryValue: s.style(nil),

		TableHeader:    s.style(colorText, bold),
		TableActiveRow: s.style(nil),
		TableReviewRow: s.style(colorWarn),
		TableStaleRow:  s.style(colorBad),
		TableLegend:    s.style(colorMuted, italic),
		TableSeparator: dim,

		Dim:  dim,
		Bold: s.style(nil, bold),
	}
}

// IsColorEnabled resolves a color mode for output written to writer. In
// auto mode color needs a terminal and an unset NO_COLOR.
func IsColorEnabled(mode string, writer io.Writer) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}

	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := writer.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
