package cli

import (
	"github.com/charmbracelet/lipgloss"

	"quit-tracker/internal/models"
)

// Palette is the set of colors a theme renders with.
type Palette struct {
	Border lipgloss.Color
	Dim    lipgloss.Color
	Muted  lipgloss.Color
	Text   lipgloss.Color
	Accent lipgloss.Color
	Good   lipgloss.Color
	Warn   lipgloss.Color
}

var palettes = map[string]Palette{
	models.ThemeDark: {
		Border: lipgloss.Color("#282726"),
		Dim:    lipgloss.Color("#575653"),
		Muted:  lipgloss.Color("#9AA0A6"),
		Text:   lipgloss.Color("#E8EAED"),
		Accent: lipgloss.Color("#F6AD55"),
		Good:   lipgloss.Color("#879A39"),
		Warn:   lipgloss.Color("#D14D41"),
	},
	models.ThemeLight: {
		Border: lipgloss.Color("#D0CFCA"),
		Dim:    lipgloss.Color("#B7B5AC"),
		Muted:  lipgloss.Color("#5F6368"),
		Text:   lipgloss.Color("#1F2328"),
		Accent: lipgloss.Color("#BC5215"),
		Good:   lipgloss.Color("#66800B"),
		Warn:   lipgloss.Color("#AF3029"),
	},
}

// Styles are the lipgloss styles derived from a palette.
type Styles struct {
	Palette Palette
	Title   lipgloss.Style
	Header  lipgloss.Style
	Value   lipgloss.Style
	Muted   lipgloss.Style
	Dim     lipgloss.Style
	Good    lipgloss.Style
	Warn    lipgloss.Style
}

// NewStyles returns the styles of the named theme. Unknown names get the
// dark theme.
func NewStyles(theme string) Styles {
	p, ok := palettes[theme]
	if !ok {
		p = palettes[models.DefaultTheme]
	}
	return Styles{
		Palette: p,
		Title:   lipgloss.NewStyle().Bold(true).Foreground(p.Text).Align(lipgloss.Center),
		Header:  lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		Value:   lipgloss.NewStyle().Foreground(p.Text),
		Muted:   lipgloss.NewStyle().Foreground(p.Muted),
		Dim:     lipgloss.NewStyle().Foreground(p.Dim),
		Good:    lipgloss.NewStyle().Foreground(p.Good),
		Warn:    lipgloss.NewStyle().Foreground(p.Warn),
	}
}
