package ui

import "github.com/charmbracelet/lipgloss"

// Color palette (ANSI 256).
const (
	ColorAccent    = "39"  // keyword headings, progress fill
	ColorAccentDim = "31"  // completed stages
	ColorWhite     = "255" // headers
	ColorGray      = "245" // labels, paths
	ColorDarkGray  = "238" // borders, pending stages
	ColorGreen     = "78"  // success
	ColorRed       = "196" // errors
	ColorYellow    = "220" // warnings
)

// Styles holds the lipgloss styles used by every renderer.
type Styles struct {
	Header  lipgloss.Style
	Keyword lipgloss.Style
	Path    lipgloss.Style
	Count   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
	Stage   lipgloss.Style
	Active  lipgloss.Style
	Label   lipgloss.Style
	Border  lipgloss.Style
	Panel   lipgloss.Style
}

// DefaultStyles returns the colored styles.
func DefaultStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorWhite)),
		Keyword: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccent)),
		Path:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Count:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentDim)),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGreen)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Stage:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentDim)),
		Active:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccent)),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Border:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorDarkGray)).
			Padding(0, 1),
	}
}

// NoColorStyles returns unstyled components.
func NoColorStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Header:  plain,
		Keyword: plain,
		Path:    plain,
		Count:   plain,
		Success: plain,
		Warning: plain,
		Error:   plain,
		Dim:     plain,
		Stage:   plain,
		Active:  plain,
		Label:   plain,
		Border:  plain,
		Panel:   plain,
	}
}

// GetStyles picks DefaultStyles or NoColorStyles.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
