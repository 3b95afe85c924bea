package output

import "github.com/charmbracelet/lipgloss"

// Color palette, 256-color codes.
const (
	ColorBlue   = "33"  // directories
	ColorCyan   = "51"  // symlinks
	ColorGray   = "245" // metadata columns, summaries
	ColorGreen  = "40"  // created
	ColorYellow = "220" // modified, renamed
	ColorRed    = "196" // deleted, errors
)

// Styles holds the render styles for walk output.
type Styles struct {
	Dir     lipgloss.Style
	Symlink lipgloss.Style
	Meta    lipgloss.Style
	Error   lipgloss.Style
	Summary lipgloss.Style

	Created  lipgloss.Style
	Modified lipgloss.Style
	Deleted  lipgloss.Style
}

// DefaultStyles returns styled components for terminal output.
func DefaultStyles() Styles {
	return Styles{
		Dir:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorBlue)),
		Symlink: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorCyan)),
		Meta:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Summary: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),

		Created:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGreen)),
		Modified: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Deleted:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
	}
}

// NoColorStyles returns a style set with no coloring at all.
func NoColorStyles() Styles {
	return Styles{
		Dir:      lipgloss.NewStyle(),
		Symlink:  lipgloss.NewStyle(),
		Meta:     lipgloss.NewStyle(),
		Error:    lipgloss.NewStyle(),
		Summary:  lipgloss.NewStyle(),
		Created:  lipgloss.NewStyle(),
		Modified: lipgloss.NewStyle(),
		Deleted:  lipgloss.NewStyle(),
	}
}

// GetStyles picks colored or plain styles from the noColor preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
