// Package tui renders relpack's terminal output.
//
// Colors use lipgloss.AdaptiveColor for light and dark terminals. Every status
// is shown as icon + color + text so output stays readable without color.
// Call CheckNoColor before rendering to honor NO_COLOR and TERM=dumb.
package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/larmbs/relpack/internal/constants"
)

//nolint:gochecknoglobals // styling API
var (
	// ColorPrimary is used for running stages and informational text.
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#0087AF", Dark: "#00D7FF"}

	// ColorSuccess is used for packaged targets and the final success line.
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#008700", Dark: "#00FF87"}

	// ColorWarning is used for warnings such as a skipped version marker.
	ColorWarning = lipgloss.AdaptiveColor{Light: "#AF8700", Dark: "#FFD700"}

	// ColorError is used for failed stages.
	ColorError = lipgloss.AdaptiveColor{Light: "#AF0000", Dark: "#FF5F5F"}

	// ColorMuted is used for secondary text.
	ColorMuted = lipgloss.AdaptiveColor{Light: "#585858", Dark: "#6C6C6C"}
)

// OutputStyles holds the message styles.
type OutputStyles struct {
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Dim     lipgloss.Style
}

// NewOutputStyles creates the message styles.
func NewOutputStyles() *OutputStyles {
	return &OutputStyles{
		Success: lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(ColorError).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(ColorWarning),
		Info:    lipgloss.NewStyle().Foreground(ColorPrimary),
		Dim:     lipgloss.NewStyle().Foreground(ColorMuted),
	}
}

// TableStyles holds the table styles.
type TableStyles struct {
	Header lipgloss.Style
	Cell   lipgloss.Style
	Dim    lipgloss.Style
}

// NewTableStyles creates the table styles.
func NewTableStyles() *TableStyles {
	return &TableStyles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#DDDDDD"}),
		Cell: lipgloss.NewStyle(),
		Dim:  lipgloss.NewStyle().Foreground(ColorMuted),
	}
}

// TargetStatusColors maps target statuses to colors.
func TargetStatusColors() map[constants.TargetStatus]lipgloss.AdaptiveColor {
	return map[constants.TargetStatus]lipgloss.AdaptiveColor{
		constants.TargetStatusPending:  ColorMuted,
		constants.TargetStatusBuilt:    ColorPrimary,
		constants.TargetStatusPackaged: ColorSuccess,
		constants.TargetStatusFailed:   ColorError,
	}
}

// TargetStatusIcon returns the icon for a target status.
func TargetStatusIcon(status constants.TargetStatus) string {
	switch status {
	case constants.TargetStatusPending:
		return "○"
	case constants.TargetStatusBuilt:
		return "●"
	case constants.TargetStatusPackaged:
		return "✓"
	case constants.TargetStatusFailed:
		return "✗"
	default:
		return "?"
	}
}

// FormatTargetStatus renders icon + colored status text.
func FormatTargetStatus(status constants.TargetStatus) string {
	text := TargetStatusIcon(status) + " " + status.String()
	color, ok := TargetStatusColors()[status]
	if !ok {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}

// CheckNoColor drops to the ASCII profile when color is not wanted.
func CheckNoColor() {
	if !HasColorSupport() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// HasColorSupport reports false when NO_COLOR is set or TERM is dumb.
func HasColorSupport() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}
