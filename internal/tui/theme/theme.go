package theme

import "github.com/charmbracelet/lipgloss"

// Palette.
var (
	ColorAccent    = lipgloss.Color("39")  // blue
	ColorSuccess   = lipgloss.Color("42")  // green
	ColorError     = lipgloss.Color("196") // red
	ColorWarn      = lipgloss.Color("214") // orange
	ColorBorder    = lipgloss.Color("238")
	ColorMuted     = lipgloss.Color("245")
	ColorSelection = lipgloss.Color("237")
)

// Styles shared by the browser components.
var (
	StyleFrame = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleFocusedFrame = StyleFrame.
				BorderForeground(ColorAccent)

	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	StyleHeader = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	StyleSelectedRow = lipgloss.NewStyle().
				Background(ColorSelection).
				Bold(true)

	StyleNull = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Italic(true)

	StyleMuted = lipgloss.NewStyle().
			Foreground(ColorMuted)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorError)

	StyleWarn = lipgloss.NewStyle().
			Foreground(ColorWarn)

	StyleSuccess = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	StyleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)
)
