// ABOUTME: Lipgloss styles for the player TUI
// ABOUTME: Colors and text styles shared by the clip list, transport and chat panels
package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorRed     = lipgloss.Color("#FF5F5F")
	colorGreen   = lipgloss.Color("#5FFF87")
	colorYellow  = lipgloss.Color("#FFD75F")
	colorCyan    = lipgloss.Color("#5FD7FF")
	colorGray    = lipgloss.Color("#808080")
	colorDimGray = lipgloss.Color("#4E4E4E")
	colorWhite   = lipgloss.Color("#FFFFFF")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDimGray).
			Padding(0, 1)

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	activeStyle = lipgloss.NewStyle().
			Foreground(colorCyan).
			Bold(true)

	cursorStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	recordingStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	partialStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	successStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(colorYellow).
			Bold(true)

	footerDescStyle = lipgloss.NewStyle().
			Foreground(colorGray)
)
