package output

import "github.com/charmbracelet/lipgloss"

var (
	// Adaptive colors for dark/light terminals
	colorHeading = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	colorBorder  = lipgloss.AdaptiveColor{Light: "#DBDBDB", Dark: "#383838"}
	colorDim     = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"}
	colorBody    = lipgloss.AdaptiveColor{Light: "#3D3D3D", Dark: "#ABABAB"}
	colorUp      = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#25D366"}
	colorDown    = lipgloss.AdaptiveColor{Light: "#D0342C", Dark: "#FF5F56"}
	colorFlat    = lipgloss.AdaptiveColor{Light: "#B58900", Dark: "#FFBD2E"}
	colorAlert   = lipgloss.AdaptiveColor{Light: "#F25D94", Dark: "#F25D94"}

	ruleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorHeading)

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	bodyStyle = lipgloss.NewStyle().
			Foreground(colorBody)

	upStyle = lipgloss.NewStyle().
			Foreground(colorUp)

	downStyle = lipgloss.NewStyle().
			Foreground(colorDown)

	flatStyle = lipgloss.NewStyle().
			Foreground(colorFlat)

	alertStyle = lipgloss.NewStyle().
			Foreground(colorAlert)

	bulletUpStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorUp)

	bulletDownStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorDown)
)
