package tui

import (
	"charm.land/lipgloss/v2"
)

// Palette: Mysore silk reds and golds on a dark ground.
var (
	Primary   = lipgloss.Color("#E11D48")
	Secondary = lipgloss.Color("#EAB308")
	Accent    = lipgloss.Color("#F97316")
	Success   = lipgloss.Color("#22C55E")
	Error     = lipgloss.Color("#F43F5E")
	Text      = lipgloss.Color("#F8FAFC")
	TextDim   = lipgloss.Color("#94A3B8")
	BgCard    = lipgloss.Color("#1E293B")
	Border    = lipgloss.Color("#334155")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary)

	bodyStyle = lipgloss.NewStyle().
			Foreground(Text)

	hintStyle = lipgloss.NewStyle().
			Foreground(TextDim).
			Italic(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(1, 2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	disabledStyle = lipgloss.NewStyle().
			Foreground(TextDim).
			Strikethrough(true)

	agentStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	userStyle = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(Error)

	scoreStyle = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)
)
