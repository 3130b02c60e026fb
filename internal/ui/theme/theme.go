package theme

import (
	"charm.land/lipgloss/v2"
)

// Color palette, close to the Azure portal
var (
	Primary   = lipgloss.Color("#0078D4") // Azure Blue
	Secondary = lipgloss.Color("#50E6FF") // Cyan
	Accent    = lipgloss.Color("#FFB900") // Amber
	Success   = lipgloss.Color("#107C10") // Green
	Error     = lipgloss.Color("#D13438") // Red
	Text      = lipgloss.Color("#F3F2F1") // Off White
	TextDim   = lipgloss.Color("#A19F9D") // Grey
	Border    = lipgloss.Color("#3B3A39") // Charcoal
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Code = lipgloss.NewStyle().
		Foreground(Secondary).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(Border).
		PaddingLeft(1)
)

// States
var (
	Favorite = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true)

	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)
)

// Components
var (
	ProgressFilled = lipgloss.NewStyle().
			Background(Primary)

	ProgressEmpty = lipgloss.NewStyle().
			Background(Border)

	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)
)
