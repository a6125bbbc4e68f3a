package tui

import "github.com/charmbracelet/lipgloss"

var (
	Pink   = lipgloss.Color("#ff4081")
	Rose   = lipgloss.Color("#ff6b9d")
	Text   = lipgloss.Color("#fce4ec")
	Muted  = lipgloss.Color("#9e9e9e")
	Green  = lipgloss.Color("#4CAF50")
	Red    = lipgloss.Color("#f44336")
	Shadow = lipgloss.Color("#5c3a47")

	Title = lipgloss.NewStyle().Foreground(Pink).Bold(true)
	Label = lipgloss.NewStyle().Foreground(Muted)
	Value = lipgloss.NewStyle().Foreground(Text).Bold(true)
	Help  = lipgloss.NewStyle().Foreground(Muted)
	Error = lipgloss.NewStyle().Foreground(Red)

	Board = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Rose)

	Item   = lipgloss.NewStyle().Foreground(Pink)
	Faded  = lipgloss.NewStyle().Foreground(Shadow)
	Flash  = lipgloss.NewStyle().Foreground(Pink).Bold(true).Reverse(true)
	Filled = lipgloss.NewStyle().Foreground(Pink)
	Empty  = lipgloss.NewStyle().Foreground(Shadow)

	Completion = lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(Green).
		Padding(0, 2)
)
