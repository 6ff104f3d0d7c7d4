package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// defaultAccent matches the ui.accent config default.
const defaultAccent = "205"

type theme struct {
	title     lipgloss.Style
	dim       lipgloss.Style
	builder   lipgloss.Style
	assistant lipgloss.Style
	errLine   lipgloss.Style
	banner    lipgloss.Style
	help      lipgloss.Style
	spinner   lipgloss.Style
}

func newTheme(accent string) theme {
	if strings.TrimSpace(accent) == "" {
		accent = defaultAccent
	}
	ac := lipgloss.Color(accent)

	return theme{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(ac),

		dim: lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")),

		builder: lipgloss.NewStyle().
			Foreground(ac).
			Align(lipgloss.Right),

		assistant: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),

		errLine: lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")).
			Bold(true),

		banner: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true),

		help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")),

		spinner: lipgloss.NewStyle().
			Foreground(ac),
	}
}
