package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/monsefu/resplan/internal/tui/theme"
)

// RenderStatusBar renders the bottom status bar. state is the plan state shown
// as a colored badge; age describes how fresh the plan is.
func RenderStatusBar(width int, state, age string) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Width(width)

	badge := lipgloss.NewStyle().
		Foreground(t.ForState(state)).
		Bold(true)

	left := " [?]help  [n/p]month  [r]efresh  [q]uit"
	right := ""
	if state != "" {
		right = badge.Render(strings.ToUpper(state)) + " "
	}
	if age != "" {
		right += age + " "
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}

	return style.Render(left + strings.Repeat(" ", padding) + right)
}
