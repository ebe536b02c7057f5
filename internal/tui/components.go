package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderTabs draws labels in a row with the active one highlighted.
func renderTabs(labels []string, active int) string {
	tabs := make([]string, len(labels))
	for i, label := range labels {
		if i == active {
			tabs[i] = ActiveTabStyle.Render(label)
		} else {
			tabs[i] = TabStyle.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// renderInputFrame draws a rounded border around a rendered input view.
func renderInputFrame(inputView string, focused bool, contentWidth int) string {
	borderColor := MutedColor
	if focused {
		borderColor = AccentColor
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(contentWidth + 4).
		Render(inputView)
}

func renderCentered(width, height int, content string) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

func renderSeparator(width int) string {
	return SeparatorStyle.Render(strings.Repeat("─", clamp(width-1, 1, width)))
}

func renderMuted(text string) string {
	return lipgloss.NewStyle().Foreground(MutedColor).Render(text)
}

func renderHelp(text string) string {
	return HelpStyle.Render(text)
}
