package tui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
)

const (
	MinWidth  = 60
	MinHeight = 16
)

// KeyHint is a key binding shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

func isTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

func renderMinSizeMessage(width, height int) string {
	return lipgloss.NewStyle().
		Align(lipgloss.Center).
		Foreground(Text).
		Width(width).
		Height(height).
		Render(fmt.Sprintf(
			"Terminal too small!\n\nPlease resize to at\nleast %d x %d\n\nCurrent: %d x %d",
			MinWidth, MinHeight, width, height,
		))
}

// renderHeader shows the app name, the screen title and, during a
// rehearsal, the number of turns spoken.
func renderHeader(title string, turns, width int) string {
	left := lipgloss.NewStyle().Foreground(Primary).Bold(true).Render("  ಕಲಿಕೆ Kalike")
	center := lipgloss.NewStyle().Foreground(Text).Render(title)
	right := ""
	if turns > 0 {
		right = lipgloss.NewStyle().Foreground(Accent).Render(fmt.Sprintf("turn %d", turns))
	}

	leftLen := lipgloss.Width(left)
	centerLen := lipgloss.Width(center)
	rightLen := lipgloss.Width(right)

	innerWidth := max(width-4, 0)
	leftGap := max((innerWidth-centerLen)/2-leftLen, 1)
	rightGap := max(innerWidth-leftLen-leftGap-centerLen-rightLen, 1)

	content := left + strings.Repeat(" ", leftGap) + center + strings.Repeat(" ", rightGap) + right
	return lipgloss.NewStyle().
		Width(width).
		Background(BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Render(content)
}

func renderFooter(hints []KeyHint, width int) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, lipgloss.NewStyle().Foreground(Text).Bold(true).Render(h.Key)+
			" "+lipgloss.NewStyle().Foreground(TextDim).Render(h.Description))
	}
	return lipgloss.NewStyle().
		Width(width).
		Background(BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Render("  " + strings.Join(parts, "   "))
}

func renderFrame(header, content, footer string, width, height int) string {
	contentHeight := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	styled := lipgloss.NewStyle().
		Width(width).
		Height(contentHeight).
		Render(content)
	return header + "\n" + styled + "\n" + footer
}
