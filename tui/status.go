package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/questline/engine"
)

// renderStatusBar produces a full-width inverted status line showing the
// title, current focus, equipment and turn count.
func (m Model) renderStatusBar() string {
	v := m.engine.View()
	return statusBar(v, m.width)
}

func statusBar(v engine.View, width int) string {
	left := " " + v.Title
	if v.Focus != "" {
		left += " | At: " + v.Focus
	}

	right := fmt.Sprintf("T:%d ", v.Turn)

	// Show equipment if it fits.
	if gear := equipmentSummary(v); gear != "" {
		candidate := gear + " | " + right
		if lipgloss.Width(left)+lipgloss.Width(candidate)+2 < width {
			right = candidate
		}
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(width).Render(bar)
}

func equipmentSummary(v engine.View) string {
	var parts []string
	if v.Weapon != "" {
		parts = append(parts, "W: "+v.Weapon)
	}
	if v.Armor != "" {
		parts = append(parts, "A: "+v.Armor)
	}
	return strings.Join(parts, " ")
}

// renderPanel draws the open dialogue, or the collected toast and the
// interaction prompt. It returns "" when there is nothing to show.
func (m Model) renderPanel() string {
	return panel(m.engine.View(), m.width)
}

func panel(v engine.View, width int) string {
	inner := width - 4 // border + padding
	if inner < 10 {
		inner = 10
	}

	if v.DialogueOpen {
		var b strings.Builder
		if v.Speaker != "" {
			b.WriteString(styleSpeaker.Render(v.Speaker))
			b.WriteString("\n")
		}
		b.WriteString(styleDialogue.Render(wordWrap(v.DialogueText, inner)))
		if v.DialogueHint != "" {
			b.WriteString("\n")
			b.WriteString(styleHint.Render(v.DialogueHint))
		}
		return stylePanel.Width(inner).Render(b.String())
	}

	var lines []string
	if v.ToastVisible {
		lines = append(lines, styleCollected.Render("Collected: "+v.ToastItem))
	}
	if v.PromptVisible {
		lines = append(lines, stylePrompt.Render(v.Prompt))
	}
	return strings.Join(lines, "\n")
}
