package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleNarration = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleYouSee = lipgloss.NewStyle().
			Bold(true)

	stylePrompt = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81"))

	styleDialogue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))

	styleSpeaker = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	styleHint = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)

	stylePanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	styleCollected = lipgloss.NewStyle().
			Foreground(lipgloss.Color("120")).
			Bold(true)

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindNarration lineKind = iota
	kindYouSee
	kindPrompt
	kindDialogue
	kindCollected
	kindSystem
	kindError
	kindTrace
)

// classifyLine determines what kind of output line this is.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case isPrompt(line):
		return kindPrompt
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"),
		strings.HasPrefix(line, "(") && strings.HasSuffix(line, ")"):
		return kindSystem
	case strings.HasPrefix(line, "You see:"):
		return kindYouSee
	case strings.HasPrefix(line, "Collected:"):
		return kindCollected
	case isError(line):
		return kindError
	case containsQuotedSpeech(line):
		return kindDialogue
	default:
		return kindNarration
	}
}

func isError(line string) bool {
	lower := strings.ToLower(line)
	for _, prefix := range []string{"you don't see", "there is no", "i don't understand", "which "} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// isPrompt matches the interaction prompt, e.g. "[E] Talk".
func isPrompt(line string) bool {
	if !strings.HasPrefix(line, "[") {
		return false
	}
	end := strings.Index(line, "] ")
	return end > 1 && end+2 < len(line)
}

// containsQuotedSpeech checks if a line contains a quoted spoken line.
func containsQuotedSpeech(line string) bool {
	first := strings.IndexByte(line, '"')
	if first < 0 {
		return false
	}
	last := strings.LastIndexByte(line, '"')
	return last-first-1 > 1
}

// styledYouSee renders "You see: a, b." with the names bold.
func styledYouSee(line string) string {
	const prefix = "You see: "
	if !strings.HasPrefix(line, prefix) {
		return styleNarration.Render(line)
	}
	return styleNarration.Render(prefix) + styleYouSee.Render(line[len(prefix):])
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}
