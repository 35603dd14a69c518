// Package tui provides a Bubble Tea terminal UI for the questline harness.
package tui

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/questline/engine"
	"github.com/nathoo/questline/engine/save"
	"github.com/nathoo/questline/errutil"
	"github.com/nathoo/questline/types"
)

// Options configures the TUI.
type Options struct {
	SavePath    string       // inventory save file, save.DefaultFileName if empty
	HistoryFile string       // command history, not persisted if empty
	Trace       bool         // start with trace output on
	Logger      *slog.Logger // defaults to slog.Default()
}

// rawLine stores an unstyled output line with its classification,
// so we can re-wrap and re-style when the terminal is resized.
type rawLine struct {
	text     string
	kind     lineKind
	isInput  bool // true for echoed player input
	isSystem bool // true for system messages
}

// Model is the Bubble Tea model for the questline TUI.
type Model struct {
	engine *engine.Engine

	viewport viewport.Model
	input    textinput.Model
	history  *History

	rawLines []rawLine // accumulated narrative lines (unstyled, for re-wrapping)

	width       int
	height      int
	ready       bool
	trace       bool
	quitting    bool
	lastCmd     string
	savePath    string
	historyFile string
	logger      *slog.Logger
}

// gameOutputMsg carries output from the engine into the Update loop.
type gameOutputMsg struct {
	input    string   // echoed player input (empty for intro)
	lines    []string // output lines
	isSystem bool     // true for meta-command output
}

// New creates a TUI model wired to the given engine.
func New(eng *engine.Engine, opts Options) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	if opts.SavePath == "" {
		opts.SavePath = save.DefaultFileName
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	history := NewHistory(100)
	if opts.HistoryFile != "" {
		if err := history.Load(opts.HistoryFile); err != nil {
			errutil.LogWarn(opts.Logger, "history not loaded", err)
		}
	}

	return Model{
		engine:      eng,
		input:       ti,
		history:     history,
		trace:       opts.Trace,
		savePath:    opts.SavePath,
		historyFile: opts.HistoryFile,
		logger:      opts.Logger,
	}
}

// Run starts the Bubble Tea program.
func Run(eng *engine.Engine, opts Options) error {
	m := New(eng, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.saveHistory()
	}
	return err
}

// Init returns the initial command that produces intro text and first look.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.initialOutput())
}

func (m Model) initialOutput() tea.Cmd {
	return func() tea.Msg {
		return gameOutputMsg{lines: m.engine.Intro()}
	}
}

// Update handles messages (key presses, window resize, game output).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		if !m.ready {
			m.viewport = viewport.New(m.width, 1)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		}
		m.layout()
		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			return m.handleEnter()

		case "up":
			if prev, ok := m.history.Prev(); ok {
				m.input.SetValue(prev)
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if next, ok := m.history.Next(); ok {
				m.input.SetValue(next)
				m.input.CursorEnd()
			} else {
				m.input.SetValue("")
				m.history.ResetCursor()
			}
			return m, nil

		case "pgup", "pgdown":
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

	case gameOutputMsg:
		m = m.appendOutput(msg)
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	cmds = append(cmds, inputCmd)

	return m, tea.Batch(cmds...)
}

// handleEnter processes the submitted input line.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")

	if input == "" {
		// An empty line dismisses an open dialogue, like pressing interact.
		if !m.engine.View().DialogueOpen {
			return m, nil
		}
		input = "continue"
	}

	m.history.Push(input)
	m.history.ResetCursor()

	// Handle "again" / "g".
	lower := strings.ToLower(input)
	if lower == "again" || lower == "g" {
		if m.lastCmd == "" {
			m = m.appendOutput(gameOutputMsg{
				input: input, lines: []string{"Nothing to repeat."}, isSystem: true,
			})
			return m, nil
		}
		input = m.lastCmd
	} else if !strings.HasPrefix(input, "/") {
		m.lastCmd = input
	}

	// Meta-commands.
	if strings.HasPrefix(input, "/") {
		output, quit := m.handleMeta(input)
		m = m.appendOutput(gameOutputMsg{input: input, lines: output, isSystem: true})
		if quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	// Game command.
	result := m.engine.Step(input)
	output := result.Output
	if m.trace {
		output = append(output, formatTrace(result)...)
	}
	m = m.appendOutput(gameOutputMsg{input: input, lines: output})
	return m, nil
}

// appendOutput adds lines to the narrative and refreshes the viewport.
func (m Model) appendOutput(msg gameOutputMsg) Model {
	if msg.input != "" {
		m.rawLines = append(m.rawLines, rawLine{
			text: "> " + msg.input, isInput: true,
		})
	}

	for _, line := range msg.lines {
		rl := rawLine{text: line, isSystem: msg.isSystem}
		if !msg.isSystem {
			rl.kind = classifyLine(line)
		}
		m.rawLines = append(m.rawLines, rl)
	}

	// Blank line separator between turns.
	m.rawLines = append(m.rawLines, rawLine{})

	m.layout()
	m.refreshViewport()

	return m
}

// layout sizes the viewport around the dialogue panel, status bar and input.
func (m *Model) layout() {
	if !m.ready {
		return
	}
	vpHeight := m.height - 2 // 1 status bar + 1 input line
	if panel := m.renderPanel(); panel != "" {
		vpHeight -= lipgloss.Height(panel)
	}
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = m.width
	m.viewport.Height = vpHeight
}

// refreshViewport re-wraps and re-styles all raw lines at the current width
// and updates the viewport content.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	width := m.width
	if width < 10 {
		width = 10
	}

	var styled []string
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}

		wrapped := wordWrap(rl.text, width)

		switch {
		case rl.isInput:
			styled = append(styled, stylePlayerInput.Render(wrapped))
		case rl.isSystem:
			styled = append(styled, styledSystemMsg(wrapped))
		default:
			styled = append(styled, renderLineKind(wrapped, rl.kind))
		}
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// renderLineKind applies the style for a given lineKind.
func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindYouSee:
		return styledYouSee(line)
	case kindPrompt:
		return stylePrompt.Render(line)
	case kindDialogue:
		return styleDialogue.Render(line)
	case kindCollected:
		return styleCollected.Render(line)
	case kindSystem:
		return styleSystem.Render(line)
	case kindError:
		return styleError.Render(line)
	case kindTrace:
		return styleTrace.Render(line)
	default:
		return styleNarration.Render(line)
	}
}

// wordWrap wraps text to fit within the given width, breaking at word
// boundaries.
func wordWrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	var result strings.Builder
	words := strings.Fields(text)
	lineLen := 0

	for i, word := range words {
		wLen := len(word)

		if i == 0 {
			result.WriteString(word)
			lineLen = wLen
			continue
		}

		if lineLen+1+wLen > width {
			result.WriteString("\n")
			result.WriteString(word)
			lineLen = wLen
		} else {
			result.WriteString(" ")
			result.WriteString(word)
			lineLen += 1 + wLen
		}
	}

	return result.String()
}

// View renders the full TUI layout: viewport, dialogue panel, status bar, input.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	parts := []string{m.viewport.View()}
	if panel := m.renderPanel(); panel != "" {
		parts = append(parts, panel)
	}
	parts = append(parts, m.renderStatusBar(), m.input.View())
	return strings.Join(parts, "\n")
}

// handleMeta dispatches meta-commands. Returns output lines and quit flag.
func (m *Model) handleMeta(input string) ([]string, bool) {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		return []string{"Goodbye."}, true

	case "/save":
		return m.cmdSave(arg), false

	case "/load":
		return m.cmdLoad(arg), false

	case "/help":
		return cmdHelp(), false

	case "/state":
		return m.cmdState(), false

	case "/trace":
		m.trace = !m.trace
		if m.trace {
			return []string{"Trace output enabled."}, false
		}
		return []string{"Trace output disabled."}, false

	default:
		return []string{fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd)}, false
	}
}

func (m *Model) path(arg string) string {
	if arg != "" {
		return arg
	}
	return m.savePath
}

func (m *Model) cmdSave(arg string) []string {
	path := m.path(arg)
	if err := m.engine.SaveInventory(path); err != nil {
		errutil.LogError(m.logger, "save failed", err)
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}
	return []string{fmt.Sprintf("Inventory saved to %s.", path)}
}

func (m *Model) cmdLoad(arg string) []string {
	path := m.path(arg)
	ok, err := m.engine.LoadInventory(path)
	if err != nil {
		errutil.LogError(m.logger, "load failed", err)
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}
	if !ok {
		return []string{fmt.Sprintf("No save found at %s.", path)}
	}
	output := []string{fmt.Sprintf("Inventory loaded from %s.", path)}
	result := m.engine.Step("inventory")
	return append(output, result.Output...)
}

func cmdHelp() []string {
	return []string{
		"System:",
		"  /save [path]  Save the inventory",
		"  /load [path]  Load the inventory",
		"  /quit         Exit game",
		"  /help         Show this help",
		"  /state        Debug: dump current state",
		"  /trace        Toggle event trace output",
		"",
		"Game commands:",
		"  look (l)                     Look around",
		"  approach <thing> (go, a)     Walk up to someone or something",
		"  leave                        Step away",
		"  interact (e, talk, open)     Interact, or continue a conversation",
		"  inventory [tab] (i)          List consumables and equipment",
		"  use <tab> <slot> (u)         Use or equip the item in a slot",
		"  move <tab> <from> <to>       Move or swap two slots",
		"  discard <tab> <slot>         Throw an item away",
		"  wait (z)                     Let time pass",
		"  again (g)                    Repeat your last command",
		"",
		"Navigation: PgUp/PgDn to scroll, Up/Down for command history,",
		"Enter on an empty line to continue a conversation",
	}
}

func (m *Model) cmdState() []string {
	s := m.engine.State
	v := m.engine.View()
	output := []string{
		fmt.Sprintf("Turn: %d", s.TurnCount),
		fmt.Sprintf("Seed: %d (position %d)", s.RNGSeed, s.RNGPosition),
	}
	if v.Focus != "" {
		output = append(output, "Focus: "+v.Focus)
	}
	for _, d := range m.engine.Defs.Dialogues.All() {
		shown, consumed := m.engine.Progress(d.ID)
		if len(shown) == 0 && len(consumed) == 0 {
			continue
		}
		output = append(output, fmt.Sprintf("Dialogue %s: shown %v, consumed %v", d.ID, shown, consumed))
	}
	return output
}

func (m *Model) saveHistory() {
	if m.historyFile == "" {
		return
	}
	if err := m.history.Save(m.historyFile); err != nil {
		errutil.LogWarn(m.logger, "history not saved", err)
	}
}

func formatTrace(result types.Result) []string {
	if len(result.Events) == 0 {
		return nil
	}
	lines := []string{fmt.Sprintf("[trace] Events: %d", len(result.Events))}
	for _, e := range result.Events {
		lines = append(lines, fmt.Sprintf("[trace]   %s %v", e.Type, e.Data))
	}
	return lines
}

// viewportKeyMap returns a viewport keymap with Up/Down disabled
// (we use those for input history).
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
