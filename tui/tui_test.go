package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/questline/engine"
	"github.com/nathoo/questline/engine/catalog"
	"github.com/nathoo/questline/engine/state"
	"github.com/nathoo/questline/logging"
	"github.com/nathoo/questline/types"
)

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		line string
		want lineKind
	}{
		{"You see: Merchant, Old Chest.", kindYouSee},
		{"[E] Talk", kindPrompt},
		{"[Inventory saved to inv.json.]", kindSystem},
		{"(Press E to continue)", kindSystem},
		{"[trace] Events: 2", kindTrace},
		{"Collected: Potion.", kindCollected},
		{`you don't see "dragon" here`, kindError},
		{"There is no such slot.", kindError},
		{"I don't understand that.", kindError},
		{"You approach the Merchant.", kindNarration},
		{"", kindNarration},
		{`Merchant: "Welcome to Hollowmere, traveller."`, kindDialogue},
	}
	for _, tt := range tests {
		got := classifyLine(tt.line)
		if got != tt.want {
			t.Errorf("classifyLine(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestContainsQuotedSpeech(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{`Guard: "Move along."`, true},
		{`"Hello there."`, true},
		{"No quotes here.", false},
		{`A lone " mark`, false},
		{`""`, false},
	}
	for _, tt := range tests {
		got := containsQuotedSpeech(tt.line)
		if got != tt.want {
			t.Errorf("containsQuotedSpeech(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestWordWrap(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  string
	}{
		{"short", 80, "short"},
		{"hello world", 5, "hello\nworld"},
		{"The great hall stretches before you with its vaulted ceiling.", 30,
			"The great hall stretches\nbefore you with its vaulted\nceiling."},
		{"", 80, ""},
		{"one", 80, "one"},
		{"a b c d e", 3, "a b\nc d\ne"},
	}
	for _, tt := range tests {
		got := wordWrap(tt.text, tt.width)
		if got != tt.want {
			t.Errorf("wordWrap(%q, %d) =\n  %q\nwant:\n  %q", tt.text, tt.width, got, tt.want)
		}
	}
}

func TestHistory_PushAndPrev(t *testing.T) {
	h := NewHistory(5)
	h.Push("look")
	h.Push("approach merchant")
	h.Push("open")

	prev, ok := h.Prev()
	if !ok || prev != "open" {
		t.Errorf("expected 'open', got %q (ok=%v)", prev, ok)
	}

	prev, ok = h.Prev()
	if !ok || prev != "approach merchant" {
		t.Errorf("expected 'approach merchant', got %q (ok=%v)", prev, ok)
	}

	prev, ok = h.Prev()
	if !ok || prev != "look" {
		t.Errorf("expected 'look', got %q (ok=%v)", prev, ok)
	}

	// At oldest, stays there.
	prev, ok = h.Prev()
	if !ok || prev != "look" {
		t.Errorf("expected 'look' at boundary, got %q (ok=%v)", prev, ok)
	}
}

func TestHistory_Next(t *testing.T) {
	h := NewHistory(5)
	h.Push("look")
	h.Push("approach merchant")

	h.Prev() // "approach merchant"
	h.Prev() // "look"

	next, ok := h.Next()
	if !ok || next != "approach merchant" {
		t.Errorf("expected 'approach merchant', got %q (ok=%v)", next, ok)
	}

	_, ok = h.Next()
	if ok {
		t.Error("expected false when past newest entry")
	}
}

func TestHistory_Empty(t *testing.T) {
	h := NewHistory(5)
	_, ok := h.Prev()
	if ok {
		t.Error("expected false on empty history")
	}
	_, ok = h.Next()
	if ok {
		t.Error("expected false on empty history")
	}
}

func TestHistory_MaxSize(t *testing.T) {
	h := NewHistory(2)
	h.Push("a")
	h.Push("b")
	h.Push("c") // "a" evicted

	prev, _ := h.Prev()
	if prev != "c" {
		t.Errorf("expected 'c', got %q", prev)
	}
	prev, _ = h.Prev()
	if prev != "b" {
		t.Errorf("expected 'b', got %q", prev)
	}
	// "a" is gone.
	prev, _ = h.Prev()
	if prev != "b" {
		t.Errorf("expected 'b' at boundary, got %q", prev)
	}
}

func TestHistory_NoDuplicates(t *testing.T) {
	h := NewHistory(5)
	h.Push("look")
	h.Push("look") // skipped
	h.Push("look") // skipped

	if len(h.entries) != 1 {
		t.Errorf("expected 1 entry, got %d", len(h.entries))
	}
}

func TestHistory_ResetCursor(t *testing.T) {
	h := NewHistory(5)
	h.Push("look")
	h.Push("approach merchant")

	h.Prev() // "approach merchant"
	h.ResetCursor()

	// After reset, Prev starts from the end again.
	prev, ok := h.Prev()
	if !ok || prev != "approach merchant" {
		t.Errorf("expected 'approach merchant' after reset, got %q", prev)
	}
}


func TestHistory_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "history")

	h := NewHistory(5)
	h.Push("look")
	h.Push("approach merchant")
	if err := h.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	h2 := NewHistory(5)
	if err := h2.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	prev, ok := h2.Prev()
	if !ok || prev != "approach merchant" {
		t.Errorf("expected 'approach merchant', got %q", prev)
	}

	// A missing file leaves the history empty.
	h3 := NewHistory(5)
	if err := h3.Load(filepath.Join(t.TempDir(), "none")); err != nil {
		t.Errorf("Load of missing file: %v", err)
	}
	if _, ok := h3.Prev(); ok {
		t.Error("expected empty history")
	}
}

// testDefs returns a merchant with one line and a potion reward.
func testDefs() *state.Defs {
	return &state.Defs{
		Game: types.GameDef{
			Title:   "Test Game",
			Author:  "Test",
			Version: "1.0.0",
			Intro:   "Welcome to the test.",
		},
		Dialogues: catalog.New(types.DialogueDefinition{
			ID: "merchant_talk",
			Lines: []types.DialogueLine{
				{Text: "Welcome."},
				{Text: "Take this.", OneTimeReward: true, RewardItem: "potion"},
			},
		}),
		Items: catalog.NewItems(
			types.ItemDef{ID: "potion", Name: "Potion", Type: types.ItemConsumable},
		),
		Scene: []types.InteractableDef{
			{ID: "merchant", Kind: types.KindNPC, Name: "Merchant", Text: "Talk", DialogueID: "merchant_talk"},
		},
	}
}

func newModel(t *testing.T) Model {
	t.Helper()
	eng, err := engine.New(testDefs(), engine.WithSeed(1), engine.WithLogger(logging.Discard()))
	if err != nil {
		t.Fatalf("engine.New failed: %v", err)
	}
	m := New(eng, Options{
		SavePath: filepath.Join(t.TempDir(), "inventory.json"),
		Logger:   logging.Discard(),
	})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(Model)
}

func submit(t *testing.T, m Model, input string) Model {
	t.Helper()
	m.input.SetValue(input)
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return updated.(Model)
}

func narrative(m Model) string {
	var lines []string
	for _, rl := range m.rawLines {
		lines = append(lines, rl.text)
	}
	return strings.Join(lines, "\n")
}

func TestModel_ConversationFlow(t *testing.T) {
	m := newModel(t)
	m = submit(t, m, "approach merchant")
	if !strings.Contains(m.renderPanel(), "[E] Talk") {
		t.Errorf("expected prompt in panel, got %q", m.renderPanel())
	}

	m = submit(t, m, "talk")
	panel := m.renderPanel()
	if !strings.Contains(panel, "Merchant") || !strings.Contains(panel, "Welcome.") {
		t.Errorf("expected dialogue panel, got %q", panel)
	}

	// Enter on an empty line continues the conversation.
	m = submit(t, m, "")
	if m.engine.View().DialogueOpen {
		t.Error("expected dialogue closed after empty enter")
	}
	if !strings.Contains(narrative(m), "> continue") {
		t.Errorf("expected echoed continue:\n%s", narrative(m))
	}

	m = submit(t, m, "e")
	m = submit(t, m, "")
	if !strings.Contains(narrative(m), "Collected: Potion.") {
		t.Errorf("expected collected line:\n%s", narrative(m))
	}
	if !strings.Contains(m.renderPanel(), "Collected: Potion") {
		t.Errorf("expected toast in panel, got %q", m.renderPanel())
	}
}

func TestModel_EmptyEnterWithoutDialogue(t *testing.T) {
	m := newModel(t)
	before := len(m.rawLines)
	m = submit(t, m, "")
	if len(m.rawLines) != before {
		t.Error("empty enter should do nothing when no dialogue is open")
	}
}

func TestModel_AgainRepeats(t *testing.T) {
	m := newModel(t)
	m = submit(t, m, "wait")
	m = submit(t, m, "g")
	if got := strings.Count(narrative(m), "Time passes."); got != 2 {
		t.Errorf("expected 2 waits, got %d", got)
	}
}

func TestModel_ViewLayout(t *testing.T) {
	m := newModel(t)
	m = submit(t, m, "approach merchant")
	out := m.View()
	if !strings.Contains(out, "Test Game") || !strings.Contains(out, "At: Merchant") {
		t.Errorf("expected status bar in view:\n%s", out)
	}
	if !strings.Contains(out, "> ") {
		t.Error("expected input prompt in view")
	}
}

func TestStatusBar_Equipment(t *testing.T) {
	bar := statusBar(engine.View{Title: "T", Turn: 3, Weapon: "Sword"}, 60)
	if !strings.Contains(bar, "W: Sword") || !strings.Contains(bar, "T:3") {
		t.Errorf("status bar = %q", bar)
	}
}

func TestHandleMeta_Quit(t *testing.T) {
	m := newModel(t)

	_, quit := m.handleMeta("/quit")
	if !quit {
		t.Error("expected quit=true for /quit")
	}

	_, quit = m.handleMeta("/exit")
	if !quit {
		t.Error("expected quit=true for /exit")
	}
}

func TestHandleMeta_SaveAndLoad(t *testing.T) {
	m := newModel(t)

	output, quit := m.handleMeta("/save")
	if quit {
		t.Error("save should not quit")
	}
	if len(output) == 0 || !strings.Contains(output[0], "Inventory saved") {
		t.Errorf("expected save confirmation, got %v", output)
	}
	if _, err := os.Stat(m.savePath); err != nil {
		t.Errorf("save file missing: %v", err)
	}

	output, _ = m.handleMeta("/load")
	if len(output) == 0 || !strings.Contains(output[0], "Inventory loaded") {
		t.Errorf("expected load confirmation, got %v", output)
	}
}

func TestHandleMeta_LoadNonexistent(t *testing.T) {
	m := newModel(t)

	output, quit := m.handleMeta("/load " + filepath.Join(t.TempDir(), "nope.json"))
	if quit {
		t.Error("load should not quit")
	}
	if len(output) == 0 || !strings.Contains(output[0], "No save found") {
		t.Errorf("expected missing save message, got %v", output)
	}
}

func TestHandleMeta_Help(t *testing.T) {
	m := newModel(t)

	output, quit := m.handleMeta("/help")
	if quit {
		t.Error("help should not quit")
	}

	joined := strings.Join(output, "\n")
	for _, expected := range []string{"/save", "/load", "/quit", "approach", "inventory"} {
		if !strings.Contains(joined, expected) {
			t.Errorf("expected %q in help output", expected)
		}
	}
}

func TestHandleMeta_Trace(t *testing.T) {
	m := newModel(t)

	output, _ := m.handleMeta("/trace")
	if !m.trace {
		t.Error("expected trace to be enabled")
	}
	if len(output) == 0 || !strings.Contains(output[0], "enabled") {
		t.Errorf("expected enabled message, got %v", output)
	}

	output, _ = m.handleMeta("/trace")
	if m.trace {
		t.Error("expected trace to be disabled")
	}
	if len(output) == 0 || !strings.Contains(output[0], "disabled") {
		t.Errorf("expected disabled message, got %v", output)
	}
}

func TestHandleMeta_Unknown(t *testing.T) {
	m := newModel(t)

	output, quit := m.handleMeta("/bogus")
	if quit {
		t.Error("unknown command should not quit")
	}
	if len(output) == 0 || !strings.Contains(output[0], "Unknown command") {
		t.Errorf("expected unknown command message, got %v", output)
	}
}

func TestHandleMeta_State(t *testing.T) {
	m := newModel(t)
	m = submit(t, m, "approach merchant")

	output, quit := m.handleMeta("/state")
	if quit {
		t.Error("state should not quit")
	}

	joined := strings.Join(output, "\n")
	if !strings.Contains(joined, "Focus: Merchant") {
		t.Error("expected focus in state output")
	}
	if !strings.Contains(joined, "Turn: 1") {
		t.Error("expected turn count in state output")
	}
}
