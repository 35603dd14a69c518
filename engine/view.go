package engine

import (
	"github.com/nathoo/questline/engine/dialogue"
	"github.com/nathoo/questline/engine/inventory"
	"github.com/nathoo/questline/engine/save"
	"github.com/nathoo/questline/engine/state"
	"github.com/nathoo/questline/types"
)

// View is a snapshot of everything a front end draws.
type View struct {
	Title string
	Turn  int

	DialogueOpen bool
	Speaker      string
	DialogueText string
	DialogueHint string

	PromptVisible bool
	Prompt        string

	ToastVisible bool
	ToastItem    string

	Focus   string
	Blocked bool

	Weapon string
	Armor  string
}

// View returns the current presentation state.
func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	v := View{
		Title:         e.Defs.Game.Title,
		Turn:          e.State.TurnCount,
		DialogueOpen:  e.panel.Visible(),
		DialogueText:  e.panel.Text(),
		DialogueHint:  e.panel.Hint(),
		PromptVisible: e.prompt.Visible(),
		Prompt:        e.prompt.String(),
		ToastVisible:  e.toast.Visible(),
		ToastItem:     e.toast.ItemName(),
		Blocked:       e.blocker.Blocked(),
	}
	if v.DialogueOpen {
		v.Speaker = e.speaker
	}
	if f := e.interaction.Focused(); f != nil {
		v.Focus = e.name(f.ID())
	}
	eq := e.inventory.Equipment()
	v.Weapon = e.Defs.Items.Name(eq.Weapon())
	v.Armor = e.Defs.Items.Name(eq.Armor())
	return v
}

// Intro returns the opening text: title, author, intro and a look.
func (e *Engine) Intro() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []string
	g := e.Defs.Game
	if g.Author != "" {
		out = append(out, g.Title+" by "+g.Author)
	}
	if g.Intro != "" {
		out = append(out, g.Intro)
	}
	return append(out, e.look()...)
}

// Slots returns a copy of one inventory tab.
func (e *Engine) Slots(cat types.Category) []types.Slot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inventory.Slots(cat)
}

// ItemName returns an item's display name.
func (e *Engine) ItemName(id string) string {
	return e.Defs.Items.Name(id)
}

// Progress reports the shown and consumed line indices of a dialogue.
func (e *Engine) Progress(dialogueID string) (shown, consumed []int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dialogue.Shown(dialogueID), e.dialogue.Consumed(dialogueID)
}

// Present reports whether an interactable is still in the scene.
func (e *Engine) Present(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return state.Present(e.State, id)
}

// CaptureInventory returns the inventory save document.
func (e *Engine) CaptureInventory() *save.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return save.Capture(e.inventory)
}

// ApplyInventory replaces the inventory with doc.
func (e *Engine) ApplyInventory(doc *save.Document) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return save.Apply(doc, e.inventory, e.log)
}

// SaveInventory writes the inventory to path.
func (e *Engine) SaveInventory(path string) error {
	return save.WriteFile(path, e.CaptureInventory())
}

// LoadInventory reads the inventory from path. It reports false when there
// is no save file.
func (e *Engine) LoadInventory(path string) (bool, error) {
	doc, err := save.ReadFile(path)
	if err != nil || doc == nil {
		return false, err
	}
	if err := e.ApplyInventory(doc); err != nil {
		return false, err
	}
	return true, nil
}

// OnInventoryChange registers fn to run after every inventory change. fn
// runs with the engine lock held and must not call back into the Engine.
func (e *Engine) OnInventoryChange(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inventory.OnChange(fn)
}

var _ dialogue.RewardSink = (*inventory.Inventory)(nil)
