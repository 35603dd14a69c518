// Package interaction tracks which interactable the player is standing at,
// shows the interact prompt for it and routes the interact input.
//
// The interact input does one of three things, checked in order: it
// dismisses an open dialogue, it is swallowed while a blocking overlay is
// up, or it interacts with the focused element.
package interaction

import (
	"log/slog"

	"github.com/samber/oops"

	"github.com/nathoo/questline/types"
)

// CodeUnknownKind is returned by Build for an unrecognised interactable kind.
const CodeUnknownKind = "INTERACTABLE_UNKNOWN_KIND"

// DefaultText is the prompt text used when an interactable has none.
const DefaultText = "Interact"

// Interactable is something in the scene the player can focus and use.
type Interactable interface {
	ID() string
	InteractionText() string
	OnFocus()
	OnDefocus()
	OnInteract()
}

// Disabler is implemented by interactables that can stop accepting focus.
type Disabler interface {
	Disabled() bool
}

// Dialogue is the part of the dialogue manager interaction needs.
type Dialogue interface {
	IsOpen() bool
	RequestCloseDialogue()
	StartDialogue(id string) bool
}

// PromptView displays the "[E] Talk" prompt.
type PromptView interface {
	Show(text, button string)
	Hide()
}

// Toast announces a collected item by display name.
type Toast interface {
	Show(itemName string)
}

// Blocker reports whether a blocking overlay is open.
type Blocker interface {
	Blocked() bool
}

// Granter receives collected items.
type Granter interface {
	Grant(itemID string)
}

// ButtonLabel resolves the display string of the interact input.
type ButtonLabel interface {
	InteractLabel() string
}

// Namer resolves item display names.
type Namer interface {
	Name(id string) string
}

// Outcome describes what an interact input did.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeDismissed
	OutcomeBlocked
	OutcomeInteracted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDismissed:
		return "dismissed"
	case OutcomeBlocked:
		return "blocked"
	case OutcomeInteracted:
		return "interacted"
	default:
		return "none"
	}
}

// Manager owns the focus and the interact prompt.
// It is not safe for concurrent use.
type Manager struct {
	focus                Interactable
	receivedWhileBlocked bool

	dialogue    Dialogue
	prompt      PromptView
	toast       Toast
	blocker     Blocker
	granter     Granter
	button      ButtonLabel
	names       Namer
	onRemoved   func(Interactable)
	onCollected func(itemID string)
	log         *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithDialogue sets the dialogue manager.
func WithDialogue(d Dialogue) Option { return func(m *Manager) { m.dialogue = d } }

// WithPrompt sets the prompt view.
func WithPrompt(p PromptView) Option { return func(m *Manager) { m.prompt = p } }

// WithToast sets the collected toast.
func WithToast(t Toast) Option { return func(m *Manager) { m.toast = t } }

// WithBlocker sets the input blocker.
func WithBlocker(b Blocker) Option { return func(m *Manager) { m.blocker = b } }

// WithGranter sets where chest and pickup items go.
func WithGranter(g Granter) Option { return func(m *Manager) { m.granter = g } }

// WithButtonLabel sets the interact binding resolver.
func WithButtonLabel(b ButtonLabel) Option { return func(m *Manager) { m.button = b } }

// WithNames sets the item name lookup used by the toast.
func WithNames(n Namer) Option { return func(m *Manager) { m.names = n } }

// OnRemoved registers fn to run when a pickup leaves the scene.
func OnRemoved(fn func(Interactable)) Option { return func(m *Manager) { m.onRemoved = fn } }

// OnCollected registers fn to run when an item is announced.
func OnCollected(fn func(itemID string)) Option { return func(m *Manager) { m.onCollected = fn } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(m *Manager) { m.log = l } }

// New creates a Manager with nothing focused.
func New(opts ...Option) *Manager {
	m := &Manager{log: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AttachDialogue sets the dialogue manager after construction, for wiring
// where the dialogue manager itself needs this Manager as its prompt.
func (m *Manager) AttachDialogue(d Dialogue) { m.dialogue = d }

// Focused returns the focused interactable, or nil.
func (m *Manager) Focused() Interactable { return m.focus }

// ReceivedWhileBlocked reports whether the last interact input was dropped
// because an overlay was blocking input.
func (m *Manager) ReceivedWhileBlocked() bool { return m.receivedWhileBlocked }

// SetFocus focuses el and shows its prompt. Nil, already focused and
// disabled elements are ignored.
func (m *Manager) SetFocus(el Interactable) {
	if el == nil || m.focus == el {
		return
	}
	if d, ok := el.(Disabler); ok && d.Disabled() {
		return
	}
	m.clearCurrent()
	m.focus = el
	el.OnFocus()
	m.showPromptFor(el)
}

// ClearFocus drops the focus if el holds it.
func (m *Manager) ClearFocus(el Interactable) {
	if el == nil || m.focus != el {
		return
	}
	m.clearCurrent()
}

func (m *Manager) clearCurrent() {
	if m.focus == nil {
		return
	}
	m.focus.OnDefocus()
	m.HidePrompt()
	m.focus = nil
}

// HandleInteract processes one press of the interact input.
func (m *Manager) HandleInteract() Outcome {
	if m.dialogue != nil && m.dialogue.IsOpen() {
		m.dialogue.RequestCloseDialogue()
		return OutcomeDismissed
	}
	if m.blocker != nil && m.blocker.Blocked() {
		m.receivedWhileBlocked = true
		m.log.Debug("interact ignored, input blocked")
		return OutcomeBlocked
	}
	m.receivedWhileBlocked = false
	if m.focus == nil {
		return OutcomeNone
	}
	m.log.Debug("interacting", "interactable", m.focus.ID())
	m.focus.OnInteract()
	return OutcomeInteracted
}

// HidePrompt hides the interact prompt.
func (m *Manager) HidePrompt() {
	if m.prompt != nil {
		m.prompt.Hide()
	}
}

// ShowPromptIfFocused re-shows the prompt for the focused element, if any.
func (m *Manager) ShowPromptIfFocused() {
	if m.focus != nil {
		m.showPromptFor(m.focus)
	}
}

func (m *Manager) showPromptFor(el Interactable) {
	if m.prompt == nil {
		return
	}
	button := ""
	if m.button != nil {
		button = m.button.InteractLabel()
	}
	m.prompt.Show(el.InteractionText(), button)
}

// ShowCollected hides the prompt and announces itemID.
func (m *Manager) ShowCollected(itemID string) {
	if itemID == "" {
		return
	}
	if m.onCollected != nil {
		m.onCollected(itemID)
	}
	if m.toast == nil {
		return
	}
	name := itemID
	if m.names != nil {
		name = m.names.Name(itemID)
	}
	m.HidePrompt()
	m.toast.Show(name)
}

func (m *Manager) grant(itemID string) {
	if m.granter == nil {
		m.log.Warn("no inventory to receive item", "item_id", itemID)
		return
	}
	m.granter.Grant(itemID)
}

func (m *Manager) remove(el Interactable) {
	if m.onRemoved != nil {
		m.onRemoved(el)
	}
}

// Build creates the interactable described by def, bound to this Manager.
func (m *Manager) Build(def types.InteractableDef) (Interactable, error) {
	base := element{id: def.ID, text: def.Text}
	switch def.Kind {
	case types.KindNPC:
		return &NPC{element: base, DialogueID: def.DialogueID, m: m}, nil
	case types.KindChest:
		return &Chest{element: base, Loot: def.Item, m: m}, nil
	case types.KindPickup:
		return &Pickup{element: base, Item: def.Item, m: m}, nil
	default:
		return nil, oops.
			Code(CodeUnknownKind).
			With("interactable", def.ID).
			With("kind", string(def.Kind)).
			Errorf("unknown interactable kind %q", def.Kind)
	}
}
