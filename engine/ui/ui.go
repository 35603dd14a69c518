// Package ui holds the presentation state the front ends render: the
// dialogue panel, the interaction prompt, the item-collected toast and the
// input blocker that overlays raise while they are visible.
package ui

// Blocker is a reference count of open blocking overlays. Gameplay input is
// ignored while it is above zero.
type Blocker struct {
	count int
}

// Push records that a blocking overlay opened.
func (b *Blocker) Push() { b.count++ }

// Pop records that a blocking overlay closed. The count never goes negative.
func (b *Blocker) Pop() {
	b.count--
	if b.count < 0 {
		b.count = 0
	}
}

// Clear resets the count.
func (b *Blocker) Clear() { b.count = 0 }

// Blocked reports whether any overlay is open.
func (b *Blocker) Blocked() bool { return b.count > 0 }

// DialoguePanel shows one line of dialogue with an optional hint.
type DialoguePanel struct {
	blocker    *Blocker
	text       string
	hint       string
	visible    bool
	onFinished func()
}

// NewDialoguePanel creates a hidden panel that raises blocker while visible.
func NewDialoguePanel(blocker *Blocker) *DialoguePanel {
	return &DialoguePanel{blocker: blocker}
}

// Show displays text and remembers the callback to fire on Hide.
func (p *DialoguePanel) Show(text string, onFinished func()) {
	p.onFinished = onFinished
	p.text = text
	if !p.visible {
		p.visible = true
		if p.blocker != nil {
			p.blocker.Push()
		}
	}
}

// SetHint sets the hint line, e.g. "Press E to continue".
func (p *DialoguePanel) SetHint(text string) { p.hint = text }

// Hide hides the panel and fires the registered callback once.
func (p *DialoguePanel) Hide() {
	if p.visible {
		p.visible = false
		if p.blocker != nil {
			p.blocker.Pop()
		}
	}
	cb := p.onFinished
	p.onFinished = nil
	if cb != nil {
		cb()
	}
}

// Visible reports whether the panel is shown.
func (p *DialoguePanel) Visible() bool { return p.visible }

// Text returns the current line.
func (p *DialoguePanel) Text() string { return p.text }

// Hint returns the current hint.
func (p *DialoguePanel) Hint() string { return p.hint }

// PromptPanel is the "[E] Talk" prompt shown for the focused interactable.
type PromptPanel struct {
	text    string
	button  string
	visible bool
}

// Show displays the prompt.
func (p *PromptPanel) Show(text, button string) {
	p.text = text
	p.button = button
	p.visible = true
}

// Hide hides the prompt.
func (p *PromptPanel) Hide() { p.visible = false }

// Visible reports whether the prompt is shown.
func (p *PromptPanel) Visible() bool { return p.visible }

// Text returns the prompt text.
func (p *PromptPanel) Text() string { return p.text }

// Button returns the button label.
func (p *PromptPanel) Button() string { return p.button }

// String renders the prompt as "[E] Talk", or just the text without a button.
func (p *PromptPanel) String() string {
	if p.button == "" {
		return p.text
	}
	return "[" + p.button + "] " + p.text
}

// DefaultToastSteps is how many engine steps the collected toast stays up.
const DefaultToastSteps = 1

// CollectedToast announces a freshly collected item for a few steps.
type CollectedToast struct {
	blocker  *Blocker
	steps    int
	left     int
	itemName string
	onHidden func()
}

// NewCollectedToast creates a hidden toast. onHidden runs every time it
// disappears.
func NewCollectedToast(blocker *Blocker, steps int, onHidden func()) *CollectedToast {
	if steps <= 0 {
		steps = DefaultToastSteps
	}
	return &CollectedToast{blocker: blocker, steps: steps, onHidden: onHidden}
}

// Show displays the item name, restarting the countdown.
func (t *CollectedToast) Show(itemName string) {
	if itemName == "" {
		return
	}
	if t.left == 0 && t.blocker != nil {
		t.blocker.Push()
	}
	t.itemName = itemName
	t.left = t.steps
}

// Tick advances one step and hides the toast when its time is up.
func (t *CollectedToast) Tick() {
	if t.left == 0 {
		return
	}
	t.left--
	if t.left > 0 {
		return
	}
	if t.blocker != nil {
		t.blocker.Pop()
	}
	if t.onHidden != nil {
		t.onHidden()
	}
}

// Visible reports whether the toast is shown.
func (t *CollectedToast) Visible() bool { return t.left > 0 }

// ItemName returns the last announced item name.
func (t *CollectedToast) ItemName() string { return t.itemName }
