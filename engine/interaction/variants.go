package interaction

// element holds what every interactable variant shares.
type element struct {
	id   string
	text string
}

func (e *element) ID() string { return e.id }

func (e *element) InteractionText() string {
	if e.text == "" {
		return DefaultText
	}
	return e.text
}

func (e *element) OnFocus()   {}
func (e *element) OnDefocus() {}

// NPC starts its dialogue when interacted with.
type NPC struct {
	element
	DialogueID string
	m          *Manager
}

// OnInteract starts the NPC's dialogue.
func (n *NPC) OnInteract() {
	if n.m.dialogue == nil {
		n.m.log.Warn("no dialogue manager, cannot start dialogue", "interactable", n.id)
		return
	}
	if n.DialogueID == "" {
		n.m.log.Warn("npc has no dialogue assigned", "interactable", n.id)
		return
	}
	n.m.dialogue.StartDialogue(n.DialogueID)
}

// Chest hands out its loot once and then stops accepting focus.
type Chest struct {
	element
	Loot   string
	opened bool
	m      *Manager
}

// OnInteract grants the loot on first use.
func (c *Chest) OnInteract() {
	if c.opened {
		return
	}
	if c.Loot != "" {
		c.m.grant(c.Loot)
		c.m.ShowCollected(c.Loot)
	}
	c.opened = true
	c.m.ClearFocus(c)
}

// Opened reports whether the chest has been emptied.
func (c *Chest) Opened() bool { return c.opened }

// Disabled reports whether the chest can no longer be focused.
func (c *Chest) Disabled() bool { return c.opened }

// Restore marks the chest opened without granting anything.
func (c *Chest) Restore(opened bool) { c.opened = opened }

// Pickup is collected on interaction and removed from the scene.
type Pickup struct {
	element
	Item string
	m    *Manager
}

// OnInteract collects the item.
func (p *Pickup) OnInteract() {
	if p.Item != "" {
		p.m.grant(p.Item)
		p.m.ShowCollected(p.Item)
	}
	p.m.ClearFocus(p)
	p.m.remove(p)
}
