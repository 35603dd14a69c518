// Package catalog holds the immutable authored data the gameplay systems
// read from: dialogue definitions and the item database.
package catalog

import "github.com/nathoo/questline/types"

// Catalog is an ordered collection of dialogue definitions.
// Lookup is linear and the first matching ID wins; keeping IDs unique is
// the author's job.
type Catalog struct {
	defs []types.DialogueDefinition
}

// New creates a catalog from definitions in authored order.
func New(defs ...types.DialogueDefinition) *Catalog {
	c := &Catalog{defs: make([]types.DialogueDefinition, 0, len(defs))}
	c.defs = append(c.defs, defs...)
	return c
}

// Find returns the first definition whose ID matches.
func (c *Catalog) Find(id string) (types.DialogueDefinition, bool) {
	if c == nil {
		return types.DialogueDefinition{}, false
	}
	for _, def := range c.defs {
		if def.ID == id {
			return def, true
		}
	}
	return types.DialogueDefinition{}, false
}

// All returns the definitions in authored order.
func (c *Catalog) All() []types.DialogueDefinition {
	if c == nil {
		return nil
	}
	out := make([]types.DialogueDefinition, len(c.defs))
	copy(out, c.defs)
	return out
}

// Len returns the number of definitions.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.defs)
}

// Items maps item IDs to definitions. Items with an empty ID are skipped and
// a later item with the same ID replaces an earlier one.
type Items struct {
	byID  map[string]types.ItemDef
	order []string
}

// NewItems builds the lookup.
func NewItems(items ...types.ItemDef) *Items {
	db := &Items{byID: make(map[string]types.ItemDef, len(items))}
	for _, it := range items {
		if it.ID == "" {
			continue
		}
		if _, dup := db.byID[it.ID]; !dup {
			db.order = append(db.order, it.ID)
		}
		db.byID[it.ID] = it
	}
	return db
}

// Get returns the item with the given ID.
func (db *Items) Get(id string) (types.ItemDef, bool) {
	if db == nil || id == "" {
		return types.ItemDef{}, false
	}
	it, ok := db.byID[id]
	return it, ok
}

// Name returns the display name of an item, falling back to its ID.
func (db *Items) Name(id string) string {
	if it, ok := db.Get(id); ok && it.Name != "" {
		return it.Name
	}
	return id
}

// IDs returns item IDs in first-seen order.
func (db *Items) IDs() []string {
	if db == nil {
		return nil
	}
	out := make([]string, len(db.order))
	copy(out, db.order)
	return out
}
