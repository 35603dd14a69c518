// Package state holds the loaded game definitions and the helpers that
// answer questions about the scene at runtime.
package state

import (
	"github.com/nathoo/questline/engine/catalog"
	"github.com/nathoo/questline/types"
)

// Defs holds the immutable game definitions loaded from content files.
type Defs struct {
	Game      types.GameDef
	Dialogues *catalog.Catalog
	Items     *catalog.Items
	Scene     []types.InteractableDef
}

// NewState creates a fresh scene state.
func NewState(defs *Defs) *types.State {
	return &types.State{
		Removed:    map[string]bool{},
		CommandLog: []string{},
	}
}

// Present reports whether an interactable is still in the scene.
func Present(s *types.State, id string) bool {
	return !s.Removed[id]
}

// FindInteractable returns the placement with the given ID.
func FindInteractable(defs *Defs, id string) (types.InteractableDef, bool) {
	for _, def := range defs.Scene {
		if def.ID == id {
			return def, true
		}
	}
	return types.InteractableDef{}, false
}

// Visible returns the interactables still in the scene, in authored order.
func Visible(s *types.State, defs *Defs) []types.InteractableDef {
	var out []types.InteractableDef
	for _, def := range defs.Scene {
		if Present(s, def.ID) {
			out = append(out, def)
		}
	}
	return out
}

// DisplayName returns the name of an interactable, falling back to its ID.
func DisplayName(def types.InteractableDef) string {
	if def.Name != "" {
		return def.Name
	}
	return def.ID
}
