// Package resolve maps names typed by the player to interactable IDs.
package resolve

import (
	"fmt"
	"strings"

	"github.com/nathoo/questline/engine/state"
	"github.com/nathoo/questline/types"
)

// AmbiguityError indicates multiple interactables matched a name.
type AmbiguityError struct {
	Name       string
	Candidates []string
}

func (e *AmbiguityError) Error() string {
	names := strings.Join(e.Candidates, ", ")
	return fmt.Sprintf("which %s? (%s)", e.Name, names)
}

// NotFoundError indicates no interactable matched a name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("you don't see %q here", e.Name)
}

// Interactable resolves name to the ID of an interactable still in the scene.
func Interactable(s *types.State, defs *state.Defs, name string) (string, error) {
	nameLower := strings.ToLower(strings.TrimSpace(name))
	visible := state.Visible(s, defs)

	// 1. Exact ID match wins outright.
	for _, def := range visible {
		if strings.ToLower(def.ID) == nameLower {
			return def.ID, nil
		}
	}

	// 2. Search by display name.
	var matches []string
	for _, def := range visible {
		if matchesName(def, nameLower) {
			matches = append(matches, def.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{Name: name}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguityError{Name: name, Candidates: matches}
	}
}

// matchesName checks if an interactable's name matches the query (case-insensitive).
// Supports exact match, word-based partial match, and underscore-normalised IDs.
func matchesName(def types.InteractableDef, nameLower string) bool {
	if nameLower == "" {
		return false
	}
	if def.Name != "" {
		entityNameLower := strings.ToLower(def.Name)
		if entityNameLower == nameLower {
			return true
		}
		// e.g. "chest" matches "old chest".
		for _, word := range strings.Fields(entityNameLower) {
			if word == nameLower {
				return true
			}
		}
	}
	// "potion 1" matches ID "potion_1".
	return strings.ReplaceAll(nameLower, " ", "_") == strings.ToLower(def.ID)
}
