package loader

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/nathoo/questline/engine/state"
	"github.com/nathoo/questline/types"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

var validItemTypes = map[types.ItemType]bool{
	types.ItemConsumable: true,
	types.ItemWeapon:     true,
	types.ItemArmor:      true,
	types.ItemMisc:       true,
}

// validate checks the compiled defs for referential integrity. items is the
// raw item list, so duplicates the database already collapsed are still seen.
func validate(defs *state.Defs, items []types.ItemDef, engineVersion string) *ValidationError {
	ve := &ValidationError{}

	validateGame(defs.Game, engineVersion, ve)

	// Items.
	seenItems := map[string]bool{}
	for _, it := range items {
		if it.ID == "" {
			ve.Errors = append(ve.Errors, "item with empty id")
			continue
		}
		if seenItems[it.ID] {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"duplicate item id %q, the later definition wins", it.ID))
		}
		seenItems[it.ID] = true
		if !validItemTypes[it.Type] {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"item %q has unknown type %q", it.ID, it.Type))
		}
		if it.Name == "" {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf("item %q has no name", it.ID))
		}
	}

	// Dialogues.
	seenDialogues := map[string]bool{}
	for _, d := range defs.Dialogues.All() {
		if d.ID == "" {
			ve.Errors = append(ve.Errors, "dialogue with empty id")
			continue
		}
		if seenDialogues[d.ID] {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"duplicate dialogue id %q, only the first definition is reachable", d.ID))
		}
		seenDialogues[d.ID] = true
		validateDialogue(d, defs, ve)
	}

	// Scene.
	seenScene := map[string]bool{}
	for _, p := range defs.Scene {
		if p.ID == "" {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s with empty id", p.Kind))
			continue
		}
		if seenScene[p.ID] {
			ve.Errors = append(ve.Errors, fmt.Sprintf("duplicate interactable id %q", p.ID))
		}
		seenScene[p.ID] = true
		validatePlacement(p, defs, seenDialogues, ve)
	}

	return ve
}

func validateGame(g types.GameDef, engineVersion string, ve *ValidationError) {
	if g.Title == "" {
		ve.Errors = append(ve.Errors, "Game.title is required")
	}

	if g.Version == "" {
		ve.Warnings = append(ve.Warnings, "Game.version is not set")
	} else if _, err := semver.NewVersion(g.Version); err != nil {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"Game.version %q is not a semantic version: %v", g.Version, err))
	}

	if g.Requires == "" {
		return
	}
	constraint, err := semver.NewConstraint(g.Requires)
	if err != nil {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"Game.requires %q is not a version constraint: %v", g.Requires, err))
		return
	}
	if engineVersion == "" {
		return
	}
	v, err := semver.NewVersion(engineVersion)
	if err != nil {
		ve.Warnings = append(ve.Warnings, fmt.Sprintf(
			"engine version %q is not semantic, skipping Game.requires check", engineVersion))
		return
	}
	if !constraint.Check(v) {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"content requires engine %s, running %s", g.Requires, engineVersion))
	}
}

func validateDialogue(d types.DialogueDefinition, defs *state.Defs, ve *ValidationError) {
	if len(d.Lines) == 0 {
		ve.Warnings = append(ve.Warnings, fmt.Sprintf("dialogue %q has no lines", d.ID))
		return
	}

	normals := 0
	for i, line := range d.Lines {
		if line.Text == "" {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"dialogue %q line %d has no text and will never open", d.ID, i))
		}
		if !line.OneTimeReward {
			normals++
			if line.RewardItem != "" {
				ve.Warnings = append(ve.Warnings, fmt.Sprintf(
					"dialogue %q line %d names reward %q but is not a reward line", d.ID, i, line.RewardItem))
			}
			continue
		}
		if line.RewardItem == "" {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"dialogue %q reward line %d has no item", d.ID, i))
			continue
		}
		if _, ok := defs.Items.Get(line.RewardItem); !ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"dialogue %q line %d rewards undefined item %q", d.ID, i, line.RewardItem))
		}
	}

	if normals == 0 {
		ve.Warnings = append(ve.Warnings, fmt.Sprintf(
			"dialogue %q has only reward lines, which unlock after every normal line is shown, so it can never open", d.ID))
	}
}

func validatePlacement(p types.InteractableDef, defs *state.Defs, dialogues map[string]bool, ve *ValidationError) {
	switch p.Kind {
	case types.KindNPC:
		if p.DialogueID == "" {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf("npc %q has no dialogue", p.ID))
		} else if !dialogues[p.DialogueID] {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"npc %q references undefined dialogue %q", p.ID, p.DialogueID))
		}
	case types.KindChest, types.KindPickup:
		if p.Item == "" {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf("%s %q holds no item", p.Kind, p.ID))
		} else if _, ok := defs.Items.Get(p.Item); !ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"%s %q references undefined item %q", p.Kind, p.ID, p.Item))
		}
	default:
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"interactable %q has unknown kind %q", p.ID, p.Kind))
	}
}
