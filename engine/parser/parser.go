// Package parser converts harness command strings into Intent structs.
// Intentionally dumb: no NLP, just alias lookup and word splitting.
package parser

import (
	"strings"

	"github.com/nathoo/questline/types"
)

var verbAliases = map[string]string{
	// Look
	"l":      "look",
	"scan":   "look",
	"survey": "look",

	// Approach (enter an interactable's range)
	"go":       "approach",
	"walk":     "approach",
	"goto":     "approach",
	"near":     "approach",
	"a":        "approach",
	"visit":    "approach",
	"approach": "approach",

	// Leave (exit its range)
	"back":    "leave",
	"away":    "leave",
	"retreat": "leave",

	// Interact input
	"e":        "interact",
	"talk":     "interact",
	"open":     "interact",
	"take":     "interact",
	"pick":     "interact",
	"continue": "interact",
	"ok":       "interact",

	// Inventory
	"i":   "inventory",
	"inv": "inventory",
	"bag": "inventory",

	// Slot actions
	"u":     "use",
	"equip": "use",
	"mv":    "move",
	"swap":  "move",
	"drop":  "discard",
	"trash": "discard",

	// Miscellaneous
	"z":    "wait",
	"rest": "wait",
}

var categoryAliases = map[string]types.Category{
	"c":           types.CategoryConsumable,
	"con":         types.CategoryConsumable,
	"cons":        types.CategoryConsumable,
	"consumable":  types.CategoryConsumable,
	"consumables": types.CategoryConsumable,
	"eq":          types.CategoryEquipment,
	"equip":       types.CategoryEquipment,
	"equipment":   types.CategoryEquipment,
	"gear":        types.CategoryEquipment,
}

var fillers = map[string]bool{
	"the": true, "a": true, "an": true,
	"to": true, "with": true, "at": true, "up": true,
}

// Parse converts a raw command string into an Intent.
func Parse(input string) types.Intent {
	input = strings.TrimSpace(input)
	if input == "" {
		return types.Intent{}
	}

	words := strings.Fields(strings.ToLower(input))

	verb := words[0]
	if alias, ok := verbAliases[verb]; ok {
		verb = alias
	}
	rest := words[1:]

	return types.Intent{
		Verb:   verb,
		Object: strings.Join(stripFillers(rest), " "),
		Args:   rest,
	}
}

// Category maps a typed category name or abbreviation to a Category.
func Category(word string) (types.Category, bool) {
	c, ok := categoryAliases[strings.ToLower(word)]
	return c, ok
}

// stripFillers removes articles and connecting words ("to", "with", ...).
func stripFillers(words []string) []string {
	result := make([]string, 0, len(words))
	for _, w := range words {
		if !fillers[w] {
			result = append(result, w)
		}
	}
	return result
}
