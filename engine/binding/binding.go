// Package binding turns input binding metadata into the short labels shown
// in prompts, e.g. "<Keyboard>/e" becomes "E".
package binding

import (
	"fmt"
	"strings"
	"unicode"
)

// Binding is one control path bound to an action.
type Binding struct {
	Path            string `koanf:"path"`
	EffectivePath   string `koanf:"effective_path"`
	Composite       bool   `koanf:"composite"`
	PartOfComposite bool   `koanf:"part_of_composite"`
}

// Action is a named input action such as "interact".
type Action struct {
	Name     string    `koanf:"name"`
	Display  string    `koanf:"display"` // explicit display override
	Bindings []Binding `koanf:"bindings"`
}

// DefaultInteract is the interact/continue action used when none is configured.
func DefaultInteract() Action {
	return Action{
		Name: "interact",
		Bindings: []Binding{
			{Path: "<Keyboard>/e"},
			{Path: "<Gamepad>/buttonSouth"},
		},
	}
}

// DisplayString returns the human-readable label for an action, or "" when
// nothing usable is bound.
func DisplayString(a Action) string {
	if a.Display != "" {
		return a.Display
	}
	for _, b := range a.Bindings {
		if b.Composite || b.PartOfComposite {
			continue
		}
		path := b.EffectivePath
		if path == "" {
			path = b.Path
		}
		if path == "" {
			continue
		}
		human, err := HumanReadable(path)
		if err != nil {
			return path
		}
		if human != "" {
			return human
		}
	}
	return ""
}

// HumanReadable converts a control path to a label, omitting the device.
// "<Keyboard>/e" → "E", "<Gamepad>/buttonSouth" → "Button South",
// "<Keyboard>/leftShift" → "Left Shift".
func HumanReadable(path string) (string, error) {
	rest := path
	if strings.HasPrefix(rest, "<") {
		end := strings.Index(rest, ">")
		if end < 0 {
			return "", fmt.Errorf("unterminated device in control path %q", path)
		}
		rest = rest[end+1:]
	}
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return "", fmt.Errorf("control path %q names no control", path)
	}
	if i := strings.LastIndex(rest, "/"); i >= 0 {
		rest = rest[i+1:]
	}
	return splitCamel(rest), nil
}

// splitCamel turns "buttonSouth" into "Button South" and "e" into "E".
func splitCamel(s string) string {
	var words []string
	var cur []rune
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) && len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		words = append(words, string(cur))
	}
	for i, w := range words {
		rs := []rune(w)
		rs[0] = unicode.ToUpper(rs[0])
		words[i] = string(rs)
	}
	return strings.Join(words, " ")
}

// Resolver answers display questions for the continue and interact actions.
type Resolver struct {
	Continue Action
	Interact Action
}

// NewResolver uses the same action for interacting and continuing, which is
// how the default controls are laid out.
func NewResolver(interact Action) *Resolver {
	return &Resolver{Continue: interact, Interact: interact}
}

// ContinueHint returns the label of the continue action.
func (r *Resolver) ContinueHint() (string, bool) {
	if r == nil {
		return "", false
	}
	s := DisplayString(r.Continue)
	return s, s != ""
}

// InteractLabel returns the label of the interact action.
func (r *Resolver) InteractLabel() string {
	if r == nil {
		return ""
	}
	return DisplayString(r.Interact)
}
