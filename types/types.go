// Package types defines the shared data structures for the questline gameplay layer.
// This package contains only type definitions with only trivial predicates.
package types

// DialogueLine is a single authored line an NPC can say.
// Its identity within a dialogue is its position in DialogueDefinition.Lines.
type DialogueLine struct {
	Text          string `yaml:"text"`
	OneTimeReward bool   `yaml:"one_time_reward"`
	RewardItem    string `yaml:"reward_item"` // item ID, empty unless OneTimeReward
}

// DialogueDefinition groups the lines for one NPC or group of NPCs.
type DialogueDefinition struct {
	ID    string         `yaml:"id"`
	Lines []DialogueLine `yaml:"lines"`
}

// ItemType decides how an item behaves when used.
type ItemType string

const (
	ItemConsumable ItemType = "consumable"
	ItemWeapon     ItemType = "weapon"
	ItemArmor      ItemType = "armor"
	ItemMisc       ItemType = "misc"
)

// Category is an inventory tab.
type Category string

const (
	CategoryConsumable Category = "consumable"
	CategoryEquipment  Category = "equipment"
)

// ItemDef is the authored definition of an item.
type ItemDef struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Type        ItemType `yaml:"type"`
}

// CategoryOf returns the inventory tab an item type is stored under.
func CategoryOf(t ItemType) Category {
	if t == ItemConsumable {
		return CategoryConsumable
	}
	return CategoryEquipment
}

// Slot is one inventory slot. An empty ItemID means the slot is free.
type Slot struct {
	ItemID string
}

// IsEmpty reports whether the slot holds nothing.
func (s Slot) IsEmpty() bool { return s.ItemID == "" }

// InteractableKind identifies an interactable variant in authored content.
type InteractableKind string

const (
	KindNPC    InteractableKind = "npc"
	KindChest  InteractableKind = "chest"
	KindPickup InteractableKind = "pickup"
)

// InteractableDef is an authored scene placement.
type InteractableDef struct {
	ID         string           `yaml:"id"`
	Kind       InteractableKind `yaml:"kind"`
	Name       string           `yaml:"name"`
	Text       string           `yaml:"text"`     // prompt text, e.g. "Talk"
	DialogueID string           `yaml:"dialogue"` // npc only
	Item       string           `yaml:"item"`     // chest loot or pickup item
}

// GameDef holds content metadata.
type GameDef struct {
	Title    string `yaml:"title"`
	Author   string `yaml:"author"`
	Version  string `yaml:"version"`
	Requires string `yaml:"requires"` // engine version constraint, e.g. ">= 0.2"
	Intro    string `yaml:"intro"`
}

// Event is emitted by the engine while handling a step.
type Event struct {
	Type string
	Data map[string]any
}

// Result is the output of a single engine step.
type Result struct {
	Events []Event
	Output []string
}

// Intent is a parsed harness command.
type Intent struct {
	Verb   string
	Object string   // remaining words joined, articles stripped
	Args   []string // remaining words as typed
}

// State is the mutable scene state of a running game. Inventory and
// dialogue progress live in their own managers.
type State struct {
	Removed     map[string]bool // pickups taken out of the scene
	TurnCount   int
	RNGSeed     int64
	RNGPosition int64
	CommandLog  []string
}
