// Package inventory implements the slot inventory the player collects items
// into. Items are sorted into a consumable tab and an equipment tab, each
// with a fixed number of slots. Weapons and armor are equipped by using them.
package inventory

import (
	"log/slog"

	"github.com/nathoo/questline/engine/catalog"
	"github.com/nathoo/questline/types"
)

// DefaultCapacity is the number of slots per category.
const DefaultCapacity = 24

// Categories lists the inventory tabs in display order.
var Categories = []types.Category{types.CategoryConsumable, types.CategoryEquipment}

// Inventory is a fixed-capacity, slot-based item store.
// It is not safe for concurrent use.
type Inventory struct {
	items     *catalog.Items
	equipment *Equipment
	capacity  int
	slots     map[types.Category][]types.Slot
	listeners []func()
	log       *slog.Logger
}

// Option configures an Inventory.
type Option func(*Inventory)

// WithCapacity sets the slot count per category. Non-positive values are ignored.
func WithCapacity(n int) Option {
	return func(inv *Inventory) {
		if n > 0 {
			inv.capacity = n
		}
	}
}

// WithEquipment shares an existing Equipment.
func WithEquipment(e *Equipment) Option {
	return func(inv *Inventory) { inv.equipment = e }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(inv *Inventory) { inv.log = l }
}

// New creates an empty inventory over the given item database.
func New(items *catalog.Items, opts ...Option) *Inventory {
	inv := &Inventory{
		items:    items,
		capacity: DefaultCapacity,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(inv)
	}
	if inv.equipment == nil {
		inv.equipment = NewEquipment(inv.log)
	}
	inv.slots = make(map[types.Category][]types.Slot, len(Categories))
	for _, cat := range Categories {
		inv.slots[cat] = make([]types.Slot, inv.capacity)
	}
	return inv
}

// Capacity returns the slot count per category.
func (inv *Inventory) Capacity() int { return inv.capacity }

// Equipment returns the equipment the inventory equips into.
func (inv *Inventory) Equipment() *Equipment { return inv.equipment }

// Items returns the item database.
func (inv *Inventory) Items() *catalog.Items { return inv.items }

// OnChange registers fn to run after every change.
func (inv *Inventory) OnChange(fn func()) {
	if fn != nil {
		inv.listeners = append(inv.listeners, fn)
	}
}

func (inv *Inventory) notify() {
	for _, fn := range inv.listeners {
		fn()
	}
}

// Slots returns a copy of the slots in cat.
func (inv *Inventory) Slots(cat types.Category) []types.Slot {
	s, ok := inv.slots[cat]
	if !ok {
		return nil
	}
	out := make([]types.Slot, len(s))
	copy(out, s)
	return out
}

// Grant adds one of itemID. It is the reward sink for dialogue rewards.
func (inv *Inventory) Grant(itemID string) {
	inv.Add(itemID)
}

// Add adds one of itemID.
func (inv *Inventory) Add(itemID string) {
	inv.TryAdd(itemID, 1)
}

// TryAdd puts amount copies of itemID into the first empty slots of its
// category. It reports whether at least one copy was added.
func (inv *Inventory) TryAdd(itemID string, amount int) bool {
	if itemID == "" || amount <= 0 {
		return false
	}
	def, ok := inv.items.Get(itemID)
	if !ok {
		inv.log.Warn("unknown item, not added", "item_id", itemID)
		return false
	}
	slots := inv.slots[types.CategoryOf(def.Type)]

	added := 0
	for n := 0; n < amount; n++ {
		idx := firstEmpty(slots)
		if idx < 0 {
			inv.log.Warn("inventory full, cannot add item", "item_id", itemID, "name", def.Name)
			break
		}
		slots[idx].ItemID = itemID
		added++
	}
	if added == 0 {
		return false
	}
	inv.notify()
	return true
}

func firstEmpty(slots []types.Slot) int {
	for i, s := range slots {
		if s.IsEmpty() {
			return i
		}
	}
	return -1
}

// Count returns how many slots across all categories hold itemID.
func (inv *Inventory) Count(itemID string) int {
	if itemID == "" {
		return 0
	}
	c := 0
	for _, cat := range Categories {
		for _, s := range inv.slots[cat] {
			if s.ItemID == itemID {
				c++
			}
		}
	}
	return c
}

// TryRemove clears up to amount slots holding itemID, lowest index first.
// It reports whether anything was removed.
func (inv *Inventory) TryRemove(itemID string, amount int) bool {
	if itemID == "" || amount <= 0 {
		return false
	}
	remaining := amount
	for _, cat := range Categories {
		slots := inv.slots[cat]
		for i := 0; i < len(slots) && remaining > 0; i++ {
			if slots[i].ItemID == itemID {
				slots[i] = types.Slot{}
				remaining--
			}
		}
	}
	if remaining == amount {
		return false
	}
	inv.notify()
	return true
}

// ClearSlot empties one slot.
func (inv *Inventory) ClearSlot(cat types.Category, index int) {
	slots, ok := inv.valid(cat, index)
	if !ok || slots[index].IsEmpty() {
		return
	}
	slots[index] = types.Slot{}
	inv.notify()
}

// MoveSlot moves an item to another slot in the same category, swapping
// if the target is occupied.
func (inv *Inventory) MoveSlot(cat types.Category, from, to int) {
	slots, ok := inv.valid(cat, from)
	if !ok {
		return
	}
	if _, ok := inv.valid(cat, to); !ok || from == to {
		return
	}
	if slots[from].IsEmpty() {
		return
	}
	slots[from], slots[to] = slots[to], slots[from]
	inv.notify()
}

// Use activates the item in a slot. Consumables are used up; weapons and
// armor toggle their equipped state. It reports whether anything happened.
func (inv *Inventory) Use(cat types.Category, index int) bool {
	slots, ok := inv.valid(cat, index)
	if !ok || slots[index].IsEmpty() {
		return false
	}
	id := slots[index].ItemID
	def, _ := inv.items.Get(id)

	used := false
	switch def.Type {
	case types.ItemConsumable:
		inv.log.Info("used consumable", "item_id", id)
		slots[index] = types.Slot{}
		used = true
	case types.ItemWeapon:
		if inv.equipment.Weapon() == id {
			inv.equipment.UnequipWeapon()
		} else {
			inv.equipment.EquipWeapon(id)
		}
		used = true
	case types.ItemArmor:
		if inv.equipment.Armor() == id {
			inv.equipment.UnequipArmor()
		} else {
			inv.equipment.EquipArmor(id)
		}
		used = true
	default:
		inv.log.Info("item is not usable", "item_id", id)
	}

	if used {
		inv.notify()
	}
	return used
}

// Restore replaces the content of one slot without notifying listeners.
// Out-of-range indexes are ignored and reported as false.
func (inv *Inventory) Restore(cat types.Category, index int, itemID string) bool {
	slots, ok := inv.valid(cat, index)
	if !ok {
		return false
	}
	slots[index] = types.Slot{ItemID: itemID}
	return true
}

// Reset empties every slot and unequips everything, then notifies once.
func (inv *Inventory) Reset() {
	for _, cat := range Categories {
		clear(inv.slots[cat])
	}
	inv.equipment.Restore("", "")
	inv.notify()
}

// Changed notifies listeners. Used after a batch of Restore calls.
func (inv *Inventory) Changed() { inv.notify() }

func (inv *Inventory) valid(cat types.Category, index int) ([]types.Slot, bool) {
	slots, ok := inv.slots[cat]
	if !ok || index < 0 || index >= len(slots) {
		return nil, false
	}
	return slots, true
}
