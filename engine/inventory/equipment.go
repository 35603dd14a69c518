package inventory

import "log/slog"

// Equipment tracks the equipped weapon and armor by item ID.
type Equipment struct {
	weapon string
	armor  string
	log    *slog.Logger
}

// NewEquipment creates empty equipment. A nil logger uses slog.Default().
func NewEquipment(logger *slog.Logger) *Equipment {
	if logger == nil {
		logger = slog.Default()
	}
	return &Equipment{log: logger}
}

// Weapon returns the equipped weapon ID, or "".
func (e *Equipment) Weapon() string { return e.weapon }

// Armor returns the equipped armor ID, or "".
func (e *Equipment) Armor() string { return e.armor }

// EquipWeapon equips id, replacing any current weapon.
func (e *Equipment) EquipWeapon(id string) {
	if id == "" {
		e.log.Warn("equip weapon with empty id")
		return
	}
	e.weapon = id
	e.log.Debug("equipped weapon", "item_id", id)
}

// UnequipWeapon clears the weapon slot.
func (e *Equipment) UnequipWeapon() {
	if e.weapon == "" {
		return
	}
	e.log.Debug("unequipped weapon", "item_id", e.weapon)
	e.weapon = ""
}

// EquipArmor equips id, replacing any current armor.
func (e *Equipment) EquipArmor(id string) {
	if id == "" {
		e.log.Warn("equip armor with empty id")
		return
	}
	e.armor = id
	e.log.Debug("equipped armor", "item_id", id)
}

// UnequipArmor clears the armor slot.
func (e *Equipment) UnequipArmor() {
	if e.armor == "" {
		return
	}
	e.log.Debug("unequipped armor", "item_id", e.armor)
	e.armor = ""
}

// IsEquipped reports whether id is the equipped weapon or armor.
func (e *Equipment) IsEquipped(id string) bool {
	if id == "" {
		return false
	}
	return id == e.weapon || id == e.armor
}

// Restore sets both slots directly. Used when loading a save.
func (e *Equipment) Restore(weapon, armor string) {
	e.weapon = weapon
	e.armor = armor
	if weapon != "" || armor != "" {
		e.log.Debug("restored equipment", "weapon", weapon, "armor", armor)
	}
}
