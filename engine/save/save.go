// Package save implements the JSON inventory save file: capturing an
// inventory into a Document, applying a Document back, and checking files
// against the Document's JSON Schema before they are trusted.
package save

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/samber/oops"

	"github.com/nathoo/questline/engine/inventory"
	"github.com/nathoo/questline/types"
)

// Error codes.
const (
	CodeInvalid = "SAVE_INVALID"
	CodeIO      = "SAVE_IO"
	CodeEncode  = "SAVE_ENCODE"
)

// DefaultFileName is the save file name used when only a directory is known.
const DefaultFileName = "inventory.json"

// SlotRecord is one occupied slot.
type SlotRecord struct {
	SlotIndex int    `json:"slotIndex" jsonschema:"minimum=0"`
	ItemID    string `json:"itemId" jsonschema:"minLength=1"`
}

// Document is the persisted inventory. Only occupied slots are written.
type Document struct {
	ConsumableSlots  []SlotRecord `json:"consumableSlots"`
	EquipmentSlots   []SlotRecord `json:"equipmentSlots"`
	EquippedWeaponID string       `json:"equippedWeaponId"`
	EquippedArmorID  string       `json:"equippedArmorId"`
}

// Capture records the occupied slots and equipment of inv.
func Capture(inv *inventory.Inventory) *Document {
	eq := inv.Equipment()
	return &Document{
		ConsumableSlots:  records(inv.Slots(types.CategoryConsumable)),
		EquipmentSlots:   records(inv.Slots(types.CategoryEquipment)),
		EquippedWeaponID: eq.Weapon(),
		EquippedArmorID:  eq.Armor(),
	}
}

func records(slots []types.Slot) []SlotRecord {
	out := []SlotRecord{}
	for i, s := range slots {
		if !s.IsEmpty() {
			out = append(out, SlotRecord{SlotIndex: i, ItemID: s.ItemID})
		}
	}
	return out
}

// Apply replaces the content of inv with doc. Records naming unknown items
// or slots past the inventory's capacity are skipped with a warning, as are
// equipped items that are not in the database. Listeners are notified once.
func Apply(doc *Document, inv *inventory.Inventory, logger *slog.Logger) error {
	if doc == nil {
		return oops.Code(CodeInvalid).Errorf("nil save document")
	}
	if logger == nil {
		logger = slog.Default()
	}
	items := inv.Items()

	for _, cat := range inventory.Categories {
		for i := range inv.Slots(cat) {
			inv.Restore(cat, i, "")
		}
	}
	restore := func(cat types.Category, recs []SlotRecord) {
		for _, r := range recs {
			if _, ok := items.Get(r.ItemID); !ok {
				logger.Warn("save references unknown item, skipped", "item_id", r.ItemID, "category", string(cat))
				continue
			}
			if !inv.Restore(cat, r.SlotIndex, r.ItemID) {
				logger.Warn("save slot out of range, skipped", "slot", r.SlotIndex, "category", string(cat))
			}
		}
	}
	restore(types.CategoryConsumable, doc.ConsumableSlots)
	restore(types.CategoryEquipment, doc.EquipmentSlots)

	known := func(id string) string {
		if id == "" {
			return ""
		}
		if _, ok := items.Get(id); !ok {
			logger.Warn("save equips unknown item, skipped", "item_id", id)
			return ""
		}
		return id
	}
	inv.Equipment().Restore(known(doc.EquippedWeaponID), known(doc.EquippedArmorID))
	inv.Changed()
	return nil
}

// Marshal encodes doc as indented JSON.
func Marshal(doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, oops.Code(CodeInvalid).Errorf("nil save document")
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, oops.Code(CodeEncode).Wrapf(err, "encode save")
	}
	return data, nil
}

// Unmarshal validates data against the schema and decodes it.
func Unmarshal(data []byte) (*Document, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, oops.Code(CodeInvalid).Wrapf(err, "decode save")
	}
	if doc.ConsumableSlots == nil {
		doc.ConsumableSlots = []SlotRecord{}
	}
	if doc.EquipmentSlots == nil {
		doc.EquipmentSlots = []SlotRecord{}
	}
	return &doc, nil
}

// WriteFile writes doc to path, creating parent directories.
func WriteFile(path string, doc *Document) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return oops.Code(CodeIO).With("path", path).Wrapf(err, "create save directory")
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return oops.Code(CodeIO).With("path", path).Wrapf(err, "write save")
	}
	return nil
}

// ReadFile reads and validates the save at path. A missing file is not an
// error: it returns nil, nil.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code(CodeIO).With("path", path).Wrapf(err, "read save")
	}
	doc, err := Unmarshal(data)
	if err != nil {
		return nil, oops.With("path", path).Wrap(err)
	}
	return doc, nil
}
