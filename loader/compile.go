package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"
	"gopkg.in/yaml.v3"

	"github.com/nathoo/questline/types"
)

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getBool returns a bool field from a Lua table, or the default if missing.
func getBool(tbl *lua.LTable, key string, def bool) bool {
	v := tbl.RawGetString(key)
	if b, ok := v.(lua.LBool); ok {
		return bool(b)
	}
	return def
}

// compileLua converts one file's collected Lua data and appends it to c.
func compileLua(coll *collector, c *content) error {
	if coll.game != nil {
		g := compileGame(coll.game)
		setGame(c, g, coll.file)
	}

	for _, raw := range coll.items {
		c.items = append(c.items, types.ItemDef{
			ID:          raw.id,
			Name:        getString(raw.table, "name"),
			Description: getString(raw.table, "description"),
			Type:        types.ItemType(getString(raw.table, "type")),
		})
	}

	for _, raw := range coll.dialogues {
		def, err := compileDialogue(raw)
		if err != nil {
			return fmt.Errorf("dialogue %s: %w", raw.id, err)
		}
		c.dialogues = append(c.dialogues, def)
	}

	for _, raw := range coll.scene {
		c.scene = append(c.scene, compilePlacement(raw))
	}
	return nil
}

func compileGame(tbl *lua.LTable) types.GameDef {
	return types.GameDef{
		Title:    getString(tbl, "title"),
		Author:   getString(tbl, "author"),
		Version:  getString(tbl, "version"),
		Requires: getString(tbl, "requires"),
		Intro:    getString(tbl, "intro"),
	}
}

func setGame(c *content, g types.GameDef, file string) {
	if c.game != nil {
		c.warnings = append(c.warnings, fmt.Sprintf(
			"Game defined again in %s, keeping the one from %s", file, c.gameFile))
		return
	}
	c.game = &g
	c.gameFile = file
}

// compileDialogue reads the array part of a Dialogue table. Each entry is
// either a plain string or a line table.
func compileDialogue(raw rawDef) (types.DialogueDefinition, error) {
	def := types.DialogueDefinition{ID: raw.id, Lines: []types.DialogueLine{}}
	n := raw.table.MaxN()
	for i := 1; i <= n; i++ {
		switch v := raw.table.RawGetInt(i).(type) {
		case lua.LString:
			def.Lines = append(def.Lines, types.DialogueLine{Text: string(v)})
		case *lua.LTable:
			def.Lines = append(def.Lines, types.DialogueLine{
				Text:          getString(v, "text"),
				OneTimeReward: getBool(v, "one_time_reward", false),
				RewardItem:    getString(v, "reward_item"),
			})
		default:
			return def, fmt.Errorf("line %d: expected a string or a line table, got %s", i, v.Type())
		}
	}
	return def, nil
}

func compilePlacement(raw rawDef) types.InteractableDef {
	tbl := raw.table
	def := types.InteractableDef{
		ID:   raw.id,
		Kind: types.InteractableKind(raw.kind),
		Name: getString(tbl, "name"),
		Text: getString(tbl, "text"),
	}
	switch def.Kind {
	case types.KindNPC:
		def.DialogueID = getString(tbl, "dialogue")
	case types.KindChest:
		def.Item = getString(tbl, "loot")
	case types.KindPickup:
		def.Item = getString(tbl, "item")
	}
	return def
}

// yamlDocument is the shape of a YAML content file.
type yamlDocument struct {
	Game      *types.GameDef             `yaml:"game"`
	Items     []types.ItemDef            `yaml:"items"`
	Dialogues []types.DialogueDefinition `yaml:"dialogues"`
	Scene     []types.InteractableDef    `yaml:"scene"`
}

// decodeYAML reads every document in a YAML file and appends it to c.
// Unknown keys are rejected.
func decodeYAML(file string, data []byte, c *content) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	for {
		var doc yamlDocument
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return oops.Code(CodeYAML).With("file", file).Wrapf(err, "parsing %s", file)
		}
		if doc.Game != nil {
			setGame(c, *doc.Game, file)
		}
		c.items = append(c.items, doc.Items...)
		for _, d := range doc.Dialogues {
			if d.Lines == nil {
				d.Lines = []types.DialogueLine{}
			}
			c.dialogues = append(c.dialogues, d)
		}
		c.scene = append(c.scene, doc.Scene...)
	}
}
