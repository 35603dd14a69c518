package loader

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/questline/types"
)

// rawDef holds a constructor call before compilation.
type rawDef struct {
	id    string
	kind  string
	table *lua.LTable
}

// collector accumulates Lua definitions during one file's execution.
type collector struct {
	file      string
	game      *lua.LTable
	items     []rawDef
	dialogues []rawDef
	scene     []rawDef
}

func (c *collector) reset(file string) {
	*c = collector{file: file}
}

// registerAPI registers all Lua constructors and helpers as globals.
func registerAPI(L *lua.LState, coll *collector) {
	registerConstructors(L, coll)
	registerLineHelpers(L)
}

// curried returns a Lua function for the `Name "id" { ... }` form: the
// first call takes the id and returns a function taking the table.
func curried(L *lua.LState, add func(id string, tbl *lua.LTable)) *lua.LFunction {
	return L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			add(id, L.CheckTable(1))
			return 0
		}))
		return 1
	})
}

func registerConstructors(L *lua.LState, coll *collector) {
	// Game { title = "...", ... }
	L.SetGlobal("Game", L.NewFunction(func(L *lua.LState) int {
		coll.game = L.CheckTable(1)
		return 0
	}))

	// Item "id" { name = "...", type = "consumable" }
	L.SetGlobal("Item", curried(L, func(id string, tbl *lua.LTable) {
		coll.items = append(coll.items, rawDef{id: id, table: tbl})
	}))

	// Dialogue "id" { "plain line", Line "...", Reward("...", "item") }
	L.SetGlobal("Dialogue", curried(L, func(id string, tbl *lua.LTable) {
		coll.dialogues = append(coll.dialogues, rawDef{id: id, table: tbl})
	}))

	// NPC "id" { name = "...", text = "Talk", dialogue = "dialogue_id" }
	L.SetGlobal("NPC", curried(L, func(id string, tbl *lua.LTable) {
		coll.scene = append(coll.scene, rawDef{id: id, kind: string(types.KindNPC), table: tbl})
	}))

	// Chest "id" { name = "...", text = "Open", loot = "item_id" }
	L.SetGlobal("Chest", curried(L, func(id string, tbl *lua.LTable) {
		coll.scene = append(coll.scene, rawDef{id: id, kind: string(types.KindChest), table: tbl})
	}))

	// Pickup "id" { name = "...", text = "Pick up", item = "item_id" }
	L.SetGlobal("Pickup", curried(L, func(id string, tbl *lua.LTable) {
		coll.scene = append(coll.scene, rawDef{id: id, kind: string(types.KindPickup), table: tbl})
	}))
}

func registerLineHelpers(L *lua.LState) {
	// Line "text"
	L.SetGlobal("Line", L.NewFunction(func(L *lua.LState) int {
		text := L.CheckString(1)
		tbl := L.NewTable()
		tbl.RawSetString("text", lua.LString(text))
		L.Push(tbl)
		return 1
	}))

	// Reward("text", "item_id")
	L.SetGlobal("Reward", L.NewFunction(func(L *lua.LState) int {
		text := L.CheckString(1)
		item := L.OptString(2, "")
		tbl := L.NewTable()
		tbl.RawSetString("text", lua.LString(text))
		tbl.RawSetString("one_time_reward", lua.LTrue)
		tbl.RawSetString("reward_item", lua.LString(item))
		L.Push(tbl)
		return 1
	}))
}
