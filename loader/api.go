package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// rawDef holds a keyed definition table before compilation.
type rawDef struct {
	key   string
	table *lua.LTable
}

// registerAPI registers the content constructors as Lua globals. Keyed
// constructors are curried: Location("key") returns a function taking
// the definition table, so content reads as `Location "key" { ... }`.
func registerAPI(L *lua.LState, coll *collector) {
	// Game { title = "...", start = "...", ... }
	L.SetGlobal("Game", L.NewFunction(func(L *lua.LState) int {
		coll.game = L.CheckTable(1)
		return 0
	}))

	// Player { gold = 15, hp = 20, inventory = {...}, quests = {...} }
	L.SetGlobal("Player", L.NewFunction(func(L *lua.LState) int {
		coll.player = L.CheckTable(1)
		return 0
	}))

	curried := func(sink *[]rawDef) *lua.LFunction {
		return L.NewFunction(func(L *lua.LState) int {
			key := L.CheckString(1)
			L.Push(L.NewFunction(func(L *lua.LState) int {
				tbl := L.CheckTable(1)
				*sink = append(*sink, rawDef{key: key, table: tbl})
				return 0
			}))
			return 1
		})
	}

	L.SetGlobal("Location", curried(&coll.locations))
	L.SetGlobal("NPC", curried(&coll.npcs))
	L.SetGlobal("Item", curried(&coll.items))
	L.SetGlobal("Monster", curried(&coll.monsters))
	L.SetGlobal("Trigger", curried(&coll.triggers))
	L.SetGlobal("Seed", curried(&coll.seeds))

	// Shop "npc_key" { "item_key", ... }
	L.SetGlobal("Shop", curried(&coll.shops))

	// Trade { npc = "...", give = "...", receive = "...", message = "..." }
	L.SetGlobal("Trade", L.NewFunction(func(L *lua.LState) int {
		coll.trades = append(coll.trades, L.CheckTable(1))
		return 0
	}))

	// Encounter { location = "...", monster = "...", percent = 20 }
	L.SetGlobal("Encounter", L.NewFunction(func(L *lua.LState) int {
		coll.encounters = append(coll.encounters, L.CheckTable(1))
		return 0
	}))
}
