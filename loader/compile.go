package loader

import (
	"fmt"

	"github.com/nathoo/fablecore/types"
	"github.com/nathoo/fablecore/world"
	lua "github.com/yuin/gopher-lua"
)

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	if s, ok := tbl.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getBool returns a bool field, or the default if missing.
func getBool(tbl *lua.LTable, key string, def bool) bool {
	if b, ok := tbl.RawGetString(key).(lua.LBool); ok {
		return bool(b)
	}
	return def
}

// getInt returns an int field, or 0 if missing.
func getInt(tbl *lua.LTable, key string) int {
	if n, ok := tbl.RawGetString(key).(lua.LNumber); ok {
		return int(n)
	}
	return 0
}

// getTable returns a table field, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	if t, ok := tbl.RawGetString(key).(*lua.LTable); ok {
		return t
	}
	return nil
}

// toStringSlice converts a Lua array of strings.
func toStringSlice(tbl *lua.LTable) []string {
	if tbl == nil {
		return nil
	}
	var out []string
	tbl.ForEach(func(k, v lua.LValue) {
		if _, ok := k.(lua.LNumber); !ok {
			return
		}
		if s, ok := v.(lua.LString); ok {
			out = append(out, string(s))
		}
	})
	return out
}

// getStringSlice returns a string-array field, or nil if missing.
func getStringSlice(tbl *lua.LTable, key string) []string {
	return toStringSlice(getTable(tbl, key))
}

// compile converts all collected Lua data into a Defs struct.
func compile(coll *collector) (*world.Defs, error) {
	defs := &world.Defs{
		Items:     map[string]world.Item{},
		Monsters:  map[string]world.MonsterDef{},
		Locations: map[string]*world.Location{},
		NPCs:      map[string]*world.NPC{},
		Shops:     map[string][]string{},
		Seeds:     map[string]world.SeedDef{},
	}

	if coll.game == nil {
		return nil, fmt.Errorf("no Game{} definition found")
	}
	defs.Game = world.GameDef{
		Title:   getString(coll.game, "title"),
		Author:  getString(coll.game, "author"),
		Version: getString(coll.game, "version"),
		Start:   getString(coll.game, "start"),
		Intro:   getString(coll.game, "intro"),
	}

	if coll.player != nil {
		defs.Player = world.PlayerDef{
			Gold:      getInt(coll.player, "gold"),
			HP:        getInt(coll.player, "hp"),
			Inventory: getStringSlice(coll.player, "inventory"),
			Quests:    getStringSlice(coll.player, "quests"),
		}
	}

	for _, raw := range coll.items {
		defs.Items[raw.key] = world.Item{
			Key:    raw.key,
			Name:   getString(raw.table, "name"),
			Damage: getInt(raw.table, "damage"),
			Price:  getInt(raw.table, "price"),
		}
	}

	for _, raw := range coll.monsters {
		defs.Monsters[raw.key] = world.MonsterDef{
			Key:         raw.key,
			Name:        getString(raw.table, "name"),
			HP:          getInt(raw.table, "hp"),
			Attack:      getInt(raw.table, "attack"),
			Defense:     getInt(raw.table, "defense"),
			Boss:        getBool(raw.table, "boss", false),
			RewardGold:  getInt(raw.table, "reward_gold"),
			RewardItems: getStringSlice(raw.table, "reward_items"),
		}
	}

	for _, raw := range coll.locations {
		loc, err := compileLocation(raw)
		if err != nil {
			return nil, err
		}
		defs.Locations[raw.key] = loc
	}

	for _, raw := range coll.npcs {
		npc := &world.NPC{
			Key:         raw.key,
			Name:        getString(raw.table, "name"),
			Personality: getString(raw.table, "personality"),
			Location:    getString(raw.table, "location"),
		}
		defs.NPCs[raw.key] = npc
		// Placement: the NPC's location lists it as present.
		if loc, ok := defs.Locations[npc.Location]; ok {
			loc.NPCs = append(loc.NPCs, raw.key)
		}
	}

	for _, raw := range coll.shops {
		defs.Shops[raw.key] = toStringSlice(raw.table)
	}

	for _, tbl := range coll.trades {
		defs.Trades = append(defs.Trades, world.TradeDef{
			NPC:     getString(tbl, "npc"),
			Give:    getString(tbl, "give"),
			Receive: getString(tbl, "receive"),
			Message: getString(tbl, "message"),
		})
	}

	for _, raw := range coll.seeds {
		defs.Seeds[raw.key] = world.SeedDef{
			Location: raw.key,
			Items:    getStringSlice(raw.table, "items"),
			Monster:  getString(raw.table, "monster"),
			Message:  getString(raw.table, "message"),
		}
	}

	for _, tbl := range coll.encounters {
		defs.Encounters = append(defs.Encounters, world.EncounterDef{
			Location: getString(tbl, "location"),
			Monster:  getString(tbl, "monster"),
			Percent:  getInt(tbl, "percent"),
		})
	}

	for _, raw := range coll.triggers {
		trig, err := compileTrigger(raw)
		if err != nil {
			return nil, err
		}
		defs.Triggers = append(defs.Triggers, trig)
	}

	return defs, nil
}

func compileLocation(raw rawDef) (*world.Location, error) {
	loc := &world.Location{
		Key:         raw.key,
		Description: getString(raw.table, "description"),
		Exits:       getStringSlice(raw.table, "exits"),
		Items:       getStringSlice(raw.table, "items"),
	}
	if name := getString(raw.table, "music"); name != "" {
		cat, err := types.ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("location %s: %w", raw.key, err)
		}
		loc.MusicGroup = cat
	}
	return loc, nil
}

func compileTrigger(raw rawDef) (world.TriggerDef, error) {
	tbl := raw.table
	trig := world.TriggerDef{
		ID:       raw.key,
		Quest:    getString(tbl, "quest"),
		Event:    types.EventType(getString(tbl, "event")),
		Item:     getString(tbl, "item"),
		Monster:  getString(tbl, "monster"),
		NPC:      getString(tbl, "npc"),
		Location: getString(tbl, "location"),
		Keywords: getStringSlice(tbl, "keywords"),
		Requires: getString(tbl, "requires"),
		Message:  getString(tbl, "message"),
		Final:    getBool(tbl, "final", false),
	}

	// from defaults to not_started; to is always explicit.
	from := types.QuestNotStarted
	if s := getString(tbl, "from"); s != "" {
		var err error
		from, err = types.ParseQuestStage(s)
		if err != nil {
			return world.TriggerDef{}, fmt.Errorf("trigger %s: from: %w", raw.key, err)
		}
	}
	to, err := types.ParseQuestStage(getString(tbl, "to"))
	if err != nil {
		return world.TriggerDef{}, fmt.Errorf("trigger %s: to: %w", raw.key, err)
	}
	trig.From, trig.To = from, to
	return trig, nil
}
