package world

import "github.com/nathoo/fablecore/types"

// GameDef holds game metadata from the content files.
type GameDef struct {
	Title   string
	Author  string
	Version string
	Start   string // starting location key
	Intro   string
}

// PlayerDef is the player's starting loadout.
type PlayerDef struct {
	Gold      int
	HP        int
	Inventory []string
	Quests    []string // quest ids, all starting at NotStarted
}

// SeedDef is a one-time first-visit seed rule for a location.
type SeedDef struct {
	Location string
	Items    []string
	Monster  string // optional: ambush on first entry
	Message  string
}

// EncounterDef is a random-encounter roll made on entering a location
// that has already been seeded (or has no seed rule).
type EncounterDef struct {
	Location string
	Monster  string
	Percent  int // chance in [1,100] per entry
}

// TradeDef is a declarative barter rule: hand an NPC one item, receive
// another.
type TradeDef struct {
	NPC     string
	Give    string
	Receive string
	Message string
}

// TriggerDef maps (quest, required stage, event predicate) to the next
// stage. The trigger table is configuration data, kept apart from the
// quest engine so dialogue-coupled triggers stay testable.
type TriggerDef struct {
	ID       string
	Quest    string
	From     types.QuestStage
	To       types.QuestStage
	Event    types.EventType
	Item     string   // item_taken / item_traded: the item key
	Monster  string   // monster_defeated: the monster key
	NPC      string   // npc_keyword / item_traded: the NPC key
	Location string   // location_entered, or a required location for other events
	Keywords []string // npc_keyword: any-of match against the utterance
	Requires string   // world condition: player must carry this item
	Message  string
	Final    bool // completing this trigger wins the game
}

// Defs holds the immutable game definitions compiled by the loader.
// Locations and NPCs here are the pristine initial copies; NewWorld
// deep-copies them into mutable state.
type Defs struct {
	Game       GameDef
	Player     PlayerDef
	Items      map[string]Item
	Monsters   map[string]MonsterDef
	Locations  map[string]*Location
	NPCs       map[string]*NPC
	Shops      map[string][]string // NPC key → item keys for sale (price on the Item)
	Trades     []TradeDef
	Seeds      map[string]SeedDef
	Encounters []EncounterDef
	Triggers   []TriggerDef
}

// NewWorld builds a fresh mutable World from definitions. Entity graphs
// are deep-copied so Defs stays pristine across restarts and loads.
func NewWorld(defs *Defs) *World {
	locations := make(map[string]*Location, len(defs.Locations))
	for key, loc := range defs.Locations {
		cp := *loc
		cp.Exits = append([]string(nil), loc.Exits...)
		cp.NPCs = append([]string(nil), loc.NPCs...)
		cp.Items = append([]string(nil), loc.Items...)
		locations[key] = &cp
	}

	npcs := make(map[string]*NPC, len(defs.NPCs))
	for key, npc := range defs.NPCs {
		cp := *npc
		cp.Memory = append([]string(nil), npc.Memory...)
		npcs[key] = &cp
	}

	quests := make(map[string]types.QuestStage, len(defs.Player.Quests))
	for _, id := range defs.Player.Quests {
		quests[id] = types.QuestNotStarted
	}

	hp := defs.Player.HP
	if hp <= 0 {
		hp = 20
	}

	return &World{
		Player: Player{
			Location:  defs.Game.Start,
			Inventory: append([]string(nil), defs.Player.Inventory...),
			Gold:      defs.Player.Gold,
			HP:        hp,
			MaxHP:     hp,
			Quests:    quests,
		},
		Locations: locations,
		NPCs:      npcs,
		Flags:     map[Flag]bool{},
	}
}
