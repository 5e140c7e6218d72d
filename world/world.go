// Package world holds the game's mutable state and its immutable
// definitions. State is a concrete typed graph (Player, Locations, NPCs,
// at most one active Monster) keyed by canonical lowercase_underscore
// strings; the parser is responsible for producing canonical keys.
package world

import (
	"fmt"

	"github.com/nathoo/fablecore/types"
)

// Flag gates one-time narrative and mechanical events. The set of flags
// is closed: the constants below plus per-location seed flags derived
// through SeededFlag.
type Flag string

const (
	FlagInCombat Flag = "in_combat"
	FlagGameOver Flag = "game_over"
	FlagGameWon  Flag = "game_won"
)

// SeededFlag is the flag recording that a location's one-time seed rule
// has fired. The flag, not the visited bit, gates re-seeding.
func SeededFlag(locKey string) Flag {
	return Flag("seeded:" + locKey)
}

// Item is an immutable value object. Inventories and locations store
// item keys, never Item references.
type Item struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	Damage int    `json:"damage,omitempty"` // weapon bonus added to unarmed damage
	Price  int    `json:"price,omitempty"`  // shop price in gold; 0 = not for sale
}

// MonsterDef is the immutable template a live Monster is spawned from.
type MonsterDef struct {
	Key         string
	Name        string
	HP          int
	Attack      int
	Defense     int
	Boss        bool
	RewardGold  int
	RewardItems []string
}

// Monster is the single live combatant owned by the World while combat
// is in progress. Created by seeding or an encounter roll, destroyed on
// combat resolution.
type Monster struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	HP          int      `json:"hp"`
	MaxHP       int      `json:"max_hp"`
	Attack      int      `json:"attack"`
	Defense     int      `json:"defense"`
	Boss        bool     `json:"boss,omitempty"`
	RewardGold  int      `json:"reward_gold,omitempty"`
	RewardItems []string `json:"reward_items,omitempty"`
}

// Spawn creates a live monster from its definition.
func (d MonsterDef) Spawn() *Monster {
	return &Monster{
		Key:         d.Key,
		Name:        d.Name,
		HP:          d.HP,
		MaxHP:       d.HP,
		Attack:      d.Attack,
		Defense:     d.Defense,
		Boss:        d.Boss,
		RewardGold:  d.RewardGold,
		RewardItems: append([]string(nil), d.RewardItems...),
	}
}

// MemoryCap bounds NPC memory growth: once full, the oldest exchanges
// are dropped. The dialogue prompt only ever sees the most recent
// entries, so this is a storage policy, not a behavior change.
const MemoryCap = 100

// NPC is a conversational character. Memory is owned by the NPC and
// append-only; callers get copies via MemorySnapshot, never the slice.
type NPC struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Personality string   `json:"personality"` // opaque profile text for the dialogue collaborator
	Location    string   `json:"location"`    // weak reference, not ownership
	Memory      []string `json:"memory"`
}

// Remember appends one exchange, enforcing MemoryCap oldest-first.
func (n *NPC) Remember(line string) {
	n.Memory = append(n.Memory, line)
	if len(n.Memory) > MemoryCap {
		n.Memory = n.Memory[len(n.Memory)-MemoryCap:]
	}
}

// MemorySnapshot returns a copy of the memory sequence, oldest first.
func (n *NPC) MemorySnapshot() []string {
	return append([]string(nil), n.Memory...)
}

// Location is a place in the world. Exits and NPC presence reference
// other entities by key. Visited flips false→true on first entry and
// never reverts.
type Location struct {
	Key         string         `json:"key"`
	Description string         `json:"description"`
	Exits       []string       `json:"exits"`
	NPCs        []string       `json:"npcs,omitempty"`
	Items       []string       `json:"items,omitempty"`
	Visited     bool           `json:"visited"`
	MusicGroup  types.Category `json:"-"`
}

// HasExit reports whether dest is directly reachable from here.
func (l *Location) HasExit(dest string) bool {
	for _, e := range l.Exits {
		if e == dest {
			return true
		}
	}
	return false
}

// HasNPC reports whether the NPC is present at this location.
func (l *Location) HasNPC(key string) bool {
	for _, n := range l.NPCs {
		if n == key {
			return true
		}
	}
	return false
}

// RemoveItem removes one instance of the item key. Reports whether an
// instance was present.
func (l *Location) RemoveItem(key string) bool {
	for i, it := range l.Items {
		if it == key {
			l.Items = append(l.Items[:i], l.Items[i+1:]...)
			return true
		}
	}
	return false
}

// Player is the single adventurer. Inventory is a multiset of item
// keys. The damage bonus is derived from inventory, never stored.
type Player struct {
	Location  string                      `json:"location"`
	Inventory []string                    `json:"inventory"`
	Gold      int                         `json:"gold"`
	HP        int                         `json:"hp"`
	MaxHP     int                         `json:"max_hp"`
	Quests    map[string]types.QuestStage `json:"quests"`
}

// HasItem reports whether at least one instance is carried.
func (p *Player) HasItem(key string) bool {
	for _, it := range p.Inventory {
		if it == key {
			return true
		}
	}
	return false
}

// RemoveItem removes one carried instance. Reports whether one existed.
func (p *Player) RemoveItem(key string) bool {
	for i, it := range p.Inventory {
		if it == key {
			p.Inventory = append(p.Inventory[:i], p.Inventory[i+1:]...)
			return true
		}
	}
	return false
}

// DamageBonus recomputes the equipped-weapon bonus from inventory: the
// best weapon carried counts, nothing stacks.
func (p *Player) DamageBonus(items map[string]Item) int {
	best := 0
	for _, key := range p.Inventory {
		if it, ok := items[key]; ok && it.Damage > best {
			best = it.Damage
		}
	}
	return best
}

// CombatPhase tracks where the combat state machine stands. The
// resolving phases are transient within a single turn; Won and Fled are
// one-tick phases consumed after the music selector has seen them.
type CombatPhase int

const (
	PhaseIdle CombatPhase = iota
	PhasePlayerTurn
	PhaseResolvingPlayer
	PhaseMonsterTurn
	PhaseResolvingMonster
	PhaseWon
	PhaseLost
	PhaseFled
)

func (p CombatPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePlayerTurn:
		return "player_turn"
	case PhaseResolvingPlayer:
		return "resolving_player"
	case PhaseMonsterTurn:
		return "monster_turn"
	case PhaseResolvingMonster:
		return "resolving_monster"
	case PhaseWon:
		return "won"
	case PhaseLost:
		return "lost"
	case PhaseFled:
		return "fled"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// CombatState is the machine's persistent slice of state.
type CombatState struct {
	Phase     CombatPhase `json:"phase"`
	Defending bool        `json:"defending"` // player damage reduction for the next monster hit
	ReturnTo  string      `json:"return_to"` // where a successful flee drops the player
	Rounds    int         `json:"rounds"`
}

// World is the complete mutable game state at a point in time. Turn
// processing is single-threaded; concurrent observers (TUI status bar)
// must treat it as read-only.
type World struct {
	Player      Player
	Locations   map[string]*Location
	NPCs        map[string]*NPC
	Flags       map[Flag]bool
	Monster     *Monster // present iff Flags[FlagInCombat]
	Combat      CombatState
	TurnCount   int
	RNGSeed     int64
	RNGPosition int64
}

// Flag returns the value of a flag. Unset flags read false.
func (w *World) Flag(f Flag) bool {
	return w.Flags[f]
}

// SetFlag sets or clears a flag.
func (w *World) SetFlag(f Flag, v bool) {
	w.Flags[f] = v
}

// InCombat reports whether combat is in progress.
func (w *World) InCombat() bool {
	return w.Flags[FlagInCombat]
}

// Here returns the player's current location. The player location key
// always references an existing Location; a miss is a programming
// error, not bad input.
func (w *World) Here() *Location {
	loc, ok := w.Locations[w.Player.Location]
	if !ok {
		panic(fmt.Sprintf("world: player location %q does not exist", w.Player.Location))
	}
	return loc
}

// QuestStage returns the player's stage for a quest id. Unknown quests
// read NotStarted.
func (w *World) QuestStage(id string) types.QuestStage {
	return w.Player.Quests[id]
}

// CheckCombatInvariant panics if the monster/in_combat pairing is
// violated. Called by the engine after each turn; a failure indicates a
// gating bug, never bad player input.
func (w *World) CheckCombatInvariant() {
	inCombat := w.InCombat()
	if inCombat && w.Monster == nil {
		panic("world: in_combat set with no active monster")
	}
	if !inCombat && w.Monster != nil {
		panic("world: active monster outside combat")
	}
}
