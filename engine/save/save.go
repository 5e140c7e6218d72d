// Package save implements World snapshots: JSON serialization plus an
// all-or-nothing restore that rebuilds the object graph by key lookup.
package save

import (
	"encoding/json"
	"fmt"

	"github.com/nathoo/fablecore/types"
	"github.com/nathoo/fablecore/world"
)

// Error is a persistence failure: malformed payload or a snapshot that
// references keys the game definitions don't know. Load is
// all-or-nothing — on Error the running World is untouched.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("save: %s: %v", e.Reason, e.Err)
	}
	return "save: " + e.Reason
}

func (e *Error) Unwrap() error { return e.Err }

// LocationState is the mutable slice of a location worth persisting.
type LocationState struct {
	Visited bool     `json:"visited"`
	Items   []string `json:"items"`
	NPCs    []string `json:"npcs"`
}

// Snapshot is the full logical World, keyed by the same canonical
// underscore keys used internally. References (player→location,
// world→monster) are re-established by key lookup on restore, never by
// embedded pointers.
type Snapshot struct {
	Version     string                   `json:"version"`
	Game        string                   `json:"game"`
	Turn        int                      `json:"turn"`
	Player      world.Player             `json:"player"`
	Locations   map[string]LocationState `json:"locations"`
	NPCMemory   map[string][]string      `json:"npc_memory"`
	Flags       map[world.Flag]bool      `json:"flags"`
	Monster     *world.Monster           `json:"monster,omitempty"`
	Combat      world.CombatState        `json:"combat"`
	RNGSeed     int64                    `json:"rng_seed"`
	RNGPosition int64                    `json:"rng_position"`
}

// Capture snapshots the current world.
func Capture(w *world.World, defs *world.Defs) *Snapshot {
	locs := make(map[string]LocationState, len(w.Locations))
	for key, loc := range w.Locations {
		locs[key] = LocationState{
			Visited: loc.Visited,
			Items:   append([]string(nil), loc.Items...),
			NPCs:    append([]string(nil), loc.NPCs...),
		}
	}
	memories := make(map[string][]string, len(w.NPCs))
	for key, npc := range w.NPCs {
		memories[key] = npc.MemorySnapshot()
	}
	flags := make(map[world.Flag]bool, len(w.Flags))
	for f, v := range w.Flags {
		flags[f] = v
	}

	snap := &Snapshot{
		Version:     defs.Game.Version,
		Game:        defs.Game.Title,
		Turn:        w.TurnCount,
		Player:      copyPlayer(w.Player),
		Locations:   locs,
		NPCMemory:   memories,
		Flags:       flags,
		Combat:      w.Combat,
		RNGSeed:     w.RNGSeed,
		RNGPosition: w.RNGPosition,
	}
	if w.Monster != nil {
		mon := *w.Monster
		mon.RewardItems = append([]string(nil), w.Monster.RewardItems...)
		snap.Monster = &mon
	}
	return snap
}

// Marshal encodes a snapshot as indented JSON.
func Marshal(snap *Snapshot) ([]byte, error) {
	return json.MarshalIndent(snap, "", "  ")
}

// Unmarshal decodes a snapshot, failing with *Error on malformed data.
func Unmarshal(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, &Error{Reason: "malformed save data", Err: err}
	}
	return &snap, nil
}

// Restore builds a fresh World from definitions and overlays the
// snapshot onto it, validating every referenced key first. On any
// failure the returned error is *Error and no partial World escapes.
func Restore(defs *world.Defs, snap *Snapshot) (*world.World, error) {
	if err := validate(defs, snap); err != nil {
		return nil, err
	}

	w := world.NewWorld(defs)
	w.Player = copyPlayer(snap.Player)

	for key, ls := range snap.Locations {
		loc := w.Locations[key]
		loc.Visited = ls.Visited
		loc.Items = append([]string(nil), ls.Items...)
		loc.NPCs = append([]string(nil), ls.NPCs...)
	}
	for key, memory := range snap.NPCMemory {
		w.NPCs[key].Memory = append([]string(nil), memory...)
	}

	w.Flags = make(map[world.Flag]bool, len(snap.Flags))
	for f, v := range snap.Flags {
		w.Flags[f] = v
	}
	if snap.Monster != nil {
		mon := *snap.Monster
		mon.RewardItems = append([]string(nil), snap.Monster.RewardItems...)
		w.Monster = &mon
	}
	w.Combat = snap.Combat
	w.TurnCount = snap.Turn
	w.RNGSeed = snap.RNGSeed
	w.RNGPosition = snap.RNGPosition

	w.CheckCombatInvariant()
	return w, nil
}

// validate rejects snapshots referencing keys absent from the defs.
func validate(defs *world.Defs, snap *Snapshot) error {
	if _, ok := defs.Locations[snap.Player.Location]; !ok {
		return &Error{Reason: fmt.Sprintf("player location %q does not exist", snap.Player.Location)}
	}
	for _, item := range snap.Player.Inventory {
		if _, ok := defs.Items[item]; !ok {
			return &Error{Reason: fmt.Sprintf("inventory item %q does not exist", item)}
		}
	}
	for key, ls := range snap.Locations {
		if _, ok := defs.Locations[key]; !ok {
			return &Error{Reason: fmt.Sprintf("location %q does not exist", key)}
		}
		for _, item := range ls.Items {
			if _, ok := defs.Items[item]; !ok {
				return &Error{Reason: fmt.Sprintf("item %q at %q does not exist", item, key)}
			}
		}
		for _, npc := range ls.NPCs {
			if _, ok := defs.NPCs[npc]; !ok {
				return &Error{Reason: fmt.Sprintf("npc %q at %q does not exist", npc, key)}
			}
		}
	}
	for key := range snap.NPCMemory {
		if _, ok := defs.NPCs[key]; !ok {
			return &Error{Reason: fmt.Sprintf("npc %q does not exist", key)}
		}
	}
	inCombat := snap.Flags[world.FlagInCombat]
	if inCombat && snap.Monster == nil {
		return &Error{Reason: "save marks combat with no monster"}
	}
	if !inCombat && snap.Monster != nil {
		return &Error{Reason: "save carries a monster outside combat"}
	}
	return nil
}

func copyPlayer(p world.Player) world.Player {
	cp := p
	cp.Inventory = append([]string(nil), p.Inventory...)
	cp.Quests = make(map[string]types.QuestStage, len(p.Quests))
	for id, stage := range p.Quests {
		cp.Quests[id] = stage
	}
	return cp
}
