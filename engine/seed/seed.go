// Package seed injects one-time content into locations on first visit
// and rolls random encounters on re-entry.
package seed

import (
	"github.com/nathoo/fablecore/engine/combat"
	"github.com/nathoo/fablecore/types"
	"github.com/nathoo/fablecore/world"
)

// OnEnter runs the entry hooks for the player's current location. from
// is the location the player arrived from; combat started here returns
// a fleeing player there. The seed flag, not the visited bit, gates
// re-seeding: even if visited is externally reset, a seeded location
// never seeds twice.
func OnEnter(w *world.World, defs *world.Defs, rng combat.Roller, from string) ([]string, []types.Event) {
	loc := w.Here()

	var lines []string
	var events []types.Event

	if rule, ok := defs.Seeds[loc.Key]; ok && !w.Flag(world.SeededFlag(loc.Key)) {
		loc.Items = append(loc.Items, rule.Items...)
		w.SetFlag(world.SeededFlag(loc.Key), true)
		if rule.Message != "" {
			lines = append(lines, rule.Message)
		}
		if rule.Monster != "" {
			def, ok := defs.Monsters[rule.Monster]
			if !ok {
				panic("seed: unknown monster " + rule.Monster)
			}
			events = append(events, combat.Begin(w, def, from)...)
		}
	} else if !w.InCombat() {
		lines, events = rollEncounter(w, defs, rng, loc, from, lines, events)
	}

	loc.Visited = true
	return lines, events
}

func rollEncounter(w *world.World, defs *world.Defs, rng combat.Roller, loc *world.Location, from string, lines []string, events []types.Event) ([]string, []types.Event) {
	for _, enc := range defs.Encounters {
		if enc.Location != loc.Key {
			continue
		}
		if !rng.Percent(enc.Percent) {
			continue
		}
		def, ok := defs.Monsters[enc.Monster]
		if !ok {
			panic("seed: unknown monster " + enc.Monster)
		}
		lines = append(lines, "A "+def.Name+" lunges from the shadows! You are in combat.")
		events = append(events, combat.Begin(w, def, from)...)
		break
	}
	return lines, events
}
