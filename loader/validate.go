package loader

import (
	"fmt"
	"os"
	"strings"

	"github.com/nathoo/fablecore/types"
	"github.com/nathoo/fablecore/world"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

var validEventTypes = map[types.EventType]bool{
	types.EventLocationEntered: true,
	types.EventItemTaken:       true,
	types.EventItemTraded:      true,
	types.EventNPCKeyword:      true,
	types.EventMonsterDefeated: true,
	types.EventCombatStarted:   true,
	types.EventCombatEnded:     true,
	types.EventPlayerDefeated:  true,
	types.EventQuestAdvanced:   true,
	types.EventGameWon:         true,
}

// validate checks the compiled defs for referential integrity and
// consistency. All entity keys must already be canonical: the parser
// normalizes player input to this form, so a non-canonical key would be
// permanently unreachable.
func validate(defs *world.Defs) error {
	ve := &ValidationError{}

	if defs.Game.Title == "" {
		ve.Errors = append(ve.Errors, "Game.title is required")
	}
	if defs.Game.Start == "" {
		ve.Errors = append(ve.Errors, "Game.start is required")
	} else if _, ok := defs.Locations[defs.Game.Start]; !ok {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"start location %q not found in defined locations", defs.Game.Start))
	}

	for key := range defs.Items {
		checkKey(ve, "item", key)
	}
	for key := range defs.Monsters {
		checkKey(ve, "monster", key)
	}

	validateLocations(defs, ve)
	validateNPCs(defs, ve)
	validatePlayer(defs, ve)
	validateShops(defs, ve)
	validateTrades(defs, ve)
	validateSeeds(defs, ve)
	validateEncounters(defs, ve)
	validateTriggers(defs, ve)

	for _, w := range ve.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateLocations(defs *world.Defs, ve *ValidationError) {
	for key, loc := range defs.Locations {
		checkKey(ve, "location", key)
		for _, exit := range loc.Exits {
			if _, ok := defs.Locations[exit]; !ok {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"location %q exit points to undefined location %q", key, exit))
			}
		}
		for _, item := range loc.Items {
			if _, ok := defs.Items[item]; !ok {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"location %q holds undefined item %q", key, item))
			}
		}
		// One-way exits are legal; note them so authors can confirm
		// they are intentional.
		for _, exit := range loc.Exits {
			dest, ok := defs.Locations[exit]
			if ok && !dest.HasExit(key) {
				ve.Warnings = append(ve.Warnings, fmt.Sprintf(
					"exit %s → %s is one-way", key, exit))
			}
		}
	}
}

func validateNPCs(defs *world.Defs, ve *ValidationError) {
	for key, npc := range defs.NPCs {
		checkKey(ve, "npc", key)
		if npc.Name == "" {
			ve.Errors = append(ve.Errors, fmt.Sprintf("npc %q has no name", key))
		}
		if _, ok := defs.Locations[npc.Location]; !ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"npc %q placed in undefined location %q", key, npc.Location))
		}
	}
}

func validatePlayer(defs *world.Defs, ve *ValidationError) {
	for _, item := range defs.Player.Inventory {
		if _, ok := defs.Items[item]; !ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"player starts with undefined item %q", item))
		}
	}
}

func validateShops(defs *world.Defs, ve *ValidationError) {
	for npcKey, wares := range defs.Shops {
		if _, ok := defs.NPCs[npcKey]; !ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"shop belongs to undefined npc %q", npcKey))
		}
		for _, item := range wares {
			it, ok := defs.Items[item]
			if !ok {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"shop %q sells undefined item %q", npcKey, item))
				continue
			}
			if it.Price <= 0 {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"shop %q sells %q with no price", npcKey, item))
			}
		}
	}
}

func validateTrades(defs *world.Defs, ve *ValidationError) {
	for i, t := range defs.Trades {
		if _, ok := defs.NPCs[t.NPC]; !ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"trade %d references undefined npc %q", i, t.NPC))
		}
		if _, ok := defs.Items[t.Give]; !ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"trade %d gives undefined item %q", i, t.Give))
		}
		if _, ok := defs.Items[t.Receive]; !ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"trade %d receives undefined item %q", i, t.Receive))
		}
	}
}

func validateSeeds(defs *world.Defs, ve *ValidationError) {
	for locKey, s := range defs.Seeds {
		if _, ok := defs.Locations[locKey]; !ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"seed targets undefined location %q", locKey))
		}
		for _, item := range s.Items {
			if _, ok := defs.Items[item]; !ok {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"seed at %q plants undefined item %q", locKey, item))
			}
		}
		if s.Monster != "" {
			if _, ok := defs.Monsters[s.Monster]; !ok {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"seed at %q spawns undefined monster %q", locKey, s.Monster))
			}
		}
	}
}

func validateEncounters(defs *world.Defs, ve *ValidationError) {
	for i, enc := range defs.Encounters {
		if _, ok := defs.Locations[enc.Location]; !ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"encounter %d in undefined location %q", i, enc.Location))
		}
		if _, ok := defs.Monsters[enc.Monster]; !ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"encounter %d spawns undefined monster %q", i, enc.Monster))
		}
		if enc.Percent < 1 || enc.Percent > 100 {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"encounter %d chance %d%% out of range [1,100]", i, enc.Percent))
		}
	}
}

func validateTriggers(defs *world.Defs, ve *ValidationError) {
	questIDs := map[string]bool{}
	for _, id := range defs.Player.Quests {
		questIDs[id] = true
	}

	seen := map[string]bool{}
	finals := 0
	for _, t := range defs.Triggers {
		if seen[t.ID] {
			ve.Errors = append(ve.Errors, fmt.Sprintf("duplicate trigger ID %q", t.ID))
		}
		seen[t.ID] = true

		if !questIDs[t.Quest] {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"trigger %q references quest %q not in the player's quest list", t.ID, t.Quest))
		}
		if t.To <= t.From {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"trigger %q does not advance (%s → %s)", t.ID, t.From, t.To))
		}
		if !validEventTypes[t.Event] {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"trigger %q listens for unknown event %q", t.ID, t.Event))
		}
		if t.Item != "" {
			if _, ok := defs.Items[t.Item]; !ok {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"trigger %q references undefined item %q", t.ID, t.Item))
			}
		}
		if t.Monster != "" {
			if _, ok := defs.Monsters[t.Monster]; !ok {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"trigger %q references undefined monster %q", t.ID, t.Monster))
			}
		}
		if t.NPC != "" {
			if _, ok := defs.NPCs[t.NPC]; !ok {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"trigger %q references undefined npc %q", t.ID, t.NPC))
			}
		}
		if t.Location != "" {
			if _, ok := defs.Locations[t.Location]; !ok {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"trigger %q references undefined location %q", t.ID, t.Location))
			}
		}
		if t.Requires != "" {
			if _, ok := defs.Items[t.Requires]; !ok {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"trigger %q requires undefined item %q", t.ID, t.Requires))
			}
		}
		if t.Final {
			finals++
		}
	}

	if len(defs.Triggers) > 0 && finals == 0 {
		ve.Warnings = append(ve.Warnings, "no trigger is marked final: the game cannot be won")
	}
}

// checkKey rejects non-canonical entity keys. Lowercase letters,
// digits, and underscores only, starting with a letter.
func checkKey(ve *ValidationError, kind, key string) {
	if key == "" {
		ve.Errors = append(ve.Errors, kind+" with empty key")
		return
	}
	if key[0] < 'a' || key[0] > 'z' {
		ve.Errors = append(ve.Errors, fmt.Sprintf("%s key %q must start with a lowercase letter", kind, key))
		return
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
		default:
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s key %q contains invalid character %q", kind, key, r))
			return
		}
	}
}
