// Package quest advances quest stages from emitted events against a
// declarative trigger table. The table is configuration data loaded
// with the game content, so the engine stays testable independent of
// any particular dialogue or scenario.
package quest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nathoo/fablecore/types"
	"github.com/nathoo/fablecore/world"
)

// OnEvent applies every trigger the event satisfies. Side effects are
// limited to quest stage advancement, win flags, and narrative
// messages. Stages only ever move forward: a trigger whose target stage
// is not strictly greater than the current one never fires.
func OnEvent(w *world.World, triggers []world.TriggerDef, ev types.Event) (msgs []string, extra []types.Event) {
	for _, t := range triggers {
		if t.Event != ev.Type {
			continue
		}
		cur := w.QuestStage(t.Quest)
		if cur != t.From || t.To <= cur {
			continue
		}
		if !matches(w, t, ev) {
			continue
		}

		w.Player.Quests[t.Quest] = t.To
		if t.Message != "" {
			msgs = append(msgs, t.Message)
		}
		extra = append(extra, types.Event{
			Type: types.EventQuestAdvanced,
			Data: map[string]any{"quest": t.Quest, "stage": t.To.String()},
		})

		if t.Final {
			w.SetFlag(world.FlagGameWon, true)
			w.SetFlag(world.FlagGameOver, true)
			extra = append(extra, types.Event{
				Type: types.EventGameWon,
				Data: map[string]any{"quest": t.Quest},
			})
		}
	}
	return msgs, extra
}

// matches evaluates the trigger's event predicate plus its required
// world conditions.
func matches(w *world.World, t world.TriggerDef, ev types.Event) bool {
	if t.Item != "" && dataString(ev, "item") != t.Item {
		return false
	}
	if t.Monster != "" && dataString(ev, "monster") != t.Monster {
		return false
	}
	if t.NPC != "" && dataString(ev, "npc") != t.NPC {
		return false
	}

	if t.Location != "" {
		// For entry events the location is the event payload; for
		// everything else it is a required world condition.
		if ev.Type == types.EventLocationEntered {
			if dataString(ev, "location") != t.Location {
				return false
			}
		} else if w.Player.Location != t.Location {
			return false
		}
	}

	if len(t.Keywords) > 0 {
		text := strings.ToLower(dataString(ev, "text"))
		hit := false
		for _, kw := range t.Keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}

	if t.Requires != "" && !w.Player.HasItem(t.Requires) {
		return false
	}
	return true
}

// Summary renders the player's quest journal, one line per quest.
func Summary(w *world.World) []string {
	if len(w.Player.Quests) == 0 {
		return []string{"No quests yet."}
	}
	ids := make([]string, 0, len(w.Player.Quests))
	for id := range w.Player.Quests {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, fmt.Sprintf("%s — %s", displayName(id), w.Player.Quests[id]))
	}
	return out
}

func displayName(id string) string {
	return strings.ReplaceAll(id, "_", " ")
}

func dataString(ev types.Event, key string) string {
	s, _ := ev.Data[key].(string)
	return s
}
