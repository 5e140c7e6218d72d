// Package music derives the desired music category from world state.
// Selection is a pure function; playback belongs to the audio
// collaborator and never feeds back into game state.
package music

import (
	"github.com/nathoo/fablecore/types"
	"github.com/nathoo/fablecore/world"
)

// Select computes the category for the current world state. Priority,
// highest first: defeat, victory (this tick), boss combat, combat, then
// the location's ambient group. Pure: no I/O, no mutation.
func Select(w *world.World) types.Category {
	switch w.Combat.Phase {
	case world.PhaseLost:
		return types.CategoryDefeat
	case world.PhaseWon:
		return types.CategoryVictory
	}
	if w.InCombat() {
		if w.Monster != nil && w.Monster.Boss {
			return types.CategoryBoss
		}
		return types.CategoryCombat
	}
	return w.Here().MusicGroup
}

// Selector adds the smart-transition policy on top of Select: looped
// categories must not restart when the selection is unchanged between
// ticks, so a change is only signalled on difference. One-shot
// categories (victory, defeat) rely on the engine consuming the
// terminal combat phase after one tick.
type Selector struct {
	prev    types.Category
	started bool
}

// Transition returns the category for this tick and whether it differs
// from the previous tick's selection.
func (s *Selector) Transition(w *world.World) (types.Category, bool) {
	cat := Select(w)
	changed := !s.started || cat != s.prev
	s.prev = cat
	s.started = true
	return cat, changed
}

// Current returns the last selected category.
func (s *Selector) Current() types.Category {
	return s.prev
}
