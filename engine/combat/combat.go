// Package combat implements the turn-sequenced combat state machine.
//
// All operations are total over valid world states; calling one in the
// wrong phase is a contract violation (the parser's combat gate should
// have made it unreachable) and panics rather than limping on.
package combat

import (
	"fmt"

	"github.com/nathoo/fablecore/types"
	"github.com/nathoo/fablecore/world"
)

// Roller is the slice of the engine RNG combat needs.
type Roller interface {
	Roll(sides int) int
	Percent(chance int) bool
	Variance(spread int) int
}

// Config holds the tunable combat constants. Narrative balance is
// content territory, so these are exposed rather than hard-coded.
type Config struct {
	UnarmedDamage   int // base player damage with no weapon
	VarianceSpread  int // damage varies by ± this much
	DefendReduction int // percent cut to the next monster hit while defending
	FleePercent     int // flat chance to escape
	MinMonsterHit   int // monster damage never falls below this
}

// DefaultConfig mirrors the balance of the original scenario.
func DefaultConfig() Config {
	return Config{
		UnarmedDamage:   2,
		VarianceSpread:  1,
		DefendReduction: 50,
		FleePercent:     60,
		MinMonsterHit:   1,
	}
}

// Begin spawns a monster and enters combat. The caller (seeding or an
// encounter roll) must not already be in combat. returnTo is where a
// successful flee drops the player: combat starts on entry, so the
// player's current location is the monster's room, not a safe one.
func Begin(w *world.World, def world.MonsterDef, returnTo string) []types.Event {
	if w.InCombat() || w.Combat.Phase != world.PhaseIdle {
		panic(fmt.Sprintf("combat: Begin in phase %s", w.Combat.Phase))
	}
	w.Monster = def.Spawn()
	w.SetFlag(world.FlagInCombat, true)
	w.Combat = world.CombatState{
		Phase:    world.PhasePlayerTurn,
		ReturnTo: returnTo,
	}
	return []types.Event{{
		Type: types.EventCombatStarted,
		Data: map[string]any{"monster": def.Key, "location": w.Player.Location},
	}}
}

// Attack resolves the player's attack and, if combat continues, the
// monster's reply turn.
func Attack(w *world.World, items map[string]world.Item, rng Roller, cfg Config) ([]string, []types.Event) {
	requirePhase(w, world.PhasePlayerTurn)
	w.Combat.Phase = world.PhaseResolvingPlayer

	mon := w.Monster
	dmg := cfg.UnarmedDamage + w.Player.DamageBonus(items) + rng.Variance(cfg.VarianceSpread)
	if dmg < 1 {
		dmg = 1
	}
	mon.HP -= dmg

	lines := []string{fmt.Sprintf("You strike the %s for %d damage. (Foe HP %d)", mon.Name, dmg, clampZero(mon.HP))}
	if mon.HP <= 0 {
		winLines, events := win(w)
		return append(lines, winLines...), events
	}

	moreLines, events := monsterTurn(w, rng, cfg)
	return append(lines, moreLines...), events
}

// Defend cuts the next monster hit by the configured percentage. The
// round still advances: the monster swings immediately.
func Defend(w *world.World, rng Roller, cfg Config) ([]string, []types.Event) {
	requirePhase(w, world.PhasePlayerTurn)
	w.Combat.Phase = world.PhaseResolvingPlayer
	w.Combat.Defending = true

	lines := []string{"You brace yourself behind your guard."}
	moreLines, events := monsterTurn(w, rng, cfg)
	return append(lines, moreLines...), events
}

// Flee attempts escape. Success drops the monster with no rewards and
// returns the player to where combat started; failure grants the
// monster a free attack.
func Flee(w *world.World, rng Roller, cfg Config) ([]string, []types.Event) {
	requirePhase(w, world.PhasePlayerTurn)
	w.Combat.Phase = world.PhaseResolvingPlayer

	if rng.Percent(cfg.FleePercent) {
		mon := w.Monster
		returnTo := w.Combat.ReturnTo
		if returnTo == "" {
			returnTo = w.Player.Location
		}
		w.Monster = nil
		w.SetFlag(world.FlagInCombat, false)
		w.Player.Location = returnTo
		w.Combat = world.CombatState{Phase: world.PhaseFled}
		return []string{fmt.Sprintf("You sprint for the exit and escape the %s!", mon.Name)},
			[]types.Event{{Type: types.EventCombatEnded, Data: map[string]any{"outcome": "fled"}}}
	}

	lines := []string{"You try to flee but stumble!"}
	moreLines, events := monsterTurn(w, rng, cfg)
	return append(lines, moreLines...), events
}

// EndTick consumes the one-tick terminal phases after the music
// selector has observed them.
func EndTick(w *world.World) {
	switch w.Combat.Phase {
	case world.PhaseWon, world.PhaseFled:
		w.Combat = world.CombatState{Phase: world.PhaseIdle}
	}
}

// monsterTurn resolves the monster's swing and closes the round.
func monsterTurn(w *world.World, rng Roller, cfg Config) ([]string, []types.Event) {
	w.Combat.Phase = world.PhaseMonsterTurn
	mon := w.Monster
	w.Combat.Phase = world.PhaseResolvingMonster

	dmg := mon.Attack + rng.Variance(cfg.VarianceSpread)
	if w.Combat.Defending {
		dmg -= dmg * cfg.DefendReduction / 100
	}
	if dmg < cfg.MinMonsterHit {
		dmg = cfg.MinMonsterHit
	}
	w.Player.HP -= dmg

	verb := "hits"
	if w.Combat.Defending {
		verb = "batters your guard, dealing"
	}
	lines := []string{fmt.Sprintf("The %s %s you for %d. (Your HP %d)", mon.Name, verb, dmg, clampZero(w.Player.HP))}

	if w.Player.HP <= 0 {
		w.Player.HP = 0
		loseLines, events := lose(w)
		return append(lines, loseLines...), events
	}

	w.Combat.Phase = world.PhasePlayerTurn
	w.Combat.Defending = false
	w.Combat.Rounds++
	return lines, nil
}

func win(w *world.World) ([]string, []types.Event) {
	mon := w.Monster
	lines := []string{fmt.Sprintf("The %s collapses. You are victorious!", mon.Name)}

	if mon.RewardGold > 0 {
		w.Player.Gold += mon.RewardGold
		lines = append(lines, fmt.Sprintf("You find %d gold on the remains.", mon.RewardGold))
	}
	for _, item := range mon.RewardItems {
		w.Player.Inventory = append(w.Player.Inventory, item)
		lines = append(lines, fmt.Sprintf("You claim the %s.", displayName(item)))
	}

	w.Monster = nil
	w.SetFlag(world.FlagInCombat, false)
	w.Combat = world.CombatState{Phase: world.PhaseWon}

	events := []types.Event{
		{Type: types.EventMonsterDefeated, Data: map[string]any{"monster": mon.Key, "location": w.Player.Location}},
		{Type: types.EventCombatEnded, Data: map[string]any{"outcome": "won"}},
	}
	return lines, events
}

func lose(w *world.World) ([]string, []types.Event) {
	mon := w.Monster
	w.Monster = nil
	w.SetFlag(world.FlagInCombat, false)
	w.SetFlag(world.FlagGameOver, true)
	w.Combat = world.CombatState{Phase: world.PhaseLost}

	lines := []string{"You fall to the ground. Darkness closes in. GAME OVER."}
	events := []types.Event{
		{Type: types.EventPlayerDefeated, Data: map[string]any{"monster": mon.Key}},
		{Type: types.EventCombatEnded, Data: map[string]any{"outcome": "lost"}},
	}
	return lines, events
}

func requirePhase(w *world.World, want world.CombatPhase) {
	if !w.InCombat() || w.Monster == nil {
		panic("combat: action with no active monster")
	}
	if w.Combat.Phase != want {
		panic(fmt.Sprintf("combat: action in phase %s, want %s", w.Combat.Phase, want))
	}
}

func clampZero(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func displayName(key string) string {
	out := make([]rune, 0, len(key))
	for _, r := range key {
		if r == '_' {
			out = append(out, ' ')
		} else {
			out = append(out, r)
		}
	}
	return string(out)
}
