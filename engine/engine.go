// Package engine ties the subsystems into a single synchronous turn
// loop: parse, act, fire quest triggers, retune music, enforce
// invariants. One call to Step is one game turn.
package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nathoo/fablecore/audio"
	"github.com/nathoo/fablecore/engine/combat"
	"github.com/nathoo/fablecore/engine/dialogue"
	"github.com/nathoo/fablecore/engine/music"
	"github.com/nathoo/fablecore/engine/parser"
	"github.com/nathoo/fablecore/engine/quest"
	"github.com/nathoo/fablecore/engine/save"
	"github.com/nathoo/fablecore/engine/seed"
	"github.com/nathoo/fablecore/types"
	"github.com/nathoo/fablecore/world"
)

// Options configures an Engine. Zero values get sensible defaults: a
// time-based seed, offline dialogue, silent audio, no save store.
type Options struct {
	Seed      int64
	Responder dialogue.Responder
	Audio     audio.Player
	Store     *save.Store
	Combat    combat.Config
}

// Engine owns the world and drives turns. Not safe for concurrent Step
// calls; front-ends serialize input by construction.
type Engine struct {
	Defs     *world.Defs
	World    *world.World
	RNG      *RNG
	Dialogue *dialogue.Router
	Music    *music.Selector
	Audio    audio.Player
	Combat   combat.Config
	Store    *save.Store
}

// New builds an engine over fresh world state.
func New(defs *world.Defs, opts Options) *Engine {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	player := opts.Audio
	if player == nil {
		player = audio.Null{}
	}
	cfg := opts.Combat
	if cfg == (combat.Config{}) {
		cfg = combat.DefaultConfig()
	}

	w := world.NewWorld(defs)
	w.RNGSeed = seed

	return &Engine{
		Defs:     defs,
		World:    w,
		RNG:      NewRNG(seed),
		Dialogue: dialogue.NewRouter(opts.Responder),
		Music:    &music.Selector{},
		Audio:    player,
		Combat:   cfg,
		Store:    opts.Store,
	}
}

// Intro returns the opening text: title, intro prose, and the first
// look at the starting location (including its first-visit seeding).
func (e *Engine) Intro() types.Result {
	var res types.Result
	res.Output = append(res.Output, fmt.Sprintf("=== %s ===", e.Defs.Game.Title))
	if e.Defs.Game.Intro != "" {
		res.Output = append(res.Output, e.Defs.Game.Intro, "")
	}

	lines, events := seed.OnEnter(e.World, e.Defs, e.RNG, e.World.Player.Location)
	res.Output = append(res.Output, lines...)
	res.Output = append(res.Output, e.describe()...)

	events = append(events, types.Event{
		Type: types.EventLocationEntered,
		Data: map[string]any{"location": e.World.Player.Location},
	})
	e.settle(&res, events)
	return res
}

// Step executes one player turn.
func (e *Engine) Step(input string) types.Result {
	var res types.Result

	act, err := parser.Parse(input, e.World)
	if err != nil {
		res.Output = append(res.Output, err.Error())
		return res
	}

	if e.World.Flag(world.FlagGameOver) && !allowedAfterEnd(act.Verb) {
		res.Output = append(res.Output, "The adventure is over. Type 'load <slot>' to return to a save, or 'quit'.")
		return res
	}

	events := e.dispatch(act, &res)
	e.settle(&res, events)
	return res
}

// settle runs the post-action phases shared by Step and Intro: quest
// triggers, the music transition, terminal-phase consumption, and the
// combat invariant check.
func (e *Engine) settle(res *types.Result, events []types.Event) {
	queue := events
	for len(queue) > 0 {
		ev := queue[0]
		queue = queue[1:]
		res.Events = append(res.Events, ev)

		msgs, extra := quest.OnEvent(e.World, e.Defs.Triggers, ev)
		res.Output = append(res.Output, msgs...)
		queue = append(queue, extra...)

		if ev.Type == types.EventGameWon {
			res.Output = append(res.Output, "Your tale is complete. Type 'quit' to exit, or 'load <slot>' to revisit a save.")
		}
	}

	if cat, changed := e.Music.Transition(e.World); changed {
		e.Audio.SetCategory(cat)
	}
	combat.EndTick(e.World)
	e.World.CheckCombatInvariant()

	e.World.TurnCount++
	e.World.RNGPosition = e.RNG.Position()
}

func allowedAfterEnd(v types.Verb) bool {
	switch v {
	case types.VerbLoad, types.VerbQuit, types.VerbHelp, types.VerbStats, types.VerbQuests:
		return true
	}
	return false
}

// dispatch applies one parsed action. Exhaustive over the verb enum.
func (e *Engine) dispatch(act types.Action, res *types.Result) []types.Event {
	w := e.World

	switch act.Verb {
	case types.VerbLook:
		res.Output = append(res.Output, e.describe()...)
		return nil

	case types.VerbGo:
		return e.doGo(act.Target, res)

	case types.VerbTalk, types.VerbAsk:
		reply, events := e.Dialogue.Converse(w, act.Target, act.Text)
		res.Output = append(res.Output, reply)
		return events

	case types.VerbShop:
		res.Output = append(res.Output, e.doShop()...)
		return nil

	case types.VerbBuy:
		return e.doBuy(act.Target, res)

	case types.VerbTake:
		return e.doTake(act.Target, res)

	case types.VerbDrop:
		return e.doDrop(act.Target, res)

	case types.VerbTrade:
		return e.doTrade(act.Target, res)

	case types.VerbInventory:
		res.Output = append(res.Output, e.doInventory()...)
		return nil

	case types.VerbStats:
		res.Output = append(res.Output, e.doStats()...)
		return nil

	case types.VerbQuests:
		res.Output = append(res.Output, quest.Summary(w)...)
		return nil

	case types.VerbAttack:
		lines, events := combat.Attack(w, e.Defs.Items, e.RNG, e.Combat)
		res.Output = append(res.Output, lines...)
		return events

	case types.VerbDefend:
		lines, events := combat.Defend(w, e.RNG, e.Combat)
		res.Output = append(res.Output, lines...)
		return events

	case types.VerbFlee:
		lines, events := combat.Flee(w, e.RNG, e.Combat)
		res.Output = append(res.Output, lines...)
		return events

	case types.VerbSave:
		e.doSave(act.Text, res)
		return nil

	case types.VerbLoad:
		e.doLoad(act.Text, res)
		return nil

	case types.VerbMusic:
		e.doMusic(act.Text, res)
		return nil

	case types.VerbVolume:
		e.Audio.SetVolume(act.Amount)
		res.Output = append(res.Output, fmt.Sprintf("Volume set to %.1f.", act.Amount))
		return nil

	case types.VerbHelp:
		res.Output = append(res.Output, helpText()...)
		return nil

	case types.VerbQuit:
		res.Output = append(res.Output, "Farewell, adventurer.")
		res.Quit = true
		return nil
	}

	panic(fmt.Sprintf("engine: unhandled verb %q", act.Verb))
}

func (e *Engine) doGo(dest string, res *types.Result) []types.Event {
	w := e.World
	if !w.Here().HasExit(dest) {
		res.Output = append(res.Output, "You can't go that way.")
		return nil
	}
	from := w.Player.Location
	w.Player.Location = dest

	events := []types.Event{{
		Type: types.EventLocationEntered,
		Data: map[string]any{"location": dest},
	}}
	lines, more := seed.OnEnter(w, e.Defs, e.RNG, from)
	res.Output = append(res.Output, lines...)
	events = append(events, more...)

	if !w.InCombat() {
		res.Output = append(res.Output, e.describe()...)
	}
	return events
}

func (e *Engine) doTake(key string, res *types.Result) []types.Event {
	w := e.World
	if !w.Here().RemoveItem(key) {
		res.Output = append(res.Output, fmt.Sprintf("You don't see any %s here.", display(key)))
		return nil
	}
	w.Player.Inventory = append(w.Player.Inventory, key)
	res.Output = append(res.Output, fmt.Sprintf("You take the %s.", display(key)))
	return []types.Event{{
		Type: types.EventItemTaken,
		Data: map[string]any{"item": key, "location": w.Player.Location},
	}}
}

func (e *Engine) doDrop(key string, res *types.Result) []types.Event {
	w := e.World
	if !w.Player.RemoveItem(key) {
		res.Output = append(res.Output, fmt.Sprintf("You aren't carrying any %s.", display(key)))
		return nil
	}
	w.Here().Items = append(w.Here().Items, key)
	res.Output = append(res.Output, fmt.Sprintf("You drop the %s.", display(key)))
	return nil
}

// doTrade finds a barter rule for the offered item against any NPC
// present here.
func (e *Engine) doTrade(key string, res *types.Result) []types.Event {
	w := e.World
	if !w.Player.HasItem(key) {
		res.Output = append(res.Output, fmt.Sprintf("You aren't carrying any %s.", display(key)))
		return nil
	}
	here := w.Here()
	for _, t := range e.Defs.Trades {
		if t.Give != key || !here.HasNPC(t.NPC) {
			continue
		}
		w.Player.RemoveItem(key)
		w.Player.Inventory = append(w.Player.Inventory, t.Receive)
		if t.Message != "" {
			res.Output = append(res.Output, t.Message)
		} else {
			res.Output = append(res.Output, fmt.Sprintf("You hand over the %s and receive the %s.", display(key), display(t.Receive)))
		}
		return []types.Event{{
			Type: types.EventItemTraded,
			Data: map[string]any{"item": key, "npc": t.NPC, "received": t.Receive},
		}}
	}
	res.Output = append(res.Output, fmt.Sprintf("No one here wants your %s.", display(key)))
	return nil
}

func (e *Engine) doShop() []string {
	w := e.World
	for _, npcKey := range w.Here().NPCs {
		wares, ok := e.Defs.Shops[npcKey]
		if !ok || len(wares) == 0 {
			continue
		}
		npc := w.NPCs[npcKey]
		lines := []string{fmt.Sprintf("%s shows you the wares:", npc.Name)}
		for _, itemKey := range wares {
			item := e.Defs.Items[itemKey]
			lines = append(lines, fmt.Sprintf("  %s — %d gold", item.Name, item.Price))
		}
		return lines
	}
	return []string{"There's no shop here."}
}

func (e *Engine) doBuy(key string, res *types.Result) []types.Event {
	w := e.World
	for _, npcKey := range w.Here().NPCs {
		wares, ok := e.Defs.Shops[npcKey]
		if !ok {
			continue
		}
		for _, itemKey := range wares {
			if itemKey != key {
				continue
			}
			item := e.Defs.Items[itemKey]
			if w.Player.Gold < item.Price {
				res.Output = append(res.Output, fmt.Sprintf("You can't afford the %s (%d gold).", item.Name, item.Price))
				return nil
			}
			w.Player.Gold -= item.Price
			w.Player.Inventory = append(w.Player.Inventory, itemKey)
			res.Output = append(res.Output, fmt.Sprintf("You buy the %s for %d gold.", item.Name, item.Price))
			return []types.Event{{
				Type: types.EventItemTaken,
				Data: map[string]any{"item": itemKey, "location": w.Player.Location, "source": "shop"},
			}}
		}
	}
	res.Output = append(res.Output, fmt.Sprintf("Nobody here sells %s.", display(key)))
	return nil
}

func (e *Engine) doInventory() []string {
	inv := e.World.Player.Inventory
	if len(inv) == 0 {
		return []string{"You are carrying nothing."}
	}
	names := make([]string, len(inv))
	for i, key := range inv {
		if item, ok := e.Defs.Items[key]; ok {
			names[i] = item.Name
		} else {
			names[i] = display(key)
		}
	}
	sort.Strings(names)
	return []string{"You are carrying: " + strings.Join(names, ", ") + "."}
}

func (e *Engine) doStats() []string {
	p := e.World.Player
	lines := []string{
		fmt.Sprintf("HP: %d/%d", p.HP, p.MaxHP),
		fmt.Sprintf("Gold: %d", p.Gold),
		fmt.Sprintf("Damage bonus: +%d", p.DamageBonus(e.Defs.Items)),
	}
	if e.World.InCombat() {
		mon := e.World.Monster
		lines = append(lines, fmt.Sprintf("Fighting: %s (%d/%d HP)", mon.Name, mon.HP, mon.MaxHP))
	}
	return lines
}

func (e *Engine) doSave(slot string, res *types.Result) {
	if e.Store == nil {
		res.Output = append(res.Output, "Saving is disabled.")
		return
	}
	if slot == "" {
		slot = "quicksave"
	}
	snap := save.Capture(e.World, e.Defs)
	if err := e.Store.Put(slot, snap); err != nil {
		res.Output = append(res.Output, err.Error())
		return
	}
	res.Output = append(res.Output, fmt.Sprintf("Game saved to slot %q.", slot))
}

func (e *Engine) doLoad(slot string, res *types.Result) {
	if e.Store == nil {
		res.Output = append(res.Output, "Saving is disabled.")
		return
	}
	if slot == "" {
		slot = "quicksave"
	}
	snap, err := e.Store.Get(slot)
	if err != nil {
		res.Output = append(res.Output, err.Error())
		return
	}
	w, err := save.Restore(e.Defs, snap)
	if err != nil {
		res.Output = append(res.Output, err.Error())
		return
	}
	e.World = w
	e.RNG = RestoreRNG(snap.RNGSeed, snap.RNGPosition)
	res.Output = append(res.Output, fmt.Sprintf("Game loaded from slot %q.", slot))
	res.Output = append(res.Output, e.describe()...)
}

func (e *Engine) doMusic(arg string, res *types.Result) {
	switch strings.TrimSpace(strings.ToLower(arg)) {
	case "on":
		e.Audio.SetEnabled(true)
		e.Audio.SetCategory(e.Music.Current())
		res.Output = append(res.Output, "Music on.")
	case "off":
		e.Audio.SetEnabled(false)
		res.Output = append(res.Output, "Music off.")
	case "":
		state := "off"
		if e.Audio.Enabled() {
			state = "on"
		}
		res.Output = append(res.Output, fmt.Sprintf("Music is %s (%s, volume %.1f).", state, e.Music.Current(), e.Audio.Volume()))
	default:
		res.Output = append(res.Output, "Try: music on, music off, or music.")
	}
}

// describe renders the player's current surroundings.
func (e *Engine) describe() []string {
	w := e.World
	loc := w.Here()

	lines := []string{loc.Description}

	if len(loc.Exits) > 0 {
		exits := make([]string, len(loc.Exits))
		for i, ex := range loc.Exits {
			exits[i] = display(ex)
		}
		lines = append(lines, "Exits: "+strings.Join(exits, ", "))
	}
	if len(loc.Items) > 0 {
		names := make([]string, len(loc.Items))
		for i, key := range loc.Items {
			if item, ok := e.Defs.Items[key]; ok {
				names[i] = item.Name
			} else {
				names[i] = display(key)
			}
		}
		lines = append(lines, "You see: "+strings.Join(names, ", ")+".")
	}
	for _, npcKey := range loc.NPCs {
		if npc, ok := w.NPCs[npcKey]; ok {
			lines = append(lines, npc.Name+" is here.")
		}
	}
	return lines
}

func helpText() []string {
	return []string{
		"Commands:",
		"  look                    describe your surroundings",
		"  go <place>              travel through an exit",
		"  talk <npc> [words]      speak with someone",
		"  ask <npc> about <topic> ask about something specific",
		"  take / drop <item>      pick up or put down an item",
		"  trade <item>            offer an item to whoever is here",
		"  shop / buy <item>       browse and buy wares",
		"  inventory, stats, quests",
		"  attack / defend / flee  combat actions",
		"  save / load [slot]      persist or restore the game",
		"  music [on|off], volume <0-1>",
		"  quit",
	}
}

func display(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}
