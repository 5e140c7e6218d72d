package engine

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/nathoo/fablecore/engine/save"
	"github.com/nathoo/fablecore/types"
	"github.com/nathoo/fablecore/world"
)

// recordingAudio captures category changes so tests can observe the
// music pipeline without real playback.
type recordingAudio struct {
	categories []types.Category
	enabled    bool
	volume     float64
}

func (r *recordingAudio) SetCategory(cat types.Category) { r.categories = append(r.categories, cat) }
func (r *recordingAudio) SetEnabled(on bool)             { r.enabled = on }
func (r *recordingAudio) SetVolume(v float64)            { r.volume = v }
func (r *recordingAudio) Enabled() bool                  { return r.enabled }
func (r *recordingAudio) Volume() float64                { return r.volume }

func testDefs() *world.Defs {
	return &world.Defs{
		Game: world.GameDef{
			Title: "Gemfall",
			Intro: "A gem has gone missing.",
			Start: "village_square",
		},
		Player: world.PlayerDef{
			Gold:      15,
			HP:        20,
			Inventory: []string{"apple"},
			Quests:    []string{"find_the_gem", "prove_your_worth"},
		},
		Items: map[string]world.Item{
			"apple":          {Key: "apple", Name: "apple"},
			"rusty_sword":    {Key: "rusty_sword", Name: "rusty sword", Damage: 2, Price: 10},
			"broad_sword":    {Key: "broad_sword", Name: "broad sword", Damage: 4},
			"iron_ore":       {Key: "iron_ore", Name: "lump of iron ore"},
			"glimmering_gem": {Key: "glimmering_gem", Name: "glimmering gem"},
		},
		Monsters: map[string]world.MonsterDef{
			"gnat": {Key: "gnat", Name: "cave gnat", HP: 1, Attack: 0, RewardGold: 3},
		},
		Locations: map[string]*world.Location{
			"village_square": {
				Key:         "village_square",
				Description: "The village square.",
				Exits:       []string{"blacksmith_shop", "iron_mine"},
				NPCs:        []string{"rogan"},
				MusicGroup:  types.CategoryVillage,
			},
			"blacksmith_shop": {
				Key:         "blacksmith_shop",
				Description: "The forge glows.",
				Exits:       []string{"village_square"},
				NPCs:        []string{"rogan"},
				MusicGroup:  types.CategoryVillage,
			},
			"iron_mine": {
				Key:         "iron_mine",
				Description: "A dark mine shaft.",
				Exits:       []string{"village_square"},
				MusicGroup:  types.CategoryCave,
			},
		},
		NPCs: map[string]*world.NPC{
			"rogan": {Key: "rogan", Name: "Rogan", Location: "village_square"},
		},
		Shops: map[string][]string{
			"rogan": {"rusty_sword"},
		},
		Trades: []world.TradeDef{
			{NPC: "rogan", Give: "iron_ore", Receive: "broad_sword", Message: "Rogan hammers the ore into a broad sword."},
		},
		Seeds: map[string]world.SeedDef{
			"iron_mine": {
				Location: "iron_mine",
				Items:    []string{"iron_ore"},
				Message:  "Something glints in the rubble.",
			},
		},
		Triggers: []world.TriggerDef{
			{
				ID: "worth_started", Quest: "prove_your_worth",
				From: types.QuestNotStarted, To: types.QuestInProgress,
				Event: types.EventItemTaken, Item: "iron_ore",
				Message: "Quest started: Prove Your Worth.",
			},
			{
				ID: "worth_proven", Quest: "prove_your_worth",
				From: types.QuestInProgress, To: types.QuestComplete,
				Event: types.EventItemTraded, Item: "iron_ore", NPC: "rogan",
				Message: "Quest complete: Prove Your Worth.",
			},
			{
				ID: "gem_found", Quest: "find_the_gem",
				From: types.QuestNotStarted, To: types.QuestComplete,
				Event: types.EventItemTaken, Item: "glimmering_gem",
				Final: true, Message: "The gem is found!",
			},
		},
	}
}

func newTestEngine(t *testing.T, defs *world.Defs) *Engine {
	t.Helper()
	return New(defs, Options{Seed: 7})
}

func contains(lines []string, want string) bool {
	for _, line := range lines {
		if strings.Contains(line, want) {
			return true
		}
	}
	return false
}

func hasEvent(events []types.Event, typ types.EventType) bool {
	for _, ev := range events {
		if ev.Type == typ {
			return true
		}
	}
	return false
}

func TestIntro(t *testing.T) {
	e := newTestEngine(t, testDefs())
	res := e.Intro()

	if !contains(res.Output, "=== Gemfall ===") {
		t.Errorf("output = %v, want the title banner", res.Output)
	}
	if !contains(res.Output, "A gem has gone missing.") {
		t.Error("intro prose missing")
	}
	if !contains(res.Output, "The village square.") {
		t.Error("starting location not described")
	}
	if !hasEvent(res.Events, types.EventLocationEntered) {
		t.Errorf("events = %v, want location_entered", res.Events)
	}
	if e.World.TurnCount != 1 {
		t.Errorf("turn count = %d after intro", e.World.TurnCount)
	}
}

func TestGoRejectsNonExit(t *testing.T) {
	e := newTestEngine(t, testDefs())
	e.Intro()

	res := e.Step("go iron_mine")
	if e.World.Player.Location != "iron_mine" {
		t.Fatalf("location = %q", e.World.Player.Location)
	}
	if !contains(res.Output, "A dark mine shaft.") {
		t.Error("arrival must describe the destination")
	}

	res = e.Step("go blacksmith_shop")
	if e.World.Player.Location != "iron_mine" {
		t.Error("player moved through a missing exit")
	}
	if !contains(res.Output, "You can't go that way.") {
		t.Errorf("output = %v", res.Output)
	}
}

func TestMineTradeQuestline(t *testing.T) {
	e := newTestEngine(t, testDefs())
	e.Intro()

	// First visit to the mine seeds the ore.
	res := e.Step("go iron mine")
	if !contains(res.Output, "Something glints in the rubble.") {
		t.Fatalf("output = %v, want the seed message", res.Output)
	}

	res = e.Step("take iron ore")
	if !contains(res.Output, "You take the iron ore.") {
		t.Fatalf("output = %v", res.Output)
	}
	if !contains(res.Output, "Quest started: Prove Your Worth.") {
		t.Error("item_taken trigger did not fire")
	}
	if e.World.QuestStage("prove_your_worth") != types.QuestInProgress {
		t.Fatalf("stage = %v", e.World.QuestStage("prove_your_worth"))
	}

	e.Step("go village square")
	res = e.Step("trade iron ore")
	if !contains(res.Output, "Rogan hammers the ore into a broad sword.") {
		t.Fatalf("output = %v", res.Output)
	}
	if !contains(res.Output, "Quest complete: Prove Your Worth.") {
		t.Error("item_traded trigger did not fire")
	}
	if !e.World.Player.HasItem("broad_sword") || e.World.Player.HasItem("iron_ore") {
		t.Errorf("inventory = %v, want the ore swapped for the sword", e.World.Player.Inventory)
	}
}

func TestShopAndBuy(t *testing.T) {
	e := newTestEngine(t, testDefs())
	e.Intro()

	res := e.Step("shop")
	if !contains(res.Output, "Rogan shows you the wares:") {
		t.Fatalf("output = %v", res.Output)
	}
	if !contains(res.Output, "rusty sword — 10 gold") {
		t.Errorf("output = %v, want the price list", res.Output)
	}

	res = e.Step("buy rusty sword")
	if !contains(res.Output, "You buy the rusty sword for 10 gold.") {
		t.Fatalf("output = %v", res.Output)
	}
	if e.World.Player.Gold != 5 {
		t.Errorf("gold = %d, want 5", e.World.Player.Gold)
	}
	if !e.World.Player.HasItem("rusty_sword") {
		t.Error("purchase did not land in inventory")
	}

	// A second sword costs more than the 5 gold left.
	res = e.Step("buy rusty sword")
	if !contains(res.Output, "You can't afford the rusty sword (10 gold).") {
		t.Errorf("output = %v", res.Output)
	}
	if e.World.Player.Gold != 5 {
		t.Error("failed purchase must not charge gold")
	}
}

func TestBuyNowhereToShop(t *testing.T) {
	e := newTestEngine(t, testDefs())
	e.Intro()
	e.Step("go iron mine")

	if res := e.Step("shop"); !contains(res.Output, "There's no shop here.") {
		t.Errorf("output = %v", res.Output)
	}
	if res := e.Step("buy rusty sword"); !contains(res.Output, "Nobody here sells rusty sword.") {
		t.Errorf("output = %v", res.Output)
	}
}

func TestCombatThroughTurnLoop(t *testing.T) {
	defs := testDefs()
	defs.Seeds["iron_mine"] = world.SeedDef{
		Location: "iron_mine",
		Monster:  "gnat",
		Message:  "A gnat whines out of the dark.",
	}
	e := newTestEngine(t, defs)
	e.Intro()

	res := e.Step("go iron mine")
	if !e.World.InCombat() {
		t.Fatal("seeded ambush must start combat")
	}
	if !hasEvent(res.Events, types.EventCombatStarted) {
		t.Errorf("events = %v, want combat_started", res.Events)
	}

	// Movement is locked during combat.
	res = e.Step("go village square")
	if !contains(res.Output, "no time for that mid-fight!") {
		t.Errorf("output = %v, want the combat gate", res.Output)
	}

	// One hit kills a 1 HP gnat regardless of the damage roll.
	gold := e.World.Player.Gold
	res = e.Step("attack")
	if e.World.InCombat() {
		t.Fatal("combat should be over")
	}
	if !hasEvent(res.Events, types.EventMonsterDefeated) || !hasEvent(res.Events, types.EventCombatEnded) {
		t.Errorf("events = %v", res.Events)
	}
	if e.World.Player.Gold != gold+3 {
		t.Errorf("gold = %d, want the kill reward", e.World.Player.Gold)
	}

	// settle consumed the terminal phase; the world is clean again.
	if e.World.Combat.Phase != world.PhaseIdle || e.World.Monster != nil {
		t.Errorf("combat = %+v, monster = %v", e.World.Combat, e.World.Monster)
	}
	e.World.CheckCombatInvariant()
}

func TestFinalQuestEndsGame(t *testing.T) {
	defs := testDefs()
	defs.Seeds["iron_mine"] = world.SeedDef{
		Location: "iron_mine",
		Items:    []string{"glimmering_gem"},
	}
	e := newTestEngine(t, defs)
	e.Intro()
	e.Step("go iron mine")

	res := e.Step("take glimmering gem")
	if !contains(res.Output, "The gem is found!") {
		t.Fatalf("output = %v", res.Output)
	}
	if !contains(res.Output, "Your tale is complete.") {
		t.Error("winning must print the closing line")
	}
	if !hasEvent(res.Events, types.EventGameWon) {
		t.Errorf("events = %v", res.Events)
	}
	if !e.World.Flag(world.FlagGameWon) || !e.World.Flag(world.FlagGameOver) {
		t.Error("final trigger must set both end flags")
	}

	// After the end only load, quit, help, stats and quests respond.
	res = e.Step("go village square")
	if !contains(res.Output, "The adventure is over.") {
		t.Errorf("output = %v, want the end-of-game gate", res.Output)
	}
	if res := e.Step("quests"); contains(res.Output, "The adventure is over.") {
		t.Error("the journal must stay readable after the end")
	}
	if res := e.Step("quit"); !res.Quit {
		t.Error("quit must work after the end")
	}
}

func TestSaveDisabledWithoutStore(t *testing.T) {
	e := newTestEngine(t, testDefs())
	e.Intro()

	if res := e.Step("save"); !contains(res.Output, "Saving is disabled.") {
		t.Errorf("output = %v", res.Output)
	}
	if res := e.Step("load"); !contains(res.Output, "Saving is disabled.") {
		t.Errorf("output = %v", res.Output)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, err := save.Open(filepath.Join(t.TempDir(), "saves.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	defs := testDefs()
	e := New(defs, Options{Seed: 7, Store: store})
	e.Intro()
	e.Step("go iron mine")
	e.Step("take iron ore")

	if res := e.Step("save before_trade"); !contains(res.Output, `Game saved to slot "before_trade".`) {
		t.Fatalf("output = %v", res.Output)
	}

	// Play past the save point, then rewind.
	e.Step("go village square")
	e.Step("trade iron ore")
	if e.World.QuestStage("prove_your_worth") != types.QuestComplete {
		t.Fatal("setup: trade should have completed the quest")
	}

	res := e.Step("load before_trade")
	if !contains(res.Output, `Game loaded from slot "before_trade".`) {
		t.Fatalf("output = %v", res.Output)
	}
	if e.World.Player.Location != "iron_mine" {
		t.Errorf("location = %q, want the saved position", e.World.Player.Location)
	}
	if e.World.QuestStage("prove_your_worth") != types.QuestInProgress {
		t.Errorf("stage = %v, want the saved stage", e.World.QuestStage("prove_your_worth"))
	}
	if !e.World.Player.HasItem("iron_ore") || e.World.Player.HasItem("broad_sword") {
		t.Errorf("inventory = %v", e.World.Player.Inventory)
	}
}

func TestMusicTransitionsOnMove(t *testing.T) {
	rec := &recordingAudio{}
	e := New(testDefs(), Options{Seed: 7, Audio: rec})
	e.Intro()

	if len(rec.categories) != 1 || rec.categories[0] != types.CategoryVillage {
		t.Fatalf("categories after intro = %v", rec.categories)
	}

	// Village square to blacksmith shop shares a music group: no change.
	e.Step("go blacksmith shop")
	if len(rec.categories) != 1 {
		t.Errorf("categories = %v, same group must not restart the track", rec.categories)
	}

	e.Step("go village square")
	e.Step("go iron mine")
	if len(rec.categories) != 2 || rec.categories[1] != types.CategoryCave {
		t.Errorf("categories = %v, want a cave transition", rec.categories)
	}
}

func TestVolumeAndMusicToggle(t *testing.T) {
	rec := &recordingAudio{enabled: true, volume: 1.0}
	e := New(testDefs(), Options{Seed: 7, Audio: rec})
	e.Intro()

	if res := e.Step("volume 0.5"); !contains(res.Output, "Volume set to 0.5.") {
		t.Errorf("output = %v", res.Output)
	}
	if rec.volume != 0.5 {
		t.Errorf("volume = %v", rec.volume)
	}

	if res := e.Step("music off"); !contains(res.Output, "Music off.") {
		t.Errorf("output = %v", res.Output)
	}
	if rec.enabled {
		t.Error("music off must disable the player")
	}

	res := e.Step("music")
	if !contains(res.Output, "Music is off (village, volume 0.5).") {
		t.Errorf("output = %v", res.Output)
	}
}

func TestHelpAndQuit(t *testing.T) {
	e := newTestEngine(t, testDefs())
	e.Intro()

	if res := e.Step("help"); !contains(res.Output, "Commands:") {
		t.Errorf("output = %v", res.Output)
	}
	res := e.Step("quit")
	if !res.Quit || !contains(res.Output, "Farewell, adventurer.") {
		t.Errorf("quit = %v, output = %v", res.Quit, res.Output)
	}
}

func TestParserErrorsSurfaceWithoutTurn(t *testing.T) {
	e := newTestEngine(t, testDefs())
	e.Intro()
	turn := e.World.TurnCount

	res := e.Step("frobnicate the gizmo")
	if len(res.Output) == 0 {
		t.Fatal("parse errors must be reported")
	}
	if e.World.TurnCount != turn {
		t.Error("a failed parse must not consume a turn")
	}
}

func TestDialogueOfflineFallback(t *testing.T) {
	e := newTestEngine(t, testDefs())
	e.Intro()

	res := e.Step("talk rogan about the gem")
	if !contains(res.Output, "Rogan") {
		t.Errorf("output = %v, want the canned offline reply", res.Output)
	}
	if !hasEvent(res.Events, types.EventNPCKeyword) {
		t.Errorf("events = %v", res.Events)
	}
	if len(e.World.NPCs["rogan"].Memory) != 2 {
		t.Errorf("memory = %v", e.World.NPCs["rogan"].Memory)
	}
}

func TestRNGPositionTracksTurns(t *testing.T) {
	defs := testDefs()
	defs.Encounters = []world.EncounterDef{
		{Location: "iron_mine", Monster: "gnat", Percent: 1},
	}
	e := newTestEngine(t, defs)
	e.Intro()
	delete(defs.Seeds, "iron_mine")

	e.Step("go iron mine")
	if e.World.RNGPosition != e.RNG.Position() {
		t.Errorf("recorded position %d != rng position %d", e.World.RNGPosition, e.RNG.Position())
	}
}
