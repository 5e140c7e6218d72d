package combat

import (
	"testing"

	"github.com/nathoo/fablecore/types"
	"github.com/nathoo/fablecore/world"
)

// stubRoller gives tests full control over every roll.
type stubRoller struct {
	percent  bool
	variance int
}

func (s stubRoller) Roll(sides int) int      { return 1 }
func (s stubRoller) Percent(chance int) bool { return s.percent }
func (s stubRoller) Variance(spread int) int { return s.variance }

func testWorld() *world.World {
	return &world.World{
		Player: world.Player{
			Location: "hidden_cave",
			HP:       20, MaxHP: 20,
			Quests: map[string]types.QuestStage{},
		},
		Locations: map[string]*world.Location{
			"hidden_cave": {Key: "hidden_cave"},
		},
		Flags: map[world.Flag]bool{},
	}
}

func wolfDef() world.MonsterDef {
	return world.MonsterDef{
		Key: "wolf", Name: "gray wolf",
		HP: 8, Attack: 3,
		RewardGold: 5, RewardItems: []string{"beast_fang"},
	}
}

func items() map[string]world.Item {
	return map[string]world.Item{
		"rusty_sword": {Key: "rusty_sword", Damage: 2},
	}
}

func TestBeginEntersCombat(t *testing.T) {
	w := testWorld()
	events := Begin(w, wolfDef(), "forest_path")

	if !w.InCombat() || w.Monster == nil {
		t.Fatal("Begin must set the monster and the combat flag together")
	}
	if w.Combat.Phase != world.PhasePlayerTurn {
		t.Errorf("phase = %s, want player_turn", w.Combat.Phase)
	}
	if w.Combat.ReturnTo != "forest_path" {
		t.Errorf("return location = %q, want where the player came from", w.Combat.ReturnTo)
	}
	if len(events) != 1 || events[0].Type != types.EventCombatStarted {
		t.Errorf("events = %v", events)
	}
	w.CheckCombatInvariant()
}

func TestBeginPanicsWhenAlreadyFighting(t *testing.T) {
	w := testWorld()
	Begin(w, wolfDef(), "forest_path")
	defer func() {
		if recover() == nil {
			t.Error("Begin during combat must panic")
		}
	}()
	Begin(w, wolfDef(), "forest_path")
}

func TestAttackDealsWeaponDamage(t *testing.T) {
	w := testWorld()
	Begin(w, wolfDef(), "forest_path")

	cfg := DefaultConfig()
	Attack(w, items(), stubRoller{}, cfg)

	// No weapon carried: unarmed 2 + variance 0 = 2.
	if got := 8 - w.Monster.HP; got != 2 {
		t.Errorf("unarmed damage = %d, want 2", got)
	}

	w.Player.Inventory = []string{"rusty_sword"}
	Attack(w, items(), stubRoller{}, cfg)
	if got := 6 - w.Monster.HP; got != 4 {
		t.Errorf("armed damage = %d, want 2+2", got)
	}
}

func TestAttackAlwaysAtLeastOne(t *testing.T) {
	w := testWorld()
	Begin(w, wolfDef(), "forest_path")

	cfg := DefaultConfig()
	cfg.UnarmedDamage = 0
	Attack(w, items(), stubRoller{variance: -1}, cfg)
	if got := 8 - w.Monster.HP; got != 1 {
		t.Errorf("damage floor = %d, want 1", got)
	}
}

func TestCombatEndsWhenMonsterDies(t *testing.T) {
	w := testWorld()
	Begin(w, wolfDef(), "forest_path")

	cfg := DefaultConfig()
	cfg.UnarmedDamage = 100
	_, events := Attack(w, items(), stubRoller{}, cfg)

	if w.InCombat() || w.Monster != nil {
		t.Fatal("winning must clear the monster and the combat flag")
	}
	if w.Combat.Phase != world.PhaseWon {
		t.Errorf("phase = %s, want won", w.Combat.Phase)
	}
	if w.Player.Gold != 5 {
		t.Errorf("reward gold = %d, want 5", w.Player.Gold)
	}
	if len(w.Player.Inventory) != 1 || w.Player.Inventory[0] != "beast_fang" {
		t.Errorf("reward items = %v", w.Player.Inventory)
	}

	var sawDefeated, sawEnded bool
	for _, ev := range events {
		switch ev.Type {
		case types.EventMonsterDefeated:
			sawDefeated = true
		case types.EventCombatEnded:
			sawEnded = true
			if ev.Data["outcome"] != "won" {
				t.Errorf("outcome = %v", ev.Data["outcome"])
			}
		}
	}
	if !sawDefeated || !sawEnded {
		t.Errorf("events = %v", events)
	}
	w.CheckCombatInvariant()
}

func TestDefendHalvesMonsterDamage(t *testing.T) {
	cfg := DefaultConfig()

	attacked := testWorld()
	Begin(attacked, wolfDef(), "forest_path")
	Attack(attacked, items(), stubRoller{}, cfg)

	defended := testWorld()
	Begin(defended, wolfDef(), "forest_path")
	Defend(defended, stubRoller{}, cfg)

	attackLoss := 20 - attacked.Player.HP
	defendLoss := 20 - defended.Player.HP
	if defendLoss >= attackLoss {
		t.Errorf("defending lost %d HP, attacking lost %d: defend must reduce damage", defendLoss, attackLoss)
	}
	// Wolf attack 3, variance 0, minus 50% rounded down = 2.
	if defendLoss != 2 {
		t.Errorf("defended damage = %d, want 2", defendLoss)
	}
}

func TestDefendResetsAfterOneRound(t *testing.T) {
	w := testWorld()
	Begin(w, wolfDef(), "forest_path")

	cfg := DefaultConfig()
	Defend(w, stubRoller{}, cfg)
	if w.Combat.Defending {
		t.Error("defending must reset once the monster has swung")
	}
}

func TestMonsterAlwaysHitsForMinimum(t *testing.T) {
	w := testWorld()
	def := wolfDef()
	def.Attack = 0
	Begin(w, def, "forest_path")

	cfg := DefaultConfig()
	Defend(w, stubRoller{variance: -1}, cfg)
	if got := 20 - w.Player.HP; got != cfg.MinMonsterHit {
		t.Errorf("monster damage = %d, want floor %d", got, cfg.MinMonsterHit)
	}
}

func TestFleeSuccess(t *testing.T) {
	// An ambush starts combat in the monster's room; escaping must drop
	// the player back where they came from, never in the same room.
	w := testWorld()
	Begin(w, wolfDef(), "forest_path")

	_, events := Flee(w, stubRoller{percent: true}, DefaultConfig())

	if w.InCombat() || w.Monster != nil {
		t.Fatal("successful flee must clear combat")
	}
	if w.Combat.Phase != world.PhaseFled {
		t.Errorf("phase = %s, want fled", w.Combat.Phase)
	}
	if w.Player.Location != "forest_path" {
		t.Errorf("location = %q, want the room the player arrived from", w.Player.Location)
	}
	if w.Player.Gold != 0 || len(w.Player.Inventory) != 0 {
		t.Error("fleeing must grant no rewards")
	}
	if len(events) != 1 || events[0].Data["outcome"] != "fled" {
		t.Errorf("events = %v", events)
	}
}

func TestFleeFailureGrantsFreeHit(t *testing.T) {
	w := testWorld()
	Begin(w, wolfDef(), "forest_path")

	Flee(w, stubRoller{percent: false}, DefaultConfig())

	if !w.InCombat() {
		t.Fatal("failed flee must keep combat going")
	}
	if w.Player.HP >= 20 {
		t.Error("failed flee must cost the player a monster hit")
	}
	if w.Combat.Phase != world.PhasePlayerTurn {
		t.Errorf("phase = %s, want player_turn", w.Combat.Phase)
	}
}

func TestPlayerDefeat(t *testing.T) {
	w := testWorld()
	w.Player.HP = 1
	Begin(w, wolfDef(), "forest_path")

	_, events := Defend(w, stubRoller{}, DefaultConfig())

	if !w.Flag(world.FlagGameOver) {
		t.Error("player defeat must set game over")
	}
	if w.Combat.Phase != world.PhaseLost {
		t.Errorf("phase = %s, want lost", w.Combat.Phase)
	}
	if w.Player.HP != 0 {
		t.Errorf("HP = %d, want clamped to 0", w.Player.HP)
	}

	var sawPlayerDefeated bool
	for _, ev := range events {
		if ev.Type == types.EventPlayerDefeated {
			sawPlayerDefeated = true
		}
	}
	if !sawPlayerDefeated {
		t.Errorf("events = %v", events)
	}
	w.CheckCombatInvariant()
}

func TestCombatTerminates(t *testing.T) {
	// With any fixed rolls, repeated attacks must end the fight: every
	// round removes at least 1 HP from someone.
	w := testWorld()
	Begin(w, wolfDef(), "forest_path")

	cfg := DefaultConfig()
	for i := 0; i < 100 && w.InCombat(); i++ {
		Attack(w, items(), stubRoller{}, cfg)
	}
	if w.InCombat() {
		t.Fatal("combat did not terminate")
	}
}

func TestEndTickConsumesTerminalPhases(t *testing.T) {
	w := testWorld()

	w.Combat.Phase = world.PhaseWon
	EndTick(w)
	if w.Combat.Phase != world.PhaseIdle {
		t.Errorf("phase after won tick = %s", w.Combat.Phase)
	}

	w.Combat.Phase = world.PhaseFled
	EndTick(w)
	if w.Combat.Phase != world.PhaseIdle {
		t.Errorf("phase after fled tick = %s", w.Combat.Phase)
	}

	// Lost is sticky: the defeat screen persists.
	w.Combat.Phase = world.PhaseLost
	EndTick(w)
	if w.Combat.Phase != world.PhaseLost {
		t.Errorf("lost phase must persist, got %s", w.Combat.Phase)
	}
}

func TestActionsOutsideCombatPanic(t *testing.T) {
	w := testWorld()
	defer func() {
		if recover() == nil {
			t.Error("Attack outside combat must panic")
		}
	}()
	Attack(w, items(), stubRoller{}, DefaultConfig())
}
