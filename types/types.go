// Package types defines the shared data structures for the FableCore engine.
// This package contains only closed enums and value types — no game logic.
package types

import "fmt"

// Verb is the closed set of player commands produced by the parser.
// Every consumer switches exhaustively on this type; an unhandled verb
// is caught in review, not discovered as a silent no-op at runtime.
type Verb string

const (
	VerbLook      Verb = "look"
	VerbGo        Verb = "go"
	VerbTalk      Verb = "talk"
	VerbAsk       Verb = "ask"
	VerbShop      Verb = "shop"
	VerbBuy       Verb = "buy"
	VerbTake      Verb = "take"
	VerbDrop      Verb = "drop"
	VerbTrade     Verb = "trade"
	VerbInventory Verb = "inventory"
	VerbStats     Verb = "stats"
	VerbQuests    Verb = "quests"
	VerbAttack    Verb = "attack"
	VerbDefend    Verb = "defend"
	VerbFlee      Verb = "flee"
	VerbSave      Verb = "save"
	VerbLoad      Verb = "load"
	VerbMusic     Verb = "music"
	VerbVolume    Verb = "volume"
	VerbHelp      Verb = "help"
	VerbQuit      Verb = "quit"
)

// Action is the structured form of a parsed player command.
type Action struct {
	Verb   Verb
	Target string  // canonical entity key (location, item, or NPC)
	Text   string  // opaque payload: dialogue text, save slot, on/off
	Amount float64 // numeric argument (volume)
}

// QuestStage is an ordered position in a quest's fixed progression.
// Transitions only ever move to a strictly greater stage.
type QuestStage int

const (
	QuestNotStarted QuestStage = iota
	QuestInProgress
	QuestComplete
)

var stageNames = map[QuestStage]string{
	QuestNotStarted: "not_started",
	QuestInProgress: "in_progress",
	QuestComplete:   "complete",
}

func (q QuestStage) String() string {
	if s, ok := stageNames[q]; ok {
		return s
	}
	return fmt.Sprintf("stage(%d)", int(q))
}

// ParseQuestStage converts the canonical stage name used in game content
// and save files back to a QuestStage.
func ParseQuestStage(s string) (QuestStage, error) {
	for stage, name := range stageNames {
		if name == s {
			return stage, nil
		}
	}
	return QuestNotStarted, fmt.Errorf("unknown quest stage %q", s)
}

// MarshalText stores stages by name so save files stay readable.
func (q QuestStage) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

func (q *QuestStage) UnmarshalText(b []byte) error {
	stage, err := ParseQuestStage(string(b))
	if err != nil {
		return err
	}
	*q = stage
	return nil
}

// EventType classifies events emitted by a turn.
type EventType string

const (
	EventLocationEntered EventType = "location_entered"
	EventItemTaken       EventType = "item_taken"
	EventItemTraded      EventType = "item_traded"
	EventNPCKeyword      EventType = "npc_keyword"
	EventMonsterDefeated EventType = "monster_defeated"
	EventCombatStarted   EventType = "combat_started"
	EventCombatEnded     EventType = "combat_ended"
	EventPlayerDefeated  EventType = "player_defeated"
	EventQuestAdvanced   EventType = "quest_advanced"
	EventGameWon         EventType = "game_won"
)

// Event is emitted after state mutations and consumed by the quest engine.
type Event struct {
	Type EventType
	Data map[string]any
}

// Result is the output of a single game step.
type Result struct {
	Output []string
	Events []Event
	Quit   bool
}

// Category is a symbolic music tag. Selection is decoupled from playback:
// the audio collaborator may ignore it entirely ("silent mode").
type Category int

const (
	CategoryNone Category = iota
	CategoryVillage
	CategoryForest
	CategoryCave
	CategoryRuins
	CategoryCombat
	CategoryBoss
	CategoryVictory
	CategoryDefeat
)

var categoryNames = map[Category]string{
	CategoryNone:    "none",
	CategoryVillage: "village",
	CategoryForest:  "forest",
	CategoryCave:    "cave",
	CategoryRuins:   "ruins",
	CategoryCombat:  "combat",
	CategoryBoss:    "boss",
	CategoryVictory: "victory",
	CategoryDefeat:  "defeat",
}

func (c Category) String() string {
	if s, ok := categoryNames[c]; ok {
		return s
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// ParseCategory converts a music group name from game content.
func ParseCategory(s string) (Category, error) {
	for cat, name := range categoryNames {
		if name == s {
			return cat, nil
		}
	}
	return CategoryNone, fmt.Errorf("unknown music category %q", s)
}
