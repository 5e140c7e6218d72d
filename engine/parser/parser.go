// Package parser converts raw command strings into Actions.
// Intentionally dumb: synonym tables and key matching, no NLP.
//
// The parser owns key normalization: every multi-word target is
// lower-cased, stripped of punctuation, and underscore-joined before it
// is matched against entity keys. Parsing never mutates the World.
package parser

import (
	"strconv"
	"strings"

	"github.com/nathoo/fablecore/types"
	"github.com/nathoo/fablecore/world"
)

var verbAliases = map[string]types.Verb{
	"look": types.VerbLook,
	"l":    types.VerbLook,

	"go":   types.VerbGo,
	"move": types.VerbGo,
	"walk": types.VerbGo,
	"head": types.VerbGo,

	"talk": types.VerbTalk,
	"say":  types.VerbTalk,
	"ask":  types.VerbAsk,

	"shop":     types.VerbShop,
	"buy":      types.VerbBuy,
	"purchase": types.VerbBuy,

	"take": types.VerbTake,
	"get":  types.VerbTake,
	"grab": types.VerbTake,
	"drop": types.VerbDrop,

	"trade": types.VerbTrade,
	"give":  types.VerbTrade,

	"inventory": types.VerbInventory,
	"inv":       types.VerbInventory,
	"i":         types.VerbInventory,
	"stats":     types.VerbStats,
	"quests":    types.VerbQuests,
	"q":         types.VerbQuests,
	"journal":   types.VerbQuests,

	"attack": types.VerbAttack,
	"hit":    types.VerbAttack,
	"strike": types.VerbAttack,
	"fight":  types.VerbAttack,
	"defend": types.VerbDefend,
	"block":  types.VerbDefend,
	"flee":   types.VerbFlee,
	"run":    types.VerbFlee,

	"save":   types.VerbSave,
	"load":   types.VerbLoad,
	"music":  types.VerbMusic,
	"volume": types.VerbVolume,

	"help": types.VerbHelp,
	"h":    types.VerbHelp,
	"?":    types.VerbHelp,
	"quit": types.VerbQuit,
	"exit": types.VerbQuit,
}

// combatVerbs is the hard gate: while in combat only these parse.
var combatVerbs = map[types.Verb]bool{
	types.VerbAttack:    true,
	types.VerbDefend:    true,
	types.VerbFlee:      true,
	types.VerbInventory: true,
	types.VerbStats:     true,
	types.VerbQuit:      true,
}

// Normalize produces the canonical underscore-joined lowercase key form
// used for all entity lookups.
func Normalize(s string) string {
	return strings.Join(tokenize(s), "_")
}

// tokenize lower-cases, strips punctuation, and splits on whitespace.
func tokenize(s string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ', r == '\t':
			return ' '
		default:
			return -1
		}
	}, s)
	return strings.Fields(cleaned)
}

// Parse converts raw input into an Action, resolving synonyms and
// multi-word targets against the current world state.
func Parse(raw string, w *world.World) (types.Action, error) {
	words := tokenize(raw)
	var verb types.Verb
	var rest []string
	switch {
	case len(words) > 0:
		v, ok := verbAliases[words[0]]
		if !ok {
			return types.Action{}, &UnknownCommandError{Input: words[0]}
		}
		verb, rest = v, words[1:]
	default:
		// tokenize strips punctuation, which would eat aliases like
		// "?"; match the raw word against the alias table directly.
		f := strings.Fields(raw)
		if len(f) == 0 {
			return types.Action{}, &UnknownCommandError{Input: raw}
		}
		v, ok := verbAliases[f[0]]
		if !ok {
			return types.Action{}, &UnknownCommandError{Input: raw}
		}
		verb = v
	}

	// "talk to X" — drop the particle before the gate so the error
	// names the verb the player meant.
	if verb == types.VerbTalk && len(rest) > 0 && rest[0] == "to" {
		rest = rest[1:]
	}

	if w.InCombat() && !combatVerbs[verb] {
		return types.Action{}, &CombatLockedError{Verb: verb}
	}

	switch verb {
	case types.VerbGo:
		return parseGo(rest, w)
	case types.VerbTalk:
		return parseTalk(rest, w)
	case types.VerbAsk:
		return parseAsk(rest, w)
	case types.VerbTake:
		return parseItemVerb(verb, rest, w.Here().Items)
	case types.VerbDrop, types.VerbTrade:
		return parseItemVerb(verb, rest, w.Player.Inventory)
	case types.VerbBuy:
		// Stock isn't visible to the parser; pass the normalized key
		// through and let the shop reject unknown wares.
		if len(rest) == 0 {
			return types.Action{}, &UnknownTargetError{Name: "that"}
		}
		return types.Action{Verb: verb, Target: strings.Join(rest, "_")}, nil
	case types.VerbSave, types.VerbLoad:
		return types.Action{Verb: verb, Text: strings.Join(rest, "_")}, nil
	case types.VerbMusic:
		return types.Action{Verb: verb, Text: strings.Join(rest, " ")}, nil
	case types.VerbVolume:
		// tokenize strips the decimal point, so read the raw argument.
		return parseVolume(strings.Fields(raw)[1:])
	default:
		return types.Action{Verb: verb}, nil
	}
}

func parseGo(rest []string, w *world.World) (types.Action, error) {
	if len(rest) == 0 {
		return types.Action{}, &UnknownTargetError{Name: "where"}
	}
	name := strings.Join(rest, "_")

	// Exits of the current location first, then the global registry so
	// "go village" works from anywhere the engine will still reject.
	here := w.Here()
	if key, err := resolveKey(name, here.Exits); err == nil {
		return types.Action{Verb: types.VerbGo, Target: key}, nil
	} else if isAmbiguous(err) {
		return types.Action{}, err
	}

	all := make([]string, 0, len(w.Locations))
	for key := range w.Locations {
		all = append(all, key)
	}
	key, err := resolveKey(name, all)
	if err != nil {
		if isAmbiguous(err) {
			return types.Action{}, err
		}
		// No registry match at all: hand the normalized key to the
		// engine, which answers "you can't go that way".
		key = name
	}
	return types.Action{Verb: types.VerbGo, Target: key}, nil
}

func parseTalk(rest []string, w *world.World) (types.Action, error) {
	npc, payload, err := splitNPC(rest, w)
	if err != nil {
		return types.Action{}, err
	}
	text := strings.Join(payload, " ")
	if text == "" {
		text = "Hello."
	}
	return types.Action{Verb: types.VerbTalk, Target: npc, Text: text}, nil
}

func parseAsk(rest []string, w *world.World) (types.Action, error) {
	about := -1
	for i, tok := range rest {
		if tok == "about" {
			about = i
			break
		}
	}
	if about <= 0 || about == len(rest)-1 {
		return types.Action{}, &UnknownCommandError{Input: "ask", Hint: "try: ask <npc> about <topic>"}
	}
	npc, extra, err := splitNPC(rest[:about], w)
	if err != nil {
		return types.Action{}, err
	}
	if len(extra) > 0 {
		return types.Action{}, &UnknownTargetError{Name: strings.Join(rest[:about], " ")}
	}
	topic := strings.Join(rest[about+1:], " ")
	return types.Action{Verb: types.VerbAsk, Target: npc, Text: "Tell me about " + topic + "."}, nil
}

// splitNPC finds the longest leading run of tokens naming an NPC present
// in the player's location; the remaining tokens are opaque payload.
func splitNPC(rest []string, w *world.World) (npc string, payload []string, err error) {
	if len(rest) == 0 {
		return "", nil, &UnknownTargetError{Name: "whom"}
	}
	here := w.Here()
	for n := len(rest); n >= 1; n-- {
		key := strings.Join(rest[:n], "_")
		if here.HasNPC(key) {
			return key, rest[n:], nil
		}
	}
	// Prefix match on the first token alone: "talk black hello".
	if key, err := resolveKey(rest[0], here.NPCs); err == nil {
		return key, rest[1:], nil
	} else if isAmbiguous(err) {
		return "", nil, err
	}
	return "", nil, &UnknownTargetError{Name: strings.ReplaceAll(rest[0], "_", " ")}
}

func parseItemVerb(verb types.Verb, rest []string, known []string) (types.Action, error) {
	if len(rest) == 0 {
		return types.Action{}, &UnknownTargetError{Name: "what"}
	}
	name := strings.Join(rest, "_")
	key, err := resolveKey(name, known)
	if err != nil {
		if isAmbiguous(err) {
			return types.Action{}, err
		}
		// Unmatched keys flow through so the engine can answer with
		// the right complaint ("you don't see that" vs "not carried").
		key = name
	}
	return types.Action{Verb: verb, Target: key}, nil
}

func parseVolume(rest []string) (types.Action, error) {
	if len(rest) == 0 {
		return types.Action{}, &UnknownCommandError{Input: "volume", Hint: "try: volume <0.0-1.0>"}
	}
	v, err := strconv.ParseFloat(rest[0], 64)
	if err != nil || v < 0 || v > 1 {
		return types.Action{}, &UnknownCommandError{Input: "volume", Hint: "volume must be between 0.0 and 1.0"}
	}
	return types.Action{Verb: types.VerbVolume, Amount: v}, nil
}

// resolveKey matches a normalized name against known keys: exact match
// wins; otherwise a prefix or substring match must be unique.
func resolveKey(name string, known []string) (string, error) {
	for _, key := range known {
		if key == name {
			return key, nil
		}
	}

	var matches []string
	for _, key := range known {
		if strings.HasPrefix(key, name) || strings.Contains(key, name) {
			matches = append(matches, key)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", &UnknownTargetError{Name: strings.ReplaceAll(name, "_", " ")}
	default:
		return "", &AmbiguousTargetError{Name: strings.ReplaceAll(name, "_", " "), Candidates: matches}
	}
}

func isAmbiguous(err error) bool {
	_, ok := err.(*AmbiguousTargetError)
	return ok
}
