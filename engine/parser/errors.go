package parser

import (
	"fmt"
	"strings"

	"github.com/nathoo/fablecore/types"
)

// Parse errors are always recoverable: the caller prints the message as
// a hint and takes no state action.

// UnknownCommandError indicates an unrecognized verb or malformed form.
type UnknownCommandError struct {
	Input string
	Hint  string
}

func (e *UnknownCommandError) Error() string {
	if e.Hint != "" {
		return e.Hint
	}
	if e.Input == "" || strings.TrimSpace(e.Input) == "" {
		return "say or do something — type 'help' for commands"
	}
	return fmt.Sprintf("I don't understand %q — type 'help' for commands", e.Input)
}

// AmbiguousTargetError indicates a name that matched several keys.
type AmbiguousTargetError struct {
	Name       string
	Candidates []string
}

func (e *AmbiguousTargetError) Error() string {
	names := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		names[i] = strings.ReplaceAll(c, "_", " ")
	}
	return fmt.Sprintf("which %s? (%s)", e.Name, strings.Join(names, ", "))
}

// UnknownTargetError indicates a name that matched nothing usable.
type UnknownTargetError struct {
	Name string
}

func (e *UnknownTargetError) Error() string {
	return fmt.Sprintf("you don't see %q here", e.Name)
}

// CombatLockedError rejects non-combat verbs while a fight is on. This
// is a hard gate, not a warning: the action never reaches the engine.
type CombatLockedError struct {
	Verb types.Verb
}

func (e *CombatLockedError) Error() string {
	return fmt.Sprintf("no time for that mid-fight! (%s) — try: attack, defend, or flee", e.Verb)
}
