// Package cli provides terminal I/O, output formatting, and meta-command
// dispatch for the FableCore engine.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nathoo/fablecore/engine"
	"github.com/nathoo/fablecore/types"
	"github.com/nathoo/fablecore/world"
)

// CLI handles terminal interaction with the player.
type CLI struct {
	Engine    *engine.Engine
	In        io.Reader
	Out       io.Writer
	Trace     bool
	EchoInput bool   // echo each input line after the prompt (for script playback)
	lastCmd   string // for "again"/"g" repeat
}

// New creates a CLI wired to the given engine.
func New(eng *engine.Engine) *CLI {
	return &CLI{
		Engine: eng,
		In:     os.Stdin,
		Out:    os.Stdout,
	}
}

// Run starts the game loop. It shows the intro and the starting
// location, then loops: prompt → input → dispatch → output.
func (c *CLI) Run() {
	c.printResult(c.Engine.Intro())

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		// Meta-commands start with '/'.
		if strings.HasPrefix(input, "/") {
			if c.handleMeta(input) {
				return // /quit
			}
			continue
		}

		// "again" / "g" repeats the last game command.
		lower := strings.ToLower(input)
		if lower == "again" || lower == "g" {
			if c.lastCmd == "" {
				c.printLine("Nothing to repeat.")
				continue
			}
			input = c.lastCmd
		} else {
			c.lastCmd = input
		}

		result := c.Engine.Step(input)
		c.printResult(result)

		if c.Trace {
			c.printTrace(result)
		}
		if result.Quit {
			return
		}
	}
}

// handleMeta dispatches meta-commands. Returns true if the game should exit.
func (c *CLI) handleMeta(input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true

	case "/help":
		c.cmdHelp()

	case "/state":
		c.cmdState()

	case "/saves":
		c.cmdSaves()

	case "/trace":
		c.Trace = !c.Trace
		if c.Trace {
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false
}

func (c *CLI) cmdHelp() {
	help := []string{
		"System:",
		"  /saves        — List save slots",
		"  /state        — Debug: dump current state",
		"  /trace        — Toggle debug trace output",
		"  /help         — Show this help",
		"  /quit         — Exit game",
		"",
		"Game commands (save/load are part of the game — see 'help'):",
		"  again (g)     — Repeat your last command",
	}
	for _, line := range help {
		c.printLine(line)
	}
	c.printResult(c.Engine.Step("help"))
}

func (c *CLI) cmdState() {
	w := c.Engine.World
	c.printSystem(fmt.Sprintf("Turn: %d", w.TurnCount))
	c.printSystem(fmt.Sprintf("Location: %s", w.Player.Location))
	c.printSystem(fmt.Sprintf("HP: %d/%d  Gold: %d", w.Player.HP, w.Player.MaxHP, w.Player.Gold))
	c.printSystem(fmt.Sprintf("Inventory: %v", w.Player.Inventory))
	c.printSystem(fmt.Sprintf("Quests: %v", w.Player.Quests))
	if w.InCombat() {
		c.printSystem(fmt.Sprintf("Combat: %s vs %s (%d HP), round %d",
			w.Combat.Phase, w.Monster.Name, w.Monster.HP, w.Combat.Rounds))
	}
	if len(w.Flags) > 0 {
		set := make([]string, 0, len(w.Flags))
		for f, v := range w.Flags {
			if v {
				set = append(set, string(f))
			}
		}
		c.printSystem(fmt.Sprintf("Flags: %v", set))
	}
}

func (c *CLI) cmdSaves() {
	if c.Engine.Store == nil {
		c.printSystem("Saving is disabled.")
		return
	}
	slots, err := c.Engine.Store.List()
	if err != nil {
		c.printSystem(fmt.Sprintf("List failed: %v", err))
		return
	}
	if len(slots) == 0 {
		c.printSystem("No saves yet.")
		return
	}
	c.printSystem("Saves: " + strings.Join(slots, ", "))
}

func (c *CLI) printTrace(result types.Result) {
	if len(result.Events) > 0 {
		c.printSystem(fmt.Sprintf("[trace] Events: %d", len(result.Events)))
		for _, e := range result.Events {
			c.printSystem(fmt.Sprintf("[trace]   %s %v", e.Type, e.Data))
		}
	}
	c.printSystem(fmt.Sprintf("[trace] Music: %s", c.Engine.Music.Current()))
	if c.Engine.World.Flag(world.FlagGameOver) {
		c.printSystem("[trace] Game over.")
	}
}

func (c *CLI) printResult(result types.Result) {
	for _, line := range result.Output {
		c.printLine(line)
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
