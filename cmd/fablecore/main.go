// FableCore is a single-player text adventure engine with data-driven
// content, generated NPC dialogue, and adaptive music selection.
// Usage: fablecore [--version] [--plain] [--script <file>] [--trace] [--seed <n>] <game_directory>
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nathoo/fablecore/audio"
	"github.com/nathoo/fablecore/cli"
	"github.com/nathoo/fablecore/config"
	"github.com/nathoo/fablecore/engine"
	"github.com/nathoo/fablecore/engine/save"
	"github.com/nathoo/fablecore/llm"
	"github.com/nathoo/fablecore/loader"
	"github.com/nathoo/fablecore/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	plain := false
	trace := false
	var seed int64
	var gameDir string
	var scriptFile string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("fablecore %s (commit %s, built %s)\n", version, commit, date)
			return
		case "--plain":
			plain = true
		case "--trace":
			trace = true
		case "--seed":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--seed requires a number\n")
				os.Exit(1)
			}
			i++
			n, err := strconv.ParseInt(args[i], 10, 64)
			if err != nil {
				fmt.Fprintf(os.Stderr, "invalid seed %q\n", args[i])
				os.Exit(1)
			}
			seed = n
		case "--script":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--script requires a file path\n")
				os.Exit(1)
			}
			i++
			scriptFile = args[i]
		default:
			if gameDir == "" {
				gameDir = args[i]
			}
		}
	}

	if gameDir == "" {
		fmt.Fprintf(os.Stderr, "Usage: fablecore [--version] [--plain] [--script <file>] [--trace] [--seed <n>] <game_directory>\n")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Load and compile Lua game content.
	defs, err := loader.Load(gameDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading game: %v\n", err)
		os.Exit(1)
	}

	opts := engine.Options{Seed: seed}

	// Dialogue degrades to canned lines when no key is configured.
	if cfg.GeminiAPIKey != "" {
		client, err := llm.NewClient(context.Background(), cfg.GeminiAPIKey, cfg.Model)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: dialogue disabled: %v\n", err)
		} else {
			defer client.Close()
			opts.Responder = client
		}
	}

	if err := os.MkdirAll(filepath.Dir(cfg.SavePath), 0o755); err == nil {
		store, err := save.Open(cfg.SavePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: saving disabled: %v\n", err)
		} else {
			defer store.Close()
			opts.Store = store
		}
	}

	console := audio.NewConsole(os.Stdout)
	console.SetEnabled(cfg.MusicEnabled)
	console.SetVolume(cfg.Volume)
	opts.Audio = console

	eng := engine.New(defs, opts)

	// Script mode: open file, force plain, echo commands.
	if scriptFile != "" {
		f, err := os.Open(scriptFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening script: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		fmt.Printf("%s v%s by %s\n\n", defs.Game.Title, defs.Game.Version, defs.Game.Author)
		c := cli.New(eng)
		c.In = f
		c.EchoInput = true
		c.Trace = trace
		c.Run()
		return
	}

	// Use plain CLI if --plain flag or stdout is not a terminal.
	if plain || !isTerminal() {
		fmt.Printf("%s v%s by %s\n\n", defs.Game.Title, defs.Game.Version, defs.Game.Author)
		c := cli.New(eng)
		c.Trace = trace
		c.Run()
		return
	}

	// The TUI draws music state in the status bar instead of narrating it.
	eng.Audio = audio.Null{}
	if err := tui.Run(eng); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
