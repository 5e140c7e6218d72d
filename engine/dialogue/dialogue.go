// Package dialogue routes player utterances to an injected reply
// generator and accumulates per-NPC memory.
//
// The collaborator call is the only operation in the engine with real
// latency. It runs under a bounded timeout, and any failure degrades to
// a canned fallback line: dialogue can go generic, never fatal. The
// combat verb gate keeps this path unreachable during a fight.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/nathoo/fablecore/types"
	"github.com/nathoo/fablecore/world"
)

// ErrUnavailable is what Responder implementations wrap transport,
// auth, and quota failures in.
var ErrUnavailable = errors.New("dialogue unavailable")

// Responder generates an in-character NPC reply. Implementations must
// honor the context deadline. Memory is a read-only snapshot, oldest
// first; implementations must not retain it.
type Responder interface {
	GenerateReply(ctx context.Context, profile string, memory []string, utterance string) (string, error)
}

// DefaultTimeout bounds how long a turn waits on the collaborator.
const DefaultTimeout = 10 * time.Second

// Router mediates between the world and the reply generator.
type Router struct {
	Responder Responder // nil means permanently offline: every reply is a fallback
	Timeout   time.Duration
}

// NewRouter wires a router around a responder. A nil responder is valid
// and yields offline (fallback-only) dialogue.
func NewRouter(r Responder) *Router {
	return &Router{Responder: r, Timeout: DefaultTimeout}
}

// Converse appends the utterance to the NPC's memory, obtains a reply,
// records it, and emits the keyword event the quest engine matches
// trigger tables against. Keyword triggers see the player's utterance,
// not the generated reply.
func (r *Router) Converse(w *world.World, npcKey, utterance string) (string, []types.Event) {
	npc, ok := w.NPCs[npcKey]
	if !ok {
		panic(fmt.Sprintf("dialogue: unknown NPC %q", npcKey))
	}

	npc.Remember(fmt.Sprintf("Player said: %s (at %s)", utterance, w.Player.Location))

	reply := r.generate(npc, utterance)
	npc.Remember(fmt.Sprintf("%s replied: %s", npc.Name, reply))

	events := []types.Event{{
		Type: types.EventNPCKeyword,
		Data: map[string]any{"npc": npcKey, "text": utterance},
	}}
	return reply, events
}

func (r *Router) generate(npc *world.NPC, utterance string) string {
	if r.Responder == nil {
		return fallbackLine(npc)
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	reply, err := r.Responder.GenerateReply(ctx, npc.Personality, npc.MemorySnapshot(), utterance)
	if err != nil {
		log.Printf("dialogue: reply for %s failed: %v", npc.Key, err)
		return fallbackLine(npc)
	}
	if reply == "" {
		return fmt.Sprintf("%s nods. 'Fair enough.'", npc.Name)
	}
	return reply
}

func fallbackLine(npc *world.NPC) string {
	return fmt.Sprintf("%s frowns. 'Can't talk right now.'", npc.Name)
}
