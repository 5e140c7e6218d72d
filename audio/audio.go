// Package audio is the playback boundary. The engine selects symbolic
// categories; what happens to them is this package's business, and
// "nothing" is a valid answer.
package audio

import (
	"fmt"
	"io"

	"github.com/nathoo/fablecore/types"
)

// Player receives category transitions from the engine. Implementations
// must be cheap to call every turn: the engine invokes SetCategory only
// on change, but never waits on playback.
type Player interface {
	SetCategory(cat types.Category)
	SetEnabled(on bool)
	SetVolume(v float64)
	Enabled() bool
	Volume() float64
}

// Null discards everything. Used for scripted runs and tests.
type Null struct{}

func (Null) SetCategory(types.Category) {}
func (Null) SetEnabled(bool)            {}
func (Null) SetVolume(float64)          {}
func (Null) Enabled() bool              { return false }
func (Null) Volume() float64            { return 0 }

// Console narrates transitions as text, standing in for a real backend.
type Console struct {
	W       io.Writer
	enabled bool
	volume  float64
	current types.Category
}

// NewConsole creates a console player writing to w, enabled at full
// volume.
func NewConsole(w io.Writer) *Console {
	return &Console{W: w, enabled: true, volume: 1.0}
}

func (c *Console) SetCategory(cat types.Category) {
	c.current = cat
	if !c.enabled || cat == types.CategoryNone {
		return
	}
	fmt.Fprintf(c.W, "♪ [%s theme, volume %.1f]\n", cat, c.volume)
}

func (c *Console) SetEnabled(on bool) {
	c.enabled = on
}

func (c *Console) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	c.volume = v
}

func (c *Console) Enabled() bool   { return c.enabled }
func (c *Console) Volume() float64 { return c.volume }
