package fluxzero

import (
	"sync"

	"github.com/gorgonia/fluxzero/game"
)

// A Contestant is a Player taking part in an arena, along with its record.
type Contestant struct {
	Player
	Colour game.Player

	// Statistics
	Wins float32
	Loss float32
	Draw float32
	sync.Mutex

	name string
}

// Name of the contestant.
func (c *Contestant) Name() string { return c.name }

func (c *Contestant) resetStats() {
	c.Lock()
	c.Wins = 0
	c.Loss = 0
	c.Draw = 0
	c.Unlock()
}
