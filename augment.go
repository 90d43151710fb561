package fluxzero

import (
	"github.com/gorgonia/fluxzero/agent"
	"github.com/gorgonia/fluxzero/game"
)

// MirrorAugmenter adds the left-right mirror image of an example, when the
// game has one and it differs from the original.
func MirrorAugmenter(ex agent.Example) []agent.Example {
	m, ok := ex.State.(game.Mirrorer)
	if !ok {
		return []agent.Example{ex}
	}
	mirrored := agent.Example{
		State: m.Mirror(),
		Move:  game.Single(ex.State.ActionSpace()-1) - ex.Move,
	}
	if mirrored.State.Key() == ex.State.Key() {
		return []agent.Example{ex}
	}
	return []agent.Example{ex, mirrored}
}
