package fluxzero

import (
	"context"
	"sync"

	"github.com/gorgonia/fluxzero/agent"
	"github.com/gorgonia/fluxzero/game"
	"golang.org/x/exp/rand"
)

// RandomPlayer plays a uniformly random legal move.
type RandomPlayer struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewRandomPlayer(seed uint64) *RandomPlayer {
	return &RandomPlayer{r: rand.New(rand.NewSource(seed))}
}

func (p *RandomPlayer) Search(ctx context.Context, g game.State) (game.Single, error) {
	if err := ctx.Err(); err != nil {
		return agent.Pass, err
	}
	moves := g.LegalMoves()
	if len(moves) == 0 {
		return agent.Pass, agent.ErrNoMoves
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return moves[p.r.Intn(len(moves))], nil
}
