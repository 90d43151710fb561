// Package agent plays two player games with a fluid tree.
//
// Every position the agent is asked about becomes the root of its own search
// tree inside one shared fluid.Tree. The root is expanded with one child per
// legal move, and each simulation flows down to a child, plays a random game
// from there, and erodes the child's conductivity towards the result.
package agent

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/chewxy/math32"
	"github.com/gorgonia/fluxzero/fluid"
	"github.com/gorgonia/fluxzero/game"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/tidwall/btree"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
	"gorgonia.org/vecf32"
)

const Pass game.Single = -1

// ErrNoMoves is returned when a search is asked about a finished game.
var ErrNoMoves = errors.New("no legal moves")

// Agent is a FluxAgent: a game player backed by a fluid tree.
type Agent struct {
	Config

	tree    *fluid.Tree
	log     zerolog.Logger
	metrics fluid.Metrics

	mu    sync.Mutex
	index btree.Map[string, fluid.NodeID] // position key -> search root
	moves map[fluid.NodeID]game.Single    // child -> move leading to it
	rand  *rand.Rand
	seeds uint64
}

// Option configures an Agent.
type Option func(a *Agent)

func WithLogger(logger zerolog.Logger) Option {
	return func(a *Agent) { a.log = logger }
}

// WithMetrics makes the agent's tree report to m.
func WithMetrics(m fluid.Metrics) Option {
	return func(a *Agent) {
		if m != nil {
			a.metrics = m
		}
	}
}

// New creates an agent with an empty tree.
func New(conf Config, opts ...Option) *Agent {
	a := &Agent{
		Config:  conf,
		log:     zerolog.Nop(),
		metrics: fluid.NopMetrics{},
		moves:   make(map[fluid.NodeID]game.Single),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.Workers < 1 {
		a.Workers = 1
	}
	a.tree = fluid.New(
		fluid.WithSelectionPolicy(conf.selectionPolicy()),
		fluid.WithUpdatePolicy(conf.updatePolicy()),
		fluid.WithSeed(conf.Seed),
		fluid.WithLogger(a.log.With().Str("component", "tree").Logger()),
		fluid.WithMetrics(a.metrics),
	)
	a.rand = rand.New(rand.NewSource(conf.Seed ^ 0x5eed))
	return a
}

// Tree returns the underlying tree.
func (a *Agent) Tree() *fluid.Tree { return a.tree }

// Close releases the tree.
func (a *Agent) Close() error { return a.tree.Close() }

// Root returns the search root of a position, if the agent has seen it.
func (a *Agent) Root(state game.State) (fluid.NodeID, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if root, ok := a.index.Get(state.Key()); ok {
		return root, true
	}
	return fluid.None, false
}

// Positions returns the number of positions with a search root.
func (a *Agent) Positions() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.index.Len()
}

// prepare returns the search root of state, creating and expanding it as
// needed, along with the move each child stands for.
func (a *Agent) prepare(state game.State) (fluid.NodeID, map[fluid.NodeID]game.Single, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := state.Key()
	root, ok := a.index.Get(key)
	if !ok {
		var err error
		if root, err = a.tree.CreateNode(fluid.None); err != nil {
			return fluid.None, nil, err
		}
		a.index.Set(key, root)
		a.log.Debug().Int32("root", int32(root)).Int("move_number", state.MoveNumber()).Msg("new search root")
	}

	kids, err := a.tree.Children(root)
	if err != nil {
		return fluid.None, nil, err
	}
	if len(kids) == 0 {
		for _, m := range state.LegalMoves() {
			kid, err := a.tree.CreateChild(root)
			if err != nil {
				return fluid.None, nil, err
			}
			a.moves[kid] = m
			kids = append(kids, kid)
		}
	}

	retVal := make(map[fluid.NodeID]game.Single, len(kids))
	for _, kid := range kids {
		retVal[kid] = a.moves[kid]
	}
	return root, retVal, nil
}

func (a *Agent) nextSeed() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seeds++
	return a.Seed + a.seeds*0x9e3779b97f4a7c15
}

// Search runs the configured number of simulations from state and returns the
// move to play for the player to move.
//
// If ctx is cancelled the simulations stop early; the best move found so far
// is returned along with the context's error.
func (a *Agent) Search(ctx context.Context, state game.State) (game.Single, error) {
	if len(state.LegalMoves()) == 0 {
		return Pass, errors.WithStack(ErrNoMoves)
	}
	root, kids, err := a.prepare(state)
	if err != nil {
		return Pass, err
	}

	player := state.ToMove()
	var budget atomic.Int64
	budget.Store(int64(a.Simulations))

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < a.Workers; w++ {
		r := rand.New(rand.NewSource(a.nextSeed()))
		g.Go(func() error {
			for budget.Add(-1) >= 0 {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := a.simulate(root, kids, state, player, r); err != nil {
					return err
				}
			}
			return nil
		})
	}
	err = g.Wait()
	best := a.choose(root, kids, state)
	if err != nil {
		a.log.Warn().Err(err).Int32("root", int32(root)).Msg("search stopped early")
		return best, err
	}
	a.log.Debug().
		Int32("root", int32(root)).
		Int32("visits", a.tree.Visits(root)).
		Int32("move", int32(best)).
		Msgf("%v searched", player)
	return best, nil
}

// simulate runs one trial: select a child, play a random game from it, and
// backpropagate the result.
func (a *Agent) simulate(root fluid.NodeID, kids map[fluid.NodeID]game.Single, state game.State, player game.Player, r *rand.Rand) error {
	leaf, err := a.tree.SelectLeaf(root, a.Exploration)
	if err != nil {
		return err
	}
	move, ok := kids[leaf]
	if !ok {
		// the root had no children to flow into
		return nil
	}

	sim := state.Clone()
	sim.Apply(game.PlayerMove{Player: player, Single: move})
	reward := a.reward(rollout(sim, r), player)
	return a.tree.Backpropagate(leaf, reward, a.LearningRate)
}

// rollout plays uniformly random moves until the game ends, and returns the winner.
func rollout(sim game.State, r *rand.Rand) game.Player {
	for {
		if ended, winner := sim.Ended(); ended {
			return winner
		}
		moves := sim.LegalMoves()
		if len(moves) == 0 {
			return game.Player(game.None)
		}
		sim.Apply(game.PlayerMove{Player: sim.ToMove(), Single: moves[r.Intn(len(moves))]})
	}
}

func (a *Agent) reward(winner, player game.Player) float64 {
	switch winner {
	case player:
		return a.WinReward
	case game.Player(game.None):
		return a.DrawReward
	}
	return a.LossReward
}

// choose picks the move to play: the most visited child, or early in the game
// a child drawn by visits. A random legal move is played if neither is usable.
func (a *Agent) choose(root fluid.NodeID, kids map[fluid.NodeID]game.Single, state game.State) game.Single {
	best := a.tree.BestChild(root)
	if state.MoveNumber() < a.RandomCount {
		if r := a.randomize(root); r != fluid.None {
			best = r
		}
	}
	if move, ok := kids[best]; ok && state.Check(game.PlayerMove{Player: state.ToMove(), Single: move}) {
		return move
	}

	legal := state.LegalMoves()
	a.mu.Lock()
	move := legal[a.rand.Intn(len(legal))]
	a.mu.Unlock()
	a.log.Warn().Int32("root", int32(root)).Int32("move", int32(move)).Msg("no usable child; playing a random move")
	return move
}

// randomize draws a child of root with probability proportional to
// (visits/maxVisits)^(1/RandomTemperature). Children with RandomMinVisits or
// fewer visits are never drawn.
func (a *Agent) randomize(root fluid.NodeID) fluid.NodeID {
	kids, err := a.tree.Children(root)
	if err != nil || len(kids) == 0 {
		return fluid.None
	}
	norm := float32(a.tree.Visits(a.tree.BestChild(root)))
	if norm <= float32(a.RandomMinVisits) {
		return fluid.None
	}

	var accum float32
	candidates := make([]fluid.NodeID, 0, len(kids))
	accumVector := make([]float32, 0, len(kids))
	for _, kid := range kids {
		visits := a.tree.Visits(kid)
		if visits <= a.RandomMinVisits {
			continue
		}
		accum += math32.Pow(float32(visits)/norm, 1/a.RandomTemperature)
		accumVector = append(accumVector, accum)
		candidates = append(candidates, kid)
	}

	a.mu.Lock()
	rnd := a.rand.Float32() * accum
	a.mu.Unlock()
	for i, acc := range accumVector {
		if rnd < acc {
			return candidates[i]
		}
	}
	return candidates[len(candidates)-1]
}

// Follow walks the searched positions from state along moves and returns the
// search root of the position it ends in. A move that was never searched is
// replaced by the nearest searched one within tolerance. None is returned when
// state was never searched or the walk gets lost.
func (a *Agent) Follow(state game.State, moves []game.Single, tolerance int) fluid.NodeID {
	start, ok := a.Root(state)
	if !ok {
		return fluid.None
	}
	states := map[fluid.NodeID]game.State{start: state}
	lookup := func(root fluid.NodeID) map[int]fluid.NodeID {
		s, ok := states[root]
		if !ok {
			return nil
		}
		kids, err := a.tree.Children(root)
		if err != nil {
			return nil
		}
		retVal := make(map[int]fluid.NodeID, len(kids))
		for _, kid := range kids {
			a.mu.Lock()
			m, ok := a.moves[kid]
			a.mu.Unlock()
			if !ok {
				continue
			}
			next := s.Clone()
			next.Apply(game.PlayerMove{Player: next.ToMove(), Single: m})
			if r, ok := a.Root(next); ok {
				retVal[int(m)] = r
				states[r] = next
			}
		}
		return retVal
	}

	line := make([]int, len(moves))
	for i, m := range moves {
		line[i] = int(m)
	}
	return fluid.TraverseFuzzy(start, line, lookup, 0, tolerance)
}

// Policy returns the share of visits each move got in the search of state,
// indexed by move. It is all zeros for a position the agent never searched.
func (a *Agent) Policy(state game.State) []float32 {
	retVal := make([]float32, state.ActionSpace())
	root, ok := a.Root(state)
	if !ok {
		return retVal
	}
	kids, err := a.tree.Children(root)
	if err != nil {
		return retVal
	}

	var sum float32
	a.mu.Lock()
	for _, kid := range kids {
		m := a.moves[kid]
		if m < 0 || int(m) >= len(retVal) {
			continue
		}
		v := float32(a.tree.Visits(kid))
		retVal[m] += v
		sum += v
	}
	a.mu.Unlock()
	if sum > 0 {
		vecf32.Scale(retVal, 1/sum)
	}
	return retVal
}
