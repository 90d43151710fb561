package agent

import (
	"context"

	"github.com/gorgonia/fluxzero/fluid"
	"github.com/gorgonia/fluxzero/game"
	"golang.org/x/exp/rand"
)

// Example is a position labelled with the move that should be played in it.
type Example struct {
	State game.State
	Move  game.Single
}

// Train erodes the tree towards labelled moves. For every example the labelled
// child of the position's root is backpropagated with a full reward
// TrainRepeat times at TrainLearningRate. Examples whose move is not a legal
// child are skipped. Train returns the number of examples learned.
func (a *Agent) Train(ctx context.Context, examples []Example) (int, error) {
	var learned int
	for i, ex := range examples {
		if err := ctx.Err(); err != nil {
			return learned, err
		}
		_, kids, err := a.prepare(ex.State)
		if err != nil {
			return learned, err
		}

		target := fluid.None
		for kid, m := range kids {
			if m == ex.Move {
				target = kid
				break
			}
		}
		if target == fluid.None {
			a.log.Debug().Int("example", i).Int32("move", int32(ex.Move)).Msg("labelled move is not legal; skipped")
			continue
		}
		for j := 0; j < a.TrainRepeat; j++ {
			if err := a.tree.Backpropagate(target, 1, a.TrainLearningRate); err != nil {
				return learned, err
			}
		}
		learned++
	}
	a.log.Info().Int("examples", len(examples)).Int("learned", learned).Msg("training done")
	return learned, nil
}

// SyntheticExamples plays n random openings of 4 to 8 moves and keeps the
// positions where the player to move can win at once, labelled with the
// lowest winning move.
func SyntheticExamples(newGame func() game.State, n int, r *rand.Rand) []Example {
	var retVal []Example
	for i := 0; i < n; i++ {
		g := newGame()
		opening := 4 + r.Intn(5)
		for j := 0; j < opening; j++ {
			moves := g.LegalMoves()
			if len(moves) == 0 {
				break
			}
			g.Apply(game.PlayerMove{Player: g.ToMove(), Single: moves[r.Intn(len(moves))]})
		}
		if m, ok := winningMove(g); ok {
			retVal = append(retVal, Example{State: g, Move: m})
		}
	}
	return retVal
}

// winningMove tries every legal move on g and takes it back again, so g is
// unchanged on return.
func winningMove(g game.State) (game.Single, bool) {
	player := g.ToMove()
	for _, m := range g.LegalMoves() {
		g.Apply(game.PlayerMove{Player: player, Single: m})
		ended, winner := g.Ended()
		g.UndoLastMove()
		if ended && winner == player {
			return m, true
		}
	}
	return Pass, false
}
