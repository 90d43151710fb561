package agent

import (
	"context"
	"testing"

	"github.com/gorgonia/fluxzero/game"
	"github.com/gorgonia/fluxzero/game/mnk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestSyntheticExamples(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	examples := SyntheticExamples(newGame, 300, r)
	require.NotEmpty(t, examples)

	for _, ex := range examples {
		player := ex.State.ToMove()
		sim := ex.State.Clone()
		sim.Apply(game.PlayerMove{Player: player, Single: ex.Move})
		ended, winner := sim.Ended()
		assert.True(t, ended)
		assert.Equal(t, player, winner)

		n := ex.State.MoveNumber()
		assert.True(t, n >= 4 && n <= 8, "opening of %d moves", n)
	}
}

func TestWinningMove(t *testing.T) {
	cases := map[string]struct {
		g    game.State
		want game.Single
		ok   bool
	}{
		"nothing yet":   {apply(newGame(), 2, 5, 2, 5, 2), 0, false},
		"blocked":       {apply(newGame(), 2, 5, 2, 5, 2, 2), 0, false},
		"four to win":   {apply(newGame(), 2, 5, 2, 5, 2, 6), 2, true},
		"tic-tac-toe":   {apply(mnk.TicTacToe(), 0, 3, 1, 4), 2, true},
		"no tac to win": {apply(mnk.TicTacToe(), 4), 0, false},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			before := c.g.Clone()
			m, ok := winningMove(c.g)
			assert.Equal(t, c.ok, ok)
			if c.ok {
				assert.Equal(t, c.want, m)
			}
			assert.True(t, before.Eq(c.g), "trying moves leaves the position as it was")
		})
	}
}

func TestAgent_Train(t *testing.T) {
	a := New(testConfig())
	defer a.Close()

	g := apply(newGame(), 2, 5, 2, 5, 2, 6)
	examples := []Example{
		{State: g, Move: 2},
		{State: g.Clone(), Move: 9}, // not a legal move
	}
	learned, err := a.Train(context.Background(), examples)
	require.NoError(t, err)
	assert.Equal(t, 1, learned)

	root, ok := a.Root(g)
	require.True(t, ok)
	assert.Equal(t, int32(5), a.Tree().Visits(root))

	best := a.Tree().BestChild(root)
	assert.Equal(t, int32(5), a.Tree().Visits(best))
	// 0.5 eroded towards 1 five times at 0.2
	assert.InDelta(t, 1-0.5*0.8*0.8*0.8*0.8*0.8, a.Tree().Conductivity(best), 1e-9)

	policy := a.Policy(g)
	assert.Equal(t, float32(1), policy[2])
}

func TestAgent_TrainCancelled(t *testing.T) {
	a := New(testConfig())
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	learned, err := a.Train(ctx, []Example{{State: newGame(), Move: 3}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, learned)
}
