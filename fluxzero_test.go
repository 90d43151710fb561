package fluxzero

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/gorgonia/fluxzero/agent"
	"github.com/gorgonia/fluxzero/game"
	"github.com/gorgonia/fluxzero/game/c4"
	"github.com/gorgonia/fluxzero/game/mnk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallConfig() Config {
	conf := DefaultConfig()
	conf.Agent.Simulations = 50
	conf.Agent.Workers = 2
	conf.SyntheticSamples = 40
	conf.ArenaGames = 2
	return conf
}

func TestNew(t *testing.T) {
	conf := smallConfig()
	conf.Rows = 0
	_, err := New(conf)
	assert.Error(t, err)

	fz, err := New(smallConfig())
	require.NoError(t, err)
	defer fz.Close()
	rows, cols := fz.NewGame().BoardSize()
	assert.Equal(t, 6, rows)
	assert.Equal(t, 7, cols)
}

func TestFZ_TicTacToe(t *testing.T) {
	conf := smallConfig()
	conf.Name = "Tic Tac Toe"
	conf.Game = "mnk"
	conf.Rows, conf.Cols, conf.ConnectN = 3, 3, 3
	fz, err := New(conf, WithAugmenter(MirrorAugmenter))
	require.NoError(t, err)
	defer fz.Close()

	g := fz.NewGame()
	assert.IsType(t, &mnk.MNK{}, g)
	assert.Equal(t, 9, g.ActionSpace())

	require.NoError(t, fz.Learn(context.Background(), 1))
	require.Len(t, fz.Records, 1)
	assert.Equal(t, float32(2), fz.Records[0].Wins+fz.Records[0].Losses+fz.Records[0].Draws)
}

func TestFZ_Learn(t *testing.T) {
	rec := &recorder{}
	fz, err := New(smallConfig(), WithOutputEncoder(rec), WithAugmenter(MirrorAugmenter))
	require.NoError(t, err)
	defer fz.Close()

	require.NoError(t, fz.Learn(context.Background(), 2))
	require.Len(t, fz.Records, 2)
	for i, r := range fz.Records {
		assert.Equal(t, fz.ID(), r.Match)
		assert.Equal(t, i, r.Epoch)
		assert.Equal(t, float32(2), r.Wins+r.Losses+r.Draws)
	}
	assert.True(t, rec.frames > 0)
	assert.False(t, rec.flushed, "flushing is left to the caller")
	assert.True(t, fz.Agent.Positions() > 0)

	filename := filepath.Join(t.TempDir(), "fz.flux")
	require.NoError(t, fz.Save(filename))
	other, err := New(smallConfig())
	require.NoError(t, err)
	defer other.Close()
	require.NoError(t, other.Load(filename))
	assert.Equal(t, fz.Agent.Positions(), other.Agent.Positions())
}

func TestFZ_ExamplesCapped(t *testing.T) {
	conf := smallConfig()
	conf.SyntheticSamples = 200
	conf.MaxExamples = 3
	fz, err := New(conf)
	require.NoError(t, err)
	defer fz.Close()
	assert.True(t, len(fz.Examples()) <= 3)
}

func TestMirrorAugmenter(t *testing.T) {
	g := c4.New(6, 7, 4)
	for _, col := range []game.Single{0, 6, 0, 6, 0} {
		g.Apply(game.PlayerMove{Player: g.ToMove(), Single: col})
	}
	// white must block at 0
	out := MirrorAugmenter(agent.Example{State: g, Move: 0})
	require.Len(t, out, 2)
	assert.Equal(t, game.Single(6), out[1].Move)
	assert.Equal(t, 5, out[1].State.MoveNumber())

	empty := c4.New(6, 7, 4)
	assert.Len(t, MirrorAugmenter(agent.Example{State: empty, Move: 3}), 1, "symmetric positions are not doubled")
}
