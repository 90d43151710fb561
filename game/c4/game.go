package c4

import (
	"fmt"
	"slices"

	"github.com/gorgonia/fluxzero/game"
)

var (
	_ game.State = &Game{}
)

// Game is a game of connect-N: players take turns dropping pieces into the
// columns of a rows×cols board, and the first to line up N wins. Black moves
// first.
type Game struct {
	b          *Board
	history    []game.PlayerMove
	nextToMove game.Player
}

// New creates a new game with a board of (rows,cols) and N to win (connect4 being 4 to win)
func New(rows, cols, N int) *Game {
	return &Game{
		b:          newBoard(rows, cols, N),
		history:    make([]game.PlayerMove, 0, rows*cols),
		nextToMove: game.Player(game.Black),
	}
}

func (g *Game) BoardSize() (int, int) { return g.b.rows(), g.b.cols() }

func (g *Game) ToMove() game.Player { return g.nextToMove }

func (g *Game) LastMove() game.PlayerMove {
	if len(g.history) > 0 {
		return g.history[len(g.history)-1]
	}
	return game.PlayerMove{Player: game.Player(game.None), Single: -1}
}

func (g *Game) MoveNumber() int { return len(g.history) }

func (g *Game) Check(m game.PlayerMove) bool {
	if m.Single.IsPass() || m.Single.IsResignation() {
		return false
	}
	_, err := g.b.landing(int(m.Single))
	return err == nil
}

// LegalMoves returns the columns that are not full. A finished game has none.
func (g *Game) LegalMoves() []game.Single {
	if ended, _ := g.Ended(); ended {
		return nil
	}
	retVal := make([]game.Single, 0, g.b.cols())
	for col, c := range g.b.it[0] {
		if c == game.None {
			retVal = append(retVal, game.Single(col))
		}
	}
	return retVal
}

// Apply drops a piece for m.Player and hands the turn to the opponent. Illegal
// moves leave the game unchanged.
func (g *Game) Apply(m game.PlayerMove) game.State {
	if !g.Check(m) {
		return g
	}
	if _, err := g.b.drop(int(m.Single), game.Colour(m.Player)); err != nil {
		return g
	}
	g.history = append(g.history, m)
	g.nextToMove = m.Player.Opponent()
	return g
}

// UndoLastMove takes back the last move and gives the turn back to whoever made it.
func (g *Game) UndoLastMove() {
	if len(g.history) == 0 {
		return
	}
	last := g.history[len(g.history)-1]
	g.history = g.history[:len(g.history)-1]
	g.b.lift(int(last.Single))
	g.nextToMove = last.Player
}

func (g *Game) Score(p game.Player) float32 {
	winning := g.b.checkWin()
	if game.Player(winning) == p {
		return 1
	}
	if winning == game.None {
		return 0
	}
	return -1
}

func (g *Game) Ended() (bool, game.Player) {
	if winner := g.b.checkWin(); winner != game.None {
		return true, game.Player(winner)
	}
	return g.b.full(), game.Player(game.None)
}

func (g *Game) Eq(other game.State) bool {
	ot, ok := other.(*Game)
	if !ok {
		return false
	}
	if !slices.Equal(g.b.raw(), ot.b.raw()) || g.b.n != ot.b.n {
		return false
	}
	if g.nextToMove != ot.nextToMove || len(g.history) != len(ot.history) {
		return false
	}
	for i := range g.history {
		if ot.history[i] != g.history[i] {
			return false
		}
	}
	return true
}

func (g *Game) Clone() game.State {
	history2 := make([]game.PlayerMove, len(g.history), cap(g.history))
	copy(history2, g.history)
	return &Game{
		b:          g.b.clone(),
		history:    history2,
		nextToMove: g.nextToMove,
	}
}

func (g *Game) Reset() {
	data := g.b.raw()
	for i := range data {
		data[i] = game.None
	}
	g.history = g.history[:0]
	g.nextToMove = game.Player(game.Black)
}

func (g *Game) ActionSpace() int { return g.b.cols() }

func (g *Game) Board() []game.Colour { return g.b.raw() }

// Key spells out the board row by row followed by the player to move, e.g.
// "......./......./.../...XO..:O".
func (g *Game) Key() string { return game.KeyOf(g.b.raw(), g.b.cols(), g.nextToMove) }

func (g *Game) Format(s fmt.State, c rune) { g.b.Format(s, c) }

var _ game.Mirrorer = &Game{}

// Mirror returns the game with every column reversed.
func (g *Game) Mirror() game.State {
	m := g.Clone().(*Game)
	cols := g.b.cols()
	for r, row := range g.b.it {
		for c, cl := range row {
			m.b.it[r][cols-1-c] = cl
		}
	}
	for i, pm := range m.history {
		m.history[i].Single = game.Single(cols-1) - pm.Single
	}
	return m
}
