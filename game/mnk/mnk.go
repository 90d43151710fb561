package mnk

import (
	"fmt"
	"slices"

	"github.com/gorgonia/fluxzero/game"
)

var (
	Cross  = game.Player(game.Black)
	Nought = game.Player(game.White)
)

var (
	_ game.State    = &MNK{}
	_ game.Mirrorer = &MNK{}
)

// MNK is a representation of M,N,K games - a game is played on a MxN board. K in a row to win.
// Cross moves first.
type MNK struct {
	board   []game.Colour
	m, n, k int

	nextToMove game.Player
	history    []game.PlayerMove
}

// New creates a new MNK game
func New(m, n, k int) *MNK {
	return &MNK{
		board:      make([]game.Colour, m*n),
		history:    make([]game.PlayerMove, 0, m*n),
		m:          m,
		n:          n,
		k:          k,
		nextToMove: Cross,
	}
}

// TicTacToe creates a new MNK game for Tic Tac Toe
func TicTacToe() *MNK { return New(3, 3, 3) }

func (g *MNK) Format(s fmt.State, c rune) {
	for i, cl := range g.board {
		if i%g.n == 0 {
			fmt.Fprint(s, "⎢ ")
		}
		fmt.Fprintf(s, "%s ", cl)
		if (i+1)%g.n == 0 {
			fmt.Fprint(s, "⎥\n")
		}
	}
}

func (g *MNK) BoardSize() (int, int) { return g.m, g.n }
func (g *MNK) Board() []game.Colour  { return g.board }

func (g *MNK) Key() string { return game.KeyOf(g.board, g.n, g.nextToMove) }

func (g *MNK) ActionSpace() int { return g.m * g.n }

func (g *MNK) ToMove() game.Player { return g.nextToMove }

func (g *MNK) LastMove() game.PlayerMove {
	if len(g.history) > 0 {
		return g.history[len(g.history)-1]
	}
	return game.PlayerMove{Player: game.Player(game.None), Single: -1}
}

func (g *MNK) MoveNumber() int { return len(g.history) }

// Check reports whether m names an empty cell. You can't pass in tic-tac-toe.
func (g *MNK) Check(m game.PlayerMove) bool {
	if m.Single < 0 || int(m.Single) >= len(g.board) {
		return false
	}
	return g.board[int(m.Single)] == game.None
}

// LegalMoves returns the empty cells. A finished game has none.
func (g *MNK) LegalMoves() []game.Single {
	if ended, _ := g.Ended(); ended {
		return nil
	}
	var retVal []game.Single
	for i, c := range g.board {
		if c == game.None {
			retVal = append(retVal, game.Single(i))
		}
	}
	return retVal
}

func (g *MNK) Apply(m game.PlayerMove) game.State {
	if !g.Check(m) {
		return g // no change to the state
	}
	g.board[int(m.Single)] = game.Colour(m.Player)
	g.history = append(g.history, m)
	g.nextToMove = m.Player.Opponent()
	return g
}

func (g *MNK) Score(p game.Player) float32 {
	if g.isWinner(p) {
		return 1
	}
	if g.isWinner(p.Opponent()) {
		return -1
	}
	return 0 // draw or incomplete
}

// Ended checks if the game has ended. If it has, who is the winner?
func (g *MNK) Ended() (ended bool, winner game.Player) {
	if g.isWinner(Cross) {
		return true, Cross
	}
	if g.isWinner(Nought) {
		return true, Nought
	}
	for _, c := range g.board {
		if c == game.None {
			return false, game.Player(game.None)
		}
	}
	return true, game.Player(game.None)
}

func (g *MNK) Reset() {
	for i := range g.board {
		g.board[i] = game.None
	}
	g.history = g.history[:0]
	g.nextToMove = Cross
}

func (g *MNK) UndoLastMove() {
	if len(g.history) == 0 {
		return
	}
	last := g.history[len(g.history)-1]
	g.history = g.history[:len(g.history)-1]
	g.board[int(last.Single)] = game.None
	g.nextToMove = last.Player
}

func (g *MNK) Eq(other game.State) bool {
	ot, ok := other.(*MNK)
	if !ok {
		return false
	}
	return g.m == ot.m && g.n == ot.n && g.k == ot.k &&
		g.nextToMove == ot.nextToMove &&
		slices.Equal(g.board, ot.board) &&
		slices.Equal(g.history, ot.history)
}

func (g *MNK) Clone() game.State {
	retVal := New(g.m, g.n, g.k)
	copy(retVal.board, g.board)
	retVal.history = append(retVal.history, g.history...)
	retVal.nextToMove = g.nextToMove
	return retVal
}

// Mirror returns the board turned half way round. Cell i becomes cell
// ActionSpace()-1-i, which keeps every line of K intact.
func (g *MNK) Mirror() game.State {
	retVal := g.Clone().(*MNK)
	last := len(g.board) - 1
	for i, c := range g.board {
		retVal.board[last-i] = c
	}
	for i, pm := range retVal.history {
		retVal.history[i].Single = game.Single(last) - pm.Single
	}
	return retVal
}

var directions = [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

// isWinner checks for K in a row, column or diagonal of p's colour.
func (g *MNK) isWinner(p game.Player) bool {
	colour := game.Colour(p)
	for i := 0; i < g.m; i++ {
		for j := 0; j < g.n; j++ {
			if g.board[i*g.n+j] != colour {
				continue
			}
			for _, d := range directions {
				if g.run(i, j, d[0], d[1], colour) >= g.k {
					return true
				}
			}
		}
	}
	return false
}

func (g *MNK) run(i, j, di, dj int, colour game.Colour) (count int) {
	for i >= 0 && i < g.m && j >= 0 && j < g.n && g.board[i*g.n+j] == colour {
		count++
		i += di
		j += dj
	}
	return count
}
