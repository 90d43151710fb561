package game

import (
	"fmt"
	"strings"
)

type Colour int32

const (
	None Colour = iota
	Black
	White
)

func (cl Colour) Format(s fmt.State, c rune) {
	switch c {
	case 'v': // used in debug
		fmt.Fprint(s, cl.name())
	case 's': // used in board games
		fmt.Fprint(s, cl.glyph())
	}
}

func (cl Colour) name() string {
	switch cl {
	case Black:
		return "Black"
	case White:
		return "White"
	}
	return "None"
}

func (cl Colour) glyph() string {
	switch cl {
	case Black:
		return "X"
	case White:
		return "O"
	}
	return "·"
}

// Player represents a player. It's also a colour.
type Player Colour

func (p Player) Format(s fmt.State, c rune) { Colour(p).Format(s, c) }

// Opponent returns the other player. The opponent of None is None.
func (p Player) Opponent() Player {
	switch Colour(p) {
	case Black:
		return Player(White)
	case White:
		return Player(Black)
	}
	return Player(None)
}

// PlayerMove is a tuple indicating the player and the move to be made.
type PlayerMove struct {
	Player
	Single
}

// Eq returns true if both are equal
func (p PlayerMove) Eq(other PlayerMove) bool {
	return p.Player == other.Player && p.Single == other.Single
}

func (p PlayerMove) Format(s fmt.State, c rune) { fmt.Fprintf(s, "%v@%d", p.Player, p.Single) }

// Single is a move encoded as one number. For column games it is the column.
//   - -1 represents the "pass" move
//   - -2 represents the "resignation" move
type Single int32

// IsResignation returns true when the move represents a "resignation" move
func (c Single) IsResignation() bool { return c == -2 }

// IsPass returns true when the move represents a "pass" move
func (c Single) IsPass() bool { return c == -1 }

// State is a two player, perfect information game position that a search can
// play forwards and back.
type State interface {
	BoardSize() (int, int) // returns the board size
	Board() []Colour       // returns the board state, row major
	ActionSpace() int      // returns the number of permissible actions
	Key() string           // returns a printable key identifying the position and the player to move
	ToMove() Player        // returns the player whose turn it is
	MoveNumber() int       // returns count of moves so far that led to this point.
	LastMove() PlayerMove  // returns the last move that was made

	LegalMoves() []Single               // all moves Check would accept, ascending
	Score(p Player) float32             // 1 if p has won, -1 if p has lost, 0 otherwise
	Ended() (ended bool, winner Player) // has the game ended? if yes, then who's the winner?

	Check(m PlayerMove) bool  // check if the placement is legal
	Apply(m PlayerMove) State // plays m and passes the turn to the opponent
	UndoLastMove()            // takes back the last move
	Reset()                   // reset state

	Eq(other State) bool
	Clone() State
}

// MetaState is a game in progress along with where it sits in a run of games.
type MetaState interface {
	Name() string // name of the game
	Epoch() int
	GameNumber() int
	Score(a Player) float64
	State() State
}

// Mirrorer is any State that has a mirror image which plays the same. A move m
// in the original is the move ActionSpace()-1-m in the mirror.
type Mirrorer interface {
	State
	Mirror() State
}

// KeyOf spells out a row major board row by row followed by the player to
// move, e.g. ".../.X./O..:X".
func KeyOf(board []Colour, cols int, toMove Player) string {
	var sb strings.Builder
	for i, c := range board {
		if i > 0 && i%cols == 0 {
			sb.WriteByte('/')
		}
		sb.WriteByte(keyByte(c))
	}
	sb.WriteByte(':')
	sb.WriteByte(keyByte(Colour(toMove)))
	return sb.String()
}

func keyByte(c Colour) byte {
	switch c {
	case Black:
		return 'X'
	case White:
		return 'O'
	}
	return '.'
}
