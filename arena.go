package fluxzero

import (
	"context"

	"github.com/google/uuid"
	"github.com/gorgonia/fluxzero/game"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"
)

// ErrIllegalMove is returned when a player answers with a move the game does not allow.
var ErrIllegalMove = errors.New("illegal move")

// Arena plays games between two contestants.
type Arena struct {
	id   uuid.UUID
	r    *rand.Rand
	game game.State
	A, B *Contestant

	// state
	currentPlayer *Contestant
	log           zerolog.Logger

	name       string
	epoch      int // training epoch
	gameNumber int // which game is this in
}

// MakeArena makes an arena given a game.
func MakeArena(g game.State, a, b Player, name string, seed uint64, logger zerolog.Logger) Arena {
	if name == "" {
		name = "UNKNOWN GAME"
	}
	id := uuid.New()
	return Arena{
		id:   id,
		r:    rand.New(rand.NewSource(seed)),
		game: g,
		A:    &Contestant{Player: a, name: "A"},
		B:    &Contestant{Player: b, name: "B"},
		log:  logger.With().Str("match", id.String()).Logger(),
		name: name,
	}
}

func NewArena(g game.State, a, b Player, name string, seed uint64, logger zerolog.Logger) *Arena {
	ar := MakeArena(g, a, b, name, seed, logger)
	return &ar
}

// Play resets the game and plays it to the end, with colours drawn at random.
// It returns the winner; if it is a draw, the returned colour is None.
// Every position is handed to enc if it is not nil.
func (a *Arena) Play(ctx context.Context, enc OutputEncoder) (winner game.Player, err error) {
	a.game.Reset()
	if a.r.Intn(2) == 0 {
		a.A.Colour = game.Player(game.Black)
		a.B.Colour = game.Player(game.White)
	} else {
		a.A.Colour = game.Player(game.White)
		a.B.Colour = game.Player(game.Black)
	}
	a.currentPlayer = a.contestant(a.game.ToMove())
	a.log.Debug().Int("game", a.gameNumber).Msgf("A plays %v", a.A.Colour)

	var ended bool
	for ended, winner = a.game.Ended(); !ended; ended, winner = a.game.Ended() {
		best, err := a.currentPlayer.Search(ctx, a.game)
		if err != nil {
			return game.Player(game.None), errors.Wrapf(err, "%s to move", a.currentPlayer.Name())
		}
		m := game.PlayerMove{Player: a.currentPlayer.Colour, Single: best}
		if !a.game.Check(m) {
			return game.Player(game.None), errors.Wrapf(ErrIllegalMove, "%s played %v", a.currentPlayer.Name(), m)
		}
		a.log.Trace().Str("player", a.currentPlayer.Name()).Msgf("%v", m)
		a.game = a.game.Apply(m)
		a.switchPlayer()
		if enc != nil {
			if err := enc.Encode(a); err != nil {
				return game.Player(game.None), errors.Wrap(err, "encode position")
			}
		}
	}

	switch {
	case winner == game.Player(game.None):
		a.A.Lock()
		a.A.Draw++
		a.A.Unlock()
		a.B.Lock()
		a.B.Draw++
		a.B.Unlock()
	case winner == a.A.Colour:
		a.A.Lock()
		a.A.Wins++
		a.A.Unlock()
		a.B.Lock()
		a.B.Loss++
		a.B.Unlock()
	case winner == a.B.Colour:
		a.B.Lock()
		a.B.Wins++
		a.B.Unlock()
		a.A.Lock()
		a.A.Loss++
		a.A.Unlock()
	}
	a.log.Debug().Int("game", a.gameNumber).Int("moves", a.game.MoveNumber()).Msgf("winner %v", winner)
	return winner, nil
}

// ID identifies the arena in logs and statistics.
func (a *Arena) ID() string { return a.id.String() }

func (a *Arena) Epoch() int                  { return a.epoch }
func (a *Arena) GameNumber() int             { return a.gameNumber }
func (a *Arena) Name() string                { return a.name }
func (a *Arena) Score(p game.Player) float64 { return float64(a.game.Score(p)) }
func (a *Arena) State() game.State           { return a.game }

func (a *Arena) contestant(colour game.Player) *Contestant {
	if a.A.Colour == colour {
		return a.A
	}
	return a.B
}

func (a *Arena) switchPlayer() {
	switch a.currentPlayer {
	case a.A:
		a.currentPlayer = a.B
	case a.B:
		a.currentPlayer = a.A
	}
}
