package c4

import (
	"fmt"

	"github.com/gorgonia/fluxzero/game"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
	"gorgonia.org/tensor/native"
)

// ErrColumnFull is returned when a piece is dropped into a full column.
var ErrColumnFull = errors.New("selected column is full")

type Board struct {
	data *tensor.Dense
	it   [][]game.Colour
	n    int // how many to be considered a win?
}

func newBoard(rows, cols, n int) *Board {
	backing := make([]game.Colour, rows*cols)
	data := tensor.New(tensor.WithShape(rows, cols), tensor.WithBacking(backing))
	iter, err := native.Matrix(data)
	if err != nil {
		panic(err)
	}
	return &Board{
		data: data,
		it:   iter.([][]game.Colour),
		n:    n,
	}
}

func (b *Board) rows() int { return len(b.it) }
func (b *Board) cols() int { return b.data.Shape()[1] }

func (b *Board) raw() []game.Colour { return b.data.Data().([]game.Colour) }

func (b *Board) Format(s fmt.State, c rune) {
	switch c {
	case 's', 'v':
		for _, row := range b.it {
			fmt.Fprint(s, "⎢ ")
			for _, col := range row {
				fmt.Fprintf(s, "%s ", col)
			}
			fmt.Fprint(s, "⎥\n")
		}
	}
}

// drop places a piece of colour cl in column col and returns the row it lands in.
func (b *Board) drop(col int, cl game.Colour) (int, error) {
	row, err := b.landing(col)
	if err != nil {
		return -1, err
	}
	b.it[row][col] = cl
	return row, nil
}

// landing returns the lowest empty row of col.
func (b *Board) landing(col int) (int, error) {
	if col < 0 || col >= b.cols() {
		return -1, errors.Errorf("column %d out of range [0, %d)", col, b.cols())
	}
	for row := b.rows() - 1; row >= 0; row-- {
		if b.it[row][col] == game.None {
			return row, nil
		}
	}
	return -1, errors.Wrapf(ErrColumnFull, "column %d", col)
}

// lift removes the topmost piece of col.
func (b *Board) lift(col int) {
	for row := 0; row < b.rows(); row++ {
		if b.it[row][col] != game.None {
			b.it[row][col] = game.None
			return
		}
	}
}

func (b *Board) clone() *Board {
	b2 := newBoard(b.rows(), b.cols(), b.n)
	copy(b2.raw(), b.raw())
	return b2
}

func (b *Board) full() bool {
	for _, c := range b.it[0] {
		if c == game.None {
			return false
		}
	}
	return true
}

// directions to scan for a line: down, right, down-left, down-right.
var directions = [4][2]int{{1, 0}, {0, 1}, {1, -1}, {1, 1}}

// checkWin returns the colour with n in a line, or None.
func (b *Board) checkWin() game.Colour {
	rows, cols := b.rows(), b.cols()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			c := b.it[y][x]
			if c == game.None {
				continue
			}
			for _, d := range directions {
				if b.line(y, x, d[0], d[1], c) {
					return c
				}
			}
		}
	}
	return game.None
}

func (b *Board) line(y, x, dy, dx int, c game.Colour) bool {
	for i := 1; i < b.n; i++ {
		yy, xx := y+i*dy, x+i*dx
		if yy < 0 || yy >= b.rows() || xx < 0 || xx >= b.cols() {
			return false
		}
		if b.it[yy][xx] != c {
			return false
		}
	}
	return true
}
