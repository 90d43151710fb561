// Package gif renders arena games as animated GIFs.
package gif

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"
	"math"

	"github.com/golang/freetype/truetype"
	"github.com/gorgonia/fluxzero/game"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/math/fixed"
)

var regular *truetype.Font

const (
	dpi        = 72.0
	fontsize   = 12.0
	lineheight = 1.4
	textLines  = 3 // game name, epoch and game number, last move or winner
	finalDelay = 300
)

func init() {
	var err error
	if regular, err = truetype.Parse(gomono.TTF); err != nil {
		panic(err)
	}
}

const (
	bgIdx uint8 = iota
	gridIdx
	blackIdx
	whiteIdx
	textIdx
)

var globPalette = color.Palette{
	bgIdx:    color.RGBA{0xfa, 0xfa, 0xfa, 0xff},
	gridIdx:  color.RGBA{0x1f, 0x4e, 0xb4, 0xff},
	blackIdx: color.RGBA{0xd6, 0x2d, 0x20, 0xff},
	whiteIdx: color.RGBA{0xf5, 0xc5, 0x18, 0xff},
	textIdx:  color.Gray{0},
}

// Encoder draws every position it is given as one frame of an animated GIF,
// and writes the animation on Flush.
type Encoder struct {
	io.Writer
	Cell  int // width and height of one board cell in pixels
	Delay int // delay between frames, in 100ths of a second

	out    *gif.GIF
	drawer font.Drawer
	dy     int
}

// NewEncoder creates an Encoder writing to w.
func NewEncoder(w io.Writer, cell int) *Encoder {
	face := truetype.NewFace(regular, &truetype.Options{
		Size:    fontsize,
		DPI:     dpi,
		Hinting: font.HintingFull,
	})
	return &Encoder{
		Writer: w,
		Cell:   cell,
		Delay:  50,
		out:    &gif.GIF{LoopCount: 0},
		drawer: font.Drawer{
			Src:  image.NewUniform(globPalette[textIdx]),
			Face: face,
		},
		dy: int(math.Ceil(fontsize * lineheight * dpi / 72)),
	}
}

// Frames returns the number of frames encoded so far.
func (enc *Encoder) Frames() int { return len(enc.out.Image) }

// Encode a game
func (enc *Encoder) Encode(ms game.MetaState) error {
	g := ms.State()
	rows, cols := g.BoardSize()
	board := g.Board()
	if len(board) != rows*cols {
		return errors.Errorf("board has %d cells, want %d×%d", len(board), rows, cols)
	}

	boardH := rows * enc.Cell
	w := cols * enc.Cell
	h := boardH + (textLines+1)*enc.dy
	im := image.NewPaletted(image.Rect(0, 0, w, h), globPalette)
	draw.Draw(im, im.Bounds(), image.NewUniform(globPalette[bgIdx]), image.Point{}, draw.Src)
	draw.Draw(im, image.Rect(0, 0, w, boardH), image.NewUniform(globPalette[gridIdx]), image.Point{}, draw.Src)

	radius := enc.Cell * 2 / 5
	for i, c := range board {
		cx := (i%cols)*enc.Cell + enc.Cell/2
		cy := (i/cols)*enc.Cell + enc.Cell/2
		idx := bgIdx
		switch c {
		case game.Black:
			idx = blackIdx
		case game.White:
			idx = whiteIdx
		}
		disc(im, cx, cy, radius, idx)
	}

	lines := []string{
		ms.Name(),
		fmt.Sprintf("Epoch %d, Game Number: %d", ms.Epoch(), ms.GameNumber()),
	}
	delay := enc.Delay
	if ended, winner := g.Ended(); ended {
		delay = finalDelay
		if winner == game.Player(game.None) {
			lines = append(lines, "Draw")
		} else {
			lines = append(lines, fmt.Sprintf("Winner: %v", winner))
		}
	} else if g.MoveNumber() > 0 {
		lines = append(lines, fmt.Sprintf("Move %d: %v", g.MoveNumber(), g.LastMove()))
	}

	enc.drawer.Dst = im
	y := boardH
	for _, s := range lines {
		y += enc.dy
		enc.drawer.Dot = fixed.P(4, y)
		enc.drawer.DrawString(s)
	}

	enc.out.Image = append(enc.out.Image, im)
	enc.out.Delay = append(enc.out.Delay, delay)
	return nil
}

// disc fills a circle of colour idx centred on (cx, cy).
func disc(im *image.Paletted, cx, cy, r int, idx uint8) {
	for y := -r; y <= r; y++ {
		for x := -r; x <= r; x++ {
			if x*x+y*y <= r*r {
				im.SetColorIndex(cx+x, cy+y, idx)
			}
		}
	}
}

// Flush writes the gif into the writer
func (enc *Encoder) Flush() error {
	if len(enc.out.Image) == 0 {
		return errors.New("no frames to write")
	}
	return errors.WithStack(gif.EncodeAll(enc.Writer, enc.out))
}
