package fluxzero

import (
	"context"

	"github.com/gorgonia/fluxzero/agent"
	"github.com/gorgonia/fluxzero/game"
)

// Config configures a FluxZero run: the board, the agent, and how training and
// evaluation are paced.
type Config struct {
	Name     string `yaml:"name" validate:"required"`
	Game     string `yaml:"game" validate:"oneof=connect mnk"` // connect: pieces drop down columns. mnk: any empty cell
	Rows     int    `yaml:"rows" validate:"gte=3,lte=16"`
	Cols     int    `yaml:"cols" validate:"gte=3,lte=16"`
	ConnectN int    `yaml:"connect_n" validate:"gte=3,ltefield=Cols,ltefield=Rows"`

	Agent agent.Config `yaml:"agent"`

	SyntheticSamples int `yaml:"synthetic_samples" validate:"gte=0"`
	MaxExamples      int `yaml:"max_examples" validate:"gte=0"` // maximum number of examples per epoch; 0 means no limit
	ArenaGames       int `yaml:"arena_games" validate:"gte=1"`

	MetricsAddr string `yaml:"metrics_addr" validate:"omitempty,hostname_port"`
}

// Player is anything that can pick a move.
type Player interface {
	Search(ctx context.Context, g game.State) (game.Single, error)
}

// OutputEncoder encodes the entire meta state as whatever.
//
// An example OutputEncoder is the GifEncoder. Another example would be a logger.
type OutputEncoder interface {
	Encode(ms game.MetaState) error
	Flush() error
}

// Augmenter takes an example, and creates more examples from it.
type Augmenter func(a agent.Example) []agent.Example
