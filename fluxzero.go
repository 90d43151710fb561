// Package fluxzero trains and evaluates a fluid tree game agent.
//
// FZ is the top level structure and the entry point of the API. It composes an
// agent.Agent with an Arena in which the agent plays a random opponent, and a
// Statistics table of how it fared after every training epoch.
package fluxzero

import (
	"context"

	"github.com/gorgonia/fluxzero/agent"
	"github.com/gorgonia/fluxzero/fluid"
	"github.com/gorgonia/fluxzero/game"
	"github.com/gorgonia/fluxzero/game/c4"
	"github.com/gorgonia/fluxzero/game/mnk"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"
)

// FZ stands for FluxZero.
type FZ struct {
	// state
	Arena
	Statistics
	Agent *agent.Agent

	// config
	conf    Config
	aug     Augmenter
	metrics fluid.Metrics
	r       *rand.Rand

	// io
	outEnc OutputEncoder
	log    zerolog.Logger
}

// Option configures an FZ.
type Option func(*FZ)

// WithOutputEncoder hands every arena position to enc. Flushing it is up to the caller.
func WithOutputEncoder(enc OutputEncoder) Option { return func(fz *FZ) { fz.outEnc = enc } }

// WithAugmenter multiplies the training examples of every epoch.
func WithAugmenter(aug Augmenter) Option { return func(fz *FZ) { fz.aug = aug } }

func WithLogger(logger zerolog.Logger) Option { return func(fz *FZ) { fz.log = logger } }

func WithMetrics(m fluid.Metrics) Option { return func(fz *FZ) { fz.metrics = m } }

// New creates a FluxZero run as described by conf.
func New(conf Config, opts ...Option) (*FZ, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	fz := &FZ{
		conf:       conf,
		log:        zerolog.Nop(),
		Statistics: makeStatistics(),
	}
	for _, opt := range opts {
		opt(fz)
	}
	fz.r = rand.New(rand.NewSource(conf.Agent.Seed))
	fz.Agent = agent.New(conf.Agent,
		agent.WithLogger(fz.log.With().Str("component", "agent").Logger()),
		agent.WithMetrics(fz.metrics),
	)
	fz.Arena = MakeArena(fz.NewGame(), fz.Agent, NewRandomPlayer(conf.Agent.Seed+1), conf.Name, conf.Agent.Seed+2, fz.log)
	return fz, nil
}

// NewGame returns a fresh game of the configured kind and size.
func (fz *FZ) NewGame() game.State {
	if fz.conf.Game == "mnk" {
		return mnk.New(fz.conf.Rows, fz.conf.Cols, fz.conf.ConnectN)
	}
	return c4.New(fz.conf.Rows, fz.conf.Cols, fz.conf.ConnectN)
}

// Close releases the agent.
func (fz *FZ) Close() error { return fz.Agent.Close() }

// Examples generates the training examples of one epoch.
func (fz *FZ) Examples() []agent.Example {
	ex := agent.SyntheticExamples(fz.NewGame, fz.conf.SyntheticSamples, fz.r)
	if fz.aug != nil {
		augmented := make([]agent.Example, 0, 2*len(ex))
		for _, e := range ex {
			augmented = append(augmented, fz.aug(e)...)
		}
		ex = augmented
	}
	if fz.conf.MaxExamples > 0 && len(ex) > fz.conf.MaxExamples {
		fz.r.Shuffle(len(ex), func(i, j int) { ex[i], ex[j] = ex[j], ex[i] })
		ex = ex[:fz.conf.MaxExamples]
	}
	return ex
}

// Learn runs epochs of training. Every epoch the agent is trained on
// synthetic examples and then plays the configured number of arena games,
// whose results are added to the statistics.
func (fz *FZ) Learn(ctx context.Context, epochs int) error {
	for fz.epoch = 0; fz.epoch < epochs; fz.epoch++ {
		ex := fz.Examples()
		learned, err := fz.Agent.Train(ctx, ex)
		if err != nil {
			return errors.WithMessagef(err, "train epoch %d", fz.epoch)
		}
		fz.log.Info().Int("epoch", fz.epoch).Int("examples", len(ex)).Int("learned", learned).Msg("trained")

		if err := fz.Evaluate(ctx, fz.conf.ArenaGames); err != nil {
			return errors.WithMessagef(err, "evaluate epoch %d", fz.epoch)
		}
	}
	return nil
}

// Evaluate plays games against the random opponent and records the agent's
// results for the current epoch.
func (fz *FZ) Evaluate(ctx context.Context, games int) error {
	fz.A.resetStats()
	fz.B.resetStats()
	for fz.gameNumber = 0; fz.gameNumber < games; fz.gameNumber++ {
		if _, err := fz.Play(ctx, fz.outEnc); err != nil {
			return err
		}
	}
	fz.update(fz.ID(), fz.epoch, fz.A)
	fz.log.Info().
		Int("epoch", fz.epoch).
		Float32("wins", fz.A.Wins).
		Float32("losses", fz.A.Loss).
		Float32("draws", fz.A.Draw).
		Msg("arena done")
	return nil
}

// Save the agent into filename
func (fz *FZ) Save(filename string) error { return fz.Agent.Save(filename) }

// Load the agent from filename
func (fz *FZ) Load(filename string) error { return fz.Agent.Load(filename) }
