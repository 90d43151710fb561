package fluid

import "github.com/rs/zerolog"

// Option configures a Tree.
type Option func(t *Tree)

// WithSelectionPolicy replaces the default Softmax policy.
func WithSelectionPolicy(p SelectionPolicy) Option {
	return func(t *Tree) {
		if p != nil {
			t.selection = p
		}
	}
}

// WithUpdatePolicy replaces the default ExpSmoothing policy.
func WithUpdatePolicy(u UpdatePolicy) Option {
	return func(t *Tree) {
		if u != nil {
			t.update = u
		}
	}
}

// WithSeed seeds the random source used by SelectLeaf. Trees built with the
// same seed and the same calls select the same leaves.
func WithSeed(seed uint64) Option {
	return func(t *Tree) {
		t.seed = seed
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(t *Tree) {
		t.log = logger
	}
}

func WithMetrics(m Metrics) Option {
	return func(t *Tree) {
		if m != nil {
			t.metrics = m
		}
	}
}
