package fluid

import "github.com/pkg/errors"

/*
Here lies the search itself: the stochastic descent and the ascent update.
tree.go handles the data structure stuff.

A trial goes like this:
	SELECT (SelectLeaf), EVALUATE (the caller's business), BACKPROPAGATE.
*/

// SelectLeaf descends from start to a leaf. At each node the selection policy
// turns the conductivities of the children into flow probabilities, and one
// child is drawn at random according to them.
//
// Descent terminates because the tree is acyclic. If the caller linked a cycle,
// SelectLeaf fails with ErrCycle instead of looping forever.
func (t *Tree) SelectLeaf(start NodeID, exploration float64) (NodeID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpen(); err != nil {
		return None, err
	}
	if !t.valid(start) {
		return None, errors.Wrapf(ErrInvalidNode, "select from %d (%d nodes)", start, len(t.nodes))
	}

	var conds []float64
	curr := start
	for depth := 0; ; depth++ {
		if depth >= len(t.nodes) {
			return None, errors.Wrapf(ErrCycle, "descent from %d did not reach a leaf after %d steps", start, depth)
		}
		children := t.nodes[curr].Children
		if len(children) == 0 {
			t.metrics.LeafSelected(depth)
			return curr, nil
		}

		conds = conds[:0]
		for _, kid := range children {
			conds = append(conds, t.nodes[kid].Conductivity)
		}
		probs := t.selection(conds, exploration)
		if len(probs) != len(children) {
			return None, errors.Wrapf(ErrPolicy, "%d probabilities for %d children of node %d", len(probs), len(children), curr)
		}
		curr = children[sample(probs, t.rand.Float64())]
	}
}

// sample returns the first index whose cumulative probability reaches r.
// If rounding leaves the total below r, the last index is returned.
func sample(probs []float64, r float64) int {
	var cum float64
	for i, p := range probs {
		cum += p
		if r <= cum {
			return i
		}
	}
	return len(probs) - 1
}

// Backpropagate walks from leaf up to its root. Each node on the way gets one
// more visit and has its conductivity eroded towards reward by the update
// policy.
//
// The path is checked before anything is touched, so a failed backpropagation
// leaves every statistic as it was. Failures are logged as well as returned.
func (t *Tree) Backpropagate(leaf NodeID, reward, learningRate float64) (err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	defer func() {
		if err != nil {
			t.metrics.BackpropFailed()
			t.log.Error().Err(err).
				Int32("leaf", int32(leaf)).
				Float64("reward", reward).
				Float64("learning_rate", learningRate).
				Msg("backpropagation failed")
		}
	}()
	if err = t.checkOpen(); err != nil {
		return err
	}

	var path []NodeID
	if path, err = t.path(leaf); err != nil {
		return err
	}
	for _, id := range path {
		n := &t.nodes[id]
		n.Visits++
		n.Conductivity = t.update(n.Conductivity, reward, learningRate)
	}
	t.metrics.Backpropagated(len(path) - 1)
	return nil
}
