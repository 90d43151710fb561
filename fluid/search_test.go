package fluid

import (
	"bytes"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTree_SelectLeaf(t *testing.T) {
	tree := New(WithSeed(1337))

	leaf, err := tree.SelectLeaf(0, 1)
	require.NoError(t, err)
	assert.Equal(t, NodeID(0), leaf, "a lone root is its own leaf")

	// 0 -> {1, 2}, 1 -> {3, 4}
	a, _ := tree.CreateChild(0)
	tree.CreateChild(0)
	tree.CreateChild(a)
	tree.CreateChild(a)

	for i := 0; i < 200; i++ {
		leaf, err := tree.SelectLeaf(0, 1.414)
		require.NoError(t, err)
		n, ok := tree.Node(leaf)
		require.True(t, ok)
		assert.True(t, n.IsLeaf(), "trial %d selected interior node %d", i, leaf)
		assert.NotEqual(t, a, leaf)
	}

	_, err = tree.SelectLeaf(100, 1)
	assert.True(t, errors.Is(err, ErrInvalidNode))
}

func TestTree_SelectLeafEvenSplit(t *testing.T) {
	tree := New(WithSeed(42))
	left, _ := tree.CreateChild(0)
	right, _ := tree.CreateChild(0)

	const trials = 1000
	counts := make(map[NodeID]int)
	for i := 0; i < trials; i++ {
		leaf, err := tree.SelectLeaf(0, 1)
		require.NoError(t, err)
		counts[leaf]++
	}
	assert.Equal(t, trials, counts[left]+counts[right])
	assert.InDelta(t, trials/2, counts[left], 100, "left selected %d times", counts[left])
	assert.InDelta(t, trials/2, counts[right], 100, "right selected %d times", counts[right])
}

func TestTree_SelectLeafSeeded(t *testing.T) {
	build := func() *Tree {
		tree := New(WithSeed(7))
		for i := 0; i < 4; i++ {
			kid, _ := tree.CreateChild(0)
			for j := 0; j < 3; j++ {
				tree.CreateChild(kid)
			}
		}
		return tree
	}
	t1, t2 := build(), build()
	for i := 0; i < 50; i++ {
		l1, err := t1.SelectLeaf(0, 0.5)
		require.NoError(t, err)
		l2, err := t2.SelectLeaf(0, 0.5)
		require.NoError(t, err)
		require.Equal(t, l1, l2, "trial %d", i)
	}
}

func TestTree_SelectLeafCycle(t *testing.T) {
	tree := New()
	a, _ := tree.CreateChild(0)
	require.NoError(t, tree.AddChild(a, 0))

	_, err := tree.SelectLeaf(0, 1)
	assert.True(t, errors.Is(err, ErrCycle), "%v", err)
}

func TestTree_SelectLeafBadPolicy(t *testing.T) {
	short := func(c []float64, _ float64) []float64 { return c[:len(c)-1] }
	tree := New(WithSelectionPolicy(short))
	tree.CreateChild(0)
	tree.CreateChild(0)

	_, err := tree.SelectLeaf(0, 1)
	assert.True(t, errors.Is(err, ErrPolicy))
}

func TestTree_Backpropagate(t *testing.T) {
	tree := New()
	left, _ := tree.CreateChild(0)
	right, _ := tree.CreateChild(0)

	require.NoError(t, tree.Backpropagate(left, 1, 0.1))
	assert.Equal(t, int32(1), tree.Visits(left))
	assert.Equal(t, int32(1), tree.Visits(0))
	assert.Equal(t, int32(0), tree.Visits(right))
	assert.InDelta(t, 0.55, tree.Conductivity(left), 1e-9)
	assert.InDelta(t, 0.55, tree.Conductivity(0), 1e-9)
	assert.Equal(t, 0.5, tree.Conductivity(right))

	require.NoError(t, tree.Backpropagate(right, 0, 0.1))
	assert.InDelta(t, 0.45, tree.Conductivity(right), 1e-9)
	assert.InDelta(t, 0.495, tree.Conductivity(0), 1e-9)
	assert.Equal(t, int32(2), tree.Visits(0))
}

func TestTree_BackpropagateDepth(t *testing.T) {
	tree := New()
	curr := NodeID(0)
	var chain []NodeID
	for i := 0; i < 6; i++ {
		curr, _ = tree.CreateChild(curr)
		chain = append(chain, curr)
	}
	side, _ := tree.CreateChild(0)

	leaf := chain[3]
	depth, err := tree.Depth(leaf)
	require.NoError(t, err)
	require.NoError(t, tree.Backpropagate(leaf, 1, 0.5))

	var touched int
	for _, n := range tree.Snapshot() {
		if n.Visits > 0 {
			touched++
		}
	}
	assert.Equal(t, depth+1, touched)
	assert.Equal(t, int32(0), tree.Visits(chain[4]))
	assert.Equal(t, int32(0), tree.Visits(side))
}

func TestTree_BackpropagateFailures(t *testing.T) {
	tree := New()
	err := tree.Backpropagate(5, 1, 0.1)
	assert.True(t, errors.Is(err, ErrInvalidNode))
	assert.Equal(t, int32(0), tree.Visits(0))

	// parent links can only form a cycle through restored data
	var buf bytes.Buffer
	_, err = Encode(&buf, []Node{
		{ID: 0, Parent: None, Conductivity: 0.5},
		{ID: 1, Parent: 2, Conductivity: 0.5},
		{ID: 2, Parent: 1, Conductivity: 0.5},
	})
	require.NoError(t, err)
	require.NoError(t, tree.Restore(&buf))

	err = tree.Backpropagate(1, 1, 0.1)
	assert.True(t, errors.Is(err, ErrCycle), "%v", err)
	for _, n := range tree.Snapshot() {
		assert.Equal(t, int32(0), n.Visits, "node %d touched by a failed backpropagation", n.ID)
		assert.Equal(t, 0.5, n.Conductivity)
	}
}

func TestTree_Concurrent(t *testing.T) {
	const goroutines, trials = 8, 250
	tree := New()

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < trials; i++ {
				kid, err := tree.CreateChild(0)
				if !assert.NoError(t, err) {
					return
				}
				leaf, err := tree.SelectLeaf(0, 1)
				if !assert.NoError(t, err) {
					return
				}
				assert.NoError(t, tree.Backpropagate(kid, 1, 0.1))
				assert.NoError(t, tree.Backpropagate(leaf, 0, 0.1))
				tree.BestChild(0)
				tree.Visits(kid)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1+goroutines*trials, tree.Len())
	assert.Equal(t, int32(2*goroutines*trials), tree.Visits(0), "no lost updates")

	var sum int32
	kids, _ := tree.Children(0)
	assert.Len(t, kids, goroutines*trials)
	for _, kid := range kids {
		sum += tree.Visits(kid)
	}
	assert.Equal(t, int32(2*goroutines*trials), sum)
}
