package fluid

import (
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"
)

/*
Tree is the fluid tree controller. Nodes live in one dense slice and refer to
each other by NodeID, so there is no pointer chasing and nothing to alias.

Every call on a Tree is atomic with respect to every other call on the same
Tree: mutations (node creation, linking, selection, backpropagation, load,
close) hold the write lock for their whole duration, and queries hold the read
lock. One lock guards the whole tree, so concurrent trials on one tree are
serialized. Callers that want parallel speedup should do their expensive
evaluation between SelectLeaf and Backpropagate, outside the tree.
*/
type Tree struct {
	mu     sync.RWMutex
	nodes  []Node
	closed bool

	selection SelectionPolicy
	update    UpdatePolicy
	seed      uint64
	rand      *rand.Rand

	log     zerolog.Logger
	metrics Metrics
}

// New creates a tree holding a single root node with id 0.
func New(opts ...Option) *Tree {
	t := &Tree{
		nodes:     make([]Node, 1, 1024),
		selection: Softmax,
		update:    ExpSmoothing,
		seed:      uint64(time.Now().UnixNano()),
		log:       zerolog.Nop(),
		metrics:   NopMetrics{},
	}
	t.nodes[0] = newNode(0, None)
	for _, opt := range opts {
		opt(t)
	}
	t.rand = rand.New(rand.NewSource(t.seed))
	return t
}

// Close releases the node store. It is safe to call on a nil tree and to call
// more than once. Every later call fails with ErrClosed or returns a zero value.
func (t *Tree) Close() error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	t.closed = true
	t.nodes = nil
	t.mu.Unlock()
	return nil
}

// CreateNode appends a detached node whose parent is the given id, and returns
// its id. The node is not added to the parent's children; use AddChild for
// that, or CreateChild to do both at once.
//
// A parent of None creates another root. Any other id outside the store fails
// with ErrInvalidParent.
func (t *Tree) CreateNode(parent NodeID) (NodeID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpen(); err != nil {
		return None, err
	}
	if parent != None && !t.valid(parent) {
		return None, errors.Wrapf(ErrInvalidParent, "create node under %d (%d nodes)", parent, len(t.nodes))
	}
	return t.alloc(parent)
}

// CreateChild creates a node under parent and appends it to the parent's
// children in one step.
func (t *Tree) CreateChild(parent NodeID) (NodeID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpen(); err != nil {
		return None, err
	}
	if !t.valid(parent) {
		return None, errors.Wrapf(ErrInvalidParent, "create child under %d (%d nodes)", parent, len(t.nodes))
	}
	id, err := t.alloc(parent)
	if err != nil {
		return None, err
	}
	t.nodes[parent].Children = append(t.nodes[parent].Children, id)
	return id, nil
}

// AddChild appends child to the children of parent. Duplicates and cycles are
// not checked for.
func (t *Tree) AddChild(parent, child NodeID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpen(); err != nil {
		return err
	}
	if !t.valid(parent) {
		return errors.Wrapf(ErrInvalidParent, "add child to %d (%d nodes)", parent, len(t.nodes))
	}
	if !t.valid(child) {
		return errors.Wrapf(ErrInvalidChild, "add child %d (%d nodes)", child, len(t.nodes))
	}
	t.nodes[parent].Children = append(t.nodes[parent].Children, child)
	return nil
}

// alloc appends a new node. Must be called with the write lock held.
func (t *Tree) alloc(parent NodeID) (NodeID, error) {
	if len(t.nodes) >= math.MaxInt32 {
		return None, errors.Errorf("node store is full (%d nodes)", len(t.nodes))
	}
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, newNode(id, parent))
	t.metrics.NodeCreated()
	return id, nil
}

// Len returns the number of nodes in the store.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.nodes)
}

// Visits returns the visit count of a node, or 0 if there is no such node.
func (t *Tree) Visits(id NodeID) int32 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.valid(id) {
		return 0
	}
	return t.nodes[id].Visits
}

// Conductivity returns the conductivity of a node, or 0 if there is no such node.
func (t *Tree) Conductivity(id NodeID) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.valid(id) {
		return 0
	}
	return t.nodes[id].Conductivity
}

// Parent returns the parent of a node, or None.
func (t *Tree) Parent(id NodeID) NodeID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.valid(id) {
		return None
	}
	return t.nodes[id].Parent
}

// Node returns a copy of a node.
func (t *Tree) Node(id NodeID) (Node, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.valid(id) {
		return Node{}, false
	}
	return t.nodes[id].clone(), true
}

// Snapshot returns a copy of the whole node store, in id order.
func (t *Tree) Snapshot() []Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	retVal := make([]Node, len(t.nodes))
	for i := range t.nodes {
		retVal[i] = t.nodes[i].clone()
	}
	return retVal
}

// BestChild returns the most visited child of parent. Ties go to the child
// added first. None is returned when parent has no children or does not exist.
func (t *Tree) BestChild(parent NodeID) NodeID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.valid(parent) {
		return None
	}
	best := None
	var maxVisits int32 = -1
	for _, kid := range t.nodes[parent].Children {
		if v := t.nodes[kid].Visits; v > maxVisits {
			maxVisits = v
			best = kid
		}
	}
	return best
}

// Children returns a copy of the children of parent.
func (t *Tree) Children(parent NodeID) ([]NodeID, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if err := t.checkOpen(); err != nil {
		return nil, err
	}
	if !t.valid(parent) {
		return nil, errors.Wrapf(ErrInvalidNode, "children of %d (%d nodes)", parent, len(t.nodes))
	}
	kids := t.nodes[parent].Children
	retVal := make([]NodeID, len(kids))
	copy(retVal, kids)
	return retVal, nil
}

// ChildrenInto copies up to len(buf) children of parent into buf and returns
// the number of children parent actually has.
func (t *Tree) ChildrenInto(parent NodeID, buf []NodeID) (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if err := t.checkOpen(); err != nil {
		return 0, err
	}
	if !t.valid(parent) {
		return 0, errors.Wrapf(ErrInvalidNode, "children of %d (%d nodes)", parent, len(t.nodes))
	}
	kids := t.nodes[parent].Children
	copy(buf, kids)
	return len(kids), nil
}

// Path returns the ids from id up to and including its root.
func (t *Tree) Path(id NodeID) ([]NodeID, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if err := t.checkOpen(); err != nil {
		return nil, err
	}
	return t.path(id)
}

// Depth returns the number of edges between id and its root.
func (t *Tree) Depth(id NodeID) (int, error) {
	path, err := t.Path(id)
	if err != nil {
		return 0, err
	}
	return len(path) - 1, nil
}

// path walks from id up to its root. Must be called with a lock held.
func (t *Tree) path(id NodeID) ([]NodeID, error) {
	if !t.valid(id) {
		return nil, errors.Wrapf(ErrInvalidNode, "node %d (%d nodes)", id, len(t.nodes))
	}
	var retVal []NodeID
	for curr := id; curr != None; curr = t.nodes[curr].Parent {
		if !t.valid(curr) {
			return nil, errors.Wrapf(ErrInvalidNode, "ancestor %d of node %d", curr, id)
		}
		if len(retVal) >= len(t.nodes) {
			return nil, errors.Wrapf(ErrCycle, "ascent from %d did not reach a root", id)
		}
		retVal = append(retVal, curr)
	}
	return retVal, nil
}

func (t *Tree) valid(id NodeID) bool { return id.isValid() && int(id) < len(t.nodes) }

func (t *Tree) checkOpen() error {
	if t.closed {
		return errors.WithStack(ErrClosed)
	}
	return nil
}
