package fluid

import (
	"fmt"
	"strconv"

	"github.com/awalterschulze/gographviz"
	"github.com/pkg/errors"
)

// ToDot renders the subtree under from as a Graphviz digraph. Nodes deeper than
// maxDepth below from are left out; a negative maxDepth renders everything.
func (t *Tree) ToDot(from NodeID, maxDepth int) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if err := t.checkOpen(); err != nil {
		return "", err
	}
	if !t.valid(from) {
		return "", errors.Wrapf(ErrInvalidNode, "render from %d (%d nodes)", from, len(t.nodes))
	}

	g := gographviz.NewGraph()
	if err := g.SetName("G"); err != nil {
		return "", errors.WithStack(err)
	}
	if err := g.SetDir(true); err != nil {
		return "", errors.WithStack(err)
	}

	type item struct {
		id    NodeID
		depth int
	}
	seen := make(map[NodeID]bool)
	queue := []item{{from, 0}}
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]
		if seen[it.id] {
			continue
		}
		seen[it.id] = true

		n := &t.nodes[it.id]
		attrs := map[string]string{
			"shape":    "box",
			"fontname": "Monaco",
			"label":    strconv.Quote(fmt.Sprintf("#%d\nvisits %d\nconductivity %.3f", n.ID, n.Visits, n.Conductivity)),
		}
		if err := g.AddNode("G", dotName(it.id), attrs); err != nil {
			return "", errors.WithStack(err)
		}
		if maxDepth >= 0 && it.depth >= maxDepth {
			continue
		}
		for _, kid := range n.Children {
			if err := g.AddEdge(dotName(it.id), dotName(kid), true, nil); err != nil {
				return "", errors.WithStack(err)
			}
			queue = append(queue, item{kid, it.depth + 1})
		}
	}
	return g.String(), nil
}

func dotName(id NodeID) string { return strconv.Itoa(int(id)) }
