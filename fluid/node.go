package fluid

import "fmt"

const initialConductivity = 0.5

// Node is a vertex of the fluid tree. Nodes returned by the Tree are copies;
// mutating them has no effect on the tree.
type Node struct {
	ID           NodeID
	Visits       int32   // visits to this node. Only backpropagation increments it
	Conductivity float64 // accumulated quality of the node, analogous to a win rate
	Parent       NodeID
	Children     []NodeID // insertion order. Duplicates are allowed
}

func newNode(id, parent NodeID) Node {
	return Node{
		ID:           id,
		Conductivity: initialConductivity,
		Parent:       parent,
	}
}

// IsLeaf returns true if the node has no children.
func (n Node) IsLeaf() bool { return len(n.Children) == 0 }

// IsRoot returns true if the node has no parent.
func (n Node) IsRoot() bool { return n.Parent == None }

func (n Node) clone() Node {
	if n.Children != nil {
		kids := make([]NodeID, len(n.Children))
		copy(kids, n.Children)
		n.Children = kids
	}
	return n
}

func (n Node) Format(s fmt.State, c rune) {
	fmt.Fprintf(s, "{NodeID: %d Parent: %d Visits: %d Conductivity: %v Children: %v}", n.ID, n.Parent, n.Visits, n.Conductivity, n.Children)
}
