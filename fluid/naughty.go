package fluid

// NodeID is essentially a *Node. It indexes the tree's node store, and is the
// position of the node in that store.
type NodeID int32

// None is the parent of a root. Lookups that find nothing return it too.
const None NodeID = -1

func (n NodeID) isValid() bool { return n >= 0 }
