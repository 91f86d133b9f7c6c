package spatial

// NodeID is the stable arena index of a node.
type NodeID int

// InvalidNodeID marks the absence of a node, e.g. the parent of the root.
const InvalidNodeID NodeID = -1

// entries is the tagged payload of a node: either leafEntries or
// branchEntries, never both.
type entries interface {
	len() int
	box(rt *RTree, i int) BoundingBox
	sealed()
}

// leafEntries are the records owned by a leaf.
type leafEntries []*SensorRecord

func (e leafEntries) len() int                         { return len(e) }
func (e leafEntries) box(_ *RTree, i int) BoundingBox { return e[i].Box() }
func (leafEntries) sealed()                            {}

// branchEntries are the children owned by an internal node.
type branchEntries []NodeID

func (e branchEntries) len() int                          { return len(e) }
func (e branchEntries) box(rt *RTree, i int) BoundingBox { return rt.node(e[i]).bbox }
func (branchEntries) sealed()                             {}

// Node represents a node in the R-tree.
type Node struct {
	id     NodeID
	parent NodeID // back-reference only; InvalidNodeID for the root
	bbox   BoundingBox
	items  entries
}

func (n *Node) isLeaf() bool {
	_, ok := n.items.(leafEntries)
	return ok
}

func (n *Node) entryCount() int {
	return n.items.len()
}

// NodeInfo is a read-only view of a node handed out by Walk.
type NodeInfo struct {
	ID         NodeID
	Parent     NodeID
	Box        BoundingBox
	Leaf       bool
	EntryCount int
	Level      int // 0 for the root
}

// arena owns every node of a tree. Released slots are recycled.
type arena struct {
	nodes    []*Node
	free     []NodeID
	live     int
	maxNodes int // 0 means unbounded
}

// available reports how many more nodes can be allocated.
func (a *arena) available() int {
	if a.maxNodes <= 0 {
		return int(^uint(0) >> 1)
	}
	return a.maxNodes - a.live
}

func (a *arena) allocate(items entries) (*Node, error) {
	if a.available() <= 0 {
		return nil, ErrResourceExhausted
	}
	var id NodeID
	if n := len(a.free); n > 0 {
		id = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		id = NodeID(len(a.nodes))
		a.nodes = append(a.nodes, nil)
	}
	node := &Node{id: id, parent: InvalidNodeID, bbox: EmptyBox(), items: items}
	a.nodes[id] = node
	a.live++
	return node, nil
}

func (a *arena) release(id NodeID) {
	a.nodes[id] = nil
	a.free = append(a.free, id)
	a.live--
}

func (a *arena) get(id NodeID) *Node {
	if id < 0 || int(id) >= len(a.nodes) {
		return nil
	}
	return a.nodes[id]
}
