// Package spatial implements an in-memory R-tree over point-valued sensor
// readings. Nodes live in an arena and refer to their parent by NodeID, so the
// tree holds no ownership cycles.
//
// An RTree is not safe for concurrent use; callers serialise access to it
// (see core/indexmanager).
package spatial

import "fmt"

const (
	// DefaultMaxEntries is the maximum number of entries a node can hold
	// unless overridden with WithMaxEntries.
	DefaultMaxEntries = 4

	// minMaxEntries is the smallest fanout for which splitting produces two
	// non-empty siblings.
	minMaxEntries = 2
)

// Option configures an RTree.
type Option func(*RTree) error

// WithMaxEntries sets the node capacity. MinEntries becomes maxEntries / 2.
func WithMaxEntries(maxEntries int) Option {
	return func(rt *RTree) error {
		if maxEntries < minMaxEntries {
			return fmt.Errorf("%w: max entries must be at least %d, got %d", ErrInvalidArgument, minMaxEntries, maxEntries)
		}
		rt.maxEntries = maxEntries
		rt.minEntries = maxEntries / 2
		return nil
	}
}

// WithMaxNodes bounds the node arena. Zero means unbounded.
func WithMaxNodes(maxNodes int) Option {
	return func(rt *RTree) error {
		if maxNodes < 0 {
			return fmt.Errorf("%w: max nodes must not be negative, got %d", ErrInvalidArgument, maxNodes)
		}
		rt.arena.maxNodes = maxNodes
		return nil
	}
}

// Stats are cumulative structural counters of a tree.
type Stats struct {
	Records     int
	Nodes       int
	Height      int
	Splits      uint64
	RootGrowths uint64
	Borrows     uint64
	Merges      uint64
	RootShrinks uint64
}

// RTree represents the R-tree index structure.
type RTree struct {
	arena      arena
	root       NodeID
	maxEntries int
	minEntries int
	size       int
	stats      Stats
}

// NewRTree creates an R-tree whose root is a single empty leaf.
func NewRTree(opts ...Option) (*RTree, error) {
	rt := &RTree{
		root:       InvalidNodeID,
		maxEntries: DefaultMaxEntries,
		minEntries: DefaultMaxEntries / 2,
	}
	for _, opt := range opts {
		if err := opt(rt); err != nil {
			return nil, err
		}
	}
	root, err := rt.arena.allocate(leafEntries{})
	if err != nil {
		return nil, fmt.Errorf("failed to allocate root node: %w", err)
	}
	rt.root = root.id
	return rt, nil
}

func (rt *RTree) node(id NodeID) *Node {
	return rt.arena.get(id)
}

// MaxEntries is the node capacity.
func (rt *RTree) MaxEntries() int { return rt.maxEntries }

// MinEntries is the minimum occupancy of any non-root node.
func (rt *RTree) MinEntries() int { return rt.minEntries }

// Len returns the number of records in the tree.
func (rt *RTree) Len() int { return rt.size }

// NodeCount returns the number of live nodes.
func (rt *RTree) NodeCount() int { return rt.arena.live }

// Root returns the id of the root node.
func (rt *RTree) Root() NodeID { return rt.root }

// Bounds returns the box of the whole tree; EmptyBox for an empty tree.
func (rt *RTree) Bounds() BoundingBox {
	return rt.node(rt.root).bbox
}

// Height is the number of node levels, 1 for a tree that is a single leaf.
func (rt *RTree) Height() int {
	h := 1
	n := rt.node(rt.root)
	for !n.isLeaf() {
		h++
		n = rt.node(n.items.(branchEntries)[0])
	}
	return h
}

// Stats returns a snapshot of the structural counters.
func (rt *RTree) Stats() Stats {
	s := rt.stats
	s.Records = rt.size
	s.Nodes = rt.arena.live
	s.Height = rt.Height()
	return s
}

// Walk visits every node in pre-order. Returning false from fn skips the
// node's subtree.
func (rt *RTree) Walk(fn func(NodeInfo) bool) {
	var recurse func(id NodeID, level int)
	recurse = func(id NodeID, level int) {
		n := rt.node(id)
		info := NodeInfo{
			ID:         n.id,
			Parent:     n.parent,
			Box:        n.bbox,
			Leaf:       n.isLeaf(),
			EntryCount: n.entryCount(),
			Level:      level,
		}
		if !fn(info) {
			return
		}
		if children, ok := n.items.(branchEntries); ok {
			for _, child := range children {
				recurse(child, level+1)
			}
		}
	}
	recurse(rt.root, 0)
}

// computeBox is the tight union of the node's current entries.
func (rt *RTree) computeBox(n *Node) BoundingBox {
	box := EmptyBox()
	for i := 0; i < n.items.len(); i++ {
		box = box.Union(n.items.box(rt, i))
	}
	return box
}

func (rt *RTree) updateBox(n *Node) {
	n.bbox = rt.computeBox(n)
}

// refreshUpward recomputes the box of the node and of every ancestor up to
// the root.
func (rt *RTree) refreshUpward(id NodeID) {
	for id != InvalidNodeID {
		n := rt.node(id)
		rt.updateBox(n)
		id = n.parent
	}
}

// indexInParent returns the position of child within its parent's entries.
func (rt *RTree) indexInParent(child *Node) int {
	parent := rt.node(child.parent)
	for i, id := range parent.items.(branchEntries) {
		if id == child.id {
			return i
		}
	}
	return -1
}
