package spatial

import "fmt"

// Insert adds a copy of the record to the tree. Duplicate coordinates are
// kept as separate records.
func (rt *RTree) Insert(rec *SensorRecord) error {
	if rec == nil {
		return fmt.Errorf("%w: cannot insert a nil sensor record", ErrInvalidArgument)
	}

	leaf := rt.chooseLeaf(rec.Box())

	// Reserve the nodes a cascading split could need before touching the tree.
	if need := rt.splitAllocations(leaf); need > rt.arena.available() {
		return fmt.Errorf("%w: insert of %v needs %d new nodes, %d available",
			ErrResourceExhausted, rec.Point, need, rt.arena.available())
	}

	stored := *rec
	leaf.items = append(leaf.items.(leafEntries), &stored)
	rt.size++
	rt.growUpward(leaf, stored.Box())

	if leaf.entryCount() > rt.maxEntries {
		if err := rt.split(leaf); err != nil {
			return fmt.Errorf("failed to split leaf node %d: %w", leaf.id, err)
		}
	}
	return nil
}

// chooseLeaf descends from the root, at each level following the child whose
// box needs the least area enlargement to include box. Ties go to the child
// encountered first.
func (rt *RTree) chooseLeaf(box BoundingBox) *Node {
	current := rt.node(rt.root)
	for !current.isLeaf() {
		children := current.items.(branchEntries)
		best := children[0]
		minEnlargement := rt.node(best).bbox.Enlargement(box)
		for _, child := range children[1:] {
			if enlargement := rt.node(child).bbox.Enlargement(box); enlargement < minEnlargement {
				minEnlargement = enlargement
				best = child
			}
		}
		current = rt.node(best)
	}
	return current
}

// growUpward expands the box of n and of every ancestor to include box.
func (rt *RTree) growUpward(n *Node, box BoundingBox) {
	for n != nil {
		n.bbox = n.bbox.Union(box)
		n = rt.node(n.parent)
	}
}

// splitAllocations is the peak number of extra nodes an insert into leaf can
// allocate: every full node from the leaf upwards splits, each split holds two
// new siblings before releasing the original, and a root split adds a root.
func (rt *RTree) splitAllocations(leaf *Node) int {
	splits := 0
	reachedRoot := false
	for n := leaf; n != nil && n.entryCount() >= rt.maxEntries; n = rt.node(n.parent) {
		splits++
		reachedRoot = n.id == rt.root
	}
	if splits == 0 {
		return 0
	}
	need := splits + 1
	if reachedRoot {
		need++
	}
	return need
}
