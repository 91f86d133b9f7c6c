package spatial

import "fmt"

// Delete removes the record at point p. When several records share the
// coordinate, the one Search would return is removed. An absent coordinate
// yields ErrNotFound and leaves the tree untouched.
func (rt *RTree) Delete(p Point) error {
	leaf, idx := rt.findLeaf(rt.root, p)
	if leaf == nil {
		return fmt.Errorf("%w: no sensor at %v", ErrNotFound, p)
	}

	records := leaf.items.(leafEntries)
	copy(records[idx:], records[idx+1:])
	records[len(records)-1] = nil
	leaf.items = records[:len(records)-1]
	rt.size--
	rt.updateBox(leaf)

	rt.condense(leaf)
	rt.shortenRoot()
	return nil
}

// findLeaf returns the leaf and entry index of the first record at p in
// pre-order, exploring every child whose box overlaps the point.
func (rt *RTree) findLeaf(id NodeID, p Point) (*Node, int) {
	n := rt.node(id)
	target := PointBox(p)
	if !n.bbox.Overlaps(target) {
		return nil, -1
	}
	switch items := n.items.(type) {
	case leafEntries:
		for i, rec := range items {
			if rec.Point == p {
				return n, i
			}
		}
	case branchEntries:
		for _, child := range items {
			if leaf, idx := rt.findLeaf(child, p); leaf != nil {
				return leaf, idx
			}
		}
	}
	return nil, -1
}

// condense rebalances from n upwards after n lost an entry. An underflowing
// node borrows one entry from the first sibling that can spare one, or else
// absorbs its first sibling, in which case the parent lost an entry and is
// checked in turn. Boxes are tight up to the root when condense returns.
func (rt *RTree) condense(n *Node) {
	for {
		if n.id == rt.root || n.entryCount() >= rt.minEntries {
			rt.refreshUpward(n.id)
			return
		}

		parent := rt.node(n.parent)
		lender, first := rt.findSiblings(n)
		switch {
		case lender != nil:
			rt.borrow(n, lender)
			rt.refreshUpward(parent.id)
			return
		case first != nil:
			rt.merge(n, first)
			rt.updateBox(parent)
			n = parent
		case n.entryCount() == 0:
			// An only child with nothing left; drop it and recheck the parent.
			rt.unlink(n)
			rt.updateBox(parent)
			n = parent
		default:
			// A lone child of the root; shortenRoot lifts it.
			rt.refreshUpward(n.id)
			return
		}
	}
}

// findSiblings returns the first sibling of n holding more than MinEntries,
// and the first sibling of n at all.
func (rt *RTree) findSiblings(n *Node) (lender, first *Node) {
	for _, id := range rt.node(n.parent).items.(branchEntries) {
		if id == n.id {
			continue
		}
		sibling := rt.node(id)
		if first == nil {
			first = sibling
		}
		if sibling.entryCount() > rt.minEntries {
			return sibling, first
		}
	}
	return nil, first
}

// borrow moves the sibling entry whose inclusion enlarges n least into n.
func (rt *RTree) borrow(n, sibling *Node) {
	best := 0
	bestEnlargement := n.bbox.Enlargement(sibling.items.box(rt, 0))
	for i := 1; i < sibling.entryCount(); i++ {
		if e := n.bbox.Enlargement(sibling.items.box(rt, i)); e < bestEnlargement {
			best, bestEnlargement = i, e
		}
	}

	switch from := sibling.items.(type) {
	case leafEntries:
		n.items = append(n.items.(leafEntries), from[best])
		sibling.items = append(from[:best:best], from[best+1:]...)
	case branchEntries:
		moved := from[best]
		n.items = append(n.items.(branchEntries), moved)
		sibling.items = append(from[:best:best], from[best+1:]...)
		rt.node(moved).parent = n.id
	}
	rt.updateBox(n)
	rt.updateBox(sibling)
	rt.stats.Borrows++
}

// merge moves every entry of sibling into n, unlinks sibling from the shared
// parent and releases it.
func (rt *RTree) merge(n, sibling *Node) {
	switch from := sibling.items.(type) {
	case leafEntries:
		n.items = append(n.items.(leafEntries), from...)
	case branchEntries:
		n.items = append(n.items.(branchEntries), from...)
		for _, child := range from {
			rt.node(child).parent = n.id
		}
	}
	rt.updateBox(n)
	rt.unlink(sibling)
	rt.stats.Merges++
}

// unlink removes n from its parent's entries and releases it.
func (rt *RTree) unlink(n *Node) {
	parent := rt.node(n.parent)
	idx := rt.indexInParent(n)
	children := parent.items.(branchEntries)
	parent.items = append(children[:idx:idx], children[idx+1:]...)
	rt.arena.release(n.id)
}

// shortenRoot replaces an internal root that has a single child by that child.
func (rt *RTree) shortenRoot() {
	for {
		root := rt.node(rt.root)
		children, ok := root.items.(branchEntries)
		if !ok || len(children) != 1 {
			return
		}
		child := rt.node(children[0])
		child.parent = InvalidNodeID
		rt.arena.release(root.id)
		rt.root = child.id
		rt.stats.RootShrinks++
	}
}
