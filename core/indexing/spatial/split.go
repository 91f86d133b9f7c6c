package spatial

import "fmt"

// split splits an overflowing node and keeps splitting ancestors for as long
// as the re-linking overflows them.
func (rt *RTree) split(n *Node) error {
	for n != nil && n.entryCount() > rt.maxEntries {
		parent, err := rt.splitNode(n)
		if err != nil {
			return err
		}
		n = parent
	}
	return nil
}

// splitNode replaces an overflowing node by two new siblings of the same kind
// and returns the parent they were linked into, or nil when a new root was
// grown above them.
//
// Seeds are the two entries whose representative points are furthest apart in
// Manhattan distance. Every other entry, in order, joins the sibling whose
// running box grows least (ties go to the second sibling), unless a sibling
// needs all remaining entries to reach MinEntries.
func (rt *RTree) splitNode(n *Node) (*Node, error) {
	count := n.entryCount()
	boxes := make([]BoundingBox, count)
	for i := range boxes {
		boxes[i] = n.items.box(rt, i)
	}

	seed1, seed2 := pickSeeds(boxes)

	group1 := []int{seed1}
	group2 := []int{seed2}
	box1, box2 := boxes[seed1], boxes[seed2]

	remaining := count - 2
	for i := 0; i < count; i++ {
		if i == seed1 || i == seed2 {
			continue
		}
		switch {
		case len(group1)+remaining <= rt.minEntries:
			group1 = append(group1, i)
			box1 = box1.Union(boxes[i])
		case len(group2)+remaining <= rt.minEntries:
			group2 = append(group2, i)
			box2 = box2.Union(boxes[i])
		case box1.Enlargement(boxes[i]) < box2.Enlargement(boxes[i]):
			group1 = append(group1, i)
			box1 = box1.Union(boxes[i])
		default:
			group2 = append(group2, i)
			box2 = box2.Union(boxes[i])
		}
		remaining--
	}

	sibling1, err := rt.arena.allocate(partition(n.items, group1))
	if err != nil {
		return nil, fmt.Errorf("failed to allocate first sibling for node %d: %w", n.id, err)
	}
	sibling2, err := rt.arena.allocate(partition(n.items, group2))
	if err != nil {
		rt.arena.release(sibling1.id)
		return nil, fmt.Errorf("failed to allocate second sibling for node %d: %w", n.id, err)
	}
	sibling1.bbox, sibling2.bbox = box1, box2
	rt.adoptChildren(sibling1)
	rt.adoptChildren(sibling2)

	if n.parent == InvalidNodeID {
		root, err := rt.arena.allocate(branchEntries{sibling1.id, sibling2.id})
		if err != nil {
			rt.arena.release(sibling1.id)
			rt.arena.release(sibling2.id)
			rt.adoptChildren(n)
			return nil, fmt.Errorf("failed to allocate new root: %w", err)
		}
		sibling1.parent, sibling2.parent = root.id, root.id
		rt.updateBox(root)
		rt.root = root.id
		rt.arena.release(n.id)
		rt.stats.Splits++
		rt.stats.RootGrowths++
		return nil, nil
	}

	parent := rt.node(n.parent)
	idx := rt.indexInParent(n)
	siblings := parent.items.(branchEntries)
	relinked := make(branchEntries, 0, len(siblings)+1)
	relinked = append(relinked, siblings[:idx]...)
	relinked = append(relinked, sibling1.id, sibling2.id)
	relinked = append(relinked, siblings[idx+1:]...)
	parent.items = relinked
	sibling1.parent, sibling2.parent = parent.id, parent.id
	rt.updateBox(parent)

	rt.arena.release(n.id)
	rt.stats.Splits++
	return parent, nil
}

// pickSeeds returns the first pair (i < j) maximising the Manhattan distance
// between the entries' box centres. For point entries the centre is the point.
func pickSeeds(boxes []BoundingBox) (int, int) {
	seed1, seed2 := 0, 1
	maxDistance := -1
	for i := 0; i < len(boxes); i++ {
		ci := boxes[i].doubledCenter()
		for j := i + 1; j < len(boxes); j++ {
			if d := manhattan(ci, boxes[j].doubledCenter()); d > maxDistance {
				maxDistance = d
				seed1, seed2 = i, j
			}
		}
	}
	return seed1, seed2
}

// partition copies the selected entries, in the given order, into a fresh
// entry list of the same kind.
func partition(items entries, idx []int) entries {
	switch src := items.(type) {
	case leafEntries:
		out := make(leafEntries, 0, len(idx))
		for _, i := range idx {
			out = append(out, src[i])
		}
		return out
	case branchEntries:
		out := make(branchEntries, 0, len(idx))
		for _, i := range idx {
			out = append(out, src[i])
		}
		return out
	default:
		panic(fmt.Sprintf("spatial: unknown node entries %T", items))
	}
}

// adoptChildren points the parent back-reference of every child of n at n.
func (rt *RTree) adoptChildren(n *Node) {
	children, ok := n.items.(branchEntries)
	if !ok {
		return
	}
	for _, child := range children {
		rt.node(child).parent = n.id
	}
}
