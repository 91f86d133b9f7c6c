package spatial

import "fmt"

// CheckInvariants walks the whole tree and reports the first violated
// structural property: stale or loose boxes, occupancy outside
// [MinEntries, MaxEntries] for a non-root node, broken parent links, leaves at
// different depths, or a record count that disagrees with Len.
func (rt *RTree) CheckInvariants() error {
	root := rt.node(rt.root)
	if root == nil {
		return fmt.Errorf("%w: root %d is not a live node", ErrCorruptTree, rt.root)
	}
	if root.parent != InvalidNodeID {
		return fmt.Errorf("%w: root %d has parent %d", ErrCorruptTree, root.id, root.parent)
	}

	leafDepth := -1
	records := 0
	visited := 0

	var check func(n *Node, depth int) error
	check = func(n *Node, depth int) error {
		visited++
		if want := rt.computeBox(n); n.bbox != want {
			return fmt.Errorf("%w: node %d box %v, want %v", ErrCorruptTree, n.id, n.bbox, want)
		}
		count := n.entryCount()
		if count > rt.maxEntries {
			return fmt.Errorf("%w: node %d holds %d entries, max %d", ErrCorruptTree, n.id, count, rt.maxEntries)
		}
		if n.id != rt.root && count < rt.minEntries {
			return fmt.Errorf("%w: node %d holds %d entries, min %d", ErrCorruptTree, n.id, count, rt.minEntries)
		}

		switch items := n.items.(type) {
		case leafEntries:
			if leafDepth == -1 {
				leafDepth = depth
			} else if leafDepth != depth {
				return fmt.Errorf("%w: leaf %d at depth %d, other leaves at %d", ErrCorruptTree, n.id, depth, leafDepth)
			}
			records += len(items)
		case branchEntries:
			if len(items) == 0 {
				return fmt.Errorf("%w: internal node %d has no children", ErrCorruptTree, n.id)
			}
			for _, id := range items {
				child := rt.node(id)
				if child == nil {
					return fmt.Errorf("%w: node %d links released node %d", ErrCorruptTree, n.id, id)
				}
				if child.parent != n.id {
					return fmt.Errorf("%w: node %d has parent %d, linked from %d", ErrCorruptTree, id, child.parent, n.id)
				}
				if err := check(child, depth+1); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := check(root, 0); err != nil {
		return err
	}

	if !root.isLeaf() && root.entryCount() < 2 {
		return fmt.Errorf("%w: internal root %d has %d children", ErrCorruptTree, root.id, root.entryCount())
	}
	if records != rt.size {
		return fmt.Errorf("%w: %d records reachable, size is %d", ErrCorruptTree, records, rt.size)
	}
	if visited != rt.arena.live {
		return fmt.Errorf("%w: %d nodes reachable, %d allocated", ErrCorruptTree, visited, rt.arena.live)
	}
	return nil
}
