package spatial

import "fmt"

// RangeQuery calls visit for every record whose point lies within or on the
// boundary of query and returns the number of matches. Subtrees whose box
// does not overlap query are skipped. visit may be nil to only count.
func (rt *RTree) RangeQuery(query BoundingBox, visit Visitor) int {
	count := 0
	var recurse func(id NodeID)
	recurse = func(id NodeID) {
		n := rt.node(id)
		if !n.bbox.Overlaps(query) {
			return
		}
		switch items := n.items.(type) {
		case leafEntries:
			for _, rec := range items {
				if rec.Box().Overlaps(query) {
					if visit != nil {
						visit(*rec)
					}
					count++
				}
			}
		case branchEntries:
			for _, child := range items {
				recurse(child)
			}
		}
	}
	recurse(rt.root)
	return count
}

// Search returns the first record at p found by a pre-order traversal of the
// branches overlapping p.
func (rt *RTree) Search(p Point) (SensorRecord, error) {
	leaf, idx := rt.findLeaf(rt.root, p)
	if leaf == nil {
		return SensorRecord{}, fmt.Errorf("%w: no sensor at %v", ErrNotFound, p)
	}
	return *leaf.items.(leafEntries)[idx], nil
}

// UpdatePayload overwrites, in place, the readings of the record Search would
// return for p. The tree structure is not touched.
func (rt *RTree) UpdatePayload(p Point, payload Payload) error {
	leaf, idx := rt.findLeaf(rt.root, p)
	if leaf == nil {
		return fmt.Errorf("%w: no sensor at %v", ErrNotFound, p)
	}
	leaf.items.(leafEntries)[idx].Payload = payload
	return nil
}
