package traversal

import (
	"github.com/phirasit/nogdb/schema"
	"github.com/phirasit/nogdb/store"
)

/*
BFS performs a breadth-first walk out of src. A visited set
keyed by vertex RID prevents revisits; the source is emitted iff
minDepth == 0; each discovered vertex carries @depth set to the level it
was found at. maxDepth may be NoDepthLimit for an unbounded walk.
*/
func BFS(s *store.Store, cat *schema.Catalog, src store.RID, dir Direction, minDepth, maxDepth int, edgeFilter, vertexFilter *GraphFilter) ([]store.Descriptor, error) {
	ef := compile(cat, edgeFilter)
	vf := compile(cat, vertexFilter)

	var out []store.Descriptor
	visited := map[store.RID]bool{src: true}

	if withinDepth(0, minDepth, maxDepth) {
		rec, err := s.GetRecord(src, nil)
		if err != nil {
			return nil, err
		}
		rec.SetDepth(0)
		out = append(out, store.Descriptor{RID: src, Record: rec})
	}

	type queued struct {
		rid   store.RID
		depth int
	}
	queue := []queued{{src, 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if atDepthLimit(cur.depth, maxDepth) {
			continue
		}

		ns, err := filteredNeighbors(s, cur.rid, dir, ef)
		if err != nil {
			return nil, err
		}

		for _, n := range ns {
			if visited[n.Other] {
				continue
			}

			otherRec, err := s.GetRecord(n.Other, nil)
			if err != nil {
				return nil, err
			}
			otherCD, ok := cat.ClassByID(n.Other.ClassID)
			if !ok {
				continue
			}
			if !vf.match(otherCD.ClassID, otherRec) {
				continue
			}

			visited[n.Other] = true
			depth := cur.depth + 1
			queue = append(queue, queued{n.Other, depth})

			if withinDepth(depth, minDepth, maxDepth) {
				otherRec.SetDepth(depth)
				out = append(out, store.Descriptor{RID: n.Other, Record: otherRec})
			}
		}
	}

	return out, nil
}
