package traversal

import (
	"github.com/phirasit/nogdb/schema"
	"github.com/phirasit/nogdb/store"
)

/*
ShortestPath finds an unweighted shortest path from src to dst with plain
BFS: a parent-pointer map records the predecessor vertex for
each discovered vertex; the search stops as soon as dst is dequeued;
the path is reconstructed by walking predecessors back to src and
reversing. Returns an empty sequence if dst is unreachable; returns
[src] with depth 0 if src == dst.
*/
func ShortestPath(s *store.Store, cat *schema.Catalog, src, dst store.RID, dir Direction, edgeFilter, vertexFilter *GraphFilter) ([]store.Descriptor, error) {
	if src == dst {
		rec, err := s.GetRecord(src, nil)
		if err != nil {
			return nil, err
		}
		rec.SetDepth(0)
		return []store.Descriptor{{RID: src, Record: rec}}, nil
	}

	ef := compile(cat, edgeFilter)
	vf := compile(cat, vertexFilter)

	visited := map[store.RID]bool{src: true}
	parent := map[store.RID]store.RID{}
	queue := []store.RID{src}

	found := false
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur == dst {
			found = true
			break
		}

		ns, err := filteredNeighbors(s, cur, dir, ef)
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
			parent[n.Other] = cur
			queue = append(queue, n.Other)
		}
	}

	if !found {
		return nil, nil
	}

	var ridPath []store.RID
	cur := dst
	for cur != src {
		ridPath = append(ridPath, cur)
		cur = parent[cur]
	}
	ridPath = append(ridPath, src)

	out := make([]store.Descriptor, len(ridPath))
	for i, rid := range ridPath {
		depth := len(ridPath) - 1 - i
		rec, err := s.GetRecord(rid, nil)
		if err != nil {
			return nil, err
		}
		rec.SetDepth(depth)
		out[depth] = store.Descriptor{RID: rid, Record: rec}
	}

	return out, nil
}
