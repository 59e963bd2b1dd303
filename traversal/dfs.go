package traversal

import (
	"github.com/phirasit/nogdb/schema"
	"github.com/phirasit/nogdb/store"
)

/*
DFS performs a depth-first walk out of src: an explicit stack
of frames, pre-order emission as each frame is popped, children pushed in
reverse of the adjacency iteration order so that popping reproduces the
original iteration order. Same visited and filter discipline as BFS.
*/
func DFS(s *store.Store, cat *schema.Catalog, src store.RID, dir Direction, minDepth, maxDepth int, edgeFilter, vertexFilter *GraphFilter) ([]store.Descriptor, error) {
	ef := compile(cat, edgeFilter)
	vf := compile(cat, vertexFilter)

	type frame struct {
		rid   store.RID
		depth int
	}

	visited := map[store.RID]bool{src: true}
	stack := []frame{{src, 0}}

	var out []store.Descriptor

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		rec, err := s.GetRecord(cur.rid, nil)
		if err != nil {
			return nil, err
		}
		if withinDepth(cur.depth, minDepth, maxDepth) {
			rec.SetDepth(cur.depth)
			out = append(out, store.Descriptor{RID: cur.rid, Record: rec})
		}

		if atDepthLimit(cur.depth, maxDepth) {
			continue
		}

		ns, err := filteredNeighbors(s, cur.rid, dir, ef)
		if err != nil {
			return nil, err
		}

		var children []frame
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
			children = append(children, frame{n.Other, cur.depth + 1})
		}

		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}

	return out, nil
}
