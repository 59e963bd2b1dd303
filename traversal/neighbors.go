package traversal

import "github.com/phirasit/nogdb/store"

/*
neighbor is one candidate step out of a vertex during a traversal: the
edge taken and the vertex at its other end.
*/
type neighbor struct {
	EdgeRID     store.RID
	EdgeClassID uint16
	Other       store.RID
}

/*
rawNeighbors returns every adjacent (edge, other-vertex) pair of v in the
given direction, unfiltered. For All it is the concatenation of the out
and in relations; which relation a given ref came from determines whether
its other endpoint is the edge's dst or src.
*/
func rawNeighbors(s *store.Store, v store.RID, dir Direction) ([]neighbor, error) {
	var out []neighbor

	if dir == Out || dir == All {
		refs, err := s.GetOutEdges(v, 0)
		if err != nil {
			return nil, err
		}
		for _, ref := range refs {
			dst, err := s.GetDst(ref.EdgeRID)
			if err != nil {
				return nil, err
			}
			out = append(out, neighbor{EdgeRID: ref.EdgeRID, EdgeClassID: ref.EdgeClassID, Other: dst})
		}
	}

	if dir == In || dir == All {
		refs, err := s.GetInEdges(v, 0)
		if err != nil {
			return nil, err
		}
		for _, ref := range refs {
			src, err := s.GetSrc(ref.EdgeRID)
			if err != nil {
				return nil, err
			}
			out = append(out, neighbor{EdgeRID: ref.EdgeRID, EdgeClassID: ref.EdgeClassID, Other: src})
		}
	}

	return out, nil
}

/*
filteredNeighbors applies the edge filter to each candidate edge before
the caller ever looks at the other endpoint.
*/
func filteredNeighbors(s *store.Store, v store.RID, dir Direction, edgeFilter *compiledFilter) ([]neighbor, error) {
	all, err := rawNeighbors(s, v, dir)
	if err != nil {
		return nil, err
	}
	if edgeFilter == nil {
		return all, nil
	}

	var out []neighbor
	for _, n := range all {
		edgeRec, err := s.GetRecord(n.EdgeRID, nil)
		if err != nil {
			continue
		}
		if edgeFilter.match(n.EdgeClassID, edgeRec) {
			out = append(out, n)
		}
	}
	return out, nil
}
