package traversal

import (
	"container/heap"

	"golang.org/x/exp/constraints"

	"github.com/phirasit/nogdb/schema"
	"github.com/phirasit/nogdb/store"
)

/*
Number is the constraint a Dijkstra cost type must satisfy: totally
ordered (for the min-heap) and closed under addition (for accumulating
path cost).
*/
type Number interface {
	constraints.Integer | constraints.Float
}

/*
CostFunc computes one edge's weight for Dijkstra.
*/
type CostFunc[T Number] func(edge store.RID) (T, error)

type pqItem[T Number] struct {
	rid  store.RID
	dist T
}

type priorityQueue[T Number] []pqItem[T]

func (pq priorityQueue[T]) Len() int            { return len(pq) }
func (pq priorityQueue[T]) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq priorityQueue[T]) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue[T]) Push(x interface{}) { *pq = append(*pq, x.(pqItem[T])) }
func (pq *priorityQueue[T]) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

/*
Dijkstra finds a minimum-cost path from src to dst using a non-negative
edge cost function: a min-heap keyed by cumulative cost,
skipping popped entries whose stored distance is stale, terminating as
soon as dst is popped. Returns the total cost and the path's vertices
(each with @depth set to its position in the path); an empty path and the
zero cost if dst is unreachable.
*/
func Dijkstra[T Number](s *store.Store, cat *schema.Catalog, src, dst store.RID, dir Direction, cost CostFunc[T], edgeFilter, vertexFilter *GraphFilter) (T, []store.Descriptor, error) {
	var zero T

	if src == dst {
		rec, err := s.GetRecord(src, nil)
		if err != nil {
			return zero, nil, err
		}
		rec.SetDepth(0)
		return zero, []store.Descriptor{{RID: src, Record: rec}}, nil
	}

	ef := compile(cat, edgeFilter)
	vf := compile(cat, vertexFilter)

	dist := map[store.RID]T{src: zero}
	parent := map[store.RID]store.RID{}
	settled := map[store.RID]bool{}

	pq := &priorityQueue[T]{{rid: src, dist: zero}}
	heap.Init(pq)

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(pqItem[T])

		if settled[cur.rid] {
			continue
		}
		if d, ok := dist[cur.rid]; ok && cur.dist > d {
			continue // stale entry
		}
		settled[cur.rid] = true

		if cur.rid == dst {
			break
		}

		ns, err := filteredNeighbors(s, cur.rid, dir, ef)
		if err != nil {
			return zero, nil, err
		}

		for _, n := range ns {
			if settled[n.Other] {
				continue
			}

			otherRec, err := s.GetRecord(n.Other, nil)
			if err != nil {
				return zero, nil, err
			}
			otherCD, ok := cat.ClassByID(n.Other.ClassID)
			if !ok {
				continue
			}
			if !vf.match(otherCD.ClassID, otherRec) {
				continue
			}

			w, err := cost(n.EdgeRID)
			if err != nil {
				return zero, nil, err
			}

			candidate := cur.dist + w
			if d, ok := dist[n.Other]; !ok || candidate < d {
				dist[n.Other] = candidate
				parent[n.Other] = cur.rid
				heap.Push(pq, pqItem[T]{rid: n.Other, dist: candidate})
			}
		}
	}

	totalCost, reached := dist[dst]
	if !reached || !settled[dst] {
		return zero, nil, nil
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
			return zero, nil, err
		}
		rec.SetDepth(depth)
		out[depth] = store.Descriptor{RID: rid, Record: rec}
	}

	return totalCost, out, nil
}
