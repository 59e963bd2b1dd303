package nogdb

import (
	"github.com/phirasit/nogdb/store"
	"github.com/phirasit/nogdb/traversal"
)

// Direction and NoDepthLimit are re-exported so host code never needs to
// import the traversal package directly.
type Direction = traversal.Direction

const (
	Out           = traversal.Out
	In            = traversal.In
	AllDirections = traversal.All
	NoDepthLimit  = traversal.NoDepthLimit
)

/*
OutBFS walks breadth-first out of src following out-edges.
*/
func (t *Txn) OutBFS(src RID, minDepth, maxDepth int, edgeFilter, vertexFilter *GraphFilter) ([]store.Descriptor, error) {
	return traversal.BFS(t.store, t.cat, src, traversal.Out, minDepth, maxDepth, edgeFilter, vertexFilter)
}

/*
InBFS walks breadth-first out of src following in-edges.
*/
func (t *Txn) InBFS(src RID, minDepth, maxDepth int, edgeFilter, vertexFilter *GraphFilter) ([]store.Descriptor, error) {
	return traversal.BFS(t.store, t.cat, src, traversal.In, minDepth, maxDepth, edgeFilter, vertexFilter)
}

/*
AllBFS walks breadth-first out of src following both out- and in-edges.
*/
func (t *Txn) AllBFS(src RID, minDepth, maxDepth int, edgeFilter, vertexFilter *GraphFilter) ([]store.Descriptor, error) {
	return traversal.BFS(t.store, t.cat, src, traversal.All, minDepth, maxDepth, edgeFilter, vertexFilter)
}

/*
OutDFS walks depth-first out of src following out-edges.
*/
func (t *Txn) OutDFS(src RID, minDepth, maxDepth int, edgeFilter, vertexFilter *GraphFilter) ([]store.Descriptor, error) {
	return traversal.DFS(t.store, t.cat, src, traversal.Out, minDepth, maxDepth, edgeFilter, vertexFilter)
}

/*
InDFS walks depth-first out of src following in-edges.
*/
func (t *Txn) InDFS(src RID, minDepth, maxDepth int, edgeFilter, vertexFilter *GraphFilter) ([]store.Descriptor, error) {
	return traversal.DFS(t.store, t.cat, src, traversal.In, minDepth, maxDepth, edgeFilter, vertexFilter)
}

/*
AllDFS walks depth-first out of src following both out- and in-edges.
*/
func (t *Txn) AllDFS(src RID, minDepth, maxDepth int, edgeFilter, vertexFilter *GraphFilter) ([]store.Descriptor, error) {
	return traversal.DFS(t.store, t.cat, src, traversal.All, minDepth, maxDepth, edgeFilter, vertexFilter)
}

/*
ShortestPath finds an unweighted shortest path from src to dst following
dir. Returns an empty slice if dst is unreachable.
*/
func (t *Txn) ShortestPath(src, dst RID, dir Direction, edgeFilter, vertexFilter *GraphFilter) ([]store.Descriptor, error) {
	return traversal.ShortestPath(t.store, t.cat, src, dst, dir, edgeFilter, vertexFilter)
}

/*
OutBFSCursor, InBFSCursor, AllBFSCursor, OutDFSCursor, InDFSCursor,
AllDFSCursor and ShortestPathCursor are the cursor variants of the
traversal entry points above.
*/
func (t *Txn) OutBFSCursor(src RID, minDepth, maxDepth int, edgeFilter, vertexFilter *GraphFilter) (*ResultCursor, error) {
	out, err := t.OutBFS(src, minDepth, maxDepth, edgeFilter, vertexFilter)
	if err != nil {
		return nil, err
	}
	return newResultCursor(out), nil
}

func (t *Txn) InBFSCursor(src RID, minDepth, maxDepth int, edgeFilter, vertexFilter *GraphFilter) (*ResultCursor, error) {
	out, err := t.InBFS(src, minDepth, maxDepth, edgeFilter, vertexFilter)
	if err != nil {
		return nil, err
	}
	return newResultCursor(out), nil
}

func (t *Txn) AllBFSCursor(src RID, minDepth, maxDepth int, edgeFilter, vertexFilter *GraphFilter) (*ResultCursor, error) {
	out, err := t.AllBFS(src, minDepth, maxDepth, edgeFilter, vertexFilter)
	if err != nil {
		return nil, err
	}
	return newResultCursor(out), nil
}

func (t *Txn) OutDFSCursor(src RID, minDepth, maxDepth int, edgeFilter, vertexFilter *GraphFilter) (*ResultCursor, error) {
	out, err := t.OutDFS(src, minDepth, maxDepth, edgeFilter, vertexFilter)
	if err != nil {
		return nil, err
	}
	return newResultCursor(out), nil
}

func (t *Txn) InDFSCursor(src RID, minDepth, maxDepth int, edgeFilter, vertexFilter *GraphFilter) (*ResultCursor, error) {
	out, err := t.InDFS(src, minDepth, maxDepth, edgeFilter, vertexFilter)
	if err != nil {
		return nil, err
	}
	return newResultCursor(out), nil
}

func (t *Txn) AllDFSCursor(src RID, minDepth, maxDepth int, edgeFilter, vertexFilter *GraphFilter) (*ResultCursor, error) {
	out, err := t.AllDFS(src, minDepth, maxDepth, edgeFilter, vertexFilter)
	if err != nil {
		return nil, err
	}
	return newResultCursor(out), nil
}

func (t *Txn) ShortestPathCursor(src, dst RID, dir Direction, edgeFilter, vertexFilter *GraphFilter) (*ResultCursor, error) {
	out, err := t.ShortestPath(src, dst, dir, edgeFilter, vertexFilter)
	if err != nil {
		return nil, err
	}
	return newResultCursor(out), nil
}

/*
Dijkstra finds a minimum-cost path from src to dst using a non-negative
edge cost function, following dir. Returns the total cost and the path's
vertices; a zero cost and an empty path if dst is unreachable.
*/
func Dijkstra[T traversal.Number](t *Txn, src, dst RID, dir Direction, cost traversal.CostFunc[T], edgeFilter, vertexFilter *GraphFilter) (T, []store.Descriptor, error) {
	return traversal.Dijkstra(t.store, t.cat, src, dst, dir, cost, edgeFilter, vertexFilter)
}
