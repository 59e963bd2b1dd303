package nogdb

import (
	"testing"

	"github.com/phirasit/nogdb/codec"
	"github.com/phirasit/nogdb/schema"
	"github.com/phirasit/nogdb/store"
)

// setupDiamondGraph builds V={v1..v5} with edges v1→v3, v1→v4, v2→v3,
// v2→v4, v3→v5 across two edge classes, returning the vertex RIDs by
// name.
func setupDiamondGraph(t *testing.T, ctx *Context) map[string]RID {
	txn := beginRW(t, ctx)

	if _, err := txn.CreateClass("nodes", schema.Vertex); err != nil {
		t.Fatal(err)
	}
	if _, err := txn.AddProperty("nodes", "name", codec.Text); err != nil {
		t.Fatal(err)
	}
	for _, ec := range []string{"eA", "eB"} {
		if _, err := txn.CreateClass(ec, schema.Edge); err != nil {
			t.Fatal(err)
		}
	}

	v := map[string]RID{}
	for _, name := range []string{"v1", "v2", "v3", "v4", "v5"} {
		rid, _, err := txn.CreateVertex("nodes", NewRecord().SetAttr("name", codec.EncodeText(name)))
		if err != nil {
			t.Fatal(err)
		}
		v[name] = rid
	}

	for _, e := range []struct {
		class, from, to string
	}{
		{"eA", "v1", "v3"},
		{"eB", "v1", "v4"},
		{"eA", "v2", "v3"},
		{"eB", "v2", "v4"},
		{"eA", "v3", "v5"},
	} {
		if _, _, err := txn.CreateEdge(e.class, v[e.from], v[e.to], NewRecord()); err != nil {
			t.Fatal(err)
		}
	}

	commit(t, txn)
	return v
}

func resultNames(descs []store.Descriptor) map[string]int {
	out := make(map[string]int, len(descs))
	for _, d := range descs {
		v, _ := d.Record.Attr("name")
		depth, _ := d.Record.Depth()
		out[codec.DecodeText(v)] = depth
	}
	return out
}

func TestAllBFSWithEdgeFilter(t *testing.T) {
	ctx := newTestContext(t)
	v := setupDiamondGraph(t, ctx)

	reader, err := ctx.Begin(ReadOnly)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Rollback()

	descs, err := reader.AllBFS(v["v2"], 1, 1, &GraphFilter{OnlyClasses: []string{"eA"}}, nil)
	if err != nil {
		t.Error(err)
		return
	}

	got := resultNames(descs)
	if len(got) != 1 || got["v3"] != 1 {
		t.Error("Unexpected single-hop eA set:", got)
	}
}

func TestOutBFSAndDFS(t *testing.T) {
	ctx := newTestContext(t)
	v := setupDiamondGraph(t, ctx)

	reader, err := ctx.Begin(ReadOnly)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Rollback()

	bfs, err := reader.OutBFS(v["v1"], 0, NoDepthLimit, nil, nil)
	if err != nil {
		t.Error(err)
		return
	}
	got := resultNames(bfs)
	want := map[string]int{"v1": 0, "v3": 1, "v4": 1, "v5": 2}
	if len(got) != len(want) {
		t.Error("Unexpected BFS set:", got)
	}
	for name, depth := range want {
		if got[name] != depth {
			t.Error("Unexpected BFS depth for", name, ":", got[name])
		}
	}

	dfs, err := reader.OutDFS(v["v1"], 0, NoDepthLimit, nil, nil)
	if err != nil {
		t.Error(err)
		return
	}
	if len(dfs) != len(bfs) {
		t.Error("BFS and DFS disagree on the reachable set:", len(dfs), len(bfs))
	}
}

func TestInBFS(t *testing.T) {
	ctx := newTestContext(t)
	v := setupDiamondGraph(t, ctx)

	reader, err := ctx.Begin(ReadOnly)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Rollback()

	descs, err := reader.InBFS(v["v5"], 1, NoDepthLimit, nil, nil)
	if err != nil {
		t.Error(err)
		return
	}

	got := resultNames(descs)
	want := map[string]int{"v3": 1, "v1": 2, "v2": 2}
	if len(got) != len(want) {
		t.Error("Unexpected ancestor set:", got)
		return
	}
	for name, depth := range want {
		if got[name] != depth {
			t.Error("Unexpected depth for", name, ":", got[name])
		}
	}
}

func TestShortestPathFacade(t *testing.T) {
	ctx := newTestContext(t)
	v := setupDiamondGraph(t, ctx)

	reader, err := ctx.Begin(ReadOnly)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Rollback()

	path, err := reader.ShortestPath(v["v1"], v["v5"], Out, nil, nil)
	if err != nil {
		t.Error(err)
		return
	}
	if len(path) != 3 {
		t.Error("Unexpected path length:", len(path))
		return
	}
	for i, d := range path {
		if depth, _ := d.Record.Depth(); depth != i {
			t.Error("Unexpected depth at position", i, ":", depth)
		}
	}

	// Against edge direction the target is unreachable.
	path, err = reader.ShortestPath(v["v5"], v["v1"], Out, nil, nil)
	if err != nil || len(path) != 0 {
		t.Error("Unexpected unreachable result:", path, err)
	}

	path, err = reader.ShortestPath(v["v1"], v["v1"], Out, nil, nil)
	if err != nil || len(path) != 1 {
		t.Error("Unexpected self path:", path, err)
	}
}

func TestDijkstraFacade(t *testing.T) {
	ctx := newTestContext(t)
	v := setupDiamondGraph(t, ctx)

	reader, err := ctx.Begin(ReadOnly)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Rollback()

	unit := func(RID) (uint64, error) { return 1, nil }

	cost, path, err := Dijkstra(reader, v["v1"], v["v5"], Out, unit, nil, nil)
	if err != nil {
		t.Error(err)
		return
	}

	// With unit costs the total equals the BFS depth of the target.
	if cost != 2 || len(path) != 3 {
		t.Error("Unexpected Dijkstra result:", cost, len(path))
	}
}

func TestGetEdgeFiltered(t *testing.T) {
	ctx := newTestContext(t)
	v := setupDiamondGraph(t, ctx)

	reader, err := ctx.Begin(ReadOnly)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Rollback()

	out, err := reader.GetOutEdge(v["v1"], &GraphFilter{OnlyClasses: []string{"eA"}})
	if err != nil {
		t.Error(err)
		return
	}
	if len(out) != 1 || out[0].Record.ClassName() != "eA" {
		t.Error("Unexpected filtered out edges:", out)
	}

	all, err := reader.GetAllEdge(v["v3"], nil)
	if err != nil {
		t.Error(err)
		return
	}
	if len(all) != 3 {
		t.Error("Unexpected incident edge count:", len(all))
	}

	in, err := reader.GetInEdge(v["v4"], &GraphFilter{IgnoreClasses: []string{"eB"}})
	if err != nil {
		t.Error(err)
		return
	}
	if len(in) != 0 {
		t.Error("Ignored class leaked through:", in)
	}
}

func TestTraversalCursors(t *testing.T) {
	ctx := newTestContext(t)
	v := setupDiamondGraph(t, ctx)

	reader, err := ctx.Begin(ReadOnly)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Rollback()

	cur, err := reader.OutBFSCursor(v["v1"], 0, NoDepthLimit, nil, nil)
	if err != nil {
		t.Error(err)
		return
	}
	if cur.Len() != 4 {
		t.Error("Unexpected cursor length:", cur.Len())
	}

	first, ok := cur.Next()
	if !ok || first.RID != v["v1"] {
		t.Error("Unexpected first result:", first.RID)
	}

	cur.Reset()
	if again, _ := cur.Next(); again.RID != v["v1"] {
		t.Error("Reset did not rewind the cursor")
	}

	pathCur, err := reader.ShortestPathCursor(v["v1"], v["v5"], Out, nil, nil)
	if err != nil || pathCur.Len() != 3 {
		t.Error("Unexpected path cursor:", pathCur.Len(), err)
	}
}
