package traversal

import (
	"testing"

	"github.com/phirasit/nogdb/codec"
	"github.com/phirasit/nogdb/kv"
	"github.com/phirasit/nogdb/schema"
	"github.com/phirasit/nogdb/store"
)

type testGraph struct {
	store *store.Store
	cat   *schema.Catalog
	v     map[string]store.RID
	e     map[string]store.RID
}

func newTestGraph(t *testing.T) *testGraph {
	env, err := kv.Open(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	txn, err := env.Begin(kv.ReadWrite)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		txn.Rollback()
		env.Close()
	})

	cat := schema.NewCatalog()
	if _, err := cat.ClassCreate("nodes", schema.Vertex, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := cat.PropertyAdd("nodes", "name", byte(codec.Text)); err != nil {
		t.Fatal(err)
	}
	for _, ec := range []string{"eA", "eB"} {
		if _, err := cat.ClassCreate(ec, schema.Edge, ""); err != nil {
			t.Fatal(err)
		}
	}

	return &testGraph{
		store: store.New(txn, cat),
		cat:   cat,
		v:     map[string]store.RID{},
		e:     map[string]store.RID{},
	}
}

func (g *testGraph) vertex(t *testing.T, name string) store.RID {
	if rid, ok := g.v[name]; ok {
		return rid
	}
	cd, _ := g.cat.ClassByName("nodes")
	rid, _, err := g.store.CreateVertex(cd, store.NewRecord().SetAttr("name", codec.EncodeText(name)))
	if err != nil {
		t.Fatal(err)
	}
	g.v[name] = rid
	return rid
}

func (g *testGraph) edge(t *testing.T, class, from, to string) store.RID {
	cd, _ := g.cat.ClassByName(class)
	rid, _, err := g.store.CreateEdge(cd, g.vertex(t, from), g.vertex(t, to), store.NewRecord())
	if err != nil {
		t.Fatal(err)
	}
	g.e[from+">"+to] = rid
	return rid
}

// buildDiamond wires the five-vertex graph v1→v3, v1→v4, v2→v3, v2→v4,
// v3→v5 with mixed edge classes.
func buildDiamond(t *testing.T) *testGraph {
	g := newTestGraph(t)
	g.edge(t, "eA", "v1", "v3")
	g.edge(t, "eB", "v1", "v4")
	g.edge(t, "eA", "v2", "v3")
	g.edge(t, "eB", "v2", "v4")
	g.edge(t, "eA", "v3", "v5")
	return g
}

func names(t *testing.T, descs []store.Descriptor) map[string]int {
	out := make(map[string]int, len(descs))
	for _, d := range descs {
		v, _ := d.Record.Attr("name")
		depth, ok := d.Record.Depth()
		if !ok {
			t.Error("Result record has no depth")
		}
		out[codec.DecodeText(v)] = depth
	}
	return out
}

func TestBFSDepths(t *testing.T) {
	g := buildDiamond(t)

	descs, err := BFS(g.store, g.cat, g.v["v1"], Out, 0, NoDepthLimit, nil, nil)
	if err != nil {
		t.Error(err)
		return
	}

	got := names(t, descs)
	want := map[string]int{"v1": 0, "v3": 1, "v4": 1, "v5": 2}
	if len(got) != len(want) {
		t.Error("Unexpected result set:", got)
		return
	}
	for name, depth := range want {
		if got[name] != depth {
			t.Error("Unexpected depth for", name, ":", got[name])
		}
	}
}

func TestBFSDepthWindow(t *testing.T) {
	g := buildDiamond(t)

	descs, err := BFS(g.store, g.cat, g.v["v1"], Out, 1, 1, nil, nil)
	if err != nil {
		t.Error(err)
		return
	}

	got := names(t, descs)
	if len(got) != 2 || got["v3"] != 1 || got["v4"] != 1 {
		t.Error("Unexpected level-1 set:", got)
	}

	// minDepth 0 re-admits the source.
	descs, _ = BFS(g.store, g.cat, g.v["v1"], Out, 0, 0, nil, nil)
	got = names(t, descs)
	if len(got) != 1 || got["v1"] != 0 {
		t.Error("Unexpected level-0 set:", got)
	}
}

func TestBFSEdgeFilter(t *testing.T) {
	g := buildDiamond(t)

	descs, err := BFS(g.store, g.cat, g.v["v2"], All, 1, 1,
		&GraphFilter{OnlyClasses: []string{"eA"}}, nil)
	if err != nil {
		t.Error(err)
		return
	}

	got := names(t, descs)
	if len(got) != 1 || got["v3"] != 1 {
		t.Error("Unexpected eA-reachable set:", got)
	}
}

func TestBFSVertexFilter(t *testing.T) {
	g := buildDiamond(t)

	skipV3 := &GraphFilter{Predicate: func(r *store.Record) bool {
		v, _ := r.Attr("name")
		return codec.DecodeText(v) != "v3"
	}}

	descs, err := BFS(g.store, g.cat, g.v["v1"], Out, 0, NoDepthLimit, nil, skipV3)
	if err != nil {
		t.Error(err)
		return
	}

	got := names(t, descs)
	// v5 is only reachable through v3, so filtering v3 cuts it off too.
	if len(got) != 2 || got["v1"] != 0 || got["v4"] != 1 {
		t.Error("Unexpected filtered set:", got)
	}
}

func TestBFSInDirection(t *testing.T) {
	g := buildDiamond(t)

	descs, err := BFS(g.store, g.cat, g.v["v3"], In, 1, 1, nil, nil)
	if err != nil {
		t.Error(err)
		return
	}

	got := names(t, descs)
	if len(got) != 2 || got["v1"] != 1 || got["v2"] != 1 {
		t.Error("Unexpected in-neighbour set:", got)
	}
}

func TestDFSOrder(t *testing.T) {
	g := newTestGraph(t)
	// A chain with a branch: a→b→c, a→d. Pre-order from a must emit b and
	// c before d.
	g.edge(t, "eA", "a", "b")
	g.edge(t, "eA", "b", "c")
	g.edge(t, "eA", "a", "d")

	descs, err := DFS(g.store, g.cat, g.v["a"], Out, 0, NoDepthLimit, nil, nil)
	if err != nil {
		t.Error(err)
		return
	}

	var order []string
	for _, d := range descs {
		v, _ := d.Record.Attr("name")
		order = append(order, codec.DecodeText(v))
	}

	if len(order) != 4 || order[0] != "a" || order[1] != "b" || order[2] != "c" || order[3] != "d" {
		t.Error("Unexpected DFS order:", order)
	}
}

func TestShortestPath(t *testing.T) {
	g := buildDiamond(t)

	path, err := ShortestPath(g.store, g.cat, g.v["v1"], g.v["v5"], Out, nil, nil)
	if err != nil {
		t.Error(err)
		return
	}

	if len(path) != 3 {
		t.Error("Unexpected path length:", len(path))
		return
	}
	got := names(t, path)
	if got["v1"] != 0 || got["v3"] != 1 || got["v5"] != 2 {
		t.Error("Unexpected path:", got)
	}

	// Unreachable: the graph is a DAG, nothing leads back to v1.
	path, err = ShortestPath(g.store, g.cat, g.v["v5"], g.v["v1"], Out, nil, nil)
	if err != nil || len(path) != 0 {
		t.Error("Unexpected result for unreachable target:", path, err)
	}

	// Self path.
	path, err = ShortestPath(g.store, g.cat, g.v["v1"], g.v["v1"], Out, nil, nil)
	if err != nil || len(path) != 1 {
		t.Error("Unexpected self path:", path, err)
		return
	}
	if d, _ := path[0].Record.Depth(); d != 0 {
		t.Error("Unexpected self path depth:", d)
	}
}

func TestDijkstraUnitCostMatchesBFS(t *testing.T) {
	g := buildDiamond(t)

	unit := func(store.RID) (int64, error) { return 1, nil }

	cost, path, err := Dijkstra(g.store, g.cat, g.v["v1"], g.v["v5"], Out, unit, nil, nil)
	if err != nil {
		t.Error(err)
		return
	}
	if cost != 2 || len(path) != 3 {
		t.Error("Unexpected unit-cost result:", cost, len(path))
	}
}

func TestDijkstraPrefersCheaperPath(t *testing.T) {
	g := newTestGraph(t)
	// a→b direct is expensive; a→c→b is two cheap hops.
	direct := g.edge(t, "eA", "a", "b")
	g.edge(t, "eA", "a", "c")
	g.edge(t, "eA", "c", "b")

	weights := func(e store.RID) (int64, error) {
		if e == direct {
			return 10, nil
		}
		return 1, nil
	}

	cost, path, err := Dijkstra(g.store, g.cat, g.v["a"], g.v["b"], Out, weights, nil, nil)
	if err != nil {
		t.Error(err)
		return
	}
	if cost != 2 || len(path) != 3 {
		t.Error("Unexpected weighted result:", cost, len(path))
	}

	// Unreachable target reports the zero cost and no path.
	cost, path, err = Dijkstra(g.store, g.cat, g.v["b"], g.v["c"], Out, weights, nil, nil)
	if err != nil || cost != 0 || path != nil {
		t.Error("Unexpected unreachable result:", cost, path, err)
	}
}
