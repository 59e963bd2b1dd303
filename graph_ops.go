package nogdb

import (
	"github.com/phirasit/nogdb/schema"
	"github.com/phirasit/nogdb/store"
	"github.com/phirasit/nogdb/traversal"
)

/*
GraphFilter restricts which edges or vertices a getter/traversal call
considers, by class whitelist/blacklist and/or a record predicate.
*/
type GraphFilter = traversal.GraphFilter

/*
classID0 resolves an optional edge class name to an id, or 0 ("any
class") when name is empty, the zero value store.GetOutEdges/GetInEdges
already treat as unfiltered.
*/
func (t *Txn) classID0(name string) uint16 {
	if name == "" {
		return 0
	}
	cd, ok := t.cat.ClassByName(name)
	if !ok {
		return 0
	}
	return cd.ClassID
}

/*
GetOutEdges returns the RIDs of every out-edge of v, optionally restricted
to one edge class (edgeClassName == "" means any class).
*/
func (t *Txn) GetOutEdges(v RID, edgeClassName string) ([]store.EdgeRef, error) {
	return t.store.GetOutEdges(v, t.classID0(edgeClassName))
}

/*
GetInEdges returns the RIDs of every in-edge of v, optionally restricted
to one edge class.
*/
func (t *Txn) GetInEdges(v RID, edgeClassName string) ([]store.EdgeRef, error) {
	return t.store.GetInEdges(v, t.classID0(edgeClassName))
}

/*
GetOutEdgeClasses returns the distinct edge class names incident out of v.
*/
func (t *Txn) GetOutEdgeClasses(v RID) ([]string, error) {
	ids, err := t.store.GetOutEdgeClasses(v)
	if err != nil {
		return nil, err
	}
	return t.classNames(ids), nil
}

/*
GetInEdgeClasses returns the distinct edge class names incident into v.
*/
func (t *Txn) GetInEdgeClasses(v RID) ([]string, error) {
	ids, err := t.store.GetInEdgeClasses(v)
	if err != nil {
		return nil, err
	}
	return t.classNames(ids), nil
}

func (t *Txn) classNames(ids []uint16) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if cd, ok := t.cat.ClassByID(id); ok {
			out = append(out, cd.Name)
		}
	}
	return out
}

func (t *Txn) filteredEdges(v RID, dir traversal.Direction, filter *GraphFilter) ([]store.Descriptor, error) {
	var refs []store.EdgeRef
	var err error
	switch dir {
	case traversal.Out:
		refs, err = t.store.GetOutEdges(v, 0)
	case traversal.In:
		refs, err = t.store.GetInEdges(v, 0)
	default:
		out, e1 := t.store.GetOutEdges(v, 0)
		in, e2 := t.store.GetInEdges(v, 0)
		if e1 != nil {
			return nil, e1
		}
		if e2 != nil {
			return nil, e2
		}
		refs = append(out, in...)
	}
	if err != nil {
		return nil, err
	}

	var out []store.Descriptor
	for _, ref := range refs {
		rec, err := t.store.GetRecord(ref.EdgeRID, nil)
		if err != nil {
			return nil, err
		}
		if filter != nil {
			cd, ok := t.cat.ClassByID(ref.EdgeRID.ClassID)
			if !ok || !matchFilter(t.cat, filter, cd.ClassID, rec) {
				continue
			}
		}
		out = append(out, store.Descriptor{RID: ref.EdgeRID, Record: rec})
	}
	return out, nil
}

func matchFilter(cat *schema.Catalog, f *GraphFilter, classID uint16, rec *store.Record) bool {
	return traversal.MatchGraphFilter(cat, f, classID, rec)
}

/*
GetOutEdge returns every out-edge of v matching filter.
*/
func (t *Txn) GetOutEdge(v RID, filter *GraphFilter) ([]store.Descriptor, error) {
	return t.filteredEdges(v, traversal.Out, filter)
}

/*
GetInEdge returns every in-edge of v matching filter.
*/
func (t *Txn) GetInEdge(v RID, filter *GraphFilter) ([]store.Descriptor, error) {
	return t.filteredEdges(v, traversal.In, filter)
}

/*
GetAllEdge returns every incident edge of v (out and in) matching filter.
*/
func (t *Txn) GetAllEdge(v RID, filter *GraphFilter) ([]store.Descriptor, error) {
	return t.filteredEdges(v, traversal.All, filter)
}
