package query

import (
	"github.com/phirasit/nogdb/codec"
	"github.com/phirasit/nogdb/index"
	"github.com/phirasit/nogdb/schema"
	"github.com/phirasit/nogdb/store"
)

/*
leafIndexable reports whether a single Condition can be served by an
index on classID: the comparator is in
the index-servable set, the node is not negated, the property resolves
and is indexed on classID or an ancestor, and the property's type
supports ordering in the index engine.
*/
func leafIndexable(cat *schema.Catalog, classID uint16, c Condition) (*schema.PropertyDescriptor, *schema.IndexDescriptor, bool) {
	if !c.Comparator.IsIndexable() || c.Negate {
		return nil, nil, false
	}
	pd, ok := cat.ResolveProperty(classID, c.PropName)
	if !ok {
		return nil, nil, false
	}
	if !index.SupportsType(codec.Type(pd.Type)) {
		return nil, nil, false
	}
	idx, ok := cat.IndexForInherited(classID, pd.PropertyID)
	if !ok {
		return nil, nil, false
	}
	return pd, idx, true
}

/*
Indexable reports whether m can be fully served by the index engine on
classID: every leaf is indexable,
AND nodes require both children indexable, OR nodes require both
disjuncts individually indexable, and no node along the way is negated.
*/
func Indexable(cat *schema.Catalog, classID uint16, m *MultiCondition) bool {
	if m == nil || m.Negate {
		return false
	}
	if m.IsLeaf() {
		_, _, ok := leafIndexable(cat, classID, *m.Leaf)
		return ok
	}
	return Indexable(cat, classID, m.Left) && Indexable(cat, classID, m.Right)
}

func leafRefs(s *store.Store, cat *schema.Catalog, classID uint16, c Condition) ([]index.Ref, error) {
	pd, idx, ok := leafIndexable(cat, classID, c)
	if !ok {
		return nil, nil
	}

	ref := index.IndexRef{IndexID: idx.IndexID, Unique: idx.Unique}
	propType := codec.Type(pd.Type)
	txn := s.Txn()

	var refs []index.Ref
	var err error

	switch c.Comparator {
	case Equal:
		refs, err = index.Equal(txn, ref, propType, c.Value)
	case Greater:
		refs, err = index.Greater(txn, ref, propType, c.Value, false)
	case GreaterEqual:
		refs, err = index.Greater(txn, ref, propType, c.Value, true)
	case Less:
		refs, err = index.Less(txn, ref, propType, c.Value, false)
	case LessEqual:
		refs, err = index.Less(txn, ref, propType, c.Value, true)
	case Between:
		refs, err = index.Between(txn, ref, propType, c.Values[0], c.Values[1], true, true)
	case BetweenNoUpper:
		refs, err = index.Between(txn, ref, propType, c.Values[0], c.Values[1], true, false)
	case BetweenNoLower:
		refs, err = index.Between(txn, ref, propType, c.Values[0], c.Values[1], false, true)
	case BetweenNoBound:
		refs, err = index.Between(txn, ref, propType, c.Values[0], c.Values[1], false, false)
	case In:
		seen := make(map[index.Ref]bool)
		for _, v := range c.Values {
			part, err := index.Equal(txn, ref, propType, v)
			if err != nil {
				return nil, err
			}
			for _, r := range part {
				if !seen[r] {
					seen[r] = true
					refs = append(refs, r)
				}
			}
		}
	}
	if err != nil {
		return nil, err
	}

	out := refs[:0]
	for _, r := range refs {
		if r.ClassID == classID {
			out = append(out, r)
		}
	}
	return out, nil
}

func intersectRefs(a, b []index.Ref) []index.Ref {
	set := make(map[index.Ref]bool, len(b))
	for _, r := range b {
		set[r] = true
	}
	var out []index.Ref
	for _, r := range a {
		if set[r] {
			out = append(out, r)
		}
	}
	return out
}

func unionRefs(a, b []index.Ref) []index.Ref {
	seen := make(map[index.Ref]bool, len(a))
	out := append([]index.Ref{}, a...)
	for _, r := range a {
		seen[r] = true
	}
	for _, r := range b {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

func planRefs(s *store.Store, cat *schema.Catalog, classID uint16, m *MultiCondition) ([]index.Ref, error) {
	if m.IsLeaf() {
		return leafRefs(s, cat, classID, *m.Leaf)
	}
	left, err := planRefs(s, cat, classID, m.Left)
	if err != nil {
		return nil, err
	}
	right, err := planRefs(s, cat, classID, m.Right)
	if err != nil {
		return nil, err
	}
	if m.And {
		return intersectRefs(left, right), nil
	}
	return unionRefs(left, right), nil
}

/*
EvaluateClass returns every live record of classID (no subclass
expansion; the caller resolves the extent and calls this once per class
in it) matching m. It uses the index path
when Indexable(cat, classID, m) holds, and falls back to a full scan with
MatchMulti otherwise.
*/
func EvaluateClass(s *store.Store, cat *schema.Catalog, classID uint16, m *MultiCondition) ([]store.Descriptor, error) {
	if m != nil && Indexable(cat, classID, m) {
		refs, err := planRefs(s, cat, classID, m)
		if err != nil {
			return nil, err
		}
		index.SortRefs(refs)

		out := make([]store.Descriptor, 0, len(refs))
		for _, r := range refs {
			rid := store.RID{ClassID: r.ClassID, PositionID: r.PositionID}
			rec, err := s.GetRecord(rid, nil)
			if err != nil {
				continue // stale index entry, no live record behind it
			}
			out = append(out, store.Descriptor{RID: rid, Record: rec})
		}
		return out, nil
	}

	cur, err := s.NewClassCursor(classID)
	if err != nil {
		return nil, err
	}

	var out []store.Descriptor
	for {
		d, ok, err := cur.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if MatchMulti(cat, classID, d.Record, m) {
			out = append(out, d)
		}
	}
	return out, nil
}

/*
EvaluateExtent runs EvaluateClass over classID and every transitive
subclass.
*/
func EvaluateExtent(s *store.Store, cat *schema.Catalog, classID uint16, m *MultiCondition) ([]store.Descriptor, error) {
	var out []store.Descriptor
	for _, id := range cat.ResolveSubclasses(classID) {
		part, err := EvaluateClass(s, cat, id, m)
		if err != nil {
			return nil, err
		}
		out = append(out, part...)
	}
	return out, nil
}
