package nogdb

import (
	"github.com/phirasit/nogdb/query"
	"github.com/phirasit/nogdb/schema"
	"github.com/phirasit/nogdb/store"
)

// Condition/MultiCondition and their builders are re-exported so host
// code never needs to import the query package directly.
type (
	Condition      = query.Condition
	MultiCondition = query.MultiCondition
	Comparator     = query.Comparator
)

const (
	CmpIsNull         = query.IsNull
	CmpNotNull        = query.NotNull
	CmpEqual          = query.Equal
	CmpGreater        = query.Greater
	CmpGreaterEqual   = query.GreaterEqual
	CmpLess           = query.Less
	CmpLessEqual      = query.LessEqual
	CmpBetween        = query.Between
	CmpBetweenNoUpper = query.BetweenNoUpper
	CmpBetweenNoLower = query.BetweenNoLower
	CmpBetweenNoBound = query.BetweenNoBound
	CmpIn             = query.In
	CmpContain        = query.Contain
	CmpBeginWith      = query.BeginWith
	CmpEndWith        = query.EndWith
	CmpLike           = query.Like
	CmpRegex          = query.Regex
)

var (
	Eq        = query.Eq
	Gt        = query.Gt
	Ge        = query.Ge
	Lt        = query.Lt
	Le        = query.Le
	Between   = query.BetweenCond
	InValues  = query.InCond
	IsNullOf  = query.IsNullCond
	NotNullOf = query.NotNullCond
	AndNode   = query.AndNode
	OrNode    = query.OrNode
	LeafNode  = query.LeafNode
)

/*
FindVertices evaluates m against className and every subclass, returning
every live vertex that matches. A nil m matches every record
in the extent.
*/
func (t *Txn) FindVertices(className string, m *MultiCondition) ([]store.Descriptor, error) {
	cd, err := t.classFor(className, schema.Vertex)
	if err != nil {
		return nil, err
	}
	return query.EvaluateExtent(t.store, t.cat, cd.ClassID, m)
}

/*
FindEdges evaluates m against className and every subclass, returning
every live edge that matches.
*/
func (t *Txn) FindEdges(className string, m *MultiCondition) ([]store.Descriptor, error) {
	cd, err := t.classFor(className, schema.Edge)
	if err != nil {
		return nil, err
	}
	return query.EvaluateExtent(t.store, t.cat, cd.ClassID, m)
}

func (t *Txn) findWhere(className string, kind schema.ClassKind, pred func(*Record) bool) ([]store.Descriptor, error) {
	cd, err := t.classFor(className, kind)
	if err != nil {
		return nil, err
	}

	all, err := query.EvaluateExtent(t.store, t.cat, cd.ClassID, nil)
	if err != nil {
		return nil, err
	}

	var out []store.Descriptor
	for _, d := range all {
		if pred == nil || pred(d.Record) {
			out = append(out, d)
		}
	}
	return out, nil
}

/*
FindVerticesWhere returns every live vertex of className and its
subclasses for which pred returns true. The predicate form of
FindVertices, for filters a Condition tree cannot express.
*/
func (t *Txn) FindVerticesWhere(className string, pred func(*Record) bool) ([]store.Descriptor, error) {
	return t.findWhere(className, schema.Vertex, pred)
}

/*
FindEdgesWhere is the predicate form of FindEdges.
*/
func (t *Txn) FindEdgesWhere(className string, pred func(*Record) bool) ([]store.Descriptor, error) {
	return t.findWhere(className, schema.Edge, pred)
}

/*
CountVertices returns len(FindVertices(...)) without the host needing to
materialise the slice itself just to discard it.
*/
func (t *Txn) CountVertices(className string, m *MultiCondition) (int, error) {
	out, err := t.FindVertices(className, m)
	if err != nil {
		return 0, err
	}
	return len(out), nil
}

/*
FindVerticesCursor is the cursor variant of FindVertices.
*/
func (t *Txn) FindVerticesCursor(className string, m *MultiCondition) (*ResultCursor, error) {
	out, err := t.FindVertices(className, m)
	if err != nil {
		return nil, err
	}
	return newResultCursor(out), nil
}

/*
FindEdgesCursor is the cursor variant of FindEdges.
*/
func (t *Txn) FindEdgesCursor(className string, m *MultiCondition) (*ResultCursor, error) {
	out, err := t.FindEdges(className, m)
	if err != nil {
		return nil, err
	}
	return newResultCursor(out), nil
}
