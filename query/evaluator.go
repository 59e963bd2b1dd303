package query

import (
	"github.com/phirasit/nogdb/codec"
	"github.com/phirasit/nogdb/schema"
	"github.com/phirasit/nogdb/store"
)

/*
MultiCondition is a binary AND/OR tree over leaf Conditions, each node
independently negatable. A leaf node has Leaf set and no children; an
inner node has Leaf nil and both Left and Right set.
*/
type MultiCondition struct {
	And    bool
	Negate bool
	Leaf   *Condition
	Left   *MultiCondition
	Right  *MultiCondition
}

/*
LeafNode wraps a single Condition as a MultiCondition leaf.
*/
func LeafNode(c Condition) *MultiCondition {
	return &MultiCondition{Leaf: &c}
}

/*
AndNode / OrNode combine two sub-trees.
*/
func AndNode(l, r *MultiCondition) *MultiCondition {
	return &MultiCondition{And: true, Left: l, Right: r}
}

func OrNode(l, r *MultiCondition) *MultiCondition {
	return &MultiCondition{And: false, Left: l, Right: r}
}

/*
IsLeaf reports whether m wraps a single Condition rather than a Left/Right
pair.
*/
func (m *MultiCondition) IsLeaf() bool { return m.Leaf != nil }

/*
resolvedValue decodes a property's raw bytes from rec according to its
declared Type, or reports that the property is missing.
*/
func resolvedValue(cat *schema.Catalog, classID uint16, rec *store.Record, propName string) (codec.Bytes, codec.Type, bool, bool) {
	pd, ok := cat.ResolveProperty(classID, propName)
	if !ok {
		return nil, codec.Undefined, false, false
	}
	v, present := rec.Attr(propName)
	return v, codec.Type(pd.Type), present && !v.IsNull(), present
}

func compareTyped(t codec.Type, a, b codec.Bytes) int {
	switch t {
	case codec.Integer:
		av, bv := codec.DecodeInt(a), codec.DecodeInt(b)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case codec.UnsignedInteger:
		av, bv := codec.DecodeUint(a), codec.DecodeUint(b)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case codec.Real:
		av, bv := codec.DecodeReal(a), codec.DecodeReal(b)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	default:
		as, bs := string(a), string(b)
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		default:
			return 0
		}
	}
}

/*
MatchCondition evaluates a single leaf Condition against rec. A record
missing the property fails any affirmative predicate and passes a
negated NotNull predicate: IsNull is true, NotNull is false, and every
other comparator is false, before Negate is applied.
*/
func MatchCondition(cat *schema.Catalog, classID uint16, rec *store.Record, cond Condition) bool {
	result := matchConditionRaw(cat, classID, rec, cond)
	if cond.Negate {
		return !result
	}
	return result
}

func matchConditionRaw(cat *schema.Catalog, classID uint16, rec *store.Record, cond Condition) bool {
	value, propType, nonNull, present := resolvedValue(cat, classID, rec, cond.PropName)

	switch cond.Comparator {
	case IsNull:
		return !present || !nonNull
	case NotNull:
		return present && nonNull
	}

	if !nonNull {
		return false
	}

	switch cond.Comparator {
	case Equal:
		return compareTyped(propType, value, cond.Value) == 0
	case Greater:
		return compareTyped(propType, value, cond.Value) > 0
	case GreaterEqual:
		return compareTyped(propType, value, cond.Value) >= 0
	case Less:
		return compareTyped(propType, value, cond.Value) < 0
	case LessEqual:
		return compareTyped(propType, value, cond.Value) <= 0
	case Between:
		return compareTyped(propType, value, cond.Values[0]) >= 0 && compareTyped(propType, value, cond.Values[1]) <= 0
	case BetweenNoUpper:
		return compareTyped(propType, value, cond.Values[0]) >= 0 && compareTyped(propType, value, cond.Values[1]) < 0
	case BetweenNoLower:
		return compareTyped(propType, value, cond.Values[0]) > 0 && compareTyped(propType, value, cond.Values[1]) <= 0
	case BetweenNoBound:
		return compareTyped(propType, value, cond.Values[0]) > 0 && compareTyped(propType, value, cond.Values[1]) < 0
	case In:
		for _, v := range cond.Values {
			if compareTyped(propType, value, v) == 0 {
				return true
			}
		}
		return false
	case Contain, BeginWith, EndWith, Like:
		return evalText(cond.Comparator, codec.DecodeText(value), codec.DecodeText(cond.Value), cond.IgnoreCase)
	case Regex:
		return evalText(cond.Comparator, codec.DecodeText(value), codec.DecodeText(cond.Value), cond.IgnoreCase)
	}
	return false
}

/*
MatchMulti evaluates a MultiCondition tree against rec, short-circuiting
AND/OR the way Go's && / || already do.
*/
func MatchMulti(cat *schema.Catalog, classID uint16, rec *store.Record, m *MultiCondition) bool {
	if m == nil {
		return true
	}

	var result bool
	if m.IsLeaf() {
		result = MatchCondition(cat, classID, rec, *m.Leaf)
	} else if m.And {
		result = MatchMulti(cat, classID, rec, m.Left) && MatchMulti(cat, classID, rec, m.Right)
	} else {
		result = MatchMulti(cat, classID, rec, m.Left) || MatchMulti(cat, classID, rec, m.Right)
	}

	if m.Negate {
		return !result
	}
	return result
}
