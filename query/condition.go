/*
Package query implements the condition model, predicate evaluation and
the index-or-scan planner: Condition, MultiCondition, the comparator
set, and the evaluation of both against decoded records.
*/
package query

import (
	"regexp"
	"strings"

	"github.com/phirasit/nogdb/codec"
)

/*
Comparator enumerates the supported predicates.
*/
type Comparator int

const (
	IsNull Comparator = iota
	NotNull
	Equal
	Greater
	GreaterEqual
	Less
	LessEqual
	Between
	BetweenNoUpper
	BetweenNoLower
	BetweenNoBound
	In
	Contain
	BeginWith
	EndWith
	Like
	Regex
)

/*
indexable is the set of comparators the index planner can serve directly. IS_NULL/NOT_NULL and
the text comparators always fall back to scan.
*/
var indexable = map[Comparator]bool{
	Equal: true, Greater: true, GreaterEqual: true, Less: true, LessEqual: true,
	Between: true, BetweenNoUpper: true, BetweenNoLower: true, BetweenNoBound: true,
	In: true,
}

/*
IsIndexable reports whether c can be served by a single-property index.
*/
func (c Comparator) IsIndexable() bool {
	return indexable[c]
}

/*
Condition is one leaf predicate against a named property.
Value holds the single comparison operand; Values holds the operand list
for Between (2 elements, low/high) and In (arbitrary length).
*/
type Condition struct {
	PropName   string
	Comparator Comparator
	Value      codec.Bytes
	Values     []codec.Bytes
	IgnoreCase bool
	Negate     bool
}

/*
Eq, Gt, Ge, Lt, Le build the common scalar comparators.
*/
func Eq(prop string, v codec.Bytes) Condition { return Condition{PropName: prop, Comparator: Equal, Value: v} }
func Gt(prop string, v codec.Bytes) Condition { return Condition{PropName: prop, Comparator: Greater, Value: v} }
func Ge(prop string, v codec.Bytes) Condition {
	return Condition{PropName: prop, Comparator: GreaterEqual, Value: v}
}
func Lt(prop string, v codec.Bytes) Condition { return Condition{PropName: prop, Comparator: Less, Value: v} }
func Le(prop string, v codec.Bytes) Condition {
	return Condition{PropName: prop, Comparator: LessEqual, Value: v}
}

/*
BetweenCond builds an inclusive-by-default range condition; variant
selects which bound(s), if any, are exclusive via the *NoUpper/*NoLower/
*NoBound comparators.
*/
func BetweenCond(prop string, lo, hi codec.Bytes, variant Comparator) Condition {
	return Condition{PropName: prop, Comparator: variant, Values: []codec.Bytes{lo, hi}}
}

/*
InCond builds a membership condition.
*/
func InCond(prop string, values ...codec.Bytes) Condition {
	return Condition{PropName: prop, Comparator: In, Values: values}
}

/*
IsNullCond / NotNullCond build the two null-testing comparators.
*/
func IsNullCond(prop string) Condition  { return Condition{PropName: prop, Comparator: IsNull} }
func NotNullCond(prop string) Condition { return Condition{PropName: prop, Comparator: NotNull} }

/*
Negated returns a copy of c with Negate flipped.
*/
func (c Condition) Negated() Condition {
	c.Negate = !c.Negate
	return c
}

func withCase(s string, ignoreCase bool) string {
	if ignoreCase {
		return strings.ToLower(s)
	}
	return s
}

/*
evalText applies the text-only comparators: Contain/BeginWith/EndWith
are plain substring tests honouring IgnoreCase; Like maps SQL wildcards
(%, _) to a compiled regexp; Regex compiles the pattern with RE2 syntax.
*/
func evalText(c Comparator, actual string, value string, ignoreCase bool) bool {
	a, v := withCase(actual, ignoreCase), withCase(value, ignoreCase)
	switch c {
	case Contain:
		return strings.Contains(a, v)
	case BeginWith:
		return strings.HasPrefix(a, v)
	case EndWith:
		return strings.HasSuffix(a, v)
	case Like:
		re, err := regexp.Compile("^" + likeToRegex(v) + "$")
		if err != nil {
			return false
		}
		return re.MatchString(a)
	case Regex:
		re, err := regexp.Compile(value)
		if err != nil {
			return false
		}
		return re.MatchString(actual)
	}
	return false
}

func likeToRegex(pattern string) string {
	var b strings.Builder
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return b.String()
}
