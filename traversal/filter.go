package traversal

import (
	"github.com/phirasit/nogdb/schema"
	"github.com/phirasit/nogdb/store"
)

/*
GraphFilter combines a class whitelist/blacklist (optionally expanded to
subclasses) with an optional record predicate.
*/
type GraphFilter struct {
	OnlyClasses        []string
	OnlySubOfClasses   []string
	IgnoreClasses      []string
	IgnoreSubOfClasses []string
	Predicate          func(*store.Record) bool
}

func resolveClassSet(cat *schema.Catalog, names []string, expandSub bool) map[uint16]bool {
	if len(names) == 0 {
		return nil
	}
	out := make(map[uint16]bool)
	for _, name := range names {
		cd, ok := cat.ClassByName(name)
		if !ok {
			continue
		}
		if expandSub {
			for _, id := range cat.ResolveSubclasses(cd.ClassID) {
				out[id] = true
			}
		} else {
			out[cd.ClassID] = true
		}
	}
	return out
}

/*
compiledFilter is a GraphFilter with its class name lists already resolved
to concrete class id sets, computed once per traversal call rather than
per candidate record.
*/
type compiledFilter struct {
	allow     map[uint16]bool
	deny      map[uint16]bool
	predicate func(*store.Record) bool
}

func compile(cat *schema.Catalog, f *GraphFilter) *compiledFilter {
	if f == nil {
		return nil
	}

	allow := resolveClassSet(cat, f.OnlyClasses, false)
	subAllow := resolveClassSet(cat, f.OnlySubOfClasses, true)
	for id := range subAllow {
		if allow == nil {
			allow = make(map[uint16]bool)
		}
		allow[id] = true
	}

	deny := resolveClassSet(cat, f.IgnoreClasses, false)
	subDeny := resolveClassSet(cat, f.IgnoreSubOfClasses, true)
	for id := range subDeny {
		if deny == nil {
			deny = make(map[uint16]bool)
		}
		deny[id] = true
	}

	return &compiledFilter{allow: allow, deny: deny, predicate: f.Predicate}
}

func (f *compiledFilter) match(classID uint16, rec *store.Record) bool {
	if f == nil {
		return true
	}
	if f.allow != nil && !f.allow[classID] {
		return false
	}
	if f.deny != nil && f.deny[classID] {
		return false
	}
	if f.predicate != nil && !f.predicate(rec) {
		return false
	}
	return true
}

/*
MatchGraphFilter compiles f against cat and tests rec, exposed for
callers outside this package (the root module's getOutEdge/getInEdge/
getAllEdge) that apply a GraphFilter to a single record at a time rather
than driving a whole traversal.
*/
func MatchGraphFilter(cat *schema.Catalog, f *GraphFilter, classID uint16, rec *store.Record) bool {
	return compile(cat, f).match(classID, rec)
}
