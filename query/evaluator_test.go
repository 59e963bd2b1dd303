package query

import (
	"testing"

	"github.com/phirasit/nogdb/codec"
	"github.com/phirasit/nogdb/schema"
	"github.com/phirasit/nogdb/store"
)

func buildBookCatalog(t *testing.T) (*schema.Catalog, uint16) {
	cat := schema.NewCatalog()

	cd, err := cat.ClassCreate("books", schema.Vertex, "")
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range []struct {
		name string
		typ  codec.Type
	}{
		{"title", codec.Text},
		{"pages", codec.Integer},
		{"price", codec.Real},
	} {
		if _, err := cat.PropertyAdd("books", p.name, byte(p.typ)); err != nil {
			t.Fatal(err)
		}
	}
	return cat, cd.ClassID
}

func bookRecord() *store.Record {
	return store.NewRecord().
		SetAttr("title", codec.EncodeText("Harry Potter")).
		SetAttr("pages", codec.EncodeInt(456)).
		SetAttr("price", codec.EncodeReal(24.5))
}

func TestMatchCondition(t *testing.T) {
	cat, classID := buildBookCatalog(t)
	rec := bookRecord()

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"eq text", Eq("title", codec.EncodeText("Harry Potter")), true},
		{"eq text miss", Eq("title", codec.EncodeText("LOTR")), false},
		{"eq int", Eq("pages", codec.EncodeInt(456)), true},
		{"gt int", Gt("pages", codec.EncodeInt(400)), true},
		{"gt int miss", Gt("pages", codec.EncodeInt(456)), false},
		{"ge int", Ge("pages", codec.EncodeInt(456)), true},
		{"lt real", Lt("price", codec.EncodeReal(30)), true},
		{"le real", Le("price", codec.EncodeReal(24.5)), true},
		{"between", BetweenCond("pages", codec.EncodeInt(400), codec.EncodeInt(500), Between), true},
		{"between no upper", BetweenCond("pages", codec.EncodeInt(400), codec.EncodeInt(456), BetweenNoUpper), false},
		{"between no lower", BetweenCond("pages", codec.EncodeInt(456), codec.EncodeInt(500), BetweenNoLower), false},
		{"in", InCond("pages", codec.EncodeInt(1), codec.EncodeInt(456)), true},
		{"in miss", InCond("pages", codec.EncodeInt(1), codec.EncodeInt(2)), false},
		{"contain", Condition{PropName: "title", Comparator: Contain, Value: codec.EncodeText("Potter")}, true},
		{"contain case", Condition{PropName: "title", Comparator: Contain, Value: codec.EncodeText("potter"), IgnoreCase: true}, true},
		{"begin", Condition{PropName: "title", Comparator: BeginWith, Value: codec.EncodeText("Harry")}, true},
		{"end", Condition{PropName: "title", Comparator: EndWith, Value: codec.EncodeText("Potter")}, true},
		{"like", Condition{PropName: "title", Comparator: Like, Value: codec.EncodeText("Harry%")}, true},
		{"like underscore", Condition{PropName: "title", Comparator: Like, Value: codec.EncodeText("_arry Potter")}, true},
		{"like miss", Condition{PropName: "title", Comparator: Like, Value: codec.EncodeText("Potter%")}, false},
		{"regex", Condition{PropName: "title", Comparator: Regex, Value: codec.EncodeText("^H.*r$")}, true},
		{"not null", NotNullCond("title"), true},
		{"is null", IsNullCond("title"), false},
		{"negate", Eq("title", codec.EncodeText("LOTR")).Negated(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchCondition(cat, classID, rec, tt.cond); got != tt.want {
				t.Error("Unexpected match result:", got)
			}
		})
	}
}

func TestMatchConditionMissingProperty(t *testing.T) {
	cat, classID := buildBookCatalog(t)
	rec := store.NewRecord().SetAttr("title", codec.EncodeText("HP"))

	// A record without the property fails affirmative predicates and
	// passes IS_NULL.
	if MatchCondition(cat, classID, rec, Eq("pages", codec.EncodeInt(1))) {
		t.Error("Missing property should fail an affirmative predicate")
	}
	if !MatchCondition(cat, classID, rec, IsNullCond("pages")) {
		t.Error("Missing property should pass IS_NULL")
	}
	if MatchCondition(cat, classID, rec, NotNullCond("pages")) {
		t.Error("Missing property should fail NOT_NULL")
	}
	if !MatchCondition(cat, classID, rec, NotNullCond("pages").Negated()) {
		t.Error("Missing property should pass a negated NOT_NULL")
	}
}

func TestMatchMulti(t *testing.T) {
	cat, classID := buildBookCatalog(t)
	rec := bookRecord()

	hit := LeafNode(Eq("title", codec.EncodeText("Harry Potter")))
	miss := LeafNode(Eq("title", codec.EncodeText("LOTR")))

	if !MatchMulti(cat, classID, rec, AndNode(hit, LeafNode(Gt("pages", codec.EncodeInt(1))))) {
		t.Error("AND of two hits should match")
	}
	if MatchMulti(cat, classID, rec, AndNode(hit, miss)) {
		t.Error("AND with a miss should not match")
	}
	if !MatchMulti(cat, classID, rec, OrNode(hit, miss)) {
		t.Error("OR with a hit should match")
	}

	neg := OrNode(miss, miss)
	neg.Negate = true
	if !MatchMulti(cat, classID, rec, neg) {
		t.Error("Negated all-miss OR should match")
	}

	if !MatchMulti(cat, classID, rec, nil) {
		t.Error("Nil condition should match everything")
	}
}

func TestIndexable(t *testing.T) {
	cat, classID := buildBookCatalog(t)

	pd, _ := cat.ResolveProperty(classID, "title")
	if _, err := cat.IndexRegister(classID, pd.PropertyID, false); err != nil {
		t.Fatal(err)
	}

	indexed := LeafNode(Eq("title", codec.EncodeText("HP")))
	unindexed := LeafNode(Eq("pages", codec.EncodeInt(1)))

	if !Indexable(cat, classID, indexed) {
		t.Error("Indexed equality should be index-servable")
	}
	if Indexable(cat, classID, unindexed) {
		t.Error("Unindexed property should not be index-servable")
	}
	if Indexable(cat, classID, AndNode(indexed, unindexed)) {
		t.Error("AND with an unindexed leaf should not be index-servable")
	}
	if !Indexable(cat, classID, AndNode(indexed, indexed)) {
		t.Error("AND of indexed leaves should be index-servable")
	}
	if Indexable(cat, classID, OrNode(indexed, unindexed)) {
		t.Error("OR with an unindexed disjunct should not be index-servable")
	}

	// Text predicates and negations always fall back to scan.
	contain := LeafNode(Condition{PropName: "title", Comparator: Contain, Value: codec.EncodeText("H")})
	if Indexable(cat, classID, contain) {
		t.Error("CONTAIN should not be index-servable")
	}
	if Indexable(cat, classID, LeafNode(Eq("title", codec.EncodeText("HP")).Negated())) {
		t.Error("Negated leaf should not be index-servable")
	}
}
