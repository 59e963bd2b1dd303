package schema

import (
	"errors"
	"testing"

	"github.com/phirasit/nogdb/kv"
	"github.com/phirasit/nogdb/nerrors"
)

func buildCatalog(t *testing.T) *Catalog {
	c := NewCatalog()

	if _, err := c.ClassCreate("books", Vertex, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := c.ClassCreate("comics", Vertex, "books"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.ClassCreate("authors", Edge, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := c.PropertyAdd("books", "title", 4); err != nil {
		t.Fatal(err)
	}
	if _, err := c.PropertyAdd("comics", "artist", 4); err != nil {
		t.Fatal(err)
	}

	return c
}

func TestClassCreate(t *testing.T) {
	c := buildCatalog(t)

	cd, ok := c.ClassByName("books")
	if !ok || cd.ClassID != 1 || cd.Kind != Vertex {
		t.Error("Unexpected class descriptor:", cd)
		return
	}

	// Class names resolve case-insensitively.
	if _, ok := c.ClassByName("BOOKS"); !ok {
		t.Error("Case-insensitive lookup failed")
	}

	if _, err := c.ClassCreate("books", Vertex, ""); !errors.Is(err, nerrors.ErrDuplicateClass) {
		t.Error("Unexpected error:", err)
	}
	if _, err := c.ClassCreate("", Vertex, ""); !errors.Is(err, nerrors.ErrInvalidClassName) {
		t.Error("Unexpected error:", err)
	}
	if _, err := c.ClassCreate(".hidden", Vertex, ""); !errors.Is(err, nerrors.ErrInvalidClassName) {
		t.Error("Unexpected error:", err)
	}
	if _, err := c.ClassCreate("novels", Vertex, "missing"); !errors.Is(err, nerrors.ErrNoExstClass) {
		t.Error("Unexpected error:", err)
	}
	if _, err := c.ClassCreate("writes", Edge, "books"); !errors.Is(err, nerrors.ErrMismatchClassType) {
		t.Error("Unexpected error:", err)
	}
}

func TestResolveSubclasses(t *testing.T) {
	c := buildCatalog(t)

	books, _ := c.ClassByName("books")
	comics, _ := c.ClassByName("comics")

	ids := c.ResolveSubclasses(books.ClassID)
	if len(ids) != 2 || ids[0] != books.ClassID || ids[1] != comics.ClassID {
		t.Error("Unexpected subclass set:", ids)
	}

	ids = c.ResolveSubclasses(comics.ClassID)
	if len(ids) != 1 || ids[0] != comics.ClassID {
		t.Error("Unexpected subclass set:", ids)
	}
}

func TestResolveProperty(t *testing.T) {
	c := buildCatalog(t)

	comics, _ := c.ClassByName("comics")

	// Own property first, then the inherited one.
	pd, ok := c.ResolveProperty(comics.ClassID, "artist")
	if !ok || pd.ClassID != comics.ClassID {
		t.Error("Unexpected property resolution:", pd)
	}
	pd, ok = c.ResolveProperty(comics.ClassID, "title")
	if !ok || pd.ClassID == comics.ClassID {
		t.Error("Inherited property should resolve to the ancestor:", pd)
	}

	if _, ok := c.ResolveProperty(comics.ClassID, "missing"); ok {
		t.Error("Missing property should not resolve")
	}

	// A property visible via inheritance cannot be redeclared.
	if _, err := c.PropertyAdd("comics", "title", 4); !errors.Is(err, nerrors.ErrDuplicateProperty) {
		t.Error("Unexpected error:", err)
	}
}

func TestClassAlterAndDrop(t *testing.T) {
	c := buildCatalog(t)

	books, _ := c.ClassByName("books")
	oldID := books.ClassID

	cd, err := c.ClassAlter("books", "novels")
	if err != nil || cd.ClassID != oldID {
		t.Error("Unexpected alter result:", cd, err)
		return
	}
	if _, ok := c.ClassByName("books"); ok {
		t.Error("Old name still resolves")
	}

	// novels still has the comics subclass, so dropping must fail.
	if _, err := c.ClassDrop("novels"); !errors.Is(err, nerrors.ErrInUsedProperty) {
		t.Error("Unexpected error:", err)
	}

	if _, err := c.ClassDrop("comics"); err != nil {
		t.Error(err)
		return
	}
	if _, err := c.ClassDrop("novels"); err != nil {
		t.Error(err)
	}
	if _, ok := c.ClassByName("novels"); ok {
		t.Error("Dropped class still resolves")
	}
}

func TestPropertyAlterAndRemove(t *testing.T) {
	c := buildCatalog(t)

	pd, err := c.PropertyAlter("books", "title", "name")
	if err != nil {
		t.Error(err)
		return
	}
	oldID := pd.PropertyID

	pd, ok := c.ResolveProperty(pd.ClassID, "name")
	if !ok || pd.PropertyID != oldID {
		t.Error("Rename should preserve the property id:", pd)
	}

	books, _ := c.ClassByName("books")
	if _, err := c.IndexRegister(books.ClassID, pd.PropertyID, false); err != nil {
		t.Error(err)
		return
	}

	if err := c.PropertyRemove("books", "name"); !errors.Is(err, nerrors.ErrInUsedProperty) {
		t.Error("Unexpected error:", err)
	}

	if _, err := c.IndexUnregister(books.ClassID, pd.PropertyID); err != nil {
		t.Error(err)
		return
	}
	if err := c.PropertyRemove("books", "name"); err != nil {
		t.Error(err)
	}
}

func TestIndexRegister(t *testing.T) {
	c := buildCatalog(t)

	books, _ := c.ClassByName("books")
	comics, _ := c.ClassByName("comics")
	pd, _ := c.ResolveProperty(books.ClassID, "title")

	idx, err := c.IndexRegister(books.ClassID, pd.PropertyID, true)
	if err != nil || !idx.Unique {
		t.Error("Unexpected index:", idx, err)
		return
	}

	if _, err := c.IndexRegister(books.ClassID, pd.PropertyID, false); !errors.Is(err, nerrors.ErrDuplicateIndex) {
		t.Error("Unexpected error:", err)
	}

	// The superclass index covers subclass records via the ancestor walk.
	got, ok := c.IndexForInherited(comics.ClassID, pd.PropertyID)
	if !ok || got.IndexID != idx.IndexID {
		t.Error("Unexpected inherited index:", got)
	}
	if _, ok := c.IndexFor(comics.ClassID, pd.PropertyID); ok {
		t.Error("Direct lookup should not walk inheritance")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	env, err := kv.Open(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer env.Close()

	c := buildCatalog(t)
	books, _ := c.ClassByName("books")
	pd, _ := c.ResolveProperty(books.ClassID, "title")
	if _, err := c.IndexRegister(books.ClassID, pd.PropertyID, false); err != nil {
		t.Fatal(err)
	}

	txn, err := env.Begin(kv.ReadWrite)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Save(txn); err != nil {
		t.Error(err)
		return
	}
	if err := txn.Commit(); err != nil {
		t.Error(err)
		return
	}

	txn, err = env.Begin(kv.ReadOnly)
	if err != nil {
		t.Fatal(err)
	}
	defer txn.Rollback()

	loaded, err := Load(txn)
	if err != nil {
		t.Error(err)
		return
	}

	cd, ok := loaded.ClassByName("comics")
	if !ok || !cd.HasSuper() || cd.SuperClassID != books.ClassID {
		t.Error("Unexpected loaded class:", cd)
	}
	if _, ok := loaded.ResolveProperty(cd.ClassID, "title"); !ok {
		t.Error("Inherited property lost on reload")
	}
	if _, ok := loaded.IndexForInherited(cd.ClassID, pd.PropertyID); !ok {
		t.Error("Index lost on reload")
	}

	// Fresh allocations must not reuse persisted ids.
	nd, err := loaded.ClassCreate("persons", Vertex, "")
	if err != nil {
		t.Error(err)
		return
	}
	if nd.ClassID <= cd.ClassID {
		t.Error("Class id not monotonic after reload:", nd.ClassID)
	}
}
