package nogdb

import (
	"github.com/phirasit/nogdb/nerrors"
	"github.com/phirasit/nogdb/schema"
	"github.com/phirasit/nogdb/store"
)

/*
RID addresses one record, (class, position), re-exported so callers
never need to import the store package directly.
*/
type RID = store.RID

/*
Record is the typed attribute bag read from and written to the store.
*/
type Record = store.Record

/*
NewRecord returns an empty Record ready for SetAttr calls.
*/
func NewRecord() *Record {
	return store.NewRecord()
}

func (t *Txn) classFor(className string, wantKind schema.ClassKind) (*schema.ClassDescriptor, error) {
	cd, ok := t.cat.ClassByName(className)
	if !ok {
		return nil, nerrors.New(nerrors.ErrNoExstClass, className)
	}
	if cd.Kind != wantKind {
		return nil, nerrors.New(nerrors.ErrMismatchClassType, className)
	}
	return cd, nil
}

/*
CreateVertex inserts a new vertex of className.
*/
func (t *Txn) CreateVertex(className string, rec *Record) (RID, *Record, error) {
	if err := t.requireWritable(); err != nil {
		return RID{}, nil, err
	}
	cd, err := t.classFor(className, schema.Vertex)
	if err != nil {
		return RID{}, nil, err
	}
	return t.store.CreateVertex(cd, rec)
}

/*
CreateEdge inserts a new edge of className from src to dst.
*/
func (t *Txn) CreateEdge(className string, src, dst RID, rec *Record) (RID, *Record, error) {
	if err := t.requireWritable(); err != nil {
		return RID{}, nil, err
	}
	cd, err := t.classFor(className, schema.Edge)
	if err != nil {
		return RID{}, nil, err
	}
	return t.store.CreateEdge(cd, src, dst, rec)
}

/*
GetVertex reads a vertex record, projecting attrs if non-empty.
*/
func (t *Txn) GetVertex(rid RID, attrs ...string) (*Record, error) {
	cd, ok := t.cat.ClassByID(rid.ClassID)
	if !ok || cd.Kind != schema.Vertex {
		return nil, nerrors.New(nerrors.ErrNoExstVertex, rid.String())
	}
	return t.store.GetRecord(rid, attrs)
}

/*
GetEdge reads an edge record, projecting attrs if non-empty.
*/
func (t *Txn) GetEdge(rid RID, attrs ...string) (*Record, error) {
	cd, ok := t.cat.ClassByID(rid.ClassID)
	if !ok || cd.Kind != schema.Edge {
		return nil, nerrors.New(nerrors.ErrNoExstEdge, rid.String())
	}
	return t.store.GetRecord(rid, attrs)
}

/*
UpdateVertex merges rec's attributes into the vertex at rid.
*/
func (t *Txn) UpdateVertex(rid RID, rec *Record) (*Record, error) {
	if err := t.requireWritable(); err != nil {
		return nil, err
	}
	if cd, ok := t.cat.ClassByID(rid.ClassID); !ok || cd.Kind != schema.Vertex {
		return nil, nerrors.New(nerrors.ErrNoExstVertex, rid.String())
	}
	return t.store.Update(rid, rec)
}

/*
UpdateEdge merges rec's attributes into the edge at rid.
*/
func (t *Txn) UpdateEdge(rid RID, rec *Record) (*Record, error) {
	if err := t.requireWritable(); err != nil {
		return nil, err
	}
	if cd, ok := t.cat.ClassByID(rid.ClassID); !ok || cd.Kind != schema.Edge {
		return nil, nerrors.New(nerrors.ErrNoExstEdge, rid.String())
	}
	return t.store.Update(rid, rec)
}

/*
UpdateEdgeSrc re-points an existing edge's source endpoint.
*/
func (t *Txn) UpdateEdgeSrc(e RID, newSrc RID) error {
	if err := t.requireWritable(); err != nil {
		return err
	}
	return t.store.UpdateSrc(e, newSrc)
}

/*
UpdateEdgeDst re-points an existing edge's destination endpoint.
*/
func (t *Txn) UpdateEdgeDst(e RID, newDst RID) error {
	if err := t.requireWritable(); err != nil {
		return err
	}
	return t.store.UpdateDst(e, newDst)
}

/*
DestroyVertex removes a vertex and cascades to its incident edges.
*/
func (t *Txn) DestroyVertex(rid RID) error {
	if err := t.requireWritable(); err != nil {
		return err
	}
	return t.store.DestroyVertex(rid)
}

/*
DestroyEdge removes a single edge.
*/
func (t *Txn) DestroyEdge(rid RID) error {
	if err := t.requireWritable(); err != nil {
		return err
	}
	return t.store.DestroyEdge(rid)
}

/*
GetSrc returns the source vertex RID of edge e.
*/
func (t *Txn) GetSrc(e RID) (RID, error) {
	return t.store.GetSrc(e)
}

/*
GetDst returns the destination vertex RID of edge e.
*/
func (t *Txn) GetDst(e RID) (RID, error) {
	return t.store.GetDst(e)
}

/*
GetSrcDst returns both endpoint RIDs of edge e.
*/
func (t *Txn) GetSrcDst(e RID) (src, dst RID, err error) {
	return t.store.GetEndpoints(e)
}
