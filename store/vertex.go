package store

import (
	"github.com/phirasit/nogdb/codec"
	"github.com/phirasit/nogdb/nerrors"
	"github.com/phirasit/nogdb/schema"
)

/*
Descriptor pairs a RID with the record materialised at it, the shape
every full-scan and query result is returned as.
*/
type Descriptor struct {
	RID    RID
	Record *Record
}

func (s *Store) getRaw(rid RID) ([]byte, error) {
	b, err := s.classBucket(rid.ClassID, false)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, nerrors.New(nerrors.ErrNoExstRecord, rid.String())
	}
	raw := b.Get(u32key(rid.PositionID))
	if raw == nil {
		return nil, nerrors.New(nerrors.ErrNoExstRecord, rid.String())
	}
	return raw, nil
}

func decodeEndpoints(raw []byte) (codec.Endpoints, error) {
	if len(raw) < codec.EndpointPrefixSize {
		return codec.Endpoints{}, nerrors.New(nerrors.ErrInvalidRid, "truncated edge row")
	}
	return codec.DecodeEndpoints(raw[:codec.EndpointPrefixSize])
}

/*
CreateVertex validates cd is a VERTEX class, encodes rec, allocates a
fresh position and writes the row, then updates every index the class
participates in.
*/
func (s *Store) CreateVertex(cd *schema.ClassDescriptor, rec *Record) (RID, *Record, error) {
	if cd.Kind != schema.Vertex {
		return RID{}, nil, nerrors.New(nerrors.ErrMismatchClassType, cd.Name)
	}

	raw, err := encodeRecord(s.cat, cd.ClassID, rec)
	if err != nil {
		return RID{}, nil, err
	}

	pos, err := s.allocatePosition(cd.ClassID)
	if err != nil {
		return RID{}, nil, err
	}
	rid := RID{ClassID: cd.ClassID, PositionID: pos}

	b, err := s.classBucket(cd.ClassID, true)
	if err != nil {
		return RID{}, nil, err
	}
	if err := b.Put(u32key(pos), raw); err != nil {
		return RID{}, nil, err
	}

	if err := s.indexInsertAll(cd.ClassID, pos, rec); err != nil {
		return RID{}, nil, err
	}

	out, err := decodeRecord(s.cat, cd.ClassID, cd.Name, rid, raw, nil)
	if err != nil {
		return RID{}, nil, err
	}
	return rid, out, nil
}

/*
GetRecord reads and decodes the record at rid, projecting only attrs if
non-empty. Fails with ErrNoExstRecord if rid names no live record.
*/
func (s *Store) GetRecord(rid RID, attrs []string) (*Record, error) {
	cd, ok := s.cat.ClassByID(rid.ClassID)
	if !ok {
		return nil, nerrors.New(nerrors.ErrNoExstClass, "")
	}

	raw, err := s.getRaw(rid)
	if err != nil {
		return nil, err
	}
	if cd.Kind == schema.Edge {
		raw = raw[codec.EndpointPrefixSize:]
	}
	return decodeRecord(s.cat, rid.ClassID, cd.Name, rid, raw, attrs)
}

/*
Update merges the supplied properties of rec into the record at rid:
only the properties present in rec are written, everything else keeps
its stored value. For any indexed property whose value changed, the old
index entry is removed before the new one is inserted.
*/
func (s *Store) Update(rid RID, rec *Record) (*Record, error) {
	cd, ok := s.cat.ClassByID(rid.ClassID)
	if !ok {
		return nil, nerrors.New(nerrors.ErrNoExstClass, "")
	}

	raw, err := s.getRaw(rid)
	if err != nil {
		return nil, err
	}

	var prefix []byte
	body := raw
	if cd.Kind == schema.Edge {
		prefix = raw[:codec.EndpointPrefixSize]
		body = raw[codec.EndpointPrefixSize:]
	}

	oldRec, err := decodeRecord(s.cat, rid.ClassID, cd.Name, rid, body, nil)
	if err != nil {
		return nil, err
	}

	newRec := oldRec.Clone()
	for _, name := range rec.Keys() {
		v, _ := rec.Attr(name)
		newRec.SetAttr(name, v)
	}

	if err := s.indexUpdateDiff(rid.ClassID, rid.PositionID, oldRec, newRec); err != nil {
		return nil, err
	}

	newBody, err := encodeRecord(s.cat, rid.ClassID, newRec)
	if err != nil {
		return nil, err
	}

	b, err := s.classBucket(rid.ClassID, true)
	if err != nil {
		return nil, err
	}
	newRaw := newBody
	if prefix != nil {
		newRaw = append(append([]byte{}, prefix...), newBody...)
	}
	if err := b.Put(u32key(rid.PositionID), newRaw); err != nil {
		return nil, err
	}

	out, err := decodeRecord(s.cat, rid.ClassID, cd.Name, rid, newBody, nil)
	if err != nil {
		return nil, err
	}
	return out, nil
}

/*
DestroyVertex cascades to every incident edge, then deletes the vertex
row and its index entries.
*/
func (s *Store) DestroyVertex(rid RID) error {
	out, err := s.GetOutEdges(rid, 0)
	if err != nil {
		return err
	}
	for _, ref := range out {
		if err := s.DestroyEdge(ref.EdgeRID); err != nil {
			return err
		}
	}

	in, err := s.GetInEdges(rid, 0)
	if err != nil {
		return err
	}
	for _, ref := range in {
		if err := s.DestroyEdge(ref.EdgeRID); err != nil {
			return err
		}
	}

	return s.destroyRow(rid, nil)
}

func (s *Store) destroyRow(rid RID, prefixLen *int) error {
	raw, err := s.getRaw(rid)
	if err != nil {
		return err
	}

	body := raw
	if prefixLen != nil {
		body = raw[*prefixLen:]
	}

	cd, ok := s.cat.ClassByID(rid.ClassID)
	if !ok {
		return nerrors.New(nerrors.ErrNoExstClass, "")
	}
	rec, err := decodeRecord(s.cat, rid.ClassID, cd.Name, rid, body, nil)
	if err != nil {
		return err
	}

	if err := s.indexRemoveAll(rid.ClassID, rec, rid.PositionID); err != nil {
		return err
	}

	b, err := s.classBucket(rid.ClassID, true)
	if err != nil {
		return err
	}
	return b.Delete(u32key(rid.PositionID))
}

/*
DestroyClass clears every live record of classID. Records of this class
only; the caller resolves the subclass set and calls this once per
class in it.
*/
func (s *Store) DestroyClass(classID uint16) error {
	cd, ok := s.cat.ClassByID(classID)
	if !ok {
		return nerrors.New(nerrors.ErrNoExstClass, "")
	}

	rids, err := s.classPositions(classID)
	if err != nil {
		return err
	}

	for _, pos := range rids {
		rid := RID{ClassID: classID, PositionID: pos}
		if cd.Kind == schema.Vertex {
			if err := s.DestroyVertex(rid); err != nil {
				return err
			}
		} else {
			if err := s.DestroyEdge(rid); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) classPositions(classID uint16) ([]uint32, error) {
	b, err := s.classBucket(classID, false)
	if err != nil || b == nil {
		return nil, err
	}

	var out []uint32
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		pos := decodeU32(k)
		if pos == 0 {
			continue // reserved position counter
		}
		out = append(out, pos)
	}
	return out, nil
}

func decodeU32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

/*
ScanClass materialises every live record of classID in position order,
skipping the reserved counter key.
*/
func (s *Store) ScanClass(classID uint16) ([]Descriptor, error) {
	cd, ok := s.cat.ClassByID(classID)
	if !ok {
		return nil, nerrors.New(nerrors.ErrNoExstClass, "")
	}

	b, err := s.classBucket(classID, false)
	if err != nil || b == nil {
		return nil, err
	}

	var out []Descriptor
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		pos := decodeU32(k)
		if pos == 0 {
			continue
		}
		rid := RID{ClassID: classID, PositionID: pos}
		body := v
		if cd.Kind == schema.Edge {
			body = v[codec.EndpointPrefixSize:]
		}
		rec, err := decodeRecord(s.cat, classID, cd.Name, rid, body, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, Descriptor{RID: rid, Record: rec})
	}
	return out, nil
}

/*
NewClassCursor returns a lazy, forward-only cursor over classID's live
records; it cannot be rewound once advanced. It is only valid for the
lifetime of the owning kv.Txn.
*/
func (s *Store) NewClassCursor(classID uint16) (*ClassCursor, error) {
	cd, ok := s.cat.ClassByID(classID)
	if !ok {
		return nil, nerrors.New(nerrors.ErrNoExstClass, "")
	}
	b, err := s.classBucket(classID, false)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return &ClassCursor{done: true}, nil
	}
	return &ClassCursor{
		store:   s,
		cd:      cd,
		cursor:  b.Cursor(),
		started: false,
	}, nil
}

/*
ClassCursor lazily walks one class's live records in position order.
*/
type ClassCursor struct {
	store   *Store
	cd      *schema.ClassDescriptor
	cursor  interface {
		First() ([]byte, []byte)
		Next() ([]byte, []byte)
	}
	started bool
	done    bool
}

/*
Next advances the cursor and returns the next live descriptor, or ok=false
once exhausted.
*/
func (c *ClassCursor) Next() (Descriptor, bool, error) {
	if c.done {
		return Descriptor{}, false, nil
	}

	var k, v []byte
	if !c.started {
		c.started = true
		k, v = c.cursor.First()
	} else {
		k, v = c.cursor.Next()
	}

	for k != nil && decodeU32(k) == 0 {
		k, v = c.cursor.Next()
	}

	if k == nil {
		c.done = true
		return Descriptor{}, false, nil
	}

	pos := decodeU32(k)
	rid := RID{ClassID: c.cd.ClassID, PositionID: pos}
	body := v
	if c.cd.Kind == schema.Edge {
		body = v[codec.EndpointPrefixSize:]
	}
	rec, err := decodeRecord(c.store.cat, c.cd.ClassID, c.cd.Name, rid, body, nil)
	if err != nil {
		return Descriptor{}, false, err
	}
	return Descriptor{RID: rid, Record: rec}, true, nil
}
