package store

import (
	"encoding/binary"
	"sort"
	"strconv"

	"github.com/phirasit/nogdb/codec"
	"github.com/phirasit/nogdb/index"
	"github.com/phirasit/nogdb/kv"
	"github.com/phirasit/nogdb/nerrors"
	"github.com/phirasit/nogdb/schema"
)

/*
Store is the record store and graph store for one transaction. It is
constructed fresh per kv.Txn and discarded with it; all state it needs
between calls lives in the txn's buckets, not in the Store value itself.
*/
type Store struct {
	txn kv.Txn
	cat *schema.Catalog
}

/*
New returns a Store bound to txn and the catalog snapshot cat.
*/
func New(txn kv.Txn, cat *schema.Catalog) *Store {
	return &Store{txn: txn, cat: cat}
}

/*
Txn exposes the underlying kv.Txn. The query package needs it to drive
the index engine directly during planning; nothing outside query and
store should reach for this.
*/
func (s *Store) Txn() kv.Txn {
	return s.txn
}

/*
Catalog returns the schema snapshot this Store is bound to.
*/
func (s *Store) Catalog() *schema.Catalog {
	return s.cat
}

func classBucketName(classID uint16) string {
	return strconv.Itoa(int(classID))
}

/*
ClassBucketName returns the kv bucket name holding classID's records,
exposed so DropClass can delete the bucket once the last record is gone.
*/
func ClassBucketName(classID uint16) string {
	return classBucketName(classID)
}

func (s *Store) classBucket(classID uint16, create bool) (kv.Bucket, error) {
	name := classBucketName(classID)
	if create {
		return s.txn.CreateBucketIfNotExists(name)
	}
	b, err := s.txn.Bucket(name)
	if err != nil {
		return nil, nerrors.New(nerrors.ErrStorage, err.Error())
	}
	return b, nil
}

func u32key(v uint32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, v)
	return buf
}

/*
positionCounterKey is the reserved key 0 holding the last allocated
position for a class.
*/
var positionCounterKey = u32key(0)

func (s *Store) allocatePosition(classID uint16) (uint32, error) {
	b, err := s.classBucket(classID, true)
	if err != nil {
		return 0, err
	}

	var next uint32 = 1
	if v := b.Get(positionCounterKey); v != nil {
		next = binary.BigEndian.Uint32(v) + 1
	}

	if err := b.Put(positionCounterKey, u32key(next)); err != nil {
		return 0, err
	}

	return next, nil
}

// ---- record encode/decode ----

func propertyType(t byte) codec.Type { return codec.Type(t) }

func encodeRecord(cat *schema.Catalog, classID uint16, rec *Record) ([]byte, error) {
	blocks := make([]codec.Block, 0, len(rec.Data()))

	for name, value := range rec.Data() {
		pd, ok := cat.ResolveProperty(classID, name)
		if !ok {
			return nil, nerrors.New(nerrors.ErrNoExstProperty, name)
		}
		blocks = append(blocks, codec.Block{PropertyID: pd.PropertyID, Value: value})
	}

	sort.Slice(blocks, func(i, j int) bool { return blocks[i].PropertyID < blocks[j].PropertyID })

	return codec.EncodeBlocks(blocks), nil
}

func decodeRecord(cat *schema.Catalog, classID uint16, className string, rid RID, raw []byte, attrs []string) (*Record, error) {
	blocks, err := codec.DecodeBlocks(raw)
	if err != nil {
		return nil, err
	}

	var want map[string]bool
	if len(attrs) > 0 {
		want = make(map[string]bool, len(attrs))
		for _, a := range attrs {
			want[a] = true
		}
	}

	rec := NewRecord()
	for _, blk := range blocks {
		pd, ok := cat.ResolvePropertyByID(classID, blk.PropertyID)
		if !ok {
			continue
		}
		if want != nil && !want[pd.Name] {
			continue
		}
		rec.SetAttr(pd.Name, blk.Value)
	}
	rec.setBasics(className, rid)

	return rec, nil
}

// ---- index maintenance ----

func (s *Store) indexInsertAll(classID uint16, pos uint32, rec *Record) error {
	idxRef := index.Ref{ClassID: classID, PositionID: pos}
	for name, value := range rec.Data() {
		pd, ok := s.cat.ResolveProperty(classID, name)
		if !ok {
			continue
		}
		idx, ok := s.cat.IndexForInherited(classID, pd.PropertyID)
		if !ok {
			continue
		}
		ref := index.IndexRef{IndexID: idx.IndexID, Unique: idx.Unique}
		if err := index.Insert(s.txn, ref, propertyType(pd.Type), value, idxRef); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) indexRemoveAll(classID uint16, rec *Record, pos uint32) error {
	idxRef := index.Ref{ClassID: classID, PositionID: pos}
	for name, value := range rec.Data() {
		pd, ok := s.cat.ResolveProperty(classID, name)
		if !ok {
			continue
		}
		idx, ok := s.cat.IndexForInherited(classID, pd.PropertyID)
		if !ok {
			continue
		}
		ref := index.IndexRef{IndexID: idx.IndexID, Unique: idx.Unique}
		if err := index.Remove(s.txn, ref, propertyType(pd.Type), value, idxRef); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) indexUpdateDiff(classID uint16, pos uint32, oldRec, newRec *Record) error {
	idxRef := index.Ref{ClassID: classID, PositionID: pos}
	for name, newVal := range newRec.Data() {
		oldVal, existed := oldRec.Attr(name)
		if existed && bytesEqual(oldVal, newVal) {
			continue
		}

		pd, ok := s.cat.ResolveProperty(classID, name)
		if !ok {
			continue
		}
		idx, ok := s.cat.IndexForInherited(classID, pd.PropertyID)
		if !ok {
			continue
		}
		ref := index.IndexRef{IndexID: idx.IndexID, Unique: idx.Unique}

		if existed {
			if err := index.Remove(s.txn, ref, propertyType(pd.Type), oldVal, idxRef); err != nil {
				return err
			}
		}
		if err := index.Insert(s.txn, ref, propertyType(pd.Type), newVal, idxRef); err != nil {
			return err
		}
	}
	return nil
}

func bytesEqual(a, b codec.Bytes) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
