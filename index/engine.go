/*
Package index implements the per-(class,property) secondary index
engine: one logical index, one physical sub-database pair
(".index_<id>_positive" / ".index_<id>_negative"), with the negative side
ordered by ascending magnitude so that a backward cursor walk yields
ascending value order.

An index created on a class also covers every subclass that inherits the
indexed property. Since position ids are only unique within a single
class's own sub-database, an index entry cannot be identified by position
alone once more than one class contributes rows to it, so every index
key carries the contributing class id ahead of the position, and every
lookup returns (classId, positionId) pairs rather than bare positions.

Every index key is the type-specific encoded value, followed by a 2 byte
big-endian classId and a 4 byte big-endian positionId suffix; this is how
a bbolt bucket, which has no native duplicate-key support, still lets
many (class, position) pairs share one indexed value.
*/
package index

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/phirasit/nogdb/codec"
	"github.com/phirasit/nogdb/kv"
	"github.com/phirasit/nogdb/nerrors"
)

/*
BucketName returns the positive or negative sub-database name for an
index id.
*/
func BucketName(indexID uint32, negative bool) string {
	suffix := "_positive"
	if negative {
		suffix = "_negative"
	}
	return ".index_" + itoa(indexID) + suffix
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

/*
SupportsType reports whether values of t can be indexed.
*/
func SupportsType(t codec.Type) bool {
	switch t {
	case codec.Integer, codec.UnsignedInteger, codec.Real, codec.Text:
		return true
	}
	return false
}

/*
Ref addresses one record contributing an entry to an index: the class it
lives in and its position within that class.
*/
type Ref struct {
	ClassID    uint16
	PositionID uint32
}

/*
encodeValueKey returns the encoded value bytes and whether they belong in
the negative sub-database, for a typed property value.
*/
func encodeValueKey(t codec.Type, value codec.Bytes) (enc []byte, negative bool) {
	switch t {
	case codec.Integer:
		v := codec.DecodeInt(value)
		if v < 0 {
			return encodeUint64BE(uint64(-v)), true
		}
		return encodeUint64BE(uint64(v)), false
	case codec.UnsignedInteger:
		return encodeUint64BE(codec.DecodeUint(value)), false
	case codec.Real:
		return codec.EncodeRealKey(codec.DecodeReal(value)), false
	case codec.Text:
		return []byte(codec.DecodeText(value)), false
	default:
		return []byte(value), false
	}
}

func encodeUint64BE(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func buildKey(enc []byte, ref Ref) []byte {
	key := make([]byte, len(enc)+6)
	copy(key, enc)
	binary.BigEndian.PutUint16(key[len(enc):], ref.ClassID)
	binary.BigEndian.PutUint32(key[len(enc)+2:], ref.PositionID)
	return key
}

func splitKey(key []byte) (enc []byte, ref Ref) {
	n := len(key) - 6
	return key[:n], Ref{
		ClassID:    binary.BigEndian.Uint16(key[n : n+2]),
		PositionID: binary.BigEndian.Uint32(key[n+2:]),
	}
}

func bucket(txn kv.Txn, indexID uint32, negative, create bool) (kv.Bucket, error) {
	name := BucketName(indexID, negative)
	if create {
		return txn.CreateBucketIfNotExists(name)
	}
	b, err := txn.Bucket(name)
	if err != nil {
		return nil, nerrors.New(nerrors.ErrStorage, err.Error())
	}
	return b, nil
}

/*
IndexRef is the minimal information Insert/Remove/the query planner need
about an index; it mirrors schema.IndexDescriptor without creating an
import cycle between index and schema (schema never needs to import
index, but query and store import both).
*/
type IndexRef struct {
	IndexID uint32
	Unique  bool
}

/*
Insert adds (value, ref) to the index. On a unique index, inserting a
second distinct ref for a value that already has one fails with
ErrInvalidIndexConstrain and leaves the index unchanged.
*/
func Insert(txn kv.Txn, idx IndexRef, propType codec.Type, value codec.Bytes, ref Ref) error {
	if value.IsNull() {
		return nil
	}

	enc, negative := encodeValueKey(propType, value)

	b, err := bucket(txn, idx.IndexID, negative, true)
	if err != nil {
		return err
	}

	if idx.Unique {
		if existing := equalInBucket(b, enc); len(existing) > 0 && !containsRef(existing, ref) {
			return nerrors.New(nerrors.ErrInvalidIndexConstrain, "unique index violation")
		}
	}

	return b.Put(buildKey(enc, ref), []byte{})
}

func containsRef(refs []Ref, ref Ref) bool {
	for _, r := range refs {
		if r == ref {
			return true
		}
	}
	return false
}

/*
Remove deletes exactly the (value, ref) pair from the index, if present.
*/
func Remove(txn kv.Txn, idx IndexRef, propType codec.Type, value codec.Bytes, ref Ref) error {
	if value.IsNull() {
		return nil
	}

	enc, negative := encodeValueKey(propType, value)

	b, err := bucket(txn, idx.IndexID, negative, false)
	if err != nil || b == nil {
		return err
	}

	return b.Delete(buildKey(enc, ref))
}

/*
DropBuckets removes both of an index's sub-databases.
*/
func DropBuckets(txn kv.Txn, indexID uint32) error {
	if err := txn.DeleteBucket(BucketName(indexID, false)); err != nil {
		return err
	}
	return txn.DeleteBucket(BucketName(indexID, true))
}

func equalInBucket(b kv.Bucket, enc []byte) []Ref {
	var out []Ref
	c := b.Cursor()
	for k, _ := c.Seek(enc); k != nil && bytes.HasPrefix(k, enc) && len(k) == len(enc)+6; k, _ = c.Next() {
		_, ref := splitKey(k)
		out = append(out, ref)
	}
	return out
}

/*
Equal returns every (class, position) ref indexed under value.
*/
func Equal(txn kv.Txn, idx IndexRef, propType codec.Type, value codec.Bytes) ([]Ref, error) {
	enc, negative := encodeValueKey(propType, value)
	b, err := bucket(txn, idx.IndexID, negative, false)
	if err != nil || b == nil {
		return nil, err
	}
	return equalInBucket(b, enc), nil
}

/*
Less returns every ref whose indexed value is < value (or <= value when
orEq is set).
*/
func Less(txn kv.Txn, idx IndexRef, propType codec.Type, value codec.Bytes, orEq bool) ([]Ref, error) {
	return rangeScan(txn, idx, propType, nil, false, &value, orEq)
}

/*
Greater returns every ref whose indexed value is > value (or >= value
when orEq is set).
*/
func Greater(txn kv.Txn, idx IndexRef, propType codec.Type, value codec.Bytes, orEq bool) ([]Ref, error) {
	return rangeScan(txn, idx, propType, &value, orEq, nil, false)
}

/*
Between returns every ref whose indexed value lies within [lo, hi], with
each bound's inclusivity controlled independently.
*/
func Between(txn kv.Txn, idx IndexRef, propType codec.Type, lo, hi codec.Bytes, loIncl, hiIncl bool) ([]Ref, error) {
	return rangeScan(txn, idx, propType, &lo, loIncl, &hi, hiIncl)
}

/*
rangeScan walks both the positive and (for signed integers) negative
sub-databases once each, collecting refs whose decoded value satisfies
the given bounds. Either bound may be nil for an open range.
*/
func rangeScan(txn kv.Txn, idx IndexRef, propType codec.Type, lo *codec.Bytes, loIncl bool, hi *codec.Bytes, hiIncl bool) ([]Ref, error) {
	var out []Ref

	scanBucket := func(negative bool) error {
		b, err := bucket(txn, idx.IndexID, negative, false)
		if err != nil || b == nil {
			return err
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			enc, ref := splitKey(k)
			v := decodeEncodedValue(propType, enc, negative)
			if inBounds(propType, v, lo, loIncl, hi, hiIncl) {
				out = append(out, ref)
			}
		}
		return nil
	}

	if err := scanBucket(false); err != nil {
		return nil, err
	}
	if propType == codec.Integer {
		if err := scanBucket(true); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func decodeEncodedValue(t codec.Type, enc []byte, negative bool) codec.Bytes {
	switch t {
	case codec.Integer:
		mag := int64(binary.BigEndian.Uint64(enc))
		if negative {
			return codec.EncodeInt(-mag)
		}
		return codec.EncodeInt(mag)
	case codec.UnsignedInteger:
		return codec.EncodeUint(binary.BigEndian.Uint64(enc))
	case codec.Real:
		return codec.EncodeReal(codec.DecodeRealKey(enc))
	default:
		return codec.Bytes(enc)
	}
}

func inBounds(t codec.Type, v codec.Bytes, lo *codec.Bytes, loIncl bool, hi *codec.Bytes, hiIncl bool) bool {
	cmp := comparator(t)
	if lo != nil {
		c := cmp(v, *lo)
		if loIncl {
			if c < 0 {
				return false
			}
		} else if c <= 0 {
			return false
		}
	}
	if hi != nil {
		c := cmp(v, *hi)
		if hiIncl {
			if c > 0 {
				return false
			}
		} else if c >= 0 {
			return false
		}
	}
	return true
}

func comparator(t codec.Type) func(a, b codec.Bytes) int {
	switch t {
	case codec.Integer:
		return func(a, b codec.Bytes) int {
			av, bv := codec.DecodeInt(a), codec.DecodeInt(b)
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			default:
				return 0
			}
		}
	case codec.UnsignedInteger:
		return func(a, b codec.Bytes) int {
			av, bv := codec.DecodeUint(a), codec.DecodeUint(b)
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			default:
				return 0
			}
		}
	case codec.Real:
		return func(a, b codec.Bytes) int {
			av, bv := codec.DecodeReal(a), codec.DecodeReal(b)
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			default:
				return 0
			}
		}
	default:
		return func(a, b codec.Bytes) int {
			return bytes.Compare([]byte(a), []byte(b))
		}
	}
}

/*
SortRefs sorts a ref slice by (classId, positionId) ascending; used to
give deterministic output for full-scan-equivalence tests.
*/
func SortRefs(refs []Ref) {
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].ClassID != refs[j].ClassID {
			return refs[i].ClassID < refs[j].ClassID
		}
		return refs[i].PositionID < refs[j].PositionID
	})
}
