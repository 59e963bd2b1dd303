/*
Package store implements the record store and the graph adjacency
store.

Both live in one package because every edge write touches both: an edge
record's bytes (which begin with its src/dst endpoint prefix) and its
{out(src), in(dst)} adjacency entries are written atomically in the same
kv.Txn, and Destroy needs to
walk from a vertex to its incident edges before it can delete either.
*/
package store

import (
	"strconv"
	"strings"

	"github.com/phirasit/nogdb/codec"
)

/*
RID addresses a single record: its class and its position within that
class's sub-database. Position 0 is reserved as the "next position"
counter and is never a live record.
*/
type RID struct {
	ClassID    uint16
	PositionID uint32
}

/*
String renders a RID as "<classId>:<positionId>", the value materialised
into a record's @recordId field.
*/
func (r RID) String() string {
	return strconv.Itoa(int(r.ClassID)) + ":" + strconv.Itoa(int(r.PositionID))
}

/*
IsZero reports whether r is the zero RID (no class, no position),
used as the "not found" / "no endpoint" sentinel.
*/
func (r RID) IsZero() bool {
	return r.ClassID == 0 && r.PositionID == 0
}

/*
ParseRID parses the output of RID.String.
*/
func ParseRID(s string) (RID, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return RID{}, false
	}
	classID, err1 := strconv.ParseUint(parts[0], 10, 16)
	posID, err2 := strconv.ParseUint(parts[1], 10, 32)
	if err1 != nil || err2 != nil {
		return RID{}, false
	}
	return RID{ClassID: uint16(classID), PositionID: uint32(posID)}, true
}

/*
Record is an ordered mapping from property name to typed value, plus the
three basic fields materialised at read time: @className,
@recordId and, for traversal results, @depth. The basic fields are never
part of Data()/the stored property block.
*/
type Record struct {
	order []string
	data  map[string]codec.Bytes

	className string
	recordID  string
	hasDepth  bool
	depth     int
}

/*
NewRecord returns an empty record.
*/
func NewRecord() *Record {
	return &Record{data: make(map[string]codec.Bytes)}
}

/*
SetAttr sets a user property. Setting the same name twice overwrites the
value but keeps its original position in Keys().
*/
func (r *Record) SetAttr(name string, value codec.Bytes) *Record {
	if _, ok := r.data[name]; !ok {
		r.order = append(r.order, name)
	}
	r.data[name] = value
	return r
}

/*
Attr returns a property's value and whether it was set at all (as
opposed to being absent from the record).
*/
func (r *Record) Attr(name string) (codec.Bytes, bool) {
	v, ok := r.data[name]
	return v, ok
}

/*
Keys returns the record's user property names, in the order they were
first set.
*/
func (r *Record) Keys() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

/*
Data returns the record's user properties.
*/
func (r *Record) Data() map[string]codec.Bytes {
	return r.data
}

/*
ClassName returns the record's materialised @className field.
*/
func (r *Record) ClassName() string { return r.className }

/*
RecordID returns the record's materialised @recordId field.
*/
func (r *Record) RecordID() string { return r.recordID }

/*
Depth returns the record's materialised @depth field and whether it was
set (only traversal results carry one).
*/
func (r *Record) Depth() (int, bool) { return r.depth, r.hasDepth }

/*
SetDepth sets @depth, used by the traversal package when materialising a
visited vertex.
*/
func (r *Record) SetDepth(d int) *Record {
	r.depth = d
	r.hasDepth = true
	return r
}

func (r *Record) setBasics(className string, rid RID) *Record {
	r.className = className
	r.recordID = rid.String()
	return r
}

/*
Clone returns a shallow copy of r; property values (codec.Bytes) are not
deep-copied since they are treated as immutable once set.
*/
func (r *Record) Clone() *Record {
	c := NewRecord()
	c.order = append([]string{}, r.order...)
	for k, v := range r.data {
		c.data[k] = v
	}
	c.className = r.className
	c.recordID = r.recordID
	c.hasDepth = r.hasDepth
	c.depth = r.depth
	return c
}
