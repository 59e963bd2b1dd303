package store

import (
	"encoding/binary"

	"github.com/phirasit/nogdb/kv"
	"github.com/phirasit/nogdb/nerrors"
)

// Fixed-name sub-databases for the graph adjacency store.
// Keyed by vertexClassId:u16 BE | vertexPositionId:u32 BE | edgeClassId:u16
// BE | edgePositionId:u32 BE, empty value. bbolt has no native
// duplicate-key support, so the multi-value relation is emulated by
// folding the distinguishing fields into the key and relying on ordered
// prefix scans.
const (
	bucketGraphOut = ".graph_out"
	bucketGraphIn  = ".graph_in"
)

/*
EdgeRef names one adjacency entry: the class of the edge and the edge's
own RID. Returned by every graph store lookup.
*/
type EdgeRef struct {
	EdgeClassID uint16
	EdgeRID     RID
}

func vertexPrefix(v RID) []byte {
	buf := make([]byte, 6)
	binary.BigEndian.PutUint16(buf[0:2], v.ClassID)
	binary.BigEndian.PutUint32(buf[2:6], v.PositionID)
	return buf
}

func adjacencyKey(v RID, edgeClassID uint16, edgeRID RID) []byte {
	buf := make([]byte, 12)
	binary.BigEndian.PutUint16(buf[0:2], v.ClassID)
	binary.BigEndian.PutUint32(buf[2:6], v.PositionID)
	binary.BigEndian.PutUint16(buf[6:8], edgeClassID)
	binary.BigEndian.PutUint32(buf[8:12], edgeRID.PositionID)
	return buf
}

func decodeAdjacencyKey(key []byte) EdgeRef {
	return EdgeRef{
		EdgeClassID: binary.BigEndian.Uint16(key[6:8]),
		EdgeRID: RID{
			ClassID:    binary.BigEndian.Uint16(key[6:8]),
			PositionID: binary.BigEndian.Uint32(key[8:12]),
		},
	}
}

func (s *Store) adjacencyBucket(name string, create bool) (kv.Bucket, error) {
	if create {
		return s.txn.CreateBucketIfNotExists(name)
	}
	b, err := s.txn.Bucket(name)
	if err != nil {
		return nil, nerrors.New(nerrors.ErrStorage, err.Error())
	}
	return b, nil
}

func (s *Store) addAdjacency(bucketName string, v RID, edgeClassID uint16, edgeRID RID) error {
	b, err := s.adjacencyBucket(bucketName, true)
	if err != nil {
		return err
	}
	return b.Put(adjacencyKey(v, edgeClassID, edgeRID), []byte{})
}

func (s *Store) removeAdjacency(bucketName string, v RID, edgeClassID uint16, edgeRID RID) error {
	b, err := s.adjacencyBucket(bucketName, false)
	if err != nil || b == nil {
		return err
	}
	return b.Delete(adjacencyKey(v, edgeClassID, edgeRID))
}

/*
AddOutEdge records e as one of v's outgoing edges.
*/
func (s *Store) AddOutEdge(v RID, edgeClassID uint16, e RID) error {
	return s.addAdjacency(bucketGraphOut, v, edgeClassID, e)
}

/*
AddInEdge records e as one of v's incoming edges.
*/
func (s *Store) AddInEdge(v RID, edgeClassID uint16, e RID) error {
	return s.addAdjacency(bucketGraphIn, v, edgeClassID, e)
}

/*
RemoveOutEdge drops e from v's outgoing edges.
*/
func (s *Store) RemoveOutEdge(v RID, edgeClassID uint16, e RID) error {
	return s.removeAdjacency(bucketGraphOut, v, edgeClassID, e)
}

/*
RemoveInEdge drops e from v's incoming edges.
*/
func (s *Store) RemoveInEdge(v RID, edgeClassID uint16, e RID) error {
	return s.removeAdjacency(bucketGraphIn, v, edgeClassID, e)
}

func (s *Store) scanAdjacency(bucketName string, v RID, edgeClassID uint16, hasFilter bool) ([]EdgeRef, error) {
	b, err := s.adjacencyBucket(bucketName, false)
	if err != nil || b == nil {
		return nil, err
	}

	prefix := vertexPrefix(v)
	if hasFilter {
		cbuf := make([]byte, 2)
		binary.BigEndian.PutUint16(cbuf, edgeClassID)
		prefix = append(prefix, cbuf...)
	}

	var out []EdgeRef
	c := b.Cursor()
	for k, _ := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, _ = c.Next() {
		out = append(out, decodeAdjacencyKey(k))
	}
	return out, nil
}

func hasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i, p := range prefix {
		if b[i] != p {
			return false
		}
	}
	return true
}

/*
GetOutEdges returns v's outgoing edges. If edgeClassID is non-zero the
result is restricted to that edge class via a prefix scan.
*/
func (s *Store) GetOutEdges(v RID, edgeClassID uint16) ([]EdgeRef, error) {
	return s.scanAdjacency(bucketGraphOut, v, edgeClassID, edgeClassID != 0)
}

/*
GetInEdges returns v's incoming edges, optionally restricted to one edge
class.
*/
func (s *Store) GetInEdges(v RID, edgeClassID uint16) ([]EdgeRef, error) {
	return s.scanAdjacency(bucketGraphIn, v, edgeClassID, edgeClassID != 0)
}

func distinctClasses(refs []EdgeRef) []uint16 {
	seen := make(map[uint16]bool)
	var out []uint16
	for _, r := range refs {
		if !seen[r.EdgeClassID] {
			seen[r.EdgeClassID] = true
			out = append(out, r.EdgeClassID)
		}
	}
	return out
}

/*
GetOutEdgeClasses returns the distinct edge class ids among v's outgoing
edges.
*/
func (s *Store) GetOutEdgeClasses(v RID) ([]uint16, error) {
	refs, err := s.GetOutEdges(v, 0)
	if err != nil {
		return nil, err
	}
	return distinctClasses(refs), nil
}

/*
GetInEdgeClasses returns the distinct edge class ids among v's incoming
edges.
*/
func (s *Store) GetInEdgeClasses(v RID) ([]uint16, error) {
	refs, err := s.GetInEdges(v, 0)
	if err != nil {
		return nil, err
	}
	return distinctClasses(refs), nil
}

/*
GetEndpoints returns an edge's (src, dst) vertex RIDs, read straight off
the edge row's fixed prefix. A direct record read is already O(1) here,
so no separate endpoints sub-database is maintained.
*/
func (s *Store) GetEndpoints(e RID) (src, dst RID, err error) {
	raw, err := s.getRaw(e)
	if err != nil {
		return RID{}, RID{}, err
	}
	ep, err := decodeEndpoints(raw)
	if err != nil {
		return RID{}, RID{}, err
	}
	return RID{ClassID: uint16(ep.SrcClassID), PositionID: ep.SrcPositionID},
		RID{ClassID: uint16(ep.DstClassID), PositionID: ep.DstPositionID}, nil
}

/*
GetSrc returns an edge's source vertex RID.
*/
func (s *Store) GetSrc(e RID) (RID, error) {
	src, _, err := s.GetEndpoints(e)
	return src, err
}

/*
GetDst returns an edge's destination vertex RID.
*/
func (s *Store) GetDst(e RID) (RID, error) {
	_, dst, err := s.GetEndpoints(e)
	return dst, err
}
