package store

import (
	"github.com/phirasit/nogdb/codec"
	"github.com/phirasit/nogdb/nerrors"
	"github.com/phirasit/nogdb/schema"
)

/*
CreateEdge validates cd is an EDGE class and that src/dst name live
vertices, then writes the row (endpoint prefix + property block) and
updates out(src)/in(dst).
*/
func (s *Store) CreateEdge(cd *schema.ClassDescriptor, src, dst RID, rec *Record) (RID, *Record, error) {
	if cd.Kind != schema.Edge {
		return RID{}, nil, nerrors.New(nerrors.ErrMismatchClassType, cd.Name)
	}

	if err := s.requireVertex(src); err != nil {
		return RID{}, nil, nerrors.New(nerrors.ErrNoExstSrc, src.String())
	}
	if err := s.requireVertex(dst); err != nil {
		return RID{}, nil, nerrors.New(nerrors.ErrNoExstDst, dst.String())
	}

	body, err := encodeRecord(s.cat, cd.ClassID, rec)
	if err != nil {
		return RID{}, nil, err
	}

	pos, err := s.allocatePosition(cd.ClassID)
	if err != nil {
		return RID{}, nil, err
	}
	rid := RID{ClassID: cd.ClassID, PositionID: pos}

	prefix := codec.EncodeEndpoints(codec.Endpoints{
		SrcClassID:    uint32(src.ClassID),
		SrcPositionID: src.PositionID,
		DstClassID:    uint32(dst.ClassID),
		DstPositionID: dst.PositionID,
	})
	raw := append(prefix, body...)

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

	if err := s.AddOutEdge(src, cd.ClassID, rid); err != nil {
		return RID{}, nil, err
	}
	if err := s.AddInEdge(dst, cd.ClassID, rid); err != nil {
		return RID{}, nil, err
	}

	out, err := decodeRecord(s.cat, cd.ClassID, cd.Name, rid, body, nil)
	if err != nil {
		return RID{}, nil, err
	}
	return rid, out, nil
}

func (s *Store) requireVertex(rid RID) error {
	cd, ok := s.cat.ClassByID(rid.ClassID)
	if !ok || cd.Kind != schema.Vertex {
		return nerrors.New(nerrors.ErrNoExstVertex, rid.String())
	}
	if _, err := s.getRaw(rid); err != nil {
		return err
	}
	return nil
}

/*
UpdateSrc rewrites an edge's source endpoint and moves its membership
from the old source's out-set to the new source's out-set.
*/
func (s *Store) UpdateSrc(e RID, newSrc RID) error {
	if err := s.requireVertex(newSrc); err != nil {
		return nerrors.New(nerrors.ErrNoExstSrc, newSrc.String())
	}

	cd, ok := s.cat.ClassByID(e.ClassID)
	if !ok || cd.Kind != schema.Edge {
		return nerrors.New(nerrors.ErrNoExstEdge, e.String())
	}

	raw, err := s.getRaw(e)
	if err != nil {
		return err
	}
	ep, err := decodeEndpoints(raw)
	if err != nil {
		return err
	}
	oldSrc := RID{ClassID: uint16(ep.SrcClassID), PositionID: ep.SrcPositionID}

	ep.SrcClassID = uint32(newSrc.ClassID)
	ep.SrcPositionID = newSrc.PositionID
	newRaw := append(codec.EncodeEndpoints(ep), raw[codec.EndpointPrefixSize:]...)

	b, err := s.classBucket(e.ClassID, true)
	if err != nil {
		return err
	}
	if err := b.Put(u32key(e.PositionID), newRaw); err != nil {
		return err
	}

	if err := s.RemoveOutEdge(oldSrc, e.ClassID, e); err != nil {
		return err
	}
	return s.AddOutEdge(newSrc, e.ClassID, e)
}

/*
UpdateDst rewrites an edge's destination endpoint and moves its
membership from the old destination's in-set to the new destination's
in-set.
*/
func (s *Store) UpdateDst(e RID, newDst RID) error {
	if err := s.requireVertex(newDst); err != nil {
		return nerrors.New(nerrors.ErrNoExstDst, newDst.String())
	}

	cd, ok := s.cat.ClassByID(e.ClassID)
	if !ok || cd.Kind != schema.Edge {
		return nerrors.New(nerrors.ErrNoExstEdge, e.String())
	}

	raw, err := s.getRaw(e)
	if err != nil {
		return err
	}
	ep, err := decodeEndpoints(raw)
	if err != nil {
		return err
	}
	oldDst := RID{ClassID: uint16(ep.DstClassID), PositionID: ep.DstPositionID}

	ep.DstClassID = uint32(newDst.ClassID)
	ep.DstPositionID = newDst.PositionID
	newRaw := append(codec.EncodeEndpoints(ep), raw[codec.EndpointPrefixSize:]...)

	b, err := s.classBucket(e.ClassID, true)
	if err != nil {
		return err
	}
	if err := b.Put(u32key(e.PositionID), newRaw); err != nil {
		return err
	}

	if err := s.RemoveInEdge(oldDst, e.ClassID, e); err != nil {
		return err
	}
	return s.AddInEdge(newDst, e.ClassID, e)
}

/*
DestroyEdge removes e from out(src) and in(dst), deletes its row and its
index entries.
*/
func (s *Store) DestroyEdge(e RID) error {
	raw, err := s.getRaw(e)
	if err != nil {
		return err
	}
	ep, err := decodeEndpoints(raw)
	if err != nil {
		return err
	}
	src := RID{ClassID: uint16(ep.SrcClassID), PositionID: ep.SrcPositionID}
	dst := RID{ClassID: uint16(ep.DstClassID), PositionID: ep.DstPositionID}

	prefixLen := codec.EndpointPrefixSize
	if err := s.destroyRow(e, &prefixLen); err != nil {
		return err
	}

	if err := s.RemoveOutEdge(src, e.ClassID, e); err != nil {
		return nerrors.New(nerrors.ErrGraphUnknown, err.Error())
	}
	if err := s.RemoveInEdge(dst, e.ClassID, e); err != nil {
		return nerrors.New(nerrors.ErrGraphUnknown, err.Error())
	}
	return nil
}
