package codec

import (
	"encoding/binary"

	"github.com/phirasit/nogdb/nerrors"
)

/*
EndpointPrefixSize is the size in bytes of the fixed vertex-endpoint
prefix that precedes an edge record's property block.
*/
const EndpointPrefixSize = 16

/*
Endpoints is the pair of vertex record ids stored at the front of every
edge record's raw bytes.
*/
type Endpoints struct {
	SrcClassID    uint32
	SrcPositionID uint32
	DstClassID    uint32
	DstPositionID uint32
}

/*
EncodeEndpoints lays out the 16 byte endpoint prefix in
(srcClassId, srcPositionId, dstClassId, dstPositionId) order, each a
big-endian uint32. DecodeEndpoints reads them back in the same order.
*/
func EncodeEndpoints(e Endpoints) []byte {
	buf := make([]byte, EndpointPrefixSize)
	binary.BigEndian.PutUint32(buf[0:4], e.SrcClassID)
	binary.BigEndian.PutUint32(buf[4:8], e.SrcPositionID)
	binary.BigEndian.PutUint32(buf[8:12], e.DstClassID)
	binary.BigEndian.PutUint32(buf[12:16], e.DstPositionID)
	return buf
}

/*
DecodeEndpoints reads the 16 byte endpoint prefix back into its four
fields, in write order.
*/
func DecodeEndpoints(b []byte) (Endpoints, error) {
	if len(b) < EndpointPrefixSize {
		return Endpoints{}, nerrors.New(nerrors.ErrInvalidRid, "truncated edge endpoint prefix")
	}
	return Endpoints{
		SrcClassID:    binary.BigEndian.Uint32(b[0:4]),
		SrcPositionID: binary.BigEndian.Uint32(b[4:8]),
		DstClassID:    binary.BigEndian.Uint32(b[8:12]),
		DstPositionID: binary.BigEndian.Uint32(b[12:16]),
	}, nil
}

/*
Block is one decoded property block: the property id it belongs to and
the raw value bytes (possibly empty, denoting null).
*/
type Block struct {
	PropertyID uint16
	Value      Bytes
}

/*
shortSizeLimit is the largest size that fits the 1-byte header (7 bits).
*/
const shortSizeLimit = 1<<7 - 1

/*
EncodeBlocks concatenates a set of property blocks into a record's raw
payload. Blocks are written in the order given; callers that need a
stable on-disk order should sort by PropertyID first.
*/
func EncodeBlocks(blocks []Block) []byte {
	size := 0
	for _, blk := range blocks {
		size += 2 + headerLen(len(blk.Value)) + len(blk.Value)
	}

	buf := make([]byte, 0, size)
	for _, blk := range blocks {
		var idBuf [2]byte
		binary.LittleEndian.PutUint16(idBuf[:], blk.PropertyID)
		buf = append(buf, idBuf[:]...)
		buf = append(buf, encodeHeader(len(blk.Value))...)
		buf = append(buf, blk.Value...)
	}
	return buf
}

func headerLen(size int) int {
	if size <= shortSizeLimit {
		return 1
	}
	return 4
}

func encodeHeader(size int) []byte {
	if size <= shortSizeLimit {
		return []byte{byte(size << 1)}
	}
	word := uint32(size)<<1 | 1
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, word)
	return buf
}

/*
DecodeBlocks splits a record's raw payload back into its property
blocks. It is the left inverse of EncodeBlocks: parsing the output of
EncodeBlocks always reproduces the original blocks.
*/
func DecodeBlocks(raw []byte) ([]Block, error) {
	var blocks []Block

	for len(raw) > 0 {
		if len(raw) < 3 {
			return nil, nerrors.New(nerrors.ErrGraphUnknown, "truncated property block header")
		}

		propertyID := binary.LittleEndian.Uint16(raw[0:2])
		raw = raw[2:]

		var size int
		if raw[0]&1 == 0 {
			size = int(raw[0] >> 1)
			raw = raw[1:]
		} else {
			if len(raw) < 4 {
				return nil, nerrors.New(nerrors.ErrGraphUnknown, "truncated property block size word")
			}
			word := binary.LittleEndian.Uint32(raw[0:4])
			size = int(word >> 1)
			raw = raw[4:]
		}

		if len(raw) < size {
			return nil, nerrors.New(nerrors.ErrGraphUnknown, "property block value overruns record")
		}

		value := Bytes(raw[:size])
		raw = raw[size:]

		blocks = append(blocks, Block{PropertyID: propertyID, Value: value})
	}

	return blocks, nil
}
