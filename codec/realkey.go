package codec

import (
	"encoding/binary"
	"math"
)

/*
EncodeRealKey remaps an IEEE-754 float64 into an 8 byte big-endian key
whose unsigned byte-wise order matches numeric float order, including
negative values and the transition across zero. This is what lets the
index engine keep all reals in a single ordered sub-database (unlike
signed integers, which are split into a positive/negative pair) while
still serving range scans with a plain cursor walk.

The remap: for non-negative floats, flip the sign bit so they sort above
every negative float under an unsigned byte comparison; for negative
floats, flip every bit so that a more negative value (larger magnitude)
produces a smaller key.
*/
func EncodeRealKey(v float64) []byte {
	bits := math.Float64bits(v)
	if bits&(1<<63) == 0 {
		bits ^= 1 << 63
	} else {
		bits = ^bits
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, bits)
	return buf
}

/*
DecodeRealKey is the inverse of EncodeRealKey.
*/
func DecodeRealKey(key []byte) float64 {
	bits := binary.BigEndian.Uint64(key)
	if bits&(1<<63) != 0 {
		bits ^= 1 << 63
	} else {
		bits = ^bits
	}
	return math.Float64frombits(bits)
}
