package codec

import (
	"bytes"
	"sort"
	"testing"
)

func TestBlockRoundTrip(t *testing.T) {
	long := make([]byte, 4000)
	for i := range long {
		long[i] = byte(i)
	}

	blocks := []Block{
		{PropertyID: 2, Value: EncodeText("Harry Potter")},
		{PropertyID: 3, Value: EncodeInt(456)},
		{PropertyID: 4, Value: EncodeReal(24.5)},
		{PropertyID: 5, Value: Bytes{}},
		{PropertyID: 6, Value: Bytes(long)},
	}

	raw := EncodeBlocks(blocks)

	decoded, err := DecodeBlocks(raw)
	if err != nil {
		t.Error(err)
		return
	}

	if len(decoded) != len(blocks) {
		t.Error("Unexpected number of blocks:", len(decoded))
		return
	}

	for i, blk := range decoded {
		if blk.PropertyID != blocks[i].PropertyID {
			t.Error("Unexpected property id:", blk.PropertyID)
		}
		if !bytes.Equal(blk.Value, blocks[i].Value) {
			t.Error("Unexpected value for property:", blk.PropertyID)
		}
	}
}

func TestBlockHeaderBoundary(t *testing.T) {
	// 127 bytes is the largest short-header value; 128 needs the long form.
	for _, size := range []int{0, 1, 127, 128, 129, 300} {
		v := make([]byte, size)
		raw := EncodeBlocks([]Block{{PropertyID: 9, Value: v}})

		wantHeader := 1
		if size > 127 {
			wantHeader = 4
		}
		if len(raw) != 2+wantHeader+size {
			t.Error("Unexpected encoded length for size", size, ":", len(raw))
		}

		decoded, err := DecodeBlocks(raw)
		if err != nil || len(decoded) != 1 || len(decoded[0].Value) != size {
			t.Error("Unexpected decode result for size", size)
		}
	}
}

func TestDecodeBlocksTruncated(t *testing.T) {
	raw := EncodeBlocks([]Block{{PropertyID: 1, Value: EncodeText("abcdef")}})

	if _, err := DecodeBlocks(raw[:len(raw)-2]); err == nil {
		t.Error("Truncated value should not decode")
	}
	if _, err := DecodeBlocks(raw[:2]); err == nil {
		t.Error("Truncated header should not decode")
	}
}

func TestEndpointsRoundTrip(t *testing.T) {
	ep := Endpoints{
		SrcClassID:    3,
		SrcPositionID: 17,
		DstClassID:    4,
		DstPositionID: 99,
	}

	buf := EncodeEndpoints(ep)
	if len(buf) != EndpointPrefixSize {
		t.Error("Unexpected prefix size:", len(buf))
		return
	}

	out, err := DecodeEndpoints(buf)
	if err != nil {
		t.Error(err)
		return
	}
	if out != ep {
		t.Error("Unexpected endpoints:", out)
	}

	if _, err := DecodeEndpoints(buf[:10]); err == nil {
		t.Error("Truncated prefix should not decode")
	}
}

func TestValueRoundTrip(t *testing.T) {
	if v := DecodeInt(EncodeInt(-12345)); v != -12345 {
		t.Error("Unexpected int:", v)
	}
	if v := DecodeUint(EncodeUint(1 << 40)); v != 1<<40 {
		t.Error("Unexpected uint:", v)
	}
	if v := DecodeReal(EncodeReal(24.5)); v != 24.5 {
		t.Error("Unexpected real:", v)
	}
	if v := DecodeText(EncodeText("hello")); v != "hello" {
		t.Error("Unexpected text:", v)
	}

	if !EncodeText("").IsNull() {
		t.Error("Empty text should be null")
	}
	if DecodeInt(Bytes{}) != 0 || DecodeReal(Bytes{}) != 0 {
		t.Error("Null should decode to zero")
	}
}

func TestRealKeyOrdering(t *testing.T) {
	values := []float64{-1e9, -24.5, -1, -0.001, 0, 0.001, 1, 24.5, 1e9}

	keys := make([][]byte, len(values))
	for i, v := range values {
		keys[i] = EncodeRealKey(v)
	}

	sorted := sort.SliceIsSorted(keys, func(i, j int) bool {
		return bytes.Compare(keys[i], keys[j]) < 0
	})
	if !sorted {
		t.Error("Encoded keys do not preserve numeric order")
	}

	for i, v := range values {
		if back := DecodeRealKey(keys[i]); back != v {
			t.Error("Unexpected round trip:", v, back)
		}
	}
}
