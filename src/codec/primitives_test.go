package codec

import (
	"math"
	"strings"
	"testing"

	"github.com/flatrel/flatrel/src/column"
	"github.com/flatrel/flatrel/src/streambuf"
)

func TestVarintRoundtrip(t *testing.T) {
	values := []uint64{0, 1, 0x7F, 0x80, 0xFF, 0x17F, 1 << 31, math.MaxInt64}
	for _, v := range values {
		fb := streambuf.NewFixedBuffer(16)
		writeUvarint(fb, v)
		fb.Seek(0)
		if got := readUvarint(fb); got != v {
			t.Errorf("varint round-trip of %v yielded %v", v, got)
		}
	}
}

func TestVarintZeroIsOneByte(t *testing.T) {
	fb := streambuf.NewFixedBuffer(16)
	writeUvarint(fb, 0)
	if fb.Pos() != 1 {
		t.Errorf("varint of 0 should be exactly one byte, got %v", fb.Pos())
	}
	if fb.Bytes()[0] != 0 {
		t.Errorf("varint of 0 should encode as 0x00, got 0x%02x", fb.Bytes()[0])
	}
}

func TestScalarRoundtrips(t *testing.T) {
	fb := streambuf.NewFixedBuffer(16)

	u16 := uint16(0x55AA)
	writeU16(fb, u16)
	fb.Seek(0)
	if got := readU16(fb); got != u16 {
		t.Errorf("u16 round-trip of %#x yielded %#x", u16, got)
	}

	fb.Seek(0)
	u32 := uint32(0x55AA99CC)
	writeU32(fb, u32)
	fb.Seek(0)
	if got := readU32(fb); got != u32 {
		t.Errorf("u32 round-trip of %#x yielded %#x", u32, got)
	}

	fb.Seek(0)
	u64 := uint64(0x55AA99EE11223344)
	writeU64(fb, u64)
	fb.Seek(0)
	if got := readU64(fb); got != u64 {
		t.Errorf("u64 round-trip of %#x yielded %#x", u64, got)
	}
}

func TestScalarsAreLittleEndian(t *testing.T) {
	fb := streambuf.NewFixedBuffer(4)
	writeU32(fb, 0x04030201)
	bts := fb.Bytes()
	for j, want := range []byte{1, 2, 3, 4} {
		if bts[j] != want {
			t.Errorf("byte %v: expected %v, got %v", j, want, bts[j])
		}
	}
}

func TestVarstringRoundtrip(t *testing.T) {
	tests := []string{
		"",
		"hello_world",
		"not_compressed",
		strings.Repeat("a", 51),   // short and repetitive, LZ4 territory
		strings.Repeat("xy", 4096), // over the cutoff, ZSTD territory
		"ümläuts and 世界",
	}
	for _, s := range tests {
		fb := streambuf.NewFixedBuffer(len(s) + 64)
		writeVarstring(fb, s)
		encoded := fb.Pos()

		// the marker is one of the three known ones
		switch m := fb.Bytes()[0]; m {
		case column.CompressionNone, column.CompressionLZ4, column.CompressionZSTD:
		default:
			t.Errorf("unexpected compression marker 0x%02x for %q", m, s)
		}
		// a compressed encoding is only kept when it actually saves bytes
		if fb.Bytes()[0] != column.CompressionNone && encoded >= len(s)+2 {
			t.Errorf("compressed encoding of %d bytes took %d bytes", len(s), encoded)
		}

		fb.Seek(0)
		got, err := readVarstring(fb)
		if err != nil {
			t.Fatalf("reading back %q: %v", s, err)
		}
		if got != s {
			t.Errorf("varstring round-trip mangled %q into %q", s, got)
		}
	}
}

func TestVarstringIncompressibleStaysRaw(t *testing.T) {
	// 14 bytes with no repetition - LZ4 cannot win, the encoder must
	// fall back to the raw form
	s := "not_compressed"
	fb := streambuf.NewFixedBuffer(64)
	writeVarstring(fb, s)
	if fb.Bytes()[0] != column.CompressionNone {
		t.Fatalf("expected marker 0x00, got 0x%02x", fb.Bytes()[0])
	}
	if fb.Pos() != len(s)+2 {
		t.Errorf("raw encoding of %d bytes should take %d, got %v", len(s), len(s)+2, fb.Pos())
	}
}

func TestVarstringUnknownMarker(t *testing.T) {
	// 'B' was the legacy brotli marker; the live codec rejects it
	fb := streambuf.NewFixedBuffer(16)
	fb.WriteByte('B')
	writeUvarint(fb, 3)
	fb.WriteByte(1)
	fb.WriteByte(2)
	fb.WriteByte(3)
	fb.Seek(0)
	if _, err := readVarstring(fb); err == nil {
		t.Error("expected an unknown marker to fail the read")
	}
}

func TestVarstringBadUTF8(t *testing.T) {
	fb := streambuf.NewFixedBuffer(16)
	fb.WriteByte(column.CompressionNone)
	writeUvarint(fb, 2)
	fb.WriteByte(0xff)
	fb.WriteByte(0xfe)
	fb.Seek(0)
	_, err := readVarstring(fb)
	if err != errBadUTF8 {
		t.Errorf("expected errBadUTF8, got %v", err)
	}
}

func FuzzVarintRoundtrip(f *testing.F) {
	f.Add(uint64(0))
	f.Add(uint64(0x17F))
	f.Add(uint64(math.MaxUint64))
	f.Fuzz(func(t *testing.T, v uint64) {
		fb := streambuf.NewFixedBuffer(16)
		writeUvarint(fb, v)
		fb.Seek(0)
		if got := readUvarint(fb); got != v {
			t.Fatalf("varint round-trip of %v yielded %v", v, got)
		}
	})
}

func FuzzVarstringRoundtrip(f *testing.F) {
	f.Add("hello_world")
	f.Add(strings.Repeat("a", 5000))
	f.Fuzz(func(t *testing.T, s string) {
		fb := streambuf.NewFixedBuffer(len(s) + 128)
		writeVarstring(fb, s)
		fb.Seek(0)
		got, err := readVarstring(fb)
		if err != nil {
			// the fuzzer feeds arbitrary (possibly invalid) strings;
			// only valid UTF-8 has to round-trip
			t.Skip()
		}
		if got != s {
			t.Fatalf("varstring round-trip mangled %q into %q", s, got)
		}
	})
}
