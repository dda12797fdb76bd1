package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/flatrel/flatrel/src/column"
	"github.com/flatrel/flatrel/src/streambuf"
)

var errBadUTF8 = errors.New("string payload is not valid utf-8")
var errDecompression = errors.New("cannot decompress string payload")

// strings below this try LZ4, longer ones ZSTD
const compressionCutoff = 4096

// zstd encoders hold non-trivial state, so we keep one of each around;
// EncodeAll/DecodeAll on a shared instance are safe for concurrent use
var zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(5)))
var zstdDecoder, _ = zstd.NewReader(nil)

func writeU16(b streambuf.AppendStream, v uint16) {
	b.WriteByte(byte(v))
	b.WriteByte(byte(v >> 8))
}

func readU16(b streambuf.ReadStream) uint16 {
	b0 := b.ReadByte()
	b1 := b.ReadByte()
	return uint16(b0) | uint16(b1)<<8
}

func writeU32(b streambuf.AppendStream, v uint32) {
	b.WriteByte(byte(v))
	b.WriteByte(byte(v >> 8))
	b.WriteByte(byte(v >> 16))
	b.WriteByte(byte(v >> 24))
}

func readU32(b streambuf.ReadStream) uint32 {
	b0 := b.ReadByte()
	b1 := b.ReadByte()
	b2 := b.ReadByte()
	b3 := b.ReadByte()
	return uint32(b0) | uint32(b1)<<8 | uint32(b2)<<16 | uint32(b3)<<24
}

func writeU64(b streambuf.AppendStream, v uint64) {
	for j := 0; j < 8; j++ {
		b.WriteByte(byte(v >> (8 * j)))
	}
}

func readU64(b streambuf.ReadStream) uint64 {
	var v uint64
	for j := 0; j < 8; j++ {
		v |= uint64(b.ReadByte()) << (8 * j)
	}
	return v
}

// writeUvarint emits little-endian 7-bit groups with the high bit set
// on every non-terminal byte. Zero still takes one byte.
func writeUvarint(b streambuf.AppendStream, v uint64) {
	for {
		x7 := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			x7 |= 0x80
		}
		b.WriteByte(x7)
		if v == 0 {
			break
		}
	}
}

func readUvarint(b streambuf.ReadStream) uint64 {
	var v uint64
	var bits uint
	for {
		u := b.ReadByte()
		v |= uint64(u&0x7f) << bits
		bits += 7
		if u&0x80 == 0 {
			break
		}
	}
	return v
}

// writeVarstring encodes marker + varint length + payload. The encoder
// tries a compressed form first and keeps it only when strictly
// shorter than the raw bytes - so the reader never has to guess, the
// marker is authoritative.
func writeVarstring(b streambuf.AppendStream, s string) {
	raw := []byte(s)
	marker := column.CompressionNone
	payload := raw

	if compressed, ctype := compress(raw); len(compressed) < len(raw) {
		marker = ctype
		payload = compressed
	}

	b.WriteByte(marker)
	writeUvarint(b, uint64(len(payload)))
	for _, c := range payload {
		b.WriteByte(c)
	}
}

func compress(raw []byte) ([]byte, byte) {
	if len(raw) < compressionCutoff {
		var buf bytes.Buffer
		zw := lz4.NewWriter(&buf)
		if _, err := zw.Write(raw); err != nil {
			return nil, column.CompressionNone
		}
		if err := zw.Close(); err != nil {
			return nil, column.CompressionNone
		}
		return buf.Bytes(), column.CompressionLZ4
	}
	return zstdEncoder.EncodeAll(raw, nil), column.CompressionZSTD
}

// readVarstring decodes a varstring. It always consumes exactly the
// encoded bytes (marker, varint, payload), even when decoding fails -
// group alignment depends on that.
func readVarstring(b streambuf.ReadStream) (string, error) {
	marker := b.ReadByte()
	size := readUvarint(b)
	payload := make([]byte, size)
	for j := range payload {
		payload[j] = b.ReadByte()
	}

	var raw []byte
	switch marker {
	case column.CompressionNone:
		raw = payload
	case column.CompressionLZ4:
		zr := lz4.NewReader(bytes.NewReader(payload))
		decoded, err := io.ReadAll(zr)
		if err != nil {
			return "", fmt.Errorf("%w: lz4: %v", errDecompression, err)
		}
		raw = decoded
	case column.CompressionZSTD:
		decoded, err := zstdDecoder.DecodeAll(payload, nil)
		if err != nil {
			return "", fmt.Errorf("%w: zstd: %v", errDecompression, err)
		}
		raw = decoded
	default:
		return "", fmt.Errorf("%w: unknown compression marker 0x%02x", errDecompression, marker)
	}

	if !utf8.Valid(raw) {
		return "", errBadUTF8
	}
	return string(raw), nil
}
