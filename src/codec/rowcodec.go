package codec

import (
	"errors"
	"fmt"

	"github.com/flatrel/flatrel/src/column"
	"github.com/flatrel/flatrel/src/streambuf"
)

var ErrSchemaParse = errors.New("cannot parse schema header")

// schema header version marker
const versionMarker byte = '2'

// nullable byte in the schema header; anything else reads as
// non-nullable
const nullableMarker byte = 'N'

// ReadResult is what a single row read can come back with. It's a
// closed enum rather than an error because EOF and recovery decisions
// sit on the hot path of every scan.
type ReadResult uint8

const (
	ReadOK ReadResult = iota
	// the stream ended exactly at a row boundary
	ReadEOF
	// the stream ended mid-row
	ReadUnexpectedEOF
	// a group's stored Adler-32 does not match the recomputed one; the
	// group's payload and checksum were fully consumed, so the next
	// group starts at the current position
	ReadChecksumError
	// a string payload decompressed into invalid UTF-8
	ReadBadUTF8
	// an LZ4/ZSTD payload failed to decode, or the marker is unknown
	ReadDecompressionError
)

func (rr ReadResult) String() string {
	return []string{"ok", "eof", "unexpected eof", "checksum error", "bad utf-8", "decompression error"}[rr]
}

// Recoverable reports whether a scan should skip this row and carry
// on. EOF variants terminate the scan instead.
func (rr ReadResult) Recoverable() bool {
	return rr == ReadChecksumError || rr == ReadBadUTF8 || rr == ReadDecompressionError
}

// WriteSchema emits the file header: version marker, column count and
// one (varstring name, type byte, nullable byte) triple per column.
// The header is not checksummed.
func WriteSchema(b streambuf.AppendStream, schema column.Schema) {
	b.WriteByte(versionMarker)
	writeUvarint(b, uint64(schema.Len()))
	for _, col := range schema {
		writeVarstring(b, col.Name)
		b.WriteByte(col.Type.Marker())
		if col.Nullable {
			b.WriteByte(nullableMarker)
		} else {
			b.WriteByte(0)
		}
	}
}

// ReadSchema parses the file header written by WriteSchema.
func ReadSchema(b streambuf.ReadStream) (column.Schema, error) {
	version := b.ReadByte()
	if version != versionMarker {
		return nil, fmt.Errorf("%w: unsupported version marker 0x%02x", ErrSchemaParse, version)
	}
	numColumns := readUvarint(b)
	schema := make(column.Schema, 0, numColumns)
	for j := uint64(0); j < numColumns; j++ {
		name, err := readVarstring(b)
		if err != nil {
			return nil, fmt.Errorf("%w: column %d name: %v", ErrSchemaParse, j, err)
		}
		ctype, ok := column.TypeFromMarker(b.ReadByte())
		if !ok {
			return nil, fmt.Errorf("%w: column %d has an unknown type marker", ErrSchemaParse, j)
		}
		nullable := b.ReadByte() == nullableMarker
		if b.PastEOF() {
			return nil, fmt.Errorf("%w: header truncated at column %d", ErrSchemaParse, j)
		}
		schema = append(schema, column.Column{Name: name, Type: ctype, Nullable: nullable})
	}
	return schema, nil
}

// WriteRow validates and encodes one row. It returns false - and
// writes nothing - when the arity differs from the schema, a
// non-nullable column holds NULL, or a value's type is incompatible
// with its column. Flushing is the caller's business.
//
// Rows are framed in groups of up to 8 columns: a null bitmap byte,
// the non-null field encodings, and a little-endian Adler-32 over the
// group's bytes.
func WriteRow(b streambuf.AppendStream, schema column.Schema, values []column.Value) bool {
	if len(values) != schema.Len() {
		return false
	}
	for j, v := range values {
		if !schema[j].Nullable && v.IsNull() {
			return false
		}
		if !v.Compatible(schema[j].Type) {
			return false
		}
	}

	for i := 0; i < (len(values)+7)/8; i++ {
		ab := streambuf.NewAppendWithAdler(b)

		jmax := minInt(8, len(values)-i*8)
		var nullbyte byte
		for j := 0; j < jmax; j++ {
			if values[i*8+j].IsNull() {
				nullbyte |= 1 << j
			}
		}
		ab.WriteByte(nullbyte)

		for j := 0; j < jmax; j++ {
			v := values[i*8+j]
			switch v.Kind() {
			case column.KindNull:
				// covered by the null bitmap
			case column.KindU32:
				writeU32(ab, v.AsU32())
			case column.KindU64:
				writeU64(ab, v.AsU64())
			case column.KindString:
				writeVarstring(ab, v.AsString())
			}
		}
		// the checksum trails the group and does not cover itself
		writeU32(b, ab.Hash())
	}
	return true
}

// ReadRow decodes one row into values, which must have the schema's
// arity. Group alignment survives recoverable results: by the time a
// checksum mismatch is detected, the group's payload and stored
// checksum have been consumed in full.
func ReadRow(b streambuf.ReadStream, schema column.Schema, values []column.Value) ReadResult {
	if len(values) != schema.Len() {
		panic(fmt.Sprintf("row buffer arity %d does not match schema arity %d", len(values), schema.Len()))
	}

	soft := ReadOK
	for i := 0; i < (schema.Len()+7)/8; i++ {
		rb := streambuf.NewReadWithAdler(b)

		nullbyte := rb.ReadByte()
		if b.PastEOF() {
			if i == 0 {
				return ReadEOF
			}
			return ReadUnexpectedEOF
		}

		jmax := minInt(8, schema.Len()-i*8)
		for j := 0; j < jmax; j++ {
			idx := i*8 + j
			if nullbyte&(1<<j) != 0 {
				values[idx] = column.Null()
				continue
			}
			switch schema[idx].Type {
			case column.TypeU32:
				values[idx] = column.U32(readU32(rb))
			case column.TypeU64:
				values[idx] = column.U64(readU64(rb))
			case column.TypeString:
				s, err := readVarstring(rb)
				switch {
				case err == nil:
					values[idx] = column.String(s)
				case errors.Is(err, errBadUTF8):
					// the payload bytes were consumed, so we can keep
					// decoding the group and let the checksum have the
					// final word
					values[idx] = column.Null()
					if soft == ReadOK {
						soft = ReadBadUTF8
					}
				default:
					values[idx] = column.Null()
					if soft == ReadOK {
						soft = ReadDecompressionError
					}
				}
			default:
				panic(fmt.Sprintf("unknown column type %v in schema", schema[idx].Type))
			}
		}

		computed := rb.Hash()
		stored := readU32(b)
		if b.PastEOF() {
			return ReadUnexpectedEOF
		}
		if computed != stored {
			return ReadChecksumError
		}
	}
	return soft
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
