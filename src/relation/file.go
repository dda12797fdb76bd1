package relation

import (
	"log"

	"github.com/flatrel/flatrel/src/codec"
	"github.com/flatrel/flatrel/src/column"
	"github.com/flatrel/flatrel/src/streambuf"
)

// FileRelation scans one file front to back. The file is mapped whole;
// the schema header is parsed once at open and each Read decodes the
// next row into a buffer sized to the schema's arity.
//
// Recoverable decode results (checksum mismatch, bad UTF-8, failed
// decompression) are logged and skipped - the group framing keeps the
// scan aligned. EOF and truncation end the scan.
type FileRelation struct {
	schema  column.Schema
	m       *streambuf.MmapReader
	current []column.Value
	done    bool
	name    string // used in error reports
}

func OpenFile(path string) (*FileRelation, error) {
	m, err := streambuf.OpenMmapReader(path)
	if err != nil {
		return nil, err
	}
	schema, err := codec.ReadSchema(m)
	if err != nil {
		m.Close()
		return nil, err
	}
	return &FileRelation{
		schema:  schema,
		m:       m,
		current: make([]column.Value, schema.Len()),
		name:    path,
	}, nil
}

func (fr *FileRelation) Length() int {
	return fr.schema.Len()
}

func (fr *FileRelation) Read() bool {
	if fr.done {
		return false
	}
	for {
		res := codec.ReadRow(fr.m, fr.schema, fr.current)
		switch {
		case res == codec.ReadOK:
			return true
		case res.Recoverable():
			log.Printf("%s: skipping row: %v", fr.name, res)
		case res == codec.ReadUnexpectedEOF:
			log.Printf("%s: file truncated mid-row", fr.name)
			fr.done = true
			return false
		default: // clean EOF
			fr.done = true
			return false
		}
	}
}

func (fr *FileRelation) Name(i int) string {
	return fr.schema[i].Name
}

func (fr *FileRelation) Ctype(i int) column.Type {
	return fr.schema[i].Type
}

func (fr *FileRelation) Nullable(i int) bool {
	return fr.schema[i].Nullable
}

func (fr *FileRelation) Value(i int) column.Value {
	if fr.done {
		panic("Value called on an exhausted relation")
	}
	return fr.current[i]
}

func (fr *FileRelation) Close() error {
	return fr.m.Close()
}
