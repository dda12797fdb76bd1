package codec

import (
	"errors"
	"fmt"
	"os"

	"github.com/flatrel/flatrel/src/column"
	"github.com/flatrel/flatrel/src/streambuf"
)

var ErrRowRejected = errors.New("row rejected: arity, nullability or type mismatch")
var ErrFlushFailed = errors.New("could not flush buffered rows to disk")

// Appender writes rows to a single file. Files are append-only: Create
// starts a fresh file by writing the schema header, OpenAppend re-reads
// the header of an existing file and continues after the last row. The
// schema is never rewritten.
//
// The row under construction is staged with StartRow/SetColumn/EndRow;
// EndRow encodes it through the row codec. Not safe for concurrent
// use - one appender owns its file.
type Appender struct {
	ba      *streambuf.BufferedFileAppender
	schema  column.Schema
	current []column.Value
	staged  bool
}

// Create makes a new file with the given schema.
func Create(path string, schema column.Schema) (*Appender, error) {
	if schema.Len() == 0 {
		return nil, fmt.Errorf("%w: empty schema", ErrSchemaParse)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	ba := streambuf.NewBufferedFileAppender(f)
	WriteSchema(ba, schema)
	return newAppender(ba, schema), nil
}

// OpenAppend opens an existing file for appending. The stored schema
// header determines the arity; appending requires it unchanged.
func OpenAppend(path string) (*Appender, error) {
	rf, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	br := streambuf.NewBufferedFileReader(rf)
	schema, err := ReadSchema(br)
	br.Close()
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return newAppender(streambuf.NewBufferedFileAppender(f), schema), nil
}

func newAppender(ba *streambuf.BufferedFileAppender, schema column.Schema) *Appender {
	return &Appender{
		ba:      ba,
		schema:  schema,
		current: make([]column.Value, schema.Len()),
	}
}

func (a *Appender) Schema() column.Schema {
	return a.schema
}

// StartRow begins staging a new row; all columns reset to NULL.
func (a *Appender) StartRow() {
	for j := range a.current {
		a.current[j] = column.Null()
	}
	a.staged = true
}

// SetColumn stages a value. Out-of-range indices and type mismatches
// are programmer errors and panic.
func (a *Appender) SetColumn(idx int, v column.Value) {
	if !a.staged {
		panic("SetColumn called outside StartRow/EndRow")
	}
	if idx < 0 || idx >= a.schema.Len() {
		panic(fmt.Sprintf("column index %d out of range for arity %d", idx, a.schema.Len()))
	}
	if !v.Compatible(a.schema[idx].Type) {
		panic(fmt.Sprintf("value of kind %v is incompatible with column %q (%v)", v.Kind(), a.schema[idx].Name, a.schema[idx].Type))
	}
	a.current[idx] = v
}

// EndRow encodes the staged row. A nullability violation surfaces as
// ErrRowRejected and leaves the file untouched.
func (a *Appender) EndRow() error {
	if !a.staged {
		panic("EndRow called without StartRow")
	}
	a.staged = false
	if !WriteRow(a.ba, a.schema, a.current) {
		return ErrRowRejected
	}
	return nil
}

// AppendRow encodes a full row in one call, for callers that already
// hold one. Unlike SetColumn it does not panic: an arity, nullability
// or type mismatch is reported as ErrRowRejected and nothing is
// written.
func (a *Appender) AppendRow(values []column.Value) error {
	if !WriteRow(a.ba, a.schema, values) {
		return ErrRowRejected
	}
	return nil
}

func (a *Appender) Flush() bool {
	return a.ba.Flush()
}

// Close flushes and releases the file. A failed flush is reported -
// partial rows may be on disk at that point and no rollback is
// attempted.
func (a *Appender) Close() error {
	ok := a.ba.Flush()
	err := a.ba.Close()
	if !ok {
		return ErrFlushFailed
	}
	return err
}
