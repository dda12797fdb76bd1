package relation

import (
	"github.com/flatrel/flatrel/src/column"
)

// Relation is the pull iterator every operator implements. A relation
// starts positioned before its first row; Read advances and reports
// whether a row is available. Once Read returns false the relation is
// exhausted for good and Value must not be called.
//
// Values are valid until the next Read or Close - string payloads may
// live in a row buffer owned by the leaf relation.
type Relation interface {
	// Length is the arity of the output schema.
	Length() int
	Read() bool
	Name(i int) string
	Ctype(i int) column.Type
	Nullable(i int) bool
	Value(i int) column.Value
	// Close releases whatever the operator tree holds open (mmaps,
	// file descriptors). Operators delegate to their children.
	Close() error
}

// EmptyRelation is the zero relation: no columns, no rows.
type EmptyRelation struct{}

func (EmptyRelation) Length() int { return 0 }

func (EmptyRelation) Read() bool { return false }

func (EmptyRelation) Name(i int) string { return "null" }

func (EmptyRelation) Ctype(i int) column.Type { return column.TypeString }

func (EmptyRelation) Nullable(i int) bool { return false }

func (EmptyRelation) Value(i int) column.Value { return column.Null() }

func (EmptyRelation) Close() error { return nil }

// Schema reconstructs a relation's output schema from its per-column
// accessors.
func Schema(rel Relation) column.Schema {
	schema := make(column.Schema, rel.Length())
	for j := range schema {
		schema[j] = column.Column{Name: rel.Name(j), Type: rel.Ctype(j), Nullable: rel.Nullable(j)}
	}
	return schema
}
