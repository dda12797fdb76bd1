package relation

import (
	"log"

	"github.com/flatrel/flatrel/src/column"
)

// ConcatRelation chains child relations in order: all rows of the
// first child, then all rows of the second, and so on. The output
// schema is the first child's; every later child must match it in
// arity, column names and types. A nullability mismatch is only worth
// a warning - the rows still decode fine.
type ConcatRelation struct {
	relations []Relation
	current   int
}

func NewConcat() *ConcatRelation {
	return &ConcatRelation{}
}

func (cr *ConcatRelation) Size() int {
	return len(cr.relations)
}

// Add appends a child, reporting whether its schema is compatible with
// the first child's. Incompatible children are not added.
func (cr *ConcatRelation) Add(rel Relation) bool {
	if len(cr.relations) > 0 {
		first := cr.relations[0]
		if first.Length() != rel.Length() {
			log.Printf("union: schema arities differ, %d vs %d", first.Length(), rel.Length())
			return false
		}
		for i := 0; i < rel.Length(); i++ {
			if first.Name(i) != rel.Name(i) {
				log.Printf("union: column %d name differs, %q vs %q", i, first.Name(i), rel.Name(i))
				return false
			}
			if first.Ctype(i) != rel.Ctype(i) {
				log.Printf("union: column %d type differs, %v vs %v", i, first.Ctype(i), rel.Ctype(i))
				return false
			}
			if first.Nullable(i) != rel.Nullable(i) {
				log.Printf("union: column %d nullability differs, %v vs %v", i, first.Nullable(i), rel.Nullable(i))
			}
		}
	}
	cr.relations = append(cr.relations, rel)
	return true
}

// Length panics on an empty concat - there is no schema to speak of.
func (cr *ConcatRelation) Length() int {
	if len(cr.relations) == 0 {
		panic("concat relation has no children")
	}
	return cr.relations[0].Length()
}

func (cr *ConcatRelation) Read() bool {
	for cr.current < len(cr.relations) {
		if cr.relations[cr.current].Read() {
			return true
		}
		cr.current++
	}
	return false
}

func (cr *ConcatRelation) active() Relation {
	if cr.current >= len(cr.relations) {
		panic("concat relation accessed past its last child")
	}
	return cr.relations[cr.current]
}

func (cr *ConcatRelation) Name(i int) string {
	return cr.active().Name(i)
}

func (cr *ConcatRelation) Ctype(i int) column.Type {
	return cr.active().Ctype(i)
}

func (cr *ConcatRelation) Nullable(i int) bool {
	return cr.active().Nullable(i)
}

func (cr *ConcatRelation) Value(i int) column.Value {
	return cr.active().Value(i)
}

func (cr *ConcatRelation) Close() error {
	var firstErr error
	for _, rel := range cr.relations {
		if err := rel.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
