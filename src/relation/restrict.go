package relation

import (
	"github.com/flatrel/flatrel/src/column"
	"github.com/flatrel/flatrel/src/relation/expr"
)

// Restriction filters its child through a predicate: Read pulls until
// the predicate holds for the current row.
type Restriction struct {
	relation Relation
	e        expr.Expr
}

func NewRestriction(rel Relation, e expr.Expr) *Restriction {
	return &Restriction{relation: rel, e: e}
}

func (r *Restriction) Length() int {
	return r.relation.Length()
}

func (r *Restriction) Read() bool {
	for r.relation.Read() {
		if expr.Eval(r.relation, r.e) {
			return true
		}
	}
	return false
}

func (r *Restriction) Name(i int) string {
	return r.relation.Name(i)
}

func (r *Restriction) Ctype(i int) column.Type {
	return r.relation.Ctype(i)
}

func (r *Restriction) Nullable(i int) bool {
	return r.relation.Nullable(i)
}

func (r *Restriction) Value(i int) column.Value {
	return r.relation.Value(i)
}

func (r *Restriction) Close() error {
	return r.relation.Close()
}
