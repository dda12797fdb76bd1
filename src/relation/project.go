package relation

import (
	"errors"
	"fmt"

	"github.com/flatrel/flatrel/src/column"
)

var ErrUnknownColumn = errors.New("unknown column")

// Projection remaps columns of its child by position. The output arity
// is the length of the column list, not the child's; the same child
// column may appear more than once.
type Projection struct {
	relation Relation
	colmap   []int
}

// NewProjection binds the named columns against the child's schema
// (first match wins for duplicate names). An unknown name fails here,
// at build time - a half-bound projection is useless.
func NewProjection(rel Relation, cols []string) (*Projection, error) {
	colmap := make([]int, len(cols))
	for j, name := range cols {
		found := false
		for i := 0; i < rel.Length(); i++ {
			if rel.Name(i) == name {
				colmap[j] = i
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
		}
	}
	return &Projection{relation: rel, colmap: colmap}, nil
}

func (p *Projection) Length() int {
	return len(p.colmap)
}

func (p *Projection) Read() bool {
	return p.relation.Read()
}

func (p *Projection) Name(i int) string {
	return p.relation.Name(p.colmap[i])
}

func (p *Projection) Ctype(i int) column.Type {
	return p.relation.Ctype(p.colmap[i])
}

func (p *Projection) Nullable(i int) bool {
	return p.relation.Nullable(p.colmap[i])
}

func (p *Projection) Value(i int) column.Value {
	return p.relation.Value(p.colmap[i])
}

func (p *Projection) Close() error {
	return p.relation.Close()
}
