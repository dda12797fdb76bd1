package expr

import (
	"github.com/flatrel/flatrel/src/column"
)

// Row is the slice of a relation the evaluator needs: positional
// access to the current row's values.
type Row interface {
	Value(i int) column.Value
}

// Operand is either a column reference or a literal.
type Operand interface {
	operand()
}

// Ref reads column Col of the current row.
type Ref struct {
	Col int
}

// Literal is a constant value.
type Literal struct {
	Val column.Value
}

func (Ref) operand()     {}
func (Literal) operand() {}

// Expr is a predicate tree over one row. The variant set is closed.
type Expr interface {
	expr()
}

type Equal struct{ L, R Operand }

type NotEqual struct{ L, R Operand }

type IsNull struct{ L Operand }

type NotNull struct{ L Operand }

type And struct{ L, R Expr }

type Or struct{ L, R Expr }

type Not struct{ L Expr }

func (Equal) expr()    {}
func (NotEqual) expr() {}
func (IsNull) expr()   {}
func (NotNull) expr()  {}
func (And) expr()      {}
func (Or) expr()       {}
func (Not) expr()      {}

func operandValue(row Row, op Operand) column.Value {
	switch t := op.(type) {
	case Ref:
		return row.Value(t.Col)
	case Literal:
		return t.Val
	default:
		panic("unknown operand variant")
	}
}

// Eval decides the predicate for the row currently loaded. Equality
// follows "NULL compares only to itself": any ==/!= with a NULL on
// either side is false, only the IS NULL forms see NULLs. Numeric
// comparison widens u32 to u64; string against numeric is false.
func Eval(row Row, e Expr) bool {
	switch t := e.(type) {
	case Equal:
		return eq(row, t.L, t.R)
	case NotEqual:
		lv, rv := operandValue(row, t.L), operandValue(row, t.R)
		if lv.IsNull() || rv.IsNull() {
			return false
		}
		return !lv.Equal(rv)
	case IsNull:
		return operandValue(row, t.L).IsNull()
	case NotNull:
		return !operandValue(row, t.L).IsNull()
	case And:
		return Eval(row, t.L) && Eval(row, t.R)
	case Or:
		return Eval(row, t.L) || Eval(row, t.R)
	case Not:
		return !Eval(row, t.L)
	default:
		panic("unknown expression variant")
	}
}

func eq(row Row, l, r Operand) bool {
	lv, rv := operandValue(row, l), operandValue(row, r)
	if lv.IsNull() || rv.IsNull() {
		return false
	}
	return lv.Equal(rv)
}
