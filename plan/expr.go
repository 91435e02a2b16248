package plan

import (
	"fmt"

	"github.com/HuichuanLI/play-with-data-base/ast"
	"github.com/HuichuanLI/play-with-data-base/storage"
)

// Expr is a resolved, typed expression. Column references are bound to
// schema positions during planning, so evaluation never looks names up.
type Expr interface {
	Type() storage.FieldTP
	String() string
	exprNode()
}

// Column is a reference to position Index of the operator's input schema.
type Column struct {
	Index int
	Field storage.Field
}

func (*Column) exprNode() {}

func (c *Column) Type() storage.FieldTP { return c.Field.TP }

func (c *Column) String() string { return c.Field.String() }

// Literal is a constant value.
type Literal struct {
	Value storage.Datum
}

func (*Literal) exprNode() {}

func (l *Literal) Type() storage.FieldTP { return l.Value.TP }

func (l *Literal) String() string {
	if l.Value.TP == storage.String {
		return fmt.Sprintf("'%s'", l.Value.S)
	}
	return l.Value.String()
}

// Comparison is =, !=, <, <=, > or >= over two comparable operands. It
// always evaluates to bool.
type Comparison struct {
	Op    ast.Op
	Left  Expr
	Right Expr
}

func (*Comparison) exprNode() {}

func (c *Comparison) Type() storage.FieldTP { return storage.Bool }

func (c *Comparison) String() string {
	return fmt.Sprintf("%s %s %s", c.Left, c.Op, c.Right)
}

// Arith is +, -, *, / or % over numeric operands.
type Arith struct {
	Op    ast.Op
	Left  Expr
	Right Expr
}

func (*Arith) exprNode() {}

// Type widens to float when either side is float.
func (a *Arith) Type() storage.FieldTP {
	if a.Left.Type() == storage.Float || a.Right.Type() == storage.Float {
		return storage.Float
	}
	return storage.Int
}

func (a *Arith) String() string {
	return fmt.Sprintf("%s %s %s", a.Left, a.Op, a.Right)
}

// Logic is a boolean and/or.
type Logic struct {
	Op    ast.Op
	Left  Expr
	Right Expr
}

func (*Logic) exprNode() {}

func (l *Logic) Type() storage.FieldTP { return storage.Bool }

func (l *Logic) String() string {
	return fmt.Sprintf("%s %s %s", l.Left, l.Op, l.Right)
}

// AggFunc names one of the supported aggregate functions.
type AggFunc byte

const (
	AggCount AggFunc = iota
	AggSum
	AggMin
	AggMax
	AggAvg
)

func (fn AggFunc) String() string {
	switch fn {
	case AggCount:
		return "count"
	case AggSum:
		return "sum"
	case AggMin:
		return "min"
	case AggMax:
		return "max"
	case AggAvg:
		return "avg"
	default:
		return "unknown"
	}
}

// AggCall is an aggregate function application. Arg is nil for count(*).
type AggCall struct {
	Fn   AggFunc
	Arg  Expr
	Star bool
}

func (*AggCall) exprNode() {}

func (a *AggCall) Type() storage.FieldTP {
	switch a.Fn {
	case AggCount:
		return storage.Int
	case AggAvg:
		return storage.Float
	default:
		return a.Arg.Type()
	}
}

func (a *AggCall) String() string {
	if a.Star {
		return fmt.Sprintf("%s(*)", a.Fn)
	}
	return fmt.Sprintf("%s(%s)", a.Fn, a.Arg)
}
