package ast

import (
	"fmt"
	"strings"
)

// Expr is an unresolved expression tree as a parser would emit it.
type Expr interface {
	exprNode()
	String() string
}

// Ident is a possibly qualified column reference: "age" or "t1.age".
type Ident struct {
	Name string
}

func (*Ident) exprNode() {}

func (i *Ident) String() string { return i.Name }

// Parts splits a qualified identifier into table qualifier and column name.
func (i *Ident) Parts() (table, column string) {
	if idx := strings.IndexByte(i.Name, '.'); idx >= 0 {
		return i.Name[:idx], i.Name[idx+1:]
	}
	return "", i.Name
}

type IntLit struct{ Value int64 }

func (*IntLit) exprNode() {}

func (l *IntLit) String() string { return fmt.Sprintf("%d", l.Value) }

type FloatLit struct{ Value float64 }

func (*FloatLit) exprNode() {}

func (l *FloatLit) String() string { return fmt.Sprintf("%g", l.Value) }

type StringLit struct{ Value string }

func (*StringLit) exprNode() {}

func (l *StringLit) String() string { return fmt.Sprintf("'%s'", l.Value) }

type BoolLit struct{ Value bool }

func (*BoolLit) exprNode() {}

func (l *BoolLit) String() string { return fmt.Sprintf("%t", l.Value) }

type Op byte

const (
	Add Op = iota
	Minus
	Mul
	Divide
	Mod
	Equal
	NotEqual
	Great
	GreatEqual
	Less
	LessEqual
	And
	Or
)

func (op Op) String() string {
	switch op {
	case Add:
		return "+"
	case Minus:
		return "-"
	case Mul:
		return "*"
	case Divide:
		return "/"
	case Mod:
		return "%"
	case Equal:
		return "="
	case NotEqual:
		return "!="
	case Great:
		return ">"
	case GreatEqual:
		return ">="
	case Less:
		return "<"
	case LessEqual:
		return "<="
	case And:
		return "and"
	case Or:
		return "or"
	default:
		return "?"
	}
}

// BinaryExpr applies Op to two sub expressions.
type BinaryExpr struct {
	Op    Op
	Left  Expr
	Right Expr
}

func (*BinaryExpr) exprNode() {}

func (b *BinaryExpr) String() string {
	return fmt.Sprintf("%s %s %s", b.Left, b.Op, b.Right)
}

// FuncCall is a function application, count/sum/min/max/avg in this engine.
// Star marks count(*).
type FuncCall struct {
	Name string
	Args []Expr
	Star bool
}

func (*FuncCall) exprNode() {}

func (f *FuncCall) String() string {
	if f.Star {
		return fmt.Sprintf("%s(*)", f.Name)
	}
	args := make([]string, len(f.Args))
	for i, arg := range f.Args {
		args[i] = arg.String()
	}
	return fmt.Sprintf("%s(%s)", f.Name, strings.Join(args, ", "))
}
