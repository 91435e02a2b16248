package executor

import (
	"github.com/pkg/errors"

	"github.com/HuichuanLI/play-with-data-base/ast"
	"github.com/HuichuanLI/play-with-data-base/plan"
	"github.com/HuichuanLI/play-with-data-base/storage"
)

// evalFunc is a compiled, row-evaluable form of a planner expression.
type evalFunc func(storage.Row) (storage.Datum, error)

// compileExpr lowers a resolved expression into a closure tree. Aggregate
// calls never reach here, HashAggregate folds them over whole groups.
func compileExpr(e plan.Expr) (evalFunc, error) {
	switch t := e.(type) {
	case *plan.Column:
		index := t.Index
		return func(row storage.Row) (storage.Datum, error) {
			if index >= len(row) {
				return storage.Datum{}, errors.Errorf(
					"column index %d out of range for row of %d values", index, len(row))
			}
			return row[index], nil
		}, nil
	case *plan.Literal:
		value := t.Value
		return func(storage.Row) (storage.Datum, error) {
			return value, nil
		}, nil
	case *plan.Comparison:
		return compileComparison(t)
	case *plan.Arith:
		return compileArith(t)
	case *plan.Logic:
		return compileLogic(t)
	default:
		return nil, errors.Errorf("cannot compile expression %s as a row expression", e)
	}
}

func compileAll(exprs []plan.Expr) ([]evalFunc, error) {
	fns := make([]evalFunc, len(exprs))
	for i, e := range exprs {
		fn, err := compileExpr(e)
		if err != nil {
			return nil, err
		}
		fns[i] = fn
	}
	return fns, nil
}

func compileComparison(c *plan.Comparison) (evalFunc, error) {
	left, err := compileExpr(c.Left)
	if err != nil {
		return nil, err
	}
	right, err := compileExpr(c.Right)
	if err != nil {
		return nil, err
	}
	op := c.Op
	return func(row storage.Row) (storage.Datum, error) {
		l, err := left(row)
		if err != nil {
			return storage.Datum{}, err
		}
		r, err := right(row)
		if err != nil {
			return storage.Datum{}, err
		}
		cmp, err := l.Compare(r)
		if err != nil {
			return storage.Datum{}, err
		}
		var result bool
		switch op {
		case ast.Equal:
			result = cmp == 0
		case ast.NotEqual:
			result = cmp != 0
		case ast.Great:
			result = cmp > 0
		case ast.GreatEqual:
			result = cmp >= 0
		case ast.Less:
			result = cmp < 0
		case ast.LessEqual:
			result = cmp <= 0
		}
		return storage.NewBoolDatum(result), nil
	}, nil
}

func compileArith(a *plan.Arith) (evalFunc, error) {
	left, err := compileExpr(a.Left)
	if err != nil {
		return nil, err
	}
	right, err := compileExpr(a.Right)
	if err != nil {
		return nil, err
	}
	op := a.Op
	return func(row storage.Row) (storage.Datum, error) {
		l, err := left(row)
		if err != nil {
			return storage.Datum{}, err
		}
		r, err := right(row)
		if err != nil {
			return storage.Datum{}, err
		}
		if l.TP == storage.Int && r.TP == storage.Int {
			return intArith(op, l.I, r.I)
		}
		if !l.TP.IsNumeric() || !r.TP.IsNumeric() {
			return storage.Datum{}, errors.Errorf(
				"operator %s requires numeric operands, got %s and %s", op, l.TP, r.TP)
		}
		return floatArith(op, l.AsFloat(), r.AsFloat())
	}, nil
}

func intArith(op ast.Op, l, r int64) (storage.Datum, error) {
	switch op {
	case ast.Add:
		return storage.NewIntDatum(l + r), nil
	case ast.Minus:
		return storage.NewIntDatum(l - r), nil
	case ast.Mul:
		return storage.NewIntDatum(l * r), nil
	case ast.Divide:
		if r == 0 {
			return storage.Datum{}, errors.New("division by zero")
		}
		return storage.NewIntDatum(l / r), nil
	case ast.Mod:
		if r == 0 {
			return storage.Datum{}, errors.New("division by zero")
		}
		return storage.NewIntDatum(l % r), nil
	default:
		return storage.Datum{}, errors.Errorf("unknown arithmetic operator %s", op)
	}
}

func floatArith(op ast.Op, l, r float64) (storage.Datum, error) {
	switch op {
	case ast.Add:
		return storage.NewFloatDatum(l + r), nil
	case ast.Minus:
		return storage.NewFloatDatum(l - r), nil
	case ast.Mul:
		return storage.NewFloatDatum(l * r), nil
	case ast.Divide:
		if r == 0 {
			return storage.Datum{}, errors.New("division by zero")
		}
		return storage.NewFloatDatum(l / r), nil
	default:
		return storage.Datum{}, errors.Errorf("unknown arithmetic operator %s", op)
	}
}

func compileLogic(l *plan.Logic) (evalFunc, error) {
	left, err := compileExpr(l.Left)
	if err != nil {
		return nil, err
	}
	right, err := compileExpr(l.Right)
	if err != nil {
		return nil, err
	}
	op := l.Op
	return func(row storage.Row) (storage.Datum, error) {
		lv, err := left(row)
		if err != nil {
			return storage.Datum{}, err
		}
		if lv.TP != storage.Bool {
			return storage.Datum{}, errors.Errorf("operator %s requires bool operands, got %s", op, lv.TP)
		}
		// Short circuit.
		if op == ast.And && !lv.B {
			return storage.NewBoolDatum(false), nil
		}
		if op == ast.Or && lv.B {
			return storage.NewBoolDatum(true), nil
		}
		rv, err := right(row)
		if err != nil {
			return storage.Datum{}, err
		}
		if rv.TP != storage.Bool {
			return storage.Datum{}, errors.Errorf("operator %s requires bool operands, got %s", op, rv.TP)
		}
		return storage.NewBoolDatum(rv.B), nil
	}, nil
}
