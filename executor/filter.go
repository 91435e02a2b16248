package executor

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/HuichuanLI/play-with-data-base/plan"
	"github.com/HuichuanLI/play-with-data-base/storage"
)

// FilterExec pulls from its child and discards rows failing the predicate.
type FilterExec struct {
	Predicate plan.Expr

	pred   evalFunc
	child  PhysicalPlan
	rows   int64
	closed bool
}

func NewFilterExec(predicate plan.Expr, child PhysicalPlan, rows int64) (*FilterExec, error) {
	pred, err := compileExpr(predicate)
	if err != nil {
		return nil, err
	}
	return &FilterExec{Predicate: predicate, pred: pred, child: child, rows: rows}, nil
}

func (f *FilterExec) Schema() storage.Schema { return f.child.Schema() }

func (f *FilterExec) Children() []PhysicalPlan { return []PhysicalPlan{f.child} }

func (f *FilterExec) EstimatedRows() int64 { return f.rows }

func (f *FilterExec) String() string {
	return fmt.Sprintf("FilterExec(%s)", f.Predicate)
}

func (f *FilterExec) Open() error {
	return f.child.Open()
}

func (f *FilterExec) Next() (storage.Row, error) {
	if f.closed {
		return nil, execError(f.String(), errNotOpen)
	}
	for {
		row, err := f.child.Next()
		if err != nil {
			return nil, err
		}
		if row == nil {
			return nil, nil
		}
		passes, err := f.pred(row)
		if err != nil {
			return nil, execError(f.String(), err)
		}
		if passes.TP != storage.Bool {
			return nil, execError(f.String(),
				errors.Errorf("predicate returned %s, not bool", passes.TP))
		}
		if passes.B {
			return row, nil
		}
	}
}

func (f *FilterExec) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	return f.child.Close()
}
