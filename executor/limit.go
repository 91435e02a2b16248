package executor

import (
	"fmt"

	"github.com/HuichuanLI/play-with-data-base/storage"
)

// LimitExec yields at most Count rows after skipping Offset rows. Once the
// count is reached it signals exhaustion without pulling its child again;
// the child is still closed through Close.
type LimitExec struct {
	Count  int64
	Offset int64

	child    PhysicalPlan
	rows     int64
	skipped  bool
	returned int64
	closed   bool
}

func NewLimitExec(count, offset int64, child PhysicalPlan, rows int64) *LimitExec {
	return &LimitExec{Count: count, Offset: offset, child: child, rows: rows}
}

func (l *LimitExec) Schema() storage.Schema { return l.child.Schema() }

func (l *LimitExec) Children() []PhysicalPlan { return []PhysicalPlan{l.child} }

func (l *LimitExec) EstimatedRows() int64 { return l.rows }

func (l *LimitExec) String() string {
	if l.Offset > 0 {
		return fmt.Sprintf("LimitExec(%d, offset %d)", l.Count, l.Offset)
	}
	return fmt.Sprintf("LimitExec(%d)", l.Count)
}

func (l *LimitExec) Open() error {
	return l.child.Open()
}

func (l *LimitExec) Next() (storage.Row, error) {
	if l.closed {
		return nil, execError(l.String(), errNotOpen)
	}
	if !l.skipped {
		l.skipped = true
		for i := int64(0); i < l.Offset; i++ {
			row, err := l.child.Next()
			if err != nil {
				return nil, err
			}
			if row == nil {
				l.returned = l.Count
				return nil, nil
			}
		}
	}
	if l.returned >= l.Count {
		return nil, nil
	}
	row, err := l.child.Next()
	if err != nil || row == nil {
		return nil, err
	}
	l.returned++
	return row, nil
}

func (l *LimitExec) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	return l.child.Close()
}
