package executor

import (
	"fmt"
	"strings"

	"github.com/HuichuanLI/play-with-data-base/plan"
	"github.com/HuichuanLI/play-with-data-base/storage"
)

// ProjectExec computes one output column per compiled expression.
type ProjectExec struct {
	Exprs []plan.ProjectExpr

	fns    []evalFunc
	schema storage.Schema
	child  PhysicalPlan
	closed bool
}

func NewProjectExec(exprs []plan.ProjectExpr, schema storage.Schema, child PhysicalPlan) (*ProjectExec, error) {
	fns := make([]evalFunc, len(exprs))
	for i, pe := range exprs {
		fn, err := compileExpr(pe.Expr)
		if err != nil {
			return nil, err
		}
		fns[i] = fn
	}
	return &ProjectExec{Exprs: exprs, fns: fns, schema: schema, child: child}, nil
}

func (p *ProjectExec) Schema() storage.Schema { return p.schema }

func (p *ProjectExec) Children() []PhysicalPlan { return []PhysicalPlan{p.child} }

func (p *ProjectExec) EstimatedRows() int64 { return p.child.EstimatedRows() }

func (p *ProjectExec) String() string {
	parts := make([]string, len(p.schema.Fields))
	for i, f := range p.schema.Fields {
		parts[i] = f.String()
	}
	return fmt.Sprintf("ProjectExec(%s)", strings.Join(parts, ", "))
}

func (p *ProjectExec) Open() error {
	return p.child.Open()
}

func (p *ProjectExec) Next() (storage.Row, error) {
	if p.closed {
		return nil, execError(p.String(), errNotOpen)
	}
	row, err := p.child.Next()
	if err != nil || row == nil {
		return nil, err
	}
	out := make(storage.Row, len(p.fns))
	for i, fn := range p.fns {
		d, err := fn(row)
		if err != nil {
			return nil, execError(p.String(), err)
		}
		out[i] = d
	}
	return out, nil
}

func (p *ProjectExec) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	return p.child.Close()
}
