// Package engine fronts the planning and execution pipeline: AST in, lazy
// row sequence out.
package engine

import (
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/HuichuanLI/play-with-data-base/ast"
	"github.com/HuichuanLI/play-with-data-base/executor"
	"github.com/HuichuanLI/play-with-data-base/optimizer"
	"github.com/HuichuanLI/play-with-data-base/plan"
	"github.com/HuichuanLI/play-with-data-base/storage"
)

// Engine plans and executes select statements against one catalog.
type Engine struct {
	cat            storage.Catalog
	opt            *optimizer.Optimizer
	logger         log.Logger
	spillThreshold int64
}

type Option func(*Engine)

func WithLogger(logger log.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithSortSpillThreshold forwards the external-sort threshold to the
// optimizer.
func WithSortSpillThreshold(rows int64) Option {
	return func(e *Engine) { e.spillThreshold = rows }
}

func New(cat storage.Catalog, opts ...Option) *Engine {
	e := &Engine{cat: cat, logger: log.NewNopLogger(), spillThreshold: -1}
	for _, opt := range opts {
		opt(e)
	}
	optOpts := []optimizer.Option{optimizer.WithLogger(e.logger)}
	if e.spillThreshold >= 0 {
		optOpts = append(optOpts, optimizer.WithSortSpillThreshold(e.spillThreshold))
	}
	e.opt = optimizer.New(cat, optOpts...)
	return e
}

// Query builds, optimizes and opens a select statement, returning the lazy
// result rows. The logical tree is discarded once the physical tree exists;
// each call produces a fresh single-use physical tree.
func (e *Engine) Query(stmt *ast.SelectStmt) (*executor.ResultSet, error) {
	physical, err := e.Plan(stmt)
	if err != nil {
		return nil, err
	}
	return executor.NewResultSet(physical)
}

// Plan runs the planning pipeline without executing.
func (e *Engine) Plan(stmt *ast.SelectStmt) (executor.PhysicalPlan, error) {
	logical, err := plan.Build(stmt, e.cat)
	if err != nil {
		level.Error(e.logger).Log("msg", "planning failed", "err", err)
		return nil, err
	}
	physical, err := e.opt.Optimize(logical)
	if err != nil {
		level.Error(e.logger).Log("msg", "optimization failed", "err", err)
		return nil, err
	}
	level.Debug(e.logger).Log("msg", "query planned", "plan", physical.String())
	return physical, nil
}

// Explain renders the physical plan a statement would execute as.
func (e *Engine) Explain(stmt *ast.SelectStmt) (string, error) {
	physical, err := e.Plan(stmt)
	if err != nil {
		return "", err
	}
	return executor.Explain(physical), nil
}
