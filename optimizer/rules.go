package optimizer

import (
	"github.com/HuichuanLI/play-with-data-base/ast"
	"github.com/HuichuanLI/play-with-data-base/executor"
	"github.com/HuichuanLI/play-with-data-base/plan"
	"github.com/HuichuanLI/play-with-data-base/storage"
)

// filterSelectivity is the fraction of rows assumed to survive a filter
// when no statistics say better.
const filterSelectivity = 3

type scanRule struct{}

func (scanRule) Name() string { return "scan_to_table_scan" }

func (scanRule) Match(node plan.LogicalPlan, _ []executor.PhysicalPlan) bool {
	_, ok := node.(*plan.Scan)
	return ok
}

func (scanRule) Apply(ctx *Context, node plan.LogicalPlan, _ []executor.PhysicalPlan) (executor.PhysicalPlan, error) {
	scan := node.(*plan.Scan)
	rows := ctx.Catalog.EstimatedRowCount(scan.Table)
	return executor.NewTableScan(scan.Table, scan.Schema(), ctx.Catalog, rows), nil
}

type filterRule struct{}

func (filterRule) Name() string { return "filter_to_filter_exec" }

func (filterRule) Match(node plan.LogicalPlan, _ []executor.PhysicalPlan) bool {
	_, ok := node.(*plan.Filter)
	return ok
}

func (filterRule) Apply(_ *Context, node plan.LogicalPlan, children []executor.PhysicalPlan) (executor.PhysicalPlan, error) {
	filter := node.(*plan.Filter)
	rows := children[0].EstimatedRows()
	if rows > 0 {
		rows /= filterSelectivity
		if rows == 0 {
			rows = 1
		}
	}
	return executor.NewFilterExec(filter.Predicate, children[0], rows)
}

type projectRule struct{}

func (projectRule) Name() string { return "project_to_project_exec" }

func (projectRule) Match(node plan.LogicalPlan, _ []executor.PhysicalPlan) bool {
	_, ok := node.(*plan.Project)
	return ok
}

func (projectRule) Apply(_ *Context, node plan.LogicalPlan, children []executor.PhysicalPlan) (executor.PhysicalPlan, error) {
	project := node.(*plan.Project)
	return executor.NewProjectExec(project.Exprs, project.Schema(), children[0])
}

type hashAggregateRule struct{}

func (hashAggregateRule) Name() string { return "group_aggregate_to_hash_aggregate" }

func (hashAggregateRule) Match(node plan.LogicalPlan, _ []executor.PhysicalPlan) bool {
	group, ok := node.(*plan.GroupAggregate)
	if !ok {
		return false
	}
	for _, key := range group.Keys {
		if !hashableType(key.Type()) {
			return false
		}
	}
	return true
}

func (hashAggregateRule) Apply(_ *Context, node plan.LogicalPlan, children []executor.PhysicalPlan) (executor.PhysicalPlan, error) {
	group := node.(*plan.GroupAggregate)
	rows := children[0].EstimatedRows()
	if rows > 0 {
		rows = (rows + 1) / 2
	}
	return executor.NewHashAggregate(group.Keys, group.Aggs, group.Schema(), children[0], rows)
}

func hashableType(tp storage.FieldTP) bool {
	switch tp {
	case storage.Int, storage.Float, storage.String, storage.Bool:
		return true
	default:
		return false
	}
}

type hashJoinRule struct{}

func (hashJoinRule) Name() string { return "equi_join_to_hash_join" }

func (hashJoinRule) Match(node plan.LogicalPlan, _ []executor.PhysicalPlan) bool {
	join, ok := node.(*plan.Join)
	if !ok || join.Tp != ast.InnerJoin {
		return false
	}
	_, _, ok = extractEquiKeys(join)
	return ok
}

func (hashJoinRule) Apply(_ *Context, node plan.LogicalPlan, children []executor.PhysicalPlan) (executor.PhysicalPlan, error) {
	join := node.(*plan.Join)
	leftKeys, rightKeys, _ := extractEquiKeys(join)
	leftRows := children[0].EstimatedRows()
	rightRows := children[1].EstimatedRows()
	// Build the smaller input; unknown or equal estimates default to the
	// left side.
	buildRight := leftRows >= 0 && rightRows >= 0 && rightRows < leftRows
	rows := leftRows
	if rightRows > rows {
		rows = rightRows
	}
	if leftRows < 0 || rightRows < 0 {
		rows = storage.RowCountUnknown
	}
	return executor.NewHashJoin(children[0], children[1], leftKeys, rightKeys,
		buildRight, join.Schema(), rows)
}

// extractEquiKeys accepts only a conjunction of equality comparisons, each
// between one left column and one right column. Right-side keys are rebased
// to the right child's schema.
func extractEquiKeys(join *plan.Join) (leftKeys, rightKeys []plan.Expr, ok bool) {
	if join.Condition == nil {
		return nil, nil, false
	}
	numLeft := join.Left.Schema().NumFields()
	var conjuncts []plan.Expr
	collectConjuncts(join.Condition, &conjuncts)
	for _, conjunct := range conjuncts {
		cmp, isCmp := conjunct.(*plan.Comparison)
		if !isCmp || cmp.Op != ast.Equal {
			return nil, nil, false
		}
		leftCol, isLeftCol := cmp.Left.(*plan.Column)
		rightCol, isRightCol := cmp.Right.(*plan.Column)
		if !isLeftCol || !isRightCol {
			return nil, nil, false
		}
		if rightCol.Index < leftCol.Index {
			leftCol, rightCol = rightCol, leftCol
		}
		if leftCol.Index >= numLeft || rightCol.Index < numLeft {
			// Both columns on one side is a filter, not a join key.
			return nil, nil, false
		}
		leftKeys = append(leftKeys, &plan.Column{Index: leftCol.Index, Field: leftCol.Field})
		rightKeys = append(rightKeys, &plan.Column{Index: rightCol.Index - numLeft, Field: rightCol.Field})
	}
	return leftKeys, rightKeys, len(leftKeys) > 0
}

func collectConjuncts(e plan.Expr, out *[]plan.Expr) {
	if logic, ok := e.(*plan.Logic); ok && logic.Op == ast.And {
		collectConjuncts(logic.Left, out)
		collectConjuncts(logic.Right, out)
		return
	}
	*out = append(*out, e)
}

type sortRule struct{}

func (sortRule) Name() string { return "sort_to_sort_exec" }

func (sortRule) Match(node plan.LogicalPlan, _ []executor.PhysicalPlan) bool {
	_, ok := node.(*plan.Sort)
	return ok
}

func (sortRule) Apply(ctx *Context, node plan.LogicalPlan, children []executor.PhysicalPlan) (executor.PhysicalPlan, error) {
	sortNode := node.(*plan.Sort)
	rows := children[0].EstimatedRows()
	external := rows >= 0 && ctx.SortSpillThreshold > 0 && rows >= ctx.SortSpillThreshold
	return executor.NewSortExec(sortNode.Keys, external, sortNode.Schema(), children[0], rows)
}

type limitRule struct{}

func (limitRule) Name() string { return "limit_to_limit_exec" }

func (limitRule) Match(node plan.LogicalPlan, _ []executor.PhysicalPlan) bool {
	_, ok := node.(*plan.Limit)
	return ok
}

func (limitRule) Apply(_ *Context, node plan.LogicalPlan, children []executor.PhysicalPlan) (executor.PhysicalPlan, error) {
	limit := node.(*plan.Limit)
	rows := children[0].EstimatedRows()
	if rows < 0 || rows > limit.Count {
		rows = limit.Count
	}
	return executor.NewLimitExec(limit.Count, limit.Offset, children[0], rows), nil
}
