package optimizer

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HuichuanLI/play-with-data-base/ast"
	"github.com/HuichuanLI/play-with-data-base/executor"
	"github.com/HuichuanLI/play-with-data-base/plan"
	"github.com/HuichuanLI/play-with-data-base/storage"
)

// newTestCatalog seeds users with 6 rows and orders with 2 so the planner
// has real row counts to estimate against.
func newTestCatalog(t *testing.T) *storage.MemStorage {
	t.Helper()
	mem := storage.NewMemStorage()
	require.Nil(t, mem.CreateTable("users", storage.NewSchema(
		storage.Field{Name: "id", TP: storage.Int},
		storage.Field{Name: "name", TP: storage.String},
		storage.Field{Name: "age", TP: storage.Int},
	)))
	require.Nil(t, mem.CreateTable("orders", storage.NewSchema(
		storage.Field{Name: "id", TP: storage.Int},
		storage.Field{Name: "uid", TP: storage.Int},
		storage.Field{Name: "amount", TP: storage.Float},
	)))
	for i := int64(0); i < 6; i++ {
		require.Nil(t, mem.Insert("users", storage.Row{
			storage.NewIntDatum(i),
			storage.NewStringDatum(fmt.Sprintf("u%d", i)),
			storage.NewIntDatum(20 + i),
		}))
	}
	for i := int64(0); i < 2; i++ {
		require.Nil(t, mem.Insert("orders", storage.Row{
			storage.NewIntDatum(i),
			storage.NewIntDatum(i),
			storage.NewFloatDatum(float64(i) * 9.5),
		}))
	}
	return mem
}

// unknownRowsCatalog hides all row statistics.
type unknownRowsCatalog struct {
	*storage.MemStorage
}

func (unknownRowsCatalog) EstimatedRowCount(string) int64 { return storage.RowCountUnknown }

func ident(name string) *ast.Ident { return &ast.Ident{Name: name} }

// joinKey returns the equi-join column each test table actually has:
// orders carries the foreign key uid, users joins on id.
func joinKey(table string) string {
	if table == "orders" {
		return table + ".uid"
	}
	return table + ".id"
}

func joinStmt(left, right string) *ast.SelectStmt {
	return &ast.SelectStmt{
		From: &ast.JoinClause{
			Tp:    ast.InnerJoin,
			Left:  &ast.TableName{Name: left},
			Right: &ast.TableName{Name: right},
			On: &ast.BinaryExpr{Op: ast.Equal,
				Left:  ident(joinKey(left)),
				Right: ident(joinKey(right))},
		},
	}
}

func mustLogical(t *testing.T, stmt *ast.SelectStmt, cat storage.Catalog) plan.LogicalPlan {
	t.Helper()
	logical, err := plan.Build(stmt, cat)
	require.Nil(t, err)
	return logical
}

func TestOptimizeDeterministic(t *testing.T) {
	cat := newTestCatalog(t)
	stmt := joinStmt("users", "orders")
	stmt.Where = &ast.BinaryExpr{Op: ast.Great, Left: ident("users.age"), Right: &ast.IntLit{Value: 21}}
	stmt.OrderBy = []ast.OrderItem{{Expr: ident("users.age")}}
	stmt.Limit = &ast.LimitClause{Count: 3}

	opt := New(cat)
	first, err := opt.Optimize(mustLogical(t, stmt, cat))
	require.Nil(t, err)
	second, err := opt.Optimize(mustLogical(t, stmt, cat))
	require.Nil(t, err)
	assert.Equal(t, executor.Explain(first), executor.Explain(second))
}

func TestOptimizeIsomorphic(t *testing.T) {
	cat := newTestCatalog(t)
	stmt := joinStmt("users", "orders")
	stmt.Where = &ast.BinaryExpr{Op: ast.Great, Left: ident("users.age"), Right: &ast.IntLit{Value: 21}}

	logical := mustLogical(t, stmt, cat)
	physical, err := New(cat).Optimize(logical)
	require.Nil(t, err)

	var walk func(l plan.LogicalPlan, p executor.PhysicalPlan)
	walk = func(l plan.LogicalPlan, p executor.PhysicalPlan) {
		assert.True(t, l.Schema().Equal(p.Schema()), "schema mismatch at %s vs %s", l, p)
		require.Equal(t, len(l.Children()), len(p.Children()))
		for i, lc := range l.Children() {
			walk(lc, p.Children()[i])
		}
	}
	walk(logical, physical)
}

func TestHashJoinBuildSide(t *testing.T) {
	cat := newTestCatalog(t)
	opt := New(cat)

	// orders (2 rows) is smaller than users (6 rows), so it builds when on
	// the right.
	physical, err := opt.Optimize(mustLogical(t, joinStmt("users", "orders"), cat))
	require.Nil(t, err)
	join, ok := physical.Children()[0].(*executor.HashJoin)
	require.True(t, ok)
	assert.True(t, join.BuildRight)
	assert.Equal(t, int64(6), join.EstimatedRows())

	// With users on the right the left side is already the smaller one.
	physical, err = opt.Optimize(mustLogical(t, joinStmt("orders", "users"), cat))
	require.Nil(t, err)
	join = physical.Children()[0].(*executor.HashJoin)
	assert.False(t, join.BuildRight)

	// Unknown statistics default to building the left side.
	unknown := unknownRowsCatalog{cat}
	physical, err = New(unknown).Optimize(mustLogical(t, joinStmt("users", "orders"), unknown))
	require.Nil(t, err)
	join = physical.Children()[0].(*executor.HashJoin)
	assert.False(t, join.BuildRight)
	assert.Equal(t, storage.RowCountUnknown, join.EstimatedRows())
}

func TestNonEquiJoinUnsupported(t *testing.T) {
	cat := newTestCatalog(t)
	stmt := joinStmt("users", "orders")
	stmt.From.(*ast.JoinClause).On = &ast.BinaryExpr{Op: ast.Great,
		Left: ident("users.id"), Right: ident("orders.uid")}

	_, err := New(cat).Optimize(mustLogical(t, stmt, cat))
	assert.True(t, errors.Is(err, ErrUnsupportedJoin))
}

func TestOuterJoinUnsupported(t *testing.T) {
	cat := newTestCatalog(t)
	stmt := joinStmt("users", "orders")
	stmt.From.(*ast.JoinClause).Tp = ast.LeftOuterJoin

	_, err := New(cat).Optimize(mustLogical(t, stmt, cat))
	assert.True(t, errors.Is(err, ErrUnsupportedJoin))
}

func TestFilterRowEstimate(t *testing.T) {
	cat := newTestCatalog(t)
	stmt := &ast.SelectStmt{
		From:  &ast.TableName{Name: "users"},
		Where: &ast.BinaryExpr{Op: ast.Great, Left: ident("age"), Right: &ast.IntLit{Value: 21}},
	}
	physical, err := New(cat).Optimize(mustLogical(t, stmt, cat))
	require.Nil(t, err)

	filter, ok := physical.Children()[0].(*executor.FilterExec)
	require.True(t, ok)
	// 6 scanned rows at 1/3 selectivity.
	assert.Equal(t, int64(2), filter.EstimatedRows())

	scan, ok := filter.Children()[0].(*executor.TableScan)
	require.True(t, ok)
	assert.Equal(t, int64(6), scan.EstimatedRows())
}

func TestLimitRowEstimate(t *testing.T) {
	cat := newTestCatalog(t)
	stmt := &ast.SelectStmt{
		From:  &ast.TableName{Name: "users"},
		Limit: &ast.LimitClause{Count: 3},
	}
	physical, err := New(cat).Optimize(mustLogical(t, stmt, cat))
	require.Nil(t, err)
	limit, ok := physical.(*executor.LimitExec)
	require.True(t, ok)
	assert.Equal(t, int64(3), limit.EstimatedRows())
}

func TestAggregateRowEstimate(t *testing.T) {
	cat := newTestCatalog(t)
	stmt := &ast.SelectStmt{
		From: &ast.TableName{Name: "users"},
		Fields: []ast.SelectField{
			{Expr: ident("age")},
			{Expr: &ast.FuncCall{Name: "count", Star: true}},
		},
		GroupBy: []ast.Expr{ident("age")},
	}
	physical, err := New(cat).Optimize(mustLogical(t, stmt, cat))
	require.Nil(t, err)
	agg, ok := physical.Children()[0].(*executor.HashAggregate)
	require.True(t, ok)
	// Half the input rows, rounded up.
	assert.Equal(t, int64(3), agg.EstimatedRows())
}

func TestSortSpillThreshold(t *testing.T) {
	cat := newTestCatalog(t)
	stmt := &ast.SelectStmt{
		From:    &ast.TableName{Name: "users"},
		OrderBy: []ast.OrderItem{{Expr: ident("age")}},
	}

	physical, err := New(cat, WithSortSpillThreshold(2)).Optimize(mustLogical(t, stmt, cat))
	require.Nil(t, err)
	sortExec, ok := physical.Children()[0].(*executor.SortExec)
	require.True(t, ok)
	assert.True(t, sortExec.External)

	// Zero disables spilling no matter the estimate.
	physical, err = New(cat, WithSortSpillThreshold(0)).Optimize(mustLogical(t, stmt, cat))
	require.Nil(t, err)
	sortExec = physical.Children()[0].(*executor.SortExec)
	assert.False(t, sortExec.External)

	// Unknown input size stays in memory.
	unknown := unknownRowsCatalog{cat}
	physical, err = New(unknown, WithSortSpillThreshold(2)).Optimize(mustLogical(t, stmt, unknown))
	require.Nil(t, err)
	sortExec = physical.Children()[0].(*executor.SortExec)
	assert.False(t, sortExec.External)
}
