package plan

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/HuichuanLI/play-with-data-base/ast"
	"github.com/HuichuanLI/play-with-data-base/storage"
)

// Build converts a parsed select statement into a logical plan, resolving
// table and column references against the catalog. Tables are resolved
// before columns; columns resolve against the nearest enclosing schema, so
// an ON condition of a nested join sees only that join's inputs. Build
// performs no I/O beyond catalog lookups and returns no partial tree on
// error.
//
// The produced shape, bottom up, is
// Scan -> [Join] -> [Filter] -> [GroupAggregate] -> [Sort] -> Project -> [Limit].
func Build(stmt *ast.SelectStmt, cat storage.Catalog) (LogicalPlan, error) {
	if stmt.From == nil {
		return nil, errors.Wrap(ErrUnresolvedReference, "select has no from clause")
	}
	input, err := buildFrom(stmt.From, cat)
	if err != nil {
		return nil, err
	}
	if stmt.Where != nil {
		pred, err := resolveExpr(stmt.Where, input.Schema(), "where clause")
		if err != nil {
			return nil, err
		}
		if pred.Type() != storage.Bool {
			return nil, errors.Wrapf(ErrTypeMismatch,
				"where predicate %s returns %s, not bool", pred, pred.Type())
		}
		input = &Filter{Predicate: pred, Input: input}
	}

	var projectExprs []ProjectExpr
	if isAggregateQuery(stmt) {
		input, projectExprs, err = buildAggregate(stmt, input)
	} else {
		projectExprs, err = buildProjectExprs(stmt, input.Schema())
	}
	if err != nil {
		return nil, err
	}

	if len(stmt.OrderBy) > 0 {
		keys := make([]SortKey, len(stmt.OrderBy))
		for i, item := range stmt.OrderBy {
			expr, err := resolveExpr(item.Expr, input.Schema(), "order by clause")
			if err != nil {
				return nil, err
			}
			keys[i] = SortKey{Expr: expr, Desc: item.Desc}
		}
		input = &Sort{Keys: keys, Input: input}
	}

	var root LogicalPlan = &Project{Exprs: projectExprs, Input: input}
	if stmt.Limit != nil {
		root = &Limit{Count: stmt.Limit.Count, Offset: stmt.Limit.Offset, Input: root}
	}
	return root, nil
}

func buildFrom(ref ast.TableRef, cat storage.Catalog) (LogicalPlan, error) {
	switch t := ref.(type) {
	case *ast.TableName:
		schema, err := cat.SchemaOf(t.Name)
		if err != nil {
			return nil, errors.Wrapf(ErrUnresolvedReference, "table %s not found", t.Name)
		}
		alias := t.Alias
		if alias == "" {
			alias = t.Name
		}
		// Re-qualify the declared schema under the alias so resolution sees
		// the name the query uses.
		fields := make([]storage.Field, len(schema.Fields))
		for i, f := range schema.Fields {
			f.TableName = alias
			fields[i] = f
		}
		return &Scan{Table: t.Name, Alias: alias, TableSchema: storage.NewSchema(fields...)}, nil
	case *ast.JoinClause:
		left, err := buildFrom(t.Left, cat)
		if err != nil {
			return nil, err
		}
		right, err := buildFrom(t.Right, cat)
		if err != nil {
			return nil, err
		}
		join := &Join{Tp: t.Tp, Left: left, Right: right}
		if t.On != nil {
			cond, err := resolveExpr(t.On, join.Schema(), "join condition")
			if err != nil {
				return nil, err
			}
			if cond.Type() != storage.Bool {
				return nil, errors.Wrapf(ErrTypeMismatch,
					"join condition %s returns %s, not bool", cond, cond.Type())
			}
			join.Condition = cond
		}
		return join, nil
	default:
		return nil, errors.Wrapf(ErrUnresolvedReference, "unknown table reference %T", ref)
	}
}

func isAggregateQuery(stmt *ast.SelectStmt) bool {
	if len(stmt.GroupBy) > 0 {
		return true
	}
	for _, field := range stmt.Fields {
		if containsAggregate(field.Expr) {
			return true
		}
	}
	return false
}

func containsAggregate(e ast.Expr) bool {
	switch t := e.(type) {
	case *ast.FuncCall:
		_, ok := aggFuncByName(t.Name)
		return ok
	case *ast.BinaryExpr:
		return containsAggregate(t.Left) || containsAggregate(t.Right)
	default:
		return false
	}
}

func aggFuncByName(name string) (AggFunc, bool) {
	switch strings.ToLower(name) {
	case "count":
		return AggCount, true
	case "sum":
		return AggSum, true
	case "min":
		return AggMin, true
	case "max":
		return AggMax, true
	case "avg":
		return AggAvg, true
	default:
		return 0, false
	}
}

// buildAggregate assembles the GroupAggregate node and the projection over
// its output. Select items must be either a group key expression or a bare
// aggregate call.
func buildAggregate(stmt *ast.SelectStmt, input LogicalPlan) (LogicalPlan, []ProjectExpr, error) {
	inputSchema := input.Schema()
	keys := make([]Expr, len(stmt.GroupBy))
	for i, keyExpr := range stmt.GroupBy {
		key, err := resolveExpr(keyExpr, inputSchema, "group by clause")
		if err != nil {
			return nil, nil, err
		}
		keys[i] = key
	}
	if len(stmt.Fields) == 0 {
		return nil, nil, errors.Wrap(ErrTypeMismatch,
			"select * cannot be combined with group by or aggregates")
	}

	group := &GroupAggregate{Keys: keys, Input: input}
	type fieldSlot struct {
		keyIndex int // >= 0 when the select item is a group key
		aggIndex int // >= 0 when the select item is an aggregate
		alias    string
	}
	slots := make([]fieldSlot, 0, len(stmt.Fields))
	for _, field := range stmt.Fields {
		if call, ok := field.Expr.(*ast.FuncCall); ok {
			if _, isAgg := aggFuncByName(call.Name); isAgg {
				agg, err := resolveAggCall(call, inputSchema)
				if err != nil {
					return nil, nil, err
				}
				group.Aggs = append(group.Aggs, agg)
				slots = append(slots, fieldSlot{keyIndex: -1, aggIndex: len(group.Aggs) - 1, alias: field.Alias})
				continue
			}
		}
		if containsAggregate(field.Expr) {
			return nil, nil, errors.Wrapf(ErrTypeMismatch,
				"aggregate calls cannot be nested in expression %s", field.Expr)
		}
		expr, err := resolveExpr(field.Expr, inputSchema, "select list")
		if err != nil {
			return nil, nil, err
		}
		keyIndex := -1
		for i, key := range keys {
			if key.String() == expr.String() {
				keyIndex = i
				break
			}
		}
		if keyIndex < 0 {
			return nil, nil, errors.Wrapf(ErrTypeMismatch,
				"%s must appear in the group by clause or inside an aggregate", expr)
		}
		slots = append(slots, fieldSlot{keyIndex: keyIndex, aggIndex: -1, alias: field.Alias})
	}

	// The projection rebinds the select items to positions of the aggregate
	// output schema: group keys first, aggregates after.
	groupSchema := group.Schema()
	projectExprs := make([]ProjectExpr, len(slots))
	for i, slot := range slots {
		pos := slot.keyIndex
		if pos < 0 {
			pos = len(keys) + slot.aggIndex
		}
		projectExprs[i] = ProjectExpr{
			Expr:  &Column{Index: pos, Field: groupSchema.Fields[pos]},
			Alias: slot.alias,
		}
	}
	return group, projectExprs, nil
}

func resolveAggCall(call *ast.FuncCall, schema storage.Schema) (*AggCall, error) {
	fn, _ := aggFuncByName(call.Name)
	if call.Star {
		if fn != AggCount {
			return nil, errors.Wrapf(ErrTypeMismatch, "%s(*) is not supported", fn)
		}
		return &AggCall{Fn: AggCount, Star: true}, nil
	}
	if len(call.Args) != 1 {
		return nil, errors.Wrapf(ErrTypeMismatch,
			"%s takes exactly one argument, got %d", fn, len(call.Args))
	}
	arg, err := resolveExpr(call.Args[0], schema, "aggregate argument")
	if err != nil {
		return nil, err
	}
	if (fn == AggSum || fn == AggAvg) && !arg.Type().IsNumeric() {
		return nil, errors.Wrapf(ErrTypeMismatch,
			"%s requires a numeric argument, %s is %s", fn, arg, arg.Type())
	}
	return &AggCall{Fn: fn, Arg: arg}, nil
}

func buildProjectExprs(stmt *ast.SelectStmt, schema storage.Schema) ([]ProjectExpr, error) {
	if len(stmt.Fields) == 0 {
		// select * expands to every column of the from scope, in order.
		exprs := make([]ProjectExpr, schema.NumFields())
		for i, f := range schema.Fields {
			exprs[i] = ProjectExpr{Expr: &Column{Index: i, Field: f}}
		}
		return exprs, nil
	}
	exprs := make([]ProjectExpr, len(stmt.Fields))
	for i, field := range stmt.Fields {
		expr, err := resolveExpr(field.Expr, schema, "select list")
		if err != nil {
			return nil, err
		}
		exprs[i] = ProjectExpr{Expr: expr, Alias: field.Alias}
	}
	return exprs, nil
}

// resolveExpr binds an AST expression against a schema. ctx names the clause
// being resolved for error messages.
func resolveExpr(e ast.Expr, schema storage.Schema, ctx string) (Expr, error) {
	switch t := e.(type) {
	case *ast.Ident:
		table, column := t.Parts()
		positions := schema.Resolve(table, column)
		switch len(positions) {
		case 0:
			return nil, errors.Wrapf(ErrUnresolvedReference,
				"column %s not found in %s", t.Name, ctx)
		case 1:
			pos := positions[0]
			return &Column{Index: pos, Field: schema.Fields[pos]}, nil
		default:
			return nil, errors.Wrapf(ErrUnresolvedReference,
				"column %s is ambiguous in %s", t.Name, ctx)
		}
	case *ast.IntLit:
		return &Literal{Value: storage.NewIntDatum(t.Value)}, nil
	case *ast.FloatLit:
		return &Literal{Value: storage.NewFloatDatum(t.Value)}, nil
	case *ast.StringLit:
		return &Literal{Value: storage.NewStringDatum(t.Value)}, nil
	case *ast.BoolLit:
		return &Literal{Value: storage.NewBoolDatum(t.Value)}, nil
	case *ast.BinaryExpr:
		left, err := resolveExpr(t.Left, schema, ctx)
		if err != nil {
			return nil, err
		}
		right, err := resolveExpr(t.Right, schema, ctx)
		if err != nil {
			return nil, err
		}
		return resolveBinary(t.Op, left, right)
	case *ast.FuncCall:
		if fn, ok := aggFuncByName(t.Name); ok {
			return nil, errors.Wrapf(ErrTypeMismatch,
				"aggregate %s is not allowed in %s", fn, ctx)
		}
		return nil, errors.Wrapf(ErrUnresolvedReference,
			"function %s not found", t.Name)
	default:
		return nil, errors.Wrapf(ErrUnresolvedReference, "unknown expression %T", e)
	}
}

func resolveBinary(op ast.Op, left, right Expr) (Expr, error) {
	switch op {
	case ast.Add, ast.Minus, ast.Mul, ast.Divide, ast.Mod:
		if !left.Type().IsNumeric() || !right.Type().IsNumeric() {
			return nil, errors.Wrapf(ErrTypeMismatch,
				"operator %s requires numeric operands, got %s and %s",
				op, left.Type(), right.Type())
		}
		if op == ast.Mod && (left.Type() != storage.Int || right.Type() != storage.Int) {
			return nil, errors.Wrapf(ErrTypeMismatch,
				"operator %% requires int operands, got %s and %s",
				left.Type(), right.Type())
		}
		return &Arith{Op: op, Left: left, Right: right}, nil
	case ast.Equal, ast.NotEqual, ast.Great, ast.GreatEqual, ast.Less, ast.LessEqual:
		comparable := left.Type() == right.Type() ||
			(left.Type().IsNumeric() && right.Type().IsNumeric())
		if !comparable {
			return nil, errors.Wrapf(ErrTypeMismatch,
				"cannot compare %s with %s", left.Type(), right.Type())
		}
		return &Comparison{Op: op, Left: left, Right: right}, nil
	case ast.And, ast.Or:
		if left.Type() != storage.Bool || right.Type() != storage.Bool {
			return nil, errors.Wrapf(ErrTypeMismatch,
				"operator %s requires bool operands, got %s and %s",
				op, left.Type(), right.Type())
		}
		return &Logic{Op: op, Left: left, Right: right}, nil
	default:
		return nil, errors.Wrapf(ErrTypeMismatch, "unknown operator %s", op)
	}
}
