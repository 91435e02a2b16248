package plan

import (
	"fmt"
	"strings"

	"github.com/HuichuanLI/play-with-data-base/ast"
	"github.com/HuichuanLI/play-with-data-base/storage"
)

// LogicalPlan is a node of the logical operator tree. The node set is
// closed: consumers type-switch over the concrete structs and the unexported
// marker keeps foreign implementations out. Each node owns its children
// exclusively and Schema is a pure function of the children's schemas and
// the node's own parameters.
type LogicalPlan interface {
	Schema() storage.Schema
	Children() []LogicalPlan
	String() string
	logicalNode()
}

// Scan is a leaf reading a catalog table. TableSchema is the declared schema
// captured at build time, re-qualified by the alias when one is set.
type Scan struct {
	Table       string
	Alias       string
	TableSchema storage.Schema
}

func (*Scan) logicalNode() {}

func (s *Scan) Schema() storage.Schema { return s.TableSchema }

func (s *Scan) Children() []LogicalPlan { return nil }

func (s *Scan) String() string {
	if s.Alias != "" && s.Alias != s.Table {
		return fmt.Sprintf("Scan(%s as %s)", s.Table, s.Alias)
	}
	return fmt.Sprintf("Scan(%s)", s.Table)
}

// Filter discards input rows failing Predicate. Schema is unchanged.
type Filter struct {
	Predicate Expr
	Input     LogicalPlan
}

func (*Filter) logicalNode() {}

func (f *Filter) Schema() storage.Schema { return f.Input.Schema() }

func (f *Filter) Children() []LogicalPlan { return []LogicalPlan{f.Input} }

func (f *Filter) String() string {
	return fmt.Sprintf("Filter(%s)", f.Predicate)
}

// ProjectExpr is one output column of a projection.
type ProjectExpr struct {
	Expr  Expr
	Alias string
}

// Field derives the output field of a projection column.
func (pe ProjectExpr) Field() storage.Field {
	if pe.Alias != "" {
		return storage.Field{Name: pe.Alias, TP: pe.Expr.Type()}
	}
	if col, ok := pe.Expr.(*Column); ok {
		return col.Field
	}
	return storage.Field{Name: pe.Expr.String(), TP: pe.Expr.Type()}
}

// Project computes one output column per expression.
type Project struct {
	Exprs []ProjectExpr
	Input LogicalPlan
}

func (*Project) logicalNode() {}

func (p *Project) Schema() storage.Schema {
	fields := make([]storage.Field, len(p.Exprs))
	for i, e := range p.Exprs {
		fields[i] = e.Field()
	}
	return storage.NewSchema(fields...)
}

func (p *Project) Children() []LogicalPlan { return []LogicalPlan{p.Input} }

func (p *Project) String() string {
	parts := make([]string, len(p.Exprs))
	for i, e := range p.Exprs {
		parts[i] = e.Field().String()
	}
	return fmt.Sprintf("Project(%s)", strings.Join(parts, ", "))
}

// GroupAggregate groups input rows by the key expressions and folds each
// group through the aggregate calls. Output schema is the group key columns
// followed by one column per aggregate.
type GroupAggregate struct {
	Keys  []Expr
	Aggs  []*AggCall
	Input LogicalPlan
}

func (*GroupAggregate) logicalNode() {}

func (g *GroupAggregate) Schema() storage.Schema {
	fields := make([]storage.Field, 0, len(g.Keys)+len(g.Aggs))
	for _, key := range g.Keys {
		if col, ok := key.(*Column); ok {
			fields = append(fields, col.Field)
			continue
		}
		fields = append(fields, storage.Field{Name: key.String(), TP: key.Type()})
	}
	for _, agg := range g.Aggs {
		fields = append(fields, storage.Field{Name: agg.String(), TP: agg.Type()})
	}
	return storage.NewSchema(fields...)
}

func (g *GroupAggregate) Children() []LogicalPlan { return []LogicalPlan{g.Input} }

func (g *GroupAggregate) String() string {
	keys := make([]string, len(g.Keys))
	for i, k := range g.Keys {
		keys[i] = k.String()
	}
	aggs := make([]string, len(g.Aggs))
	for i, a := range g.Aggs {
		aggs[i] = a.String()
	}
	return fmt.Sprintf("GroupAggregate(keys: %s, aggs: %s)",
		strings.Join(keys, ", "), strings.Join(aggs, ", "))
}

// Join combines Left and Right under Condition. Schema is the concatenation
// of the children's schemas, left first. Condition column indexes refer to
// that combined schema.
type Join struct {
	Tp        ast.JoinType
	Condition Expr
	Left      LogicalPlan
	Right     LogicalPlan
}

func (*Join) logicalNode() {}

func (j *Join) Schema() storage.Schema {
	return j.Left.Schema().Merge(j.Right.Schema())
}

func (j *Join) Children() []LogicalPlan { return []LogicalPlan{j.Left, j.Right} }

func (j *Join) String() string {
	if j.Condition == nil {
		return fmt.Sprintf("Join(%s)", j.Tp)
	}
	return fmt.Sprintf("Join(%s, on: %s)", j.Tp, j.Condition)
}

// SortKey is one ordering key.
type SortKey struct {
	Expr Expr
	Desc bool
}

func (k SortKey) String() string {
	if k.Desc {
		return fmt.Sprintf("%s desc", k.Expr)
	}
	return fmt.Sprintf("%s asc", k.Expr)
}

// Sort orders its input by the keys. Schema is unchanged.
type Sort struct {
	Keys  []SortKey
	Input LogicalPlan
}

func (*Sort) logicalNode() {}

func (s *Sort) Schema() storage.Schema { return s.Input.Schema() }

func (s *Sort) Children() []LogicalPlan { return []LogicalPlan{s.Input} }

func (s *Sort) String() string {
	keys := make([]string, len(s.Keys))
	for i, k := range s.Keys {
		keys[i] = k.String()
	}
	return fmt.Sprintf("Sort(%s)", strings.Join(keys, ", "))
}

// Limit passes through at most Count rows after skipping Offset rows.
type Limit struct {
	Count  int64
	Offset int64
	Input  LogicalPlan
}

func (*Limit) logicalNode() {}

func (l *Limit) Schema() storage.Schema { return l.Input.Schema() }

func (l *Limit) Children() []LogicalPlan { return []LogicalPlan{l.Input} }

func (l *Limit) String() string {
	if l.Offset > 0 {
		return fmt.Sprintf("Limit(%d, offset %d)", l.Count, l.Offset)
	}
	return fmt.Sprintf("Limit(%d)", l.Count)
}
