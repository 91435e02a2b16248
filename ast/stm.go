package ast

// The engine does not lex or parse SQL text. These types are the shape of
// the parser boundary: any front end producing them is acceptable input to
// the plan builder.

// SelectStmt is a parsed select statement.
type SelectStmt struct {
	// Fields is the select list. Empty means `select *`.
	Fields  []SelectField
	From    TableRef
	Where   Expr
	GroupBy []Expr
	OrderBy []OrderItem
	Limit   *LimitClause
}

// SelectField is one select-list item with an optional alias.
type SelectField struct {
	Expr  Expr
	Alias string
}

// TableRef is a from-clause item: a named table or a join.
type TableRef interface {
	tableRef()
}

// TableName references a catalog table, optionally aliased.
type TableName struct {
	Name  string
	Alias string
}

func (*TableName) tableRef() {}

type JoinType byte

const (
	InnerJoin JoinType = iota
	LeftOuterJoin
	RightOuterJoin
	CrossJoin
)

func (tp JoinType) String() string {
	switch tp {
	case InnerJoin:
		return "inner join"
	case LeftOuterJoin:
		return "left outer join"
	case RightOuterJoin:
		return "right outer join"
	case CrossJoin:
		return "cross join"
	default:
		return "unknown join"
	}
}

// JoinClause is a joined pair of table references with an ON condition.
// A nil On with CrossJoin expresses `from t1, t2`.
type JoinClause struct {
	Tp    JoinType
	Left  TableRef
	Right TableRef
	On    Expr
}

func (*JoinClause) tableRef() {}

// OrderItem is one order-by key.
type OrderItem struct {
	Expr Expr
	Desc bool
}

// LimitClause carries `limit count offset off`.
type LimitClause struct {
	Count  int64
	Offset int64
}
