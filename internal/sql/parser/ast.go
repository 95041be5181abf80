package parser

import "github.com/tuplebase/tuplebase/internal/sql/types"

// Statement is the root of a parsed SQL command, per spec §4.4.
type Statement interface {
	isStatement()
}

type CreateDatabaseStatement struct{ Name string }
type DropDatabaseStatement struct{ Name string }
type UseDatabaseStatement struct{ Name string }

// ColumnDef is one column of a CREATE TABLE, before the planner applies the
// nullable/default defaulting rules from spec §4.5.
type ColumnDef struct {
	Name         string
	DataType     types.DataType
	Nullable     *bool // nil means "not specified"
	Default      Expression
	IsPrimaryKey bool
}

type CreateTableStatement struct {
	Name    string
	Columns []ColumnDef
}

type DropTableStatement struct{ Name string }

type InsertStatement struct {
	Table   string
	Columns []string // nil means "all columns, in schema order"
	Values  [][]Expression
}

// SetClause is one `column = expr` pair of an UPDATE, kept as an ordered
// slice (rather than a map) so re-running the same statement text always
// applies assignments in the order written.
type SetClause struct {
	Column string
	Value  Expression
}

type UpdateStatement struct {
	Table string
	Set   []SetClause
	Where Expression // nil means no WHERE
}

type DeleteStatement struct {
	Table string
	Where Expression
}

// SelectColumn is one projected expression, with an optional alias.
type SelectColumn struct {
	Expr  Expression
	Alias string
}

type OrderDirection int

const (
	Asc OrderDirection = iota
	Desc
)

type OrderField struct {
	Column    string
	Direction OrderDirection
}

type SelectStatement struct {
	Columns []SelectColumn // empty means SELECT *
	From    FromItem
	Where   Expression
	GroupBy Expression
	Having  Expression
	OrderBy []OrderField
	Limit   Expression
	Offset  Expression
}

// ExplainStatement wraps another statement for plan-only inspection, the
// supplemental EXPLAIN addition (SPEC_FULL §7).
type ExplainStatement struct {
	Inner Statement
}

func (CreateDatabaseStatement) isStatement() {}
func (DropDatabaseStatement) isStatement()   {}
func (UseDatabaseStatement) isStatement()    {}
func (CreateTableStatement) isStatement()    {}
func (DropTableStatement) isStatement()      {}
func (InsertStatement) isStatement()         {}
func (UpdateStatement) isStatement()         {}
func (DeleteStatement) isStatement()         {}
func (SelectStatement) isStatement()         {}
func (ExplainStatement) isStatement()        {}

// FromItem is a SELECT's source: a base table or a join of two FromItems.
type FromItem interface {
	isFromItem()
}

type TableFromItem struct {
	Name  string
	Alias string // empty means no alias
}

type JoinType int

const (
	JoinCross JoinType = iota
	JoinInner
	JoinLeft
	JoinRight
)

type JoinFromItem struct {
	Left, Right FromItem
	Type        JoinType
	On          Expression // nil for CROSS JOIN
}

func (TableFromItem) isFromItem() {}
func (JoinFromItem) isFromItem()  {}

// Expression is a scalar SQL expression: a field reference, a literal, a
// binary operation, or a single-argument function call (including
// aggregates), per spec §4.4.
type Expression interface {
	isExpression()
}

type FieldExpression struct {
	Name string
}

type LiteralExpression struct {
	Value types.Value
}

type BinaryOp int

const (
	OpEqual BinaryOp = iota
	OpNotEqual
	OpGreaterThan
	OpLessThan
	OpAnd
	OpOr
)

type BinaryExpression struct {
	Op          BinaryOp
	Left, Right Expression
}

// FunctionExpression covers both aggregates (COUNT, SUM, AVG, MIN, MAX) and
// any other single-argument function call; the executor decides which is
// which by name.
type FunctionExpression struct {
	Name string
	Arg  Expression
}

func (FieldExpression) isExpression()    {}
func (LiteralExpression) isExpression()  {}
func (BinaryExpression) isExpression()   {}
func (FunctionExpression) isExpression() {}
