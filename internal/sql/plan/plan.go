// Package plan folds a parsed SQL statement into an operator tree whose node
// kinds mirror internal/sql/executor's set, per spec §4.5. The planner is a
// pure function of the AST: it makes no storage calls and returns an error
// only for statement shapes the grammar allows but the plan forbids (a
// non-literal column DEFAULT, say).
package plan

import (
	"github.com/tuplebase/tuplebase/internal/errs"
	"github.com/tuplebase/tuplebase/internal/sql/parser"
	"github.com/tuplebase/tuplebase/internal/sql/types"
)

// Node is one operator in a plan tree. Each concrete type corresponds to one
// executor in internal/sql/executor.
type Node interface {
	isNode()
	// String renders the node (and its children) as an indented tree, used by
	// EXPLAIN and by tests.
	String() string
}

// ScanNode reads every row of Table, keeping only those for which Filter
// evaluates to true. Alias, if non-empty, is the name
// projections and joins should resolve columns under instead of Table.
type ScanNode struct {
	Table  string
	Alias  string
	Filter parser.Expression // nil means no filter
}

// FilterNode re-evaluates Predicate over its child's output columns.
type FilterNode struct {
	Source    Node
	Predicate parser.Expression
}

// ProjectionNode resolves each Column against its child's output.
type ProjectionNode struct {
	Source  Node
	Columns []parser.SelectColumn // empty means "project everything"
}

// OrderByNode stably sorts its child's output.
type OrderByNode struct {
	Source Node
	Fields []parser.OrderField
}

// LimitNode keeps only the first Count rows.
type LimitNode struct {
	Source Node
	Count  parser.Expression
}

// OffsetNode drops the first Count rows.
type OffsetNode struct {
	Source Node
	Count  parser.Expression
}

// JoinNode joins Left and Right row-wise. Type is never JoinRight: RIGHT
// JOIN is rewritten to a LEFT JOIN with swapped operands at plan-build time,
// per spec §4.5.
type JoinNode struct {
	Left, Right Node
	Type        parser.JoinType
	On          parser.Expression // nil for CROSS JOIN
}

// AggregateNode computes Exprs (which may mix aggregate and plain field
// expressions) over Source, optionally partitioned by GroupBy.
type AggregateNode struct {
	Source  Node
	Exprs   []parser.SelectColumn
	GroupBy parser.Expression // nil means one partition over everything
}

// InsertNode appends Values to Table. Columns is the explicit column list
// from `INSERT INTO t(c, a) VALUES (...)`, or nil when the statement named
// no columns and Values is already in the table's schema order.
type InsertNode struct {
	Table   string
	Columns []string
	Values  [][]parser.Expression
}

// UpdateNode wraps a Scan of rows to mutate, applying Set to each.
type UpdateNode struct {
	Source Node
	Table  string
	Set    []parser.SetClause
}

// DeleteNode wraps a Scan of rows to remove.
type DeleteNode struct {
	Source Node
	Table  string
}

// CreateDatabaseNode, DropDatabaseNode, UseDatabaseNode are leaf nodes
// executed directly against the transaction, per spec §4.5.
type CreateDatabaseNode struct{ Name string }
type DropDatabaseNode struct{ Name string }
type UseDatabaseNode struct{ Name string }

// CreateTableNode carries a fully defaulted schema (nullable/default rules
// from spec §4.5 already applied by buildCreateTable).
type CreateTableNode struct{ Table types.Table }

// DropTableNode drops a table by name.
type DropTableNode struct{ Name string }

// ExplainNode wraps the plan of another statement for inspection without
// execution, the supplemental EXPLAIN addition (SPEC_FULL §7).
type ExplainNode struct{ Inner Node }

func (*ScanNode) isNode()           {}
func (*FilterNode) isNode()         {}
func (*ProjectionNode) isNode()     {}
func (*OrderByNode) isNode()        {}
func (*LimitNode) isNode()          {}
func (*OffsetNode) isNode()         {}
func (*JoinNode) isNode()           {}
func (*AggregateNode) isNode()      {}
func (*InsertNode) isNode()         {}
func (*UpdateNode) isNode()         {}
func (*DeleteNode) isNode()         {}
func (*CreateDatabaseNode) isNode() {}
func (*DropDatabaseNode) isNode()   {}
func (*UseDatabaseNode) isNode()    {}
func (*CreateTableNode) isNode()    {}
func (*DropTableNode) isNode()      {}
func (*ExplainNode) isNode()        {}

// Build folds stmt into a Node tree, per spec §4.5.
func Build(stmt parser.Statement) (Node, error) {
	switch s := stmt.(type) {
	case parser.CreateDatabaseStatement:
		return &CreateDatabaseNode{Name: s.Name}, nil
	case parser.DropDatabaseStatement:
		return &DropDatabaseNode{Name: s.Name}, nil
	case parser.UseDatabaseStatement:
		return &UseDatabaseNode{Name: s.Name}, nil
	case parser.CreateTableStatement:
		return buildCreateTable(s)
	case parser.DropTableStatement:
		return &DropTableNode{Name: s.Name}, nil
	case parser.InsertStatement:
		return &InsertNode{Table: s.Table, Columns: s.Columns, Values: s.Values}, nil
	case parser.UpdateStatement:
		return buildUpdate(s)
	case parser.DeleteStatement:
		return buildDelete(s)
	case parser.SelectStatement:
		return buildSelect(s)
	case parser.ExplainStatement:
		inner, err := Build(s.Inner)
		if err != nil {
			return nil, err
		}
		return &ExplainNode{Inner: inner}, nil
	default:
		return nil, errs.New(errs.NotSupported, "plan: unsupported statement %T", stmt)
	}
}

func buildUpdate(s parser.UpdateStatement) (Node, error) {
	seen := make(map[string]bool, len(s.Set))
	for _, set := range s.Set {
		if seen[set.Column] {
			return nil, errs.New(errs.Internal, "plan: column %q set more than once", set.Column)
		}
		seen[set.Column] = true
	}
	scan := &ScanNode{Table: s.Table, Filter: s.Where}
	return &UpdateNode{Source: scan, Table: s.Table, Set: s.Set}, nil
}

func buildDelete(s parser.DeleteStatement) (Node, error) {
	scan := &ScanNode{Table: s.Table, Filter: s.Where}
	return &DeleteNode{Source: scan, Table: s.Table}, nil
}

// buildSelect lowers a SELECT per spec §4.5's pipeline:
// Scan → [Join…] → [Filter(where)] → [Aggregate] → [Filter(having)] →
// [OrderBy] → [Offset] → [Limit] → [Projection].
func buildSelect(s parser.SelectStatement) (Node, error) {
	node, isBaseScan, err := buildFrom(s.From)
	if err != nil {
		return nil, err
	}

	if s.Where != nil {
		if isBaseScan {
			// Attach directly to the scan's own filter rather than wrapping
			// in a redundant Filter node, per spec §4.5.
			node.(*ScanNode).Filter = s.Where
		} else {
			node = &FilterNode{Source: node, Predicate: s.Where}
		}
	}

	aggregated := s.GroupBy != nil || hasAggregate(s.Columns)
	if aggregated {
		node = &AggregateNode{Source: node, Exprs: s.Columns, GroupBy: s.GroupBy}
	}

	if s.Having != nil {
		node = &FilterNode{Source: node, Predicate: s.Having}
	}

	if len(s.OrderBy) > 0 {
		node = &OrderByNode{Source: node, Fields: s.OrderBy}
	}
	if s.Offset != nil {
		node = &OffsetNode{Source: node, Count: s.Offset}
	}
	if s.Limit != nil {
		node = &LimitNode{Source: node, Count: s.Limit}
	}
	// An AggregateNode already projects Exprs into its output columns, so
	// wrapping it in a Projection would re-evaluate aggregate calls like
	// sum(v) against already-collapsed scalars. Only non-aggregate SELECTs
	// need the separate Projection step.
	if len(s.Columns) > 0 && !aggregated {
		node = &ProjectionNode{Source: node, Columns: s.Columns}
	}
	return node, nil
}

func hasAggregate(cols []parser.SelectColumn) bool {
	for _, c := range cols {
		if exprHasAggregate(c.Expr) {
			return true
		}
	}
	return false
}

func exprHasAggregate(expr parser.Expression) bool {
	switch e := expr.(type) {
	case parser.FunctionExpression:
		if isAggregateName(e.Name) {
			return true
		}
		return exprHasAggregate(e.Arg)
	case parser.BinaryExpression:
		return exprHasAggregate(e.Left) || exprHasAggregate(e.Right)
	default:
		return false
	}
}

func isAggregateName(name string) bool {
	switch name {
	case "count", "sum", "avg", "min", "max":
		return true
	default:
		return false
	}
}

// buildFrom lowers a FromItem into a Node. isBaseScan reports whether the
// result is a bare *ScanNode (so the caller can fold a WHERE into its
// filter instead of wrapping it), per spec §4.5.
func buildFrom(item parser.FromItem) (Node, bool, error) {
	switch f := item.(type) {
	case parser.TableFromItem:
		return &ScanNode{Table: f.Name, Alias: f.Alias}, true, nil
	case parser.JoinFromItem:
		left, right, joinType, on := f.Left, f.Right, f.Type, f.On
		if joinType == parser.JoinRight {
			// RIGHT JOIN(L, R) -> LEFT JOIN(R, L) with the equality
			// operands swapped, per spec §4.5.
			left, right = right, left
			joinType = parser.JoinLeft
			on = swapEquality(on)
		}
		leftNode, _, err := buildFrom(left)
		if err != nil {
			return nil, false, err
		}
		rightNode, _, err := buildFrom(right)
		if err != nil {
			return nil, false, err
		}
		return &JoinNode{Left: leftNode, Right: rightNode, Type: joinType, On: on}, false, nil
	default:
		return nil, false, errs.New(errs.NotSupported, "plan: unsupported from item %T", item)
	}
}

// swapEquality swaps the two sides of a top-level equality predicate (the
// only shape ON clauses take, per spec §4.4). A nil predicate (CROSS JOIN)
// passes through unchanged.
func swapEquality(expr parser.Expression) parser.Expression {
	if expr == nil {
		return nil
	}
	if be, ok := expr.(parser.BinaryExpression); ok {
		be.Left, be.Right = be.Right, be.Left
		return be
	}
	return expr
}

// buildCreateTable applies spec §4.5's column defaulting rules: nullable
// defaults to !is_primary_key; a literal DEFAULT becomes the stored default
// Value; a nullable column with no DEFAULT gets a Null default; a
// non-nullable, non-primary-key column with no DEFAULT stays defaultless
// (insert must supply a value for it).
func buildCreateTable(s parser.CreateTableStatement) (Node, error) {
	columns := make([]types.Column, 0, len(s.Columns))
	for _, c := range s.Columns {
		nullable := !c.IsPrimaryKey
		if c.Nullable != nil {
			nullable = *c.Nullable
		}

		var def *types.Value
		switch {
		case c.Default != nil:
			lit, ok := c.Default.(parser.LiteralExpression)
			if !ok {
				return nil, errs.New(errs.NotSupported, "plan: column %q default must be a literal", c.Name)
			}
			v := lit.Value
			def = &v
		case nullable:
			v := types.NullValue
			def = &v
		}

		columns = append(columns, types.Column{
			Name:         c.Name,
			DataType:     c.DataType,
			Nullable:     nullable,
			Default:      def,
			IsPrimaryKey: c.IsPrimaryKey,
		})
	}

	table := types.Table{Name: s.Name, Columns: columns}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &CreateTableNode{Table: table}, nil
}
