package executor

import (
	"sort"

	"github.com/tuplebase/tuplebase/internal/errs"
	"github.com/tuplebase/tuplebase/internal/sql/parser"
	"github.com/tuplebase/tuplebase/internal/sql/plan"
	"github.com/tuplebase/tuplebase/internal/sql/txn"
	"github.com/tuplebase/tuplebase/internal/sql/types"
)

// rowSet is the common tuple-stream shape every row-producing node passes to
// its parent, per spec §4.6's ResultSet::Scan. Scan output columns are
// qualified as "table.column" (or "alias.column") and joins keep them so;
// Projection and Aggregate output columns carry the projected label (the
// alias, the field name as written, or the function name). evaluator.field
// resolves either the qualified or bare form via suffix matching.
type rowSet struct {
	columns []string
	rows    []types.Row
}

// Execute runs node to completion against t, per spec §4.6/§4.7. DDL and DML
// statements are dispatched directly; SELECT-shaped trees recurse through
// execRows and are packaged into a Scan-shaped ResultSet.
func Execute(node plan.Node, t txn.Transaction) (ResultSet, error) {
	switch n := node.(type) {
	case *plan.CreateDatabaseNode:
		if err := t.CreateDatabase(n.Name); err != nil {
			return ResultSet{}, err
		}
		return ResultSet{Kind: KindCreateDatabase, Name: n.Name}, nil

	case *plan.DropDatabaseNode:
		if err := t.DropDatabase(n.Name); err != nil {
			return ResultSet{}, err
		}
		return ResultSet{Kind: KindDropDatabase, Name: n.Name}, nil

	case *plan.UseDatabaseNode:
		names, err := t.GetDatabaseNames()
		if err != nil {
			return ResultSet{}, err
		}
		if !containsName(names, n.Name) {
			return ResultSet{}, errs.New(errs.TableNotFound, "database %q does not exist", n.Name)
		}
		return ResultSet{Kind: KindUseDatabase, Name: n.Name}, nil

	case *plan.CreateTableNode:
		if err := t.CreateTable(n.Table); err != nil {
			return ResultSet{}, err
		}
		return ResultSet{Kind: KindCreateTable, Name: n.Table.Name}, nil

	case *plan.DropTableNode:
		if err := t.DropTable(n.Name); err != nil {
			return ResultSet{}, err
		}
		return ResultSet{Kind: KindDropTable, Name: n.Name}, nil

	case *plan.InsertNode:
		count, err := execInsert(n, t)
		if err != nil {
			return ResultSet{}, err
		}
		return ResultSet{Kind: KindInsert, Count: count}, nil

	case *plan.UpdateNode:
		count, err := execUpdate(n, t)
		if err != nil {
			return ResultSet{}, err
		}
		return ResultSet{Kind: KindUpdate, Count: count}, nil

	case *plan.DeleteNode:
		count, err := execDelete(n, t)
		if err != nil {
			return ResultSet{}, err
		}
		return ResultSet{Kind: KindDelete, Count: count}, nil

	case *plan.ExplainNode:
		return explainResultSet(n.Inner), nil

	default:
		rs, err := execRows(node, t)
		if err != nil {
			return ResultSet{}, err
		}
		return ResultSet{Kind: KindScan, Columns: rs.columns, Rows: rs.rows}, nil
	}
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// execRows dispatches the row-producing (non-DDL/DML) node kinds.
func execRows(node plan.Node, t txn.Transaction) (rowSet, error) {
	switch n := node.(type) {
	case *plan.ScanNode:
		return execScan(n, t)
	case *plan.FilterNode:
		return execFilter(n, t)
	case *plan.ProjectionNode:
		return execProjection(n, t)
	case *plan.OrderByNode:
		return execOrderBy(n, t)
	case *plan.LimitNode:
		return execLimit(n, t)
	case *plan.OffsetNode:
		return execOffset(n, t)
	case *plan.JoinNode:
		return execJoin(n, t)
	case *plan.AggregateNode:
		return execAggregate(n, t)
	default:
		return rowSet{}, errs.New(errs.Internal, "executor: unsupported plan node %T", node)
	}
}

func qualifiedColumns(table types.Table, alias string) []string {
	label := alias
	if label == "" {
		label = table.Name
	}
	cols := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		cols[i] = label + "." + c.Name
	}
	return cols
}

// execScan implements spec §4.6's Scan: read the table schema, fetch every
// row, keep only those whose filter (if any) evaluates to Boolean(true).
func execScan(n *plan.ScanNode, t txn.Transaction) (rowSet, error) {
	table, ok, err := t.GetTable(n.Table)
	if !ok {
		if err != nil {
			return rowSet{}, err
		}
		return rowSet{}, errs.New(errs.TableNotFound, "table %q not found", n.Table)
	}
	rows, err := t.ScanTable(table)
	if err != nil {
		return rowSet{}, err
	}
	columns := qualifiedColumns(table, n.Alias)

	if n.Filter == nil {
		return rowSet{columns: columns, rows: rows}, nil
	}

	kept := make([]types.Row, 0, len(rows))
	for _, row := range rows {
		ev := newEvaluator(rowContext{columns: columns, row: row})
		pass, err := evalPredicate(ev, n.Filter)
		if err != nil {
			return rowSet{}, err
		}
		if pass {
			kept = append(kept, row)
		}
	}
	return rowSet{columns: columns, rows: kept}, nil
}

// execFilter is Scan's filter rule reapplied over a child's output, per
// spec §4.6's Filter operator.
func execFilter(n *plan.FilterNode, t txn.Transaction) (rowSet, error) {
	src, err := execRows(n.Source, t)
	if err != nil {
		return rowSet{}, err
	}
	kept := make([]types.Row, 0, len(src.rows))
	for _, row := range src.rows {
		ev := newEvaluator(rowContext{columns: src.columns, row: row})
		pass, err := evalPredicate(ev, n.Predicate)
		if err != nil {
			return rowSet{}, err
		}
		if pass {
			kept = append(kept, row)
		}
	}
	return rowSet{columns: src.columns, rows: kept}, nil
}

// execProjection resolves each selected expression against the child's
// output, renaming via alias when given, per spec §4.6's Projection.
func execProjection(n *plan.ProjectionNode, t txn.Transaction) (rowSet, error) {
	src, err := execRows(n.Source, t)
	if err != nil {
		return rowSet{}, err
	}
	if len(n.Columns) == 0 {
		return src, nil
	}

	outColumns := make([]string, len(n.Columns))
	for i, c := range n.Columns {
		outColumns[i] = projectedLabel(c)
	}

	outRows := make([]types.Row, len(src.rows))
	for ri, row := range src.rows {
		ev := newEvaluator(rowContext{columns: src.columns, row: row})
		out := make(types.Row, len(n.Columns))
		for ci, c := range n.Columns {
			v, err := ev.eval(c.Expr)
			if err != nil {
				return rowSet{}, err
			}
			out[ci] = v
		}
		outRows[ri] = out
	}
	return rowSet{columns: outColumns, rows: outRows}, nil
}

func projectedLabel(c parser.SelectColumn) string {
	if c.Alias != "" {
		return c.Alias
	}
	if f, ok := c.Expr.(parser.FieldExpression); ok {
		return f.Name
	}
	if fn, ok := c.Expr.(parser.FunctionExpression); ok {
		return fn.Name
	}
	return ""
}

// execOrderBy stably sorts by the listed columns, each ascending or
// descending; incomparable pairs preserve input order, per spec §4.6.
func execOrderBy(n *plan.OrderByNode, t txn.Transaction) (rowSet, error) {
	src, err := execRows(n.Source, t)
	if err != nil {
		return rowSet{}, err
	}

	idxs := make([]int, len(n.Fields))
	for i, f := range n.Fields {
		idx := indexOfColumn(src.columns, f.Column)
		if idx < 0 {
			return rowSet{}, errs.New(errs.Internal, "executor: order by unknown column %q", f.Column)
		}
		idxs[i] = idx
	}

	rows := make([]types.Row, len(src.rows))
	copy(rows, src.rows)

	sort.SliceStable(rows, func(i, j int) bool {
		for k, idx := range idxs {
			a, b := rows[i][idx], rows[j][idx]
			cmp, ok := a.Compare(b)
			if !ok || cmp == 0 {
				continue
			}
			if n.Fields[k].Direction == parser.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})

	return rowSet{columns: src.columns, rows: rows}, nil
}

func indexOfColumn(columns []string, name string) int {
	for i, c := range columns {
		if c == name || hasQualifiedSuffix(c, name) || hasQualifiedSuffix(name, c) {
			return i
		}
	}
	return -1
}

// execLimit and execOffset implement spec §4.6: Offset is applied before
// Limit when both are present (the plan pipeline already nests them in that
// order: OffsetNode wraps OrderBy, LimitNode wraps OffsetNode).
func execLimit(n *plan.LimitNode, t txn.Transaction) (rowSet, error) {
	src, err := execRows(n.Source, t)
	if err != nil {
		return rowSet{}, err
	}
	count, err := literalInt(n.Count)
	if err != nil {
		return rowSet{}, err
	}
	if count < 0 || int(count) > len(src.rows) {
		count = int64(len(src.rows))
	}
	return rowSet{columns: src.columns, rows: src.rows[:count]}, nil
}

func execOffset(n *plan.OffsetNode, t txn.Transaction) (rowSet, error) {
	src, err := execRows(n.Source, t)
	if err != nil {
		return rowSet{}, err
	}
	count, err := literalInt(n.Count)
	if err != nil {
		return rowSet{}, err
	}
	if count < 0 {
		count = 0
	}
	if int(count) > len(src.rows) {
		count = int64(len(src.rows))
	}
	return rowSet{columns: src.columns, rows: src.rows[count:]}, nil
}

func literalInt(expr parser.Expression) (int64, error) {
	lit, ok := expr.(parser.LiteralExpression)
	if !ok || lit.Value.Kind != types.KindInteger {
		return 0, errs.New(errs.Internal, "executor: LIMIT/OFFSET must be an integer literal")
	}
	return lit.Value.Int, nil
}

func execInsert(n *plan.InsertNode, t txn.Transaction) (int, error) {
	table, ok, err := t.GetTable(n.Table)
	if !ok {
		if err != nil {
			return 0, err
		}
		return 0, errs.New(errs.TableNotFound, "table %q not found", n.Table)
	}

	count := 0
	for _, values := range n.Values {
		row, err := buildInsertRow(table, n.Columns, values)
		if err != nil {
			return 0, err
		}
		if err := t.CreateRow(table, row); err != nil {
			return 0, err
		}
		count++
	}
	return count, nil
}

// buildInsertRow implements spec §4.6's Insert rule: remap an explicit
// column list into schema order, pad missing trailing columns with their
// defaults, type-check each cell (non-nullable + null is an error; type
// mismatch is an error).
func buildInsertRow(table types.Table, columns []string, values []parser.Expression) (types.Row, error) {
	exprs := make([]parser.Expression, len(table.Columns))
	if columns == nil {
		for i := 0; i < len(values) && i < len(exprs); i++ {
			exprs[i] = values[i]
		}
	} else {
		for i, name := range columns {
			idx := table.ColumnIndex(name)
			if idx < 0 {
				return nil, errs.New(errs.Internal, "unknown column %q", name)
			}
			if i >= len(values) {
				break
			}
			exprs[idx] = values[i]
		}
	}

	row := make(types.Row, len(table.Columns))
	ev := newEvaluator(rowContext{})

	for i, col := range table.Columns {
		if exprs[i] != nil {
			v, err := ev.eval(exprs[i])
			if err != nil {
				return nil, err
			}
			row[i] = v
			continue
		}
		if col.Default == nil {
			return nil, errs.New(errs.Internal, "column %q has no default and no value was supplied", col.Name)
		}
		row[i] = *col.Default
	}

	for i, col := range table.Columns {
		if err := checkCell(col, row[i]); err != nil {
			return nil, err
		}
	}
	return row, nil
}

func checkCell(col types.Column, v types.Value) error {
	if v.IsNull() {
		if !col.Nullable {
			return errs.New(errs.Internal, "column %q is not nullable", col.Name)
		}
		return nil
	}
	dt, ok := v.DataType()
	if !ok || dt != col.DataType {
		return errs.New(errs.Internal, "column %q expects %s, got %s", col.Name, col.DataType, v)
	}
	return nil
}

// execUpdate implements spec §4.6's Update rule over its wrapped Scan.
func execUpdate(n *plan.UpdateNode, t txn.Transaction) (int, error) {
	table, ok, err := t.GetTable(n.Table)
	if !ok {
		if err != nil {
			return 0, err
		}
		return 0, errs.New(errs.TableNotFound, "table %q not found", n.Table)
	}
	src, err := execRows(n.Source, t)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, row := range src.rows {
		oldPK, err := table.PrimaryKeyValue(row)
		if err != nil {
			return 0, err
		}
		newRow := row.Clone()
		ev := newEvaluator(rowContext{columns: src.columns, row: row})
		for _, set := range n.Set {
			idx := table.ColumnIndex(set.Column)
			if idx < 0 {
				return 0, errs.New(errs.Internal, "unknown column %q", set.Column)
			}
			v, err := ev.eval(set.Value)
			if err != nil {
				return 0, err
			}
			if err := checkCell(table.Columns[idx], v); err != nil {
				return 0, err
			}
			newRow[idx] = v
		}
		if err := t.UpdateRow(table, oldPK, newRow); err != nil {
			return 0, err
		}
		count++
	}
	return count, nil
}

// execDelete implements spec §4.6's Delete rule over its wrapped Scan.
func execDelete(n *plan.DeleteNode, t txn.Transaction) (int, error) {
	table, ok, err := t.GetTable(n.Table)
	if !ok {
		if err != nil {
			return 0, err
		}
		return 0, errs.New(errs.TableNotFound, "table %q not found", n.Table)
	}
	src, err := execRows(n.Source, t)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, row := range src.rows {
		pk, err := table.PrimaryKeyValue(row)
		if err != nil {
			return 0, err
		}
		if err := t.DeleteRow(table, pk); err != nil {
			return 0, err
		}
		count++
	}
	return count, nil
}
