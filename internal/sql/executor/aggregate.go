package executor

import (
	"github.com/tuplebase/tuplebase/internal/errs"
	"github.com/tuplebase/tuplebase/internal/sql/parser"
	"github.com/tuplebase/tuplebase/internal/sql/plan"
	"github.com/tuplebase/tuplebase/internal/sql/txn"
	"github.com/tuplebase/tuplebase/internal/sql/types"
)

// execAggregate implements spec §4.6's Aggregate(source, exprs, group_by):
// partition input rows by the grouping expression's value (or treat the
// whole input as one partition when there is no GROUP BY), then compute
// each projected expression over each partition.
func execAggregate(n *plan.AggregateNode, t txn.Transaction) (rowSet, error) {
	src, err := execRows(n.Source, t)
	if err != nil {
		return rowSet{}, err
	}

	partitions, keys, err := partitionRows(src, n.GroupBy)
	if err != nil {
		return rowSet{}, err
	}

	columns := make([]string, len(n.Exprs))
	for i, c := range n.Exprs {
		columns[i] = projectedLabel(c)
	}

	rows := make([]types.Row, len(partitions))
	for pi, part := range partitions {
		out := make(types.Row, len(n.Exprs))
		for ci, c := range n.Exprs {
			v, err := evalAggregateOrGroupExpr(c.Expr, part, src.columns, n.GroupBy, keys[pi])
			if err != nil {
				return rowSet{}, err
			}
			out[ci] = v
		}
		rows[pi] = out
	}

	return rowSet{columns: columns, rows: rows}, nil
}

// partitionRows groups src's rows by groupBy's value per row. A nil groupBy
// yields a single partition over every row, per spec §4.6.
func partitionRows(src rowSet, groupBy parser.Expression) ([][]types.Row, []types.Value, error) {
	if groupBy == nil {
		return [][]types.Row{src.rows}, []types.Value{types.NullValue}, nil
	}

	order := make([]any, 0)
	groups := make(map[any][]types.Row)
	values := make(map[any]types.Value)

	for _, row := range src.rows {
		ev := newEvaluator(rowContext{columns: src.columns, row: row})
		v, err := ev.eval(groupBy)
		if err != nil {
			return nil, nil, err
		}
		key := v.HashKey()
		if _, ok := groups[key]; !ok {
			order = append(order, key)
			values[key] = v
		}
		groups[key] = append(groups[key], row)
	}

	partitions := make([][]types.Row, len(order))
	keys := make([]types.Value, len(order))
	for i, key := range order {
		partitions[i] = groups[key]
		keys[i] = values[key]
	}
	return partitions, keys, nil
}

// evalAggregateOrGroupExpr evaluates one projected expression of an
// Aggregate node: either an aggregate function call over the partition, or
// (per spec §4.6) a plain expression that must reference the grouping
// column, evaluated once against groupKey.
func evalAggregateOrGroupExpr(expr parser.Expression, partition []types.Row, columns []string, groupBy parser.Expression, groupKey types.Value) (types.Value, error) {
	if fn, ok := expr.(parser.FunctionExpression); ok && isAggregateName(fn.Name) {
		return evalAggregateFunc(fn, partition, columns)
	}

	if groupBy == nil {
		return types.Value{}, errs.New(errs.Internal, "executor: %v is not grouped and not an aggregate", expr)
	}
	if !sameExpression(expr, groupBy) {
		return types.Value{}, errs.New(errs.Internal, "executor: column in SELECT must appear in GROUP BY or be an aggregate")
	}
	return groupKey, nil
}

// sameExpression compares two expressions for the narrow "is this the
// grouping column" check spec §4.6 requires; field names are compared
// directly since the grammar never nests a grouping key inside anything
// more complex than a bare field reference.
func sameExpression(a, b parser.Expression) bool {
	fa, ok := a.(parser.FieldExpression)
	if !ok {
		return false
	}
	fb, ok := b.(parser.FieldExpression)
	if !ok {
		return false
	}
	return fa.Name == fb.Name
}

// evalAggregateFunc computes one aggregate function over partition, per
// spec §4.6's null-handling rules.
func evalAggregateFunc(fn parser.FunctionExpression, partition []types.Row, columns []string) (types.Value, error) {
	field, ok := fn.Arg.(parser.FieldExpression)
	var idx int
	if ok {
		idx = indexOfColumn(columns, field.Name)
		if idx < 0 {
			return types.Value{}, errs.New(errs.Internal, "executor: unknown column %q", field.Name)
		}
	}

	switch fn.Name {
	case "count":
		count := 0
		for _, row := range partition {
			v, err := aggregateArgValue(fn, row, columns, idx, ok)
			if err != nil {
				return types.Value{}, err
			}
			if !v.IsNull() {
				count++
			}
		}
		return types.NewInteger(int64(count)), nil

	case "min", "max":
		var best types.Value
		have := false
		for _, row := range partition {
			v, err := aggregateArgValue(fn, row, columns, idx, ok)
			if err != nil {
				return types.Value{}, err
			}
			if v.IsNull() {
				continue
			}
			if !have {
				best, have = v, true
				continue
			}
			cmp, cok := v.Compare(best)
			if !cok {
				return types.Value{}, errs.New(errs.Internal, "executor: %s over incomparable values", fn.Name)
			}
			if (fn.Name == "min" && cmp < 0) || (fn.Name == "max" && cmp > 0) {
				best = v
			}
		}
		if !have {
			return types.NullValue, nil
		}
		return best, nil

	case "sum", "avg":
		sum := 0.0
		count := 0
		for _, row := range partition {
			v, err := aggregateArgValue(fn, row, columns, idx, ok)
			if err != nil {
				return types.Value{}, err
			}
			if v.IsNull() {
				continue
			}
			switch v.Kind {
			case types.KindInteger:
				sum += float64(v.Int)
			case types.KindFloat:
				sum += v.Flt
			default:
				return types.Value{}, errs.New(errs.Internal, "executor: %s over non-numeric column", fn.Name)
			}
			count++
		}
		if count == 0 {
			return types.NullValue, nil
		}
		if fn.Name == "sum" {
			return types.NewFloat(sum), nil
		}
		return types.NewFloat(sum / float64(count)), nil

	default:
		return types.Value{}, errs.New(errs.NotSupported, "executor: unknown aggregate %s", fn.Name)
	}
}

// aggregateArgValue resolves an aggregate function's argument for one row.
// fieldOK reports whether the argument was a plain field reference (the
// only shape the grammar produces); otherwise it is evaluated as a general
// expression.
func aggregateArgValue(fn parser.FunctionExpression, row types.Row, columns []string, idx int, fieldOK bool) (types.Value, error) {
	if fieldOK {
		return row[idx], nil
	}
	ev := newEvaluator(rowContext{columns: columns, row: row})
	return ev.eval(fn.Arg)
}
