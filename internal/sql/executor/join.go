package executor

import (
	"github.com/tuplebase/tuplebase/internal/sql/parser"
	"github.com/tuplebase/tuplebase/internal/sql/plan"
	"github.com/tuplebase/tuplebase/internal/sql/txn"
	"github.com/tuplebase/tuplebase/internal/sql/types"
)

// execJoin implements spec §4.6's NestedLoopJoin: buffer the right side
// fully, then for each left row scan every right row, emitting a combined
// row when the predicate is true (or is absent, for CROSS JOIN). An outer
// join pads with NULLs across the right schema when no right row matched.
// RIGHT JOIN never reaches here: plan.Build rewrites it to a LEFT JOIN with
// swapped operands before execution.
func execJoin(n *plan.JoinNode, t txn.Transaction) (rowSet, error) {
	left, err := execRows(n.Left, t)
	if err != nil {
		return rowSet{}, err
	}
	right, err := execRows(n.Right, t)
	if err != nil {
		return rowSet{}, err
	}

	columns := make([]string, 0, len(left.columns)+len(right.columns))
	columns = append(columns, left.columns...)
	columns = append(columns, right.columns...)

	outer := n.Type == parser.JoinLeft

	var rows []types.Row
	for _, lrow := range left.rows {
		matched := false
		for _, rrow := range right.rows {
			pass := true
			if n.On != nil {
				ev := newJoinEvaluator(
					rowContext{columns: left.columns, row: lrow},
					rowContext{columns: right.columns, row: rrow},
				)
				ok, err := evalPredicate(ev, n.On)
				if err != nil {
					return rowSet{}, err
				}
				pass = ok
			}
			if !pass {
				continue
			}
			matched = true
			rows = append(rows, combineRows(lrow, rrow))
		}
		if outer && !matched {
			rows = append(rows, combineRows(lrow, nullRow(len(right.columns))))
		}
	}

	return rowSet{columns: columns, rows: rows}, nil
}

func combineRows(left, right types.Row) types.Row {
	out := make(types.Row, 0, len(left)+len(right))
	out = append(out, left...)
	out = append(out, right...)
	return out
}

func nullRow(n int) types.Row {
	row := make(types.Row, n)
	for i := range row {
		row[i] = types.NullValue
	}
	return row
}
