package executor

import (
	"github.com/tuplebase/tuplebase/internal/errs"
	"github.com/tuplebase/tuplebase/internal/sql/parser"
	"github.com/tuplebase/tuplebase/internal/sql/types"
)

// rowContext pairs a row with the column names it should resolve Field
// expressions against.
type rowContext struct {
	columns []string
	row     types.Row
}

// evaluator evaluates parser.Expression trees against up to two row
// contexts, per spec §4.6: "resolves Field(name) against the left context
// first, then right". A nil right context (zero value, columns == nil) means
// there is no right side, as for a non-join scan or filter.
type evaluator struct {
	left  rowContext
	right rowContext
}

func newEvaluator(left rowContext) evaluator {
	return evaluator{left: left}
}

func newJoinEvaluator(left, right rowContext) evaluator {
	return evaluator{left: left, right: right}
}

// eval computes expr's value against e's contexts.
func (e evaluator) eval(expr parser.Expression) (types.Value, error) {
	switch ex := expr.(type) {
	case parser.LiteralExpression:
		return ex.Value, nil
	case parser.FieldExpression:
		return e.field(ex.Name)
	case parser.BinaryExpression:
		return e.binary(ex)
	case parser.FunctionExpression:
		return e.function(ex)
	default:
		return types.Value{}, errs.New(errs.Internal, "executor: unsupported expression %T", expr)
	}
}

func (e evaluator) field(name string) (types.Value, error) {
	if v, ok := lookupField(e.left, name); ok {
		return v, nil
	}
	if e.right.columns != nil {
		if v, ok := lookupField(e.right, name); ok {
			return v, nil
		}
	}
	return types.Value{}, errs.New(errs.Internal, "executor: unknown column %q", name)
}

// lookupField resolves name against ctx, accepting either the bare column
// name or a "table.column"-qualified one whose suffix matches.
func lookupField(ctx rowContext, name string) (types.Value, bool) {
	for i, c := range ctx.columns {
		if c == name || hasQualifiedSuffix(c, name) || hasQualifiedSuffix(name, c) {
			return ctx.row[i], true
		}
	}
	return types.Value{}, false
}

func hasQualifiedSuffix(qualified, bare string) bool {
	n := len(qualified) - len(bare) - 1
	return n > 0 && qualified[n] == '.' && qualified[n+1:] == bare
}

func (e evaluator) binary(ex parser.BinaryExpression) (types.Value, error) {
	if ex.Op == parser.OpAnd || ex.Op == parser.OpOr {
		return e.logical(ex)
	}

	left, err := e.eval(ex.Left)
	if err != nil {
		return types.Value{}, err
	}
	right, err := e.eval(ex.Right)
	if err != nil {
		return types.Value{}, err
	}

	// Comparisons short-circuit on null (return null), per spec §4.6.
	if left.IsNull() || right.IsNull() {
		return types.NullValue, nil
	}

	cmp, ok := left.Compare(right)
	if !ok {
		return types.Value{}, errs.New(errs.Internal, "executor: cannot compare %s and %s", left, right)
	}

	switch ex.Op {
	case parser.OpEqual:
		return types.NewBoolean(cmp == 0), nil
	case parser.OpNotEqual:
		return types.NewBoolean(cmp != 0), nil
	case parser.OpGreaterThan:
		return types.NewBoolean(cmp > 0), nil
	case parser.OpLessThan:
		return types.NewBoolean(cmp < 0), nil
	default:
		return types.Value{}, errs.New(errs.Internal, "executor: unsupported binary operator")
	}
}

// logical evaluates AND/OR with standard SQL three-valued logic: a null
// operand only forces a null result when it isn't already decided by the
// other operand (false AND NULL = false; true OR NULL = true).
func (e evaluator) logical(ex parser.BinaryExpression) (types.Value, error) {
	left, err := e.eval(ex.Left)
	if err != nil {
		return types.Value{}, err
	}
	right, err := e.eval(ex.Right)
	if err != nil {
		return types.Value{}, err
	}

	if ex.Op == parser.OpAnd {
		if isFalse(left) || isFalse(right) {
			return types.NewBoolean(false), nil
		}
		if left.IsNull() || right.IsNull() {
			return types.NullValue, nil
		}
		return types.NewBoolean(true), nil
	}

	// OR
	if isTrue(left) || isTrue(right) {
		return types.NewBoolean(true), nil
	}
	if left.IsNull() || right.IsNull() {
		return types.NullValue, nil
	}
	return types.NewBoolean(false), nil
}

func isTrue(v types.Value) bool  { return v.Kind == types.KindBoolean && v.Bool }
func isFalse(v types.Value) bool { return v.Kind == types.KindBoolean && !v.Bool }

func (e evaluator) function(ex parser.FunctionExpression) (types.Value, error) {
	if isAggregateName(ex.Name) {
		return types.Value{}, errs.New(errs.Internal, "executor: aggregate %s used outside of an Aggregate node", ex.Name)
	}
	return types.Value{}, errs.New(errs.NotSupported, "executor: unknown function %s", ex.Name)
}

func isAggregateName(name string) bool {
	switch name {
	case "count", "sum", "avg", "min", "max":
		return true
	default:
		return false
	}
}

// evalPredicate evaluates expr and enforces spec §4.6's Scan/Filter rule:
// only Boolean(true) passes; null and false are rejected, any other runtime
// type is an error.
func evalPredicate(e evaluator, expr parser.Expression) (bool, error) {
	v, err := e.eval(expr)
	if err != nil {
		return false, err
	}
	switch v.Kind {
	case types.KindBoolean:
		return v.Bool, nil
	case types.KindNull:
		return false, nil
	default:
		return false, errs.New(errs.Internal, "executor: filter expression must be boolean, got %s", v)
	}
}
