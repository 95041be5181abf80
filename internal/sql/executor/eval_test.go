package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuplebase/tuplebase/internal/sql/parser"
	"github.com/tuplebase/tuplebase/internal/sql/types"
)

func TestEvalFieldResolvesLeftThenRight(t *testing.T) {
	left := rowContext{columns: []string{"t1.a"}, row: types.Row{types.NewInteger(1)}}
	right := rowContext{columns: []string{"t2.a"}, row: types.Row{types.NewInteger(2)}}
	e := newJoinEvaluator(left, right)

	v, err := e.eval(parser.FieldExpression{Name: "t1.a"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Int)

	v, err = e.eval(parser.FieldExpression{Name: "t2.a"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), v.Int)
}

func TestEvalComparisonShortCircuitsOnNull(t *testing.T) {
	e := newEvaluator(rowContext{})
	v, err := e.eval(parser.BinaryExpression{
		Op:    parser.OpEqual,
		Left:  parser.LiteralExpression{Value: types.NullValue},
		Right: parser.LiteralExpression{Value: types.NewInteger(1)},
	})
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}

func TestEvalComparisonCoercesIntegerAndFloat(t *testing.T) {
	e := newEvaluator(rowContext{})
	v, err := e.eval(parser.BinaryExpression{
		Op:    parser.OpEqual,
		Left:  parser.LiteralExpression{Value: types.NewInteger(1)},
		Right: parser.LiteralExpression{Value: types.NewFloat(1.0)},
	})
	require.NoError(t, err)
	assert.True(t, v.Bool)
}

func TestEvalComparisonRejectsMixedTypes(t *testing.T) {
	e := newEvaluator(rowContext{})
	_, err := e.eval(parser.BinaryExpression{
		Op:    parser.OpEqual,
		Left:  parser.LiteralExpression{Value: types.NewInteger(1)},
		Right: parser.LiteralExpression{Value: types.NewString("1")},
	})
	assert.Error(t, err)
}

func TestEvalAndThreeValuedLogic(t *testing.T) {
	e := newEvaluator(rowContext{})

	// false AND NULL = false.
	v, err := e.eval(parser.BinaryExpression{
		Op:    parser.OpAnd,
		Left:  parser.LiteralExpression{Value: types.NewBoolean(false)},
		Right: parser.LiteralExpression{Value: types.NullValue},
	})
	require.NoError(t, err)
	assert.False(t, v.Bool)

	// true OR NULL = true.
	v, err = e.eval(parser.BinaryExpression{
		Op:    parser.OpOr,
		Left:  parser.LiteralExpression{Value: types.NewBoolean(true)},
		Right: parser.LiteralExpression{Value: types.NullValue},
	})
	require.NoError(t, err)
	assert.True(t, v.Bool)
}

func TestEvalPredicateRejectsNonBoolean(t *testing.T) {
	e := newEvaluator(rowContext{})
	_, err := evalPredicate(e, parser.LiteralExpression{Value: types.NewInteger(1)})
	assert.Error(t, err)
}

func TestEvalPredicateTreatsNullAsFalse(t *testing.T) {
	e := newEvaluator(rowContext{})
	ok, err := evalPredicate(e, parser.LiteralExpression{Value: types.NullValue})
	require.NoError(t, err)
	assert.False(t, ok)
}
