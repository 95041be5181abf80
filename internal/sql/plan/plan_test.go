package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuplebase/tuplebase/internal/sql/parser"
	"github.com/tuplebase/tuplebase/internal/sql/types"
)

func buildSQL(t *testing.T, sql string) Node {
	t.Helper()
	stmt, err := parser.Parse(sql)
	require.NoError(t, err)
	node, err := Build(stmt)
	require.NoError(t, err)
	return node
}

func TestBuildSelectWhereFoldsIntoScan(t *testing.T) {
	node := buildSQL(t, `select * from t1 where a = 1;`)
	scan, ok := node.(*ScanNode)
	require.True(t, ok)
	assert.NotNil(t, scan.Filter)
}

func TestBuildSelectWhereOverJoinBecomesFilter(t *testing.T) {
	node := buildSQL(t, `select * from t1 join t2 on t1.id = t2.id where t1.a = 1;`)
	filter, ok := node.(*FilterNode)
	require.True(t, ok)
	_, ok = filter.Source.(*JoinNode)
	assert.True(t, ok)
}

func TestBuildRightJoinRewrittenToLeft(t *testing.T) {
	node := buildSQL(t, `select * from t1 right join t2 on t1.id = t2.id;`)
	join, ok := node.(*JoinNode)
	require.True(t, ok)
	assert.Equal(t, parser.JoinLeft, join.Type)

	leftScan, ok := join.Left.(*ScanNode)
	require.True(t, ok)
	assert.Equal(t, "t2", leftScan.Table)
	rightScan, ok := join.Right.(*ScanNode)
	require.True(t, ok)
	assert.Equal(t, "t1", rightScan.Table)

	on, ok := join.On.(parser.BinaryExpression)
	require.True(t, ok)
	left, ok := on.Left.(parser.FieldExpression)
	require.True(t, ok)
	assert.Equal(t, "t2.id", left.Name)
}

func TestBuildSelectOrdersLimitOffsetProjection(t *testing.T) {
	node := buildSQL(t, `select a from t1 order by a limit 1 offset 2;`)
	proj, ok := node.(*ProjectionNode)
	require.True(t, ok)
	limit, ok := proj.Source.(*LimitNode)
	require.True(t, ok)
	offset, ok := limit.Source.(*OffsetNode)
	require.True(t, ok)
	_, ok = offset.Source.(*OrderByNode)
	assert.True(t, ok)
}

func TestBuildSelectAggregateDetectedFromFunctionColumn(t *testing.T) {
	node := buildSQL(t, `select b, min(c) from t1 group by b having min(c) > 1;`)
	filter, ok := node.(*FilterNode)
	require.True(t, ok)
	_, ok = filter.Source.(*AggregateNode)
	assert.True(t, ok)
}

func TestBuildUpdateWrapsScan(t *testing.T) {
	node := buildSQL(t, `update t1 set a = 1 where b = 2;`)
	upd, ok := node.(*UpdateNode)
	require.True(t, ok)
	scan, ok := upd.Source.(*ScanNode)
	require.True(t, ok)
	assert.NotNil(t, scan.Filter)
}

func TestBuildDeleteWrapsScan(t *testing.T) {
	node := buildSQL(t, `delete from t1 where a = 1;`)
	del, ok := node.(*DeleteNode)
	require.True(t, ok)
	_, ok = del.Source.(*ScanNode)
	assert.True(t, ok)
}

func TestBuildCreateTableDefaultingRules(t *testing.T) {
	node := buildSQL(t, `create table t1 (
		a int primary key,
		b float not null,
		c varchar null,
		d bool default true
	);`)
	ct, ok := node.(*CreateTableNode)
	require.True(t, ok)
	cols := ct.Table.Columns

	// a: primary key, nullable defaults to false, defaultless.
	assert.False(t, cols[0].Nullable)
	assert.Nil(t, cols[0].Default)

	// b: NOT NULL with no default -> defaultless.
	assert.False(t, cols[1].Nullable)
	assert.Nil(t, cols[1].Default)

	// c: nullable with no default -> Null default.
	assert.True(t, cols[2].Nullable)
	require.NotNil(t, cols[2].Default)
	assert.True(t, cols[2].Default.IsNull())

	// d: no explicit nullability (defaults to true, not PK) with a literal default.
	assert.True(t, cols[3].Nullable)
	require.NotNil(t, cols[3].Default)
	assert.Equal(t, types.NewBoolean(true), *cols[3].Default)
}

func TestBuildCreateTableRejectsNonLiteralDefault(t *testing.T) {
	_, err := parser.Parse(`create table t1 (a int primary key);`)
	require.NoError(t, err)

	stmt := parser.CreateTableStatement{
		Name: "t1",
		Columns: []parser.ColumnDef{
			{Name: "a", DataType: types.Integer, IsPrimaryKey: true},
			{Name: "b", DataType: types.Integer, Default: parser.FieldExpression{Name: "a"}},
		},
	}
	_, err = Build(stmt)
	assert.Error(t, err)
}

func TestExplainWrapsInnerPlan(t *testing.T) {
	node := buildSQL(t, `explain select * from t1;`)
	exp, ok := node.(*ExplainNode)
	require.True(t, ok)
	_, ok = exp.Inner.(*ScanNode)
	assert.True(t, ok)
}
