package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuplebase/tuplebase/internal/sql/types"
)

func TestParseCreateTable(t *testing.T) {
	stmt, err := Parse(`create table tbl1 (
		a int primary key,
		b float not null,
		c varchar null,
		d bool default true
	);`)
	require.NoError(t, err)
	ct, ok := stmt.(CreateTableStatement)
	require.True(t, ok)
	assert.Equal(t, "tbl1", ct.Name)
	require.Len(t, ct.Columns, 4)
	assert.Equal(t, "a", ct.Columns[0].Name)
	assert.True(t, ct.Columns[0].IsPrimaryKey)
	assert.Equal(t, types.Integer, ct.Columns[0].DataType)
	require.NotNil(t, ct.Columns[1].Nullable)
	assert.False(t, *ct.Columns[1].Nullable)
	require.NotNil(t, ct.Columns[2].Nullable)
	assert.True(t, *ct.Columns[2].Nullable)
	require.NotNil(t, ct.Columns[3].Default)
}

func TestParseCreateTableMissingSemicolonErrors(t *testing.T) {
	_, err := Parse(`create table tbl1 (a int primary key)`)
	assert.Error(t, err)
}

func TestParseInsertNoColumns(t *testing.T) {
	stmt, err := Parse(`insert into tbl1 values (1, 2, 3, 'a', true);`)
	require.NoError(t, err)
	ins, ok := stmt.(InsertStatement)
	require.True(t, ok)
	assert.Equal(t, "tbl1", ins.Table)
	assert.Nil(t, ins.Columns)
	require.Len(t, ins.Values, 1)
	assert.Equal(t, LiteralExpression{Value: types.NewInteger(1)}, ins.Values[0][0])
	assert.Equal(t, LiteralExpression{Value: types.NewString("a")}, ins.Values[0][3])
}

func TestParseInsertWithColumnsMultiRow(t *testing.T) {
	stmt, err := Parse(`insert into tbl2 (c1, c2, c3) values (3, 'a', true), (4, 'b', false);`)
	require.NoError(t, err)
	ins, ok := stmt.(InsertStatement)
	require.True(t, ok)
	assert.Equal(t, []string{"c1", "c2", "c3"}, ins.Columns)
	require.Len(t, ins.Values, 2)
}

func TestParseSelectStar(t *testing.T) {
	stmt, err := Parse(`select * from tbl1;`)
	require.NoError(t, err)
	sel, ok := stmt.(SelectStatement)
	require.True(t, ok)
	assert.Nil(t, sel.Columns)
	tbl, ok := sel.From.(TableFromItem)
	require.True(t, ok)
	assert.Equal(t, "tbl1", tbl.Name)
}

func TestParseSelectWithWhereAndOrderAndLimit(t *testing.T) {
	stmt, err := Parse(`select a, b as bb from tbl1 where a = 1 and b <> 2 order by a desc, b limit 10 offset 20;`)
	require.NoError(t, err)
	sel, ok := stmt.(SelectStatement)
	require.True(t, ok)
	require.Len(t, sel.Columns, 2)
	assert.Equal(t, "bb", sel.Columns[1].Alias)
	require.NotNil(t, sel.Where)
	require.Len(t, sel.OrderBy, 2)
	assert.Equal(t, Desc, sel.OrderBy[0].Direction)
	assert.Equal(t, Asc, sel.OrderBy[1].Direction)
	assert.Equal(t, LiteralExpression{Value: types.NewInteger(10)}, sel.Limit)
	assert.Equal(t, LiteralExpression{Value: types.NewInteger(20)}, sel.Offset)
}

func TestParseSelectJoin(t *testing.T) {
	stmt, err := Parse(`select * from t1 left join t2 on t1.id = t2.id;`)
	require.NoError(t, err)
	sel, ok := stmt.(SelectStatement)
	require.True(t, ok)
	join, ok := sel.From.(JoinFromItem)
	require.True(t, ok)
	assert.Equal(t, JoinLeft, join.Type)
	require.NotNil(t, join.On)
}

func TestParseRightJoin(t *testing.T) {
	stmt, err := Parse(`select * from t1 right join t2 on t1.id = t2.id;`)
	require.NoError(t, err)
	sel := stmt.(SelectStatement)
	join := sel.From.(JoinFromItem)
	assert.Equal(t, JoinRight, join.Type)
}

func TestParseUpdate(t *testing.T) {
	stmt, err := Parse(`update tbl1 set a = 1, b = 2 where c = 3 and d = 4;`)
	require.NoError(t, err)
	upd, ok := stmt.(UpdateStatement)
	require.True(t, ok)
	require.Len(t, upd.Set, 2)
	assert.Equal(t, "a", upd.Set[0].Column)
	require.NotNil(t, upd.Where)
}

func TestParseUpdateDuplicateColumnErrors(t *testing.T) {
	_, err := Parse(`update tbl1 set a = 1, a = 2;`)
	assert.Error(t, err)
}

func TestParseDelete(t *testing.T) {
	stmt, err := Parse(`delete from tbl1 where a = 1;`)
	require.NoError(t, err)
	del, ok := stmt.(DeleteStatement)
	require.True(t, ok)
	assert.Equal(t, "tbl1", del.Table)
	require.NotNil(t, del.Where)
}

func TestParseGroupByHaving(t *testing.T) {
	stmt, err := Parse(`select b, min(c) from t1 group by b having min(c) > 1;`)
	require.NoError(t, err)
	sel, ok := stmt.(SelectStatement)
	require.True(t, ok)
	require.NotNil(t, sel.GroupBy)
	require.NotNil(t, sel.Having)
	_, ok = sel.Columns[1].Expr.(FunctionExpression)
	assert.True(t, ok)
}

func TestParseExplain(t *testing.T) {
	stmt, err := Parse(`explain select * from t1;`)
	require.NoError(t, err)
	exp, ok := stmt.(ExplainStatement)
	require.True(t, ok)
	_, ok = exp.Inner.(SelectStatement)
	assert.True(t, ok)
}

func TestParseStringEscaping(t *testing.T) {
	stmt, err := Parse(`insert into t values ('it''s here');`)
	require.NoError(t, err)
	ins := stmt.(InsertStatement)
	assert.Equal(t, LiteralExpression{Value: types.NewString("it's here")}, ins.Values[0][0])
}

func TestParseCreateDatabaseDropUse(t *testing.T) {
	stmt, err := Parse(`create database d1;`)
	require.NoError(t, err)
	assert.Equal(t, CreateDatabaseStatement{Name: "d1"}, stmt)

	stmt, err = Parse(`drop database d1;`)
	require.NoError(t, err)
	assert.Equal(t, DropDatabaseStatement{Name: "d1"}, stmt)

	stmt, err = Parse(`use d1;`)
	require.NoError(t, err)
	assert.Equal(t, UseDatabaseStatement{Name: "d1"}, stmt)
}
