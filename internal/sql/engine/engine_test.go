package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuplebase/tuplebase/internal/kv"
	"github.com/tuplebase/tuplebase/internal/mvcc"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	m := mvcc.New(kv.NewMemoryEngine())
	return NewSession(NewKVEngine(m))
}

func TestCreateTableInsertSelect(t *testing.T) {
	s := newTestSession(t)
	_, err := s.Execute(`create table users (id int primary key, name varchar not null, age int default 0);`)
	require.NoError(t, err)

	_, err = s.Execute(`insert into users (id, name) values (1, 'alice'), (2, 'bob');`)
	require.NoError(t, err)

	rs, err := s.Execute(`select name from users order by id;`)
	require.NoError(t, err)
	require.Len(t, rs.Rows, 2)
	assert.Equal(t, "alice", rs.Rows[0][0].Str)
	assert.Equal(t, "bob", rs.Rows[1][0].Str)
}

func TestInsertRemapsOutOfOrderColumnList(t *testing.T) {
	s := newTestSession(t)
	_, err := s.Execute(`create table users (id int primary key, name varchar not null, age int default 0);`)
	require.NoError(t, err)

	_, err = s.Execute(`insert into users (name, id) values ('carol', 3);`)
	require.NoError(t, err)

	rs, err := s.Execute(`select id, name, age from users;`)
	require.NoError(t, err)
	require.Len(t, rs.Rows, 1)
	assert.Equal(t, int64(3), rs.Rows[0][0].Int)
	assert.Equal(t, "carol", rs.Rows[0][1].Str)
	assert.Equal(t, int64(0), rs.Rows[0][2].Int)
}

func TestInsertRejectsDuplicatePrimaryKey(t *testing.T) {
	s := newTestSession(t)
	_, err := s.Execute(`create table t (id int primary key);`)
	require.NoError(t, err)
	_, err = s.Execute(`insert into t values (1);`)
	require.NoError(t, err)
	_, err = s.Execute(`insert into t values (1);`)
	assert.Error(t, err)
}

func TestUpdateChangesPrimaryKey(t *testing.T) {
	s := newTestSession(t)
	_, err := s.Execute(`create table t (id int primary key, v int);`)
	require.NoError(t, err)
	_, err = s.Execute(`insert into t values (1, 10);`)
	require.NoError(t, err)

	_, err = s.Execute(`update t set id = 2 where id = 1;`)
	require.NoError(t, err)

	rs, err := s.Execute(`select id, v from t;`)
	require.NoError(t, err)
	require.Len(t, rs.Rows, 1)
	assert.Equal(t, int64(2), rs.Rows[0][0].Int)
}

func TestDeleteRemovesRow(t *testing.T) {
	s := newTestSession(t)
	_, err := s.Execute(`create table t (id int primary key);`)
	require.NoError(t, err)
	_, err = s.Execute(`insert into t values (1), (2);`)
	require.NoError(t, err)
	_, err = s.Execute(`delete from t where id = 1;`)
	require.NoError(t, err)

	rs, err := s.Execute(`select id from t;`)
	require.NoError(t, err)
	require.Len(t, rs.Rows, 1)
	assert.Equal(t, int64(2), rs.Rows[0][0].Int)
}

func TestFailedStatementRollsBack(t *testing.T) {
	s := newTestSession(t)
	_, err := s.Execute(`create table t (id int primary key, v int not null);`)
	require.NoError(t, err)
	_, err = s.Execute(`insert into t values (1, 1);`)
	require.NoError(t, err)

	_, err = s.Execute(`insert into t values (1, 2);`)
	assert.Error(t, err)

	rs, err := s.Execute(`select v from t where id = 1;`)
	require.NoError(t, err)
	require.Len(t, rs.Rows, 1)
	assert.Equal(t, int64(1), rs.Rows[0][0].Int)
}

func TestJoinAcrossTables(t *testing.T) {
	s := newTestSession(t)
	_, err := s.Execute(`create table a (id int primary key);`)
	require.NoError(t, err)
	_, err = s.Execute(`create table b (id int primary key, a_id int not null);`)
	require.NoError(t, err)
	_, err = s.Execute(`insert into a values (1), (2);`)
	require.NoError(t, err)
	_, err = s.Execute(`insert into b values (10, 1);`)
	require.NoError(t, err)

	rs, err := s.Execute(`select a.id from a left join b on a.id = b.a_id;`)
	require.NoError(t, err)
	require.Len(t, rs.Rows, 2)
}

func TestAggregateCountAndSum(t *testing.T) {
	s := newTestSession(t)
	_, err := s.Execute(`create table t (id int primary key, v int not null);`)
	require.NoError(t, err)
	_, err = s.Execute(`insert into t values (1, 10), (2, 20), (3, 30);`)
	require.NoError(t, err)

	rs, err := s.Execute(`select count(v), sum(v) from t;`)
	require.NoError(t, err)
	require.Len(t, rs.Rows, 1)
	assert.Equal(t, int64(3), rs.Rows[0][0].Int)
	assert.Equal(t, 60.0, rs.Rows[0][1].Flt)
}

func TestExplainDoesNotExecute(t *testing.T) {
	s := newTestSession(t)
	_, err := s.Execute(`create table t (id int primary key);`)
	require.NoError(t, err)

	rs, err := s.Execute(`explain select * from t;`)
	require.NoError(t, err)
	assert.Contains(t, rs.ExplainOutput, "Scan(t)")
}

func TestGetTableNamesAndSchema(t *testing.T) {
	s := newTestSession(t)
	_, err := s.Execute(`create table t (id int primary key);`)
	require.NoError(t, err)

	names, err := s.GetTableNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"t"}, names)

	schema, err := s.GetTable("t")
	require.NoError(t, err)
	assert.Contains(t, schema, "CREATE TABLE t")
}

func TestSelectWhereFiltersRows(t *testing.T) {
	s := newTestSession(t)
	_, err := s.Execute(`create table t (id int primary key, v int not null);`)
	require.NoError(t, err)
	_, err = s.Execute(`insert into t values (1, 10), (2, 20), (3, 30);`)
	require.NoError(t, err)

	rs, err := s.Execute(`select id from t where v > 15;`)
	require.NoError(t, err)
	require.Len(t, rs.Rows, 2)
	assert.Equal(t, int64(2), rs.Rows[0][0].Int)
	assert.Equal(t, int64(3), rs.Rows[1][0].Int)
}

func TestSelectOrderByDescLimitOffset(t *testing.T) {
	s := newTestSession(t)
	_, err := s.Execute(`create table t (id int primary key);`)
	require.NoError(t, err)
	_, err = s.Execute(`insert into t values (1), (2), (3), (4);`)
	require.NoError(t, err)

	rs, err := s.Execute(`select id from t order by id desc limit 2 offset 1;`)
	require.NoError(t, err)
	require.Len(t, rs.Rows, 2)
	assert.Equal(t, int64(3), rs.Rows[0][0].Int)
	assert.Equal(t, int64(2), rs.Rows[1][0].Int)
}

func TestGroupByPartitionsRows(t *testing.T) {
	s := newTestSession(t)
	_, err := s.Execute(`create table t (id int primary key, grp varchar not null, v int not null);`)
	require.NoError(t, err)
	_, err = s.Execute(`insert into t values (1, 'a', 10), (2, 'a', 20), (3, 'b', 5);`)
	require.NoError(t, err)

	rs, err := s.Execute(`select grp, sum(v) from t group by grp order by grp;`)
	require.NoError(t, err)
	require.Len(t, rs.Rows, 2)
	assert.Equal(t, "a", rs.Rows[0][0].Str)
	assert.Equal(t, 30.0, rs.Rows[0][1].Flt)
	assert.Equal(t, "b", rs.Rows[1][0].Str)
	assert.Equal(t, 5.0, rs.Rows[1][1].Flt)
}

func TestDropTableRemovesRows(t *testing.T) {
	s := newTestSession(t)
	_, err := s.Execute(`create table t (id int primary key);`)
	require.NoError(t, err)
	_, err = s.Execute(`insert into t values (1);`)
	require.NoError(t, err)
	_, err = s.Execute(`drop table t;`)
	require.NoError(t, err)

	_, err = s.Execute(`select * from t;`)
	assert.Error(t, err)
}
