package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitStatementsSplitsOnSemicolon(t *testing.T) {
	got := splitStatements("create table t (id int primary key); insert into t values (1);")
	assert.Equal(t, []string{
		"create table t (id int primary key);",
		"insert into t values (1);",
	}, got)
}

func TestSplitStatementsIgnoresSemicolonInString(t *testing.T) {
	got := splitStatements(`insert into t values (1, 'a;b');`)
	assert.Equal(t, []string{`insert into t values (1, 'a;b');`}, got)
}

func TestSplitStatementsDropsTrailingWhitespace(t *testing.T) {
	got := splitStatements("select 1;\n\n  ")
	assert.Equal(t, []string{"select 1;"}, got)
}
