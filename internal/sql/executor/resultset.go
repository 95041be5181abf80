// Package executor implements the pull-style operator tree of spec §4.6:
// each executor consumes its child's rows and produces a ResultSet. There is
// no lazy iterator protocol here (unlike internal/kv's double-ended
// Iterator) — tuplebase materializes a statement's whole result in memory at
// once, matching the source's Vec<Row>-returning executors and spec §4.6's
// "returns all rows" phrasing throughout.
package executor

import (
	"github.com/tuplebase/tuplebase/internal/sql/plan"
	"github.com/tuplebase/tuplebase/internal/sql/types"
)

// ResultSet is the outcome of executing one plan.Node, per spec §4.6.
// Exactly one field group is meaningful, selected by Kind.
type ResultSet struct {
	Kind ResultKind

	// Scan-shaped result (SELECT).
	Columns []string
	Rows    []types.Row

	// DDL/DML counts and names.
	Count         int
	Name          string
	Names         []string
	ExplainOutput string
}

// ResultKind tags which ResultSet variant is populated.
type ResultKind int

const (
	KindScan ResultKind = iota
	KindCreateDatabase
	KindDropDatabase
	KindUseDatabase
	KindCreateTable
	KindDropTable
	KindInsert
	KindUpdate
	KindDelete
	KindExplain
)

// explainResultSet builds the supplemental EXPLAIN result (SPEC_FULL §7): the
// plan tree rendered as text, no execution performed.
func explainResultSet(node plan.Node) ResultSet {
	return ResultSet{Kind: KindExplain, ExplainOutput: node.String()}
}
