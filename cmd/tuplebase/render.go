package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/tuplebase/tuplebase/internal/sql/executor"
	"github.com/tuplebase/tuplebase/internal/sql/types"
)

// splitStatements breaks a script into individual ';'-terminated statements,
// matching internal/sql/parser.Parse's one-statement-at-a-time contract.
// Semicolons inside single-quoted string literals do not split.
func splitStatements(script string) []string {
	var stmts []string
	var cur strings.Builder
	inString := false

	for _, r := range script {
		cur.WriteRune(r)
		switch {
		case r == '\'':
			inString = !inString
		case r == ';' && !inString:
			if s := strings.TrimSpace(cur.String()); s != "" {
				stmts = append(stmts, s)
			}
			cur.Reset()
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		stmts = append(stmts, s)
	}
	return stmts
}

// printResult renders rs the way a psql-style client would: a column
// header and rows for a Scan result, the plan text for an Explain result,
// a one-line summary otherwise.
func printResult(w io.Writer, rs executor.ResultSet) {
	switch rs.Kind {
	case executor.KindScan:
		printTable(w, rs.Columns, rs.Rows)
		fmt.Fprintf(w, "(%d row(s))\n", len(rs.Rows))
	case executor.KindExplain:
		fmt.Fprintln(w, rs.ExplainOutput)
	case executor.KindInsert:
		fmt.Fprintf(w, "INSERT %d\n", rs.Count)
	case executor.KindUpdate:
		fmt.Fprintf(w, "UPDATE %d\n", rs.Count)
	case executor.KindDelete:
		fmt.Fprintf(w, "DELETE %d\n", rs.Count)
	case executor.KindCreateTable:
		fmt.Fprintf(w, "CREATE TABLE %s\n", rs.Name)
	case executor.KindDropTable:
		fmt.Fprintf(w, "DROP TABLE %s\n", rs.Name)
	case executor.KindCreateDatabase:
		fmt.Fprintf(w, "CREATE DATABASE %s\n", rs.Name)
	case executor.KindDropDatabase:
		fmt.Fprintf(w, "DROP DATABASE %s\n", rs.Name)
	case executor.KindUseDatabase:
		fmt.Fprintf(w, "USE %s\n", rs.Name)
	}
}

// printTable renders columns and rows as a fixed-width text table.
func printTable(w io.Writer, columns []string, rows []types.Row) {
	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = len(c)
	}
	cells := make([][]string, len(rows))
	for ri, row := range rows {
		cells[ri] = make([]string, len(columns))
		for ci := range columns {
			s := "?"
			if ci < len(row) {
				s = row[ci].String()
			}
			cells[ri][ci] = s
			if len(s) > widths[ci] {
				widths[ci] = len(s)
			}
		}
	}

	printRow(w, columns, widths)
	sep := make([]string, len(columns))
	for i, wid := range widths {
		sep[i] = strings.Repeat("-", wid)
	}
	printRow(w, sep, widths)
	for _, row := range cells {
		printRow(w, row, widths)
	}
}

func printRow(w io.Writer, cells []string, widths []int) {
	padded := make([]string, len(cells))
	for i, c := range cells {
		padded[i] = c + strings.Repeat(" ", widths[i]-len(c))
	}
	fmt.Fprintln(w, strings.Join(padded, " | "))
}
