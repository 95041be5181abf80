package types

import (
	"fmt"

	"github.com/tuplebase/tuplebase/internal/errs"
)

// Column describes one attribute of a Table, per spec §3.
type Column struct {
	Name         string
	DataType     DataType
	Nullable     bool
	Default      *Value
	IsPrimaryKey bool
}

// Table is an ordered sequence of Columns under a name, per spec §3.
type Table struct {
	Name    string
	Columns []Column
}

// Validate enforces the invariants spec §3 states for a Table: at least one
// column, exactly one primary key, non-empty and unique column names, and
// default values whose runtime type matches the declared column type.
func (t Table) Validate() error {
	if len(t.Columns) == 0 {
		return errs.New(errs.Internal, "table %q must have at least one column", t.Name)
	}

	seen := make(map[string]bool, len(t.Columns))
	primaryKeys := 0
	for _, col := range t.Columns {
		if col.Name == "" {
			return errs.New(errs.Internal, "table %q has a column with an empty name", t.Name)
		}
		if seen[col.Name] {
			return errs.New(errs.Internal, "table %q has duplicate column %q", t.Name, col.Name)
		}
		seen[col.Name] = true

		if col.IsPrimaryKey {
			primaryKeys++
		}
		if col.Default != nil && !col.Default.IsNull() {
			dt, ok := col.Default.DataType()
			if !ok || dt != col.DataType {
				return errs.New(errs.Internal, "column %q default type does not match declared type %s", col.Name, col.DataType)
			}
		}
	}
	if primaryKeys != 1 {
		return errs.New(errs.Internal, "table %q must have exactly one primary key column, found %d", t.Name, primaryKeys)
	}
	return nil
}

// ColumnIndex returns the position of the named column, or -1.
func (t Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// PrimaryKeyIndex returns the position of the primary key column. Validate
// guarantees this always succeeds for a validated Table.
func (t Table) PrimaryKeyIndex() int {
	for i, c := range t.Columns {
		if c.IsPrimaryKey {
			return i
		}
	}
	return -1
}

// PrimaryKeyValue extracts the primary key cell from row.
func (t Table) PrimaryKeyValue(row Row) (Value, error) {
	idx := t.PrimaryKeyIndex()
	if idx < 0 || idx >= len(row) {
		return Value{}, errs.New(errs.Internal, "table %q: row has no primary key column", t.Name)
	}
	return row[idx], nil
}

// String renders a human-readable CREATE TABLE-shaped schema description,
// used by Session.GetTable / SHOW TABLE.
func (t Table) String() string {
	out := fmt.Sprintf("CREATE TABLE %s (\n", t.Name)
	for i, c := range t.Columns {
		out += fmt.Sprintf("  %s %s", c.Name, c.DataType)
		if c.IsPrimaryKey {
			out += " PRIMARY KEY"
		}
		if !c.Nullable {
			out += " NOT NULL"
		}
		if c.Default != nil {
			out += fmt.Sprintf(" DEFAULT %s", c.Default.String())
		}
		if i < len(t.Columns)-1 {
			out += ","
		}
		out += "\n"
	}
	out += ")"
	return out
}
