// Package txn defines the storage-agnostic boundary between the SQL
// executor and whatever engine backs a transaction, per spec §9's "the
// Transaction trait is the interface over the storage engine" design note.
// Keeping this contract in its own package (rather than inside
// internal/sql/engine, which implements it, or internal/sql/executor, which
// calls it) lets both of those packages depend on the same narrow interface
// without depending on each other.
package txn

import "github.com/tuplebase/tuplebase/internal/sql/types"

// Transaction is every catalog and data operation the executor needs to
// drive a single SQL statement, per spec §4.6/§4.7. An implementation is
// expected to be one mvcc.Transaction's worth of isolation: all operations
// on one Transaction value observe a single snapshot and either all commit
// or all roll back together.
type Transaction interface {
	// Commit makes every write permanent. Commit must not be called twice.
	Commit() error
	// Rollback discards every write this transaction made.
	Rollback() error

	// CreateDatabase registers name in the database catalog. It is an error
	// if name is already registered.
	CreateDatabase(name string) error
	// DropDatabase removes name from the database catalog. It is an error
	// if name is not registered.
	DropDatabase(name string) error
	// GetDatabaseNames lists every registered database name.
	GetDatabaseNames() ([]string, error)

	// CreateTable adds table to the catalog. It is an error if a table by
	// that name already exists.
	CreateTable(table types.Table) error
	// DropTable removes a table and every one of its rows. It is an error
	// if the table does not exist.
	DropTable(name string) error
	// GetTable returns a table's schema, or ok=false if it does not exist.
	GetTable(name string) (types.Table, bool, error)
	// GetTableNames lists every table name in the catalog, sorted.
	GetTableNames() ([]string, error)

	// CreateRow inserts row into table. The caller has already validated
	// and defaulted row against the table's schema.
	CreateRow(table types.Table, row types.Row) error
	// UpdateRow replaces the row with primary key oldPK with row's new
	// values, moving it to row's (possibly different) primary key.
	UpdateRow(table types.Table, oldPK types.Value, row types.Row) error
	// DeleteRow removes the row with primary key pk from table.
	DeleteRow(table types.Table, pk types.Value) error
	// GetRow returns the row with primary key pk, or ok=false if absent.
	GetRow(table types.Table, pk types.Value) (types.Row, bool, error)
	// ScanTable returns every row of table, in the byte order of the encoded
	// primary keys: ascending for booleans, strings and non-negative numbers;
	// negative numbers sort after all non-negative ones. Filtering
	// is the executor's responsibility (spec §4.6's Scan rule).
	ScanTable(table types.Table) ([]types.Row, error)
}

// Engine begins new Transactions. A Session holds one Engine and opens one
// implicit Transaction per statement, per spec §4.7.
type Engine interface {
	Begin() (Transaction, error)
}
