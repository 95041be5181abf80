// Package engine is the SQL-level storage boundary, grounded on
// original_source/src/sql/engine/kv.rs's KVEngine/KVTransaction shape but
// with every operation that source left as a stub (commit, rollback,
// create_database, drop_database, drop_table, create_row, update_row,
// delete_row, scan_table, and get_table's unreachable tail) fully
// implemented, per spec §4.3/§4.6/§4.7.
package engine

import (
	"golang.org/x/exp/slices"

	"github.com/tuplebase/tuplebase/internal/errs"
	"github.com/tuplebase/tuplebase/internal/mvcc"
	"github.com/tuplebase/tuplebase/internal/sql/txn"
	"github.com/tuplebase/tuplebase/internal/sql/types"
)

// KVEngine is the txn.Engine backed by an MVCC store over a byte-KV engine —
// the only engine tuplebase ships, matching the source's KVEngine<E>.
type KVEngine struct {
	mvcc *mvcc.Mvcc
}

// NewKVEngine wraps an already-constructed MVCC store.
func NewKVEngine(m *mvcc.Mvcc) *KVEngine {
	return &KVEngine{mvcc: m}
}

// Begin opens a new snapshot-isolated transaction.
func (e *KVEngine) Begin() (txn.Transaction, error) {
	t, err := e.mvcc.Begin()
	if err != nil {
		return nil, err
	}
	return &KVTransaction{txn: t}, nil
}

// KVTransaction wraps one mvcc.Transaction, translating the SQL-level
// catalog/row operations into the TableSchema/Row key space (internal/sql/
// engine/key.go) before delegating to the byte-level transaction. Matches
// the source's KVTransaction<E>{ txn: MvccTransaction<E> }.
type KVTransaction struct {
	txn *mvcc.Transaction
}

var _ txn.Transaction = (*KVTransaction)(nil)

func (t *KVTransaction) Commit() error   { return t.txn.Commit() }
func (t *KVTransaction) Rollback() error { return t.txn.Rollback() }

func (t *KVTransaction) CreateDatabase(name string) error {
	key := encodeDatabaseKey(name)
	if _, ok, err := t.txn.Get(key); err != nil {
		return err
	} else if ok {
		return errs.New(errs.TableExists, "database %q already exists", name)
	}
	return t.txn.Set(key, nil)
}

func (t *KVTransaction) DropDatabase(name string) error {
	key := encodeDatabaseKey(name)
	if _, ok, err := t.txn.Get(key); err != nil {
		return err
	} else if !ok {
		return errs.New(errs.TableNotFound, "database %q does not exist", name)
	}
	return t.txn.Delete(key)
}

func (t *KVTransaction) GetDatabaseNames() ([]string, error) {
	results, err := t.txn.ScanPrefix(databasePrefix())
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(results))
	for _, r := range results {
		name, err := decodeDatabaseKey(r.Key)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (t *KVTransaction) CreateTable(table types.Table) error {
	if _, ok, err := t.GetTable(table.Name); err != nil {
		return err
	} else if ok {
		return errs.New(errs.TableExists, "table %q already exists", table.Name)
	}
	if err := table.Validate(); err != nil {
		return err
	}
	payload, err := types.EncodeTable(table)
	if err != nil {
		return err
	}
	return t.txn.Set(encodeTableSchemaKey(table.Name), payload)
}

func (t *KVTransaction) DropTable(name string) error {
	if _, ok, err := t.GetTable(name); err != nil {
		return err
	} else if !ok {
		return errs.New(errs.TableNotFound, "table %q not found", name)
	}
	results, err := t.txn.ScanPrefix(rowPrefix(name))
	if err != nil {
		return err
	}
	for _, r := range results {
		if err := t.txn.Delete(r.Key); err != nil {
			return err
		}
	}
	return t.txn.Delete(encodeTableSchemaKey(name))
}

func (t *KVTransaction) GetTable(name string) (types.Table, bool, error) {
	b, ok, err := t.txn.Get(encodeTableSchemaKey(name))
	if err != nil {
		return types.Table{}, false, err
	}
	if !ok {
		return types.Table{}, false, nil
	}
	table, err := types.DecodeTable(b)
	if err != nil {
		return types.Table{}, false, err
	}
	return table, true, nil
}

func (t *KVTransaction) GetTableNames() ([]string, error) {
	results, err := t.txn.ScanPrefix(tableSchemaPrefix())
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(results))
	for _, r := range results {
		name, err := decodeTableSchemaKey(r.Key)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (t *KVTransaction) rowKey(table types.Table, pk types.Value) ([]byte, error) {
	encodedPK, err := encodePrimaryKey(pk)
	if err != nil {
		return nil, err
	}
	return encodeRowKey(table.Name, encodedPK), nil
}

func (t *KVTransaction) CreateRow(table types.Table, row types.Row) error {
	pk, err := table.PrimaryKeyValue(row)
	if err != nil {
		return err
	}
	key, err := t.rowKey(table, pk)
	if err != nil {
		return err
	}
	if _, ok, err := t.txn.Get(key); err != nil {
		return err
	} else if ok {
		return errs.New(errs.Internal, "primary key %s already exists in table %q", pk.String(), table.Name)
	}
	payload, err := types.EncodeRow(row)
	if err != nil {
		return err
	}
	return t.txn.Set(key, payload)
}

func (t *KVTransaction) UpdateRow(table types.Table, oldPK types.Value, row types.Row) error {
	newPK, err := table.PrimaryKeyValue(row)
	if err != nil {
		return err
	}
	payload, err := types.EncodeRow(row)
	if err != nil {
		return err
	}
	if newPK.Equal(oldPK) {
		key, err := t.rowKey(table, oldPK)
		if err != nil {
			return err
		}
		return t.txn.Set(key, payload)
	}

	oldKey, err := t.rowKey(table, oldPK)
	if err != nil {
		return err
	}
	newKey, err := t.rowKey(table, newPK)
	if err != nil {
		return err
	}
	if _, ok, err := t.txn.Get(newKey); err != nil {
		return err
	} else if ok {
		return errs.New(errs.Internal, "primary key %s already exists in table %q", newPK.String(), table.Name)
	}
	if err := t.txn.Delete(oldKey); err != nil {
		return err
	}
	return t.txn.Set(newKey, payload)
}

func (t *KVTransaction) DeleteRow(table types.Table, pk types.Value) error {
	key, err := t.rowKey(table, pk)
	if err != nil {
		return err
	}
	return t.txn.Delete(key)
}

func (t *KVTransaction) GetRow(table types.Table, pk types.Value) (types.Row, bool, error) {
	key, err := t.rowKey(table, pk)
	if err != nil {
		return nil, false, err
	}
	b, ok, err := t.txn.Get(key)
	if err != nil || !ok {
		return nil, ok, err
	}
	row, err := types.DecodeRow(b)
	return row, true, err
}

func (t *KVTransaction) ScanTable(table types.Table) ([]types.Row, error) {
	results, err := t.txn.ScanPrefix(rowPrefix(table.Name))
	if err != nil {
		return nil, err
	}
	rows := make([]types.Row, 0, len(results))
	for _, r := range results {
		row, err := types.DecodeRow(r.Value)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
