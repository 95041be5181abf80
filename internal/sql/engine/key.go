package engine

import (
	"math"

	"github.com/tuplebase/tuplebase/internal/errs"
	"github.com/tuplebase/tuplebase/internal/keycode"
	"github.com/tuplebase/tuplebase/internal/sql/types"
)

// The SQL layer's key space sits on top of the raw byte keys that
// internal/mvcc.Transaction versions, per spec §3: TableSchema(name) ->
// serialized Table, Row(table, pk) -> serialized Row. mvcc.Transaction has
// no idea these tags exist; to it they are just the raw keys it versions.
const (
	tagTableSchema byte = iota
	tagRow
	tagDatabase
)

// Primary-key value tags, ordered Boolean < Integer < Float < String so a
// Row key built from any of the four scalar types stays order-preserving
// within a table's key range even though the grammar never mixes PK types
// across rows of the same table.
const (
	pkBoolean byte = iota
	pkInteger
	pkFloat
	pkString
)

func encodeTableSchemaKey(table string) []byte {
	return keycode.NewEncoder().Tag(tagTableSchema).String(table).Finish()
}

// tableSchemaPrefix returns the prefix shared by every TableSchema(*) key,
// used to enumerate every table name in the catalog.
func tableSchemaPrefix() []byte {
	return []byte{tagTableSchema}
}

func decodeTableSchemaKey(key []byte) (table string, err error) {
	d := keycode.NewDecoder(key)
	if _, err = d.Tag(); err != nil {
		return "", err
	}
	return d.String()
}

// encodePrimaryKey renders a primary-key Value as order-preserving bytes,
// tagged by its runtime type.
func encodePrimaryKey(v types.Value) ([]byte, error) {
	enc := keycode.NewEncoder()
	switch v.Kind {
	case types.KindBoolean:
		enc.Tag(pkBoolean).Bool(v.Bool)
	case types.KindInteger:
		enc.Tag(pkInteger).Int64(v.Int)
	case types.KindFloat:
		// Floats are not part of the total byte order here (spec leaves
		// float-keyed primary keys an edge case); encoding the bit pattern
		// keeps encode/decode exact even though ordering is not guaranteed.
		enc.Tag(pkFloat).Uint64(math.Float64bits(v.Flt))
	case types.KindString:
		enc.Tag(pkString).String(v.Str)
	default:
		return nil, errs.New(errs.Internal, "engine: primary key cannot be NULL")
	}
	return enc.Finish(), nil
}

// encodeRowKey builds the Row(table, pk) key, embedding the already-tagged
// primary-key encoding as a nested byte string so Row keys stay
// self-delimiting and table-prefix scans never cross into another table.
func encodeRowKey(table string, encodedPK []byte) []byte {
	return keycode.NewEncoder().Tag(tagRow).String(table).Bytes(encodedPK).Finish()
}

// rowPrefix returns the prefix shared by every row of table, for
// Transaction.ScanTable.
func rowPrefix(table string) []byte {
	return keycode.NewEncoder().Tag(tagRow).String(table).Finish()
}

func encodeDatabaseKey(name string) []byte {
	return keycode.NewEncoder().Tag(tagDatabase).String(name).Finish()
}

func databasePrefix() []byte {
	return []byte{tagDatabase}
}

func decodeDatabaseKey(key []byte) (name string, err error) {
	d := keycode.NewDecoder(key)
	if _, err = d.Tag(); err != nil {
		return "", err
	}
	return d.String()
}
