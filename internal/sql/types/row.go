package types

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/tuplebase/tuplebase/internal/errs"
)

// Row is an ordered tuple of Values, one per Column of its Table, per spec §3.
type Row []Value

// Clone returns a deep-enough copy of row (Value is itself immutable data, so
// a slice copy suffices to avoid aliasing the backing array).
func (r Row) Clone() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	opts := cbor.CanonicalEncOptions()
	m, err := opts.EncMode()
	if err != nil {
		panic(err)
	}
	encMode = m

	dopts := cbor.DecOptions{}
	dm, err := dopts.DecMode()
	if err != nil {
		panic(err)
	}
	decMode = dm
}

// EncodeRow serializes row to its compact binary on-disk form, per spec §4.2
// ("values are stored using a compact binary serialization"). CBOR gives a
// canonical, self-describing encoding without hand-rolled framing.
func EncodeRow(row Row) ([]byte, error) {
	b, err := encMode.Marshal([]Value(row))
	if err != nil {
		return nil, errs.Wrap(errs.Encode, err, "encode row")
	}
	return b, nil
}

// DecodeRow is the inverse of EncodeRow.
func DecodeRow(b []byte) (Row, error) {
	var vs []Value
	if err := decMode.Unmarshal(b, &vs); err != nil {
		return nil, errs.Wrap(errs.Decode, err, "decode row")
	}
	return Row(vs), nil
}

// tableDisk mirrors Table with an explicit cbor tag on every field, keeping
// the wire form stable even if Table's Go fields are renamed.
type tableDisk struct {
	Name    string       `cbor:"name"`
	Columns []columnDisk `cbor:"columns"`
}

type columnDisk struct {
	Name         string   `cbor:"name"`
	DataType     DataType `cbor:"data_type"`
	Nullable     bool     `cbor:"nullable"`
	Default      *Value   `cbor:"default,omitempty"`
	IsPrimaryKey bool     `cbor:"is_primary_key"`
}

// EncodeTable serializes a table schema for storage in the catalog, per
// spec §4.2's table-schema payload.
func EncodeTable(t Table) ([]byte, error) {
	td := tableDisk{Name: t.Name, Columns: make([]columnDisk, len(t.Columns))}
	for i, c := range t.Columns {
		td.Columns[i] = columnDisk{
			Name:         c.Name,
			DataType:     c.DataType,
			Nullable:     c.Nullable,
			Default:      c.Default,
			IsPrimaryKey: c.IsPrimaryKey,
		}
	}
	b, err := encMode.Marshal(td)
	if err != nil {
		return nil, errs.Wrap(errs.Encode, err, "encode table %q", t.Name)
	}
	return b, nil
}

// DecodeTable is the inverse of EncodeTable.
func DecodeTable(b []byte) (Table, error) {
	var td tableDisk
	if err := decMode.Unmarshal(b, &td); err != nil {
		return Table{}, errs.Wrap(errs.Decode, err, "decode table")
	}
	t := Table{Name: td.Name, Columns: make([]Column, len(td.Columns))}
	for i, c := range td.Columns {
		t.Columns[i] = Column{
			Name:         c.Name,
			DataType:     c.DataType,
			Nullable:     c.Nullable,
			Default:      c.Default,
			IsPrimaryKey: c.IsPrimaryKey,
		}
	}
	return t, nil
}
