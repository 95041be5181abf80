package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleTable() Table {
	return Table{
		Name: "users",
		Columns: []Column{
			{Name: "id", DataType: Integer, IsPrimaryKey: true},
			{Name: "name", DataType: String, Nullable: true},
		},
	}
}

func TestTableValidate(t *testing.T) {
	assert.NoError(t, sampleTable().Validate())
}

func TestTableValidateRejectsNoColumns(t *testing.T) {
	tbl := Table{Name: "empty"}
	assert.Error(t, tbl.Validate())
}

func TestTableValidateRejectsNoPrimaryKey(t *testing.T) {
	tbl := Table{Name: "t", Columns: []Column{{Name: "a", DataType: Integer}}}
	assert.Error(t, tbl.Validate())
}

func TestTableValidateRejectsMultiplePrimaryKeys(t *testing.T) {
	tbl := Table{Name: "t", Columns: []Column{
		{Name: "a", DataType: Integer, IsPrimaryKey: true},
		{Name: "b", DataType: Integer, IsPrimaryKey: true},
	}}
	assert.Error(t, tbl.Validate())
}

func TestTableValidateRejectsDuplicateNames(t *testing.T) {
	tbl := Table{Name: "t", Columns: []Column{
		{Name: "a", DataType: Integer, IsPrimaryKey: true},
		{Name: "a", DataType: String},
	}}
	assert.Error(t, tbl.Validate())
}

func TestTableValidateRejectsMismatchedDefault(t *testing.T) {
	def := NewString("not an int")
	tbl := Table{Name: "t", Columns: []Column{
		{Name: "a", DataType: Integer, IsPrimaryKey: true, Default: &def},
	}}
	assert.Error(t, tbl.Validate())
}

func TestColumnIndexAndPrimaryKeyValue(t *testing.T) {
	tbl := sampleTable()
	assert.Equal(t, 0, tbl.ColumnIndex("id"))
	assert.Equal(t, 1, tbl.ColumnIndex("name"))
	assert.Equal(t, -1, tbl.ColumnIndex("nope"))

	row := Row{NewInteger(7), NewString("alice")}
	pk, err := tbl.PrimaryKeyValue(row)
	assert.NoError(t, err)
	assert.Equal(t, NewInteger(7), pk)
}
