package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUsersSchema() Schema {
	return NewSchema(
		Field{Name: "id", TP: Int},
		Field{Name: "name", TP: String},
	)
}

func TestMemStorageCatalog(t *testing.T) {
	mem := NewMemStorage()
	require.Nil(t, mem.CreateTable("users", testUsersSchema()))
	assert.NotNil(t, mem.CreateTable("users", testUsersSchema()))

	schema, err := mem.SchemaOf("users")
	require.Nil(t, err)
	assert.Equal(t, "users", schema.Fields[0].TableName)
	assert.Equal(t, int64(0), mem.EstimatedRowCount("users"))
	assert.Equal(t, RowCountUnknown, mem.EstimatedRowCount("missing"))

	_, err = mem.SchemaOf("missing")
	assert.NotNil(t, err)
}

func TestMemStorageInsertAndCursor(t *testing.T) {
	mem := NewMemStorage()
	require.Nil(t, mem.CreateTable("users", testUsersSchema()))
	require.Nil(t, mem.Insert("users", Row{NewIntDatum(1), NewStringDatum("ada")}))
	require.Nil(t, mem.Insert("users", Row{NewIntDatum(2), NewStringDatum("bob")}))

	// Type and arity mismatches are rejected.
	assert.NotNil(t, mem.Insert("users", Row{NewIntDatum(3)}))
	assert.NotNil(t, mem.Insert("users", Row{NewStringDatum("3"), NewStringDatum("x")}))

	cursor, err := mem.OpenCursor("users")
	require.Nil(t, err)
	require.Nil(t, cursor.Open())

	row, err := cursor.Next()
	require.Nil(t, err)
	assert.Equal(t, int64(1), row[0].I)
	row, err = cursor.Next()
	require.Nil(t, err)
	assert.Equal(t, int64(2), row[0].I)
	row, err = cursor.Next()
	require.Nil(t, err)
	assert.Nil(t, row)

	require.Nil(t, cursor.Close())
	_, err = cursor.Next()
	assert.NotNil(t, err)
}
