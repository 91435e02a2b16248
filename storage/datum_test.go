package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatumCompare(t *testing.T) {
	cmp, err := NewIntDatum(1).Compare(NewIntDatum(2))
	assert.Nil(t, err)
	assert.Equal(t, -1, cmp)

	cmp, err = NewIntDatum(2).Compare(NewFloatDatum(2.0))
	assert.Nil(t, err)
	assert.Equal(t, 0, cmp)

	cmp, err = NewStringDatum("b").Compare(NewStringDatum("a"))
	assert.Nil(t, err)
	assert.Equal(t, 1, cmp)

	cmp, err = NewBoolDatum(false).Compare(NewBoolDatum(true))
	assert.Nil(t, err)
	assert.Equal(t, -1, cmp)

	_, err = NewIntDatum(1).Compare(NewStringDatum("1"))
	assert.NotNil(t, err)
}

func TestDatumEncodeKey(t *testing.T) {
	// Datums that Compare as equal encode alike, numeric values across int
	// and float included.
	assert.Equal(t, NewIntDatum(1).EncodeKey(nil), NewFloatDatum(1.0).EncodeKey(nil))
	assert.Equal(t, NewStringDatum("ab").EncodeKey(nil), NewStringDatum("ab").EncodeKey(nil))
	assert.NotEqual(t, NewIntDatum(0).EncodeKey(nil), NewIntDatum(1).EncodeKey(nil))
	assert.NotEqual(t, NewStringDatum("ab").EncodeKey(nil), NewStringDatum("ac").EncodeKey(nil))
	// A false bool and a numeric zero are incomparable, so they must not
	// land in the same bucket either.
	assert.NotEqual(t, NewBoolDatum(false).EncodeKey(nil), NewIntDatum(0).EncodeKey(nil))
}

func TestSchemaResolve(t *testing.T) {
	schema := NewSchema(
		Field{TableName: "t1", Name: "id", TP: Int},
		Field{TableName: "t2", Name: "id", TP: Int},
		Field{TableName: "t2", Name: "name", TP: String},
	)
	assert.Equal(t, []int{0}, schema.Resolve("t1", "id"))
	assert.Equal(t, []int{0, 1}, schema.Resolve("", "id"))
	assert.Equal(t, []int{2}, schema.Resolve("", "name"))
	assert.Nil(t, schema.Resolve("t3", "id"))
}
