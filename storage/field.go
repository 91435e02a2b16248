package storage

import "fmt"

// FieldTP is the scalar type of a column.
type FieldTP byte

const (
	Int FieldTP = iota
	Float
	String
	Bool
)

func (tp FieldTP) String() string {
	switch tp {
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case Bool:
		return "bool"
	default:
		return "unknown"
	}
}

// IsNumeric reports whether values of this type support arithmetic.
func (tp FieldTP) IsNumeric() bool {
	return tp == Int || tp == Float
}

// Field is one column of a schema. TableName qualifies the column for
// resolution, it can be an alias rather than the catalog table name.
type Field struct {
	TableName string  `json:"table_name"`
	Name      string  `json:"name"`
	TP        FieldTP `json:"tp"`
}

func (f Field) String() string {
	if f.TableName == "" {
		return f.Name
	}
	return fmt.Sprintf("%s.%s", f.TableName, f.Name)
}

// Schema is an ordered sequence of fields. It is immutable once attached to
// a plan node: derived schemas are built fresh rather than mutated.
type Schema struct {
	Fields []Field `json:"fields"`
}

func NewSchema(fields ...Field) Schema {
	return Schema{Fields: fields}
}

func (s Schema) NumFields() int {
	return len(s.Fields)
}

// Merge returns the concatenation of s and other, left fields first.
func (s Schema) Merge(other Schema) Schema {
	fields := make([]Field, 0, len(s.Fields)+len(other.Fields))
	fields = append(fields, s.Fields...)
	fields = append(fields, other.Fields...)
	return Schema{Fields: fields}
}

// Resolve finds the positions of columns matching the given qualifier and
// name. An empty qualifier matches any table, so a bare column name can hit
// more than one field after a join.
func (s Schema) Resolve(tableName, name string) (positions []int) {
	for i, f := range s.Fields {
		if f.Name != name {
			continue
		}
		if tableName != "" && f.TableName != tableName {
			continue
		}
		positions = append(positions, i)
	}
	return positions
}

// Equal reports whether two schemas have the same fields in the same order.
func (s Schema) Equal(other Schema) bool {
	if len(s.Fields) != len(other.Fields) {
		return false
	}
	for i, f := range s.Fields {
		if f != other.Fields[i] {
			return false
		}
	}
	return true
}
