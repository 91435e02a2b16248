package storage

// RowCountUnknown is returned by EstimatedRowCount when the catalog has no
// statistics for a table.
const RowCountUnknown int64 = -1

// Catalog is the storage boundary of the engine. The planner resolves table
// references through SchemaOf, the optimizer sizes hash joins and sorts
// through EstimatedRowCount, and table scans read rows through OpenCursor.
// The engine performs no I/O besides this interface.
type Catalog interface {
	// SchemaOf returns the declared schema of a table, or an error when the
	// table does not exist.
	SchemaOf(tableName string) (Schema, error)
	// EstimatedRowCount returns the approximate number of rows in a table,
	// or RowCountUnknown.
	EstimatedRowCount(tableName string) int64
	// OpenCursor returns a fresh row cursor over a table. The cursor follows
	// the same Open/Next/Close discipline as physical operators.
	OpenCursor(tableName string) (Cursor, error)
}

// Cursor iterates rows of a single table. Next returns a nil row once the
// table is exhausted. Close must be safe to call at any point after Open.
type Cursor interface {
	Open() error
	Next() (Row, error)
	Close() error
}
