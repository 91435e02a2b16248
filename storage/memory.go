package storage

import (
	"sync"

	"github.com/pkg/errors"
)

// MemStorage is an in-memory catalog plus table store. It backs tests and
// embedded use, there is no durability.
type MemStorage struct {
	mu     sync.RWMutex
	tables map[string]*memTable
}

type memTable struct {
	schema Schema
	rows   []Row
}

func NewMemStorage() *MemStorage {
	return &MemStorage{tables: map[string]*memTable{}}
}

// CreateTable registers a table with the given schema. Field table names are
// forced to the table's own name so resolution behaves like a real catalog.
func (m *MemStorage) CreateTable(name string, schema Schema) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[name]; ok {
		return errors.Errorf("table %s already exists", name)
	}
	fields := make([]Field, len(schema.Fields))
	for i, f := range schema.Fields {
		f.TableName = name
		fields[i] = f
	}
	m.tables[name] = &memTable{schema: Schema{Fields: fields}}
	return nil
}

// Insert appends a row. The row must match the table schema positionally.
func (m *MemStorage) Insert(name string, row Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	table, ok := m.tables[name]
	if !ok {
		return errors.Errorf("table %s does not exist", name)
	}
	if len(row) != table.schema.NumFields() {
		return errors.Errorf("row has %d values, table %s has %d columns",
			len(row), name, table.schema.NumFields())
	}
	for i, d := range row {
		if d.TP != table.schema.Fields[i].TP {
			return errors.Errorf("column %s expects %s, got %s",
				table.schema.Fields[i].Name, table.schema.Fields[i].TP, d.TP)
		}
	}
	table.rows = append(table.rows, row.Clone())
	return nil
}

func (m *MemStorage) SchemaOf(tableName string) (Schema, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	table, ok := m.tables[tableName]
	if !ok {
		return Schema{}, errors.Errorf("table %s does not exist", tableName)
	}
	return table.schema, nil
}

func (m *MemStorage) EstimatedRowCount(tableName string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	table, ok := m.tables[tableName]
	if !ok {
		return RowCountUnknown
	}
	return int64(len(table.rows))
}

func (m *MemStorage) OpenCursor(tableName string) (Cursor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	table, ok := m.tables[tableName]
	if !ok {
		return nil, errors.Errorf("table %s does not exist", tableName)
	}
	// Snapshot the row slice so a scan is stable against later inserts.
	rows := make([]Row, len(table.rows))
	copy(rows, table.rows)
	return &memCursor{rows: rows}, nil
}

type memCursor struct {
	rows   []Row
	i      int
	opened bool
	closed bool
}

func (c *memCursor) Open() error {
	if c.opened {
		return errors.New("cursor already opened")
	}
	c.opened = true
	return nil
}

func (c *memCursor) Next() (Row, error) {
	if !c.opened || c.closed {
		return nil, errors.New("cursor is not open")
	}
	if c.i >= len(c.rows) {
		return nil, nil
	}
	row := c.rows[c.i]
	c.i++
	return row, nil
}

func (c *memCursor) Close() error {
	c.closed = true
	return nil
}
