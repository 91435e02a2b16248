package executor

import (
	"fmt"

	"github.com/HuichuanLI/play-with-data-base/storage"
)

// TableScan reads a table through the catalog's row cursor. Rows carry the
// catalog-declared schema.
type TableScan struct {
	Table string

	schema storage.Schema
	rows   int64
	cat    storage.Catalog

	cursor storage.Cursor
	closed bool
}

func NewTableScan(table string, schema storage.Schema, cat storage.Catalog, rows int64) *TableScan {
	return &TableScan{Table: table, schema: schema, cat: cat, rows: rows}
}

func (s *TableScan) Schema() storage.Schema { return s.schema }

func (s *TableScan) Children() []PhysicalPlan { return nil }

func (s *TableScan) EstimatedRows() int64 { return s.rows }

func (s *TableScan) String() string {
	return fmt.Sprintf("TableScan(%s, rows~%d)", s.Table, s.rows)
}

func (s *TableScan) Open() error {
	cursor, err := s.cat.OpenCursor(s.Table)
	if err != nil {
		return execError(s.String(), err)
	}
	if err := cursor.Open(); err != nil {
		cursor.Close()
		return execError(s.String(), err)
	}
	s.cursor = cursor
	return nil
}

func (s *TableScan) Next() (storage.Row, error) {
	if s.cursor == nil || s.closed {
		return nil, execError(s.String(), errNotOpen)
	}
	row, err := s.cursor.Next()
	if err != nil {
		return nil, execError(s.String(), err)
	}
	return row, nil
}

func (s *TableScan) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.cursor == nil {
		return nil
	}
	return s.cursor.Close()
}
