package executor

import (
	"github.com/HuichuanLI/play-with-data-base/storage"
)

// ResultSet is the execution entry point: a lazy, single-pass, finite row
// sequence over a physical tree. It is not restartable; re-executing a
// query requires lowering a fresh tree.
type ResultSet struct {
	root   PhysicalPlan
	closed bool
}

// NewResultSet opens the physical tree and returns the row sequence. When
// Open fails the tree is closed before the error is returned, so no partial
// open state leaks.
func NewResultSet(root PhysicalPlan) (*ResultSet, error) {
	if err := root.Open(); err != nil {
		root.Close()
		executionErrorsTotal.Inc()
		return nil, err
	}
	queriesTotal.Inc()
	return &ResultSet{root: root}, nil
}

func (rs *ResultSet) Schema() storage.Schema { return rs.root.Schema() }

// Next returns the next output row, or nil once the result is exhausted.
// Errors close the tree; a caller abandoning the result early just calls
// Close without draining.
func (rs *ResultSet) Next() (storage.Row, error) {
	if rs.closed {
		return nil, execError("result set", errNotOpen)
	}
	row, err := rs.root.Next()
	if err != nil {
		executionErrorsTotal.Inc()
		rs.Close()
		return nil, err
	}
	if row != nil {
		rowsEmittedTotal.Inc()
	}
	return row, nil
}

// Close tears the tree down. Safe to call at any point, any number of times.
func (rs *ResultSet) Close() error {
	if rs.closed {
		return nil
	}
	rs.closed = true
	return rs.root.Close()
}

// Drain pulls every remaining row, closing the result afterwards.
func (rs *ResultSet) Drain() ([]storage.Row, error) {
	defer rs.Close()
	var rows []storage.Row
	for {
		row, err := rs.Next()
		if err != nil {
			return nil, err
		}
		if row == nil {
			return rows, nil
		}
		rows = append(rows, row)
	}
}
