package executor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HuichuanLI/play-with-data-base/plan"
	"github.com/HuichuanLI/play-with-data-base/storage"
)

func sortFixture(external bool, rows []storage.Row, keys ...plan.SortKey) (*SortExec, *stubPlan, error) {
	child := &stubPlan{
		schema: storage.NewSchema(field("k", storage.Int), field("seq", storage.Int)),
		rows:   rows,
	}
	s, err := NewSortExec(keys, external, child.schema, child, int64(len(rows)))
	return s, child, err
}

func TestSortExecInMemory(t *testing.T) {
	rows := []storage.Row{intRow(2, 0), intRow(1, 1), intRow(2, 2), intRow(1, 3)}
	s, child, err := sortFixture(false, rows,
		plan.SortKey{Expr: column(0, "k", storage.Int)})
	require.Nil(t, err)
	require.Nil(t, s.Open())

	out := drainAll(t, s)
	require.Len(t, out, 4)
	// Stable: equal keys keep input order.
	assert.Equal(t, intRow(1, 1), out[0])
	assert.Equal(t, intRow(1, 3), out[1])
	assert.Equal(t, intRow(2, 0), out[2])
	assert.Equal(t, intRow(2, 2), out[3])

	require.Nil(t, s.Close())
	assert.True(t, child.closed)
}

func TestSortExecDescending(t *testing.T) {
	rows := []storage.Row{intRow(1, 0), intRow(3, 1), intRow(2, 2)}
	s, _, err := sortFixture(false, rows,
		plan.SortKey{Expr: column(0, "k", storage.Int), Desc: true})
	require.Nil(t, err)
	require.Nil(t, s.Open())

	out := drainAll(t, s)
	require.Len(t, out, 3)
	assert.Equal(t, int64(3), out[0][0].I)
	assert.Equal(t, int64(2), out[1][0].I)
	assert.Equal(t, int64(1), out[2][0].I)
	require.Nil(t, s.Close())
}

func TestSortExecMultiKey(t *testing.T) {
	rows := []storage.Row{intRow(1, 5), intRow(2, 1), intRow(1, 2), intRow(2, 9)}
	s, _, err := sortFixture(false, rows,
		plan.SortKey{Expr: column(0, "k", storage.Int)},
		plan.SortKey{Expr: column(1, "seq", storage.Int), Desc: true})
	require.Nil(t, err)
	require.Nil(t, s.Open())

	out := drainAll(t, s)
	require.Len(t, out, 4)
	assert.Equal(t, intRow(1, 5), out[0])
	assert.Equal(t, intRow(1, 2), out[1])
	assert.Equal(t, intRow(2, 9), out[2])
	assert.Equal(t, intRow(2, 1), out[3])
	require.Nil(t, s.Close())
}

func TestSortExecExternal(t *testing.T) {
	var rows []storage.Row
	for i := int64(0); i < 9; i++ {
		rows = append(rows, intRow((i*5)%9, i))
	}
	s, child, err := sortFixture(true, rows,
		plan.SortKey{Expr: column(0, "k", storage.Int)})
	require.Nil(t, err)
	s.SpillRunRows = 2 // force several spilled runs

	require.Nil(t, s.Open())
	out := drainAll(t, s)
	require.Len(t, out, len(rows))
	for i := range out {
		assert.Equal(t, int64(i), out[i][0].I)
	}

	require.Nil(t, s.Close())
	assert.True(t, child.closed)
}

func TestSortExecExternalStable(t *testing.T) {
	// Equal keys spread across spill runs still come back in input order.
	var rows []storage.Row
	for i := int64(0); i < 8; i++ {
		rows = append(rows, intRow(i%2, i))
	}
	s, _, err := sortFixture(true, rows,
		plan.SortKey{Expr: column(0, "k", storage.Int)})
	require.Nil(t, err)
	s.SpillRunRows = 3

	require.Nil(t, s.Open())
	out := drainAll(t, s)
	require.Len(t, out, 8)
	var prevKey, prevSeq int64 = -1, -1
	for _, row := range out {
		if row[0].I == prevKey {
			assert.Greater(t, row[1].I, prevSeq, "ties must keep input order")
		} else {
			assert.Greater(t, row[0].I, prevKey)
		}
		prevKey, prevSeq = row[0].I, row[1].I
	}
	require.Nil(t, s.Close())
}

func TestSortExecNextBeforeOpen(t *testing.T) {
	s, _, err := sortFixture(false, nil, plan.SortKey{Expr: column(0, "k", storage.Int)})
	require.Nil(t, err)
	_, err = s.Next()
	assert.True(t, IsExecutionError(err))
}

func TestSortExecString(t *testing.T) {
	s, _, err := sortFixture(true, nil,
		plan.SortKey{Expr: column(0, "k", storage.Int), Desc: true})
	require.Nil(t, err)
	assert.Equal(t, fmt.Sprintf("SortExec(%s desc, external)", column(0, "k", storage.Int)), s.String())
}
