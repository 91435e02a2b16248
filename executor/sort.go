package executor

import (
	"bufio"
	"container/heap"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/HuichuanLI/play-with-data-base/plan"
	"github.com/HuichuanLI/play-with-data-base/storage"
)

// defaultSpillRunRows is how many rows an external sort buffers per run
// before spilling it.
const defaultSpillRunRows = 1 << 14

// SortExec fully drains its child during Open and sorts by the declared
// keys with a stable comparator: ties keep their original relative order.
// The optimizer picks the in-memory path or, above its row estimate
// threshold, the external path which spills sorted runs to temporary files
// and merge-reads them.
type SortExec struct {
	Keys []plan.SortKey
	// External selects the spill-to-disk strategy. Chosen at lowering time
	// from the child's estimated row count.
	External     bool
	SpillRunRows int

	schema storage.Schema
	rows   int64
	child  PhysicalPlan
	keyFns []evalFunc

	// in-memory state
	sorted []keyedRow
	i      int

	// external state
	runFiles []*os.File
	merge    *mergeHeap

	opened bool
	closed bool
}

// keyedRow pairs a row with its evaluated sort key so comparisons never
// re-evaluate expressions. Fields are exported for gob.
type keyedRow struct {
	Keys storage.Row
	Row  storage.Row
}

func NewSortExec(keys []plan.SortKey, external bool, schema storage.Schema, child PhysicalPlan, rows int64) (*SortExec, error) {
	keyFns := make([]evalFunc, len(keys))
	for i, k := range keys {
		fn, err := compileExpr(k.Expr)
		if err != nil {
			return nil, err
		}
		keyFns[i] = fn
	}
	return &SortExec{
		Keys: keys, External: external, SpillRunRows: defaultSpillRunRows,
		schema: schema, rows: rows, child: child, keyFns: keyFns,
	}, nil
}

func (s *SortExec) Schema() storage.Schema { return s.schema }

func (s *SortExec) Children() []PhysicalPlan { return []PhysicalPlan{s.child} }

func (s *SortExec) EstimatedRows() int64 { return s.rows }

func (s *SortExec) String() string {
	keys := make([]string, len(s.Keys))
	for i, k := range s.Keys {
		keys[i] = k.String()
	}
	strategy := "memory"
	if s.External {
		strategy = "external"
	}
	return fmt.Sprintf("SortExec(%s, %s)", strings.Join(keys, ", "), strategy)
}

// compareKeys orders two evaluated key tuples honoring per-key direction.
// Key expressions are planner typed, a comparison error cannot order the
// rows so they rank as equal.
func (s *SortExec) compareKeys(a, b storage.Row) int {
	for i := range s.Keys {
		cmp, err := a[i].Compare(b[i])
		if err != nil {
			continue
		}
		if s.Keys[i].Desc {
			cmp = -cmp
		}
		if cmp != 0 {
			return cmp
		}
	}
	return 0
}

func (s *SortExec) Open() error {
	if err := s.child.Open(); err != nil {
		return err
	}
	var err error
	if s.External {
		err = s.openExternal()
	} else {
		err = s.openInMemory()
	}
	if err != nil {
		s.releaseBuffers()
		return err
	}
	s.opened = true
	return nil
}

func (s *SortExec) openInMemory() error {
	for {
		row, err := s.child.Next()
		if err != nil {
			return err
		}
		if row == nil {
			break
		}
		keys, err := evalKey(s.keyFns, row)
		if err != nil {
			return execError(s.String(), err)
		}
		s.sorted = append(s.sorted, keyedRow{Keys: keys, Row: row})
	}
	sort.SliceStable(s.sorted, func(i, j int) bool {
		return s.compareKeys(s.sorted[i].Keys, s.sorted[j].Keys) < 0
	})
	return nil
}

func (s *SortExec) openExternal() error {
	run := make([]keyedRow, 0, s.SpillRunRows)
	for {
		row, err := s.child.Next()
		if err != nil {
			return err
		}
		if row == nil {
			break
		}
		keys, err := evalKey(s.keyFns, row)
		if err != nil {
			return execError(s.String(), err)
		}
		run = append(run, keyedRow{Keys: keys, Row: row})
		if len(run) >= s.SpillRunRows {
			if err := s.spillRun(run); err != nil {
				return err
			}
			run = run[:0]
		}
	}
	if len(run) > 0 {
		if err := s.spillRun(run); err != nil {
			return err
		}
	}
	return s.openMerge()
}

// spillRun sorts one run and writes it to a temporary file.
func (s *SortExec) spillRun(run []keyedRow) error {
	sort.SliceStable(run, func(i, j int) bool {
		return s.compareKeys(run[i].Keys, run[j].Keys) < 0
	})
	f, err := os.CreateTemp("", "sort-run-*.bin")
	if err != nil {
		return execError(s.String(), err)
	}
	s.runFiles = append(s.runFiles, f)
	w := bufio.NewWriter(f)
	enc := gob.NewEncoder(w)
	for _, kr := range run {
		if err := enc.Encode(kr); err != nil {
			return execError(s.String(), err)
		}
	}
	if err := w.Flush(); err != nil {
		return execError(s.String(), err)
	}
	return nil
}

func (s *SortExec) openMerge() error {
	s.merge = &mergeHeap{sorter: s}
	for i, f := range s.runFiles {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return execError(s.String(), err)
		}
		cursor := &runCursor{index: i, dec: gob.NewDecoder(bufio.NewReader(f))}
		ok, err := cursor.advance()
		if err != nil {
			return execError(s.String(), err)
		}
		if ok {
			s.merge.cursors = append(s.merge.cursors, cursor)
		}
	}
	heap.Init(s.merge)
	return nil
}

func (s *SortExec) Next() (storage.Row, error) {
	if !s.opened || s.closed {
		return nil, execError(s.String(), errNotOpen)
	}
	if !s.External {
		if s.i >= len(s.sorted) {
			return nil, nil
		}
		row := s.sorted[s.i].Row
		s.i++
		return row, nil
	}
	if s.merge.Len() == 0 {
		return nil, nil
	}
	top := s.merge.cursors[0]
	row := top.current.Row
	ok, err := top.advance()
	if err != nil {
		return nil, execError(s.String(), err)
	}
	if ok {
		heap.Fix(s.merge, 0)
	} else {
		heap.Pop(s.merge)
	}
	return row, nil
}

func (s *SortExec) releaseBuffers() {
	s.sorted = nil
	s.merge = nil
	for _, f := range s.runFiles {
		f.Close()
		os.Remove(f.Name())
	}
	s.runFiles = nil
}

func (s *SortExec) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.releaseBuffers()
	return s.child.Close()
}

// runCursor reads one spilled run back in sorted order.
type runCursor struct {
	index   int
	dec     *gob.Decoder
	current keyedRow
}

func (c *runCursor) advance() (bool, error) {
	var kr keyedRow
	if err := c.dec.Decode(&kr); err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	c.current = kr
	return true, nil
}

// mergeHeap merges run cursors. Ties break toward the run spilled first,
// keeping the overall sort stable because runs are spilled in input order.
type mergeHeap struct {
	sorter  *SortExec
	cursors []*runCursor
}

func (h *mergeHeap) Len() int { return len(h.cursors) }

func (h *mergeHeap) Less(i, j int) bool {
	cmp := h.sorter.compareKeys(h.cursors[i].current.Keys, h.cursors[j].current.Keys)
	if cmp != 0 {
		return cmp < 0
	}
	return h.cursors[i].index < h.cursors[j].index
}

func (h *mergeHeap) Swap(i, j int) {
	h.cursors[i], h.cursors[j] = h.cursors[j], h.cursors[i]
}

func (h *mergeHeap) Push(x any) {
	h.cursors = append(h.cursors, x.(*runCursor))
}

func (h *mergeHeap) Pop() any {
	last := h.cursors[len(h.cursors)-1]
	h.cursors = h.cursors[:len(h.cursors)-1]
	return last
}
