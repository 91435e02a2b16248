package executor

import (
	"fmt"
	"strings"

	"github.com/HuichuanLI/play-with-data-base/plan"
	"github.com/HuichuanLI/play-with-data-base/storage"
)

// HashJoin executes an inner equi join. Open fully drains the build side
// into a hash table keyed by the join columns; Next streams the probe side
// row by row, yielding one joined row per match with cross-product semantics
// for duplicate keys on either side. Output columns are always left schema
// followed by right schema, whichever side was built.
type HashJoin struct {
	LeftKeys  []plan.Expr // relative to the left child's schema
	RightKeys []plan.Expr // relative to the right child's schema
	// BuildRight marks the right child as the build side; otherwise the
	// left child is built.
	BuildRight bool

	left, right PhysicalPlan
	schema      storage.Schema
	rows        int64

	leftKeyFns  []evalFunc
	rightKeyFns []evalFunc

	table   map[uint64][]*joinBucket
	matches []storage.Row
	mi      int
	opened  bool
	closed  bool
}

type joinBucket struct {
	key  storage.Row
	rows []storage.Row
}

func NewHashJoin(left, right PhysicalPlan, leftKeys, rightKeys []plan.Expr,
	buildRight bool, schema storage.Schema, rows int64) (*HashJoin, error) {
	leftKeyFns, err := compileAll(leftKeys)
	if err != nil {
		return nil, err
	}
	rightKeyFns, err := compileAll(rightKeys)
	if err != nil {
		return nil, err
	}
	return &HashJoin{
		LeftKeys: leftKeys, RightKeys: rightKeys, BuildRight: buildRight,
		left: left, right: right, schema: schema, rows: rows,
		leftKeyFns: leftKeyFns, rightKeyFns: rightKeyFns,
	}, nil
}

func (j *HashJoin) Schema() storage.Schema { return j.schema }

func (j *HashJoin) Children() []PhysicalPlan { return []PhysicalPlan{j.left, j.right} }

func (j *HashJoin) EstimatedRows() int64 { return j.rows }

func (j *HashJoin) String() string {
	conds := make([]string, len(j.LeftKeys))
	for i := range j.LeftKeys {
		conds[i] = fmt.Sprintf("%s = %s", j.LeftKeys[i], j.RightKeys[i])
	}
	build := "left"
	if j.BuildRight {
		build = "right"
	}
	return fmt.Sprintf("HashJoin(build: %s, on: %s)", build, strings.Join(conds, " and "))
}

func (j *HashJoin) buildSide() (PhysicalPlan, []evalFunc) {
	if j.BuildRight {
		return j.right, j.rightKeyFns
	}
	return j.left, j.leftKeyFns
}

func (j *HashJoin) probeSide() (PhysicalPlan, []evalFunc) {
	if j.BuildRight {
		return j.left, j.leftKeyFns
	}
	return j.right, j.rightKeyFns
}

func (j *HashJoin) Open() error {
	if err := j.left.Open(); err != nil {
		return err
	}
	if err := j.right.Open(); err != nil {
		j.left.Close()
		return err
	}
	j.table = make(map[uint64][]*joinBucket)
	if err := j.drainBuildSide(); err != nil {
		j.table = nil
		return err
	}
	j.opened = true
	return nil
}

func (j *HashJoin) drainBuildSide() error {
	build, keyFns := j.buildSide()
	for {
		row, err := build.Next()
		if err != nil {
			return err
		}
		if row == nil {
			return nil
		}
		key, err := evalKey(keyFns, row)
		if err != nil {
			return execError(j.String(), err)
		}
		hash := hashKey(key)
		var bucket *joinBucket
		for _, b := range j.table[hash] {
			if keysEqual(b.key, key) {
				bucket = b
				break
			}
		}
		if bucket == nil {
			bucket = &joinBucket{key: key}
			j.table[hash] = append(j.table[hash], bucket)
		}
		bucket.rows = append(bucket.rows, row)
	}
}

func (j *HashJoin) Next() (storage.Row, error) {
	if !j.opened || j.closed {
		return nil, execError(j.String(), errNotOpen)
	}
	for {
		if j.mi < len(j.matches) {
			row := j.matches[j.mi]
			j.mi++
			return row, nil
		}
		probe, keyFns := j.probeSide()
		probeRow, err := probe.Next()
		if err != nil {
			return nil, err
		}
		if probeRow == nil {
			return nil, nil
		}
		key, err := evalKey(keyFns, probeRow)
		if err != nil {
			return nil, execError(j.String(), err)
		}
		j.matches = j.matches[:0]
		j.mi = 0
		for _, b := range j.table[hashKey(key)] {
			if !keysEqual(b.key, key) {
				continue
			}
			for _, buildRow := range b.rows {
				j.matches = append(j.matches, j.joinRows(buildRow, probeRow))
			}
		}
	}
}

// joinRows assembles the output row in left-then-right column order.
func (j *HashJoin) joinRows(buildRow, probeRow storage.Row) storage.Row {
	leftRow, rightRow := buildRow, probeRow
	if j.BuildRight {
		leftRow, rightRow = probeRow, buildRow
	}
	out := make(storage.Row, 0, len(leftRow)+len(rightRow))
	out = append(out, leftRow...)
	out = append(out, rightRow...)
	return out
}

func (j *HashJoin) Close() error {
	if j.closed {
		return nil
	}
	j.closed = true
	j.table = nil
	j.matches = nil
	return closeAll(j.left, j.right)
}
