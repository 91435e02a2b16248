package executor

import (
	"fmt"
	"strings"

	"github.com/HuichuanLI/play-with-data-base/plan"
	"github.com/HuichuanLI/play-with-data-base/storage"
)

// HashAggregate fully drains its child during Open, building a hash table
// keyed by the group-key tuple with running aggregate state per key. Next
// then yields one row per distinct key, group keys first, aggregate results
// after. Output order carries no guarantee; wrap in SortExec for one.
type HashAggregate struct {
	Keys []plan.Expr
	Aggs []*plan.AggCall

	schema storage.Schema
	rows   int64
	child  PhysicalPlan
	keyFns []evalFunc
	argFns []evalFunc // nil entry for count(*)

	table  map[uint64][]*aggGroup
	groups []*aggGroup // first-seen order, only for iteration
	i      int
	opened bool
	closed bool
}

type aggGroup struct {
	key    storage.Row
	states []aggState
}

func NewHashAggregate(keys []plan.Expr, aggs []*plan.AggCall, schema storage.Schema, child PhysicalPlan, rows int64) (*HashAggregate, error) {
	keyFns, err := compileAll(keys)
	if err != nil {
		return nil, err
	}
	argFns := make([]evalFunc, len(aggs))
	for i, agg := range aggs {
		if agg.Arg == nil {
			continue
		}
		fn, err := compileExpr(agg.Arg)
		if err != nil {
			return nil, err
		}
		argFns[i] = fn
	}
	return &HashAggregate{
		Keys: keys, Aggs: aggs,
		schema: schema, rows: rows, child: child,
		keyFns: keyFns, argFns: argFns,
	}, nil
}

func (h *HashAggregate) Schema() storage.Schema { return h.schema }

func (h *HashAggregate) Children() []PhysicalPlan { return []PhysicalPlan{h.child} }

func (h *HashAggregate) EstimatedRows() int64 { return h.rows }

func (h *HashAggregate) String() string {
	keys := make([]string, len(h.Keys))
	for i, k := range h.Keys {
		keys[i] = k.String()
	}
	aggs := make([]string, len(h.Aggs))
	for i, a := range h.Aggs {
		aggs[i] = a.String()
	}
	return fmt.Sprintf("HashAggregate(keys: %s, aggs: %s)",
		strings.Join(keys, ", "), strings.Join(aggs, ", "))
}

func (h *HashAggregate) Open() error {
	if err := h.child.Open(); err != nil {
		return err
	}
	h.table = make(map[uint64][]*aggGroup)
	if err := h.drain(); err != nil {
		// Release the partially built table before propagating.
		h.table = nil
		h.groups = nil
		return err
	}
	h.opened = true
	return nil
}

func (h *HashAggregate) drain() error {
	for {
		row, err := h.child.Next()
		if err != nil {
			return err
		}
		if row == nil {
			return nil
		}
		key, err := evalKey(h.keyFns, row)
		if err != nil {
			return execError(h.String(), err)
		}
		group := h.lookupOrCreate(key)
		for i := range h.Aggs {
			var arg storage.Datum
			if h.argFns[i] != nil {
				arg, err = h.argFns[i](row)
				if err != nil {
					return execError(h.String(), err)
				}
			}
			if err := group.states[i].update(arg); err != nil {
				return execError(h.String(), err)
			}
		}
	}
}

func (h *HashAggregate) lookupOrCreate(key storage.Row) *aggGroup {
	hash := hashKey(key)
	for _, group := range h.table[hash] {
		if keysEqual(group.key, key) {
			return group
		}
	}
	states := make([]aggState, len(h.Aggs))
	for i, agg := range h.Aggs {
		var argTP storage.FieldTP
		if agg.Arg != nil {
			argTP = agg.Arg.Type()
		}
		states[i] = newAggState(agg.Fn, argTP)
	}
	group := &aggGroup{key: key, states: states}
	h.table[hash] = append(h.table[hash], group)
	h.groups = append(h.groups, group)
	return group
}

func (h *HashAggregate) Next() (storage.Row, error) {
	if !h.opened || h.closed {
		return nil, execError(h.String(), errNotOpen)
	}
	if h.i >= len(h.groups) {
		return nil, nil
	}
	group := h.groups[h.i]
	h.i++
	out := make(storage.Row, 0, len(group.key)+len(group.states))
	out = append(out, group.key...)
	for _, state := range group.states {
		out = append(out, state.result())
	}
	return out, nil
}

func (h *HashAggregate) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	h.table = nil
	h.groups = nil
	return h.child.Close()
}
