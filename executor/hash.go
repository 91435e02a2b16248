package executor

import (
	"github.com/cespare/xxhash/v2"

	"github.com/HuichuanLI/play-with-data-base/storage"
)

// hashKey reduces a key tuple to a bucket hash. Buckets compare the stored
// datums, so hash collisions only cost a scan of the bucket.
func hashKey(key storage.Row) uint64 {
	buf := make([]byte, 0, 16*len(key))
	for _, d := range key {
		buf = d.EncodeKey(buf)
	}
	return xxhash.Sum64(buf)
}

// keysEqual compares key tuples positionally. Key expressions are planner
// typed, so a comparison error means the tuples cannot be the same key.
func keysEqual(a, b storage.Row) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		cmp, err := a[i].Compare(b[i])
		if err != nil || cmp != 0 {
			return false
		}
	}
	return true
}

// evalKey evaluates the key expressions against one row.
func evalKey(fns []evalFunc, row storage.Row) (storage.Row, error) {
	key := make(storage.Row, len(fns))
	for i, fn := range fns {
		d, err := fn(row)
		if err != nil {
			return nil, err
		}
		key[i] = d
	}
	return key, nil
}
