package optimizer

import "errors"

var (
	// ErrUnsupportedJoin marks a join no rule can lower, e.g. a non-equality
	// condition or an outer join. Planning aborts.
	ErrUnsupportedJoin = errors.New("unsupported join")
	// ErrUnsupportedAggregate marks an aggregation no rule can lower.
	ErrUnsupportedAggregate = errors.New("unsupported aggregate")
	// ErrNoRule marks a logical node outside the join/aggregate cases that
	// no rule matched. This is a fatal planning error, never a silent
	// pass-through.
	ErrNoRule = errors.New("no applicable rule")
)
