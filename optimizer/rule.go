package optimizer

import (
	"github.com/go-kit/log"

	"github.com/HuichuanLI/play-with-data-base/executor"
	"github.com/HuichuanLI/play-with-data-base/plan"
	"github.com/HuichuanLI/play-with-data-base/storage"
)

// Context carries what rules need to size and build physical operators.
type Context struct {
	Catalog storage.Catalog
	// SortSpillThreshold is the estimated row count at which SortExec
	// switches to the external strategy.
	SortSpillThreshold int64
	Logger             log.Logger
}

// Rule lowers one kind of logical node to a physical operator. Rules are
// tried in a fixed order and the first match wins; traversal is bottom-up,
// so Match and Apply see the children already in physical form and may
// inspect their strategy and estimated output size.
type Rule interface {
	Name() string
	Match(node plan.LogicalPlan, children []executor.PhysicalPlan) bool
	Apply(ctx *Context, node plan.LogicalPlan, children []executor.PhysicalPlan) (executor.PhysicalPlan, error)
}

// DefaultRules is the engine's rule set, in priority order. Every logical
// node kind has at least one rule; joins and aggregates carry matching
// conditions and fail planning when nothing applies.
func DefaultRules() []Rule {
	return []Rule{
		scanRule{},
		filterRule{},
		projectRule{},
		hashAggregateRule{},
		hashJoinRule{},
		sortRule{},
		limitRule{},
	}
}
