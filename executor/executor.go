package executor

import (
	"fmt"
	"strings"

	"github.com/HuichuanLI/play-with-data-base/storage"
)

// PhysicalPlan is a physical operator bound to a concrete execution
// strategy. Every operator follows the same pull protocol:
//
//   - Open acquires operator-local resources, children first. It must be
//     called exactly once before Next. When a child fails to open, resources
//     the operator already acquired are released before the error surfaces.
//   - Next produces the next output row, or a nil row once exhausted. Pull
//     is synchronous and single-threaded per tree: a parent calls Next on
//     demand and never reads ahead, so memory stays bounded to one in-flight
//     row per stage except where an operator explicitly buffers
//     (HashAggregate, the HashJoin build side, SortExec).
//   - Close releases resources on every exit path, self first and then
//     children in reverse open order. It is idempotent and safe to call at
//     any point after Open, including before exhaustion.
//
// One tree instance serves exactly one execution; re-running a query needs
// a freshly lowered tree.
type PhysicalPlan interface {
	Schema() storage.Schema
	Children() []PhysicalPlan
	// EstimatedRows is the optimizer's row count estimate for this operator,
	// or storage.RowCountUnknown.
	EstimatedRows() int64
	String() string

	Open() error
	Next() (storage.Row, error)
	Close() error
}

// Explain renders a physical tree as indented text.
func Explain(p PhysicalPlan) string {
	var sb strings.Builder
	explainNode(&sb, p, 0)
	return sb.String()
}

func explainNode(sb *strings.Builder, p PhysicalPlan, depth int) {
	fmt.Fprintf(sb, "%s%s\n", strings.Repeat("  ", depth), p)
	for _, child := range p.Children() {
		explainNode(sb, child, depth+1)
	}
}

// closeAll closes operators in reverse order, keeping the first error.
func closeAll(plans ...PhysicalPlan) error {
	var firstErr error
	for i := len(plans) - 1; i >= 0; i-- {
		if err := plans[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
