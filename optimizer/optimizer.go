package optimizer

import (
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/HuichuanLI/play-with-data-base/executor"
	"github.com/HuichuanLI/play-with-data-base/plan"
	"github.com/HuichuanLI/play-with-data-base/storage"
)

// defaultSortSpillThreshold is the estimated row count above which a sort
// goes external.
const defaultSortSpillThreshold = 1 << 17

// Optimizer is the rule-based lowering pass from logical to physical trees.
// It is deterministic: a fixed rule list applied bottom-up in a single pass,
// first match wins, no rule re-triggers on its own output, so optimizing
// the same logical tree twice yields structurally identical physical trees
// in time linear in tree size.
type Optimizer struct {
	rules []Rule
	ctx   Context
}

type Option func(*Optimizer)

func WithLogger(logger log.Logger) Option {
	return func(o *Optimizer) { o.ctx.Logger = logger }
}

// WithSortSpillThreshold overrides the external-sort row threshold. Zero
// disables external sorting.
func WithSortSpillThreshold(rows int64) Option {
	return func(o *Optimizer) { o.ctx.SortSpillThreshold = rows }
}

// WithRules replaces the rule list. Order is priority order.
func WithRules(rules []Rule) Option {
	return func(o *Optimizer) { o.rules = rules }
}

func New(cat storage.Catalog, opts ...Option) *Optimizer {
	o := &Optimizer{
		rules: DefaultRules(),
		ctx: Context{
			Catalog:            cat,
			SortSpillThreshold: defaultSortSpillThreshold,
			Logger:             log.NewNopLogger(),
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Optimize lowers a logical tree into an executable physical tree. The
// physical tree is structurally isomorphic to the logical tree: same shape,
// same schema at every position.
func (o *Optimizer) Optimize(node plan.LogicalPlan) (executor.PhysicalPlan, error) {
	children := node.Children()
	lowered := make([]executor.PhysicalPlan, len(children))
	for i, child := range children {
		physical, err := o.Optimize(child)
		if err != nil {
			return nil, err
		}
		lowered[i] = physical
	}
	for _, rule := range o.rules {
		if !rule.Match(node, lowered) {
			continue
		}
		physical, err := rule.Apply(&o.ctx, node, lowered)
		if err != nil {
			return nil, err
		}
		level.Debug(o.ctx.Logger).Log(
			"msg", "applied rule",
			"rule", rule.Name(),
			"logical", node.String(),
			"physical", physical.String(),
			"estimated_rows", physical.EstimatedRows(),
		)
		return physical, nil
	}
	return nil, noRuleError(node)
}

func noRuleError(node plan.LogicalPlan) error {
	switch t := node.(type) {
	case *plan.Join:
		if t.Condition == nil {
			return errors.Wrapf(ErrUnsupportedJoin, "%s has no equality condition", t.Tp)
		}
		return errors.Wrapf(ErrUnsupportedJoin,
			"%s on %s is not a conjunction of column equalities", t.Tp, t.Condition)
	case *plan.GroupAggregate:
		return errors.Wrapf(ErrUnsupportedAggregate, "group keys of %s are not hashable", t)
	default:
		return errors.Wrapf(ErrNoRule, "logical node %s", node)
	}
}
