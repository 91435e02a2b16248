package plan

import (
	"fmt"
	"strings"
)

// Explain renders a logical tree as indented text, one operator per line,
// children indented under their parent.
func Explain(p LogicalPlan) string {
	var sb strings.Builder
	explainNode(&sb, p, 0)
	return sb.String()
}

func explainNode(sb *strings.Builder, p LogicalPlan, depth int) {
	fmt.Fprintf(sb, "%s%s\n", strings.Repeat("  ", depth), p)
	for _, child := range p.Children() {
		explainNode(sb, child, depth+1)
	}
}
