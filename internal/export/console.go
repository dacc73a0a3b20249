package export

import (
	"fmt"
	"io"
	"sort"

	"codegraph/internal/graph"
)

// WriteSummary prints a human-readable overview of an extraction
// result: totals, per-type counts and a few sample nodes per type.
func WriteSummary(w io.Writer, result *graph.ExtractionResult) {
	fmt.Fprintf(w, "Extraction result: %d nodes, %d relationships\n\n",
		len(result.Nodes), len(result.Relationships))

	byType := make(map[graph.NodeType][]graph.Node)
	for _, node := range result.Nodes {
		byType[node.Type] = append(byType[node.Type], node)
	}

	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, string(t))
	}
	sort.Strings(types)

	for _, t := range types {
		nodes := byType[graph.NodeType(t)]
		fmt.Fprintf(w, "%s (%d)\n", t, len(nodes))
		for i, node := range nodes {
			if i == 5 {
				fmt.Fprintf(w, "  ... and %d more\n", len(nodes)-i)
				break
			}
			fmt.Fprintf(w, "  - %s\n", node.Name)
		}
	}

	relCounts := make(map[graph.RelType]int)
	for _, rel := range result.Relationships {
		relCounts[rel.Type]++
	}
	relTypes := make([]string, 0, len(relCounts))
	for t := range relCounts {
		relTypes = append(relTypes, string(t))
	}
	sort.Strings(relTypes)

	if len(relTypes) > 0 {
		fmt.Fprintln(w, "\nRelationships:")
		for _, t := range relTypes {
			fmt.Fprintf(w, "  %-14s %d\n", t, relCounts[graph.RelType(t)])
		}
	}
}
