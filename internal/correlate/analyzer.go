package correlate

import (
	"sort"
	"time"

	"codegraph/internal/graph"
	"codegraph/pkg/logger"
)

// Analyzer applies the pattern table to the merged node set to infer
// relationships across source categories.
type Analyzer struct {
	patterns []Pattern
	now      func() time.Time
}

// NewAnalyzer returns an analyzer over the default pattern table.
func NewAnalyzer() *Analyzer {
	return &Analyzer{patterns: DefaultPatterns, now: time.Now}
}

// NewAnalyzerWithPatterns returns an analyzer over a custom table.
func NewAnalyzerWithPatterns(patterns []Pattern) *Analyzer {
	return &Analyzer{patterns: patterns, now: time.Now}
}

// Analyze evaluates every pattern against the node set and returns the
// inferred relationships. Typed patterns only see the type-pair bucket
// they declare, which keeps the sweep well under the full cross product;
// within a bucket testing is exhaustive. Existing relationship ids are
// skipped so inference never duplicates an extracted edge.
func (a *Analyzer) Analyze(nodes []graph.Node, existing []graph.Relationship) []graph.Relationship {
	byType := make(map[graph.NodeType][]*graph.Node)
	for i := range nodes {
		byType[nodes[i].Type] = append(byType[nodes[i].Type], &nodes[i])
	}

	known := make(map[string]bool, len(existing))
	for _, rel := range existing {
		known[rel.ID] = true
	}

	createdAt := a.now()
	var inferred []graph.Relationship

	emit := func(p Pattern, src, tgt *graph.Node) {
		if src.ID == tgt.ID || !p.Predicate(src, tgt) {
			return
		}
		id := graph.RelationshipID(p.Type, src.ID, tgt.ID)
		if known[id] {
			return
		}
		known[id] = true
		inferred = append(inferred, graph.Relationship{
			ID:     id,
			Type:   p.Type,
			Source: src.ID,
			Target: tgt.ID,
			Properties: map[string]any{
				"correlation_pattern": p.Name,
			},
			Metadata: graph.Metadata{CreatedAt: createdAt, Confidence: p.Confidence},
		})
	}

	for _, p := range a.patterns {
		if p.SourceType != "" && p.TargetType != "" {
			for _, src := range byType[p.SourceType] {
				for _, tgt := range byType[p.TargetType] {
					emit(p, src, tgt)
				}
			}
			continue
		}

		// Untyped patterns sweep all cross-type pairs.
		for i := range nodes {
			for j := range nodes {
				if i == j || nodes[i].Type == nodes[j].Type {
					continue
				}
				emit(p, &nodes[i], &nodes[j])
			}
		}
	}

	sort.Slice(inferred, func(i, j int) bool { return inferred[i].ID < inferred[j].ID })

	logger.Debug("Correlation analysis complete", "nodes", len(nodes), "inferred", len(inferred))
	return inferred
}
