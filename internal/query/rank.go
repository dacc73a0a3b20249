package query

import (
	"sort"
	"strings"

	"codegraph/internal/graph"
)

// Match-quality bonuses. An exact name match always outranks a prefix
// match, which outranks a substring match, regardless of the smaller
// importance and usage signals.
const (
	exactBonus     = 1.0
	prefixBonus    = 0.75
	substringBonus = 0.5
)

// rankNodes scores each node against the extracted entities, writes the
// score into the node's properties as relevance_score, and sorts
// descending. The sort is stable so equal scores keep their original
// declaration order.
func rankNodes(nodes []graph.Node, entities []string) []graph.Node {
	for i := range nodes {
		score := relevanceScore(&nodes[i], entities)
		if nodes[i].Properties == nil {
			nodes[i].Properties = make(map[string]any, 1)
		}
		nodes[i].Properties["relevance_score"] = score
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		a, _ := nodes[i].Properties["relevance_score"].(float64)
		b, _ := nodes[j].Properties["relevance_score"].(float64)
		return a > b
	})
	return nodes
}

func relevanceScore(n *graph.Node, entities []string) float64 {
	name := strings.ToLower(n.Name)

	var best float64
	for _, entity := range entities {
		term := strings.ToLower(entity)
		var bonus float64
		switch {
		case name == term:
			bonus = exactBonus
		case strings.HasPrefix(name, term):
			bonus = prefixBonus
		case strings.Contains(name, term):
			bonus = substringBonus
		}
		if bonus > best {
			best = bonus
		}
	}

	score := best
	if importance, ok := asFloat(n.Properties["importance"]); ok {
		score += 0.1 * importance
	}
	if usage, ok := asFloat(n.Properties["usage_count"]); ok {
		if usage > 100 {
			usage = 100
		}
		score += 0.001 * usage
	}
	return score
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
