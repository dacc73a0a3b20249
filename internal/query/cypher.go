package query

import (
	"fmt"
	"strings"

	"codegraph/internal/graph"
)

const (
	defaultLimit = 20
	defaultDepth = 1
	maxDepth     = 5
)

// Options bound the generated query. Zero values mean defaults.
type Options struct {
	NodeType  graph.NodeType
	Limit     int
	Depth     int
	Direction string // in, out, both
}

func (o Options) normalized() Options {
	if o.Limit <= 0 {
		o.Limit = defaultLimit
	}
	if o.Depth <= 0 {
		o.Depth = defaultDepth
	}
	if o.Depth > maxDepth {
		o.Depth = maxDepth
	}
	switch o.Direction {
	case "in", "out", "both":
	default:
		o.Direction = "both"
	}
	return o
}

// arrows returns the relationship pattern ends for the configured
// traversal direction.
func (o Options) arrows() (left, right string) {
	switch o.Direction {
	case "in":
		return "<-", "-"
	case "out":
		return "-", "->"
	default:
		return "-", "-"
	}
}

// buildNodeSearch produces a bounded name search over nodes, optionally
// filtered by node type. The limit is part of the query text so every
// generated query visibly carries one.
func buildNodeSearch(entities []string, opts Options) (string, map[string]any) {
	opts = opts.normalized()
	params := make(map[string]any)

	var conditions []string
	for i, entity := range entities {
		key := fmt.Sprintf("term%d", i)
		params[key] = strings.ToLower(entity)
		conditions = append(conditions, fmt.Sprintf("toLower(n.name) CONTAINS $%s", key))
	}
	where := "true"
	if len(conditions) > 0 {
		where = "(" + strings.Join(conditions, " OR ") + ")"
	}
	if opts.NodeType != "" {
		params["nodeType"] = string(opts.NodeType)
		where += " AND n.type = $nodeType"
	}

	cypher := fmt.Sprintf("MATCH (n)\nWHERE %s\nRETURN n\nLIMIT %d", where, opts.Limit)
	return cypher, params
}

// buildRelations expands around nodes matching the search term up to
// the bounded depth.
func buildRelations(entity string, opts Options) (string, map[string]any) {
	opts = opts.normalized()
	left, right := opts.arrows()

	params := map[string]any{"term": strings.ToLower(entity)}
	cypher := fmt.Sprintf(
		"MATCH (n)\nWHERE toLower(n.name) CONTAINS $term\nMATCH p = (n)%s[*1..%d]%s(m)\nRETURN p\nLIMIT %d",
		left, opts.Depth, right, opts.Limit,
	)
	return cypher, params
}

// buildShortestPath connects two named endpoints through any
// relationship chain up to maxDepth hops.
func buildShortestPath(from, to string, opts Options) (string, map[string]any) {
	opts = opts.normalized()
	params := map[string]any{
		"from": strings.ToLower(from),
		"to":   strings.ToLower(to),
	}
	cypher := fmt.Sprintf(
		"MATCH (a), (b)\nWHERE toLower(a.name) CONTAINS $from AND toLower(b.name) CONTAINS $to AND a <> b\nMATCH p = shortestPath((a)-[*..%d]-(b))\nRETURN p\nLIMIT %d",
		maxDepth, opts.Limit,
	)
	return cypher, params
}
