package graph

import "sort"

// ExtractionResult is the unit returned by every extractor: the nodes and
// relationships produced from one source category.
type ExtractionResult struct {
	Nodes         []Node         `json:"nodes"`
	Relationships []Relationship `json:"relationships"`
}

// AddNode appends a node to the result.
func (r *ExtractionResult) AddNode(n Node) {
	r.Nodes = append(r.Nodes, n)
}

// AddRelationship appends a relationship to the result.
func (r *ExtractionResult) AddRelationship(rel Relationship) {
	r.Relationships = append(r.Relationships, rel)
}

// Merge combines extraction results into one, deduplicating nodes and
// relationships by id. The first occurrence of an id wins; output order is
// sorted by id so the merged set is deterministic regardless of the order
// in which extractors complete.
func Merge(results ...*ExtractionResult) *ExtractionResult {
	merged := &ExtractionResult{}

	seenNodes := make(map[string]bool)
	seenRels := make(map[string]bool)

	for _, res := range results {
		if res == nil {
			continue
		}
		for _, n := range res.Nodes {
			if seenNodes[n.ID] {
				continue
			}
			seenNodes[n.ID] = true
			merged.Nodes = append(merged.Nodes, n)
		}
		for _, rel := range res.Relationships {
			if seenRels[rel.ID] {
				continue
			}
			seenRels[rel.ID] = true
			merged.Relationships = append(merged.Relationships, rel)
		}
	}

	sort.Slice(merged.Nodes, func(i, j int) bool {
		return merged.Nodes[i].ID < merged.Nodes[j].ID
	})
	sort.Slice(merged.Relationships, func(i, j int) bool {
		return merged.Relationships[i].ID < merged.Relationships[j].ID
	})

	// Drop relationships whose endpoints never materialized; a failed
	// sibling extractor must not leave dangling edges behind.
	filtered := merged.Relationships[:0]
	for _, rel := range merged.Relationships {
		if seenNodes[rel.Source] && seenNodes[rel.Target] {
			filtered = append(filtered, rel)
		}
	}
	merged.Relationships = filtered

	return merged
}
