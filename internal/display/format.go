// Package display renders query results for the terminal.
package display

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"codegraph/internal/graph"
	"codegraph/internal/hybrid"
	"codegraph/internal/query"
)

// Format selects how a query result is rendered.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatTree  Format = "tree"
)

// ParseFormat validates a format flag value, defaulting to table.
func ParseFormat(value string) (Format, error) {
	switch Format(value) {
	case FormatTable, FormatJSON, FormatTree:
		return Format(value), nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown format %q (want table, json or tree)", value)
	}
}

// Render writes the query result in the chosen format.
func Render(w io.Writer, result *query.QueryResult, format Format) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	case FormatTree:
		renderTree(w, result)
		return nil
	default:
		renderTable(w, result)
		return nil
	}
}

func renderTable(w io.Writer, result *query.QueryResult) {
	if result.Explanation != "" {
		fmt.Fprintln(w, result.Explanation)
	}
	if result.Stats != nil {
		renderStats(w, result)
		return
	}
	if len(result.Nodes) == 0 {
		renderSuggestions(w, result)
		return
	}

	nameWidth := len("NAME")
	typeWidth := len("TYPE")
	for _, node := range result.Nodes {
		if len(node.Name) > nameWidth {
			nameWidth = len(node.Name)
		}
		if len(node.Type) > typeWidth {
			typeWidth = len(string(node.Type))
		}
	}

	fmt.Fprintf(w, "\n%-*s  %-*s  %-6s  %s\n", nameWidth, "NAME", typeWidth, "TYPE", "SCORE", "SOURCE")
	for _, node := range result.Nodes {
		score, _ := node.Properties["relevance_score"].(float64)
		fmt.Fprintf(w, "%-*s  %-*s  %-6.2f  %s\n",
			nameWidth, node.Name, typeWidth, string(node.Type), score, node.Metadata.SourceFile)
	}
	renderSuggestions(w, result)
}

func renderStats(w io.Writer, result *query.QueryResult) {
	stats := result.Stats
	fmt.Fprintf(w, "\nNodes: %d  Relationships: %d\n", stats.NodeCount, stats.RelationshipCount)

	types := make([]string, 0, len(stats.NodeTypes))
	for t := range stats.NodeTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Fprintf(w, "  %-14s %d\n", t, stats.NodeTypes[t])
	}

	relTypes := make([]string, 0, len(stats.RelationshipTypes))
	for t := range stats.RelationshipTypes {
		relTypes = append(relTypes, t)
	}
	sort.Strings(relTypes)
	if len(relTypes) > 0 {
		fmt.Fprintln(w)
		for _, t := range relTypes {
			fmt.Fprintf(w, "  %-14s %d\n", t, stats.RelationshipTypes[t])
		}
	}
}

// renderTree prints each node with its outgoing relationships drawn as
// branches.
func renderTree(w io.Writer, result *query.QueryResult) {
	if result.Explanation != "" {
		fmt.Fprintln(w, result.Explanation)
	}

	nodesByID := make(map[string]graph.Node, len(result.Nodes))
	for _, node := range result.Nodes {
		nodesByID[node.ID] = node
	}
	outgoing := make(map[string][]graph.Relationship)
	targets := make(map[string]bool)
	for _, rel := range result.Relationships {
		outgoing[rel.Source] = append(outgoing[rel.Source], rel)
		targets[rel.Target] = true
	}

	for _, node := range result.Nodes {
		// Nodes that only appear as targets show up under their source.
		if targets[node.ID] && len(outgoing[node.ID]) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s (%s)\n", node.Name, node.Type)
		rels := outgoing[node.ID]
		for i, rel := range rels {
			branch := "├──"
			if i == len(rels)-1 {
				branch = "└──"
			}
			targetName := rel.Target
			if target, ok := nodesByID[rel.Target]; ok {
				targetName = fmt.Sprintf("%s (%s)", target.Name, target.Type)
			}
			fmt.Fprintf(w, "%s %s %s\n", branch, rel.Type, targetName)
		}
	}
	renderSuggestions(w, result)
}

func renderSuggestions(w io.Writer, result *query.QueryResult) {
	if len(result.Suggestions) == 0 {
		return
	}
	fmt.Fprintln(w, "\nSuggestions:")
	for _, s := range result.Suggestions {
		fmt.Fprintf(w, "  - %s\n", s)
	}
}

// RenderHybrid writes a fused hybrid search result as a scored list.
func RenderHybrid(w io.Writer, result *hybrid.SearchResult) {
	fmt.Fprintf(w, "Strategy: %s\n\n", result.Strategy)
	for _, fused := range result.FusedResults {
		fmt.Fprintf(w, "%6.3f  %-10s  %s (%s)\n",
			fused.Score, fused.Match, Truncate(fused.Node.Name, 48), fused.Node.Type)
	}
	if result.GraphResult != nil && len(result.GraphResult.Suggestions) > 0 {
		renderSuggestions(w, result.GraphResult)
	}
}

// Truncate shortens a string for single-line table cells.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return strings.TrimSpace(s[:max-3]) + "..."
}
