package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"codegraph/internal/display"
	"codegraph/internal/query"
)

func queryCmd() *cobra.Command {
	var (
		queryType string
		search    string
		nodeType  string
		limit     int
		depth     int
		direction string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run structured queries against the knowledge graph",
		Long: `Queries the graph database directly. The query type selects the
shape: node search, relationship expansion, shortest path between two
terms, or overall statistics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			outputFormat, err := display.ParseFormat(format)
			if err != nil {
				return err
			}
			parsedType, err := parseNodeType(nodeType)
			if err != nil {
				return err
			}
			if queryType != "stats" && search == "" {
				return fmt.Errorf("--search is required for query type %q", queryType)
			}

			graphStore, err := connectStore(ctx)
			if err != nil {
				return err
			}
			defer graphStore.Close(ctx)

			engine := newEngine(graphStore)
			opts := query.Options{
				NodeType:  parsedType,
				Limit:     limit,
				Depth:     depth,
				Direction: direction,
			}

			var result *query.QueryResult
			switch queryType {
			case "node":
				result, err = engine.FindNodes(ctx, search, opts)

			case "relations":
				result, err = engine.Relations(ctx, search, opts)

			case "path":
				terms := strings.Fields(search)
				if len(terms) != 2 {
					return fmt.Errorf("path queries take two space-separated terms, got %d", len(terms))
				}
				result, err = engine.ShortestPath(ctx, terms[0], terms[1], opts)

			case "stats":
				stats, statsErr := engine.GraphStats(ctx)
				if statsErr != nil {
					return statsErr
				}
				result = &query.QueryResult{Intent: query.IntentStats, Confidence: 1, Stats: stats}

			default:
				return fmt.Errorf("unknown query type %q (want node, relations, path or stats)", queryType)
			}
			if err != nil {
				return err
			}

			return display.Render(os.Stdout, result, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&queryType, "type", "t", "stats", "query type (node/relations/path/stats)")
	cmd.Flags().StringVarP(&search, "search", "s", "", "search term; path queries take two terms")
	cmd.Flags().StringVar(&nodeType, "node-type", "", "filter results to one node type")
	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "maximum results")
	cmd.Flags().IntVarP(&depth, "depth", "d", 1, "traversal depth for relations queries")
	cmd.Flags().StringVar(&direction, "direction", "both", "traversal direction (in/out/both)")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format (table/json/tree)")

	return cmd
}
