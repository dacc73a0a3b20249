package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"codegraph/internal/ai"
	"codegraph/internal/config"
	"codegraph/internal/display"
	"codegraph/internal/hybrid"
	"codegraph/internal/query"
	"codegraph/pkg/logger"
)

func askCmd() *cobra.Command {
	var (
		limit  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the knowledge graph a natural-language question",
		Long: `Classifies the question, builds a bounded graph query and ranks the
matches. When a vector index is configured, graph and vector search run
together and their results are fused.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			question := strings.Join(args, " ")

			outputFormat, err := display.ParseFormat(format)
			if err != nil {
				return err
			}

			graphStore, err := connectStore(ctx)
			if err != nil {
				return err
			}
			defer graphStore.Close(ctx)

			engine := newEngine(graphStore)
			opts := query.Options{Limit: limit}

			engineCfg := config.LoadEngine()
			client := ai.NewClient(engineCfg)
			if engineCfg.VectorIndexPath != "" && client != nil {
				index, err := hybrid.OpenIndex(engineCfg.VectorIndexPath)
				if err != nil {
					logger.Warn("Vector index unavailable, using graph search only", "error", err)
				} else {
					defer index.Close()
					searcher := hybrid.NewSearcher(engine, index, client)
					result, err := searcher.Search(ctx, question, opts)
					if err != nil {
						return err
					}
					if outputFormat == display.FormatJSON {
						return outputJSON(os.Stdout, result)
					}
					display.RenderHybrid(os.Stdout, result)
					return nil
				}
			}

			result, err := engine.Ask(ctx, question, opts)
			if err != nil {
				return err
			}
			if err := display.Render(os.Stdout, result, outputFormat); err != nil {
				return err
			}
			fmt.Printf("\n(%s, confidence %.2f, %dms)\n",
				result.Intent, result.Confidence, result.ExecutionTimeMs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "maximum results")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format (table/json/tree)")

	return cmd
}
