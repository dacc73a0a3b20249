package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"codegraph/internal/export"
	"codegraph/pkg/logger"
)

func extractCmd() *cobra.Command {
	var (
		extractors string
		output     string
		clear      bool
		file       string
		workingDir string
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Scan a repository and build its knowledge graph",
		Long: `Runs the extractors over the working directory, correlates the
results and writes them to the console, to JSON files or into the graph
database.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			result, reports, err := runExtraction(ctx, workingDir, splitCategories(extractors))
			if err != nil {
				return err
			}
			for _, report := range reports {
				if report.Err != nil {
					logger.Warn("Extractor finished with errors",
						"category", report.Category, "error", report.Err)
					continue
				}
				logger.Info("Extractor finished",
					"category", report.Category,
					"sources", report.Sources,
					"nodes", report.Nodes,
					"relationships", report.Relationships)
			}

			switch output {
			case "console":
				export.WriteSummary(os.Stdout, result)
				return nil

			case "json":
				target := file
				if target == "" {
					target = "."
				}
				nodesFile, relsFile, err := export.WriteJSON(result, target)
				if err != nil {
					return err
				}
				fmt.Printf("Wrote %s and %s\n", nodesFile, relsFile)
				return nil

			case "graph-db":
				graphStore, err := connectStore(ctx)
				if err != nil {
					return err
				}
				defer graphStore.Close(ctx)

				if clear {
					if err := graphStore.ClearDatabase(ctx); err != nil {
						return err
					}
				}
				if err := graphStore.ImportData(ctx, result.Nodes, result.Relationships); err != nil {
					return err
				}
				if err := indexVectors(ctx, result.Nodes); err != nil {
					logger.Warn("Vector indexing incomplete, hybrid search may miss nodes", "error", err)
				}
				fmt.Printf("Imported %d nodes and %d relationships\n",
					len(result.Nodes), len(result.Relationships))
				return nil

			default:
				return fmt.Errorf("unknown output %q (want console, json or graph-db)", output)
			}
		},
	}

	cmd.Flags().StringVarP(&extractors, "extractors", "e", "all", "comma-separated categories (package,schema,document,function,import) or all")
	cmd.Flags().StringVarP(&output, "output", "o", "console", "output target (console/json/graph-db)")
	cmd.Flags().BoolVar(&clear, "clear", false, "wipe the graph database before importing")
	cmd.Flags().StringVarP(&file, "file", "f", "", "output directory for json mode")
	cmd.Flags().StringVarP(&workingDir, "working-dir", "w", ".", "root directory to scan")

	return cmd
}
