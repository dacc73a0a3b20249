package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"codegraph/internal/watcher"
	"codegraph/pkg/logger"
)

func watchCmd() *cobra.Command {
	var (
		workingDir string
		extractors string
		debounceMs int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the repository and re-extract on changes",
		Long: `Watches the working directory for source changes and re-runs the
extraction pipeline into the graph database after changes settle.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			graphStore, err := connectStore(ctx)
			if err != nil {
				return err
			}
			defer graphStore.Close(ctx)

			categories := splitCategories(extractors)
			reextract := func(ctx context.Context) (int, int, error) {
				result, _, err := runExtraction(ctx, workingDir, categories)
				if err != nil {
					return 0, 0, err
				}
				if err := graphStore.ImportData(ctx, result.Nodes, result.Relationships); err != nil {
					return 0, 0, err
				}
				return len(result.Nodes), len(result.Relationships), nil
			}

			w, err := watcher.New(workingDir, reextract,
				watcher.WithDebounceDelay(time.Duration(debounceMs)*time.Millisecond),
				watcher.WithOnStart(func(changed []string) {
					logger.Info("Changes detected, re-extracting", "files", len(changed))
				}),
				watcher.WithOnDone(func(nodes, relationships int, d time.Duration) {
					logger.Info("Graph updated",
						"nodes", nodes, "relationships", relationships, "duration", d)
				}),
				watcher.WithOnError(func(err error) {
					logger.Error("Watch error", "error", err)
				}),
			)
			if err != nil {
				return err
			}
			w.Start()
			defer w.Stop()

			fmt.Printf("Watching %s, press Ctrl+C to stop\n", workingDir)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			select {
			case <-sigCh:
			case <-ctx.Done():
			}
			fmt.Println("\nStopping watcher")
			return nil
		},
	}

	cmd.Flags().StringVarP(&workingDir, "working-dir", "w", ".", "root directory to watch")
	cmd.Flags().StringVarP(&extractors, "extractors", "e", "all", "comma-separated categories to re-run")
	cmd.Flags().IntVar(&debounceMs, "debounce", 500, "debounce delay in milliseconds")

	return cmd
}
