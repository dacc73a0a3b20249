package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"codegraph/cmd"
	"codegraph/internal/config"
	"codegraph/pkg/logger"
	"codegraph/pkg/logger/console"
)

var debug bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "codegraph",
		Short: "Build and query a knowledge graph of your codebase",
		Long: `codegraph scans a repository for packages, schemas, documents,
functions and imports, correlates them into a property graph, and
answers structured and natural-language questions about it.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{Debug: debug}))
			config.LoadEnv()
		},
	}

	rootCmd.PersistentFlags().BoolVar(&debug, "debug",
		config.GetEnvBool("CODEGRAPH_DEBUG", false), "enable debug logging")

	cmd.RegisterCommands(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
