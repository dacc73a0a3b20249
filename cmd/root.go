package cmd

import (
	"github.com/spf13/cobra"
)

// RegisterCommands adds all subcommands to the root command.
func RegisterCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(queryCmd())
	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(watchCmd())
}
