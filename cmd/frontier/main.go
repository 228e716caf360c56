// Frontier CLI: mean-variance optimization of a stock universe from the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "frontier",
		Short: "Mean-variance portfolio optimizer",
		Long: `Frontier downloads daily closes for a universe of symbols and finds the
minimum-variance and maximum-Sharpe (or target-return) long-only portfolios,
together with the efficient frontier between them.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newOptimizeCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "frontier %s (%s)\n", version, commit)
		},
	}
}
