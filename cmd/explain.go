package cmd

import (
	"fmt"
	"os"

	"github.com/quillhq/commit-journal/internal/explain"
	"github.com/spf13/cobra"
)

var explainCmd = &cobra.Command{
	Use:   "explain [commit]",
	Short: "Explain chat discovery decisions for a commit",
	Long: `Explain how commit-journal would collect chat for a commit.

Shows the time window strategy and bounds, where Cursor state databases
were searched for, which databases were found or skipped, and how each
workspace candidate scored against this repository.

Defaults to HEAD. Read-only; makes no AI calls and writes nothing.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		commit := "HEAD"
		if len(args) > 0 {
			commit = args[0]
		}
		if err := explain.Explain(repoFromCwd(), commit, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "commit-journal: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(explainCmd)
}
