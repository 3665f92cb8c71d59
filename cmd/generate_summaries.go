package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/quillhq/commit-journal/internal/ai"
	"github.com/quillhq/commit-journal/internal/gitctx"
	"github.com/quillhq/commit-journal/internal/summary"
	"github.com/quillhq/commit-journal/internal/telemetry"
	"github.com/spf13/cobra"
)

var generateSummariesCmd = &cobra.Command{
	Use:   "generate-summaries",
	Short: "Generate any missing period summaries",
	Long: `Catch up on summaries the hook has not generated yet. Walks the days
between the previous commit and HEAD, generating the daily, weekly, monthly,
quarterly and yearly summaries whose boundaries were crossed and whose files
do not exist.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		repo, err := gitctx.RepoRoot(repoFromCwd())
		if err != nil {
			fmt.Fprintf(os.Stderr, "commit-journal: %v\n", err)
			os.Exit(1)
		}
		head, err := gitctx.Head(repo)
		if err != nil {
			fmt.Fprintf(os.Stderr, "commit-journal: %v\n", err)
			os.Exit(1)
		}
		current, err := gitctx.CommitTimestamp(repo, head)
		if err != nil {
			fmt.Fprintf(os.Stderr, "commit-journal: %v\n", err)
			os.Exit(1)
		}

		root := journalRootFromCwd()
		invoker := ai.New(repo, telemetry.NoopTracer{})
		ctx := context.Background()
		invoke := func(prompt, userContext string) string {
			return invoker.Invoke(ctx, prompt, userContext)
		}

		var last *time.Time
		if t, ok, err := gitctx.PreviousCommitTime(repo, head); err == nil && ok {
			last = &t
		}
		summary.Generate(root, current, last, invoke)
		fmt.Println("Summaries are up to date.")
	},
}

func init() {
	rootCmd.AddCommand(generateSummariesCmd)
}
