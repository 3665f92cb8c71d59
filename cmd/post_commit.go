package cmd

import (
	"time"

	"github.com/quillhq/commit-journal/internal/worker"
	"github.com/spf13/cobra"
)

var (
	postCommitBackgroundFlag bool
	postCommitCommitFlag     string
	postCommitTimeoutFlag    time.Duration
)

// postCommitCmd is the hook entry point. It must never exit nonzero:
// a failing journal run is not allowed to look like a failing commit.
var postCommitCmd = &cobra.Command{
	Use:    "post-commit <repo-path>",
	Short:  "Hook: generate a journal entry for the new commit",
	Hidden: true,
	Args:   cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		repoPath := args[0]
		if postCommitBackgroundFlag {
			// Spawn failures are swallowed for the same reason worker
			// failures are: the commit already happened.
			_ = worker.SpawnDetached(repoPath, postCommitCommitFlag, postCommitTimeoutFlag)
			return
		}
		worker.Run(worker.Options{
			RepoPath: repoPath,
			Commit:   postCommitCommitFlag,
			Timeout:  postCommitTimeoutFlag,
			Version:  version,
		})
	},
}

func init() {
	postCommitCmd.Flags().BoolVar(&postCommitBackgroundFlag, "background", false, "Spawn a detached worker and return immediately")
	postCommitCmd.Flags().StringVar(&postCommitCommitFlag, "commit", "", "Commit SHA to journal (default HEAD)")
	postCommitCmd.Flags().DurationVar(&postCommitTimeoutFlag, "timeout", 0, "Worker timeout (0 = no deadline)")
	rootCmd.AddCommand(postCommitCmd)
}
