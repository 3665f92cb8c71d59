package cmd

import (
	"time"

	"github.com/quillhq/commit-journal/internal/worker"
	"github.com/spf13/cobra"
)

var (
	workerRepoFlag    string
	workerCommitFlag  string
	workerTimeoutFlag time.Duration
)

// workerCmd is the detached child spawned by post-commit --background.
// Like the hook itself it always exits zero.
var workerCmd = &cobra.Command{
	Use:    "worker",
	Short:  "Hook: background journal worker",
	Hidden: true,
	Args:   cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		repoPath := workerRepoFlag
		if repoPath == "" {
			repoPath = repoFromCwd()
		}
		worker.Run(worker.Options{
			RepoPath: repoPath,
			Commit:   workerCommitFlag,
			Timeout:  workerTimeoutFlag,
			Version:  version,
		})
	},
}

func init() {
	workerCmd.Flags().StringVar(&workerRepoFlag, "repo", "", "Repository path")
	workerCmd.Flags().StringVar(&workerCommitFlag, "commit", "", "Commit SHA to journal (default HEAD)")
	workerCmd.Flags().DurationVar(&workerTimeoutFlag, "timeout", 0, "Worker timeout (0 = no deadline)")
	rootCmd.AddCommand(workerCmd)
}
