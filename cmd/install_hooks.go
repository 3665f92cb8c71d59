package cmd

import (
	"fmt"
	"os"

	"github.com/quillhq/commit-journal/internal/hooks"
	"github.com/spf13/cobra"
)

var (
	installBackgroundFlag bool
	installTimeoutFlag    int
)

var installHooksCmd = &cobra.Command{
	Use:   "install-hooks",
	Short: "Install the post-commit journal hook",
	Long: `Install a post-commit hook that generates a journal entry after each
commit. An existing foreign hook is preserved as post-commit.orig and chained.

With --background the hook spawns a detached worker and returns immediately,
so commits are never delayed by AI calls.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		opts := hooks.InstallOptions{
			RepoPath:       repoFromCwd(),
			Background:     installBackgroundFlag,
			TimeoutSeconds: installTimeoutFlag,
		}
		if err := hooks.Install(opts); err != nil {
			fmt.Fprintf(os.Stderr, "commit-journal: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Installed post-commit hook.")
	},
}

func init() {
	installHooksCmd.Flags().BoolVar(&installBackgroundFlag, "background", false, "Run the worker detached from the commit")
	installHooksCmd.Flags().IntVar(&installTimeoutFlag, "timeout", 0, "Background worker timeout in seconds (default 30)")
	rootCmd.AddCommand(installHooksCmd)
}
