package cmd

import (
	"fmt"
	"os"

	"github.com/quillhq/commit-journal/internal/hooks"
	"github.com/spf13/cobra"
)

var uninstallHooksCmd = &cobra.Command{
	Use:   "uninstall-hooks",
	Short: "Remove the post-commit journal hook",
	Long: `Remove the hook installed by install-hooks. A post-commit.orig backup,
if present, is restored. Hooks written by other tools are left untouched.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := hooks.Uninstall(repoFromCwd()); err != nil {
			fmt.Fprintf(os.Stderr, "commit-journal: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Removed post-commit hook.")
	},
}

func init() {
	rootCmd.AddCommand(uninstallHooksCmd)
}
