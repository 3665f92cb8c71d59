package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/quillhq/commit-journal/internal/config"
	"github.com/quillhq/commit-journal/internal/gitctx"
	"github.com/quillhq/commit-journal/internal/journal"
	"github.com/quillhq/commit-journal/internal/summary"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the starter config and journal directories",
	Long: `Write a starter .commit-journalrc.yaml at the repository root and
create the journal directory tree. Refuses to overwrite an existing config.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		root, err := gitctx.RepoRoot(repoFromCwd())
		if err != nil {
			fmt.Fprintf(os.Stderr, "commit-journal: %v\n", err)
			os.Exit(1)
		}

		cfgPath := filepath.Join(root, config.FileName)
		if err := config.WriteStarter(cfgPath); err != nil {
			fmt.Fprintf(os.Stderr, "commit-journal: %v\n", err)
			os.Exit(1)
		}

		// The journal tree comes from the built-in defaults, matching the
		// path keys the starter ships. Interpolating the starter's
		// ${OPENAI_API_KEY} reference is the worker's job, not init's:
		// the key need not be exported yet.
		journalRoot := config.Default().JournalRoot(root)
		dirs := []string{journal.DailyDir(journalRoot)}
		for _, period := range []string{"daily", "weekly", "monthly", "quarterly", "yearly"} {
			dirs = append(dirs, summary.Dir(journalRoot, period))
		}
		for _, d := range dirs {
			if err := os.MkdirAll(d, 0755); err != nil {
				fmt.Fprintf(os.Stderr, "commit-journal: %v\n", err)
				os.Exit(1)
			}
		}

		fmt.Printf("Wrote %s\n", cfgPath)
		fmt.Printf("Journal root: %s\n", journalRoot)
		fmt.Println("Run 'commit-journal install-hooks' to start journaling on commit.")
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
