package cmd

import (
	"fmt"
	"os"

	"github.com/quillhq/commit-journal/internal/config"
	"github.com/quillhq/commit-journal/internal/gitctx"
	"github.com/spf13/cobra"
)

var version = "dev"

func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

var rootCmd = &cobra.Command{
	Use:   "commit-journal",
	Short: "Turn commits and AI chat into an engineering journal",
	Long: `commit-journal generates a narrative engineering journal from your
git commits and the Cursor chat that led to them.

A post-commit hook collects the chat exchanged since the previous commit,
asks an AI model where the work for this commit began, and appends a
structured entry to a daily markdown journal. Daily, weekly, monthly,
quarterly and yearly summaries are generated as time boundaries are crossed.`,
	Version: version,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// repoFromCwd resolves the enclosing repository root, or exits.
func repoFromCwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "commit-journal: %v\n", err)
		os.Exit(1)
	}
	return cwd
}

// journalRootFromCwd resolves the configured journal root for the
// repository containing the current directory, or exits.
func journalRootFromCwd() string {
	root, err := gitctx.RepoRoot(repoFromCwd())
	if err != nil {
		fmt.Fprintf(os.Stderr, "commit-journal: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "commit-journal: %v\n", err)
		os.Exit(1)
	}
	return cfg.JournalRoot(root)
}
