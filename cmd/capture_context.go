package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/quillhq/commit-journal/internal/journal"
	"github.com/spf13/cobra"
)

var captureTextFlag string

var captureContextCmd = &cobra.Command{
	Use:   "capture-context --text <text>",
	Short: "Capture a note into today's journal",
	Long: `Append an "AI Knowledge Capture" entry to today's journal file. Useful
for recording context worth keeping that is not tied to a commit.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if captureTextFlag == "" {
			fmt.Fprintln(os.Stderr, "commit-journal: --text is required")
			os.Exit(1)
		}
		root := journalRootFromCwd()
		now := time.Now()
		if err := journal.CaptureContext(root, captureTextFlag, now); err != nil {
			fmt.Fprintf(os.Stderr, "commit-journal: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Captured context in %s\n", journal.DailyPath(root, now))
	},
}

func init() {
	captureContextCmd.Flags().StringVar(&captureTextFlag, "text", "", "Text to capture")
	rootCmd.AddCommand(captureContextCmd)
}
