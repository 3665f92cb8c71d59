package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/quillhq/commit-journal/internal/view"
	"github.com/spf13/cobra"
)

var showPlainFlag bool

var showCmd = &cobra.Command{
	Use:   "show [date]",
	Short: "Browse or print journal entries",
	Long: `Display journal entries. In a terminal this opens an interactive
browser; when piped (or with --plain) it prints the day's markdown.

Examples:
  commit-journal show              # browse, or print the latest day when piped
  commit-journal show 2025-01-08   # print one day
  commit-journal show --plain      # force plain output`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		root := journalRootFromCwd()

		var day time.Time
		if len(args) > 0 {
			d, err := time.ParseInLocation("2006-01-02", args[0], time.Local)
			if err != nil {
				fmt.Fprintf(os.Stderr, "commit-journal: invalid date %q, expected YYYY-MM-DD\n", args[0])
				os.Exit(1)
			}
			day = d
		}

		interactive := !showPlainFlag && len(args) == 0 &&
			isatty.IsTerminal(os.Stdout.Fd())
		if interactive {
			if err := view.RunTUI(root); err != nil {
				fmt.Fprintf(os.Stderr, "commit-journal: %v\n", err)
				os.Exit(1)
			}
			return
		}

		if day.IsZero() {
			latest, ok := view.LatestDay(root)
			if !ok {
				fmt.Fprintln(os.Stderr, "commit-journal: journal is empty")
				os.Exit(1)
			}
			day = latest
		}
		if err := view.Plain(root, day, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "commit-journal: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	showCmd.Flags().BoolVar(&showPlainFlag, "plain", false, "Print markdown instead of the interactive browser")
	rootCmd.AddCommand(showCmd)
}
