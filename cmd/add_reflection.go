package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/quillhq/commit-journal/internal/journal"
	"github.com/spf13/cobra"
)

var (
	reflectionDateFlag string
	reflectionTextFlag string
)

var addReflectionCmd = &cobra.Command{
	Use:   "add-reflection --date YYYY-MM-DD --text <text>",
	Short: "Append a manual reflection to a day's journal",
	Long: `Append a timestamped reflection to the daily journal file for the given
date. The date must be a real calendar day and must not be in the future.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if reflectionTextFlag == "" {
			fmt.Fprintln(os.Stderr, "commit-journal: --text is required")
			os.Exit(1)
		}
		date := reflectionDateFlag
		if date == "" {
			date = time.Now().Format("2006-01-02")
		}
		root := journalRootFromCwd()
		if err := journal.AddReflection(root, date, reflectionTextFlag, time.Now()); err != nil {
			fmt.Fprintf(os.Stderr, "commit-journal: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added reflection to %s\n", journal.DailyPath(root, mustParseDay(date)))
	},
}

func mustParseDay(date string) time.Time {
	d, _ := time.ParseInLocation("2006-01-02", date, time.Local)
	return d
}

func init() {
	addReflectionCmd.Flags().StringVar(&reflectionDateFlag, "date", "", "Target date, YYYY-MM-DD (default today)")
	addReflectionCmd.Flags().StringVar(&reflectionTextFlag, "text", "", "Reflection text")
	rootCmd.AddCommand(addReflectionCmd)
}
