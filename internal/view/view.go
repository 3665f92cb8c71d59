// Package view renders journal days in the terminal: plain markdown for
// pipes, an interactive entry browser for TTYs.
package view

import (
	"fmt"
	"io"
	"time"

	"github.com/quillhq/commit-journal/internal/display"
	"github.com/quillhq/commit-journal/internal/journal"
)

// Plain writes a day's entries as markdown.
func Plain(root string, day time.Time, w io.Writer) error {
	entries, err := journal.ReadDay(root, day)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(w, "No journal entries for %s\n", display.Day(day))
		return nil
	}
	fmt.Fprintf(w, "# Daily Journal Entries - %s\n", display.LongDate(day))
	for _, e := range entries {
		fmt.Fprintf(w, "\n### %s\n\n%s\n", e.Heading, e.Body)
	}
	return nil
}

// LatestDay returns the most recent day with a journal file, or ok=false
// for an empty journal.
func LatestDay(root string) (time.Time, bool) {
	days := journal.Days(root)
	if len(days) == 0 {
		return time.Time{}, false
	}
	return days[len(days)-1], true
}
