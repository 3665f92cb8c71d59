// Package journal owns the journal directory: appending commit entries,
// reflections, and captured context to date-partitioned daily files, and
// reading entries back. Files are append-only UTF-8 markdown; the first
// write of a day also writes the file header.
package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/quillhq/commit-journal/internal/display"
)

// Separator sits between entries within one daily file.
const Separator = "\n\n____\n\n"

// Entry kinds as they appear after the timestamp in block headers.
const (
	KindReflection = "Reflection"
	KindCapture    = "AI Knowledge Capture"
)

var dayPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// DateError reports an invalid reflection date without writing anything.
type DateError struct {
	Input  string
	Reason string
}

func (e *DateError) Error() string {
	return fmt.Sprintf("invalid date %q: %s", e.Input, e.Reason)
}

// DailyDir is where daily files live under the journal root.
func DailyDir(root string) string {
	return filepath.Join(root, "daily")
}

// DailyPath returns the daily file for a given day.
func DailyPath(root string, day time.Time) string {
	return filepath.Join(DailyDir(root), display.Day(day)+"-journal.md")
}

// AppendCommitEntry appends a commit's journal entry, stamped with the
// commit's own time. Reports whether the daily file was newly created;
// the summary trigger uses that signal for the previous day's summary.
func AppendCommitEntry(root string, when time.Time, sha, body string) (created bool, err error) {
	heading := "Commit " + sha
	return appendBlock(root, when, when, heading, body)
}

// AddReflection appends a manual reflection to the file for date (a
// YYYY-MM-DD string), stamped with the current wall-clock time. The date
// must parse, be a real calendar day, and not lie in the future.
func AddReflection(root, date, text string, now time.Time) error {
	day, derr := validateDate(date, now)
	if derr != nil {
		return derr
	}
	_, err := appendBlock(root, day, now, KindReflection, text)
	return err
}

// CaptureContext appends an AI knowledge capture to today's file.
func CaptureContext(root, text string, now time.Time) error {
	_, err := appendBlock(root, now, now, KindCapture, text)
	return err
}

// appendBlock writes one entry block to day's file: header on first write,
// separator on every later one. Parent directories appear at first write,
// never earlier.
func appendBlock(root string, day, clock time.Time, heading, body string) (created bool, err error) {
	path := DailyPath(root, day)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("creating journal directory: %w", err)
	}

	_, statErr := os.Stat(path)
	created = os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	block := fmt.Sprintf("### %s — %s\n\n%s", display.Clock(clock), heading, body)
	var out string
	if created {
		out = fmt.Sprintf("# Daily Journal Entries - %s\n\n%s", display.LongDate(day), block)
	} else {
		out = Separator + block
	}
	if _, err := f.WriteString(out); err != nil {
		return created, fmt.Errorf("writing %s: %w", path, err)
	}
	return created, nil
}

func validateDate(date string, now time.Time) (time.Time, *DateError) {
	if !dayPattern.MatchString(date) {
		return time.Time{}, &DateError{Input: date, Reason: "expected YYYY-MM-DD"}
	}
	day, err := time.ParseInLocation("2006-01-02", date, now.Location())
	if err != nil {
		return time.Time{}, &DateError{Input: date, Reason: "not a real calendar date"}
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if day.After(today) {
		return time.Time{}, &DateError{Input: date, Reason: "date is in the future"}
	}
	return day, nil
}
