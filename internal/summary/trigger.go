// Package summary schedules and generates period summaries: daily, weekly,
// monthly, quarterly, yearly. Scheduling is gap-aware: every period
// boundary between the previous commit and the current one counts, so a
// quiet week still gets its Monday summary on the next commit. A summary
// is generated at most once; an existing file, under any accepted name,
// suppresses the trigger.
package summary

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/quillhq/commit-journal/internal/journal"
)

// Triggers lists the period summaries due, one concrete target per missed
// period: after a long gap every crossed boundary whose file is missing
// appears, not just the most recent one. Daily is handled separately (see
// PendingDaily); it keys off journal-file creation, not date boundaries.
type Triggers struct {
	Weekly    []time.Time // Monday of each missing week
	Monthly   []time.Time // first day of each missing month
	Quarterly []time.Time // first day of each missing quarter
	Yearly    []int
}

// Any reports whether at least one summary is due.
func (t Triggers) Any() bool {
	return len(t.Weekly) > 0 || len(t.Monthly) > 0 || len(t.Quarterly) > 0 || len(t.Yearly) > 0
}

// Dir returns the summaries directory for one period under the journal root.
func Dir(root, period string) string {
	return filepath.Join(root, "summaries", period)
}

// Detect walks every day in (last, current] and collects the period
// boundaries crossed whose summaries do not exist yet. A nil last falls
// back to testing the current date alone.
func Detect(root string, current time.Time, last *time.Time) Triggers {
	var t Triggers
	if last == nil {
		applyDay(root, midnight(current), &t)
		return t
	}
	for d := midnight(*last).AddDate(0, 0, 1); !d.After(midnight(current)); d = d.AddDate(0, 0, 1) {
		applyDay(root, d, &t)
	}
	return t
}

// applyDay tests one boundary day against existing summary files and
// collects the concrete periods due. Each boundary day names its own
// target, so a gap spanning several Mondays yields several weeks.
func applyDay(root string, d time.Time, t *Triggers) {
	if d.Weekday() == time.Monday {
		// Target week ends the Sunday before this Monday.
		monday := d.AddDate(0, 0, -7)
		if !weeklyExists(root, monday) {
			t.Weekly = append(t.Weekly, monday)
		}
	}
	if d.Day() != 1 {
		return
	}
	if month := d.AddDate(0, -1, 0); !monthlyExists(root, month) {
		t.Monthly = append(t.Monthly, month)
	}
	switch d.Month() {
	case time.January, time.April, time.July, time.October:
		if q := d.AddDate(0, -3, 0); !quarterlyExists(root, q) {
			t.Quarterly = append(t.Quarterly, q)
		}
	}
	if d.Month() == time.January {
		if !yearlyExists(root, d.Year()-1) {
			t.Yearly = append(t.Yearly, d.Year()-1)
		}
	}
}

// PendingDaily finds the most recent day before current that has a journal
// file but no daily summary. ok is false when nothing is pending.
func PendingDaily(root string, current time.Time) (day time.Time, ok bool) {
	cutoff := midnight(current)
	days := journal.Days(root)
	for i := len(days) - 1; i >= 0; i-- {
		if !days[i].Before(cutoff) {
			continue
		}
		if exists(DailyPath(root, days[i])) {
			return time.Time{}, false
		}
		return days[i], true
	}
	return time.Time{}, false
}

// Canonical write paths. Reads additionally accept the legacy spellings
// below; writes always use these.

// DailyPath is <root>/summaries/daily/YYYY-MM-DD-summary.md.
func DailyPath(root string, day time.Time) string {
	return filepath.Join(Dir(root, "daily"), day.Format("2006-01-02")+"-summary.md")
}

// WeeklyPath names a week by its Monday: YYYY-MM from the Monday itself,
// the week number from ISO 8601. The week starting 2024-12-30 is
// 2024-12-week1.md.
func WeeklyPath(root string, monday time.Time) string {
	_, week := monday.ISOWeek()
	return filepath.Join(Dir(root, "weekly"), fmt.Sprintf("%s-week%d.md", monday.Format("2006-01"), week))
}

// MonthlyPath is <root>/summaries/monthly/YYYY-MM.md.
func MonthlyPath(root string, month time.Time) string {
	return filepath.Join(Dir(root, "monthly"), month.Format("2006-01")+".md")
}

// QuarterlyPath is <root>/summaries/quarterly/YYYY-QN.md.
func QuarterlyPath(root string, quarterStart time.Time) string {
	q := (int(quarterStart.Month())-1)/3 + 1
	return filepath.Join(Dir(root, "quarterly"), fmt.Sprintf("%d-Q%d.md", quarterStart.Year(), q))
}

// YearlyPath is <root>/summaries/yearly/YYYY.md.
func YearlyPath(root string, year int) string {
	return filepath.Join(Dir(root, "yearly"), fmt.Sprintf("%d.md", year))
}

// weeklyExists probes the canonical name and the legacy spellings older
// versions wrote: YYYY-weekNN.md and YYYY-WNN.md, both on the ISO year.
func weeklyExists(root string, monday time.Time) bool {
	if exists(WeeklyPath(root, monday)) {
		return true
	}
	isoYear, isoWeek := monday.ISOWeek()
	dir := Dir(root, "weekly")
	return exists(filepath.Join(dir, fmt.Sprintf("%d-week%02d.md", isoYear, isoWeek))) ||
		exists(filepath.Join(dir, fmt.Sprintf("%d-week%d.md", isoYear, isoWeek))) ||
		exists(filepath.Join(dir, fmt.Sprintf("%d-W%02d.md", isoYear, isoWeek)))
}

func monthlyExists(root string, month time.Time) bool {
	if exists(MonthlyPath(root, month)) {
		return true
	}
	dir := Dir(root, "monthly")
	return exists(filepath.Join(dir, month.Format("2006-01")+"-monthly.md")) ||
		exists(filepath.Join(dir, strings.ToLower(month.Format("January"))+month.Format("-2006")+".md"))
}

func quarterlyExists(root string, quarterStart time.Time) bool {
	if exists(QuarterlyPath(root, quarterStart)) {
		return true
	}
	q := (int(quarterStart.Month())-1)/3 + 1
	return exists(filepath.Join(Dir(root, "quarterly"), fmt.Sprintf("%d-quarter%d.md", quarterStart.Year(), q)))
}

func yearlyExists(root string, year int) bool {
	if exists(YearlyPath(root, year)) {
		return true
	}
	dir := Dir(root, "yearly")
	return exists(filepath.Join(dir, fmt.Sprintf("%d-yearly.md", year))) ||
		exists(filepath.Join(dir, fmt.Sprintf("%d-summary.md", year)))
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// PreviousMonday returns the Monday starting the week that contains d,
// or d itself when it is a Monday.
func PreviousMonday(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return midnight(d).AddDate(0, 0, -offset)
}
