package summary

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/quillhq/commit-journal/internal/journal"
)

// InvokeFunc matches ai.Invoker.Invoke.
type InvokeFunc func(prompt, userContext string) string

// Period prompts. Each summary is one AI call over the period's source
// files; the cascade feeds each level the level below it.
const (
	dailyPrompt     = `Summarize this day of engineering journal entries into a cohesive first-person narrative: what was worked on, what was accomplished, what was hard. Markdown, a few short paragraphs or bullets, no top-level heading.`
	weeklyPrompt    = `Summarize this week of daily engineering summaries: themes, progress, and open threads. Markdown, no top-level heading.`
	monthlyPrompt   = `Summarize this month of engineering activity from the weekly material below: major accomplishments, direction changes, recurring obstacles. Markdown, no top-level heading.`
	quarterlyPrompt = `Summarize this quarter of engineering activity from the monthly summaries below. Focus on outcomes and trajectory. Markdown, no top-level heading.`
	yearlyPrompt    = `Summarize this year of engineering activity from the quarterly summaries below. Focus on the arc of the work. Markdown, no top-level heading.`
)

// GenerateDaily writes the daily summary for one day from its journal
// file. No journal file or an empty AI answer skips the write, so the
// next commit retries.
func GenerateDaily(root string, day time.Time, invoke InvokeFunc) error {
	if exists(DailyPath(root, day)) {
		return nil
	}
	entries, err := journal.ReadDay(root, day)
	if err != nil || len(entries) == 0 {
		return err
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "### %s\n\n%s\n\n", e.Heading, e.Body)
	}
	title := "Daily Summary - " + day.Format("January 2, 2006")
	return write(DailyPath(root, day), title, invoke(dailyPrompt, b.String()))
}

// GenerateWeekly summarizes the week starting at monday from its daily
// summaries, falling back to raw journal entries for days without one.
func GenerateWeekly(root string, monday time.Time, invoke InvokeFunc) error {
	if exists(WeeklyPath(root, monday)) {
		return nil
	}
	var b strings.Builder
	for i := 0; i < 7; i++ {
		day := monday.AddDate(0, 0, i)
		if text := readFile(DailyPath(root, day)); text != "" {
			fmt.Fprintf(&b, "%s\n\n", text)
			continue
		}
		entries, _ := journal.ReadDay(root, day)
		for _, e := range entries {
			fmt.Fprintf(&b, "### %s\n\n%s\n\n", e.Heading, e.Body)
		}
	}
	if b.Len() == 0 {
		return nil
	}
	sunday := monday.AddDate(0, 0, 6)
	title := fmt.Sprintf("Weekly Summary - %s to %s", monday.Format("January 2"), sunday.Format("January 2, 2006"))
	return write(WeeklyPath(root, monday), title, invoke(weeklyPrompt, b.String()))
}

// GenerateMonthly summarizes one month from its weekly summaries.
func GenerateMonthly(root string, month time.Time, invoke InvokeFunc) error {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	if exists(MonthlyPath(root, first)) {
		return nil
	}
	var b strings.Builder
	lastDay := first.AddDate(0, 1, -1)
	for monday := PreviousMonday(first); !monday.After(lastDay); monday = monday.AddDate(0, 0, 7) {
		if text := readFile(WeeklyPath(root, monday)); text != "" {
			fmt.Fprintf(&b, "%s\n\n", text)
		}
	}
	if b.Len() == 0 {
		// No weekly material yet; fall back to daily summaries.
		for d := first; d.Month() == month.Month(); d = d.AddDate(0, 0, 1) {
			if text := readFile(DailyPath(root, d)); text != "" {
				fmt.Fprintf(&b, "%s\n\n", text)
			}
		}
	}
	if b.Len() == 0 {
		return nil
	}
	title := "Monthly Summary - " + first.Format("January 2006")
	return write(MonthlyPath(root, first), title, invoke(monthlyPrompt, b.String()))
}

// GenerateQuarterly summarizes one quarter from its monthly summaries.
func GenerateQuarterly(root string, quarterStart time.Time, invoke InvokeFunc) error {
	if exists(QuarterlyPath(root, quarterStart)) {
		return nil
	}
	var b strings.Builder
	for i := 0; i < 3; i++ {
		if text := readFile(MonthlyPath(root, quarterStart.AddDate(0, i, 0))); text != "" {
			fmt.Fprintf(&b, "%s\n\n", text)
		}
	}
	if b.Len() == 0 {
		return nil
	}
	q := (int(quarterStart.Month())-1)/3 + 1
	title := fmt.Sprintf("Quarterly Summary - Q%d %d", q, quarterStart.Year())
	return write(QuarterlyPath(root, quarterStart), title, invoke(quarterlyPrompt, b.String()))
}

// GenerateYearly summarizes one year from its quarterly summaries.
func GenerateYearly(root string, year int, invoke InvokeFunc) error {
	if exists(YearlyPath(root, year)) {
		return nil
	}
	var b strings.Builder
	for _, m := range []time.Month{time.January, time.April, time.July, time.October} {
		start := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
		if text := readFile(QuarterlyPath(root, start)); text != "" {
			fmt.Fprintf(&b, "%s\n\n", text)
		}
	}
	if b.Len() == 0 {
		return nil
	}
	title := fmt.Sprintf("Yearly Summary - %d", year)
	return write(YearlyPath(root, year), title, invoke(yearlyPrompt, b.String()))
}

// Generate runs every due summary for one commit. Failures are logged and
// the rest still run; the existence checks make retries idempotent.
func Generate(root string, current time.Time, last *time.Time, invoke InvokeFunc) {
	if day, ok := PendingDaily(root, current); ok {
		if err := GenerateDaily(root, day, invoke); err != nil {
			slog.Warn("daily summary failed", "day", day.Format("2006-01-02"), "error", err)
		}
	}

	// Each level is generated in walk order before the level above it, so
	// a freshly written weekly feeds the monthly of the same pass.
	t := Detect(root, current, last)
	for _, monday := range t.Weekly {
		if err := GenerateWeekly(root, monday, invoke); err != nil {
			slog.Warn("weekly summary failed", "week", monday.Format("2006-01-02"), "error", err)
		}
	}
	for _, month := range t.Monthly {
		if err := GenerateMonthly(root, month, invoke); err != nil {
			slog.Warn("monthly summary failed", "month", month.Format("2006-01"), "error", err)
		}
	}
	for _, q := range t.Quarterly {
		if err := GenerateQuarterly(root, q, invoke); err != nil {
			slog.Warn("quarterly summary failed", "quarter", q.Format("2006-01"), "error", err)
		}
	}
	for _, y := range t.Yearly {
		if err := GenerateYearly(root, y, invoke); err != nil {
			slog.Warn("yearly summary failed", "year", y, "error", err)
		}
	}
}

// write lands content under a title. An existing file is never rewritten;
// an empty body means the AI was unavailable, and skipping that write
// keeps the trigger armed for next time.
func write(path, title, body string) error {
	if exists(path) {
		return nil
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(fmt.Sprintf("# %s\n\n%s\n", title, body)), 0644)
}

func readFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}
