package journal

import (
	"os"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Entry is one block read back from a daily file.
type Entry struct {
	Heading string // "3:04 PM — Commit abc123" without the ### prefix
	Body    string
}

var dailyFilePattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})-journal\.md$`)

// ReadDay parses one daily file into its entries. A missing file is an
// empty day, not an error.
func ReadDay(root string, day time.Time) ([]Entry, error) {
	data, err := os.ReadFile(DailyPath(root, day))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return parseEntries(string(data)), nil
}

// Days lists every day that has a daily file, oldest first.
func Days(root string) []time.Time {
	entries, err := os.ReadDir(DailyDir(root))
	if err != nil {
		return nil
	}
	var days []time.Time
	for _, e := range entries {
		m := dailyFilePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		if d, err := time.Parse("2006-01-02", m[1]); err == nil {
			days = append(days, d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// LatestEntry returns the newest entry strictly before the given day,
// as prompt context for the boundary filter. Empty when the journal has
// no earlier entries.
func LatestEntry(root string, before time.Time) string {
	cutoff := dayKey(before)
	days := Days(root)
	for i := len(days) - 1; i >= 0; i-- {
		if dayKey(days[i]) >= cutoff {
			continue
		}
		entries, err := ReadDay(root, days[i])
		if err != nil || len(entries) == 0 {
			continue
		}
		last := entries[len(entries)-1]
		return "### " + last.Heading + "\n\n" + last.Body
	}
	return ""
}

func dayKey(t time.Time) string { return t.Format("2006-01-02") }

// parseEntries splits file content on the entry separator. The first
// chunk carries the file header, which is dropped.
func parseEntries(content string) []Entry {
	var out []Entry
	for _, chunk := range strings.Split(content, Separator) {
		chunk = strings.TrimSpace(chunk)
		// Drop the daily header line if present.
		if strings.HasPrefix(chunk, "# ") {
			if idx := strings.Index(chunk, "\n"); idx >= 0 {
				chunk = strings.TrimSpace(chunk[idx:])
			} else {
				continue
			}
		}
		if chunk == "" {
			continue
		}
		heading, body, _ := strings.Cut(chunk, "\n")
		out = append(out, Entry{
			Heading: strings.TrimSpace(strings.TrimPrefix(heading, "###")),
			Body:    strings.TrimSpace(body),
		})
	}
	return out
}
