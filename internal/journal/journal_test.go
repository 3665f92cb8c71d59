package journal

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/quillhq/commit-journal/internal/boundary"
	"github.com/quillhq/commit-journal/internal/gitctx"
)

var noon = time.Date(2025, 1, 8, 12, 30, 0, 0, time.UTC)

func readDaily(t *testing.T, root string, day time.Time) string {
	t.Helper()
	data, err := os.ReadFile(DailyPath(root, day))
	if err != nil {
		t.Fatalf("reading daily file: %v", err)
	}
	return string(data)
}

func TestAppendCommitEntryNewFile(t *testing.T) {
	root := t.TempDir()

	created, err := AppendCommitEntry(root, noon, "abc123def", "#### Summary\n\nDid things.")
	if err != nil {
		t.Fatalf("AppendCommitEntry() error: %v", err)
	}
	if !created {
		t.Error("first write should report file creation")
	}

	content := readDaily(t, root, noon)
	if !strings.HasPrefix(content, "# Daily Journal Entries - January 8, 2025\n\n") {
		t.Errorf("missing daily header:\n%s", content)
	}
	if !strings.Contains(content, "### 12:30 PM — Commit abc123def\n\n") {
		t.Errorf("missing entry header:\n%s", content)
	}
}

func TestAppendCommitEntryExistingFile(t *testing.T) {
	root := t.TempDir()

	if _, err := AppendCommitEntry(root, noon, "aaa", "first"); err != nil {
		t.Fatal(err)
	}
	created, err := AppendCommitEntry(root, noon.Add(time.Hour), "bbb", "second")
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Error("second write reported creation")
	}

	content := readDaily(t, root, noon)
	if strings.Count(content, "# Daily Journal Entries") != 1 {
		t.Error("header written more than once")
	}
	if !strings.Contains(content, "first\n\n____\n\n### 1:30 PM — Commit bbb") {
		t.Errorf("separator missing between entries:\n%s", content)
	}
}

func TestAppendPreservesUnicode(t *testing.T) {
	root := t.TempDir()
	body := "Fixed the naïve café lookup — now handles 日本語 paths 🎉"

	if _, err := AppendCommitEntry(root, noon, "abc", body); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(readDaily(t, root, noon), body) {
		t.Error("unicode content not preserved verbatim")
	}
}

func TestAddReflection(t *testing.T) {
	root := t.TempDir()

	if err := AddReflection(root, "2025-01-07", "thinking about the design", noon); err != nil {
		t.Fatalf("AddReflection() error: %v", err)
	}
	day := time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC)
	content := readDaily(t, root, day)
	if !strings.Contains(content, "— Reflection\n\n") {
		t.Errorf("reflection header missing:\n%s", content)
	}
	// Stamped with wall clock, filed under the requested date.
	if !strings.Contains(content, "### 12:30 PM") {
		t.Errorf("wall-clock stamp missing:\n%s", content)
	}
}

func TestAddReflectionRejectsBadDates(t *testing.T) {
	root := t.TempDir()
	cases := []struct {
		name, date string
	}{
		{"garbage", "not-a-date"},
		{"wrong format", "07-01-2025"},
		{"impossible day", "2025-02-30"},
		{"future", "2025-06-01"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := AddReflection(root, c.date, "text", noon)
			var derr *DateError
			if !errors.As(err, &derr) {
				t.Fatalf("err = %v, want *DateError", err)
			}
		})
	}
	// No writes may have happened.
	if _, err := os.Stat(DailyDir(root)); !os.IsNotExist(err) {
		t.Error("rejected reflections still touched the journal tree")
	}
}

func TestAddReflectionAcceptsToday(t *testing.T) {
	if err := AddReflection(t.TempDir(), "2025-01-08", "today", noon); err != nil {
		t.Errorf("today should be accepted: %v", err)
	}
}

func TestCaptureContext(t *testing.T) {
	root := t.TempDir()
	if err := CaptureContext(root, "learned about busy timeouts", noon); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(readDaily(t, root, noon), "— AI Knowledge Capture\n\n") {
		t.Error("capture header missing")
	}
}

func TestDirectoriesCreatedOnFirstWriteOnly(t *testing.T) {
	root := filepath.Join(t.TempDir(), "journal")

	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Fatal("journal root should not pre-exist")
	}
	if _, err := AppendCommitEntry(root, noon, "abc", "body"); err != nil {
		t.Fatalf("write should create directories on demand: %v", err)
	}
}

func TestReadDayRoundTrip(t *testing.T) {
	root := t.TempDir()
	if _, err := AppendCommitEntry(root, noon, "abc", "first body"); err != nil {
		t.Fatal(err)
	}
	if err := AddReflection(root, "2025-01-08", "second body", noon.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	entries, err := ReadDay(root, noon)
	if err != nil {
		t.Fatalf("ReadDay() error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Heading != "12:30 PM — Commit abc" {
		t.Errorf("entries[0].Heading = %q", entries[0].Heading)
	}
	if entries[1].Body != "second body" {
		t.Errorf("entries[1].Body = %q", entries[1].Body)
	}
}

func TestReadDayMissingFile(t *testing.T) {
	entries, err := ReadDay(t.TempDir(), noon)
	if err != nil || entries != nil {
		t.Errorf("missing file should read as empty day, got (%v, %v)", entries, err)
	}
}

func TestLatestEntry(t *testing.T) {
	root := t.TempDir()
	earlier := noon.AddDate(0, 0, -3)
	if _, err := AppendCommitEntry(root, earlier, "old1", "old body one"); err != nil {
		t.Fatal(err)
	}
	if _, err := AppendCommitEntry(root, earlier.Add(time.Hour), "old2", "old body two"); err != nil {
		t.Fatal(err)
	}
	// Same-day entries must not count as "previous".
	if _, err := AppendCommitEntry(root, noon, "today", "today body"); err != nil {
		t.Fatal(err)
	}

	got := LatestEntry(root, noon)
	if !strings.Contains(got, "old body two") {
		t.Errorf("LatestEntry should return the last entry of the previous day, got:\n%s", got)
	}
	if strings.Contains(got, "today body") {
		t.Error("LatestEntry leaked a same-day entry")
	}
}

func TestLatestEntryEmptyJournal(t *testing.T) {
	if got := LatestEntry(t.TempDir(), noon); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestGenerateEntrySections(t *testing.T) {
	commit := &gitctx.CommitContext{
		Hash:         "abc123",
		Author:       "Dev <dev@example.com>",
		DateISO:      "2025-01-08T12:30:00Z",
		ChangedFiles: []string{"main.go"},
		FileStats:    gitctx.FileStats{Source: 1},
		DiffSummary:  "1 files changed, 5 insertions(+), 1 deletions(-)",
		SizeClass:    "small",
	}
	in := EntryInput{
		Commit: commit,
		Exchanges: []boundary.Exchange{
			{Speaker: "user", Text: "why does this fail?"},
			{Speaker: "assistant", Text: "the index is off by one"},
		},
		IncludeChat: true,
		IncludeMood: true,
	}
	invoke := func(prompt, userContext string) string {
		switch {
		case strings.Contains(prompt, "summarizing"):
			return "I fixed the off-by-one error."
		case strings.Contains(prompt, "technical substance"):
			return "- corrected index arithmetic"
		case strings.Contains(prompt, "completed in this commit"):
			return "- fixed the bug"
		case strings.Contains(prompt, "frustrations"):
			return "NONE"
		case strings.Contains(prompt, "mood"):
			return "Relieved\nbug finally found after long session"
		}
		return ""
	}

	body := GenerateEntry(in, invoke)

	wantOrder := []string{
		"#### Summary",
		"#### Technical Synopsis",
		"#### Accomplishments",
		"#### Tone/Mood",
		"#### Discussion Notes (from chat)",
		"#### Commit Metadata",
	}
	pos := -1
	for _, h := range wantOrder {
		idx := strings.Index(body, h)
		if idx < 0 {
			t.Errorf("section %q missing:\n%s", h, body)
			continue
		}
		if idx < pos {
			t.Errorf("section %q out of order", h)
		}
		pos = idx
	}
	if strings.Contains(body, "Frustrations") {
		t.Error("NONE answer should drop the section")
	}
	if !strings.Contains(body, "> Relieved\n> bug finally found") {
		t.Errorf("mood blockquotes wrong:\n%s", body)
	}
	if !strings.Contains(body, "> **User:** why does this fail?") {
		t.Errorf("attributed discussion note wrong:\n%s", body)
	}
	if !strings.Contains(body, "- **Commit:** abc123") {
		t.Errorf("commit metadata wrong:\n%s", body)
	}
}

func TestGenerateEntryDegradedAI(t *testing.T) {
	commit := &gitctx.CommitContext{Hash: "abc", Author: "Dev", DateISO: "2025-01-08T12:30:00Z"}
	in := EntryInput{Commit: commit, IncludeChat: true, IncludeMood: true}
	invoke := func(string, string) string { return "" }

	body := GenerateEntry(in, invoke)
	if !strings.Contains(body, "#### Commit Metadata") {
		t.Errorf("metadata must survive total AI failure:\n%s", body)
	}
	if strings.Contains(body, "#### Summary") {
		t.Error("empty AI response should drop the section")
	}
}

func TestDiscussionNotesUnattributed(t *testing.T) {
	got := discussionNotes([]boundary.Exchange{{Speaker: "", Text: "orphan line"}})
	if got != "> orphan line" {
		t.Errorf("got %q", got)
	}
}
