// Package window derives the chat lookback window for one commit: from the
// first parent's committer time to the commit's own, falling back to a
// 24-hour lookback when there is no parent to anchor on.
package window

import (
	"log/slog"
	"time"

	"github.com/quillhq/commit-journal/internal/gitctx"
)

// Strategy records how the window was derived.
type Strategy string

const (
	// CommitBased: [first parent's committer time, commit time].
	CommitBased Strategy = "commit_based"
	// FirstCommit: a root commit has no parent; look back 24 hours.
	FirstCommit Strategy = "first_commit"
	// Fallback24h: the parent could not be read; look back 24 hours.
	Fallback24h Strategy = "fallback_24h"
	// MergeSkipped: merge commits produce no window and no journal entry.
	MergeSkipped Strategy = "merge_skipped"
)

// lookback anchors first-commit and fallback windows.
const lookback = 24 * time.Hour

// Window is a [StartMS, EndMS] range in unix milliseconds. Everything
// downstream of the resolver speaks milliseconds; seconds never leak past
// this package.
type Window struct {
	Strategy      Strategy `json:"strategy"`
	StartMS       int64    `json:"start_ms"`
	EndMS         int64    `json:"end_ms"`
	DurationHours float64  `json:"duration_hours"`
}

// Skipped reports whether the commit produces no window at all.
func (w *Window) Skipped() bool { return w.Strategy == MergeSkipped }

// Contains reports whether a message timestamp falls inside the window,
// inclusive at both ends.
func (w *Window) Contains(tsMS int64) bool {
	return tsMS >= w.StartMS && tsMS <= w.EndMS
}

// Resolve computes the window for a collected commit. Never fails: any
// problem reading the parent degrades to the 24-hour fallback.
func Resolve(repoPath string, c *gitctx.CommitContext) *Window {
	if c.IsMerge {
		return &Window{Strategy: MergeSkipped}
	}
	if len(c.Parents) == 0 {
		return fromLookback(c.When, FirstCommit)
	}
	parentTime, ok, err := gitctx.PreviousCommitTime(repoPath, c.Hash)
	if err != nil || !ok {
		slog.Warn("falling back to 24h window", "commit", c.Hash, "error", err)
		return fromLookback(c.When, Fallback24h)
	}
	return fromRange(parentTime, c.When, CommitBased)
}

func fromLookback(commitTime time.Time, s Strategy) *Window {
	return fromRange(commitTime.Add(-lookback), commitTime, s)
}

func fromRange(start, end time.Time, s Strategy) *Window {
	startMS := start.UnixMilli()
	endMS := end.UnixMilli()
	if startMS > endMS {
		// A parent committed after its child happens with rewritten or
		// imported history; collapse to an empty window at the commit.
		startMS = endMS
	}
	return &Window{
		Strategy:      s,
		StartMS:       startMS,
		EndMS:         endMS,
		DurationHours: float64(endMS-startMS) / 3_600_000,
	}
}
