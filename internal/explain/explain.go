// Package explain runs the discovery pipeline with tracing enabled and
// renders every decision: which storage directories were considered,
// which databases survived the recency cut, how each candidate scored,
// and what time window the commit produced. Read-only; no AI calls.
package explain

import (
	"fmt"
	"io"
	"time"

	"github.com/quillhq/commit-journal/internal/gitctx"
	"github.com/quillhq/commit-journal/internal/window"
	"github.com/quillhq/commit-journal/internal/workspace"
)

// Explain traces discovery and matching for one commit and writes a
// human-readable report.
func Explain(repoPath, commitRef string, w io.Writer) error {
	root, err := gitctx.RepoRoot(repoPath)
	if err != nil {
		return err
	}
	sha := commitRef
	if sha == "" || sha == "HEAD" {
		sha, err = gitctx.Head(root)
		if err != nil {
			return fmt.Errorf("resolving HEAD: %w", err)
		}
	}

	commit, err := gitctx.Collect(root, sha, nil)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Repository: %s\n", root)
	fmt.Fprintf(w, "Commit:     %s\n\n", commit.Hash)

	win := window.Resolve(root, commit)
	renderWindow(w, win)
	if win.Skipped() {
		fmt.Fprintln(w, "\nMerge commit: chat extraction and journaling are skipped entirely.")
		return nil
	}

	tr := &workspace.Trace{}
	dirs, err := workspace.CandidateDirs(tr)
	if err != nil {
		fmt.Fprintf(w, "\nPlatform lookup failed: %v\n", err)
		return nil
	}
	candidates := workspace.Discover(dirs, time.Now(), tr)

	matcher := &workspace.Matcher{
		RepoPath:    root,
		RepoRemotes: gitctx.Remotes(root),
	}
	match, matchErr := matcher.Best(candidates, tr)

	renderLocator(w, tr)
	renderDiscovery(w, tr)
	renderMatch(w, tr, match, matchErr)
	return nil
}

func renderWindow(w io.Writer, win *window.Window) {
	fmt.Fprintln(w, "Time window")
	fmt.Fprintf(w, "  strategy: %s\n", win.Strategy)
	if !win.Skipped() {
		fmt.Fprintf(w, "  start:    %s\n", time.UnixMilli(win.StartMS).Format(time.RFC3339))
		fmt.Fprintf(w, "  end:      %s\n", time.UnixMilli(win.EndMS).Format(time.RFC3339))
		fmt.Fprintf(w, "  duration: %.1f hours\n", win.DurationHours)
	}
}

func renderLocator(w io.Writer, tr *workspace.Trace) {
	fmt.Fprintln(w, "\nStorage directories")
	if tr.EnvOverride != "" {
		fmt.Fprintf(w, "  override via %s: %s\n", workspace.EnvWorkspacePath, tr.EnvOverride)
	}
	if tr.WSL {
		fmt.Fprintln(w, "  WSL detected; Windows mounts included")
	}
	for _, d := range tr.CandidateDirs {
		scanned := " (missing)"
		for _, s := range tr.ScannedDirs {
			if s == d {
				scanned = ""
				break
			}
		}
		fmt.Fprintf(w, "  %s%s\n", d, scanned)
	}
}

func renderDiscovery(w io.Writer, tr *workspace.Trace) {
	fmt.Fprintln(w, "\nDatabases (newest first, 48h recency cut)")
	if len(tr.FoundDBs) == 0 {
		fmt.Fprintln(w, "  none found")
	}
	for _, db := range tr.FoundDBs {
		fmt.Fprintf(w, "  %s\n", db)
	}
	if tr.SkippedByMtime > 0 {
		fmt.Fprintf(w, "  (%d older databases skipped)\n", tr.SkippedByMtime)
	}
}

func renderMatch(w io.Writer, tr *workspace.Trace, match *workspace.Match, err error) {
	fmt.Fprintln(w, "\nWorkspace matching")
	if err != nil {
		fmt.Fprintf(w, "  %v\n", err)
		return
	}
	for _, c := range tr.Candidates {
		fmt.Fprintf(w, "  %.2f %-12s %s\n", c.Confidence, c.MatchType, c.DBPath)
		fmt.Fprintf(w, "       %s\n", c.Reason)
	}
	if tr.Fallback {
		fmt.Fprintf(w, "  fallback: %s\n", tr.FallbackReason)
	}
	fmt.Fprintf(w, "\nSelected: %s\n", match.DBPath)
	fmt.Fprintf(w, "  type=%s confidence=%.2f\n", match.MatchType, match.Confidence)
	if match.WorkspaceFolder != "" {
		fmt.Fprintf(w, "  folder=%s\n", match.WorkspaceFolder)
	}
}
