package gitctx

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// FileStats buckets changed files by what they are.
type FileStats struct {
	Source int `json:"source"`
	Config int `json:"config"`
	Docs   int `json:"docs"`
	Tests  int `json:"tests"`
}

// CommitContext is the git-side input to journal generation.
type CommitContext struct {
	Hash         string    `json:"hash"`
	Author       string    `json:"author"`
	DateISO      string    `json:"date_iso"`
	When         time.Time `json:"-"`
	Message      string    `json:"message"`
	Parents      []string  `json:"-"`
	IsMerge      bool      `json:"is_merge"`
	ChangedFiles []string  `json:"changed_files"`
	FileStats    FileStats `json:"file_stats"`
	DiffSummary  string    `json:"diff_summary"`
	SizeClass    string    `json:"size_classification"`
	LinesAdded   int       `json:"-"`
	LinesDeleted int       `json:"-"`
}

// Collect gathers commit metadata and a filtered change summary. Paths
// matching an exclude pattern disappear from changed files, stats, and the
// diff summary alike.
func Collect(repoPath, sha string, excludePatterns []string) (*CommitContext, error) {
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repository: %w", err)
	}
	commit, err := repo.CommitObject(plumbing.NewHash(sha))
	if err != nil {
		return nil, fmt.Errorf("reading commit %s: %w", sha, err)
	}

	ctx := &CommitContext{
		Hash:    commit.Hash.String(),
		Author:  fmt.Sprintf("%s <%s>", commit.Author.Name, commit.Author.Email),
		DateISO: commit.Committer.When.Format(time.RFC3339),
		When:    commit.Committer.When,
		Message: strings.TrimRight(commit.Message, "\n"),
		IsMerge: commit.NumParents() > 1,
	}
	for _, p := range commit.ParentHashes {
		ctx.Parents = append(ctx.Parents, p.String())
	}

	// Merge commits skip journal generation entirely; the change summary
	// would double-count the merged branches anyway.
	if ctx.IsMerge {
		return ctx, nil
	}

	changes, err := numstat(repoPath, sha)
	if err != nil {
		// Metadata alone still makes a usable entry.
		return ctx, nil
	}

	var files, added, deleted int
	for _, ch := range changes {
		if matchesAny(ch.path, excludePatterns) {
			continue
		}
		ctx.ChangedFiles = append(ctx.ChangedFiles, ch.path)
		files++
		added += ch.added
		deleted += ch.deleted
		switch classify(ch.path) {
		case "tests":
			ctx.FileStats.Tests++
		case "docs":
			ctx.FileStats.Docs++
		case "config":
			ctx.FileStats.Config++
		default:
			ctx.FileStats.Source++
		}
	}
	ctx.LinesAdded = added
	ctx.LinesDeleted = deleted
	ctx.DiffSummary = fmt.Sprintf("%d files changed, %d insertions(+), %d deletions(-)", files, added, deleted)
	ctx.SizeClass = sizeClass(added + deleted)
	return ctx, nil
}

// PreviousCommitTime returns the committer time of the commit's first
// parent. ok is false for a root commit.
func PreviousCommitTime(repoPath, sha string) (time.Time, bool, error) {
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return time.Time{}, false, err
	}
	commit, err := repo.CommitObject(plumbing.NewHash(sha))
	if err != nil {
		return time.Time{}, false, err
	}
	if commit.NumParents() == 0 {
		return time.Time{}, false, nil
	}
	parent, err := commit.Parent(0)
	if err != nil {
		return time.Time{}, false, err
	}
	return parent.Committer.When, true, nil
}

// PreviousCommitMessage returns the first parent's message, or empty for a
// root commit. Used as prompt context only; errors degrade to empty.
func PreviousCommitMessage(repoPath, sha string) string {
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	commit, err := repo.CommitObject(plumbing.NewHash(sha))
	if err != nil || commit.NumParents() == 0 {
		return ""
	}
	parent, err := commit.Parent(0)
	if err != nil {
		return ""
	}
	return strings.TrimRight(parent.Message, "\n")
}

// IsJournalOnly reports whether every changed file lives under journalRel
// (a repo-relative directory). Such commits are the journal writing itself;
// journaling them again would regress forever.
func IsJournalOnly(changedFiles []string, journalRel string) bool {
	if len(changedFiles) == 0 || journalRel == "" {
		return false
	}
	prefix := strings.TrimSuffix(journalRel, "/") + "/"
	for _, f := range changedFiles {
		if !strings.HasPrefix(f, prefix) {
			return false
		}
	}
	return true
}

type change struct {
	path    string
	added   int
	deleted int
}

// numstat shells out for line counts; go-git's diff stats walk blobs and
// get slow on large repos.
func numstat(repoPath, sha string) ([]change, error) {
	out, err := runGit(repoPath, "show", "--numstat", "--format=", sha)
	if err != nil {
		return nil, err
	}
	return parseNumstat(out), nil
}

func parseNumstat(out string) []change {
	var changes []change
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			continue
		}
		ch := change{path: parts[2]}
		// Binary files report "-" for both counts.
		ch.added, _ = strconv.Atoi(parts[0])
		ch.deleted, _ = strconv.Atoi(parts[1])
		changes = append(changes, ch)
	}
	return changes
}

func matchesAny(p string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := path.Match(pattern, p); ok {
			return true
		}
		if ok, _ := path.Match(pattern, path.Base(p)); ok {
			return true
		}
		if strings.HasSuffix(pattern, "/**") {
			prefix := strings.TrimSuffix(pattern, "/**")
			if p == prefix || strings.HasPrefix(p, prefix+"/") {
				return true
			}
		}
	}
	return false
}

func classify(p string) string {
	base := path.Base(p)
	lower := strings.ToLower(p)
	switch {
	case strings.Contains(base, "_test.") || strings.Contains(base, ".spec.") ||
		hasSegment(lower, "test") || hasSegment(lower, "tests") || hasSegment(lower, "__tests__"):
		return "tests"
	case strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".rst") ||
		strings.HasSuffix(lower, ".txt") || hasSegment(lower, "docs"):
		return "docs"
	case isConfigExt(lower) || strings.HasPrefix(base, "."):
		return "config"
	default:
		return "source"
	}
}

func hasSegment(p, seg string) bool {
	for _, s := range strings.Split(p, "/") {
		if s == seg {
			return true
		}
	}
	return false
}

func isConfigExt(p string) bool {
	switch path.Ext(p) {
	case ".yaml", ".yml", ".json", ".toml", ".ini", ".cfg", ".conf":
		return true
	}
	return false
}

func sizeClass(totalLines int) string {
	switch {
	case totalLines < 10:
		return "small"
	case totalLines < 50:
		return "medium"
	default:
		return "large"
	}
}
