package workspace

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/quillhq/commit-journal/internal/gitctx"
	"github.com/quillhq/commit-journal/internal/journalerr"
)

// ConfidenceThreshold separates a usable match from guessing. Below it the
// matcher falls back to the most recently modified database.
const ConfidenceThreshold = 0.8

// Match type names, strongest evidence first.
const (
	MatchGitRemote  = "git_remote"
	MatchFolderPath = "folder_path"
	MatchFolderName = "folder_name"
	MatchMostRecent = "most_recent"
)

// Match is the matcher's verdict for one repository.
type Match struct {
	DBPath          string  `json:"db_path"`
	Confidence      float64 `json:"confidence"`
	MatchType       string  `json:"match_type"`
	WorkspaceFolder string  `json:"workspace_folder"`
	GitRemote       string  `json:"git_remote,omitempty"`
}

// Matcher scores candidate databases against one repository.
type Matcher struct {
	RepoPath    string
	RepoRemotes []string

	// LookupRemotes reads the remotes of a workspace folder. Nil uses git;
	// tests substitute a table.
	LookupRemotes func(path string) []string
}

// Best picks the highest-confidence candidate, or the newest database when
// nothing clears the threshold. Zero candidates is the only error.
func (m *Matcher) Best(candidates []StateDB, tr *Trace) (*Match, error) {
	if len(candidates) == 0 {
		return nil, journalerr.Newf(journalerr.NotFound, "workspace.match",
			"no Cursor activity in the last 48 hours; open the project in Cursor or set "+EnvWorkspacePath,
			"no workspace databases found")
	}

	lookup := m.LookupRemotes
	if lookup == nil {
		lookup = gitctx.Remotes
	}

	var best *Match
	for _, cand := range candidates {
		match := m.score(cand, lookup, tr)
		if best == nil || match.Confidence > best.Confidence {
			best = match
		}
	}

	if best.Confidence >= ConfidenceThreshold {
		return best, nil
	}

	// Candidates arrive newest first, so the fallback is the head.
	if tr != nil {
		tr.Fallback = true
		tr.FallbackReason = fmt.Sprintf("best score %.2f below threshold %.2f", best.Confidence, ConfidenceThreshold)
	}
	fb := &Match{
		DBPath:          candidates[0].Path,
		Confidence:      0.0,
		MatchType:       MatchMostRecent,
		WorkspaceFolder: workspaceFolder(candidates[0].Path),
	}
	return fb, nil
}

// score computes the best rule hit for one candidate.
func (m *Matcher) score(cand StateDB, lookup func(string) []string, tr *Trace) *Match {
	folder := workspaceFolder(cand.Path)
	match := &Match{DBPath: cand.Path, WorkspaceFolder: folder}
	reason := "no workspace folder recorded"

	if folder != "" {
		// Rule 1: the workspace folder's git remote matches the repo's.
		if conf, remote := m.remoteScore(folder, lookup); conf > match.Confidence {
			match.Confidence = conf
			match.MatchType = MatchGitRemote
			match.GitRemote = remote
			reason = "git remote " + remote
		}

		// Rule 2: the workspace folder is the repo path.
		if conf := m.folderPathScore(folder); conf > match.Confidence {
			match.Confidence = conf
			match.MatchType = MatchFolderPath
			match.GitRemote = ""
			reason = "workspace folder equals repo path"
		}

		// Rule 3: basename similarity, never enough by itself.
		if conf := m.folderNameScore(folder); conf > match.Confidence {
			match.Confidence = conf
			match.MatchType = MatchFolderName
			match.GitRemote = ""
			reason = fmt.Sprintf("folder name similarity for %q", filepath.Base(folder))
		}
	}

	tr.addCandidate(CandidateTrace{
		DBPath:     cand.Path,
		Folder:     folder,
		GitRemote:  match.GitRemote,
		Confidence: match.Confidence,
		MatchType:  match.MatchType,
		Reason:     reason,
	})
	return match
}

func (m *Matcher) remoteScore(folder string, lookup func(string) []string) (float64, string) {
	theirs := lookup(folder)
	if len(theirs) == 0 || len(m.RepoRemotes) == 0 {
		return 0, ""
	}
	for _, a := range m.RepoRemotes {
		for _, b := range theirs {
			if a == b {
				return 1.00, b
			}
		}
	}
	for _, a := range m.RepoRemotes {
		na := gitctx.NormalizeRemoteURL(a)
		for _, b := range theirs {
			if na == gitctx.NormalizeRemoteURL(b) {
				return 0.95, b
			}
		}
	}
	return 0, ""
}

func (m *Matcher) folderPathScore(folder string) float64 {
	a := filepath.Clean(folder)
	b := filepath.Clean(m.RepoPath)
	if a == b {
		return 0.85
	}
	ra, errA := filepath.EvalSymlinks(a)
	rb, errB := filepath.EvalSymlinks(b)
	if errA == nil && errB == nil && ra == rb {
		return 0.82
	}
	return 0
}

// folderNameScore ladders a longest-common-subsequence ratio over the
// basenames. The ladder tops out at 0.75, so a name alone never clears the
// threshold; it exists to rank fallback candidates and explain decisions.
func (m *Matcher) folderNameScore(folder string) float64 {
	ratio := similarity(
		strings.ToLower(filepath.Base(folder)),
		strings.ToLower(filepath.Base(m.RepoPath)),
	)
	switch {
	case ratio >= 0.9:
		return 0.75
	case ratio >= 0.8:
		return 0.70
	case ratio >= 0.6:
		return 0.60
	default:
		return ratio * 0.5
	}
}

// similarity is 2*common/(len(a)+len(b)) with common measured by a
// character diff. 1.0 means identical, 0.0 disjoint.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)
	common := 0
	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffEqual {
			common += len(d.Text)
		}
	}
	return 2.0 * float64(common) / float64(len(a)+len(b))
}

// workspaceFolder reads the folder attribute from the workspace.json next
// to a state database. Empty when absent or unparseable.
func workspaceFolder(dbPath string) string {
	metaPath := filepath.Join(filepath.Dir(dbPath), "workspace.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return ""
	}
	var meta struct {
		Folder string `json:"folder"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return ""
	}
	return folderFromURI(meta.Folder)
}

// folderFromURI strips the file:// scheme and percent-encoding Cursor uses
// in workspace.json.
func folderFromURI(uri string) string {
	if uri == "" {
		return ""
	}
	p := strings.TrimPrefix(uri, "file://")
	if decoded, err := url.PathUnescape(p); err == nil {
		p = decoded
	}
	return p
}
