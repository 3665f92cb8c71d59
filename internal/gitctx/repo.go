// Package gitctx reads commit and repository state for journal generation.
// Object data goes through go-git; line stats and remote lookups shell out
// to git itself, which stays correct on repos go-git handles slowly.
package gitctx

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// RepoRoot returns the root directory of the repository containing path.
func RepoRoot(path string) (string, error) {
	out, err := runGit(path, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("not a git repository: %w", err)
	}
	return out, nil
}

// GitDir returns the repository's .git directory as an absolute path.
func GitDir(path string) (string, error) {
	out, err := runGit(path, "rev-parse", "--git-dir")
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(out) {
		out = filepath.Join(path, out)
	}
	return out, nil
}

// Head returns the SHA of HEAD.
func Head(path string) (string, error) {
	return runGit(path, "rev-parse", "HEAD")
}

// IsInsideWorkTree checks whether path is inside a git repository.
func IsInsideWorkTree(path string) bool {
	out, err := runGit(path, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// CommitTimestamp returns the committer timestamp for a commit.
func CommitTimestamp(path, sha string) (time.Time, error) {
	out, err := runGit(path, "show", "-s", "--format=%cI", sha)
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, out)
}

func runGit(dir string, args ...string) (string, error) {
	full := append([]string{"-C", dir}, args...)
	out, err := exec.Command("git", full...).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
