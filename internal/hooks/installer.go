// Package hooks installs and removes the post-commit hook. An existing
// hook is backed up to .orig and chained, so installing on top of another
// tool's hook keeps both working.
package hooks

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/quillhq/commit-journal/internal/gitctx"
)

// marker identifies our hook script so installs stay idempotent.
const marker = "commit-journal"

// postCommitScript runs the journal worker inline. All output is
// discarded and the trailing "|| true" guarantees even a crashing worker
// cannot fail the commit.
const postCommitScript = `#!/bin/sh
# commit-journal post-commit hook
# Chain to original hook if it exists (backup from install)
if [ -x "$(dirname "$0")/post-commit.orig" ]; then
    "$(dirname "$0")/post-commit.orig" "$@" || exit $?
fi
commit-journal post-commit "$PWD" >/dev/null 2>&1 || true
`

// postCommitBackgroundScript spawns a detached worker and returns
// immediately; the explicit commit hash pins the work even if HEAD moves.
const postCommitBackgroundScript = `#!/bin/sh
# commit-journal post-commit hook (background mode)
# Chain to original hook if it exists (backup from install)
if [ -x "$(dirname "$0")/post-commit.orig" ]; then
    "$(dirname "$0")/post-commit.orig" "$@" || exit $?
fi
commit-journal post-commit "$PWD" --background --commit "$(git rev-parse HEAD)" --timeout %ds >/dev/null 2>&1 || true
`

// InstallOptions configure hook installation.
type InstallOptions struct {
	// RepoPath is any path inside the target repository.
	RepoPath string
	// Background installs the detached-worker variant.
	Background bool
	// TimeoutSeconds bounds a background worker. Zero means 30.
	TimeoutSeconds int
}

// Install writes the post-commit hook, backing up any existing foreign
// hook to post-commit.orig.
func Install(opts InstallOptions) error {
	hooksDir, err := hooksDir(opts.RepoPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(hooksDir, 0755); err != nil {
		return fmt.Errorf("creating hooks directory: %w", err)
	}

	script := postCommitScript
	if opts.Background {
		timeout := opts.TimeoutSeconds
		if timeout <= 0 {
			timeout = 30
		}
		script = fmt.Sprintf(postCommitBackgroundScript, timeout)
	}

	hookPath := filepath.Join(hooksDir, "post-commit")
	if existing, err := os.ReadFile(hookPath); err == nil {
		if strings.Contains(string(existing), marker) {
			// Ours already; rewrite in place so mode changes take effect.
			return os.WriteFile(hookPath, []byte(script), 0755)
		}
		backupPath := hookPath + ".orig"
		if err := os.WriteFile(backupPath, existing, 0755); err != nil {
			return fmt.Errorf("backing up existing hook: %w", err)
		}
		fmt.Printf("Backed up existing post-commit to post-commit.orig\n")
	}

	if err := os.WriteFile(hookPath, []byte(script), 0755); err != nil {
		return fmt.Errorf("writing post-commit hook: %w", err)
	}
	return nil
}

// Uninstall removes our hook, restoring a backed-up original if present.
// Removing a hook we did not write is refused.
func Uninstall(repoPath string) error {
	hooksDir, err := hooksDir(repoPath)
	if err != nil {
		return err
	}
	hookPath := filepath.Join(hooksDir, "post-commit")

	existing, err := os.ReadFile(hookPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !strings.Contains(string(existing), marker) {
		return fmt.Errorf("post-commit hook was not installed by %s, leaving it alone", marker)
	}

	backupPath := hookPath + ".orig"
	if backup, err := os.ReadFile(backupPath); err == nil {
		if err := os.WriteFile(hookPath, backup, 0755); err != nil {
			return fmt.Errorf("restoring original hook: %w", err)
		}
		return os.Remove(backupPath)
	}
	return os.Remove(hookPath)
}

// Installed reports whether our hook is present.
func Installed(repoPath string) bool {
	dir, err := hooksDir(repoPath)
	if err != nil {
		return false
	}
	data, err := os.ReadFile(filepath.Join(dir, "post-commit"))
	return err == nil && strings.Contains(string(data), marker)
}

func hooksDir(repoPath string) (string, error) {
	gitDir, err := gitctx.GitDir(repoPath)
	if err != nil {
		return "", fmt.Errorf("not in a git repository: %w", err)
	}
	return filepath.Join(gitDir, "hooks"), nil
}
