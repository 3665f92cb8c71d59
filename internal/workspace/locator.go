// Package workspace finds the Cursor workspace that corresponds to a git
// repository: locate the IDE's storage directories for this platform,
// discover recent state databases under them, then score each database
// against the repo.
package workspace

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/quillhq/commit-journal/internal/journalerr"
)

// EnvWorkspacePath overrides platform lookup entirely when set.
const EnvWorkspacePath = "CURSOR_WORKSPACE_PATH"

// CandidateDirs returns workspace-storage directories to scan, in priority
// order: explicit override, platform defaults, then portable-install
// fallbacks. Paths are returned whether or not they exist; discovery
// filters. Only a genuinely unknown OS is an error.
func CandidateDirs(tr *Trace) ([]string, error) {
	return candidateDirs(runtime.GOOS, tr)
}

func candidateDirs(goos string, tr *Trace) ([]string, error) {
	var dirs []string

	if override := os.Getenv(EnvWorkspacePath); override != "" {
		dirs = append(dirs, override)
		if tr != nil {
			tr.EnvOverride = override
		}
	}

	home, _ := os.UserHomeDir()

	switch goos {
	case "darwin":
		dirs = append(dirs, filepath.Join(home, "Library", "Application Support", "Cursor", "User", "workspaceStorage"))
	case "linux":
		if isWSL() {
			if tr != nil {
				tr.WSL = true
			}
			dirs = append(dirs, wslWindowsDirs()...)
		}
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			dirs = append(dirs, filepath.Join(xdg, "Cursor", "User", "workspaceStorage"))
		}
		dirs = append(dirs, filepath.Join(home, ".config", "Cursor", "User", "workspaceStorage"))
		// Remote/server installs keep their state under ~/.cursor-server.
		dirs = append(dirs, filepath.Join(home, ".cursor-server", "data", "User", "workspaceStorage"))
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			dirs = append(dirs, filepath.Join(appData, "Cursor", "User", "workspaceStorage"))
		}
		if profile := os.Getenv("USERPROFILE"); profile != "" {
			dirs = append(dirs, filepath.Join(profile, "AppData", "Roaming", "Cursor", "User", "workspaceStorage"))
		}
	default:
		return nil, journalerr.Newf(journalerr.NotFound, "workspace.locate",
			"set "+EnvWorkspacePath+" to your Cursor workspaceStorage directory",
			"unsupported platform %q", goos)
	}

	// Portable installs put User/ next to the binary's data dir.
	dirs = append(dirs, filepath.Join(home, ".cursor", "User", "workspaceStorage"))

	dirs = dedupe(dirs)
	if tr != nil {
		tr.CandidateDirs = dirs
	}
	return dirs, nil
}

// isWSL detects Windows Subsystem for Linux. /proc/version mentions
// Microsoft on every WSL kernel; env vars cover edge cases where it
// doesn't.
func isWSL() bool {
	if data, err := os.ReadFile("/proc/version"); err == nil {
		v := strings.ToLower(string(data))
		if strings.Contains(v, "microsoft") || strings.Contains(v, "wsl") {
			return true
		}
	}
	return os.Getenv("WSL_DISTRO_NAME") != "" || os.Getenv("WSL_INTEROP") != ""
}

// wslWindowsDirs enumerates Cursor storage for every Windows user visible
// through the /mnt/c mount.
func wslWindowsDirs() []string {
	users, err := filepath.Glob("/mnt/c/Users/*")
	if err != nil {
		return nil
	}
	sort.Strings(users)
	var dirs []string
	for _, u := range users {
		base := filepath.Base(u)
		if base == "Public" || base == "Default" || base == "All Users" {
			continue
		}
		dirs = append(dirs, filepath.Join(u, "AppData", "Roaming", "Cursor", "User", "workspaceStorage"))
	}
	return dirs
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := paths[:0]
	for _, p := range paths {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// GlobalDBPath derives the global database location from a workspace
// database path. Workspace DBs live at workspaceStorage/<hash>/state.vscdb;
// the global one is a sibling of workspaceStorage.
func GlobalDBPath(workspaceDBPath string) string {
	hashDir := filepath.Dir(workspaceDBPath)
	storageDir := filepath.Dir(hashDir)
	userDir := filepath.Dir(storageDir)
	return filepath.Join(userDir, "globalStorage", "state.vscdb")
}
