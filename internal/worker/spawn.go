package worker

import (
	"fmt"
	"os/exec"
	"time"
)

// startDetached launches the hidden worker subcommand with no attached
// stdio and releases the process handle. The child outlives the hook; its
// own --timeout bounds how long it may run.
func startDetached(exe, repoPath, commit string, timeout time.Duration) error {
	args := []string{"worker", "--repo", repoPath}
	if commit != "" {
		args = append(args, "--commit", commit)
	}
	if timeout > 0 {
		args = append(args, "--timeout", timeout.String())
	}
	cmd := exec.Command(exe, args...)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawning background worker: %w", err)
	}
	return cmd.Process.Release()
}
