// Package logging writes structured JSON logs for hook runs to a rotating
// file under the repository's .git/hooks directory. The hook must stay
// silent on stdout/stderr, so the file is the only place failures surface.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevelEnvVar controls verbosity; DEBUG, INFO, WARN, ERROR.
const LogLevelEnvVar = "COMMIT_JOURNAL_LOG_LEVEL"

// FileName is the log file created under <repo>/.git/hooks.
const FileName = "commit-journal.log"

// maxSizeMB rotates the file once it exceeds this size.
const maxSizeMB = 10

var (
	mu     sync.RWMutex
	logger *slog.Logger
	sink   io.Closer
)

// Options configure a hook-run logger.
type Options struct {
	// RepoPath is the repository root; the log lands in .git/hooks.
	RepoPath string
	// Timestamp, when set, stamps every line instead of wall clock. Hook
	// runs use the commit's own time so log order matches journal order.
	Timestamp time.Time
	// RunID correlates all lines of one worker invocation.
	RunID string
	// Commit is the commit being journaled, when known.
	Commit string
}

// Init points the package logger at <repo>/.git/hooks/commit-journal.log,
// rotating at 10 MB. Falls back to stderr when the hooks directory is not
// writable. Also installs the logger as slog's default so library warnings
// end up in the same file.
func Init(opts Options) {
	mu.Lock()
	defer mu.Unlock()

	closeSinkLocked()

	level := parseLevel(os.Getenv(LogLevelEnvVar))
	var w io.Writer = os.Stderr

	hooksDir := filepath.Join(opts.RepoPath, ".git", "hooks")
	if st, err := os.Stat(hooksDir); err == nil && st.IsDir() {
		lj := &lumberjack.Logger{
			Filename:   filepath.Join(hooksDir, FileName),
			MaxSize:    maxSizeMB,
			MaxBackups: 1,
		}
		w = lj
		sink = lj
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if !opts.Timestamp.IsZero() {
		ts := opts.Timestamp
		handlerOpts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				a.Value = slog.TimeValue(ts)
			}
			return a
		}
	}

	l := slog.New(slog.NewJSONHandler(w, handlerOpts))
	if opts.RunID != "" {
		l = l.With("run", opts.RunID)
	}
	if opts.Commit != "" {
		l = l.With("commit", opts.Commit)
	}

	logger = l
	slog.SetDefault(l)
}

// L returns the current logger, or slog's default before Init.
func L() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// Close flushes and releases the log file. Safe to call more than once.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	closeSinkLocked()
	logger = nil
}

func closeSinkLocked() {
	if sink != nil {
		_ = sink.Close()
		sink = nil
	}
}

// LogDuration emits msg with a duration_ms attribute measured from start.
// Meant for defer at the top of a pipeline step.
func LogDuration(l *slog.Logger, level slog.Level, msg string, start time.Time, attrs ...any) {
	attrs = append(attrs, "duration_ms", time.Since(start).Milliseconds())
	l.Log(context.Background(), level, msg, attrs...)
}

func parseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
