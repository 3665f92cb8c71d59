// Package worker runs the per-commit journal pipeline. It is invoked by
// the post-commit hook, does whatever it can with whatever succeeds, and
// never reports failure: git must not notice this system exists. The log
// file under .git/hooks is the only place problems surface.
package worker

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/quillhq/commit-journal/internal/ai"
	"github.com/quillhq/commit-journal/internal/boundary"
	"github.com/quillhq/commit-journal/internal/chat"
	"github.com/quillhq/commit-journal/internal/config"
	"github.com/quillhq/commit-journal/internal/gitctx"
	"github.com/quillhq/commit-journal/internal/journal"
	"github.com/quillhq/commit-journal/internal/logging"
	"github.com/quillhq/commit-journal/internal/summary"
	"github.com/quillhq/commit-journal/internal/telemetry"
	"github.com/quillhq/commit-journal/internal/window"
	"github.com/quillhq/commit-journal/internal/workspace"
)

// Options select the commit to journal.
type Options struct {
	RepoPath string
	// Commit is the SHA to journal; empty means HEAD.
	Commit string
	// Timeout bounds the whole run. Zero means no deadline.
	Timeout time.Duration
	// Version stamps telemetry.
	Version string
}

// Run executes the pipeline to completion. It only returns early when the
// repository itself is unusable; every later failure degrades and the run
// continues with what it has.
func Run(opts Options) {
	repoPath := opts.RepoPath
	if repoPath == "" {
		repoPath, _ = os.Getwd()
	}
	if _, err := os.Stat(filepath.Join(repoPath, ".git")); err != nil {
		logging.Init(logging.Options{RepoPath: repoPath})
		logging.L().Error("not a git repository, nothing to do", "repo", repoPath)
		return
	}

	sha := opts.Commit
	if sha == "" {
		head, err := gitctx.Head(repoPath)
		if err != nil {
			logging.Init(logging.Options{RepoPath: repoPath})
			logging.L().Error("cannot resolve HEAD", "error", err)
			return
		}
		sha = head
	}

	cfg, err := config.Load(repoPath)
	if err != nil {
		// A broken config file disables AI but not the pipeline.
		logging.Init(logging.Options{RepoPath: repoPath, Commit: sha})
		logging.L().Warn("configuration unreadable, continuing with defaults", "error", err)
		cfg = config.Default()
	}

	// Git context first: its timestamp stamps every log line, keeping the
	// log consistent with the journal entry it describes.
	commit, err := gitctx.Collect(repoPath, sha, cfg.Git.ExcludePatterns)
	runID := uuid.NewString()
	logOpts := logging.Options{RepoPath: repoPath, RunID: runID, Commit: sha}
	if commit != nil {
		logOpts.Timestamp = commit.When
	}
	logging.Init(logOpts)
	defer logging.Close()
	log := logging.L()

	if err != nil {
		log.Error("cannot read commit, nothing to journal", "error", err)
		return
	}
	if !cfg.Journal.AutoGenerate {
		log.Info("auto_generate disabled, skipping")
		return
	}

	tracer := telemetry.New(cfg.Telemetry.Enabled, cfg.Telemetry.ServiceName, opts.Version, cfg.Telemetry.Exporters)
	defer tracer.Close()

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	run := &pipeline{
		ctx:      ctx,
		repo:     repoPath,
		cfg:      cfg,
		commit:   commit,
		tracer:   tracer,
		invoker:  ai.New(repoPath, tracer),
		journals: cfg.JournalRoot(repoPath),
	}
	run.execute()
}

type pipeline struct {
	ctx      context.Context
	repo     string
	cfg      *config.Config
	commit   *gitctx.CommitContext
	tracer   telemetry.Tracer
	invoker  *ai.Invoker
	journals string
}

func (p *pipeline) execute() {
	log := logging.L()
	span := p.tracer.StartSpan("worker.run")
	defer span.End(true)

	// Merge commits write nothing at all, summaries included; the crossed
	// boundaries stay armed for the next regular commit.
	if p.commit.IsMerge {
		log.Info("merge commit skipped")
		return
	}

	// Summaries next: yesterday's pending daily (and any crossed period
	// boundaries) are due regardless of what this commit contains.
	p.runSummaries()
	if gitctx.IsJournalOnly(p.commit.ChangedFiles, p.cfg.Journal.Path) {
		log.Info("journal-only commit skipped")
		return
	}

	win := p.resolveWindow()
	exchanges := p.collectChat(win)
	body := p.generateEntry(exchanges)
	p.writeEntry(body)
}

func (p *pipeline) runSummaries() {
	span := p.tracer.StartSpan("summary.cascade")
	defer span.End(true)

	var last *time.Time
	if t, ok, err := gitctx.PreviousCommitTime(p.repo, p.commit.Hash); err == nil && ok {
		last = &t
	}
	summary.Generate(p.journals, p.commit.When, last, p.invoke)
}

func (p *pipeline) resolveWindow() *window.Window {
	span := p.tracer.StartSpan("window.resolve")
	win := window.Resolve(p.repo, p.commit)
	span.Set("window.strategy", string(win.Strategy))
	span.End(true)
	logging.L().Info("window resolved",
		"strategy", win.Strategy, "duration_hours", win.DurationHours)
	return win
}

// collectChat runs discovery, matching, and assembly. Any failure returns
// an empty conversation; the journal entry still gets written from git
// context alone.
func (p *pipeline) collectChat(win *window.Window) []boundary.Exchange {
	log := logging.L()
	if !p.cfg.Journal.IncludeChat || win.Skipped() {
		return nil
	}

	span := p.tracer.StartSpan("chat.extract")
	defer span.End(true)

	dirs, err := workspace.CandidateDirs(nil)
	if err != nil {
		log.Warn("no workspace storage for this platform", "error", err)
		span.Set("chat.messages", 0)
		return nil
	}
	candidates := workspace.Discover(dirs, time.Now(), nil)
	matcher := &workspace.Matcher{
		RepoPath:    p.repo,
		RepoRemotes: gitctx.Remotes(p.repo),
	}
	match, err := matcher.Best(candidates, nil)
	if err != nil {
		log.Warn("no matching workspace, journaling without chat", "error", err)
		span.Set("chat.messages", 0)
		return nil
	}
	log.Info("workspace matched",
		"db", match.DBPath, "type", match.MatchType, "confidence", match.Confidence)
	span.Set("match.type", match.MatchType)
	span.Set("match.confidence", match.Confidence)

	msgs := chat.Assemble(candidates, win)
	span.Set("chat.messages", len(msgs))
	log.Info("chat assembled", "messages", len(msgs))
	if len(msgs) == 0 {
		return nil
	}

	prevCommit := gitctx.PreviousCommitMessage(p.repo, p.commit.Hash)
	prevEntry := journal.LatestEntry(p.journals, p.commit.When)
	exchanges, err := boundary.Filter(msgs, p.commit, prevCommit, prevEntry, p.invoke)
	if err != nil {
		log.Error("boundary filter rejected input", "error", err)
		return nil
	}
	log.Info("boundary applied", "kept", len(exchanges), "of", len(msgs))
	return exchanges
}

func (p *pipeline) generateEntry(exchanges []boundary.Exchange) string {
	span := p.tracer.StartSpan("entry.generate")
	defer span.End(true)

	return journal.GenerateEntry(journal.EntryInput{
		Commit:      p.commit,
		Exchanges:   exchanges,
		IncludeChat: p.cfg.Journal.IncludeChat,
		IncludeMood: p.cfg.Journal.IncludeMood,
	}, p.invoke)
}

func (p *pipeline) writeEntry(body string) {
	log := logging.L()
	if body == "" {
		log.Warn("nothing to write for this commit")
		return
	}
	span := p.tracer.StartSpan("entry.write")
	created, err := journal.AppendCommitEntry(p.journals, p.commit.When, p.commit.Hash, body)
	span.Set("entry.file_created", created)
	span.End(err == nil)
	if err != nil {
		log.Error("journal write failed", "error", err)
		return
	}
	log.Info("journal entry written",
		"file", journal.DailyPath(p.journals, p.commit.When), "new_file", created)
}

// invoke adapts the AI invoker to the prompt/context signature the
// downstream packages share.
func (p *pipeline) invoke(prompt, userContext string) string {
	return p.invoker.Invoke(p.ctx, prompt, userContext)
}

// SpawnDetached starts a background worker for the commit and returns
// without waiting. Used by the hook's background mode so git regains the
// terminal immediately.
func SpawnDetached(repoPath, commit string, timeout time.Duration) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	return startDetached(exe, repoPath, commit, timeout)
}
