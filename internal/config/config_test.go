package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/quillhq/commit-journal/internal/journalerr"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir()) // keep a real ~/.commit-journalrc.yaml out of the test
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Source != "" {
		t.Errorf("Source = %q, want empty for defaults", cfg.Source)
	}
	if cfg.Journal.Path != "journal" {
		t.Errorf("Journal.Path = %q, want %q", cfg.Journal.Path, "journal")
	}
	if !cfg.Journal.AutoGenerate || !cfg.Journal.IncludeChat || !cfg.Journal.IncludeMood {
		t.Error("journal toggles should default to true")
	}
	if cfg.AI.Model != DefaultModel {
		t.Errorf("AI.Model = %q, want %q", cfg.AI.Model, DefaultModel)
	}
	if cfg.Telemetry.Enabled {
		t.Error("telemetry should default to disabled")
	}
}

func TestLoadInterpolatesEnv(t *testing.T) {
	t.Setenv("CJ_TEST_KEY", "sk-test-value")
	dir := t.TempDir()
	writeConfig(t, dir, `
ai:
  openai_api_key: ${CJ_TEST_KEY}
  model: gpt-4o
journal:
  path: notes
  include_mood: false
git:
  exclude_patterns:
    - "*.lock"
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.AI.OpenAIAPIKey != "sk-test-value" {
		t.Errorf("OpenAIAPIKey = %q, want interpolated value", cfg.AI.OpenAIAPIKey)
	}
	if cfg.AI.Model != "gpt-4o" {
		t.Errorf("Model = %q, want gpt-4o", cfg.AI.Model)
	}
	if cfg.Journal.Path != "notes" {
		t.Errorf("Journal.Path = %q, want notes", cfg.Journal.Path)
	}
	if cfg.Journal.IncludeMood {
		t.Error("IncludeMood should be false")
	}
	if !cfg.Journal.IncludeChat {
		t.Error("IncludeChat should keep its default when unset")
	}
	if len(cfg.Git.ExcludePatterns) != 1 || cfg.Git.ExcludePatterns[0] != "*.lock" {
		t.Errorf("ExcludePatterns = %v", cfg.Git.ExcludePatterns)
	}
	if len(cfg.KeyEnvVars) != 1 || cfg.KeyEnvVars[0] != "CJ_TEST_KEY" {
		t.Errorf("KeyEnvVars = %v, want [CJ_TEST_KEY]", cfg.KeyEnvVars)
	}
}

func TestLoadUnresolvedVarIsConfigError(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "ai:\n  openai_api_key: ${CJ_DEFINITELY_UNSET_VAR}\n")

	_, err := Load(dir)
	if err == nil {
		t.Fatal("Load() should fail on unresolved ${VAR}")
	}
	if kind, ok := journalerr.KindOf(err); !ok || kind != journalerr.Config {
		t.Errorf("error kind = %v (ok=%v), want Config", kind, ok)
	}
}

func TestInterpolateIdempotent(t *testing.T) {
	t.Setenv("CJ_IDEM", "stable")
	in := []byte("a: ${CJ_IDEM}\nb: plain\n")

	once, err := Interpolate(in)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	twice, err := Interpolate(once)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if !bytes.Equal(once, twice) {
		t.Errorf("interpolation not idempotent: %q vs %q", once, twice)
	}
}

func TestRepoConfigWinsOverHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	writeConfig(t, home, "journal:\n  path: from-home\n")

	repo := t.TempDir()
	writeConfig(t, repo, "journal:\n  path: from-repo\n")

	cfg, err := Load(repo)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Journal.Path != "from-repo" {
		t.Errorf("Journal.Path = %q, want from-repo", cfg.Journal.Path)
	}
	if cfg.Source == "" {
		t.Error("Source should name the loaded file")
	}
}

func TestJournalRoot(t *testing.T) {
	cfg := Default()
	if got := cfg.JournalRoot("/repo"); got != filepath.Join("/repo", "journal") {
		t.Errorf("JournalRoot = %q", got)
	}
	cfg.Journal.Path = "/var/journal"
	if got := cfg.JournalRoot("/repo"); got != "/var/journal" {
		t.Errorf("JournalRoot abs = %q", got)
	}
}

func TestWriteStarter(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := WriteStarter(path); err != nil {
		t.Fatalf("WriteStarter() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading starter: %v", err)
	}
	if !bytes.Contains(data, []byte("${OPENAI_API_KEY}")) {
		t.Error("starter should reference ${OPENAI_API_KEY}")
	}

	if err := WriteStarter(path); err == nil {
		t.Error("WriteStarter should refuse to overwrite")
	}
}
