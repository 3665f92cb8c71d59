// Package config loads the journal configuration from
// .commit-journalrc.yaml, interpolating ${VAR} references from the
// environment. Loading stays cheap: callers re-read before every AI call
// so key rotation takes effect without restarting anything.
package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/quillhq/commit-journal/internal/journalerr"
)

// FileName is the per-repo configuration file, also accepted in the user's
// home directory.
const FileName = ".commit-journalrc.yaml"

// DefaultModel is the chat model used when ai.model is not set.
const DefaultModel = "gpt-4o-mini"

// JournalConfig controls where entries land and which sections appear.
type JournalConfig struct {
	Path         string `mapstructure:"path"`
	AutoGenerate bool   `mapstructure:"auto_generate"`
	IncludeChat  bool   `mapstructure:"include_chat"`
	IncludeMood  bool   `mapstructure:"include_mood"`
}

// GitConfig filters what the context collector reports.
type GitConfig struct {
	ExcludePatterns []string `mapstructure:"exclude_patterns"`
}

// AIConfig holds provider credentials and model choice.
type AIConfig struct {
	OpenAIAPIKey string `mapstructure:"openai_api_key"`
	Model        string `mapstructure:"model"`
}

// TelemetryConfig controls span export. Disabled means every span is a no-op.
type TelemetryConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	ServiceName string   `mapstructure:"service_name"`
	Exporters   []string `mapstructure:"exporters"`
}

// Config is the fully resolved configuration.
type Config struct {
	Journal   JournalConfig   `mapstructure:"journal"`
	Git       GitConfig       `mapstructure:"git"`
	AI        AIConfig        `mapstructure:"ai"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// KeyEnvVars are the ${VAR} names that fed ai.openai_api_key. The AI
	// invoker treats provider errors mentioning any of them as auth
	// failures and skips retrying.
	KeyEnvVars []string `mapstructure:"-"`
	// Source is the file that was loaded, empty when running on defaults.
	Source string `mapstructure:"-"`
}

var knownSections = map[string]bool{
	"journal":   true,
	"git":       true,
	"ai":        true,
	"telemetry": true,
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Journal: JournalConfig{
			Path:         "journal",
			AutoGenerate: true,
			IncludeChat:  true,
			IncludeMood:  true,
		},
		Git: GitConfig{},
		AI: AIConfig{
			Model: DefaultModel,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "commit-journal",
		},
	}
}

// Load reads configuration for repoPath. Precedence: <repo>/.commit-journalrc.yaml,
// then ~/.commit-journalrc.yaml, then built-in defaults. A file that exists
// but cannot be read or interpolated is a Config error.
func Load(repoPath string) (*Config, error) {
	path := Locate(repoPath)
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// Locate returns the configuration file that Load would use, or empty when
// only defaults apply.
func Locate(repoPath string) string {
	if repoPath != "" {
		p := filepath.Join(repoPath, FileName)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, FileName)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadFile reads and resolves one specific configuration file.
func LoadFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, journalerr.New(journalerr.Config, "config.load", err, "check permissions on "+path)
	}

	keyVars := keyEnvRefs(raw)
	warnUnknownSections(raw, path)

	resolved, err := Interpolate(raw)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	if err := v.ReadConfig(bytes.NewReader(resolved)); err != nil {
		return nil, journalerr.New(journalerr.Config, "config.parse", err, "fix YAML syntax in "+path)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, journalerr.New(journalerr.Config, "config.decode", err, "check field types in "+path)
	}
	cfg.KeyEnvVars = keyVars
	cfg.Source = path
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("journal.path", d.Journal.Path)
	v.SetDefault("journal.auto_generate", d.Journal.AutoGenerate)
	v.SetDefault("journal.include_chat", d.Journal.IncludeChat)
	v.SetDefault("journal.include_mood", d.Journal.IncludeMood)
	v.SetDefault("git.exclude_patterns", []string{})
	v.SetDefault("ai.openai_api_key", "")
	v.SetDefault("ai.model", d.AI.Model)
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", d.Telemetry.ServiceName)
	v.SetDefault("telemetry.exporters", []string{})
}

// Interpolate replaces every ${VAR} in data with the variable's value.
// A reference to an unset variable is a Config error; partial substitution
// would silently ship a broken key to the provider.
func Interpolate(data []byte) ([]byte, error) {
	var missing []string
	out := envRef.ReplaceAllFunc(data, func(ref []byte) []byte {
		name := string(envRef.FindSubmatch(ref)[1])
		val, ok := os.LookupEnv(name)
		if !ok {
			missing = append(missing, name)
			return ref
		}
		return []byte(val)
	})
	if len(missing) > 0 {
		return nil, journalerr.Newf(journalerr.Config, "config.interpolate",
			"export the variable or remove the reference",
			"unresolved environment variables: %v", missing)
	}
	return out, nil
}

// keyEnvRefs extracts the ${VAR} names used in ai.openai_api_key before
// interpolation erases them.
func keyEnvRefs(raw []byte) []string {
	var doc struct {
		AI struct {
			OpenAIAPIKey string `yaml:"openai_api_key"`
		} `yaml:"ai"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil
	}
	var names []string
	for _, m := range envRef.FindAllStringSubmatch(doc.AI.OpenAIAPIKey, -1) {
		names = append(names, m[1])
	}
	return names
}

func warnUnknownSections(raw []byte, path string) {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return
	}
	for key := range doc {
		if !knownSections[key] {
			slog.Warn("ignoring unknown config section", "key", key, "file", path)
		}
	}
}

// JournalRoot resolves the journal directory against the repository when the
// configured path is relative.
func (c *Config) JournalRoot(repoPath string) string {
	if filepath.IsAbs(c.Journal.Path) {
		return c.Journal.Path
	}
	return filepath.Join(repoPath, c.Journal.Path)
}

// starterTemplate is written by `commit-journal init`. Keys the user must
// touch come first.
const starterTemplate = `# commit-journal configuration
# https://github.com/quillhq/commit-journal

ai:
  # Interpolated from the environment at load time.
  openai_api_key: ${OPENAI_API_KEY}
  model: %s

journal:
  path: journal
  auto_generate: true
  include_chat: true
  include_mood: true

git:
  # Paths matching these globs are omitted from commit context.
  exclude_patterns: []

telemetry:
  enabled: false
  service_name: commit-journal
  exporters: []
`

// WriteStarter creates the starter configuration file. Refuses to overwrite.
func WriteStarter(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	content := fmt.Sprintf(starterTemplate, DefaultModel)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
