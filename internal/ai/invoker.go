// Package ai wraps chat-completion calls with the policy the hook needs:
// configuration re-read per call, placeholder-key short-circuit, bounded
// retry that refuses to retry auth failures, a per-run circuit breaker,
// and graceful degradation to an empty string. Callers must treat "" as
// "no AI available" and produce whatever they can without it.
package ai

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/quillhq/commit-journal/internal/config"
	"github.com/quillhq/commit-journal/internal/telemetry"
)

const (
	maxAttempts    = 3
	retryDelay     = 1 * time.Second
	requestTimeout = 30 * time.Second
	// breakerLimit trips the breaker after this many failures in one run.
	breakerLimit = 3
)

// placeholderMarkers flag keys that were never filled in. Matched as
// case-insensitive substrings, with both dash and underscore spellings.
var placeholderMarkers = []string{
	"your-openai-api-key-here",
	"your_openai_api_key_here",
	"placeholder",
	"change-me",
	"change_me",
	"your-key",
	"your_key",
	"key-here",
	"key_here",
}

// CompleteFunc performs one chat-completion request. Tests substitute it.
type CompleteFunc func(ctx context.Context, key, model, prompt, userContext string) (string, error)

// Invoker issues AI calls for one worker run.
type Invoker struct {
	RepoPath string
	Tracer   telemetry.Tracer

	// Complete overrides the provider call; nil uses OpenAI.
	Complete CompleteFunc

	warnOnce sync.Once
	mu       sync.Mutex
	failures int
}

// New builds an invoker. tracer may be nil for no telemetry.
func New(repoPath string, tracer telemetry.Tracer) *Invoker {
	if tracer == nil {
		tracer = telemetry.NoopTracer{}
	}
	return &Invoker{RepoPath: repoPath, Tracer: tracer}
}

// Invoke sends prompt as the system message and userContext as the user
// message, returning the model's text. Returns "" on any failure; the
// caller degrades. Configuration is re-read on every call so a rotated
// key takes effect mid-process.
func (iv *Invoker) Invoke(ctx context.Context, prompt, userContext string) string {
	span := iv.Tracer.StartSpan("ai.invoke")
	start := time.Now()
	text, err := iv.invoke(ctx, prompt, userContext, span)
	span.Set("ai.latency_ms", time.Since(start).Milliseconds())
	span.Set("ai.success", err == nil && text != "")
	if err != nil {
		span.Set("ai.error_type", errorType(err))
	}
	span.End(err == nil)
	return text
}

func (iv *Invoker) invoke(ctx context.Context, prompt, userContext string, span *telemetry.Span) (string, error) {
	if iv.tripped() {
		span.Set("ai.breaker_open", true)
		return "", nil
	}

	cfg, err := config.Load(iv.RepoPath)
	if err != nil {
		slog.Warn("AI disabled: configuration unreadable", "error", err)
		return "", err
	}
	if isPlaceholder(cfg.AI.OpenAIAPIKey) {
		iv.warnOnce.Do(func() {
			slog.Warn("AI disabled: openai_api_key is missing or a placeholder",
				"config", cfg.Source)
		})
		return "", nil
	}

	model := cfg.AI.Model
	if model == "" {
		model = config.DefaultModel
	}
	complete := iv.Complete
	if complete == nil {
		complete = openAIComplete
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		text, err := complete(ctx, cfg.AI.OpenAIAPIKey, model, prompt, userContext)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if isAuthError(err, cfg.KeyEnvVars) {
			slog.Warn("AI auth error, not retrying", "error", err)
			iv.recordFailure()
			return "", err
		}
		slog.Warn("AI call failed", "attempt", attempt, "error", err)
		if attempt < maxAttempts {
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				iv.recordFailure()
				return "", ctx.Err()
			}
		}
	}
	iv.recordFailure()
	return "", lastErr
}

func (iv *Invoker) tripped() bool {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	return iv.failures >= breakerLimit
}

func (iv *Invoker) recordFailure() {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	iv.failures++
	if iv.failures == breakerLimit {
		slog.Warn("AI circuit breaker open: skipping further calls this run")
	}
}

// isPlaceholder rejects empty keys and the unfilled template values that
// ship in starter configs.
func isPlaceholder(key string) bool {
	k := strings.ToLower(strings.TrimSpace(key))
	if k == "" {
		return true
	}
	for _, marker := range placeholderMarkers {
		if strings.Contains(k, marker) {
			return true
		}
	}
	return false
}

// isAuthError matches failures that a retry cannot fix: the provider
// complaining about the key, or our own config error naming the env var
// that should have supplied it.
func isAuthError(err error, keyEnvVars []string) bool {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "api key") {
		return true
	}
	for _, name := range keyEnvVars {
		if name != "" && strings.Contains(msg, strings.ToLower(name)) {
			return true
		}
	}
	return false
}

func errorType(err error) string {
	switch {
	case strings.Contains(strings.ToLower(err.Error()), "api key"):
		return "auth"
	case strings.Contains(err.Error(), "context deadline exceeded"):
		return "timeout"
	default:
		return "provider"
	}
}

// openAIComplete is the production provider call.
func openAIComplete(ctx context.Context, key, model, prompt, userContext string) (string, error) {
	client := openai.NewClient(
		option.WithAPIKey(key),
		option.WithRequestTimeout(requestTimeout),
	)
	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt),
			openai.UserMessage(userContext),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
