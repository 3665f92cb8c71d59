package ai

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeConfig drops a minimal rc file so the per-call config read finds a
// real key (or a placeholder) without touching the environment.
func writeConfig(t *testing.T, key string) string {
	t.Helper()
	repo := t.TempDir()
	content := "ai:\n  openai_api_key: " + key + "\n  model: gpt-4o-mini\n"
	if err := os.WriteFile(filepath.Join(repo, ".commit-journalrc.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return repo
}

func TestInvokePlaceholderKeySkipsProvider(t *testing.T) {
	keys := []string{
		"your-openai-api-key-here",
		"YOUR-OPENAI-API-KEY-HERE",
		"sk-placeholder-123",
		"change-me",
		"change_me",
		"my-key-here",
	}
	for _, key := range keys {
		t.Run(key, func(t *testing.T) {
			iv := New(writeConfig(t, key), nil)
			called := 0
			iv.Complete = func(context.Context, string, string, string, string) (string, error) {
				called++
				return "should not happen", nil
			}

			got := iv.Invoke(context.Background(), "p", "c")
			if got != "" {
				t.Errorf("got %q, want empty for placeholder key", got)
			}
			if called != 0 {
				t.Errorf("provider called %d times for placeholder key", called)
			}
		})
	}
}

func TestInvokeMissingKeySkipsProvider(t *testing.T) {
	repo := t.TempDir() // no config at all: defaults carry an empty key
	iv := New(repo, nil)
	called := 0
	iv.Complete = func(context.Context, string, string, string, string) (string, error) {
		called++
		return "", nil
	}

	if got := iv.Invoke(context.Background(), "p", "c"); got != "" {
		t.Errorf("got %q, want empty", got)
	}
	if called != 0 {
		t.Errorf("provider called %d times without a key", called)
	}
}

func TestInvokeRetriesTransientErrors(t *testing.T) {
	iv := New(writeConfig(t, "sk-real-test-key-value-0123456789"), nil)
	calls := 0
	iv.Complete = func(context.Context, string, string, string, string) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("connection reset by peer")
		}
		return "recovered", nil
	}

	got := iv.Invoke(context.Background(), "p", "c")
	if got != "recovered" {
		t.Errorf("got %q, want %q", got, "recovered")
	}
	if calls != 3 {
		t.Errorf("provider called %d times, want 3", calls)
	}
}

func TestInvokeAuthErrorNoRetry(t *testing.T) {
	iv := New(writeConfig(t, "sk-real-test-key-value-0123456789"), nil)
	calls := 0
	iv.Complete = func(context.Context, string, string, string, string) (string, error) {
		calls++
		return "", errors.New("401: incorrect API key provided")
	}

	if got := iv.Invoke(context.Background(), "p", "c"); got != "" {
		t.Errorf("got %q, want empty on auth failure", got)
	}
	if calls != 1 {
		t.Errorf("auth error retried: %d calls, want 1", calls)
	}
}

func TestInvokeKeyEnvVarNameIsAuthError(t *testing.T) {
	t.Setenv("JOURNAL_TEST_KEY", "sk-from-env-abcdefghij0123456789")
	repo := t.TempDir()
	content := "ai:\n  openai_api_key: ${JOURNAL_TEST_KEY}\n"
	if err := os.WriteFile(filepath.Join(repo, ".commit-journalrc.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	iv := New(repo, nil)
	calls := 0
	iv.Complete = func(context.Context, string, string, string, string) (string, error) {
		calls++
		return "", errors.New("environment variable JOURNAL_TEST_KEY rejected by provider")
	}

	iv.Invoke(context.Background(), "p", "c")
	if calls != 1 {
		t.Errorf("error naming the key env var retried: %d calls, want 1", calls)
	}
}

func TestInvokeExhaustionReturnsEmpty(t *testing.T) {
	iv := New(writeConfig(t, "sk-real-test-key-value-0123456789"), nil)
	calls := 0
	iv.Complete = func(context.Context, string, string, string, string) (string, error) {
		calls++
		return "", errors.New("503 service unavailable")
	}

	if got := iv.Invoke(context.Background(), "p", "c"); got != "" {
		t.Errorf("got %q, want empty after exhausting retries", got)
	}
	if calls != 3 {
		t.Errorf("provider called %d times, want 3", calls)
	}
}

func TestBreakerTripsAfterRepeatedFailures(t *testing.T) {
	iv := New(writeConfig(t, "sk-real-test-key-value-0123456789"), nil)
	calls := 0
	iv.Complete = func(context.Context, string, string, string, string) (string, error) {
		calls++
		return "", errors.New("401: incorrect API key provided")
	}

	for i := 0; i < breakerLimit; i++ {
		iv.Invoke(context.Background(), "p", "c")
	}
	callsBefore := calls
	iv.Invoke(context.Background(), "p", "c")
	if calls != callsBefore {
		t.Errorf("breaker open but provider still called (%d -> %d)", callsBefore, calls)
	}
}

func TestIsPlaceholderAcceptsRealKey(t *testing.T) {
	if isPlaceholder("sk-proj-abcdef0123456789abcdef0123456789") {
		t.Error("real-shaped key rejected as placeholder")
	}
}
