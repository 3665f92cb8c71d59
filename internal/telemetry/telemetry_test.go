package telemetry

import (
	"sync"
	"testing"
)

// captureExporter records exported spans for assertions.
type captureExporter struct {
	mu    sync.Mutex
	spans []map[string]any
}

func (c *captureExporter) export(_ string, _ int64, attrs map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.spans = append(c.spans, attrs)
}

func TestSpanContract(t *testing.T) {
	exp := &captureExporter{}
	s := &Span{name: "ai.invoke", attrs: map[string]any{}, exports: exp}

	s.Set("ai.success", true)
	s.Set("ai.latency_ms", int64(42))
	s.End(true)

	if len(exp.spans) != 1 {
		t.Fatalf("exported %d spans, want 1", len(exp.spans))
	}
	attrs := exp.spans[0]
	if attrs["operation.name"] != "ai.invoke" {
		t.Errorf("operation.name = %v", attrs["operation.name"])
	}
	if attrs["operation.success"] != true {
		t.Errorf("operation.success = %v", attrs["operation.success"])
	}
	if attrs["ai.success"] != true || attrs["ai.latency_ms"] != int64(42) {
		t.Errorf("ai attrs missing: %v", attrs)
	}
}

func TestSpanEndIsIdempotent(t *testing.T) {
	exp := &captureExporter{}
	s := &Span{name: "x", attrs: map[string]any{}, exports: exp}
	s.End(true)
	s.End(false)
	if len(exp.spans) != 1 {
		t.Errorf("exported %d spans, want 1", len(exp.spans))
	}
}

func TestSetAfterEndIsIgnored(t *testing.T) {
	exp := &captureExporter{}
	s := &Span{name: "x", attrs: map[string]any{}, exports: exp}
	s.End(true)
	s.Set("late", 1)
	if _, ok := exp.spans[0]["late"]; ok {
		t.Error("attribute set after End leaked into export")
	}
}

func TestNilSpanIsSafe(t *testing.T) {
	var s *Span
	s.Set("k", "v") // must not panic
	s.End(true)
}

func TestNoopTracer(t *testing.T) {
	tr := NoopTracer{}
	s := tr.StartSpan("anything")
	s.Set("k", "v")
	s.End(true)
	tr.Close()
}

func TestNewDisabled(t *testing.T) {
	if _, ok := New(false, "svc", "1.0", []string{"posthog"}).(NoopTracer); !ok {
		t.Error("disabled telemetry should return NoopTracer")
	}
	if _, ok := New(true, "svc", "1.0", nil).(NoopTracer); !ok {
		t.Error("no exporters should return NoopTracer")
	}
	if _, ok := New(true, "svc", "1.0", []string{"statsd"}).(NoopTracer); !ok {
		t.Error("unknown exporter should return NoopTracer")
	}
}

func TestNewOptOutEnv(t *testing.T) {
	t.Setenv(OptOutEnvVar, "1")
	if _, ok := New(true, "svc", "1.0", []string{"posthog"}).(NoopTracer); !ok {
		t.Error("env opt-out should force NoopTracer")
	}
}
