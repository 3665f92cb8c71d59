// Package telemetry records per-component spans for hook runs. Telemetry is
// observability only: a disabled or failed tracer hands out inert spans and
// never changes what the worker does.
package telemetry

import (
	"net"
	"net/http"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/posthog/posthog-go"
)

var (
	// PostHogAPIKey is set at build time for production
	PostHogAPIKey = "phc_development_key"
	// PostHogEndpoint is set at build time for production
	PostHogEndpoint = "https://eu.i.posthog.com"
)

// OptOutEnvVar disables telemetry regardless of configuration.
const OptOutEnvVar = "COMMIT_JOURNAL_TELEMETRY_OPTOUT"

// Tracer hands out spans and owns the exporter lifecycle.
type Tracer interface {
	// StartSpan opens a span named after the operation, e.g. "chat.extract".
	StartSpan(name string) *Span
	// Close flushes pending spans. The tracer is inert afterwards.
	Close()
}

// Span accumulates attributes for one operation. End reports it.
type Span struct {
	name    string
	start   time.Time
	attrs   map[string]any
	mu      sync.Mutex
	ended   bool
	exports exporter
}

type exporter interface {
	export(name string, durationMS int64, attrs map[string]any)
}

// Set records an attribute. Safe on inert spans and after End.
func (s *Span) Set(key string, value any) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.attrs[key] = value
}

// End closes the span, stamping operation.name and operation.success.
func (s *Span) End(success bool) {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.ended = true
	s.attrs["operation.name"] = s.name
	s.attrs["operation.success"] = success
	attrs := s.attrs
	exp := s.exports
	s.mu.Unlock()

	if exp != nil {
		exp.export(s.name, time.Since(s.start).Milliseconds(), attrs)
	}
}

// NoopTracer satisfies Tracer without recording anything.
type NoopTracer struct{}

func (NoopTracer) StartSpan(name string) *Span {
	return &Span{name: name, start: time.Now(), attrs: map[string]any{}}
}
func (NoopTracer) Close() {}

// silentLogger suppresses PostHog output; timeouts are expected for
// best-effort telemetry.
type silentLogger struct{}

func (silentLogger) Logf(_ string, _ ...interface{})   {}
func (silentLogger) Debugf(_ string, _ ...interface{}) {}
func (silentLogger) Warnf(_ string, _ ...interface{})  {}
func (silentLogger) Errorf(_ string, _ ...interface{}) {}

// PostHogTracer exports spans as PostHog events keyed by machine id.
type PostHogTracer struct {
	mu      sync.Mutex
	client  posthog.Client
	id      string
	service string
	closed  bool
}

// New builds a tracer for one worker run. Returns a NoopTracer unless
// enabled is true, the exporters list names "posthog", and the environment
// does not opt out. Any setup failure also degrades to noop.
func New(enabled bool, serviceName, version string, exporters []string) Tracer {
	if !enabled || os.Getenv(OptOutEnvVar) != "" {
		return NoopTracer{}
	}
	wantPostHog := false
	for _, e := range exporters {
		if e == "posthog" {
			wantPostHog = true
		}
	}
	if !wantPostHog {
		return NoopTracer{}
	}

	id, err := machineid.ProtectedID("commit-journal")
	if err != nil {
		return NoopTracer{}
	}

	// Fast-timeout transport; the worker must not linger on telemetry.
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: 100 * time.Millisecond,
		}).DialContext,
		TLSHandshakeTimeout:   100 * time.Millisecond,
		ResponseHeaderTimeout: 100 * time.Millisecond,
	}

	client, err := posthog.NewWithConfig(PostHogAPIKey, posthog.Config{
		Endpoint:           PostHogEndpoint,
		ShutdownTimeout:    100 * time.Millisecond,
		BatchUploadTimeout: 200 * time.Millisecond,
		Transport:          transport,
		Logger:             silentLogger{},
		DisableGeoIP:       posthog.Ptr(true),
		DefaultEventProperties: posthog.NewProperties().
			Set("service", serviceName).
			Set("version", version).
			Set("os", runtime.GOOS).
			Set("arch", runtime.GOARCH),
	})
	if err != nil {
		return NoopTracer{}
	}

	return &PostHogTracer{client: client, id: id, service: serviceName}
}

func (t *PostHogTracer) StartSpan(name string) *Span {
	return &Span{name: name, start: time.Now(), attrs: map[string]any{}, exports: t}
}

func (t *PostHogTracer) export(name string, durationMS int64, attrs map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || t.client == nil {
		return
	}

	props := posthog.NewProperties().Set("duration_ms", durationMS)
	for k, v := range attrs {
		props.Set(k, v)
	}

	// Best-effort; failures must not affect the worker.
	_ = t.client.Enqueue(posthog.Capture{
		DistinctId: t.id,
		Event:      name,
		Properties: props,
	})
}

// Close flushes queued events. Spans ended afterwards are dropped.
func (t *PostHogTracer) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	_ = t.client.Close()
}
