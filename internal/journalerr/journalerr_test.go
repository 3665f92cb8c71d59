package journalerr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
		ok   bool
	}{
		{"not found", New(NotFound, "workspace.locate", errors.New("no dirs"), ""), NotFound, true},
		{"access", New(Access, "db.open", errors.New("permission denied"), "check file mode"), Access, true},
		{"schema", New(Schema, "db.read", errors.New("no such table: ItemTable"), ""), Schema, true},
		{"query surfaces as access", New(Query, "db.query", errors.New("bad param"), ""), Access, true},
		{"config", New(Config, "config.load", errors.New("unresolved ${FOO}"), "export FOO"), Config, true},
		{"wrapped", fmt.Errorf("assembling: %w", New(Schema, "db.read", errors.New("x"), "")), Schema, true},
		{"unclassified", errors.New("plain"), "", false},
		{"nil-adjacent", fmt.Errorf("outer: %w", errors.New("inner")), "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := KindOf(tc.err)
			if ok != tc.ok {
				t.Fatalf("KindOf() ok = %v, want %v", ok, tc.ok)
			}
			if got != tc.want {
				t.Errorf("KindOf() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestErrorMessageSanitized(t *testing.T) {
	err := New(Config, "ai.invoke", errors.New("rejected key sk-proj1234567890abcdefghij"), "set OPENAI_API_KEY")
	msg := err.Error()
	if strings.Contains(msg, "sk-proj") {
		t.Errorf("Error() leaked API key: %q", msg)
	}
	if !strings.Contains(msg, "set OPENAI_API_KEY") {
		t.Errorf("Error() dropped hint: %q", msg)
	}
}

func TestErrorIncludesPath(t *testing.T) {
	e := New(Access, "db.open", errors.New("locked"), "")
	e.Path = "/tmp/state.vscdb"
	if msg := e.Error(); !strings.Contains(msg, "/tmp/state.vscdb") {
		t.Errorf("Error() = %q, want path included", msg)
	}
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("wrap: %w", New(Query, "db.query", errors.New("x"), ""))
	if !Is(err, Access) {
		t.Error("Is(query err, Access) = false, want true")
	}
	if Is(err, Schema) {
		t.Error("Is(query err, Schema) = true, want false")
	}
	if Is(errors.New("plain"), Access) {
		t.Error("Is(plain, Access) = true, want false")
	}
}

func TestUnwrap(t *testing.T) {
	inner := errors.New("inner")
	err := New(NotFound, "op", inner, "")
	if !errors.Is(err, inner) {
		t.Error("errors.Is should reach the wrapped error")
	}
}
