package boundary

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/quillhq/commit-journal/internal/chat"
	"github.com/quillhq/commit-journal/internal/gitctx"
)

func makeMessages(n int) []chat.Message {
	msgs := make([]chat.Message, n)
	for i := range msgs {
		role := chat.RoleUser
		if i%2 == 1 {
			role = chat.RoleAssistant
		}
		msgs[i] = chat.Message{
			BubbleID:    fmt.Sprintf("b%d", i),
			ComposerID:  "c1",
			Role:        role,
			Text:        fmt.Sprintf("message %d", i),
			TimestampMS: int64(1000 + i),
		}
	}
	return msgs
}

func respondWith(resp string) InvokeFunc {
	return func(prompt, userContext string) string { return resp }
}

func testCommit() *gitctx.CommitContext {
	return &gitctx.CommitContext{Hash: "abc123", Message: "fix the widget"}
}

func TestFilterSlicesAtBoundary(t *testing.T) {
	msgs := makeMessages(10)
	invoke := respondWith(`{"bubbleId":"b6","confidence":9,"reasoning":"topic changes here"}`)

	got, err := Filter(msgs, testCommit(), "", "", invoke)
	if err != nil {
		t.Fatalf("Filter() error: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("got %d exchanges, want 4 (b6..b9)", len(got))
	}
	if got[0].Text != "message 6" {
		t.Errorf("first kept text = %q, want %q", got[0].Text, "message 6")
	}
	if got[0].Speaker != chat.RoleUser {
		t.Errorf("projection lost the speaker: %+v", got[0])
	}
}

func TestFilterEmptyInput(t *testing.T) {
	got, err := Filter(nil, testCommit(), "", "", respondWith(""))
	if err != nil || got != nil {
		t.Errorf("Filter(nil) = (%v, %v), want (nil, nil)", got, err)
	}
}

func TestFilterRejectsMissingBubbleID(t *testing.T) {
	msgs := makeMessages(3)
	msgs[1].BubbleID = ""

	_, err := Filter(msgs, testCommit(), "", "", respondWith(""))
	if !errors.Is(err, ErrMissingBubbleID) {
		t.Errorf("err = %v, want ErrMissingBubbleID", err)
	}
}

func TestFilterInvalidBubbleIDLargeInput(t *testing.T) {
	// 500 messages, invalid answer: the boundary lands at index len-250.
	msgs := makeMessages(500)
	invoke := respondWith(`{"bubbleId":"no-such-id","confidence":8,"reasoning":"made up"}`)

	got, err := Filter(msgs, testCommit(), "", "", invoke)
	if err != nil {
		t.Fatalf("Filter() error: %v", err)
	}
	if len(got) != 250 {
		t.Fatalf("got %d exchanges, want 250", len(got))
	}
	if got[0].Text != "message 250" {
		t.Errorf("boundary text = %q, want %q", got[0].Text, "message 250")
	}
}

func TestFilterInvalidBubbleIDSmallInput(t *testing.T) {
	msgs := makeMessages(20)
	invoke := respondWith(`{"bubbleId":"no-such-id","confidence":8,"reasoning":"made up"}`)

	got, err := Filter(msgs, testCommit(), "", "", invoke)
	if err != nil {
		t.Fatalf("Filter() error: %v", err)
	}
	if len(got) != 20 {
		t.Errorf("got %d exchanges, want all 20", len(got))
	}
}

func TestFilterUnparseableResponseKeepsRecent(t *testing.T) {
	msgs := makeMessages(300)

	got, err := Filter(msgs, testCommit(), "", "", respondWith("sorry, I cannot help with that"))
	if err != nil {
		t.Fatalf("Filter() error: %v", err)
	}
	if len(got) != MaxMessages {
		t.Errorf("got %d exchanges, want %d (degraded tail)", len(got), MaxMessages)
	}
	if got[0].Text != "message 50" {
		t.Errorf("degraded tail starts at %q, want %q", got[0].Text, "message 50")
	}
}

func TestFilterEmptyResponseKeepsRecent(t *testing.T) {
	// The invoker degrades to "" when the provider is unavailable.
	msgs := makeMessages(7)

	got, err := Filter(msgs, testCommit(), "", "", respondWith(""))
	if err != nil {
		t.Fatalf("Filter() error: %v", err)
	}
	if len(got) != 7 {
		t.Errorf("got %d exchanges, want all 7", len(got))
	}
}

func TestFilterPromptSeesOnlyRecentMessages(t *testing.T) {
	msgs := makeMessages(300)
	var captured string
	invoke := func(prompt, userContext string) string {
		captured = userContext
		return `{"bubbleId":"b299","confidence":9,"reasoning":"last one"}`
	}

	if _, err := Filter(msgs, testCommit(), "", "", invoke); err != nil {
		t.Fatalf("Filter() error: %v", err)
	}

	var payload struct {
		Messages []simplified `json:"messages"`
	}
	if err := json.Unmarshal([]byte(captured), &payload); err != nil {
		t.Fatalf("prompt context is not JSON: %v", err)
	}
	if len(payload.Messages) != MaxMessages {
		t.Errorf("prompt carries %d messages, want %d", len(payload.Messages), MaxMessages)
	}
	if payload.Messages[0].BubbleID != "b50" {
		t.Errorf("prompt starts at %s, want b50", payload.Messages[0].BubbleID)
	}
}

func TestFilterPromptTruncatesLongText(t *testing.T) {
	msgs := makeMessages(2)
	msgs[0].Text = strings.Repeat("x", 500)
	var captured string
	invoke := func(prompt, userContext string) string {
		captured = userContext
		return `{"bubbleId":"b0","confidence":9,"reasoning":"start"}`
	}

	got, err := Filter(msgs, testCommit(), "", "", invoke)
	if err != nil {
		t.Fatalf("Filter() error: %v", err)
	}

	var payload struct {
		Messages []simplified `json:"messages"`
	}
	if err := json.Unmarshal([]byte(captured), &payload); err != nil {
		t.Fatal(err)
	}
	if want := strings.Repeat("x", 100) + "…"; payload.Messages[0].Text != want {
		t.Errorf("prompt text not truncated to 100 chars with marker: %d chars", len(payload.Messages[0].Text))
	}
	// The projection keeps the full text; only the prompt is shortened.
	if len(got[0].Text) != 500 {
		t.Errorf("projected text truncated: %d chars, want 500", len(got[0].Text))
	}
}

func TestParseResponse(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"valid", `{"bubbleId":"b1","confidence":7,"reasoning":"clear break"}`, nil},
		{"fenced", "```json\n{\"bubbleId\":\"b1\",\"confidence\":7,\"reasoning\":\"ok\"}\n```", nil},
		{"benign extra field", `{"bubbleId":"b1","confidence":7,"reasoning":"ok","model":"x"}`, nil},
		{"empty", "", ErrNotJSON},
		{"prose", "the boundary is b1", ErrNotJSON},
		{"missing bubbleId", `{"confidence":7,"reasoning":"ok"}`, ErrEmptyBubbleID},
		{"empty reasoning", `{"bubbleId":"b1","confidence":7,"reasoning":"  "}`, ErrEmptyReasoning},
		{"missing confidence", `{"bubbleId":"b1","reasoning":"ok"}`, ErrConfidenceMissing},
		{"string confidence", `{"bubbleId":"b1","confidence":"7","reasoning":"ok"}`, ErrConfidenceMissing},
		{"confidence zero", `{"bubbleId":"b1","confidence":0,"reasoning":"ok"}`, ErrConfidenceRange},
		{"confidence eleven", `{"bubbleId":"b1","confidence":11,"reasoning":"ok"}`, ErrConfidenceRange},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			resp, err := ParseResponse(c.raw)
			if !errors.Is(err, c.wantErr) {
				t.Fatalf("err = %v, want %v", err, c.wantErr)
			}
			if c.wantErr == nil && (resp.BubbleID != "b1" || resp.Confidence != 7) {
				t.Errorf("resp = %+v", resp)
			}
		})
	}
}

func TestSubstituteReasoningStrings(t *testing.T) {
	big := substitute(makeMessages(500))
	if big.Reasoning != "AI returned invalid bubbleId, defaulted to last 250 messages" {
		t.Errorf("large-input reasoning = %q", big.Reasoning)
	}
	if big.Confidence != 1 {
		t.Errorf("confidence = %d, want 1", big.Confidence)
	}

	small := substitute(makeMessages(10))
	if small.Reasoning != "AI returned invalid bubbleId, defaulted to all messages" {
		t.Errorf("small-input reasoning = %q", small.Reasoning)
	}
	if small.BubbleID != "b0" {
		t.Errorf("small-input boundary = %s, want b0", small.BubbleID)
	}
}
