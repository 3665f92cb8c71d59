// Package boundary asks the AI where this commit's conversation begins.
// The model sees a compact view of the recent messages plus git context
// and answers with one bubbleId; everything from that message to the end
// of the window belongs to the commit.
package boundary

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/quillhq/commit-journal/internal/chat"
	"github.com/quillhq/commit-journal/internal/gitctx"
)

// MaxMessages caps the prompt at the most recent messages. The cap is
// positional: a burst of short messages early in the window can push older
// ones out, and downstream confidence scoring assumes exactly this cut.
const MaxMessages = 250

// simplifyTextLen is how much of each message the model sees.
const simplifyTextLen = 100

// ErrMissingBubbleID means the assembler produced a message without an id,
// which is a bug upstream, not a degradable condition.
var ErrMissingBubbleID = errors.New("message without bubbleId in boundary input")

// Parse failure variants. Each maps one way the response can be unusable.
var (
	ErrNotJSON           = errors.New("boundary response is not valid JSON")
	ErrEmptyBubbleID     = errors.New("boundary response has empty bubbleId")
	ErrEmptyReasoning    = errors.New("boundary response has empty reasoning")
	ErrConfidenceRange   = errors.New("boundary confidence outside 1-10")
	ErrConfidenceMissing = errors.New("boundary confidence absent or not an integer")
)

// Response is the model's verdict.
type Response struct {
	BubbleID   string `json:"bubbleId"`
	Confidence int    `json:"confidence"`
	Reasoning  string `json:"reasoning"`
}

// Exchange is the projection handed to the entry generator: who said what,
// nothing else.
type Exchange struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// simplified is one message as the prompt presents it.
type simplified struct {
	BubbleID  string `json:"bubbleId"`
	Speaker   string `json:"speaker"`
	Timestamp int64  `json:"timestamp"`
	Text      string `json:"text"`
}

// systemPrompt fixes the model's task and output contract.
const systemPrompt = `You identify where a developer's current work session begins in an AI chat transcript.

You receive the most recent chat messages (oldest first, each with a bubbleId), the commit that was just made, the previous commit, and the previous journal entry. Find the first message that belongs to the work captured in the current commit. Earlier messages belong to previous work.

Rate your confidence 1-10: 10 means an unmistakable topic change at your chosen message, 5 means a plausible guess, 1 means you are only picking the least-bad option.

Respond with only a JSON object, no prose:
{"bubbleId": "<id of the first message of this commit's conversation>", "confidence": <1-10>, "reasoning": "<one or two sentences>"}`

// InvokeFunc matches ai.Invoker.Invoke without importing it.
type InvokeFunc func(prompt, userContext string) string

// Filter returns the exchanges belonging to the commit. It never fails on
// the AI side: an unusable response degrades to the last MaxMessages
// messages. The only error is malformed input (a message with no id).
func Filter(msgs []chat.Message, commit *gitctx.CommitContext, prevCommitMessage, prevJournalEntry string, invoke InvokeFunc) ([]Exchange, error) {
	if len(msgs) == 0 {
		return nil, nil
	}
	for _, m := range msgs {
		if m.BubbleID == "" {
			return nil, fmt.Errorf("%w (composer %s)", ErrMissingBubbleID, m.ComposerID)
		}
	}

	userContext, err := buildContext(msgs, commit, prevCommitMessage, prevJournalEntry)
	if err != nil {
		slog.Warn("boundary context marshalling failed, keeping recent messages", "error", err)
		return project(tail(msgs)), nil
	}

	raw := invoke(systemPrompt, userContext)
	resp, err := ParseResponse(raw)
	if err != nil {
		slog.Warn("boundary response unusable, keeping recent messages", "error", err)
		return project(tail(msgs)), nil
	}

	idx := indexOf(msgs, resp.BubbleID)
	if idx < 0 {
		resp = substitute(msgs)
		idx = indexOf(msgs, resp.BubbleID)
	}

	logConfidence(resp)
	return project(msgs[idx:]), nil
}

// ParseResponse validates the model's JSON strictly: all three fields
// required, confidence an integer in 1-10. Unknown extra fields are
// ignored. Every failure mode has its own error.
func ParseResponse(raw string) (*Response, error) {
	raw = strings.TrimSpace(raw)
	// Models wrap JSON in fences no matter how firmly asked not to.
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var probe struct {
		BubbleID   string           `json:"bubbleId"`
		Confidence *json.RawMessage `json:"confidence"`
		Reasoning  string           `json:"reasoning"`
	}
	if raw == "" || json.Unmarshal([]byte(raw), &probe) != nil {
		return nil, ErrNotJSON
	}
	if probe.BubbleID == "" {
		return nil, ErrEmptyBubbleID
	}
	if strings.TrimSpace(probe.Reasoning) == "" {
		return nil, ErrEmptyReasoning
	}
	if probe.Confidence == nil {
		return nil, ErrConfidenceMissing
	}
	var confidence int
	if err := json.Unmarshal(*probe.Confidence, &confidence); err != nil {
		return nil, ErrConfidenceMissing
	}
	if confidence < 1 || confidence > 10 {
		return nil, ErrConfidenceRange
	}
	return &Response{BubbleID: probe.BubbleID, Confidence: confidence, Reasoning: probe.Reasoning}, nil
}

// substitute applies the invalid-bubbleId rule: with more messages than the
// cap, the boundary becomes the first message the model could actually
// see; otherwise everything is kept.
func substitute(msgs []chat.Message) *Response {
	if len(msgs) > MaxMessages {
		return &Response{
			BubbleID:   msgs[len(msgs)-MaxMessages].BubbleID,
			Confidence: 1,
			Reasoning:  "AI returned invalid bubbleId, defaulted to last 250 messages",
		}
	}
	return &Response{
		BubbleID:   msgs[0].BubbleID,
		Confidence: 1,
		Reasoning:  "AI returned invalid bubbleId, defaulted to all messages",
	}
}

func buildContext(msgs []chat.Message, commit *gitctx.CommitContext, prevCommitMessage, prevJournalEntry string) (string, error) {
	recent := tail(msgs)
	simplifiedMsgs := make([]simplified, len(recent))
	for i, m := range recent {
		simplifiedMsgs[i] = simplified{
			BubbleID:  m.BubbleID,
			Speaker:   m.Role,
			Timestamp: m.TimestampMS,
			Text:      truncate(m.Text, simplifyTextLen),
		}
	}

	payload := map[string]any{
		"messages":       simplifiedMsgs,
		"current_commit": commit,
	}
	if prevCommitMessage != "" {
		payload["previous_commit_message"] = prevCommitMessage
	}
	if prevJournalEntry != "" {
		payload["previous_journal_entry"] = prevJournalEntry
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func tail(msgs []chat.Message) []chat.Message {
	if len(msgs) > MaxMessages {
		return msgs[len(msgs)-MaxMessages:]
	}
	return msgs
}

func indexOf(msgs []chat.Message, bubbleID string) int {
	for i, m := range msgs {
		if m.BubbleID == bubbleID {
			return i
		}
	}
	return -1
}

func project(msgs []chat.Message) []Exchange {
	out := make([]Exchange, len(msgs))
	for i, m := range msgs {
		out[i] = Exchange{Speaker: m.Role, Text: m.Text}
	}
	return out
}

func logConfidence(resp *Response) {
	if resp.Confidence < 7 {
		slog.Warn("low-confidence boundary", "bubble", resp.BubbleID, "confidence", resp.Confidence, "reasoning", resp.Reasoning)
		return
	}
	slog.Info("boundary selected", "bubble", resp.BubbleID, "confidence", resp.Confidence)
}

// truncate keeps the first n runes with an ellipsis marker.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
